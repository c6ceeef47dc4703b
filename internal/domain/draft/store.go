package draft

import (
	"strconv"

	"github.com/puzpuzpuz/xsync"
)

// Store keeps in-flight sessions in memory. Sessions are lost on restart.
type Store struct {
	sessions *xsync.MapOf[string, *Session]
}

func NewStore() *Store {
	return &Store{sessions: xsync.NewMapOf[*Session]()}
}

func (s *Store) Get(userID int64) (*Session, bool) {
	return s.sessions.Load(key(userID))
}

// Put replaces any session the user already had.
func (s *Store) Put(userID int64, session *Session) {
	s.sessions.Store(key(userID), session)
}

func (s *Store) Delete(userID int64) {
	s.sessions.Delete(key(userID))
}

func (s *Store) Len() int {
	return s.sessions.Size()
}

func key(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
