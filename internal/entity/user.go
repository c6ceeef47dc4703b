package entity

import (
	"database/sql"
	"time"
)

// User is keyed by the chat platform user id.
type User struct {
	ID        int64 `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Username  string
	FirstName string
	LastName  string

	XP           uint64
	ReferralCode string `gorm:"uniqueIndex;size:16"`
	ReferredBy   sql.NullInt64

	Banned            bool
	MuteUntil         sql.NullTime
	CooldownExpiresAt sql.NullTime
	LinkViolations    int
}

// DisplayName prefers the @username and falls back to the first name.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}

	if u.FirstName != "" {
		return u.FirstName
	}

	return "user"
}

func (u *User) IsMuted(now time.Time) bool {
	return u.MuteUntil.Valid && u.MuteUntil.Time.After(now)
}
