package game

import (
	"sync"
	"time"

	"github.com/trixlive/backend/pkg/crypto"
	"github.com/trixlive/backend/pkg/errorx"
	"golang.org/x/exp/slices"
)

// MaxNumber is the largest lottery number. Numbers start at 1.
const MaxNumber = 9999

type Ticket struct {
	UserID   int64
	Username string
	Number   int
	JoinedAt time.Time

	seq int
}

type lottery struct {
	mu      sync.Mutex
	tickets map[int64]*Ticket
	numbers map[int]int64
	seq     int
}

// LotteryRegistry runs one closest-number lottery per game variant. State
// lives in memory only.
type LotteryRegistry struct {
	mu       sync.Mutex
	variants map[string]*lottery
	randIntn func(n int) int
	now      func() time.Time
}

func NewLotteryRegistry() *LotteryRegistry {
	return &LotteryRegistry{
		variants: map[string]*lottery{},
		randIntn: crypto.RandIntn,
		now:      time.Now,
	}
}

// WithRand replaces the random source, randIntn must return a value in
// [0, n).
func (r *LotteryRegistry) WithRand(randIntn func(n int) int) *LotteryRegistry {
	r.randIntn = randIntn
	return r
}

func (r *LotteryRegistry) variant(name string) *lottery {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.variants[name]
	if !ok {
		l = &lottery{tickets: map[int64]*Ticket{}, numbers: map[int]int64{}}
		r.variants[name] = l
	}

	return l
}

// Join returns the number of the user, drawing a new unique one on the
// first call. existed is true when the user already had a ticket.
func (r *LotteryRegistry) Join(variant string, userID int64, username string) (int, bool, error) {
	l := r.variant(variant)
	l.mu.Lock()
	defer l.mu.Unlock()

	if t, ok := l.tickets[userID]; ok {
		return t.Number, true, nil
	}

	if len(l.numbers) >= MaxNumber {
		return 0, false, errorx.New(errorx.Unavailable, "All numbers are taken")
	}

	number := r.randIntn(MaxNumber) + 1
	for {
		if _, taken := l.numbers[number]; !taken {
			break
		}

		number = r.randIntn(MaxNumber) + 1
	}

	l.seq++
	l.tickets[userID] = &Ticket{
		UserID:   userID,
		Username: username,
		Number:   number,
		JoinedAt: r.now(),
		seq:      l.seq,
	}
	l.numbers[number] = userID

	return number, false, nil
}

// Draw picks a random target and returns the winners closest to it.
func (r *LotteryRegistry) Draw(variant string, winners int) ([]Ticket, int, error) {
	target := r.randIntn(MaxNumber) + 1
	result, err := r.DrawWithTarget(variant, winners, target)
	return result, target, err
}

// DrawWithTarget sorts tickets by distance to target and returns the first
// winners of them. Ties go to the earlier participant.
func (r *LotteryRegistry) DrawWithTarget(variant string, winners, target int) ([]Ticket, error) {
	if winners < 1 {
		return nil, errorx.New(errorx.BadRequest, "The number of winners must be positive")
	}

	tickets := r.Tickets(variant)
	if len(tickets) < winners {
		return nil, errorx.New(errorx.BadRequest,
			"Not enough participants: %d joined, %d needed", len(tickets), winners)
	}

	slices.SortStableFunc(tickets, func(a, b Ticket) bool {
		return distance(a.Number, target) < distance(b.Number, target)
	})

	return tickets[:winners], nil
}

// Reset clears the tickets of one variant and returns how many were
// removed.
func (r *LotteryRegistry) Reset(variant string) int {
	l := r.variant(variant)
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.tickets)
	l.tickets = map[int64]*Ticket{}
	l.numbers = map[int]int64{}
	l.seq = 0
	return n
}

func (r *LotteryRegistry) Ticket(variant string, userID int64) (Ticket, bool) {
	l := r.variant(variant)
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.tickets[userID]
	if !ok {
		return Ticket{}, false
	}

	return *t, true
}

// Tickets returns a copy of all tickets in join order.
func (r *LotteryRegistry) Tickets(variant string) []Ticket {
	l := r.variant(variant)
	l.mu.Lock()
	defer l.mu.Unlock()

	result := make([]Ticket, 0, len(l.tickets))
	for _, t := range l.tickets {
		result = append(result, *t)
	}

	slices.SortFunc(result, func(a, b Ticket) bool { return a.seq < b.seq })
	return result
}

func distance(a, b int) int {
	if a > b {
		return a - b
	}

	return b - a
}
