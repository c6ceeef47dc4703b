package game

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/trixlive/backend/pkg/crypto"
	"github.com/trixlive/backend/pkg/errorx"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type AttemptResult struct {
	Won  bool
	Word string

	// Remaining is the wait before the next allowed attempt.
	Remaining time.Duration
}

type ContestInfo struct {
	Variant     string
	Active      bool
	Description string
	Interval    time.Duration
	Words       map[string]string
	Winners     []string
}

// StopResult describes the round that was running when the contest stopped.
type StopResult struct {
	WasActive bool
	Word      string
	Winners   []string
}

type contest struct {
	mu           sync.Mutex
	words        map[string]string
	word         string
	active       bool
	winners      []string
	interval     time.Duration
	description  string
	lastAttempts map[int64]time.Time
}

// WordContest keeps one guessing game per variant in memory.
type WordContest struct {
	mu              sync.Mutex
	variants        map[string]*contest
	defaultInterval time.Duration
	randIntn        func(n int) int
	now             func() time.Time
}

func NewWordContest(defaultInterval time.Duration) *WordContest {
	return &WordContest{
		variants:        map[string]*contest{},
		defaultInterval: defaultInterval,
		randIntn:        crypto.RandIntn,
		now:             time.Now,
	}
}

func (c *WordContest) WithClock(now func() time.Time) *WordContest {
	c.now = now
	return c
}

func (c *WordContest) WithRand(randIntn func(n int) int) *WordContest {
	c.randIntn = randIntn
	return c
}

func (c *WordContest) variant(name string) *contest {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.variants[name]
	if !ok {
		v = &contest{
			words:        map[string]string{},
			interval:     c.defaultInterval,
			lastAttempts: map[int64]time.Time{},
		}
		c.variants[name] = v
	}

	return v
}

// NormalizeWord lower-cases and trims a word and folds ё into е.
func NormalizeWord(word string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(word)), "ё", "е")
}

func (c *WordContest) AddWord(variant, word string) (string, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return "", errorx.New(errorx.BadRequest, "The word must not be empty")
	}

	v := c.variant(variant)
	v.mu.Lock()
	defer v.mu.Unlock()

	description := "Guess the word: " + word
	v.words[word] = description
	return description, nil
}

func (c *WordContest) EditWord(variant, word, description string) error {
	word = strings.ToLower(strings.TrimSpace(word))
	description = strings.TrimSpace(description)
	if description == "" {
		return errorx.New(errorx.BadRequest, "The description must not be empty")
	}

	v := c.variant(variant)
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.words[word]; !ok {
		return errorx.New(errorx.NotFound, "Word %q not found in %s", word, variant)
	}

	v.words[word] = description
	return nil
}

func (c *WordContest) RemoveWord(variant, word string) error {
	word = strings.ToLower(strings.TrimSpace(word))

	v := c.variant(variant)
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.words[word]; !ok {
		return errorx.New(errorx.NotFound, "Word %q not found in %s", word, variant)
	}

	delete(v.words, word)
	return nil
}

func (c *WordContest) SetInterval(variant string, d time.Duration) error {
	if d <= 0 {
		return errorx.New(errorx.BadRequest, "The interval must be positive")
	}

	v := c.variant(variant)
	v.mu.Lock()
	defer v.mu.Unlock()

	v.interval = d
	return nil
}

func (c *WordContest) SetDescription(variant, text string) {
	v := c.variant(variant)
	v.mu.Lock()
	defer v.mu.Unlock()

	v.description = strings.TrimSpace(text)
}

func (c *WordContest) Info(variant string) ContestInfo {
	v := c.variant(variant)
	v.mu.Lock()
	defer v.mu.Unlock()

	return ContestInfo{
		Variant:     variant,
		Active:      v.active,
		Description: v.description,
		Interval:    v.interval,
		Words:       maps.Clone(v.words),
		Winners:     append([]string(nil), v.winners...),
	}
}

// Start activates a random registered word and clears the winners.
func (c *WordContest) Start(variant string) (string, error) {
	v := c.variant(variant)
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(v.words) == 0 {
		return "", errorx.New(errorx.BadRequest, "Add at least one word first")
	}

	words := maps.Keys(v.words)
	slices.Sort(words)

	v.word = words[c.randIntn(len(words))]
	v.winners = nil
	v.active = true
	return v.word, nil
}

func (c *WordContest) Stop(variant string) StopResult {
	v := c.variant(variant)
	v.mu.Lock()
	defer v.mu.Unlock()

	result := StopResult{
		WasActive: v.active,
		Word:      v.word,
		Winners:   append([]string(nil), v.winners...),
	}
	v.active = false
	return result
}

// Attempt checks a guess. The attempt time is recorded before the guess is
// compared, so a winning guess also consumes the interval.
func (c *WordContest) Attempt(variant string, userID int64, username, guess string) (AttemptResult, error) {
	v := c.variant(variant)
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.active {
		return AttemptResult{}, errorx.New(errorx.Unavailable, "The contest is not active")
	}

	now := c.now()
	if last, ok := v.lastAttempts[userID]; ok {
		if next := last.Add(v.interval); now.Before(next) {
			return AttemptResult{Remaining: next.Sub(now)}, errorx.New(errorx.TooManyRequests,
				"Next attempt in %d min", int(math.Ceil(next.Sub(now).Minutes())))
		}
	}

	v.lastAttempts[userID] = now

	if NormalizeWord(guess) != NormalizeWord(v.word) {
		return AttemptResult{Remaining: v.interval}, nil
	}

	v.winners = append(v.winners, username)
	v.active = false
	return AttemptResult{Won: true, Word: v.word}, nil
}
