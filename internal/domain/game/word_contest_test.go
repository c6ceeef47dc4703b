package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/trixlive/backend/pkg/errorx"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func newContest(t *testing.T) (*WordContest, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	c := NewWordContest(time.Hour).WithClock(clock.Now).WithRand(func(int) int { return 0 })

	_, err := c.AddWord("play3x", "Мост")
	require.NoError(t, err)
	return c, clock
}

func Test_WordContest_StartRequiresWords(t *testing.T) {
	c := NewWordContest(time.Hour)
	_, err := c.Start("play3x")
	require.True(t, errorx.Is(err, errorx.BadRequest))

	_, err = c.Attempt("play3x", 1, "alice", "x")
	require.True(t, errorx.Is(err, errorx.Unavailable))
}

func Test_WordContest_CorrectGuessEndsRound(t *testing.T) {
	c, _ := newContest(t)

	word, err := c.Start("play3x")
	require.NoError(t, err)
	require.Equal(t, "мост", word)
	require.True(t, c.Info("play3x").Active)

	result, err := c.Attempt("play3x", 1, "alice", "  МОСТ ")
	require.NoError(t, err)
	require.True(t, result.Won)

	info := c.Info("play3x")
	require.False(t, info.Active)
	require.Equal(t, []string{"alice"}, info.Winners)

	_, err = c.Attempt("play3x", 2, "bob", "мост")
	require.True(t, errorx.Is(err, errorx.Unavailable))
	require.Equal(t, []string{"alice"}, c.Info("play3x").Winners)
}

func Test_WordContest_Interval(t *testing.T) {
	c, clock := newContest(t)
	_, err := c.Start("play3x")
	require.NoError(t, err)

	result, err := c.Attempt("play3x", 1, "alice", "река")
	require.NoError(t, err)
	require.False(t, result.Won)
	require.Equal(t, time.Hour, result.Remaining)

	// Whole minutes are reported as is, the rest is rounded up.
	_, err = c.Attempt("play3x", 1, "alice", "река")
	require.True(t, errorx.Is(err, errorx.TooManyRequests))
	require.Contains(t, err.Error(), "Next attempt in 60 min")

	clock.now = clock.now.Add(30 * time.Second)
	_, err = c.Attempt("play3x", 1, "alice", "река")
	require.Contains(t, err.Error(), "Next attempt in 60 min")
	clock.now = clock.now.Add(-30 * time.Second)

	clock.now = clock.now.Add(time.Hour - time.Nanosecond)
	result, err = c.Attempt("play3x", 1, "alice", "мост")
	require.True(t, errorx.Is(err, errorx.TooManyRequests))
	require.Equal(t, time.Nanosecond, result.Remaining)

	// Another user is not affected.
	result, err = c.Attempt("play3x", 2, "bob", "дом")
	require.NoError(t, err)
	require.False(t, result.Won)

	clock.now = clock.now.Add(time.Nanosecond)
	result, err = c.Attempt("play3x", 1, "alice", "мост")
	require.NoError(t, err)
	require.True(t, result.Won)
}

func Test_WordContest_Normalization(t *testing.T) {
	require.Equal(t, "елка", NormalizeWord(" Ёлка "))

	c := NewWordContest(time.Minute).WithRand(func(int) int { return 0 })
	_, err := c.AddWord("v", "ёлка")
	require.NoError(t, err)
	_, err = c.Start("v")
	require.NoError(t, err)

	result, err := c.Attempt("v", 1, "alice", "ЕЛКА")
	require.NoError(t, err)
	require.True(t, result.Won)
}

func Test_WordContest_WordAdmin(t *testing.T) {
	c, _ := newContest(t)

	require.NoError(t, c.EditWord("play3x", "МОСТ", "Famous bridge"))
	require.Equal(t, "Famous bridge", c.Info("play3x").Words["мост"])

	require.True(t, errorx.Is(c.EditWord("play3x", "дом", "x"), errorx.NotFound))
	require.True(t, errorx.Is(c.SetInterval("play3x", 0), errorx.BadRequest))
	require.NoError(t, c.SetInterval("play3x", 5*time.Minute))

	c.SetDescription("play3x", "Weekly contest")
	info := c.Info("play3x")
	require.Equal(t, 5*time.Minute, info.Interval)
	require.Equal(t, "Weekly contest", info.Description)

	require.NoError(t, c.RemoveWord("play3x", "мост"))
	require.True(t, errorx.Is(c.RemoveWord("play3x", "мост"), errorx.NotFound))
	require.Empty(t, c.Info("play3x").Words)
}

func Test_WordContest_Stop(t *testing.T) {
	c, _ := newContest(t)
	_, err := c.Start("play3x")
	require.NoError(t, err)

	result := c.Stop("play3x")
	require.True(t, result.WasActive)
	require.Equal(t, "мост", result.Word)
	require.False(t, c.Info("play3x").Active)
}
