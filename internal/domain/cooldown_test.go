package domain

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/trixlive/backend/internal/entity"
	"github.com/trixlive/backend/internal/repository"
	"github.com/trixlive/backend/pkg/errorx"
	"github.com/trixlive/backend/pkg/testutil"
)

type failingUserRepo struct {
	repository.UserRepository
}

func (failingUserRepo) GetByID(context.Context, int64) (*entity.User, error) {
	return nil, errors.New("connection refused")
}

func newTestGate(now time.Time) (*CooldownGate, repository.UserRepository, repository.RestrictionLogRepository) {
	userRepo := repository.NewUserRepository()
	restrictionRepo := repository.NewRestrictionLogRepository(testutil.NewSnowflakeNode())
	gate := NewCooldownGate(userRepo, restrictionRepo).WithClock(func() time.Time { return now })
	return gate, userRepo, restrictionRepo
}

func Test_CooldownGate_CanSubmit(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	now := time.Now().UTC().Truncate(time.Second)
	gate, userRepo, _ := newTestGate(now)

	allowed, remaining := gate.CanSubmit(ctx, testutil.User1.ID)
	require.True(t, allowed)
	require.Zero(t, remaining)

	gate.RecordSubmission(ctx, testutil.User1.ID)
	allowed, remaining = gate.CanSubmit(ctx, testutil.User1.ID)
	require.False(t, allowed)
	require.Equal(t, 5666*time.Second, remaining)

	// A longer mute wins over the cooldown.
	err := userRepo.UpdateRestriction(ctx, testutil.User1.ID, repository.UserRestriction{
		MuteUntil: &sql.NullTime{Time: now.Add(3 * time.Hour), Valid: true},
	})
	require.NoError(t, err)
	allowed, remaining = gate.CanSubmit(ctx, testutil.User1.ID)
	require.False(t, allowed)
	require.Equal(t, 3*time.Hour, remaining)

	// Both restrictions elapsed.
	later, _, _ := newTestGate(now.Add(3*time.Hour + time.Second))
	allowed, remaining = later.CanSubmit(ctx, testutil.User1.ID)
	require.True(t, allowed)
	require.Zero(t, remaining)
}

func Test_CooldownGate_Banned(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	gate, userRepo, _ := newTestGate(time.Now())

	banned := true
	require.NoError(t, userRepo.UpdateRestriction(ctx, testutil.User2.ID, repository.UserRestriction{Banned: &banned}))

	allowed, remaining := gate.CanSubmit(ctx, testutil.User2.ID)
	require.False(t, allowed)
	require.Equal(t, Forever, remaining)
	require.True(t, errorx.Is(SubmitError(remaining), errorx.Banned))

	require.True(t, errorx.Is(gate.CheckRestricted(ctx, testutil.User2.ID), errorx.Banned))
}

func Test_CooldownGate_Moderators(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	gate, userRepo, _ := newTestGate(time.Now())

	gate.RecordSubmission(ctx, testutil.Moderator1ID)
	user, err := userRepo.GetByID(ctx, testutil.Moderator1ID)
	require.NoError(t, err)
	require.False(t, user.CooldownExpiresAt.Valid)

	// Moderators pass even with a restriction in the store.
	err = userRepo.UpdateRestriction(ctx, testutil.Admin1ID, repository.UserRestriction{
		CooldownExpiresAt: &sql.NullTime{Time: time.Now().Add(time.Hour), Valid: true},
	})
	require.NoError(t, err)
	allowed, _ := gate.CanSubmit(ctx, testutil.Admin1ID)
	require.True(t, allowed)
}

func Test_CooldownGate_UnknownUserAndFailOpen(t *testing.T) {
	ctx := testutil.NewMockContext()
	gate, _, _ := newTestGate(time.Now())

	allowed, remaining := gate.CanSubmit(ctx, 424242)
	require.False(t, allowed)
	require.Zero(t, remaining)
	require.True(t, errorx.Is(SubmitError(remaining), errorx.PermissionDenied))

	failing := NewCooldownGate(failingUserRepo{}, nil)
	allowed, _ = failing.CanSubmit(ctx, testutil.User1.ID)
	require.True(t, allowed)
	require.NoError(t, failing.CheckRestricted(ctx, testutil.User1.ID))
}

func Test_CooldownGate_Reset(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	gate, _, restrictionRepo := newTestGate(time.Now())

	gate.RecordSubmission(ctx, testutil.User1.ID)
	allowed, _ := gate.CanSubmit(ctx, testutil.User1.ID)
	require.False(t, allowed)

	err := gate.Reset(ctx, testutil.User2.ID, testutil.User1.ID)
	require.True(t, errorx.Is(err, errorx.PermissionDenied))

	require.NoError(t, gate.Reset(ctx, testutil.Moderator1ID, testutil.User1.ID))
	allowed, _ = gate.CanSubmit(ctx, testutil.User1.ID)
	require.True(t, allowed)

	logs, err := restrictionRepo.GetByUserID(ctx, testutil.User1.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, entity.RestrictionCooldownReset, logs[0].Action)
	require.Equal(t, testutil.Moderator1ID, logs[0].ImposedBy)
}

func Test_CooldownGate_Muted(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	now := time.Now()
	gate, userRepo, _ := newTestGate(now)

	err := userRepo.UpdateRestriction(ctx, testutil.User1.ID, repository.UserRestriction{
		MuteUntil: &sql.NullTime{Time: now.Add(10 * time.Minute), Valid: true},
	})
	require.NoError(t, err)

	require.True(t, errorx.Is(gate.CheckRestricted(ctx, testutil.User1.ID), errorx.Muted))
	require.NoError(t, gate.CheckRestricted(ctx, testutil.User2.ID))
}

func Test_FormatRemaining(t *testing.T) {
	require.Equal(t, "1h 34m", FormatRemaining(5666*time.Second))
	require.Equal(t, "5m", FormatRemaining(5*time.Minute))
	require.Equal(t, "1s", FormatRemaining(time.Millisecond))
}
