package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/trixlive/backend/internal/entity"
	"github.com/trixlive/backend/pkg/testutil"
)

func Test_userRepository_UpdateRestriction(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	userRepo := NewUserRepository()

	banned := true
	muteUntil := time.Now().Add(time.Hour).UTC()
	err := userRepo.UpdateRestriction(ctx, testutil.User1.ID, UserRestriction{
		Banned:    &banned,
		MuteUntil: &sql.NullTime{Time: muteUntil, Valid: true},
	})
	require.NoError(t, err)

	user, err := userRepo.GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.True(t, user.Banned)
	require.True(t, user.MuteUntil.Valid)
	require.WithinDuration(t, muteUntil, user.MuteUntil.Time, time.Second)
	require.False(t, user.CooldownExpiresAt.Valid)

	// Clearing the mute keeps the ban.
	err = userRepo.UpdateRestriction(ctx, testutil.User1.ID, UserRestriction{
		MuteUntil: &sql.NullTime{},
	})
	require.NoError(t, err)

	user, err = userRepo.GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.True(t, user.Banned)
	require.False(t, user.MuteUntil.Valid)

	// Zero values are written when the pointer is set.
	notBanned := false
	zero := 0
	require.NoError(t, userRepo.IncreaseLinkViolations(ctx, testutil.User1.ID))
	err = userRepo.UpdateRestriction(ctx, testutil.User1.ID, UserRestriction{
		Banned:         &notBanned,
		LinkViolations: &zero,
	})
	require.NoError(t, err)

	user, err = userRepo.GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.False(t, user.Banned)
	require.Equal(t, 0, user.LinkViolations)
}

func Test_userRepository_XP(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	userRepo := NewUserRepository()

	require.NoError(t, userRepo.IncreaseXP(ctx, testutil.User2.ID, 30))
	require.NoError(t, userRepo.IncreaseXP(ctx, testutil.User1.ID, 10))
	require.NoError(t, userRepo.IncreaseXP(ctx, testutil.User2.ID, 5))
	require.Error(t, userRepo.IncreaseXP(ctx, 42, 5))

	top, err := userRepo.GetTopByXP(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, testutil.User2.ID, top[0].ID)
	require.Equal(t, uint64(35), top[0].XP)
	require.Equal(t, testutil.User1.ID, top[1].ID)
}

func Test_userRepository_ProfileAndReferral(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	userRepo := NewUserRepository()

	user, err := userRepo.GetByReferralCode(ctx, "bobref")
	require.NoError(t, err)
	require.Equal(t, testutil.User2.ID, user.ID)

	err = userRepo.UpdateProfile(ctx, &entity.User{ID: testutil.User2.ID, Username: "bobby"})
	require.NoError(t, err)

	user, err = userRepo.GetByID(ctx, testutil.User2.ID)
	require.NoError(t, err)
	require.Equal(t, "bobby", user.Username)
	require.Equal(t, "", user.FirstName)

	stat, err := userRepo.Statistic(ctx, time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(len(testutil.Users)), stat.Total)
	require.Equal(t, int64(0), stat.Banned)
}

func Test_userRepository_GetIDs(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	userRepo := NewUserRepository()

	banned := true
	require.NoError(t, userRepo.UpdateRestriction(ctx, testutil.User2.ID, UserRestriction{Banned: &banned}))

	ids, err := userRepo.GetIDs(ctx, 0, 2)
	require.NoError(t, err)
	require.Equal(t, []int64{testutil.User1.ID, testutil.Moderator1ID}, ids)

	ids, err = userRepo.GetIDs(ctx, testutil.Moderator1ID, 10)
	require.NoError(t, err)
	require.Equal(t, []int64{testutil.Admin1ID}, ids)
}
