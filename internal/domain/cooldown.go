package domain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/trixlive/backend/internal/entity"
	"github.com/trixlive/backend/internal/repository"
	"github.com/trixlive/backend/pkg/errorx"
	"github.com/trixlive/backend/pkg/xcontext"
	"gorm.io/gorm"
)

// Forever is the remaining time reported for banned users.
const Forever = time.Duration(math.MaxInt64)

type CooldownGate struct {
	userRepo        repository.UserRepository
	restrictionRepo repository.RestrictionLogRepository
	now             func() time.Time
}

func NewCooldownGate(
	userRepo repository.UserRepository,
	restrictionRepo repository.RestrictionLogRepository,
) *CooldownGate {
	return &CooldownGate{
		userRepo:        userRepo,
		restrictionRepo: restrictionRepo,
		now:             time.Now,
	}
}

// WithClock replaces the clock. It is meant for tests.
func (g *CooldownGate) WithClock(now func() time.Time) *CooldownGate {
	g.now = now
	return g
}

// CanSubmit reports whether the user may submit a new post now. When not
// allowed, remaining is the time until the latest restriction expires,
// rounded up to whole seconds. Store failures let the user through.
func (g *CooldownGate) CanSubmit(ctx context.Context, userID int64) (bool, time.Duration) {
	if xcontext.Configs(ctx).Roles.IsModerator(userID) {
		return true, 0
	}

	user, err := g.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, 0
		}

		xcontext.Logger(ctx).Errorf("Cannot get user %d for cooldown check: %v", userID, err)
		return true, 0
	}

	if user.Banned {
		return false, Forever
	}

	now := g.now()
	remaining := time.Duration(0)
	for _, until := range []sql.NullTime{user.MuteUntil, user.CooldownExpiresAt} {
		if until.Valid && until.Time.After(now) {
			remaining = max(remaining, until.Time.Sub(now))
		}
	}

	if remaining > 0 {
		return false, roundUpSeconds(remaining)
	}

	return true, 0
}

// RecordSubmission starts the cooldown of the user. Failures are only
// logged.
func (g *CooldownGate) RecordSubmission(ctx context.Context, userID int64) {
	cfg := xcontext.Configs(ctx)
	if cfg.Roles.IsModerator(userID) {
		return
	}

	expiresAt := sql.NullTime{Time: g.now().Add(cfg.Cooldown.Duration), Valid: true}
	err := g.userRepo.UpdateRestriction(ctx, userID, repository.UserRestriction{
		CooldownExpiresAt: &expiresAt,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot record submission of user %d: %v", userID, err)
	}
}

// Reset clears the cooldown of the user on behalf of a moderator.
func (g *CooldownGate) Reset(ctx context.Context, moderatorID, userID int64) error {
	if !xcontext.Configs(ctx).Roles.IsModerator(moderatorID) {
		return errorx.New(errorx.PermissionDenied, "Only moderators can reset cooldowns")
	}

	if _, err := g.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorx.New(errorx.NotFound, "Not found user %d", userID)
		}

		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return errorx.Unknown
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	err := g.userRepo.UpdateRestriction(ctx, userID, repository.UserRestriction{
		CooldownExpiresAt: &sql.NullTime{},
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reset cooldown: %v", err)
		return errorx.Unknown
	}

	err = g.restrictionRepo.Create(ctx, &entity.RestrictionLog{
		UserID:    userID,
		Action:    entity.RestrictionCooldownReset,
		ImposedBy: moderatorID,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create restriction log: %v", err)
		return errorx.Unknown
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit cooldown reset: %v", err)
		return errorx.Unknown
	}

	return nil
}

// CheckRestricted returns a Banned or Muted error for restricted users.
// Unknown users and store failures are not restricted.
func (g *CooldownGate) CheckRestricted(ctx context.Context, userID int64) error {
	user, err := g.userRepo.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot get user %d for restriction check: %v", userID, err)
		}

		return nil
	}

	if user.Banned {
		return errorx.New(errorx.Banned, "You are banned")
	}

	now := g.now()
	if user.IsMuted(now) {
		return errorx.New(errorx.Muted, "You are muted for %s", FormatRemaining(user.MuteUntil.Time.Sub(now)))
	}

	return nil
}

// SubmitError converts a negative CanSubmit outcome into a user facing
// error.
func SubmitError(remaining time.Duration) error {
	switch {
	case remaining == Forever:
		return errorx.New(errorx.Banned, "You are banned and cannot publish")
	case remaining == 0:
		return errorx.New(errorx.PermissionDenied, "Send /start first")
	default:
		return errorx.New(errorx.Cooldown, "You can publish again in %s", FormatRemaining(remaining))
	}
}

// FormatRemaining renders a duration as "1h 2m", "5m" or "30s".
func FormatRemaining(d time.Duration) string {
	d = roundUpSeconds(d)
	hours := int(d / time.Hour)
	minutes := int(d % time.Hour / time.Minute)
	seconds := int(d % time.Minute / time.Second)

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm", minutes)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

func roundUpSeconds(d time.Duration) time.Duration {
	if r := d % time.Second; r != 0 {
		d += time.Second - r
	}

	return d
}
