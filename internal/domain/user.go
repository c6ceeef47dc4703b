package domain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trixlive/backend/config"
	"github.com/trixlive/backend/internal/client"
	"github.com/trixlive/backend/internal/entity"
	"github.com/trixlive/backend/internal/repository"
	"github.com/trixlive/backend/pkg/crypto"
	"github.com/trixlive/backend/pkg/errorx"
	"github.com/trixlive/backend/pkg/xcontext"
	"github.com/trixlive/backend/pkg/xredis"
	"gorm.io/gorm"
)

const (
	leaderboardKey     = "xp:leaderboard"
	referralCodeLength = 8
	broadcastPage      = 100
)

// UserInfo is the sender of an inbound update.
type UserInfo struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

type Profile struct {
	User      entity.User
	Level     config.XPLevel
	NextLevel *config.XPLevel

	// Rank starts at 1, zero means unknown.
	Rank uint64

	Restrictions []entity.RestrictionLog
}

type LeaderboardEntry struct {
	UserID int64
	Name   string
	XP     uint64
}

type Statistic struct {
	Users repository.UserStatistic
	Posts map[entity.PostStatus]int64
}

type UserDomain interface {
	Touch(ctx context.Context, from UserInfo) (*entity.User, bool, error)
	StartWithReferral(ctx context.Context, from UserInfo, code string) (*entity.User, error)
	AwardXP(ctx context.Context, userID int64, amount uint64) (uint64, error)
	Profile(ctx context.Context, userID int64) (*Profile, error)
	Top(ctx context.Context, n int) ([]LeaderboardEntry, error)
	Ban(ctx context.Context, moderatorID, userID int64, reason string) error
	Unban(ctx context.Context, moderatorID, userID int64) error
	Mute(ctx context.Context, moderatorID, userID int64, d time.Duration, reason string) error
	Unmute(ctx context.Context, moderatorID, userID int64) error
	Statistic(ctx context.Context, adminID int64) (*Statistic, error)
	Broadcast(ctx context.Context, adminID int64, text string) (int, error)
}

type userDomain struct {
	userRepo        repository.UserRepository
	postRepo        repository.PostRepository
	restrictionRepo repository.RestrictionLogRepository
	redisClient     xredis.Client
	notifier        client.Notifier
	now             func() time.Time
}

func NewUserDomain(
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
	restrictionRepo repository.RestrictionLogRepository,
	redisClient xredis.Client,
	notifier client.Notifier,
) *userDomain {
	return &userDomain{
		userRepo:        userRepo,
		postRepo:        postRepo,
		restrictionRepo: restrictionRepo,
		redisClient:     redisClient,
		notifier:        notifier,
		now:             time.Now,
	}
}

// Touch creates the user on first contact and refreshes the profile fields
// afterwards. The second result reports whether the user was created.
func (d *userDomain) Touch(ctx context.Context, from UserInfo) (*entity.User, bool, error) {
	return d.touch(ctx, from, sql.NullInt64{})
}

func (d *userDomain) touch(
	ctx context.Context, from UserInfo, referredBy sql.NullInt64,
) (*entity.User, bool, error) {
	user, err := d.userRepo.GetByID(ctx, from.ID)
	if err == nil {
		if user.Username != from.Username || user.FirstName != from.FirstName || user.LastName != from.LastName {
			user.Username = from.Username
			user.FirstName = from.FirstName
			user.LastName = from.LastName
			if err := d.userRepo.UpdateProfile(ctx, user); err != nil {
				xcontext.Logger(ctx).Warnf("Cannot update profile of user %d: %v", user.ID, err)
			}
		}

		return user, false, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get user %d: %v", from.ID, err)
		return nil, false, errorx.Unknown
	}

	user = &entity.User{
		ID:           from.ID,
		Username:     from.Username,
		FirstName:    from.FirstName,
		LastName:     from.LastName,
		ReferralCode: crypto.GenerateRandomAlphabet(referralCodeLength),
		ReferredBy:   referredBy,
	}

	if err := d.userRepo.Create(ctx, user); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create user %d: %v", from.ID, err)
		return nil, false, errorx.Unknown
	}

	return user, true, nil
}

// StartWithReferral credits the owner of the code when a new user arrives
// through it. Unknown codes and self referrals are ignored.
func (d *userDomain) StartWithReferral(ctx context.Context, from UserInfo, code string) (*entity.User, error) {
	if code == "" {
		user, _, err := d.Touch(ctx, from)
		return user, err
	}

	var referrer *entity.User
	if _, err := d.userRepo.GetByID(ctx, from.ID); errors.Is(err, gorm.ErrRecordNotFound) {
		referrer, err = d.userRepo.GetByReferralCode(ctx, code)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot get referrer: %v", err)
		}

		if referrer != nil && referrer.ID == from.ID {
			referrer = nil
		}
	}

	referredBy := sql.NullInt64{}
	if referrer != nil {
		referredBy = sql.NullInt64{Int64: referrer.ID, Valid: true}
	}

	user, created, err := d.touch(ctx, from, referredBy)
	if err != nil {
		return nil, err
	}

	if created && referrer != nil {
		if _, err := d.AwardXP(ctx, referrer.ID, xcontext.Configs(ctx).XP.Referral); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot award referral xp to user %d: %v", referrer.ID, err)
		}

		text := fmt.Sprintf("🎉 %s joined with your referral link!", user.DisplayName())
		if _, err := d.notifier.SendText(ctx, referrer.ID, text, nil); err != nil {
			xcontext.Logger(ctx).Debugf("Cannot notify referrer %d: %v", referrer.ID, err)
		}
	}

	return user, nil
}

// AwardXP credits at most the remaining hourly allowance of the user and
// returns the credited amount. Without redis the allowance is not enforced.
func (d *userDomain) AwardXP(ctx context.Context, userID int64, amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, nil
	}

	limit := xcontext.Configs(ctx).XP.HourlyLimit
	awarded := amount
	key := fmt.Sprintf("xp:hour:%d:%s", userID, d.now().UTC().Format("2006010215"))
	total, err := d.redisClient.IncrByWithTTL(ctx, key, int64(amount), time.Hour)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot count hourly xp of user %d: %v", userID, err)
	} else if limit > 0 && uint64(total) > limit {
		over := uint64(total) - limit
		if over >= amount {
			return 0, nil
		}

		awarded = amount - over
	}

	if err := d.userRepo.IncreaseXP(ctx, userID, awarded); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, errorx.New(errorx.NotFound, "Not found user %d", userID)
		}

		xcontext.Logger(ctx).Errorf("Cannot increase xp of user %d: %v", userID, err)
		return 0, errorx.Unknown
	}

	member := strconv.FormatInt(userID, 10)
	if err := d.redisClient.ZIncrBy(ctx, leaderboardKey, int64(awarded), member); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot update leaderboard: %v", err)
	}

	return awarded, nil
}

func (d *userDomain) Profile(ctx context.Context, userID int64) (*Profile, error) {
	user, err := d.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found user %d", userID)
		}

		xcontext.Logger(ctx).Errorf("Cannot get user %d: %v", userID, err)
		return nil, errorx.Unknown
	}

	level, next := LevelOf(xcontext.Configs(ctx).XP.Levels, user.XP)
	profile := &Profile{User: *user, Level: level, NextLevel: next}

	rank, err := d.redisClient.ZRevRank(ctx, leaderboardKey, strconv.FormatInt(userID, 10))
	if err == nil {
		profile.Rank = rank + 1
	} else if !errors.Is(err, redis.Nil) {
		xcontext.Logger(ctx).Warnf("Cannot get rank of user %d: %v", userID, err)
	}

	profile.Restrictions, err = d.restrictionRepo.GetByUserID(ctx, userID, 5)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot get restrictions of user %d: %v", userID, err)
	}

	return profile, nil
}

// LevelOf returns the highest level reached with xp and the one after it.
// Levels must be sorted by MinXP.
func LevelOf(levels []config.XPLevel, xp uint64) (config.XPLevel, *config.XPLevel) {
	current := config.XPLevel{}
	for i, level := range levels {
		if xp < level.MinXP {
			next := levels[i]
			return current, &next
		}

		current = level
	}

	return current, nil
}

// Top reads the redis leaderboard and falls back to the database when it
// is empty or unavailable.
func (d *userDomain) Top(ctx context.Context, n int) ([]LeaderboardEntry, error) {
	if n <= 0 {
		return nil, errorx.New(errorx.BadRequest, "The size must be positive")
	}

	entries := []LeaderboardEntry{}
	zs, err := d.redisClient.ZRevRangeWithScores(ctx, leaderboardKey, 0, n)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot read leaderboard: %v", err)
	}

	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}

		userID, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}

		entry := LeaderboardEntry{UserID: userID, XP: uint64(z.Score), Name: member}
		if user, err := d.userRepo.GetByID(ctx, userID); err == nil {
			entry.Name = user.DisplayName()
		}

		entries = append(entries, entry)
	}

	if len(entries) > 0 {
		return entries, nil
	}

	users, err := d.userRepo.GetTopByXP(ctx, n)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get top users: %v", err)
		return nil, errorx.Unknown
	}

	for _, u := range users {
		entries = append(entries, LeaderboardEntry{UserID: u.ID, Name: u.DisplayName(), XP: u.XP})
	}

	return entries, nil
}

func (d *userDomain) Ban(ctx context.Context, moderatorID, userID int64, reason string) error {
	banned := true
	return d.restrict(ctx, moderatorID, userID, entity.RestrictionBan, reason, sql.NullTime{},
		repository.UserRestriction{Banned: &banned},
		"🚫 You have been banned.")
}

// Unban also forgets the link violations of the user.
func (d *userDomain) Unban(ctx context.Context, moderatorID, userID int64) error {
	banned := false
	violations := 0
	return d.restrict(ctx, moderatorID, userID, entity.RestrictionUnban, "", sql.NullTime{},
		repository.UserRestriction{Banned: &banned, LinkViolations: &violations},
		"✅ You have been unbanned.")
}

func (d *userDomain) Mute(
	ctx context.Context, moderatorID, userID int64, duration time.Duration, reason string,
) error {
	if duration <= 0 {
		return errorx.New(errorx.BadRequest, "The duration must be positive")
	}

	until := sql.NullTime{Time: d.now().Add(duration), Valid: true}
	return d.restrict(ctx, moderatorID, userID, entity.RestrictionMute, reason, until,
		repository.UserRestriction{MuteUntil: &until},
		fmt.Sprintf("🔇 You have been muted for %s.", FormatRemaining(duration)))
}

func (d *userDomain) Unmute(ctx context.Context, moderatorID, userID int64) error {
	return d.restrict(ctx, moderatorID, userID, entity.RestrictionUnmute, "", sql.NullTime{},
		repository.UserRestriction{MuteUntil: &sql.NullTime{}},
		"🔊 You have been unmuted.")
}

func (d *userDomain) restrict(
	ctx context.Context,
	moderatorID, userID int64,
	action entity.RestrictionAction,
	reason string,
	until sql.NullTime,
	restriction repository.UserRestriction,
	notice string,
) error {
	roles := xcontext.Configs(ctx).Roles
	if !roles.IsModerator(moderatorID) {
		return errorx.New(errorx.PermissionDenied, "Access denied")
	}

	if roles.IsModerator(userID) {
		return errorx.New(errorx.PermissionDenied, "Moderators cannot be restricted")
	}

	if _, err := d.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorx.New(errorx.NotFound, "Not found user %d", userID)
		}

		xcontext.Logger(ctx).Errorf("Cannot get user %d: %v", userID, err)
		return errorx.Unknown
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.userRepo.UpdateRestriction(ctx, userID, restriction); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update restriction of user %d: %v", userID, err)
		return errorx.Unknown
	}

	err := d.restrictionRepo.Create(ctx, &entity.RestrictionLog{
		UserID:    userID,
		Action:    action,
		Until:     until,
		ImposedBy: moderatorID,
		Reason:    reason,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create restriction log: %v", err)
		return errorx.Unknown
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit restriction: %v", err)
		return errorx.Unknown
	}

	if reason != "" {
		notice += "\nReason: " + reason
	}

	if _, err := d.notifier.SendText(ctx, userID, notice, nil); err != nil {
		xcontext.Logger(ctx).Debugf("Cannot notify user %d about %s: %v", userID, action, err)
	}

	return nil
}

func (d *userDomain) Statistic(ctx context.Context, adminID int64) (*Statistic, error) {
	if !xcontext.Configs(ctx).Roles.IsAdmin(adminID) {
		return nil, errorx.New(errorx.PermissionDenied, "Access denied")
	}

	users, err := d.userRepo.Statistic(ctx, d.now())
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get user statistic: %v", err)
		return nil, errorx.Unknown
	}

	posts, err := d.postRepo.CountByStatus(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count posts: %v", err)
		return nil, errorx.Unknown
	}

	return &Statistic{Users: *users, Posts: posts}, nil
}

// Broadcast sends text to every user who is not banned and returns how many
// deliveries succeeded.
func (d *userDomain) Broadcast(ctx context.Context, adminID int64, text string) (int, error) {
	if !xcontext.Configs(ctx).Roles.IsAdmin(adminID) {
		return 0, errorx.New(errorx.PermissionDenied, "Access denied")
	}

	if text == "" {
		return 0, errorx.New(errorx.BadRequest, "The message must not be empty")
	}

	delivered := 0
	afterID := int64(0)
	for {
		ids, err := d.userRepo.GetIDs(ctx, afterID, broadcastPage)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get users for broadcast: %v", err)
			return delivered, errorx.Unknown
		}

		for _, id := range ids {
			if _, err := d.notifier.SendText(ctx, id, text, nil); err != nil {
				xcontext.Logger(ctx).Debugf("Cannot broadcast to user %d: %v", id, err)
				continue
			}

			delivered++
		}

		if len(ids) < broadcastPage {
			return delivered, nil
		}

		afterID = ids[len(ids)-1]
	}
}

var durationRegex = regexp.MustCompile(`^(\d+)([mhd])$`)

// ParseDuration accepts a number followed by m, h or d.
func ParseDuration(s string) (time.Duration, error) {
	match := durationRegex.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if match == nil {
		return 0, errorx.New(errorx.BadRequest, "Invalid duration %q, use for example 30m, 2h or 1d", s)
	}

	value, err := strconv.Atoi(match[1])
	if err != nil || value <= 0 {
		return 0, errorx.New(errorx.BadRequest, "Invalid duration %q", s)
	}

	switch match[2] {
	case "m":
		return time.Duration(value) * time.Minute, nil
	case "h":
		return time.Duration(value) * time.Hour, nil
	default:
		return time.Duration(value) * 24 * time.Hour, nil
	}
}
