package repository

import (
	"context"
	"database/sql"
	"reflect"
	"time"

	"github.com/fatih/structs"
	"github.com/trixlive/backend/internal/entity"
	"github.com/trixlive/backend/pkg/xcontext"
	"gorm.io/gorm"
)

// UserRestriction lists the restriction columns to change. Nil fields are
// left untouched; a non-nil invalid sql.NullTime clears the column.
type UserRestriction struct {
	Banned            *bool         `structs:"banned,omitempty"`
	MuteUntil         *sql.NullTime `structs:"mute_until,omitempty,omitnested"`
	CooldownExpiresAt *sql.NullTime `structs:"cooldown_expires_at,omitempty,omitnested"`
	LinkViolations    *int          `structs:"link_violations,omitempty"`
}

type UserStatistic struct {
	Total  int64
	Banned int64
	Muted  int64
}

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByReferralCode(ctx context.Context, code string) (*entity.User, error)
	UpdateProfile(ctx context.Context, user *entity.User) error
	UpdateRestriction(ctx context.Context, id int64, restriction UserRestriction) error
	IncreaseLinkViolations(ctx context.Context, id int64) error
	IncreaseXP(ctx context.Context, id int64, xp uint64) error
	GetTopByXP(ctx context.Context, limit int) ([]entity.User, error)
	GetIDs(ctx context.Context, afterID int64, limit int) ([]int64, error)
	Statistic(ctx context.Context, now time.Time) (*UserStatistic, error)
}

type userRepository struct{}

func NewUserRepository() *userRepository {
	return &userRepository{}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return xcontext.DB(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	var result entity.User
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *userRepository) GetByReferralCode(ctx context.Context, code string) (*entity.User, error) {
	var result entity.User
	if err := xcontext.DB(ctx).Take(&result, "referral_code=?", code).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, user *entity.User) error {
	return xcontext.DB(ctx).Model(&entity.User{}).
		Where("id=?", user.ID).
		Updates(map[string]any{
			"username":   user.Username,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
		}).Error
}

func (r *userRepository) UpdateRestriction(
	ctx context.Context, id int64, restriction UserRestriction,
) error {
	values := derefValues(structs.Map(restriction))
	if len(values) == 0 {
		return nil
	}

	return xcontext.DB(ctx).Model(&entity.User{}).Where("id=?", id).Updates(values).Error
}

func (r *userRepository) IncreaseLinkViolations(ctx context.Context, id int64) error {
	return xcontext.DB(ctx).Model(&entity.User{}).
		Where("id=?", id).
		Update("link_violations", gorm.Expr("link_violations+?", 1)).Error
}

func (r *userRepository) IncreaseXP(ctx context.Context, id int64, xp uint64) error {
	tx := xcontext.DB(ctx).Model(&entity.User{}).
		Where("id=?", id).
		Update("xp", gorm.Expr("xp+?", xp))
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *userRepository) GetTopByXP(ctx context.Context, limit int) ([]entity.User, error) {
	var result []entity.User
	err := xcontext.DB(ctx).Order("xp DESC").Order("id ASC").Limit(limit).Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetIDs pages through not banned users in id order.
func (r *userRepository) GetIDs(ctx context.Context, afterID int64, limit int) ([]int64, error) {
	var result []int64
	err := xcontext.DB(ctx).Model(&entity.User{}).
		Where("id > ? AND banned=?", afterID, false).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *userRepository) Statistic(ctx context.Context, now time.Time) (*UserStatistic, error) {
	var stat UserStatistic
	db := xcontext.DB(ctx)
	if err := db.Model(&entity.User{}).Count(&stat.Total).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&entity.User{}).Where("banned=?", true).Count(&stat.Banned).Error; err != nil {
		return nil, err
	}

	err := db.Model(&entity.User{}).Where("mute_until > ?", now).Count(&stat.Muted).Error
	if err != nil {
		return nil, err
	}

	return &stat, nil
}

// derefValues replaces pointer values produced by structs.Map with the
// values they point to.
func derefValues(m map[string]any) map[string]any {
	for k, v := range m {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer {
			continue
		}

		if rv.IsNil() {
			delete(m, k)
		} else {
			m[k] = rv.Elem().Interface()
		}
	}

	return m
}
