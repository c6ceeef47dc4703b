package repository

import (
	"context"
	"database/sql"

	"github.com/trixlive/backend/internal/entity"
	"github.com/trixlive/backend/pkg/xcontext"
	"gorm.io/gorm"
)

// PostDecision is the outcome written by a moderator.
type PostDecision struct {
	Status        entity.PostStatus
	ModeratorID   int64
	DecidedAt     sql.NullTime
	PublishedLink string

	// Text replaces the post body when not nil.
	Text *string
}

type PostRepository interface {
	Create(ctx context.Context, post *entity.Post) error
	GetByID(ctx context.Context, id string) (*entity.Post, error)
	GetPending(ctx context.Context, limit int) ([]entity.Post, error)
	UpdateModerationMessageID(ctx context.Context, id string, messageID int) error
	CheckAndDecide(ctx context.Context, id string, decision PostDecision) error
	CountByStatus(ctx context.Context) (map[entity.PostStatus]int64, error)
}

type postRepository struct{}

func NewPostRepository() *postRepository {
	return &postRepository{}
}

func (r *postRepository) Create(ctx context.Context, post *entity.Post) error {
	return xcontext.DB(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	var result entity.Post
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *postRepository) GetPending(ctx context.Context, limit int) ([]entity.Post, error) {
	var result []entity.Post
	err := xcontext.DB(ctx).
		Where("status=?", entity.PostPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *postRepository) UpdateModerationMessageID(ctx context.Context, id string, messageID int) error {
	return xcontext.DB(ctx).Model(&entity.Post{}).
		Where("id=?", id).
		Update("moderation_message_id", messageID).Error
}

// CheckAndDecide only touches a pending post. It returns
// gorm.ErrRecordNotFound when the post is missing or was already decided.
func (r *postRepository) CheckAndDecide(ctx context.Context, id string, decision PostDecision) error {
	values := map[string]any{
		"status":         decision.Status,
		"moderator_id":   sql.NullInt64{Int64: decision.ModeratorID, Valid: true},
		"decided_at":     decision.DecidedAt,
		"published_link": decision.PublishedLink,
	}

	if decision.Text != nil {
		values["text"] = *decision.Text
	}

	tx := xcontext.DB(ctx).Model(&entity.Post{}).
		Where("id=? AND status=?", id, entity.PostPending).
		Updates(values)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *postRepository) CountByStatus(ctx context.Context) (map[entity.PostStatus]int64, error) {
	var rows []struct {
		Status entity.PostStatus
		Count  int64
	}

	err := xcontext.DB(ctx).Model(&entity.Post{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := map[entity.PostStatus]int64{}
	for _, row := range rows {
		result[row.Status] = row.Count
	}

	return result, nil
}
