package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/trixlive/backend/internal/entity"
	"github.com/trixlive/backend/pkg/xcontext"
)

type ModerationLogRepository interface {
	Create(ctx context.Context, log *entity.ModerationLog) error
	GetByPostID(ctx context.Context, postID string) ([]entity.ModerationLog, error)
}

type moderationLogRepository struct {
	node *snowflake.Node
}

func NewModerationLogRepository(node *snowflake.Node) *moderationLogRepository {
	return &moderationLogRepository{node: node}
}

func (r *moderationLogRepository) Create(ctx context.Context, log *entity.ModerationLog) error {
	if log.ID == 0 {
		log.ID = r.node.Generate().Int64()
	}

	return xcontext.DB(ctx).Create(log).Error
}

func (r *moderationLogRepository) GetByPostID(
	ctx context.Context, postID string,
) ([]entity.ModerationLog, error) {
	var result []entity.ModerationLog
	err := xcontext.DB(ctx).Where("post_id=?", postID).Order("id ASC").Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
