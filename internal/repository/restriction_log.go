package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/trixlive/backend/internal/entity"
	"github.com/trixlive/backend/pkg/xcontext"
)

type RestrictionLogRepository interface {
	Create(ctx context.Context, log *entity.RestrictionLog) error
	GetByUserID(ctx context.Context, userID int64, limit int) ([]entity.RestrictionLog, error)
}

type restrictionLogRepository struct {
	node *snowflake.Node
}

func NewRestrictionLogRepository(node *snowflake.Node) *restrictionLogRepository {
	return &restrictionLogRepository{node: node}
}

func (r *restrictionLogRepository) Create(ctx context.Context, log *entity.RestrictionLog) error {
	if log.ID == 0 {
		log.ID = r.node.Generate().Int64()
	}

	return xcontext.DB(ctx).Create(log).Error
}

// GetByUserID returns the newest entries first.
func (r *restrictionLogRepository) GetByUserID(
	ctx context.Context, userID int64, limit int,
) ([]entity.RestrictionLog, error) {
	var result []entity.RestrictionLog
	err := xcontext.DB(ctx).Where("user_id=?", userID).Order("id DESC").Limit(limit).Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
