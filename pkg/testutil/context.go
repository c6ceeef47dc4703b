package testutil

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/trixlive/backend/config"
	"github.com/trixlive/backend/migration"
	"github.com/trixlive/backend/pkg/logger"
	"github.com/trixlive/backend/pkg/xcontext"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	Moderator1ID int64 = 900001
	Admin1ID     int64 = 900002
)

func MockConfigs() config.Configs {
	cfg := config.Default()
	cfg.Roles = config.RoleConfigs{
		AdminIDs:     []int64{Admin1ID},
		ModeratorIDs: []int64{Moderator1ID},
	}
	cfg.Telegram.ChannelID = -1001
	cfg.Telegram.ChannelLink = "https://t.me/channel"
	cfg.Telegram.ModerationChatID = -1002
	cfg.Telegram.ActualChatID = -1003
	cfg.Moderation.DefaultLink = "https://t.me/channel"

	return cfg
}

// NewEmptyContext returns a context holding configs, a silent logger and an
// isolated in-memory database without any table.
func NewEmptyContext() context.Context {
	// Every connection of the pool shares the same named in-memory database.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, MockConfigs())
	ctx = xcontext.WithLogger(ctx, logger.NewNopLogger())
	ctx = xcontext.WithDB(ctx, db)

	return ctx
}

func NewMockContext() context.Context {
	ctx := NewEmptyContext()
	if err := migration.AutoMigrate(ctx); err != nil {
		panic(err)
	}

	return ctx
}

func NewMockContextWithConfigs(cfg config.Configs) context.Context {
	return xcontext.WithConfigs(NewMockContext(), cfg)
}

func NewSnowflakeNode() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}

	return node
}
