package xcontext

import (
	"context"

	"github.com/trixlive/backend/config"
	"github.com/trixlive/backend/pkg/logger"
	"gorm.io/gorm"
)

type (
	configsKey struct{}
	loggerKey  struct{}
	dbKey      struct{}
	txKey      struct{}
)

func WithConfigs(ctx context.Context, cfg config.Configs) context.Context {
	return context.WithValue(ctx, configsKey{}, cfg)
}

func Configs(ctx context.Context) config.Configs {
	cfg, ok := ctx.Value(configsKey{}).(config.Configs)
	if !ok {
		return config.Default()
	}

	return cfg
}

func WithLogger(ctx context.Context, l logger.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

func Logger(ctx context.Context) logger.Logger {
	l, ok := ctx.Value(loggerKey{}).(logger.Logger)
	if !ok {
		return logger.NewNopLogger()
	}

	return l
}

func WithDB(ctx context.Context, db *gorm.DB) context.Context {
	return context.WithValue(ctx, dbKey{}, db)
}

// DB returns the running transaction if there is one, otherwise the plain
// database handle.
func DB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*transaction); ok && !tx.done {
		return tx.db.WithContext(ctx)
	}

	db, ok := ctx.Value(dbKey{}).(*gorm.DB)
	if !ok {
		return nil
	}

	return db.WithContext(ctx)
}

type transaction struct {
	db   *gorm.DB
	done bool
}

// WithDBTransaction begins a transaction and attaches it to the returned
// context. Nested calls reuse the outer transaction.
func WithDBTransaction(ctx context.Context) context.Context {
	if tx, ok := ctx.Value(txKey{}).(*transaction); ok && !tx.done {
		return ctx
	}

	db, ok := ctx.Value(dbKey{}).(*gorm.DB)
	if !ok {
		return ctx
	}

	return context.WithValue(ctx, txKey{}, &transaction{db: db.Begin()})
}

func WithCommitDBTransaction(ctx context.Context) error {
	tx, ok := ctx.Value(txKey{}).(*transaction)
	if !ok || tx.done {
		return nil
	}

	tx.done = true
	return tx.db.Commit().Error
}

// WithRollbackDBTransaction is safe to defer after a commit.
func WithRollbackDBTransaction(ctx context.Context) {
	tx, ok := ctx.Value(txKey{}).(*transaction)
	if !ok || tx.done {
		return
	}

	tx.done = true
	tx.db.Rollback()
}
