package migration

import (
	"context"
	"errors"
	"fmt"

	"github.com/trixlive/backend/internal/entity"
	"github.com/trixlive/backend/pkg/xcontext"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

type migrator func(context.Context) error

// Migrators must only be appended. A version is applied once and recorded
// in the migrations table.
var Migrators = map[int]migrator{
	0: migrate0000,
	1: migrate0001,
}

func Migrate(ctx context.Context) error {
	db := xcontext.DB(ctx)
	if err := db.AutoMigrate(&entity.Migration{}); err != nil {
		return err
	}

	versions := maps.Keys(Migrators)
	slices.Sort(versions)

	for _, v := range versions {
		var applied entity.Migration
		err := db.Take(&applied, "version=?", v).Error
		if err == nil {
			continue
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		xcontext.Logger(ctx).Infof("Apply migration %04d", v)
		if err := Migrators[v](ctx); err != nil {
			return fmt.Errorf("migration %04d: %w", v, err)
		}

		if err := db.Create(&entity.Migration{Version: v}).Error; err != nil {
			return err
		}
	}

	return nil
}

// AutoMigrate creates every table in its latest shape. Tests use it
// directly instead of Migrate.
func AutoMigrate(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&entity.User{},
		&entity.Post{},
		&entity.ModerationLog{},
		&entity.RestrictionLog{},
		&entity.Migration{},
	)
}
