package migration

import (
	"context"

	"github.com/trixlive/backend/pkg/xcontext"
)

// migrate0001 speeds up the pending queue listing.
func migrate0001(ctx context.Context) error {
	return xcontext.DB(ctx).Exec(
		"CREATE INDEX idx_posts_status_created_at ON posts (status, created_at)").Error
}
