package data

import (
	"context"
	"database/sql"

	"github.com/openutm/qualifier-host/internal/migrate"
)

// RunMigrations sets up the report archive schema by delegating to the migrate package.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrate.Run(ctx, db)
}
