package auth

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"

	goerrors "github.com/goliatone/go-errors"
	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS returns the migration files for this package
func GetMigrationsFS() embed.FS {
	return migrationsFS
}

// gooseUpContext is a seam for tests
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate applies the embedded migrations using the dialect of db
func Migrate(ctx context.Context, db *bun.DB) error {
	sub, err := fs.Sub(migrationsFS, "data/sql/migrations")
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load migrations")
	}

	gooseDialect := "sqlite3"
	if db.Dialect().Name() == dialect.PG {
		gooseDialect = "pgx"
	}

	goose.SetBaseFS(sub)
	if err := goose.SetDialect(gooseDialect); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to set migration dialect")
	}

	if err := gooseUpContext(ctx, db.DB, "."); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to run migrations")
	}

	return nil
}
