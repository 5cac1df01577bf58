package auth

import (
	"database/sql"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/schema"
)

// OpenDatabase opens a bun database for url. postgres:// and
// postgresql:// URLs use pgx, anything else is a SQLite DSN.
func OpenDatabase(url string) (*bun.DB, error) {
	sqldb, d, err := OpenSQL(url)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, d)
	if err := PrepareDatabase(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// OpenSQL opens the driver connection for url and returns the matching
// bun dialect
func OpenSQL(url string) (*sql.DB, schema.Dialect, error) {
	if IsPostgresURL(url) {
		sqldb, err := sql.Open("pgx", url)
		if err != nil {
			return nil, nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open postgres")
		}
		return sqldb, pgdialect.New(), nil
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, url)
	if err != nil {
		return nil, nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open sqlite")
	}

	// in memory databases are per connection
	if strings.Contains(url, ":memory:") {
		sqldb.SetMaxOpenConns(1)
	}

	return sqldb, sqlitedialect.New(), nil
}

// PrepareDatabase applies per connection settings the schema relies on
func PrepareDatabase(db *bun.DB) error {
	if db.Dialect().Name() != dialect.SQLite {
		return nil
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to enable foreign keys")
	}
	return nil
}

// IsPostgresURL reports whether url selects the pgx driver
func IsPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}
