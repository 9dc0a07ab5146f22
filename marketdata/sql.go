package marketdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"  // Postgres driver
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/meenmo/qlgo/utils"
)

const (
	createQuotesTable = `CREATE TABLE IF NOT EXISTS quotes (
	"key" TEXT NOT NULL,
	asof  TEXT NOT NULL,
	value REAL NOT NULL,
	PRIMARY KEY ("key", asof)
)`
	upsertQuote = `INSERT INTO quotes ("key", asof, value) VALUES ($1, $2, $3)
ON CONFLICT ("key", asof) DO UPDATE SET value = excluded.value`
	selectQuote = `SELECT value FROM quotes WHERE "key" = $1 AND asof = $2`
)

// SQLFeed reads quotes from a quotes(key, asof, value) table.
type SQLFeed struct {
	db *sql.DB
}

// DriverFor picks the database/sql driver for dsn: postgres URLs use lib/pq,
// anything else is a SQLite path.
func DriverFor(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres"
	}
	return "sqlite"
}

// OpenSQLFeed connects to dsn and makes sure the quotes table exists.
func OpenSQLFeed(ctx context.Context, dsn string) (*SQLFeed, error) {
	driver := DriverFor(dsn)
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("OpenSQLFeed: failed to open database: %w", err)
	}
	if driver == "sqlite" {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("OpenSQLFeed: failed to ping database: %w", err)
	}
	f := NewSQLFeed(db)
	if err := f.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return f, nil
}

// NewSQLFeed wraps an open database.
func NewSQLFeed(db *sql.DB) *SQLFeed {
	return &SQLFeed{db: db}
}

// Migrate creates the quotes table if needed.
func (f *SQLFeed) Migrate(ctx context.Context) error {
	if _, err := f.db.ExecContext(ctx, createQuotesTable); err != nil {
		return fmt.Errorf("SQLFeed.Migrate: %w", err)
	}
	return nil
}

// Store inserts or replaces the value of key on date.
func (f *SQLFeed) Store(ctx context.Context, key string, date time.Time, value float64) error {
	if _, err := f.db.ExecContext(ctx, upsertQuote, key, date.Format(utils.DateLayout), value); err != nil {
		return fmt.Errorf("SQLFeed.Store: %s: %w", key, err)
	}
	return nil
}

func (f *SQLFeed) RateOn(ctx context.Context, key string, date time.Time) (float64, bool, error) {
	var v float64
	err := f.db.QueryRowContext(ctx, selectQuote, key, date.Format(utils.DateLayout)).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("SQLFeed.RateOn: %s: %w", key, err)
	}
	return v, true, nil
}

// Close closes the underlying database.
func (f *SQLFeed) Close() error {
	return f.db.Close()
}
