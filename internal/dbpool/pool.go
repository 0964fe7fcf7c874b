// Package dbpool owns the single *sqlx.DB connection pool to Postgres, the
// per-request current-transaction lookup, and collection table bootstrap.
// Everything here is the thin execution layer the compiler in
// internal/query is deliberately kept free of.
package dbpool

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/jsonbstore/docdb/internal/config"
)

// Pool wraps the process-wide Postgres connection pool.
type Pool struct {
	DB *sqlx.DB
}

// Open dials Postgres using cfg and configures the pool's size/idle limits.
// It does not bootstrap any tables; call EnsureTable separately once Open
// succeeds.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*Pool, error) {
	connStr := buildConnectionString(cfg)

	db, err := sqlx.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("dbpool: open postgres connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxPoolSize)
	db.SetMaxIdleConns(cfg.MinPoolSize)
	db.SetConnMaxIdleTime(cfg.MaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("dbpool: ping postgres: %w", err)
	}

	return &Pool{DB: db}, nil
}

func buildConnectionString(cfg *config.DatabaseConfig) string {
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Name, sslmode)
	if cfg.User != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.User)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}
	if cfg.ConnectTimeout > 0 {
		dsn += fmt.Sprintf(" connect_timeout=%d", int(cfg.ConnectTimeout.Seconds()))
	}
	return dsn
}

// Close releases the pool's connections.
func (p *Pool) Close() error {
	return p.DB.Close()
}

// sanitizeTableNamePattern allows only characters safe to splice unquoted
// into CREATE TABLE/INDEX DDL; collection names come from schema
// registration calls, not request input, but table names are still run
// through QuoteIdent at every query-time callsite in internal/query.
var sanitizeTableNamePattern = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// SanitizeTableName lowercases a collection name and replaces anything but
// alphanumerics and underscores with an underscore, so it is safe to use as
// a Postgres identifier.
func SanitizeTableName(name string) string {
	return sanitizeTableNamePattern.ReplaceAllString(strings.ToLower(name), "_")
}

// EnsureTable creates the collection's backing table if it doesn't already
// exist, matching the persisted layout: id SERIAL PRIMARY KEY, data JSONB
// NOT NULL, created_at TIMESTAMPTZ, plus a GIN index over data so
// containment and key-existence predicates can use it.
func (p *Pool) EnsureTable(ctx context.Context, table string) error {
	name := SanitizeTableName(table)
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id SERIAL PRIMARY KEY,
			data JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`, name)
	if _, err := p.DB.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("dbpool: create table %s: %w", name, err)
	}

	idx := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_data ON %s USING GIN (data)", name, name)
	if _, err := p.DB.ExecContext(ctx, idx); err != nil {
		return fmt.Errorf("dbpool: create gin index on %s: %w", name, err)
	}

	idIdx := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_id ON %s ((data->>'_id'))", name, name)
	if _, err := p.DB.ExecContext(ctx, idIdx); err != nil {
		return fmt.Errorf("dbpool: create _id index on %s: %w", name, err)
	}
	return nil
}
