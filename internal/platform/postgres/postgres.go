// Package postgres opens and migrates the primary audit database.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open connects to Postgres via the pgx stdlib driver and verifies the
// connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate creates the audit schema if it does not exist. Idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS audit_events (
			id            BIGSERIAL PRIMARY KEY,
			ts            DOUBLE PRECISION NOT NULL,
			request_id    TEXT NOT NULL,
			event_type    TEXT NOT NULL,
			model_version TEXT,
			subject_id    TEXT,
			payload_json  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_events_ts ON audit_events (ts)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_events_request_id ON audit_events (request_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_events_event_type ON audit_events (event_type)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate audit schema: %w", err)
		}
	}
	return nil
}
