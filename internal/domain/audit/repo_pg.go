package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRecorder mirrors audit events into a Postgres audit_event table. The
// in-memory log stays authoritative; this sink exists so supervisors can
// review events across process restarts when a database is available.
type PGRecorder struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewPGRecorder creates a recorder backed by the given connection pool.
func NewPGRecorder(pool *pgxpool.Pool) *PGRecorder {
	return &PGRecorder{pool: pool, timeout: 5 * time.Second}
}

// EnsureSchema creates the audit_event table if it does not exist.
func (r *PGRecorder) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS audit_event (
			id         UUID PRIMARY KEY,
			recorded   TIMESTAMPTZ NOT NULL,
			username   TEXT NOT NULL,
			role       TEXT NOT NULL,
			event      TEXT NOT NULL,
			critical   BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`
	if _, err := r.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure audit_event schema: %w", err)
	}
	return nil
}

// Record implements Recorder.
func (r *PGRecorder) Record(event Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	const query = `
		INSERT INTO audit_event (id, recorded, username, role, event, critical)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.pool.Exec(ctx, query,
		event.ID, event.Timestamp, event.Username, string(event.Role), event.Event, event.Critical,
	); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
