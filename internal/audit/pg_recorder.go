package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// History page sizes.
const (
	DefaultHistory = 20
	MaxHistory     = 100
)

type PgRecorder struct {
	pool *pgxpool.Pool
}

func NewPgRecorder(pool *pgxpool.Pool) *PgRecorder {
	return &PgRecorder{pool: pool}
}

// EnsureSchema creates the event table when it is missing.
func (r *PgRecorder) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS appointment_events (
			id             BIGSERIAL PRIMARY KEY,
			event_type     TEXT        NOT NULL,
			appointment_id BIGINT      NOT NULL,
			actor_id       BIGINT,
			payload        JSONB       NOT NULL DEFAULT '{}'::jsonb,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS ix_appointment_events_appointment
			ON appointment_events (appointment_id, created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("ensure appointment_events: %w", err)
	}
	return nil
}

func (r *PgRecorder) Record(ctx context.Context, ev Event) error {
	payload, err := marshalPayload(ev.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO appointment_events (event_type, appointment_id, actor_id, payload, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()))
	`, ev.Type, ev.AppointmentID, nullableActor(ev.ActorID), payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert appointment event: %w", err)
	}

	return nil
}

// History returns the newest events for one appointment first.
func (r *PgRecorder) History(ctx context.Context, appointmentID int64, limit int) ([]Event, error) {
	limit = historyLimit(limit)

	rows, err := r.pool.Query(ctx, `
		SELECT event_type, appointment_id, actor_id, payload, created_at
		FROM appointment_events
		WHERE appointment_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, appointmentID, limit)
	if err != nil {
		return nil, fmt.Errorf("query appointment events: %w", err)
	}
	defer rows.Close()

	var result []Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// historyLimit defaults a missing limit and caps an oversized one.
func historyLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultHistory
	case n > MaxHistory:
		return MaxHistory
	}
	return n
}

func scanEvent(row pgx.Row) (Event, error) {
	var ev Event
	var actor *int64

	err := row.Scan(
		&ev.Type,
		&ev.AppointmentID,
		&actor,
		&ev.Payload,
		&ev.CreatedAt,
	)
	if err != nil {
		return Event{}, fmt.Errorf("scan appointment event: %w", err)
	}

	if actor != nil {
		ev.ActorID = *actor
	}
	return ev, nil
}

func nullableActor(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
