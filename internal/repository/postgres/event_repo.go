package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xela07ax/quantumpay/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS connection_events (
	id          BIGSERIAL PRIMARY KEY,
	session_id  TEXT        NOT NULL,
	bank_id     TEXT        NOT NULL,
	outcome     TEXT        NOT NULL,
	error_kind  TEXT,
	detail      JSONB,
	duration_ms BIGINT,
	timestamp   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS connection_events_session_idx ON connection_events (session_id);`

var eventColumns = []string{"session_id", "bank_id", "outcome", "error_kind", "detail", "duration_ms", "timestamp"}

// EventRepo: зеркало журнала событий в PostgreSQL.
type EventRepo struct {
	pool *pgxpool.Pool
}

func NewEventRepo(ctx context.Context, connString string, maxConns int32) (*EventRepo, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.MaxConnLifetime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	return &EventRepo{pool: pool}, nil
}

func (r *EventRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// EnsureSchema создает таблицу при первом запуске демо-стенда.
func (r *EventRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return nil
}

func (r *EventRepo) Close() {
	r.pool.Close()
}

// WriteBatch пишет пачку через COPY: один round-trip на весь батч.
func (r *EventRepo) WriteBatch(ctx context.Context, events []domain.ConnectionEvent) error {
	if len(events) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(events))
	for _, e := range events {
		row, err := eventRow(e)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	if _, err := r.pool.CopyFrom(ctx, pgx.Identifier{"connection_events"}, eventColumns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("postgres: copy events: %w", err)
	}
	return nil
}

// eventRow раскладывает событие по колонкам connection_events.
func eventRow(e domain.ConnectionEvent) ([]any, error) {
	var (
		errorKind  *string
		detail     []byte
		durationMs *int64
	)
	if d := e.Detail; d != nil {
		raw, err := json.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("postgres: marshal detail: %w", err)
		}
		detail = raw
		dur := d.DurationMs
		durationMs = &dur
		if d.Error != "" {
			kind := string(d.Error)
			errorKind = &kind
		}
	}
	return []any{e.SessionID, e.BankID, string(e.Outcome), errorKind, detail, durationMs, e.Timestamp}, nil
}
