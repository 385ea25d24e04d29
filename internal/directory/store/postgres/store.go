// Package postgres implements the record store boundary on PostgreSQL.
// Records are jsonb documents; change notification rides LISTEN/NOTIFY so
// subscribers get the full-snapshot-on-every-change contract the directory
// expects from a document store.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lib/pq"

	"smartkyc/internal/domain"
	"smartkyc/pkg/platform/sentinel"
)

const changeChannel = "verification_records_changed"

// Schema is applied by EnsureSchema. The trigger covers writes from the
// intake flow as well as this process, so every mutation reaches listeners.
const schema = `
CREATE TABLE IF NOT EXISTS verification_records (
	owner_id   TEXT PRIMARY KEY,
	doc        JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS registry_entries (
	registry TEXT NOT NULL,
	id       TEXT NOT NULL,
	doc      JSONB NOT NULL DEFAULT '{}'::jsonb,
	PRIMARY KEY (registry, id)
);

CREATE OR REPLACE FUNCTION notify_verification_records() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('` + changeChannel + `', '');
	RETURN NULL;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS verification_records_notify ON verification_records;
CREATE TRIGGER verification_records_notify
	AFTER INSERT OR UPDATE OR DELETE ON verification_records
	FOR EACH STATEMENT EXECUTE FUNCTION notify_verification_records();
`

type Store struct {
	db     *sql.DB
	dsn    string
	logger *slog.Logger
}

// New wraps an open connection pool. The DSN is kept because LISTEN needs a
// dedicated connection outside the pool.
func New(db *sql.DB, dsn string, logger *slog.Logger) *Store {
	return &Store{db: db, dsn: dsn, logger: logger}
}

// EnsureSchema creates tables and the notify trigger if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Subscribe opens a LISTEN connection and delivers the full record set now
// and after every change notification. The listener reconnects on its own;
// a periodic ping re-reads the table so a notification lost during a
// reconnect window is repaired by the next poll.
func (s *Store) Subscribe(ctx context.Context, fn func(records []domain.RawRecord)) (domain.CancelFunc, error) {
	listener := pq.NewListener(s.dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			s.logger.WarnContext(ctx, "record store listener event", "event", int(ev), "error", err)
		}
	})
	if err := listener.Listen(changeChannel); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("%w: listen %s: %v", sentinel.ErrUnavailable, changeChannel, err)
	}

	stop := make(chan struct{})
	go s.pump(ctx, listener, fn, stop)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(stop)
			_ = listener.Close()
		})
	}
	return cancel, nil
}

func (s *Store) pump(ctx context.Context, listener *pq.Listener, fn func(records []domain.RawRecord), stop <-chan struct{}) {
	deliver := func() {
		records, err := s.readAll(ctx)
		if err != nil {
			s.logger.ErrorContext(ctx, "record snapshot read failed", "error", err)
			return
		}
		fn(records)
	}

	deliver()

	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case _, ok := <-listener.Notify:
			if !ok {
				return
			}
			deliver()
		case <-ping.C:
			if err := listener.Ping(); err != nil {
				s.logger.WarnContext(ctx, "record store listener ping failed", "error", err)
			}
			deliver()
		}
	}
}

func (s *Store) readAll(ctx context.Context) ([]domain.RawRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT owner_id, doc, created_at, updated_at FROM verification_records`)
	if err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}
	defer rows.Close()

	var out []domain.RawRecord
	for rows.Next() {
		var (
			ownerID   string
			doc       []byte
			createdAt time.Time
			updatedAt time.Time
		)
		if err := rows.Scan(&ownerID, &doc, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		fields := make(map[string]any)
		if err := json.Unmarshal(doc, &fields); err != nil {
			return nil, fmt.Errorf("decode record %s: %w", ownerID, err)
		}
		fields[domain.FieldCreatedAt] = createdAt
		fields[domain.FieldUpdatedAt] = updatedAt
		out = append(out, domain.RawRecord{OwnerID: ownerID, Fields: fields})
	}
	return out, rows.Err()
}

func (s *Store) Update(ctx context.Context, ownerID string, fields map[string]any) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE verification_records SET doc = doc || $2::jsonb, updated_at = now() WHERE owner_id = $1`,
		ownerID, patch)
	if err != nil {
		return fmt.Errorf("%w: update record: %v", sentinel.ErrUnavailable, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, ownerID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM verification_records WHERE owner_id = $1`, ownerID)
	if err != nil {
		return fmt.Errorf("%w: delete record: %v", sentinel.ErrUnavailable, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) GetRegistryEntry(ctx context.Context, registry, id string) (map[string]any, bool, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM registry_entries WHERE registry = $1 AND id = $2`,
		registry, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: registry lookup: %v", sentinel.ErrUnavailable, err)
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(doc, &fields); err != nil {
		return nil, false, fmt.Errorf("decode registry entry: %w", err)
	}
	return fields, true, nil
}

func (s *Store) SetRegistryEntry(ctx context.Context, registry, id string, fields map[string]any) error {
	doc, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode registry entry: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO registry_entries (registry, id, doc) VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (registry, id) DO UPDATE SET doc = EXCLUDED.doc`,
		registry, id, doc)
	if err != nil {
		return fmt.Errorf("%w: registry write: %v", sentinel.ErrUnavailable, err)
	}
	return nil
}
