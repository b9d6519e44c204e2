package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"vehicle-intel/pkg/services"
)

type Kind string

// timeLayout is fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const (
	KindGenerate Kind = "generate"
	KindPublish  Kind = "publish"
)

// Event is one row of the generation and publish log.
type Event struct {
	ID           string    `json:"id"`
	Kind         Kind      `json:"kind"`
	Slug         string    `json:"slug"`
	Method       string    `json:"method,omitempty"`
	UsedFallback bool      `json:"usedFallback"`
	Backend      string    `json:"backend,omitempty"`
	Detail       string    `json:"detail,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// DB wraps the SQLite event log.
type DB struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the log at path. ":memory:" works for tests.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection, so an in-memory database is shared by every query.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	d := &DB{db: db, now: time.Now}
	if err := d.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return d, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		slug TEXT NOT NULL,
		method TEXT,
		used_fallback BOOLEAN NOT NULL DEFAULT 0,
		backend TEXT,
		detail TEXT,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_created ON events(created_at);
	CREATE INDEX IF NOT EXISTS idx_events_slug ON events(slug);
	`
	_, err := d.db.Exec(schema)
	return err
}

// Record stores e, assigning an id and timestamp when missing.
func (d *DB) Record(ctx context.Context, e Event) (Event, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = d.now()
	}
	e.CreatedAt = e.CreatedAt.UTC()

	query := `
	INSERT INTO events (id, kind, slug, method, used_fallback, backend, detail, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := d.db.ExecContext(ctx, query,
		e.ID, string(e.Kind), e.Slug, e.Method, e.UsedFallback, e.Backend, e.Detail, e.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return Event{}, fmt.Errorf("insert event: %w", err)
	}
	return e, nil
}

// RecordGeneration logs the outcome of one generation request.
func (d *DB) RecordGeneration(ctx context.Context, res services.Result) error {
	slug := ""
	if res.Article != nil {
		slug = res.Article.Slug
	}
	_, err := d.Record(ctx, Event{
		Kind:         KindGenerate,
		Slug:         slug,
		Method:       string(res.Method),
		UsedFallback: res.UsedFallback,
		Detail:       res.Diagnostics(),
	})
	return err
}

// Invalidate logs a successful publish.
func (d *DB) Invalidate(ctx context.Context, p services.Published) error {
	detail := "updated " + p.URL
	if p.Created {
		detail = "created " + p.URL
	}
	_, err := d.Record(ctx, Event{
		Kind:    KindPublish,
		Slug:    p.Article.Slug,
		Backend: p.Backend,
		Detail:  detail,
	})
	return err
}

// Recent returns up to limit events, newest first. A non-empty kind filters.
func (d *DB) Recent(ctx context.Context, kind Kind, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
	SELECT id, kind, slug, method, used_fallback, backend, detail, created_at
	FROM events
	`
	args := []any{}
	if kind != "" {
		query += " WHERE kind = ?"
		args = append(args, string(kind))
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var e Event
		var kindStr string
		var method, backend, detail sql.NullString
		if err := rows.Scan(&e.ID, &kindStr, &e.Slug, &method, &e.UsedFallback, &backend, &detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Kind = Kind(kindStr)
		e.Method = method.String
		e.Backend = backend.String
		e.Detail = detail.String
		events = append(events, e)
	}
	return events, rows.Err()
}
