package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Kind names the request path an entry belongs to.
type Kind string

const (
	KindInfo     Kind = "info"
	KindDownload Kind = "download"
)

// OutcomeOK marks a request that completed without error.
const OutcomeOK = "OK"

// Entry is one finished request.
type Entry struct {
	ID        int64     `json:"id"`
	RequestID string    `json:"requestId"`
	Kind      Kind      `json:"kind"`
	URL       string    `json:"url"`
	Format    string    `json:"format,omitempty"`
	Outcome   string    `json:"outcome"`
	Details   string    `json:"details,omitempty"`
	Title     string    `json:"title,omitempty"`
	Bytes     int64     `json:"bytes"`
	Duration  int64     `json:"durationMs"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is the SQLite request ledger.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open creates or opens the ledger at path. Every pooled connection runs in
// WAL mode with a busy timeout.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	store := &Store{db: db, path: path, now: time.Now}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends an entry. CreatedAt defaults to now.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	if entry.Kind == "" {
		return errors.New("history entry kind required")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	return whileBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO requests (request_id, kind, url, format, outcome, details, title, bytes, duration_ms, created_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.RequestID,
			string(entry.Kind),
			entry.URL,
			optional(entry.Format),
			entry.Outcome,
			optional(entry.Details),
			optional(entry.Title),
			entry.Bytes,
			entry.Duration,
			entry.CreatedAt.UTC().Format(timeLayout),
		)
		if err != nil {
			return fmt.Errorf("insert history entry: %w", err)
		}
		return nil
	})
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, kind, url, format, outcome, details, title, bytes, duration_ms, created_at
         FROM requests ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry                  Entry
			kind, created          string
			format, details, title sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.RequestID, &kind, &entry.URL, &format, &entry.Outcome,
			&details, &title, &entry.Bytes, &entry.Duration, &created); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entry.Kind = Kind(kind)
		entry.Format = format.String
		entry.Details = details.String
		entry.Title = title.String
		if ts, err := time.Parse(timeLayout, created); err == nil {
			entry.CreatedAt = ts
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

// Prune deletes entries older than retention and returns how many went.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-retention).UTC().Format(timeLayout)
	var removed int64
	err := whileBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM requests WHERE created_at < ?`, cutoff)
		if err != nil {
			return fmt.Errorf("prune history: %w", err)
		}
		removed, err = res.RowsAffected()
		return err
	})
	return removed, err
}
