package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"reelsmith/internal/config"
	"reelsmith/internal/manifest"
)

// Store persists per-item outcomes backed by SQLite. Slugs are unique, so
// reruns of the same week upsert instead of appending duplicates.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Item is one persisted item outcome.
type Item struct {
	ID            int64
	ItemSlug      string
	WeekNumber    int
	EntityName    string
	ContentKind   string
	Status        manifest.Status
	ScriptPath    string
	Caption       string
	VideoPath     string
	ThumbnailPath string
	Tags          []string
	ErrorDetail   string
	RunID         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Summary aggregates item statuses for one week.
type Summary struct {
	WeekNumber int
	Total      int
	OK         int
	Blocked    int
	Failed     int
}

// Open initializes or connects to the item database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.LogDir, "reelsmith.db"))
}

// OpenPath connects to the database at the given path and applies the schema.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Upsert writes the item outcome, replacing any previous record for the same
// slug.
func (s *Store) Upsert(ctx context.Context, item *Item) error {
	if item == nil || strings.TrimSpace(item.ItemSlug) == "" {
		return errors.New("upsert item: slug required")
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	return s.execWithRetry(ctx,
		`INSERT INTO items (
            item_slug, week_number, entity_name, content_kind, status,
            script_path, caption, video_path, thumbnail_path, tags,
            error_detail, run_id, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(item_slug) DO UPDATE SET
            week_number = excluded.week_number,
            entity_name = excluded.entity_name,
            content_kind = excluded.content_kind,
            status = excluded.status,
            script_path = excluded.script_path,
            caption = excluded.caption,
            video_path = excluded.video_path,
            thumbnail_path = excluded.thumbnail_path,
            tags = excluded.tags,
            error_detail = excluded.error_detail,
            run_id = excluded.run_id,
            updated_at = excluded.updated_at`,
		item.ItemSlug,
		item.WeekNumber,
		item.EntityName,
		item.ContentKind,
		string(item.Status),
		item.ScriptPath,
		item.Caption,
		item.VideoPath,
		item.ThumbnailPath,
		strings.Join(item.Tags, ","),
		item.ErrorDetail,
		item.RunID,
		item.CreatedAt.Format(time.RFC3339Nano),
		item.UpdatedAt.Format(time.RFC3339Nano),
	)
}

// GetBySlug fetches one item outcome. Returns sql.ErrNoRows when absent.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*Item, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" FROM items WHERE item_slug = ?", slug)
	return scanItem(row)
}

// ListForWeek returns all item outcomes for a week ordered by insertion.
func (s *Store) ListForWeek(ctx context.Context, week int) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+" FROM items WHERE week_number = ? ORDER BY id", week)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// WeekSummary aggregates status counts for a week.
func (s *Store) WeekSummary(ctx context.Context, week int) (Summary, error) {
	summary := Summary{WeekNumber: week}
	rows, err := s.db.QueryContext(ctx,
		"SELECT status, COUNT(1) FROM items WHERE week_number = ? GROUP BY status", week)
	if err != nil {
		return summary, fmt.Errorf("week summary: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return summary, fmt.Errorf("scan summary row: %w", err)
		}
		summary.Total += count
		switch manifest.Status(status) {
		case manifest.StatusOK:
			summary.OK += count
		case manifest.StatusBlocked:
			summary.Blocked += count
		case manifest.StatusFailed:
			summary.Failed += count
		}
	}
	return summary, rows.Err()
}

const selectColumns = `SELECT id, item_slug, week_number, entity_name, content_kind, status,
    script_path, caption, video_path, thumbnail_path, tags, error_detail, run_id,
    created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var (
		item      Item
		status    string
		tags      string
		createdAt string
		updatedAt string
	)
	err := row.Scan(
		&item.ID, &item.ItemSlug, &item.WeekNumber, &item.EntityName, &item.ContentKind,
		&status, &item.ScriptPath, &item.Caption, &item.VideoPath, &item.ThumbnailPath,
		&tags, &item.ErrorDetail, &item.RunID, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Status = manifest.Status(status)
	if tags != "" {
		item.Tags = strings.Split(tags, ",")
	}
	if parsed, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		item.CreatedAt = parsed
	}
	if parsed, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		item.UpdatedAt = parsed
	}
	return &item, nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}
