package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/anchorlight/anchorlight/pkg/types"
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// SaveFragment inserts or replaces a highlight record
func (s *SQLiteStorage) SaveFragment(ctx context.Context, rec *types.Record) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}
	if rec.PageURL == "" {
		return errors.New("record page URL is required")
	}

	var top, left, width, height sql.NullFloat64
	if p := rec.ApproxPosition; p != nil {
		top = sql.NullFloat64{Float64: p.Top, Valid: true}
		left = sql.NullFloat64{Float64: p.Left, Valid: true}
		width = sql.NullFloat64{Float64: p.Width, Valid: true}
		height = sql.NullFloat64{Float64: p.Height, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fragments (id, page_url, text, context_text,
			pos_top, pos_left, pos_width, pos_height, captured_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			page_url = excluded.page_url,
			text = excluded.text,
			context_text = excluded.context_text,
			pos_top = excluded.pos_top,
			pos_left = excluded.pos_left,
			pos_width = excluded.pos_width,
			pos_height = excluded.pos_height,
			captured_at = excluded.captured_at,
			updated_at = CURRENT_TIMESTAMP`,
		rec.ID, rec.PageURL, rec.Text, rec.ContextText,
		top, left, width, height, rec.CapturedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save fragment: %w", err)
	}
	return nil
}

// GetFragment returns a single record by ID
func (s *SQLiteStorage) GetFragment(ctx context.Context, id string) (*types.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, page_url, text, context_text,
			pos_top, pos_left, pos_width, pos_height, captured_at
		FROM fragments WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fragment: %w", err)
	}
	return rec, nil
}

// ListFragmentsByPage returns all records captured on a page, oldest first
func (s *SQLiteStorage) ListFragmentsByPage(ctx context.Context, pageURL string) ([]*types.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, page_url, text, context_text,
			pos_top, pos_left, pos_width, pos_height, captured_at
		FROM fragments WHERE page_url = ? ORDER BY captured_at ASC`, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to list fragments: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return collectRecords(rows)
}

// ListFragments returns every record, oldest first
func (s *SQLiteStorage) ListFragments(ctx context.Context) ([]*types.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, page_url, text, context_text,
			pos_top, pos_left, pos_width, pos_height, captured_at
		FROM fragments ORDER BY captured_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list fragments: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return collectRecords(rows)
}

// DeleteFragment removes a record by ID
func (s *SQLiteStorage) DeleteFragment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM fragments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete fragment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountFragments returns the total number of stored records
func (s *SQLiteStorage) CountFragments(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fragments").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count fragments: %w", err)
	}
	return count, nil
}

// scanner abstracts sql.Row and sql.Rows for scanRecord
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*types.Record, error) {
	var rec types.Record
	var top, left, width, height sql.NullFloat64
	var capturedAt time.Time
	err := sc.Scan(&rec.ID, &rec.PageURL, &rec.Text, &rec.ContextText,
		&top, &left, &width, &height, &capturedAt)
	if err != nil {
		return nil, err
	}
	rec.CapturedAt = capturedAt
	if top.Valid {
		rec.ApproxPosition = &types.Rect{
			Top:    top.Float64,
			Left:   left.Float64,
			Width:  width.Float64,
			Height: height.Float64,
		}
	}
	return &rec, nil
}

func collectRecords(rows *sql.Rows) ([]*types.Record, error) {
	var recs []*types.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fragment: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fragments: %w", err)
	}
	return recs, nil
}
