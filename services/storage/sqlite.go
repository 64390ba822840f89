package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sjsage522/dealscout/internal/listing"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS listings (
	key        TEXT PRIMARY KEY,
	site       TEXT NOT NULL,
	listing_no TEXT NOT NULL DEFAULT '',
	title      TEXT NOT NULL DEFAULT '',
	data       TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_listings_created_at ON listings(created_at);
CREATE INDEX IF NOT EXISTS idx_listings_site ON listings(site);
`

// SQLiteRepository persists records in a local SQLite file
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (or creates) the database at dbPath.
// ":memory:" opens a private in-memory database.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		// Ensure the directory exists
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The storage service is the only writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) (*listing.Record, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM listings WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeRecord([]byte(data))
}

func (r *SQLiteRepository) Put(ctx context.Context, key string, rec listing.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO listings (key, site, listing_no, title, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			site = excluded.site,
			listing_no = excluded.listing_no,
			title = excluded.title,
			data = excluded.data,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		key, string(rec.Site), rec.ListingID, rec.Title, string(data),
		rec.CreatedAt.UnixNano(), rec.UpdatedAt.UnixNano(),
	)
	return err
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE key = ?`, key)
	return err
}

func (r *SQLiteRepository) List(ctx context.Context) ([]listing.Record, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT data FROM listings ORDER BY created_at, key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []listing.Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		rec, err := decodeRecord([]byte(data))
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM listings`)
	return err
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings`).Scan(&n)
	return n, err
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func decodeRecord(data []byte) (*listing.Record, error) {
	var rec listing.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("corrupt listing row: %w", err)
	}
	return &rec, nil
}
