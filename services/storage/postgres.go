package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"sjsage522/dealscout/internal/listing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS listings (
	key        TEXT PRIMARY KEY,
	site       TEXT NOT NULL,
	listing_no TEXT NOT NULL DEFAULT '',
	title      TEXT NOT NULL DEFAULT '',
	data       JSONB NOT NULL,
	created_at BIGINT NOT NULL,
	updated_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_listings_created_at ON listings(created_at);
`

// PostgresRepository persists records in a shared Postgres database
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository connects and ensures the schema
func NewPostgresRepository(ctx context.Context, dsn string, maxConns int32) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg-dsn parse: %w", err)
	}
	if maxConns <= 0 {
		maxConns = 4
	}
	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Get(ctx context.Context, key string) (*listing.Record, error) {
	var data []byte
	err := r.pool.QueryRow(ctx, `SELECT data FROM listings WHERE key = $1`, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeRecord(data)
}

func (r *PostgresRepository) Put(ctx context.Context, key string, rec listing.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO listings (key, site, listing_no, title, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (key) DO UPDATE SET
			site = EXCLUDED.site,
			listing_no = EXCLUDED.listing_no,
			title = EXCLUDED.title,
			data = EXCLUDED.data,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at`,
		key, string(rec.Site), rec.ListingID, rec.Title, data,
		rec.CreatedAt.UnixNano(), rec.UpdatedAt.UnixNano(),
	)
	return err
}

func (r *PostgresRepository) Delete(ctx context.Context, key string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM listings WHERE key = $1`, key)
	return err
}

func (r *PostgresRepository) List(ctx context.Context) ([]listing.Record, error) {
	rows, err := r.pool.Query(ctx, `SELECT data FROM listings ORDER BY created_at, key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []listing.Record
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Clear(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM listings`)
	return err
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM listings`).Scan(&n)
	return n, err
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}
