// Package storage is the single owner of persisted listings. Backends are
// plain key/value repositories; identity, merge and counting rules live in
// Service, which runs every operation on one goroutine.
package storage

import (
	"context"
	"errors"

	"sjsage522/dealscout/internal/listing"
)

// ErrNotFound is returned when no record has the requested key
var ErrNotFound = errors.New("listing not found")

// Repository persists records under their identity key
type Repository interface {
	Get(ctx context.Context, key string) (*listing.Record, error)
	Put(ctx context.Context, key string, rec listing.Record) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]listing.Record, error)
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
	Close() error
}
