package storage

import (
	"context"
	"sort"
	"sync"

	"sjsage522/dealscout/internal/listing"
)

// MemoryRepository keeps records in process
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]listing.Record
}

// NewMemoryRepository creates an empty repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]listing.Record)}
}

func (m *MemoryRepository) Get(_ context.Context, key string) (*listing.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := rec.Clone()
	return &out, nil
}

func (m *MemoryRepository) Put(_ context.Context, key string, rec listing.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = rec.Clone()
	return nil
}

// Delete removes a key; a missing key is not an error
func (m *MemoryRepository) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
	return nil
}

// List returns every record, oldest first
func (m *MemoryRepository) List(_ context.Context) ([]listing.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type keyed struct {
		key string
		rec listing.Record
	}
	all := make([]keyed, 0, len(m.records))
	for k, r := range m.records {
		all = append(all, keyed{k, r.Clone()})
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].rec.CreatedAt.Equal(all[j].rec.CreatedAt) {
			return all[i].rec.CreatedAt.Before(all[j].rec.CreatedAt)
		}
		return all[i].key < all[j].key
	})

	out := make([]listing.Record, 0, len(all))
	for _, k := range all {
		out = append(out, k.rec)
	}
	return out, nil
}

func (m *MemoryRepository) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]listing.Record)
	return nil
}

func (m *MemoryRepository) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

func (m *MemoryRepository) Close() error { return nil }
