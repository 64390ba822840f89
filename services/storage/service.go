package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"sjsage522/dealscout/internal/listing"
	"sjsage522/dealscout/logger"
	apperrors "sjsage522/dealscout/pkg/errors"
)

// ErrClosed is returned once the service stopped
var ErrClosed = errors.New("storage service stopped")

// Notifier receives a change event after every write
type Notifier interface {
	Publish(key string, message []byte) error
}

// ChangeEvent is published after a record is written
type ChangeEvent struct {
	Type   string         `json:"type"`
	Key    string         `json:"key"`
	Record listing.Record `json:"record"`
}

const (
	EventInserted = "inserted"
	EventUpdated  = "updated"
)

// UpsertResult reports a single upsert
type UpsertResult struct {
	Inserted bool           `json:"inserted"`
	Skipped  bool           `json:"skipped"`
	Record   listing.Record `json:"record"`
	Total    int            `json:"total"`
}

// BatchResult reports a batch upsert
type BatchResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
	Total    int `json:"total"`
}

// Option configures a Service
type Option func(*Service)

// WithNotifier publishes change events
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

type request struct {
	ctx  context.Context
	fn   func(ctx context.Context) error
	done chan error
}

// Service serializes every storage operation on one goroutine, so a
// read-merge-write is never interleaved with another write.
type Service struct {
	repo     Repository
	notifier Notifier
	now      func() time.Time
	log      *logger.Logger

	requests chan request
	stopped  chan struct{}
	runOnce  sync.Once
}

// NewService creates a service over repo; call Run before use
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		now:      time.Now,
		log:      logger.ForStore(),
		requests: make(chan request),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes requests until ctx ends
func (s *Service) Run(ctx context.Context) {
	s.runOnce.Do(func() {
		defer close(s.stopped)
		for {
			select {
			case <-ctx.Done():
				return
			case req := <-s.requests:
				// An operation that started is finished even if its caller left
				req.done <- req.fn(context.WithoutCancel(req.ctx))
			}
		}
	})
}

// Start runs the service in the background
func (s *Service) Start(ctx context.Context) {
	go s.Run(ctx)
}

// Done is closed once Run returned
func (s *Service) Done() <-chan struct{} {
	return s.stopped
}

func (s *Service) do(ctx context.Context, fn func(ctx context.Context) error) error {
	req := request{ctx: ctx, fn: fn, done: make(chan error, 1)}
	select {
	case s.requests <- req:
	case <-s.stopped:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UpsertOne merges one record into the store
func (s *Service) UpsertOne(ctx context.Context, rec listing.Record) (UpsertResult, error) {
	var res UpsertResult
	err := s.do(ctx, func(ctx context.Context) error {
		merged, inserted, skipped, err := s.upsert(ctx, rec, s.now())
		if err != nil {
			return err
		}
		total, err := s.repo.Count(ctx)
		if err != nil {
			return apperrors.NewStorage("count", "count failed", err)
		}
		res = UpsertResult{Inserted: inserted, Skipped: skipped, Record: merged, Total: total}
		return nil
	})
	return res, err
}

// UpsertBatch merges every record in order. Inserted and updated count
// records written; skipped counts records without an identity.
func (s *Service) UpsertBatch(ctx context.Context, recs []listing.Record) (BatchResult, error) {
	var res BatchResult
	err := s.do(ctx, func(ctx context.Context) error {
		now := s.now()
		for _, rec := range recs {
			_, inserted, skipped, err := s.upsert(ctx, rec, now)
			if err != nil {
				return err
			}
			switch {
			case skipped:
				res.Skipped++
			case inserted:
				res.Inserted++
			default:
				res.Updated++
			}
		}
		total, err := s.repo.Count(ctx)
		if err != nil {
			return apperrors.NewStorage("count", "count failed", err)
		}
		res.Total = total
		return nil
	})
	return res, err
}

// upsert runs on the service goroutine only
func (s *Service) upsert(ctx context.Context, rec listing.Record, now time.Time) (listing.Record, bool, bool, error) {
	in := rec.Clone()
	in.Normalize()

	key := in.Key()
	if key == "" {
		s.log.Debug().Str("site", string(in.Site)).Msg("Record without identity skipped")
		return listing.Record{}, false, true, nil
	}

	existing, err := s.repo.Get(ctx, key)
	switch {
	case err == nil:
		merged := listing.Merge(*existing, in, now)
		if err := s.repo.Put(ctx, key, merged); err != nil {
			return listing.Record{}, false, false, apperrors.NewStorage(key, "put failed", err)
		}
		s.notify(EventUpdated, key, merged)
		return merged, false, false, nil

	case errors.Is(err, ErrNotFound):
		// A record first seen without an id is promoted once the id is known
		if in.ListingID != "" {
			if titleKey := listing.TitleKey(in.Site, in.Title); titleKey != "" {
				prior, err := s.repo.Get(ctx, titleKey)
				if err == nil {
					merged := listing.Merge(*prior, in, now)
					if err := s.repo.Put(ctx, key, merged); err != nil {
						return listing.Record{}, false, false, apperrors.NewStorage(key, "put failed", err)
					}
					if err := s.repo.Delete(ctx, titleKey); err != nil {
						return listing.Record{}, false, false, apperrors.NewStorage(titleKey, "delete failed", err)
					}
					s.notify(EventUpdated, key, merged)
					return merged, false, false, nil
				}
				if !errors.Is(err, ErrNotFound) {
					return listing.Record{}, false, false, apperrors.NewStorage(titleKey, "get failed", err)
				}
			}
		}

		created := listing.NewRecord(in, now)
		if err := s.repo.Put(ctx, key, created); err != nil {
			return listing.Record{}, false, false, apperrors.NewStorage(key, "put failed", err)
		}
		s.notify(EventInserted, key, created)
		return created, true, false, nil

	default:
		return listing.Record{}, false, false, apperrors.NewStorage(key, "get failed", err)
	}
}

func (s *Service) notify(eventType, key string, rec listing.Record) {
	if s.notifier == nil {
		return
	}
	rec.Raw = ""
	data, err := json.Marshal(ChangeEvent{Type: eventType, Key: key, Record: rec})
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Failed to encode change event")
		return
	}
	if err := s.notifier.Publish(string(rec.Site), data); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Failed to publish change event")
	}
}

// GetAll returns every record, oldest first
func (s *Service) GetAll(ctx context.Context) ([]listing.Record, error) {
	var out []listing.Record
	err := s.do(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.List(ctx)
		if err != nil {
			return apperrors.NewStorage("list", "list failed", err)
		}
		return nil
	})
	return out, err
}

// GetByID returns one record. An empty site searches every known site.
func (s *Service) GetByID(ctx context.Context, site listing.Site, id string) (*listing.Record, error) {
	var out *listing.Record
	err := s.do(ctx, func(ctx context.Context) error {
		for _, st := range sitesFor(site) {
			rec, err := s.repo.Get(ctx, listing.IDKey(st, id))
			if err == nil {
				out = rec
				return nil
			}
			if !errors.Is(err, ErrNotFound) {
				return apperrors.NewStorage(id, "get failed", err)
			}
		}
		return ErrNotFound
	})
	return out, err
}

// DeleteByID removes a record and returns how many remain. Deleting a
// missing record is not an error.
func (s *Service) DeleteByID(ctx context.Context, site listing.Site, id string) (int, error) {
	var remaining int
	err := s.do(ctx, func(ctx context.Context) error {
		for _, st := range sitesFor(site) {
			if err := s.repo.Delete(ctx, listing.IDKey(st, id)); err != nil {
				return apperrors.NewStorage(id, "delete failed", err)
			}
		}
		n, err := s.repo.Count(ctx)
		if err != nil {
			return apperrors.NewStorage("count", "count failed", err)
		}
		remaining = n
		return nil
	})
	return remaining, err
}

// ClearAll removes every record
func (s *Service) ClearAll(ctx context.Context) error {
	return s.do(ctx, func(ctx context.Context) error {
		if err := s.repo.Clear(ctx); err != nil {
			return apperrors.NewStorage("clear", "clear failed", err)
		}
		s.log.Info().Msg("Store cleared")
		return nil
	})
}

// GetStats summarizes the store
func (s *Service) GetStats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := s.do(ctx, func(ctx context.Context) error {
		all, err := s.repo.List(ctx)
		if err != nil {
			return apperrors.NewStorage("stats", "list failed", err)
		}
		stats = ComputeStats(all, s.now())
		return nil
	})
	return stats, err
}

func sitesFor(site listing.Site) []listing.Site {
	if site != "" {
		return []listing.Site{site}
	}
	return listing.KnownSites
}
