package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"sjsage522/dealscout/internal/listing"
	apperrors "sjsage522/dealscout/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// MockNotifier records change events
type MockNotifier struct {
	mu     sync.Mutex
	events []ChangeEvent
	err    error
}

func (m *MockNotifier) Publish(_ string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ev ChangeEvent
	if err := json.Unmarshal(message, &ev); err != nil {
		return err
	}
	m.events = append(m.events, ev)
	return m.err
}

func newService(t *testing.T, opts ...Option) (*Service, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	s := NewService(NewMemoryRepository(), append([]Option{WithClock(clock.Now)}, opts...)...)
	s.Start(ctx)
	return s, clock
}

func car(id, title string, fields map[listing.Field]string) listing.Record {
	return listing.Record{Site: listing.SiteArabam, PageKind: listing.PageDetail, ListingID: id, Title: title, Attributes: fields}
}

func TestUpsertOneInsertsThenMerges(t *testing.T) {
	ctx := context.Background()
	s, clock := newService(t)

	res, err := s.UpsertOne(ctx, car("123", "", map[listing.Field]string{listing.FieldPrice: "500000 TL", listing.FieldYear: "2019"}))
	require.NoError(t, err)
	assert.True(t, res.Inserted)
	assert.Equal(t, 1, res.Total)
	created := res.Record.CreatedAt

	clock.Advance(time.Hour)
	res, err = s.UpsertOne(ctx, car("123", "", map[listing.Field]string{listing.FieldKilometer: "80000"}))
	require.NoError(t, err)
	assert.False(t, res.Inserted)
	assert.Equal(t, 1, res.Total)

	got, err := s.GetByID(ctx, listing.SiteArabam, "123")
	require.NoError(t, err)
	assert.Equal(t, "500000 TL", got.Get(listing.FieldPrice))
	assert.Equal(t, "2019", got.Get(listing.FieldYear))
	assert.Equal(t, "80000", got.Get(listing.FieldKilometer))
	assert.True(t, created.Equal(got.CreatedAt))
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestUpsertBatchCounts(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)

	_, err := s.UpsertBatch(ctx, []listing.Record{car("1", "a", nil), car("2", "b", nil)})
	require.NoError(t, err)

	res, err := s.UpsertBatch(ctx, []listing.Record{
		car("1", "a", nil),
		car("2", "b", nil),
		car("3", "c", nil),
		car("4", "d", nil),
		car("", "", map[listing.Field]string{listing.FieldPrice: "1 TL"}),
	})
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Inserted: 2, Updated: 2, Skipped: 1, Total: 4}, res)
}

func TestUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, clock := newService(t)
	rec := car("7", "Fiat Egea", map[listing.Field]string{listing.FieldPrice: "650.000 TL"})
	rec.PaintedParts = []string{"Kaput"}

	first, err := s.UpsertOne(ctx, rec)
	require.NoError(t, err)
	clock.Advance(time.Minute)
	second, err := s.UpsertOne(ctx, rec)
	require.NoError(t, err)

	assert.Equal(t, first.Record.Attributes, second.Record.Attributes)
	assert.Equal(t, first.Record.PaintedParts, second.Record.PaintedParts)
	assert.Equal(t, first.Record.CreatedAt, second.Record.CreatedAt)
	assert.Equal(t, 1, second.Total)
}

func TestTitleKeyedRecordIsPromoted(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)

	row := listing.Record{Site: listing.SiteArabam, PageKind: listing.PageList, Title: "Renault  Clio"}
	row.Set(listing.FieldPrice, "500.000 TL")
	res, err := s.UpsertOne(ctx, row)
	require.NoError(t, err)
	assert.True(t, res.Inserted)

	res, err = s.UpsertOne(ctx, car("123", "Renault Clio", map[listing.Field]string{listing.FieldKilometer: "80.000"}))
	require.NoError(t, err)
	assert.False(t, res.Inserted)
	assert.Equal(t, 1, res.Total)

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "123", all[0].ListingID)
	assert.Equal(t, "500.000 TL", all[0].Get(listing.FieldPrice))
	assert.Equal(t, "80.000", all[0].Get(listing.FieldKilometer))
	assert.Equal(t, listing.PageDetail, all[0].PageKind)
}

func TestUpsertSkipsRecordsWithoutIdentity(t *testing.T) {
	s, _ := newService(t)
	res, err := s.UpsertOne(context.Background(), listing.Record{Site: listing.SiteArabam})
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, 0, res.Total)
}

func TestDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	_, err := s.UpsertBatch(ctx, []listing.Record{car("1", "a", nil), car("2", "b", nil), car("3", "c", nil)})
	require.NoError(t, err)

	remaining, err := s.DeleteByID(ctx, listing.SiteArabam, "2")
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)

	remaining, err = s.DeleteByID(ctx, "", "404")
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)

	remaining, err = s.DeleteByID(ctx, "", "1")
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)

	_, err = s.GetByID(ctx, "", "1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.ClearAll(ctx))
	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestGetStats(t *testing.T) {
	ctx := context.Background()
	s, clock := newService(t)

	old := car("1", "a", map[listing.Field]string{listing.FieldBrandModel: "Renault Clio", listing.FieldYear: "2019"})
	_, err := s.UpsertOne(ctx, old)
	require.NoError(t, err)

	clock.Advance(10 * 24 * time.Hour)
	_, err = s.UpsertBatch(ctx, []listing.Record{
		car("2", "b", map[listing.Field]string{listing.FieldBrand: "Renault", listing.FieldYear: "2019"}),
		car("3", "c", map[listing.Field]string{listing.FieldBrandModel: "Fiat Egea"}),
	})
	require.NoError(t, err)

	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.ThisWeek)
	assert.Equal(t, map[string]int{"Renault": 2, "Fiat": 1}, stats.ByBrand)
	assert.Equal(t, map[string]int{"2019": 2}, stats.ByYear)
	assert.Equal(t, map[string]int{"arabam": 3}, stats.BySite)
}

func TestNotifierReceivesChanges(t *testing.T) {
	ctx := context.Background()
	n := &MockNotifier{err: errors.New("redis down")}
	s, _ := newService(t, WithNotifier(n))

	rec := car("1", "a", nil)
	rec.Raw = "<html>...</html>"
	_, err := s.UpsertOne(ctx, rec)
	require.NoError(t, err, "a failing notifier does not fail the write")
	_, err = s.UpsertOne(ctx, rec)
	require.NoError(t, err)

	n.mu.Lock()
	defer n.mu.Unlock()
	require.Len(t, n.events, 2)
	assert.Equal(t, EventInserted, n.events[0].Type)
	assert.Equal(t, EventUpdated, n.events[1].Type)
	assert.Equal(t, "arabam:1", n.events[1].Key)
	assert.Empty(t, n.events[1].Record.Raw)
}

func TestConcurrentUpsertsDoNotLoseFields(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)

	fields := []listing.Field{listing.FieldPrice, listing.FieldYear, listing.FieldKilometer, listing.FieldColor, listing.FieldFuelType}
	var wg sync.WaitGroup
	for _, f := range fields {
		wg.Add(1)
		go func(f listing.Field) {
			defer wg.Done()
			_, err := s.UpsertOne(ctx, car("9", "", map[listing.Field]string{f: "x"}))
			assert.NoError(t, err)
		}(f)
	}
	wg.Wait()

	got, err := s.GetByID(ctx, listing.SiteArabam, "9")
	require.NoError(t, err)
	for _, f := range fields {
		assert.Equal(t, "x", got.Get(f), f)
	}
}

type failingRepo struct {
	*MemoryRepository
}

func (failingRepo) Put(context.Context, string, listing.Record) error {
	return errors.New("disk full")
}

func TestStorageErrorsAreTyped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewService(failingRepo{NewMemoryRepository()})
	s.Start(ctx)

	_, err := s.UpsertOne(ctx, car("1", "a", nil))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeStorage))
}

func TestStoppedServiceRejectsRequests(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewService(NewMemoryRepository())
	s.Start(ctx)
	cancel()
	<-s.Done()

	_, err := s.GetAll(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}
