package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"sjsage522/dealscout/helpers"
	"sjsage522/dealscout/internal/acquisition"
	"sjsage522/dealscout/internal/extractor"
	"sjsage522/dealscout/internal/listing"
	"sjsage522/dealscout/internal/page"
	"sjsage522/dealscout/services/publisher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productHTML = `<html><body><h1>Kış Lastiği</h1><div data-testid="product-price">1.200 TL</div></body></html>`

// MockOpener serves fixed HTML per URL
type MockOpener struct {
	pages map[string]string
}

func (m *MockOpener) Open(_ context.Context, rawURL string) (page.Source, error) {
	html, ok := m.pages[rawURL]
	if !ok {
		return nil, errors.New("connection refused")
	}
	src, err := page.NewStaticSource(rawURL, html)
	if err != nil {
		return nil, err
	}
	return pollOnly{src}, nil
}

// pollOnly hides the static source's mutation channel, like an HTTP page
type pollOnly struct {
	*page.StaticSource
}

func (pollOnly) Mutations() <-chan struct{} { return nil }

// MockSaver records forwarded records
type MockSaver struct {
	mu      sync.Mutex
	details []listing.Record
	rows    int
}

var _ acquisition.Saver = (*MockSaver)(nil)

func (m *MockSaver) SaveListing(_ context.Context, rec listing.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.details = append(m.details, rec)
	return nil
}

func (m *MockSaver) SaveListings(_ context.Context, rows []listing.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows += len(rows)
	return nil
}

// MockPublisher counts trims
type MockPublisher struct {
	mu    sync.Mutex
	trims int
}

var _ publisher.Publisher = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(string, []byte) error { return nil }
func (m *MockPublisher) Close() error { return nil }
func (m *MockPublisher) TrimStreams() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trims++
	return nil
}

// MockLogger implements the helpers.LoggerInterface for testing
type MockLogger struct {
	mu     sync.Mutex
	errors []string
	infos  []string
}

var _ helpers.LoggerInterface = (*MockLogger)(nil)

func (m *MockLogger) LogError(component string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, component+": "+err.Error())
}

func (m *MockLogger) LogInfo(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, fmt.Sprintf(format, args...))
}

func testConfig(urls ...string) Config {
	return Config{
		URLs:     urls,
		Interval: 10 * time.Millisecond,
		Window:   time.Second,
		Session:  acquisition.Options{PollInterval: 10 * time.Millisecond, Timeout: 100 * time.Millisecond},
	}
}

func TestWorkerRunSessions(t *testing.T) {
	opener := &MockOpener{pages: map[string]string{
		"https://www.hepsiburada.com/a-p-HB1": productHTML,
		"https://www.hepsiburada.com/b-p-HB2": productHTML,
	}}
	saver := &MockSaver{}
	pub := &MockPublisher{}
	log := &MockLogger{}

	w := NewWorker(context.Background(), extractor.NewDefaultRegistry(), opener, saver, pub, log,
		testConfig("https://www.hepsiburada.com/a-p-HB1", "https://www.hepsiburada.com/b-p-HB2"))

	forwarded := w.runSessions()
	assert.Equal(t, 2, forwarded)
	assert.Equal(t, 1, pub.trims)
	assert.Empty(t, log.errors)

	ids := []string{saver.details[0].ListingID, saver.details[1].ListingID}
	assert.ElementsMatch(t, []string{"HB1", "HB2"}, ids)
}

func TestWorkerLogsOpenFailure(t *testing.T) {
	log := &MockLogger{}
	saver := &MockSaver{}
	w := NewWorker(context.Background(), extractor.NewDefaultRegistry(), &MockOpener{}, saver, nil, log,
		testConfig("https://www.arabam.com/ilan/x/1"))

	assert.Equal(t, 0, w.runSessions())
	require.Len(t, log.errors, 1)
	assert.Contains(t, log.errors[0], "connection refused")
	assert.Empty(t, saver.details)
}

func TestWorkerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	opener := &MockOpener{pages: map[string]string{"https://www.hepsiburada.com/a-p-HB1": productHTML}}
	pub := &MockPublisher{}
	w := NewWorker(ctx, extractor.NewDefaultRegistry(), opener, &MockSaver{}, pub, &MockLogger{},
		testConfig("https://www.hepsiburada.com/a-p-HB1"))

	done := make(chan error, 1)
	go func() { done <- w.Start() }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.GreaterOrEqual(t, pub.trims, 1)
}

func TestWorkerIdleWithoutURLs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	log := &MockLogger{}
	w := NewWorker(ctx, extractor.NewDefaultRegistry(), &MockOpener{}, &MockSaver{}, nil, log, testConfig())

	done := make(chan error, 1)
	go func() { done <- w.Start() }()
	cancel()
	assert.NoError(t, <-done)
	assert.Len(t, log.infos, 1)
}
