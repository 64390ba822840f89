package worker

import (
	"context"
	"sync"
	"time"

	"sjsage522/dealscout/helpers"
	"sjsage522/dealscout/internal/acquisition"
	"sjsage522/dealscout/internal/extractor"
	"sjsage522/dealscout/internal/page"
	"sjsage522/dealscout/services/publisher"
)

// Config holds what a worker needs to drive sessions
type Config struct {
	URLs       []string
	Interval   time.Duration
	Window     time.Duration
	Session    acquisition.Options
	Production bool
}

// Worker opens every watched URL each interval and runs a session on it
type Worker struct {
	ctx       context.Context
	registry  *extractor.Registry
	opener    page.Opener
	saver     acquisition.Saver
	publisher publisher.Publisher
	logger    helpers.LoggerInterface
	cfg       Config
}

// NewWorker creates a new worker; pub may be nil
func NewWorker(
	ctx context.Context,
	registry *extractor.Registry,
	opener page.Opener,
	saver acquisition.Saver,
	pub publisher.Publisher,
	logger helpers.LoggerInterface,
	cfg Config,
) *Worker {
	return &Worker{
		ctx:       ctx,
		registry:  registry,
		opener:    opener,
		saver:     saver,
		publisher: pub,
		logger:    logger,
		cfg:       cfg,
	}
}

// Start runs cycles until the context ends
func (w *Worker) Start() error {
	if len(w.cfg.URLs) == 0 {
		w.logger.LogInfo("No watch URLs configured, worker idle")
		<-w.ctx.Done()
		return nil
	}

	for {
		start := time.Now()
		forwarded := w.runSessions()
		if !w.cfg.Production {
			w.logger.LogInfo("Cycle took %s, %d attempts forwarded", time.Since(start), forwarded)
		}

		select {
		case <-w.ctx.Done():
			return nil
		case <-time.After(w.cfg.Interval):
		}
	}
}

// runSessions watches every URL in parallel and then trims the stream
func (w *Worker) runSessions() int {
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for _, u := range w.cfg.URLs {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			n := w.watch(u)
			mu.Lock()
			total += n
			mu.Unlock()
		}(u)
	}
	wg.Wait()

	if w.publisher != nil {
		if err := w.publisher.TrimStreams(); err != nil {
			w.logger.LogError("StreamTrimming", err)
		}
	}
	return total
}

// watch runs one session on rawURL and returns how many attempts it forwarded
func (w *Worker) watch(rawURL string) int {
	ctx := w.ctx
	if w.cfg.Window > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.cfg.Window)
		defer cancel()
	}

	src, err := w.opener.Open(ctx, rawURL)
	if err != nil {
		w.logger.LogError(rawURL, err)
		return 0
	}
	defer src.Close()

	s := acquisition.NewSession(w.registry, src, w.saver, w.logger, w.cfg.Session)
	s.Run(ctx)
	return s.Forwarded()
}
