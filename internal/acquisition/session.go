// Package acquisition decides when a page is extracted and when the result
// is handed to storage.
//
// A Session owns one page. It polls on a fixed interval until one attempt is
// forwarded or the timeout elapses, and independently re-extracts on every
// DOM mutation the page reports. All attempts run on the session's own loop.
package acquisition

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"sjsage522/dealscout/helpers"
	"sjsage522/dealscout/internal/extractor"
	"sjsage522/dealscout/internal/listing"
	"sjsage522/dealscout/internal/page"
	"sjsage522/dealscout/logger"
	apperrors "sjsage522/dealscout/pkg/errors"
)

// Saver is the storage boundary as seen from a page
type Saver interface {
	SaveListing(ctx context.Context, rec listing.Record) error
	SaveListings(ctx context.Context, rows []listing.Record) error
}

// Trigger names what started an attempt
type Trigger string

const (
	TriggerPoll     Trigger = "poll"
	TriggerMutation Trigger = "mutation"
	TriggerManual   Trigger = "manual"
)

const (
	DefaultPollInterval = 3 * time.Second
	DefaultTimeout      = 30 * time.Second
)

// Options bound the polling phase
type Options struct {
	PollInterval time.Duration
	Timeout      time.Duration
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// Outcome describes one attempt
type Outcome struct {
	Trigger     Trigger
	Strategy    string
	Kind        listing.PageKind
	Unsupported bool
	Sufficient  bool
	Forwarded   bool
	Rows        int
	Err         error
}

// Session drives extraction for one page
type Session struct {
	registry *extractor.Registry
	source   page.Source
	saver    Saver
	errLog   helpers.LoggerInterface
	log      *logger.Logger
	opts     Options
	now      func() time.Time

	attemptMu sync.Mutex

	mu        sync.Mutex
	polling   bool
	forwarded int
}

// NewSession creates a session; nothing runs until Run
func NewSession(registry *extractor.Registry, source page.Source, saver Saver, errLog helpers.LoggerInterface, opts Options) *Session {
	return &Session{
		registry: registry,
		source:   source,
		saver:    saver,
		errLog:   errLog,
		log:      logger.ForSession(urlString(source.URL())),
		opts:     opts.withDefaults(),
		now:      time.Now,
	}
}

// Polling reports whether the polling phase is still active
func (s *Session) Polling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polling
}

// Forwarded returns how many attempts reached storage
func (s *Session) Forwarded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forwarded
}

func (s *Session) setPolling(v bool) {
	s.mu.Lock()
	s.polling = v
	s.mu.Unlock()
}

// Run blocks until the context ends, or until polling has stopped and the
// page offers no mutation signals.
func (s *Session) Run(ctx context.Context) {
	mutations := s.source.Mutations()

	var (
		tick     <-chan time.Time
		deadline <-chan time.Time
		ticker   *time.Ticker
		timer    *time.Timer
	)

	// Polling only starts when a strategy claims the initial location;
	// mutations may still lead somewhere supported later.
	if _, ok := s.registry.ResolveURL(s.source.URL()); ok {
		ticker = time.NewTicker(s.opts.PollInterval)
		timer = time.NewTimer(s.opts.Timeout)
		defer ticker.Stop()
		defer timer.Stop()
		tick, deadline = ticker.C, timer.C
		s.setPolling(true)
	} else {
		s.log.Debug().Msg("No strategy for initial location, polling skipped")
	}

	started := s.now()
	stopPolling := func(reason string) {
		if tick == nil {
			return
		}
		ticker.Stop()
		timer.Stop()
		tick, deadline = nil, nil
		s.setPolling(false)
		s.log.Debug().Str("reason", reason).Msg("Polling stopped")
	}

	if tick != nil {
		if out := s.HandleAttempt(ctx, TriggerPoll); out.Forwarded {
			stopPolling("forwarded")
		}
	}

	for {
		if tick == nil && mutations == nil {
			return
		}

		select {
		case <-ctx.Done():
			stopPolling("cancelled")
			return

		case <-deadline:
			stopPolling("timeout")

		case <-tick:
			// The deadline may be ready in the same select
			if s.now().Sub(started) >= s.opts.Timeout {
				stopPolling("timeout")
				continue
			}
			if out := s.HandleAttempt(ctx, TriggerPoll); out.Forwarded {
				stopPolling("forwarded")
			}

		case _, ok := <-mutations:
			if !ok {
				mutations = nil
				continue
			}
			s.HandleAttempt(ctx, TriggerMutation)
		}
	}
}

func urlString(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.String()
}

// HandleAttempt runs one resolve, extract, check and forward cycle against
// the current document. Failures are logged and reported in the outcome;
// they never escape as panics.
func (s *Session) HandleAttempt(ctx context.Context, trigger Trigger) (out Outcome) {
	s.attemptMu.Lock()
	defer s.attemptMu.Unlock()

	out.Trigger = trigger
	defer func() {
		if r := recover(); r != nil {
			out.Forwarded = false
			out.Err = apperrors.NewAttempt(string(trigger), "attempt panicked", fmt.Errorf("%v", r))
			s.errLog.LogError("Session", out.Err)
		}
	}()

	snap, err := s.source.Snapshot(ctx)
	if err != nil {
		out.Err = err
		s.errLog.LogError("Session", err)
		return out
	}

	strategy, ok := s.registry.ResolveURL(snap.URL)
	if !ok {
		out.Unsupported = true
		out.Err = apperrors.NewUnsupported(urlString(snap.URL))
		return out
	}
	out.Strategy, out.Kind = strategy.Name(), strategy.PageKind()

	attempt, err := extractor.Run(strategy, snap.Doc, snap.URL)
	if err != nil {
		out.Err = err
		s.errLog.LogError(strategy.Name(), err)
		return out
	}
	out.Rows = len(attempt.Rows)

	if !attempt.Sufficient() {
		s.log.Debug().Str("trigger", string(trigger)).Str("strategy", strategy.Name()).Msg("Attempt not sufficient yet")
		return out
	}
	out.Sufficient = true

	switch attempt.Kind {
	case listing.PageDetail:
		err = s.saver.SaveListing(ctx, *attempt.Detail)
	case listing.PageList:
		err = s.saver.SaveListings(ctx, attempt.Rows)
	}
	if err != nil {
		out.Err = apperrors.NewStorage(strategy.Name(), "forward failed", err)
		s.errLog.LogError(strategy.Name(), out.Err)
		return out
	}

	out.Forwarded = true
	s.mu.Lock()
	s.forwarded++
	s.mu.Unlock()

	s.log.Info().
		Str("trigger", string(trigger)).
		Str("strategy", strategy.Name()).
		Str("page_type", string(attempt.Kind)).
		Int("rows", out.Rows).
		Msg("Listing forwarded")
	return out
}
