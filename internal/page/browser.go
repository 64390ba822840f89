package page

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	apperrors "sjsage522/dealscout/pkg/errors"
	"sjsage522/dealscout/logger"

	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

const mutationBinding = "__dealscoutMutation"

// observerScript reports subtree changes through the binding, at most once
// per 250ms burst
const observerScript = `(() => {
	let pending = false;
	const notify = () => {
		if (pending) return;
		pending = true;
		setTimeout(() => {
			pending = false;
			if (typeof window.` + mutationBinding + ` === 'function') window.` + mutationBinding + `('');
		}, 250);
	};
	const start = () => new MutationObserver(notify).observe(document.documentElement, { childList: true, subtree: true });
	if (document.readyState === 'loading') {
		document.addEventListener('DOMContentLoaded', start);
	} else {
		start();
	}
})();`

// BrowserOptions configures the headless browser
type BrowserOptions struct {
	ChromeBin       string
	Watch           bool
	SnapshotTimeout time.Duration
	UserAgent       string
}

// BrowserSource is a headless Chrome tab. With Watch set it reports DOM
// mutations, which is how client-side navigation is seen.
type BrowserSource struct {
	mu        sync.Mutex
	pageURL   *url.URL
	closed    bool
	mutations chan struct{}

	tabCtx      context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	timeout     time.Duration
	log         *logger.Logger
}

// NewBrowserSource starts a tab and navigates to rawURL
func NewBrowserSource(ctx context.Context, rawURL string, opts BrowserOptions) (*BrowserSource, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("lang", "tr-TR"),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ChromeBin != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	s := &BrowserSource{
		pageURL:     u,
		tabCtx:      tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		timeout:     opts.SnapshotTimeout,
		log:         logger.ForSession(u.String()),
	}
	if s.timeout <= 0 {
		s.timeout = 15 * time.Second
	}

	var actions []chromedp.Action
	if opts.Watch {
		s.mutations = make(chan struct{}, 1)
		chromedp.ListenTarget(tabCtx, func(ev interface{}) {
			if e, ok := ev.(*runtime.EventBindingCalled); ok && e.Name == mutationBinding {
				s.signal()
			}
		})
		actions = append(actions,
			runtime.AddBinding(mutationBinding),
			chromedp.ActionFunc(func(ctx context.Context) error {
				_, err := cdppage.AddScriptToEvaluateOnNewDocument(observerScript).Do(ctx)
				return err
			}),
		)
	}
	actions = append(actions, chromedp.Navigate(u.String()))

	if err := chromedp.Run(tabCtx, actions...); err != nil {
		s.Close()
		return nil, apperrors.NewNetwork(u.Hostname(), "browser navigation failed", err)
	}

	s.log.Debug().Bool("watch", opts.Watch).Msg("Browser page opened")
	return s, nil
}

func (s *BrowserSource) signal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		signal(s.mutations)
	}
}

// URL returns the location seen by the last snapshot
func (s *BrowserSource) URL() *url.URL {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pageURL
}

// Mutations is nil unless the source watches the DOM
func (s *BrowserSource) Mutations() <-chan struct{} {
	return s.mutations
}

// Snapshot serializes the live DOM along with the current location
func (s *BrowserSource) Snapshot(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.mu.Unlock()

	runCtx, cancel := context.WithTimeout(s.tabCtx, s.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html, location string
	err := chromedp.Run(runCtx,
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperrors.NewNetwork(s.URL().Hostname(), "browser snapshot failed", err)
	}

	u := s.URL()
	if loc, err := ParseURL(location); err == nil {
		s.mu.Lock()
		s.pageURL = loc
		s.mu.Unlock()
		u = loc
	}

	return NewSnapshot(u, strings.NewReader(html))
}

// Close shuts the tab and the browser
func (s *BrowserSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.mutations != nil {
		close(s.mutations)
	}
	s.mu.Unlock()

	s.cancelTab()
	s.cancelAlloc()
	return nil
}
