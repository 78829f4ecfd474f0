package leadtrack

import (
	"log/slog"
	"sync"
	"time"

	"github.com/randalmurphal/leadtrack/pkg/leadtrack/browser"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/config"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/destination"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/loader"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/normalize"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/observability"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/queue"
)

// Tracker is the dispatch facade. Create one per page environment at
// startup and share it; it is safe for concurrent use.
type Tracker struct {
	cfg    config.Tracking
	window *browser.Window

	normalizer *normalize.Normalizer
	lead       []destination.Adapter
	pageView   []destination.Adapter

	loader  loader.Loader
	urls    loader.URLs
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	now     func() time.Time

	// pixelCalls records fbq calls once the pixel SDK is loaded.
	pixelCalls *queue.Queue

	mu          sync.Mutex
	initialized bool
}

// New creates a tracker for window. A nil window models an environment
// without a page: Initialize is a no-op and every adapter skips.
func New(cfg config.Tracking, window *browser.Window, opts ...Option) *Tracker {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}

	t := &Tracker{
		cfg:        cfg,
		window:     window,
		normalizer: normalize.New(cfg, normalize.WithClock(s.now)),
		loader:     s.loader,
		urls:       s.urls,
		logger:     s.logger,
		metrics:    s.metrics,
		spans:      s.spans,
		now:        s.now,
		pixelCalls: queue.NewWithClock(s.now),
	}

	deps := destination.Deps{
		Window: window,
		Config: cfg,
		TxIDs:  destination.NewTxIDs(s.now, s.rand),
		Logger: s.logger,
	}
	analytics := destination.NewAnalytics(deps)
	pixel := destination.NewPixel(deps)

	t.lead = s.lead
	if t.lead == nil {
		t.lead = []destination.Adapter{
			destination.NewAdsEnhanced(deps),
			analytics,
			pixel,
			destination.NewAdsConversion(deps),
		}
	}
	t.pageView = s.pageView
	if t.pageView == nil {
		t.pageView = []destination.Adapter{analytics, pixel}
	}
	return t
}

// Config returns the tracking configuration.
func (t *Tracker) Config() config.Tracking {
	return t.cfg
}

// Initialized reports whether the bootstrap has run.
func (t *Tracker) Initialized() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.initialized
}

// QueuedEvents returns how many entries the data layer and the pixel call
// queue hold together.
func (t *Tracker) QueuedEvents() int {
	n := t.pixelCalls.Len()
	if t.window != nil {
		if dl := t.window.DataLayer(); dl != nil {
			n += dl.Len()
		}
	}
	return n
}
