package leadtrack

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/randalmurphal/leadtrack/pkg/leadtrack/destination"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/loader"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/observability"
)

// settings collects Tracker options before construction.
type settings struct {
	logger   *slog.Logger
	metrics  observability.MetricsRecorder
	spans    observability.SpanManager
	now      func() time.Time
	rand     rand.Source
	loader   loader.Loader
	urls     loader.URLs
	lead     []destination.Adapter
	pageView []destination.Adapter
}

func defaultSettings() settings {
	return settings{
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
		now:     time.Now,
		loader:  loader.Never{},
		urls:    loader.DefaultURLs(),
	}
}

// Option configures a Tracker.
type Option func(*settings)

// WithLogger sets the logger. Payloads are logged at debug level, so a
// debug-level handler reproduces the console output of a debug build.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithMetrics enables metrics recording.
//
// Example:
//
//	tracker := leadtrack.New(cfg, window, leadtrack.WithMetrics(observability.NewMetricsRecorder()))
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(s *settings) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracing enables a span per dispatch and per adapter call.
func WithTracing(sm observability.SpanManager) Option {
	return func(s *settings) {
		if sm != nil {
			s.spans = sm
		}
	}
}

// WithClock sets the time source used for timestamps, ages, and
// transaction ids.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRand sets the random source for transaction id suffixes.
func WithRand(src rand.Source) Option {
	return func(s *settings) { s.rand = src }
}

// WithLoader sets how loader scripts are fetched.
// Default: loader.Never, which leaves every destination unavailable.
func WithLoader(l loader.Loader) Option {
	return func(s *settings) {
		if l != nil {
			s.loader = l
		}
	}
}

// WithURLs overrides the loader script locations.
func WithURLs(u loader.URLs) Option {
	return func(s *settings) { s.urls = u }
}

// WithAdapters replaces the lead adapters. They run in the order given.
func WithAdapters(adapters ...destination.Adapter) Option {
	return func(s *settings) { s.lead = adapters }
}

// WithPageViewAdapters replaces the page-view adapters.
func WithPageViewAdapters(adapters ...destination.Adapter) Option {
	return func(s *settings) { s.pageView = adapters }
}
