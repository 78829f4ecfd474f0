package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	lterrors "github.com/randalmurphal/leadtrack/pkg/leadtrack/errors"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/observability"
)

// maxScriptBytes caps how much of a script body is read.
const maxScriptBytes = 4 << 20

// DefaultTimeout bounds one background load, retries included.
const DefaultTimeout = 10 * time.Second

// DefaultAttemptTimeout bounds a single request within a load.
const DefaultAttemptTimeout = 3 * time.Second

// HTTP fetches scripts over the network in a background goroutine and calls
// ready when the fetch succeeds. Transient failures are retried with
// backoff. On final failure the destination stays unavailable.
//
// A script that loaded once stays loaded for the life of the loader, the
// way a browser caches it, so many windows can share one HTTP loader and
// only the first Load per URL touches the network. A failed URL is fetched
// again on the next Load.
type HTTP struct {
	client         *http.Client
	policy         lterrors.Policy
	timeout        time.Duration
	attemptTimeout time.Duration
	logger         *slog.Logger
	metrics        observability.MetricsRecorder

	mu      sync.Mutex
	fetches map[string]*fetch

	wg sync.WaitGroup
}

// fetch is one in-flight or finished download of a URL.
type fetch struct {
	done chan struct{}
	err  error
}

// HTTPOption configures an HTTP loader.
type HTTPOption func(*HTTP)

// WithClient sets the HTTP client.
func WithClient(c *http.Client) HTTPOption {
	return func(l *HTTP) {
		if c != nil {
			l.client = c
		}
	}
}

// WithRetry sets the retry policy for fetches.
func WithRetry(p lterrors.Policy) HTTPOption {
	return func(l *HTTP) { l.policy = p }
}

// WithTimeout bounds each background load.
func WithTimeout(d time.Duration) HTTPOption {
	return func(l *HTTP) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithAttemptTimeout bounds each request. Zero or less leaves only the
// load timeout.
func WithAttemptTimeout(d time.Duration) HTTPOption {
	return func(l *HTTP) { l.attemptTimeout = d }
}

// WithLogger sets the logger. Nil disables logging.
func WithLogger(logger *slog.Logger) HTTPOption {
	return func(l *HTTP) { l.logger = logger }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observability.MetricsRecorder) HTTPOption {
	return func(l *HTTP) {
		if m != nil {
			l.metrics = m
		}
	}
}

// NewHTTP creates an HTTP loader.
func NewHTTP(opts ...HTTPOption) *HTTP {
	l := &HTTP{
		client:         http.DefaultClient,
		policy:         lterrors.DefaultPolicy,
		timeout:        DefaultTimeout,
		attemptTimeout: DefaultAttemptTimeout,
		metrics:        observability.NoopMetrics{},
		fetches:        make(map[string]*fetch),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load calls ready once s is available. A cached script fires ready before
// Load returns; otherwise the fetch runs in the background. Cancelling ctx
// does not stop the fetch; only the loader's own timeout does.
func (l *HTTP) Load(ctx context.Context, s Script, ready func()) {
	f := l.start(ctx, s)

	select {
	case <-f.done:
		if f.err == nil {
			ready()
		}
		return
	default:
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		<-f.done
		if f.err == nil {
			ready()
		}
	}()
}

// start returns the download for s.URL, beginning one if none is cached or
// in flight.
func (l *HTTP) start(ctx context.Context, s Script) *fetch {
	l.mu.Lock()
	defer l.mu.Unlock()

	if f, ok := l.fetches[s.URL]; ok {
		return f
	}
	f := &fetch{done: make(chan struct{})}
	l.fetches[s.URL] = f

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		defer cancel()

		start := time.Now()
		attempts, err := l.Fetch(ctx, s)
		l.metrics.RecordLoader(ctx, s.Global, err == nil, attempts, time.Since(start))
		if err != nil {
			observability.LogLoaderFailed(l.logger, s.Global, s.URL, attempts, err)
			l.mu.Lock()
			delete(l.fetches, s.URL)
			l.mu.Unlock()
		} else {
			observability.LogLoaderReady(l.logger, s.Global, attempts, float64(time.Since(start).Milliseconds()))
		}
		f.err = err
		close(f.done)
	}()
	return f
}

// Wait blocks until every background load has finished.
func (l *HTTP) Wait() {
	l.wg.Wait()
}

// Fetch downloads s with retries and returns the number of attempts made.
// It bypasses the cache.
func (l *HTTP) Fetch(ctx context.Context, s Script) (int, error) {
	attempts, err := l.policy.Do(ctx, func(ctx context.Context, _ int) error {
		return l.fetchOnce(ctx, s)
	})
	if err != nil {
		return attempts, fmt.Errorf("load %s: %w", s.Global, err)
	}
	return attempts, nil
}

func (l *HTTP) fetchOnce(ctx context.Context, s Script) error {
	attemptCtx, cancel := ctx, context.CancelFunc(func() {})
	if l.attemptTimeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, l.attemptTimeout)
	}
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, s.URL, nil)
	if err != nil {
		return lterrors.Permanent(err, "build request")
	}

	resp, err := l.client.Do(req)
	if err != nil {
		if attemptTimedOut(ctx, attemptCtx) {
			return l.timeoutError(s)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxScriptBytes))
		return &lterrors.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Endpoint:   s.URL,
		}
	}

	if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, maxScriptBytes)); err != nil {
		if attemptTimedOut(ctx, attemptCtx) {
			return l.timeoutError(s)
		}
		return lterrors.Transient(err, "read script body")
	}
	return nil
}

// attemptTimedOut reports whether a request ran out its own time budget
// while the load as a whole still has time left.
func attemptTimedOut(load, attempt context.Context) bool {
	return load.Err() == nil && errors.Is(attempt.Err(), context.DeadlineExceeded)
}

func (l *HTTP) timeoutError(s Script) error {
	return &lterrors.TimeoutError{Operation: "fetch " + s.URL, Duration: l.attemptTimeout.String()}
}
