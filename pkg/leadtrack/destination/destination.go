// Package destination maps normalized events onto the four tracking
// destinations and performs the side-effecting call for each.
//
// Every adapter re-checks its destination on each call. A destination whose
// loader has not installed its global yields Skipped, never an error the
// caller has to handle.
package destination

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/randalmurphal/leadtrack/pkg/leadtrack/browser"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/config"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/normalize"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/observability"
)

// Skip reasons.
var (
	// ErrDestinationNotLoaded means the destination's global function has
	// not been installed yet.
	ErrDestinationNotLoaded = errors.New("destination not loaded")

	// ErrQueueUnavailable means the shared event queue does not exist yet.
	ErrQueueUnavailable = errors.New("event queue unavailable")

	// ErrUnsupportedEvent means the adapter has no mapping for the event kind.
	ErrUnsupportedEvent = errors.New("unsupported event kind")
)

// Outcome is the result of one adapter call.
type Outcome int

const (
	Dispatched Outcome = iota
	Skipped
	Failed
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Dispatched:
		return "dispatched"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// MarshalText renders the outcome name in JSON output.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Adapter delivers normalized events to one destination.
type Adapter interface {
	// Name identifies the adapter in logs, metrics, and reports.
	Name() string

	// TryDispatch sends e. Skipped and Failed outcomes carry the reason.
	TryDispatch(ctx context.Context, e normalize.Event) (Outcome, error)
}

// Deps are the collaborators shared by all adapters.
type Deps struct {
	Window *browser.Window
	Config config.Tracking
	TxIDs  *TxIDs
	Logger *slog.Logger
}

// Capability is a window global an adapter calls through.
type Capability struct {
	window *browser.Window
	global string
}

// NewCapability returns the capability for global on w. A nil window is
// never loaded.
func NewCapability(w *browser.Window, global string) Capability {
	return Capability{window: w, global: global}
}

// Loaded reports whether the global is installed right now.
func (c Capability) Loaded() bool {
	if c.window == nil {
		return false
	}
	return c.window.State(c.global) == browser.Loaded
}

// TryDispatch calls the global with args if it is installed.
func (c Capability) TryDispatch(ctx context.Context, args ...any) (Outcome, error) {
	if c.window == nil {
		return Skipped, fmt.Errorf("%s: %w", c.global, ErrDestinationNotLoaded)
	}
	fn, ok := c.window.Lookup(c.global)
	if !ok {
		return Skipped, fmt.Errorf("%s: %w", c.global, ErrDestinationNotLoaded)
	}
	if err := fn(ctx, args...); err != nil {
		return Failed, fmt.Errorf("%s: %w", c.global, err)
	}
	return Dispatched, nil
}

// pushQueue appends payload to the window's data layer if it exists.
func pushQueue(w *browser.Window, payload map[string]any) (Outcome, error) {
	if w == nil {
		return Skipped, ErrQueueUnavailable
	}
	q := w.DataLayer()
	if q == nil {
		return Skipped, ErrQueueUnavailable
	}
	q.Push(payload)
	return Dispatched, nil
}

// Standard adapter set, in lead dispatch order.
func Standard(d Deps) []Adapter {
	return []Adapter{
		NewAdsEnhanced(d),
		NewAnalytics(d),
		NewPixel(d),
		NewAdsConversion(d),
	}
}

func logPayload(logger *slog.Logger, adapter string, payload any) {
	observability.LogPayload(logger, adapter, payload)
}

func unsupported(kind normalize.Kind) error {
	return fmt.Errorf("%s: %w", kind, ErrUnsupportedEvent)
}
