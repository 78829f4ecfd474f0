package leadtrack

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/leadtrack/pkg/leadtrack/browser"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/destination"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/normalize"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/observability"
)

// Result is the outcome of one adapter call.
type Result struct {
	Adapter string              `json:"adapter"`
	Outcome destination.Outcome `json:"outcome"`
	Reason  string              `json:"reason,omitempty"`
	Err     error               `json:"-"`
}

// Report summarizes one fan-out. It is informational; callers never need
// to act on it.
type Report struct {
	DispatchID string         `json:"dispatch_id"`
	Event      normalize.Kind `json:"event"`
	Results    []Result       `json:"results"`
}

// Count returns how many adapters ended with outcome o.
func (r Report) Count(o destination.Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// Err joins the errors of all failed adapters, or returns nil.
func (r Report) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Outcome == destination.Failed && res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	return errors.Join(errs...)
}

// DispatchLead fans a lead submission out to the enhanced-conversion
// queue, analytics, pixel, and conversion adapters, in that order. Every
// adapter runs regardless of how the others fare.
func (t *Tracker) DispatchLead(ctx context.Context, bc browser.Context, data normalize.LeadData) Report {
	return t.dispatch(ctx, t.normalizer.Lead(data, bc), t.lead)
}

// DispatchPageView fans a page view out to the analytics and pixel adapters.
func (t *Tracker) DispatchPageView(ctx context.Context, bc browser.Context, data normalize.PageViewData) Report {
	return t.dispatch(ctx, t.normalizer.PageView(data, bc), t.pageView)
}

func (t *Tracker) dispatch(ctx context.Context, e normalize.Event, adapters []destination.Adapter) Report {
	report := Report{
		DispatchID: uuid.NewString(),
		Event:      e.Kind,
		Results:    make([]Result, 0, len(adapters)),
	}

	ctx, span := t.spans.StartDispatchSpan(ctx, string(e.Kind), report.DispatchID)
	logger := observability.EnrichLogger(t.logger, report.DispatchID, string(e.Kind))
	observability.LogDispatchStart(t.logger, report.DispatchID, string(e.Kind))

	start := time.Now()
	for _, a := range adapters {
		report.Results = append(report.Results, t.runAdapter(ctx, logger, a, e))
	}
	elapsed := time.Since(start)

	failed := report.Count(destination.Failed)
	t.spans.EndSpanWithError(span, report.Err())
	t.metrics.RecordDispatch(ctx, string(e.Kind), failed, elapsed)
	observability.LogDispatchComplete(t.logger, report.DispatchID, string(e.Kind),
		float64(elapsed.Microseconds())/1000,
		report.Count(destination.Dispatched), report.Count(destination.Skipped), failed)

	return report
}

// runAdapter is the failure boundary around one adapter: errors and panics
// are recorded and never escape.
func (t *Tracker) runAdapter(ctx context.Context, logger *slog.Logger, a destination.Adapter, e normalize.Event) (res Result) {
	name := a.Name()
	ctx, span := t.spans.StartAdapterSpan(ctx, name)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res = Result{
				Adapter: name,
				Outcome: destination.Failed,
				Err: &PanicError{
					Adapter: name,
					Value:   r,
					Stack:   string(debug.Stack()),
				},
			}
		}
		if res.Err != nil {
			res.Reason = res.Err.Error()
		}

		elapsed := time.Since(start)
		var spanErr error
		switch res.Outcome {
		case destination.Failed:
			spanErr = res.Err
			observability.LogAdapterError(logger, name, res.Err)
		case destination.Skipped:
			observability.LogAdapterSkipped(logger, name, res.Reason)
		default:
			observability.LogAdapterDispatched(logger, name, float64(elapsed.Microseconds())/1000)
		}
		t.metrics.RecordAdapter(ctx, name, res.Outcome.String(), elapsed)
		t.spans.EndSpanWithError(span, spanErr)
	}()

	outcome, err := a.TryDispatch(ctx, e)
	if outcome == destination.Failed {
		if err == nil {
			err = errors.New("unknown failure")
		}
		err = &AdapterError{Adapter: name, Event: e.Kind, Err: err}
	}
	return Result{Adapter: name, Outcome: outcome, Err: err}
}
