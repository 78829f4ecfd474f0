package destination

import (
	"context"

	"github.com/randalmurphal/leadtrack/pkg/leadtrack/loader"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/normalize"
)

// Pixel event names.
const (
	PixelEventLead     = "Lead"
	PixelEventPageView = "PageView"
)

// Pixel reports events through the social pixel's track call. Contact
// fields are sent raw, as the pixel contract expects.
type Pixel struct {
	d   Deps
	fbq Capability
}

// NewPixel creates the social pixel adapter.
func NewPixel(d Deps) *Pixel {
	return &Pixel{d: d, fbq: NewCapability(d.Window, loader.GlobalFbq)}
}

// Name implements Adapter.
func (p *Pixel) Name() string { return "pixel" }

// TryDispatch implements Adapter.
func (p *Pixel) TryDispatch(ctx context.Context, e normalize.Event) (Outcome, error) {
	var name string
	var params map[string]any
	switch e.Kind {
	case normalize.KindLeadSubmitted:
		name, params = PixelEventLead, p.lead(e)
	case normalize.KindPageView:
		name, params = PixelEventPageView, p.pageView(e)
	default:
		return Skipped, unsupported(e.Kind)
	}

	outcome, err := p.fbq.TryDispatch(ctx, "track", name, params)
	if outcome == Dispatched {
		logPayload(p.d.Logger, p.Name(), params)
	}
	return outcome, err
}

func (p *Pixel) lead(e normalize.Event) map[string]any {
	l := e.Lead
	customData := map[string]any{
		"form_type":       FormTypeLead,
		"submission_time": e.SubmissionTime(),
		"user_agent":      e.Context.UserAgent,
		"referrer":        e.Referrer(),
	}
	if l.HasAge {
		customData["lead_age"] = l.Age
	}

	return map[string]any{
		"content_name":      ContentNameLead,
		"content_category":  EventCategoryLead,
		"content_type":      "form",
		"value":             l.Value,
		"currency":          l.Currency,
		"lead_name":         l.Name,
		"lead_position":     l.Position,
		"lead_email":        l.Email,
		"lead_phone":        l.Phone,
		"form_id":           normalize.FormID,
		"page_url":          e.Context.URL,
		"page_title":        e.Context.Title,
		"referrer":          e.Referrer(),
		"timestamp":         e.Millis(),
		"user_agent":        e.Context.UserAgent,
		"screen_resolution": e.Context.ScreenResolution(),
		"viewport_size":     e.Context.ViewportSize(),
		"language":          e.Context.Language,
		"timezone":          e.Context.Timezone,
		"custom_data":       customData,
	}
}

func (p *Pixel) pageView(e normalize.Event) map[string]any {
	return map[string]any{
		"content_name":      e.Page.Title,
		"content_category":  EventCategoryLead,
		"content_type":      "website",
		"page_url":          e.Page.Location,
		"page_path":         e.Page.Path,
		"referrer":          e.Referrer(),
		"timestamp":         e.Millis(),
		"user_agent":        e.Context.UserAgent,
		"screen_resolution": e.Context.ScreenResolution(),
		"viewport_size":     e.Context.ViewportSize(),
		"language":          e.Context.Language,
	}
}

var _ Adapter = (*Pixel)(nil)
