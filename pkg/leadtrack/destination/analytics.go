package destination

import (
	"context"

	"github.com/randalmurphal/leadtrack/pkg/leadtrack/loader"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/normalize"
)

// Static classification for lead events.
const (
	EventCategoryLead = "Lead Generation"
	EventLabelLead    = "Form Submission"
	ContentNameLead   = "Lead Form Submission"
	FormTypeLead      = "lead_capture"
	LeadSource        = "website"
	LeadMedium        = "form"
	LeadCampaign      = "organic"
)

// Analytics pushes lead and page-view events onto the tag-manager queue.
type Analytics struct {
	d    Deps
	gtag Capability
}

// NewAnalytics creates the tag-manager queue adapter.
func NewAnalytics(d Deps) *Analytics {
	return &Analytics{d: d, gtag: NewCapability(d.Window, loader.GlobalGtag)}
}

// Name implements Adapter.
func (a *Analytics) Name() string { return "analytics" }

// TryDispatch implements Adapter. It skips until the tag manager has loaded.
func (a *Analytics) TryDispatch(_ context.Context, e normalize.Event) (Outcome, error) {
	if !a.gtag.Loaded() {
		return Skipped, ErrDestinationNotLoaded
	}

	var payload map[string]any
	switch e.Kind {
	case normalize.KindLeadSubmitted:
		payload = a.lead(e)
	case normalize.KindPageView:
		payload = a.pageView(e)
	default:
		return Skipped, unsupported(e.Kind)
	}

	outcome, err := pushQueue(a.d.Window, payload)
	if outcome == Dispatched {
		logPayload(a.d.Logger, a.Name(), payload)
	}
	return outcome, err
}

func (a *Analytics) lead(e normalize.Event) map[string]any {
	payload := map[string]any(e.Attributes.Clone())
	payload["event"] = string(normalize.KindLeadSubmitted)
	payload["event_category"] = EventCategoryLead
	payload["event_label"] = EventLabelLead
	payload["custom_parameters"] = map[string]any{
		"form_type":       FormTypeLead,
		"submission_time": e.SubmissionTime(),
		"user_agent":      e.Context.UserAgent,
		"referrer":        e.Referrer(),
		"lead_source":     LeadSource,
		"lead_medium":     LeadMedium,
		"lead_campaign":   LeadCampaign,
		"environment":     a.d.Config.Environment,
		"site_version":    a.d.Config.SiteVersion,
	}
	return payload
}

func (a *Analytics) pageView(e normalize.Event) map[string]any {
	payload := map[string]any(e.Attributes.Clone())
	payload["event"] = string(normalize.KindPageView)
	return payload
}

var _ Adapter = (*Analytics)(nil)
