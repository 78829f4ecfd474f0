// Package normalize turns a domain event and the visitor's browsing context
// into a destination-agnostic attribute set.
package normalize

import (
	"strings"
	"time"

	"github.com/randalmurphal/leadtrack/pkg/leadtrack/browser"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/config"
)

// Kind identifies a domain event.
type Kind string

const (
	KindPageView      Kind = "page_view"
	KindLeadSubmitted Kind = "generate_lead"
)

// DirectReferrer stands in for an empty referrer.
const DirectReferrer = "direct"

// FormID is reported for every lead submission.
const FormID = "lead-form"

// Content group defaults for page views.
const (
	DefaultContentGroup1 = "Lead Generation"
	DefaultContentGroup2 = "Website"
)

// Attributes is the enriched, destination-agnostic payload.
type Attributes map[string]any

// Clone returns a shallow copy.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// LeadData is one form submission. Value and Currency are optional.
type LeadData struct {
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Name      string   `json:"name"`
	Position  string   `json:"position"`
	BirthDate string   `json:"birthDate"`
	Message   string   `json:"message,omitempty"`
	Value     *float64 `json:"value,omitempty"`
	Currency  string   `json:"currency,omitempty"`
}

// PageViewData carries optional page-view overrides.
type PageViewData struct {
	PageTitle     string `json:"page_title,omitempty"`
	PageLocation  string `json:"page_location,omitempty"`
	PagePath      string `json:"page_path,omitempty"`
	ContentGroup1 string `json:"content_group1,omitempty"`
	ContentGroup2 string `json:"content_group2,omitempty"`
}

// Lead is a submission with defaults resolved and derived fields computed.
type Lead struct {
	LeadData

	// Value and Currency after falling back to configuration defaults.
	Value    float64
	Currency string

	// Age is valid only when HasAge is true.
	Age    int
	HasAge bool

	SubmittedAt time.Time
}

// Page is a page view with overrides applied over the browsing context.
type Page struct {
	Title         string
	Location      string
	Path          string
	ContentGroup1 string
	ContentGroup2 string
}

// Event is the normalizer output consumed by every adapter.
type Event struct {
	Kind       Kind
	Timestamp  time.Time
	Context    browser.Context
	Attributes Attributes

	// Page is set for page views.
	Page Page

	// Lead is set for lead submissions.
	Lead *Lead
}

// Referrer returns the referrer or the direct sentinel.
func (e Event) Referrer() string {
	if e.Context.Referrer == "" {
		return DirectReferrer
	}
	return e.Context.Referrer
}

// Millis returns the event timestamp as epoch milliseconds.
func (e Event) Millis() int64 {
	return e.Timestamp.UnixMilli()
}

// SubmissionTime formats the timestamp as RFC 3339 UTC with milliseconds.
func (e Event) SubmissionTime() string {
	return e.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// Normalizer enriches events. It is safe for concurrent use.
type Normalizer struct {
	now          func() time.Time
	defaultValue float64
	currency     string
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// New creates a Normalizer using the conversion defaults from cfg.
func New(cfg config.Tracking, opts ...Option) *Normalizer {
	n := &Normalizer{
		now:          time.Now,
		defaultValue: cfg.DefaultConversionValue,
		currency:     cfg.Currency,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// PageView normalizes a page view.
func (n *Normalizer) PageView(data PageViewData, bc browser.Context) Event {
	e := n.base(KindPageView, bc)

	e.Page = Page{
		Title:         firstNonEmpty(data.PageTitle, bc.Title),
		Location:      firstNonEmpty(data.PageLocation, bc.URL),
		Path:          firstNonEmpty(data.PagePath, bc.Path),
		ContentGroup1: firstNonEmpty(data.ContentGroup1, DefaultContentGroup1),
		ContentGroup2: firstNonEmpty(data.ContentGroup2, DefaultContentGroup2),
	}

	a := e.Attributes
	a["page_title"] = e.Page.Title
	a["page_location"] = e.Page.Location
	a["page_path"] = e.Page.Path
	a["content_group1"] = e.Page.ContentGroup1
	a["content_group2"] = e.Page.ContentGroup2
	return e
}

// Lead normalizes a lead submission. An empty or unparseable birth date
// leaves the age unset rather than failing.
func (n *Normalizer) Lead(data LeadData, bc browser.Context) Event {
	e := n.base(KindLeadSubmitted, bc)

	lead := &Lead{
		LeadData:    data,
		Value:       n.defaultValue,
		Currency:    n.currency,
		SubmittedAt: e.Timestamp,
	}
	if data.Value != nil {
		lead.Value = *data.Value
	}
	if c := strings.TrimSpace(data.Currency); c != "" {
		lead.Currency = strings.ToUpper(c)
	}

	loc := bc.Location()
	if birth, err := ParseBirthDate(data.BirthDate, loc); err == nil {
		lead.Age = AgeOn(birth, e.Timestamp.In(loc))
		lead.HasAge = true
	}
	e.Lead = lead

	a := e.Attributes
	a["lead_email"] = data.Email
	a["lead_phone"] = data.Phone
	a["lead_name"] = data.Name
	a["lead_position"] = data.Position
	a["lead_birth_date"] = data.BirthDate
	if data.Message != "" {
		a["lead_message"] = data.Message
	}
	if lead.HasAge {
		a["lead_age"] = lead.Age
	}
	a["value"] = lead.Value
	a["currency"] = lead.Currency
	a["form_id"] = FormID
	a["submission_time"] = e.SubmissionTime()
	return e
}

func (n *Normalizer) base(kind Kind, bc browser.Context) Event {
	e := Event{
		Kind:      kind,
		Timestamp: n.now(),
		Context:   bc,
	}
	e.Attributes = Attributes{
		"timestamp":         e.Millis(),
		"referrer":          e.Referrer(),
		"user_agent":        bc.UserAgent,
		"screen_resolution": bc.ScreenResolution(),
		"viewport_size":     bc.ViewportSize(),
		"language":          bc.Language,
		"timezone":          bc.Timezone,
		"page_url":          bc.URL,
		"page_title":        bc.Title,
	}
	return e
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
