package destination

import (
	"context"

	"github.com/randalmurphal/leadtrack/pkg/leadtrack/loader"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/normalize"
)

// ConversionLabel is appended to the ads account id in send_to.
const ConversionLabel = "lead_conversion"

// AdsConversion reports leads as search-ads conversions through gtag.
// It is the one adapter that never sends raw PII: email, phone, and name
// parts are all hashed.
type AdsConversion struct {
	d    Deps
	gtag Capability
	tx   *TxIDs
}

// NewAdsConversion creates the conversion adapter.
func NewAdsConversion(d Deps) *AdsConversion {
	tx := d.TxIDs
	if tx == nil {
		tx = NewTxIDs(nil, nil)
	}
	return &AdsConversion{d: d, gtag: NewCapability(d.Window, loader.GlobalGtag), tx: tx}
}

// Name implements Adapter.
func (a *AdsConversion) Name() string { return "ads_conversion" }

// TryDispatch implements Adapter. Only lead events are supported.
func (a *AdsConversion) TryDispatch(ctx context.Context, e normalize.Event) (Outcome, error) {
	if e.Kind != normalize.KindLeadSubmitted || e.Lead == nil {
		return Skipped, unsupported(e.Kind)
	}
	if !a.gtag.Loaded() {
		return Skipped, ErrDestinationNotLoaded
	}

	params := a.params(e)
	outcome, err := a.gtag.TryDispatch(ctx, "event", "conversion", params)
	if outcome == Dispatched {
		logPayload(a.d.Logger, a.Name(), params)
	}
	return outcome, err
}

func (a *AdsConversion) params(e normalize.Event) map[string]any {
	l := e.Lead
	first, last := SplitName(l.Name)

	custom := map[string]any{
		"lead_position":   l.Position,
		"form_type":       FormTypeLead,
		"submission_time": e.SubmissionTime(),
	}
	if l.HasAge {
		custom["lead_age"] = l.Age
	}

	return map[string]any{
		"send_to":        a.d.Config.AdsAccountID + "/" + ConversionLabel,
		"value":          l.Value,
		"currency":       l.Currency,
		"transaction_id": a.tx.Next(),
		"user_data": map[string]any{
			"email_address": HashEmail(l.Email),
			"phone_number":  HashPhone(l.Phone),
			"address": map[string]any{
				"first_name": HashName(first),
				"last_name":  HashName(last),
			},
		},
		"custom_parameters": custom,
	}
}

// AdsEnhanced pushes leads onto the shared queue so the tag-manager
// container can run its own enhanced-conversion tags. It fires alongside
// AdsConversion for every lead.
type AdsEnhanced struct {
	d Deps
}

// NewAdsEnhanced creates the enhanced-conversion queue adapter.
func NewAdsEnhanced(d Deps) *AdsEnhanced {
	return &AdsEnhanced{d: d}
}

// Name implements Adapter.
func (a *AdsEnhanced) Name() string { return "ads_enhanced" }

// TryDispatch implements Adapter. It needs only the queue, not gtag.
func (a *AdsEnhanced) TryDispatch(_ context.Context, e normalize.Event) (Outcome, error) {
	if e.Kind != normalize.KindLeadSubmitted || e.Lead == nil {
		return Skipped, unsupported(e.Kind)
	}

	l := e.Lead
	first, last := SplitName(l.Name)
	payload := map[string]any{
		"event":         string(normalize.KindLeadSubmitted),
		"email":         l.Email,
		"phone":         l.Phone,
		"timestamp":     e.Millis(),
		"form_id":       normalize.FormID,
		"lead_name":     l.Name,
		"lead_position": l.Position,
		"value":         l.Value,
		"currency":      l.Currency,
		"page_url":      e.Context.URL,
		"page_title":    e.Context.Title,
		"referrer":      e.Referrer(),
		"user_agent":    e.Context.UserAgent,
		"hashed_email":  HashEmail(l.Email),
		"hashed_phone":  HashPhone(l.Phone),
		"first_name":    first,
		"last_name":     last,
	}
	if l.HasAge {
		payload["lead_age"] = l.Age
	}

	outcome, err := pushQueue(a.d.Window, payload)
	if outcome == Dispatched {
		logPayload(a.d.Logger, a.Name(), payload)
	}
	return outcome, err
}

var (
	_ Adapter = (*AdsConversion)(nil)
	_ Adapter = (*AdsEnhanced)(nil)
)
