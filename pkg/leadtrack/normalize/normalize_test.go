package normalize_test

import (
	"testing"
	"time"

	"github.com/randalmurphal/leadtrack/pkg/leadtrack/browser"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/config"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestAgeOn(t *testing.T) {
	birth := date(2006, time.June, 15)

	tests := []struct {
		name  string
		today time.Time
		want  int
	}{
		{"day before birthday", date(2024, time.June, 14), 17},
		{"on birthday", date(2024, time.June, 15), 18},
		{"month before", date(2024, time.May, 30), 17},
		{"month after", date(2024, time.July, 1), 18},
		{"same year", date(2006, time.December, 31), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.AgeOn(birth, tt.today))
		})
	}

	t.Run("leap day birthday", func(t *testing.T) {
		leap := date(2000, time.February, 29)
		assert.Equal(t, 22, normalize.AgeOn(leap, date(2023, time.February, 28)))
		assert.Equal(t, 23, normalize.AgeOn(leap, date(2023, time.March, 1)))
	})
}

func TestParseBirthDate(t *testing.T) {
	for _, in := range []string{"2006-06-15", " 2006-06-15 ", "15/06/2006", "2006-06-15T23:30:00Z"} {
		got, err := normalize.ParseBirthDate(in, time.UTC)
		require.NoError(t, err, in)
		assert.Equal(t, time.Date(2006, time.June, 15, 0, 0, 0, 0, time.UTC), got, in)
	}

	_, err := normalize.ParseBirthDate("", time.UTC)
	assert.Error(t, err)
	_, err = normalize.ParseBirthDate("June 15", nil)
	assert.Error(t, err)
}

func fixedNormalizer(now time.Time) *normalize.Normalizer {
	return normalize.New(config.Default(), normalize.WithClock(func() time.Time { return now }))
}

func TestNormalizer_Lead(t *testing.T) {
	now := time.Date(2024, time.June, 15, 2, 0, 0, 0, time.UTC)
	n := fixedNormalizer(now)

	bc := browser.Context{
		URL:            "https://example.com/lp",
		Title:          "Landing",
		UserAgent:      "ua",
		ScreenWidth:    1920,
		ScreenHeight:   1080,
		ViewportWidth:  800,
		ViewportHeight: 600,
		Language:       "pt-BR",
		Timezone:       "America/Sao_Paulo",
	}

	t.Run("enriches with context and age in visitor timezone", func(t *testing.T) {
		e := n.Lead(normalize.LeadData{
			Email:     "a@b.com",
			Phone:     "11 9999",
			Name:      "Ana Maria Silva",
			Position:  "CTO",
			BirthDate: "2006-06-15",
		}, bc)

		assert.Equal(t, normalize.KindLeadSubmitted, e.Kind)
		a := e.Attributes
		assert.Equal(t, now.UnixMilli(), a["timestamp"])
		assert.Equal(t, "direct", a["referrer"])
		assert.Equal(t, "1920x1080", a["screen_resolution"])
		assert.Equal(t, "800x600", a["viewport_size"])
		assert.Equal(t, "pt-BR", a["language"])
		assert.Equal(t, "America/Sao_Paulo", a["timezone"])
		assert.Equal(t, "a@b.com", a["lead_email"])
		assert.Equal(t, "lead-form", a["form_id"])
		assert.Equal(t, "2024-06-15T02:00:00.000Z", a["submission_time"])
		assert.NotContains(t, a, "lead_message")

		// 02:00 UTC is still June 14th in Sao Paulo.
		require.NotNil(t, e.Lead)
		assert.True(t, e.Lead.HasAge)
		assert.Equal(t, 17, e.Lead.Age)
		assert.Equal(t, 17, a["lead_age"])

		assert.Equal(t, 1.0, e.Lead.Value)
		assert.Equal(t, "BRL", e.Lead.Currency)
	})

	t.Run("payload value and currency override defaults", func(t *testing.T) {
		v := 49.9
		e := n.Lead(normalize.LeadData{Name: "X", Value: &v, Currency: "usd", Message: "hi"}, bc)

		assert.Equal(t, 49.9, e.Attributes["value"])
		assert.Equal(t, "USD", e.Attributes["currency"])
		assert.Equal(t, "hi", e.Attributes["lead_message"])
	})

	t.Run("bad birth date leaves age unset", func(t *testing.T) {
		e := n.Lead(normalize.LeadData{BirthDate: "soon"}, bc)
		assert.False(t, e.Lead.HasAge)
		assert.NotContains(t, e.Attributes, "lead_age")
	})
}

func TestNormalizer_PageView(t *testing.T) {
	n := fixedNormalizer(time.Unix(1700000000, 0))
	bc := browser.Context{URL: "https://example.com/a?x=1", Path: "/a", Title: "A", Referrer: "https://ref.example/"}

	e := n.PageView(normalize.PageViewData{}, bc)
	assert.Equal(t, normalize.KindPageView, e.Kind)
	assert.Equal(t, "A", e.Page.Title)
	assert.Equal(t, "https://example.com/a?x=1", e.Page.Location)
	assert.Equal(t, "/a", e.Page.Path)
	assert.Equal(t, "Lead Generation", e.Page.ContentGroup1)
	assert.Equal(t, "Website", e.Page.ContentGroup2)
	assert.Equal(t, "https://ref.example/", e.Attributes["referrer"])
	assert.Nil(t, e.Lead)

	e = n.PageView(normalize.PageViewData{PageTitle: "Thanks", PagePath: "/thanks", ContentGroup2: "Funnel"}, bc)
	assert.Equal(t, "Thanks", e.Attributes["page_title"])
	assert.Equal(t, "/thanks", e.Attributes["page_path"])
	assert.Equal(t, "Funnel", e.Attributes["content_group2"])
}

func TestAttributes_Clone(t *testing.T) {
	a := normalize.Attributes{"k": 1}
	c := a.Clone()
	c["k"] = 2
	assert.Equal(t, 1, a["k"])
}
