package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	lterrors "github.com/randalmurphal/leadtrack/pkg/leadtrack/errors"
)

// Placeholder destination ids used when nothing is configured. They keep the
// loaders and payloads well-formed in development.
const (
	PlaceholderContainerID         = "GTM-XXXXXXX"
	PlaceholderAnalyticsPropertyID = "G-XXXXXXXXXX"
	PlaceholderSocialPixelID       = "XXXXXXXXXXXXXXX"
	PlaceholderAdsAccountID        = "AW-XXXXXXXXX"
)

// Tracking holds destination identifiers and toggles for the dispatch layer.
// It is loaded once at startup and never mutated afterwards.
type Tracking struct {
	ContainerID            string  `env:"LEADTRACK_GTM_ID" json:"container_id"`
	AnalyticsPropertyID    string  `env:"LEADTRACK_GA4_ID" json:"analytics_property_id"`
	SocialPixelID          string  `env:"LEADTRACK_META_PIXEL_ID" json:"social_pixel_id"`
	AdsAccountID           string  `env:"LEADTRACK_GOOGLE_ADS_ID" json:"ads_account_id"`
	Debug                  bool    `env:"LEADTRACK_TRACKING_DEBUG" json:"debug"`
	DefaultConversionValue float64 `env:"LEADTRACK_CONVERSION_VALUE" json:"default_conversion_value"`
	Currency               string  `env:"LEADTRACK_CURRENCY" json:"currency"`
	Environment            string  `env:"LEADTRACK_ENV" json:"environment"`
	SiteVersion            string  `env:"LEADTRACK_SITE_VERSION" json:"site_version"`
}

// Default returns the placeholder configuration.
func Default() Tracking {
	return Tracking{
		ContainerID:            PlaceholderContainerID,
		AnalyticsPropertyID:    PlaceholderAnalyticsPropertyID,
		SocialPixelID:          PlaceholderSocialPixelID,
		AdsAccountID:           PlaceholderAdsAccountID,
		DefaultConversionValue: 1,
		Currency:               "BRL",
		Environment:            "development",
		SiteVersion:            "1.0.0",
	}
}

// Load builds the tracking configuration from defaults, then the optional
// file at path (empty means none), then LEADTRACK_* environment variables.
func Load(path string) (Tracking, error) {
	cfg := Default()

	if path != "" {
		values, err := ReadFile(path)
		if err != nil {
			return Tracking{}, err
		}
		cfg = cfg.Overlay(values.Section("tracking"))
	}

	if err := ParseEnv(&cfg); err != nil {
		return Tracking{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Tracking{}, err
	}
	return cfg, nil
}

// Overlay returns a copy of t with every key present in values applied.
func (t Tracking) Overlay(values Values) Tracking {
	t.ContainerID = values.String("container_id", t.ContainerID)
	t.AnalyticsPropertyID = values.String("analytics_property_id", t.AnalyticsPropertyID)
	t.SocialPixelID = values.String("social_pixel_id", t.SocialPixelID)
	t.AdsAccountID = values.String("ads_account_id", t.AdsAccountID)
	t.Debug = values.Bool("debug", t.Debug)
	t.DefaultConversionValue = values.Float("default_conversion_value", t.DefaultConversionValue)
	t.Currency = values.String("currency", t.Currency)
	t.Environment = values.String("environment", t.Environment)
	t.SiteVersion = values.String("site_version", t.SiteVersion)
	return t
}

// Validate reports every problem found in t, joined.
func (t Tracking) Validate() error {
	var errs []error
	for name, id := range map[string]string{
		"container_id":          t.ContainerID,
		"analytics_property_id": t.AnalyticsPropertyID,
		"social_pixel_id":       t.SocialPixelID,
		"ads_account_id":        t.AdsAccountID,
	} {
		if strings.TrimSpace(id) == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}
	if t.DefaultConversionValue < 0 {
		errs = append(errs, fmt.Errorf("default_conversion_value must not be negative, got %v", t.DefaultConversionValue))
	}
	if !isCurrencyCode(t.Currency) {
		errs = append(errs, fmt.Errorf("currency must be a 3-letter code, got %q", t.Currency))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid tracking config: %w", errors.Join(errs...))
	}
	return nil
}

// UsesPlaceholders reports whether any destination id is still a placeholder.
func (t Tracking) UsesPlaceholders() bool {
	return t.ContainerID == PlaceholderContainerID ||
		t.AnalyticsPropertyID == PlaceholderAnalyticsPropertyID ||
		t.SocialPixelID == PlaceholderSocialPixelID ||
		t.AdsAccountID == PlaceholderAdsAccountID
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}

// Server holds settings for the leadcapture HTTP service.
type Server struct {
	Addr          string        `env:"LEADTRACK_HTTP_ADDR" envDefault:":8080"`
	ConfigFile    string        `env:"LEADTRACK_CONFIG_FILE"`
	OTelEndpoint  string        `env:"LEADTRACK_OTEL_ENDPOINT"`
	OTelEnabled   bool          `env:"LEADTRACK_OTEL_ENABLED" envDefault:"true"`
	ReadTimeout   time.Duration `env:"LEADTRACK_HTTP_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout  time.Duration `env:"LEADTRACK_HTTP_WRITE_TIMEOUT" envDefault:"10s"`

	LoaderMode           string        `env:"LEADTRACK_LOADER_MODE" envDefault:"http"`
	LoaderTimeout        time.Duration `env:"LEADTRACK_LOADER_TIMEOUT" envDefault:"10s"`
	LoaderAttemptTimeout time.Duration `env:"LEADTRACK_LOADER_ATTEMPT_TIMEOUT" envDefault:"3s"`
	LoaderMaxAttempts    int           `env:"LEADTRACK_LOADER_MAX_ATTEMPTS" envDefault:"3"`
	LoaderInitialBackoff time.Duration `env:"LEADTRACK_LOADER_INITIAL_BACKOFF" envDefault:"500ms"`
	LoaderMaxBackoff     time.Duration `env:"LEADTRACK_LOADER_MAX_BACKOFF" envDefault:"5s"`

	// A session is one visitor's page: its own window, data layer and
	// pixel queue.
	MaxSessions      int           `env:"LEADTRACK_MAX_SESSIONS" envDefault:"1024"`
	SessionTTL       time.Duration `env:"LEADTRACK_SESSION_TTL" envDefault:"30m"`
	MaxSessionEvents int           `env:"LEADTRACK_MAX_SESSION_EVENTS" envDefault:"256"`
}

// LoaderPolicy is the retry policy for loader script fetches.
func (s Server) LoaderPolicy() lterrors.Policy {
	return lterrors.NewPolicy(
		lterrors.WithMaxAttempts(s.LoaderMaxAttempts),
		lterrors.WithInitialBackoff(s.LoaderInitialBackoff),
		lterrors.WithMaxBackoff(s.LoaderMaxBackoff),
	)
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
