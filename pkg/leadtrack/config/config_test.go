package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "GTM-XXXXXXX", cfg.ContainerID)
	assert.Equal(t, "G-XXXXXXXXXX", cfg.AnalyticsPropertyID)
	assert.Equal(t, "XXXXXXXXXXXXXXX", cfg.SocialPixelID)
	assert.Equal(t, "AW-XXXXXXXXX", cfg.AdsAccountID)
	assert.False(t, cfg.Debug)
	assert.Equal(t, 1.0, cfg.DefaultConversionValue)
	assert.Equal(t, "BRL", cfg.Currency)
	assert.True(t, cfg.UsesPlaceholders())
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Run("no file and no env yields defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("yaml file overrides defaults", func(t *testing.T) {
		path := writeFile(t, "leadtrack.yaml", `
tracking:
  container_id: GTM-ABC1234
  ads_account_id: AW-123456789
  debug: true
  default_conversion_value: 25
  currency: USD
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "GTM-ABC1234", cfg.ContainerID)
		assert.Equal(t, "AW-123456789", cfg.AdsAccountID)
		assert.Equal(t, PlaceholderSocialPixelID, cfg.SocialPixelID)
		assert.True(t, cfg.Debug)
		assert.Equal(t, 25.0, cfg.DefaultConversionValue)
		assert.Equal(t, "USD", cfg.Currency)
	})

	t.Run("env overrides file", func(t *testing.T) {
		path := writeFile(t, "leadtrack.json", `{"tracking": {"container_id": "GTM-FILE", "currency": "USD"}}`)
		t.Setenv("LEADTRACK_GTM_ID", "GTM-ENV")
		t.Setenv("LEADTRACK_CONVERSION_VALUE", "3.5")

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "GTM-ENV", cfg.ContainerID)
		assert.Equal(t, "USD", cfg.Currency)
		assert.Equal(t, 3.5, cfg.DefaultConversionValue)
	})

	t.Run("bad env value is a parse error", func(t *testing.T) {
		t.Setenv("LEADTRACK_TRACKING_DEBUG", "not-a-bool")

		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse env:")
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read config file")
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := writeFile(t, "leadtrack.toml", "x = 1")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported config file extension")
	})

	t.Run("invalid currency fails validation", func(t *testing.T) {
		t.Setenv("LEADTRACK_CURRENCY", "REAIS")
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "currency")
	})
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.ContainerID = " "
	cfg.DefaultConversionValue = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "container_id is required")
	assert.Contains(t, err.Error(), "must not be negative")
}

func TestParse(t *testing.T) {
	t.Run("yaml and json agree", func(t *testing.T) {
		y, err := Parse("yaml", []byte("tracking:\n  currency: EUR\n"))
		require.NoError(t, err)
		j, err := Parse("json", []byte(`{"tracking": {"currency": "EUR"}}`))
		require.NoError(t, err)

		assert.Equal(t, "EUR", y.Section("tracking").String("currency", ""))
		assert.Equal(t, "EUR", j.Section("tracking").String("currency", ""))
	})

	t.Run("empty yaml is empty values", func(t *testing.T) {
		v, err := Parse("yaml", nil)
		require.NoError(t, err)
		assert.False(t, v.Has("tracking"))
	})

	t.Run("malformed json names the format", func(t *testing.T) {
		_, err := Parse("json", []byte("{"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse json config")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := Parse("ini", []byte("a=b"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown config format")
	})
}

func TestValues(t *testing.T) {
	v := NewValues(map[string]any{
		"name":    "x",
		"enabled": true,
		"ratio":   2,
		"nested":  map[string]any{"a": "b"},
		"wrong":   []any{1},
	})

	assert.Equal(t, "x", v.String("name", "d"))
	assert.Equal(t, "d", v.String("enabled", "d"))
	assert.True(t, v.Bool("enabled", false))
	assert.Equal(t, 2.0, v.Float("ratio", 0))
	assert.Equal(t, 9.0, v.Float("name", 9))
	assert.Equal(t, "b", v.Section("nested").String("a", ""))
	assert.False(t, v.Section("wrong").Has("a"))
	assert.False(t, v.Has("missing"))
}

func TestParseEnvServerDefaults(t *testing.T) {
	var cfg Server
	require.NoError(t, ParseEnv(&cfg))

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "http", cfg.LoaderMode)
	assert.Equal(t, 10*time.Second, cfg.LoaderTimeout)
	assert.True(t, cfg.OTelEnabled)
	assert.Equal(t, 1024, cfg.MaxSessions)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 256, cfg.MaxSessionEvents)
}

func TestServerLoaderPolicy(t *testing.T) {
	t.Setenv("LEADTRACK_LOADER_MAX_ATTEMPTS", "5")
	t.Setenv("LEADTRACK_LOADER_INITIAL_BACKOFF", "250ms")

	var cfg Server
	require.NoError(t, ParseEnv(&cfg))
	p := cfg.LoaderPolicy()

	assert.Equal(t, 5, p.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, p.InitialBackoff)
	assert.Equal(t, 5*time.Second, p.MaxBackoff)
	assert.Equal(t, 3*time.Second, cfg.LoaderAttemptTimeout)
}
