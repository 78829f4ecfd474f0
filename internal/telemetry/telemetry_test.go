package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/leadtrack/pkg/leadtrack/config"
)

func TestSetup_Disabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Server
	}{
		{"no endpoint", config.Server{OTelEnabled: true}},
		{"explicitly off", config.Server{OTelEnabled: false, OTelEndpoint: "http://collector:4318"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shutdown, enabled, err := Setup(context.Background(), "leadcapture", "test", tt.cfg)
			require.NoError(t, err)
			assert.False(t, enabled)
			require.NotNil(t, shutdown)
			assert.NoError(t, shutdown(context.Background()))
		})
	}
}

func TestSetup_Enabled(t *testing.T) {
	cfg := config.Server{OTelEnabled: true, OTelEndpoint: "http://127.0.0.1:4318/v1/traces"}

	shutdown, enabled, err := Setup(context.Background(), "leadcapture", "test", cfg)
	require.NoError(t, err)
	assert.True(t, enabled)

	// Nothing was exported, so shutdown does not contact the collector.
	assert.NoError(t, shutdown(context.Background()))
}
