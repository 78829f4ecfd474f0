package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONLogger(level slog.Level) (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: level})), buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestLogHelpers_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.Nil(t, EnrichLogger(nil, "id", "page_view"))
		LogInitialized(nil, "GTM-1", "123", false)
		LogDispatchStart(nil, "id", "page_view")
		LogDispatchComplete(nil, "id", "page_view", 1, 2, 0, 0)
		LogAdapterDispatched(nil, "analytics", 1)
		LogAdapterSkipped(nil, "pixel", "fbq not loaded")
		LogAdapterError(nil, "pixel", errors.New("boom"))
		LogPayload(nil, "pixel", map[string]any{"a": 1})
		LogLoaderReady(nil, "gtag", 1, 3)
		LogLoaderFailed(nil, "fbq", "https://x", 3, errors.New("boom"))
	})
}

func TestEnrichLogger(t *testing.T) {
	logger, buf := newJSONLogger(slog.LevelDebug)

	EnrichLogger(logger, "d-1", "generate_lead").Info("hello")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "d-1", lines[0]["dispatch_id"])
	assert.Equal(t, "generate_lead", lines[0]["event"])
}

func TestLogDispatchComplete(t *testing.T) {
	logger, buf := newJSONLogger(slog.LevelInfo)

	LogDispatchComplete(logger, "d-1", "generate_lead", 2.5, 2, 1, 1)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "dispatch completed", lines[0]["msg"])
	assert.Equal(t, 2.5, lines[0]["duration_ms"])
	assert.Equal(t, float64(2), lines[0]["dispatched"])
	assert.Equal(t, float64(1), lines[0]["skipped"])
	assert.Equal(t, float64(1), lines[0]["failed"])
}

func TestLogAdapterError_IsWarn(t *testing.T) {
	logger, buf := newJSONLogger(slog.LevelInfo)

	LogAdapterError(logger, "ads_conversion", errors.New("boom"))
	LogAdapterSkipped(logger, "pixel", "not loaded")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1, "skips are debug and filtered at info")
	assert.Equal(t, "WARN", lines[0]["level"])
	assert.Equal(t, "ads_conversion", lines[0]["adapter"])
	assert.Equal(t, "boom", lines[0]["error"])
}

func TestLogPayload_DebugOnly(t *testing.T) {
	logger, buf := newJSONLogger(slog.LevelInfo)
	LogPayload(logger, "pixel", map[string]any{"email": "a@b.c"})
	assert.Empty(t, buf.String())

	logger, buf = newJSONLogger(slog.LevelDebug)
	LogPayload(logger, "pixel", map[string]any{"email": "a@b.c"})
	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, map[string]any{"email": "a@b.c"}, lines[0]["payload"])
}

func TestLogLoaderFailed(t *testing.T) {
	logger, buf := newJSONLogger(slog.LevelDebug)

	LogLoaderFailed(logger, "fbq", "https://cdn.example/fbevents.js", 3, errors.New("status 503"))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "loader failed", lines[0]["msg"])
	assert.Equal(t, "fbq", lines[0]["script"])
	assert.Equal(t, float64(3), lines[0]["attempts"])
}

func TestTimedOperation(t *testing.T) {
	done := TimedOperation()
	assert.GreaterOrEqual(t, done(), 0.0)
}
