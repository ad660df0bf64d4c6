package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sequor-org/sequor/internal/logger"
)

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.NewLogger(logger.WithQuiet(), logger.WithWriter(&buf))

	lg.Info("test started", "test", "upload-track")
	out := buf.String()
	require.Contains(t, out, "test started")
	require.Contains(t, out, "test=upload-track")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.NewLogger(logger.WithQuiet(), logger.WithWriter(&buf), logger.WithFormat("json"))

	lg.Error("request failed", "status", 502)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	require.Equal(t, "request failed", record["msg"])
	require.Equal(t, "ERROR", record["level"])
	require.Equal(t, float64(502), record["status"])
}

func TestDebugLevelGating(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.NewLogger(logger.WithQuiet(), logger.WithWriter(&buf))
	lg.Debug("hidden")
	require.Empty(t, buf.String())

	buf.Reset()
	lg = logger.NewLogger(logger.WithQuiet(), logger.WithWriter(&buf), logger.WithDebug())
	lg.Debug("visible")
	require.Contains(t, buf.String(), "visible")
}

func TestWithAttrsCarryThrough(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.NewLogger(logger.WithQuiet(), logger.WithWriter(&buf))
	lg.With("run_id", "r-123").Info("planned")
	require.Contains(t, buf.String(), "run_id=r-123")
}

func TestWarnCounterTalliesWarnOrWorse(t *testing.T) {
	counter := logger.NewWarnCounter()
	lg := logger.NewLogger(logger.WithQuiet(), logger.WithWarnCounter(counter))

	lg.Info("fine")
	lg.Debug("fine")
	require.Zero(t, counter.Count())

	lg.Warn("rate limited")
	lg.Error("request failed")
	lg.Warnf("retrying %d", 2)
	require.Equal(t, int64(3), counter.Count())
}

func TestContextCarriesLogger(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.NewLogger(logger.WithQuiet(), logger.WithWriter(&buf))
	ctx := logger.WithLogger(context.Background(), lg)

	logger.Info(ctx, "from context")
	require.Contains(t, buf.String(), "from context")

	require.NotNil(t, logger.FromContext(context.Background()))
}
