package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/sequor-org/sequor/internal/runner"
)

func TestRecordTestCountsByResult(t *testing.T) {
	node := runner.NodeData{Name: "upload-track", Status: runner.NodeStatusPassed}
	RecordTest("smoke", "run-m1", node)
	RecordTest("smoke", "run-m1", node)

	got := testutil.ToFloat64(testsTotal.WithLabelValues("smoke", "run-m1", "upload-track", "passed"))
	require.Equal(t, 2.0, got)
}

func TestRecordRunSetsTalliesAndDuration(t *testing.T) {
	RecordRun("smoke", "run-m2", 5, 1, 2, 1500*time.Millisecond)

	require.Equal(t, 5.0, testutil.ToFloat64(runResults.WithLabelValues("smoke", "run-m2", "passed")))
	require.Equal(t, 1.0, testutil.ToFloat64(runResults.WithLabelValues("smoke", "run-m2", "failed")))
	require.Equal(t, 2.0, testutil.ToFloat64(runResults.WithLabelValues("smoke", "run-m2", "skipped")))
	require.Equal(t, 1.5, testutil.ToFloat64(runDurationSeconds.WithLabelValues("smoke", "run-m2")))
}

func TestRecordErrorCounts(t *testing.T) {
	before := testutil.ToFloat64(errorsTotal.WithLabelValues("plan"))
	RecordError("plan")
	require.Equal(t, before+1, testutil.ToFloat64(errorsTotal.WithLabelValues("plan")))
}
