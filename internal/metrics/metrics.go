package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sequor-org/sequor/internal/logger"
	"github.com/sequor-org/sequor/internal/runner"
)

const namespace = "sequor"

var (
	testsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tests_total",
		Help:      "Count of finished tests by terminal state",
	}, []string{
		"suite",
		"run_id",
		"test",
		"result",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_results",
		Help:      "Node tallies of the run by result",
	}, []string{
		"suite",
		"run_id",
		"result",
	})

	runDurationSeconds = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of the run",
	}, []string{
		"suite",
		"run_id",
	})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "errors_total",
		Help:      "Count of run-level errors",
	}, []string{
		"error",
	})
)

// RecordTest records one finished node.
func RecordTest(suiteName, runID string, node runner.NodeData) {
	testsTotal.WithLabelValues(suiteName, runID, node.Name, node.Status.String()).Inc()
}

// RecordRun records the run-level tallies.
func RecordRun(suiteName, runID string, passed, failed, skipped int, duration time.Duration) {
	runResults.WithLabelValues(suiteName, runID, runner.NodeStatusPassed.String()).Set(float64(passed))
	runResults.WithLabelValues(suiteName, runID, runner.NodeStatusFailed.String()).Set(float64(failed))
	runResults.WithLabelValues(suiteName, runID, runner.NodeStatusSkipped.String()).Set(float64(skipped))
	runDurationSeconds.WithLabelValues(suiteName, runID).Set(duration.Seconds())
}

// RecordError counts a run-level error.
func RecordError(kind string) {
	errorsTotal.WithLabelValues(kind).Inc()
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "Metrics server stopped", "err", err)
		}
	}()
}
