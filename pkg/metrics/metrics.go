// Package metrics exposes the deduplication engine's progress as Prometheus
// gauges and counters, serving the role of the progress indicator a
// long-running triage pass needs on a large crash corpus.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus instruments the deduplication engine
// reports through.
type Collector struct {
	registry *prometheus.Registry

	iterations    prometheus.Counter
	groupsEmitted prometheus.Counter
	blocksRanked  prometheus.Counter
	failingGauge  prometheus.Gauge
	passingGauge  prometheus.Gauge
}

// NewCollector builds a Collector registered against its own registry, so
// that running multiple triage passes in one process never collides on
// metric registration.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	return &Collector{
		registry: reg,
		iterations: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "chaos_triage",
			Name:      "dedup_iterations_total",
			Help:      "Number of deduplication loop iterations executed.",
		}),
		groupsEmitted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "chaos_triage",
			Name:      "dedup_groups_emitted_total",
			Help:      "Number of groups emitted by the deduplication loop.",
		}),
		blocksRanked: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "chaos_triage",
			Name:      "dedup_blocks_ranked_total",
			Help:      "Number of basic blocks scored for mutual information across all iterations.",
		}),
		failingGauge: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: "chaos_triage",
			Name:      "dedup_failing_traces",
			Help:      "Number of failing traces not yet claimed by a group.",
		}),
		passingGauge: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: "chaos_triage",
			Name:      "dedup_passing_traces",
			Help:      "Number of passing traces in the current iteration.",
		}),
	}
}

// Observe records one dedup.IterationEvent's worth of progress. It takes the
// primitive fields rather than the dedup package's event type so that
// pkg/metrics has no import-time dependency on pkg/dedup.
func (c *Collector) Observe(failingBefore, passingBefore, candidateCount, groupSize int) {
	c.iterations.Inc()
	c.blocksRanked.Add(float64(candidateCount))
	if groupSize > 0 {
		c.groupsEmitted.Inc()
	}
	c.failingGauge.Set(float64(failingBefore - groupSize))
	c.passingGauge.Set(float64(passingBefore))
}

// Handler returns the HTTP handler promhttp should serve metrics scrapes
// from.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Server runs an HTTP server exposing the collector's registry at /metrics
// until ctx is cancelled.
func Server(ctx context.Context, addr string, c *Collector) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}
