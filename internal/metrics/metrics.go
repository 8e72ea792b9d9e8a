// Package metrics exposes lint lifecycle counters to Prometheus.
//
// Series:
//
//	alexls_lint_started_total{kind}        lint cycles begun, by start kind
//	alexls_lint_finished_total{outcome}    cycles by effective outcome
//	alexls_lint_duration_seconds           cycle latency
//	alexls_diagnostics_published_total     diagnostics sent to the editor
//	alexls_publish_total                   publish calls (including clears)
//	alexls_sweeps_total                    configuration sweeps
//	alexls_sweep_documents                 documents in the last sweep
//	alexls_sweep_duration_seconds          sweep latency
//	alexls_fixes_submitted_total{result}   edits sent to the editor
//	alexls_lint_cache_{hits,misses}        lint result cache counters
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"alexls/internal/engine"
	"alexls/internal/task"
)

const namespace = "alexls"

// CacheStats reports lint cache counters.
type CacheStats func() (hits, misses uint64)

// Collector implements engine.Metrics.
type Collector struct {
	lintStarted   *prometheus.CounterVec
	lintFinished  *prometheus.CounterVec
	lintDuration  prometheus.Histogram
	diagnostics   prometheus.Counter
	publishes     prometheus.Counter
	sweeps        prometheus.Counter
	sweepDocs     prometheus.Gauge
	sweepDuration prometheus.Histogram
	fixes         *prometheus.CounterVec
}

var _ engine.Metrics = (*Collector)(nil)

// NewCollector creates the collector and registers it with reg. A nil reg
// registers nothing, which suits tests and the CLI.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		lintStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lint_started_total",
			Help:      "Lint cycles begun, by start kind.",
		}, []string{"kind"}),
		lintFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lint_finished_total",
			Help:      "Lint cycles finished, by effective outcome.",
		}, []string{"outcome"}),
		lintDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lint_duration_seconds",
			Help:      "Lint cycle latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		diagnostics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_published_total",
			Help:      "Diagnostics sent to the editor.",
		}),
		publishes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_total",
			Help:      "Diagnostic publish calls, including clears.",
		}),
		sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeps_total",
			Help:      "Configuration change sweeps.",
		}),
		sweepDocs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sweep_documents",
			Help:      "Open documents revalidated by the last sweep.",
		}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Sweep latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		fixes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fixes_submitted_total",
			Help:      "Edits submitted to the editor, by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(
			c.lintStarted,
			c.lintFinished,
			c.lintDuration,
			c.diagnostics,
			c.publishes,
			c.sweeps,
			c.sweepDocs,
			c.sweepDuration,
			c.fixes,
		)
	}
	return c
}

// RegisterCache exposes lint cache counters read from stats at scrape time.
func RegisterCache(reg prometheus.Registerer, stats CacheStats) {
	reg.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lint_cache_hits",
			Help:      "Lint results served from the cache.",
		}, func() float64 {
			hits, _ := stats()
			return float64(hits)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lint_cache_misses",
			Help:      "Lint results computed by the linter.",
		}, func() float64 {
			_, misses := stats()
			return float64(misses)
		}),
	)
}

func (c *Collector) LintStarted(kind engine.StatusKind) {
	c.lintStarted.WithLabelValues(kind.String()).Inc()
}

func (c *Collector) LintFinished(outcome task.Outcome, elapsed time.Duration) {
	c.lintFinished.WithLabelValues(outcome.String()).Inc()
	c.lintDuration.Observe(elapsed.Seconds())
}

func (c *Collector) DiagnosticsPublished(count int) {
	c.publishes.Inc()
	c.diagnostics.Add(float64(count))
}

func (c *Collector) SweepCompleted(documents int, elapsed time.Duration) {
	c.sweeps.Inc()
	c.sweepDocs.Set(float64(documents))
	c.sweepDuration.Observe(elapsed.Seconds())
}

func (c *Collector) FixSubmitted(err error) {
	result := "applied"
	switch {
	case err == nil:
	case errors.Is(err, engine.ErrEditRejected):
		result = "rejected"
	case errors.Is(err, engine.ErrStaleVersion):
		result = "stale"
	default:
		result = "error"
	}
	c.fixes.WithLabelValues(result).Inc()
}

// Serve exposes gatherer on addr at /metrics until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
