// Package metrics exposes campaign progress as Prometheus series over
// HTTP, grounded on pkg/monitoring/prometheus/client.go for "this is
// where the Prometheus dependency lives" — adapted from that file's
// query API (there is no external Prometheus server in this domain) to
// the client_golang exposition API: this process is the thing being
// scraped, not the thing doing the scraping.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the campaign's Prometheus series and the HTTP server
// that exposes them.
type Registry struct {
	Iterations      *prometheus.CounterVec
	Divergences     *prometheus.CounterVec
	IterationMillis prometheus.Histogram

	registry *prometheus.Registry
	server   *http.Server
}

// New creates a Registry with the campaign's series already registered.
func New() *Registry {
	reg := prometheus.NewRegistry()

	iterations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fit",
		Name:      "iterations_total",
		Help:      "Total number of campaign iterations run, by result.",
	}, []string{"result"})

	divergences := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fit",
		Name:      "divergences_total",
		Help:      "Total number of iterations whose result diverged from the golden run, by result.",
	}, []string{"result"})

	iterationMillis := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fit",
		Name:      "iteration_duration_milliseconds",
		Help:      "Wall-clock duration of a single campaign iteration.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
	})

	reg.MustRegister(iterations, divergences, iterationMillis)

	return &Registry{
		Iterations:      iterations,
		Divergences:     divergences,
		IterationMillis: iterationMillis,
		registry:        reg,
	}
}

// ObserveIteration records a completed iteration's result and duration,
// and whether it diverged from the golden run's result.
func (r *Registry) ObserveIteration(result string, diverged bool, d time.Duration) {
	r.Iterations.WithLabelValues(result).Inc()
	if diverged {
		r.Divergences.WithLabelValues(result).Inc()
	}
	r.IterationMillis.Observe(float64(d.Milliseconds()))
}

// Handler returns the http.Handler that serves this Registry's series in
// the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve starts the /metrics HTTP endpoint on addr in the background. It
// returns immediately; call Shutdown to stop it.
func (r *Registry) Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	r.server = &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := r.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "metrics: server stopped: %v\n", err)
		}
	}()
}

// Shutdown stops the metrics HTTP endpoint, if one was started.
func (r *Registry) Shutdown(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	return r.server.Shutdown(ctx)
}
