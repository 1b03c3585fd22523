// Package metrics provides Prometheus metrics for session resolution and playback.
// Labels stay low-cardinality: no session or video ids.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tubelink/tubelink/log"
)

var (
	// ResolutionsTotal counts finished resolutions by mode (catalog, live, asset, uri) and outcome.
	ResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tubelink_resolutions_total",
		Help: "Total number of source resolutions, by mode and outcome.",
	}, []string{"mode", "outcome"})

	// FallbackDepth observes how many chain candidates were skipped before a representation was found.
	FallbackDepth = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tubelink_fallback_depth",
		Help:    "Number of quality fallback candidates skipped per selection.",
		Buckets: prometheus.LinearBuckets(0, 1, 12),
	})

	// EventsTotal counts events emitted to session sinks.
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tubelink_events_total",
		Help: "Total number of session events emitted, by event.",
	}, []string{"event"})

	// ActiveSessions tracks registered sessions.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tubelink_active_sessions",
		Help: "Current number of registered playback sessions.",
	})
)

// Outcome labels a resolution result.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return "error"
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Infof("serving metrics on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
