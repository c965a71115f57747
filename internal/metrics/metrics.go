// Package metrics exposes Prometheus counters for bot activity.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// UpdatesProcessed counts inbound chat events handled, by outcome.
	UpdatesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadbot_updates_processed_total",
		Help: "Inbound chat events processed, labeled by outcome.",
	}, []string{"outcome"})

	// RateLimited counts events rejected by the sliding-window limiter.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadbot_rate_limited_total",
		Help: "Events rejected by the rate limiter.",
	})

	// LeadsCreated counts successfully persisted leads.
	LeadsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadbot_leads_created_total",
		Help: "Leads persisted to the record store.",
	})

	// IdentifierConflicts counts add/edit attempts rejected as duplicates.
	IdentifierConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadbot_identifier_conflicts_total",
		Help: "Lead submissions rejected because an identifier already exists.",
	})

	// SessionsEvicted counts sessions removed by the TTL sweep.
	SessionsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadbot_sessions_evicted_total",
		Help: "Conversation sessions evicted by the idle-TTL sweep.",
	})
)

// Serve runs the /metrics HTTP listener until the context is cancelled.
func Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Metrics listener starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics listener shutdown failed", "error", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
