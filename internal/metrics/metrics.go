package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SuggestRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gleaner_suggest_requests_total",
			Help: "Total number of autocomplete requests executed",
		},
		[]string{"status"},
	)

	SuggestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gleaner_suggest_duration_seconds",
			Help:    "Duration of autocomplete requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	KeywordsAccepted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gleaner_keywords_accepted_total",
			Help: "Total keywords accepted into the result set, by depth",
		},
		[]string{"depth"},
	)

	KeywordsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gleaner_keywords_rejected_total",
			Help: "Total suggestions rejected as duplicates or self-references",
		},
	)

	BreakerTrips = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gleaner_breaker_trips_total",
			Help: "Times the suggestion cap stopped a harvest early",
		},
	)

	SerpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gleaner_serp_requests_total",
			Help: "Total number of SERP fetches executed",
		},
		[]string{"status", "blocked", "block_src"},
	)

	SerpDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gleaner_serp_duration_seconds",
			Help:    "Duration of SERP fetches in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	ProxyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gleaner_proxy_failures_total",
			Help: "Total number of proxy failures during fetches",
		},
		[]string{"proxy_url"},
	)
)

// RecordSuggest updates the autocomplete request metrics.
func RecordSuggest(status string, dur time.Duration) {
	SuggestRequestsTotal.WithLabelValues(status).Inc()
	SuggestDuration.Observe(dur.Seconds())
}

// RecordAccepted counts one accepted keyword at the given depth.
func RecordAccepted(depth int) {
	KeywordsAccepted.WithLabelValues(fmt.Sprintf("%d", depth)).Inc()
}

// RecordSerp updates the SERP fetch metrics.
func RecordSerp(status string, blocked bool, blockSrc string, dur time.Duration) {
	blockedStr := "false"
	if blocked {
		blockedStr = "true"
	}
	SerpRequestsTotal.WithLabelValues(status, blockedStr, blockSrc).Inc()
	SerpDuration.Observe(dur.Seconds())
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on the specified port and exposes /metrics.
func Start(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		// Suppress the error from intentional shutdown
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server failed: %v\n", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
