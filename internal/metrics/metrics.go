// Package metrics holds the Prometheus collectors shared by handlers,
// services and workers.
package metrics

import (
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TakesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hottakes_takes_created_total",
		Help: "Total takes accepted.",
	})

	VotesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hottakes_votes_total",
		Help: "Total votes committed, by vote type.",
	}, []string{"vote_type"})

	ReportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hottakes_reports_total",
		Help: "Total reports filed, by reason.",
	}, []string{"reason"})

	Rejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hottakes_admission_rejections_total",
		Help: "Writes rejected by admission control, by action and error code.",
	}, []string{"action", "code"})

	AutoHidden = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hottakes_takes_auto_hidden_total",
		Help: "Takes hidden automatically by report escalation.",
	})

	RateLimitErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hottakes_ratelimit_errors_total",
		Help: "Rate limit store failures (requests were admitted).",
	})

	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hottakes_api_request_duration_seconds",
		Help:    "HTTP request duration in seconds, by endpoint and method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "method", "status"})

	RequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hottakes_requests_in_flight",
		Help: "Number of HTTP requests currently being served.",
	})

	CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hottakes_cache_hits_total",
		Help: "Total Redis cache hits.",
	})

	CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hottakes_cache_misses_total",
		Help: "Total Redis cache misses.",
	})

	TrendingRefreshDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "hottakes_trending_refresh_duration_seconds",
		Help:    "Duration of trending score refreshes.",
		Buckets: prometheus.DefBuckets,
	})
)

var registerOnce sync.Once

// Register adds all collectors to the default registry. Pool gauges are only
// registered when a pool is given. Safe to call more than once.
func Register(pool *pgxpool.Pool) {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			TakesCreated,
			VotesTotal,
			ReportsTotal,
			Rejections,
			AutoHidden,
			RateLimitErrors,
			RequestDuration,
			RequestsInFlight,
			CacheHits,
			CacheMisses,
			TrendingRefreshDuration,
		)

		if pool == nil {
			return
		}
		prometheus.MustRegister(
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name: "hottakes_db_connection_pool_active",
				Help: "Number of active database connections.",
			}, func() float64 { return float64(pool.Stat().AcquiredConns()) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name: "hottakes_db_connection_pool_idle",
				Help: "Number of idle database connections.",
			}, func() float64 { return float64(pool.Stat().IdleConns()) }),
		)
	})
}
