package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	SearchesTotal  *prometheus.CounterVec
	SearchDuration *prometheus.HistogramVec

	MessagesTotal      *prometheus.CounterVec
	RateLimitHitsTotal prometheus.Counter

	// Quota gauges mirror the tracker snapshot from the latest
	// successful API response.
	QuotaShortLimit     prometheus.Gauge
	QuotaLongLimit      prometheus.Gauge
	QuotaShortRemaining prometheus.Gauge
	QuotaLongRemaining  prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		SearchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "saucebot_searches_total",
				Help: "Total number of SauceNAO searches",
			},
			[]string{"kind", "status"},
		),
		SearchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "saucebot_search_duration_seconds",
				Help:    "SauceNAO search duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"kind"},
		),

		MessagesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "saucebot_messages_total",
				Help: "Total number of Telegram updates handled",
			},
			[]string{"type", "status"},
		),
		RateLimitHitsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "saucebot_rate_limit_hits_total",
				Help: "Messages rejected by the per-chat rate limiter",
			},
		),

		QuotaShortLimit: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "saucebot_quota_short_limit",
				Help: "Short-window quota limit reported by SauceNAO",
			},
		),
		QuotaLongLimit: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "saucebot_quota_long_limit",
				Help: "Long-window quota limit reported by SauceNAO",
			},
		),
		QuotaShortRemaining: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "saucebot_quota_short_remaining",
				Help: "Short-window searches remaining",
			},
		),
		QuotaLongRemaining: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "saucebot_quota_long_remaining",
				Help: "Long-window searches remaining",
			},
		),
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordSearch counts one search. kind is "url" or "file".
func (m *Metrics) RecordSearch(kind, status string, duration time.Duration) {
	m.SearchesTotal.WithLabelValues(kind, status).Inc()
	m.SearchDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

func (m *Metrics) RecordMessage(msgType, status string) {
	m.MessagesTotal.WithLabelValues(msgType, status).Inc()
}

func (m *Metrics) RecordRateLimitHit() {
	m.RateLimitHitsTotal.Inc()
}

func (m *Metrics) SetQuota(shortLimit, longLimit, shortRemaining, longRemaining uint32) {
	m.QuotaShortLimit.Set(float64(shortLimit))
	m.QuotaLongLimit.Set(float64(longLimit))
	m.QuotaShortRemaining.Set(float64(shortRemaining))
	m.QuotaLongRemaining.Set(float64(longRemaining))
}
