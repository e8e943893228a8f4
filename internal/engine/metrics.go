package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Latency: сколько времени заняла попытка подключения (включая искусственную задержку)
	AttemptDuration *prometheus.HistogramVec

	// Traffic: попытки подключения по банку и исходу
	AttemptsTotal *prometheus.CounterVec

	// Сколько запросов прямо сейчас «висят» в таймаут-ветке
	PendingTimeouts prometheus.Gauge

	// HTTP: запросы по маршруту и коду ответа
	HTTPRequests *prometheus.CounterVec

	// Отбитые лимитером запросы
	RateLimited prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		AttemptDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quantumpay_connect_duration_seconds",
			Help:    "Histogram of simulated connection latencies.",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 2.5, 5, 10, 15},
		}, []string{"bank_id", "outcome"}),

		AttemptsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "quantumpay_connect_attempts_total",
			Help: "Total number of connection attempts by bank and outcome.",
		}, []string{"bank_id", "outcome"}), // outcome: success, bank_not_found, upstream_500, timeout

		PendingTimeouts: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "quantumpay_connect_pending_timeouts",
			Help: "Requests currently waiting in the simulated timeout branch.",
		}),

		HTTPRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "quantumpay_http_requests_total",
			Help: "HTTP requests by route pattern and status code.",
		}, []string{"route", "code"}),

		RateLimited: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "quantumpay_http_rate_limited_total",
			Help: "Requests rejected by the connect rate limiter.",
		}),
	}
}
