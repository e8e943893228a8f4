package eventlog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Сколько событий записано, по исходу
	RecordedTotal *prometheus.CounterVec

	// Ошибки записи: store, console, redis, postgres
	WriteErrors *prometheus.CounterVec

	// Заполненность буфера зеркала (backpressure)
	MirrorBufferFill prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		RecordedTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "quantumpay_events_recorded_total",
			Help: "Total number of connection events recorded.",
		}, []string{"outcome"}),

		WriteErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "quantumpay_event_write_errors_total",
			Help: "Best-effort event writes that failed, by destination.",
		}, []string{"destination"}),

		MirrorBufferFill: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "quantumpay_event_mirror_buffer_utilization",
			Help: "Current number of events waiting for the database mirror.",
		}),
	}
}
