package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"courtbot/internal/events"
)

// Metrics структура для метрик Prometheus
type Metrics struct {
	MessagesProcessed     prometheus.Counter
	ReservationsCreated   prometheus.Counter
	ReservationsCancelled prometheus.Counter
	ReservationsExpired   prometheus.Counter
	ErrorsTotal           prometheus.Counter
	UpdateProcessingTime  prometheus.Histogram
}

// NewMetrics создает новые метрики
func NewMetrics() *Metrics {
	return &Metrics{
		MessagesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_messages_processed_total",
			Help: "Total number of processed updates",
		}),

		ReservationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_reservations_created_total",
			Help: "Total number of reservations created",
		}),

		ReservationsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_reservations_cancelled_total",
			Help: "Total number of reservations cancelled",
		}),

		ReservationsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_reservations_expired_total",
			Help: "Total number of stale reservations purged",
		}),

		ErrorsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_errors_total",
			Help: "Total number of handler errors",
		}),

		UpdateProcessingTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "telegram_bot_update_processing_time_seconds",
			Help:    "Time spent processing updates",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveBus считает события, которые происходят внутри сервиса, а не в
// хендлерах: ленивое удаление протухшей брони при повторном бронировании.
func (m *Metrics) ObserveBus(bus *events.EventBus) {
	if bus == nil {
		return
	}
	bus.Subscribe(events.EventReservationExpired, func(*events.Event) error {
		m.ReservationsExpired.Inc()
		return nil
	})
}
