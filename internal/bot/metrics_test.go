package bot

import (
	"testing"
	"time"

	"courtbot/internal/events"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_CountsExpiredFromBus(t *testing.T) {
	// NewMetrics пишет в глобальный реестр, поэтому вызывается один раз
	// на весь пакет тестов.
	m := NewMetrics()
	bus := events.NewEventBus()
	m.ObserveBus(bus)

	payload := events.ReservationEventPayload{
		ReservationID: 1,
		UserID:        42,
		SlotStart:     time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
		Action:        "expired",
	}

	assert.NoError(t, bus.PublishJSON(events.EventReservationExpired, payload))
	assert.NoError(t, bus.PublishJSON(events.EventReservationExpired, payload))
	// Другие события счетчик не трогают
	assert.NoError(t, bus.PublishJSON(events.EventReservationCreated, payload))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.ReservationsExpired))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.ReservationsCreated))
}
