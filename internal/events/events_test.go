package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_PublishJSON(t *testing.T) {
	bus := NewEventBus()

	var received []*Event
	bus.Subscribe(EventReservationCreated, func(ev *Event) error {
		received = append(received, ev)
		return nil
	})

	payload := ReservationEventPayload{
		ReservationID: 1,
		UserID:        42,
		UserName:      "@alice",
		SlotStart:     time.Date(2026, 9, 2, 12, 0, 0, 0, time.UTC),
		Action:        "created",
	}
	require.NoError(t, bus.PublishJSON(EventReservationCreated, payload))

	require.Len(t, received, 1)
	var got ReservationEventPayload
	require.NoError(t, json.Unmarshal(received[0].Payload, &got))
	assert.Equal(t, payload.UserID, got.UserID)
	assert.True(t, got.SlotStart.Equal(payload.SlotStart))
	assert.False(t, received[0].CreatedAt.IsZero())
}

func TestEventBus_OnlyMatchingSubscribers(t *testing.T) {
	bus := NewEventBus()

	created := 0
	cancelled := 0
	bus.Subscribe(EventReservationCreated, func(ev *Event) error { created++; return nil })
	bus.Subscribe(EventReservationCancelled, func(ev *Event) error { cancelled++; return nil })

	require.NoError(t, bus.PublishJSON(EventReservationCancelled, ReservationEventPayload{UserID: 1}))

	assert.Equal(t, 0, created)
	assert.Equal(t, 1, cancelled)
}

func TestEventBus_NilBusIsSafe(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(EventReservationCreated, nil))
}
