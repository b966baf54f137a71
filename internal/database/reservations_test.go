package database

import (
	"context"
	"testing"
	"time"

	"courtbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReservation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	slot := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		res := &models.Reservation{UserID: 1, UserName: "@alice", SlotStart: slot}
		stale, err := db.CreateReservation(ctx, res, now)
		require.NoError(t, err)
		assert.Nil(t, stale)
		assert.NotZero(t, res.ID)

		got, err := db.GetReservationByUser(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, res.ID, got.ID)
		assert.True(t, got.SlotStart.Equal(slot))
		assert.Equal(t, "@alice", got.UserName)
	})

	t.Run("DuplicateUser", func(t *testing.T) {
		res := &models.Reservation{UserID: 1, UserName: "@alice", SlotStart: slot.Add(time.Hour)}
		_, err := db.CreateReservation(ctx, res, now)
		assert.ErrorIs(t, err, ErrDuplicateReservation)
	})

	t.Run("SlotTaken", func(t *testing.T) {
		res := &models.Reservation{UserID: 2, UserName: "@bob", SlotStart: slot}
		_, err := db.CreateReservation(ctx, res, now)
		assert.ErrorIs(t, err, ErrSlotTaken)
	})

	t.Run("OtherSlotStillFree", func(t *testing.T) {
		res := &models.Reservation{UserID: 2, UserName: "@bob", SlotStart: slot.Add(time.Hour)}
		_, err := db.CreateReservation(ctx, res, now)
		assert.NoError(t, err)
	})
}

func TestCreateReservation_PurgesStaleRow(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	oldSlot := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	res := &models.Reservation{UserID: 7, UserName: "@carol", SlotStart: oldSlot}
	_, err := db.CreateReservation(ctx, res, oldSlot.Add(-time.Hour))
	require.NoError(t, err)

	// Слот уже начался - старая запись должна уступить место новой
	now := oldSlot.Add(2 * time.Hour)
	newSlot := time.Date(2026, 9, 1, 15, 0, 0, 0, time.UTC)
	fresh := &models.Reservation{UserID: 7, UserName: "@carol", SlotStart: newSlot}

	stale, err := db.CreateReservation(ctx, fresh, now)
	require.NoError(t, err)
	require.NotNil(t, stale)
	assert.True(t, stale.SlotStart.Equal(oldSlot))

	got, err := db.GetReservationByUser(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.SlotStart.Equal(newSlot))
}

func TestCreateReservation_FutureRowBlocks(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	first := &models.Reservation{UserID: 9, SlotStart: now.Add(3 * time.Hour)}
	_, err := db.CreateReservation(ctx, first, now)
	require.NoError(t, err)

	second := &models.Reservation{UserID: 9, SlotStart: now.Add(5 * time.Hour)}
	_, err = db.CreateReservation(ctx, second, now)
	assert.ErrorIs(t, err, ErrDuplicateReservation)

	// Первая бронь не задета
	got, err := db.GetReservationByUser(ctx, 9)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.SlotStart.Equal(first.SlotStart))
}

func TestDeleteReservation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	t.Run("NotFound", func(t *testing.T) {
		_, err := db.DeleteReservation(ctx, 42)
		assert.ErrorIs(t, err, ErrReservationNotFound)
	})

	t.Run("DeletesAndReturnsRow", func(t *testing.T) {
		slot := now.Add(4 * time.Hour)
		res := &models.Reservation{UserID: 42, UserName: "@dave", SlotStart: slot}
		_, err := db.CreateReservation(ctx, res, now)
		require.NoError(t, err)

		deleted, err := db.DeleteReservation(ctx, 42)
		require.NoError(t, err)
		require.NotNil(t, deleted)
		assert.True(t, deleted.SlotStart.Equal(slot))

		got, err := db.GetReservationByUser(ctx, 42)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("SecondDeleteFails", func(t *testing.T) {
		_, err := db.DeleteReservation(ctx, 42)
		assert.ErrorIs(t, err, ErrReservationNotFound)
	})
}

func TestGetReservationByUser_NoRow(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.GetReservationByUser(context.Background(), 1000)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReservedSlots_FiltersByDate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	day1 := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC)

	for i, slot := range []time.Time{
		day1.Add(9 * time.Hour),
		day1.Add(14 * time.Hour),
		day2.Add(9 * time.Hour),
	} {
		res := &models.Reservation{UserID: int64(100 + i), SlotStart: slot}
		_, err := db.CreateReservation(ctx, res, now)
		require.NoError(t, err)
	}

	slots, err := db.ReservedSlots(ctx, day1)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.True(t, slots[0].Equal(day1.Add(9*time.Hour)))
	assert.True(t, slots[1].Equal(day1.Add(14*time.Hour)))

	slots, err = db.ReservedSlots(ctx, day2)
	require.NoError(t, err)
	assert.Len(t, slots, 1)

	slots, err = db.ReservedSlots(ctx, day2.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestGetReservationsByDateRange(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		res := &models.Reservation{
			UserID:    int64(200 + i),
			SlotStart: now.AddDate(0, 0, i+1).Truncate(time.Hour),
		}
		_, err := db.CreateReservation(ctx, res, now)
		require.NoError(t, err)
	}

	from := now.AddDate(0, 0, 1).Add(-10 * time.Hour)
	to := now.AddDate(0, 0, 2).Add(10 * time.Hour)
	list, err := db.GetReservationsByDateRange(ctx, from, to)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	all, err := db.GetAllReservations(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
