package repository

import (
	"context"
	"testing"
	"time"

	"courtbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStateRepository(t *testing.T) {
	repo := NewMemoryStateRepository(time.Hour)
	ctx := context.Background()

	t.Run("SetAndGetState", func(t *testing.T) {
		state := &models.UserState{UserID: 1, Step: models.StateSelectDate}
		require.NoError(t, repo.SetState(ctx, state))

		got, err := repo.GetState(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, models.StateSelectDate, got.Step)
	})

	t.Run("GetMissing", func(t *testing.T) {
		got, err := repo.GetState(ctx, 404)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ClearState", func(t *testing.T) {
		require.NoError(t, repo.SetState(ctx, &models.UserState{UserID: 2, Step: models.StateSelectTime}))
		require.NoError(t, repo.ClearState(ctx, 2))

		got, err := repo.GetState(ctx, 2)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("TTLExpiry", func(t *testing.T) {
		shortRepo := NewMemoryStateRepository(10 * time.Millisecond)
		require.NoError(t, shortRepo.SetState(ctx, &models.UserState{UserID: 3, Step: models.StateSelectDate}))

		time.Sleep(30 * time.Millisecond)

		got, err := shortRepo.GetState(ctx, 3)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestMemoryRateLimit(t *testing.T) {
	repo := NewMemoryStateRepository(time.Hour)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := repo.CheckRateLimit(ctx, 10, 2, 50*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := repo.CheckRateLimit(ctx, 10, 2, 50*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, allowed)

	time.Sleep(60 * time.Millisecond)

	allowed, err = repo.CheckRateLimit(ctx, 10, 2, 50*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, allowed)
}
