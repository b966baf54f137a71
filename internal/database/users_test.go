package database

import (
	"context"
	"testing"
	"time"

	"courtbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrUpdateUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := &models.User{
		TelegramID:   123,
		Username:     "alice",
		FirstName:    "Alice",
		LastName:     "Smith",
		LanguageCode: "en",
		LastActivity: time.Now(),
		CreatedAt:    time.Now(),
	}
	require.NoError(t, db.CreateOrUpdateUser(ctx, user))

	got, err := db.GetUserByTelegramID(ctx, 123)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "Alice Smith", got.FullName())

	// Повторный вызов обновляет, а не дублирует
	user.Username = "alice_new"
	require.NoError(t, db.CreateOrUpdateUser(ctx, user))

	got, err = db.GetUserByTelegramID(ctx, 123)
	require.NoError(t, err)
	assert.Equal(t, "alice_new", got.Username)

	users, err := db.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUpdateUserActivity(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := &models.User{
		TelegramID:   456,
		FirstName:    "Bob",
		LastActivity: time.Now().Add(-time.Hour),
		CreatedAt:    time.Now().Add(-time.Hour),
	}
	require.NoError(t, db.CreateOrUpdateUser(ctx, user))
	require.NoError(t, db.UpdateUserActivity(ctx, 456))

	got, err := db.GetUserByTelegramID(ctx, 456)
	require.NoError(t, err)
	assert.True(t, got.LastActivity.After(user.LastActivity))
}
