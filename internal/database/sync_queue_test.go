package database

import (
	"context"
	"testing"
	"time"

	"courtbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncQueue(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	task := &models.SyncTask{
		TaskType:      "created",
		ReservationID: 1,
		Payload:       `{"action":"created"}`,
		Status:        models.SyncStatusPending,
	}
	require.NoError(t, db.CreateSyncTask(ctx, task))
	assert.NotZero(t, task.ID)

	t.Run("PendingVisible", func(t *testing.T) {
		tasks, err := db.GetPendingSyncTasks(ctx, 10)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, task.ID, tasks[0].ID)
		assert.Equal(t, "created", tasks[0].TaskType)
	})

	t.Run("RetryWithFutureTimeHidden", func(t *testing.T) {
		next := time.Now().Add(time.Hour)
		require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusRetry, "sheets 503", &next))

		tasks, err := db.GetPendingSyncTasks(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("RetryDueVisibleWithCount", func(t *testing.T) {
		past := time.Now().Add(-time.Minute)
		require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusRetry, "sheets 503", &past))

		tasks, err := db.GetPendingSyncTasks(ctx, 10)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, 2, tasks[0].RetryCount)
		assert.Equal(t, "sheets 503", tasks[0].LastError)
	})

	t.Run("Completed", func(t *testing.T) {
		require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusCompleted, "", nil))

		tasks, err := db.GetPendingSyncTasks(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("Failed", func(t *testing.T) {
		other := &models.SyncTask{TaskType: "cancelled", ReservationID: 2, Payload: `{}`, Status: models.SyncStatusPending}
		require.NoError(t, db.CreateSyncTask(ctx, other))
		require.NoError(t, db.UpdateSyncTaskStatus(ctx, other.ID, models.SyncStatusFailed, "gave up", nil))

		failed, err := db.GetFailedSyncTasks(ctx)
		require.NoError(t, err)
		require.Len(t, failed, 1)
		assert.Equal(t, other.ID, failed[0].ID)
		assert.NotNil(t, failed[0].ProcessedAt)
	})
}
