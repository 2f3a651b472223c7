package database

import (
	"context"
	"testing"

	"resbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifications(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	n1 := &models.Notification{UserID: 1, BookingID: 10, Type: models.NotifBookingDecided, Title: "Booking approved", Message: "ok"}
	n2 := &models.Notification{UserID: 1, BookingID: 11, Type: models.NotifBookingDecided, Title: "Booking rejected"}
	n3 := &models.Notification{UserID: 2, BookingID: 10, Type: models.NotifBookingCreated, Title: "New request"}
	for _, n := range []*models.Notification{n1, n2, n3} {
		require.NoError(t, db.CreateNotification(ctx, n))
		require.NotZero(t, n.ID)
	}

	count, err := db.UnreadNotificationCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	list, err := db.ListNotifications(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	// Newest first.
	assert.Equal(t, n2.ID, list[0].ID)

	t.Run("MarkReadDecrementsByOne", func(t *testing.T) {
		require.NoError(t, db.MarkNotificationRead(ctx, n1.ID, 1))
		count, err := db.UnreadNotificationCount(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("RecipientOnly", func(t *testing.T) {
		err := db.MarkNotificationRead(ctx, n3.ID, 1)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ChannelFlags", func(t *testing.T) {
		require.NoError(t, db.MarkChannelsSent(ctx, n1.ID, true, false))
		list, err := db.ListNotifications(ctx, 1)
		require.NoError(t, err)
		for _, n := range list {
			if n.ID == n1.ID {
				assert.True(t, n.EmailSent)
				assert.False(t, n.PushSent)
			}
		}
	})
}
