package service

import (
	"context"
	"testing"

	"resbook/internal/database"
	"resbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportService(t *testing.T) {
	env := setupBookingService(t)
	ctx := context.Background()
	reports := NewReportService(env.db)

	requester := env.seedUser(t, "Alice", "alice@corp.test", models.RoleRequester)
	admin := env.seedUser(t, "Boss", "boss@corp.test", models.RoleAdmin)
	room := env.seedResource(t, "Meeting Room 1", models.ResourceRoom)
	van := env.seedResource(t, "Van 2", models.ResourceTransport)

	approved, err := env.bookings.Create(ctx, CreateBookingRequest{
		ResourceID: room.ID, UserID: requester.ID,
		Date: futureDate(3), StartTime: "09:00", EndTime: "10:00", PIC: "Alice",
	})
	require.NoError(t, err)
	_, err = env.bookings.Decide(ctx, approved.ID, admin, models.StatusApproved, "")
	require.NoError(t, err)

	_, err = env.bookings.Create(ctx, CreateBookingRequest{
		ResourceID: van.ID, UserID: requester.ID,
		Date: futureDate(4), StartTime: "13:00", EndTime: "15:00", PIC: "Alice",
	})
	require.NoError(t, err)

	t.Run("Summary", func(t *testing.T) {
		summary, err := reports.Summary(ctx, models.BookingFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), summary.Total)
		assert.Equal(t, int64(1), summary.ByStatus[models.StatusApproved])
		assert.Equal(t, int64(1), summary.ByStatus[models.StatusPending])
		assert.Equal(t, int64(1), summary.ByResourceType[models.ResourceTransport])
	})

	t.Run("SummaryFiltered", func(t *testing.T) {
		summary, err := reports.Summary(ctx, models.BookingFilter{ResourceType: models.ResourceRoom})
		require.NoError(t, err)
		assert.Equal(t, int64(1), summary.Total)
	})

	t.Run("ExportRows", func(t *testing.T) {
		rows, err := reports.ExportRows(ctx, models.BookingFilter{})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "Meeting Room 1", rows[0].ResourceName)
		assert.Equal(t, "Alice", rows[0].Requester)
		assert.Equal(t, models.StatusApproved, rows[0].Status)
		assert.NotEmpty(t, rows[0].DecidedAt)
		assert.Empty(t, rows[1].DecidedAt)
	})

	t.Run("BadFilter", func(t *testing.T) {
		_, err := reports.Summary(ctx, models.BookingFilter{Status: "bogus"})
		var verr *database.ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}
