package google

import (
	"testing"
	"time"

	"resbook/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCellToID(t *testing.T) {
	assert.Equal(t, int64(42), cellToID(float64(42)))
	assert.Equal(t, int64(42), cellToID("42"))
	assert.Equal(t, int64(0), cellToID("header"))
	assert.Equal(t, int64(0), cellToID(nil))
}

func TestBookingRowValues(t *testing.T) {
	decided := time.Date(2026, 9, 10, 14, 30, 0, 0, time.UTC)
	booking := &models.Booking{
		ID:           7,
		ResourceName: "Meeting Room 1",
		ResourceType: models.ResourceRoom,
		UserName:     "Alice",
		Date:         "2026-09-10",
		StartTime:    "09:00",
		EndTime:      "10:00",
		PIC:          "Alice",
		Status:       models.StatusApproved,
		ApproverName: "Admin",
		DecidedAt:    &decided,
	}

	row := bookingRowValues(booking)
	assert.Len(t, row, 13)
	assert.Equal(t, int64(7), row[0])
	assert.Equal(t, "Meeting Room 1", row[1])
	assert.Equal(t, models.StatusApproved, row[9])
	assert.Equal(t, "2026-09-10 14:30:00", row[11])
}

func TestRowCache(t *testing.T) {
	s := &SheetsService{rowCache: make(map[int64]int)}

	_, ok := s.getCachedRow(1)
	assert.False(t, ok)

	s.setCachedRow(1, 5)
	row, ok := s.getCachedRow(1)
	assert.True(t, ok)
	assert.Equal(t, 5, row)
}
