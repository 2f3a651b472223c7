package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     string
		want                           bool
	}{
		{"identical windows", "09:00", "10:00", "09:00", "10:00", true},
		{"partial overlap", "09:00", "10:00", "09:30", "10:30", true},
		{"contained", "09:00", "12:00", "10:00", "11:00", true},
		{"back to back is allowed", "09:00", "10:00", "10:00", "11:00", false},
		{"back to back reversed", "10:00", "11:00", "09:00", "10:00", false},
		{"disjoint", "08:00", "09:00", "13:00", "14:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
			// Overlap is symmetric.
			assert.Equal(t, tt.want, Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd))
		})
	}
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusPending))
	assert.True(t, ValidStatus(StatusApproved))
	assert.True(t, ValidStatus(StatusRejected))
	assert.True(t, ValidStatus(StatusCancelled))
	assert.False(t, ValidStatus("confirmed"))
	assert.False(t, ValidStatus(""))
}

func TestValidResourceType(t *testing.T) {
	assert.True(t, ValidResourceType(ResourceRoom))
	assert.True(t, ValidResourceType(ResourceTransport))
	assert.False(t, ValidResourceType("bike"))
}
