package models

import "time"

type Booking struct {
	ID           int64      `json:"id"`
	ResourceID   int64      `json:"resource_id"`
	ResourceName string     `json:"resource_name"`
	ResourceType string     `json:"resource_type"`
	UserID       int64      `json:"user_id"`
	UserName     string     `json:"user_name"`
	Date         string     `json:"date"`       // YYYY-MM-DD
	StartTime    string     `json:"start_time"` // HH:MM
	EndTime      string     `json:"end_time"`   // HH:MM, exclusive
	PIC          string     `json:"pic"`
	Section      string     `json:"section"`
	Notes        string     `json:"notes,omitempty"`
	Status       string     `json:"status"` // pending, approved, rejected, cancelled
	ApproverID   int64      `json:"approver_id,omitempty"`
	ApproverName string     `json:"approver_name,omitempty"`
	DecidedAt    *time.Time `json:"decided_at,omitempty"`
	Feedback     string     `json:"feedback,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Version      int64      `json:"version"`
}

// Overlaps reports whether two half-open [start, end) windows intersect.
// Times are zero-padded HH:MM strings, so lexical order is time order.
func Overlaps(aStart, aEnd, bStart, bEnd string) bool {
	return aStart < bEnd && bStart < aEnd
}

// BookingFilter narrows listing, reporting and export queries.
// Zero values mean "no constraint".
type BookingFilter struct {
	Status       string
	ResourceType string
	ResourceID   int64
	UserID       int64
	DateFrom     string
	DateTo       string
}
