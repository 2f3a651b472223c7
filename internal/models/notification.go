package models

import "time"

type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	BookingID int64     `json:"booking_id,omitempty"`
	Type      string    `json:"type"` // booking_created, booking_decided, booking_cancelled
	Title     string    `json:"title"`
	Message   string    `json:"message,omitempty"`
	EmailSent bool      `json:"email_sent"`
	PushSent  bool      `json:"push_sent"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
