package domain

import (
	"context"
	"time"

	"resbook/internal/models"
)

// Repository is the booking ledger plus the resource catalog.
type Repository interface {
	CreateBookingWithConflictCheck(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
	DecideBooking(ctx context.Context, id int64, approverID int64, approverName, status, feedback string) (*models.Booking, []models.Booking, error)
	CancelBooking(ctx context.Context, id, userID int64) (*models.Booking, error)
	AggregateBookings(ctx context.Context, filter models.BookingFilter) (*models.ReportSummary, error)
	CountActiveBookings(ctx context.Context, resourceID int64) (int, error)

	CreateResource(ctx context.Context, resource *models.Resource) error
	UpsertResource(ctx context.Context, resource *models.Resource) error
	GetResource(ctx context.Context, id int64) (*models.Resource, error)
	GetActiveResources(ctx context.Context, resourceType string) ([]models.Resource, error)
	UpdateResource(ctx context.Context, resource *models.Resource) error
	DeactivateResource(ctx context.Context, id int64) error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdatePushToken(ctx context.Context, userID int64, token string) error
	UpdateUserPhone(ctx context.Context, userID int64, phone string) error
	SetUserActive(ctx context.Context, userID int64, active bool) error
	GetAdmins(ctx context.Context) ([]models.User, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	MarkChannelsSent(ctx context.Context, id int64, emailSent, pushSent bool) error
	ListNotifications(ctx context.Context, userID int64) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID int64) error
	UnreadNotificationCount(ctx context.Context, userID int64) (int64, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// CounterCache caches unread notification counters and throttles login
// attempts. Implementations may lose data; the database stays the
// source of truth.
type CounterCache interface {
	GetUnreadCount(ctx context.Context, userID int64) (int64, bool, error)
	SetUnreadCount(ctx context.Context, userID int64, count int64) error
	InvalidateUnreadCount(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Mailer delivers transactional email, best-effort.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Pusher delivers a push message to a stored device token, best-effort.
type Pusher interface {
	Push(ctx context.Context, token, title, body string) error
}

// ApproverMessenger reaches the approver on-call channel (Telegram).
type ApproverMessenger interface {
	NotifyApprovers(ctx context.Context, text string) error
}

// MirrorWorker accepts ledger mutations destined for the spreadsheet
// mirror. Enqueueing must never block the caller.
type MirrorWorker interface {
	EnqueueUpsert(ctx context.Context, booking *models.Booking) error
	EnqueueStatus(ctx context.Context, bookingID int64, status string) error
}
