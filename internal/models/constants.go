package models

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

const (
	RoleRequester = "requester"
	RoleAdmin     = "admin"
)

const (
	ResourceRoom      = "room"
	ResourceTransport = "transport"
)

const (
	NotifBookingCreated   = "booking_created"
	NotifBookingDecided   = "booking_decided"
	NotifBookingCancelled = "booking_cancelled"
)

const (
	// DefaultMaxBookingDays ограничивает горизонт бронирования
	DefaultMaxBookingDays = 365

	// DefaultTokenTTLHours время жизни токена доступа
	DefaultTokenTTLHours = 24

	// DefaultUnreadCacheTTL время жизни кэша счетчика непрочитанных в Redis
	DefaultUnreadCacheTTL = 30 * 60 // 30 минут в секундах

	// DefaultLoginRateLimit количество попыток входа в окне
	DefaultLoginRateLimit = 10

	// DefaultLoginRateWindow окно ограничения попыток входа
	DefaultLoginRateWindow = 60 // 1 минута в секундах

	// DefaultDispatchTimeout таймаут на внешний канал уведомлений
	DefaultDispatchTimeoutSeconds = 10

	// MirrorQueueSize размер очереди воркера зеркала
	MirrorQueueSize = 1000
)

// ValidStatus reports whether s is one of the booking lifecycle states.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// ValidResourceType reports whether t names a bookable resource kind.
func ValidResourceType(t string) bool {
	return t == ResourceRoom || t == ResourceTransport
}
