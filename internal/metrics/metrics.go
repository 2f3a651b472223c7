package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resbook",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		},
		[]string{"endpoint", "code"},
	)

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resbook",
			Name:      "bookings_total",
			Help:      "Booking operations by outcome.",
		},
		[]string{"outcome"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resbook",
			Name:      "notifications_total",
			Help:      "Notification deliveries by channel and result.",
		},
		[]string{"channel", "result"},
	)

	mirrorTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resbook",
			Name:      "mirror_tasks_total",
			Help:      "Spreadsheet mirror tasks by result.",
		},
		[]string{"result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookings, notifications, mirrorTasks)
	})
}

// IncHTTP increments the request counter for an endpoint and status.
func IncHTTP(endpoint, code string) {
	httpRequests.WithLabelValues(endpoint, code).Inc()
}

// IncBooking counts a booking outcome such as created, conflict,
// approved, rejected or cancelled.
func IncBooking(outcome string) {
	bookings.WithLabelValues(outcome).Inc()
}

// IncNotification counts a delivery attempt per channel.
func IncNotification(channel, result string) {
	notifications.WithLabelValues(channel, result).Inc()
}

// IncMirrorTask counts a processed spreadsheet mirror task.
func IncMirrorTask(result string) {
	mirrorTasks.WithLabelValues(result).Inc()
}
