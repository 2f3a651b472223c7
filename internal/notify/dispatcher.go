package notify

import (
	"context"
	"fmt"
	"time"

	"resbook/internal/domain"
	"resbook/internal/events"
	"resbook/internal/metrics"
	"resbook/internal/models"

	"github.com/rs/zerolog"
)

// Dispatcher fans booking events out to notification channels. The
// in-app record is written first and must succeed; push, email and
// the Telegram approver channel are best-effort after that.
type Dispatcher struct {
	users     domain.UserStore
	store     domain.NotificationStore
	cache     domain.CounterCache
	mailer    domain.Mailer
	pusher    domain.Pusher
	messenger domain.ApproverMessenger
	timeout   time.Duration
	logger    *zerolog.Logger
}

func NewDispatcher(users domain.UserStore, store domain.NotificationStore, cache domain.CounterCache, mailer domain.Mailer, pusher domain.Pusher, messenger domain.ApproverMessenger, timeoutSeconds int, logger *zerolog.Logger) *Dispatcher {
	if timeoutSeconds <= 0 {
		timeoutSeconds = models.DefaultDispatchTimeoutSeconds
	}
	return &Dispatcher{
		users:     users,
		store:     store,
		cache:     cache,
		mailer:    mailer,
		pusher:    pusher,
		messenger: messenger,
		timeout:   time.Duration(timeoutSeconds) * time.Second,
		logger:    logger,
	}
}

// SubscribeAll wires the dispatcher into the event bus.
func (d *Dispatcher) SubscribeAll(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingCreated, d.handleCreated)
	bus.Subscribe(events.EventBookingDecided, d.handleDecided)
	bus.Subscribe(events.EventBookingCancelled, d.handleCancelled)
}

func describe(p events.BookingEventPayload) string {
	return fmt.Sprintf("%s on %s %s-%s", p.ResourceName, p.Date, p.StartTime, p.EndTime)
}

// handleCreated alerts every active admin about the new pending
// request, plus the Telegram approver channel.
func (d *Dispatcher) handleCreated(event *events.Event) error {
	payload, err := events.DecodePayload(event)
	if err != nil {
		d.logger.Error().Err(err).Str("event_type", event.Type).Msg("decode event error")
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	admins, err := d.users.GetAdmins(ctx)
	if err != nil {
		d.logger.Error().Err(err).Msg("load admins error")
		return err
	}

	title := "New booking request"
	message := fmt.Sprintf("%s requested %s", payload.UserName, describe(payload))

	for i := range admins {
		d.deliver(ctx, &admins[i], payload.BookingID, models.NotifBookingCreated, title, message)
	}

	if d.messenger != nil {
		if err := d.messenger.NotifyApprovers(ctx, message); err != nil {
			d.logger.Error().Err(err).Msg("telegram notify error")
			metrics.IncNotification("telegram", "error")
		} else {
			metrics.IncNotification("telegram", "ok")
		}
	}
	return nil
}

// handleDecided tells the requester the outcome, including the
// auto-reject case where an overlapping request was approved.
func (d *Dispatcher) handleDecided(event *events.Event) error {
	payload, err := events.DecodePayload(event)
	if err != nil {
		d.logger.Error().Err(err).Str("event_type", event.Type).Msg("decode event error")
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	requester, err := d.users.GetUserByID(ctx, payload.UserID)
	if err != nil {
		d.logger.Error().Err(err).Int64("user_id", payload.UserID).Msg("load requester error")
		return err
	}

	title := fmt.Sprintf("Booking %s", payload.Status)
	message := fmt.Sprintf("Your booking of %s was %s", describe(payload), payload.Status)
	if payload.Feedback != "" {
		message += ": " + payload.Feedback
	}

	d.deliver(ctx, requester, payload.BookingID, models.NotifBookingDecided, title, message)
	return nil
}

// handleCancelled lets the approvers know a pending request was
// withdrawn so they do not review it.
func (d *Dispatcher) handleCancelled(event *events.Event) error {
	payload, err := events.DecodePayload(event)
	if err != nil {
		d.logger.Error().Err(err).Str("event_type", event.Type).Msg("decode event error")
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	admins, err := d.users.GetAdmins(ctx)
	if err != nil {
		d.logger.Error().Err(err).Msg("load admins error")
		return err
	}

	title := "Booking cancelled"
	message := fmt.Sprintf("%s cancelled the request for %s", payload.UserName, describe(payload))

	for i := range admins {
		d.deliver(ctx, &admins[i], payload.BookingID, models.NotifBookingCancelled, title, message)
	}
	return nil
}

// deliver writes the in-app record, then attempts push and email.
// The in-app insert is the source of truth for unread counts; channel
// failures are recorded on the notification but never propagate.
func (d *Dispatcher) deliver(ctx context.Context, recipient *models.User, bookingID int64, notifType, title, message string) {
	notification := &models.Notification{
		UserID:    recipient.ID,
		BookingID: bookingID,
		Type:      notifType,
		Title:     title,
		Message:   message,
	}
	if err := d.store.CreateNotification(ctx, notification); err != nil {
		d.logger.Error().Err(err).Int64("user_id", recipient.ID).Msg("create notification error")
		metrics.IncNotification("inapp", "error")
		return
	}
	metrics.IncNotification("inapp", "ok")

	if d.cache != nil {
		if err := d.cache.InvalidateUnreadCount(ctx, recipient.ID); err != nil {
			d.logger.Warn().Err(err).Int64("user_id", recipient.ID).Msg("unread cache invalidate error")
		}
	}

	pushSent := false
	if d.pusher != nil && recipient.PushToken != "" {
		if err := d.pusher.Push(ctx, recipient.PushToken, title, message); err != nil {
			d.logger.Error().Err(err).Int64("user_id", recipient.ID).Msg("push send error")
			metrics.IncNotification("push", "error")
		} else {
			pushSent = true
			metrics.IncNotification("push", "ok")
		}
	}

	emailSent := false
	if d.mailer != nil && recipient.Email != "" {
		if err := d.mailer.Send(ctx, recipient.Email, title, message); err != nil {
			d.logger.Error().Err(err).Int64("user_id", recipient.ID).Msg("email send error")
			metrics.IncNotification("email", "error")
		} else {
			emailSent = true
			metrics.IncNotification("email", "ok")
		}
	}

	if pushSent || emailSent {
		if err := d.store.MarkChannelsSent(ctx, notification.ID, emailSent, pushSent); err != nil {
			d.logger.Error().Err(err).Int64("notification_id", notification.ID).Msg("mark channels error")
		}
	}
}
