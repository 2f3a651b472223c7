package service

import (
	"context"
	"errors"
	"time"

	"resbook/internal/database"
	"resbook/internal/domain"
	"resbook/internal/events"
	"resbook/internal/models"

	"github.com/rs/zerolog"
)

// ErrForbidden is returned when the actor lacks the role or ownership
// the operation requires.
var ErrForbidden = errors.New("operation not allowed for this user")

// CreateBookingRequest carries requester input for a new booking.
// ResourceType, when set, pins the expected catalog type so a room
// endpoint cannot book a vehicle by ID.
type CreateBookingRequest struct {
	ResourceID   int64
	ResourceType string
	UserID       int64
	Date         string
	StartTime    string
	EndTime      string
	PIC          string
	Section      string
	Notes        string
}

type BookingService struct {
	repo           domain.Repository
	users          domain.UserStore
	eventBus       domain.EventPublisher
	mirror         domain.MirrorWorker
	maxBookingDays int
	minAdvance     time.Duration
	now            func() time.Time
	logger         *zerolog.Logger
}

func NewBookingService(repo domain.Repository, users domain.UserStore, eventBus domain.EventPublisher, mirror domain.MirrorWorker, maxBookingDays, minAdvanceMinutes int, logger *zerolog.Logger) *BookingService {
	if maxBookingDays <= 0 {
		maxBookingDays = models.DefaultMaxBookingDays
	}
	return &BookingService{
		repo:           repo,
		users:          users,
		eventBus:       eventBus,
		mirror:         mirror,
		maxBookingDays: maxBookingDays,
		minAdvance:     time.Duration(minAdvanceMinutes) * time.Minute,
		now:            time.Now,
		logger:         logger,
	}
}

// normalizeTime parses an HH:MM string and reformats it zero-padded so
// that lexical comparison equals time comparison.
func normalizeTime(value string) (string, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return "", database.NewValidationError("invalid time %q; expected HH:MM", value)
	}
	return parsed.Format("15:04"), nil
}

func (s *BookingService) validateWindow(date, start, end string) (string, string, string, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", "", "", database.NewValidationError("invalid date %q; expected YYYY-MM-DD", date)
	}

	startNorm, err := normalizeTime(start)
	if err != nil {
		return "", "", "", err
	}
	endNorm, err := normalizeTime(end)
	if err != nil {
		return "", "", "", err
	}
	if startNorm >= endNorm {
		return "", "", "", database.NewValidationError("start_time must be before end_time")
	}

	// Calendar days compare lexically once zero-padded, and formatting
	// in the clock's own location keeps "today" right near midnight.
	dateNorm := day.Format("2006-01-02")
	now := s.now()
	today := now.Format("2006-01-02")
	if dateNorm < today {
		return "", "", "", database.ErrPastDate
	}
	if dateNorm > now.AddDate(0, 0, s.maxBookingDays).Format("2006-01-02") {
		return "", "", "", database.ErrDateTooFar
	}
	if dateNorm == today && s.minAdvance > 0 {
		cutoff := now.Add(s.minAdvance).Format("15:04")
		if startNorm < cutoff {
			return "", "", "", database.NewValidationError("start_time is too close to now")
		}
	}

	return dateNorm, startNorm, endNorm, nil
}

// Create validates the request, runs the transactional conflict check
// and publishes a booking_created event after the insert committed.
func (s *BookingService) Create(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	if req.PIC == "" {
		return nil, database.NewValidationError("pic is required")
	}

	date, start, end, err := s.validateWindow(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	resource, err := s.repo.GetResource(ctx, req.ResourceID)
	if err != nil {
		return nil, err
	}
	if !resource.IsActive {
		return nil, database.NewValidationError("resource %d is not available for booking", resource.ID)
	}
	if req.ResourceType != "" && resource.Type != req.ResourceType {
		return nil, database.NewValidationError("resource %d is not a %s", resource.ID, req.ResourceType)
	}

	user, err := s.users.GetUserByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrForbidden
	}

	booking := &models.Booking{
		ResourceID:   resource.ID,
		ResourceName: resource.Name,
		ResourceType: resource.Type,
		UserID:       user.ID,
		UserName:     user.Name,
		Date:         date,
		StartTime:    start,
		EndTime:      end,
		PIC:          req.PIC,
		Section:      req.Section,
		Notes:        req.Notes,
	}

	if err := s.repo.CreateBookingWithConflictCheck(ctx, booking); err != nil {
		return nil, err
	}

	s.publishEvent(events.EventBookingCreated, booking)
	s.enqueueMirrorUpsert(ctx, booking)
	return booking, nil
}

// List returns bookings matching the filter, validating filter values.
func (s *BookingService) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	if filter.Status != "" && !models.ValidStatus(filter.Status) {
		return nil, database.NewValidationError("unknown status %q", filter.Status)
	}
	if filter.ResourceType != "" && !models.ValidResourceType(filter.ResourceType) {
		return nil, database.NewValidationError("unknown resource type %q", filter.ResourceType)
	}
	return s.repo.ListBookings(ctx, filter)
}

func (s *BookingService) Get(ctx context.Context, id int64) (*models.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

// Decide applies an approver decision. Only admins may decide; the
// status transition itself is atomic in the repository. Auto-rejected
// siblings produce their own booking_decided events.
func (s *BookingService) Decide(ctx context.Context, bookingID int64, approver *models.User, decision, feedback string) (*models.Booking, error) {
	if approver == nil || !approver.IsAdmin() {
		return nil, ErrForbidden
	}

	booking, autoRejected, err := s.repo.DecideBooking(ctx, bookingID, approver.ID, approver.Name, decision, feedback)
	if err != nil {
		return nil, err
	}

	s.publishEvent(events.EventBookingDecided, booking)
	s.enqueueMirrorStatus(ctx, booking)
	for i := range autoRejected {
		s.publishEvent(events.EventBookingDecided, &autoRejected[i])
		s.enqueueMirrorStatus(ctx, &autoRejected[i])
	}

	return booking, nil
}

// Cancel withdraws the requester's own pending booking.
func (s *BookingService) Cancel(ctx context.Context, bookingID, actorID int64) (*models.Booking, error) {
	booking, err := s.repo.CancelBooking(ctx, bookingID, actorID)
	if errors.Is(err, database.ErrNotOwner) {
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, err
	}

	s.publishEvent(events.EventBookingCancelled, booking)
	s.enqueueMirrorStatus(ctx, booking)
	return booking, nil
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:    booking.ID,
		UserID:       booking.UserID,
		UserName:     booking.UserName,
		ResourceID:   booking.ResourceID,
		ResourceName: booking.ResourceName,
		ResourceType: booking.ResourceType,
		Date:         booking.Date,
		StartTime:    booking.StartTime,
		EndTime:      booking.EndTime,
		Status:       booking.Status,
		Feedback:     booking.Feedback,
		ApproverID:   booking.ApproverID,
		ApproverName: booking.ApproverName,
		DecidedAt:    booking.DecidedAt,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueMirrorUpsert(ctx context.Context, booking *models.Booking) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.EnqueueUpsert(ctx, booking); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("mirror enqueue error")
	}
}

func (s *BookingService) enqueueMirrorStatus(ctx context.Context, booking *models.Booking) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.EnqueueStatus(ctx, booking.ID, booking.Status); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("mirror enqueue error")
	}
}
