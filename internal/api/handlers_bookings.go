package api

import (
	"errors"
	"net/http"
	"strconv"

	"resbook/internal/database"
	"resbook/internal/metrics"
	"resbook/internal/models"
	"resbook/internal/service"

	"github.com/go-chi/chi/v5"
)

type createBookingRequest struct {
	ResourceID int64  `json:"resource_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	PIC        string `json:"pic"`
	Section    string `json:"section"`
	Notes      string `json:"notes"`
}

func (s *Server) handleCreateRoomBooking(w http.ResponseWriter, r *http.Request) {
	s.createBooking(w, r, models.ResourceRoom)
}

func (s *Server) handleCreateTransportBooking(w http.ResponseWriter, r *http.Request) {
	s.createBooking(w, r, models.ResourceTransport)
}

func (s *Server) createBooking(w http.ResponseWriter, r *http.Request, resourceType string) {
	identity, _ := identityFrom(r.Context())

	var req createBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}

	booking, err := s.bookings.Create(r.Context(), service.CreateBookingRequest{
		ResourceID:   req.ResourceID,
		ResourceType: resourceType,
		UserID:       identity.UserID,
		Date:         req.Date,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		PIC:          req.PIC,
		Section:      req.Section,
		Notes:        req.Notes,
	})
	if err != nil {
		var conflict *database.ConflictError
		if errors.As(err, &conflict) {
			metrics.IncBooking("conflict")
		}
		respondError(w, s.logger, err)
		return
	}

	metrics.IncBooking("created")
	writeJSON(w, http.StatusCreated, booking)
}

func (s *Server) handleListRoomBookings(w http.ResponseWriter, r *http.Request) {
	s.listBookings(w, r, models.ResourceRoom)
}

func (s *Server) handleListTransportBookings(w http.ResponseWriter, r *http.Request) {
	s.listBookings(w, r, models.ResourceTransport)
}

func (s *Server) listBookings(w http.ResponseWriter, r *http.Request, resourceType string) {
	identity, _ := identityFrom(r.Context())
	query := r.URL.Query()

	filter := models.BookingFilter{
		Status:       query.Get("status"),
		ResourceType: resourceType,
		DateFrom:     query.Get("date_from"),
		DateTo:       query.Get("date_to"),
	}
	if raw := query.Get("resource_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(w, s.logger, database.NewValidationError("invalid resource_id"))
			return
		}
		filter.ResourceID = id
	}

	// Requesters only ever see their own bookings; admins may filter
	// by any user.
	if identity.IsAdmin() {
		if raw := query.Get("user_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				respondError(w, s.logger, database.NewValidationError("invalid user_id"))
				return
			}
			filter.UserID = id
		}
	} else {
		filter.UserID = identity.UserID
	}

	bookings, err := s.bookings.List(r.Context(), filter)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	id, err := pathID(r)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}

	booking, err := s.bookings.Get(r.Context(), id)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}

	if booking.UserID != identity.UserID && !identity.IsAdmin() {
		respondError(w, s.logger, service.ErrForbidden)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

type decisionRequest struct {
	Decision string `json:"decision"` // approved or rejected
	Feedback string `json:"feedback"`
}

func (s *Server) handleDecideBooking(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	id, err := pathID(r)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}

	var req decisionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}

	approver, err := s.users.GetByID(r.Context(), identity.UserID)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}

	booking, err := s.bookings.Decide(r.Context(), id, approver, req.Decision, req.Feedback)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}

	metrics.IncBooking(booking.Status)
	writeJSON(w, http.StatusOK, booking)
}

func (s *Server) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	id, err := pathID(r)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}

	booking, err := s.bookings.Cancel(r.Context(), id, identity.UserID)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}

	metrics.IncBooking("cancelled")
	writeJSON(w, http.StatusOK, booking)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, database.NewValidationError("invalid id")
	}
	return id, nil
}
