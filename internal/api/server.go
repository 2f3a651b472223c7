package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"resbook/internal/auth"
	"resbook/internal/config"
	"resbook/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server exposes the booking API over HTTP.
type Server struct {
	cfg           config.ServerConfig
	server        *http.Server
	logger        *zerolog.Logger
	tokens        *auth.TokenManager
	users         *service.UserService
	bookings      *service.BookingService
	resources     *service.ResourceService
	notifications *service.NotificationService
	reports       *service.ReportService
	exportsPath   string
}

type Services struct {
	Tokens        *auth.TokenManager
	Users         *service.UserService
	Bookings      *service.BookingService
	Resources     *service.ResourceService
	Notifications *service.NotificationService
	Reports       *service.ReportService
}

func NewServer(cfg config.ServerConfig, services Services, exportsPath string, logger *zerolog.Logger) *Server {
	apiLogger := logger.With().Str("component", "api").Logger()

	s := &Server{
		cfg:           cfg,
		logger:        &apiLogger,
		tokens:        services.Tokens,
		users:         services.Users,
		bookings:      services.Bookings,
		resources:     services.Resources,
		notifications: services.Notifications,
		reports:       services.Reports,
		exportsPath:   exportsPath,
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.routes(),
		ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.WriteTimeout) * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(newIPRateLimiter(s.cfg.RateLimit).middleware)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		// Everything below needs a bearer token
		r.Group(func(r chi.Router) {
			r.Use(requireAuth(s.tokens))

			r.Get("/users/me", s.handleMe)
			r.Patch("/users/me", s.handleUpdateProfile)
			r.Patch("/users/me/push-token", s.handlePushToken)

			r.Get("/resources/rooms", s.handleListRooms)
			r.Get("/resources/transports", s.handleListTransports)

			r.Post("/bookings/room", s.handleCreateRoomBooking)
			r.Post("/bookings/transport", s.handleCreateTransportBooking)
			r.Get("/bookings/room", s.handleListRoomBookings)
			r.Get("/bookings/transport", s.handleListTransportBookings)
			r.Get("/bookings/{id}", s.handleGetBooking)
			r.Patch("/bookings/{id}/cancel", s.handleCancelBooking)

			r.Get("/notifications", s.handleListNotifications)
			r.Get("/notifications/unread-count", s.handleUnreadCount)
			r.Patch("/notifications/{id}/read", s.handleMarkRead)

			// Admin surface
			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)

				r.Post("/resources", s.handleCreateResource)
				r.Patch("/resources/{id}", s.handleUpdateResource)
				r.Delete("/resources/{id}", s.handleDeactivateResource)

				r.Patch("/bookings/{id}/decision", s.handleDecideBooking)

				r.Get("/reports/summary", s.handleReportSummary)
				r.Get("/reports/export", s.handleReportExport)
			})
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
