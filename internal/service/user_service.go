package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"resbook/internal/auth"
	"resbook/internal/database"
	"resbook/internal/domain"
	"resbook/internal/models"

	"github.com/rs/zerolog"
)

// ErrTooManyAttempts is returned when the login rate limit for an
// email is exhausted.
var ErrTooManyAttempts = errors.New("too many login attempts, try again later")

type UserService struct {
	users       domain.UserStore
	cache       domain.CounterCache
	tokens      *auth.TokenManager
	adminEmails map[string]struct{}
	rateLimit   int
	rateWindow  time.Duration
	logger      *zerolog.Logger
}

func NewUserService(users domain.UserStore, cache domain.CounterCache, tokens *auth.TokenManager, adminEmails []string, rateLimit, rateWindowSeconds int, logger *zerolog.Logger) *UserService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		admins[strings.ToLower(strings.TrimSpace(email))] = struct{}{}
	}
	if rateLimit <= 0 {
		rateLimit = models.DefaultLoginRateLimit
	}
	if rateWindowSeconds <= 0 {
		rateWindowSeconds = models.DefaultLoginRateWindow
	}
	return &UserService{
		users:       users,
		cache:       cache,
		tokens:      tokens,
		adminEmails: admins,
		rateLimit:   rateLimit,
		rateWindow:  time.Duration(rateWindowSeconds) * time.Second,
		logger:      logger,
	}
}

// Register creates an account. Emails on the admin allowlist get the
// admin role immediately, everyone else starts as a requester.
func (s *UserService) Register(ctx context.Context, name, email, phone, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return nil, database.NewValidationError("name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, database.NewValidationError("a valid email is required")
	}
	if len(password) < 8 {
		return nil, database.NewValidationError("password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := models.RoleRequester
	if _, ok := s.adminEmails[email]; ok {
		role = models.RoleAdmin
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Str("role", user.Role).Msg("user registered")
	return user, nil
}

// Login verifies credentials and issues a bearer token. Attempts are
// rate limited per email so credential stuffing cannot hammer bcrypt.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if s.cache != nil {
		allowed, err := s.cache.CheckRateLimit(ctx, "login:"+email, s.rateLimit, s.rateWindow)
		if err != nil {
			s.logger.Warn().Err(err).Msg("login rate limit check error")
		} else if !allowed {
			return nil, "", ErrTooManyAttempts
		}
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return nil, "", auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if !user.IsActive {
		return nil, "", auth.ErrInvalidCredentials
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, "", auth.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}
	return user, token, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.users.GetUserByID(ctx, id)
}

// SetPushToken stores the device push token used by the dispatcher.
// An empty token unregisters the device.
func (s *UserService) SetPushToken(ctx context.Context, userID int64, token string) error {
	return s.users.UpdatePushToken(ctx, userID, token)
}

// SetPhone updates the caller's contact phone and returns the fresh
// profile.
func (s *UserService) SetPhone(ctx context.Context, userID int64, phone string) (*models.User, error) {
	if err := s.users.UpdateUserPhone(ctx, userID, strings.TrimSpace(phone)); err != nil {
		return nil, err
	}
	return s.users.GetUserByID(ctx, userID)
}
