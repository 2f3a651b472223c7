package service

import (
	"context"

	"resbook/internal/domain"
	"resbook/internal/models"

	"github.com/rs/zerolog"
)

// NotificationService serves the read side of the in-app inbox. The
// unread counter goes through the cache with the database as source of
// truth, so a cache outage only costs latency.
type NotificationService struct {
	store  domain.NotificationStore
	cache  domain.CounterCache
	logger *zerolog.Logger
}

func NewNotificationService(store domain.NotificationStore, cache domain.CounterCache, logger *zerolog.Logger) *NotificationService {
	return &NotificationService{store: store, cache: cache, logger: logger}
}

func (s *NotificationService) List(ctx context.Context, userID int64) ([]models.Notification, error) {
	return s.store.ListNotifications(ctx, userID)
}

// MarkRead marks the recipient's own notification as read and drops
// the cached unread counter.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID int64) error {
	if err := s.store.MarkNotificationRead(ctx, id, userID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	if s.cache != nil {
		count, ok, err := s.cache.GetUnreadCount(ctx, userID)
		if err != nil {
			s.logger.Warn().Err(err).Int64("user_id", userID).Msg("unread cache read error")
		} else if ok {
			return count, nil
		}
	}

	count, err := s.store.UnreadNotificationCount(ctx, userID)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.SetUnreadCount(ctx, userID, count); err != nil {
			s.logger.Warn().Err(err).Int64("user_id", userID).Msg("unread cache write error")
		}
	}
	return count, nil
}

func (s *NotificationService) invalidate(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateUnreadCount(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("unread cache invalidate error")
	}
}
