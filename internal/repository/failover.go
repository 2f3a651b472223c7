package repository

import (
	"context"
	"sync/atomic"
	"time"

	"resbook/internal/domain"

	"github.com/rs/zerolog"
)

// FailoverCounterCache routes cache calls to the primary (Redis) and
// switches to the in-memory fallback when it fails. Recovery is
// probed at most once a minute.
type FailoverCounterCache struct {
	primary   domain.CounterCache
	fallback  domain.CounterCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverCounterCache(primary, fallback domain.CounterCache, logger *zerolog.Logger) *FailoverCounterCache {
	return &FailoverCounterCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// usePrimary reports whether the next call should go to the primary,
// either because it is healthy or because the recovery probe is due.
func (r *FailoverCounterCache) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	last := time.Unix(r.lastCheck.Load(), 0)
	return time.Since(last) > time.Minute
}

func (r *FailoverCounterCache) markFailure(err error) {
	r.logger.Error().Err(err).Msg("Primary counter cache failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().Unix())
}

func (r *FailoverCounterCache) markRecovered() {
	if r.isDown.CompareAndSwap(true, false) {
		r.logger.Info().Msg("Primary counter cache recovered")
	}
}

func (r *FailoverCounterCache) GetUnreadCount(ctx context.Context, userID int64) (int64, bool, error) {
	if r.usePrimary() {
		count, ok, err := r.primary.GetUnreadCount(ctx, userID)
		if err == nil {
			r.markRecovered()
			return count, ok, nil
		}
		r.markFailure(err)
	}
	return r.fallback.GetUnreadCount(ctx, userID)
}

func (r *FailoverCounterCache) SetUnreadCount(ctx context.Context, userID int64, count int64) error {
	if r.usePrimary() {
		err := r.primary.SetUnreadCount(ctx, userID, count)
		if err == nil {
			r.markRecovered()
			return nil
		}
		r.markFailure(err)
	}
	return r.fallback.SetUnreadCount(ctx, userID, count)
}

func (r *FailoverCounterCache) InvalidateUnreadCount(ctx context.Context, userID int64) error {
	if r.usePrimary() {
		err := r.primary.InvalidateUnreadCount(ctx, userID)
		if err == nil {
			r.markRecovered()
			return nil
		}
		r.markFailure(err)
	}
	return r.fallback.InvalidateUnreadCount(ctx, userID)
}

func (r *FailoverCounterCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			r.markRecovered()
			return allowed, nil
		}
		r.markFailure(err)
	}
	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}
