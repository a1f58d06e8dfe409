package stores

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/singleflight"
)

// Service serves store settings with a cache in front of the
// repository. Concurrent misses for the same store collapse into one
// database read via singleflight.
type Service struct {
	repo   Repository
	cache  *Cache
	logger *slog.Logger
	group  singleflight.Group
}

// NewService constructs a Service.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// GetSettings returns the settings for a store, preferring the cache.
func (s *Service) GetSettings(ctx context.Context, storeID int64) (*Settings, error) {
	if cached, err := s.cache.Get(ctx, storeID); err != nil {
		s.logger.Warn("settings cache read failed", slog.Int64("store_id", storeID), slog.Any("error", err))
	} else if cached != nil {
		return cached, nil
	}

	result, err, _ := s.group.Do(strconv.FormatInt(storeID, 10), func() (interface{}, error) {
		settings, err := s.repo.GetSettings(ctx, storeID)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, settings); err != nil {
			s.logger.Warn("settings cache write failed", slog.Int64("store_id", storeID), slog.Any("error", err))
		}
		return settings, nil
	})
	if err != nil {
		return nil, fmt.Errorf("stores: get settings: %w", err)
	}
	return result.(*Settings), nil
}

// UpdateSettings applies partial changes and invalidates the cache.
func (s *Service) UpdateSettings(ctx context.Context, storeID int64, input UpdateSettingsInput) (*Settings, error) {
	if err := s.repo.UpdateSettings(ctx, storeID, input); err != nil {
		return nil, fmt.Errorf("stores: update settings: %w", err)
	}
	if err := s.cache.Invalidate(ctx, storeID); err != nil {
		s.logger.Warn("settings cache invalidate failed", slog.Int64("store_id", storeID), slog.Any("error", err))
	}
	return s.GetSettings(ctx, storeID)
}
