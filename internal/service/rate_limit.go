package service

import (
	"context"
	"time"

	"messenger/internal/repository"
	"messenger/pkg/logger"
)

type RateLimitService interface {
	// Allow counts one hit for key and reports whether it stayed within
	// limit hits per window, along with the hits left.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error)
}

type rateLimitService struct {
	rateLimitRepo repository.RateLimitRepository
	log           logger.Logger
}

func NewRateLimitService(rateLimitRepo repository.RateLimitRepository, log logger.Logger) RateLimitService {
	return &rateLimitService{
		rateLimitRepo: rateLimitRepo,
		log:           log,
	}
}

func (s *rateLimitService) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error) {
	count, err := s.rateLimitRepo.Increment(ctx, key, window)
	if err != nil {
		s.log.Error("Rate limit increment failed", "key", key, "error", err)
		return false, 0, err
	}
	if count > int64(limit) {
		return false, 0, nil
	}
	return true, limit - int(count), nil
}
