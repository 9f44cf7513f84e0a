package memory

import (
	"context"
	"time"
)

type rateLimitRepo Store

func (r *rateLimitRepo) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c, ok := s.counters[key]
	if !ok || now.After(c.expiresAt) {
		c = &counter{expiresAt: now.Add(window)}
		s.counters[key] = c
	}
	c.value++
	return c.value, nil
}
