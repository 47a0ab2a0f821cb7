package news

import (
	"context"
	"sync"
	"time"

	"github.com/edubase4teachers/edubase-server/internal/domain"
	"github.com/edubase4teachers/edubase-server/internal/logger"
)

// Service serves the news feed from an in-process cache with an explicit
// TTL. Refresh happens lazily on the first request after expiry; concurrent
// requests during a refresh wait for the single in-flight fetch.
type Service struct {
	fetcher *Fetcher
	log     *logger.Logger
	ttl     time.Duration

	mu        sync.Mutex
	items     []domain.NewsItem
	fetchedAt time.Time
}

// NewService wraps a fetcher with TTL caching.
func NewService(fetcher *Fetcher, ttl time.Duration, log *logger.Logger) *Service {
	return &Service{fetcher: fetcher, log: log, ttl: ttl}
}

// Items returns the cached feed, refreshing it when stale. A failed refresh
// serves the previous items rather than an error, as long as any exist;
// a dead news site should never take the endpoint down with it.
func (s *Service) Items(ctx context.Context) ([]domain.NewsItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.items != nil && time.Since(s.fetchedAt) < s.ttl {
		return s.items, nil
	}

	items, err := s.fetcher.Fetch(ctx)
	if err != nil {
		if s.items != nil {
			s.log.Warn("news refresh failed, serving stale feed", "error", err)
			return s.items, nil
		}
		return nil, err
	}

	s.items = items
	s.fetchedAt = time.Now()
	return s.items, nil
}

// Close releases the underlying fetcher.
func (s *Service) Close() {
	s.fetcher.Close()
}
