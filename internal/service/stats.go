package service

import (
	"context"

	"github.com/edubase4teachers/edubase-server/internal/domain"
	"github.com/edubase4teachers/edubase-server/internal/store"
)

// StatsService exposes the public instance counters.
type StatsService struct {
	store store.Store
}

// NewStatsService creates a new stats service.
func NewStatsService(st store.Store) *StatsService {
	return &StatsService{store: st}
}

// GetStats returns the public counters shown on the landing page.
func (s *StatsService) GetStats(ctx context.Context) (*domain.Stats, error) {
	return s.store.GetStats(ctx)
}
