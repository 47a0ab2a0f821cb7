package sqlite

import (
	"context"

	"github.com/edubase4teachers/edubase-server/internal/domain"
)

// GetStats returns the public instance counters in one round trip.
func (s *Store) GetStats(ctx context.Context) (*domain.Stats, error) {
	var stats domain.Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM materials),
			(SELECT COALESCE(SUM(downloads), 0) FROM materials)`).
		Scan(&stats.Users, &stats.Materials, &stats.Downloads)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
