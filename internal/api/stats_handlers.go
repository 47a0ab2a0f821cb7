package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerStatsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Public instance statistics",
		Tags:        []string{"System"},
	}, s.handleGetStats)
}

// StatsResponse holds the public instance counters.
type StatsResponse struct {
	Users     int64 `json:"users" doc:"Registered teachers"`
	Materials int64 `json:"materials" doc:"Shared materials"`
	Downloads int64 `json:"downloads" doc:"Total downloads"`
}

// StatsOutput wraps the stats response for Huma.
type StatsOutput struct {
	Body StatsResponse
}

func (s *Server) handleGetStats(ctx context.Context, _ *struct{}) (*StatsOutput, error) {
	stats, err := s.services.Stats.GetStats(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsOutput{Body: StatsResponse{
		Users:     stats.Users,
		Materials: stats.Materials,
		Downloads: stats.Downloads,
	}}, nil
}
