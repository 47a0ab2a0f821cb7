package api

import (
	"github.com/edubase4teachers/edubase-server/internal/news"
	"github.com/edubase4teachers/edubase-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth     *service.AuthService
	Material *service.MaterialService
	Stats    *service.StatsService
	News     *news.Service
}
