package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/edubase4teachers/edubase-server/internal/auth"
	"github.com/edubase4teachers/edubase-server/internal/config"
	"github.com/edubase4teachers/edubase-server/internal/logger"
	"github.com/edubase4teachers/edubase-server/internal/news"
	"github.com/edubase4teachers/edubase-server/internal/service"
	"github.com/edubase4teachers/edubase-server/internal/uploads"
)

// ProvideAuthService provides the authentication service and promotes any
// configured admin emails that already have accounts.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewAuthService(storeHandle.Store, tokens, cfg.Auth.AdminEmails, log)

	if err := svc.PromoteConfiguredAdmins(context.Background()); err != nil {
		log.Warn("Admin promotion at startup failed", "error", err)
	}

	return svc, nil
}

// ProvideMaterialService provides the teaching material service.
func ProvideMaterialService(i do.Injector) (*service.MaterialService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	storage := do.MustInvoke[*uploads.Storage](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewMaterialService(storeHandle.Store, storage, log), nil
}

// ProvideStatsService provides the platform statistics service.
func ProvideStatsService(i do.Injector) (*service.StatsService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)

	return service.NewStatsService(storeHandle.Store), nil
}

// NewsServiceHandle wraps the news service with shutdown capability.
type NewsServiceHandle struct {
	*news.Service
}

// Shutdown implements do.Shutdownable.
func (h *NewsServiceHandle) Shutdown() error {
	if h.Service != nil {
		h.Service.Close()
	}
	return nil
}

// ProvideNewsService provides the cached education news feed. An empty feed
// URL disables the feature; the endpoint then serves an empty list.
func ProvideNewsService(i do.Injector) (*NewsServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.News.FeedURL == "" {
		log.Info("News feed disabled, no feed URL configured")
		return &NewsServiceHandle{Service: nil}, nil
	}

	svc := news.NewService(news.NewFetcher(cfg.News.FeedURL), cfg.News.CacheTTL, log)

	log.Info("News feed enabled", "url", cfg.News.FeedURL, "cache_ttl", cfg.News.CacheTTL)

	return &NewsServiceHandle{Service: svc}, nil
}
