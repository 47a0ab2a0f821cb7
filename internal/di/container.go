// Package di provides dependency injection configuration for the EduBase server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/edubase4teachers/edubase-server/internal/auth"
	"github.com/edubase4teachers/edubase-server/internal/config"
	"github.com/edubase4teachers/edubase-server/internal/di/providers"
	"github.com/edubase4teachers/edubase-server/internal/logger"
	"github.com/edubase4teachers/edubase-server/internal/service"
	"github.com/edubase4teachers/edubase-server/internal/uploads"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Storage layer
	do.Provide(injector, providers.ProvideUploadsStorage)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideMaterialService)
	do.Provide(injector, providers.ProvideStatsService)
	do.Provide(injector, providers.ProvideNewsService)

	// Workers
	do.Provide(injector, providers.ProvideUploadsWatcher)
	do.Provide(injector, providers.ProvideSessionCleanupJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*uploads.Storage](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.MaterialService](injector)
	_ = do.MustInvoke[*service.StatsService](injector)
	_ = do.MustInvoke[*providers.NewsServiceHandle](injector)

	// Workers
	_ = do.MustInvoke[*providers.UploadsWatcherHandle](injector)
	_ = do.MustInvoke[*providers.SessionCleanupJob](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
