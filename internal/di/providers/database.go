package providers

import (
	"github.com/samber/do/v2"

	"github.com/edubase4teachers/edubase-server/internal/config"
	"github.com/edubase4teachers/edubase-server/internal/logger"
	"github.com/edubase4teachers/edubase-server/internal/store"
	"github.com/edubase4teachers/edubase-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Store.Close()
}

// ProvideStore provides the SQLite-backed store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	st, err := sqlite.Open(cfg.Database.Path, log)
	if err != nil {
		return nil, err
	}

	log.Info("Database opened", "path", cfg.Database.Path)

	return &StoreHandle{Store: st}, nil
}
