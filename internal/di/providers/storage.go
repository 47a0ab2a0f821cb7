package providers

import (
	"github.com/samber/do/v2"

	"github.com/edubase4teachers/edubase-server/internal/config"
	"github.com/edubase4teachers/edubase-server/internal/logger"
	"github.com/edubase4teachers/edubase-server/internal/uploads"
)

// ProvideUploadsStorage provides the on-disk storage for material files.
func ProvideUploadsStorage(i do.Injector) (*uploads.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	storage, err := uploads.NewStorage(cfg.Uploads.Dir, cfg.Uploads.MaxSizeBytes)
	if err != nil {
		return nil, err
	}

	log.Info("Uploads storage ready",
		"dir", cfg.Uploads.Dir,
		"max_size_bytes", cfg.Uploads.MaxSizeBytes,
	)

	return storage, nil
}
