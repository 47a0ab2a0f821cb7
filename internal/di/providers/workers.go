package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/edubase4teachers/edubase-server/internal/config"
	"github.com/edubase4teachers/edubase-server/internal/logger"
	"github.com/edubase4teachers/edubase-server/internal/watcher"
)

// UploadsWatcherHandle wraps the uploads watcher with shutdown capability.
type UploadsWatcherHandle struct {
	*watcher.Watcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *UploadsWatcherHandle) Shutdown() error {
	h.cancel()
	return nil
}

// ProvideUploadsWatcher provides the uploads directory watcher. Removal
// events surface files deleted behind the server's back, so attachment rows
// pointing at missing bytes show up in the logs instead of as broken links.
func ProvideUploadsWatcher(i do.Injector) (*UploadsWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	w, err := watcher.New(cfg.Uploads.Dir, log)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("Uploads watcher stopped", "error", err)
		}
	}()

	go func() {
		for {
			select {
			case event := <-w.Events():
				switch event.Type {
				case watcher.EventRemoved:
					log.Warn("Stored upload removed outside the server",
						"file", event.StoredName,
					)
				case watcher.EventAdded:
					log.Debug("File appeared in uploads dir",
						"file", event.StoredName,
					)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Uploads watcher started", "dir", cfg.Uploads.Dir)

	return &UploadsWatcherHandle{Watcher: w, cancel: cancel}, nil
}

// SessionCleanupJob runs periodic session cleanup.
type SessionCleanupJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *SessionCleanupJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideSessionCleanupJob provides the periodic session cleanup job.
func ProvideSessionCleanupJob(i do.Injector) (*SessionCleanupJob, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		// Initial cleanup on startup
		if count, err := storeHandle.DeleteExpiredSessions(ctx); err != nil {
			log.Warn("Initial session cleanup failed", "error", err)
		} else if count > 0 {
			log.Info("Initial session cleanup completed", "deleted", count)
		}

		for {
			select {
			case <-ticker.C:
				if count, err := storeHandle.DeleteExpiredSessions(ctx); err != nil {
					log.Warn("Session cleanup failed", "error", err)
				} else if count > 0 {
					log.Info("Session cleanup completed", "deleted", count)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Session cleanup job started")

	return &SessionCleanupJob{cancel: cancel}, nil
}
