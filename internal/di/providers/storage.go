package providers

import (
	"os"

	"github.com/samber/do/v2"

	"github.com/reelstitch/reelstitch/internal/cache"
	"github.com/reelstitch/reelstitch/internal/config"
	"github.com/reelstitch/reelstitch/internal/history"
	"github.com/reelstitch/reelstitch/internal/logger"
)

// CacheStoreHandle wraps the probe cache with shutdown capability.
type CacheStoreHandle struct {
	*cache.Store
}

// Shutdown implements do.Shutdownable.
func (h *CacheStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideProbeCache provides the badger-backed probe result cache.
func ProvideProbeCache(i do.Injector) (*CacheStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		return nil, err
	}

	store, err := cache.New(cfg.CachePath(), log.Logger)
	if err != nil {
		return nil, err
	}

	return &CacheStoreHandle{Store: store}, nil
}

// HistoryHandle wraps the run history store with shutdown capability.
type HistoryHandle struct {
	*history.Store
}

// Shutdown implements do.Shutdownable.
func (h *HistoryHandle) Shutdown() error {
	return h.Close()
}

// ProvideHistory provides the sqlite-backed run history store.
func ProvideHistory(i do.Injector) (*HistoryHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		return nil, err
	}

	store, err := history.Open(cfg.HistoryPath(), log.Logger)
	if err != nil {
		return nil, err
	}

	return &HistoryHandle{Store: store}, nil
}
