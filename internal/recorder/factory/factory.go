// Package factory selects and constructs the configured recording backend.
// It lives outside package recorder so backend packages can import the
// Backend interface without a cycle.
package factory

import (
	"fmt"

	"github.com/armorclash/engine/internal/cache"
	"github.com/armorclash/engine/internal/config"
	"github.com/armorclash/engine/internal/database"
	"github.com/armorclash/engine/internal/logging"
	"github.com/armorclash/engine/internal/recorder"
	gormrecorder "github.com/armorclash/engine/internal/recorder/gorm"
	"github.com/armorclash/engine/internal/recorder/memory"
	sqliterecorder "github.com/armorclash/engine/internal/recorder/sqlite"
	"github.com/armorclash/engine/internal/recorder/websocket"
)

// NewBackend creates a recording backend based on configuration. The database
// manager is only consulted for the postgres backend and may be nil otherwise;
// when Connect fell back to a local SQLite DB the gorm backend follows it.
func NewBackend(cfg config.StorageConfig, dbManager *database.Manager, units *cache.UnitCache, logManager *logging.SlogManager) (recorder.Backend, error) {
	switch cfg.Type {
	case "postgres":
		deps := gormrecorder.Dependencies{
			UnitCache:       units,
			LogManager:      logManager,
			IsDatabaseValid: func() bool { return true },
			ShouldSaveLocal: func() bool { return false },
		}
		if dbManager != nil {
			deps.DB = dbManager.DB
			deps.IsDatabaseValid = func() bool { return dbManager.IsValid }
			deps.ShouldSaveLocal = func() bool { return dbManager.ShouldSaveLocal }
		}
		return gormrecorder.New(deps), nil
	case "sqlite":
		return sqliterecorder.New(sqliterecorder.Config{
			DumpInterval: cfg.SQLite.DumpInterval,
			DumpPath:     cfg.SQLite.DumpPath,
		}, units, logManager)
	case "memory":
		return memory.New(cfg.Memory), nil
	case "websocket":
		return websocket.New(websocket.Config{
			URL:    cfg.Websocket.URL,
			Secret: cfg.Websocket.Secret,
		}), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
