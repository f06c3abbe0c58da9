// Package sqliterecorder implements the recorder.Backend interface using an
// in-memory SQLite database with periodic disk dumps via VACUUM INTO.
// It wraps the GORM backend via composition — the only SQLite-specific concerns
// are: (a) creating the in-memory DB, (b) skipping trajectory geometry
// (no PostGIS), (c) periodic disk dump, and (d) schema migration without PostGIS.
package sqliterecorder

import (
	"fmt"
	"time"

	"github.com/armorclash/engine/internal/cache"
	"github.com/armorclash/engine/internal/database"
	"github.com/armorclash/engine/internal/logging"
	gormrecorder "github.com/armorclash/engine/internal/recorder/gorm"
	"github.com/armorclash/engine/pkg/record"

	"gorm.io/gorm"
)

// Config holds configuration for the SQLite recording backend.
type Config struct {
	DumpInterval time.Duration
	DumpPath     string // Path for periodic VACUUM INTO dumps
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormrecorder.Backend
	db       *gorm.DB
	cfg      Config
	log      *logging.SlogManager
	stopChan chan struct{}
}

// New creates a new SQLite recording backend.
func New(cfg Config, unitCache *cache.UnitCache, logManager *logging.SlogManager) (*Backend, error) {
	db, err := database.GetSqliteDBStandalone("")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}

	gormBackend := gormrecorder.New(gormrecorder.Dependencies{
		DB:              db,
		UnitCache:       unitCache,
		LogManager:      logManager,
		ShouldSaveLocal: func() bool { return true },
	})

	return &Backend{
		Backend:  gormBackend,
		db:       db,
		cfg:      cfg,
		log:      logManager,
		stopChan: make(chan struct{}),
	}, nil
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		go b.dumpLoop()
	}

	return nil
}

// Close stops the dump goroutine and closes the embedded GORM backend.
func (b *Backend) Close() error {
	close(b.stopChan)
	return b.Backend.Close()
}

// EndSession drains the write queues and takes a final disk dump so the
// finished battle survives process exit.
func (b *Backend) EndSession() error {
	if err := b.Backend.EndSession(); err != nil {
		return err
	}
	if b.cfg.DumpPath != "" {
		if err := database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath); err != nil {
			return fmt.Errorf("failed to dump SQLite DB at session end: %w", err)
		}
	}
	return nil
}

// RecordProjectilePath is a no-op — SQLite doesn't support LineStringM (PostGIS geometry).
func (b *Backend) RecordProjectilePath(p *record.ProjectilePath) error {
	return nil
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via VACUUM INTO.
// VACUUM INTO creates a point-in-time snapshot, so no pause mechanism is needed.
func (b *Backend) dumpLoop() {
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath); err != nil {
				b.log.Logger().Error("Error dumping SQLite DB to disk", "error", err)
			} else {
				b.log.Logger().Debug("Dumped SQLite DB to disk", "duration", time.Since(start))
			}
		}
	}
}
