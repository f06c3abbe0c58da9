// Package gormrecorder implements the recorder.Backend interface using GORM
// with internal queues and a background DB writer goroutine. It serves both
// Postgres and local SQLite connections.
package gormrecorder

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/armorclash/engine/internal/cache"
	"github.com/armorclash/engine/internal/database"
	"github.com/armorclash/engine/internal/logging"
	"github.com/armorclash/engine/internal/model"
	"github.com/armorclash/engine/internal/model/convert"
	"github.com/armorclash/engine/internal/queue"
	"github.com/armorclash/engine/pkg/record"

	"gorm.io/gorm"
)

// Dependencies holds all dependencies for the GORM recording backend.
type Dependencies struct {
	DB         *gorm.DB
	UnitCache  *cache.UnitCache
	LogManager *logging.SlogManager

	// IsDatabaseValid gates the standalone Postgres connection attempt when
	// no DB was injected. With a nil DB and a false result the backend runs
	// queue-only.
	IsDatabaseValid func() bool
	// ShouldSaveLocal reports whether records target a local SQLite file
	// instead of Postgres. Selects the migration set and disables
	// trajectory geometry, which needs PostGIS.
	ShouldSaveLocal func() bool
	// DBInsertsPaused suspends the writer goroutine, e.g. while the SQLite
	// backend dumps its in-memory database to disk.
	DBInsertsPaused func() bool
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	Tanks           *queue.Queue[model.Tank]
	TankStates      *queue.Queue[model.TankState]
	Infantry        *queue.Queue[model.Infantry]
	InfantryStates  *queue.Queue[model.InfantryState]
	Mines           *queue.Queue[model.Mine]
	MineEvents      *queue.Queue[model.MineEvent]
	Crates          *queue.Queue[model.Crate]
	PickupEvents    *queue.Queue[model.PickupEvent]
	FireEvents      *queue.Queue[model.FireEvent]
	ProjectilePaths *queue.Queue[model.ProjectilePath]
	GeneralEvents   *queue.Queue[model.GeneralEvent]
	HitEvents       *queue.Queue[model.HitEvent]
	KillEvents      *queue.Queue[model.KillEvent]
	ProgressEvents  *queue.Queue[model.ProgressEvent]
	TickStats       *queue.Queue[model.TickStats]
}

func newQueues() *queues {
	return &queues{
		Tanks:           queue.New[model.Tank](),
		TankStates:      queue.New[model.TankState](),
		Infantry:        queue.New[model.Infantry](),
		InfantryStates:  queue.New[model.InfantryState](),
		Mines:           queue.New[model.Mine](),
		MineEvents:      queue.New[model.MineEvent](),
		Crates:          queue.New[model.Crate](),
		PickupEvents:    queue.New[model.PickupEvent](),
		FireEvents:      queue.New[model.FireEvent](),
		ProjectilePaths: queue.New[model.ProjectilePath](),
		GeneralEvents:   queue.New[model.GeneralEvent](),
		HitEvents:       queue.New[model.HitEvent](),
		KillEvents:      queue.New[model.KillEvent](),
		ProgressEvents:  queue.New[model.ProgressEvent](),
		TickStats:       queue.New[model.TickStats](),
	}
}

// Backend implements recorder.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps      Dependencies
	queues    *queues
	sessionID atomic.Uint64
	stopChan  chan struct{}
	dbReady   bool

	lastWriteDuration atomic.Int64 // nanoseconds of the last non-empty write cycle
}

// New creates a new GORM recording backend.
func New(deps Dependencies) *Backend {
	return &Backend{
		deps: deps,
	}
}

// Init creates internal queues, runs schema migration, and starts the DB
// writer goroutine. If no DB was injected via Dependencies and the database
// reports valid, it opens its own Postgres connection. With no DB at all the
// backend runs queue-only.
func (b *Backend) Init() error {
	b.queues = newQueues()
	b.stopChan = make(chan struct{})

	if b.deps.DB == nil && b.isDatabaseValid() {
		db, err := database.GetPostgresDBStandalone()
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to access sql interface: %w", err)
		}
		if err = sqlDB.Ping(); err != nil {
			return fmt.Errorf("failed to validate connection: %w", err)
		}
		sqlDB.SetMaxOpenConns(10)
		b.deps.DB = db
	}

	if b.deps.DB != nil {
		if err := b.setupDB(); err != nil {
			return fmt.Errorf("failed to setup DB: %w", err)
		}
		b.dbReady = true
	}

	b.startDBWriters()
	return nil
}

// setupDB migrates tables and creates default server settings if they don't exist.
func (b *Backend) setupDB() error {
	db := b.deps.DB
	log := b.deps.LogManager.Logger()

	if !db.Migrator().HasTable(&model.ServerInfo{}) {
		if err := db.AutoMigrate(&model.ServerInfo{}); err != nil {
			log.Error("Failed to create server_infos table", "error", err)
			return fmt.Errorf("failed to auto-migrate ServerInfo: %w", err)
		}
		if err := db.Create(&model.ServerInfo{
			GroupName:        "ArmorClash",
			GroupDescription: "ArmorClash battle server",
			GroupLogo:        "https://armorclash.io/logo.png",
			GroupWebsite:     "https://armorclash.io",
		}).Error; err != nil {
			return fmt.Errorf("failed to create server_infos entry: %w", err)
		}
	}

	if db.Name() == "postgres" {
		if err := db.Exec(`CREATE Extension IF NOT EXISTS postgis;`).Error; err != nil {
			return fmt.Errorf("failed to create PostGIS Extension: %w", err)
		}
		log.Info("PostGIS Extension created")
	}

	log.Info("Migrating schema")
	var err error
	if b.shouldSaveLocal() {
		err = db.AutoMigrate(model.DatabaseModelsSQLite...)
	} else {
		err = db.AutoMigrate(model.DatabaseModels...)
	}
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.Info("Database setup complete")
	return nil
}

// Close stops the DB writer goroutine.
func (b *Backend) Close() error {
	if b.stopChan != nil {
		close(b.stopChan)
	}
	return nil
}

func (b *Backend) isDatabaseValid() bool {
	return b.deps.IsDatabaseValid != nil && b.deps.IsDatabaseValid()
}

func (b *Backend) shouldSaveLocal() bool {
	return b.deps.ShouldSaveLocal != nil && b.deps.ShouldSaveLocal()
}

func (b *Backend) insertsPaused() bool {
	return b.deps.DBInsertsPaused != nil && b.deps.DBInsertsPaused()
}

// StartSession performs modifier get-or-create, arena get-or-insert, and
// session create in the DB. The DB-generated IDs are written back to the
// record types so the caller and every other backend see them.
func (b *Backend) StartSession(session *record.Session, arena *record.Arena) error {
	if b.deps.DB == nil {
		return nil
	}

	db := b.deps.DB
	log := b.deps.LogManager.Logger()

	gormSession := convert.RecordToSession(*session)
	gormArena := convert.RecordToArena(*arena)

	// Modifier get-or-create
	for i, mod := range gormSession.Modifiers {
		err := db.Where("name = ?", mod.Name).First(&gormSession.Modifiers[i]).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				if err = db.Create(&gormSession.Modifiers[i]).Error; err != nil {
					log.Error("Failed to create modifier", "modifier", mod.Name, "error", err)
					return fmt.Errorf("failed to create modifier %s: %w", mod.Name, err)
				}
			} else {
				return fmt.Errorf("failed to find modifier %s: %w", mod.Name, err)
			}
		}
	}

	// Arena get-or-insert
	created, err := gormArena.GetOrInsert(db)
	if err != nil {
		return fmt.Errorf("failed to get or insert arena %s: %w", gormArena.Name, err)
	}
	if created {
		log.Info("Registered new arena", "arena", gormArena.Name)
	}

	// Session create
	gormSession.Arena = gormArena
	gormSession.ArenaID = gormArena.ID
	if err := db.Create(&gormSession).Error; err != nil {
		return fmt.Errorf("failed to insert new session: %w", err)
	}

	// Assign DB-generated IDs back to record types
	session.ID = gormSession.ID
	session.ArenaID = gormArena.ID
	arena.ID = gormArena.ID

	// Store session ID for the DB writer goroutine
	b.sessionID.Store(uint64(gormSession.ID))

	return nil
}

// SetSessionID sets the current session ID for the DB writer (used by CLI tools).
func (b *Backend) SetSessionID(id uint) {
	b.sessionID.Store(uint64(id))
}

// EndSession synchronously drains every queue so no records are lost when the
// engine shuts down right after the battle.
func (b *Backend) EndSession() error {
	if b.deps.DB == nil {
		return nil
	}
	b.writeAll()
	return nil
}

// AddTank converts a tank registration to GORM and pushes to the write queue.
func (b *Backend) AddTank(t *record.TankUnit) error {
	gormObj := convert.RecordToTank(*t)
	b.queues.Tanks.Push(gormObj)
	return nil
}

// AddInfantry converts an infantry registration to GORM and pushes to the write queue.
func (b *Backend) AddInfantry(s *record.InfantryUnit) error {
	gormObj := convert.RecordToInfantry(*s)
	b.queues.Infantry.Push(gormObj)
	return nil
}

// AddMine converts a mine registration to GORM and pushes to the write queue.
func (b *Backend) AddMine(m *record.Mine) error {
	gormObj := convert.RecordToMine(*m)
	b.queues.Mines.Push(gormObj)
	return nil
}

// AddCrate converts a crate registration to GORM and pushes to the write queue.
func (b *Backend) AddCrate(c *record.CrateDrop) error {
	gormObj := convert.RecordToCrate(*c)
	b.queues.Crates.Push(gormObj)
	return nil
}

// RecordTankState converts and queues a tank state sample.
func (b *Backend) RecordTankState(s *record.TankState) error {
	gormObj := convert.RecordToTankState(*s)
	b.queues.TankStates.Push(gormObj)
	return nil
}

// RecordInfantryState converts and queues an infantry state sample.
func (b *Backend) RecordInfantryState(s *record.InfantryState) error {
	gormObj := convert.RecordToInfantryState(*s)
	b.queues.InfantryStates.Push(gormObj)
	return nil
}

// RecordFireEvent converts and queues a fire event.
func (b *Backend) RecordFireEvent(e *record.FireEvent) error {
	gormObj := convert.RecordToFireEvent(*e)
	b.queues.FireEvents.Push(gormObj)
	return nil
}

// RecordProjectilePath converts and queues a projectile path. Local SQLite
// has no PostGIS, so the LineStringM trajectory cannot be stored there and
// local-save mode drops paths entirely.
func (b *Backend) RecordProjectilePath(p *record.ProjectilePath) error {
	if b.shouldSaveLocal() {
		return nil
	}
	gormObj := convert.RecordToProjectilePath(*p)
	b.queues.ProjectilePaths.Push(gormObj)
	return nil
}

// RecordGeneralEvent converts and queues a general event.
func (b *Backend) RecordGeneralEvent(e *record.GeneralEvent) error {
	gormObj := convert.RecordToGeneralEvent(*e)
	b.queues.GeneralEvents.Push(gormObj)
	return nil
}

// RecordHitEvent converts and queues a hit event.
func (b *Backend) RecordHitEvent(e *record.HitEvent) error {
	gormObj := convert.RecordToHitEvent(*e)
	b.queues.HitEvents.Push(gormObj)
	return nil
}

// RecordKillEvent converts and queues a kill event.
func (b *Backend) RecordKillEvent(e *record.KillEvent) error {
	gormObj := convert.RecordToKillEvent(*e)
	b.queues.KillEvents.Push(gormObj)
	return nil
}

// RecordMineEvent converts and queues a mine lifecycle event.
func (b *Backend) RecordMineEvent(e *record.MineEvent) error {
	gormObj := convert.RecordToMineEvent(*e)
	b.queues.MineEvents.Push(gormObj)
	return nil
}

// RecordPickupEvent converts and queues a crate pickup event.
func (b *Backend) RecordPickupEvent(e *record.PickupEvent) error {
	gormObj := convert.RecordToPickupEvent(*e)
	b.queues.PickupEvents.Push(gormObj)
	return nil
}

// RecordProgressEvent converts and queues a progression event.
func (b *Backend) RecordProgressEvent(e *record.ProgressEvent) error {
	gormObj := convert.RecordToProgressEvent(*e)
	b.queues.ProgressEvents.Push(gormObj)
	return nil
}

// RecordTickStats converts and queues a simulation load snapshot.
func (b *Backend) RecordTickStats(t *record.TickStats) error {
	gormObj := convert.RecordToTickStats(*t)
	b.queues.TickStats.Push(gormObj)
	return nil
}

// GetTankByID returns a registered tank from the unit cache.
func (b *Backend) GetTankByID(id uint16) (record.TankUnit, bool) {
	if b.deps.UnitCache == nil {
		return record.TankUnit{}, false
	}
	return b.deps.UnitCache.GetTank(id)
}

// GetInfantryByID returns a registered infantry unit from the unit cache.
func (b *Backend) GetInfantryByID(id uint16) (record.InfantryUnit, bool) {
	if b.deps.UnitCache == nil {
		return record.InfantryUnit{}, false
	}
	return b.deps.UnitCache.GetInfantry(id)
}

// GetLastDBWriteDuration returns how long the last non-empty write cycle took.
func (b *Backend) GetLastDBWriteDuration() time.Duration {
	return time.Duration(b.lastWriteDuration.Load())
}

// WriteQueueLengths reports the current depth of each write queue for the
// performance monitor.
func (b *Backend) WriteQueueLengths() model.WriteQueueLengths {
	return model.WriteQueueLengths{
		Tanks:           uint16(b.queues.Tanks.Len()),
		Infantry:        uint16(b.queues.Infantry.Len()),
		TankStates:      uint16(b.queues.TankStates.Len()),
		InfantryStates:  uint16(b.queues.InfantryStates.Len()),
		FireEvents:      uint16(b.queues.FireEvents.Len()),
		ProjectilePaths: uint16(b.queues.ProjectilePaths.Len()),
		GeneralEvents:   uint16(b.queues.GeneralEvents.Len()),
		HitEvents:       uint16(b.queues.HitEvents.Len()),
		KillEvents:      uint16(b.queues.KillEvents.Len()),
		MineEvents:      uint16(b.queues.MineEvents.Len()),
		PickupEvents:    uint16(b.queues.PickupEvents.Len()),
		ProgressEvents:  uint16(b.queues.ProgressEvents.Len()),
		TickStats:       uint16(b.queues.TickStats.Len()),
	}
}

// pendingCount sums the depth of every write queue.
func (b *Backend) pendingCount() int {
	return b.queues.Tanks.Len() +
		b.queues.Infantry.Len() +
		b.queues.Mines.Len() +
		b.queues.Crates.Len() +
		b.queues.TankStates.Len() +
		b.queues.InfantryStates.Len() +
		b.queues.FireEvents.Len() +
		b.queues.ProjectilePaths.Len() +
		b.queues.GeneralEvents.Len() +
		b.queues.HitEvents.Len() +
		b.queues.KillEvents.Len() +
		b.queues.MineEvents.Len() +
		b.queues.PickupEvents.Len() +
		b.queues.ProgressEvents.Len() +
		b.queues.TickStats.Len()
}

// writeQueue writes all items from a queue to the database in a transaction.
// Failed batches are requeued for the next cycle.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log *slog.Logger, prepare func([]T), onSuccess func([]T)) {
	if q.Empty() {
		return
	}

	tx := db.Begin()
	items := q.GetAndEmpty()
	if prepare != nil {
		prepare(items)
	}
	if err := tx.Create(&items).Error; err != nil {
		log.Error("Failed to write batch", "queue", name, "count", len(items), "error", err)
		tx.Rollback()
		q.Push(items...)
		return
	}

	tx.Commit()
	if onSuccess != nil {
		onSuccess(items)
	}
}

// writeAll drains every queue into the DB. Safe to call concurrently with the
// writer goroutine since each drain takes disjoint batches.
func (b *Backend) writeAll() {
	if b.pendingCount() == 0 {
		return
	}

	db := b.deps.DB
	log := b.deps.LogManager.Logger()

	// Read sessionID once per write cycle
	sessionID := uint(b.sessionID.Load())
	started := time.Now()

	// stampSessionID helpers
	stampTanks := func(items []model.Tank) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}
	stampInfantry := func(items []model.Infantry) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}
	stampMines := func(items []model.Mine) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}
	stampCrates := func(items []model.Crate) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}
	stampTankStates := func(items []model.TankState) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}
	stampInfantryStates := func(items []model.InfantryState) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}
	stampFireEvents := func(items []model.FireEvent) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}
	stampProjectilePaths := func(items []model.ProjectilePath) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}
	stampGeneralEvents := func(items []model.GeneralEvent) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}
	stampHitEvents := func(items []model.HitEvent) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}
	stampKillEvents := func(items []model.KillEvent) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}
	stampMineEvents := func(items []model.MineEvent) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}
	stampPickupEvents := func(items []model.PickupEvent) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}
	stampProgressEvents := func(items []model.ProgressEvent) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}
	stampTickStats := func(items []model.TickStats) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}

	// Units first so states and events never reference a unit the DB has not seen
	writeQueue(db, b.queues.Tanks, "tanks", log, stampTanks, nil)
	writeQueue(db, b.queues.Infantry, "infantry", log, stampInfantry, nil)
	writeQueue(db, b.queues.Mines, "mines", log, stampMines, nil)
	writeQueue(db, b.queues.Crates, "crates", log, stampCrates, nil)

	// State samples
	writeQueue(db, b.queues.TankStates, "tank states", log, stampTankStates, nil)
	writeQueue(db, b.queues.InfantryStates, "infantry states", log, stampInfantryStates, nil)

	// Events
	writeQueue(db, b.queues.FireEvents, "fire events", log, stampFireEvents, nil)
	writeQueue(db, b.queues.ProjectilePaths, "projectile paths", log, stampProjectilePaths, nil)
	writeQueue(db, b.queues.GeneralEvents, "general events", log, stampGeneralEvents, nil)
	writeQueue(db, b.queues.HitEvents, "hit events", log, stampHitEvents, nil)
	writeQueue(db, b.queues.KillEvents, "kill events", log, stampKillEvents, nil)
	writeQueue(db, b.queues.MineEvents, "mine events", log, stampMineEvents, nil)
	writeQueue(db, b.queues.PickupEvents, "pickup events", log, stampPickupEvents, nil)
	writeQueue(db, b.queues.ProgressEvents, "progress events", log, stampProgressEvents, nil)
	writeQueue(db, b.queues.TickStats, "tick stats", log, stampTickStats, nil)

	b.lastWriteDuration.Store(int64(time.Since(started)))
}

// startDBWriters starts the background goroutine that periodically drains
// queues into the DB.
func (b *Backend) startDBWriters() {
	go func() {
		for {
			select {
			case <-b.stopChan:
				return
			default:
			}

			if !b.dbReady {
				time.Sleep(1 * time.Second)
				continue
			}
			if b.insertsPaused() {
				time.Sleep(1 * time.Second)
				continue
			}

			b.writeAll()
			time.Sleep(2 * time.Second)
		}
	}()
}
