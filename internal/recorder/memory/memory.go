// internal/recorder/memory/memory.go
package memory

import (
	"sync"

	"github.com/armorclash/engine/internal/config"
	v1 "github.com/armorclash/engine/internal/recorder/memory/export/v1"
	"github.com/armorclash/engine/pkg/record"
)

// Backend stores battle data in memory and exports a replay JSON file when
// the session ends. Unit IDs arrive already assigned by the battle service.
type Backend struct {
	cfg     config.MemoryConfig
	session *record.Session
	arena   *record.Arena

	tanks    map[uint16]*v1.TankRecord     // keyed by unit ID
	infantry map[uint16]*v1.InfantryRecord // keyed by unit ID
	mines    map[uint16]*record.Mine       // keyed by unit ID
	crates   map[uint16]*record.CrateDrop  // keyed by unit ID

	generalEvents  []record.GeneralEvent
	hitEvents      []record.HitEvent
	killEvents     []record.KillEvent
	mineEvents     []record.MineEvent
	pickupEvents   []record.PickupEvent
	progressEvents []record.ProgressEvent
	tickStats      []record.TickStats
	paths          []record.ProjectilePath

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:      cfg,
		tanks:    make(map[uint16]*v1.TankRecord),
		infantry: make(map[uint16]*v1.InfantryRecord),
		mines:    make(map[uint16]*record.Mine),
		crates:   make(map[uint16]*record.CrateDrop),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording a new battle
func (b *Backend) StartSession(session *record.Session, arena *record.Arena) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.session = session
	b.arena = arena

	// Reset all collections
	b.tanks = make(map[uint16]*v1.TankRecord)
	b.infantry = make(map[uint16]*v1.InfantryRecord)
	b.mines = make(map[uint16]*record.Mine)
	b.crates = make(map[uint16]*record.CrateDrop)
	b.generalEvents = nil
	b.hitEvents = nil
	b.killEvents = nil
	b.mineEvents = nil
	b.pickupEvents = nil
	b.progressEvents = nil
	b.tickStats = nil
	b.paths = nil
	b.lastExportPath = ""

	return nil
}

// EndSession finalizes and exports the battle data
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.exportJSON()
}

// AddTank registers a new tank
func (b *Backend) AddTank(t *record.TankUnit) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tanks[t.ID] = &v1.TankRecord{
		Unit:   *t,
		States: make([]record.TankState, 0),
	}
	return nil
}

// AddInfantry registers a new infantry soldier
func (b *Backend) AddInfantry(s *record.InfantryUnit) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.infantry[s.ID] = &v1.InfantryRecord{
		Unit:   *s,
		States: make([]record.InfantryState, 0),
	}
	return nil
}

// AddMine registers a planted landmine
func (b *Backend) AddMine(m *record.Mine) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	mine := *m
	b.mines[m.ID] = &mine
	return nil
}

// AddCrate registers a dropped power-up crate
func (b *Backend) AddCrate(c *record.CrateDrop) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	crate := *c
	b.crates[c.ID] = &crate
	return nil
}

// GetTankByID looks up a tank by its unit ID
func (b *Backend) GetTankByID(id uint16) (*record.TankUnit, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if rec, ok := b.tanks[id]; ok {
		return &rec.Unit, true
	}
	return nil, false
}

// GetInfantryByID looks up an infantry soldier by its unit ID
func (b *Backend) GetInfantryByID(id uint16) (*record.InfantryUnit, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if rec, ok := b.infantry[id]; ok {
		return &rec.Unit, true
	}
	return nil, false
}

// GetMineByID looks up a mine by its unit ID
func (b *Backend) GetMineByID(id uint16) (*record.Mine, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if m, ok := b.mines[id]; ok {
		return m, true
	}
	return nil, false
}

// GetCrateByID looks up a crate by its unit ID
func (b *Backend) GetCrateByID(id uint16) (*record.CrateDrop, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if c, ok := b.crates[id]; ok {
		return c, true
	}
	return nil, false
}

// RecordTankState records a tank state update
func (b *Backend) RecordTankState(s *record.TankState) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if rec, ok := b.tanks[s.UnitID]; ok {
		rec.States = append(rec.States, *s)
	}
	return nil // silently ignore states for unknown tanks
}

// RecordInfantryState records an infantry state update
func (b *Backend) RecordInfantryState(s *record.InfantryState) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if rec, ok := b.infantry[s.UnitID]; ok {
		rec.States = append(rec.States, *s)
	}
	return nil
}

// RecordFireEvent records a shot fired by a tank or soldier
func (b *Backend) RecordFireEvent(e *record.FireEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if rec, ok := b.tanks[e.ShooterID]; ok {
		rec.FiredEvents = append(rec.FiredEvents, *e)
		return nil
	}
	if rec, ok := b.infantry[e.ShooterID]; ok {
		rec.FiredEvents = append(rec.FiredEvents, *e)
	}
	return nil
}

// RecordProjectilePath records a completed projectile flight
func (b *Backend) RecordProjectilePath(p *record.ProjectilePath) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.paths = append(b.paths, *p)
	return nil
}

// RecordGeneralEvent records a general event
func (b *Backend) RecordGeneralEvent(e *record.GeneralEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.generalEvents = append(b.generalEvents, *e)
	return nil
}

// RecordHitEvent records a hit event
func (b *Backend) RecordHitEvent(e *record.HitEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hitEvents = append(b.hitEvents, *e)
	return nil
}

// RecordKillEvent records a kill event
func (b *Backend) RecordKillEvent(e *record.KillEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.killEvents = append(b.killEvents, *e)
	return nil
}

// RecordMineEvent records a mine lifecycle event
func (b *Backend) RecordMineEvent(e *record.MineEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mineEvents = append(b.mineEvents, *e)
	return nil
}

// RecordPickupEvent records a power-up pickup
func (b *Backend) RecordPickupEvent(e *record.PickupEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pickupEvents = append(b.pickupEvents, *e)
	return nil
}

// RecordProgressEvent records a progression event
func (b *Backend) RecordProgressEvent(e *record.ProgressEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.progressEvents = append(b.progressEvents, *e)
	return nil
}

// RecordTickStats records a periodic simulation load sample
func (b *Backend) RecordTickStats(t *record.TickStats) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tickStats = append(b.tickStats, *t)
	return nil
}

// GetExportedFilePath returns the path of the last exported replay file,
// or an empty string if nothing has been exported yet
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// GetExportMetadata returns upload metadata for the recorded battle
func (b *Backend) GetExportMetadata() record.UploadMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.session == nil {
		return record.UploadMetadata{}
	}

	meta := record.UploadMetadata{
		ScenarioName: b.session.ScenarioName,
		Tag:          b.session.Tag,
	}
	if b.arena != nil {
		meta.ArenaName = b.arena.Name
	}

	// Battle duration in seconds from the highest recorded frame
	var maxFrame uint = 0
	for _, rec := range b.tanks {
		for _, state := range rec.States {
			if state.CaptureFrame > maxFrame {
				maxFrame = state.CaptureFrame
			}
		}
	}
	for _, rec := range b.infantry {
		for _, state := range rec.States {
			if state.CaptureFrame > maxFrame {
				maxFrame = state.CaptureFrame
			}
		}
	}
	for _, ts := range b.tickStats {
		if ts.CaptureFrame > maxFrame {
			maxFrame = ts.CaptureFrame
		}
	}
	if b.session.TickRate > 0 {
		meta.BattleDuration = float64(maxFrame) / float64(b.session.TickRate)
	}

	return meta
}
