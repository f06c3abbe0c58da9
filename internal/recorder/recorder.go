// internal/recorder/recorder.go
package recorder

import "github.com/armorclash/engine/pkg/record"

// Backend is the interface all recording implementations must satisfy.
// Unit IDs are assigned by the battle service before registration, so every
// backend sees the same shared ID space.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management
	StartSession(session *record.Session, arena *record.Arena) error
	EndSession() error

	// Unit registration
	AddTank(t *record.TankUnit) error
	AddInfantry(s *record.InfantryUnit) error
	AddMine(m *record.Mine) error
	AddCrate(c *record.CrateDrop) error

	// State recording
	RecordTankState(s *record.TankState) error
	RecordInfantryState(s *record.InfantryState) error

	// Event recording
	RecordFireEvent(e *record.FireEvent) error
	RecordProjectilePath(p *record.ProjectilePath) error
	RecordGeneralEvent(e *record.GeneralEvent) error
	RecordHitEvent(e *record.HitEvent) error
	RecordKillEvent(e *record.KillEvent) error
	RecordMineEvent(e *record.MineEvent) error
	RecordPickupEvent(e *record.PickupEvent) error
	RecordProgressEvent(e *record.ProgressEvent) error
	RecordTickStats(t *record.TickStats) error
}

// Uploadable is an optional interface for recording backends that produce
// replay files suitable for upload to the battle hub.
type Uploadable interface {
	GetExportedFilePath() string
	GetExportMetadata() record.UploadMetadata
}
