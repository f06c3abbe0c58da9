// pkg/record/events.go
package record

import (
	"time"

	"github.com/armorclash/engine/pkg/geom"
)

// FireEvent represents a weapon being fired.
// ShooterID is the unit ID of the tank or soldier that fired.
type FireEvent struct {
	ShooterID    uint16
	Time         time.Time
	CaptureFrame uint
	Weapon       string
	Origin       geom.Vector2
	Angle        float64
	Damage       float64
}

// TrajectoryPoint is a single position sample in a projectile path.
type TrajectoryPoint struct {
	Position geom.Vector2
	Frame    uint
}

// ProjectilePath represents a projectile's full flight, recorded when it ends.
type ProjectilePath struct {
	ShooterID    uint16
	Time         time.Time // server time when fired
	CaptureFrame uint      // frame the projectile was fired
	EndFrame     uint
	Weapon       string
	Trajectory   []TrajectoryPoint
	EndPosition  geom.Vector2
	HitUnitID    *uint16 // set when the projectile struck a unit directly
	Exploded     bool
}

// HitEvent represents a unit taking damage.
// Victim and attacker are tanks or infantry, so both carry a ref per kind.
type HitEvent struct {
	ID                 uint
	Time               time.Time
	CaptureFrame       uint
	VictimTankID       *uint16
	VictimInfantryID   *uint16
	AttackerTankID     *uint16
	AttackerInfantryID *uint16
	Weapon             string
	Damage             float64
	Distance           float32
}

// KillEvent represents a unit being destroyed.
type KillEvent struct {
	ID               uint
	Time             time.Time
	CaptureFrame     uint
	VictimTankID     *uint16
	VictimInfantryID *uint16
	KillerTankID     *uint16
	KillerInfantryID *uint16
	Weapon           string
	Distance         float32
}

// Mine represents a landmine planted in the arena.
// ID shares the unit ID space with TankUnit and InfantryUnit.
type Mine struct {
	ID        uint16
	JoinTime  time.Time
	JoinFrame uint
	OwnerID   *uint16
	Position  geom.Vector2
	Radius    float64
	Damage    float64
}

// MineEvent represents a lifecycle event for a planted mine.
type MineEvent struct {
	CaptureFrame uint
	MineID       uint16
	EventType    string // "armed", "detonated", or "cleared"
	Position     geom.Vector2
	VictimID     *uint16 // unit that tripped the mine, only for "detonated"
}

// CrateDrop represents a power-up crate appearing in the arena.
type CrateDrop struct {
	ID        uint16
	JoinTime  time.Time
	JoinFrame uint
	Type      string
	Position  geom.Vector2
	Value     float64
	Duration  float64
}

// PickupEvent represents a power-up crate being collected.
type PickupEvent struct {
	Time         time.Time
	CaptureFrame uint
	CrateID      uint16
	Type         string
	Amount       float64
	Duration     float64
	TakerID      uint16
}

// ProgressEvent represents player progression: experience gained, a
// level-up, or a skill purchase.
type ProgressEvent struct {
	Time         time.Time
	CaptureFrame uint
	UnitID       uint16
	Kind         string // "experience", "level_up", or "skill"
	Amount       int    // XP gained, or skill points spent
	Level        int
	SkillID      string
	SkillLevel   int
}

// TickStats represents a periodic snapshot of simulation load.
type TickStats struct {
	Time         time.Time
	CaptureFrame uint
	StepMillis   float32
	Tanks        uint
	Infantry     uint
	Projectiles  uint
	Mines        uint
	Crates       uint
}

// GeneralEvent is a generic event
type GeneralEvent struct {
	ID           uint
	Time         time.Time
	CaptureFrame uint
	Name         string
	Message      string
	ExtraData    map[string]any
}
