// pkg/record/units.go
package record

import (
	"time"

	"github.com/armorclash/engine/pkg/geom"
)

// TankUnit represents a tank registered with a session.
// ID is the engine-assigned sequential unit ID.
type TankUnit struct {
	ID        uint16
	JoinTime  time.Time
	JoinFrame uint
	Name      string
	ClassName string
	IsPlayer  bool
	MaxHealth float64
	Armor     float64
}

// InfantryUnit represents an infantry soldier registered with a session.
// ID shares the unit ID space with TankUnit.
type InfantryUnit struct {
	ID        uint16
	JoinTime  time.Time
	JoinFrame uint
	Name      string
	Class     string // rifleman, rpg, sniper, medic
	Weapon    string
	MaxHealth float64
	Squad     string
}

// TankState represents tank state at a point in time.
// UnitID references the TankUnit's ID.
type TankState struct {
	UnitID       uint16
	Time         time.Time
	CaptureFrame uint
	Position     geom.Vector2
	Velocity     geom.Vector2
	BodyAngle    float64
	TurretAngle  float64
	Health       float64
	Alive        bool
	Boosts       string // comma-separated active power-up types
}

// InfantryState represents infantry state at a point in time.
// UnitID references the InfantryUnit's ID.
type InfantryState struct {
	UnitID       uint16
	Time         time.Time
	CaptureFrame uint
	Position     geom.Vector2
	Bearing      float64
	Health       float64
	Behavior     string // patrol, engage, retreat, dead
	Alive        bool
}
