// pkg/record/record.go
package record

import (
	"time"

	"github.com/armorclash/engine/pkg/geom"
)

// Arena represents a battle map.
type Arena struct {
	ID          uint
	Name        string
	DisplayName string
	Author      string
	Width       float64
	Height      float64
	Center      geom.Vector2 // world-space anchor of the arena origin
}

// Session represents a recorded battle.
type Session struct {
	ID            uint
	ScenarioName  string
	DisplayName   string
	Tag           string
	StartTime     time.Time
	ArenaID       uint
	Seed          uint64
	TickRate      float32 // simulation steps per second
	EngineVersion string
	Forces        ForceCount
	Modifiers     []Modifier
}

// ForceCount counts the units a session started with, by type.
type ForceCount struct {
	Tanks    uint8
	Riflemen uint8
	RPGs     uint8
	Snipers  uint8
	Medics   uint8
}

// Modifier is a battle rule modifier active for a session.
type Modifier struct {
	ID          uint
	Name        string
	Description string
}

// UploadMetadata describes an exported replay for the hub upload form.
type UploadMetadata struct {
	ArenaName      string
	ScenarioName   string
	BattleDuration float64 // seconds
	Tag            string
}
