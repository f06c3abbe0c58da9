// Package v1 contains the v1 export format for ArmorClash battle data.
// This format is consumed by the armorclash-web replay viewer.
package v1

// Export is the root JSON structure for v1 format
type Export struct {
	EngineVersion string   `json:"engineVersion"`
	ScenarioName  string   `json:"scenarioName"`
	DisplayName   string   `json:"displayName"`
	ArenaName     string   `json:"arenaName"`
	ArenaAuthor   string   `json:"arenaAuthor"`
	ArenaWidth    float64  `json:"arenaWidth"`
	ArenaHeight   float64  `json:"arenaHeight"`
	TickRate      float32  `json:"tickRate"`
	EndFrame      uint     `json:"endFrame"`
	Tags          string   `json:"tags"`
	Ticks         []Tick   `json:"ticks"`
	Entities      []Entity `json:"entities"`
	Events        [][]any  `json:"events"`
}

// Tick represents a periodic simulation load sample for a frame
type Tick struct {
	FrameNum      uint    `json:"frameNum"`
	SystemTimeUTC string  `json:"systemTimeUTC"`
	StepMillis    float32 `json:"stepMillis"`
	Tanks         uint    `json:"tanks"`
	Infantry      uint    `json:"infantry"`
	Projectiles   uint    `json:"projectiles"`
	Mines         uint    `json:"mines"`
	Crates        uint    `json:"crates"`
}

// Entity represents a tank, soldier, mine or crate
type Entity struct {
	ID            uint16  `json:"id"`
	Name          string  `json:"name"`
	Squad         string  `json:"squad,omitempty"`
	IsPlayer      int     `json:"isPlayer"`
	Type          string  `json:"type"`
	Class         string  `json:"class,omitempty"`
	StartFrameNum uint    `json:"startFrameNum"`
	Positions     [][]any `json:"positions"`
	FramesFired   [][]any `json:"framesFired"`
}
