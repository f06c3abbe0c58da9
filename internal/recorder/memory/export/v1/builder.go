package v1

import (
	"encoding/json"
	"time"

	"github.com/armorclash/engine/pkg/record"
)

// BattleData contains all the data needed to build an export
type BattleData struct {
	Session *record.Session
	Arena   *record.Arena

	Tanks    map[uint16]*TankRecord
	Infantry map[uint16]*InfantryRecord
	Mines    map[uint16]*record.Mine
	Crates   map[uint16]*record.CrateDrop

	GeneralEvents  []record.GeneralEvent
	HitEvents      []record.HitEvent
	KillEvents     []record.KillEvent
	MineEvents     []record.MineEvent
	PickupEvents   []record.PickupEvent
	ProgressEvents []record.ProgressEvent
	TickStats      []record.TickStats
	Paths          []record.ProjectilePath
}

// TankRecord groups a tank with all its time-series data
type TankRecord struct {
	Unit        record.TankUnit
	States      []record.TankState
	FiredEvents []record.FireEvent
}

// InfantryRecord groups a soldier with all its time-series data
type InfantryRecord struct {
	Unit        record.InfantryUnit
	States      []record.InfantryState
	FiredEvents []record.FireEvent
}

// Build creates an Export from the battle data
func Build(data *BattleData) Export {
	export := Export{
		EngineVersion: data.Session.EngineVersion,
		ScenarioName:  data.Session.ScenarioName,
		DisplayName:   data.Session.DisplayName,
		ArenaName:     data.Arena.Name,
		ArenaAuthor:   data.Arena.Author,
		ArenaWidth:    data.Arena.Width,
		ArenaHeight:   data.Arena.Height,
		TickRate:      data.Session.TickRate,
		Tags:          data.Session.Tag,
		Ticks:         make([]Tick, 0, len(data.TickStats)),
		Entities:      make([]Entity, 0),
		Events:        make([][]any, 0),
	}

	var maxFrame uint = 0

	// Convert tick stats
	for _, ts := range data.TickStats {
		export.Ticks = append(export.Ticks, Tick{
			FrameNum:      ts.CaptureFrame,
			SystemTimeUTC: ts.Time.UTC().Format(time.RFC3339),
			StepMillis:    ts.StepMillis,
			Tanks:         ts.Tanks,
			Infantry:      ts.Infantry,
			Projectiles:   ts.Projectiles,
			Mines:         ts.Mines,
			Crates:        ts.Crates,
		})
		if ts.CaptureFrame > maxFrame {
			maxFrame = ts.CaptureFrame
		}
	}

	// Find max unit ID to size the entities array correctly
	// The replay viewer uses entities[id] to look up units, so array index must equal unit ID
	var maxEntityID uint16 = 0
	hasEntities := len(data.Tanks) > 0 || len(data.Infantry) > 0 ||
		len(data.Mines) > 0 || len(data.Crates) > 0
	for id := range data.Tanks {
		if id > maxEntityID {
			maxEntityID = id
		}
	}
	for id := range data.Infantry {
		if id > maxEntityID {
			maxEntityID = id
		}
	}
	for id := range data.Mines {
		if id > maxEntityID {
			maxEntityID = id
		}
	}
	for id := range data.Crates {
		if id > maxEntityID {
			maxEntityID = id
		}
	}

	// Create entities array with placeholder entries
	// Index N will contain the unit with ID=N
	if hasEntities {
		export.Entities = make([]Entity, maxEntityID+1)
	}

	// Convert tanks - place at index matching their ID
	for _, rec := range data.Tanks {
		entity := Entity{
			ID:            rec.Unit.ID,
			Name:          rec.Unit.Name,
			IsPlayer:      boolToInt(rec.Unit.IsPlayer),
			Type:          "tank",
			Class:         rec.Unit.ClassName,
			StartFrameNum: rec.Unit.JoinFrame,
			Positions:     make([][]any, 0, len(rec.States)),
			FramesFired:   [][]any{},
		}

		for _, state := range rec.States {
			pos := []any{
				[]float64{state.Position.X, state.Position.Y},
				state.BodyAngle,
				state.TurretAngle,
				boolToInt(state.Alive),
				state.Health,
				state.Boosts,
			}
			entity.Positions = append(entity.Positions, pos)
			if state.CaptureFrame > maxFrame {
				maxFrame = state.CaptureFrame
			}
		}

		export.Entities[rec.Unit.ID] = entity
	}

	// Convert infantry - place at index matching their ID
	for _, rec := range data.Infantry {
		entity := Entity{
			ID:            rec.Unit.ID,
			Name:          rec.Unit.Name,
			Squad:         rec.Unit.Squad,
			IsPlayer:      0,
			Type:          "infantry",
			Class:         rec.Unit.Class,
			StartFrameNum: rec.Unit.JoinFrame,
			Positions:     make([][]any, 0, len(rec.States)),
			FramesFired:   [][]any{},
		}

		for _, state := range rec.States {
			pos := []any{
				[]float64{state.Position.X, state.Position.Y},
				state.Bearing,
				boolToInt(state.Alive),
				state.Health,
				state.Behavior,
			}
			entity.Positions = append(entity.Positions, pos)
			if state.CaptureFrame > maxFrame {
				maxFrame = state.CaptureFrame
			}
		}

		export.Entities[rec.Unit.ID] = entity
	}

	// Convert mines - static entities with a single position row
	for _, m := range data.Mines {
		export.Entities[m.ID] = Entity{
			ID:            m.ID,
			Name:          "Landmine",
			IsPlayer:      0,
			Type:          "mine",
			StartFrameNum: m.JoinFrame,
			Positions: [][]any{{
				[]float64{m.Position.X, m.Position.Y},
			}},
			FramesFired: [][]any{},
		}
	}

	// Convert crates - static entities with a single position row
	for _, c := range data.Crates {
		export.Entities[c.ID] = Entity{
			ID:            c.ID,
			Name:          c.Type,
			IsPlayer:      0,
			Type:          "crate",
			Class:         c.Type,
			StartFrameNum: c.JoinFrame,
			Positions: [][]any{{
				[]float64{c.Position.X, c.Position.Y},
			}},
			FramesFired: [][]any{},
		}
	}

	// Convert projectile paths into fire lines on the shooter entity
	// Format: [frameNum, [x, y]] - the impact point the viewer draws the line to
	for _, p := range data.Paths {
		if int(p.ShooterID) >= len(export.Entities) {
			continue
		}
		ff := []any{
			p.CaptureFrame,
			[]float64{p.EndPosition.X, p.EndPosition.Y},
		}
		export.Entities[p.ShooterID].FramesFired = append(
			export.Entities[p.ShooterID].FramesFired, ff,
		)
		if p.EndFrame > maxFrame {
			maxFrame = p.EndFrame
		}

		// Guided shells carry sampled trajectories; flat fire lines would
		// misrepresent the curved flight, so the full polyline goes into the
		// events array for the viewer to animate
		// Format: [frameNum, "projectile", shooterId, weapon, [[x, y], ...], endFrame]
		if len(p.Trajectory) >= 2 {
			coords := make([][]float64, len(p.Trajectory))
			for i, tp := range p.Trajectory {
				coords[i] = []float64{tp.Position.X, tp.Position.Y}
			}
			export.Events = append(export.Events, []any{
				p.CaptureFrame,
				"projectile",
				p.ShooterID,
				p.Weapon,
				coords,
				p.EndFrame,
			})
		}
	}

	export.EndFrame = maxFrame

	// Convert general events
	// Format: [frameNum, "type", message]
	for _, evt := range data.GeneralEvents {
		// Try to parse message as JSON - if it's a valid JSON array/object, use parsed value
		// Otherwise keep as string
		var message any = evt.Message
		if len(evt.Message) > 0 && (evt.Message[0] == '[' || evt.Message[0] == '{') {
			var parsed any
			if err := json.Unmarshal([]byte(evt.Message), &parsed); err == nil {
				message = parsed
			}
		}
		export.Events = append(export.Events, []any{
			evt.CaptureFrame,
			evt.Name,
			message,
		})
	}

	// Convert hit events
	// Format: [frameNum, "hit", victimId, [attackerId, weapon], distance]
	for _, evt := range data.HitEvents {
		victimID := resolveUnitID(evt.VictimTankID, evt.VictimInfantryID)
		sourceID := resolveUnitID(evt.AttackerTankID, evt.AttackerInfantryID)

		export.Events = append(export.Events, []any{
			evt.CaptureFrame,
			"hit",
			victimID,
			[]any{sourceID, evt.Weapon},
			evt.Distance,
		})
	}

	// Convert kill events
	// Format: [frameNum, "killed", victimId, [killerId, weapon], distance]
	for _, evt := range data.KillEvents {
		victimID := resolveUnitID(evt.VictimTankID, evt.VictimInfantryID)
		killerID := resolveUnitID(evt.KillerTankID, evt.KillerInfantryID)

		export.Events = append(export.Events, []any{
			evt.CaptureFrame,
			"killed",
			victimID,
			[]any{killerID, evt.Weapon},
			evt.Distance,
		})
	}

	// Convert mine events
	// Format: [frameNum, "armed"|"detonated"|"cleared", mineId, victimId, [x, y]]
	// victimId is -1 except for detonations with a known tripping unit
	for _, evt := range data.MineEvents {
		var victimID any = -1
		if evt.VictimID != nil {
			victimID = *evt.VictimID
		}
		export.Events = append(export.Events, []any{
			evt.CaptureFrame,
			evt.EventType,
			evt.MineID,
			victimID,
			[]float64{evt.Position.X, evt.Position.Y},
		})
	}

	// Convert pickup events
	// Format: [frameNum, "pickup", takerId, [crateId, crateType], amount]
	for _, evt := range data.PickupEvents {
		export.Events = append(export.Events, []any{
			evt.CaptureFrame,
			"pickup",
			evt.TakerID,
			[]any{evt.CrateID, evt.Type},
			evt.Amount,
		})
	}

	// Convert progression events
	// Format: [frameNum, "experience", unitId, amount]
	//         [frameNum, "level_up", unitId, newLevel]
	//         [frameNum, "skill", unitId, [skillId, skillLevel]]
	for _, evt := range data.ProgressEvents {
		var detail any
		switch evt.Kind {
		case "level_up":
			detail = evt.Level
		case "skill":
			detail = []any{evt.SkillID, evt.SkillLevel}
		default:
			detail = evt.Amount
		}
		export.Events = append(export.Events, []any{
			evt.CaptureFrame,
			evt.Kind,
			evt.UnitID,
			detail,
		})
	}

	return export
}

// resolveUnitID picks the tank reference when both are set.
// Event rows carry a single ID, and tank hits take display priority.
func resolveUnitID(tankID, infantryID *uint16) uint16 {
	if tankID != nil {
		return *tankID
	}
	if infantryID != nil {
		return *infantryID
	}
	return 0
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
