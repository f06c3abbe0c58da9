package convert

import (
	"database/sql"
	"encoding/json"

	"gorm.io/datatypes"

	sfgeom "github.com/peterstace/simplefeatures/geom"

	"github.com/armorclash/engine/internal/geo"
	"github.com/armorclash/engine/internal/model"
	"github.com/armorclash/engine/pkg/record"
)

// nullUnit converts an optional unit ID to a nullable column value.
func nullUnit(id *uint16) sql.NullInt32 {
	if id == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*id), Valid: true}
}

// extraToJSON converts event extra data to datatypes.JSON for DB storage.
func extraToJSON(extra map[string]any) datatypes.JSON {
	if len(extra) == 0 {
		return datatypes.JSON("{}")
	}
	data, _ := json.Marshal(extra)
	return datatypes.JSON(data)
}

// RecordToSession converts a record.Session to a GORM model.Session.
func RecordToSession(s record.Session) model.Session {
	modifiers := make([]model.Modifier, 0, len(s.Modifiers))
	for _, m := range s.Modifiers {
		modifiers = append(modifiers, model.Modifier{
			Name:        m.Name,
			Description: m.Description,
		})
	}

	return model.Session{
		ScenarioName:  s.ScenarioName,
		DisplayName:   s.DisplayName,
		Tag:           s.Tag,
		StartTime:     s.StartTime,
		ArenaID:       s.ArenaID,
		TickRate:      s.TickRate,
		Seed:          s.Seed,
		EngineVersion: s.EngineVersion,
		Modifiers:     modifiers,
		Forces: model.ForceSummary{
			Tanks:    s.Forces.Tanks,
			Riflemen: s.Forces.Riflemen,
			RPGs:     s.Forces.RPGs,
			Snipers:  s.Forces.Snipers,
			Medics:   s.Forces.Medics,
		},
	}
}

// RecordToArena converts a record.Arena to a GORM model.Arena.
func RecordToArena(a record.Arena) model.Arena {
	return model.Arena{
		Name:        a.Name,
		DisplayName: a.DisplayName,
		Author:      a.Author,
		Width:       float32(a.Width),
		Height:      float32(a.Height),
		Center:      geo.PointFromVector(a.Center),
	}
}

// RecordToTank converts a record.TankUnit to a GORM model.Tank.
// record.TankUnit.ID maps to GORM Tank.ObjectID.
func RecordToTank(t record.TankUnit) model.Tank {
	return model.Tank{
		ObjectID:  t.ID,
		JoinTime:  t.JoinTime,
		JoinFrame: t.JoinFrame,
		Name:      t.Name,
		ClassName: t.ClassName,
		IsPlayer:  t.IsPlayer,
		MaxHealth: float32(t.MaxHealth),
		Armor:     float32(t.Armor),
	}
}

// RecordToInfantry converts a record.InfantryUnit to a GORM model.Infantry.
// record.InfantryUnit.ID maps to GORM Infantry.ObjectID.
func RecordToInfantry(n record.InfantryUnit) model.Infantry {
	return model.Infantry{
		ObjectID:  n.ID,
		JoinTime:  n.JoinTime,
		JoinFrame: n.JoinFrame,
		Name:      n.Name,
		Class:     n.Class,
		Weapon:    n.Weapon,
		Squad:     n.Squad,
		MaxHealth: float32(n.MaxHealth),
	}
}

// RecordToTankState converts a record.TankState to a GORM model.TankState.
func RecordToTankState(s record.TankState) model.TankState {
	return model.TankState{
		TankObjectID: s.UnitID,
		Time:         s.Time,
		CaptureFrame: s.CaptureFrame,
		Position:     geo.PointFromVector(s.Position),
		Velocity:     geo.VectorToString(s.Velocity),
		BodyAngle:    float32(s.BodyAngle),
		TurretAngle:  float32(s.TurretAngle),
		Health:       float32(s.Health),
		Alive:        s.Alive,
		Boosts:       s.Boosts,
	}
}

// RecordToInfantryState converts a record.InfantryState to a GORM model.InfantryState.
func RecordToInfantryState(s record.InfantryState) model.InfantryState {
	return model.InfantryState{
		InfantryObjectID: s.UnitID,
		Time:             s.Time,
		CaptureFrame:     s.CaptureFrame,
		Position:         geo.PointFromVector(s.Position),
		Bearing:          float32(s.Bearing),
		Health:           float32(s.Health),
		Behavior:         s.Behavior,
		Alive:            s.Alive,
	}
}

// RecordToFireEvent converts a record.FireEvent to a GORM model.FireEvent.
func RecordToFireEvent(e record.FireEvent) model.FireEvent {
	return model.FireEvent{
		ShooterObjectID: e.ShooterID,
		Time:            e.Time,
		CaptureFrame:    e.CaptureFrame,
		Weapon:          e.Weapon,
		Origin:          geo.PointFromVector(e.Origin),
		Angle:           float32(e.Angle),
		Damage:          float32(e.Damage),
	}
}

// RecordToProjectilePath converts a record.ProjectilePath to a GORM model.ProjectilePath.
// Converts trajectory points to a LineStringM geometry (x, y, frame).
func RecordToProjectilePath(p record.ProjectilePath) model.ProjectilePath {
	result := model.ProjectilePath{
		ShooterObjectID: p.ShooterID,
		Time:            p.Time,
		CaptureFrame:    p.CaptureFrame,
		EndFrame:        p.EndFrame,
		Weapon:          p.Weapon,
		EndPosition:     geo.PointFromVector(p.EndPosition),
		HitObjectID:     nullUnit(p.HitUnitID),
		Exploded:        p.Exploded,
	}

	// Convert TrajectoryPoints -> LineStringM
	if len(p.Trajectory) >= 2 {
		coords := make([]float64, 0, len(p.Trajectory)*3)
		for _, tp := range p.Trajectory {
			coords = append(coords, tp.Position.X, tp.Position.Y, float64(tp.Frame))
		}
		seq := sfgeom.NewSequence(coords, sfgeom.DimXYM)
		ls := sfgeom.NewLineString(seq)
		result.Positions = ls.AsGeometry()
	}

	return result
}

// RecordToGeneralEvent converts a record.GeneralEvent to a GORM model.GeneralEvent.
func RecordToGeneralEvent(e record.GeneralEvent) model.GeneralEvent {
	return model.GeneralEvent{
		Time:         e.Time,
		CaptureFrame: e.CaptureFrame,
		Name:         e.Name,
		Message:      e.Message,
		ExtraData:    extraToJSON(e.ExtraData),
	}
}

// RecordToHitEvent converts a record.HitEvent to a GORM model.HitEvent.
func RecordToHitEvent(e record.HitEvent) model.HitEvent {
	return model.HitEvent{
		Time:                     e.Time,
		CaptureFrame:             e.CaptureFrame,
		VictimTankObjectID:       nullUnit(e.VictimTankID),
		VictimInfantryObjectID:   nullUnit(e.VictimInfantryID),
		AttackerTankObjectID:     nullUnit(e.AttackerTankID),
		AttackerInfantryObjectID: nullUnit(e.AttackerInfantryID),
		Weapon:                   e.Weapon,
		Damage:                   float32(e.Damage),
		Distance:                 e.Distance,
	}
}

// RecordToKillEvent converts a record.KillEvent to a GORM model.KillEvent.
func RecordToKillEvent(e record.KillEvent) model.KillEvent {
	return model.KillEvent{
		Time:                   e.Time,
		CaptureFrame:           e.CaptureFrame,
		VictimTankObjectID:     nullUnit(e.VictimTankID),
		VictimInfantryObjectID: nullUnit(e.VictimInfantryID),
		KillerTankObjectID:     nullUnit(e.KillerTankID),
		KillerInfantryObjectID: nullUnit(e.KillerInfantryID),
		Weapon:                 e.Weapon,
		Distance:               e.Distance,
	}
}

// RecordToMine converts a record.Mine to a GORM model.Mine.
// record.Mine.ID maps to GORM Mine.ObjectID.
func RecordToMine(m record.Mine) model.Mine {
	return model.Mine{
		ObjectID:      m.ID,
		JoinTime:      m.JoinTime,
		JoinFrame:     m.JoinFrame,
		OwnerObjectID: nullUnit(m.OwnerID),
		Position:      geo.PointFromVector(m.Position),
		Radius:        float32(m.Radius),
		Damage:        float32(m.Damage),
	}
}

// RecordToMineEvent converts a record.MineEvent to a GORM model.MineEvent.
func RecordToMineEvent(e record.MineEvent) model.MineEvent {
	return model.MineEvent{
		CaptureFrame:   e.CaptureFrame,
		MineObjectID:   e.MineID,
		EventType:      e.EventType,
		Position:       geo.PointFromVector(e.Position),
		VictimObjectID: nullUnit(e.VictimID),
	}
}

// RecordToCrate converts a record.CrateDrop to a GORM model.Crate.
// record.CrateDrop.ID maps to GORM Crate.ObjectID.
func RecordToCrate(c record.CrateDrop) model.Crate {
	return model.Crate{
		ObjectID:  c.ID,
		JoinTime:  c.JoinTime,
		JoinFrame: c.JoinFrame,
		Type:      c.Type,
		Position:  geo.PointFromVector(c.Position),
		Value:     float32(c.Value),
		Duration:  float32(c.Duration),
	}
}

// RecordToPickupEvent converts a record.PickupEvent to a GORM model.PickupEvent.
func RecordToPickupEvent(e record.PickupEvent) model.PickupEvent {
	return model.PickupEvent{
		Time:          e.Time,
		CaptureFrame:  e.CaptureFrame,
		CrateObjectID: e.CrateID,
		TakerObjectID: e.TakerID,
		Type:          e.Type,
		Amount:        float32(e.Amount),
		Duration:      float32(e.Duration),
	}
}

// RecordToProgressEvent converts a record.ProgressEvent to a GORM model.ProgressEvent.
func RecordToProgressEvent(e record.ProgressEvent) model.ProgressEvent {
	return model.ProgressEvent{
		Time:         e.Time,
		CaptureFrame: e.CaptureFrame,
		UnitObjectID: e.UnitID,
		Kind:         e.Kind,
		Amount:       e.Amount,
		Level:        e.Level,
		SkillID:      e.SkillID,
		SkillLevel:   e.SkillLevel,
	}
}

// RecordToTickStats converts a record.TickStats to a GORM model.TickStats.
func RecordToTickStats(s record.TickStats) model.TickStats {
	return model.TickStats{
		Time:         s.Time,
		CaptureFrame: s.CaptureFrame,
		StepMillis:   s.StepMillis,
		Tanks:        s.Tanks,
		Infantry:     s.Infantry,
		Projectiles:  s.Projectiles,
		Mines:        s.Mines,
		Crates:       s.Crates,
	}
}
