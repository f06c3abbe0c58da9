// Package convert provides functions to convert between GORM models and record models
package convert

import (
	"encoding/json"

	"github.com/armorclash/engine/internal/geo"
	"github.com/armorclash/engine/internal/model"
	"github.com/armorclash/engine/pkg/geom"
	"github.com/armorclash/engine/pkg/record"
)

// velocityVector parses the "vx,vy" velocity column back into a vector.
// Malformed values map to the zero vector.
func velocityVector(s string) geom.Vector2 {
	v, _ := geo.VectorFromString(s)
	return v
}

// TankToRecord converts a GORM Tank to a record.TankUnit.
// GORM Tank.ObjectID maps to record TankUnit.ID.
func TankToRecord(t model.Tank) record.TankUnit {
	return record.TankUnit{
		ID:        t.ObjectID, // Record ID = GORM ObjectID
		JoinTime:  t.JoinTime,
		JoinFrame: t.JoinFrame,
		Name:      t.Name,
		ClassName: t.ClassName,
		IsPlayer:  t.IsPlayer,
		MaxHealth: float64(t.MaxHealth),
		Armor:     float64(t.Armor),
	}
}

// InfantryToRecord converts a GORM Infantry to a record.InfantryUnit.
// GORM Infantry.ObjectID maps to record InfantryUnit.ID.
func InfantryToRecord(n model.Infantry) record.InfantryUnit {
	return record.InfantryUnit{
		ID:        n.ObjectID, // Record ID = GORM ObjectID
		JoinTime:  n.JoinTime,
		JoinFrame: n.JoinFrame,
		Name:      n.Name,
		Class:     n.Class,
		Weapon:    n.Weapon,
		Squad:     n.Squad,
		MaxHealth: float64(n.MaxHealth),
	}
}

// TankStateToRecord converts a GORM TankState to a record.TankState.
// TankObjectID in GORM maps directly to UnitID in record (both are ObjectID).
func TankStateToRecord(s model.TankState) record.TankState {
	return record.TankState{
		UnitID:       s.TankObjectID, // Direct mapping: GORM TankObjectID = record UnitID
		Time:         s.Time,
		CaptureFrame: s.CaptureFrame,
		Position:     geo.VectorFromPoint(s.Position),
		Velocity:     velocityVector(s.Velocity),
		BodyAngle:    float64(s.BodyAngle),
		TurretAngle:  float64(s.TurretAngle),
		Health:       float64(s.Health),
		Alive:        s.Alive,
		Boosts:       s.Boosts,
	}
}

// InfantryStateToRecord converts a GORM InfantryState to a record.InfantryState.
func InfantryStateToRecord(s model.InfantryState) record.InfantryState {
	return record.InfantryState{
		UnitID:       s.InfantryObjectID,
		Time:         s.Time,
		CaptureFrame: s.CaptureFrame,
		Position:     geo.VectorFromPoint(s.Position),
		Bearing:      float64(s.Bearing),
		Health:       float64(s.Health),
		Behavior:     s.Behavior,
		Alive:        s.Alive,
	}
}

// FireEventToRecord converts a GORM FireEvent to a record.FireEvent.
func FireEventToRecord(e model.FireEvent) record.FireEvent {
	return record.FireEvent{
		ShooterID:    e.ShooterObjectID,
		Time:         e.Time,
		CaptureFrame: e.CaptureFrame,
		Weapon:       e.Weapon,
		Origin:       geo.VectorFromPoint(e.Origin),
		Angle:        float64(e.Angle),
		Damage:       float64(e.Damage),
	}
}

// ProjectilePathToRecord converts a GORM ProjectilePath to a record.ProjectilePath.
// Extracts trajectory samples from the LineStringM geometry.
func ProjectilePathToRecord(p model.ProjectilePath) record.ProjectilePath {
	result := record.ProjectilePath{
		ShooterID:    p.ShooterObjectID,
		Time:         p.Time,
		CaptureFrame: p.CaptureFrame,
		EndFrame:     p.EndFrame,
		Weapon:       p.Weapon,
		EndPosition:  geo.VectorFromPoint(p.EndPosition),
		Exploded:     p.Exploded,
	}

	if p.HitObjectID.Valid {
		id := uint16(p.HitObjectID.Int32)
		result.HitUnitID = &id
	}
	result.Trajectory = geo.TrajectoryFromGeometry(p.Positions)

	return result
}

// PathToFireEvent collapses a ProjectilePath into a FireEvent for the memory backend.
// The first trajectory sample becomes the muzzle origin for fireline rendering.
func PathToFireEvent(p model.ProjectilePath) record.FireEvent {
	var origin geom.Vector2
	if traj := geo.TrajectoryFromGeometry(p.Positions); len(traj) > 0 {
		origin = traj[0].Position
	}

	return record.FireEvent{
		ShooterID:    p.ShooterObjectID,
		Time:         p.Time,
		CaptureFrame: p.CaptureFrame,
		Weapon:       p.Weapon,
		Origin:       origin,
	}
}

// GeneralEventToRecord converts a GORM GeneralEvent to a record.GeneralEvent.
func GeneralEventToRecord(e model.GeneralEvent) record.GeneralEvent {
	var extraData map[string]any
	if len(e.ExtraData) > 0 {
		_ = json.Unmarshal(e.ExtraData, &extraData)
	}

	return record.GeneralEvent{
		ID:           e.ID,
		Time:         e.Time,
		CaptureFrame: e.CaptureFrame,
		Name:         e.Name,
		Message:      e.Message,
		ExtraData:    extraData,
	}
}

// HitEventToRecord converts a GORM HitEvent to a record.HitEvent.
func HitEventToRecord(e model.HitEvent) record.HitEvent {
	result := record.HitEvent{
		ID:           e.ID,
		Time:         e.Time,
		CaptureFrame: e.CaptureFrame,
		Weapon:       e.Weapon,
		Damage:       float64(e.Damage),
		Distance:     e.Distance,
	}

	if e.VictimTankObjectID.Valid {
		id := uint16(e.VictimTankObjectID.Int32)
		result.VictimTankID = &id
	}
	if e.VictimInfantryObjectID.Valid {
		id := uint16(e.VictimInfantryObjectID.Int32)
		result.VictimInfantryID = &id
	}
	if e.AttackerTankObjectID.Valid {
		id := uint16(e.AttackerTankObjectID.Int32)
		result.AttackerTankID = &id
	}
	if e.AttackerInfantryObjectID.Valid {
		id := uint16(e.AttackerInfantryObjectID.Int32)
		result.AttackerInfantryID = &id
	}

	return result
}

// KillEventToRecord converts a GORM KillEvent to a record.KillEvent.
func KillEventToRecord(e model.KillEvent) record.KillEvent {
	result := record.KillEvent{
		ID:           e.ID,
		Time:         e.Time,
		CaptureFrame: e.CaptureFrame,
		Weapon:       e.Weapon,
		Distance:     e.Distance,
	}

	if e.VictimTankObjectID.Valid {
		id := uint16(e.VictimTankObjectID.Int32)
		result.VictimTankID = &id
	}
	if e.VictimInfantryObjectID.Valid {
		id := uint16(e.VictimInfantryObjectID.Int32)
		result.VictimInfantryID = &id
	}
	if e.KillerTankObjectID.Valid {
		id := uint16(e.KillerTankObjectID.Int32)
		result.KillerTankID = &id
	}
	if e.KillerInfantryObjectID.Valid {
		id := uint16(e.KillerInfantryObjectID.Int32)
		result.KillerInfantryID = &id
	}

	return result
}

// MineToRecord converts a GORM Mine to a record.Mine.
// GORM Mine.ObjectID maps to record Mine.ID.
func MineToRecord(m model.Mine) record.Mine {
	result := record.Mine{
		ID:        m.ObjectID, // Record ID = GORM ObjectID
		JoinTime:  m.JoinTime,
		JoinFrame: m.JoinFrame,
		Position:  geo.VectorFromPoint(m.Position),
		Radius:    float64(m.Radius),
		Damage:    float64(m.Damage),
	}

	if m.OwnerObjectID.Valid {
		id := uint16(m.OwnerObjectID.Int32)
		result.OwnerID = &id
	}

	return result
}

// MineEventToRecord converts a GORM MineEvent to a record.MineEvent.
func MineEventToRecord(e model.MineEvent) record.MineEvent {
	result := record.MineEvent{
		CaptureFrame: e.CaptureFrame,
		MineID:       e.MineObjectID,
		EventType:    e.EventType,
		Position:     geo.VectorFromPoint(e.Position),
	}

	if e.VictimObjectID.Valid {
		id := uint16(e.VictimObjectID.Int32)
		result.VictimID = &id
	}

	return result
}

// CrateToRecord converts a GORM Crate to a record.CrateDrop.
// GORM Crate.ObjectID maps to record CrateDrop.ID.
func CrateToRecord(c model.Crate) record.CrateDrop {
	return record.CrateDrop{
		ID:        c.ObjectID, // Record ID = GORM ObjectID
		JoinTime:  c.JoinTime,
		JoinFrame: c.JoinFrame,
		Type:      c.Type,
		Position:  geo.VectorFromPoint(c.Position),
		Value:     float64(c.Value),
		Duration:  float64(c.Duration),
	}
}

// PickupEventToRecord converts a GORM PickupEvent to a record.PickupEvent.
func PickupEventToRecord(e model.PickupEvent) record.PickupEvent {
	return record.PickupEvent{
		Time:         e.Time,
		CaptureFrame: e.CaptureFrame,
		CrateID:      e.CrateObjectID,
		TakerID:      e.TakerObjectID,
		Type:         e.Type,
		Amount:       float64(e.Amount),
		Duration:     float64(e.Duration),
	}
}

// ProgressEventToRecord converts a GORM ProgressEvent to a record.ProgressEvent.
func ProgressEventToRecord(e model.ProgressEvent) record.ProgressEvent {
	return record.ProgressEvent{
		Time:         e.Time,
		CaptureFrame: e.CaptureFrame,
		UnitID:       e.UnitObjectID,
		Kind:         e.Kind,
		Amount:       e.Amount,
		Level:        e.Level,
		SkillID:      e.SkillID,
		SkillLevel:   e.SkillLevel,
	}
}

// TickStatsToRecord converts a GORM TickStats to a record.TickStats.
func TickStatsToRecord(s model.TickStats) record.TickStats {
	return record.TickStats{
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

// SessionToRecord converts a GORM Session to a record.Session
func SessionToRecord(s *model.Session) record.Session {
	modifiers := make([]record.Modifier, 0, len(s.Modifiers))
	for _, m := range s.Modifiers {
		modifiers = append(modifiers, record.Modifier{
			ID:          m.ID,
			Name:        m.Name,
			Description: m.Description,
		})
	}

	return record.Session{
		ID:            s.ID,
		ScenarioName:  s.ScenarioName,
		DisplayName:   s.DisplayName,
		Tag:           s.Tag,
		StartTime:     s.StartTime,
		ArenaID:       s.ArenaID,
		TickRate:      s.TickRate,
		Seed:          s.Seed,
		EngineVersion: s.EngineVersion,
		Modifiers:     modifiers,
		Forces: record.ForceCount{
			Tanks:    s.Forces.Tanks,
			Riflemen: s.Forces.Riflemen,
			RPGs:     s.Forces.RPGs,
			Snipers:  s.Forces.Snipers,
			Medics:   s.Forces.Medics,
		},
	}
}

// ArenaToRecord converts a GORM Arena to a record.Arena
func ArenaToRecord(a *model.Arena) record.Arena {
	return record.Arena{
		ID:          a.ID,
		Name:        a.Name,
		DisplayName: a.DisplayName,
		Author:      a.Author,
		Width:       float64(a.Width),
		Height:      float64(a.Height),
		Center:      geo.VectorFromPoint(a.Center),
	}
}
