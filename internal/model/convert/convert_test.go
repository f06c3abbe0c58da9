package convert

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	sfgeom "github.com/peterstace/simplefeatures/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/armorclash/engine/internal/geo"
	"github.com/armorclash/engine/internal/model"
	"github.com/armorclash/engine/pkg/geom"
)

// Helper to create a sfgeom.Point from coordinates
func makePoint(x, y float64) sfgeom.Point {
	coords := sfgeom.Coordinates{XY: sfgeom.XY{X: x, Y: y}}
	return sfgeom.NewPoint(coords)
}

func TestPointToVector(t *testing.T) {
	pt := makePoint(100.5, 200.5)
	v := geo.VectorFromPoint(pt)

	assert.Equal(t, 100.5, v.X)
	assert.Equal(t, 200.5, v.Y)
}

func TestPointToVector_EmptyPoint(t *testing.T) {
	v := geo.VectorFromPoint(sfgeom.NewEmptyPoint(sfgeom.DimXY))

	assert.Zero(t, v.X)
	assert.Zero(t, v.Y)
}

func TestStringToVector(t *testing.T) {
	v := velocityVector("12.5,-3.25")

	assert.Equal(t, 12.5, v.X)
	assert.Equal(t, -3.25, v.Y)
}

func TestStringToVector_Malformed(t *testing.T) {
	assert.Equal(t, geom.Vector2{}, velocityVector(""))
	assert.Equal(t, geom.Vector2{}, velocityVector("12.5"))
	assert.Equal(t, geom.Vector2{}, velocityVector("abc,def"))
	assert.Equal(t, geom.Vector2{}, velocityVector("1.0,xyz"))
}

func TestTankToRecord(t *testing.T) {
	now := time.Now()

	gormTank := model.Tank{
		SessionID: 1,
		ObjectID:  42,
		JoinTime:  now,
		JoinFrame: 10,
		Name:      "Steel Rain",
		ClassName: "heavy",
		IsPlayer:  true,
		MaxHealth: 150,
		Armor:     8,
	}

	unit := TankToRecord(gormTank)

	// Record ID = GORM ObjectID (not GORM session ID)
	assert.Equal(t, uint16(42), unit.ID)
	assert.Equal(t, "Steel Rain", unit.Name)
	assert.Equal(t, "heavy", unit.ClassName)
	assert.True(t, unit.IsPlayer)
	assert.Equal(t, 150.0, unit.MaxHealth)
	assert.Equal(t, 8.0, unit.Armor)
}

func TestInfantryToRecord(t *testing.T) {
	now := time.Now()

	gormInfantry := model.Infantry{
		SessionID: 1,
		ObjectID:  7,
		JoinTime:  now,
		JoinFrame: 30,
		Name:      "Grunt 3",
		Class:     "rpg",
		Weapon:    "rocket",
		Squad:     "Bravo",
		MaxHealth: 40,
	}

	unit := InfantryToRecord(gormInfantry)

	assert.Equal(t, uint16(7), unit.ID)
	assert.Equal(t, "rpg", unit.Class)
	assert.Equal(t, "rocket", unit.Weapon)
	assert.Equal(t, "Bravo", unit.Squad)
	assert.Equal(t, 40.0, unit.MaxHealth)
}

func TestTankStateToRecord(t *testing.T) {
	now := time.Now()

	gormState := model.TankState{
		ID:           1,
		SessionID:    1,
		TankObjectID: 2,
		Time:         now,
		CaptureFrame: 100,
		Position:     makePoint(1000.0, 2000.0),
		Velocity:     "25.5,-10.25",
		BodyAngle:    90.5,
		TurretAngle:  45.25,
		Health:       80,
		Alive:        true,
		Boosts:       "speed,shield",
	}

	state := TankStateToRecord(gormState)

	// UnitID maps from TankObjectID
	assert.Equal(t, uint16(2), state.UnitID)
	assert.Equal(t, uint(100), state.CaptureFrame)
	assert.Equal(t, 1000.0, state.Position.X)
	assert.Equal(t, 2000.0, state.Position.Y)
	assert.Equal(t, 25.5, state.Velocity.X)
	assert.Equal(t, -10.25, state.Velocity.Y)
	assert.Equal(t, 90.5, state.BodyAngle)
	assert.Equal(t, 45.25, state.TurretAngle)
	assert.True(t, state.Alive)
	assert.Equal(t, "speed,shield", state.Boosts)
}

func TestInfantryStateToRecord(t *testing.T) {
	now := time.Now()

	gormState := model.InfantryState{
		ID:               1,
		SessionID:        1,
		InfantryObjectID: 9,
		Time:             now,
		CaptureFrame:     200,
		Position:         makePoint(300.0, 400.0),
		Bearing:          270.5,
		Health:           15,
		Behavior:         "retreat",
		Alive:            true,
	}

	state := InfantryStateToRecord(gormState)

	assert.Equal(t, uint16(9), state.UnitID)
	assert.Equal(t, uint(200), state.CaptureFrame)
	assert.Equal(t, 300.0, state.Position.X)
	assert.Equal(t, 270.5, state.Bearing)
	assert.Equal(t, "retreat", state.Behavior)
}

func TestFireEventToRecord(t *testing.T) {
	now := time.Now()

	gormEvent := model.FireEvent{
		ID:              1,
		SessionID:       1,
		ShooterObjectID: 4,
		Time:            now,
		CaptureFrame:    150,
		Weapon:          "cannon",
		Origin:          makePoint(500.0, 600.0),
		Angle:           1.5,
		Damage:          25,
	}

	event := FireEventToRecord(gormEvent)

	assert.Equal(t, uint16(4), event.ShooterID)
	assert.Equal(t, "cannon", event.Weapon)
	assert.Equal(t, 500.0, event.Origin.X)
	assert.Equal(t, 1.5, event.Angle)
	assert.Equal(t, 25.0, event.Damage)
}

func TestProjectilePathToRecord(t *testing.T) {
	// LineStringM trajectory: [x, y, frame]
	coords := []float64{
		100.0, 200.0, 50.0,
		150.0, 250.0, 52.0,
		200.0, 300.0, 55.0,
	}
	seq := sfgeom.NewSequence(coords, sfgeom.DimXYM)
	ls := sfgeom.NewLineString(seq)

	gormPath := model.ProjectilePath{
		ID:              1,
		SessionID:       1,
		ShooterObjectID: 42,
		CaptureFrame:    50,
		EndFrame:        55,
		Weapon:          "rocket",
		Positions:       ls.AsGeometry(),
		EndPosition:     makePoint(200.0, 300.0),
		HitObjectID:     sql.NullInt32{Int32: 10, Valid: true},
		Exploded:        true,
	}

	path := ProjectilePathToRecord(gormPath)

	assert.Equal(t, uint16(42), path.ShooterID)
	assert.Equal(t, uint(50), path.CaptureFrame)
	assert.Equal(t, uint(55), path.EndFrame)
	assert.Equal(t, 200.0, path.EndPosition.X)
	assert.True(t, path.Exploded)
	require.NotNil(t, path.HitUnitID)
	assert.Equal(t, uint16(10), *path.HitUnitID)

	require.Len(t, path.Trajectory, 3)
	assert.Equal(t, 100.0, path.Trajectory[0].Position.X)
	assert.Equal(t, 200.0, path.Trajectory[0].Position.Y)
	assert.Equal(t, uint(50), path.Trajectory[0].Frame)
	assert.Equal(t, uint(55), path.Trajectory[2].Frame)
}

func TestProjectilePathToRecord_NoTrajectory(t *testing.T) {
	gormPath := model.ProjectilePath{
		ShooterObjectID: 42,
		CaptureFrame:    50,
		Positions:       sfgeom.Geometry{},
	}

	path := ProjectilePathToRecord(gormPath)

	assert.Nil(t, path.HitUnitID)
	assert.Empty(t, path.Trajectory)
}

func TestPathToFireEvent(t *testing.T) {
	now := time.Now()
	coords := []float64{
		10.0, 20.0, 5.0,
		30.0, 40.0, 8.0,
	}
	seq := sfgeom.NewSequence(coords, sfgeom.DimXYM)
	ls := sfgeom.NewLineString(seq)

	gormPath := model.ProjectilePath{
		ShooterObjectID: 3,
		Time:            now,
		CaptureFrame:    5,
		Weapon:          "mg",
		Positions:       ls.AsGeometry(),
	}

	event := PathToFireEvent(gormPath)

	assert.Equal(t, uint16(3), event.ShooterID)
	assert.Equal(t, uint(5), event.CaptureFrame)
	assert.Equal(t, "mg", event.Weapon)
	// Muzzle origin is the first trajectory sample
	assert.Equal(t, 10.0, event.Origin.X)
	assert.Equal(t, 20.0, event.Origin.Y)
}

func TestGeneralEventToRecord(t *testing.T) {
	now := time.Now()
	extraData, _ := json.Marshal(map[string]any{"key": "value"})

	gormEvent := model.GeneralEvent{
		ID:           1,
		SessionID:    1,
		Time:         now,
		CaptureFrame: 100,
		Name:         "battleEnded",
		Message:      "All hostiles destroyed",
		ExtraData:    datatypes.JSON(extraData),
	}

	event := GeneralEventToRecord(gormEvent)

	assert.Equal(t, "battleEnded", event.Name)
	assert.Equal(t, "All hostiles destroyed", event.Message)
	assert.Equal(t, "value", event.ExtraData["key"])
}

func TestHitEventToRecord(t *testing.T) {
	now := time.Now()

	gormEvent := model.HitEvent{
		ID:                       1,
		SessionID:                1,
		Time:                     now,
		CaptureFrame:             100,
		VictimTankObjectID:       sql.NullInt32{Int32: 5, Valid: true},
		AttackerInfantryObjectID: sql.NullInt32{Int32: 10, Valid: true},
		Weapon:                   "rocket",
		Damage:                   30,
		Distance:                 120.5,
	}

	event := HitEventToRecord(gormEvent)

	require.NotNil(t, event.VictimTankID)
	assert.Equal(t, uint16(5), *event.VictimTankID)
	require.NotNil(t, event.AttackerInfantryID)
	assert.Equal(t, uint16(10), *event.AttackerInfantryID)
	assert.Nil(t, event.VictimInfantryID)
	assert.Nil(t, event.AttackerTankID)
	assert.Equal(t, 30.0, event.Damage)
	assert.Equal(t, float32(120.5), event.Distance)
}

func TestKillEventToRecord(t *testing.T) {
	now := time.Now()

	gormEvent := model.KillEvent{
		ID:                 1,
		SessionID:          1,
		Time:               now,
		CaptureFrame:       100,
		VictimTankObjectID: sql.NullInt32{Int32: 5, Valid: true},
		KillerTankObjectID: sql.NullInt32{Int32: 10, Valid: true},
		Weapon:             "cannon",
		Distance:           100.0,
	}

	event := KillEventToRecord(gormEvent)

	require.NotNil(t, event.VictimTankID)
	assert.Equal(t, uint16(5), *event.VictimTankID)
	require.NotNil(t, event.KillerTankID)
	assert.Equal(t, uint16(10), *event.KillerTankID)
}

func TestKillEventToRecord_InfantryIDs(t *testing.T) {
	now := time.Now()

	gormEvent := model.KillEvent{
		ID:                     2,
		SessionID:              1,
		Time:                   now,
		CaptureFrame:           200,
		VictimInfantryObjectID: sql.NullInt32{Int32: 20, Valid: true},
		KillerInfantryObjectID: sql.NullInt32{Int32: 30, Valid: true},
		Weapon:                 "rifle",
		Distance:               50.0,
	}

	event := KillEventToRecord(gormEvent)

	require.NotNil(t, event.VictimInfantryID)
	assert.Equal(t, uint16(20), *event.VictimInfantryID)
	require.NotNil(t, event.KillerInfantryID)
	assert.Equal(t, uint16(30), *event.KillerInfantryID)
	assert.Nil(t, event.VictimTankID)
	assert.Nil(t, event.KillerTankID)
}

func TestMineToRecord(t *testing.T) {
	now := time.Now()

	gormMine := model.Mine{
		SessionID:     1,
		ObjectID:      15,
		JoinTime:      now,
		JoinFrame:     40,
		OwnerObjectID: sql.NullInt32{Int32: 2, Valid: true},
		Position:      makePoint(750.0, 850.0),
		Radius:        3.5,
		Damage:        60,
	}

	mine := MineToRecord(gormMine)

	assert.Equal(t, uint16(15), mine.ID)
	require.NotNil(t, mine.OwnerID)
	assert.Equal(t, uint16(2), *mine.OwnerID)
	assert.Equal(t, 750.0, mine.Position.X)
	assert.Equal(t, 3.5, mine.Radius)
	assert.Equal(t, 60.0, mine.Damage)
}

func TestMineToRecord_NoOwner(t *testing.T) {
	gormMine := model.Mine{
		SessionID: 1,
		ObjectID:  16,
		Position:  makePoint(0.0, 0.0),
	}

	mine := MineToRecord(gormMine)

	assert.Nil(t, mine.OwnerID)
}

func TestMineEventToRecord(t *testing.T) {
	gormEvent := model.MineEvent{
		ID:             1,
		SessionID:      1,
		CaptureFrame:   300,
		MineObjectID:   15,
		EventType:      "detonated",
		Position:       makePoint(750.0, 850.0),
		VictimObjectID: sql.NullInt32{Int32: 8, Valid: true},
	}

	event := MineEventToRecord(gormEvent)

	assert.Equal(t, uint16(15), event.MineID)
	assert.Equal(t, "detonated", event.EventType)
	require.NotNil(t, event.VictimID)
	assert.Equal(t, uint16(8), *event.VictimID)
}

func TestCrateToRecord(t *testing.T) {
	now := time.Now()

	gormCrate := model.Crate{
		SessionID: 1,
		ObjectID:  21,
		JoinTime:  now,
		JoinFrame: 120,
		Type:      "speed",
		Position:  makePoint(400.0, 500.0),
		Value:     1.5,
		Duration:  10,
	}

	crate := CrateToRecord(gormCrate)

	assert.Equal(t, uint16(21), crate.ID)
	assert.Equal(t, "speed", crate.Type)
	assert.Equal(t, 400.0, crate.Position.X)
	assert.Equal(t, 1.5, crate.Value)
	assert.Equal(t, 10.0, crate.Duration)
}

func TestPickupEventToRecord(t *testing.T) {
	now := time.Now()

	gormEvent := model.PickupEvent{
		ID:            1,
		SessionID:     1,
		Time:          now,
		CaptureFrame:  130,
		CrateObjectID: 21,
		TakerObjectID: 2,
		Type:          "repair",
		Amount:        25,
		Duration:      0,
	}

	event := PickupEventToRecord(gormEvent)

	assert.Equal(t, uint16(21), event.CrateID)
	assert.Equal(t, uint16(2), event.TakerID)
	assert.Equal(t, "repair", event.Type)
	assert.Equal(t, 25.0, event.Amount)
}

func TestProgressEventToRecord(t *testing.T) {
	now := time.Now()

	gormEvent := model.ProgressEvent{
		ID:           1,
		SessionID:    1,
		Time:         now,
		CaptureFrame: 400,
		UnitObjectID: 2,
		Kind:         "level_up",
		Amount:       120,
		Level:        3,
	}

	event := ProgressEventToRecord(gormEvent)

	assert.Equal(t, uint16(2), event.UnitID)
	assert.Equal(t, "level_up", event.Kind)
	assert.Equal(t, 120, event.Amount)
	assert.Equal(t, 3, event.Level)
}

func TestTickStatsToRecord(t *testing.T) {
	now := time.Now()

	gormStats := model.TickStats{
		SessionID:    1,
		Time:         now,
		CaptureFrame: 500,
		StepMillis:   2.5,
		Tanks:        4,
		Infantry:     12,
		Projectiles:  7,
		Mines:        3,
		Crates:       2,
	}

	stats := TickStatsToRecord(gormStats)

	assert.Equal(t, uint(500), stats.CaptureFrame)
	assert.Equal(t, float32(2.5), stats.StepMillis)
	assert.Equal(t, uint(4), stats.Tanks)
	assert.Equal(t, uint(12), stats.Infantry)
	assert.Equal(t, uint(7), stats.Projectiles)
}

func TestSessionToRecord(t *testing.T) {
	now := time.Now()

	gormSession := &model.Session{
		ScenarioName:  "breakthrough",
		DisplayName:   "Breakthrough at Dawn",
		Tag:           "skirmish",
		StartTime:     now,
		ArenaID:       1,
		TickRate:      60,
		Seed:          12345,
		EngineVersion: "1.0.0",
		Forces:        model.ForceSummary{Tanks: 2, Riflemen: 8, RPGs: 4, Snipers: 2, Medics: 1},
		Modifiers:     []model.Modifier{{Name: "double_xp", Description: "Twice the experience"}},
	}
	gormSession.ID = 1

	session := SessionToRecord(gormSession)

	assert.Equal(t, uint(1), session.ID)
	assert.Equal(t, "breakthrough", session.ScenarioName)
	assert.Equal(t, float32(60), session.TickRate)
	assert.Equal(t, uint64(12345), session.Seed)
	assert.Equal(t, uint8(2), session.Forces.Tanks)
	assert.Equal(t, uint8(8), session.Forces.Riflemen)
	require.Len(t, session.Modifiers, 1)
	assert.Equal(t, "double_xp", session.Modifiers[0].Name)
}

func TestArenaToRecord(t *testing.T) {
	gormArena := &model.Arena{
		Name:        "dust_flats",
		DisplayName: "Dust Flats",
		Author:      "armorclash",
		Width:       2400,
		Height:      1600,
		Center:      makePoint(1200.0, 800.0),
	}
	gormArena.ID = 1

	arena := ArenaToRecord(gormArena)

	assert.Equal(t, uint(1), arena.ID)
	assert.Equal(t, "dust_flats", arena.Name)
	assert.Equal(t, 2400.0, arena.Width)
	assert.Equal(t, 1200.0, arena.Center.X)
}
