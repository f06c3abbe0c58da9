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
	"github.com/armorclash/engine/pkg/record"
)

func TestVectorToPoint(t *testing.T) {
	v := geom.Vector2{X: 100.5, Y: 200.5}
	pt := geo.PointFromVector(v)

	coord, ok := pt.Coordinates()
	require.True(t, ok)
	assert.Equal(t, 100.5, coord.XY.X)
	assert.Equal(t, 200.5, coord.XY.Y)
}

func TestVectorToString_RoundTrip(t *testing.T) {
	v := geom.Vector2{X: 25.5, Y: -10.25}
	s := geo.VectorToString(v)

	assert.Equal(t, "25.5,-10.25", s)
	assert.Equal(t, v, velocityVector(s))
}

func TestNullUnit(t *testing.T) {
	id := uint16(42)
	n := nullUnit(&id)

	assert.True(t, n.Valid)
	assert.Equal(t, int32(42), n.Int32)
}

func TestNullUnit_Nil(t *testing.T) {
	n := nullUnit(nil)

	assert.False(t, n.Valid)
}

func TestExtraToJSON_Empty(t *testing.T) {
	assert.Equal(t, datatypes.JSON("{}"), extraToJSON(nil))
	assert.Equal(t, datatypes.JSON("{}"), extraToJSON(map[string]any{}))
}

// Round-trip: GORM → Record → GORM
func TestTankRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Millisecond)

	original := model.Tank{
		ObjectID:  42,
		JoinTime:  now,
		JoinFrame: 10,
		Name:      "Steel Rain",
		ClassName: "heavy",
		IsPlayer:  true,
		MaxHealth: 150,
		Armor:     8,
	}

	unit := TankToRecord(original)
	roundTripped := RecordToTank(unit)

	assert.Equal(t, original.ObjectID, roundTripped.ObjectID)
	assert.Equal(t, original.JoinTime, roundTripped.JoinTime)
	assert.Equal(t, original.JoinFrame, roundTripped.JoinFrame)
	assert.Equal(t, original.Name, roundTripped.Name)
	assert.Equal(t, original.ClassName, roundTripped.ClassName)
	assert.Equal(t, original.IsPlayer, roundTripped.IsPlayer)
	assert.Equal(t, original.MaxHealth, roundTripped.MaxHealth)
	assert.Equal(t, original.Armor, roundTripped.Armor)
}

func TestInfantryRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Millisecond)

	original := model.Infantry{
		ObjectID:  7,
		JoinTime:  now,
		JoinFrame: 30,
		Name:      "Grunt 3",
		Class:     "sniper",
		Weapon:    "rifle",
		Squad:     "Bravo",
		MaxHealth: 40,
	}

	unit := InfantryToRecord(original)
	roundTripped := RecordToInfantry(unit)

	assert.Equal(t, original.ObjectID, roundTripped.ObjectID)
	assert.Equal(t, original.JoinTime, roundTripped.JoinTime)
	assert.Equal(t, original.Class, roundTripped.Class)
	assert.Equal(t, original.Weapon, roundTripped.Weapon)
	assert.Equal(t, original.Squad, roundTripped.Squad)
	assert.Equal(t, original.MaxHealth, roundTripped.MaxHealth)
}

func TestTankStateRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Millisecond)

	original := model.TankState{
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

	state := TankStateToRecord(original)
	roundTripped := RecordToTankState(state)

	assert.Equal(t, original.TankObjectID, roundTripped.TankObjectID)
	assert.Equal(t, original.Time, roundTripped.Time)
	assert.Equal(t, original.CaptureFrame, roundTripped.CaptureFrame)
	assert.Equal(t, original.Velocity, roundTripped.Velocity)
	assert.Equal(t, original.BodyAngle, roundTripped.BodyAngle)
	assert.Equal(t, original.TurretAngle, roundTripped.TurretAngle)
	assert.Equal(t, original.Health, roundTripped.Health)
	assert.Equal(t, original.Alive, roundTripped.Alive)
	assert.Equal(t, original.Boosts, roundTripped.Boosts)

	// Verify position round-trips through Point
	origCoord, _ := original.Position.Coordinates()
	rtCoord, _ := roundTripped.Position.Coordinates()
	assert.Equal(t, origCoord.XY.X, rtCoord.XY.X)
	assert.Equal(t, origCoord.XY.Y, rtCoord.XY.Y)
}

func TestInfantryStateRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Millisecond)

	original := model.InfantryState{
		InfantryObjectID: 9,
		Time:             now,
		CaptureFrame:     200,
		Position:         makePoint(300.0, 400.0),
		Bearing:          270.5,
		Health:           15,
		Behavior:         "engage",
		Alive:            true,
	}

	state := InfantryStateToRecord(original)
	roundTripped := RecordToInfantryState(state)

	assert.Equal(t, original.InfantryObjectID, roundTripped.InfantryObjectID)
	assert.Equal(t, original.Bearing, roundTripped.Bearing)
	assert.Equal(t, original.Behavior, roundTripped.Behavior)
	assert.Equal(t, original.Alive, roundTripped.Alive)

	origCoord, _ := original.Position.Coordinates()
	rtCoord, _ := roundTripped.Position.Coordinates()
	assert.Equal(t, origCoord.XY, rtCoord.XY)
}

func TestGeneralEventRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Millisecond)
	extraData, _ := json.Marshal(map[string]any{"key": "value"})

	original := model.GeneralEvent{
		Time:         now,
		CaptureFrame: 100,
		Name:         "scenarioTrigger",
		Message:      "Reinforcements arrived",
		ExtraData:    datatypes.JSON(extraData),
	}

	event := GeneralEventToRecord(original)
	roundTripped := RecordToGeneralEvent(event)

	assert.Equal(t, original.Time, roundTripped.Time)
	assert.Equal(t, original.CaptureFrame, roundTripped.CaptureFrame)
	assert.Equal(t, original.Name, roundTripped.Name)
	assert.Equal(t, original.Message, roundTripped.Message)
	// ExtraData: compare unmarshalled values (JSON serialization may differ in whitespace)
	var origData, rtData map[string]any
	json.Unmarshal(original.ExtraData, &origData)
	json.Unmarshal(roundTripped.ExtraData, &rtData)
	assert.Equal(t, origData, rtData)
}

func TestHitEventRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Millisecond)

	original := model.HitEvent{
		Time:                     now,
		CaptureFrame:             100,
		VictimInfantryObjectID:   sql.NullInt32{Int32: 5, Valid: true},
		AttackerTankObjectID:     sql.NullInt32{Int32: 10, Valid: true},
		VictimTankObjectID:       sql.NullInt32{},
		AttackerInfantryObjectID: sql.NullInt32{},
		Weapon:                   "mg",
		Damage:                   5,
		Distance:                 80.5,
	}

	event := HitEventToRecord(original)
	roundTripped := RecordToHitEvent(event)

	assert.Equal(t, original.VictimInfantryObjectID, roundTripped.VictimInfantryObjectID)
	assert.Equal(t, original.AttackerTankObjectID, roundTripped.AttackerTankObjectID)
	assert.Equal(t, original.VictimTankObjectID, roundTripped.VictimTankObjectID)
	assert.Equal(t, original.AttackerInfantryObjectID, roundTripped.AttackerInfantryObjectID)
	assert.Equal(t, original.Weapon, roundTripped.Weapon)
	assert.Equal(t, original.Damage, roundTripped.Damage)
	assert.Equal(t, original.Distance, roundTripped.Distance)
}

func TestKillEventRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Millisecond)

	original := model.KillEvent{
		Time:                   now,
		CaptureFrame:           300,
		VictimTankObjectID:     sql.NullInt32{Int32: 3, Valid: true},
		KillerInfantryObjectID: sql.NullInt32{Int32: 12, Valid: true},
		Weapon:                 "rocket",
		Distance:               150.25,
	}

	event := KillEventToRecord(original)
	roundTripped := RecordToKillEvent(event)

	assert.Equal(t, original.VictimTankObjectID, roundTripped.VictimTankObjectID)
	assert.Equal(t, original.KillerInfantryObjectID, roundTripped.KillerInfantryObjectID)
	assert.Equal(t, original.VictimInfantryObjectID, roundTripped.VictimInfantryObjectID)
	assert.Equal(t, original.KillerTankObjectID, roundTripped.KillerTankObjectID)
	assert.Equal(t, original.Weapon, roundTripped.Weapon)
	assert.Equal(t, original.Distance, roundTripped.Distance)
}

func TestProjectilePathRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Millisecond)
	hitID := sql.NullInt32{Int32: 10, Valid: true}

	original := model.ProjectilePath{
		ShooterObjectID: 42,
		Time:            now,
		CaptureFrame:    50,
		EndFrame:        55,
		Weapon:          "cannon",
		EndPosition:     makePoint(200.0, 300.0),
		HitObjectID:     hitID,
		Exploded:        true,
	}
	coords := []float64{
		100.0, 200.0, 50.0,
		150.0, 250.0, 52.0,
		200.0, 300.0, 55.0,
	}
	seq := sfgeom.NewSequence(coords, sfgeom.DimXYM)
	original.Positions = sfgeom.NewLineString(seq).AsGeometry()

	path := ProjectilePathToRecord(original)
	roundTripped := RecordToProjectilePath(path)

	assert.Equal(t, original.ShooterObjectID, roundTripped.ShooterObjectID)
	assert.Equal(t, original.Time, roundTripped.Time)
	assert.Equal(t, original.CaptureFrame, roundTripped.CaptureFrame)
	assert.Equal(t, original.EndFrame, roundTripped.EndFrame)
	assert.Equal(t, original.Weapon, roundTripped.Weapon)
	assert.Equal(t, original.HitObjectID, roundTripped.HitObjectID)
	assert.Equal(t, original.Exploded, roundTripped.Exploded)

	origEnd, _ := original.EndPosition.Coordinates()
	rtEnd, _ := roundTripped.EndPosition.Coordinates()
	assert.Equal(t, origEnd.XY, rtEnd.XY)

	// Verify trajectory positions round-trip
	require.False(t, roundTripped.Positions.IsEmpty())
	rtLs, ok := roundTripped.Positions.AsLineString()
	require.True(t, ok)
	rtSeq := rtLs.Coordinates()
	require.Equal(t, 3, rtSeq.Length())
	assert.Equal(t, 100.0, rtSeq.Get(0).X)
	assert.Equal(t, 200.0, rtSeq.Get(0).Y)
	assert.Equal(t, 50.0, rtSeq.Get(0).M)
	assert.Equal(t, 55.0, rtSeq.Get(2).M)
}

func TestProjectilePathRoundTrip_NoTrajectory(t *testing.T) {
	original := model.ProjectilePath{
		ShooterObjectID: 42,
		CaptureFrame:    50,
	}

	path := ProjectilePathToRecord(original)
	roundTripped := RecordToProjectilePath(path)

	assert.True(t, roundTripped.Positions.IsEmpty())
	assert.False(t, roundTripped.HitObjectID.Valid)
}

func TestMineRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Millisecond)

	original := model.Mine{
		ObjectID:      15,
		JoinTime:      now,
		JoinFrame:     40,
		OwnerObjectID: sql.NullInt32{Int32: 2, Valid: true},
		Position:      makePoint(750.0, 850.0),
		Radius:        3.5,
		Damage:        60,
	}

	mine := MineToRecord(original)
	roundTripped := RecordToMine(mine)

	assert.Equal(t, original.ObjectID, roundTripped.ObjectID)
	assert.Equal(t, original.JoinTime, roundTripped.JoinTime)
	assert.Equal(t, original.OwnerObjectID, roundTripped.OwnerObjectID)
	assert.Equal(t, original.Radius, roundTripped.Radius)
	assert.Equal(t, original.Damage, roundTripped.Damage)

	origCoord, _ := original.Position.Coordinates()
	rtCoord, _ := roundTripped.Position.Coordinates()
	assert.Equal(t, origCoord.XY, rtCoord.XY)
}

func TestPickupEventRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Millisecond)

	original := model.PickupEvent{
		Time:          now,
		CaptureFrame:  130,
		CrateObjectID: 21,
		TakerObjectID: 2,
		Type:          "shield",
		Amount:        0.5,
		Duration:      8,
	}

	event := PickupEventToRecord(original)
	roundTripped := RecordToPickupEvent(event)

	assert.Equal(t, original.CrateObjectID, roundTripped.CrateObjectID)
	assert.Equal(t, original.TakerObjectID, roundTripped.TakerObjectID)
	assert.Equal(t, original.Type, roundTripped.Type)
	assert.Equal(t, original.Amount, roundTripped.Amount)
	assert.Equal(t, original.Duration, roundTripped.Duration)
}

// Compile-time checks for RecordToX functions
var (
	_ model.Session       = RecordToSession(record.Session{})
	_ model.Arena         = RecordToArena(record.Arena{})
	_ model.Tank          = RecordToTank(record.TankUnit{})
	_ model.Infantry      = RecordToInfantry(record.InfantryUnit{})
	_ model.TankState     = RecordToTankState(record.TankState{})
	_ model.InfantryState = RecordToInfantryState(record.InfantryState{})
	_ model.FireEvent     = RecordToFireEvent(record.FireEvent{})
	_ model.GeneralEvent  = RecordToGeneralEvent(record.GeneralEvent{})
	_ model.HitEvent      = RecordToHitEvent(record.HitEvent{})
	_ model.KillEvent     = RecordToKillEvent(record.KillEvent{})
	_ model.Mine          = RecordToMine(record.Mine{})
	_ model.MineEvent     = RecordToMineEvent(record.MineEvent{})
	_ model.Crate         = RecordToCrate(record.CrateDrop{})
	_ model.PickupEvent   = RecordToPickupEvent(record.PickupEvent{})
	_ model.ProgressEvent = RecordToProgressEvent(record.ProgressEvent{})
	_ model.TickStats     = RecordToTickStats(record.TickStats{})
)
