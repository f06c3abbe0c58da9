package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armorclash/engine/pkg/geom"
)

func newTestTank(t *testing.T, isPlayer bool, sink Sink) *Tank {
	t.Helper()
	tank, err := NewTank(DefaultTankSpec(), geom.Vector2{}, isPlayer, sink)
	require.NoError(t, err)
	return tank
}

func TestNewTankRejectsBadSpec(t *testing.T) {
	spec := DefaultTankSpec()
	spec.Friction = 1.8

	_, err := NewTank(spec, geom.Vector2{}, false, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "friction")
}

func TestTankTakeDamage(t *testing.T) {
	cases := []struct {
		name        string
		amount      float64
		wantApplied float64
	}{
		{name: "armor reduces the hit", amount: 20, wantApplied: 15},
		{name: "armor never zeroes a hit", amount: 3, wantApplied: 1},
		{name: "armor equal to the hit still costs one", amount: 5, wantApplied: 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tank := newTestTank(t, false, nil)
			before := tank.Health

			applied := tank.TakeDamage(tc.amount, Handle{})
			assert.InDelta(t, tc.wantApplied, applied, 1e-9)
			assert.InDelta(t, before-tc.wantApplied, tank.Health, 1e-9)
			assert.InDelta(t, DamageFlashDuration, tank.FlashRemaining(), 1e-9)
		})
	}
}

func TestTankHealthFloorsAtZero(t *testing.T) {
	var events Collector
	tank := newTestTank(t, false, &events)
	killer := Handle{Kind: KindInfantry, Index: 5, Gen: 2}

	tank.TakeDamage(10000, killer)
	assert.Zero(t, tank.Health)
	require.True(t, tank.IsDead())

	require.Len(t, events.Deaths, 1)
	assert.Equal(t, KindTank, events.Deaths[0].Kind)
	assert.Equal(t, killer, events.Deaths[0].Killer)

	// Hits on a wreck are inert.
	assert.Zero(t, tank.TakeDamage(50, killer))
	assert.Len(t, events.Deaths, 1)

	assert.False(t, tank.Expired())
	for i := 0; i < 26; i++ {
		tank.Update(0.1)
	}
	assert.True(t, tank.Expired())
}

func TestTankPlayerDamageNotification(t *testing.T) {
	t.Run("player tank reports applied damage", func(t *testing.T) {
		var events Collector
		tank := newTestTank(t, true, &events)

		tank.TakeDamage(20, Handle{})
		require.Len(t, events.PlayerHits, 1)
		assert.InDelta(t, 15.0, events.PlayerHits[0].Amount, 1e-9)
	})

	t.Run("enemy tank stays quiet", func(t *testing.T) {
		var events Collector
		tank := newTestTank(t, false, &events)

		tank.TakeDamage(20, Handle{})
		assert.Empty(t, events.PlayerHits)
	})
}

func TestTankUpdateIntegration(t *testing.T) {
	tank := newTestTank(t, false, nil)

	tank.Throttle(1)
	require.NotZero(t, tank.Accel)

	tank.Update(0.1)
	assert.Zero(t, tank.Accel, "instantaneous acceleration resets every frame")
	assert.Greater(t, tank.Vel.X, 0.0)
	assert.Greater(t, tank.Pos.X, 0.0)
	assert.InDelta(t, 0.0, tank.Pos.Y, 1e-9)

	// Coasting decays: friction alone must bleed speed off.
	coasting := tank.Vel.Length()
	tank.Update(0.1)
	assert.Less(t, tank.Vel.Length(), coasting)
}

func TestTankSpeedCap(t *testing.T) {
	tank := newTestTank(t, false, nil)
	tank.SpeedMult = 1.5
	limit := tank.Spec.MaxSpeed * tank.SpeedMult

	for i := 0; i < 300; i++ {
		tank.Throttle(1)
		tank.Update(0.05)
		require.LessOrEqual(t, tank.Vel.Length(), limit+1e-9)
	}
}

func TestTankDamageFlashDecays(t *testing.T) {
	tank := newTestTank(t, false, nil)
	tank.TakeDamage(20, Handle{})

	tank.Update(0.05)
	assert.InDelta(t, DamageFlashDuration-0.05, tank.FlashRemaining(), 1e-9)

	tank.Update(1)
	assert.Zero(t, tank.FlashRemaining())
}

func TestTankFireCooldown(t *testing.T) {
	var events Collector
	tank := newTestTank(t, true, &events)
	tank.TurretAngle = 1.2
	tank.DamageMult = 2

	require.True(t, tank.Fire(Cannon, 35))
	assert.False(t, tank.Fire(Cannon, 35), "second trigger pull inside the cooldown")

	require.Len(t, events.Fires, 1)
	shot := events.Fires[0]
	assert.Equal(t, Cannon, shot.Weapon)
	assert.InDelta(t, 1.2, shot.Angle, 1e-9)
	assert.InDelta(t, 70.0, shot.Damage, 1e-9, "damage multiplier applies at the muzzle")
	assert.True(t, shot.FromPlayer)

	tank.Update(tank.Spec.FireCooldown)
	assert.True(t, tank.Fire(Cannon, 35))
}

func TestTankFireRateMultiplierShortensCooldown(t *testing.T) {
	tank := newTestTank(t, false, nil)
	tank.FireRateMult = 2

	require.True(t, tank.Fire(Cannon, 35))
	assert.InDelta(t, tank.Spec.FireCooldown/2, tank.CooldownRemaining(), 1e-9)
}

func TestTankFireHomingCarriesAim(t *testing.T) {
	var events Collector
	tank := newTestTank(t, true, &events)

	aim := geom.Vector2{X: 300, Y: 400}
	require.True(t, tank.FireHoming(Rocket, 50, aim))

	require.Len(t, events.Fires, 1)
	shot := events.Fires[0]
	require.NotNil(t, shot.TargetPoint)
	assert.Equal(t, aim, *shot.TargetPoint)
	assert.InDelta(t, tank.Pos.AngleTo(aim), shot.Angle, 1e-9)
}

func TestTankDeadIsInert(t *testing.T) {
	var events Collector
	tank := newTestTank(t, false, &events)
	tank.TakeDamage(10000, Handle{})
	require.True(t, tank.IsDead())

	pos := tank.Pos
	tank.Throttle(1)
	tank.Steer(1, 0.1)
	tank.AimTurret(geom.Vector2{X: 10})
	tank.Update(0.1)
	tank.Heal(50)

	assert.Equal(t, pos, tank.Pos)
	assert.Zero(t, tank.BodyAngle)
	assert.Zero(t, tank.TurretAngle)
	assert.Zero(t, tank.Health)
	assert.False(t, tank.Fire(Cannon, 35))
	assert.Len(t, events.Fires, 0)
}

func TestTankHealClampsAtMax(t *testing.T) {
	tank := newTestTank(t, false, nil)
	tank.TakeDamage(30, Handle{})
	require.InDelta(t, tank.MaxHealth-25, tank.Health, 1e-9)

	tank.Heal(1000)
	assert.InDelta(t, tank.MaxHealth, tank.Health, 1e-9)
}
