package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armorclash/engine/pkg/geom"
)

func newTestWorld(t *testing.T, events Sink) *World {
	t.Helper()
	w, err := NewWorld(Config{
		Bounds:   geom.Rect{X: -2000, Y: -2000, Width: 4000, Height: 4000},
		Seed:     42,
		Infantry: testInfantryStats(),
		Sink:     events,
	})
	require.NoError(t, err)
	return w
}

func TestNewWorldValidatesTables(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "missing infantry class",
			mutate: func(cfg *Config) {
				table := DefaultInfantryStats()
				delete(table, Medic)
				cfg.Infantry = table
			},
			wantErr: "missing class",
		},
		{
			name: "missing projectile type",
			mutate: func(cfg *Config) {
				table := DefaultProjectileStats()
				delete(table, Rocket)
				cfg.Projectiles = table
			},
			wantErr: "missing type",
		},
		{
			name: "broken tank spec",
			mutate: func(cfg *Config) {
				spec := DefaultTankSpec()
				spec.MaxSpeed = 0
				cfg.Tank = spec
			},
			wantErr: "max speed",
		},
		{
			name: "crate that never despawns",
			mutate: func(cfg *Config) {
				table := DefaultPowerUpSpecs()
				table[PowerUpShield] = PowerUpSpec{Value: 50}
				cfg.PowerUps = table
			},
			wantErr: "lifetime",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{}
			tc.mutate(&cfg)
			_, err := NewWorld(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestWorldDefaultsEmptyConfig(t *testing.T) {
	w, err := NewWorld(Config{})
	require.NoError(t, err)

	h, err := w.SpawnInfantry(Rifleman, geom.Vector2{})
	require.NoError(t, err)
	n, ok := w.Infantry(h)
	require.True(t, ok)
	assert.Equal(t, DefaultInfantryStats()[Rifleman], n.Stats)
}

func TestWorldSinglePlayer(t *testing.T) {
	w := newTestWorld(t, nil)

	h, err := w.SpawnPlayerTank(geom.Vector2{X: 10})
	require.NoError(t, err)
	assert.Equal(t, h, w.PlayerHandle())

	_, err = w.SpawnPlayerTank(geom.Vector2{X: 20})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already in world")
}

func TestWorldSpawnUnknownClass(t *testing.T) {
	w := newTestWorld(t, nil)
	_, err := w.SpawnInfantry(InfantryClass(99), geom.Vector2{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spawn infantry")
}

func TestWorldHandleLifecycle(t *testing.T) {
	w := newTestWorld(t, nil)

	h, err := w.SpawnInfantry(Rifleman, geom.Vector2{X: 400})
	require.NoError(t, err)
	n, ok := w.Infantry(h)
	require.True(t, ok)

	// Kill it: the corpse keeps its slot through the grace period, so
	// the handle stays resolvable.
	n.TakeDamage(1000, Handle{})
	w.Step(0.1)
	_, ok = w.Infantry(h)
	assert.True(t, ok, "corpse slot is still live")

	for i := 0; i < 35; i++ {
		w.Step(0.1)
	}
	_, ok = w.Infantry(h)
	assert.False(t, ok, "expired corpse frees the slot")

	// The slot is reused with a new generation; the stale handle must
	// not resolve to the newcomer.
	h2, err := w.SpawnInfantry(Sniper, geom.Vector2{X: 600})
	require.NoError(t, err)
	assert.Equal(t, h.Index, h2.Index, "slot should be reused")
	assert.NotEqual(t, h.Gen, h2.Gen)

	_, ok = w.Infantry(h)
	assert.False(t, ok)
	fresh, ok := w.Infantry(h2)
	require.True(t, ok)
	assert.Equal(t, Sniper, fresh.Class)
}

func TestWorldRejectsForeignHandleKinds(t *testing.T) {
	w := newTestWorld(t, nil)
	h, err := w.SpawnInfantry(Rifleman, geom.Vector2{})
	require.NoError(t, err)

	wrong := h
	wrong.Kind = KindTank
	_, ok := w.Tank(wrong)
	assert.False(t, ok)
}

func TestWorldInfantryFireSpawnsProjectile(t *testing.T) {
	var events Collector
	w := newTestWorld(t, &events)

	_, err := w.SpawnPlayerTank(geom.Vector2{})
	require.NoError(t, err)
	_, err = w.SpawnInfantry(Sniper, geom.Vector2{X: 250})
	require.NoError(t, err)

	w.Step(0.02)
	require.Len(t, events.Fires, 1, "sniper opens fire on the first frame in range")
	assert.Equal(t, 1, w.Counts().Projectiles)

	// Let the round fly home: the player takes the hit after armor.
	for i := 0; i < 60 && len(events.PlayerHits) == 0; i++ {
		w.Step(0.02)
	}
	require.Len(t, events.PlayerHits, 1)
	assert.InDelta(t, 35.0, events.PlayerHits[0].Amount, 1e-9)

	player, ok := w.Player()
	require.True(t, ok)
	assert.InDelta(t, 65.0, player.Health, 1e-9)

	require.NotEmpty(t, events.Ended)
	assert.Equal(t, w.PlayerHandle(), events.Ended[0].Hit)
}

func TestWorldEnemyRocketPursuesPlayer(t *testing.T) {
	var events Collector
	w := newTestWorld(t, &events)

	_, err := w.SpawnPlayerTank(geom.Vector2{})
	require.NoError(t, err)
	_, err = w.SpawnInfantry(RPG, geom.Vector2{X: 200})
	require.NoError(t, err)

	for i := 0; i < 120 && len(events.PlayerHits) == 0; i++ {
		w.Step(1.0 / 60)
	}

	require.NotEmpty(t, events.Fires)
	assert.Equal(t, Rocket, events.Fires[0].Weapon)
	require.Len(t, events.PlayerHits, 1)
	assert.InDelta(t, 45.0, events.PlayerHits[0].Amount, 1e-9)
}

func TestWorldPlayerShotKillsInfantry(t *testing.T) {
	var events Collector
	w := newTestWorld(t, &events)

	playerH, err := w.SpawnPlayerTank(geom.Vector2{})
	require.NoError(t, err)
	targetH, err := w.SpawnInfantry(Rifleman, geom.Vector2{X: 400})
	require.NoError(t, err)

	_, err = w.SpawnProjectile(FireRequest{
		Shooter:    playerH,
		Weapon:     Machinegun,
		Origin:     geom.Vector2{X: 370},
		Angle:      0,
		Damage:     1000,
		FromPlayer: true,
	})
	require.NoError(t, err)

	w.Step(0.05)

	require.Len(t, events.Deaths, 1)
	assert.Equal(t, targetH, events.Deaths[0].Entity)
	assert.Equal(t, playerH, events.Deaths[0].Killer)
	assert.Equal(t, Rifleman, events.Deaths[0].Class)
	assert.Equal(t, 0, w.Counts().Projectiles, "spent rounds are reclaimed at frame end")
}

func TestWorldMineDetonation(t *testing.T) {
	var events Collector
	w := newTestWorld(t, &events)

	_, err := w.SpawnPlayerTank(geom.Vector2{X: 105})
	require.NoError(t, err)
	enemyH, err := w.SpawnTank(geom.Vector2{X: 110}, false)
	require.NoError(t, err)
	w.PlantMine(geom.Vector2{X: 100}, true)

	// Both tanks sit inside the trigger radius while the mine arms.
	for i := 0; i < 9; i++ {
		w.Step(0.1)
	}
	assert.Empty(t, events.Detonations)
	assert.Equal(t, 1, w.Counts().Mines)

	w.Step(0.3)

	require.Len(t, events.Detonations, 1)
	assert.True(t, events.Detonations[0].FromPlayer)
	assert.Equal(t, 0, w.Counts().Mines, "a triggered mine is reclaimed")

	// Only the enemy can trip a player mine, but the blast is
	// faction-blind: both tanks inside the radius take the damage.
	enemy, ok := w.Tank(enemyH)
	require.True(t, ok)
	assert.InDelta(t, 30.0, enemy.Health, 1e-9)

	player, ok := w.Player()
	require.True(t, ok)
	assert.InDelta(t, 30.0, player.Health, 1e-9)
	require.Len(t, events.PlayerHits, 1)
}

func TestWorldPowerUpPickup(t *testing.T) {
	var events Collector
	w := newTestWorld(t, &events)

	playerH, err := w.SpawnPlayerTank(geom.Vector2{})
	require.NoError(t, err)
	_, err = w.DropPowerUp(PowerUpDamage, geom.Vector2{X: 10})
	require.NoError(t, err)

	w.Step(0.05)

	require.Len(t, events.Pickups, 1)
	assert.Equal(t, PowerUpDamage, events.Pickups[0].Type)
	assert.Equal(t, playerH, events.Pickups[0].Taker)
	assert.Equal(t, 0, w.Counts().PowerUps)
}

func TestWorldHealthCrateHealsPlayer(t *testing.T) {
	var events Collector
	w := newTestWorld(t, &events)

	_, err := w.SpawnPlayerTank(geom.Vector2{})
	require.NoError(t, err)
	player, ok := w.Player()
	require.True(t, ok)
	player.TakeDamage(player.Armor+50, Handle{})
	hurt := player.Health

	_, err = w.DropPowerUp(PowerUpHealth, geom.Vector2{X: 10})
	require.NoError(t, err)

	w.Step(0.05)

	require.Len(t, events.Pickups, 1)
	assert.Equal(t, PowerUpHealth, events.Pickups[0].Type)
	assert.InDelta(t, hurt+DefaultPowerUpSpecs()[PowerUpHealth].Value, player.Health, 1e-9)
	assert.Equal(t, 0, w.Counts().PowerUps)
}

func TestWorldPowerUpExpiresUncollected(t *testing.T) {
	var events Collector
	w := newTestWorld(t, &events)

	_, err := w.SpawnPlayerTank(geom.Vector2{})
	require.NoError(t, err)
	_, err = w.DropPowerUp(PowerUpShield, geom.Vector2{X: 900})
	require.NoError(t, err)

	for i := 0; i < 13; i++ {
		w.Step(1)
	}

	assert.Empty(t, events.Pickups)
	assert.Equal(t, 0, w.Counts().PowerUps)
}

func TestWorldStepIgnoresNonPositiveDt(t *testing.T) {
	w := newTestWorld(t, nil)
	w.Step(0)
	w.Step(-1)
	assert.Zero(t, w.Frame())
	assert.Zero(t, w.Elapsed())
}

func TestWorldDeterminism(t *testing.T) {
	build := func() *World {
		w, err := NewWorld(Config{
			Bounds:   geom.Rect{X: 0, Y: 0, Width: 1000, Height: 1000},
			Seed:     99,
			Infantry: testInfantryStats(),
		})
		require.NoError(t, err)
		_, err = w.SpawnPlayerTank(geom.Vector2{X: 500, Y: 500})
		require.NoError(t, err)
		for _, spawn := range []struct {
			class InfantryClass
			pos   geom.Vector2
		}{
			{Rifleman, geom.Vector2{X: 300, Y: 300}},
			{Sniper, geom.Vector2{X: 700, Y: 500}},
			{RPG, geom.Vector2{X: 500, Y: 200}},
		} {
			_, err = w.SpawnInfantry(spawn.class, spawn.pos)
			require.NoError(t, err)
		}
		return w
	}

	a, b := build(), build()
	for i := 0; i < 240; i++ {
		a.Step(1.0 / 60)
		b.Step(1.0 / 60)
	}

	assert.Equal(t, a.Counts(), b.Counts())
	assert.Equal(t, a.Frame(), b.Frame())

	type entitySnap struct {
		pos    geom.Vector2
		health float64
	}
	snapshot := func(w *World) []entitySnap {
		var out []entitySnap
		w.EachInfantry(func(n *Infantry) bool {
			out = append(out, entitySnap{pos: n.Pos, health: n.Health})
			return true
		})
		w.EachTank(func(t *Tank) bool {
			out = append(out, entitySnap{pos: t.Pos, health: t.Health})
			return true
		})
		return out
	}
	assert.Equal(t, snapshot(a), snapshot(b))
}
