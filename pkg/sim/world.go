package sim

import (
	"fmt"

	"github.com/armorclash/engine/pkg/geom"
)

const (
	tankHitRadius     = 24.0
	infantryHitRadius = 12.0
	pickupRadius      = 25.0
)

// Config assembles everything a World needs. Zero-value tables and spec
// fall back to the package defaults; the seed feeds the world's single
// deterministic random stream.
type Config struct {
	Bounds      geom.Rect
	Seed        uint64
	Tank        TankSpec
	Infantry    InfantryStatsTable
	Projectiles ProjectileStatsTable
	PowerUps    PowerUpSpecTable
	Sink        Sink
}

// Counts is a snapshot of live entity totals, for status reporting.
type Counts struct {
	Tanks       int
	Infantry    int
	Projectiles int
	Mines       int
	PowerUps    int
}

// World owns every live entity and steps the whole battle one frame at a
// time. It is single-threaded: the driver calls Step and the accessors
// from one goroutine, and all timing flows from the dt it passes in.
// Entities removed during a frame keep their slots until the end-of-frame
// reclaim pass, so handles observed in events stay resolvable for the
// rest of that frame.
type World struct {
	cfg  Config
	rng  *Rand
	sink Sink

	tanks       arena[*Tank]
	infantry    arena[*Infantry]
	projectiles arena[*Projectile]
	mines       arena[*Landmine]
	powerups    arena[*PowerUp]

	player  Handle
	frame   uint64
	elapsed float64

	pendingFires []FireRequest
}

// worldSink sits between entities and the driver's sink: every event is
// forwarded, and fire requests are additionally queued so the world can
// spawn the projectiles itself later in the same frame.
type worldSink struct {
	w *World
}

func (s worldSink) FireRequested(e FireRequest) {
	s.w.pendingFires = append(s.w.pendingFires, e)
	s.w.sink.FireRequested(e)
}
func (s worldSink) EntityDied(e Death)               { s.w.sink.EntityDied(e) }
func (s worldSink) PlayerDamaged(e PlayerDamage)     { s.w.sink.PlayerDamaged(e) }
func (s worldSink) MineTriggered(e MineDetonation)   { s.w.sink.MineTriggered(e) }
func (s worldSink) PowerUpCollected(e PowerUpPickup) { s.w.sink.PowerUpCollected(e) }
func (s worldSink) ProjectileEnded(e ProjectileEnd)  { s.w.sink.ProjectileEnded(e) }

// NewWorld validates the configuration and builds an empty battlefield.
// Malformed stat tables fail here, never mid-frame.
func NewWorld(cfg Config) (*World, error) {
	if cfg.Tank == (TankSpec{}) {
		cfg.Tank = DefaultTankSpec()
	}
	if cfg.Infantry == nil {
		cfg.Infantry = DefaultInfantryStats()
	}
	if cfg.Projectiles == nil {
		cfg.Projectiles = DefaultProjectileStats()
	}
	if cfg.PowerUps == nil {
		cfg.PowerUps = DefaultPowerUpSpecs()
	}
	if cfg.Sink == nil {
		cfg.Sink = NopSink{}
	}

	if err := cfg.Tank.Validate(); err != nil {
		return nil, fmt.Errorf("new world: %w", err)
	}
	if err := cfg.Infantry.Validate(); err != nil {
		return nil, fmt.Errorf("new world: %w", err)
	}
	if err := cfg.Projectiles.Validate(); err != nil {
		return nil, fmt.Errorf("new world: %w", err)
	}
	if err := cfg.PowerUps.Validate(); err != nil {
		return nil, fmt.Errorf("new world: %w", err)
	}

	return &World{
		cfg:  cfg,
		rng:  NewRand(cfg.Seed),
		sink: cfg.Sink,
	}, nil
}

// SpawnPlayerTank places the player-controlled tank. There is at most one
// player in a world at a time.
func (w *World) SpawnPlayerTank(pos geom.Vector2) (Handle, error) {
	if _, ok := w.Player(); ok {
		return Handle{}, fmt.Errorf("spawn player tank: player already in world")
	}
	h, err := w.SpawnTank(pos, true)
	if err != nil {
		return Handle{}, err
	}
	w.player = h
	return h, nil
}

// SpawnTank places a tank and returns its handle.
func (w *World) SpawnTank(pos geom.Vector2, isPlayer bool) (Handle, error) {
	t, err := NewTank(w.cfg.Tank, pos, isPlayer, worldSink{w})
	if err != nil {
		return Handle{}, fmt.Errorf("spawn tank: %w", err)
	}
	idx, gen := w.tanks.insert(t)
	t.Self = Handle{Kind: KindTank, Index: idx, Gen: gen}
	return t.Self, nil
}

// SpawnInfantry places a soldier of the given class.
func (w *World) SpawnInfantry(class InfantryClass, pos geom.Vector2) (Handle, error) {
	n, err := NewInfantry(class, pos, w.cfg.Infantry, w.rng, worldSink{w})
	if err != nil {
		return Handle{}, fmt.Errorf("spawn infantry: %w", err)
	}
	idx, gen := w.infantry.insert(n)
	n.Self = Handle{Kind: KindInfantry, Index: idx, Gen: gen}
	return n.Self, nil
}

// SpawnProjectile turns a fire request into a live shot. Requests raised
// by entities inside Step go through this automatically; drivers use it
// for manual shots.
func (w *World) SpawnProjectile(req FireRequest) (Handle, error) {
	p, err := NewProjectile(req.Weapon, w.cfg.Projectiles, req.Shooter, req.FromPlayer, req.Origin, req.Angle, req.Damage, req.TargetPoint, worldSink{w})
	if err != nil {
		return Handle{}, fmt.Errorf("spawn projectile: %w", err)
	}
	idx, gen := w.projectiles.insert(p)
	p.Self = Handle{Kind: KindProjectile, Index: idx, Gen: gen}
	return p.Self, nil
}

// PlantMine places a mine with the default blast values.
func (w *World) PlantMine(pos geom.Vector2, fromPlayer bool) Handle {
	m := NewLandmine(pos, fromPlayer, 0, 0, worldSink{w})
	idx, gen := w.mines.insert(m)
	m.Self = Handle{Kind: KindLandmine, Index: idx, Gen: gen}
	return m.Self
}

// DropPowerUp places a crate of the given type using the configured spec
// table.
func (w *World) DropPowerUp(ptype PowerUpType, pos geom.Vector2) (Handle, error) {
	spec, ok := w.cfg.PowerUps[ptype]
	if !ok {
		return Handle{}, fmt.Errorf("drop powerup: no spec for type %s", ptype)
	}
	u := NewPowerUp(ptype, pos, spec.Value, spec.Duration, spec.Lifetime, worldSink{w})
	idx, gen := w.powerups.insert(u)
	u.Self = Handle{Kind: KindPowerUp, Index: idx, Gen: gen}
	return u.Self, nil
}

// Step advances the battle by dt seconds: tanks move, soldiers think,
// queued shots spawn, projectiles fly and collide, mines arm and trigger,
// crates tick down, and finally expired entities give their slots back.
func (w *World) Step(dt float64) {
	if dt <= 0 {
		return
	}
	w.frame++
	w.elapsed += dt

	w.tanks.each(func(_, _ uint32, t *Tank) bool {
		t.Update(dt)
		w.clampToBounds(&t.Pos)
		return true
	})

	threat := w.playerThreat()
	w.infantry.each(func(_, _ uint32, n *Infantry) bool {
		n.Update(dt, threat)
		w.clampToBounds(&n.Pos)
		return true
	})

	w.spawnPendingFires()

	w.projectiles.each(func(_, _ uint32, p *Projectile) bool {
		if p.IsHoming() && !p.FromPlayer && threat != nil && threat.Alive {
			p.SetTarget(&threat.Pos)
		}
		p.Update(dt)
		return true
	})

	w.collideProjectiles()
	w.updateMines(dt)
	w.updatePowerUps(dt)
	w.reclaim()
}

func (w *World) playerThreat() *Threat {
	t, ok := w.Player()
	if !ok {
		return nil
	}
	return &Threat{Handle: t.Self, Pos: t.Pos, Alive: !t.IsDead()}
}

func (w *World) clampToBounds(pos *geom.Vector2) {
	if w.cfg.Bounds.Width <= 0 || w.cfg.Bounds.Height <= 0 {
		return
	}
	*pos = w.cfg.Bounds.ClampPoint(*pos)
}

func (w *World) spawnPendingFires() {
	for _, req := range w.pendingFires {
		// The tables were validated at construction; a request with an
		// unknown weapon can only come from a rogue driver and is dropped.
		_, _ = w.SpawnProjectile(req)
	}
	w.pendingFires = w.pendingFires[:0]
}

// collideProjectiles runs the point-against-circle hit pass. Player shots
// test enemy soldiers and tanks; enemy shots test only the player tank.
// First live entity in slot order wins, which keeps replays stable.
func (w *World) collideProjectiles() {
	w.projectiles.each(func(_, _ uint32, p *Projectile) bool {
		if p.Done() {
			return true
		}
		hit := w.findImpact(p)
		if hit.IsZero() {
			return true
		}
		p.Impact(hit)
		w.applyDamage(hit, p.Damage, p.Owner)
		if p.Stats.ExplosionRadius > 0 {
			w.applyBlast(p.Pos, p.Stats.ExplosionRadius, p.Damage, p.Owner, hit)
		}
		return true
	})
}

func (w *World) findImpact(p *Projectile) Handle {
	var hit Handle
	if p.FromPlayer {
		w.infantry.each(func(_, _ uint32, n *Infantry) bool {
			if n.IsAlive() && p.Pos.Distance(n.Pos) <= infantryHitRadius {
				hit = n.Self
				return false
			}
			return true
		})
		if !hit.IsZero() {
			return hit
		}
		w.tanks.each(func(_, _ uint32, t *Tank) bool {
			if !t.IsPlayer && !t.IsDead() && p.Pos.Distance(t.Pos) <= tankHitRadius {
				hit = t.Self
				return false
			}
			return true
		})
		return hit
	}

	t, ok := w.Player()
	if ok && !t.IsDead() && p.Pos.Distance(t.Pos) <= tankHitRadius {
		hit = t.Self
	}
	return hit
}

func (w *World) applyDamage(h Handle, amount float64, attacker Handle) {
	switch h.Kind {
	case KindTank:
		if t, ok := w.Tank(h); ok {
			t.TakeDamage(amount, attacker)
		}
	case KindInfantry:
		if n, ok := w.Infantry(h); ok {
			n.TakeDamage(amount, attacker)
		}
	}
}

// applyBlast damages every tank and soldier inside the radius regardless
// of faction. Mines are faction-blind past the trigger: standing next to
// your own mine when an enemy trips it still hurts. The excluded handle
// covers an entity that already took the direct hit.
func (w *World) applyBlast(center geom.Vector2, radius, amount float64, attacker, exclude Handle) {
	w.tanks.each(func(_, _ uint32, t *Tank) bool {
		if t.Self != attacker && t.Self != exclude && !t.IsDead() && center.Distance(t.Pos) <= radius {
			t.TakeDamage(amount, attacker)
		}
		return true
	})
	w.infantry.each(func(_, _ uint32, n *Infantry) bool {
		if n.Self != attacker && n.Self != exclude && n.IsAlive() && center.Distance(n.Pos) <= radius {
			n.TakeDamage(amount, attacker)
		}
		return true
	})
}

func (w *World) updateMines(dt float64) {
	candidates := w.mineCandidates()
	w.mines.each(func(_, _ uint32, m *Landmine) bool {
		m.Update(dt)
		if m.CheckTrigger(candidates) {
			w.applyBlast(m.Pos, m.BlastRadius, m.Damage, m.Self, Handle{})
		}
		return true
	})
}

func (w *World) mineCandidates() []MineCandidate {
	out := make([]MineCandidate, 0, w.tanks.count()+w.infantry.count())
	w.tanks.each(func(_, _ uint32, t *Tank) bool {
		if !t.IsDead() {
			out = append(out, MineCandidate{Handle: t.Self, Pos: t.Pos, FromPlayer: t.IsPlayer})
		}
		return true
	})
	w.infantry.each(func(_, _ uint32, n *Infantry) bool {
		if n.IsAlive() {
			out = append(out, MineCandidate{Handle: n.Self, Pos: n.Pos})
		}
		return true
	})
	return out
}

func (w *World) updatePowerUps(dt float64) {
	player, ok := w.Player()
	w.powerups.each(func(_, _ uint32, u *PowerUp) bool {
		u.Update(dt)
		if ok && !player.IsDead() && !u.Done() && u.Pos.Distance(player.Pos) <= pickupRadius {
			if u.Collect(player.Self) && u.Type == PowerUpHealth {
				player.Heal(u.Value)
			}
		}
		return true
	})
}

// reclaim frees the slots of everything that finished this frame.
func (w *World) reclaim() {
	w.tanks.each(func(idx, gen uint32, t *Tank) bool {
		if t.Expired() {
			w.tanks.remove(idx, gen)
		}
		return true
	})
	w.infantry.each(func(idx, gen uint32, n *Infantry) bool {
		if n.Expired() {
			w.infantry.remove(idx, gen)
		}
		return true
	})
	w.projectiles.each(func(idx, gen uint32, p *Projectile) bool {
		if p.Done() {
			w.projectiles.remove(idx, gen)
		}
		return true
	})
	w.mines.each(func(idx, gen uint32, m *Landmine) bool {
		if m.Triggered() {
			w.mines.remove(idx, gen)
		}
		return true
	})
	w.powerups.each(func(idx, gen uint32, u *PowerUp) bool {
		if u.Done() {
			w.powerups.remove(idx, gen)
		}
		return true
	})
}

// Tank resolves a tank handle, failing on stale or foreign handles.
func (w *World) Tank(h Handle) (*Tank, bool) {
	if h.Kind != KindTank {
		return nil, false
	}
	return w.tanks.get(h.Index, h.Gen)
}

// Infantry resolves a soldier handle.
func (w *World) Infantry(h Handle) (*Infantry, bool) {
	if h.Kind != KindInfantry {
		return nil, false
	}
	return w.infantry.get(h.Index, h.Gen)
}

// Projectile resolves a shot handle.
func (w *World) Projectile(h Handle) (*Projectile, bool) {
	if h.Kind != KindProjectile {
		return nil, false
	}
	return w.projectiles.get(h.Index, h.Gen)
}

// Mine resolves a mine handle.
func (w *World) Mine(h Handle) (*Landmine, bool) {
	if h.Kind != KindLandmine {
		return nil, false
	}
	return w.mines.get(h.Index, h.Gen)
}

// PowerUp resolves a crate handle.
func (w *World) PowerUp(h Handle) (*PowerUp, bool) {
	if h.Kind != KindPowerUp {
		return nil, false
	}
	return w.powerups.get(h.Index, h.Gen)
}

// Player resolves the player tank if one is alive in the world.
func (w *World) Player() (*Tank, bool) {
	if w.player.IsZero() {
		return nil, false
	}
	return w.Tank(w.player)
}

// PlayerHandle returns the player tank handle, zero if never spawned.
func (w *World) PlayerHandle() Handle { return w.player }

// EachTank visits live tanks in slot order.
func (w *World) EachTank(fn func(*Tank) bool) {
	w.tanks.each(func(_, _ uint32, t *Tank) bool { return fn(t) })
}

// EachInfantry visits live soldiers in slot order.
func (w *World) EachInfantry(fn func(*Infantry) bool) {
	w.infantry.each(func(_, _ uint32, n *Infantry) bool { return fn(n) })
}

// EachProjectile visits live shots in slot order.
func (w *World) EachProjectile(fn func(*Projectile) bool) {
	w.projectiles.each(func(_, _ uint32, p *Projectile) bool { return fn(p) })
}

// EachMine visits live mines in slot order.
func (w *World) EachMine(fn func(*Landmine) bool) {
	w.mines.each(func(_, _ uint32, m *Landmine) bool { return fn(m) })
}

// EachPowerUp visits live crates in slot order.
func (w *World) EachPowerUp(fn func(*PowerUp) bool) {
	w.powerups.each(func(_, _ uint32, u *PowerUp) bool { return fn(u) })
}

// Counts returns live entity totals.
func (w *World) Counts() Counts {
	return Counts{
		Tanks:       w.tanks.count(),
		Infantry:    w.infantry.count(),
		Projectiles: w.projectiles.count(),
		Mines:       w.mines.count(),
		PowerUps:    w.powerups.count(),
	}
}

// Frame is the number of completed steps.
func (w *World) Frame() uint64 { return w.frame }

// Elapsed is the accumulated simulated time in seconds.
func (w *World) Elapsed() float64 { return w.elapsed }

// Rand exposes the world's deterministic random stream so drivers can
// share it instead of seeding a second one.
func (w *World) Rand() *Rand { return w.rng }

// ProjectileStatsFor resolves the configured stats row for a weapon.
func (w *World) ProjectileStatsFor(ptype ProjectileType) (ProjectileStats, bool) {
	s, ok := w.cfg.Projectiles[ptype]
	return s, ok
}

// InfantryStatsFor resolves the configured stats row for a class.
func (w *World) InfantryStatsFor(class InfantryClass) (InfantryStats, bool) {
	s, ok := w.cfg.Infantry[class]
	return s, ok
}
