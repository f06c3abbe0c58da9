package sim

import (
	"fmt"

	"github.com/armorclash/engine/pkg/geom"
)

const (
	// homingCutoff is the distance under which a pursuing rocket stops
	// steering and flies out straight. Keeps terminal guidance from
	// oscillating around the aim point.
	homingCutoff = 10.0
	// homingBoostRange is the distance under which the closing-speed
	// boost starts ramping in.
	homingBoostRange = 300.0
	// maxHomingBoost caps boosted speed relative to base speed.
	maxHomingBoost = 1.5
)

// trail is a fixed-capacity ring of recent positions, kept only so
// renderers can draw exhaust. It never feeds back into guidance or
// collision.
type trail struct {
	points []geom.Vector2
	head   int
	count  int
}

func newTrail(capacity int) trail {
	return trail{points: make([]geom.Vector2, capacity)}
}

func (t *trail) push(p geom.Vector2) {
	t.points[t.head] = p
	t.head = (t.head + 1) % len(t.points)
	if t.count < len(t.points) {
		t.count++
	}
}

// ordered returns the retained positions oldest first.
func (t *trail) ordered() []geom.Vector2 {
	out := make([]geom.Vector2, t.count)
	start := t.head - t.count
	if start < 0 {
		start += len(t.points)
	}
	for i := 0; i < t.count; i++ {
		out[i] = t.points[(start+i)%len(t.points)]
	}
	return out
}

// Projectile is a shot in flight. Ballistic types travel straight at
// constant velocity; rockets pursue an aim point under a turn-rate bound.
// Hits come from the driver's collision pass, not from the projectile;
// lifetime expiry is the miss path.
type Projectile struct {
	Self  Handle
	Type  ProjectileType
	Stats ProjectileStats

	Pos geom.Vector2
	Vel geom.Vector2

	Damage     float64
	Owner      Handle
	FromPlayer bool

	lifetime float64
	target   *geom.Vector2
	trail    trail
	done     bool

	sink Sink
}

// NewProjectile spawns a shot of the given type. A type absent from the
// table is a construction-time error. The aim point is honored only for
// homing types; ballistic shots ignore it.
func NewProjectile(ptype ProjectileType, table ProjectileStatsTable, owner Handle, fromPlayer bool, origin geom.Vector2, angle, damage float64, target *geom.Vector2, sink Sink) (*Projectile, error) {
	stats, ok := table[ptype]
	if !ok {
		return nil, fmt.Errorf("new projectile: no stats for type %s", ptype)
	}
	if sink == nil {
		sink = NopSink{}
	}
	if damage <= 0 {
		damage = stats.Damage
	}

	p := &Projectile{
		Type:       ptype,
		Stats:      stats,
		Pos:        origin,
		Vel:        geom.FromAngle(angle, stats.Speed),
		Damage:     damage,
		Owner:      owner,
		FromPlayer: fromPlayer,
		lifetime:   stats.Lifetime,
		trail:      newTrail(stats.TrailLength),
		sink:       sink,
	}
	if p.IsHoming() && target != nil {
		aim := *target
		p.target = &aim
	}
	return p, nil
}

// IsHoming reports whether this type pursues a target.
func (p *Projectile) IsHoming() bool { return p.Type == Rocket }

// Target returns the current aim point, nil while flying ballistic.
func (p *Projectile) Target() *geom.Vector2 {
	if p.target == nil {
		return nil
	}
	aim := *p.target
	return &aim
}

// SetTarget updates the aim point. No-op for ballistic types; passing nil
// drops the pursuit and the rocket flies on straight.
func (p *Projectile) SetTarget(target *geom.Vector2) {
	if !p.IsHoming() {
		return
	}
	if target == nil {
		p.target = nil
		return
	}
	aim := *target
	p.target = &aim
}

// Update advances the shot one frame: steer if pursuing, integrate,
// record the trail point, then burn lifetime. When lifetime runs out the
// shot ends as a miss.
func (p *Projectile) Update(dt float64) {
	if p.done {
		return
	}

	if p.target != nil {
		p.steer(dt)
	}
	p.Pos = p.Pos.Add(p.Vel.Scale(dt))
	p.trail.push(p.Pos)

	p.lifetime -= dt
	if p.lifetime <= 0 {
		p.done = true
		p.sink.ProjectileEnded(ProjectileEnd{Projectile: p.Self, Position: p.Pos})
	}
}

// steer turns the velocity toward the aim point, bounded to MaxTurnRate
// per second, and feeds in the closing-speed boost as the shot nears the
// target. Inside the cutoff distance the rocket stops correcting.
func (p *Projectile) steer(dt float64) {
	dist := p.Pos.Distance(*p.target)
	if dist <= homingCutoff {
		return
	}

	bearing := p.Pos.AngleTo(*p.target)
	delta := geom.AngleDiff(p.Vel.Angle(), bearing)
	limit := p.Stats.MaxTurnRate * dt
	delta = geom.Clamp(delta, -limit, limit)
	p.Vel = p.Vel.Rotate(delta)

	closeness := 1 - dist/homingBoostRange
	if closeness <= 0 {
		return
	}
	speed := p.Vel.Length()
	if speed == 0 {
		return
	}
	boosted := speed * (1 + p.Stats.HomingStrength*closeness*dt)
	if ceiling := p.Stats.Speed * maxHomingBoost; boosted > ceiling {
		boosted = ceiling
	}
	p.Vel = p.Vel.Scale(boosted / speed)
}

// Impact ends the shot against the given entity. The driver's collision
// pass calls this; the work of applying damage stays with the driver.
func (p *Projectile) Impact(hit Handle) {
	if p.done {
		return
	}
	p.done = true
	p.sink.ProjectileEnded(ProjectileEnd{
		Projectile: p.Self,
		Position:   p.Pos,
		Hit:        hit,
		Exploded:   p.Stats.ExplosionRadius > 0,
	})
}

// Done reports whether the shot has ended, by hit or by expiry.
func (p *Projectile) Done() bool { return p.done }

// Trail returns the retained positions oldest first, for rendering.
func (p *Projectile) Trail() []geom.Vector2 { return p.trail.ordered() }
