package sim

import (
	"fmt"

	"github.com/armorclash/engine/pkg/geom"
)

// InfantryCorpseDuration is the grace period a dead soldier stays
// renderable before the driver reclaims it.
const InfantryCorpseDuration = 3.0

const (
	patrolRadius      = 150.0 // patrol points are picked within this of spawn
	arriveEpsilon     = 20.0  // closer than this counts as arrived
	retreatOffset     = 200.0 // retreat aims this far past the soldier, away from the threat
	aimSpread         = 0.5   // radians of full spread at accuracy 0
	strafeAngularRate = 0.8   // rad/s orbit command while holding range
	velocityDamping   = 0.9   // per-tick damping after position integration
	retreatTimeout    = 5.0   // seconds before retreat gives up on recovery
	disengageFactor   = 1.5   // leave engage beyond range * this
	optimalRangeFrac  = 0.8   // hold at range * this
	retreatHealthFrac = 0.30
	recoverHealthFrac = 0.60
)

// Threat is the driver-supplied snapshot of the entity a soldier reacts
// to, usually the player tank. Entities never hold live cross-references;
// the driver passes a fresh snapshot each frame.
type Threat struct {
	Handle Handle
	Pos    geom.Vector2
	Alive  bool
}

// Infantry is an AI foot soldier. Behavior is a four-state automaton
// (patrol, engage, retreat, dead); the class fixes combat stats through a
// static table resolved once at construction.
type Infantry struct {
	Self  Handle
	Class InfantryClass
	Stats InfantryStats

	Pos      geom.Vector2
	Vel      geom.Vector2
	Rotation float64

	Health    float64
	MaxHealth float64

	state        InfantryState
	spawn        geom.Vector2
	patrolTarget geom.Vector2
	strafeDir    float64 // +1 or -1, fixed at spawn
	fireTimer    float64
	retreatFor   float64
	deathTimer   float64

	rng  *Rand
	sink Sink
}

// NewInfantry builds a soldier of the given class. A class absent from
// the table is a construction-time error.
func NewInfantry(class InfantryClass, pos geom.Vector2, table InfantryStatsTable, rng *Rand, sink Sink) (*Infantry, error) {
	stats, ok := table[class]
	if !ok {
		return nil, fmt.Errorf("new infantry: no stats for class %s", class)
	}
	if rng == nil {
		return nil, fmt.Errorf("new infantry: nil rng")
	}
	if sink == nil {
		sink = NopSink{}
	}

	n := &Infantry{
		Class:     class,
		Stats:     stats,
		Pos:       pos,
		Health:    stats.MaxHealth,
		MaxHealth: stats.MaxHealth,
		state:     StatePatrol,
		spawn:     pos,
		strafeDir: 1,
		rng:       rng,
		sink:      sink,
	}
	if rng.Float64() < 0.5 {
		n.strafeDir = -1
	}
	n.patrolTarget = n.pickPatrolPoint()
	return n, nil
}

// State returns the current automaton state.
func (n *Infantry) State() InfantryState { return n.state }

// IsAlive reports whether the soldier is still in combat logic.
func (n *Infantry) IsAlive() bool { return n.state != StateDead }

// Expired reports whether the corpse grace period has run out.
func (n *Infantry) Expired() bool { return n.state == StateDead && n.deathTimer <= 0 }

// Update advances the soldier one frame. Transitions are evaluated first,
// in priority order, then the current state's behavior runs. A nil or dead
// threat means there is nothing to fight: the soldier keeps patrolling.
func (n *Infantry) Update(dt float64, threat *Threat) {
	if n.state == StateDead {
		n.deathTimer -= dt
		return
	}

	if n.fireTimer > 0 {
		n.fireTimer -= dt
	}

	if threat == nil || !threat.Alive {
		if n.state != StatePatrol {
			n.state = StatePatrol
		}
		n.patrol(dt)
		return
	}

	dist := n.Pos.Distance(threat.Pos)
	switch n.state {
	case StatePatrol:
		if dist < n.Stats.Range {
			n.state = StateEngage
		}
	case StateEngage:
		if dist > n.Stats.Range*disengageFactor {
			n.state = StatePatrol
		} else if n.Health < n.MaxHealth*retreatHealthFrac {
			n.state = StateRetreat
			n.retreatFor = 0
		}
	case StateRetreat:
		n.retreatFor += dt
		if n.Health > n.MaxHealth*recoverHealthFrac || n.retreatFor >= retreatTimeout {
			n.state = StatePatrol
		}
	}

	switch n.state {
	case StatePatrol:
		n.patrol(dt)
	case StateEngage:
		n.engage(dt, threat, dist)
	case StateRetreat:
		n.retreat(dt, threat.Pos)
	}
}

// TakeDamage subtracts health and fires the death notification when it
// reaches zero. Hits on the dead are inert. Returns the damage applied.
func (n *Infantry) TakeDamage(amount float64, attacker Handle) float64 {
	if n.state == StateDead {
		return 0
	}
	n.Health -= amount
	if n.Health <= 0 {
		n.Health = 0
		n.state = StateDead
		n.Vel = geom.Vector2{}
		n.deathTimer = InfantryCorpseDuration
		n.sink.EntityDied(Death{Entity: n.Self, Kind: KindInfantry, Class: n.Class, Position: n.Pos, Killer: attacker})
	}
	return amount
}

// Heal restores health up to the maximum. No-op on the dead.
func (n *Infantry) Heal(amount float64) {
	if n.state == StateDead {
		return
	}
	n.Health += amount
	if n.Health > n.MaxHealth {
		n.Health = n.MaxHealth
	}
}

func (n *Infantry) patrol(dt float64) {
	if n.Pos.Distance(n.patrolTarget) < arriveEpsilon {
		n.patrolTarget = n.pickPatrolPoint()
	}
	n.moveToward(n.patrolTarget, dt)
	n.Rotation = n.Vel.Angle()
}

func (n *Infantry) engage(dt float64, threat *Threat, dist float64) {
	optimal := n.Stats.Range * optimalRangeFrac
	switch {
	case dist > optimal:
		n.moveToward(threat.Pos, dt)
	case dist < optimal/2:
		away := n.Pos.Sub(threat.Pos).Normalize()
		n.moveToward(n.Pos.Add(away.Scale(retreatOffset)), dt)
	default:
		// Hold range: orbit the threat at a fixed angular rate.
		rel := n.Pos.Sub(threat.Pos)
		orbit := rel.Angle() + n.strafeDir*strafeAngularRate*dt
		n.moveToward(threat.Pos.Add(geom.FromAngle(orbit, dist)), dt)
	}
	n.Rotation = n.Pos.AngleTo(threat.Pos)

	if dist <= n.Stats.Range && n.fireTimer <= 0 {
		n.fire(threat)
	}
}

func (n *Infantry) retreat(dt float64, threatPos geom.Vector2) {
	away := n.Pos.Sub(threatPos).Normalize()
	n.moveToward(n.Pos.Add(away.Scale(retreatOffset)), dt)
	n.Rotation = n.Vel.Angle()
}

// moveToward is the shared movement integrator: velocity is set toward
// the target at class speed, position integrates, then velocity damps.
// The damping must stay exactly as is; downstream timing depends on it.
func (n *Infantry) moveToward(target geom.Vector2, dt float64) {
	dir := target.Sub(n.Pos)
	if dir.LengthSquared() > 0 {
		n.Vel = dir.Normalize().Scale(n.Stats.Speed)
	}
	n.Pos = n.Pos.Add(n.Vel.Scale(dt))
	n.Vel = n.Vel.Scale(velocityDamping)
}

func (n *Infantry) fire(threat *Threat) {
	n.fireTimer = 60 / n.Stats.FireRate

	angle := n.Pos.AngleTo(threat.Pos)
	angle += (n.rng.Float64() - 0.5) * (1 - n.Stats.Accuracy) * aimSpread

	req := FireRequest{
		Shooter: n.Self,
		Weapon:  n.Stats.Weapon,
		Origin:  n.Pos,
		Angle:   angle,
		Damage:  n.Stats.Damage,
	}
	if n.Stats.Weapon == Rocket {
		aim := threat.Pos
		req.TargetPoint = &aim
	}
	n.sink.FireRequested(req)
}

func (n *Infantry) pickPatrolPoint() geom.Vector2 {
	return n.spawn.Add(geom.FromAngle(n.rng.Angle(), n.rng.RangeF(0, patrolRadius)))
}
