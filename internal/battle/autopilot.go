package battle

import (
	"math"

	"github.com/armorclash/engine/pkg/geom"
	"github.com/armorclash/engine/pkg/sim"
)

// Driving distances. Pilots close to hold range, back off when crowded and
// creep in between so the turret stays on target.
const (
	playerHoldRange = 260.0
	enemyHoldRange  = 340.0
	maxFireRange    = 600.0
	rocketRange     = 320.0 // beyond this the player swaps to homing rockets
)

// tankPilot drives one tank per frame. The player bot hunts the nearest
// hostile; enemy pilots converge on the player.
type tankPilot struct {
	isPlayer bool
}

func newTankPilot(isPlayer bool) *tankPilot {
	return &tankPilot{isPlayer: isPlayer}
}

// commandTanks runs every pilot before the world steps.
func (s *Service) commandTanks(dt float64) {
	s.world.EachTank(func(t *sim.Tank) bool {
		if t.IsDead() {
			return true
		}
		if p, ok := s.pilots[t.Self]; ok {
			p.drive(s, t, dt)
		}
		return true
	})
}

func (p *tankPilot) drive(s *Service, t *sim.Tank, dt float64) {
	target, targetIsTank, found := p.pickTarget(s, t)
	if !found {
		t.Throttle(0)
		return
	}

	dist := t.Pos.Distance(target)
	bearing := t.Pos.AngleTo(target)

	diff := geom.AngleDiff(t.BodyAngle, bearing)
	if step := t.Spec.TurnSpeed * dt; step > 0 {
		t.Steer(geom.Clamp(diff/step, -1, 1), dt)
	}

	hold := enemyHoldRange
	if p.isPlayer {
		hold = playerHoldRange
	}
	switch {
	case dist > hold+40:
		t.Throttle(1)
	case dist < hold-60:
		t.Throttle(-0.6)
	default:
		t.Throttle(0.15)
	}

	p.aim(s, t, target, dist)
	p.fire(s, t, target, targetIsTank, dist)
}

// pickTarget chooses whom to drive at. The player prefers the nearest
// hostile tank and falls back to infantry; enemies always fight the
// player.
func (p *tankPilot) pickTarget(s *Service, t *sim.Tank) (geom.Vector2, bool, bool) {
	if !p.isPlayer {
		pt, ok := s.world.Player()
		if !ok || pt.IsDead() {
			return geom.Vector2{}, false, false
		}
		return pt.Pos, true, true
	}

	var best geom.Vector2
	bestDist := math.MaxFloat64
	foundTank := false
	s.world.EachTank(func(o *sim.Tank) bool {
		if o.IsPlayer || o.IsDead() {
			return true
		}
		if d := t.Pos.Distance(o.Pos); d < bestDist {
			best, bestDist, foundTank = o.Pos, d, true
		}
		return true
	})
	if foundTank {
		return best, true, true
	}

	bestDist = math.MaxFloat64
	found := false
	s.world.EachInfantry(func(n *sim.Infantry) bool {
		if !n.IsAlive() {
			return true
		}
		if d := t.Pos.Distance(n.Pos); d < bestDist {
			best, bestDist, found = n.Pos, d, true
		}
		return true
	})
	return best, false, found
}

// aim points the turret with a little scatter. Skill accuracy tightens the
// player's spread; enemies shoot looser.
func (p *tankPilot) aim(s *Service, t *sim.Tank, target geom.Vector2, dist float64) {
	spread := 0.08
	if p.isPlayer {
		spread = 0.05 / s.prog.Stats().AccuracyMult
	}
	jitter := (s.world.Rand().Float64()*2 - 1) * spread
	t.AimTurret(t.Pos.Add(geom.FromAngle(t.Pos.AngleTo(target)+jitter, dist)))
}

func (p *tankPilot) fire(s *Service, t *sim.Tank, target geom.Vector2, targetIsTank bool, dist float64) {
	if dist > maxFireRange || t.CooldownRemaining() > 0 {
		return
	}

	weapon := sim.Cannon
	if p.isPlayer {
		switch {
		case targetIsTank && dist > rocketRange:
			weapon = sim.Rocket
		case !targetIsTank:
			weapon = sim.Machinegun
		}
	}
	stats, ok := s.world.ProjectileStatsFor(weapon)
	if !ok {
		return
	}

	var fired bool
	if weapon == sim.Rocket {
		fired = t.FireHoming(weapon, stats.Damage, target)
	} else {
		fired = t.Fire(weapon, stats.Damage)
	}
	if fired && p.isPlayer {
		s.fireMultishot(t, weapon, stats.Damage)
	}
}

// fireMultishot adds the extra shots of an active multishot boost, fanned
// around the turret heading. They spawn directly so the boost still counts
// as one trigger pull in the fire log.
func (s *Service) fireMultishot(t *sim.Tank, weapon sim.ProjectileType, baseDamage float64) {
	extra := int(s.boostValue(sim.PowerUpMultishot, 1)) - 1
	for i := 0; i < extra; i++ {
		offset := 0.15 * float64(i/2+1)
		if i%2 == 1 {
			offset = -offset
		}
		_, err := s.world.SpawnProjectile(sim.FireRequest{
			Shooter:    t.Self,
			Weapon:     weapon,
			Origin:     t.Pos,
			Angle:      t.TurretAngle + offset,
			Damage:     baseDamage * t.DamageMult,
			FromPlayer: true,
		})
		if err != nil {
			s.logger().Warn("Multishot spawn failed", "error", err)
			return
		}
	}
}
