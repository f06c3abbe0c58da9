package sim

import (
	"fmt"

	"github.com/armorclash/engine/pkg/geom"
)

const (
	// DamageFlashDuration is how long a tank renders its hit flash.
	DamageFlashDuration = 0.15
	// TankWreckDuration is the grace period a dead tank stays in the world
	// so death effects can play before the driver reclaims it.
	TankWreckDuration = 2.5
)

// Tank is a drivable combat vehicle. The body and turret rotate
// independently; movement is acceleration-based with per-tick friction and
// a hard speed cap. All mutation happens on the driver's Step goroutine.
type Tank struct {
	Self Handle
	Spec TankSpec

	Pos         geom.Vector2
	Vel         geom.Vector2
	Accel       geom.Vector2
	BodyAngle   float64
	TurretAngle float64

	Health    float64
	MaxHealth float64
	Armor     float64
	IsPlayer  bool

	// Progression multipliers, 1.0 until a skill raises them.
	DamageMult   float64
	SpeedMult    float64
	FireRateMult float64

	flashTimer float64
	fireTimer  float64
	deathTimer float64
	dead       bool

	sink Sink
}

// NewTank builds a tank from its spec. The spec is validated up front; a
// malformed spec is a programming error, not a runtime condition.
func NewTank(spec TankSpec, pos geom.Vector2, isPlayer bool, sink Sink) (*Tank, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("new tank: %w", err)
	}
	if sink == nil {
		sink = NopSink{}
	}
	return &Tank{
		Spec:         spec,
		Pos:          pos,
		Health:       spec.MaxHealth,
		MaxHealth:    spec.MaxHealth,
		Armor:        spec.Armor,
		IsPlayer:     isPlayer,
		DamageMult:   1,
		SpeedMult:    1,
		FireRateMult: 1,
		sink:         sink,
	}, nil
}

// Throttle sets this frame's acceleration along the body heading.
// Input is expected in [-1, 1]; it is not clamped here.
func (t *Tank) Throttle(amount float64) {
	if t.dead {
		return
	}
	t.Accel = geom.FromAngle(t.BodyAngle, amount*t.Spec.EnginePower)
}

// Steer rotates the body by up to TurnSpeed rad/s. Input is expected
// in [-1, 1].
func (t *Tank) Steer(turn, dt float64) {
	if t.dead {
		return
	}
	t.BodyAngle = geom.NormalizeAngle(t.BodyAngle + turn*t.Spec.TurnSpeed*dt)
}

// AimTurret points the turret at a world position.
func (t *Tank) AimTurret(at geom.Vector2) {
	if t.dead {
		return
	}
	t.TurretAngle = t.Pos.AngleTo(at)
}

// Update advances the tank one frame: apply acceleration, damp and cap
// velocity, integrate position, drop the instantaneous acceleration, then
// decay the flash and fire timers. Dead tanks only count down their wreck
// timer.
func (t *Tank) Update(dt float64) {
	if t.dead {
		t.deathTimer -= dt
		return
	}

	t.Vel = t.Vel.Add(t.Accel.Scale(dt)).Scale(t.Spec.Friction)
	maxSpeed := t.Spec.MaxSpeed * t.SpeedMult
	if speed := t.Vel.Length(); speed > maxSpeed {
		t.Vel = t.Vel.Scale(maxSpeed / speed)
	}
	t.Pos = t.Pos.Add(t.Vel.Scale(dt))
	t.Accel = geom.Vector2{}

	if t.flashTimer > 0 {
		t.flashTimer -= dt
		if t.flashTimer < 0 {
			t.flashTimer = 0
		}
	}
	if t.fireTimer > 0 {
		t.fireTimer -= dt
	}
}

// TakeDamage applies a hit after flat armor reduction with a minimum of 1
// point per hit, floors health at zero, and starts the damage flash. The
// player tank additionally reports the applied damage for camera-effect
// collaborators. Hits on a dead tank are inert. Returns the damage
// actually applied.
func (t *Tank) TakeDamage(amount float64, attacker Handle) float64 {
	if t.dead {
		return 0
	}

	applied := amount - t.Armor
	if applied < 1 {
		applied = 1
	}
	t.Health -= applied
	if t.Health < 0 {
		t.Health = 0
	}
	t.flashTimer = DamageFlashDuration

	if t.IsPlayer {
		t.sink.PlayerDamaged(PlayerDamage{Entity: t.Self, Amount: applied, Attacker: attacker})
	}
	if t.Health <= 0 {
		t.dead = true
		t.deathTimer = TankWreckDuration
		t.sink.EntityDied(Death{Entity: t.Self, Kind: KindTank, Position: t.Pos, Killer: attacker})
	}
	return applied
}

// Heal restores health up to the maximum. No-op on the dead.
func (t *Tank) Heal(amount float64) {
	if t.dead {
		return
	}
	t.Health += amount
	if t.Health > t.MaxHealth {
		t.Health = t.MaxHealth
	}
}

// Fire emits a fire request from the muzzle along the turret heading,
// scaled by the tank's damage multiplier, and starts the cooldown.
// Returns false while dead or still cooling down.
func (t *Tank) Fire(weapon ProjectileType, baseDamage float64) bool {
	if t.dead || t.fireTimer > 0 {
		return false
	}
	t.fireTimer = t.Spec.FireCooldown / t.FireRateMult
	t.sink.FireRequested(FireRequest{
		Shooter:    t.Self,
		Weapon:     weapon,
		Origin:     t.Pos,
		Angle:      t.TurretAngle,
		Damage:     baseDamage * t.DamageMult,
		FromPlayer: t.IsPlayer,
	})
	return true
}

// FireHoming is Fire with an aim point attached, for weapons that pursue.
func (t *Tank) FireHoming(weapon ProjectileType, baseDamage float64, target geom.Vector2) bool {
	if t.dead || t.fireTimer > 0 {
		return false
	}
	t.fireTimer = t.Spec.FireCooldown / t.FireRateMult
	aim := target
	t.sink.FireRequested(FireRequest{
		Shooter:     t.Self,
		Weapon:      weapon,
		Origin:      t.Pos,
		Angle:       t.Pos.AngleTo(target),
		Damage:      baseDamage * t.DamageMult,
		FromPlayer:  t.IsPlayer,
		TargetPoint: &aim,
	})
	return true
}

// IsDead reports whether health has reached zero.
func (t *Tank) IsDead() bool { return t.dead }

// Expired reports whether the wreck grace period has run out and the
// driver should reclaim the slot.
func (t *Tank) Expired() bool { return t.dead && t.deathTimer <= 0 }

// FlashRemaining is the damage-flash time left, for renderers.
func (t *Tank) FlashRemaining() float64 { return t.flashTimer }

// CooldownRemaining is the main-gun cooldown left.
func (t *Tank) CooldownRemaining() float64 { return t.fireTimer }
