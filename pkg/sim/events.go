package sim

import "github.com/armorclash/engine/pkg/geom"

// FireRequest is emitted when a combatant wants a shot spawned. The core
// never constructs projectiles on its own; the driver decides whether the
// request becomes an entity.
type FireRequest struct {
	Shooter     Handle
	Weapon      ProjectileType
	Origin      geom.Vector2
	Angle       float64
	Damage      float64
	FromPlayer  bool
	TargetPoint *geom.Vector2 // aim point for homing shots, nil for ballistic
}

// Death is emitted once when an entity's health reaches zero.
type Death struct {
	Entity   Handle
	Kind     EntityKind
	Class    InfantryClass // set when Kind is KindInfantry
	Position geom.Vector2
	Killer   Handle
}

// PlayerDamage is emitted when the player's tank takes a hit, after armor.
type PlayerDamage struct {
	Entity   Handle
	Amount   float64
	Attacker Handle
}

// MineDetonation is emitted when an armed mine triggers.
type MineDetonation struct {
	Mine       Handle
	Position   geom.Vector2
	Radius     float64
	Damage     float64
	FromPlayer bool
}

// PowerUpPickup is emitted when a tank drives over a crate.
type PowerUpPickup struct {
	PowerUp  Handle
	Type     PowerUpType
	Amount   float64
	Duration float64
	Taker    Handle
}

// ProjectileEnd is emitted when a shot leaves the world, whether it hit
// something or timed out.
type ProjectileEnd struct {
	Projectile Handle
	Position   geom.Vector2
	Hit        Handle // zero when the shot expired without hitting
	Exploded   bool
}

// Sink receives simulation events as they happen. Calls arrive on the
// Step goroutine in frame order; implementations must not call back into
// the world.
type Sink interface {
	FireRequested(FireRequest)
	EntityDied(Death)
	PlayerDamaged(PlayerDamage)
	MineTriggered(MineDetonation)
	PowerUpCollected(PowerUpPickup)
	ProjectileEnded(ProjectileEnd)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) FireRequested(FireRequest)      {}
func (NopSink) EntityDied(Death)               {}
func (NopSink) PlayerDamaged(PlayerDamage)     {}
func (NopSink) MineTriggered(MineDetonation)   {}
func (NopSink) PowerUpCollected(PowerUpPickup) {}
func (NopSink) ProjectileEnded(ProjectileEnd)  {}

// Collector buffers events in arrival order. Meant for tests and for
// drivers that drain events once per frame.
type Collector struct {
	Fires       []FireRequest
	Deaths      []Death
	PlayerHits  []PlayerDamage
	Detonations []MineDetonation
	Pickups     []PowerUpPickup
	Ended       []ProjectileEnd
}

func (c *Collector) FireRequested(e FireRequest)      { c.Fires = append(c.Fires, e) }
func (c *Collector) EntityDied(e Death)               { c.Deaths = append(c.Deaths, e) }
func (c *Collector) PlayerDamaged(e PlayerDamage)     { c.PlayerHits = append(c.PlayerHits, e) }
func (c *Collector) MineTriggered(e MineDetonation)   { c.Detonations = append(c.Detonations, e) }
func (c *Collector) PowerUpCollected(e PowerUpPickup) { c.Pickups = append(c.Pickups, e) }
func (c *Collector) ProjectileEnded(e ProjectileEnd)  { c.Ended = append(c.Ended, e) }

// Reset empties the collector without releasing its backing arrays.
func (c *Collector) Reset() {
	c.Fires = c.Fires[:0]
	c.Deaths = c.Deaths[:0]
	c.PlayerHits = c.PlayerHits[:0]
	c.Detonations = c.Detonations[:0]
	c.Pickups = c.Pickups[:0]
	c.Ended = c.Ended[:0]
}
