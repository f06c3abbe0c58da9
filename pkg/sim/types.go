// Package sim implements the frame-stepped combat simulation core: tanks,
// infantry with finite-state AI, guided projectiles, landmines and
// power-ups, driven by a deterministic arena world. The package performs no
// I/O and takes no locks; an external driver advances it by calling
// World.Step with a caller-supplied delta time and consumes the discrete
// events entities emit through an injected Sink.
package sim

import "fmt"

// EntityKind identifies which arena an entity lives in.
type EntityKind uint8

const (
	KindNone EntityKind = iota
	KindTank
	KindInfantry
	KindProjectile
	KindLandmine
	KindPowerUp
)

func (k EntityKind) String() string {
	switch k {
	case KindTank:
		return "tank"
	case KindInfantry:
		return "infantry"
	case KindProjectile:
		return "projectile"
	case KindLandmine:
		return "landmine"
	case KindPowerUp:
		return "powerup"
	default:
		return "none"
	}
}

// Handle is a stable reference to an arena slot. Handles stay valid until
// the entity is reclaimed; a stale handle simply fails lookups instead of
// aliasing a reused slot, because the generation counter no longer matches.
type Handle struct {
	Kind  EntityKind
	Index uint32
	Gen   uint32
}

// IsZero reports whether the handle refers to nothing.
func (h Handle) IsZero() bool {
	return h.Kind == KindNone
}

func (h Handle) String() string {
	if h.IsZero() {
		return "none"
	}
	return fmt.Sprintf("%s#%d.%d", h.Kind, h.Index, h.Gen)
}

// InfantryClass selects the static stat row for an infantry unit.
type InfantryClass uint8

const (
	Rifleman InfantryClass = iota
	RPG
	Sniper
	Medic
)

func (c InfantryClass) String() string {
	switch c {
	case Rifleman:
		return "rifleman"
	case RPG:
		return "rpg"
	case Sniper:
		return "sniper"
	case Medic:
		return "medic"
	default:
		return fmt.Sprintf("class(%d)", uint8(c))
	}
}

// ParseInfantryClass maps a configuration name to its class.
func ParseInfantryClass(s string) (InfantryClass, error) {
	switch s {
	case "rifleman":
		return Rifleman, nil
	case "rpg":
		return RPG, nil
	case "sniper":
		return Sniper, nil
	case "medic":
		return Medic, nil
	default:
		return 0, fmt.Errorf("unknown infantry class %q", s)
	}
}

// InfantryState is the AI state of a unit. Transitions form a strict finite
// automaton; StateDead is terminal.
type InfantryState uint8

const (
	StatePatrol InfantryState = iota
	StateEngage
	StateRetreat
	StateDead
)

func (s InfantryState) String() string {
	switch s {
	case StatePatrol:
		return "patrol"
	case StateEngage:
		return "engage"
	case StateRetreat:
		return "retreat"
	case StateDead:
		return "dead"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// ProjectileType selects the guidance mode and static stat row of a shot.
// Only Rocket homes.
type ProjectileType uint8

const (
	Machinegun ProjectileType = iota
	Cannon
	Rocket
)

func (t ProjectileType) String() string {
	switch t {
	case Machinegun:
		return "machinegun"
	case Cannon:
		return "cannon"
	case Rocket:
		return "rocket"
	default:
		return fmt.Sprintf("projectile(%d)", uint8(t))
	}
}

// ParseProjectileType maps a configuration name to its type.
func ParseProjectileType(s string) (ProjectileType, error) {
	switch s {
	case "machinegun":
		return Machinegun, nil
	case "cannon":
		return Cannon, nil
	case "rocket":
		return Rocket, nil
	default:
		return 0, fmt.Errorf("unknown projectile type %q", s)
	}
}

// PowerUpType enumerates the pickups the arena can spawn. The simulation
// resolves only the health effect itself; the rest are reported to the
// shell, which owns ammo counts and timed buffs.
type PowerUpType uint8

const (
	PowerUpAmmo PowerUpType = iota
	PowerUpHealth
	PowerUpSpeed
	PowerUpDamage
	PowerUpMultishot
	PowerUpRapidFire
	PowerUpShield
	PowerUpLandmine
)

func (t PowerUpType) String() string {
	switch t {
	case PowerUpAmmo:
		return "ammo"
	case PowerUpHealth:
		return "health"
	case PowerUpSpeed:
		return "speed"
	case PowerUpDamage:
		return "damage"
	case PowerUpMultishot:
		return "multishot"
	case PowerUpRapidFire:
		return "rapidfire"
	case PowerUpShield:
		return "shield"
	case PowerUpLandmine:
		return "landmine"
	default:
		return fmt.Sprintf("powerup(%d)", uint8(t))
	}
}

// ParsePowerUpType maps a configuration name to its type.
func ParsePowerUpType(s string) (PowerUpType, error) {
	switch s {
	case "ammo":
		return PowerUpAmmo, nil
	case "health":
		return PowerUpHealth, nil
	case "speed":
		return PowerUpSpeed, nil
	case "damage":
		return PowerUpDamage, nil
	case "multishot":
		return PowerUpMultishot, nil
	case "rapidfire":
		return PowerUpRapidFire, nil
	case "shield":
		return PowerUpShield, nil
	case "landmine":
		return PowerUpLandmine, nil
	default:
		return 0, fmt.Errorf("unknown powerup type %q", s)
	}
}
