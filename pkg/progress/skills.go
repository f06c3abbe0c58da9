// Package progress tracks a player's experience curve, skill purchases,
// and the stat block those purchases shape. It is pure bookkeeping: no
// I/O, no clocks, and failed operations are silent no-ops rather than
// errors, except for malformed skill tables which fail at construction.
package progress

import "fmt"

// Stat names a field of the StatBlock a skill can modify.
type Stat int

const (
	StatMaxHealth Stat = iota
	StatDamage
	StatSpeed
	StatArmor
	StatFireRate
	StatAccuracy
)

func (s Stat) String() string {
	switch s {
	case StatMaxHealth:
		return "max_health"
	case StatDamage:
		return "damage"
	case StatSpeed:
		return "speed"
	case StatArmor:
		return "armor"
	case StatFireRate:
		return "fire_rate"
	case StatAccuracy:
		return "accuracy"
	default:
		return fmt.Sprintf("stat(%d)", int(s))
	}
}

// Effect selects how a skill purchase composes with the stat.
type Effect int

const (
	// Additive purchases add value * newLevel on top of the stat.
	Additive Effect = iota
	// Multiplicative purchases rescale the stat's value at purchase
	// time by multiplier ^ newLevel. Later purchases compound with
	// whatever the stat has become, not with a remembered baseline.
	Multiplicative
)

func (e Effect) String() string {
	switch e {
	case Additive:
		return "additive"
	case Multiplicative:
		return "multiplicative"
	default:
		return fmt.Sprintf("effect(%d)", int(e))
	}
}

// StatBlock is the aggregate combat profile progression produces.
// Multiplier fields start at 1 and scale the corresponding base value in
// the simulation; MaxHealth and Armor are absolute.
type StatBlock struct {
	MaxHealth    float64
	DamageMult   float64
	SpeedMult    float64
	Armor        float64
	FireRateMult float64
	AccuracyMult float64
}

// DefaultStatBlock is the level-1 profile before any purchases.
func DefaultStatBlock() StatBlock {
	return StatBlock{
		MaxHealth:    100,
		DamageMult:   1,
		SpeedMult:    1,
		Armor:        5,
		FireRateMult: 1,
		AccuracyMult: 1,
	}
}

// Skill declares one purchasable upgrade.
type Skill struct {
	ID          string
	Name        string
	Stat        Stat
	Effect      Effect
	Value       float64 // per-level addition, or the per-purchase multiplier
	MaxLevel    int
	UnlockLevel int
	Cost        int // skill points per purchase
}

// SkillTable maps skill IDs to their declarations.
type SkillTable map[string]Skill

// DefaultSkills returns the built-in upgrade tree.
func DefaultSkills() SkillTable {
	return SkillTable{
		"reinforced_hull": {ID: "reinforced_hull", Name: "Reinforced Hull", Stat: StatMaxHealth, Effect: Additive, Value: 20, MaxLevel: 5, UnlockLevel: 1, Cost: 1},
		"armor_plating":   {ID: "armor_plating", Name: "Armor Plating", Stat: StatArmor, Effect: Additive, Value: 2, MaxLevel: 5, UnlockLevel: 2, Cost: 1},
		"heavy_shells":    {ID: "heavy_shells", Name: "Heavy Shells", Stat: StatDamage, Effect: Multiplicative, Value: 1.15, MaxLevel: 3, UnlockLevel: 3, Cost: 2},
		"engine_tuning":   {ID: "engine_tuning", Name: "Engine Tuning", Stat: StatSpeed, Effect: Multiplicative, Value: 1.1, MaxLevel: 3, UnlockLevel: 2, Cost: 1},
		"auto_loader":     {ID: "auto_loader", Name: "Auto Loader", Stat: StatFireRate, Effect: Multiplicative, Value: 1.1, MaxLevel: 4, UnlockLevel: 4, Cost: 2},
		"gun_stabilizer":  {ID: "gun_stabilizer", Name: "Gun Stabilizer", Stat: StatAccuracy, Effect: Multiplicative, Value: 1.05, MaxLevel: 3, UnlockLevel: 5, Cost: 1},
	}
}

// Validate checks the table for declarations that could never be
// purchased or would corrupt the stat block.
func (t SkillTable) Validate() error {
	for id, s := range t {
		if s.ID != id {
			return fmt.Errorf("skill %q: declared ID %q does not match its key", id, s.ID)
		}
		if s.MaxLevel < 1 {
			return fmt.Errorf("skill %q: max level must be at least 1, got %d", id, s.MaxLevel)
		}
		if s.UnlockLevel < 1 {
			return fmt.Errorf("skill %q: unlock level must be at least 1, got %d", id, s.UnlockLevel)
		}
		if s.Cost < 1 {
			return fmt.Errorf("skill %q: cost must be at least 1, got %d", id, s.Cost)
		}
		if s.Effect == Multiplicative && s.Value <= 0 {
			return fmt.Errorf("skill %q: multiplier must be positive, got %g", id, s.Value)
		}
		switch s.Stat {
		case StatMaxHealth, StatDamage, StatSpeed, StatArmor, StatFireRate, StatAccuracy:
		default:
			return fmt.Errorf("skill %q: unknown stat %d", id, int(s.Stat))
		}
		switch s.Effect {
		case Additive, Multiplicative:
		default:
			return fmt.Errorf("skill %q: unknown effect %d", id, int(s.Effect))
		}
	}
	return nil
}
