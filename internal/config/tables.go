package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/armorclash/engine/pkg/progress"
	"github.com/armorclash/engine/pkg/sim"
)

// Stat tables ship with compiled-in defaults; the config file may override
// individual numeric fields. Unknown class, type, skill, or field names are
// load errors so a typo cannot silently leave a default in place.
// Viper lowercases map keys, so field sets below are lowercase.

var infantryClasses = map[string]sim.InfantryClass{
	"rifleman": sim.Rifleman,
	"rpg":      sim.RPG,
	"sniper":   sim.Sniper,
	"medic":    sim.Medic,
}

var projectileTypes = map[string]sim.ProjectileType{
	"machinegun": sim.Machinegun,
	"cannon":     sim.Cannon,
	"rocket":     sim.Rocket,
}

// GetInfantryStats returns the infantry stat table with any sim.infantry
// overrides from the config file applied.
func GetInfantryStats() (sim.InfantryStatsTable, error) {
	table := sim.DefaultInfantryStats()

	known := map[string]bool{
		"maxhealth": true, "damage": true, "firerate": true,
		"range": true, "speed": true, "accuracy": true,
	}

	for name := range viper.GetStringMap("sim.infantry") {
		if _, ok := infantryClasses[name]; !ok {
			return nil, fmt.Errorf("infantry stat overrides: unknown class %q", name)
		}
	}

	for name, class := range infantryClasses {
		for field := range viper.GetStringMap("sim.infantry." + name) {
			if !known[field] {
				return nil, fmt.Errorf("infantry stat overrides: unknown field %q for class %s", field, name)
			}
		}

		row := table[class]
		prefix := "sim.infantry." + name + "."
		overrideFloat(prefix+"maxHealth", &row.MaxHealth)
		overrideFloat(prefix+"damage", &row.Damage)
		overrideFloat(prefix+"fireRate", &row.FireRate)
		overrideFloat(prefix+"range", &row.Range)
		overrideFloat(prefix+"speed", &row.Speed)
		overrideFloat(prefix+"accuracy", &row.Accuracy)
		table[class] = row
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// GetProjectileStats returns the projectile stat table with any
// sim.projectiles overrides from the config file applied.
func GetProjectileStats() (sim.ProjectileStatsTable, error) {
	table := sim.DefaultProjectileStats()

	known := map[string]bool{
		"speed": true, "lifetime": true, "damage": true,
		"explosionradius": true, "maxturnrate": true,
		"homingstrength": true, "traillength": true,
	}

	for name := range viper.GetStringMap("sim.projectiles") {
		if _, ok := projectileTypes[name]; !ok {
			return nil, fmt.Errorf("projectile stat overrides: unknown type %q", name)
		}
	}

	for name, ptype := range projectileTypes {
		for field := range viper.GetStringMap("sim.projectiles." + name) {
			if !known[field] {
				return nil, fmt.Errorf("projectile stat overrides: unknown field %q for type %s", field, name)
			}
		}

		row := table[ptype]
		prefix := "sim.projectiles." + name + "."
		overrideFloat(prefix+"speed", &row.Speed)
		overrideFloat(prefix+"lifetime", &row.Lifetime)
		overrideFloat(prefix+"damage", &row.Damage)
		overrideFloat(prefix+"explosionRadius", &row.ExplosionRadius)
		overrideFloat(prefix+"maxTurnRate", &row.MaxTurnRate)
		overrideFloat(prefix+"homingStrength", &row.HomingStrength)
		overrideInt(prefix+"trailLength", &row.TrailLength)
		table[ptype] = row
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// GetSkillDefs returns the skill tree with any progress.skills overrides
// from the config file applied. Only the numeric tuning fields may be
// overridden; a skill's target stat and composition rule are fixed.
func GetSkillDefs() (progress.SkillTable, error) {
	table := progress.DefaultSkills()

	known := map[string]bool{
		"value": true, "cost": true, "maxlevel": true, "unlocklevel": true,
	}

	for id := range viper.GetStringMap("progress.skills") {
		skill, ok := table[id]
		if !ok {
			return nil, fmt.Errorf("skill overrides: unknown skill %q", id)
		}

		for field := range viper.GetStringMap("progress.skills." + id) {
			if !known[field] {
				return nil, fmt.Errorf("skill overrides: unknown field %q for skill %q", field, id)
			}
		}

		prefix := "progress.skills." + id + "."
		overrideFloat(prefix+"value", &skill.Value)
		overrideInt(prefix+"cost", &skill.Cost)
		overrideInt(prefix+"maxLevel", &skill.MaxLevel)
		overrideInt(prefix+"unlockLevel", &skill.UnlockLevel)
		table[id] = skill
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

func overrideFloat(key string, dst *float64) {
	if viper.IsSet(key) {
		*dst = viper.GetFloat64(key)
	}
}

func overrideInt(key string, dst *int) {
	if viper.IsSet(key) {
		*dst = viper.GetInt(key)
	}
}
