package sim

import "fmt"

// InfantryStats is the static stat row an InfantryClass resolves to.
// Rows are data, not behavior: the tables may come from configuration, and
// a class missing from its table is a construction-time error.
type InfantryStats struct {
	MaxHealth float64
	Damage    float64
	FireRate  float64 // rounds per minute
	Range     float64
	Speed     float64
	Accuracy  float64 // 0..1, 1 = perfect aim
	Weapon    ProjectileType
}

// InfantryStatsTable maps each class to its stats.
type InfantryStatsTable map[InfantryClass]InfantryStats

// DefaultInfantryStats returns the built-in stat table.
func DefaultInfantryStats() InfantryStatsTable {
	return InfantryStatsTable{
		Rifleman: {MaxHealth: 100, Damage: 8, FireRate: 120, Range: 150, Speed: 60, Accuracy: 0.75, Weapon: Machinegun},
		RPG:      {MaxHealth: 80, Damage: 50, FireRate: 12, Range: 220, Speed: 50, Accuracy: 0.7, Weapon: Rocket},
		Sniper:   {MaxHealth: 60, Damage: 40, FireRate: 30, Range: 300, Speed: 45, Accuracy: 0.95, Weapon: Machinegun},
		Medic:    {MaxHealth: 70, Damage: 5, FireRate: 60, Range: 100, Speed: 70, Accuracy: 0.6, Weapon: Machinegun},
	}
}

// Validate checks that every class resolves and carries sane numbers.
func (t InfantryStatsTable) Validate() error {
	for _, class := range []InfantryClass{Rifleman, RPG, Sniper, Medic} {
		s, ok := t[class]
		if !ok {
			return fmt.Errorf("infantry stats missing class %s", class)
		}
		if s.MaxHealth <= 0 {
			return fmt.Errorf("infantry class %s: max health must be positive, got %g", class, s.MaxHealth)
		}
		if s.FireRate <= 0 {
			return fmt.Errorf("infantry class %s: fire rate must be positive, got %g", class, s.FireRate)
		}
		if s.Range <= 0 {
			return fmt.Errorf("infantry class %s: range must be positive, got %g", class, s.Range)
		}
		if s.Accuracy < 0 || s.Accuracy > 1 {
			return fmt.Errorf("infantry class %s: accuracy must be in [0,1], got %g", class, s.Accuracy)
		}
	}
	return nil
}

// ProjectileStats is the static stat row a ProjectileType resolves to.
// MaxTurnRate and HomingStrength only apply to homing types.
type ProjectileStats struct {
	Speed           float64
	Lifetime        float64 // seconds until the miss path removes the shot
	Damage          float64
	ExplosionRadius float64
	MaxTurnRate     float64 // rad/s heading-change bound while homing
	HomingStrength  float64 // closing-speed boost factor, bounded in flight
	TrailLength     int     // render trail ring capacity
}

// ProjectileStatsTable maps each type to its stats.
type ProjectileStatsTable map[ProjectileType]ProjectileStats

// DefaultProjectileStats returns the built-in stat table. Trail capacities
// are 8 for ballistic shots and 15 for homing ones.
func DefaultProjectileStats() ProjectileStatsTable {
	return ProjectileStatsTable{
		Machinegun: {Speed: 600, Lifetime: 1.5, Damage: 8, ExplosionRadius: 0, TrailLength: 8},
		Cannon:     {Speed: 420, Lifetime: 2.5, Damage: 35, ExplosionRadius: 40, TrailLength: 8},
		Rocket:     {Speed: 300, Lifetime: 4.0, Damage: 50, ExplosionRadius: 60, MaxTurnRate: 3.0, HomingStrength: 0.5, TrailLength: 15},
	}
}

// Validate checks that every type resolves and carries sane numbers.
func (t ProjectileStatsTable) Validate() error {
	for _, ptype := range []ProjectileType{Machinegun, Cannon, Rocket} {
		s, ok := t[ptype]
		if !ok {
			return fmt.Errorf("projectile stats missing type %s", ptype)
		}
		if s.Speed <= 0 {
			return fmt.Errorf("projectile type %s: speed must be positive, got %g", ptype, s.Speed)
		}
		if s.Lifetime <= 0 {
			return fmt.Errorf("projectile type %s: lifetime must be positive, got %g", ptype, s.Lifetime)
		}
		if s.TrailLength <= 0 {
			return fmt.Errorf("projectile type %s: trail length must be positive, got %d", ptype, s.TrailLength)
		}
	}
	if rocket := t[Rocket]; rocket.MaxTurnRate <= 0 {
		return fmt.Errorf("projectile type rocket: max turn rate must be positive, got %g", rocket.MaxTurnRate)
	}
	return nil
}

// PowerUpSpec fixes the magnitude, buff duration, and despawn lifetime of
// a crate type. Instant types carry a zero duration.
type PowerUpSpec struct {
	Value    float64
	Duration float64
	Lifetime float64
}

// PowerUpSpecTable maps each crate type to its spec.
type PowerUpSpecTable map[PowerUpType]PowerUpSpec

// DefaultPowerUpSpecs returns the built-in crate table.
func DefaultPowerUpSpecs() PowerUpSpecTable {
	return PowerUpSpecTable{
		PowerUpAmmo:      {Value: 50, Lifetime: 12},
		PowerUpHealth:    {Value: 35, Lifetime: 12},
		PowerUpSpeed:     {Value: 1.5, Duration: 6, Lifetime: 12},
		PowerUpDamage:    {Value: 1.5, Duration: 8, Lifetime: 12},
		PowerUpMultishot: {Value: 2, Duration: 10, Lifetime: 12},
		PowerUpRapidFire: {Value: 2, Duration: 6, Lifetime: 12},
		PowerUpShield:    {Value: 50, Duration: 5, Lifetime: 12},
		PowerUpLandmine:  {Value: 3, Lifetime: 12},
	}
}

// Validate checks that every crate type resolves and despawns eventually.
func (t PowerUpSpecTable) Validate() error {
	for _, ptype := range []PowerUpType{
		PowerUpAmmo, PowerUpHealth, PowerUpSpeed, PowerUpDamage,
		PowerUpMultishot, PowerUpRapidFire, PowerUpShield, PowerUpLandmine,
	} {
		s, ok := t[ptype]
		if !ok {
			return fmt.Errorf("powerup specs missing type %s", ptype)
		}
		if s.Lifetime <= 0 {
			return fmt.Errorf("powerup type %s: lifetime must be positive, got %g", ptype, s.Lifetime)
		}
	}
	return nil
}

// TankSpec holds the movement and combat tuning constants of a tank.
type TankSpec struct {
	MaxHealth    float64
	Armor        float64 // flat per-hit damage reduction
	MaxSpeed     float64
	TurnSpeed    float64 // rad/s at full steer
	Friction     float64 // per-tick velocity retention factor
	EnginePower  float64 // acceleration at full throttle
	FireCooldown float64 // seconds between main-gun shots
}

// DefaultTankSpec returns the built-in tank tuning.
func DefaultTankSpec() TankSpec {
	return TankSpec{
		MaxHealth:    100,
		Armor:        5,
		MaxSpeed:     200,
		TurnSpeed:    2.5,
		Friction:     0.92,
		EnginePower:  320,
		FireCooldown: 0.5,
	}
}

// Validate checks the spec carries sane numbers.
func (s TankSpec) Validate() error {
	if s.MaxHealth <= 0 {
		return fmt.Errorf("tank spec: max health must be positive, got %g", s.MaxHealth)
	}
	if s.MaxSpeed <= 0 {
		return fmt.Errorf("tank spec: max speed must be positive, got %g", s.MaxSpeed)
	}
	if s.Friction <= 0 || s.Friction > 1 {
		return fmt.Errorf("tank spec: friction must be in (0,1], got %g", s.Friction)
	}
	if s.FireCooldown <= 0 {
		return fmt.Errorf("tank spec: fire cooldown must be positive, got %g", s.FireCooldown)
	}
	return nil
}
