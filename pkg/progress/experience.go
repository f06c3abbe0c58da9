package progress

import (
	"fmt"
	"math"
)

const (
	baseThreshold   = 100
	curveFactor     = 1.2
	pointsPerLevel  = 1
	bonusAfterLevel = 10 // levels past this grant double points
)

// LevelUp carries the notification emitted once per level gained.
type LevelUp struct {
	Level       int
	SkillPoints int
}

// Config assembles a progression system. A nil skill table falls back to
// the default tree; a zero BaseStats falls back to the default profile.
type Config struct {
	Skills    SkillTable
	BaseStats StatBlock
	OnLevelUp func(LevelUp)
}

// System is the experience and skill ledger of one player. All methods
// run on the caller's goroutine; failed purchases are silent no-ops.
type System struct {
	level       int
	experience  int
	toNext      int
	total       int
	skillPoints int

	stats       StatBlock
	skills      SkillTable
	skillLevels map[string]int
	onLevelUp   func(LevelUp)
}

// NewSystem validates the skill table and starts a level-1 ledger.
func NewSystem(cfg Config) (*System, error) {
	if cfg.Skills == nil {
		cfg.Skills = DefaultSkills()
	}
	if cfg.BaseStats == (StatBlock{}) {
		cfg.BaseStats = DefaultStatBlock()
	}
	if err := cfg.Skills.Validate(); err != nil {
		return nil, fmt.Errorf("new progression: %w", err)
	}

	return &System{
		level:       1,
		toNext:      baseThreshold,
		stats:       cfg.BaseStats,
		skills:      cfg.Skills,
		skillLevels: make(map[string]int),
		onLevelUp:   cfg.OnLevelUp,
	}, nil
}

// AwardExperience adds to the current and lifetime totals, then levels up
// as many times as the new total covers. One large award can cross
// several thresholds; each crossing emits its own notification.
// Non-positive awards are ignored.
func (s *System) AwardExperience(amount int) {
	if amount <= 0 {
		return
	}
	s.experience += amount
	s.total += amount

	for s.experience >= s.toNext {
		s.experience -= s.toNext
		s.level++
		if s.level > bonusAfterLevel {
			s.skillPoints += 2 * pointsPerLevel
		} else {
			s.skillPoints += pointsPerLevel
		}
		s.toNext = threshold(s.level)
		if s.onLevelUp != nil {
			s.onLevelUp(LevelUp{Level: s.level, SkillPoints: s.skillPoints})
		}
	}
}

// threshold is the cost of leaving the given level, floor(100 * 1.2^(n-1)).
// Pow lands a hair under exact integers for small exponents, so nudge
// before flooring to keep the curve on its intended table.
func threshold(level int) int {
	return int(math.Floor(baseThreshold*math.Pow(curveFactor, float64(level-1)) + 1e-9))
}

// UpgradeSkill buys one level of a skill. It fails silently, leaving all
// state untouched, when the skill is unknown, already at max level,
// unaffordable, or still locked. On success the cost is debited, the
// purchased level increments, and the effect is applied to the stats.
func (s *System) UpgradeSkill(id string) bool {
	skill, ok := s.skills[id]
	if !ok {
		return false
	}
	level := s.skillLevels[id]
	if level >= skill.MaxLevel {
		return false
	}
	if s.skillPoints < skill.Cost {
		return false
	}
	if s.level < skill.UnlockLevel {
		return false
	}

	s.skillPoints -= skill.Cost
	newLevel := level + 1
	s.skillLevels[id] = newLevel
	s.apply(skill, newLevel)
	return true
}

func (s *System) apply(skill Skill, newLevel int) {
	target := s.statRef(skill.Stat)
	switch skill.Effect {
	case Additive:
		*target += skill.Value * float64(newLevel)
	case Multiplicative:
		// Compounds with the stat's value at purchase time.
		*target *= math.Pow(skill.Value, float64(newLevel))
	}
}

func (s *System) statRef(stat Stat) *float64 {
	switch stat {
	case StatMaxHealth:
		return &s.stats.MaxHealth
	case StatDamage:
		return &s.stats.DamageMult
	case StatSpeed:
		return &s.stats.SpeedMult
	case StatArmor:
		return &s.stats.Armor
	case StatFireRate:
		return &s.stats.FireRateMult
	default:
		return &s.stats.AccuracyMult
	}
}

// KillReward sizes the XP for defeating an opponent: the per-type base
// scaled by 1 + (level-1)*0.1, floored. Higher-level players squeeze a
// little more out of every kill.
func KillReward(base, level int) int {
	if base <= 0 {
		return 0
	}
	if level < 1 {
		level = 1
	}
	return int(float64(base) * (1 + float64(level-1)*0.1))
}

// Level is the current player level, starting at 1.
func (s *System) Level() int { return s.level }

// Experience is the progress into the current level.
func (s *System) Experience() int { return s.experience }

// ExperienceToNext is the remaining threshold for the next level.
func (s *System) ExperienceToNext() int { return s.toNext }

// TotalExperience is the lifetime award sum; level-ups never reduce it.
func (s *System) TotalExperience() int { return s.total }

// SkillPoints is the unspent point balance.
func (s *System) SkillPoints() int { return s.skillPoints }

// SkillLevel is the purchased level of a skill, zero when never bought.
func (s *System) SkillLevel(id string) int { return s.skillLevels[id] }

// Stats returns a copy of the current stat block.
func (s *System) Stats() StatBlock { return s.stats }
