package battle

import (
	"fmt"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/armorclash/engine/internal/scenario"
	"github.com/armorclash/engine/internal/worker"
	"github.com/armorclash/engine/pkg/geom"
	"github.com/armorclash/engine/pkg/record"
	"github.com/armorclash/engine/pkg/sim"
)

// RuleEnv is the environment scenario rule conditions evaluate against,
// e.g. "PlayerAlive && Elapsed > 90". Counts cover hostiles only; the
// player tank is reported through its own fields.
type RuleEnv struct {
	Frame         int
	Elapsed       float64
	Duration      float64
	PlayerAlive   bool
	PlayerHealth  float64
	PlayerKills   int
	Level         int
	TanksAlive    int
	InfantryAlive int
	MinesLeft     int
	CratesOut     int
}

// compiledRule pairs a scenario rule with its compiled condition.
type compiledRule struct {
	scenario.Rule
	program *vm.Program
	fired   bool
}

// compileRules compiles every rule condition against RuleEnv. A rule that
// does not compile fails the whole load; broken scenarios should not run
// half-scripted.
func compileRules(rules []scenario.Rule) ([]*compiledRule, error) {
	out := make([]*compiledRule, 0, len(rules))
	for _, r := range rules {
		program, err := expr.Compile(r.When, expr.Env(RuleEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
		}
		out = append(out, &compiledRule{Rule: r, program: program})
	}
	return out, nil
}

func (s *Service) buildRuleEnv() RuleEnv {
	env := RuleEnv{
		Frame:       int(s.frame),
		Elapsed:     s.elapsed,
		Duration:    s.scen.Duration,
		PlayerKills: s.kills,
		Level:       s.prog.Level(),
	}
	if t, ok := s.world.Player(); ok && !t.IsDead() {
		env.PlayerAlive = true
		env.PlayerHealth = t.Health
	}
	s.world.EachTank(func(t *sim.Tank) bool {
		if !t.IsPlayer && !t.IsDead() {
			env.TanksAlive++
		}
		return true
	})
	s.world.EachInfantry(func(n *sim.Infantry) bool {
		if n.IsAlive() {
			env.InfantryAlive++
		}
		return true
	})
	counts := s.world.Counts()
	env.MinesLeft = counts.Mines
	env.CratesOut = counts.PowerUps
	return env
}

// evaluateRules runs every pending rule condition against the current
// frame. A condition error skips the rule for this frame only.
func (s *Service) evaluateRules() {
	if len(s.rules) == 0 || s.ended {
		return
	}
	env := s.buildRuleEnv()
	for _, r := range s.rules {
		if r.Once && r.fired {
			continue
		}
		result, err := vm.Run(r.program, env)
		if err != nil {
			s.logger().Warn("Rule condition error", "rule", r.Name, "error", err)
			continue
		}
		if pass, _ := result.(bool); !pass {
			continue
		}
		r.fired = true
		s.applyRuleAction(r)
		if s.ended {
			return
		}
	}
}

func (s *Service) applyRuleAction(r *compiledRule) {
	switch r.Action {
	case scenario.ActionEndBattle:
		s.logger().Info("Rule ended battle", "rule", r.Name, "frame", s.frame)
		s.finish(r.Name)
	case scenario.ActionSpawnWave:
		s.spawnWave(r)
	case scenario.ActionDropPowerUp:
		ptype, err := sim.ParsePowerUpType(r.Type)
		if err != nil {
			s.logger().Warn("Rule drop has unknown type", "rule", r.Name, "type", r.Type)
			return
		}
		center := geom.Vector2{X: s.scen.Arena.Width / 2, Y: s.scen.Arena.Height / 2}
		s.dropCrate(ptype, s.randomPointInBand(center, 100, 400))
	case scenario.ActionLog:
		msg := r.Message
		if msg == "" {
			msg = r.Name
		}
		s.emit(worker.EventGeneral, record.GeneralEvent{
			Time:         time.Now(),
			CaptureFrame: s.frame,
			Name:         r.Name,
			Message:      msg,
		})
	}
}

// spawnWave brings reinforcements in from outside the current fight, as a
// fresh squad.
func (s *Service) spawnWave(r *compiledRule) {
	class, err := sim.ParseInfantryClass(r.Class)
	if err != nil {
		s.logger().Warn("Rule wave has unknown class", "rule", r.Name, "class", r.Class)
		return
	}
	s.waves++
	squad := s.squadName()
	center := geom.Vector2{X: s.scen.Arena.Width / 2, Y: s.scen.Arena.Height / 2}
	spawned := 0
	for i := 0; i < r.Count; i++ {
		pos := s.randomPointInBand(center, 600, 900)
		if err := s.spawnSoldier(class, pos, squad); err != nil {
			s.logger().Warn("Wave spawn failed", "rule", r.Name, "error", err)
			break
		}
		spawned++
	}
	s.logger().Info("Reinforcement wave spawned",
		"rule", r.Name, "class", r.Class, "count", spawned, "squad", squad)
	s.emit(worker.EventGeneral, record.GeneralEvent{
		Time:         time.Now(),
		CaptureFrame: s.frame,
		Name:         "wave_spawned",
		Message:      fmt.Sprintf("%d %s reinforcements joined as %s squad", spawned, r.Class, squad),
		ExtraData:    map[string]any{"class": r.Class, "count": spawned, "squad": squad},
	})
}
