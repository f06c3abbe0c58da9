package battle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armorclash/engine/internal/scenario"
	"github.com/armorclash/engine/internal/worker"
	"github.com/armorclash/engine/pkg/record"
)

func TestCompileRules(t *testing.T) {
	rules, err := compileRules([]scenario.Rule{
		{Name: "a", When: "PlayerAlive && Elapsed > 90", Action: scenario.ActionEndBattle},
		{Name: "b", When: "TanksAlive == 0 && InfantryAlive == 0", Action: scenario.ActionEndBattle},
		{Name: "c", When: "PlayerHealth < 30 || MinesLeft > CratesOut", Action: scenario.ActionLog},
	})
	require.NoError(t, err)
	assert.Len(t, rules, 3)
}

func TestCompileRules_SyntaxError(t *testing.T) {
	_, err := compileRules([]scenario.Rule{
		{Name: "broken", When: "Elapsed >", Action: scenario.ActionEndBattle},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `compile rule "broken"`)
}

func TestCompileRules_UnknownField(t *testing.T) {
	_, err := compileRules([]scenario.Rule{
		{Name: "typo", When: "PlayerAliv && Elapsed > 1", Action: scenario.ActionEndBattle},
	})
	require.Error(t, err)
}

func TestCompileRules_NonBoolean(t *testing.T) {
	_, err := compileRules([]scenario.Rule{
		{Name: "numeric", When: "Elapsed + 1", Action: scenario.ActionEndBattle},
	})
	require.Error(t, err)
}

func TestBuildRuleEnv(t *testing.T) {
	s, _ := loadService(t, testScenario(), Config{})

	env := s.buildRuleEnv()

	assert.Zero(t, env.Frame)
	assert.True(t, env.PlayerAlive)
	assert.Equal(t, 100.0, env.PlayerHealth)
	assert.Equal(t, 2, env.TanksAlive)
	assert.Equal(t, 2, env.InfantryAlive)
	assert.Equal(t, 1, env.MinesLeft)
	assert.Zero(t, env.CratesOut)
	assert.Equal(t, 1, env.Level)
	assert.Equal(t, 10.0, env.Duration)
}

func TestEvaluateRules_Once(t *testing.T) {
	scen := testScenario()
	scen.Forces = scenario.Forces{}
	scen.Mines = 0
	scen.Rules = []scenario.Rule{
		{Name: "every_frame", When: "true", Action: scenario.ActionLog, Message: "ping"},
		{Name: "single_shot", When: "true", Action: scenario.ActionLog, Message: "pong", Once: true},
	}
	s, c := loadService(t, scen, Config{})

	s.evaluateRules()
	s.evaluateRules()

	var pings, pongs int
	for _, p := range c.of(worker.EventGeneral) {
		switch p.(record.GeneralEvent).Message {
		case "ping":
			pings++
		case "pong":
			pongs++
		}
	}
	assert.Equal(t, 2, pings)
	assert.Equal(t, 1, pongs)
}

func TestEvaluateRules_EndBattle(t *testing.T) {
	scen := testScenario()
	scen.Rules = []scenario.Rule{
		{Name: "sudden_death", When: "PlayerKills >= 0", Action: scenario.ActionEndBattle},
		{Name: "never_reached", When: "true", Action: scenario.ActionLog},
	}
	s, c := loadService(t, scen, Config{})

	s.evaluateRules()

	assert.True(t, s.ended)
	assert.Equal(t, "sudden_death", s.endReason)

	// Evaluation stops once the battle ends, so the only general event is
	// the end marker itself.
	generals := c.of(worker.EventGeneral)
	require.Len(t, generals, 1)
	assert.Equal(t, "battle_ended", generals[0].(record.GeneralEvent).Name)
}

func TestEvaluateRules_SpawnWave(t *testing.T) {
	scen := testScenario()
	scen.Forces = scenario.Forces{}
	scen.Mines = 0
	scen.Rules = []scenario.Rule{
		{Name: "backup", When: "InfantryAlive == 0", Action: scenario.ActionSpawnWave, Class: "rpg", Count: 3, Once: true},
	}
	s, c := loadService(t, scen, Config{})

	s.evaluateRules()

	assert.Equal(t, 3, s.world.Counts().Infantry)
	soldiers := c.of(worker.EventNewInfantry)
	require.Len(t, soldiers, 3)
	unit := soldiers[0].(record.InfantryUnit)
	assert.Equal(t, "rpg", unit.Class)
	assert.Equal(t, "Bravo", unit.Squad)

	generals := c.of(worker.EventGeneral)
	require.Len(t, generals, 1)
	assert.Equal(t, "wave_spawned", generals[0].(record.GeneralEvent).Name)
}

func TestEvaluateRules_DropPowerUp(t *testing.T) {
	scen := testScenario()
	scen.Forces = scenario.Forces{}
	scen.Mines = 0
	scen.Rules = []scenario.Rule{
		{Name: "care_package", When: "CratesOut == 0", Action: scenario.ActionDropPowerUp, Type: "ammo", Once: true},
	}
	s, c := loadService(t, scen, Config{})

	s.evaluateRules()

	assert.Equal(t, 1, s.world.Counts().PowerUps)
	crates := c.of(worker.EventNewCrate)
	require.Len(t, crates, 1)
	assert.Equal(t, "ammo", crates[0].(record.CrateDrop).Type)
}
