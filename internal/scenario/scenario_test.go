package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	data := `{
		"name": "test_battle",
		"duration": 120,
		"seed": 42,
		"tickRate": 30,
		"arena": { "name": "dune_sea", "displayName": "Dune Sea", "width": 3000, "height": 1500 },
		"forces": { "tanks": 2, "riflemen": 4, "rpgs": 1, "snipers": 1, "medics": 1 },
		"mines": 3,
		"modifiers": [ { "name": "double_xp", "description": "Twice the experience" } ],
		"powerUps": [ { "type": "health", "at": 20 }, { "type": "damage", "at": 45 } ],
		"rules": [
			{ "name": "player_down", "when": "!PlayerAlive", "action": "end_battle" },
			{ "name": "wave", "when": "Elapsed > 60", "action": "spawn_wave", "class": "rifleman", "count": 3, "once": true }
		]
	}`

	s, err := Parse([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, "test_battle", s.Name)
	assert.Equal(t, "test_battle", s.DisplayName, "displayName defaults to name")
	assert.Equal(t, "Skirmish", s.Tag, "tag defaults to Skirmish")
	assert.Equal(t, 120.0, s.Duration)
	assert.Equal(t, uint64(42), s.Seed)
	assert.Equal(t, 30.0, s.TickRate)
	assert.Equal(t, "dune_sea", s.Arena.Name)
	assert.Equal(t, 9, s.Forces.Total())
	assert.Equal(t, 3, s.Mines)
	assert.Len(t, s.Modifiers, 1)
	assert.Len(t, s.Drops, 2)
	assert.Len(t, s.Rules, 2)
}

func TestParse_Defaults(t *testing.T) {
	s, err := Parse([]byte(`{ "name": "bare" }`))
	require.NoError(t, err)

	assert.Equal(t, "steel_basin", s.Arena.Name)
	assert.Equal(t, "steel_basin", s.Arena.DisplayName)
	assert.Equal(t, 2000.0, s.Arena.Width)
	assert.Equal(t, 2000.0, s.Arena.Height)
	assert.Equal(t, 0.0, s.TickRate, "tickRate stays zero so the config rate applies")
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad JSON", `not_json`},
		{"missing name", `{}`},
		{"negative duration", `{ "name": "x", "duration": -1 }`},
		{"negative tickRate", `{ "name": "x", "tickRate": -30 }`},
		{"negative mines", `{ "name": "x", "mines": -1 }`},
		{"force count out of range", `{ "name": "x", "forces": { "riflemen": 300 } }`},
		{"negative force count", `{ "name": "x", "forces": { "tanks": -1 } }`},
		{"unknown power-up type", `{ "name": "x", "powerUps": [ { "type": "nuke", "at": 5 } ] }`},
		{"negative drop time", `{ "name": "x", "powerUps": [ { "type": "health", "at": -5 } ] }`},
		{"rule without name", `{ "name": "x", "rules": [ { "when": "true", "action": "log" } ] }`},
		{"rule without condition", `{ "name": "x", "rules": [ { "name": "r", "action": "log" } ] }`},
		{"unknown rule action", `{ "name": "x", "rules": [ { "name": "r", "when": "true", "action": "explode" } ] }`},
		{"spawn_wave without count", `{ "name": "x", "rules": [ { "name": "r", "when": "true", "action": "spawn_wave", "class": "rifleman" } ] }`},
		{"spawn_wave unknown class", `{ "name": "x", "rules": [ { "name": "r", "when": "true", "action": "spawn_wave", "class": "knight", "count": 2 } ] }`},
		{"drop_powerup unknown type", `{ "name": "x", "rules": [ { "name": "r", "when": "true", "action": "drop_powerup", "type": "nuke" } ] }`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err, "expected error for: %s", tt.name)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "battle.json")
	require.NoError(t, os.WriteFile(path, []byte(`{ "name": "from_file" }`), 0644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from_file", s.Name)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/battle.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading scenario file")
}

func TestSession(t *testing.T) {
	s, err := Parse([]byte(`{
		"name": "test_battle",
		"tag": "Tournament",
		"seed": 7,
		"forces": { "tanks": 2, "riflemen": 4 },
		"modifiers": [ { "name": "double_xp" } ]
	}`))
	require.NoError(t, err)

	sess := s.Session("Skirmish", "1.0.0", 60)
	assert.Equal(t, "test_battle", sess.ScenarioName)
	assert.Equal(t, "Tournament", sess.Tag, "scenario tag wins over the default")
	assert.Equal(t, uint64(7), sess.Seed)
	assert.Equal(t, float32(60), sess.TickRate)
	assert.Equal(t, "1.0.0", sess.EngineVersion)
	assert.Equal(t, uint8(2), sess.Forces.Tanks)
	assert.Equal(t, uint8(4), sess.Forces.Riflemen)
	assert.Len(t, sess.Modifiers, 1)
	assert.False(t, sess.StartTime.IsZero())
}

func TestSession_ScenarioTickRateWins(t *testing.T) {
	s, err := Parse([]byte(`{ "name": "x", "tickRate": 30 }`))
	require.NoError(t, err)

	sess := s.Session("Skirmish", "1.0.0", 60)
	assert.Equal(t, float32(30), sess.TickRate)
}

func TestArenaRecord(t *testing.T) {
	s, err := Parse([]byte(`{
		"name": "x",
		"arena": { "name": "dune_sea", "displayName": "Dune Sea", "author": "someone", "width": 3000, "height": 1500 }
	}`))
	require.NoError(t, err)

	a := s.ArenaRecord()
	assert.Equal(t, "dune_sea", a.Name)
	assert.Equal(t, "Dune Sea", a.DisplayName)
	assert.Equal(t, "someone", a.Author)
	assert.Equal(t, 3000.0, a.Width)
	assert.Equal(t, 1500.0, a.Height)
}

func TestDefault(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())

	assert.Equal(t, "demo_skirmish", s.Name)
	assert.Positive(t, s.Forces.Total())
	assert.NotEmpty(t, s.Rules)
	assert.NotEmpty(t, s.Drops)
}
