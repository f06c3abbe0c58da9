package scenario

// Default returns the built-in demo skirmish, used by the demo verb and by
// run when no scenario file is given.
func Default() *Scenario {
	s := &Scenario{
		Name:        "demo_skirmish",
		DisplayName: "Demo Skirmish",
		Duration:    180,
		Seed:        1337,
		Forces:      Forces{Tanks: 3, Riflemen: 6, RPGs: 2, Snipers: 1, Medics: 1},
		Mines:       4,
		Arena: Arena{
			Name:        "steel_basin",
			DisplayName: "Steel Basin",
			Author:      "ArmorClash",
			Width:       2000,
			Height:      2000,
		},
		Drops: []Drop{
			{Type: "health", At: 30},
			{Type: "damage", At: 60},
			{Type: "shield", At: 90},
			{Type: "rapidfire", At: 120},
		},
		Rules: []Rule{
			{Name: "player_down", When: `!PlayerAlive`, Action: ActionEndBattle},
			{Name: "board_cleared", When: `TanksAlive == 0 && InfantryAlive == 0`, Action: ActionEndBattle},
			{Name: "late_reinforcements", When: `Elapsed > 90 && InfantryAlive < 3`, Action: ActionSpawnWave, Class: "rifleman", Count: 4, Once: true},
			{Name: "pity_health_drop", When: `PlayerAlive && PlayerHealth < 30`, Action: ActionDropPowerUp, Type: "health", Once: true},
		},
	}
	s.applyDefaults()
	return s
}
