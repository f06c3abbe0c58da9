// Package scenario loads scripted battle definitions. A scenario is pure
// data: force counts, arena dimensions, scheduled power-up drops and rule
// scripts. Parsing performs no spawning and no recording, it only validates
// and fills defaults so the battle service can trust every field.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/armorclash/engine/pkg/record"
	"github.com/armorclash/engine/pkg/sim"
)

// Scenario describes one scripted battle.
type Scenario struct {
	Name        string     `json:"name"`
	DisplayName string     `json:"displayName"`
	Tag         string     `json:"tag"`
	Duration    float64    `json:"duration"` // seconds, 0 means rules decide
	Seed        uint64     `json:"seed"`
	TickRate    float64    `json:"tickRate"` // 0 means use the configured rate
	Arena       Arena      `json:"arena"`
	Forces      Forces     `json:"forces"`
	Mines       int        `json:"mines"` // hostile mines planted before the first frame
	Modifiers   []Modifier `json:"modifiers"`
	Drops       []Drop     `json:"powerUps"`
	Rules       []Rule     `json:"rules"`
}

// Arena describes the playfield.
type Arena struct {
	Name        string  `json:"name"`
	DisplayName string  `json:"displayName"`
	Author      string  `json:"author"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
}

// Forces counts the hostile units spawned at battle start. The player tank
// is implicit and not part of the force list.
type Forces struct {
	Tanks    int `json:"tanks"`
	Riflemen int `json:"riflemen"`
	RPGs     int `json:"rpgs"`
	Snipers  int `json:"snipers"`
	Medics   int `json:"medics"`
}

// Total returns the number of units the force list spawns.
func (f Forces) Total() int {
	return f.Tanks + f.Riflemen + f.RPGs + f.Snipers + f.Medics
}

// Modifier names a battle variation active for the session, e.g. double XP.
type Modifier struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Drop schedules one power-up crate at a fixed battle time.
type Drop struct {
	Type string  `json:"type"`
	At   float64 `json:"at"` // seconds from battle start
}

// Rule pairs an expr condition with a declarative action. Conditions are
// compiled by the battle service at battle start; the scenario only carries
// the source text.
type Rule struct {
	Name    string `json:"name"`
	When    string `json:"when"`
	Action  string `json:"action"`
	Class   string `json:"class,omitempty"`   // spawn_wave: infantry class to spawn
	Count   int    `json:"count,omitempty"`   // spawn_wave: unit count
	Type    string `json:"type,omitempty"`    // drop_powerup: crate type
	Message string `json:"message,omitempty"` // log: text, defaults to the rule name
	Once    bool   `json:"once,omitempty"`
}

// Rule actions understood by the battle service.
const (
	ActionEndBattle   = "end_battle"
	ActionSpawnWave   = "spawn_wave"
	ActionDropPowerUp = "drop_powerup"
	ActionLog         = "log"
)

// Parse unmarshals and validates a scenario definition.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("error unmarshalling scenario: %w", err)
	}
	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading scenario file: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return s, nil
}

func (s *Scenario) applyDefaults() {
	if s.DisplayName == "" {
		s.DisplayName = s.Name
	}
	if s.Tag == "" {
		s.Tag = "Skirmish"
	}
	if s.Arena.Name == "" {
		s.Arena.Name = "steel_basin"
	}
	if s.Arena.DisplayName == "" {
		s.Arena.DisplayName = s.Arena.Name
	}
	if s.Arena.Width <= 0 {
		s.Arena.Width = 2000
	}
	if s.Arena.Height <= 0 {
		s.Arena.Height = 2000
	}
}

// Validate checks every field the battle service will act on. Unknown unit
// classes, power-up types and rule actions are load-time errors.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if s.Duration < 0 {
		return fmt.Errorf("scenario %s: negative duration", s.Name)
	}
	if s.TickRate < 0 {
		return fmt.Errorf("scenario %s: negative tickRate", s.Name)
	}
	if s.Mines < 0 {
		return fmt.Errorf("scenario %s: negative mine count", s.Name)
	}
	for _, n := range []struct {
		field string
		count int
	}{
		{"tanks", s.Forces.Tanks},
		{"riflemen", s.Forces.Riflemen},
		{"rpgs", s.Forces.RPGs},
		{"snipers", s.Forces.Snipers},
		{"medics", s.Forces.Medics},
	} {
		if n.count < 0 || n.count > 255 {
			return fmt.Errorf("scenario %s: %s count %d out of range 0-255", s.Name, n.field, n.count)
		}
	}
	for i, d := range s.Drops {
		if _, err := sim.ParsePowerUpType(d.Type); err != nil {
			return fmt.Errorf("scenario %s: powerUps[%d]: %w", s.Name, i, err)
		}
		if d.At < 0 {
			return fmt.Errorf("scenario %s: powerUps[%d]: negative drop time", s.Name, i)
		}
	}
	for i, r := range s.Rules {
		if err := r.validate(); err != nil {
			return fmt.Errorf("scenario %s: rules[%d]: %w", s.Name, i, err)
		}
	}
	return nil
}

func (r Rule) validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if r.When == "" {
		return fmt.Errorf("rule %s: condition is required", r.Name)
	}
	switch r.Action {
	case ActionEndBattle, ActionLog:
	case ActionSpawnWave:
		if r.Count < 1 {
			return fmt.Errorf("rule %s: spawn_wave needs a positive count", r.Name)
		}
		if _, err := sim.ParseInfantryClass(r.Class); err != nil {
			return fmt.Errorf("rule %s: %w", r.Name, err)
		}
	case ActionDropPowerUp:
		if _, err := sim.ParsePowerUpType(r.Type); err != nil {
			return fmt.Errorf("rule %s: %w", r.Name, err)
		}
	default:
		return fmt.Errorf("rule %s: unknown action %q", r.Name, r.Action)
	}
	return nil
}

// Session builds the record.Session this scenario opens.
func (s *Scenario) Session(tag, engineVersion string, tickRate float64) *record.Session {
	if s.Tag != "" {
		tag = s.Tag
	}
	if s.TickRate > 0 {
		tickRate = s.TickRate
	}
	modifiers := make([]record.Modifier, 0, len(s.Modifiers))
	for _, m := range s.Modifiers {
		modifiers = append(modifiers, record.Modifier{Name: m.Name, Description: m.Description})
	}
	return &record.Session{
		ScenarioName:  s.Name,
		DisplayName:   s.DisplayName,
		Tag:           tag,
		StartTime:     time.Now(),
		Seed:          s.Seed,
		TickRate:      float32(tickRate),
		EngineVersion: engineVersion,
		Forces: record.ForceCount{
			Tanks:    uint8(s.Forces.Tanks),
			Riflemen: uint8(s.Forces.Riflemen),
			RPGs:     uint8(s.Forces.RPGs),
			Snipers:  uint8(s.Forces.Snipers),
			Medics:   uint8(s.Forces.Medics),
		},
		Modifiers: modifiers,
	}
}

// ArenaRecord builds the record.Arena this scenario plays on.
func (s *Scenario) ArenaRecord() *record.Arena {
	return &record.Arena{
		Name:        s.Arena.Name,
		DisplayName: s.Arena.DisplayName,
		Author:      s.Arena.Author,
		Width:       s.Arena.Width,
		Height:      s.Arena.Height,
	}
}
