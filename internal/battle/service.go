// Package battle drives recorded battles: it owns the simulation world,
// assigns record IDs to every entity, translates simulation events into
// dispatched records and applies progression to the player tank. The
// package never talks to storage directly; everything leaves through the
// dispatcher.
package battle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/armorclash/engine/internal/cache"
	"github.com/armorclash/engine/internal/config"
	"github.com/armorclash/engine/internal/dispatcher"
	"github.com/armorclash/engine/internal/logging"
	"github.com/armorclash/engine/internal/scenario"
	"github.com/armorclash/engine/internal/worker"
	"github.com/armorclash/engine/pkg/geom"
	"github.com/armorclash/engine/pkg/progress"
	"github.com/armorclash/engine/pkg/record"
	"github.com/armorclash/engine/pkg/sim"
)

// Lifecycle events. The command layer registers their handlers so session
// open and close stay next to backend and cache wiring.
const (
	EventNewBattle = ":NEW:BATTLE:"
	EventSave      = ":SAVE:"
)

// SessionStart is the payload of EventNewBattle.
type SessionStart struct {
	Session *record.Session
	Arena   *record.Arena
}

// Dependencies holds all dependencies for the battle service
type Dependencies struct {
	Dispatcher *dispatcher.Dispatcher
	LogManager *logging.SlogManager
	Context    *Context

	// Rules, when set, receives the compiled rule programs of the loaded
	// scenario so the monitor and command layer can introspect them.
	Rules *cache.RuleCache
}

// Config tunes one battle run. Zero values fall back to sane defaults in
// Load.
type Config struct {
	TickRate        float64 // simulation steps per second
	CaptureInterval uint    // state sample every N frames
	Realtime        bool    // pace frames to the wall clock
	MaxFrames       uint    // hard stop for rule-less scenarios, 0 = none
	EngineVersion   string
	DefaultTag      string
	Rewards         config.Rewards

	// Stat tables, nil for compiled-in defaults.
	Tank        sim.TankSpec
	Infantry    sim.InfantryStatsTable
	Projectiles sim.ProjectileStatsTable
	PowerUps    sim.PowerUpSpecTable
	Skills      progress.SkillTable
}

// Summary reports how a battle ended.
type Summary struct {
	Frames      uint
	Elapsed     float64
	EndReason   string
	PlayerAlive bool
	PlayerKills int
	Level       int
	TotalXP     int
}

// shotTrack follows one live projectile so its path can be recorded after
// the world reclaims the slot.
type shotTrack struct {
	shooter    uint16
	weapon     string
	damage     float64
	origin     geom.Vector2
	startFrame uint
	points     []record.TrajectoryPoint
}

// mineTrack keeps the recording identity of a planted mine.
type mineTrack struct {
	id         uint16
	pos        geom.Vector2
	fromPlayer bool
	armedSeen  bool
}

// boost is one timed power-up effect on the player tank.
type boost struct {
	value     float64
	remaining float64
}

// Service runs one battle at a time. All methods are called from the Run
// goroutine; only the Context it updates is shared.
type Service struct {
	deps Dependencies
	cfg  Config

	world     *sim.World
	scen      *scenario.Scenario
	prog      *progress.System
	collector *sim.Collector
	rules     []*compiledRule

	units    map[sim.Handle]uint16
	ids      cache.SafeCounter
	player   sim.Handle
	playerID uint16

	shots  map[sim.Handle]*shotTrack
	mines  map[sim.Handle]*mineTrack
	crates map[sim.Handle]uint16
	pilots map[sim.Handle]*tankPilot

	boosts   map[sim.PowerUpType]boost
	levelUps []progress.LevelUp

	frame     uint
	elapsed   float64
	kills     int
	waves     int
	nextDrop  int
	ended     bool
	endReason string
}

// NewService creates a new battle service
func NewService(deps Dependencies) *Service {
	return &Service{deps: deps}
}

// Load prepares a battle from a scenario: compiles the rule set, builds the
// world, spawns the scripted forces and announces the session plus every
// starting unit through the dispatcher. After Load returns the recorder
// knows the full cast and Run can start stepping.
func (s *Service) Load(scen *scenario.Scenario, cfg Config) error {
	if err := scen.Validate(); err != nil {
		return fmt.Errorf("load battle: %w", err)
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = 60
	}
	if cfg.CaptureInterval < 1 {
		cfg.CaptureInterval = 5
	}
	if scen.TickRate > 0 {
		cfg.TickRate = scen.TickRate
	}
	if cfg.Rewards == (config.Rewards{}) {
		cfg.Rewards = config.Rewards{Tank: 100, Rifleman: 25, RPG: 40, Sniper: 50, Medic: 30}
	}

	rules, err := compileRules(scen.Rules)
	if err != nil {
		return fmt.Errorf("load battle: %w", err)
	}
	if s.deps.Rules != nil {
		s.deps.Rules.Reset()
		for _, r := range rules {
			s.deps.Rules.Set(r.Name, r.program)
		}
	}

	collector := &sim.Collector{}
	world, err := sim.NewWorld(sim.Config{
		Bounds:      geom.Rect{Width: scen.Arena.Width, Height: scen.Arena.Height},
		Seed:        scen.Seed,
		Tank:        cfg.Tank,
		Infantry:    cfg.Infantry,
		Projectiles: cfg.Projectiles,
		PowerUps:    cfg.PowerUps,
		Sink:        collector,
	})
	if err != nil {
		return fmt.Errorf("load battle: %w", err)
	}

	prog, err := progress.NewSystem(progress.Config{
		Skills:    cfg.Skills,
		OnLevelUp: func(lv progress.LevelUp) { s.levelUps = append(s.levelUps, lv) },
	})
	if err != nil {
		return fmt.Errorf("load battle: %w", err)
	}

	s.cfg = cfg
	s.scen = scen
	s.world = world
	s.collector = collector
	s.prog = prog
	s.rules = rules
	s.units = make(map[sim.Handle]uint16)
	s.ids.Set(0)
	s.shots = make(map[sim.Handle]*shotTrack)
	s.mines = make(map[sim.Handle]*mineTrack)
	s.crates = make(map[sim.Handle]uint16)
	s.pilots = make(map[sim.Handle]*tankPilot)
	s.boosts = make(map[sim.PowerUpType]boost)
	s.levelUps = nil
	s.frame = 0
	s.elapsed = 0
	s.kills = 0
	s.waves = 0
	s.nextDrop = 0
	s.ended = false
	s.endReason = ""

	session := scen.Session(cfg.DefaultTag, cfg.EngineVersion, cfg.TickRate)
	arena := scen.ArenaRecord()
	if err := s.emitSync(EventNewBattle, SessionStart{Session: session, Arena: arena}); err != nil {
		return fmt.Errorf("load battle: %w", err)
	}
	s.deps.Context.SetProgress(0, 0)

	if err := s.spawnForces(); err != nil {
		return fmt.Errorf("load battle: %w", err)
	}

	s.logger().Info("Battle loaded",
		"scenario", scen.Name,
		"tanks", scen.Forces.Tanks,
		"infantry", scen.Forces.Riflemen+scen.Forces.RPGs+scen.Forces.Snipers+scen.Forces.Medics,
		"mines", scen.Mines,
		"rules", len(rules))
	return nil
}

// Run steps the battle until a rule or the scenario clock ends it, then
// announces the save. In realtime mode frames are paced to the tick rate;
// otherwise the loop free-runs for headless recording.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	if s.world == nil {
		return Summary{}, fmt.Errorf("run battle: no battle loaded")
	}

	dt := 1.0 / s.cfg.TickRate
	var tick <-chan time.Time
	if s.cfg.Realtime {
		t := time.NewTicker(time.Duration(float64(time.Second) * dt))
		defer t.Stop()
		tick = t.C
	}

	for !s.ended {
		if tick != nil {
			select {
			case <-ctx.Done():
				s.finish("cancelled")
				continue
			case <-tick:
			}
		} else if ctx.Err() != nil {
			s.finish("cancelled")
			continue
		}
		s.step(dt)
	}

	summary := s.summary()
	if err := s.emitSync(EventSave, summary); err != nil {
		return summary, fmt.Errorf("run battle: %w", err)
	}
	s.logger().Info("Battle ended",
		"reason", summary.EndReason,
		"frames", summary.Frames,
		"elapsed", summary.Elapsed,
		"playerKills", summary.PlayerKills,
		"level", summary.Level)
	return summary, nil
}

// step advances the battle one frame: pilot commands, the simulation step,
// event translation, scheduled drops, rules and state sampling.
func (s *Service) step(dt float64) {
	start := time.Now()

	s.commandTanks(dt)
	s.world.Step(dt)
	s.frame++
	s.elapsed += dt

	s.trackProjectiles()
	s.drainEvents()
	s.updateBoosts(dt)
	s.applyPlayerStats()
	s.watchMines()
	s.scheduledDrops()
	s.evaluateRules()

	if s.frame%s.cfg.CaptureInterval == 0 {
		s.captureStates()
		s.emitTick(time.Since(start))
	}
	s.deps.Context.SetProgress(s.frame, s.elapsed)

	if s.scen.Duration > 0 && s.elapsed >= s.scen.Duration {
		s.finish("time_up")
	}
	if s.cfg.MaxFrames > 0 && s.frame >= s.cfg.MaxFrames {
		s.finish("frame_limit")
	}
}

func (s *Service) finish(reason string) {
	if s.ended {
		return
	}
	s.ended = true
	s.endReason = reason
	s.emit(worker.EventGeneral, record.GeneralEvent{
		Time:         time.Now(),
		CaptureFrame: s.frame,
		Name:         "battle_ended",
		Message:      reason,
	})
}

func (s *Service) summary() Summary {
	alive := false
	if t, ok := s.world.Player(); ok {
		alive = !t.IsDead()
	}
	return Summary{
		Frames:      s.frame,
		Elapsed:     s.elapsed,
		EndReason:   s.endReason,
		PlayerAlive: alive,
		PlayerKills: s.kills,
		Level:       s.prog.Level(),
		TotalXP:     s.prog.TotalExperience(),
	}
}

// spawnForces places the player, the scripted hostiles and the minefield,
// assigning record IDs and announcing each unit.
func (s *Service) spawnForces() error {
	center := geom.Vector2{X: s.scen.Arena.Width / 2, Y: s.scen.Arena.Height / 2}

	ph, err := s.world.SpawnPlayerTank(center)
	if err != nil {
		return err
	}
	s.player = ph
	s.playerID = s.assignID(ph)
	s.pilots[ph] = newTankPilot(true)
	s.registerTank(ph, "Player")

	for i := 0; i < s.scen.Forces.Tanks; i++ {
		pos := s.randomPointInBand(center, 600, 800)
		h, err := s.world.SpawnTank(pos, false)
		if err != nil {
			return err
		}
		s.assignID(h)
		s.pilots[h] = newTankPilot(false)
		s.registerTank(h, fmt.Sprintf("Enemy Tank %d", i+1))
	}

	for _, grp := range []struct {
		class sim.InfantryClass
		count int
	}{
		{sim.Rifleman, s.scen.Forces.Riflemen},
		{sim.RPG, s.scen.Forces.RPGs},
		{sim.Sniper, s.scen.Forces.Snipers},
		{sim.Medic, s.scen.Forces.Medics},
	} {
		for i := 0; i < grp.count; i++ {
			pos := s.randomPointInBand(center, 300, 700)
			if err := s.spawnSoldier(grp.class, pos, s.squadName()); err != nil {
				return err
			}
		}
	}

	for i := 0; i < s.scen.Mines; i++ {
		pos := s.randomPointInBand(center, 200, 500)
		s.plantMine(pos, false, nil)
	}

	return nil
}

func (s *Service) spawnSoldier(class sim.InfantryClass, pos geom.Vector2, squad string) error {
	h, err := s.world.SpawnInfantry(class, pos)
	if err != nil {
		return err
	}
	id := s.assignID(h)
	n, _ := s.world.Infantry(h)
	s.emit(worker.EventNewInfantry, record.InfantryUnit{
		ID:        id,
		JoinTime:  time.Now(),
		JoinFrame: s.frame,
		Name:      fmt.Sprintf("%s %d", displayClass(class), id),
		Class:     class.String(),
		Weapon:    n.Stats.Weapon.String(),
		MaxHealth: n.MaxHealth,
		Squad:     squad,
	})
	return nil
}

func (s *Service) plantMine(pos geom.Vector2, fromPlayer bool, owner *uint16) {
	h := s.world.PlantMine(pos, fromPlayer)
	id := s.assignID(h)
	m, _ := s.world.Mine(h)
	s.mines[h] = &mineTrack{id: id, pos: pos, fromPlayer: fromPlayer}
	s.emit(worker.EventNewMine, record.Mine{
		ID:        id,
		JoinTime:  time.Now(),
		JoinFrame: s.frame,
		OwnerID:   owner,
		Position:  pos,
		Radius:    m.BlastRadius,
		Damage:    m.Damage,
	})
}

func (s *Service) dropCrate(ptype sim.PowerUpType, pos geom.Vector2) {
	h, err := s.world.DropPowerUp(ptype, pos)
	if err != nil {
		s.logger().Warn("Crate drop failed", "type", ptype.String(), "error", err)
		return
	}
	id := s.assignID(h)
	s.crates[h] = id
	u, _ := s.world.PowerUp(h)
	s.emit(worker.EventNewCrate, record.CrateDrop{
		ID:        id,
		JoinTime:  time.Now(),
		JoinFrame: s.frame,
		Type:      ptype.String(),
		Position:  pos,
		Value:     u.Value,
		Duration:  u.Duration,
	})
}

func (s *Service) registerTank(h sim.Handle, name string) {
	t, ok := s.world.Tank(h)
	if !ok {
		return
	}
	s.emit(worker.EventNewTank, record.TankUnit{
		ID:        s.units[h],
		JoinTime:  time.Now(),
		JoinFrame: s.frame,
		Name:      name,
		ClassName: "standard",
		IsPlayer:  t.IsPlayer,
		MaxHealth: t.MaxHealth,
		Armor:     t.Armor,
	})
}

func (s *Service) assignID(h sim.Handle) uint16 {
	id := uint16(s.ids.Next())
	s.units[h] = id
	return id
}

// unitID resolves a handle to its record ID. The zero handle and handles
// from before Load resolve to nil.
func (s *Service) unitID(h sim.Handle) *uint16 {
	if h.IsZero() {
		return nil
	}
	id, ok := s.units[h]
	if !ok {
		return nil
	}
	return &id
}

var squadNames = []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot"}

func (s *Service) squadName() string {
	return squadNames[s.waves%len(squadNames)]
}

func displayClass(c sim.InfantryClass) string {
	switch c {
	case sim.RPG:
		return "RPG"
	case sim.Sniper:
		return "Sniper"
	case sim.Medic:
		return "Medic"
	default:
		return "Rifleman"
	}
}

func (s *Service) randomPointInBand(center geom.Vector2, minR, maxR float64) geom.Vector2 {
	rng := s.world.Rand()
	p := center.Add(geom.FromAngle(rng.Angle(), rng.RangeF(minR, maxR)))
	bounds := geom.Rect{Width: s.scen.Arena.Width, Height: s.scen.Arena.Height}
	return bounds.ClampPoint(p)
}

// captureStates samples every tank and soldier, wrecks and corpses
// included, so replays show death poses until the world reclaims them.
func (s *Service) captureStates() {
	now := time.Now()
	boosts := s.boostList()

	s.world.EachTank(func(t *sim.Tank) bool {
		state := record.TankState{
			UnitID:       s.units[t.Self],
			Time:         now,
			CaptureFrame: s.frame,
			Position:     t.Pos,
			Velocity:     t.Vel,
			BodyAngle:    t.BodyAngle,
			TurretAngle:  t.TurretAngle,
			Health:       t.Health,
			Alive:        !t.IsDead(),
		}
		if t.IsPlayer {
			state.Boosts = boosts
		}
		s.emit(worker.EventTankState, state)
		return true
	})

	s.world.EachInfantry(func(n *sim.Infantry) bool {
		s.emit(worker.EventInfantryState, record.InfantryState{
			UnitID:       s.units[n.Self],
			Time:         now,
			CaptureFrame: s.frame,
			Position:     n.Pos,
			Bearing:      n.Rotation,
			Health:       n.Health,
			Behavior:     n.State().String(),
			Alive:        n.IsAlive(),
		})
		return true
	})
}

func (s *Service) emitTick(stepTime time.Duration) {
	counts := s.world.Counts()
	s.emit(worker.EventTick, record.TickStats{
		Time:         time.Now(),
		CaptureFrame: s.frame,
		StepMillis:   float32(stepTime.Seconds() * 1000),
		Tanks:        uint(counts.Tanks),
		Infantry:     uint(counts.Infantry),
		Projectiles:  uint(counts.Projectiles),
		Mines:        uint(counts.Mines),
		Crates:       uint(counts.PowerUps),
	})
}

// emit dispatches an event and logs failures instead of propagating them.
// A full queue drops the event; the dispatcher counts the drop.
func (s *Service) emit(name string, payload any) {
	_, err := s.deps.Dispatcher.Dispatch(dispatcher.Event{Name: name, Payload: payload, Timestamp: time.Now()})
	if err != nil {
		s.logger().Warn("Event dispatch failed", "event", name, "error", err)
	}
}

// emitSync dispatches a lifecycle event whose failure must abort the
// battle, such as the session open.
func (s *Service) emitSync(name string, payload any) error {
	_, err := s.deps.Dispatcher.Dispatch(dispatcher.Event{Name: name, Payload: payload, Timestamp: time.Now()})
	if err != nil {
		return fmt.Errorf("dispatch %s: %w", name, err)
	}
	return nil
}

func (s *Service) logger() *slog.Logger {
	return s.deps.LogManager.Logger()
}
