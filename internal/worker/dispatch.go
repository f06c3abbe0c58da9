package worker

import (
	"fmt"
	"time"

	"github.com/armorclash/engine/internal/dispatcher"
	"github.com/armorclash/engine/pkg/record"
)

// Event names the battle service dispatches for recording. RegisterHandlers
// binds each one to a backend call.
const (
	EventNewTank       = ":NEW:TANK:"
	EventNewInfantry   = ":NEW:INFANTRY:"
	EventNewMine       = ":NEW:MINE:"
	EventNewCrate      = ":NEW:CRATE:"
	EventTankState     = ":NEW:TANK:STATE:"
	EventInfantryState = ":NEW:INFANTRY:STATE:"
	EventFired         = ":FIRED:"
	EventProjectile    = ":PROJECTILE:"
	EventHit           = ":HIT:"
	EventKill          = ":KILL:"
	EventMine          = ":MINE:"
	EventPickup        = ":PICKUP:"
	EventProgress      = ":PROGRESS:"
	EventTick          = ":TICK:"
	EventGeneral       = ":EVENT:"
)

// HitReport carries a hit before the victim and attacker kinds are resolved.
// The handler classifies both through the unit cache.
type HitReport struct {
	Time         time.Time
	CaptureFrame uint
	VictimID     uint16
	AttackerID   *uint16 // nil for unattributed damage such as ownerless mines
	Weapon       string
	Damage       float64
	Distance     float32
}

// KillReport carries a kill before the victim and killer kinds are resolved.
type KillReport struct {
	Time         time.Time
	CaptureFrame uint
	VictimID     uint16
	KillerID     *uint16
	Weapon       string
	Distance     float32
}

// RegisterHandlers registers all event handlers with the dispatcher.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Unit registration - sync (need to cache before states arrive)
	d.Register(EventNewTank, m.handleNewTank, dispatcher.Logged())
	d.Register(EventNewInfantry, m.handleNewInfantry, dispatcher.Logged())
	d.Register(EventNewMine, m.handleNewMine, dispatcher.Logged())
	d.Register(EventNewCrate, m.handleNewCrate, dispatcher.Logged())

	// High-volume state updates - buffered
	d.Register(EventTankState, m.handleTankState, dispatcher.Buffered(10000), dispatcher.Logged())
	d.Register(EventInfantryState, m.handleInfantryState, dispatcher.Buffered(10000), dispatcher.Logged())

	// Combat events - buffered
	d.Register(EventFired, m.handleFired, dispatcher.Buffered(10000), dispatcher.Logged())
	d.Register(EventProjectile, m.handleProjectile, dispatcher.Buffered(5000), dispatcher.Logged())
	d.Register(EventHit, m.handleHit, dispatcher.Buffered(2000), dispatcher.Logged())
	d.Register(EventKill, m.handleKill, dispatcher.Buffered(2000), dispatcher.Logged())
	d.Register(EventMine, m.handleMineEvent, dispatcher.Buffered(1000), dispatcher.Logged())

	// Progression and pickups - buffered
	d.Register(EventPickup, m.handlePickup, dispatcher.Buffered(1000), dispatcher.Logged())
	d.Register(EventProgress, m.handleProgress, dispatcher.Buffered(1000), dispatcher.Logged())

	// Telemetry and general events - buffered
	d.Register(EventTick, m.handleTick, dispatcher.Buffered(100), dispatcher.Logged())
	d.Register(EventGeneral, m.handleGeneralEvent, dispatcher.Buffered(1000), dispatcher.Logged())
}

func (m *Manager) handleNewTank(e dispatcher.Event) (any, error) {
	if !m.hasBackend() {
		return nil, nil
	}

	unit, ok := e.Payload.(record.TankUnit)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T for %s", e.Payload, EventNewTank)
	}

	// Always cache for state handler lookups
	m.deps.UnitCache.AddTank(unit)
	m.backend.AddTank(&unit)

	return nil, nil
}

func (m *Manager) handleNewInfantry(e dispatcher.Event) (any, error) {
	if !m.hasBackend() {
		return nil, nil
	}

	unit, ok := e.Payload.(record.InfantryUnit)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T for %s", e.Payload, EventNewInfantry)
	}

	// Always cache for state handler lookups
	m.deps.UnitCache.AddInfantry(unit)
	m.backend.AddInfantry(&unit)

	return nil, nil
}

func (m *Manager) handleNewMine(e dispatcher.Event) (any, error) {
	if !m.hasBackend() {
		return nil, nil
	}

	mine, ok := e.Payload.(record.Mine)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T for %s", e.Payload, EventNewMine)
	}

	m.deps.UnitCache.AddMine(mine)
	m.backend.AddMine(&mine)

	return nil, nil
}

func (m *Manager) handleNewCrate(e dispatcher.Event) (any, error) {
	if !m.hasBackend() {
		return nil, nil
	}

	crate, ok := e.Payload.(record.CrateDrop)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T for %s", e.Payload, EventNewCrate)
	}

	m.deps.UnitCache.AddCrate(crate)
	m.backend.AddCrate(&crate)

	return nil, nil
}

func (m *Manager) handleTankState(e dispatcher.Event) (any, error) {
	if !m.hasBackend() {
		return nil, nil
	}

	state, ok := e.Payload.(record.TankState)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T for %s", e.Payload, EventTankState)
	}

	// Validate tank exists in cache
	if _, ok := m.deps.UnitCache.GetTank(state.UnitID); !ok {
		return nil, ErrTooEarlyForStateAssociation
	}

	return nil, m.backend.RecordTankState(&state)
}

func (m *Manager) handleInfantryState(e dispatcher.Event) (any, error) {
	if !m.hasBackend() {
		return nil, nil
	}

	state, ok := e.Payload.(record.InfantryState)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T for %s", e.Payload, EventInfantryState)
	}

	// Validate soldier exists in cache
	if _, ok := m.deps.UnitCache.GetInfantry(state.UnitID); !ok {
		return nil, ErrTooEarlyForStateAssociation
	}

	return nil, m.backend.RecordInfantryState(&state)
}

func (m *Manager) handleFired(e dispatcher.Event) (any, error) {
	if !m.hasBackend() {
		return nil, nil
	}

	fire, ok := e.Payload.(record.FireEvent)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T for %s", e.Payload, EventFired)
	}

	if !m.isKnownUnit(fire.ShooterID) {
		return nil, ErrTooEarlyForStateAssociation
	}

	return nil, m.backend.RecordFireEvent(&fire)
}

func (m *Manager) handleProjectile(e dispatcher.Event) (any, error) {
	if !m.hasBackend() {
		return nil, nil
	}

	path, ok := e.Payload.(record.ProjectilePath)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T for %s", e.Payload, EventProjectile)
	}

	if !m.isKnownUnit(path.ShooterID) {
		return nil, ErrTooEarlyForStateAssociation
	}

	return nil, m.backend.RecordProjectilePath(&path)
}

func (m *Manager) handleHit(e dispatcher.Event) (any, error) {
	if !m.hasBackend() {
		return nil, nil
	}

	report, ok := e.Payload.(HitReport)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T for %s", e.Payload, EventHit)
	}

	hit := record.HitEvent{
		Time:         report.Time,
		CaptureFrame: report.CaptureFrame,
		Weapon:       report.Weapon,
		Damage:       report.Damage,
		Distance:     report.Distance,
	}

	// Classify victim as tank or infantry
	if !m.classifyUnit(report.VictimID, &hit.VictimTankID, &hit.VictimInfantryID) {
		m.deps.LogManager.Logger().Warn("Hit event victim not found in cache", "victimID", report.VictimID)
	}

	// Classify attacker as tank or infantry if attributed
	if report.AttackerID != nil {
		if !m.classifyUnit(*report.AttackerID, &hit.AttackerTankID, &hit.AttackerInfantryID) {
			m.deps.LogManager.Logger().Warn("Hit event attacker not found in cache", "attackerID", *report.AttackerID)
		}
	}

	return nil, m.backend.RecordHitEvent(&hit)
}

func (m *Manager) handleKill(e dispatcher.Event) (any, error) {
	if !m.hasBackend() {
		return nil, nil
	}

	report, ok := e.Payload.(KillReport)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T for %s", e.Payload, EventKill)
	}

	kill := record.KillEvent{
		Time:         report.Time,
		CaptureFrame: report.CaptureFrame,
		Weapon:       report.Weapon,
		Distance:     report.Distance,
	}

	// Classify victim as tank or infantry
	if !m.classifyUnit(report.VictimID, &kill.VictimTankID, &kill.VictimInfantryID) {
		m.deps.LogManager.Logger().Warn("Kill event victim not found in cache", "victimID", report.VictimID)
	}

	// Classify killer as tank or infantry if attributed
	if report.KillerID != nil {
		if !m.classifyUnit(*report.KillerID, &kill.KillerTankID, &kill.KillerInfantryID) {
			m.deps.LogManager.Logger().Warn("Kill event killer not found in cache", "killerID", *report.KillerID)
		}
	}

	return nil, m.backend.RecordKillEvent(&kill)
}

func (m *Manager) handleMineEvent(e dispatcher.Event) (any, error) {
	if !m.hasBackend() {
		return nil, nil
	}

	ev, ok := e.Payload.(record.MineEvent)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T for %s", e.Payload, EventMine)
	}

	// Validate mine exists in cache
	if _, ok := m.deps.UnitCache.GetMine(ev.MineID); !ok {
		return nil, ErrTooEarlyForStateAssociation
	}

	return nil, m.backend.RecordMineEvent(&ev)
}

func (m *Manager) handlePickup(e dispatcher.Event) (any, error) {
	if !m.hasBackend() {
		return nil, nil
	}

	pickup, ok := e.Payload.(record.PickupEvent)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T for %s", e.Payload, EventPickup)
	}

	// Validate crate exists in cache
	if _, ok := m.deps.UnitCache.GetCrate(pickup.CrateID); !ok {
		return nil, ErrTooEarlyForStateAssociation
	}
	if !m.isKnownUnit(pickup.TakerID) {
		return nil, ErrTooEarlyForStateAssociation
	}

	return nil, m.backend.RecordPickupEvent(&pickup)
}

func (m *Manager) handleProgress(e dispatcher.Event) (any, error) {
	if !m.hasBackend() {
		return nil, nil
	}

	ev, ok := e.Payload.(record.ProgressEvent)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T for %s", e.Payload, EventProgress)
	}

	if !m.isKnownUnit(ev.UnitID) {
		return nil, ErrTooEarlyForStateAssociation
	}

	return nil, m.backend.RecordProgressEvent(&ev)
}

func (m *Manager) handleTick(e dispatcher.Event) (any, error) {
	stats, ok := e.Payload.(record.TickStats)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T for %s", e.Payload, EventTick)
	}

	if m.OnTick != nil {
		m.OnTick(stats)
	}
	if !m.hasBackend() {
		return nil, nil
	}

	return nil, m.backend.RecordTickStats(&stats)
}

func (m *Manager) handleGeneralEvent(e dispatcher.Event) (any, error) {
	if !m.hasBackend() {
		return nil, nil
	}

	ev, ok := e.Payload.(record.GeneralEvent)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T for %s", e.Payload, EventGeneral)
	}

	return nil, m.backend.RecordGeneralEvent(&ev)
}

// classifyUnit routes a unit ID into the tank or infantry slot based on what
// the registration cache knows. Unknown IDs leave both slots nil.
func (m *Manager) classifyUnit(id uint16, tank, infantry **uint16) bool {
	if m.deps.UnitCache.IsTank(id) {
		v := id
		*tank = &v
		return true
	}
	if _, ok := m.deps.UnitCache.GetInfantry(id); ok {
		v := id
		*infantry = &v
		return true
	}
	return false
}

func (m *Manager) isKnownUnit(id uint16) bool {
	if _, ok := m.deps.UnitCache.GetTank(id); ok {
		return true
	}
	_, ok := m.deps.UnitCache.GetInfantry(id)
	return ok
}
