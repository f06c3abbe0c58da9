package sim

import "github.com/armorclash/engine/pkg/geom"

const (
	// MineArmingDuration is how long a freshly planted mine stays inert.
	MineArmingDuration = 1.0
	// MineTriggerRadius is the proximity that sets an armed mine off.
	MineTriggerRadius = 30.0

	DefaultMineBlastRadius = 60.0
	DefaultMineDamage      = 75.0
)

// MineCandidate is a driver-supplied snapshot of an entity that could set
// a mine off.
type MineCandidate struct {
	Handle     Handle
	Pos        geom.Vector2
	FromPlayer bool
}

// Landmine is a planted proximity charge. It arms after a fixed delay,
// ignores entities of the planting faction, and triggers exactly once.
// The blast itself (area damage) is resolved by the driver off the
// detonation event.
type Landmine struct {
	Self         Handle
	Pos          geom.Vector2
	BlastRadius  float64
	Damage       float64
	IsPlayerMine bool

	armed      bool
	armingTime float64
	triggered  bool

	sink Sink
}

// NewLandmine plants a mine. Non-positive radius or damage fall back to
// the package defaults.
func NewLandmine(pos geom.Vector2, isPlayerMine bool, blastRadius, damage float64, sink Sink) *Landmine {
	if blastRadius <= 0 {
		blastRadius = DefaultMineBlastRadius
	}
	if damage <= 0 {
		damage = DefaultMineDamage
	}
	if sink == nil {
		sink = NopSink{}
	}
	return &Landmine{
		Pos:          pos,
		BlastRadius:  blastRadius,
		Damage:       damage,
		IsPlayerMine: isPlayerMine,
		sink:         sink,
	}
}

// Update accumulates arming time until the mine goes live.
func (m *Landmine) Update(dt float64) {
	if m.armed {
		return
	}
	m.armingTime += dt
	if m.armingTime >= MineArmingDuration {
		m.armed = true
	}
}

// CheckTrigger tests the candidates against the trigger radius. Entities
// of the planting faction never set the mine off. Triggering is one-way;
// once tripped every later call is a no-op. Reports whether the mine
// tripped on this call.
func (m *Landmine) CheckTrigger(candidates []MineCandidate) bool {
	if !m.armed || m.triggered {
		return false
	}
	for _, c := range candidates {
		if c.FromPlayer == m.IsPlayerMine {
			continue
		}
		if m.Pos.Distance(c.Pos) <= MineTriggerRadius {
			m.triggered = true
			m.sink.MineTriggered(MineDetonation{
				Mine:       m.Self,
				Position:   m.Pos,
				Radius:     m.BlastRadius,
				Damage:     m.Damage,
				FromPlayer: m.IsPlayerMine,
			})
			return true
		}
	}
	return false
}

// Armed reports whether the arming delay has elapsed.
func (m *Landmine) Armed() bool { return m.armed }

// Triggered reports whether the mine has gone off.
func (m *Landmine) Triggered() bool { return m.triggered }
