package sim

import "github.com/armorclash/engine/pkg/geom"

// PowerUp is a collectible crate. It only counts down: when the lifetime
// hits zero it is removed without effect. Applying a collected crate's
// value to the taker is the driver's job, not the crate's.
type PowerUp struct {
	Self Handle
	Type PowerUpType
	Pos  geom.Vector2

	Value    float64
	Duration float64 // buff duration for timed types, 0 for instants

	lifetime  float64
	expired   bool
	collected bool

	sink Sink
}

// NewPowerUp drops a crate with the given magnitude and remaining
// lifetime.
func NewPowerUp(ptype PowerUpType, pos geom.Vector2, value, duration, lifetime float64, sink Sink) *PowerUp {
	if sink == nil {
		sink = NopSink{}
	}
	return &PowerUp{
		Type:     ptype,
		Pos:      pos,
		Value:    value,
		Duration: duration,
		lifetime: lifetime,
		sink:     sink,
	}
}

// Update burns lifetime. An expired crate is a removal signal, nothing
// else.
func (u *PowerUp) Update(dt float64) {
	if u.expired || u.collected {
		return
	}
	u.lifetime -= dt
	if u.lifetime <= 0 {
		u.expired = true
	}
}

// Collect hands the crate to the taker and emits the pickup event.
// Returns false if the crate already expired or was taken.
func (u *PowerUp) Collect(taker Handle) bool {
	if u.expired || u.collected {
		return false
	}
	u.collected = true
	u.sink.PowerUpCollected(PowerUpPickup{
		PowerUp:  u.Self,
		Type:     u.Type,
		Amount:   u.Value,
		Duration: u.Duration,
		Taker:    taker,
	})
	return true
}

// Done reports whether the crate should be reclaimed, by pickup or by
// expiry.
func (u *PowerUp) Done() bool { return u.expired || u.collected }

// Remaining is the lifetime left before the crate despawns.
func (u *PowerUp) Remaining() float64 { return u.lifetime }
