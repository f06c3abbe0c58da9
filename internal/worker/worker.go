package worker

import (
	"fmt"
	"time"

	"github.com/armorclash/engine/internal/cache"
	"github.com/armorclash/engine/internal/logging"
	"github.com/armorclash/engine/internal/model"
	"github.com/armorclash/engine/internal/recorder"
	"github.com/armorclash/engine/pkg/record"
)

// ErrTooEarlyForStateAssociation is returned when state data arrives before the unit is registered
var ErrTooEarlyForStateAssociation = fmt.Errorf("too early for state association")

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	UnitCache  *cache.UnitCache
	LogManager *logging.SlogManager
}

// Manager bridges dispatched battle events to the recording backend
type Manager struct {
	deps    Dependencies
	backend recorder.Backend

	// OnTick, when set, observes every tick sample in addition to the
	// backend write. Used to fan load stats out to metrics sinks.
	// Set before RegisterHandlers; the tick queue runs on one goroutine.
	OnTick func(record.TickStats)
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies, backend recorder.Backend) *Manager {
	return &Manager{
		deps:    deps,
		backend: backend,
	}
}

func (m *Manager) hasBackend() bool {
	return m.backend != nil
}

// DBWriteDurationProvider is an optional interface that backends can implement
// to expose their last DB write duration for monitoring.
type DBWriteDurationProvider interface {
	GetLastDBWriteDuration() time.Duration
}

// GetLastDBWriteDuration returns the duration of the last DB write cycle.
// Returns 0 if the backend doesn't support this metric.
func (m *Manager) GetLastDBWriteDuration() time.Duration {
	if p, ok := m.backend.(DBWriteDurationProvider); ok {
		return p.GetLastDBWriteDuration()
	}
	return 0
}

// WriteQueueLengthsProvider is an optional interface for backends that batch
// writes through internal queues.
type WriteQueueLengthsProvider interface {
	WriteQueueLengths() model.WriteQueueLengths
}

// GetWriteQueueLengths returns the backend's write queue depths.
// Returns zero values if the backend writes synchronously.
func (m *Manager) GetWriteQueueLengths() model.WriteQueueLengths {
	if p, ok := m.backend.(WriteQueueLengthsProvider); ok {
		return p.WriteQueueLengths()
	}
	return model.WriteQueueLengths{}
}
