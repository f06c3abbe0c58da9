package monitor

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armorclash/engine/internal/battle"
	"github.com/armorclash/engine/internal/cache"
	"github.com/armorclash/engine/internal/dispatcher"
	"github.com/armorclash/engine/internal/logging"
	"github.com/armorclash/engine/internal/model"
	"github.com/armorclash/engine/internal/worker"
)

func newTestService(t *testing.T, sessionID uint) *Service {
	t.Helper()

	d, err := dispatcher.New(logging.NewDispatcherLogger(slog.Default()))
	require.NoError(t, err)

	logManager := logging.NewSlogManager()
	workers := worker.NewManager(worker.Dependencies{
		UnitCache:  cache.NewUnitCache(),
		LogManager: logManager,
	}, nil)

	return NewService(Dependencies{
		LogManager:      logManager,
		BattleContext:   battle.NewContext(),
		Dispatcher:      d,
		WorkerManager:   workers,
		StatusDir:       t.TempDir(),
		IsDatabaseValid: func() bool { return false },
		SessionID:       func() uint { return sessionID },
	})
}

func TestGetProgramStatus(t *testing.T) {
	s := newTestService(t, 7)

	output, perf := s.GetProgramStatus(true, true, true)

	assert.Len(t, output, 3)
	assert.Equal(t, uint(7), perf.SessionID)
	assert.Equal(t, model.BufferLengths{}, perf.BufferLengths)
	assert.Equal(t, model.WriteQueueLengths{}, perf.WriteQueueLengths)
	assert.Zero(t, perf.LastWriteDurationMs)
	assert.WithinDuration(t, time.Now(), perf.Time, time.Second)
}

func TestGetProgramStatus_NoSections(t *testing.T) {
	s := newTestService(t, 1)

	output, _ := s.GetProgramStatus(false, false, false)
	assert.Empty(t, output)
}

func TestBufferLengths(t *testing.T) {
	got := bufferLengths(map[string]int{
		worker.EventTankState:  42,
		worker.EventFired:      7,
		worker.EventKill:       -3,
		worker.EventProjectile: 1 << 20,
	})

	assert.Equal(t, uint16(42), got.TankStates)
	assert.Equal(t, uint16(7), got.FireEvents)
	assert.Zero(t, got.KillEvents)
	assert.Equal(t, uint16(65535), got.ProjectilePaths)
	assert.Zero(t, got.Tanks)
}

func TestStartStop(t *testing.T) {
	s := newTestService(t, 0)

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())

	// Starting twice is a no-op.
	require.NoError(t, s.Start())

	s.Stop()
	assert.Eventually(t, func() bool { return !s.IsRunning() }, 3*time.Second, 50*time.Millisecond)
}
