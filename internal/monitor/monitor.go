// Package monitor reports recorder health while a battle runs: dispatcher
// queue depths, backend write queues and write latency. It writes a status
// file for operators and, on database backends, engine_performances rows
// for later analysis.
package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/armorclash/engine/internal/battle"
	"github.com/armorclash/engine/internal/cache"
	"github.com/armorclash/engine/internal/dispatcher"
	"github.com/armorclash/engine/internal/logging"
	"github.com/armorclash/engine/internal/model"
	"github.com/armorclash/engine/internal/worker"

	"gorm.io/gorm"
)

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	DB              *gorm.DB // nil unless the backend writes to a database
	LogManager      *logging.SlogManager
	BattleContext   *battle.Context
	Dispatcher      *dispatcher.Dispatcher
	WorkerManager   *worker.Manager
	StatusDir       string
	IsDatabaseValid func() bool
	SessionID       func() uint // current DB session, 0 when none is open

	// Rules, when set, lists the compiled scenario rules of the running
	// battle in the status file.
	Rules *cache.RuleCache
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetProgramStatus returns the current recorder status as printable JSON
// blocks plus the performance row the database writer stores.
func (s *Service) GetProgramStatus(
	rawBuffers bool,
	writeQueues bool,
	lastWrite bool,
) (output []string, perf model.EnginePerformance) {
	buffersObj := bufferLengths(s.deps.Dispatcher.QueueLengths())
	writeQueuesObj := s.deps.WorkerManager.GetWriteQueueLengths()

	perf = model.EnginePerformance{
		Time:                time.Now(),
		SessionID:           s.deps.SessionID(),
		BufferLengths:       buffersObj,
		WriteQueueLengths:   writeQueuesObj,
		LastWriteDurationMs: float32(s.deps.WorkerManager.GetLastDBWriteDuration().Milliseconds()),
	}

	if rawBuffers {
		raw, err := json.MarshalIndent(buffersObj, "", "  ")
		if err != nil {
			raw = []byte(fmt.Sprintf(`{"error": %q}`, err.Error()))
		}
		output = append(output, string(raw))
	}
	if writeQueues {
		raw, err := json.MarshalIndent(writeQueuesObj, "", "  ")
		if err != nil {
			raw = []byte(fmt.Sprintf(`{"error": %q}`, err.Error()))
		}
		output = append(output, string(raw))
	}
	if lastWrite {
		raw, err := json.MarshalIndent(perf.LastWriteDurationMs, "", "  ")
		if err != nil {
			raw = []byte(fmt.Sprintf(`{"error": %q}`, err.Error()))
		}
		output = append(output, string(raw))
	}

	return output, perf
}

// bufferLengths maps dispatcher queue depths onto the stored model. Sync
// handlers have no queue and report zero.
func bufferLengths(queues map[string]int) model.BufferLengths {
	depth := func(name string) uint16 {
		n := queues[name]
		if n < 0 {
			return 0
		}
		if n > int(^uint16(0)) {
			return ^uint16(0)
		}
		return uint16(n)
	}
	return model.BufferLengths{
		Tanks:           depth(worker.EventNewTank),
		Infantry:        depth(worker.EventNewInfantry),
		TankStates:      depth(worker.EventTankState),
		InfantryStates:  depth(worker.EventInfantryState),
		FireEvents:      depth(worker.EventFired),
		ProjectilePaths: depth(worker.EventProjectile),
		GeneralEvents:   depth(worker.EventGeneral),
		HitEvents:       depth(worker.EventHit),
		KillEvents:      depth(worker.EventKill),
		MineEvents:      depth(worker.EventMine),
		PickupEvents:    depth(worker.EventPickup),
		ProgressEvents:  depth(worker.EventProgress),
		TickStats:       depth(worker.EventTick),
	}
}

// ValidateHypertables validates and creates TimescaleDB hypertables
func (s *Service) ValidateHypertables(tables map[string][]string) error {
	logger := s.deps.LogManager.Logger()

	all := []any{}
	s.deps.DB.Exec(`SELECT x.* FROM timescaledb_information.hypertables`).Scan(&all)
	for _, row := range all {
		logger.Debug("Hypertable row", "row", row)
	}

	for table := range tables {
		hypertable := any(nil)
		s.deps.DB.Exec(`SELECT x.* FROM timescaledb_information.hypertables WHERE hypertable_name = ?`, table).Scan(&hypertable)
		if hypertable != nil {
			logger.Info("Hypertable already configured", "table", table)
			continue
		}

		queryCreateHypertable := fmt.Sprintf(`
				SELECT create_hypertable('%s', 'time', chunk_time_interval => interval '1 day', if_not_exists => true);
			`, table)
		err := s.deps.DB.Exec(queryCreateHypertable).Error
		if err != nil {
			logger.Error("Failed to create hypertable", "table", table, "error", err)
			return err
		}
		logger.Info("Created hypertable", "table", table)

		queryCompressHypertable := fmt.Sprintf(`
				ALTER TABLE %s SET (
					timescaledb.compress,
					timescaledb.compress_segmentby = ?);
			`, table)
		err = s.deps.DB.Exec(
			queryCompressHypertable,
			strings.Join(tables[table], ","),
		).Error
		if err != nil {
			logger.Error("Failed to enable compression", "table", table, "error", err)
			return err
		}
		logger.Info("Enabled hypertable compression", "table", table)

		queryCompressAfterHypertable := fmt.Sprintf(`
				SELECT add_compression_policy(
					'%s',
					compress_after => interval '14 day');
			`, table)
		err = s.deps.DB.Exec(queryCompressAfterHypertable).Error
		if err != nil {
			logger.Error("Failed to set compress_after", "table", table, "error", err)
			return err
		}
		logger.Info("Set compress_after", "table", table)
	}
	return nil
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.LogManager.Logger()
		logger.Debug("Starting status monitor goroutine")

		statusFile, err := os.Create(s.deps.StatusDir + "/status.txt")
		if err != nil {
			logger.Error("Error creating status file", "error", err)
		}
		defer statusFile.Close()

		for {
			select {
			case <-s.stopChan:
				return
			default:
				time.Sleep(1000 * time.Millisecond)

				if s.deps.SessionID() == 0 {
					continue
				}

				statusStr, perfModel := s.GetProgramStatus(true, true, true)

				if statusFile != nil {
					statusFile.Truncate(0)
					statusFile.Seek(0, 0)
					session := s.deps.BattleContext.GetSession()
					fmt.Fprintf(statusFile, "{\"scenario\": %q, \"frame\": %d}\n",
						session.ScenarioName, s.deps.BattleContext.Frame())
					if s.deps.Rules != nil {
						names := s.deps.Rules.Names()
						sort.Strings(names)
						fmt.Fprintf(statusFile, "{\"rules\": %q}\n", strings.Join(names, ","))
					}
					for _, line := range statusStr {
						statusFile.WriteString(line + "\n")
					}
				}

				if s.deps.IsDatabaseValid != nil && s.deps.IsDatabaseValid() {
					err = s.deps.DB.Create(&perfModel).Error
					if err != nil {
						logger.Error("Error writing performance row", "error", err)
					}
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
	}
}
