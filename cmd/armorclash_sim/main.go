// armorclash_sim runs recorded tank battles from the command line. The
// default verb simulates a scenario and records it through the configured
// storage backend; the remaining verbs maintain the battle database and
// export replay files from it.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/armorclash/engine/internal/api"
	"github.com/armorclash/engine/internal/battle"
	"github.com/armorclash/engine/internal/cache"
	"github.com/armorclash/engine/internal/config"
	"github.com/armorclash/engine/internal/database"
	"github.com/armorclash/engine/internal/dispatcher"
	"github.com/armorclash/engine/internal/influx"
	"github.com/armorclash/engine/internal/logging"
	"github.com/armorclash/engine/internal/monitor"
	intOtel "github.com/armorclash/engine/internal/otel"
	"github.com/armorclash/engine/internal/recorder"
	"github.com/armorclash/engine/internal/recorder/factory"
	"github.com/armorclash/engine/internal/scenario"
	"github.com/armorclash/engine/internal/worker"
	"github.com/armorclash/engine/pkg/record"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"gorm.io/gorm"
)

// version info - EngineVersion and BuildDate can be set at build time via ldflags
var (
	EngineVersion string = "0.1.0"
	BuildDate     string = "unknown"

	EngineName string = "armorclash_sim"
)

// file paths
var (
	// EngineLogFilePath is the current run's log file inside logsDir
	EngineLogFilePath string
	EngineLogFile     *os.File

	// MetricsFilePath receives periodic OTel metric snapshots
	MetricsFilePath string
	MetricsFile     *os.File

	// SqliteDBFilePath is where the in-memory fallback DB gets dumped
	SqliteDBFilePath string

	InfluxBackupFilePath string
)

// global services
var (
	SessionStart time.Time = time.Now()

	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// InfraLog is the zerolog logger used by the database and metrics
	// managers. It fans out to console, the log file and the optional
	// Graylog/log.io shippers.
	InfraLog zerolog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	// UnitCache maps unit IDs to their registration records for the current battle
	UnitCache *cache.UnitCache = cache.NewUnitCache()

	// ScenarioRules holds the compiled rule programs of the running battle
	ScenarioRules *cache.RuleCache = cache.NewRuleCache()

	BattleContext *battle.Context

	DBManager     *database.Manager
	InfluxManager *influx.Manager

	// Services
	StorageBackend  recorder.Backend
	EventDispatcher *dispatcher.Dispatcher
	WorkerManager   *worker.Manager
	MonitorService  *monitor.Service
	HubClient       *api.Client

	// currentSessionID tracks the open recording session for the status
	// monitor. Backends that assign no database IDs report 1 while a
	// battle runs so the monitor still produces status files.
	currentSessionID atomic.Uint64
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	verb := "run"
	if len(args) > 0 {
		verb = strings.ToLower(args[0])
	}

	switch verb {
	case "version":
		fmt.Printf("%s %s (built %s)\n", EngineName, EngineVersion, BuildDate)
		return nil
	case "help", "-h", "--help":
		usage()
		return nil
	}

	if err := initEngine(); err != nil {
		return fmt.Errorf("init failed: %w", err)
	}
	defer shutdown()

	switch verb {
	case "run":
		path := ""
		if len(args) > 1 {
			path = args[1]
		}
		return runBattle(path)
	case "demo":
		return runBattle("")
	case "setupdb":
		return setupDatabase()
	case "export":
		return exportReplays(args[1:])
	case "reduce":
		return reduceSessions(args[1:])
	case "recover":
		return recoverBackups()
	default:
		usage()
		return fmt.Errorf("unknown command: %s", verb)
	}
}

func usage() {
	fmt.Printf(`%s - tank battle simulation and recording engine

Usage:
  %[1]s [run [scenario.json]]   simulate a battle and record it
  %[1]s demo                    run the built-in demo skirmish
  %[1]s setupdb                 migrate the database schema and hypertables
  %[1]s export <session id>...  write replay JSON files from database sessions
  %[1]s reduce <session id>...  thin state samples to every fifth frame
  %[1]s recover                 migrate leftover SQLite dumps into Postgres
  %[1]s version                 print version and build date

Configuration is read from armorclash.cfg.json in the working directory.
`, EngineName)
}

// initEngine brings up configuration, logging and telemetry. Verbs that
// touch the database or run battles wire their remaining services on top.
func initEngine() error {
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, "info", nil)
	Logger = SlogManager.Logger()

	if err := config.Load("."); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config")
	}

	// create logs dir if it doesn't exist
	logsDir := viper.GetString("logsDir")
	if _, err := os.Stat(logsDir); os.IsNotExist(err) {
		os.MkdirAll(logsDir, 0755)
	}

	EngineLogFilePath = logging.LogFilePath(logsDir, EngineName, SessionStart)

	// if a log file from a clashing run exists, move it aside
	if _, err := os.Stat(EngineLogFilePath); err == nil {
		os.Rename(EngineLogFilePath, EngineLogFilePath+".old")
	}

	var err error
	EngineLogFile, err = os.OpenFile(EngineLogFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", EngineLogFilePath)
	}

	// Initialize OTel provider if enabled (after log file is created)
	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		MetricsFilePath = strings.TrimSuffix(EngineLogFilePath, ".log") + ".metrics.json"
		MetricsFile, err = os.OpenFile(MetricsFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			Logger.Error("Failed to create metrics file", "error", err, "path", MetricsFilePath)
		}

		OTelProvider, err = intOtel.New(intOtel.Config{
			Enabled:        otelCfg.Enabled,
			ServiceName:    otelCfg.ServiceName,
			BatchTimeout:   otelCfg.BatchTimeout,
			LogWriter:      EngineLogFile,
			MetricWriter:   MetricsFile,
			MetricInterval: otelCfg.MetricInterval,
			Endpoint:       otelCfg.Endpoint,
			Insecure:       otelCfg.Insecure,
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
			OTelProvider = nil
		} else if otelCfg.Endpoint != "" {
			Logger.Info("OTel provider initialized", "file", EngineLogFilePath, "endpoint", otelCfg.Endpoint)
		} else {
			Logger.Info("OTel provider initialized", "file", EngineLogFilePath)
		}
	}

	// Re-setup logging with file output and optional OTel
	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	SlogManager.Setup(EngineLogFile, viper.GetString("logLevel"), otelLogProvider)
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", EngineLogFilePath)

	// Every log record carries the scenario name and frame once a battle runs
	BattleContext = battle.NewContext()
	SlogManager.AddContext(BattleContext.LogAttrs)
	Logger = SlogManager.Logger()

	InfraLog = setupInfraLogger(EngineLogFile)

	SqliteDBFilePath = fmt.Sprintf("%s_%s.db", EngineName, SessionStart.Format("20060102_150405"))
	InfluxBackupFilePath = "influx_backup.log.gzip"

	// leave headroom for the OS and the database on busy hosts
	numCPUs := runtime.NumCPU()
	Logger.Debug("Number of CPUs", "numCPUs", numCPUs)
	runtime.GOMAXPROCS(int(math.Max(float64(numCPUs-2), 1)))

	return nil
}

// openDatabase connects the shared database manager. Connect falls back to
// an in-memory SQLite database when Postgres is unreachable; the dump file
// path is where that fallback gets persisted.
func openDatabase() error {
	if DBManager != nil {
		return nil
	}
	DBManager = database.NewManager(InfraLog)
	if err := DBManager.Connect(); err != nil {
		return err
	}
	DBManager.SqliteFilePath = SqliteDBFilePath
	return nil
}

// wireBattle assembles the recording pipeline: storage backend, metrics,
// dispatcher with worker and lifecycle handlers, status monitor and the
// replay hub client.
func wireBattle() error {
	storageCfg := config.GetStorageConfig()
	if storageCfg.Type == "postgres" {
		if err := openDatabase(); err != nil {
			Logger.Error("Database connection failed, recording to queues only", "error", err)
		}
	}

	var err error
	StorageBackend, err = factory.NewBackend(storageCfg, DBManager, UnitCache, SlogManager)
	if err != nil {
		return err
	}
	if err := StorageBackend.Init(); err != nil {
		return fmt.Errorf("failed to init %s storage backend: %w", storageCfg.Type, err)
	}
	Logger.Info("Storage backend initialized", "type", storageCfg.Type)

	if config.GetInfluxConfig().Enabled {
		InfluxManager = influx.NewManager(InfraLog, InfluxBackupFilePath)
		if err := InfluxManager.Connect(); err != nil {
			Logger.Warn("InfluxDB unavailable, metrics go to the backup file", "error", err)
		}
	}

	EventDispatcher, err = dispatcher.New(logging.NewDispatcherLogger(Logger))
	if err != nil {
		return err
	}

	WorkerManager = worker.NewManager(worker.Dependencies{
		UnitCache:  UnitCache,
		LogManager: SlogManager,
	}, StorageBackend)
	WorkerManager.OnTick = recordTickMetrics
	WorkerManager.RegisterHandlers(EventDispatcher)
	registerLifecycleHandlers(EventDispatcher)

	var monitorDB *gorm.DB
	isDatabaseValid := func() bool { return false }
	if DBManager != nil {
		monitorDB = DBManager.DB
		isDatabaseValid = func() bool { return DBManager.IsValid }
	}
	MonitorService = monitor.NewService(monitor.Dependencies{
		DB:              monitorDB,
		LogManager:      SlogManager,
		BattleContext:   BattleContext,
		Dispatcher:      EventDispatcher,
		WorkerManager:   WorkerManager,
		StatusDir:       viper.GetString("logsDir"),
		IsDatabaseValid: isDatabaseValid,
		SessionID:       func() uint { return uint(currentSessionID.Load()) },
		Rules:           ScenarioRules,
	})

	if apiCfg := config.GetAPIConfig(); apiCfg.ServerURL != "" {
		HubClient = api.New(apiCfg.ServerURL, apiCfg.APIKey)
	}

	go checkHubStatus()
	return nil
}

// runBattle loads a scenario, runs it to completion and reports the result.
// An interrupt signal ends the battle cleanly; the save still happens.
func runBattle(scenarioPath string) error {
	if err := wireBattle(); err != nil {
		return err
	}

	scen := scenario.Default()
	if scenarioPath != "" {
		var err error
		scen, err = scenario.Load(scenarioPath)
		if err != nil {
			return err
		}
	}

	if err := MonitorService.Start(); err != nil {
		Logger.Warn("Status monitor failed to start", "error", err)
	}
	defer MonitorService.Stop()

	stopPerf := make(chan struct{})
	go publishPerformance(stopPerf)
	defer close(stopPerf)

	battleCfg := config.GetBattleConfig()
	service := battle.NewService(battle.Dependencies{
		Dispatcher: EventDispatcher,
		LogManager: SlogManager,
		Context:    BattleContext,
		Rules:      ScenarioRules,
	})
	if err := service.Load(scen, battle.Config{
		TickRate:        battleCfg.TickRate,
		CaptureInterval: battleCfg.CaptureInterval,
		EngineVersion:   EngineVersion,
		DefaultTag:      viper.GetString("defaultTag"),
		Rewards:         config.GetRewards(),
	}); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := service.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Battle %q ended: %s after %d frames (%.1fs). Player: %d kills, level %d, %d XP.\n",
		scen.Name, summary.EndReason, summary.Frames, summary.Elapsed,
		summary.PlayerKills, summary.Level, summary.TotalXP)
	return nil
}

// setupDatabase migrates the schema like a first battle would, then
// configures TimescaleDB hypertables for the high-volume state tables.
func setupDatabase() error {
	if err := openDatabase(); err != nil {
		return err
	}
	if err := DBManager.Setup(); err != nil {
		return err
	}
	if DBManager.ShouldSaveLocal {
		Logger.Info("DB setup complete (local SQLite, skipping hypertables)")
		return nil
	}

	svc := monitor.NewService(monitor.Dependencies{
		DB:         DBManager.DB,
		LogManager: SlogManager,
	})
	err := svc.ValidateHypertables(map[string][]string{
		"tank_states":     {"session_id", "tank_object_id"},
		"infantry_states": {"session_id", "infantry_object_id"},
		"fire_events":     {"session_id", "shooter_object_id"},
		"tick_stats":      {"session_id"},
	})
	if err != nil {
		Logger.Warn("Hypertable setup failed, is the TimescaleDB extension installed?", "error", err)
	}
	Logger.Info("DB setup complete")
	return nil
}

// recordTickMetrics forwards tick samples to InfluxDB alongside the backend
// write. Runs on the tick handler goroutine.
func recordTickMetrics(ts record.TickStats) {
	if InfluxManager == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	point := influx.TickPoint(BattleContext.GetSession().ScenarioName, ts)
	if err := InfluxManager.WritePoint(ctx, influx.BucketBattleData, point); err != nil {
		Logger.Debug("Failed to write tick point", "error", err)
	}
}

// publishPerformance ships recorder performance samples to InfluxDB while a
// battle runs.
func publishPerformance(stop <-chan struct{}) {
	if InfluxManager == nil {
		return
	}
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if currentSessionID.Load() == 0 {
				continue
			}
			_, perf := MonitorService.GetProgramStatus(false, false, false)
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			err := InfluxManager.WritePoint(ctx, influx.BucketEnginePerformance, influx.PerformancePoint(perf))
			cancel()
			if err != nil {
				Logger.Debug("Failed to write performance point", "error", err)
			}
		}
	}
}

// checkHubStatus logs whether the replay hub is reachable so operators know
// before the battle ends whether the upload will work.
func checkHubStatus() {
	if HubClient == nil {
		Logger.Warn("Replay hub not configured, uploads disabled")
		return
	}
	if err := HubClient.Healthcheck(); err != nil {
		Logger.Warn("Replay hub is not running or unreachable", "error", err)
		return
	}
	Logger.Info("Replay hub is running")
}

// shutdown flushes telemetry and closes everything initEngine and the verbs
// opened. Runs on every exit path after init.
func shutdown() {
	if EventDispatcher != nil {
		EventDispatcher.Drain(5 * time.Second)
	}
	if StorageBackend != nil {
		StorageBackend.Close()
	}
	if InfluxManager != nil {
		InfluxManager.Close()
	}
	if MonitorService != nil {
		MonitorService.Stop()
	}
	if OTelProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := OTelProvider.Shutdown(ctx); err != nil {
			Logger.Warn("OTel shutdown failed", "error", err)
		}
	}
	closeInfraWriters()
	if MetricsFile != nil {
		MetricsFile.Close()
	}
	if EngineLogFile != nil {
		EngineLogFile.Close()
	}
}
