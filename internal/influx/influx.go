// Package influx ships battle telemetry to InfluxDB: simulation load
// samples, recorder performance and per-battle player results. When the
// server is unreachable, points are appended to a gzip line-protocol
// backup file instead so a battle is never lost to a metrics outage.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/armorclash/engine/internal/model"
	"github.com/armorclash/engine/pkg/record"
)

// Buckets written by the engine.
const (
	BucketBattleData        = "battle_data"
	BucketEnginePerformance = "engine_performance"
	BucketPlayerPerformance = "player_performance"
)

// DefaultBucketNames are the InfluxDB buckets ensured on connect.
var DefaultBucketNames = []string{
	BucketBattleData,
	BucketEnginePerformance,
	BucketPlayerPerformance,
}

// Manager handles InfluxDB connections and writes.
type Manager struct {
	Client       influxdb2.Client
	Writers      map[string]influxdb2_api.WriteAPI
	BackupWriter *gzip.Writer
	IsValid      bool
	BucketNames  []string
	Logger       zerolog.Logger
	BackupPath   string
}

// NewManager creates a new InfluxDB manager.
func NewManager(log zerolog.Logger, backupPath string) *Manager {
	return &Manager{
		Writers:     make(map[string]influxdb2_api.WriteAPI),
		IsValid:     false,
		BucketNames: DefaultBucketNames,
		Logger:      log,
		BackupPath:  backupPath,
	}
}

// Connect establishes a connection to InfluxDB.
func (m *Manager) Connect() error {
	if !viper.GetBool("influx.enabled") {
		return errors.New("influx.enabled is false")
	}

	m.Client = influxdb2.NewClientWithOptions(
		fmt.Sprintf(
			"%s://%s:%s",
			viper.GetString("influx.protocol"),
			viper.GetString("influx.host"),
			viper.GetString("influx.port"),
		),
		viper.GetString("influx.token"),
		influxdb2.DefaultOptions().
			SetBatchSize(2500).
			SetFlushInterval(1000),
	)

	// validate client connection health
	running, err := m.Client.Ping(context.Background())

	if err != nil || !running {
		m.IsValid = false
		// create backup writer
		if m.BackupWriter == nil {
			m.Logger.Info().Str("backupPath", m.BackupPath).
				Msg("Failed to initialize InfluxDB client, writing to backup file")

			file, err := os.OpenFile(m.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
			if err != nil {
				return fmt.Errorf("error creating backup file: %v", err)
			}
			m.BackupWriter = gzip.NewWriter(file)
		}
	} else {
		m.IsValid = true
	}

	if m.IsValid {
		err = m.setupOrganizationAndBuckets()
		if err != nil {
			return err
		}
		m.CreateWriters()
		m.Logger.Info().Msg("InfluxDB client initialized")
	} else {
		m.Logger.Warn().Msg("InfluxDB client failed to initialize, using backup writer")
	}

	return nil
}

func (m *Manager) setupOrganizationAndBuckets() error {
	ctx := context.Background()
	orgName := viper.GetString("influx.org")

	// ensure org exists
	_, err := m.Client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		m.Logger.Info().Str("org", orgName).Msg("Organization not found, creating")
		_, err = m.Client.OrganizationsAPI().CreateOrganizationWithName(ctx, orgName)
		if err != nil {
			m.Logger.Error().Err(err).Str("org", orgName).Msg("Error creating organization")
			return err
		}
	}

	// get influxOrg
	influxOrg, err := m.Client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		m.Logger.Error().Err(err).Str("org", orgName).Msg("Error getting organization")
		return err
	}

	// ensure buckets exist with 90 day retention
	for _, bucket := range m.BucketNames {
		_, err = m.Client.BucketsAPI().FindBucketByName(ctx, bucket)
		if err != nil {
			m.Logger.Info().Str("bucket", bucket).Msg("Bucket not found, creating")

			rule := domain.RetentionRuleTypeExpire
			_, err = m.Client.BucketsAPI().CreateBucketWithName(ctx, influxOrg, bucket, domain.RetentionRule{
				Type:         &rule,
				EverySeconds: 60 * 60 * 24 * 90, // 90 days
			})
			if err != nil {
				m.Logger.Error().Err(err).Str("bucket", bucket).Msg("Error creating bucket")
				return err
			}
		}
	}

	return nil
}

// CreateWriters creates write APIs for all configured buckets.
func (m *Manager) CreateWriters() {
	orgName := viper.GetString("influx.org")
	for _, bucket := range m.BucketNames {
		m.Logger.Trace().Str("bucket", bucket).Msg("Creating InfluxDB writer")
		m.Writers[bucket] = m.Client.WriteAPI(orgName, bucket)

		errorsCh := m.Writers[bucket].Errors()
		go func(bucketName string, errorsCh <-chan error) {
			for writeErr := range errorsCh {
				m.Logger.Error().Err(writeErr).Str("bucket", bucketName).
					Msg("Error sending data to InfluxDB")
			}
		}(bucket, errorsCh)

		m.Logger.Trace().Str("bucket", bucket).Msg("InfluxDB writer created")
	}

	m.Logger.Debug().Msg("InfluxDB writers initialized")
}

// WritePoint writes a point to InfluxDB or the backup file.
func (m *Manager) WritePoint(ctx context.Context, bucket string, point *influxdb2_write.Point) error {
	if m.IsValid {
		if _, ok := m.Writers[bucket]; !ok {
			return fmt.Errorf("influxDB bucket '%s' not registered", bucket)
		}
		m.Writers[bucket].WritePoint(point)
	} else {
		if m.BackupWriter == nil {
			return fmt.Errorf("influxDB client not initialized and backup writer not available")
		}

		lineProtocol := influxdb2_write.PointToLineProtocol(point, time.Duration(1*time.Nanosecond))
		_, err := m.BackupWriter.Write([]byte(lineProtocol))
		if err != nil {
			return fmt.Errorf("error writing to InfluxDB backup file: %s", err)
		}
	}

	return nil
}

// Close flushes writers and the backup file.
func (m *Manager) Close() {
	if m.IsValid && m.Client != nil {
		for _, w := range m.Writers {
			w.Flush()
		}
		m.Client.Close()
	}
	if m.BackupWriter != nil {
		if err := m.BackupWriter.Close(); err != nil {
			m.Logger.Error().Err(err).Msg("Error closing InfluxDB backup writer")
		}
	}
}

// TickPoint renders a simulation load sample for the battle_data bucket.
func TickPoint(scenario string, t record.TickStats) *influxdb2_write.Point {
	return influxdb2_write.NewPointWithMeasurement("sim_tick").
		AddTag("scenario", scenario).
		AddField("frame", int64(t.CaptureFrame)).
		AddField("step_ms", float64(t.StepMillis)).
		AddField("tanks", int64(t.Tanks)).
		AddField("infantry", int64(t.Infantry)).
		AddField("projectiles", int64(t.Projectiles)).
		AddField("mines", int64(t.Mines)).
		AddField("crates", int64(t.Crates)).
		SetTime(t.Time)
}

// PerformancePoint renders a recorder health sample for the
// engine_performance bucket.
func PerformancePoint(p model.EnginePerformance) *influxdb2_write.Point {
	buffered := int64(p.BufferLengths.TankStates) + int64(p.BufferLengths.InfantryStates) +
		int64(p.BufferLengths.FireEvents) + int64(p.BufferLengths.ProjectilePaths) +
		int64(p.BufferLengths.GeneralEvents) + int64(p.BufferLengths.HitEvents) +
		int64(p.BufferLengths.KillEvents) + int64(p.BufferLengths.MineEvents) +
		int64(p.BufferLengths.PickupEvents) + int64(p.BufferLengths.ProgressEvents) +
		int64(p.BufferLengths.TickStats)
	queued := int64(p.WriteQueueLengths.Tanks) + int64(p.WriteQueueLengths.Infantry) +
		int64(p.WriteQueueLengths.TankStates) + int64(p.WriteQueueLengths.InfantryStates) +
		int64(p.WriteQueueLengths.FireEvents) + int64(p.WriteQueueLengths.ProjectilePaths) +
		int64(p.WriteQueueLengths.GeneralEvents) + int64(p.WriteQueueLengths.HitEvents) +
		int64(p.WriteQueueLengths.KillEvents) + int64(p.WriteQueueLengths.MineEvents) +
		int64(p.WriteQueueLengths.PickupEvents) + int64(p.WriteQueueLengths.ProgressEvents) +
		int64(p.WriteQueueLengths.TickStats)

	return influxdb2_write.NewPointWithMeasurement("recorder_performance").
		AddTag("session_id", strconv.FormatUint(uint64(p.SessionID), 10)).
		AddField("last_write_ms", float64(p.LastWriteDurationMs)).
		AddField("buffered_events", buffered).
		AddField("queued_writes", queued).
		AddField("buffer_tank_states", int64(p.BufferLengths.TankStates)).
		AddField("buffer_infantry_states", int64(p.BufferLengths.InfantryStates)).
		AddField("writequeue_tank_states", int64(p.WriteQueueLengths.TankStates)).
		AddField("writequeue_infantry_states", int64(p.WriteQueueLengths.InfantryStates)).
		SetTime(p.Time)
}

// SummaryPoint renders the end-of-battle outcome for the battle_data
// bucket.
func SummaryPoint(scenario, endReason string, frames uint, elapsed float64) *influxdb2_write.Point {
	return influxdb2_write.NewPointWithMeasurement("battle_summary").
		AddTag("scenario", scenario).
		AddTag("end_reason", endReason).
		AddField("frames", int64(frames)).
		AddField("duration_s", elapsed).
		SetTime(time.Now())
}

// PlayerPoint renders the player's result for the player_performance
// bucket.
func PlayerPoint(scenario string, kills, level, totalXP int, alive bool) *influxdb2_write.Point {
	return influxdb2_write.NewPointWithMeasurement("player_result").
		AddTag("scenario", scenario).
		AddField("kills", int64(kills)).
		AddField("level", int64(level)).
		AddField("total_xp", int64(totalXP)).
		AddField("survived", alive).
		SetTime(time.Now())
}
