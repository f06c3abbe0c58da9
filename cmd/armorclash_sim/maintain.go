package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/armorclash/engine/internal/database"
	"github.com/armorclash/engine/internal/model"
)

// reduceSessions thins the state tables of old sessions down to every fifth
// capture frame, then reclaims the space. The replay stays watchable at the
// reduced sample rate and the tables shrink by roughly 80 percent.
func reduceSessions(sessionIDs []string) error {
	if len(sessionIDs) == 0 {
		return fmt.Errorf("no session IDs provided, usage: %s reduce <session id>...", EngineName)
	}
	if err := openDatabase(); err != nil {
		return err
	}
	db := DBManager.DB

	for _, rawID := range sessionIDs {
		id, err := strconv.Atoi(rawID)
		if err != nil {
			return fmt.Errorf("invalid session ID %q: %w", rawID, err)
		}
		start := time.Now()

		var session model.Session
		if err := db.Where("id = ?", id).First(&session).Error; err != nil {
			return fmt.Errorf("session %d: %w", id, err)
		}

		tankRes := db.Where("session_id = ? AND capture_frame % 5 != 0", session.ID).
			Delete(&model.TankState{})
		if tankRes.Error != nil {
			return fmt.Errorf("session %d tank states: %w", id, tankRes.Error)
		}
		infRes := db.Where("session_id = ? AND capture_frame % 5 != 0", session.ID).
			Delete(&model.InfantryState{})
		if infRes.Error != nil {
			return fmt.Errorf("session %d infantry states: %w", id, infRes.Error)
		}

		Logger.Info("Reduced session states",
			"sessionId", session.ID,
			"scenario", session.ScenarioName,
			"tankStates", tankRes.RowsAffected,
			"infantryStates", infRes.RowsAffected,
			"duration", time.Since(start))
	}

	return vacuum(db)
}

// vacuum reclaims space after the bulk deletes. Postgres needs VACUUM (FULL)
// per table to actually return pages, SQLite rewrites the whole file.
func vacuum(db *gorm.DB) error {
	start := time.Now()
	if DBManager.ShouldSaveLocal {
		if err := db.Exec("VACUUM;").Error; err != nil {
			return err
		}
		Logger.Info("Vacuumed database", "duration", time.Since(start))
		return nil
	}

	var tables []string
	err := db.Raw(
		"SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' AND table_type = 'BASE TABLE'",
	).Scan(&tables).Error
	if err != nil {
		return err
	}
	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("VACUUM (FULL) %s", table)).Error; err != nil {
			return fmt.Errorf("vacuum %s: %w", table, err)
		}
	}
	Logger.Info("Vacuumed database", "tables", len(tables), "duration", time.Since(start))
	return nil
}

// recoverBackups migrates leftover SQLite dump files into Postgres. Dumps
// accumulate in the working directory when battles run without a reachable
// database; once migrated they are renamed so a second run skips them.
func recoverBackups() error {
	paths, err := database.GetBackupDBPaths(".")
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Println("No backup databases found.")
		return nil
	}

	postgresDB, err := database.GetPostgresDBStandalone()
	if err != nil {
		return fmt.Errorf("postgres connection failed: %w", err)
	}

	var migrated []string
	for _, path := range paths {
		start := time.Now()
		sqliteDB, err := database.GetSqliteDBStandalone(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}

		err = migrateBackup(sqliteDB, postgresDB)
		if conn, dbErr := sqliteDB.DB(); dbErr == nil {
			conn.Close()
		}
		if err != nil {
			return fmt.Errorf("migrate %s: %w", path, err)
		}

		if err := os.Rename(path, path+".migrated"); err != nil {
			Logger.Error("Failed to rename migrated backup", "error", err, "path", path)
		}
		migrated = append(migrated, path)
		Logger.Info("Migrated backup", "path", path, "duration", time.Since(start))
	}

	Logger.Info("Migrated backups, delete the .migrated files to avoid future duplication",
		"count", len(migrated))
	return nil
}

// migrateBackup copies every table from a SQLite dump into Postgres inside
// one transaction. Parent tables go first so foreign keys resolve.
func migrateBackup(sqliteDB, postgresDB *gorm.DB) error {
	tx := postgresDB.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	tables := []struct {
		name    string
		migrate func(src, dst *gorm.DB) error
	}{
		{"server_infos", migrateTable[model.ServerInfo]},
		{"battle_reviews", migrateTable[model.BattleReview]},
		{"arenas", migrateTable[model.Arena]},
		{"modifiers", migrateTable[model.Modifier]},
		{"sessions", migrateTable[model.Session]},
		{"tanks", migrateTable[model.Tank]},
		{"tank_states", migrateTable[model.TankState]},
		{"infantry_units", migrateTable[model.Infantry]},
		{"infantry_states", migrateTable[model.InfantryState]},
		{"fire_events", migrateTable[model.FireEvent]},
		{"projectile_paths", migrateTable[model.ProjectilePath]},
		{"general_events", migrateTable[model.GeneralEvent]},
		{"hit_events", migrateTable[model.HitEvent]},
		{"kill_events", migrateTable[model.KillEvent]},
		{"mines", migrateTable[model.Mine]},
		{"mine_events", migrateTable[model.MineEvent]},
		{"crates", migrateTable[model.Crate]},
		{"pickup_events", migrateTable[model.PickupEvent]},
		{"progress_events", migrateTable[model.ProgressEvent]},
		{"tick_stats", migrateTable[model.TickStats]},
		{"engine_performances", migrateTable[model.EnginePerformance]},
	}

	for _, t := range tables {
		if err := t.migrate(sqliteDB, tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("table %s: %w", t.name, err)
		}
	}

	return tx.Commit().Error
}

// migrateTable copies all rows of one model. Conflicting rows are skipped so
// a partially migrated dump can be retried.
func migrateTable[M any](src, dst *gorm.DB) error {
	var rows []M
	if err := src.Find(&rows).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return dst.Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, 1000).Error
}
