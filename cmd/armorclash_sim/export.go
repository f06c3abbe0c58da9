package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/armorclash/engine/internal/config"
	"github.com/armorclash/engine/internal/model"
	"github.com/armorclash/engine/internal/model/convert"
	v1 "github.com/armorclash/engine/internal/recorder/memory/export/v1"
	"github.com/armorclash/engine/pkg/record"
)

// exportReplays assembles replay files for the given database session IDs,
// in the same format the memory backend writes at battle end.
func exportReplays(sessionIDs []string) error {
	if len(sessionIDs) == 0 {
		return fmt.Errorf("no session IDs provided, usage: %s export <session id>...", EngineName)
	}
	if err := openDatabase(); err != nil {
		return err
	}
	db := DBManager.DB

	outputDir := config.GetStorageConfig().Memory.OutputDir
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for _, rawID := range sessionIDs {
		id, err := strconv.Atoi(rawID)
		if err != nil {
			return fmt.Errorf("invalid session ID %q: %w", rawID, err)
		}
		start := time.Now()

		var session model.Session
		if err := db.Preload("Modifiers").Where("id = ?", id).First(&session).Error; err != nil {
			return fmt.Errorf("session %d: %w", id, err)
		}
		var arena model.Arena
		if err := db.Where("id = ?", session.ArenaID).First(&arena).Error; err != nil {
			return fmt.Errorf("session %d arena: %w", id, err)
		}

		recSession := convert.SessionToRecord(&session)
		recArena := convert.ArenaToRecord(&arena)
		data := &v1.BattleData{
			Session:  &recSession,
			Arena:    &recArena,
			Tanks:    make(map[uint16]*v1.TankRecord),
			Infantry: make(map[uint16]*v1.InfantryRecord),
			Mines:    make(map[uint16]*record.Mine),
			Crates:   make(map[uint16]*record.CrateDrop),
		}

		var tanks []model.Tank
		if err := db.Where("session_id = ?", session.ID).Find(&tanks).Error; err != nil {
			return fmt.Errorf("session %d tanks: %w", id, err)
		}
		for _, t := range tanks {
			data.Tanks[t.ObjectID] = &v1.TankRecord{Unit: convert.TankToRecord(t)}
		}

		var infantry []model.Infantry
		if err := db.Where("session_id = ?", session.ID).Find(&infantry).Error; err != nil {
			return fmt.Errorf("session %d infantry: %w", id, err)
		}
		for _, n := range infantry {
			data.Infantry[n.ObjectID] = &v1.InfantryRecord{Unit: convert.InfantryToRecord(n)}
		}

		// bulk fetch ordered by frame, then fan out per unit -
		// per-unit queries are far too slow on long battles
		var tankStates []model.TankState
		if err := db.Where("session_id = ?", session.ID).Order("capture_frame ASC").Find(&tankStates).Error; err != nil {
			return fmt.Errorf("session %d tank states: %w", id, err)
		}
		for _, st := range tankStates {
			if rec, ok := data.Tanks[st.TankObjectID]; ok {
				rec.States = append(rec.States, convert.TankStateToRecord(st))
			}
		}

		var infantryStates []model.InfantryState
		if err := db.Where("session_id = ?", session.ID).Order("capture_frame ASC").Find(&infantryStates).Error; err != nil {
			return fmt.Errorf("session %d infantry states: %w", id, err)
		}
		for _, st := range infantryStates {
			if rec, ok := data.Infantry[st.InfantryObjectID]; ok {
				rec.States = append(rec.States, convert.InfantryStateToRecord(st))
			}
		}

		var fireEvents []model.FireEvent
		if err := db.Where("session_id = ?", session.ID).Order("capture_frame ASC").Find(&fireEvents).Error; err != nil {
			return fmt.Errorf("session %d fire events: %w", id, err)
		}
		for _, fe := range fireEvents {
			if rec, ok := data.Tanks[fe.ShooterObjectID]; ok {
				rec.FiredEvents = append(rec.FiredEvents, convert.FireEventToRecord(fe))
			} else if rec, ok := data.Infantry[fe.ShooterObjectID]; ok {
				rec.FiredEvents = append(rec.FiredEvents, convert.FireEventToRecord(fe))
			}
		}

		var mines []model.Mine
		if err := db.Where("session_id = ?", session.ID).Find(&mines).Error; err != nil {
			return fmt.Errorf("session %d mines: %w", id, err)
		}
		for _, m := range mines {
			rec := convert.MineToRecord(m)
			data.Mines[m.ObjectID] = &rec
		}

		var crates []model.Crate
		if err := db.Where("session_id = ?", session.ID).Find(&crates).Error; err != nil {
			return fmt.Errorf("session %d crates: %w", id, err)
		}
		for _, c := range crates {
			rec := convert.CrateToRecord(c)
			data.Crates[c.ObjectID] = &rec
		}

		var paths []model.ProjectilePath
		if err := db.Where("session_id = ?", session.ID).Order("capture_frame ASC").Find(&paths).Error; err != nil {
			return fmt.Errorf("session %d projectile paths: %w", id, err)
		}
		for _, p := range paths {
			data.Paths = append(data.Paths, convert.ProjectilePathToRecord(p))
		}

		var generalEvents []model.GeneralEvent
		if err := db.Where("session_id = ?", session.ID).Order("capture_frame ASC").Find(&generalEvents).Error; err != nil {
			return fmt.Errorf("session %d general events: %w", id, err)
		}
		for _, evt := range generalEvents {
			data.GeneralEvents = append(data.GeneralEvents, convert.GeneralEventToRecord(evt))
		}

		var hitEvents []model.HitEvent
		if err := db.Where("session_id = ?", session.ID).Order("capture_frame ASC").Find(&hitEvents).Error; err != nil {
			return fmt.Errorf("session %d hit events: %w", id, err)
		}
		for _, evt := range hitEvents {
			data.HitEvents = append(data.HitEvents, convert.HitEventToRecord(evt))
		}

		var killEvents []model.KillEvent
		if err := db.Where("session_id = ?", session.ID).Order("capture_frame ASC").Find(&killEvents).Error; err != nil {
			return fmt.Errorf("session %d kill events: %w", id, err)
		}
		for _, evt := range killEvents {
			data.KillEvents = append(data.KillEvents, convert.KillEventToRecord(evt))
		}

		var mineEvents []model.MineEvent
		if err := db.Where("session_id = ?", session.ID).Order("capture_frame ASC").Find(&mineEvents).Error; err != nil {
			return fmt.Errorf("session %d mine events: %w", id, err)
		}
		for _, evt := range mineEvents {
			data.MineEvents = append(data.MineEvents, convert.MineEventToRecord(evt))
		}

		var pickupEvents []model.PickupEvent
		if err := db.Where("session_id = ?", session.ID).Order("capture_frame ASC").Find(&pickupEvents).Error; err != nil {
			return fmt.Errorf("session %d pickup events: %w", id, err)
		}
		for _, evt := range pickupEvents {
			data.PickupEvents = append(data.PickupEvents, convert.PickupEventToRecord(evt))
		}

		var progressEvents []model.ProgressEvent
		if err := db.Where("session_id = ?", session.ID).Order("capture_frame ASC").Find(&progressEvents).Error; err != nil {
			return fmt.Errorf("session %d progress events: %w", id, err)
		}
		for _, evt := range progressEvents {
			data.ProgressEvents = append(data.ProgressEvents, convert.ProgressEventToRecord(evt))
		}

		var tickStats []model.TickStats
		if err := db.Where("session_id = ?", session.ID).Order("capture_frame ASC").Find(&tickStats).Error; err != nil {
			return fmt.Errorf("session %d tick stats: %w", id, err)
		}
		for _, ts := range tickStats {
			data.TickStats = append(data.TickStats, convert.TickStatsToRecord(ts))
		}

		export := v1.Build(data)
		Logger.Info("Assembled replay",
			"sessionId", session.ID,
			"scenario", session.ScenarioName,
			"duration", time.Since(start))

		name := strings.ReplaceAll(session.ScenarioName, " ", "_")
		name = strings.ReplaceAll(name, ":", "_")
		fileName := fmt.Sprintf("%s_%s.json.gz", name, session.StartTime.Format("20060102_150405"))
		outPath := filepath.Join(outputDir, fileName)
		if err := writeReplayFile(outPath, export); err != nil {
			return fmt.Errorf("session %d: %w", id, err)
		}
		fmt.Printf("Wrote replay to %s\n", outPath)
	}
	return nil
}

func writeReplayFile(path string, export v1.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	if err := json.NewEncoder(gz).Encode(export); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}
