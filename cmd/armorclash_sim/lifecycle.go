package main

import (
	"context"
	"fmt"
	"time"

	"github.com/armorclash/engine/internal/battle"
	"github.com/armorclash/engine/internal/dispatcher"
	"github.com/armorclash/engine/internal/influx"
	"github.com/armorclash/engine/internal/recorder"
)

// registerLifecycleHandlers wires battle start and save into the storage
// backend. The worker handlers cover the per-frame events; these two frame
// the session around them.
func registerLifecycleHandlers(d *dispatcher.Dispatcher) {
	d.Register(battle.EventNewBattle, func(e dispatcher.Event) (any, error) {
		start, ok := e.Payload.(battle.SessionStart)
		if !ok {
			return nil, fmt.Errorf("unexpected payload for %s: %T", e.Name, e.Payload)
		}

		UnitCache.Reset()

		if err := StorageBackend.StartSession(start.Session, start.Arena); err != nil {
			return nil, err
		}
		BattleContext.SetSession(start.Session, start.Arena)

		// Backends without a database leave the ID at zero; the status
		// monitor needs a nonzero ID to consider a battle in progress.
		id := start.Session.ID
		if id == 0 {
			id = 1
		}
		currentSessionID.Store(uint64(id))

		Logger.Info("Battle session started",
			"scenario", start.Session.ScenarioName,
			"arena", start.Arena.Name,
			"sessionId", start.Session.ID)
		return start.Session.ID, nil
	})

	d.Register(battle.EventSave, func(e dispatcher.Event) (any, error) {
		summary, ok := e.Payload.(battle.Summary)
		if !ok {
			return nil, fmt.Errorf("unexpected payload for %s: %T", e.Name, e.Payload)
		}

		// let queued state events land before the session closes
		if !d.Drain(10 * time.Second) {
			Logger.Warn("Queues not empty at save time, recording may be incomplete",
				"queues", d.QueueLengths())
		}

		if err := StorageBackend.EndSession(); err != nil {
			Logger.Error("Failed to end recording session", "error", err)
			return nil, err
		}

		scenarioName := BattleContext.GetSession().ScenarioName
		if InfluxManager != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := InfluxManager.WritePoint(ctx, influx.BucketBattleData,
				influx.SummaryPoint(scenarioName, summary.EndReason, summary.Frames, summary.Elapsed)); err != nil {
				Logger.Debug("Failed to write summary point", "error", err)
			}
			if err := InfluxManager.WritePoint(ctx, influx.BucketPlayerPerformance,
				influx.PlayerPoint(scenarioName, summary.PlayerKills, summary.Level, summary.TotalXP, summary.PlayerAlive)); err != nil {
				Logger.Debug("Failed to write player point", "error", err)
			}
			cancel()
		}

		uploadReplay()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if OTelProvider != nil {
			if err := OTelProvider.Flush(ctx); err != nil {
				Logger.Warn("OTel flush failed", "error", err)
			}
		}
		if err := SlogManager.Flush(ctx); err != nil {
			Logger.Warn("Log flush failed", "error", err)
		}

		Logger.Info("Battle session saved",
			"endReason", summary.EndReason,
			"frames", summary.Frames)
		return "ok", nil
	})
}

// uploadReplay pushes the exported replay file to the hub, if the backend
// produced one and a hub is configured.
func uploadReplay() {
	if HubClient == nil {
		return
	}
	up, ok := StorageBackend.(recorder.Uploadable)
	if !ok {
		return
	}
	path := up.GetExportedFilePath()
	if path == "" {
		return
	}
	if err := HubClient.Upload(path, up.GetExportMetadata()); err != nil {
		Logger.Error("Replay upload failed", "error", err, "path", path)
		return
	}
	Logger.Info("Replay uploaded to hub", "path", path)
}
