// internal/recorder/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	v1 "github.com/armorclash/engine/internal/recorder/memory/export/v1"
)

// exportJSON writes the battle data to a replay JSON file.
// Caller must hold the write lock.
func (b *Backend) exportJSON() error {
	if b.session == nil {
		return fmt.Errorf("no session to end")
	}

	export := v1.Build(b.buildData())

	// Build filename from the scenario name and session start time
	scenarioName := strings.ReplaceAll(b.session.ScenarioName, " ", "_")
	scenarioName = strings.ReplaceAll(scenarioName, ":", "_")
	timestamp := b.session.StartTime.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", scenarioName, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", scenarioName, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Write file
	if b.cfg.CompressOutput {
		if err := b.writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := b.writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

// buildData assembles the v1 builder input from the in-memory collections
func (b *Backend) buildData() *v1.BattleData {
	return &v1.BattleData{
		Session:        b.session,
		Arena:          b.arena,
		Tanks:          b.tanks,
		Infantry:       b.infantry,
		Mines:          b.mines,
		Crates:         b.crates,
		GeneralEvents:  b.generalEvents,
		HitEvents:      b.hitEvents,
		KillEvents:     b.killEvents,
		MineEvents:     b.mineEvents,
		PickupEvents:   b.pickupEvents,
		ProgressEvents: b.progressEvents,
		TickStats:      b.tickStats,
		Paths:          b.paths,
	}
}

func (b *Backend) writeJSON(path string, data v1.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func (b *Backend) writeGzipJSON(path string, data v1.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}
