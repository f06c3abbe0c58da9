package sqliterecorder

import (
	"testing"
	"time"

	"github.com/armorclash/engine/internal/cache"
	"github.com/armorclash/engine/internal/logging"
	"github.com/armorclash/engine/internal/recorder"
	"github.com/armorclash/engine/pkg/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface check
var _ recorder.Backend = (*Backend)(nil)

func TestNew(t *testing.T) {
	b, err := New(Config{
		DumpInterval: time.Minute,
		DumpPath:     t.TempDir() + "/battle.db",
	}, cache.NewUnitCache(), logging.NewSlogManager())
	require.NoError(t, err)
	require.NotNil(t, b)
	require.NotNil(t, b.db, "in-memory DB should be open")
	require.NotNil(t, b.Backend, "embedded GORM backend should be wired")
}

func TestRecordProjectilePath_NoOp(t *testing.T) {
	b, err := New(Config{}, cache.NewUnitCache(), logging.NewSlogManager())
	require.NoError(t, err)

	path := &record.ProjectilePath{
		ShooterID:    42,
		CaptureFrame: 620,
		Weapon:       "rocket",
	}

	err = b.RecordProjectilePath(path)
	require.NoError(t, err)
}

func TestClose_WithoutInit(t *testing.T) {
	b, err := New(Config{}, cache.NewUnitCache(), logging.NewSlogManager())
	require.NoError(t, err)

	assert.NoError(t, b.Close())
}
