package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armorclash/engine/pkg/record"
)

func TestUnitCache_NewUnitCache(t *testing.T) {
	cache := NewUnitCache()

	require.NotNil(t, cache)
	assert.NotNil(t, cache.Tanks)
	assert.NotNil(t, cache.Infantry)
	assert.NotNil(t, cache.Mines)
	assert.NotNil(t, cache.Crates)
	assert.Len(t, cache.Tanks, 0)
	assert.Len(t, cache.Infantry, 0)
}

func TestUnitCache_AddAndGetTank(t *testing.T) {
	cache := NewUnitCache()

	tank := record.TankUnit{
		ID:   42,
		Name: "Crusher",
	}

	cache.AddTank(tank)

	got, ok := cache.GetTank(42)
	require.True(t, ok, "expected to find tank with ID 42")
	assert.Equal(t, uint16(42), got.ID)
	assert.Equal(t, "Crusher", got.Name)
}

func TestUnitCache_GetTank_NotFound(t *testing.T) {
	cache := NewUnitCache()

	_, ok := cache.GetTank(999)
	assert.False(t, ok, "expected not to find tank with ID 999")
}

func TestUnitCache_AddAndGetInfantry(t *testing.T) {
	cache := NewUnitCache()

	soldier := record.InfantryUnit{
		ID:    99,
		Class: "rpg",
	}

	cache.AddInfantry(soldier)

	got, ok := cache.GetInfantry(99)
	require.True(t, ok, "expected to find infantry with ID 99")
	assert.Equal(t, uint16(99), got.ID)
	assert.Equal(t, "rpg", got.Class)
}

func TestUnitCache_GetInfantry_NotFound(t *testing.T) {
	cache := NewUnitCache()

	_, ok := cache.GetInfantry(999)
	assert.False(t, ok, "expected not to find infantry with ID 999")
}

func TestUnitCache_AddAndGetMine(t *testing.T) {
	cache := NewUnitCache()

	owner := uint16(3)
	cache.AddMine(record.Mine{ID: 7, OwnerID: &owner})

	got, ok := cache.GetMine(7)
	require.True(t, ok, "expected to find mine with ID 7")
	require.NotNil(t, got.OwnerID)
	assert.Equal(t, uint16(3), *got.OwnerID)
}

func TestUnitCache_AddAndGetCrate(t *testing.T) {
	cache := NewUnitCache()

	cache.AddCrate(record.CrateDrop{ID: 12, Type: "repair"})

	got, ok := cache.GetCrate(12)
	require.True(t, ok, "expected to find crate with ID 12")
	assert.Equal(t, "repair", got.Type)
}

func TestUnitCache_IsTank(t *testing.T) {
	cache := NewUnitCache()

	cache.AddTank(record.TankUnit{ID: 1})
	cache.AddInfantry(record.InfantryUnit{ID: 2})

	assert.True(t, cache.IsTank(1))
	assert.False(t, cache.IsTank(2), "infantry ID should not register as tank")
	assert.False(t, cache.IsTank(3), "unknown ID should not register as tank")
}

func TestUnitCache_Reset(t *testing.T) {
	cache := NewUnitCache()

	// Add some data
	cache.AddTank(record.TankUnit{ID: 1, Name: "Tank 1"})
	cache.AddTank(record.TankUnit{ID: 2, Name: "Tank 2"})
	cache.AddInfantry(record.InfantryUnit{ID: 10, Class: "rifleman"})
	cache.AddMine(record.Mine{ID: 20})
	cache.AddCrate(record.CrateDrop{ID: 30})

	// Verify data exists
	assert.Len(t, cache.Tanks, 2)
	assert.Len(t, cache.Infantry, 1)
	assert.Len(t, cache.Mines, 1)
	assert.Len(t, cache.Crates, 1)

	// Reset
	cache.Reset()

	// Verify data is cleared
	assert.Len(t, cache.Tanks, 0)
	assert.Len(t, cache.Infantry, 0)
	assert.Len(t, cache.Mines, 0)
	assert.Len(t, cache.Crates, 0)

	// Verify we can still add data after reset
	cache.AddTank(record.TankUnit{ID: 3, Name: "Tank 3"})
	_, ok := cache.GetTank(3)
	assert.True(t, ok, "expected to find tank added after reset")
}

func TestUnitCache_LockUnlock(t *testing.T) {
	cache := NewUnitCache()

	// Test Lock/Unlock don't cause deadlock
	cache.Lock()
	// Directly modify the map while holding the lock
	cache.Tanks[1] = record.TankUnit{ID: 1, Name: "Direct Add"}
	cache.Unlock()

	// Verify the data was added
	got, ok := cache.GetTank(1)
	require.True(t, ok, "expected to find tank added while holding lock")
	assert.Equal(t, "Direct Add", got.Name)
}

func TestUnitCache_Concurrent(t *testing.T) {
	cache := NewUnitCache()
	var wg sync.WaitGroup

	// Concurrent writes
	for i := uint16(0); i < 100; i++ {
		wg.Add(2)
		go func(id uint16) {
			defer wg.Done()
			cache.AddTank(record.TankUnit{ID: id, Name: "Tank"})
		}(i)
		go func(id uint16) {
			defer wg.Done()
			cache.AddInfantry(record.InfantryUnit{ID: id, Class: "rifleman"})
		}(i)
	}
	wg.Wait()

	// Verify counts
	assert.Len(t, cache.Tanks, 100)
	assert.Len(t, cache.Infantry, 100)

	// Concurrent reads
	for i := uint16(0); i < 100; i++ {
		wg.Add(2)
		go func(id uint16) {
			defer wg.Done()
			cache.GetTank(id)
		}(i)
		go func(id uint16) {
			defer wg.Done()
			cache.GetInfantry(id)
		}(i)
	}
	wg.Wait()
}

// SafeCounter tests

func TestSafeCounter_InitialValue(t *testing.T) {
	c := &SafeCounter{}
	assert.Equal(t, int(0), c.Value())
}

func TestSafeCounter_Set(t *testing.T) {
	c := &SafeCounter{}

	c.Set(42)
	assert.Equal(t, int(42), c.Value())

	c.Set(100)
	assert.Equal(t, int(100), c.Value())

	c.Set(0)
	assert.Equal(t, int(0), c.Value())
}

func TestSafeCounter_Inc(t *testing.T) {
	c := &SafeCounter{}

	c.Inc()
	assert.Equal(t, int(1), c.Value())

	c.Inc()
	c.Inc()
	assert.Equal(t, int(3), c.Value())
}

func TestSafeCounter_Next(t *testing.T) {
	c := &SafeCounter{}

	assert.Equal(t, 1, c.Next())
	assert.Equal(t, 2, c.Next())
	assert.Equal(t, 2, c.Value())
}

func TestSafeCounter_Concurrent(t *testing.T) {
	c := &SafeCounter{}
	var wg sync.WaitGroup

	// Concurrent increments
	for i := 0; i < 1000; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Inc()
		}()
	}
	wg.Wait()

	assert.Equal(t, int(1000), c.Value())
}

func TestSafeCounter_NextConcurrent(t *testing.T) {
	c := &SafeCounter{}
	var wg sync.WaitGroup

	seen := make(chan int, 500)
	for i := 0; i < 500; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- c.Next()
		}()
	}
	wg.Wait()
	close(seen)

	// Every allocated ID must be unique
	unique := make(map[int]bool, 500)
	for id := range seen {
		assert.False(t, unique[id], "duplicate ID %d allocated", id)
		unique[id] = true
	}
	assert.Len(t, unique, 500)
}
