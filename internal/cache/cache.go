package cache

import (
	"sync"

	"github.com/armorclash/engine/pkg/record"
)

// UnitCache caches units as they spawn to avoid subsequent lookups.
// Event handlers resolve victim and attacker IDs through it on every hit, so
// latency in these calls matters.
type UnitCache struct {
	m        sync.Mutex
	Tanks    map[uint16]record.TankUnit
	Infantry map[uint16]record.InfantryUnit
	Mines    map[uint16]record.Mine
	Crates   map[uint16]record.CrateDrop
}

func NewUnitCache() *UnitCache {
	return &UnitCache{
		m:        sync.Mutex{},
		Tanks:    make(map[uint16]record.TankUnit),
		Infantry: make(map[uint16]record.InfantryUnit),
		Mines:    make(map[uint16]record.Mine),
		Crates:   make(map[uint16]record.CrateDrop),
	}
}

func (c *UnitCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.Tanks = make(map[uint16]record.TankUnit)
	c.Infantry = make(map[uint16]record.InfantryUnit)
	c.Mines = make(map[uint16]record.Mine)
	c.Crates = make(map[uint16]record.CrateDrop)
}

func (c *UnitCache) Lock() {
	c.m.Lock()
}

func (c *UnitCache) Unlock() {
	c.m.Unlock()
}

func (c *UnitCache) GetTank(id uint16) (record.TankUnit, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	if t, ok := c.Tanks[id]; ok {
		return t, true
	}
	return record.TankUnit{}, false
}

func (c *UnitCache) GetInfantry(id uint16) (record.InfantryUnit, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	if s, ok := c.Infantry[id]; ok {
		return s, true
	}
	return record.InfantryUnit{}, false
}

func (c *UnitCache) GetMine(id uint16) (record.Mine, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	if m, ok := c.Mines[id]; ok {
		return m, true
	}
	return record.Mine{}, false
}

func (c *UnitCache) GetCrate(id uint16) (record.CrateDrop, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	if cr, ok := c.Crates[id]; ok {
		return cr, true
	}
	return record.CrateDrop{}, false
}

func (c *UnitCache) AddTank(t record.TankUnit) {
	c.m.Lock()
	defer c.m.Unlock()
	c.Tanks[t.ID] = t
}

func (c *UnitCache) AddInfantry(s record.InfantryUnit) {
	c.m.Lock()
	defer c.m.Unlock()
	c.Infantry[s.ID] = s
}

func (c *UnitCache) AddMine(m record.Mine) {
	c.m.Lock()
	defer c.m.Unlock()
	c.Mines[m.ID] = m
}

func (c *UnitCache) AddCrate(cr record.CrateDrop) {
	c.m.Lock()
	defer c.m.Unlock()
	c.Crates[cr.ID] = cr
}

// IsTank reports whether the given unit ID belongs to a tank. Hit and kill
// records reference victims and attackers by kind-specific columns, so
// handlers need the distinction.
func (c *UnitCache) IsTank(id uint16) bool {
	c.m.Lock()
	defer c.m.Unlock()
	_, ok := c.Tanks[id]
	return ok
}

// SafeCounter is a thread-safe counter. The battle service allocates unit IDs
// from it so tanks, infantry, mines and crates share one ID space.
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v int) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}

// Next increments the counter and returns the new value as one atomic step.
func (c *SafeCounter) Next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v++
	return c.v
}
