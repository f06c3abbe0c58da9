package cache

import (
	"sync"

	"github.com/expr-lang/expr/vm"
)

// RuleCache maps scenario rule names to their compiled programs for the
// current session. Rules are compiled once at session start and evaluated
// every tick, so evaluation must not pay compilation cost.
type RuleCache struct {
	mu    sync.RWMutex
	rules map[string]*vm.Program
}

// NewRuleCache creates a new RuleCache
func NewRuleCache() *RuleCache {
	return &RuleCache{
		rules: make(map[string]*vm.Program),
	}
}

// Get retrieves a compiled rule by name
func (c *RuleCache) Get(name string) (*vm.Program, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.rules[name]
	return p, ok
}

// Set stores a compiled rule by name
func (c *RuleCache) Set(name string, program *vm.Program) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules[name] = program
}

// Delete removes a rule by name
func (c *RuleCache) Delete(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rules, name)
}

// Reset clears all rules from the cache
func (c *RuleCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules = make(map[string]*vm.Program)
}

// Names returns the names of all cached rules.
func (c *RuleCache) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.rules))
	for name := range c.rules {
		names = append(names, name)
	}
	return names
}
