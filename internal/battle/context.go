package battle

import (
	"log/slog"
	"sync"

	"github.com/armorclash/engine/pkg/record"
)

// Context holds the current session and arena state
type Context struct {
	mu      sync.RWMutex
	Session *record.Session
	Arena   *record.Arena
	frame   uint
	elapsed float64
}

// NewContext creates a new Context with default values
func NewContext() *Context {
	return &Context{
		Session: &record.Session{ScenarioName: "No battle loaded"},
		Arena:   &record.Arena{Name: "No arena loaded"},
	}
}

// GetSession returns the current session
func (bc *Context) GetSession() *record.Session {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.Session
}

// GetArena returns the current arena
func (bc *Context) GetArena() *record.Arena {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.Arena
}

// SetSession sets the current session and arena
func (bc *Context) SetSession(session *record.Session, arena *record.Arena) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.Session = session
	bc.Arena = arena
}

// SetProgress records how far the battle loop has advanced. The monitor and
// the logging context read it from other goroutines.
func (bc *Context) SetProgress(frame uint, elapsed float64) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.frame = frame
	bc.elapsed = elapsed
}

// Frame returns the last completed simulation frame
func (bc *Context) Frame() uint {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.frame
}

// Elapsed returns battle time in seconds at the last completed frame
func (bc *Context) Elapsed() float64 {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.elapsed
}

// LogAttrs satisfies logging.ContextProvider so every log record carries the
// scenario name and current frame.
func (bc *Context) LogAttrs() []slog.Attr {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return []slog.Attr{
		slog.String("scenario", bc.Session.ScenarioName),
		slog.Uint64("frame", uint64(bc.frame)),
	}
}
