package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/armorclash/engine/internal/channel"
)

// Event represents a simulation event routed to a recording handler.
type Event struct {
	Name      string
	Payload   any
	Timestamp time.Time
}

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(Event) (any, error)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*config)

type config struct {
	bufferSize int
	blocking   bool
	logged     bool
}

// Buffered makes the handler async with a queue of the given size.
func Buffered(size int) Option {
	return func(c *config) {
		c.bufferSize = size
	}
}

// Blocking makes a buffered handler block when the queue is full instead of dropping.
func Blocking() Option {
	return func(c *config) {
		c.blocking = true
	}
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// Dispatcher routes events to registered handlers.
type Dispatcher struct {
	handlers map[string]HandlerFunc
	logger   Logger

	// OTEL metrics
	queueSize metric.Int64ObservableGauge
	processed metric.Int64Counter
	dropped   metric.Int64Counter

	// Track buffers for gauge callback
	mu      sync.RWMutex
	buffers map[string]channel.Channel[Event]
}

// New creates a new Dispatcher with the given logger.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		buffers:  make(map[string]channel.Channel[Event]),
		logger:   logger,
	}

	// Get meter from global OTel provider (returns no-op if not configured)
	m := meter()

	var err error

	d.queueSize, err = m.Int64ObservableGauge(
		"dispatcher.queue.size",
		metric.WithDescription("Current number of events in queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			d.mu.RLock()
			defer d.mu.RUnlock()
			for name, buf := range d.buffers {
				o.ObserveInt64(d.queueSize, int64(buf.Len()),
					metric.WithAttributes(attribute.String("event", name)))
			}
			return nil
		},
		d.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	d.processed, err = m.Int64Counter(
		"dispatcher.events.processed",
		metric.WithDescription("Total events processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	d.dropped, err = m.Int64Counter(
		"dispatcher.events.dropped",
		metric.WithDescription("Total events dropped due to full queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	return d, nil
}

// Register adds a handler for the given event name with optional configuration.
func (d *Dispatcher) Register(name string, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := h

	if cfg.bufferSize > 0 {
		handler = d.withBuffer(name, cfg.bufferSize, cfg.blocking, handler)
	}

	if cfg.logged {
		handler = d.withLogging(name, handler)
	}

	d.handlers[name] = handler
}

// Dispatch routes an event to its registered handler.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	h, ok := d.handlers[e.Name]
	if !ok {
		return nil, fmt.Errorf("unknown event: %s", e.Name)
	}
	return h(e)
}

// HasHandler returns true if a handler is registered for the event name.
func (d *Dispatcher) HasHandler(name string) bool {
	_, ok := d.handlers[name]
	return ok
}

// QueueLengths reports the current depth of every buffered queue, keyed by
// event name.
func (d *Dispatcher) QueueLengths() map[string]int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	lengths := make(map[string]int, len(d.buffers))
	for name, buf := range d.buffers {
		lengths[name] = buf.Len()
	}
	return lengths
}

// Drain waits until every buffered queue is empty or the timeout elapses.
// Sessions must not be closed while state events are still queued, so callers
// drain before ending one.
func (d *Dispatcher) Drain(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if d.queuedEvents() == 0 {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (d *Dispatcher) queuedEvents() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	total := 0
	for _, buf := range d.buffers {
		total += buf.Len()
	}
	return total
}

func (d *Dispatcher) withBuffer(name string, size int, blocking bool, h HandlerFunc) HandlerFunc {
	buffer := channel.New[Event](size)

	d.mu.Lock()
	d.buffers[name] = buffer
	d.mu.Unlock()

	eventAttr := attribute.String("event", name)

	go func() {
		for e := range buffer.Receive() {
			h(e)
			d.processed.Add(context.Background(), 1, metric.WithAttributes(eventAttr))
		}
	}()

	if blocking {
		return func(e Event) (any, error) {
			buffer.Send(e)
			return "queued", nil
		}
	}

	return func(e Event) (any, error) {
		if buffer.TrySend(e) {
			return "queued", nil
		}
		d.dropped.Add(context.Background(), 1, metric.WithAttributes(eventAttr))
		return nil, fmt.Errorf("queue full: %s", name)
	}
}

func (d *Dispatcher) withLogging(name string, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		start := time.Now()
		d.logger.Debug("handling event", "event", name, "payload", fmt.Sprintf("%T", e.Payload))

		result, err := h(e)

		if err != nil {
			d.logger.Error("event failed", "event", name, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("event complete", "event", name, "duration", time.Since(start))
		}

		return result, err
	}
}
