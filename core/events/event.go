package events

import "github.com/exfury/gridiron-core/core/types"

// Event represents a structured state change emitted by the chain.
type Event interface {
	EventType() string
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Collector buffers events emitted during a single invocation so they can be
// returned with the result or dropped when the invocation aborts.
type Collector struct {
	events []*types.Event
}

// Emit implements the Emitter interface.
func (c *Collector) Emit(evt Event) {
	if c == nil || evt == nil {
		return
	}
	if converted := evt.Event(); converted != nil {
		c.events = append(c.events, converted)
	}
}

// Drain returns the buffered events and resets the collector.
func (c *Collector) Drain() []*types.Event {
	if c == nil {
		return nil
	}
	out := c.events
	c.events = nil
	return out
}
