package events

import "bridgechain/core/types"

// Event represents a structured state change emitted by the bridge.
type Event interface {
	EventType() string
}

// Renderable is implemented by events that can be flattened into the wire
// representation consumed by archives and RPC clients.
type Renderable interface {
	Event
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
