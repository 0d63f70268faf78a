// Package engine is the message-channel boundary of spec.md §6: a Go
// channel pair standing in for the literal worker/host postMessage
// split the spec describes, since Go has no main-thread/worker
// distinction to begin with. This is the idiomatic Go analogue of that
// boundary, grounded on Carmen-Shannon-oxy-go/engine/engine.go's own
// channel-based coordination (tickRateChannel, quitChannel) — this
// package replaces engine.go/engine_builder.go's scene/render-loop
// engine entirely, since this repository's "engine" is the
// message-driven simulation core spec.md §6 names, not a 3D scene
// graph host.
package engine

import (
	"github.com/google/uuid"

	"github.com/oxy-softbody/softbody/config"
	"github.com/oxy-softbody/softbody/orchestrator"
)

// MessageType enumerates the message-channel request/response kinds of
// spec.md §6's table.
type MessageType int

const (
	MessageInit MessageType = iota
	MessageDestroy
	MessagePhysicsConstants
	MessageGetPhysicsConstants
	MessageInput
	MessageVisibilityChange
	MessageSnapshotSave
	MessageSnapshotLoad
	MessageFramerate
	MessageCorruptBuffers
)

// String names a MessageType for logging.
func (t MessageType) String() string {
	switch t {
	case MessageInit:
		return "INIT"
	case MessageDestroy:
		return "DESTROY"
	case MessagePhysicsConstants:
		return "PHYSICS_CONSTANTS"
	case MessageGetPhysicsConstants:
		return "GET_PHYSICS_CONSTANTS"
	case MessageInput:
		return "INPUT"
	case MessageVisibilityChange:
		return "VISIBILITY_CHANGE"
	case MessageSnapshotSave:
		return "SNAPSHOT_SAVE"
	case MessageSnapshotLoad:
		return "SNAPSHOT_LOAD"
	case MessageFramerate:
		return "FRAMERATE"
	case MessageCorruptBuffers:
		return "CORRUPT_BUFFERS"
	default:
		return "UNKNOWN"
	}
}

// Request is one host → engine message. ID correlates a Request with
// its eventual Response on the Facade's Responses channel. Only the
// field(s) relevant to Type are populated.
type Request struct {
	ID   uuid.UUID
	Type MessageType

	Physics      config.PhysicsConstants
	Input        orchestrator.Input
	Visible      bool
	SnapshotLoad []byte
}

// NewRequest builds a Request of the given type with a fresh
// correlation ID. Callers populate the type-specific field(s) directly.
//
// Parameters:
//   - t: the message type
//
// Returns:
//   - Request: a request with a fresh ID and the given type
func NewRequest(t MessageType) Request {
	return Request{ID: uuid.New(), Type: t}
}

// Response is one engine → host message, correlated to its triggering
// Request by ID (spec.md §6's Response column), or carrying a fresh ID
// for FRAMERATE's unsolicited, engine-initiated pushes.
type Response struct {
	ID   uuid.UUID
	Type MessageType

	Physics  config.PhysicsConstants
	Snapshot []byte
	Success  bool
	FPS      float64
	Err      error
}
