package config

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/oxy-softbody/softbody/common"
	"github.com/oxy-softbody/softbody/device"
	"github.com/oxy-softbody/softbody/layout"
)

// PhysicsConstants is the mutable subset of layout.Metadata the host can
// change at any time during a running simulation (spec §4.2, §6): unlike
// EngineOptions, none of these fields require reallocating a GPU buffer,
// so they can be pushed with a single queue write at any frame boundary.
type PhysicsConstants struct {
	Gravity            common.Vec2
	BorderElasticity   float32
	BorderFriction     float32
	PairElasticity     float32
	PairFriction       float32
	DragCoefficient    float32
	DragExponent       float32
	UserForceMagnitude float32
}

// DefaultPhysicsConstants returns a reasonable starting set of physics
// constants: mild downward gravity, lossy but non-degenerate border and
// pair collision response, and a quadratic drag law.
func DefaultPhysicsConstants() PhysicsConstants {
	return PhysicsConstants{
		Gravity:            common.Vec2{0, 98.0},
		BorderElasticity:   0.6,
		BorderFriction:     0.3,
		PairElasticity:     0.5,
		PairFriction:       0.2,
		DragCoefficient:    0.02,
		DragExponent:       2.0,
		UserForceMagnitude: 5000.0,
	}
}

// ApplyTo overwrites p's fields onto m's corresponding physics fields,
// leaving every other field of m (draw descriptors, capacities, cursor
// state) untouched. Idempotent: applying the same PhysicsConstants twice
// leaves m in the same state as applying it once.
//
// Parameters:
//   - m: the metadata record to mutate in place
func (p PhysicsConstants) ApplyTo(m *layout.Metadata) {
	m.Gravity = p.Gravity
	m.BorderElasticity = p.BorderElasticity
	m.BorderFriction = p.BorderFriction
	m.PairElasticity = p.PairElasticity
	m.PairFriction = p.PairFriction
	m.DragCoefficient = p.DragCoefficient
	m.DragExponent = p.DragExponent
	m.UserForceMagnitude = p.UserForceMagnitude
}

// PushMetadata encodes m and writes the whole metadata buffer in one
// queue write, the only path by which the host mutates live physics
// constants, cursor state, or applied force on a running device (spec
// §4.2). Safe to call every frame; wgpu queue writes are cheap relative
// to a compute dispatch.
//
// Parameters:
//   - dev: the device whose queue performs the write
//   - metadataBuffer: the destination metadata buffer
//   - m: the full metadata record to encode and push
func PushMetadata(dev *device.Device, metadataBuffer *wgpu.Buffer, m layout.Metadata) {
	buf := make([]byte, layout.MetadataStride)
	layout.WriteMetadata(buf, m)
	dev.Queue().WriteBuffer(metadataBuffer, 0, buf)
}
