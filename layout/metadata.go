package layout

import "github.com/oxy-softbody/softbody/common"

// MetadataStride is the byte size of the packed Metadata record: two
// 20-byte indirect-draw descriptors, capacity and physics scalars, and
// cursor/force state (spec §3).
const MetadataStride = 112

// IndirectDrawStride is the byte size of one indirect-draw-indexed
// descriptor: vertex count, instance count, first vertex, base vertex,
// first instance (five u32 words), matching wgpu's
// DrawIndexedIndirect argument layout.
const IndirectDrawStride = 20

// Indirect-draw descriptor word offsets, relative to the start of a
// descriptor.
const (
	drawOffsetVertexCount   = 0
	drawOffsetInstanceCount = 4
	drawOffsetFirstVertex   = 8
	drawOffsetBaseVertex    = 12
	drawOffsetFirstInstance = 16
)

// Metadata record byte offsets.
const (
	metaOffsetParticleDraw        = 0
	metaOffsetBeamDraw            = metaOffsetParticleDraw + IndirectDrawStride // 20
	metaOffsetMaxParticles        = metaOffsetBeamDraw + IndirectDrawStride     // 40
	metaOffsetMaxBeams            = metaOffsetMaxParticles + 4                 // 44
	metaOffsetGravity             = metaOffsetMaxBeams + 4                     // 48
	metaOffsetBorderElasticity    = metaOffsetGravity + 8                      // 56
	metaOffsetBorderFriction      = metaOffsetBorderElasticity + 4             // 60
	metaOffsetPairElasticity      = metaOffsetBorderFriction + 4               // 64
	metaOffsetPairFriction        = metaOffsetPairElasticity + 4               // 68
	metaOffsetDragCoefficient     = metaOffsetPairFriction + 4                 // 72
	metaOffsetDragExponent        = metaOffsetDragCoefficient + 4             // 76
	metaOffsetUserForceMagnitude  = metaOffsetDragExponent + 4                // 80
	metaOffsetCursorActive        = metaOffsetUserForceMagnitude + 4          // 84
	metaOffsetCursorPosition      = metaOffsetCursorActive + 4                // 88
	metaOffsetCursorVelocity      = metaOffsetCursorPosition + 8              // 96
	metaOffsetAppliedForce        = metaOffsetCursorVelocity + 8              // 104
)

// IndirectDraw mirrors a DrawIndexedIndirect argument buffer entry.
// InstanceCount doubles as the type's live element count (spec §4.3's
// delete pass writes the post-compaction particle/beam count back into
// exactly this word, and the render pass reads it back out to know how
// many instances to draw) so there is no separate ParticleCount/
// BeamCount field in the record.
type IndirectDraw struct {
	VertexCount   uint32
	InstanceCount uint32
	FirstVertex   uint32
	BaseVertex    uint32
	FirstInstance uint32
}

// Metadata is the host-side value form of the packed metadata record:
// draw descriptors, capacities, physics constants, and cursor state.
type Metadata struct {
	ParticleDraw IndirectDraw
	BeamDraw     IndirectDraw

	MaxParticles uint32
	MaxBeams     uint32

	Gravity           common.Vec2
	BorderElasticity  float32
	BorderFriction    float32
	PairElasticity    float32
	PairFriction      float32
	DragCoefficient   float32
	DragExponent      float32
	UserForceMagnitude float32

	CursorActive   bool
	CursorPosition common.Vec2
	CursorVelocity common.Vec2
	AppliedForce   common.Vec2
}

// writeDraw encodes d into buf at the given byte offset.
func writeDraw(buf []byte, offset int, d IndirectDraw) {
	putU32(buf, offset+drawOffsetVertexCount, d.VertexCount)
	putU32(buf, offset+drawOffsetInstanceCount, d.InstanceCount)
	putU32(buf, offset+drawOffsetFirstVertex, d.FirstVertex)
	putU32(buf, offset+drawOffsetBaseVertex, d.BaseVertex)
	putU32(buf, offset+drawOffsetFirstInstance, d.FirstInstance)
}

// readDraw decodes an IndirectDraw from buf at the given byte offset.
func readDraw(buf []byte, offset int) IndirectDraw {
	return IndirectDraw{
		VertexCount:   getU32(buf, offset+drawOffsetVertexCount),
		InstanceCount: getU32(buf, offset+drawOffsetInstanceCount),
		FirstVertex:   getU32(buf, offset+drawOffsetFirstVertex),
		BaseVertex:    getU32(buf, offset+drawOffsetBaseVertex),
		FirstInstance: getU32(buf, offset+drawOffsetFirstInstance),
	}
}

// WriteMetadata encodes m into buf. buf must be at least
// MetadataStride bytes long.
//
// Parameters:
//   - buf: the destination metadata buffer bytes
//   - m: the metadata value to encode
func WriteMetadata(buf []byte, m Metadata) {
	writeDraw(buf, metaOffsetParticleDraw, m.ParticleDraw)
	writeDraw(buf, metaOffsetBeamDraw, m.BeamDraw)
	putU32(buf, metaOffsetMaxParticles, m.MaxParticles)
	putU32(buf, metaOffsetMaxBeams, m.MaxBeams)
	putF32(buf, metaOffsetGravity, m.Gravity[0])
	putF32(buf, metaOffsetGravity+4, m.Gravity[1])
	putF32(buf, metaOffsetBorderElasticity, m.BorderElasticity)
	putF32(buf, metaOffsetBorderFriction, m.BorderFriction)
	putF32(buf, metaOffsetPairElasticity, m.PairElasticity)
	putF32(buf, metaOffsetPairFriction, m.PairFriction)
	putF32(buf, metaOffsetDragCoefficient, m.DragCoefficient)
	putF32(buf, metaOffsetDragExponent, m.DragExponent)
	putF32(buf, metaOffsetUserForceMagnitude, m.UserForceMagnitude)
	putU32(buf, metaOffsetCursorActive, boolToU32(m.CursorActive))
	putF32(buf, metaOffsetCursorPosition, m.CursorPosition[0])
	putF32(buf, metaOffsetCursorPosition+4, m.CursorPosition[1])
	putF32(buf, metaOffsetCursorVelocity, m.CursorVelocity[0])
	putF32(buf, metaOffsetCursorVelocity+4, m.CursorVelocity[1])
	putF32(buf, metaOffsetAppliedForce, m.AppliedForce[0])
	putF32(buf, metaOffsetAppliedForce+4, m.AppliedForce[1])
}

// ReadMetadata decodes a Metadata record from buf.
//
// Parameters:
//   - buf: the source metadata buffer bytes
//
// Returns:
//   - Metadata: the decoded metadata value
func ReadMetadata(buf []byte) Metadata {
	return Metadata{
		ParticleDraw:       readDraw(buf, metaOffsetParticleDraw),
		BeamDraw:           readDraw(buf, metaOffsetBeamDraw),
		MaxParticles:       getU32(buf, metaOffsetMaxParticles),
		MaxBeams:           getU32(buf, metaOffsetMaxBeams),
		Gravity:            common.Vec2{getF32(buf, metaOffsetGravity), getF32(buf, metaOffsetGravity+4)},
		BorderElasticity:   getF32(buf, metaOffsetBorderElasticity),
		BorderFriction:     getF32(buf, metaOffsetBorderFriction),
		PairElasticity:     getF32(buf, metaOffsetPairElasticity),
		PairFriction:       getF32(buf, metaOffsetPairFriction),
		DragCoefficient:    getF32(buf, metaOffsetDragCoefficient),
		DragExponent:       getF32(buf, metaOffsetDragExponent),
		UserForceMagnitude: getF32(buf, metaOffsetUserForceMagnitude),
		CursorActive:       getU32(buf, metaOffsetCursorActive) != 0,
		CursorPosition:     common.Vec2{getF32(buf, metaOffsetCursorPosition), getF32(buf, metaOffsetCursorPosition+4)},
		CursorVelocity:     common.Vec2{getF32(buf, metaOffsetCursorVelocity), getF32(buf, metaOffsetCursorVelocity+4)},
		AppliedForce:       common.Vec2{getF32(buf, metaOffsetAppliedForce), getF32(buf, metaOffsetAppliedForce+4)},
	}
}

// ParticleCount returns the live particle count, which is the same word
// the particle indirect-draw descriptor uses as its instance count.
//
// Parameters:
//   - buf: the source metadata buffer bytes
//
// Returns:
//   - uint32: the number of live particles
func ParticleCount(buf []byte) uint32 {
	return getU32(buf, metaOffsetParticleDraw+drawOffsetInstanceCount)
}

// BeamCount returns the live beam count, which is the same word the
// beam indirect-draw descriptor uses as its instance count.
//
// Parameters:
//   - buf: the source metadata buffer bytes
//
// Returns:
//   - uint32: the number of live beams
func BeamCount(buf []byte) uint32 {
	return getU32(buf, metaOffsetBeamDraw+drawOffsetInstanceCount)
}

// SetParticleCount overwrites the particle draw descriptor's instance
// count, the delete-compaction pass's write-back target.
//
// Parameters:
//   - buf: the destination metadata buffer bytes
//   - count: the new live particle count
func SetParticleCount(buf []byte, count uint32) {
	putU32(buf, metaOffsetParticleDraw+drawOffsetInstanceCount, count)
}

// SetBeamCount overwrites the beam draw descriptor's instance count,
// the delete-compaction pass's write-back target.
//
// Parameters:
//   - buf: the destination metadata buffer bytes
//   - count: the new live beam count
func SetBeamCount(buf []byte, count uint32) {
	putU32(buf, metaOffsetBeamDraw+drawOffsetInstanceCount, count)
}

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
