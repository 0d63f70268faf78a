// Package layout defines the fixed, little-endian binary layouts for
// particles, beams, the mapping table, and the metadata record (spec §3),
// and the codec operations over them (spec §4.1). All offsets are exact
// byte offsets into the GPU-matching packed records; every Write/Read
// pair here must produce bytes a WGSL struct with the same field order
// would read identically, since these are the same buffers the compute
// and render kernels bind.
package layout

import (
	"encoding/binary"
	"math"

	"github.com/oxy-softbody/softbody/common"
)

// ParticleStride is the byte size of one packed Particle record:
// position (f32,f32), velocity (f32,f32), acceleration (f32,f32).
const ParticleStride = 24

// Particle field byte offsets within one ParticleStride-sized record.
const (
	particleOffsetPosX = 0
	particleOffsetPosY = 4
	particleOffsetVelX = 8
	particleOffsetVelY = 12
	particleOffsetAccX = 16
	particleOffsetAccY = 20
)

// Particle is the host-side value form of a packed particle record. All
// physical particles have implicit unit mass (spec §3); acceleration is
// a per-substep accumulator reset after integration.
type Particle struct {
	Position     common.Vec2
	Velocity     common.Vec2
	Acceleration common.Vec2
}

// WriteParticle encodes p into buf at the given physical slot.
// buf must be at least (slot+1)*ParticleStride bytes long.
//
// Parameters:
//   - buf: the destination particle buffer bytes
//   - slot: the physical slot index to write into
//   - p: the particle value to encode
func WriteParticle(buf []byte, slot int, p Particle) {
	base := slot * ParticleStride
	putF32(buf, base+particleOffsetPosX, p.Position[0])
	putF32(buf, base+particleOffsetPosY, p.Position[1])
	putF32(buf, base+particleOffsetVelX, p.Velocity[0])
	putF32(buf, base+particleOffsetVelY, p.Velocity[1])
	putF32(buf, base+particleOffsetAccX, p.Acceleration[0])
	putF32(buf, base+particleOffsetAccY, p.Acceleration[1])
}

// ReadParticle decodes the particle at the given physical slot from buf.
//
// Parameters:
//   - buf: the source particle buffer bytes
//   - slot: the physical slot index to read from
//
// Returns:
//   - Particle: the decoded particle value
func ReadParticle(buf []byte, slot int) Particle {
	base := slot * ParticleStride
	return Particle{
		Position:     common.Vec2{getF32(buf, base+particleOffsetPosX), getF32(buf, base+particleOffsetPosY)},
		Velocity:     common.Vec2{getF32(buf, base+particleOffsetVelX), getF32(buf, base+particleOffsetVelY)},
		Acceleration: common.Vec2{getF32(buf, base+particleOffsetAccX), getF32(buf, base+particleOffsetAccY)},
	}
}

// putF32 writes v as little-endian IEEE-754 bits at buf[offset:offset+4].
func putF32(buf []byte, offset int, v float32) {
	binary.LittleEndian.PutUint32(buf[offset:], math.Float32bits(v))
}

// getF32 reads a little-endian IEEE-754 float32 from buf[offset:offset+4].
func getF32(buf []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[offset:]))
}

// putU16 writes v as little-endian at buf[offset:offset+2].
func putU16(buf []byte, offset int, v uint16) {
	binary.LittleEndian.PutUint16(buf[offset:], v)
}

// getU16 reads a little-endian uint16 from buf[offset:offset+2].
func getU16(buf []byte, offset int) uint16 {
	return binary.LittleEndian.Uint16(buf[offset:])
}

// putU32 writes v as little-endian at buf[offset:offset+4].
func putU32(buf []byte, offset int, v uint32) {
	binary.LittleEndian.PutUint32(buf[offset:], v)
}

// getU32 reads a little-endian uint32 from buf[offset:offset+4].
func getU32(buf []byte, offset int) uint32 {
	return binary.LittleEndian.Uint32(buf[offset:])
}
