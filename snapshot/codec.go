// Package snapshot implements the framed save/load codec of spec.md
// §4.6: stage-copy the live portion of the device's particle, beam, and
// mapping buffers through mappable readback buffers, frame them behind
// a small fixed header, and, symmetrically, write a previously saved
// frame back through the device queue. Grounded on
// Gekko3D-gekko/voxelrt/rt/gpu/manager_hiz.go's MapAsync/Poll/
// GetMappedRange readback idiom, the only stage-copy-and-map precedent
// in the example pack.
package snapshot

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/oxy-softbody/softbody/common"
	"github.com/oxy-softbody/softbody/device"
	"github.com/oxy-softbody/softbody/errs"
	"github.com/oxy-softbody/softbody/layout"
)

// headerFields is the word count of the framing header (spec.md §4.6's
// "6×u16 header"). Only the first three words carry information in this
// format revision; the rest are reserved and always zero on save,
// ignored on load.
const headerFields = 6

// HeaderSize is the header's byte size.
const HeaderSize = headerFields * 2

// constantsSlabSize is the byte size of the physics-constants slab: the
// eight f32 scalars spec.md §2 lists as the recognized physics
// constants (gravity's two components plus six scalars). This excludes
// UserForceMagnitude, which SPEC_FULL's config.PhysicsConstants carries
// but which is not one of the constants a snapshot's slab names.
const constantsSlabSize = 8 * 4

// header is the parsed form of a snapshot's framing header.
type header struct {
	constantsSize uint16
	particleCount uint16
	beamCount     uint16
}

// encode writes h as a headerFields-word little-endian frame.
func (h header) encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(buf[0:], h.constantsSize)
	binary.LittleEndian.PutUint16(buf[2:], h.particleCount)
	binary.LittleEndian.PutUint16(buf[4:], h.beamCount)
	return buf
}

// decodeHeader parses the leading HeaderSize bytes of buf.
func decodeHeader(buf []byte) (header, error) {
	if len(buf) < HeaderSize {
		return header{}, errs.New(errs.InvalidConfiguration, "snapshot: truncated header")
	}
	return header{
		constantsSize: binary.LittleEndian.Uint16(buf[0:]),
		particleCount: binary.LittleEndian.Uint16(buf[2:]),
		beamCount:     binary.LittleEndian.Uint16(buf[4:]),
	}, nil
}

// Save stage-copies the live portion of buffers into mappable readback
// buffers, maps each one read-only, and frames the result per spec.md
// §4.6: header, physics-constants slab, live particle mapping, live
// particle data, live beam mapping, live beam data.
//
// Parameters:
//   - dev: the device the buffers live on
//   - buffers: the simulation buffer set to snapshot
//
// Returns:
//   - []byte: the framed snapshot
//   - error: any failure reading back a device buffer
func Save(dev *device.Device, buffers *device.Buffers) ([]byte, error) {
	metaBytes, err := readback(dev, buffers.Metadata, 0, layout.MetadataStride)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read metadata: %w", err)
	}
	meta := layout.ReadMetadata(metaBytes)
	particleCount := meta.ParticleDraw.InstanceCount
	beamCount := meta.BeamDraw.InstanceCount

	particleMapping, err := readback(dev, buffers.Mapping, 0, uint64(particleCount)*layout.MappingStride)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read particle mapping: %w", err)
	}
	particleData, err := readback(dev, buffers.Particle[0], 0, uint64(particleCount)*layout.ParticleStride)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read particle data: %w", err)
	}

	beamMappingOffset := uint64(buffers.MaxParticles) * layout.MappingStride
	beamMapping, err := readback(dev, buffers.Mapping, beamMappingOffset, uint64(beamCount)*layout.MappingStride)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read beam mapping: %w", err)
	}
	beamData, err := readback(dev, buffers.Beam, 0, uint64(beamCount)*layout.BeamStride)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read beam data: %w", err)
	}

	h := header{
		constantsSize: constantsSlabSize,
		particleCount: uint16(particleCount),
		beamCount:     uint16(beamCount),
	}

	out := make([]byte, 0, HeaderSize+constantsSlabSize+len(particleMapping)+len(particleData)+len(beamMapping)+len(beamData))
	out = append(out, h.encode()...)
	out = append(out, encodeConstantsSlab(meta)...)
	out = append(out, particleMapping...)
	out = append(out, particleData...)
	out = append(out, beamMapping...)
	out = append(out, beamData...)
	return out, nil
}

// Load parses a framed snapshot and writes it back through the device
// queue. If either live count exceeds the device's current MaxParticles
// or MaxBeams, Load fails with *errs.Error{Kind: errs.CapacityExceeded}
// and does not touch any buffer (spec.md §4.6). On success, the force
// scratch buffer and the idle particle ping-pong buffer are cleared and
// the metadata record's live counts are updated to match.
//
// Parameters:
//   - dev: the device the buffers live on
//   - buffers: the simulation buffer set to load into
//   - data: a snapshot previously produced by Save
//
// Returns:
//   - error: *errs.Error{Kind: errs.CapacityExceeded} if the snapshot
//     does not fit, *errs.Error{Kind: errs.InvalidConfiguration} if the
//     payload is malformed, or a transient buffer-write failure
func Load(dev *device.Device, buffers *device.Buffers, data []byte) error {
	h, err := decodeHeader(data)
	if err != nil {
		return err
	}

	if int(h.particleCount) > buffers.MaxParticles {
		return errs.New(errs.CapacityExceeded, fmt.Sprintf("snapshot: %d particles exceeds capacity %d", h.particleCount, buffers.MaxParticles))
	}
	if int(h.beamCount) > buffers.MaxBeams {
		return errs.New(errs.CapacityExceeded, fmt.Sprintf("snapshot: %d beams exceeds capacity %d", h.beamCount, buffers.MaxBeams))
	}

	particleMappingSize := int(h.particleCount) * layout.MappingStride
	particleDataSize := int(h.particleCount) * layout.ParticleStride
	beamMappingSize := int(h.beamCount) * layout.MappingStride
	beamDataSize := int(h.beamCount) * layout.BeamStride
	expected := HeaderSize + int(h.constantsSize) + particleMappingSize + particleDataSize + beamMappingSize + beamDataSize
	if len(data) < expected {
		return errs.New(errs.InvalidConfiguration, "snapshot: truncated payload")
	}

	cursor := HeaderSize
	constantsSlab := data[cursor : cursor+int(h.constantsSize)]
	cursor += int(h.constantsSize)
	particleMapping := data[cursor : cursor+particleMappingSize]
	cursor += particleMappingSize
	particleData := data[cursor : cursor+particleDataSize]
	cursor += particleDataSize
	beamMapping := data[cursor : cursor+beamMappingSize]
	cursor += beamMappingSize
	beamData := data[cursor : cursor+beamDataSize]

	metaBytes, err := readback(dev, buffers.Metadata, 0, layout.MetadataStride)
	if err != nil {
		return fmt.Errorf("snapshot: read metadata: %w", err)
	}
	meta := layout.ReadMetadata(metaBytes)
	applyConstantsSlab(constantsSlab, &meta)
	meta.ParticleDraw.InstanceCount = uint32(h.particleCount)
	meta.BeamDraw.InstanceCount = uint32(h.beamCount)
	meta.CursorActive = false
	meta.CursorPosition = common.Vec2{}
	meta.CursorVelocity = common.Vec2{}
	meta.AppliedForce = common.Vec2{}

	metaOut := make([]byte, layout.MetadataStride)
	layout.WriteMetadata(metaOut, meta)
	dev.Queue().WriteBuffer(buffers.Metadata, 0, metaOut)

	dev.Queue().WriteBuffer(buffers.Mapping, 0, particleMapping)
	dev.Queue().WriteBuffer(buffers.Mapping, uint64(buffers.MaxParticles)*layout.MappingStride, beamMapping)
	dev.Queue().WriteBuffer(buffers.Particle[0], 0, particleData)
	dev.Queue().WriteBuffer(buffers.Beam, 0, beamData)

	// reset scratch buffers: the idle ping-pong particle buffer and the
	// force accumulator must not carry forward whatever the previous
	// simulation left behind.
	dev.Queue().WriteBuffer(buffers.Particle[1], 0, make([]byte, uint64(buffers.MaxParticles)*layout.ParticleStride))
	dev.Queue().WriteBuffer(buffers.ForceScratch, 0, make([]byte, uint64(buffers.MaxParticles)*2*4))

	return nil
}

// encodeConstantsSlab packs the eight recognized physics scalars out of
// m in gravity-then-scalars order.
func encodeConstantsSlab(m layout.Metadata) []byte {
	buf := make([]byte, constantsSlabSize)
	putF32(buf, 0, m.Gravity[0])
	putF32(buf, 4, m.Gravity[1])
	putF32(buf, 8, m.BorderElasticity)
	putF32(buf, 12, m.BorderFriction)
	putF32(buf, 16, m.PairElasticity)
	putF32(buf, 20, m.PairFriction)
	putF32(buf, 24, m.DragCoefficient)
	putF32(buf, 28, m.DragExponent)
	return buf
}

// applyConstantsSlab decodes slab and merges it into m, leaving every
// field the slab does not carry (capacities, UserForceMagnitude, draw
// descriptors, cursor state) untouched.
func applyConstantsSlab(slab []byte, m *layout.Metadata) {
	m.Gravity = common.Vec2{getF32(slab, 0), getF32(slab, 4)}
	m.BorderElasticity = getF32(slab, 8)
	m.BorderFriction = getF32(slab, 12)
	m.PairElasticity = getF32(slab, 16)
	m.PairFriction = getF32(slab, 20)
	m.DragCoefficient = getF32(slab, 24)
	m.DragExponent = getF32(slab, 28)
}

func putF32(buf []byte, offset int, v float32) {
	binary.LittleEndian.PutUint32(buf[offset:], math.Float32bits(v))
}

func getF32(buf []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[offset:]))
}

// readback stage-copies size bytes at offset in src to a mappable
// buffer, maps it read-only, and returns an owned copy of its contents.
// Grounded on Gekko3D-gekko/voxelrt/rt/gpu/manager_hiz.go's
// ReadbackHiZ: CopyBufferToBuffer into a MapRead|CopyDst staging
// buffer, MapAsync, poll the device until the callback fires,
// GetMappedRange, copy out, Unmap.
func readback(dev *device.Device, src *wgpu.Buffer, offset, size uint64) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}

	staging, err := dev.CreateBuffer("Snapshot Readback", size, wgpu.BufferUsageMapRead|wgpu.BufferUsageCopyDst)
	if err != nil {
		return nil, fmt.Errorf("create readback buffer: %w", err)
	}
	defer staging.Release()

	encoder, err := dev.Raw().CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	encoder.CopyBufferToBuffer(src, offset, staging, 0, size)
	commandBuffer, err := encoder.Finish(nil)
	encoder.Release()
	if err != nil {
		return nil, fmt.Errorf("finish command buffer: %w", err)
	}
	dev.Queue().Submit(commandBuffer)
	commandBuffer.Release()

	var mapped bool
	var mapErr error
	staging.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
		if status == wgpu.BufferMapAsyncStatusSuccess {
			mapped = true
		} else {
			mapErr = fmt.Errorf("map readback buffer: status %d", status)
		}
	})
	for !mapped && mapErr == nil {
		dev.Raw().Poll(true, nil)
	}
	if mapErr != nil {
		return nil, mapErr
	}

	view := staging.GetMappedRange(0, uint(size))
	out := make([]byte, size)
	copy(out, view)
	staging.Unmap()
	return out, nil
}
