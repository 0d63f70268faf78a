package device

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/oxy-softbody/softbody/device/bindgroup"
	"github.com/oxy-softbody/softbody/device/shader"
	"github.com/oxy-softbody/softbody/layout"
)

// deleteBitmapWordsFor returns the number of 32-bit words needed to hold
// one bit per entity across both the particle and beam id spaces.
func deleteBitmapWordsFor(maxParticles, maxBeams int) int {
	total := maxParticles + maxBeams
	return (total + 31) / 32
}

// Buffers holds every GPU buffer backing one simulation's particle/beam
// population. Particle storage is double-buffered (variants A and B) so
// the compute pass can alternate read/write roles between sub-ticks
// without a read-after-write hazard within a single dispatch; every
// other buffer is shared by both variants.
type Buffers struct {
	// Particle holds the two ping-pong particle storage buffers. A
	// sub-tick reads Particle[cur] and writes Particle[1-cur].
	Particle [2]*wgpu.Buffer

	Beam         *wgpu.Buffer
	Mapping      *wgpu.Buffer
	Metadata     *wgpu.Buffer
	ForceScratch *wgpu.Buffer
	DeleteBitmap *wgpu.Buffer

	MaxParticles int
	MaxBeams     int
}

// NewBuffers allocates every simulation buffer sized for maxParticles and
// maxBeams. Mapping carries combined Storage|Index usage since the
// compute pass addresses it as a flat array<u32> and the render pass
// binds the same buffer as a 16-bit index buffer for indirect draw —
// both views share one byte layout, so one allocation serves both
// roles instead of keeping a duplicate copy in sync.
//
// Parameters:
//   - dev: the device to allocate buffers on
//   - maxParticles: the particle id-space capacity
//   - maxBeams: the beam id-space capacity
//
// Returns:
//   - *Buffers: the allocated buffer set
//   - error: any error from buffer creation
func NewBuffers(dev *Device, maxParticles, maxBeams int) (*Buffers, error) {
	b := &Buffers{MaxParticles: maxParticles, MaxBeams: maxBeams}

	storageRW := wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst

	for i := range b.Particle {
		buf, err := dev.CreateBuffer(fmt.Sprintf("Particle Buffer %d", i), uint64(maxParticles)*layout.ParticleStride, storageRW)
		if err != nil {
			return nil, fmt.Errorf("device: create particle buffer %d: %w", i, err)
		}
		b.Particle[i] = buf
	}

	beamBuf, err := dev.CreateBuffer("Beam Buffer", uint64(maxBeams)*layout.BeamStride, storageRW)
	if err != nil {
		return nil, fmt.Errorf("device: create beam buffer: %w", err)
	}
	b.Beam = beamBuf

	mappingBuf, err := dev.CreateBuffer(
		"Mapping Buffer",
		uint64(maxParticles+maxBeams)*layout.MappingStride,
		wgpu.BufferUsageStorage|wgpu.BufferUsageIndex|wgpu.BufferUsageCopySrc|wgpu.BufferUsageCopyDst,
	)
	if err != nil {
		return nil, fmt.Errorf("device: create mapping buffer: %w", err)
	}
	b.Mapping = mappingBuf

	metadataBuf, err := dev.CreateBuffer(
		"Metadata Buffer",
		layout.MetadataStride,
		wgpu.BufferUsageUniform|wgpu.BufferUsageStorage|wgpu.BufferUsageIndirect|wgpu.BufferUsageCopySrc|wgpu.BufferUsageCopyDst,
	)
	if err != nil {
		return nil, fmt.Errorf("device: create metadata buffer: %w", err)
	}
	b.Metadata = metadataBuf

	// two atomic<i32> fixed-point force accumulators (x, y) per particle.
	forceBuf, err := dev.CreateBuffer("Force Scratch Buffer", uint64(maxParticles)*2*4, storageRW)
	if err != nil {
		return nil, fmt.Errorf("device: create force scratch buffer: %w", err)
	}
	b.ForceScratch = forceBuf

	deleteBuf, err := dev.CreateBuffer("Delete Bitmap Buffer", uint64(deleteBitmapWordsFor(maxParticles, maxBeams))*4, storageRW)
	if err != nil {
		return nil, fmt.Errorf("device: create delete bitmap buffer: %w", err)
	}
	b.DeleteBitmap = deleteBuf

	return b, nil
}

// Release releases every GPU buffer held by b.
func (b *Buffers) Release() {
	for _, buf := range b.Particle {
		if buf != nil {
			buf.Release()
		}
	}
	for _, buf := range []*wgpu.Buffer{b.Beam, b.Mapping, b.Metadata, b.ForceScratch, b.DeleteBitmap} {
		if buf != nil {
			buf.Release()
		}
	}
}

// ComputeProviders holds the two bindgroup.Provider instances
// used to alternate particle read/write roles across sub-ticks. Variant
// 0 binds Particle[0] as the read source and Particle[1] as the write
// destination; variant 1 reverses the roles. Every other binding
// (beam/mapping/metadata/force_scratch/delete_bitmap) is identical
// across both variants, since only the particle buffers ping-pong.
type ComputeProviders struct {
	Variant [2]bindgroup.Provider
}

// NewComputeProviders wires buffers into a pair of bind group providers
// for the given compute shader by scanning its Declarations() for
// @oxy:provider annotations and matching each declared provider identity
// to the corresponding buffer in buffers, mirroring the declaration-driven
// binding-discovery pattern used to resolve bone/animation bindings in
// Carmen-Shannon-oxy-go/engine/scene/scene.go rather than hardcoding
// binding indices in Go.
//
// Parameters:
//   - computeShader: the compute shader whose @oxy:provider declarations name the bindings to wire
//   - buffers: the buffer set to bind
//
// Returns:
//   - *ComputeProviders: the two alternating-variant providers
//   - error: if a declared provider identity has no corresponding buffer, or a required identity is missing
func NewComputeProviders(computeShader shader.Shader, buffers *Buffers) (*ComputeProviders, error) {
	particleReadBinding, particleWriteBinding := -1, -1
	beamBinding, mappingBinding, metadataBinding := -1, -1, -1
	forceScratchBinding, deleteBitmapBinding := -1, -1

	for _, decl := range computeShader.Declarations() {
		if decl.Type != shader.AnnotationTypeProvider {
			continue
		}
		binding := *decl.Binding
		switch decl.Args[0] {
		case shader.AnnotationArgParticleRead:
			particleReadBinding = binding
		case shader.AnnotationArgParticleWrite:
			particleWriteBinding = binding
		case shader.AnnotationArgBeamBuffer:
			beamBinding = binding
		case shader.AnnotationArgMapping:
			mappingBinding = binding
		case shader.AnnotationArgForceScratch:
			forceScratchBinding = binding
		case shader.AnnotationArgDeleteBitmap:
			deleteBitmapBinding = binding
		}
	}

	// metadata is declared via @oxy:group rather than @oxy:provider, since it
	// has a registered struct type; resolve its binding by variable name instead.
	if binding, ok := computeShader.BindGroupFromVarName(0, "globals"); ok {
		metadataBinding = binding
	}

	missing := map[string]int{
		"particle_read":  particleReadBinding,
		"particle_write": particleWriteBinding,
		"beam":           beamBinding,
		"mapping":        mappingBinding,
		"metadata":       metadataBinding,
		"force_scratch":  forceScratchBinding,
		"delete_bitmap":  deleteBitmapBinding,
	}
	for identity, binding := range missing {
		if binding < 0 {
			return nil, fmt.Errorf("device: compute shader %q declares no provider for %q", computeShader.Key(), identity)
		}
	}

	shared := func(p bindgroup.Provider) {
		p.SetBuffer(beamBinding, buffers.Beam)
		p.SetBuffer(mappingBinding, buffers.Mapping)
		p.SetBuffer(metadataBinding, buffers.Metadata)
		p.SetBuffer(forceScratchBinding, buffers.ForceScratch)
		p.SetBuffer(deleteBitmapBinding, buffers.DeleteBitmap)
	}

	variantA := bindgroup.NewProvider("Compute Variant A")
	variantA.SetBuffer(particleReadBinding, buffers.Particle[0])
	variantA.SetBuffer(particleWriteBinding, buffers.Particle[1])
	shared(variantA)

	variantB := bindgroup.NewProvider("Compute Variant B")
	variantB.SetBuffer(particleReadBinding, buffers.Particle[1])
	variantB.SetBuffer(particleWriteBinding, buffers.Particle[0])
	shared(variantB)

	return &ComputeProviders{Variant: [2]bindgroup.Provider{variantA, variantB}}, nil
}
