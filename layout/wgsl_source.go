package layout

import _ "embed"

// GPUParticleSource is the canonical WGSL definition of the Particle
// struct. Matches ParticleStride exactly (24 bytes).
//
//go:embed assets/particle.wgsl
var GPUParticleSource string

// GPUBeamSource is the canonical WGSL definition of the Beam struct.
// Matches BeamStride exactly (40 bytes).
//
//go:embed assets/beam.wgsl
var GPUBeamSource string

// GPUIndirectDrawSource is the canonical WGSL definition of the
// IndirectDraw struct. Matches IndirectDrawStride exactly (20 bytes)
// and wgpu's DrawIndexedIndirect argument layout.
//
//go:embed assets/indirect_draw.wgsl
var GPUIndirectDrawSource string

// GPUMetadataSource is the canonical WGSL definition of the Metadata
// struct. Matches MetadataStride exactly (112 bytes). References
// IndirectDraw, so any shader including this must also include
// GPUIndirectDrawSource first.
//
//go:embed assets/metadata.wgsl
var GPUMetadataSource string
