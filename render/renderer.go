// Package render owns the two indirect-draw render pipelines (particles,
// beams) and the per-frame swapchain/render-pass sequencing, generalized
// from Carmen-Shannon-oxy-go/engine/renderer/{renderer.go,renderer_backend.go,
// wgpu_renderer_backend.go} trimmed down to an unlit 2D scene: no MSAA, no
// depth buffer, no shadow pass, since spec.md's render core is flat-shaded
// line segments and billboards with no occlusion between them.
package render

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/oxy-softbody/softbody/device"
	"github.com/oxy-softbody/softbody/device/bindgroup"
	"github.com/oxy-softbody/softbody/device/shader"
	"github.com/oxy-softbody/softbody/layout"
)

// ParticleVertexCount and BeamVertexCount are the fixed per-instance vertex
// counts baked into every IndirectDraw descriptor at construction time (spec
// §4.4): three corners for the particle billboard triangle, two endpoints
// for the beam line segment. layout.Metadata carries no field for these —
// they never change after construction — so whatever builds the initial
// Metadata record (orchestrator init) must copy these into
// IndirectDraw.VertexCount; InstanceCount is left at zero for the delete
// pass to populate with the live entity count on its first dispatch.
const (
	ParticleVertexCount = 3
	BeamVertexCount     = 2
)

// InitialDraws returns the particle and beam IndirectDraw descriptors with
// VertexCount set and every other field zeroed, for the orchestrator's
// Metadata construction to embed verbatim.
func InitialDraws() (particle, beam layout.IndirectDraw) {
	return layout.IndirectDraw{VertexCount: ParticleVertexCount},
		layout.IndirectDraw{VertexCount: BeamVertexCount}
}

// clearColor is the render pass's background: black with partial
// alpha, matching spec.md §4.4's "dark, slightly translucent backdrop"
// framing for the particle/beam scene.
var clearColor = wgpu.Color{R: 0, G: 0, B: 0, A: 0.4}

// Renderer owns the particle and beam render pipelines and the swapchain
// surface they draw into. Unlike the teacher's Renderer, there is no
// per-object bind group provider list to walk each frame — exactly two
// pipelines draw, each from one fixed bind group resolved once at
// construction time against the simulation's Buffers.
type Renderer struct {
	dev     *device.Device
	surface *wgpu.Surface
	adapter *wgpu.Adapter

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode

	particlePipeline *wgpu.RenderPipeline
	beamPipeline     *wgpu.RenderPipeline

	particleProvider bindgroup.Provider
	beamProvider     bindgroup.Provider

	buffers *device.Buffers

	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

// NewRenderer configures surface, builds both render pipelines from
// render/assets/{particle,beam}.wgsl, and resolves their bind groups
// against buffers.
//
// Parameters:
//   - dev: the device to create pipelines and bind groups on
//   - surface: the swapchain surface to configure and present to
//   - adapter: the adapter used to query surface capabilities
//   - buffers: the simulation buffer set to bind
//   - width, height: the initial surface size in pixels
//   - presentMode: VSync or Uncapped (config.EngineOptions)
//
// Returns:
//   - *Renderer: the ready renderer
//   - error: any error building pipelines or resolving bindings
func NewRenderer(dev *device.Device, surface *wgpu.Surface, adapter *wgpu.Adapter, buffers *device.Buffers, width, height int, presentMode wgpu.PresentMode) (*Renderer, error) {
	r := &Renderer{
		dev:         dev,
		surface:     surface,
		adapter:     adapter,
		presentMode: presentMode,
		buffers:     buffers,
	}

	r.configureSurface(width, height)

	particleVS := shader.NewShader("particle_vs", shader.ShaderTypeVertex, "render/assets/particle.wgsl")
	particleFS := shader.NewShader("particle_fs", shader.ShaderTypeFragment, "render/assets/particle.wgsl")
	beamVS := shader.NewShader("beam_vs", shader.ShaderTypeVertex, "render/assets/beam.wgsl")
	beamFS := shader.NewShader("beam_fs", shader.ShaderTypeFragment, "render/assets/beam.wgsl")

	particleProvider, err := resolveRenderBindings("Particle Bind Group", particleVS, buffers, false)
	if err != nil {
		return nil, fmt.Errorf("render: resolve particle bind group: %w", err)
	}
	beamProvider, err := resolveRenderBindings("Beam Bind Group", beamVS, buffers, true)
	if err != nil {
		return nil, fmt.Errorf("render: resolve beam bind group: %w", err)
	}
	r.particleProvider = particleProvider
	r.beamProvider = beamProvider

	particlePipeline, particleLayout, err := r.buildRenderPipeline(particleVS, particleFS, wgpu.PrimitiveTopologyTriangleList)
	if err != nil {
		return nil, fmt.Errorf("render: build particle pipeline: %w", err)
	}
	r.particlePipeline = particlePipeline
	if err := dev.InitBindGroup(particleProvider, particleLayout); err != nil {
		return nil, fmt.Errorf("render: init particle bind group: %w", err)
	}

	beamPipeline, beamLayout, err := r.buildRenderPipeline(beamVS, beamFS, wgpu.PrimitiveTopologyLineList)
	if err != nil {
		return nil, fmt.Errorf("render: build beam pipeline: %w", err)
	}
	r.beamPipeline = beamPipeline
	if err := dev.InitBindGroup(beamProvider, beamLayout); err != nil {
		return nil, fmt.Errorf("render: init beam bind group: %w", err)
	}

	return r, nil
}

// resolveRenderBindings wires buffers into a single bind group provider for
// a render shader by scanning its declarations for the "mapping" provider
// identity and resolving the remaining bindings ("particles", "beams",
// "globals") by variable name, mirroring device.NewComputeProviders'
// declaration-driven approach but for the fixed single-variant render
// bindings (no particle read/write alternation applies here — the render
// pass always reads the structurally-guaranteed-authoritative
// Buffers.Particle[0], per compute.Dispatcher's sub-tick-parity contract).
func resolveRenderBindings(label string, s shader.Shader, buffers *device.Buffers, includeBeam bool) (bindgroup.Provider, error) {
	mappingBinding := -1
	for _, decl := range s.Declarations() {
		if decl.Type == shader.AnnotationTypeProvider && len(decl.Args) > 0 && decl.Args[0] == shader.AnnotationArgMapping {
			mappingBinding = *decl.Binding
		}
	}
	if mappingBinding < 0 {
		return nil, fmt.Errorf("render: shader %q declares no mapping provider", s.Key())
	}

	particlesBinding, hasParticles := s.BindGroupFromVarName(0, "particles")
	if !hasParticles {
		return nil, fmt.Errorf("render: shader %q declares no \"particles\" binding", s.Key())
	}
	globalsBinding, hasGlobals := s.BindGroupFromVarName(0, "globals")
	if !hasGlobals {
		return nil, fmt.Errorf("render: shader %q declares no \"globals\" binding", s.Key())
	}

	p := bindgroup.NewProvider(label)
	p.SetBuffer(particlesBinding, buffers.Particle[0])
	p.SetBuffer(mappingBinding, buffers.Mapping)
	p.SetBuffer(globalsBinding, buffers.Metadata)

	if includeBeam {
		beamsBinding, hasBeams := s.BindGroupFromVarName(0, "beams")
		if !hasBeams {
			return nil, fmt.Errorf("render: shader %q declares no \"beams\" binding", s.Key())
		}
		p.SetBuffer(beamsBinding, buffers.Beam)
	}

	return p, nil
}

// buildRenderPipeline creates shader modules, merges the vertex and
// fragment bind group layouts, and creates one wgpu.RenderPipeline with
// the given primitive topology, premultiplied-alpha blending and no
// depth/stencil attachment, mirroring wgpu_renderer_backend.go's
// RegisterRenderPipeline trimmed of MSAA and depth testing.
func (r *Renderer) buildRenderPipeline(vertexShader, fragmentShader shader.Shader, topology wgpu.PrimitiveTopology) (*wgpu.RenderPipeline, wgpu.BindGroupLayoutDescriptor, error) {
	vs, err := r.dev.Raw().CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: vertexShader.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: vertexShader.Source(),
		},
	})
	if err != nil {
		return nil, wgpu.BindGroupLayoutDescriptor{}, err
	}
	fs, err := r.dev.Raw().CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: fragmentShader.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: fragmentShader.Source(),
		},
	})
	if err != nil {
		return nil, wgpu.BindGroupLayoutDescriptor{}, err
	}

	merged := mergeBindGroupLayouts(vertexShader.BindGroupLayoutDescriptors(), fragmentShader.BindGroupLayoutDescriptors())
	group0 := merged[0]

	bgl, err := r.dev.Raw().CreateBindGroupLayout(&group0)
	if err != nil {
		return nil, wgpu.BindGroupLayoutDescriptor{}, fmt.Errorf("bind group layout: %w", err)
	}

	pipelineLayout, err := r.dev.Raw().CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            vertexShader.Key(),
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		return nil, wgpu.BindGroupLayoutDescriptor{}, err
	}

	created, err := r.dev.Raw().CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  vertexShader.Key() + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets: []wgpu.ColorTargetState{
				{
					Format: r.surfaceFormat,
					Blend: &wgpu.BlendState{
						Color: wgpu.BlendComponent{
							SrcFactor: wgpu.BlendFactorOne,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
							Operation: wgpu.BlendOperationAdd,
						},
						Alpha: wgpu.BlendComponent{
							SrcFactor: wgpu.BlendFactorOne,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
							Operation: wgpu.BlendOperationAdd,
						},
					},
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  topology,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, wgpu.BindGroupLayoutDescriptor{}, err
	}

	return created, group0, nil
}

func (r *Renderer) configureSurface(width, height int) {
	capabilities := r.surface.GetCapabilities(r.adapter)
	r.surfaceFormat = capabilities.Formats[0]

	r.surface.Configure(r.adapter, r.dev.Raw(), &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      r.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: r.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
}

// Resize reconfigures the swapchain surface for a new window size.
func (r *Renderer) Resize(width, height int) {
	r.configureSurface(width, height)
}

// BeginFrame acquires the next swapchain texture and begins the single
// color-only render pass both draw calls are recorded into, within the
// caller's own command encoder. Unlike the teacher's Renderer (which owns
// its command encoder end to end), this Renderer shares the orchestrator's
// encoder: spec.md §4.5 step 6/7 records the compute sub-ticks, the delete
// pass, and both indirect draws into one encoder and submits it exactly
// once per frame, so the render pass here must record into whatever
// encoder compute.Dispatcher.RunFrame already wrote into rather than
// opening a second submission.
//
// Parameters:
//   - encoder: the shared per-frame command encoder, already holding the
//     compute dispatches recorded earlier this frame
//
// Returns:
//   - error: if the swapchain texture cannot be acquired
func (r *Renderer) BeginFrame(encoder *wgpu.CommandEncoder) error {
	if r.frameSurface != nil {
		return errors.New("render: previous frame surface not yet presented")
	}

	surfaceTexture, err := r.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: clearColor,
			},
		},
	})

	r.framePass = pass
	r.frameSurface = surfaceTexture
	r.frameView = view
	return nil
}

// DrawParticles issues the indirect-draw call for the particle billboard
// pipeline. The mapping buffer is bound as the literal 16-bit index buffer
// (§4.4: "index buffer is the mapping table") even though the vertex
// shader dereferences physical slots through its own storage binding
// rather than the hardware index — see DESIGN.md's mapping dual-binding
// note.
func (r *Renderer) DrawParticles() {
	r.framePass.SetPipeline(r.particlePipeline)
	r.framePass.SetBindGroup(0, r.particleProvider.BindGroup(), nil)
	r.framePass.SetIndexBuffer(r.buffers.Mapping, wgpu.IndexFormatUint16, 0, wgpu.WholeSize)
	r.framePass.DrawIndexedIndirect(r.buffers.Metadata, 0)
}

// DrawBeams issues the indirect-draw call for the beam line-segment
// pipeline, reading its IndirectDraw arguments from the second 20-byte
// slot of the metadata buffer.
func (r *Renderer) DrawBeams() {
	r.framePass.SetPipeline(r.beamPipeline)
	r.framePass.SetBindGroup(0, r.beamProvider.BindGroup(), nil)
	r.framePass.SetIndexBuffer(r.buffers.Mapping, wgpu.IndexFormatUint16, 0, wgpu.WholeSize)
	r.framePass.DrawIndexedIndirect(r.buffers.Metadata, layout.IndirectDrawStride)
}

// EndFrame ends the render pass. The caller (orchestrator) finishes and
// submits the shared encoder itself once both the compute and render work
// for the frame are recorded.
func (r *Renderer) EndFrame() {
	r.framePass.End()
	r.framePass = nil
}

// Present presents the acquired surface texture and releases per-frame
// references. Must be called once per frame after the orchestrator's
// submission for this frame has been queued.
func (r *Renderer) Present() {
	if r.frameSurface == nil {
		return
	}
	r.surface.Present()

	if r.frameView != nil {
		r.frameView.Release()
		r.frameView = nil
	}
	r.frameSurface.Release()
	r.frameSurface = nil
}

// mergeBindGroupLayouts merges the group-0 bind group layout descriptors
// from a vertex and fragment shader sharing the same source file, ORing
// together the Visibility flags of entries declared in both stages.
// Adapted from wgpu_renderer_backend.go's mergeBindGroupLayouts, narrowed
// to this repository's single-bind-group-per-render-pipeline shape.
func mergeBindGroupLayouts(vertexLayouts, fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor)

	groupIndices := make(map[int]bool)
	for g := range vertexLayouts {
		groupIndices[g] = true
	}
	for g := range fragmentLayouts {
		groupIndices[g] = true
	}

	for g := range groupIndices {
		vDesc, hasV := vertexLayouts[g]
		fDesc, hasF := fragmentLayouts[g]

		switch {
		case hasV && !hasF:
			merged[g] = vDesc
		case hasF && !hasV:
			merged[g] = fDesc
		default:
			entryMap := make(map[uint32]wgpu.BindGroupLayoutEntry)
			for _, e := range vDesc.Entries {
				entryMap[e.Binding] = e
			}
			for _, e := range fDesc.Entries {
				if existing, ok := entryMap[e.Binding]; ok {
					existing.Visibility |= e.Visibility
					entryMap[e.Binding] = existing
				} else {
					entryMap[e.Binding] = e
				}
			}
			entries := make([]wgpu.BindGroupLayoutEntry, 0, len(entryMap))
			for _, e := range entryMap {
				entries = append(entries, e)
			}
			sort.Slice(entries, func(i, j int) bool {
				return entries[i].Binding < entries[j].Binding
			})
			merged[g] = wgpu.BindGroupLayoutDescriptor{
				Label:   vDesc.Label,
				Entries: entries,
			}
		}
	}

	return merged
}
