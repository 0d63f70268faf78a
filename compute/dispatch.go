package compute

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/oxy-softbody/softbody/device"
	"github.com/oxy-softbody/softbody/device/pipeline"
	"github.com/oxy-softbody/softbody/device/shader"
)

// Dispatcher owns the sub-tick and delete compute pipelines and drives
// one frame's worth of sub-tick dispatches, alternating the particle
// read/write bind group variant every sub-tick so an even sub-tick
// count always leaves the authoritative population in
// Buffers.Particle[0] (spec §4.3: "the structural guarantee").
//
// Each sub-tick is exactly one dispatch of update.wgsl's single
// sub_tick entry point, sized to max(MaxParticles, MaxBeams): every
// invocation derives both a particle lane (its own global index) and
// an inverted beam lane and does whichever piece of work its lane
// indices fall within range for, with no pass boundary — and therefore
// no ordering guarantee — between beam work and particle work within
// the sub-tick (spec §4.3 "Dispatch geometry", §5, §9).
type Dispatcher struct {
	dev *device.Device

	updateShader shader.Shader

	subTickPipeline *wgpu.ComputePipeline
	deletePipeline  pipeline.Pipeline

	providers       *device.ComputeProviders
	deleteProviders *device.ComputeProviders
}

// NewDispatcher loads the update and delete compute shaders from disk,
// registers the sub_tick and delete compute pipelines on dev, and
// resolves the alternating bind group providers against buffers.
//
// Parameters:
//   - dev: the device to register pipelines and buffers on
//   - buffers: the simulation buffer set to bind
//
// Returns:
//   - *Dispatcher: the ready dispatcher
//   - error: any error building pipelines or resolving bindings
func NewDispatcher(dev *device.Device, buffers *device.Buffers) (*Dispatcher, error) {
	updateShader := shader.NewShader("update", shader.ShaderTypeCompute, "compute/assets/update.wgsl")
	deleteShader := shader.NewShader("delete", shader.ShaderTypeCompute, "compute/assets/delete.wgsl")

	providers, err := device.NewComputeProviders(updateShader, buffers)
	if err != nil {
		return nil, fmt.Errorf("compute: resolve bind groups: %w", err)
	}
	// delete.wgsl binds the metadata buffer read_write (it writes back the
	// live instance counts) where update.wgsl binds it read-only uniform,
	// so the two shaders need distinct bind group layouts and therefore
	// distinct bind group instances over the same underlying buffers.
	deleteProviders, err := device.NewComputeProviders(deleteShader, buffers)
	if err != nil {
		return nil, fmt.Errorf("compute: resolve delete bind groups: %w", err)
	}

	module, layout, err := buildComputeLayout(dev, updateShader)
	if err != nil {
		return nil, fmt.Errorf("compute: build update pipeline layout: %w", err)
	}

	subTickPipeline, err := dev.Raw().CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  "sub_tick Compute Pipeline",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: "sub_tick",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("compute: create sub_tick pipeline: %w", err)
	}

	deletePipeline := pipeline.NewPipeline("delete", pipeline.WithComputeShader(deleteShader))
	if err := registerComputePipeline(dev, deletePipeline); err != nil {
		return nil, fmt.Errorf("compute: register delete pipeline: %w", err)
	}

	updateLayoutDescriptor := updateShader.BindGroupLayoutDescriptor(0)
	for _, p := range providers.Variant {
		if err := dev.InitBindGroup(p, updateLayoutDescriptor); err != nil {
			return nil, fmt.Errorf("compute: init bind group: %w", err)
		}
	}
	if err := dev.InitBindGroup(deleteProviders.Variant[0], deletePipeline.Shader(shader.ShaderTypeCompute).BindGroupLayoutDescriptor(0)); err != nil {
		return nil, fmt.Errorf("compute: init delete bind group: %w", err)
	}

	return &Dispatcher{
		dev:             dev,
		updateShader:    updateShader,
		subTickPipeline: subTickPipeline,
		deletePipeline:  deletePipeline,
		providers:       providers,
		deleteProviders: deleteProviders,
	}, nil
}

// buildComputeLayout creates the shader module and pipeline layout shared
// by every compute entry point declared in s, mirroring
// wgpu_renderer_backend.go's RegisterComputePipeline bind-group-layout
// construction.
func buildComputeLayout(dev *device.Device, s shader.Shader) (*wgpu.ShaderModule, *wgpu.PipelineLayout, error) {
	module, err := dev.Raw().CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: s.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.Source(),
		},
	})
	if err != nil {
		return nil, nil, err
	}

	descriptors := s.BindGroupLayoutDescriptors()
	maxGroup := -1
	for g := range descriptors {
		if g > maxGroup {
			maxGroup = g
		}
	}
	layouts := make([]*wgpu.BindGroupLayout, maxGroup+1)
	for g, desc := range descriptors {
		bgl, err := dev.Raw().CreateBindGroupLayout(&desc)
		if err != nil {
			return nil, nil, fmt.Errorf("bind group layout for group %d: %w", g, err)
		}
		layouts[g] = bgl
	}

	pipelineLayout, err := dev.Raw().CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            s.Key(),
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, nil, err
	}

	return module, pipelineLayout, nil
}

// registerComputePipeline creates the shader module, bind group layouts,
// pipeline layout, and compute pipeline for p, mirroring
// wgpu_renderer_backend.go's RegisterComputePipeline.
func registerComputePipeline(dev *device.Device, p pipeline.Pipeline) error {
	s := p.Shader(shader.ShaderTypeCompute)
	if s == nil {
		return errors.New("compute: pipeline has no compute shader set")
	}

	module, pipelineLayout, err := buildComputeLayout(dev, s)
	if err != nil {
		return err
	}

	created, err := dev.Raw().CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  p.PipelineKey() + " Compute Pipeline",
		Layout: pipelineLayout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: s.EntryPoint(),
		},
	})
	if err != nil {
		return err
	}

	p.SetComputePipeline(created)
	return nil
}

// workgroupCount returns the 1-D dispatch size covering n elements at the
// given workgroup size.
func workgroupCount(size [3]uint32, n int) [3]uint32 {
	groups := (uint32(n) + size[0] - 1) / size[0]
	if groups == 0 {
		groups = 1
	}
	return [3]uint32{groups, 1, 1}
}

// RunFrame records subticks sub-tick passes — each its own compute pass
// holding a single sub_tick dispatch sized to max(maxParticles,
// maxBeams), every invocation doing both its particle-lane and inverted
// beam-lane work with no pass boundary between them — followed by one
// delete-compaction pass dispatching a single workgroup, all into the
// caller's command encoder (spec §4.3 "Dispatch geometry"). variant
// alternates 0/1 each sub-tick;
// subticks must be even so the frame always ends with the read role on
// Particle[0].
//
// Parameters:
//   - encoder: the command encoder to record compute passes into
//   - subticks: the number of sub-tick update dispatches this frame
//   - maxParticles: the particle population size, for workgroup sizing
//   - maxBeams: the beam population size, for workgroup sizing
//
// Returns:
//   - error: if subticks is odd
func (d *Dispatcher) RunFrame(encoder *wgpu.CommandEncoder, subticks, maxParticles, maxBeams int) error {
	if subticks%2 != 0 {
		return fmt.Errorf("compute: subticks must be even, got %d", subticks)
	}

	size := d.updateShader.WorkgroupSize()
	n := maxParticles
	if maxBeams > n {
		n = maxBeams
	}
	subTickGroups := workgroupCount(size, n)

	for tick := 0; tick < subticks; tick++ {
		variant := tick % 2
		bindGroup := d.providers.Variant[variant].BindGroup()

		subTickPass := encoder.BeginComputePass(nil)
		subTickPass.SetPipeline(d.subTickPipeline)
		subTickPass.SetBindGroup(0, bindGroup, nil)
		subTickPass.DispatchWorkgroups(subTickGroups[0], subTickGroups[1], subTickGroups[2])
		subTickPass.End()
	}

	deleteCompute := d.deletePipeline.Pipeline().(*wgpu.ComputePipeline)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(deleteCompute)
	pass.SetBindGroup(0, d.deleteProviders.Variant[0].BindGroup(), nil)
	pass.DispatchWorkgroups(1, 1, 1)
	pass.End()

	return nil
}

// Providers exposes the alternating bind group providers, for tests and
// for the orchestrator's metadata writes that must target whichever
// provider is about to be bound.
func (d *Dispatcher) Providers() *device.ComputeProviders {
	return d.providers
}
