package pipeline

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/oxy-softbody/softbody/device/shader"
)

// pipeline is the implementation of the Pipeline interface.
//
// The teacher's pipeline carried both render and compute variants, since its
// 3D material system dispatches draw calls through the same abstraction it
// uses for compute work. This engine's two render pipelines
// (render/renderer.go's buildRenderPipeline) are built directly against
// wgpu and never flow through here; the only Pipeline this repo
// constructs (compute/dispatch.go's delete pipeline) is a compute
// pipeline. Pipeline is trimmed to that
// single shape rather than carrying the render half unexercised.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups
	pipelineKey string

	// computeShader is the shader this pipeline dispatches. It is required to be set before initializing a pipeline.
	computeShader shader.Shader

	// computePipeline is the underlying GPU compute pipeline, set once creation succeeds.
	computePipeline *wgpu.ComputePipeline
}

// Pipeline defines the interface for a GPU compute pipeline, wrapping the compute shader
// it dispatches and the underlying wgpu.ComputePipeline handle.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader retrieves the compute shader associated with this pipeline.
	//
	// Returns:
	//   - shader.Shader: the compute shader, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// Pipeline returns the underlying *wgpu.ComputePipeline, or nil if not yet created.
	//
	// Returns:
	//   - any: the underlying pipeline object.
	Pipeline() any

	// SetComputePipeline sets the compute pipeline
	//
	// Parameters:
	//   - p: the WebGPU compute pipeline to set
	SetComputePipeline(p *wgpu.ComputePipeline)
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new Pipeline interface.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey: pipelineKey,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Pipeline() any {
	return p.computePipeline
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	if shaderType != shader.ShaderTypeCompute {
		return nil
	}
	return p.computeShader
}

func (p *pipeline) SetComputePipeline(cp *wgpu.ComputePipeline) {
	p.computePipeline = cp
}
