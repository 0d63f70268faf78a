package bindgroup

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// provider is the unexported implementation of Provider. Every bind group
// in this repository describes a fixed set of uniform/storage buffers
// (particles, beams, mapping, metadata, force scratch, delete bitmap) —
// there is no texture, sampler, or vertex-pulling surface anywhere in
// layout/, compute/, or render/'s WGSL, so provider carries only what
// InitBindGroup actually populates: a bind group, its layout, and the
// buffers bound into it.
type provider struct {
	// label is a debug label added for convenience.
	label string

	// The following fields are GPU allocated resources and must be released when no longer needed. They are populated by Device.InitBindGroup, not by user-creation.

	// bindGroup is the GPU bind group created for this provider, or nil if not initialized with Device.InitBindGroup.
	bindGroup *wgpu.BindGroup
	// bindGroupLayout is the GPU bind group layout created for this provider, or nil if not initialized with Device.InitBindGroup.
	// TODO: Investigate whether this even needs to remain persisted anywhere, once the layout is created via the Shader that holds the BindGroupLayoutDescriptor what do we need this for?
	bindGroupLayout *wgpu.BindGroupLayout
	// buffers holds the GPU buffers created for this provider, keyed by binding index.
	buffers map[int]*wgpu.Buffer
}

// Provider defines the interface for components that require GPU bind group resources.
// Components (the alternating particle-buffer bind groups, the delete pass's bind group,
// the particle/beam render bind groups) hold a Provider to describe their GPU binding
// requirements. Device.InitBindGroup then uses this provider to create GPU resources.
//
// Usage pattern:
//  1. Component creates a Provider with buffers and a unique key
//  2. Component stores the provider via SetBuffer()/SetBuffers()
//  3. Caller calls Device.InitBindGroup(provider) to create GPU resources
//  4. Component accesses BindGroup() for compute/render pass binding
type Provider interface {
	// Release releases any GPU resources held by this provider.
	// It will clean up all buffers and bind groups, and remove them from the map or slice they belonged to.
	Release()

	// Label returns the debug label for this provider.
	// Used for debugging and profiling purposes.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the created bind group for shader binding.
	// Returns nil if GPU resources have not been initialized.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// BindGroupLayout returns the created bind group layout for this provider.
	// Returns nil if GPU resources have not been initialized.
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the bind group layout or nil
	BindGroupLayout() *wgpu.BindGroupLayout

	// Buffer returns the buffer set at the given binding.
	// Returns nil if no buffer has been set there.
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// Buffers returns a map of all buffers associated with this provider, keyed by binding index.
	// This allows providers to manage multiple buffers if needed.
	//
	// Returns:
	//   - map[int]*wgpu.Buffer: a map of buffers keyed by binding index
	Buffers() map[int]*wgpu.Buffer

	// SetBindGroup sets the bind group after GPU initialization.
	// Called by Device.InitBindGroup().
	//
	// Parameters:
	//   - bg: the created bind group
	SetBindGroup(bg *wgpu.BindGroup)

	// SetBindGroupLayout sets the bind group layout after GPU initialization.
	// Called by Device.InitBindGroup().
	//
	// Parameters:
	//   - bgl: the created bind group layout
	SetBindGroupLayout(bgl *wgpu.BindGroupLayout)

	// SetBuffer sets the buffer for a binding. Must be called before
	// Device.InitBindGroup(), which binds the buffers already set.
	//
	// Parameters:
	//   - buf: the buffer to bind
	SetBuffer(binding int, buf *wgpu.Buffer)

	// SetBuffers sets multiple buffers at once, before Device.InitBindGroup().
	// This is a convenience method for providers that manage multiple buffers.
	//
	// Parameters:
	//   - buffers: a map of buffers keyed by binding index
	SetBuffers(buffers map[int]*wgpu.Buffer)
}

// Compile-time check that provider implements Provider
var _ Provider = &provider{}

// NewProvider creates a new Provider with the provided options.
//
// Parameters:
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - Provider: a new instance of Provider configured with the provided options
func NewProvider(label string, options ...ProviderOption) Provider {
	p := &provider{
		label:   label,
		buffers: make(map[int]*wgpu.Buffer),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *provider) Label() string {
	return p.label
}

func (p *provider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *provider) BindGroupLayout() *wgpu.BindGroupLayout {
	return p.bindGroupLayout
}

func (p *provider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *provider) Buffers() map[int]*wgpu.Buffer {
	return p.buffers
}

func (p *provider) SetBindGroup(bg *wgpu.BindGroup) {
	p.bindGroup = bg
}

func (p *provider) SetBindGroupLayout(bgl *wgpu.BindGroupLayout) {
	p.bindGroupLayout = bgl
}

func (p *provider) SetBuffer(binding int, buf *wgpu.Buffer) {
	if p.buffers == nil {
		p.buffers = make(map[int]*wgpu.Buffer)
	}
	p.buffers[binding] = buf
}

func (p *provider) SetBuffers(buffers map[int]*wgpu.Buffer) {
	p.buffers = buffers
}

func (p *provider) Release() {
	for i, buf := range p.buffers {
		if buf != nil {
			buf.Release()
			delete(p.buffers, i)
		}
	}

	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
		p.bindGroupLayout = nil
	}
}
