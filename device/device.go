// Package device wraps the wgpu device/queue handle and the buffer and
// bind-group creation conventions used throughout this repository,
// generalized from Carmen-Shannon-oxy-go/engine/renderer/wgpu_renderer_backend.go's
// CreateBuffer/InitBindGroup/WriteBuffers trio to the fixed set of
// packed simulation buffers this repository drives (particles, beams,
// mapping, metadata, force scratch, delete bitmap) rather than an
// arbitrary mesh/material/light resource graph.
package device

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/oxy-softbody/softbody/device/bindgroup"
)

// Device owns the wgpu device and queue handles used to create and
// mutate every GPU resource in this repository.
type Device struct {
	mu sync.Mutex

	wgpuDevice *wgpu.Device
	queue      *wgpu.Queue
}

// NewDevice wraps an already-initialized wgpu device and its default queue.
//
// Parameters:
//   - wgpuDevice: the wgpu device to wrap
//
// Returns:
//   - *Device: the wrapped device
func NewDevice(wgpuDevice *wgpu.Device) *Device {
	return &Device{
		wgpuDevice: wgpuDevice,
		queue:      wgpuDevice.GetQueue(),
	}
}

// Raw returns the underlying wgpu device, for operations this package
// does not wrap directly (surface/swapchain setup, shader module
// creation).
func (d *Device) Raw() *wgpu.Device {
	return d.wgpuDevice
}

// Queue returns the underlying wgpu queue.
func (d *Device) Queue() *wgpu.Queue {
	return d.queue
}

// CreateBuffer allocates a zero-initialized GPU buffer of the given size and usage.
//
// Parameters:
//   - label: a human-readable label for debugging
//   - size: the buffer size in bytes
//   - usage: the wgpu usage flags (Storage, Uniform, Index, CopySrc, CopyDst, MapRead...)
//
// Returns:
//   - *wgpu.Buffer: the created buffer
//   - error: any error from buffer creation
func (d *Device) CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.wgpuDevice.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             size,
		Usage:            usage,
		MappedAtCreation: false,
	})
}

// InitBindGroup creates the bind group layout (if not already present on
// provider) and bind group for the given descriptor, binding every
// buffer entry in provider at its declared index. Every buffer binding
// must already be set on provider via SetBuffer before calling this —
// unlike the teacher's InitBindGroup, this package never lazily
// allocates buffers itself, since every buffer in this repository has a
// fixed, up-front-known size (MaxParticles/MaxBeams derived) rather
// than a per-resource size discovered from staging data.
//
// Parameters:
//   - provider: the bind group provider to populate
//   - descriptor: the bind group layout descriptor (from shader.Shader.BindGroupLayoutDescriptor)
//
// Returns:
//   - error: if any declared buffer binding has not been set on provider
func (d *Device) InitBindGroup(provider bindgroup.Provider, descriptor wgpu.BindGroupLayoutDescriptor) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(descriptor.Entries) == 0 {
		return nil
	}

	layout := provider.BindGroupLayout()
	if layout == nil {
		var err error
		layout, err = d.wgpuDevice.CreateBindGroupLayout(&descriptor)
		if err != nil {
			return err
		}
		provider.SetBindGroupLayout(layout)
	}

	entries := make([]wgpu.BindGroupEntry, len(descriptor.Entries))
	for i, entry := range descriptor.Entries {
		binding := int(entry.Binding)
		buf := provider.Buffer(binding)
		if buf == nil {
			return fmt.Errorf("device: bind group %q binding %d has no buffer set", provider.Label(), binding)
		}
		entries[i] = wgpu.BindGroupEntry{
			Binding: entry.Binding,
			Buffer:  buf,
			Offset:  0,
			Size:    wgpu.WholeSize,
		}
	}

	bindGroup, err := d.wgpuDevice.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return err
	}
	provider.SetBindGroup(bindGroup)

	return nil
}

// WriteBuffers queues a batch of buffer writes, the host's only path
// for mutating live GPU buffer contents outside of compute/render
// passes (metadata input writes, snapshot load writes).
//
// Parameters:
//   - writes: the buffer writes to queue
func (d *Device) WriteBuffers(writes []bindgroup.BufferWrite) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, w := range writes {
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil {
			continue
		}
		d.queue.WriteBuffer(buf, w.Offset, w.Data)
	}
}
