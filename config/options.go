// Package config holds the engine's construction-time configuration
// surface: validated engine options, physics constants applied to the
// live metadata buffer, and the YAML scene-file loader. The functional
// options pattern here follows
// Carmen-Shannon-oxy-go/engine/engine_builder.go's With* builder idiom,
// generalized from window/tick-rate/scene options to this repository's
// particle-radius/subtick/capacity options.
package config

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/oxy-softbody/softbody/errs"
)

// PresentMode controls how rendered frames are presented to the display
// surface, mirroring
// Carmen-Shannon-oxy-go/engine/renderer/renderer_backend.go's PresentMode
// without the teacher's now-irrelevant MSAASampleCount neighbor (this
// renderer never multisamples).
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately, no vsync wait.
	PresentModeUncapped
)

// ToWGPU converts m to the wgpu present mode the renderer's surface
// configuration expects.
func (m PresentMode) ToWGPU() wgpu.PresentMode {
	switch m {
	case PresentModeVSync:
		return wgpu.PresentModeFifo
	default:
		return wgpu.PresentModeImmediate
	}
}

// EngineOptions is the validated, construction-time-only configuration
// for one simulation instance (spec §4.2, §7). MaxParticles/MaxBeams fix
// the buffer capacities at device-resource creation time. ParticleRadius
// and Bounds are not passed to the compute or render pipelines, whose
// radius and bounds override constants keep their compiled-in defaults
// (4 and 100). None of it is mutable after construction, unlike
// PhysicsConstants below.
type EngineOptions struct {
	// ParticleRadius is every particle's fixed collision/render radius.
	// Must be > 0.
	ParticleRadius float32

	// Subticks is the number of physics sub-steps run per rendered frame
	// (spec §4.3, §4.5). Always rounded up to the nearest even value —
	// never truncated down — so the frame-end "authoritative population
	// lives in Particle[0]" guarantee (compute.Dispatcher's sub-tick
	// parity contract) always holds regardless of what the caller asked
	// for. Must be > 0 before rounding.
	Subticks int

	// MaxParticles and MaxBeams are the fixed logical-id-space capacities
	// every GPU buffer is sized for (device.NewBuffers).
	MaxParticles uint16
	MaxBeams     uint16

	// PresentMode selects vsync-capped or uncapped frame presentation.
	PresentMode PresentMode

	// Bounds is the side length of the square simulation domain. It is not
	// passed to the shaders, whose bounds override constant stays at its
	// compiled-in default of 100.
	Bounds float32

	// Verbose gates the orchestrator's log.Printf diagnostics; the only
	// diagnostic it logs is a dropped-frame notice.
	Verbose bool
}

// EngineOption is a functional option applied during NewEngineOptions.
type EngineOption func(*EngineOptions)

// WithParticleRadius sets the fixed particle radius.
func WithParticleRadius(radius float32) EngineOption {
	return func(o *EngineOptions) { o.ParticleRadius = radius }
}

// WithSubticks sets the requested sub-tick count; NewEngineOptions rounds
// it up to the nearest even value.
func WithSubticks(subticks int) EngineOption {
	return func(o *EngineOptions) { o.Subticks = subticks }
}

// WithCapacity sets the fixed particle and beam id-space capacities.
func WithCapacity(maxParticles, maxBeams uint16) EngineOption {
	return func(o *EngineOptions) {
		o.MaxParticles = maxParticles
		o.MaxBeams = maxBeams
	}
}

// WithPresentMode sets the surface present mode.
func WithPresentMode(mode PresentMode) EngineOption {
	return func(o *EngineOptions) { o.PresentMode = mode }
}

// WithBounds sets the square simulation domain's side length.
func WithBounds(bounds float32) EngineOption {
	return func(o *EngineOptions) { o.Bounds = bounds }
}

// WithVerbose enables orchestrator diagnostic logging.
func WithVerbose(verbose bool) EngineOption {
	return func(o *EngineOptions) { o.Verbose = verbose }
}

// NewEngineOptions applies opts over a set of defaults and validates the
// result, returning errs.InvalidConfiguration if ParticleRadius or
// (pre-rounding) Subticks is non-positive (spec §7).
//
// Parameters:
//   - opts: functional options to apply over the defaults
//
// Returns:
//   - EngineOptions: the validated, rounded options
//   - error: errs.InvalidConfiguration if radius or subticks is <= 0
func NewEngineOptions(opts ...EngineOption) (EngineOptions, error) {
	o := EngineOptions{
		ParticleRadius: 4.0,
		Subticks:       8,
		MaxParticles:   4096,
		MaxBeams:       4096,
		PresentMode:    PresentModeVSync,
		Bounds:         100.0,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.ParticleRadius <= 0 {
		return EngineOptions{}, errs.New(errs.InvalidConfiguration, "particle radius must be positive")
	}
	if o.Subticks <= 0 {
		return EngineOptions{}, errs.New(errs.InvalidConfiguration, "subticks must be positive")
	}
	if o.Subticks%2 != 0 {
		o.Subticks++
	}

	return o, nil
}
