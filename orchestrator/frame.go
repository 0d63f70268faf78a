// Package orchestrator drives the per-frame command sequencing spec.md
// §4.5 describes: compose the input record, dispatch the sub-tick and
// delete compute passes, draw particles and beams indirectly, and report
// framerate, all under a single asynchronous device lock. The lock is a
// buffered `chan struct{}` rather than a `sync.Mutex`, following
// Carmen-Shannon-oxy-go/engine/engine.go's own channel-based coordination
// idiom (`quitChannel`, `tickRateChannel`): the lock must be acquirable
// from the message-channel goroutine the `engine` package runs, and a
// `sync.Mutex` held across a suspension point (a snapshot's mappable-buffer
// wait) is a misuse the race detector and several linters flag, where a
// channel token has no such restriction.
package orchestrator

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/oxy-softbody/softbody/common"
	"github.com/oxy-softbody/softbody/compute"
	"github.com/oxy-softbody/softbody/config"
	"github.com/oxy-softbody/softbody/device"
	"github.com/oxy-softbody/softbody/layout"
	"github.com/oxy-softbody/softbody/render"
)

// idleInterval is the coarse polling period the orchestrator falls back
// to while hidden (spec.md §4.5: "idles on a coarse timer instead of the
// display callback").
const idleInterval = 250 * time.Millisecond

// fpsWindow is the sliding-window duration framerate is averaged over
// (spec.md §4.5 step 8: "a sliding 1-second framerate window").
const fpsWindow = 1 * time.Second

// Input is one frame's worth of host input, composed into the metadata
// buffer's cursor/force fields each step (spec.md §4.5 step 2).
type Input struct {
	KeyboardForce  common.Vec2
	CursorPosition common.Vec2
	CursorVelocity common.Vec2
	CursorActive   bool
}

// Orchestrator owns the device lock, the live host mirror of the
// metadata record, and the compute/render pipelines it drives every
// step. Exactly one Orchestrator exists per running simulation.
type Orchestrator struct {
	dev        *device.Device
	buffers    *device.Buffers
	dispatcher *compute.Dispatcher
	renderer   *render.Renderer
	opts       config.EngineOptions

	// deviceLock is a single-token channel acting as an asynchronous
	// mutex: acquire by receiving the token, release by sending it back.
	// Step 1 of spec.md §4.5 ("wait for the previous submission to
	// drain") is exactly this receive — the previous Step does not
	// return the token until its own submission and present have been
	// queued.
	deviceLock chan struct{}

	mu       sync.Mutex
	input    Input
	metadata layout.Metadata
	visible  bool

	fpsMu      sync.Mutex
	fpsSamples []time.Time
	onFrame    func(fps float64)

	lastIdleStep time.Time

	Verbose bool
}

// New creates an Orchestrator wired to dev/buffers/dispatcher/renderer,
// starting from initial as the host mirror of the live metadata record
// (spec.md §3; the caller is responsible for having already pushed
// initial to the device via config.PushMetadata before the first Step).
//
// Parameters:
//   - dev: the device whose queue composes per-frame input writes
//   - buffers: the simulation buffer set
//   - dispatcher: the compute dispatcher driving sub-tick and delete passes
//   - renderer: the render core driving the two indirect draws
//   - opts: validated engine options (sub-tick count, capacities)
//   - initial: the metadata record's current host-side mirror
//
// Returns:
//   - *Orchestrator: the ready orchestrator, starting visible
func New(dev *device.Device, buffers *device.Buffers, dispatcher *compute.Dispatcher, renderer *render.Renderer, opts config.EngineOptions, initial layout.Metadata) *Orchestrator {
	lock := make(chan struct{}, 1)
	lock <- struct{}{}

	return &Orchestrator{
		dev:        dev,
		buffers:    buffers,
		dispatcher: dispatcher,
		renderer:   renderer,
		opts:       opts,
		deviceLock: lock,
		metadata:   initial,
		visible:    true,
		Verbose:    opts.Verbose,
	}
}

// SetInput replaces the current frame's input snapshot (spec.md §6's
// INPUT message). Safe to call concurrently with Step.
//
// Parameters:
//   - in: the new input snapshot
func (o *Orchestrator) SetInput(in Input) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.input = in
}

// SetVisible toggles the display/idle cadence (spec.md §6's
// VISIBILITY_CHANGE message). When hidden, Tick only steps once per
// idleInterval; when visible, every Tick call steps.
//
// Parameters:
//   - visible: true if the host surface is currently visible
func (o *Orchestrator) SetVisible(visible bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.visible = visible
}

// OnFramerate registers a callback invoked with the current rolling FPS
// each time Step completes (spec.md §6's FRAMERATE message, host-bound).
//
// Parameters:
//   - cb: the callback to invoke with the sampled FPS
func (o *Orchestrator) OnFramerate(cb func(fps float64)) {
	o.onFrame = cb
}

// ApplyPhysicsConstants merges p into the host mirror of the metadata
// record and pushes the whole record to the device immediately, for the
// PHYSICS_CONSTANTS message (spec.md §6), which unlike INPUT is not
// batched into the next Step.
//
// Parameters:
//   - p: the physics constants to apply
func (o *Orchestrator) ApplyPhysicsConstants(p config.PhysicsConstants) {
	<-o.deviceLock
	defer func() { o.deviceLock <- struct{}{} }()

	o.mu.Lock()
	p.ApplyTo(&o.metadata)
	m := o.metadata
	o.mu.Unlock()

	config.PushMetadata(o.dev, o.buffers.Metadata, m)
}

// PhysicsConstants returns the current host mirror's physics fields, for
// the GET_PHYSICS_CONSTANTS message.
func (o *Orchestrator) PhysicsConstants() config.PhysicsConstants {
	o.mu.Lock()
	defer o.mu.Unlock()
	return config.PhysicsConstants{
		Gravity:            o.metadata.Gravity,
		BorderElasticity:   o.metadata.BorderElasticity,
		BorderFriction:     o.metadata.BorderFriction,
		PairElasticity:     o.metadata.PairElasticity,
		PairFriction:       o.metadata.PairFriction,
		DragCoefficient:    o.metadata.DragCoefficient,
		DragExponent:       o.metadata.DragExponent,
		UserForceMagnitude: o.metadata.UserForceMagnitude,
	}
}

// Tick is the per-display-callback entry point: called once per window
// update iteration. While visible it steps every call; while hidden it
// steps at most once per idleInterval (spec.md §4.5's visibility idling),
// so a minimized or backgrounded window does not busy-spin the compute
// dispatch. Transient per-frame errors (spec.md §7) are logged and
// dropped, not propagated — the next Tick simply tries again.
func (o *Orchestrator) Tick() {
	o.mu.Lock()
	visible := o.visible
	o.mu.Unlock()

	if !visible {
		if time.Since(o.lastIdleStep) < idleInterval {
			return
		}
		o.lastIdleStep = time.Now()
	}

	if err := o.Step(); err != nil {
		if o.Verbose {
			log.Printf("orchestrator: dropped frame: %v", err)
		}
	}
}

// Step executes the 8-step per-frame sequence of spec.md §4.5 exactly
// once: acquire the device lock, compose and push the input record,
// record the compute sub-ticks and delete pass followed by the render
// pass into a single command encoder, submit once, present, and report
// the rolling framerate.
//
// Returns:
//   - error: a transient per-frame failure (spec.md §7's *Transient*);
//     the device and simulation state are otherwise unaffected
func (o *Orchestrator) Step() error {
	<-o.deviceLock
	defer func() { o.deviceLock <- struct{}{} }()

	o.mu.Lock()
	in := o.input
	o.metadata.CursorActive = in.CursorActive
	o.metadata.CursorPosition = in.CursorPosition
	o.metadata.CursorVelocity = in.CursorVelocity
	o.metadata.AppliedForce = in.KeyboardForce
	m := o.metadata
	o.mu.Unlock()

	// step 2: compose the input record and queue-write it ahead of the
	// compute dispatch that will read it this frame.
	config.PushMetadata(o.dev, o.buffers.Metadata, m)

	// step 3: build a command encoder; both the compute sub-ticks/delete
	// pass and the render pass share this one encoder so step 7's single
	// submit covers the whole frame (see render.Renderer's BeginFrame doc).
	encoder, err := o.dev.Raw().CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("orchestrator: create command encoder: %w", err)
	}

	// steps 4-5: subticks sub-tick update dispatches (alternating bind
	// group variant) followed by one delete-compaction dispatch.
	if err := o.dispatcher.RunFrame(encoder, o.opts.Subticks, int(o.opts.MaxParticles), int(o.opts.MaxBeams)); err != nil {
		encoder.Release()
		return fmt.Errorf("orchestrator: compute dispatch: %w", err)
	}

	// step 6: begin the render pass in the same encoder, draw particles
	// then beams indirectly, end the pass.
	if err := o.renderer.BeginFrame(encoder); err != nil {
		encoder.Release()
		return fmt.Errorf("orchestrator: begin render pass: %w", err)
	}
	o.renderer.DrawParticles()
	o.renderer.DrawBeams()
	o.renderer.EndFrame()

	// step 7: submit once, then present. The teacher's own
	// wgpu_renderer_backend.go never performs a synchronous
	// device-idle wait after Submit (see DESIGN.md's Open Question
	// resolution) — the present-mode's own vsync/FIFO pacing supplies
	// the backpressure spec.md's "wait for completion" calls for,
	// without this package fabricating an unverified blocking-poll call.
	commandBuffer, err := encoder.Finish(nil)
	encoder.Release()
	if err != nil {
		return fmt.Errorf("orchestrator: finish command buffer: %w", err)
	}
	o.dev.Queue().Submit(commandBuffer)
	commandBuffer.Release()
	o.renderer.Present()

	// step 8: append now to the sliding framerate window and report.
	o.recordFrame()

	return nil
}

// recordFrame appends the current time to the rolling 1-second sample
// window, prunes samples older than fpsWindow, and reports the resulting
// rate via the registered framerate callback.
func (o *Orchestrator) recordFrame() {
	o.fpsMu.Lock()
	now := time.Now()
	o.fpsSamples = append(o.fpsSamples, now)

	cutoff := now.Add(-fpsWindow)
	i := 0
	for i < len(o.fpsSamples) && o.fpsSamples[i].Before(cutoff) {
		i++
	}
	o.fpsSamples = o.fpsSamples[i:]
	fps := float64(len(o.fpsSamples))
	o.fpsMu.Unlock()

	if o.onFrame != nil {
		o.onFrame(fps)
	}
}

// Resize reconfigures the render surface for a new window size.
//
// Parameters:
//   - width: the new surface width in pixels
//   - height: the new surface height in pixels
func (o *Orchestrator) Resize(width, height int) {
	o.renderer.Resize(width, height)
}
