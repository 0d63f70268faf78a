package engine

import (
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"github.com/oxy-softbody/softbody/device"
	"github.com/oxy-softbody/softbody/layout"
	"github.com/oxy-softbody/softbody/orchestrator"
	"github.com/oxy-softbody/softbody/snapshot"
)

// Facade is the message-channel boundary a host shell talks to: it owns
// no device-mutating state of its own, only the request queue and the
// orchestrator it forwards requests to, serialized by Run() the same
// way Carmen-Shannon-oxy-go/engine/engine.go's handleEngine/handleRender
// goroutines were serialized by the quit channel, but collapsed to a
// single goroutine since spec.md §5 specifies one logical host thread.
//
// INIT is implicitly complete by the time a Facade exists: constructing
// the drawing surface, device, buffers, dispatcher, and renderer is
// platform-specific host-shell work (cmd/demo/main.go), not something
// this package can do generically, so New takes an already-running
// Orchestrator rather than a surface handle.
type Facade struct {
	dev      *device.Device
	buffers  *device.Buffers
	orch     *orchestrator.Orchestrator
	requests chan Request
	responses chan Response

	quit     chan struct{}
	quitOnce sync.Once
}

// New creates a Facade wired to an already-constructed orchestrator.
//
// Parameters:
//   - dev: the device the simulation buffers live on
//   - buffers: the simulation buffer set
//   - orch: the running orchestrator to forward requests to
//
// Returns:
//   - *Facade: the ready facade; call Run in its own goroutine
func New(dev *device.Device, buffers *device.Buffers, orch *orchestrator.Orchestrator) *Facade {
	f := &Facade{
		dev:       dev,
		buffers:   buffers,
		orch:      orch,
		requests:  make(chan Request, 16),
		responses: make(chan Response, 16),
		quit:      make(chan struct{}),
	}
	orch.OnFramerate(func(fps float64) {
		// non-blocking: a framerate push the host hasn't drained yet is
		// stale by the time it would be read, and this callback runs
		// under the orchestrator's device lock (see frame.go's
		// recordFrame) — blocking here would stall every subsequent frame.
		select {
		case f.responses <- Response{ID: uuid.New(), Type: MessageFramerate, FPS: fps}:
		default:
		}
	})
	return f
}

// Requests returns the channel a host shell sends Request values on.
func (f *Facade) Requests() chan<- Request {
	return f.requests
}

// Responses returns the channel a host shell reads Response values
// from, both replies to its own Requests and unsolicited FRAMERATE
// pushes.
func (f *Facade) Responses() <-chan Response {
	return f.responses
}

// Run processes requests until a DESTROY request or an external Stop,
// one at a time, in submission order. Safe to run in its own goroutine;
// every device-mutating call it makes is already synchronized by the
// orchestrator's own device lock, so Run needs no lock of its own.
func (f *Facade) Run() {
	for {
		select {
		case <-f.quit:
			return
		case req := <-f.requests:
			if resp, ok := f.handle(req); ok {
				f.responses <- resp
			}
			if req.Type == MessageDestroy {
				f.Stop()
				return
			}
		}
	}
}

// Stop signals Run to exit. Safe to call multiple times or concurrently
// with Run.
func (f *Facade) Stop() {
	f.quitOnce.Do(func() { close(f.quit) })
}

// handle dispatches one request to the orchestrator/device/snapshot
// codec and builds its reply, per spec.md §6's per-message-type
// Response column. The bool return is false for the message types the
// table gives no response to (INIT, VISIBILITY_CHANGE, CORRUPT_BUFFERS).
func (f *Facade) handle(req Request) (Response, bool) {
	switch req.Type {
	case MessageInit:
		return Response{}, false

	case MessageDestroy:
		return Response{ID: req.ID, Type: MessageDestroy}, true

	case MessagePhysicsConstants:
		f.orch.ApplyPhysicsConstants(req.Physics)
		return Response{ID: req.ID, Type: MessagePhysicsConstants, Physics: f.orch.PhysicsConstants()}, true

	case MessageGetPhysicsConstants:
		return Response{ID: req.ID, Type: MessageGetPhysicsConstants, Physics: f.orch.PhysicsConstants()}, true

	case MessageInput:
		f.orch.SetInput(req.Input)
		return Response{ID: req.ID, Type: MessageInput, Success: true}, true

	case MessageVisibilityChange:
		f.orch.SetVisible(req.Visible)
		return Response{}, false

	case MessageSnapshotSave:
		data, err := snapshot.Save(f.dev, f.buffers)
		return Response{ID: req.ID, Type: MessageSnapshotSave, Snapshot: data, Err: err}, true

	case MessageSnapshotLoad:
		err := snapshot.Load(f.dev, f.buffers, req.SnapshotLoad)
		return Response{ID: req.ID, Type: MessageSnapshotLoad, Success: err == nil, Err: err}, true

	case MessageCorruptBuffers:
		f.corruptBuffers()
		return Response{}, false

	default:
		return Response{}, false
	}
}

// corruptBuffers overwrites the first four bytes of one randomly chosen
// particle slot in Particle[0] (any of MaxParticles, live or not) with
// random bytes, a debug-only affordance for exercising the *Transient*
// error path described in spec.md §7. SPEC_FULL.md §6 keeps this
// message rather than omitting it (spec.md §9 permits either):
// it is a single queue write, no more expensive to keep than to cut.
func (f *Facade) corruptBuffers() {
	if f.buffers.MaxParticles == 0 {
		return
	}
	garbage := make([]byte, 4)
	rand.Read(garbage)
	slot := rand.Intn(f.buffers.MaxParticles)
	offset := uint64(slot * layout.ParticleStride)
	f.dev.Queue().WriteBuffer(f.buffers.Particle[0], offset, garbage)
}
