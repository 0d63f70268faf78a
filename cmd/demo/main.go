// Command demo is the host shell: it owns the GLFW window and the WebGPU
// instance/adapter/device/surface bootstrap, then wires the simulation
// packages (config, device, compute, render, orchestrator, engine,
// snapshot) into one running program. Mirrors the wiring style of
// Carmen-Shannon-oxy-go/examples/*.go, collapsed from that engine's
// multi-scene/camera construction down to this repository's single
// device + two-pipeline renderer.
package main

import (
	"flag"
	"log"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/oxy-softbody/softbody/compute"
	"github.com/oxy-softbody/softbody/config"
	"github.com/oxy-softbody/softbody/device"
	"github.com/oxy-softbody/softbody/engine"
	"github.com/oxy-softbody/softbody/layout"
	"github.com/oxy-softbody/softbody/orchestrator"
	"github.com/oxy-softbody/softbody/render"
	"github.com/oxy-softbody/softbody/scenestore"
	"github.com/oxy-softbody/softbody/window"
)

func main() {
	scenePath := flag.String("scene", "", "path to a yaml scene file (optional; starts empty if omitted)")
	width := flag.Int("width", 1280, "window width in pixels")
	height := flag.Int("height", 720, "window height in pixels")
	particles := flag.Uint("max-particles", 4096, "fixed particle id-space capacity")
	beams := flag.Uint("max-beams", 4096, "fixed beam id-space capacity")
	uncapped := flag.Bool("uncapped", false, "present frames without vsync")
	verbose := flag.Bool("verbose", false, "log FPS and dropped-frame diagnostics")
	flag.Parse()

	presentMode := config.PresentModeVSync
	if *uncapped {
		presentMode = config.PresentModeUncapped
	}

	opts, err := config.NewEngineOptions(
		config.WithCapacity(uint16(*particles), uint16(*beams)),
		config.WithPresentMode(presentMode),
		config.WithVerbose(*verbose),
	)
	if err != nil {
		log.Fatalf("demo: invalid engine options: %v", err)
	}

	win := window.NewWindow(
		window.WithTitle("Oxy Softbody"),
		window.WithWidth(*width),
		window.WithHeight(*height),
	)

	dev, adapter, surface, err := setupWebGPU(win)
	if err != nil {
		log.Fatalf("demo: webgpu setup: %v", err)
	}

	buffers, err := device.NewBuffers(dev, int(opts.MaxParticles), int(opts.MaxBeams))
	if err != nil {
		log.Fatalf("demo: create buffers: %v", err)
	}

	physics := config.DefaultPhysicsConstants()
	var particleCount, beamCount int
	if *scenePath != "" {
		sceneFile, err := config.LoadSceneFile(*scenePath)
		if err != nil {
			log.Fatalf("demo: load scene: %v", err)
		}
		physics = sceneFile.PhysicsConstants()

		store, err := sceneFile.Store(opts)
		if err != nil {
			log.Fatalf("demo: build scene store: %v", err)
		}
		particleCount, beamCount = loadInitialState(dev, buffers, store)
	}

	dispatcher, err := compute.NewDispatcher(dev, buffers)
	if err != nil {
		log.Fatalf("demo: create dispatcher: %v", err)
	}

	renderer, err := render.NewRenderer(dev, surface, adapter, buffers, *width, *height, presentMode.ToWGPU())
	if err != nil {
		log.Fatalf("demo: create renderer: %v", err)
	}

	particleDraw, beamDraw := render.InitialDraws()
	particleDraw.InstanceCount = uint32(particleCount)
	beamDraw.InstanceCount = uint32(beamCount)

	initial := layout.Metadata{
		ParticleDraw: particleDraw,
		BeamDraw:     beamDraw,
		MaxParticles: uint32(opts.MaxParticles),
		MaxBeams:     uint32(opts.MaxBeams),
	}
	physics.ApplyTo(&initial)
	config.PushMetadata(dev, buffers.Metadata, initial)

	orch := orchestrator.New(dev, buffers, dispatcher, renderer, opts, initial)
	fac := engine.New(dev, buffers, orch)

	win.SetUpdateCallback(orch.Tick)
	win.SetResizeCallback(orch.Resize)
	wireInput(win, fac)

	go fac.Run()
	win.ProcessMessages()
	fac.Stop()
}

// setupWebGPU creates the instance/surface/adapter/device quartet a
// Renderer needs, following
// Carmen-Shannon-oxy-go/engine/renderer/wgpu_renderer_backend.go's
// newWGPURendererBackend sequence (instance → surface → adapter →
// device), trimmed of that backend's MSAA/shadow-pass limit overrides
// since this renderer needs neither.
func setupWebGPU(win window.Window) (*device.Device, *wgpu.Adapter, *wgpu.Surface, error) {
	instance := wgpu.CreateInstance(nil)
	surface := instance.CreateSurface(win.SurfaceDescriptor())

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	wgpuDevice, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Softbody Device",
	})
	if err != nil {
		return nil, nil, nil, err
	}

	return device.NewDevice(wgpuDevice), adapter, surface, nil
}

// loadInitialState writes a populated scenestore.Store's compacted
// buffers straight to the device, matching the byte ranges
// snapshot.Load writes on a SNAPSHOT_LOAD message: particle mapping at
// offset 0, beam mapping at MaxParticles*layout.MappingStride.
func loadInitialState(dev *device.Device, buffers *device.Buffers, store *scenestore.Store) (particleCount, beamCount int) {
	particleBuf := make([]byte, buffers.MaxParticles*layout.ParticleStride)
	beamBuf := make([]byte, buffers.MaxBeams*layout.BeamStride)
	particleMapping, beamMapping, pCount, bCount := store.WriteState(particleBuf, beamBuf)

	mappingBuf := make([]byte, (buffers.MaxParticles+buffers.MaxBeams)*layout.MappingStride)
	particleMapping.Encode(mappingBuf)
	beamMapping.Encode(mappingBuf[buffers.MaxParticles*layout.MappingStride:])

	dev.Queue().WriteBuffer(buffers.Particle[0], 0, particleBuf)
	dev.Queue().WriteBuffer(buffers.Beam, 0, beamBuf)
	dev.Queue().WriteBuffer(buffers.Mapping, 0, mappingBuf)

	return pCount, bCount
}

// wireInput forwards raw window events into the facade's INPUT message,
// mirroring examples/many_cubes.go's setupBenchInput key-state tracking
// but feeding an orchestrator.Input instead of a camera controller.
func wireInput(win window.Window, fac *engine.Facade) {
	var cursorActive bool
	var cursorX, cursorY int32

	win.SetMiddleMouseDownCallback(func(x, y int32) {
		cursorActive = true
		cursorX, cursorY = x, y
		sendInput(fac, cursorActive, cursorX, cursorY)
	})
	win.SetMiddleMouseUpCallback(func(_, _ int32) {
		cursorActive = false
		sendInput(fac, cursorActive, cursorX, cursorY)
	})
	win.SetMouseMoveCallback(func(x, y int32) {
		cursorX, cursorY = x, y
		if cursorActive {
			sendInput(fac, cursorActive, cursorX, cursorY)
		}
	})
}

func sendInput(fac *engine.Facade, active bool, x, y int32) {
	req := engine.NewRequest(engine.MessageInput)
	req.Input.CursorActive = active
	req.Input.CursorPosition[0] = float32(x)
	req.Input.CursorPosition[1] = float32(y)
	select {
	case fac.Requests() <- req:
	default:
		// the facade's request queue is bounded; a dropped cursor sample
		// is superseded by the next mouse-move event anyway.
	}
}
