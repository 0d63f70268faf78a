package engine_test

import (
	"testing"
	"time"

	"github.com/oxy-softbody/softbody/common"
	"github.com/oxy-softbody/softbody/config"
	"github.com/oxy-softbody/softbody/engine"
	"github.com/oxy-softbody/softbody/layout"
	"github.com/oxy-softbody/softbody/orchestrator"
)

// newTestFacade builds a Facade over an Orchestrator with no device,
// buffers, dispatcher, or renderer attached. Every message type
// exercised below (GET_PHYSICS_CONSTANTS, INPUT, VISIBILITY_CHANGE,
// DESTROY) only reaches the orchestrator's host-side mirror, never the
// device, so this is safe without a real GPU.
func newTestFacade() *engine.Facade {
	orch := orchestrator.New(nil, nil, nil, nil, config.EngineOptions{Subticks: 8}, layout.Metadata{})
	return engine.New(nil, nil, orch)
}

func TestFacadeEchoesGetPhysicsConstants(t *testing.T) {
	f := newTestFacade()
	go f.Run()
	defer f.Stop()

	req := engine.NewRequest(engine.MessageGetPhysicsConstants)
	f.Requests() <- req

	select {
	case resp := <-f.Responses():
		if resp.ID != req.ID {
			t.Errorf("response ID %v does not correlate with request ID %v", resp.ID, req.ID)
		}
		if resp.Type != engine.MessageGetPhysicsConstants {
			t.Errorf("expected MessageGetPhysicsConstants, got %v", resp.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for response")
	}
}

func TestFacadeAcksInput(t *testing.T) {
	f := newTestFacade()
	go f.Run()
	defer f.Stop()

	req := engine.NewRequest(engine.MessageInput)
	req.Input = orchestrator.Input{KeyboardForce: common.Vec2{1, 0}, CursorActive: true}
	f.Requests() <- req

	select {
	case resp := <-f.Responses():
		if !resp.Success {
			t.Errorf("expected ack Success=true")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for response")
	}
}

func TestFacadeVisibilityChangeHasNoResponse(t *testing.T) {
	f := newTestFacade()
	go f.Run()
	defer f.Stop()

	req := engine.NewRequest(engine.MessageVisibilityChange)
	req.Visible = false
	f.Requests() <- req

	// spec.md §6's table gives VISIBILITY_CHANGE no response; confirm a
	// subsequent request's response arrives first and alone.
	confirm := engine.NewRequest(engine.MessageGetPhysicsConstants)
	f.Requests() <- confirm

	select {
	case resp := <-f.Responses():
		if resp.ID != confirm.ID {
			t.Errorf("expected the GET_PHYSICS_CONSTANTS response first, got one correlated to %v", resp.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for response")
	}
}

func TestFacadeDestroyEchoesAndStopsRun(t *testing.T) {
	f := newTestFacade()
	done := make(chan struct{})
	go func() {
		f.Run()
		close(done)
	}()

	req := engine.NewRequest(engine.MessageDestroy)
	f.Requests() <- req

	select {
	case resp := <-f.Responses():
		if resp.Type != engine.MessageDestroy || resp.ID != req.ID {
			t.Errorf("expected DESTROY echo correlated to %v, got %+v", req.ID, resp)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for DESTROY echo")
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after DESTROY")
	}
}
