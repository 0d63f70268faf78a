package scenestore_test

import (
	"testing"

	"github.com/oxy-softbody/softbody/common"
	"github.com/oxy-softbody/softbody/errs"
	"github.com/oxy-softbody/softbody/layout"
	"github.com/oxy-softbody/softbody/scenestore"
)

func TestAddParticleRejectsDuplicateID(t *testing.T) {
	s := scenestore.NewStore(4, 4)
	if err := s.AddParticle(0, layout.Particle{}); err != nil {
		t.Fatalf("unexpected error on first insert: %v", err)
	}
	if err := s.AddParticle(0, layout.Particle{}); !errs.Is(err, errs.InvalidConfiguration) {
		t.Errorf("expected InvalidConfiguration on duplicate ID, got %v", err)
	}
}

func TestAddParticleRejectsAtCapacity(t *testing.T) {
	s := scenestore.NewStore(1, 4)
	if err := s.AddParticle(0, layout.Particle{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.AddParticle(1, layout.Particle{}); !errs.Is(err, errs.CapacityExceeded) {
		t.Errorf("expected CapacityExceeded, got %v", err)
	}
}

func TestAddBeamRequiresLiveEndpoints(t *testing.T) {
	s := scenestore.NewStore(4, 4)
	s.AddParticle(0, layout.Particle{})

	if err := s.AddBeam(0, layout.Beam{ParticleA: 0, ParticleB: 1}); !errs.Is(err, errs.InvalidConfiguration) {
		t.Errorf("expected InvalidConfiguration for missing endpoint B, got %v", err)
	}
}

func TestRemoveParticleCascadesAttachedBeams(t *testing.T) {
	s := scenestore.NewStore(4, 4)
	s.AddParticle(0, layout.Particle{})
	s.AddParticle(1, layout.Particle{})
	if err := s.AddBeam(0, layout.Beam{ParticleA: 0, ParticleB: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.RemoveParticle(0)

	if _, ok := s.FindBeam(0); ok {
		t.Errorf("expected attached beam to be removed along with particle")
	}
	if _, ok := s.FindParticle(1); !ok {
		t.Errorf("expected the other endpoint to survive")
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	s := scenestore.NewStore(4, 4)
	s.RemoveParticle(99)
	s.RemoveBeam(99)
	s.AddParticle(0, layout.Particle{})
	s.RemoveParticle(0)
	s.RemoveParticle(0)
	if _, ok := s.FindParticle(0); ok {
		t.Errorf("expected particle 0 to stay removed")
	}
}

func TestBeamsAttachedTo(t *testing.T) {
	s := scenestore.NewStore(8, 8)
	s.AddParticle(0, layout.Particle{})
	s.AddParticle(1, layout.Particle{})
	s.AddParticle(2, layout.Particle{})
	s.AddBeam(0, layout.Beam{ParticleA: 0, ParticleB: 1})
	s.AddBeam(1, layout.Beam{ParticleA: 0, ParticleB: 2})

	attached := s.BeamsAttachedTo(0)
	if len(attached) != 2 || attached[0] != 0 || attached[1] != 1 {
		t.Errorf("expected beams [0 1] attached to particle 0, got %v", attached)
	}
}

func TestFirstEmptyIDFillsGaps(t *testing.T) {
	s := scenestore.NewStore(8, 8)
	s.AddParticle(0, layout.Particle{})
	s.AddParticle(2, layout.Particle{})

	if got := s.FirstEmptyParticleID(); got != 1 {
		t.Errorf("expected first empty particle id 1, got %d", got)
	}
	if got := s.FirstEmptyBeamID(); got != 0 {
		t.Errorf("expected first empty beam id 0, got %d", got)
	}
}

func TestWriteStateThenLoadStateRoundTrip(t *testing.T) {
	s := scenestore.NewStore(8, 8)
	s.AddParticle(5, layout.Particle{Position: common.Vec2{1, 2}})
	s.AddParticle(7, layout.Particle{Position: common.Vec2{3, 4}})
	s.AddBeam(2, layout.Beam{ParticleA: 5, ParticleB: 7, OriginalLength: 10, TargetLength: 10})

	particleBuf := make([]byte, 8*layout.ParticleStride)
	beamBuf := make([]byte, 8*layout.BeamStride)
	particleMapping, beamMapping, particleCount, beamCount := s.WriteState(particleBuf, beamBuf)

	if particleCount != 2 || beamCount != 1 {
		t.Fatalf("expected 2 particles, 1 beam, got %d, %d", particleCount, beamCount)
	}

	loaded := scenestore.NewStore(8, 8)
	loaded.LoadState(particleBuf, particleMapping, particleCount, beamBuf, beamMapping, beamCount)

	// IDs are not guaranteed stable: the original IDs 5 and 7 become 0 and 1.
	if _, ok := loaded.FindParticle(5); ok {
		t.Errorf("expected original ID 5 not to survive the round trip")
	}
	p0, ok := loaded.FindParticle(0)
	if !ok || p0.Position != (common.Vec2{1, 2}) {
		t.Errorf("expected fresh id 0 to hold the first-inserted particle, got %+v, ok=%v", p0, ok)
	}

	beams := loaded.ListBeams()
	if len(beams) != 1 {
		t.Fatalf("expected exactly one beam after load, got %d", len(beams))
	}
	b, _ := loaded.FindBeam(beams[0])
	if b.ParticleA != 0 || b.ParticleB != 1 {
		t.Errorf("expected reloaded beam to reference fresh ids 0,1, got %d,%d", b.ParticleA, b.ParticleB)
	}
}
