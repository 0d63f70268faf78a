package layout_test

import (
	"testing"

	"github.com/oxy-softbody/softbody/common"
	"github.com/oxy-softbody/softbody/layout"
)

func TestParticleRoundTrip(t *testing.T) {
	buf := make([]byte, layout.ParticleStride*2)
	p := layout.Particle{
		Position:     common.Vec2{1.5, -2.25},
		Velocity:     common.Vec2{0.125, 4},
		Acceleration: common.Vec2{-9.8, 0},
	}
	layout.WriteParticle(buf, 1, p)

	got := layout.ReadParticle(buf, 1)
	if got != p {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, p)
	}

	zero := layout.ReadParticle(buf, 0)
	if zero.Position != (common.Vec2{}) {
		t.Errorf("slot 0 should be untouched, got %+v", zero)
	}
}

func TestParticleStrideIsTwentyFourBytes(t *testing.T) {
	if layout.ParticleStride != 24 {
		t.Errorf("expected ParticleStride == 24, got %d", layout.ParticleStride)
	}
}

func TestBeamRoundTripTranslatesThroughMapping(t *testing.T) {
	m := layout.NewMapping(4)
	m.Assign(2, 5)
	m.Assign(3, 7)

	buf := make([]byte, layout.BeamStride)
	b := layout.Beam{
		ParticleA:        2,
		ParticleB:        3,
		OriginalLength:   10,
		TargetLength:     10,
		LastLength:       9.5,
		SpringConstant:   100,
		DampingConstant:  2,
		YieldStrain:      0.1,
		StrainBreakLimit: 0.5,
		Strain:           0.02,
		Stress:           3.4,
	}

	if ok := layout.WriteBeam(buf, 0, b, m); !ok {
		t.Fatalf("expected WriteBeam to succeed with live endpoints")
	}

	physA, physB := layout.PhysicalEndpoints(buf, 0)
	if physA != 5 || physB != 7 {
		t.Errorf("expected physical slots 5,7, got %d,%d", physA, physB)
	}

	got, ok := layout.ReadBeam(buf, 0, m)
	if !ok {
		t.Fatalf("expected ReadBeam to succeed")
	}
	if got != b {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, b)
	}
}

func TestWriteBeamFailsOnFreeEndpoint(t *testing.T) {
	m := layout.NewMapping(4)
	m.Assign(0, 1)

	buf := make([]byte, layout.BeamStride)
	b := layout.Beam{ParticleA: 0, ParticleB: 2}
	if ok := layout.WriteBeam(buf, 0, b, m); ok {
		t.Errorf("expected WriteBeam to fail when ParticleB is not live")
	}
}

func TestReadBeamFailsWhenPhysicalSlotUnowned(t *testing.T) {
	m := layout.NewMapping(4)
	m.Assign(0, 1)
	m.Assign(1, 2)

	buf := make([]byte, layout.BeamStride)
	ok := layout.WriteBeam(buf, 0, layout.Beam{ParticleA: 0, ParticleB: 1}, m)
	if !ok {
		t.Fatalf("setup write failed")
	}

	m.Free(1)
	if _, ok := layout.ReadBeam(buf, 0, m); ok {
		t.Errorf("expected ReadBeam to fail once an endpoint's logical owner is freed")
	}
}

func TestBeamStrideIsFortyBytes(t *testing.T) {
	if layout.BeamStride != 40 {
		t.Errorf("expected BeamStride == 40, got %d", layout.BeamStride)
	}
}

func TestMappingAssignFreeAndScan(t *testing.T) {
	m := layout.NewMapping(3)
	for i := range m {
		if _, ok := m.PhysicalSlot(i); ok {
			t.Errorf("expected logical id %d to start free", i)
		}
	}

	m.Assign(1, 9)
	slot, ok := m.PhysicalSlot(1)
	if !ok || slot != 9 {
		t.Errorf("expected logical 1 -> physical 9, got %d, ok=%v", slot, ok)
	}

	id, ok := m.LogicalID(9)
	if !ok || id != 1 {
		t.Errorf("expected physical 9 -> logical 1, got %d, ok=%v", id, ok)
	}

	m.Free(1)
	if _, ok := m.PhysicalSlot(1); ok {
		t.Errorf("expected logical 1 to be free after Free")
	}
	if _, ok := m.LogicalID(9); ok {
		t.Errorf("expected physical 9 to have no owner after Free")
	}
}

func TestMappingEncodeDecodeRoundTrip(t *testing.T) {
	m := layout.NewMapping(3)
	m.Assign(0, 10)
	m.Assign(2, 20)

	buf := make([]byte, 3*layout.MappingStride)
	m.Encode(buf)

	got := layout.DecodeMapping(buf, 3)
	for i := range m {
		if got[i] != m[i] {
			t.Errorf("mismatch at %d: got %d, want %d", i, got[i], m[i])
		}
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	buf := make([]byte, layout.MetadataStride)
	md := layout.Metadata{
		ParticleDraw: layout.IndirectDraw{VertexCount: 3, InstanceCount: 120, FirstVertex: 0, BaseVertex: 0, FirstInstance: 0},
		BeamDraw:     layout.IndirectDraw{VertexCount: 2, InstanceCount: 40, FirstVertex: 0, BaseVertex: 0, FirstInstance: 0},
		MaxParticles: 1024,
		MaxBeams:     2048,
		Gravity:      common.Vec2{0, -9.8},

		BorderElasticity:   0.5,
		BorderFriction:     0.1,
		PairElasticity:     0.3,
		PairFriction:       0.2,
		DragCoefficient:    0.05,
		DragExponent:       2,
		UserForceMagnitude: 50,

		CursorActive:   true,
		CursorPosition: common.Vec2{1, 2},
		CursorVelocity: common.Vec2{3, 4},
		AppliedForce:   common.Vec2{5, 6},
	}

	layout.WriteMetadata(buf, md)
	got := layout.ReadMetadata(buf)
	if got != md {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, md)
	}
}

func TestMetadataStrideIsOneHundredTwelveBytes(t *testing.T) {
	if layout.MetadataStride != 112 {
		t.Errorf("expected MetadataStride == 112, got %d", layout.MetadataStride)
	}
}

func TestParticleAndBeamCountAliasIndirectDrawInstanceCount(t *testing.T) {
	buf := make([]byte, layout.MetadataStride)
	layout.WriteMetadata(buf, layout.Metadata{
		ParticleDraw: layout.IndirectDraw{InstanceCount: 7},
		BeamDraw:     layout.IndirectDraw{InstanceCount: 3},
	})

	if got := layout.ParticleCount(buf); got != 7 {
		t.Errorf("expected ParticleCount 7, got %d", got)
	}
	if got := layout.BeamCount(buf); got != 3 {
		t.Errorf("expected BeamCount 3, got %d", got)
	}

	layout.SetParticleCount(buf, 100)
	layout.SetBeamCount(buf, 50)

	md := layout.ReadMetadata(buf)
	if md.ParticleDraw.InstanceCount != 100 {
		t.Errorf("expected particle draw instance count 100 after SetParticleCount, got %d", md.ParticleDraw.InstanceCount)
	}
	if md.BeamDraw.InstanceCount != 50 {
		t.Errorf("expected beam draw instance count 50 after SetBeamCount, got %d", md.BeamDraw.InstanceCount)
	}
}
