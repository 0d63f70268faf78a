package config_test

import (
	"testing"

	"github.com/oxy-softbody/softbody/common"
	"github.com/oxy-softbody/softbody/config"
	"github.com/oxy-softbody/softbody/layout"
)

func TestApplyToIsIdempotent(t *testing.T) {
	p := config.PhysicsConstants{
		Gravity:            common.Vec2{0, 120},
		BorderElasticity:   0.7,
		BorderFriction:     0.4,
		PairElasticity:     0.55,
		PairFriction:       0.25,
		DragCoefficient:    0.03,
		DragExponent:       1.8,
		UserForceMagnitude: 6000,
	}

	var once, twice layout.Metadata
	p.ApplyTo(&once)
	p.ApplyTo(&twice)
	p.ApplyTo(&twice)

	if once != twice {
		t.Errorf("ApplyTo is not idempotent: once=%+v, twice=%+v", once, twice)
	}
}

func TestApplyToLeavesUnrelatedFieldsUntouched(t *testing.T) {
	m := layout.Metadata{
		MaxParticles:       4096,
		MaxBeams:           4096,
		CursorActive:       true,
		CursorPosition:     common.Vec2{10, 20},
		ParticleDraw:       layout.IndirectDraw{InstanceCount: 7},
	}
	want := m

	config.DefaultPhysicsConstants().ApplyTo(&m)

	if m.MaxParticles != want.MaxParticles || m.MaxBeams != want.MaxBeams ||
		m.CursorActive != want.CursorActive || m.CursorPosition != want.CursorPosition ||
		m.ParticleDraw != want.ParticleDraw {
		t.Errorf("ApplyTo touched a field outside its documented subset: got %+v, want unrelated fields preserved from %+v", m, want)
	}
}
