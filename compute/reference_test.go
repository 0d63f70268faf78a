package compute_test

import (
	"testing"

	"github.com/oxy-softbody/softbody/common"
	"github.com/oxy-softbody/softbody/compute"
	"github.com/oxy-softbody/softbody/layout"
)

const eps = 1e-3

func runFrame(w *compute.World, cfg compute.Config, subticks int) {
	dt := float32(1) / float32(subticks)
	for i := 0; i < subticks; i++ {
		w.Step(cfg, dt)
	}
}

func TestGravityFall(t *testing.T) {
	particles := []layout.Particle{{Position: common.Vec2{500, 500}}}
	w := compute.NewWorld(particles, nil)
	cfg := compute.Config{Gravity: common.Vec2{0, -0.5}, Radius: 1, Bounds: 1000}

	runFrame(w, cfg, 64)

	got := w.Particles[0]
	if !common.Aeq(got.Position, common.Vec2{500, 499.74609375}, eps) {
		t.Errorf("expected position ~= (500, 499.74609375), got %v", got.Position)
	}
	if !common.Aeq(got.Velocity, common.Vec2{0, -0.5}, eps) {
		t.Errorf("expected velocity ~= (0, -0.5), got %v", got.Velocity)
	}
}

func TestElasticFloor(t *testing.T) {
	radius := float32(10)
	particles := []layout.Particle{{Position: common.Vec2{500, radius}, Velocity: common.Vec2{0, -10}}}
	w := compute.NewWorld(particles, nil)
	cfg := compute.Config{BorderElasticity: 0.5, Radius: radius, Bounds: 1000}

	w.Step(cfg, 1.0/64)

	got := w.Particles[0]
	if got.Position[1] != radius {
		t.Errorf("expected p.y pinned to radius %v, got %v", radius, got.Position[1])
	}
	if !aeqF(got.Velocity[1], 5, eps) {
		t.Errorf("expected v.y ~= 5, got %v", got.Velocity[1])
	}
}

func TestSpringRest(t *testing.T) {
	particles := []layout.Particle{
		{Position: common.Vec2{400, 500}},
		{Position: common.Vec2{500, 500}},
	}
	beams := []layout.Beam{{
		ParticleA: 0, ParticleB: 1,
		OriginalLength: 100, TargetLength: 100, LastLength: 100,
		SpringConstant: 10, DampingConstant: 1,
		YieldStrain: 1, StrainBreakLimit: 1,
	}}
	w := compute.NewWorld(particles, beams)
	cfg := compute.Config{Radius: 1, Bounds: 1000}

	for frame := 0; frame < 100; frame++ {
		runFrame(w, cfg, 64)
	}

	if !common.Aeq(w.Particles[0].Position, common.Vec2{400, 500}, 1e-3) {
		t.Errorf("particle A drifted from rest: %v", w.Particles[0].Position)
	}
	if !common.Aeq(w.Particles[1].Position, common.Vec2{500, 500}, 1e-3) {
		t.Errorf("particle B drifted from rest: %v", w.Particles[1].Position)
	}
}

func TestPairCollision(t *testing.T) {
	particles := []layout.Particle{
		{Position: common.Vec2{500, 500}, Velocity: common.Vec2{5, 0}},
		{Position: common.Vec2{519, 500}, Velocity: common.Vec2{-5, 0}},
	}
	w := compute.NewWorld(particles, nil)
	cfg := compute.Config{PairElasticity: 1, PairFriction: 0, Radius: 10, Bounds: 1000}

	w.Step(cfg, 1.0/64)

	if w.Particles[0].Velocity[0] >= 0 {
		t.Errorf("expected particle A's x-velocity to flip negative, got %v", w.Particles[0].Velocity[0])
	}
	if w.Particles[1].Velocity[0] <= 0 {
		t.Errorf("expected particle B's x-velocity to flip positive, got %v", w.Particles[1].Velocity[0])
	}
}

func TestPlasticYield(t *testing.T) {
	particles := []layout.Particle{
		{Position: common.Vec2{400, 500}},
		{Position: common.Vec2{520, 500}},
	}
	beams := []layout.Beam{{
		ParticleA: 0, ParticleB: 1,
		OriginalLength: 100, TargetLength: 100, LastLength: 120,
		SpringConstant: 10, DampingConstant: 1,
		YieldStrain: 0.1, StrainBreakLimit: 1,
	}}
	w := compute.NewWorld(particles, beams)
	cfg := compute.Config{Radius: 1, Bounds: 1000}

	w.Step(cfg, 1.0/64)

	if !aeqF(w.Beams[0].TargetLength, 110, eps) {
		t.Errorf("expected target_length to become 110 after yield, got %v", w.Beams[0].TargetLength)
	}
}

func TestFracture(t *testing.T) {
	particles := []layout.Particle{
		{Position: common.Vec2{400, 500}},
		{Position: common.Vec2{525, 500}},
	}
	beams := []layout.Beam{{
		ParticleA: 0, ParticleB: 1,
		OriginalLength: 100, TargetLength: 100, LastLength: 125,
		SpringConstant: 10, DampingConstant: 1,
		YieldStrain: 1, StrainBreakLimit: 0.2,
	}}
	w := compute.NewWorld(particles, beams)
	cfg := compute.Config{Radius: 1, Bounds: 1000}

	w.Step(cfg, 1.0/64)

	if !w.Fractured[0] {
		t.Errorf("expected beam to be marked fractured")
	}
	if removed := w.Compact(); removed != 1 {
		t.Errorf("expected Compact to remove 1 beam, removed %d", removed)
	}
	if len(w.Beams) != 0 {
		t.Errorf("expected no beams to remain after compaction, got %d", len(w.Beams))
	}
}

func TestZeroLengthBeamProducesFiniteForce(t *testing.T) {
	particles := []layout.Particle{
		{Position: common.Vec2{500, 500}},
		{Position: common.Vec2{500, 500}},
	}
	beams := []layout.Beam{{
		ParticleA: 0, ParticleB: 1,
		OriginalLength: 100, TargetLength: 100, LastLength: 100,
		SpringConstant: 10, DampingConstant: 1,
		YieldStrain: 1, StrainBreakLimit: 1,
	}}
	w := compute.NewWorld(particles, beams)
	cfg := compute.Config{Radius: 1, Bounds: 1000}

	w.Step(cfg, 1.0/64)

	for _, p := range w.Particles {
		if p.Velocity[0] != p.Velocity[0] || p.Velocity[1] != p.Velocity[1] {
			t.Errorf("expected finite velocity, got NaN: %v", p.Velocity)
		}
	}
}

func TestCoincidentParticlesSeparate(t *testing.T) {
	particles := []layout.Particle{
		{Position: common.Vec2{500, 500}},
		{Position: common.Vec2{500, 500}},
	}
	w := compute.NewWorld(particles, nil)
	cfg := compute.Config{PairElasticity: 1, PairFriction: 0, Radius: 10, Bounds: 1000}

	w.Step(cfg, 1.0/64)

	if common.Eq(w.Particles[0].Position, w.Particles[1].Position) {
		t.Errorf("expected coincident particles to separate after one tick")
	}
}

func TestBeamBreaksImmediatelyAtZeroBreakLimit(t *testing.T) {
	particles := []layout.Particle{
		{Position: common.Vec2{400, 500}},
		{Position: common.Vec2{500.001, 500}},
	}
	beams := []layout.Beam{{
		ParticleA: 0, ParticleB: 1,
		OriginalLength: 100, TargetLength: 100, LastLength: 100,
		SpringConstant: 10, DampingConstant: 1,
		YieldStrain: 1, StrainBreakLimit: 0,
	}}
	w := compute.NewWorld(particles, beams)
	cfg := compute.Config{Radius: 1, Bounds: 1000}

	w.Step(cfg, 1.0/64)

	if !w.Fractured[0] {
		t.Errorf("expected beam with strain_break_limit = 0 to fracture on the first tick")
	}
}

func aeqF(a, b, eps float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}
