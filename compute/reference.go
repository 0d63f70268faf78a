// Package compute drives the GPU simulation kernel (spec §4.3): the
// update and delete compute pipelines, their dispatch geometry and
// buffer-variant alternation, and — since no GPU is available at test
// time — a pure-Go transliteration of the WGSL kernel math used to make
// spec §8's numeric scenarios runnable as ordinary Go tests.
package compute

import (
	"math"

	"github.com/oxy-softbody/softbody/common"
	"github.com/oxy-softbody/softbody/layout"
)

// stressScale converts a beam's force magnitude into the stress value
// recorded on the beam record (spec §4.3: "scale = 1/20").
const stressScale = 1.0 / 20.0

// Config mirrors the physics scalars carried in layout.Metadata — the
// subset of fields the per-sub-tick kernel math in this file reads.
type Config struct {
	Gravity            common.Vec2
	BorderElasticity   float32
	BorderFriction     float32
	PairElasticity     float32
	PairFriction       float32
	DragCoefficient    float32
	DragExponent       float32
	UserForceMagnitude float32

	Radius float32
	Bounds float32

	CursorActive   bool
	CursorPosition common.Vec2
	CursorVelocity common.Vec2
	AppliedForce   common.Vec2
}

// World is a pure-Go mirror of the live particle/beam population this
// package's WGSL kernels operate on. Beam.ParticleA/B are treated as
// direct indices into Particles (the physical-slot addressing spec §3
// describes), not logical IDs — this type never sees a mapping table,
// since it exists purely to make the per-substep kernel math of spec
// §4.3 exercisable without a GPU.
type World struct {
	Particles []layout.Particle
	Beams     []layout.Beam

	// Fractured marks, index-aligned with Beams, set by Step when a
	// beam's strain exceeds its break limit. Mirrors the delete bitmap
	// spec §4.3 describes: fracture is scheduled during the beam pass,
	// not applied until a caller runs Compact.
	Fractured []bool
}

// NewWorld wraps particles and beams for simulation. The slices are
// used directly (not copied); callers that need to retain the original
// values should copy first.
//
// Parameters:
//   - particles: the live particle population, indexed by physical slot
//   - beams: the live beam population, endpoints indexing into particles
//
// Returns:
//   - *World: the wrapped world, ready for Step
func NewWorld(particles []layout.Particle, beams []layout.Beam) *World {
	return &World{
		Particles: particles,
		Beams:     beams,
		Fractured: make([]bool, len(beams)),
	}
}

// Step advances the world by one sub-tick of size dt (spec §4.3: dt =
// 1/subticks). Runs all beam work first (accumulating forces into a
// scratch array), then all particle work (pairwise collision against a
// same-tick snapshot, gravity, drag, user force, beam-force consumption,
// integration, and border collision). The WGSL update kernel does both
// in one dispatch with no ordering between them; this model fixes the
// beam-first order, so every particle consumes every beam force of the
// same sub-tick.
//
// Parameters:
//   - cfg: the physics constants for this tick
//   - dt: the sub-tick time step
func (w *World) Step(cfg Config, dt float32) {
	if len(w.Fractured) != len(w.Beams) {
		w.Fractured = make([]bool, len(w.Beams))
	}

	forces := make([]common.Vec2, len(w.Particles))
	w.beamPass(cfg, forces)
	w.particlePass(cfg, dt, forces)
}

// beamPass computes every beam's spring-damper force, plastic yield,
// and fracture check, and accumulates +-force into forces (spec §4.3
// "Beam pass"). forces plays the role of the i32 fixed-point force
// scratch buffer; this reference implementation accumulates directly
// in float32 since no concurrent GPU lanes are being modeled.
func (w *World) beamPass(cfg Config, forces []common.Vec2) {
	for i := range w.Beams {
		b := &w.Beams[i]
		pa := w.Particles[b.ParticleA]
		pb := w.Particles[b.ParticleB]

		diff := pb.Position.Sub(pa.Position)
		length := diff.Len()
		if length == 0 {
			diff = common.Vec2{0, -1e-10}
			length = diff.Len()
		}
		dir := diff.Mul(1 / length)

		forceMag := (b.TargetLength-length)*b.SpringConstant + (b.LastLength-length)*b.DampingConstant
		forceVec := dir.Mul(forceMag)

		strain := (length - b.TargetLength) / b.OriginalLength
		if absF(strain) > b.YieldStrain {
			b.TargetLength += b.YieldStrain * b.OriginalLength * common.SignF(strain)
		}

		if absF(length-b.OriginalLength) > b.OriginalLength*b.StrainBreakLimit {
			w.Fractured[i] = true
		}

		b.Stress = forceMag * stressScale
		b.Strain = absF(strain) / b.YieldStrain
		b.LastLength = length

		forces[b.ParticleA] = forces[b.ParticleA].Sub(forceVec)
		forces[b.ParticleB] = forces[b.ParticleB].Add(forceVec)
	}
}

// particlePass resolves pairwise collision against a same-tick
// snapshot, applies gravity/drag/user-force/beam-force, integrates
// with semi-implicit Euler, and resolves border collision (spec §4.3
// "Particle pass").
func (w *World) particlePass(cfg Config, dt float32, forces []common.Vec2) {
	snapshot := make([]layout.Particle, len(w.Particles))
	copy(snapshot, w.Particles)

	twoR := 2 * cfg.Radius

	for i := range w.Particles {
		self := snapshot[i]
		v := self.Velocity

		for j := range snapshot {
			if j == i {
				continue
			}
			other := snapshot[j]
			delta := other.Position.Sub(self.Position)
			dist := delta.Len()

			if dist == 0 {
				delta = common.Vec2{0, common.SignF(float32(i - j))}
				dist = absF(delta[1])
			}
			if dist <= 0 || dist >= twoR {
				continue
			}

			n := delta.Mul(1 / dist)
			t := common.Vec2{-n[1], n[0]}

			rel := v.Sub(other.Velocity)
			jn := ((cfg.PairElasticity + 1) / 2) * rel.Dot(n)
			muMax := absF(jn * cfg.PairFriction)
			jt := clampF(rel.Dot(t), -muMax, muMax)

			v = v.Sub(n.Mul(jn)).Sub(t.Mul(jt))
			self.Position = self.Position.Sub(n.Mul((twoR - dist) / 2))
		}

		a := common.Vec2{}
		a = a.Add(cfg.Gravity)

		speed := v.Len()
		if speed > 0 {
			drag := common.Vec2{
				cfg.DragCoefficient * powF(absF(v[0]), cfg.DragExponent) * common.SignF(v[0]),
				cfg.DragCoefficient * powF(absF(v[1]), cfg.DragExponent) * common.SignF(v[1]),
			}
			a = a.Sub(drag)
		}

		a = a.Add(cfg.AppliedForce.Mul(cfg.UserForceMagnitude))
		if cfg.CursorActive {
			if self.Position.Sub(cfg.CursorPosition).Len() < 10*cfg.Radius {
				a = a.Add(cfg.CursorVelocity.Sub(v).Mul(cfg.UserForceMagnitude)).Sub(cfg.Gravity)
			}
		}

		a = a.Add(forces[i])

		v = v.Add(a.Mul(dt))
		self.Position = self.Position.Add(v.Mul(dt))
		a = common.Vec2{}

		lowX, highX := cfg.Radius, cfg.Bounds-cfg.Radius
		if self.Position[0] < lowX {
			self.Position[0] = lowX
			v[1], a[1] = borderBounce(v[1], a[1], cfg.BorderElasticity, cfg.BorderFriction, &v[0])
		} else if self.Position[0] > highX {
			self.Position[0] = highX
			v[1], a[1] = borderBounce(v[1], a[1], cfg.BorderElasticity, cfg.BorderFriction, &v[0])
		}
		lowY, highY := cfg.Radius, cfg.Bounds-cfg.Radius
		if self.Position[1] < lowY {
			self.Position[1] = lowY
			v[0], a[0] = borderBounce(v[0], a[0], cfg.BorderElasticity, cfg.BorderFriction, &v[1])
		} else if self.Position[1] > highY {
			self.Position[1] = highY
			v[0], a[0] = borderBounce(v[0], a[0], cfg.BorderElasticity, cfg.BorderFriction, &v[1])
		}

		self.Velocity = v
		self.Acceleration = a
		w.Particles[i] = self
	}
}

// borderBounce negates *clampedAxisVel by elasticity (the axis that hit
// the border) and returns a friction term for the orthogonal
// acceleration axis, clamped via min so friction only ever opposes
// motion rather than amplifying it (spec §4.3, §9: "Friction on border
// is applied to the orthogonal acceleration axis... clamped with min(),
// unusual and preserved as-is").
func borderBounce(orthVel, orthAccel, elasticity, friction float32, clampedAxisVel *float32) (newOrthVel, newOrthAccel float32) {
	*clampedAxisVel = -*clampedAxisVel * elasticity
	frictionImpulse := minF(absF(orthVel)*friction, absF(orthAccel)+absF(orthVel)*friction)
	return orthVel, orthAccel - frictionImpulse*common.SignF(orthVel)
}

// Compact removes every beam marked in Fractured, mirroring the delete-compaction
// pass's effect on a mapping table (spec §4.3 "Delete pass") at the
// level of this reference model: no physical slots move, only which
// beams are considered live changes.
//
// Returns:
//   - int: the number of beams removed
func (w *World) Compact() int {
	live := w.Beams[:0]
	liveFrac := w.Fractured[:0]
	removed := 0
	for i, b := range w.Beams {
		if w.Fractured[i] {
			removed++
			continue
		}
		live = append(live, b)
		liveFrac = append(liveFrac, false)
	}
	w.Beams = live
	w.Fractured = liveFrac
	return removed
}

func absF(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func minF(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func clampF(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func powF(base, exp float32) float32 {
	return float32(math.Pow(float64(base), float64(exp)))
}
