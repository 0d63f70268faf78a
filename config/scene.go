package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/oxy-softbody/softbody/common"
	"github.com/oxy-softbody/softbody/errs"
	"github.com/oxy-softbody/softbody/layout"
	"github.com/oxy-softbody/softbody/scenestore"
)

// SceneFile is the on-disk, human-authored description of a starting
// scene (spec §4.2's initial-population load path): a physics constants
// block plus explicit particle and beam lists, keyed by the yaml tags
// below so a scene author edits plain numbers rather than packed binary
// records. The string-keyed, tag-driven shape follows
// gazed-vu/load/shd.go's shaderConfig, generalized from shader stage
// descriptions to particle/beam descriptions.
type SceneFile struct {
	Physics  scenePhysics    `yaml:"physics"`
	Particle []sceneParticle `yaml:"particles"`
	Beam     []sceneBeam     `yaml:"beams"`
}

type scenePhysics struct {
	Gravity            [2]float32 `yaml:"gravity"`
	BorderElasticity   float32    `yaml:"border_elasticity"`
	BorderFriction     float32    `yaml:"border_friction"`
	PairElasticity     float32    `yaml:"pair_elasticity"`
	PairFriction       float32    `yaml:"pair_friction"`
	DragCoefficient    float32    `yaml:"drag_coefficient"`
	DragExponent       float32    `yaml:"drag_exponent"`
	UserForceMagnitude float32    `yaml:"user_force_magnitude"`
}

type sceneParticle struct {
	ID       int        `yaml:"id"`
	Position [2]float32 `yaml:"position"`
	Velocity [2]float32 `yaml:"velocity"`
}

type sceneBeam struct {
	ID               int     `yaml:"id"`
	ParticleA        int     `yaml:"particle_a"`
	ParticleB        int     `yaml:"particle_b"`
	TargetLength     float32 `yaml:"target_length"`
	SpringConstant   float32 `yaml:"spring_constant"`
	DampingConstant  float32 `yaml:"damping_constant"`
	YieldStrain      float32 `yaml:"yield_strain"`
	StrainBreakLimit float32 `yaml:"strain_break_limit"`
}

// LoadSceneFile reads and parses a yaml scene description from path.
//
// Parameters:
//   - path: the filesystem path to the yaml scene file
//
// Returns:
//   - *SceneFile: the parsed scene description
//   - error: an *errs.Error (InvalidConfiguration) wrapping any read or
//     yaml-decode failure
func LoadSceneFile(path string) (*SceneFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidConfiguration, "read scene file", err)
	}

	var sf SceneFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, errs.Wrap(errs.InvalidConfiguration, "parse scene file", err)
	}
	return &sf, nil
}

// PhysicsConstants converts the scene file's physics block into a
// PhysicsConstants value.
func (sf *SceneFile) PhysicsConstants() PhysicsConstants {
	p := sf.Physics
	return PhysicsConstants{
		Gravity:            common.Vec2{p.Gravity[0], p.Gravity[1]},
		BorderElasticity:   p.BorderElasticity,
		BorderFriction:     p.BorderFriction,
		PairElasticity:     p.PairElasticity,
		PairFriction:       p.PairFriction,
		DragCoefficient:    p.DragCoefficient,
		DragExponent:       p.DragExponent,
		UserForceMagnitude: p.UserForceMagnitude,
	}
}

// Store builds a populated scenestore.Store from the scene file's
// particle and beam lists, sized to opts' capacities. Beams referencing
// a particle ID absent from the particle list fail the same way a live
// edit would (scenestore.AddBeam's InvalidConfiguration), since a scene
// file is just a recorded sequence of the same Add calls an interactive
// session would make.
//
// Parameters:
//   - opts: the engine options supplying the store's capacities
//
// Returns:
//   - *scenestore.Store: the populated store
//   - error: the first AddParticle/AddBeam failure encountered, wrapped
//     with the offending scene-file entry's ID
func (sf *SceneFile) Store(opts EngineOptions) (*scenestore.Store, error) {
	store := scenestore.NewStore(int(opts.MaxParticles), int(opts.MaxBeams))

	for _, p := range sf.Particle {
		particle := layout.Particle{
			Position: common.Vec2{p.Position[0], p.Position[1]},
			Velocity: common.Vec2{p.Velocity[0], p.Velocity[1]},
		}
		if err := store.AddParticle(p.ID, particle); err != nil {
			return nil, fmt.Errorf("config: scene particle %d: %w", p.ID, err)
		}
	}

	for _, b := range sf.Beam {
		beam := layout.Beam{
			ParticleA:        b.ParticleA,
			ParticleB:        b.ParticleB,
			OriginalLength:   b.TargetLength,
			TargetLength:     b.TargetLength,
			LastLength:       b.TargetLength,
			SpringConstant:   b.SpringConstant,
			DampingConstant:  b.DampingConstant,
			YieldStrain:      b.YieldStrain,
			StrainBreakLimit: b.StrainBreakLimit,
		}
		if err := store.AddBeam(b.ID, beam); err != nil {
			return nil, fmt.Errorf("config: scene beam %d: %w", b.ID, err)
		}
	}

	return store, nil
}
