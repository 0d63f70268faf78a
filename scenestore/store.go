// Package scenestore implements the host-side editing registry for
// particles and beams (spec §3, §4.2): an in-memory map-keyed-by-ID
// store used while a scene is being authored, compacted into the
// packed device buffers on write and rebuilt from them on load. The
// registry-by-ID shape (map plus a monotonic ID counter, guarded by a
// single RWMutex) follows the teacher's scene registry in
// engine/scene/scene.go, generalized from GameObjects to particles and
// beams.
package scenestore

import (
	"sort"
	"sync"

	"github.com/oxy-softbody/softbody/errs"
	"github.com/oxy-softbody/softbody/layout"
)

// Store holds ParticleId -> Particle and BeamId -> Beam, plus a
// ParticleId -> attached-beam-set index for O(1) cascade removal.
// IDs are stable for the lifetime of an editing session but are not
// guaranteed stable across a WriteState/LoadState cycle (spec §4.2):
// WriteState assigns physical slots by insertion order, and LoadState
// reconstructs fresh sequential logical IDs from whatever is live in
// the packed buffers at load time.
type Store struct {
	mu sync.RWMutex

	particles map[int]layout.Particle
	beams     map[int]layout.Beam

	particleOrder []int // insertion order, for WriteState slot assignment
	beamOrder     []int

	particleBeams map[int]map[int]struct{} // particle id -> attached beam ids

	maxParticles int
	maxBeams     int
}

// NewStore creates an empty Store with the given device capacities.
//
// Parameters:
//   - maxParticles: the maximum number of live particles this store accepts
//   - maxBeams: the maximum number of live beams this store accepts
//
// Returns:
//   - *Store: the newly created, empty store
func NewStore(maxParticles, maxBeams int) *Store {
	return &Store{
		particles:     make(map[int]layout.Particle),
		beams:         make(map[int]layout.Beam),
		particleBeams: make(map[int]map[int]struct{}),
		maxParticles:  maxParticles,
		maxBeams:      maxBeams,
	}
}

// AddParticle inserts a new particle under id. Fails if id is already
// in use or the store is at capacity.
//
// Parameters:
//   - id: the logical particle ID to insert under
//   - p: the particle value
//
// Returns:
//   - error: an *errs.Error (InvalidConfiguration on duplicate ID,
//     CapacityExceeded at the device limit) or nil on success
func (s *Store) AddParticle(id int, p layout.Particle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.particles[id]; exists {
		return errs.New(errs.InvalidConfiguration, "particle id already in use")
	}
	if len(s.particles) >= s.maxParticles {
		return errs.New(errs.CapacityExceeded, "particle capacity exhausted")
	}

	s.particles[id] = p
	s.particleOrder = append(s.particleOrder, id)
	s.particleBeams[id] = make(map[int]struct{})
	return nil
}

// AddBeam inserts a new beam under id, connecting two existing live
// particles. Fails if id is already in use, the store is at capacity,
// or either endpoint is not a live particle.
//
// Parameters:
//   - id: the logical beam ID to insert under
//   - b: the beam value; b.ParticleA/b.ParticleB must be live particle IDs
//
// Returns:
//   - error: an *errs.Error (InvalidConfiguration on duplicate ID or a
//     missing endpoint, CapacityExceeded at the device limit) or nil
func (s *Store) AddBeam(id int, b layout.Beam) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.beams[id]; exists {
		return errs.New(errs.InvalidConfiguration, "beam id already in use")
	}
	if len(s.beams) >= s.maxBeams {
		return errs.New(errs.CapacityExceeded, "beam capacity exhausted")
	}
	if _, ok := s.particles[b.ParticleA]; !ok {
		return errs.New(errs.InvalidConfiguration, "beam endpoint A is not a live particle")
	}
	if _, ok := s.particles[b.ParticleB]; !ok {
		return errs.New(errs.InvalidConfiguration, "beam endpoint B is not a live particle")
	}

	s.beams[id] = b
	s.beamOrder = append(s.beamOrder, id)
	s.particleBeams[b.ParticleA][id] = struct{}{}
	s.particleBeams[b.ParticleB][id] = struct{}{}
	return nil
}

// RemoveParticle removes the particle at id along with every beam
// attached to it. A no-op if id is not present.
//
// Parameters:
//   - id: the logical particle ID to remove
func (s *Store) RemoveParticle(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.particles[id]; !exists {
		return
	}

	for beamID := range s.particleBeams[id] {
		s.removeBeamLocked(beamID)
	}

	delete(s.particles, id)
	delete(s.particleBeams, id)
	s.particleOrder = removeInt(s.particleOrder, id)
}

// RemoveBeam removes the beam at id. A no-op if id is not present.
//
// Parameters:
//   - id: the logical beam ID to remove
func (s *Store) RemoveBeam(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeBeamLocked(id)
}

// removeBeamLocked removes beam id, unlinking it from both endpoints'
// attached-beam sets. Caller must hold s.mu.
func (s *Store) removeBeamLocked(id int) {
	b, exists := s.beams[id]
	if !exists {
		return
	}
	if set, ok := s.particleBeams[b.ParticleA]; ok {
		delete(set, id)
	}
	if set, ok := s.particleBeams[b.ParticleB]; ok {
		delete(set, id)
	}
	delete(s.beams, id)
	s.beamOrder = removeInt(s.beamOrder, id)
}

// FindParticle looks up the particle at id.
//
// Parameters:
//   - id: the logical particle ID
//
// Returns:
//   - layout.Particle: the particle value, valid only if ok is true
//   - bool: true if id is live
func (s *Store) FindParticle(id int) (layout.Particle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.particles[id]
	return p, ok
}

// FindBeam looks up the beam at id.
//
// Parameters:
//   - id: the logical beam ID
//
// Returns:
//   - layout.Beam: the beam value, valid only if ok is true
//   - bool: true if id is live
func (s *Store) FindBeam(id int) (layout.Beam, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.beams[id]
	return b, ok
}

// ListParticles returns every live particle ID in insertion order.
//
// Returns:
//   - []int: live particle IDs, insertion order
func (s *Store) ListParticles() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int, len(s.particleOrder))
	copy(out, s.particleOrder)
	return out
}

// ListBeams returns every live beam ID in insertion order.
//
// Returns:
//   - []int: live beam IDs, insertion order
func (s *Store) ListBeams() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int, len(s.beamOrder))
	copy(out, s.beamOrder)
	return out
}

// BeamsAttachedTo returns the IDs of every beam with an endpoint at
// particle id, sorted for deterministic iteration.
//
// Parameters:
//   - id: the logical particle ID
//
// Returns:
//   - []int: attached beam IDs, sorted ascending
func (s *Store) BeamsAttachedTo(id int) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.particleBeams[id]
	out := make([]int, 0, len(set))
	for beamID := range set {
		out = append(out, beamID)
	}
	sort.Ints(out)
	return out
}

// FirstEmptyParticleID returns the smallest non-negative logical
// particle ID not currently in use.
//
// Returns:
//   - int: the first free particle ID
func (s *Store) FirstEmptyParticleID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return firstEmpty(s.particles)
}

// FirstEmptyBeamID returns the smallest non-negative logical beam ID
// not currently in use.
//
// Returns:
//   - int: the first free beam ID
func (s *Store) FirstEmptyBeamID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return firstEmpty(s.beams)
}

// firstEmpty returns the smallest non-negative int key not present in m.
func firstEmpty[V any](m map[int]V) int {
	for i := 0; ; i++ {
		if _, exists := m[i]; !exists {
			return i
		}
	}
}

// removeInt returns order with the first occurrence of id removed.
func removeInt(order []int, id int) []int {
	for i, v := range order {
		if v == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}
