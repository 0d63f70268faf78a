package scenestore

import "github.com/oxy-softbody/softbody/layout"

// WriteState compacts the store into the packed device buffers,
// assigning each live particle and beam a sequential physical slot in
// insertion order (spec §4.2). particleBuf and beamBuf must be at
// least MaxParticles*layout.ParticleStride and
// MaxBeams*layout.BeamStride bytes respectively; the returned Mapping
// values are sized to the store's configured capacities and index by
// the fresh logical IDs assigned here (position within insertion
// order), not by the caller's original IDs — those are not guaranteed
// stable across a write/load cycle.
//
// Parameters:
//   - particleBuf: the destination particle buffer bytes
//   - beamBuf: the destination beam buffer bytes
//
// Returns:
//   - layout.Mapping: the particle mapping table (logical -> physical slot)
//   - layout.Mapping: the beam mapping table (logical -> physical slot)
//   - int: the live particle count
//   - int: the live beam count
func (s *Store) WriteState(particleBuf, beamBuf []byte) (layout.Mapping, layout.Mapping, int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	particleMapping := layout.NewMapping(s.maxParticles)
	beamMapping := layout.NewMapping(s.maxBeams)

	for slot, id := range s.particleOrder {
		layout.WriteParticle(particleBuf, slot, s.particles[id])
		// Physical slot assignment is identity over insertion order, so
		// the particle mapping doubles as the translation WriteBeam needs
		// below (it takes a Mapping from logical ID to physical slot, and
		// here logical ID *is* the slot).
		particleMapping.Assign(slot, uint16(slot))
	}

	for slot, id := range s.beamOrder {
		b := s.beams[id]
		b.ParticleA = logicalSlotOf(s.particleOrder, b.ParticleA)
		b.ParticleB = logicalSlotOf(s.particleOrder, b.ParticleB)
		layout.WriteBeam(beamBuf, slot, b, particleMapping)
		beamMapping.Assign(slot, uint16(slot))
	}

	return particleMapping, beamMapping, len(s.particleOrder), len(s.beamOrder)
}

// logicalSlotOf returns the position of id within order.
func logicalSlotOf(order []int, id int) int {
	for slot, v := range order {
		if v == id {
			return slot
		}
	}
	return -1
}

// LoadState rebuilds the store's maps from packed device buffers,
// assigning fresh sequential logical IDs (0..count-1) in physical-slot
// order for both particles and beams (spec §4.2). Any existing store
// contents are discarded.
//
// Parameters:
//   - particleBuf: the source particle buffer bytes
//   - particleMapping: the particle mapping table (logical -> physical slot)
//   - particleCount: the number of live particles
//   - beamBuf: the source beam buffer bytes
//   - beamMapping: the beam mapping table (logical -> physical beam slot)
//   - beamCount: the number of live beams
func (s *Store) LoadState(particleBuf []byte, particleMapping layout.Mapping, particleCount int, beamBuf []byte, beamMapping layout.Mapping, beamCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.particles = make(map[int]layout.Particle, particleCount)
	s.beams = make(map[int]layout.Beam, beamCount)
	s.particleBeams = make(map[int]map[int]struct{}, particleCount)
	s.particleOrder = make([]int, 0, particleCount)
	s.beamOrder = make([]int, 0, beamCount)

	for logicalID := 0; logicalID < particleCount; logicalID++ {
		slot, ok := particleMapping.PhysicalSlot(logicalID)
		if !ok {
			continue
		}
		s.particles[logicalID] = layout.ReadParticle(particleBuf, int(slot))
		s.particleOrder = append(s.particleOrder, logicalID)
		s.particleBeams[logicalID] = make(map[int]struct{})
	}

	for beamID := 0; beamID < beamCount; beamID++ {
		physSlot, ok := beamMapping.PhysicalSlot(beamID)
		if !ok {
			continue
		}
		b, ok := layout.ReadBeam(beamBuf, int(physSlot), particleMapping)
		if !ok {
			continue
		}
		s.beams[beamID] = b
		s.beamOrder = append(s.beamOrder, beamID)
		s.particleBeams[b.ParticleA][beamID] = struct{}{}
		s.particleBeams[b.ParticleB][beamID] = struct{}{}
	}
}
