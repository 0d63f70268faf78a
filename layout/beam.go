package layout

// BeamStride is the byte size of one packed Beam record: a packed u32
// of the two endpoint physical slots, followed by nine f32 fields
// (spec §3: the stated 40-byte stride only reconciles with 4 + 9*4,
// not 4 + 8*4, so nine fields is what this codec implements).
const BeamStride = 40

// Beam field byte offsets within one BeamStride-sized record.
const (
	beamOffsetSlots            = 0
	beamOffsetOriginalLength   = 4
	beamOffsetTargetLength     = 8
	beamOffsetLastLength       = 12
	beamOffsetSpringConstant   = 16
	beamOffsetDampingConstant  = 20
	beamOffsetYieldStrain      = 24
	beamOffsetStrainBreakLimit = 28
	beamOffsetStrain           = 32
	beamOffsetStress           = 36
)

// Beam is the host-side value form of a packed beam record, addressed
// by the logical IDs of the two particles it connects. Physical slots
// are a codec-time detail resolved via a Mapping.
type Beam struct {
	ParticleA int
	ParticleB int

	OriginalLength   float32
	TargetLength     float32
	LastLength       float32
	SpringConstant   float32
	DampingConstant  float32
	YieldStrain      float32
	StrainBreakLimit float32
	Strain           float32
	Stress           float32
}

// WriteBeam encodes b into buf at the given physical beam slot,
// translating b's logical particle endpoints to physical slots via m.
// buf must be at least (slot+1)*BeamStride bytes long.
//
// Parameters:
//   - buf: the destination beam buffer bytes
//   - slot: the physical beam slot index to write into
//   - b: the beam value to encode
//   - m: the particle mapping table used to translate endpoints
//
// Returns:
//   - bool: false if either endpoint is not currently live in m
func WriteBeam(buf []byte, slot int, b Beam, m Mapping) bool {
	slotA, okA := m.PhysicalSlot(b.ParticleA)
	slotB, okB := m.PhysicalSlot(b.ParticleB)
	if !okA || !okB {
		return false
	}

	base := slot * BeamStride
	putU16(buf, beamOffsetSlots+base, uint16(slotA))
	putU16(buf, beamOffsetSlots+base+2, uint16(slotB))
	putF32(buf, base+beamOffsetOriginalLength, b.OriginalLength)
	putF32(buf, base+beamOffsetTargetLength, b.TargetLength)
	putF32(buf, base+beamOffsetLastLength, b.LastLength)
	putF32(buf, base+beamOffsetSpringConstant, b.SpringConstant)
	putF32(buf, base+beamOffsetDampingConstant, b.DampingConstant)
	putF32(buf, base+beamOffsetYieldStrain, b.YieldStrain)
	putF32(buf, base+beamOffsetStrainBreakLimit, b.StrainBreakLimit)
	putF32(buf, base+beamOffsetStrain, b.Strain)
	putF32(buf, base+beamOffsetStress, b.Stress)
	return true
}

// ReadBeam decodes the beam at the given physical slot from buf,
// reconstructing logical particle endpoints by scanning m.
//
// Parameters:
//   - buf: the source beam buffer bytes
//   - slot: the physical beam slot index to read from
//   - m: the particle mapping table used to recover logical endpoints
//
// Returns:
//   - Beam: the decoded beam value
//   - bool: false if either endpoint's physical slot has no logical owner in m
func ReadBeam(buf []byte, slot int, m Mapping) (Beam, bool) {
	base := slot * BeamStride
	physA := getU16(buf, beamOffsetSlots+base)
	physB := getU16(buf, beamOffsetSlots+base+2)

	idA, okA := m.LogicalID(physA)
	idB, okB := m.LogicalID(physB)
	if !okA || !okB {
		return Beam{}, false
	}

	return Beam{
		ParticleA:        idA,
		ParticleB:        idB,
		OriginalLength:   getF32(buf, base+beamOffsetOriginalLength),
		TargetLength:     getF32(buf, base+beamOffsetTargetLength),
		LastLength:       getF32(buf, base+beamOffsetLastLength),
		SpringConstant:   getF32(buf, base+beamOffsetSpringConstant),
		DampingConstant:  getF32(buf, base+beamOffsetDampingConstant),
		YieldStrain:      getF32(buf, base+beamOffsetYieldStrain),
		StrainBreakLimit: getF32(buf, base+beamOffsetStrainBreakLimit),
		Strain:           getF32(buf, base+beamOffsetStrain),
		Stress:           getF32(buf, base+beamOffsetStress),
	}, true
}

// PhysicalEndpoints returns the raw physical slot pair packed into the
// beam record at the given slot, without consulting a Mapping. Used by
// the delete-compaction pass, which only needs to relocate physical
// references and never resolves logical IDs.
//
// Parameters:
//   - buf: the source beam buffer bytes
//   - slot: the physical beam slot index to read from
//
// Returns:
//   - uint16: particle A's physical slot
//   - uint16: particle B's physical slot
func PhysicalEndpoints(buf []byte, slot int) (uint16, uint16) {
	base := slot * BeamStride
	return getU16(buf, beamOffsetSlots+base), getU16(buf, beamOffsetSlots+base+2)
}
