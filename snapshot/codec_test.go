// Tests live in the internal package, not snapshot_test, because Save
// and Load are inherently device-coupled (spec.md §4.6's stage-copy/map
// round trip needs a real GPU) and the only way to exercise the framing
// logic without one is to reach the unexported header/slab helpers
// directly — the same internal-test-package convention
// Gekko3D-gekko's own GPU-adjacent packages use for the same reason.
package snapshot

import (
	"testing"

	"github.com/oxy-softbody/softbody/common"
	"github.com/oxy-softbody/softbody/device"
	"github.com/oxy-softbody/softbody/errs"
	"github.com/oxy-softbody/softbody/layout"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := header{constantsSize: constantsSlabSize, particleCount: 12, beamCount: 7}
	got, err := decodeHeader(h.encode())
	if err != nil {
		t.Fatalf("decodeHeader: %v", err)
	}
	if got != h {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, h)
	}
}

func TestDecodeHeaderRejectsTruncatedInput(t *testing.T) {
	_, err := decodeHeader([]byte{1, 2, 3})
	if !errs.Is(err, errs.InvalidConfiguration) {
		t.Fatalf("expected InvalidConfiguration, got %v", err)
	}
}

func TestConstantsSlabRoundTrip(t *testing.T) {
	want := layout.Metadata{
		Gravity:          common.Vec2{0, 98},
		BorderElasticity: 0.6,
		BorderFriction:   0.3,
		PairElasticity:   0.5,
		PairFriction:     0.2,
		DragCoefficient:  0.02,
		DragExponent:     2,
		// fields outside the slab must survive untouched by applyConstantsSlab
		UserForceMagnitude: 5000,
		MaxParticles:       4096,
	}
	slab := encodeConstantsSlab(want)
	if len(slab) != constantsSlabSize {
		t.Fatalf("expected slab of %d bytes, got %d", constantsSlabSize, len(slab))
	}

	got := layout.Metadata{UserForceMagnitude: 5000, MaxParticles: 4096}
	applyConstantsSlab(slab, &got)

	if got.Gravity != want.Gravity || got.BorderElasticity != want.BorderElasticity ||
		got.BorderFriction != want.BorderFriction || got.PairElasticity != want.PairElasticity ||
		got.PairFriction != want.PairFriction || got.DragCoefficient != want.DragCoefficient ||
		got.DragExponent != want.DragExponent {
		t.Errorf("constants slab round trip mismatch: got %+v, want %+v", got, want)
	}
	if got.UserForceMagnitude != 5000 || got.MaxParticles != 4096 {
		t.Errorf("applyConstantsSlab must not touch fields outside the slab, got %+v", got)
	}
}

func TestLoadRejectsCapacityExceededBeforeTouchingDevice(t *testing.T) {
	buffers := &device.Buffers{MaxParticles: 10, MaxBeams: 10}
	h := header{constantsSize: constantsSlabSize, particleCount: 11, beamCount: 0}
	data := append(h.encode(), make([]byte, constantsSlabSize)...)

	// dev is deliberately nil: the capacity check must reject this
	// snapshot before Load ever dereferences the device.
	err := Load(nil, buffers, data)
	if !errs.Is(err, errs.CapacityExceeded) {
		t.Fatalf("expected CapacityExceeded, got %v", err)
	}
}

func TestLoadRejectsTruncatedPayload(t *testing.T) {
	buffers := &device.Buffers{MaxParticles: 10, MaxBeams: 10}
	h := header{constantsSize: constantsSlabSize, particleCount: 1, beamCount: 0}
	data := h.encode() // missing the constants slab and particle sections

	err := Load(nil, buffers, data)
	if !errs.Is(err, errs.InvalidConfiguration) {
		t.Fatalf("expected InvalidConfiguration, got %v", err)
	}
}
