package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/oxy-softbody/softbody/errs"
)

func TestIsMatchesKind(t *testing.T) {
	err := errs.New(errs.CapacityExceeded, "snapshot too large")
	if !errs.Is(err, errs.CapacityExceeded) {
		t.Errorf("expected Is to match CapacityExceeded")
	}
	if errs.Is(err, errs.Transient) {
		t.Errorf("expected Is not to match Transient")
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := fmt.Errorf("adapter missing")
	err := errs.Wrap(errs.UnsupportedDevice, "no GPU available", cause)

	if !errors.Is(err, cause) {
		t.Errorf("expected errors.Is to find the wrapped cause")
	}
	if got := err.Error(); got == "" {
		t.Errorf("expected non-empty error message")
	}
}

func TestErrorsIsWithSentinel(t *testing.T) {
	a := errs.New(errs.DeviceLost, "device lost during submit")
	b := errs.New(errs.DeviceLost, "")

	if !errors.Is(a, b) {
		t.Errorf("expected two DeviceLost errors to compare equal via Is")
	}
}
