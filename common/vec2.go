package common

import "github.com/go-gl/mathgl/mgl32"

// Vec2 is a 2D single-precision vector, used throughout the host-side
// engine for particle position/velocity/acceleration, cursor coordinates,
// and applied forces. It is a thin wrapper over mgl32.Vec2 rather than a
// hand-rolled type, so host-side vector math (Add, Sub, Len, Normalize)
// comes from the ecosystem rather than being reimplemented.
type Vec2 = mgl32.Vec2

// Eq returns true if a and b are exactly equal in both components.
//
// Parameters:
//   - a: first vector
//   - b: second vector
//
// Returns:
//   - bool: true if a == b component-wise
func Eq(a, b Vec2) bool {
	return a[0] == b[0] && a[1] == b[1]
}

// Aeq (~=) almost-equals returns true if a and b are within eps of each
// other in both components. Used where a direct float comparison would
// spuriously fail.
//
// Parameters:
//   - a: first vector
//   - b: second vector
//   - eps: per-component tolerance
//
// Returns:
//   - bool: true if a and b are within eps of each other
func Aeq(a, b Vec2, eps float32) bool {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx <= eps && dy <= eps
}

// SignF returns -1, 0, or 1 depending on the sign of v.
//
// Parameters:
//   - v: the value to inspect
//
// Returns:
//   - float32: -1 if v < 0, 1 if v > 0, 0 if v == 0
func SignF(v float32) float32 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
