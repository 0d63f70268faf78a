package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
//
// Only the keys for the keyboard-directed body force (spec §3 "applied
// keyboard force") and for quitting the demo shell are kept. No package
// in this module references these constants; the demo window binds
// Escape through glfw.KeyEscape directly.
const (
	KeyW   = 87  // W key (ASCII) — up
	KeyA   = 65  // A key (ASCII) — left
	KeyS   = 83  // S key (ASCII) — down
	KeyD   = 68  // D key (ASCII) — right
	KeyEsc = 256 // Escape key (GLFW) — quit demo shell

	KeyUp    = 265 // Up arrow (GLFW)
	KeyDown  = 264 // Down arrow (GLFW)
	KeyLeft  = 263 // Left arrow (GLFW)
	KeyRight = 262 // Right arrow (GLFW)
)
