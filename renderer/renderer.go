// Package renderer is the frontend that drives a rendering backend once per
// tick.
//
// A backend exposes a two-call contract: BeginFrame prepares a frame for
// recording and EndFrame submits and presents it. Transient failures (a
// minimized window, an out-of-date surface, a swapchain being rebuilt) are
// reported by wrapping ErrNotReady; the frontend skips that tick and the
// host simply calls again next tick. Any other error is fatal to the
// renderer.
package renderer

import "errors"

// ErrNotReady means the backend cannot render this tick. It is never fatal.
var ErrNotReady = errors.New("renderer: frame not ready")

// IsTransient reports whether err only skips the current frame.
func IsTransient(err error) bool {
	return errors.Is(err, ErrNotReady)
}

// Backend is implemented by the graphics API backends.
type Backend interface {
	// OnResized records a new drawable size. It performs no GPU work; the
	// next BeginFrame rebuilds size-dependent resources.
	OnResized(width, height uint32)

	// BeginFrame waits for a free frame slot, acquires the next image and
	// starts recording.
	BeginFrame(deltaTime float64) error

	// EndFrame finishes recording, submits and presents the frame.
	EndFrame(deltaTime float64) error

	// Shutdown waits for the device to go idle and releases every resource
	// in reverse creation order.
	Shutdown()
}

// Packet carries the per-tick data handed to the renderer.
type Packet struct {
	DeltaTime float64

	// Draw, when set, is called between BeginFrame and EndFrame to record
	// the frame's draw commands.
	Draw func(deltaTime float64) error
}
