package renderer

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hellhand/koengine/internal/logging"
)

// Frontend owns a Backend and runs one frame per DrawFrame call.
type Frontend struct {
	backend Backend
	log     *slog.Logger
	stats   Stats

	frames  uint64
	skipped uint64
}

// NewFrontend wraps backend. log may be nil.
func NewFrontend(backend Backend, log *slog.Logger) *Frontend {
	return &Frontend{
		backend: backend,
		log:     logging.OrNop(log),
		stats:   Stats{lastTime: time.Now()},
	}
}

// DrawFrame renders one frame. A transient backend failure skips the frame
// and returns nil; any other failure is returned and the caller should shut
// the renderer down.
func (f *Frontend) DrawFrame(p *Packet) error {
	if err := f.backend.BeginFrame(p.DeltaTime); err != nil {
		if IsTransient(err) {
			f.skip(err)
			return nil
		}
		logging.Fatal(f.log, "begin frame failed", "err", err)
		return fmt.Errorf("begin frame: %w", err)
	}

	if p.Draw != nil {
		if err := p.Draw(p.DeltaTime); err != nil {
			// The frame is still ended so the backend returns to idle.
			if endErr := f.backend.EndFrame(p.DeltaTime); endErr != nil && !IsTransient(endErr) {
				f.log.Error("end frame after draw failure", "err", endErr)
			}
			return fmt.Errorf("draw: %w", err)
		}
	}

	if err := f.backend.EndFrame(p.DeltaTime); err != nil {
		if IsTransient(err) {
			f.skip(err)
			return nil
		}
		logging.Fatal(f.log, "end frame failed", "err", err)
		return fmt.Errorf("end frame: %w", err)
	}

	f.frames++
	f.stats.frame(time.Now())
	return nil
}

func (f *Frontend) skip(err error) {
	f.skipped++
	f.log.Debug("frame skipped", "reason", err)
}

// OnResized forwards a drawable size change to the backend.
func (f *Frontend) OnResized(width, height uint32) {
	f.log.Debug("renderer resized", "width", width, "height", height)
	f.backend.OnResized(width, height)
}

// Frames returns the number of presented frames.
func (f *Frontend) Frames() uint64 { return f.frames }

// Skipped returns the number of frames skipped by transient failures.
func (f *Frontend) Skipped() uint64 { return f.skipped }

// FPS returns the frame rate measured over the last full second.
func (f *Frontend) FPS() float64 { return f.stats.fps }

// Shutdown shuts the backend down.
func (f *Frontend) Shutdown() {
	f.log.Info("renderer shutting down", "frames", f.frames, "skipped", f.skipped)
	f.backend.Shutdown()
}
