package main

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/hellhand/koengine/internal/config"
	"github.com/hellhand/koengine/internal/platform"
	"github.com/hellhand/koengine/renderer"
	"github.com/hellhand/koengine/renderer/vulkan"
)

// surface is the part of the window the loop reads.
type surface interface {
	FramebufferSize() (width, height uint32)
	ShouldClose() bool
	SetTitle(title string)
}

// frontend is the part of the renderer frontend the loop drives.
type frontend interface {
	DrawFrame(p *renderer.Packet) error
	OnResized(width, height uint32)
	FPS() float64
}

type app struct {
	cfg     config.Config
	win     surface
	front   frontend
	backend *vulkan.Backend
	log     *slog.Logger

	suspended bool
	elapsed   float64
}

func newApp(cfg config.Config, win *platform.Window, front *renderer.Frontend, backend *vulkan.Backend, log *slog.Logger) *app {
	a := &app{cfg: cfg, win: win, front: front, backend: backend, log: log}
	win.OnResize(a.onResize)
	win.OnIconify(a.onIconify)
	return a
}

// onIconify suspends the loop on minimize. On restore the framebuffer size
// is read again, since some platforms send no resize event when it did not
// change.
func (a *app) onIconify(iconified bool) {
	if iconified {
		a.suspend()
		return
	}
	a.onResize(a.win.FramebufferSize())
}

// onResize suspends the loop while the window has no area and forwards
// every usable size to the renderer.
func (a *app) onResize(width, height uint32) {
	if width == 0 || height == 0 {
		a.suspend()
		return
	}
	if a.suspended {
		a.log.Info("window restored, resuming")
		a.suspended = false
	}
	a.front.OnResized(width, height)
}

func (a *app) suspend() {
	if !a.suspended {
		a.log.Info("window minimized, suspending")
		a.suspended = true
	}
}

func (a *app) loop() error {
	last := time.Now()
	lastTitle := last
	budget := frameBudget(a.cfg.App.TargetFPS)

	for !a.win.ShouldClose() {
		if a.suspended {
			platform.WaitEvents(0.1)
			last = time.Now()
			continue
		}
		platform.PollEvents()

		start := time.Now()
		dt := start.Sub(last).Seconds()
		last = start
		a.elapsed += dt

		a.backend.SetClearColor(pulse(mgl32.Vec4(a.cfg.Renderer.ClearColor), a.elapsed))
		if err := a.front.DrawFrame(&renderer.Packet{DeltaTime: dt}); err != nil {
			return err
		}

		if start.Sub(lastTitle) >= time.Second {
			a.win.SetTitle(fmt.Sprintf("%s - %.0f FPS", a.cfg.App.Name, a.front.FPS()))
			lastTitle = start
		}

		if a.cfg.App.LimitFrames {
			if rest := remaining(budget, time.Since(start)); rest > 0 {
				time.Sleep(rest)
			}
		}
	}
	return nil
}

// pulse brightens and darkens base over a four second period, keeping
// alpha.
func pulse(base mgl32.Vec4, seconds float64) mgl32.Vec4 {
	k := float32(0.75 + 0.25*math.Sin(seconds*math.Pi/2))
	rgb := base.Vec3().Mul(k)
	return rgb.Vec4(base.W())
}

func frameBudget(targetFPS int) time.Duration {
	if targetFPS <= 0 {
		return 0
	}
	return time.Second / time.Duration(targetFPS)
}

func remaining(budget, spent time.Duration) time.Duration {
	if budget <= spent {
		return 0
	}
	return budget - spent
}
