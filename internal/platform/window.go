// Package platform owns the GLFW window the renderer presents to. GLFW
// must be driven from the main OS thread.
package platform

import (
	"errors"
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/vulkan-go/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"

	"github.com/hellhand/koengine/internal/logging"
)

// Init initializes GLFW. Call Terminate once every window is destroyed.
func Init() error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("init glfw: %w", err)
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return errors.New("init glfw: Vulkan loader not found")
	}
	return nil
}

func Terminate() { glfw.Terminate() }

// PollEvents processes pending window events and returns.
func PollEvents() { glfw.PollEvents() }

// WaitEvents blocks until at least one event arrives or timeout seconds
// pass.
func WaitEvents(timeout float64) { glfw.WaitEventsTimeout(timeout) }

// Window is a GLFW window without a client API, for Vulkan presentation.
type Window struct {
	win *glfw.Window
	log *slog.Logger

	onResize  func(width, height uint32)
	onIconify func(iconified bool)
}

// NewWindow opens a window of the given size. Escape closes it.
func NewWindow(title string, width, height int, log *slog.Logger) (*Window, error) {
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create window: %w", err)
	}
	w := &Window{win: win, log: logging.OrNop(log)}

	win.SetKeyCallback(func(gw *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			gw.SetShouldClose(true)
		}
	})
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.log.Debug("framebuffer resized", "width", width, "height", height)
		if w.onResize != nil {
			w.onResize(uint32(max(width, 0)), uint32(max(height, 0)))
		}
	})
	win.SetIconifyCallback(func(_ *glfw.Window, iconified bool) {
		w.log.Debug("window iconified", "iconified", iconified)
		if w.onIconify != nil {
			w.onIconify(iconified)
		}
	})
	return w, nil
}

// OnResize registers fn to receive framebuffer size changes, including
// zero sizes while minimized.
func (w *Window) OnResize(fn func(width, height uint32)) { w.onResize = fn }

// OnIconify registers fn to be told when the window is minimized or
// restored.
func (w *Window) OnIconify(fn func(iconified bool)) { w.onIconify = fn }

func (w *Window) FramebufferSize() (width, height uint32) {
	fw, fh := w.win.GetFramebufferSize()
	return uint32(max(fw, 0)), uint32(max(fh, 0))
}

// WaitForSize blocks until the framebuffer has a non-zero size or the
// window is asked to close.
func (w *Window) WaitForSize() (width, height uint32) {
	for !w.win.ShouldClose() {
		width, height = w.FramebufferSize()
		if width > 0 && height > 0 {
			return width, height
		}
		glfw.WaitEventsTimeout(0.01)
	}
	return 0, 0
}

func (w *Window) ShouldClose() bool { return w.win.ShouldClose() }

func (w *Window) SetTitle(title string) { w.win.SetTitle(title) }

func (w *Window) Destroy() { w.win.Destroy() }

// RequiredInstanceExtensions lists the instance extensions the window
// system needs for presentation.
func (w *Window) RequiredInstanceExtensions() []string {
	return w.win.GetRequiredInstanceExtensions()
}

func (w *Window) InstanceProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

// CreateSurface creates a presentation surface for the window.
func (w *Window) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	ptr, err := w.win.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.Surface(vk.NullHandle), fmt.Errorf("create window surface: %w", err)
	}
	return vk.SurfaceFromPointer(ptr), nil
}
