// Command testbed opens a window and drives the Vulkan renderer, clearing
// the screen every frame. It exercises resize, minimize and swapchain
// recreation.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/hellhand/koengine/internal/config"
	"github.com/hellhand/koengine/internal/logging"
	"github.com/hellhand/koengine/internal/platform"
	"github.com/hellhand/koengine/renderer"
	"github.com/hellhand/koengine/renderer/vulkan"
	"github.com/hellhand/koengine/renderer/vulkan/vkdevice"
)

func init() {
	// GLFW/Vulkan require the main thread.
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "path to a TOML configuration file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "testbed: %v\n", err)
		os.Exit(2)
	}
	level, _ := logging.ParseLevel(cfg.Log.Level)
	log := logging.New(os.Stderr, level)

	if err := run(cfg, log); err != nil {
		logging.Fatal(log, "testbed stopped", "err", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	cfg.ApplyEnv()
	return cfg, cfg.Validate()
}

func run(cfg config.Config, log *slog.Logger) error {
	if err := platform.Init(); err != nil {
		return err
	}
	defer platform.Terminate()

	win, err := platform.NewWindow(cfg.App.Name, cfg.App.Width, cfg.App.Height, log.With("component", "platform"))
	if err != nil {
		return err
	}
	defer win.Destroy()

	// The surface needs a non-zero framebuffer before Vulkan starts.
	width, height := win.WaitForSize()
	if width == 0 || height == 0 {
		return nil
	}

	dev, err := vkdevice.Open(win, vkdevice.Config{
		AppName:    cfg.App.Name,
		Validation: cfg.Renderer.Validation,
		Logger:     log.With("component", "vkdevice"),
	})
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}

	mode, _ := vulkan.ParsePresentMode(cfg.Renderer.PresentMode)
	backend, err := vulkan.New(dev, width, height, vulkan.Options{
		PresentMode: mode,
		WaitTimeout: uint64(cfg.Renderer.WaitTimeout.Nanoseconds()),
		ClearColor:  cfg.Renderer.ClearColor,
		Logger:      log.With("component", "vulkan"),
	})
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}

	front := renderer.NewFrontend(backend, log.With("component", "renderer"))
	defer front.Shutdown()

	a := newApp(cfg, win, front, backend, log)
	log.Info("entering main loop")
	return a.loop()
}
