// Package config loads the engine configuration from TOML and the
// environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/hellhand/koengine/internal/logging"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Environment variables that override the file.
const (
	EnvValidation = "VK_VALIDATION"
	EnvLogLevel   = "KOENGINE_LOG_LEVEL"
)

// Present modes accepted in [renderer].present_mode.
var presentModes = []string{"immediate", "mailbox", "fifo", "fifo_relaxed"}

type Config struct {
	App      App      `toml:"app"`
	Renderer Renderer `toml:"renderer"`
	Log      Log      `toml:"log"`
}

type App struct {
	Name        string `toml:"name"`
	Width       int    `toml:"width"`
	Height      int    `toml:"height"`
	LimitFrames bool   `toml:"limit_frames"`
	TargetFPS   int    `toml:"target_fps"`
}

type Renderer struct {
	Validation  bool       `toml:"validation"`
	PresentMode string     `toml:"present_mode"`
	ClearColor  [4]float32 `toml:"clear_color"`
	// WaitTimeout bounds every fence wait and image acquire. Zero means
	// no bound.
	WaitTimeout Duration `toml:"wait_timeout"`
}

type Log struct {
	Level string `toml:"level"`
}

// Duration is a time.Duration written as a Go duration string in TOML.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		App: App{
			Name:      "Koengine Testbed",
			Width:     1280,
			Height:    720,
			TargetFPS: 60,
		},
		Renderer: Renderer{
			Validation:  true,
			PresentMode: "mailbox",
			ClearColor:  [4]float32{0.05, 0.05, 0.08, 1.0},
		},
		Log: Log{Level: "info"},
	}
}

// Load reads the TOML file at path on top of Default. Unknown keys are
// rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes TOML data on top of Default.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("%w: %s", ErrInvalid, strict.String())
		}
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Encode writes cfg as TOML.
func (c Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// ApplyEnv overrides fields from the environment. An unset VK_VALIDATION
// leaves validation as configured; "0" or "false" disables it and any
// other value enables it.
func (c *Config) ApplyEnv() {
	if val, ok := os.LookupEnv(EnvValidation); ok && val != "" {
		switch val {
		case "0", "false", "False", "FALSE":
			c.Renderer.Validation = false
		default:
			c.Renderer.Validation = true
		}
	}
	if val := os.Getenv(EnvLogLevel); val != "" {
		c.Log.Level = val
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.App.Width <= 0 || c.App.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.App.Width, c.App.Height)
	}
	if c.App.LimitFrames && c.App.TargetFPS <= 0 {
		return fmt.Errorf("%w: target_fps %d with frame limiting", ErrInvalid, c.App.TargetFPS)
	}
	if !validPresentMode(c.Renderer.PresentMode) {
		return fmt.Errorf("%w: present_mode %q (want one of %s)", ErrInvalid, c.Renderer.PresentMode, strings.Join(presentModes, ", "))
	}
	if c.Renderer.WaitTimeout.Duration < 0 {
		return fmt.Errorf("%w: negative wait_timeout", ErrInvalid)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func validPresentMode(m string) bool {
	for _, pm := range presentModes {
		if m == pm {
			return true
		}
	}
	return false
}
