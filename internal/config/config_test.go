package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
[app]
width = 800
height = 600

[renderer]
present_mode = "fifo"
clear_color = [0.1, 0.2, 0.3, 1.0]
wait_timeout = "2s"

[log]
level = "debug"
`))
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.App.Width)
	assert.Equal(t, 600, cfg.App.Height)
	assert.Equal(t, "Koengine Testbed", cfg.App.Name)
	assert.Equal(t, "fifo", cfg.Renderer.PresentMode)
	assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 1.0}, cfg.Renderer.ClearColor)
	assert.Equal(t, 2*time.Second, cfg.Renderer.WaitTimeout.Duration)
	assert.True(t, cfg.Renderer.Validation)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("[renderer]\nvsync = true\n"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "testbed.toml")
	require.NoError(t, os.WriteFile(path, []byte("[app]\nname = \"demo\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.App.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Renderer.WaitTimeout = Duration{time.Second}
	data, err := cfg.Encode()
	require.NoError(t, err)

	back, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	t.Setenv(EnvValidation, "false")
	t.Setenv(EnvLogLevel, "trace")
	cfg.ApplyEnv()
	assert.False(t, cfg.Renderer.Validation)
	assert.Equal(t, "trace", cfg.Log.Level)

	t.Setenv(EnvValidation, "yes")
	cfg.ApplyEnv()
	assert.True(t, cfg.Renderer.Validation)
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"zero width":       func(c *Config) { c.App.Width = 0 },
		"present mode":     func(c *Config) { c.Renderer.PresentMode = "vsync" },
		"log level":        func(c *Config) { c.Log.Level = "loud" },
		"negative timeout": func(c *Config) { c.Renderer.WaitTimeout = Duration{-time.Second} },
		"limit without fps": func(c *Config) {
			c.App.LimitFrames = true
			c.App.TargetFPS = 0
		},
	} {
		cfg := Default()
		mutate(&cfg)
		assert.ErrorIs(t, cfg.Validate(), ErrInvalid, name)
	}
}
