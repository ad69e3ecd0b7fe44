package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Servers.Mock = true
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 640, cfg.Video.Width)
	assert.Equal(t, 480, cfg.Video.Height)
	assert.Equal(t, 10, cfg.Video.FPS)
	assert.Equal(t, 5*time.Second, cfg.Camera.UserTimeout)
	assert.Equal(t, "/dev/video%d", cfg.Devices.Template)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.HTTP.Address)
}

func TestLoadOverridesDefaults(t *testing.T) {
	raw := `
video:
  width: 1280
  height: 720
  fps: 15
camera:
  user_timeout: 10s
servers:
  mock: true
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1280, cfg.Video.Width)
	assert.Equal(t, 720, cfg.Video.Height)
	assert.Equal(t, 15, cfg.Video.FPS)
	assert.Equal(t, 10*time.Second, cfg.Camera.UserTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Video.Width = 0 }},
		{"zero fps", func(c *Config) { c.Video.FPS = 0 }},
		{"title height out of range", func(c *Config) { c.Camera.TitleHeightPct = 100 }},
		{"empty device template", func(c *Config) { c.Devices.Template = "" }},
		{"empty device ranges", func(c *Config) { c.Devices.Ranges = "" }},
		{"zero user timeout", func(c *Config) { c.Camera.UserTimeout = 0 }},
		{"missing source host", func(c *Config) { c.Servers.Mock = false; c.Servers.Source.Host = "" }},
		{"empty jwt secret", func(c *Config) { c.Auth.JWTSecret = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Servers.Mock = true
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GROUPCAM_HTTP_ADDRESS", ":9999")
	t.Setenv("GROUPCAM_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTP.Address)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestGeometryDerivation(t *testing.T) {
	cfg := DefaultConfig()
	geom := cfg.Geometry()

	assert.Equal(t, 640, geom.Width)
	assert.Equal(t, 480, geom.Height)
	assert.Equal(t, 48, geom.TitleHeight)
	assert.Equal(t, 6, geom.UserPadding)
	assert.Equal(t, 420, geom.BodyHeight())
}
