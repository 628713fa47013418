package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "anima2d.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestMissingConfigUsesDefaults(t *testing.T) {
	cfg, err := LoadApplicationConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultApplicationConfig(), cfg)
	assert.Equal(t, core.LogLevelInfo, cfg.LogLevel())
	assert.Equal(t, renderer.ColorBlack, cfg.ClearColor())
}

func TestConfigOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[window]
name = "bouncing quad"
start_width = 800

[log]
level = "debug"

[renderer]
vsync = false
clear_color = [0.1, 0.2, 0.3, 1.0]
max_textures = 16

[assets]
dir = "data"
watch = true
`)
	cfg, err := LoadApplicationConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "bouncing quad", cfg.Window.Name)
	assert.Equal(t, uint32(800), cfg.Window.StartWidth)
	// Keys not in the file keep their defaults.
	assert.Equal(t, uint32(720), cfg.Window.StartHeight)
	assert.Equal(t, core.LogLevelDebug, cfg.LogLevel())
	assert.False(t, cfg.Renderer.VSync)
	assert.Equal(t, uint32(2), cfg.Renderer.DesiredImageCount)
	assert.Equal(t, uint32(16), cfg.Renderer.MaxTextures)
	assert.Equal(t, renderer.NewColor(0.1, 0.2, 0.3, 1.0), cfg.ClearColor())
	assert.Equal(t, "data", cfg.Assets.Dir)
	assert.True(t, cfg.Assets.Watch)

	vc := cfg.vulkanConfig("title")
	assert.Equal(t, "title", vc.AppName)
	assert.False(t, vc.VSync)
	assert.Equal(t, uint32(16), vc.MaxTextures)

	pc := cfg.platformConfig()
	assert.Equal(t, "bouncing quad", pc.Name)
	assert.Equal(t, uint32(800), pc.Width)
}

func TestMalformedConfigIsAnError(t *testing.T) {
	_, err := LoadApplicationConfig(writeConfig(t, "[window\nname = 1"))
	assert.Error(t, err)
}

func TestConfigRejectsUnknownKeys(t *testing.T) {
	_, err := LoadApplicationConfig(writeConfig(t, "[renderer]\nvsnyc = true\n"))
	assert.Error(t, err)
}

func TestConfigRejectsWrongTypes(t *testing.T) {
	_, err := LoadApplicationConfig(writeConfig(t, "[window]\nstart_width = \"wide\"\n"))
	assert.Error(t, err)
}

func TestConfigValidation(t *testing.T) {
	_, err := LoadApplicationConfig(writeConfig(t, "[log]\nlevel = \"chatty\"\n"))
	assert.Error(t, err)

	_, err = LoadApplicationConfig(writeConfig(t, "[renderer]\nmax_textures = 0\n"))
	assert.Error(t, err)

	_, err = LoadApplicationConfig(writeConfig(t, "[renderer]\ndesired_image_count = 0\n"))
	assert.Error(t, err)
}
