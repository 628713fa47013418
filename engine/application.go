package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/anima2d/engine/assets"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/platform"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/vulkan"
)

type WindowConfig struct {
	// The application name used in windowing.
	Name string `toml:"name"`
	// Window starting position x axis.
	StartPosX uint32 `toml:"start_pos_x"`
	// Window starting position y axis.
	StartPosY uint32 `toml:"start_pos_y"`
	// Window starting width.
	StartWidth uint32 `toml:"start_width"`
	// Window starting height.
	StartHeight uint32 `toml:"start_height"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type RendererConfig struct {
	// Validation layers and the debug callback.
	Debug             bool       `toml:"debug"`
	VSync             bool       `toml:"vsync"`
	DesiredImageCount uint32     `toml:"desired_image_count"`
	ClearColor        [4]float32 `toml:"clear_color"`
	MaxTextures       uint32     `toml:"max_textures"`
}

type AssetsConfig struct {
	Dir       string `toml:"dir"`
	ShaderDir string `toml:"shader_dir"`
	Watch     bool   `toml:"watch"`
}

type ApplicationConfig struct {
	Window   WindowConfig   `toml:"window"`
	Log      LogConfig      `toml:"log"`
	Renderer RendererConfig `toml:"renderer"`
	Assets   AssetsConfig   `toml:"assets"`
}

func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Window: WindowConfig{
			Name:        "anima2d",
			StartPosX:   100,
			StartPosY:   100,
			StartWidth:  1280,
			StartHeight: 720,
		},
		Log: LogConfig{Level: "info"},
		Renderer: RendererConfig{
			VSync:             true,
			DesiredImageCount: vulkan.DEFAULT_IMAGE_COUNT,
			ClearColor:        [4]float32{0, 0, 0, 1},
			MaxTextures:       vulkan.DEFAULT_MAX_TEXTURES,
		},
		Assets: AssetsConfig{
			Dir:       "assets",
			ShaderDir: "assets/shaders",
		},
	}
}

// LoadApplicationConfig reads a TOML file on top of the defaults. A missing
// file yields the defaults; unknown keys and malformed values are errors.
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	cfg := DefaultApplicationConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			core.LogInfo("no configuration at %s, using defaults", path)
			return cfg, nil
		}
		return nil, err
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("%s:%d:%d: %w", path, row, col, err)
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *ApplicationConfig) Validate() error {
	if _, err := core.ParseLogLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Renderer.DesiredImageCount == 0 {
		return fmt.Errorf("renderer.desired_image_count must be at least 1")
	}
	if c.Renderer.MaxTextures == 0 {
		return fmt.Errorf("renderer.max_textures must be at least 1")
	}
	return nil
}

func (c *ApplicationConfig) LogLevel() core.LogLevel {
	level, _ := core.ParseLogLevel(c.Log.Level)
	return level
}

func (c *ApplicationConfig) ClearColor() renderer.Color {
	cc := c.Renderer.ClearColor
	return renderer.NewColor(cc[0], cc[1], cc[2], cc[3])
}

func (c *ApplicationConfig) platformConfig() platform.Config {
	return platform.Config{
		Name:   c.Window.Name,
		X:      c.Window.StartPosX,
		Y:      c.Window.StartPosY,
		Width:  c.Window.StartWidth,
		Height: c.Window.StartHeight,
	}
}

func (c *ApplicationConfig) vulkanConfig(title string) vulkan.Config {
	return vulkan.Config{
		AppName:           title,
		Debug:             c.Renderer.Debug,
		VSync:             c.Renderer.VSync,
		DesiredImageCount: c.Renderer.DesiredImageCount,
		MaxTextures:       c.Renderer.MaxTextures,
	}
}

func (c *ApplicationConfig) assetsConfig() assets.Config {
	return assets.Config{
		Dir:       c.Assets.Dir,
		ShaderDir: c.Assets.ShaderDir,
		Watch:     c.Assets.Watch,
	}
}
