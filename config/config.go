package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Logging  LoggingConfig  `toml:"logging"`
	Jobs     JobsConfig     `toml:"jobs"`
	Scripts  ScriptsConfig  `toml:"scripts"`
	Debug    DebugConfig    `toml:"debug"`
}

type WindowConfig struct {
	Title     string  `toml:"title"`
	Width     int     `toml:"width"`
	Height    int     `toml:"height"`
	Zoom      float32 `toml:"zoom"`
	Resizable bool    `toml:"resizable"`
	VSync     bool    `toml:"vsync"`
	TPS       int     `toml:"tps"` // simulation ticks per second
}

type RendererConfig struct {
	MaxQuads        int `toml:"max_quads"`         // quads per batch before an implicit flush
	MaxTextureSlots int `toml:"max_texture_slots"` // including the white texture in slot 0
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type JobsConfig struct {
	Workers int `toml:"workers"` // 0 = runtime.NumCPU()
}

type ScriptsConfig struct {
	Dir       string `toml:"dir"`
	HotReload bool   `toml:"hot_reload"`
}

type DebugConfig struct {
	Enabled      bool `toml:"enabled"`       // ImGui overlay
	PanicOnError bool `toml:"panic_on_error"` // structural ECS errors panic
}

// Load reads path and decodes it over Defaults(). Keys missing from the file
// keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to Defaults() when path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Defaults(), nil
	}
	return Load(path)
}

func Defaults() *Config {
	return &Config{
		Window: WindowConfig{
			Title:     "quadforge",
			Width:     1280,
			Height:    720,
			Zoom:      1.0,
			Resizable: true,
			VSync:     true,
			TPS:       60,
		},
		Renderer: RendererConfig{
			MaxQuads:        10000,
			MaxTextureSlots: 32,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Jobs: JobsConfig{
			Workers: 0,
		},
		Scripts: ScriptsConfig{
			Dir:       "scripts",
			HotReload: true,
		},
		Debug: DebugConfig{
			Enabled: true,
		},
	}
}

func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Window.Zoom <= 0 {
		return fmt.Errorf("window zoom must be positive, got %g", c.Window.Zoom)
	}
	if c.Renderer.MaxQuads <= 0 {
		return fmt.Errorf("renderer max_quads must be positive, got %d", c.Renderer.MaxQuads)
	}
	if c.Renderer.MaxTextureSlots < 2 {
		return fmt.Errorf("renderer max_texture_slots must be at least 2, got %d", c.Renderer.MaxTextureSlots)
	}
	if c.Jobs.Workers < 0 {
		return fmt.Errorf("jobs workers must not be negative, got %d", c.Jobs.Workers)
	}
	return nil
}
