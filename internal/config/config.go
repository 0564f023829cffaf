// Package config loads run settings from defaults, an optional YAML file, a
// .env file, DETVIZ_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ironsheep/detection-log-viz/internal/annotate"
	"github.com/ironsheep/detection-log-viz/internal/geom"
	"github.com/ironsheep/detection-log-viz/internal/imaging"
)

// EnvPrefix is prepended to every environment override, e.g.
// DETVIZ_MODEL_WIDTH or DETVIZ_RENDER_PALETTE.
const EnvPrefix = "DETVIZ"

// DefaultEnvFile is read when present in the working directory.
const DefaultEnvFile = ".env"

type Config struct {
	ImageDirectory  string       `mapstructure:"image_directory"`
	OutputDirectory string       `mapstructure:"output_directory"`
	OutputFormat    string       `mapstructure:"output_format"`
	OutputMaxEdge   int          `mapstructure:"output_max_edge"`
	Model           ModelConfig  `mapstructure:"model"`
	Render          RenderConfig `mapstructure:"render"`
	Log             LogConfig    `mapstructure:"log"`
}

// ModelConfig is the detector's input frame. Boxes in the log are relative
// to it.
type ModelConfig struct {
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
}

type RenderConfig struct {
	Palette     []string `mapstructure:"palette"`
	LineWidth   float64  `mapstructure:"line_width"`
	LabelOffset float64  `mapstructure:"label_offset"`
	LabelAlpha  float64  `mapstructure:"label_alpha"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Mode  string `mapstructure:"mode"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"images":       "image_directory",
	"out":          "output_directory",
	"format":       "output_format",
	"max-edge":     "output_max_edge",
	"model-width":  "model.width",
	"model-height": "model.height",
	"palette":      "render.palette",
	"log-level":    "log.level",
}

// Load builds a Config. configPath may be empty. flags may be nil; only flags
// the user actually set override other sources.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	if err := LoadEnvFile(DefaultEnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadEnvFile loads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		ImageDirectory:  "images",
		OutputDirectory: "annotated",
		OutputFormat:    string(imaging.FormatPNG),
		Model:           ModelConfig{Width: 512, Height: 512},
		Render: RenderConfig{
			Palette:     append([]string(nil), annotate.DefaultPalette...),
			LineWidth:   annotate.DefaultLineWidth,
			LabelOffset: annotate.DefaultLabelOffset,
			LabelAlpha:  annotate.DefaultLabelAlpha,
		},
		Log: LogConfig{Level: "info", Mode: "development"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("image_directory", d.ImageDirectory)
	v.SetDefault("output_directory", d.OutputDirectory)
	v.SetDefault("output_format", d.OutputFormat)
	v.SetDefault("output_max_edge", d.OutputMaxEdge)
	v.SetDefault("model.width", d.Model.Width)
	v.SetDefault("model.height", d.Model.Height)
	v.SetDefault("render.palette", d.Render.Palette)
	v.SetDefault("render.line_width", d.Render.LineWidth)
	v.SetDefault("render.label_offset", d.Render.LabelOffset)
	v.SetDefault("render.label_alpha", d.Render.LabelAlpha)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.mode", d.Log.Mode)
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if !c.ModelFrame().Valid() {
		return fmt.Errorf("model frame %gx%g must be positive", c.Model.Width, c.Model.Height)
	}
	if _, err := c.Palette(); err != nil {
		return fmt.Errorf("render.palette: %w", err)
	}
	if c.Render.LineWidth <= 0 {
		return fmt.Errorf("render.line_width must be positive, got %g", c.Render.LineWidth)
	}
	if c.Render.LabelAlpha < 0 || c.Render.LabelAlpha > 1 {
		return fmt.Errorf("render.label_alpha must be within [0,1], got %g", c.Render.LabelAlpha)
	}
	if _, err := c.Format(); err != nil {
		return fmt.Errorf("output_format: %w", err)
	}
	if c.OutputMaxEdge < 0 {
		return fmt.Errorf("output_max_edge must not be negative, got %d", c.OutputMaxEdge)
	}
	return nil
}

// ModelFrame returns the model input size as a geom.Size.
func (c *Config) ModelFrame() geom.Size {
	return geom.Size{Width: c.Model.Width, Height: c.Model.Height}
}

// Palette parses the configured color cycle.
func (c *Config) Palette() (annotate.Palette, error) {
	return annotate.ParsePalette(c.Render.Palette)
}

// Format parses the configured output format.
func (c *Config) Format() (imaging.Format, error) {
	return imaging.ParseFormat(c.OutputFormat)
}

// Renderer builds an annotate.Renderer from the render settings.
func (c *Config) Renderer() (*annotate.Renderer, error) {
	p, err := c.Palette()
	if err != nil {
		return nil, err
	}
	r := annotate.NewRenderer(p)
	r.LineWidth = c.Render.LineWidth
	r.LabelOffset = c.Render.LabelOffset
	r.LabelAlpha = c.Render.LabelAlpha
	return r, nil
}
