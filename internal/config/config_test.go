package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ImageDirectory != "images" {
		t.Errorf("ImageDirectory: got %q, want images", cfg.ImageDirectory)
	}
	if cfg.Model.Width != 512 || cfg.Model.Height != 512 {
		t.Errorf("Model: got %+v, want 512x512", cfg.Model)
	}
	if len(cfg.Render.Palette) != 6 || cfg.Render.Palette[0] != "r" {
		t.Errorf("Palette: got %v", cfg.Render.Palette)
	}
	if cfg.Render.LineWidth != 2 || cfg.Render.LabelOffset != 5 || cfg.Render.LabelAlpha != 0.5 {
		t.Errorf("Render: got %+v", cfg.Render)
	}
	if cfg.OutputFormat != "png" {
		t.Errorf("OutputFormat: got %q, want png", cfg.OutputFormat)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "detviz.yaml", `
image_directory: /data/images
output_format: jpg
model:
  width: 640
  height: 640
render:
  palette: [orange, "#00FF00"]
  label_alpha: 0.8
`)

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ImageDirectory != "/data/images" {
		t.Errorf("ImageDirectory: got %q", cfg.ImageDirectory)
	}
	if cfg.Model.Width != 640 || cfg.Model.Height != 640 {
		t.Errorf("Model: got %+v", cfg.Model)
	}
	if len(cfg.Render.Palette) != 2 || cfg.Render.Palette[1] != "#00FF00" {
		t.Errorf("Palette: got %v", cfg.Render.Palette)
	}
	if cfg.Render.LabelAlpha != 0.8 {
		t.Errorf("LabelAlpha: got %v", cfg.Render.LabelAlpha)
	}
	// unset keys keep their defaults
	if cfg.Render.LineWidth != 2 {
		t.Errorf("LineWidth: got %v, want default 2", cfg.Render.LineWidth)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil); err == nil {
		t.Error("Load should fail for a missing config file")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DETVIZ_MODEL_WIDTH", "320")
	t.Setenv("DETVIZ_IMAGE_DIRECTORY", "/tmp/imgs")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Model.Width != 320 {
		t.Errorf("Model.Width: got %v, want 320", cfg.Model.Width)
	}
	if cfg.ImageDirectory != "/tmp/imgs" {
		t.Errorf("ImageDirectory: got %q", cfg.ImageDirectory)
	}
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	path := writeFile(t, "detviz.yaml", "image_directory: from-file\nmodel:\n  width: 640\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("images", "", "")
	flags.Float64("model-width", 0, "")
	flags.StringSlice("palette", nil, "")
	if err := flags.Parse([]string{"--images", "from-flag", "--palette", "k,w"}); err != nil {
		t.Fatalf("flag parse failed: %v", err)
	}

	cfg, err := Load(path, flags)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ImageDirectory != "from-flag" {
		t.Errorf("ImageDirectory: got %q, want from-flag", cfg.ImageDirectory)
	}
	// unset flag does not override the file
	if cfg.Model.Width != 640 {
		t.Errorf("Model.Width: got %v, want 640", cfg.Model.Width)
	}
	if len(cfg.Render.Palette) != 2 || cfg.Render.Palette[0] != "k" {
		t.Errorf("Palette: got %v, want [k w]", cfg.Render.Palette)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := writeFile(t, "test.env", "DETVIZ_TEST_ENVFILE=loaded\n")
	t.Setenv("DETVIZ_TEST_ENVFILE", "")
	os.Unsetenv("DETVIZ_TEST_ENVFILE")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile failed: %v", err)
	}
	if got := os.Getenv("DETVIZ_TEST_ENVFILE"); got != "loaded" {
		t.Errorf("env: got %q, want loaded", got)
	}
}

func TestLoadEnvFile_Missing(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("missing env file should be ignored, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero model width", func(c *Config) { c.Model.Width = 0 }},
		{"negative model height", func(c *Config) { c.Model.Height = -512 }},
		{"empty palette", func(c *Config) { c.Render.Palette = nil }},
		{"unknown color", func(c *Config) { c.Render.Palette = []string{"r", "blurple"} }},
		{"zero line width", func(c *Config) { c.Render.LineWidth = 0 }},
		{"alpha too high", func(c *Config) { c.Render.LabelAlpha = 1.5 }},
		{"alpha negative", func(c *Config) { c.Render.LabelAlpha = -0.1 }},
		{"unknown format", func(c *Config) { c.OutputFormat = "webp" }},
		{"negative max edge", func(c *Config) { c.OutputMaxEdge = -1 }},
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestConfig_Renderer(t *testing.T) {
	cfg := Default()
	cfg.Render.LineWidth = 3
	cfg.Render.LabelOffset = 8
	cfg.Render.LabelAlpha = 0.25

	r, err := cfg.Renderer()
	if err != nil {
		t.Fatalf("Renderer failed: %v", err)
	}
	if r.LineWidth != 3 || r.LabelOffset != 8 || r.LabelAlpha != 0.25 {
		t.Errorf("style: got %+v", r)
	}
	if len(r.Palette) != 6 {
		t.Errorf("palette length: got %d, want 6", len(r.Palette))
	}
}
