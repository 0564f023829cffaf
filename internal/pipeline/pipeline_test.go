package pipeline

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ironsheep/detection-log-viz/internal/annotate"
	"github.com/ironsheep/detection-log-viz/internal/config"
	"github.com/ironsheep/detection-log-viz/internal/geom"
	"github.com/ironsheep/detection-log-viz/internal/imaging"
	"github.com/ironsheep/detection-log-viz/internal/logparse"
)

const testLog = `
=== Testing: bus.png ===
Det 1: person (88.08%) | Box: [32.0, 176.0, 144.0, 432.0]
Det 2: bus (73.11%) | Box: [16.0, 112.0, 512.0, 368.0]

=== Testing: missing.jpg ===
Det 1: dog (50.00%) | Box: [1.0, 2.0, 3.0, 4.0]

=== Testing: corrupt.png ===
Det 1: cat (40.00%) | Box: [1.0, 2.0, 3.0, 4.0]

=== Testing: empty.png ===
`

// writePNG writes a solid image into dir and returns its path.
func writePNG(t *testing.T, dir, name string, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{90, 90, 90, 255})
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", name, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode %s: %v", name, err)
	}
	return path
}

func newTestDriver(t *testing.T, dir string, out Output, logger *zap.Logger) *Driver {
	t.Helper()
	renderer := annotate.NewRenderer(annotate.MustParsePalette(annotate.DefaultPalette))
	return NewDriver(dir, geom.Size{Width: 512, Height: 512}, renderer, out, logger)
}

func TestDriver_Run(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "bus.png", 640, 480)
	writePNG(t, dir, "empty.png", 32, 32)
	if err := os.WriteFile(filepath.Join(dir, "corrupt.png"), []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write corrupt.png: %v", err)
	}

	emitted := map[string]image.Image{}
	out := func(name string, img image.Image) error {
		emitted[name] = img
		return nil
	}

	d := newTestDriver(t, dir, out, nil)
	summary := d.Run(logparse.Parse(testLog))

	if len(summary.Rendered) != 2 {
		t.Fatalf("rendered: got %+v, want bus.png and empty.png", summary.Rendered)
	}
	bus := summary.Rendered[0]
	if bus.Image != "bus.png" || bus.Width != 640 || bus.Height != 480 || bus.Detections != 2 {
		t.Errorf("bus.png: got %+v", bus)
	}
	if summary.Rendered[1].Image != "empty.png" || summary.Rendered[1].Detections != 0 {
		t.Errorf("empty.png: got %+v", summary.Rendered[1])
	}

	wantSkips := map[string]string{
		"missing.jpg": ReasonMissingImage,
		"corrupt.png": ReasonDecodeFailure,
	}
	if len(summary.Skipped) != len(wantSkips) {
		t.Fatalf("skipped: got %+v", summary.Skipped)
	}
	for _, s := range summary.Skipped {
		if wantSkips[s.Image] != s.Reason {
			t.Errorf("skip %s: got reason %s, want %s", s.Image, s.Reason, wantSkips[s.Image])
		}
		if s.Error == "" {
			t.Errorf("skip %s has no error text", s.Image)
		}
	}

	if img := emitted["bus.png"]; img == nil || img.Bounds().Dx() != 640 {
		t.Errorf("bus.png output: got %v", img)
	}
	if _, ok := emitted["missing.jpg"]; ok {
		t.Error("missing image should not be emitted")
	}

	if d.Cache.Len() != 0 {
		t.Errorf("cache should be empty after the run, has %d images", d.Cache.Len())
	}
}

func TestDriver_Run_RescalesToImageFrame(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "bus.png", 640, 480)

	var shown image.Image
	d := newTestDriver(t, dir, func(_ string, img image.Image) error {
		shown = img
		return nil
	}, nil)
	d.Run(logparse.Parse("=== Testing: bus.png ===\nDet 1: person (88.08%) | Box: [32.0, 176.0, 144.0, 432.0]"))

	if shown == nil {
		t.Fatal("nothing emitted")
	}
	// The rescaled box is [40, 165, 180, 405]; its left edge is stroked red.
	r, g, b, _ := shown.At(40, 300).RGBA()
	if r>>8 < 200 || g>>8 > 60 || b>>8 > 60 {
		t.Errorf("pixel on rescaled edge (40,300): got (%d,%d,%d), want red", r>>8, g>>8, b>>8)
	}
	// The unscaled position of the edge (x=32) is left alone.
	r, g, b, _ = shown.At(32, 300).RGBA()
	if r>>8 != 90 || g>>8 != 90 || b>>8 != 90 {
		t.Errorf("pixel at unscaled edge (32,300): got (%d,%d,%d), want background", r>>8, g>>8, b>>8)
	}
}

func TestDriver_Run_EmptyResult(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	d := newTestDriver(t, t.TempDir(), nil, zap.New(core))

	summary := d.Run(logparse.Parse("nothing to see here"))

	if !summary.Empty() {
		t.Errorf("summary: got %+v, want empty", summary)
	}
	if logs.FilterMessage("No detections found in log file.").Len() != 1 {
		t.Error("empty result was not reported")
	}
}

func TestDriver_Run_OutputErrorIsSkip(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png", 20, 20)
	writePNG(t, dir, "b.png", 20, 20)

	calls := 0
	out := func(name string, img image.Image) error {
		calls++
		if name == "a.png" {
			return os.ErrPermission
		}
		return nil
	}
	d := newTestDriver(t, dir, out, nil)

	summary := d.Run(logparse.Parse("=== Testing: a.png ===\n=== Testing: b.png ==="))

	if calls != 2 {
		t.Errorf("output calls: got %d, want 2 (failure must not stop the run)", calls)
	}
	if len(summary.Skipped) != 1 || summary.Skipped[0].Reason != ReasonRenderFailure {
		t.Errorf("skipped: got %+v", summary.Skipped)
	}
	if len(summary.Rendered) != 1 || summary.Rendered[0].Image != "b.png" {
		t.Errorf("rendered: got %+v", summary.Rendered)
	}
	if d.Cache.Len() != 0 {
		t.Error("failed image was not evicted")
	}
}

func TestDriver_Run_LogsSkips(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	d := newTestDriver(t, t.TempDir(), nil, zap.New(core))

	d.Run(logparse.Parse("=== Testing: gone.jpg ==="))

	entries := logs.FilterMessage("skipping image").All()
	if len(entries) != 1 {
		t.Fatalf("warnings: got %d, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["reason"]; got != ReasonMissingImage {
		t.Errorf("reason field: got %v", got)
	}
}

func TestFileOutput(t *testing.T) {
	src := t.TempDir()
	writePNG(t, src, "person.png", 200, 100)
	outDir := filepath.Join(t.TempDir(), "nested", "out")

	d := newTestDriver(t, src, FileOutput(outDir, imaging.FormatPNG, 50), nil)
	summary := d.Run(logparse.Parse("=== Testing: person.png ===\nDet 1: person (81.76%) | Box: [336.0, 144.0, 400.0, 416.0]"))
	if len(summary.Rendered) != 1 {
		t.Fatalf("rendered: got %+v, skipped %+v", summary.Rendered, summary.Skipped)
	}

	path := filepath.Join(outDir, "person_detections.png")
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if img.Bounds().Dx() != 50 || img.Bounds().Dy() != 25 {
		t.Errorf("output size: got %v, want 50x25", img.Bounds())
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name   string
		format imaging.Format
		want   string
	}{
		{"bus.jpg", imaging.FormatPNG, filepath.Join("out", "bus_detections.png")},
		{"bus.jpg", imaging.FormatJPEG, filepath.Join("out", "bus_detections.jpg")},
		{"set1/bus.jpg", imaging.FormatPNG, filepath.Join("out", "set1_bus_detections.png")},
		{"noext", imaging.FormatBMP, filepath.Join("out", "noext_detections.bmp")},
	}

	for _, tt := range tests {
		if got := OutputPath("out", tt.name, tt.format); got != tt.want {
			t.Errorf("OutputPath(%q): got %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.ImageDirectory = "/srv/images"
	cfg.Model.Width = 640

	d, err := FromConfig(cfg, nil, nil)
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}
	if d.ImageDirectory != "/srv/images" || d.Model.Width != 640 || d.Cache == nil {
		t.Errorf("driver: got %+v", d)
	}

	cfg.Render.Palette = []string{"nope"}
	if _, err := FromConfig(cfg, nil, nil); err == nil {
		t.Error("FromConfig should fail with a bad palette")
	}
}
