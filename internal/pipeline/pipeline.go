// Package pipeline drives the per-image loop: resolve the image named in the
// log, load it, rescale its detections and render them.
//
// Images are processed one at a time in log order. Nothing that goes wrong
// with one image stops the run: missing files, undecodable files and render
// failures are logged and recorded in the Summary, and the next image is
// processed. Each loaded image is evicted from the cache when its turn ends,
// whether or not rendering succeeded.
package pipeline

import (
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ironsheep/detection-log-viz/internal/annotate"
	"github.com/ironsheep/detection-log-viz/internal/config"
	"github.com/ironsheep/detection-log-viz/internal/geom"
	"github.com/ironsheep/detection-log-viz/internal/imaging"
	"github.com/ironsheep/detection-log-viz/internal/logparse"
)

// Skip reasons recorded in a Summary.
const (
	ReasonMissingImage  = "missing-image"
	ReasonDecodeFailure = "decode-failure"
	ReasonRenderFailure = "render-failure"
)

// Output receives each finished picture. name is the image name from the log.
type Output func(name string, img image.Image) error

// Rendered describes one image that was drawn.
type Rendered struct {
	Image      string `json:"image"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Detections int    `json:"detections"`
}

// Skip describes one image that was not drawn.
type Skip struct {
	Image  string `json:"image"`
	Reason string `json:"reason"`
	Error  string `json:"error"`
}

// Summary is the outcome of a run.
type Summary struct {
	Rendered []Rendered `json:"rendered"`
	Skipped  []Skip     `json:"skipped"`
}

// Empty reports whether the run had no images at all.
func (s Summary) Empty() bool {
	return len(s.Rendered) == 0 && len(s.Skipped) == 0
}

// Driver holds everything needed to render a parse result.
type Driver struct {
	ImageDirectory string
	Model          geom.Size
	Renderer       *annotate.Renderer
	Cache          *imaging.ImageCache
	Output         Output
	Logger         *zap.Logger
}

// NewDriver returns a Driver with a fresh image cache. logger may be nil.
func NewDriver(imageDir string, model geom.Size, renderer *annotate.Renderer, output Output, logger *zap.Logger) *Driver {
	return &Driver{
		ImageDirectory: imageDir,
		Model:          model,
		Renderer:       renderer,
		Cache:          imaging.NewImageCache(),
		Output:         output,
		Logger:         logger,
	}
}

// FromConfig builds a Driver from cfg.
func FromConfig(cfg *config.Config, output Output, logger *zap.Logger) (*Driver, error) {
	renderer, err := cfg.Renderer()
	if err != nil {
		return nil, err
	}
	return NewDriver(cfg.ImageDirectory, cfg.ModelFrame(), renderer, output, logger), nil
}

// Run renders every image in result and returns what happened to each.
func (d *Driver) Run(result *logparse.Result) Summary {
	log := d.logger()
	var summary Summary

	if result.Len() == 0 {
		log.Info("No detections found in log file.")
		return summary
	}

	for _, entry := range result.Entries() {
		rendered, skip := d.renderOne(entry)
		if skip != nil {
			log.Warn("skipping image",
				zap.String("image", skip.Image),
				zap.String("reason", skip.Reason),
				zap.String("error", skip.Error))
			summary.Skipped = append(summary.Skipped, *skip)
			continue
		}
		summary.Rendered = append(summary.Rendered, *rendered)
	}

	log.Info("run complete",
		zap.Int("images", result.Len()),
		zap.Int("rendered", len(summary.Rendered)),
		zap.Int("skipped", len(summary.Skipped)))
	return summary
}

// renderOne processes a single image. Exactly one of the results is non-nil.
func (d *Driver) renderOne(entry logparse.ImageDetections) (*Rendered, *Skip) {
	path := filepath.Join(d.ImageDirectory, entry.Image)

	img, err := d.Cache.Load(path)
	if err != nil {
		return nil, newSkip(entry.Image, classify(err), err)
	}
	defer d.Cache.Evict(path)

	d.logger().Info("processing image",
		zap.String("image", entry.Image),
		zap.Int("detections", len(entry.Detections)))

	dims := imaging.Dimensions(img)
	target := geom.Size{Width: float64(dims.Width), Height: float64(dims.Height)}
	items := annotate.Layout(entry.Detections, d.Model, target)

	sink := annotate.NewRasterSink(img, "Detections for "+entry.Image, func(out image.Image) error {
		if d.Output == nil {
			return nil
		}
		return d.Output(entry.Image, out)
	})
	if err := d.Renderer.Render(sink, items); err != nil {
		return nil, newSkip(entry.Image, ReasonRenderFailure, err)
	}

	return &Rendered{
		Image:      entry.Image,
		Width:      dims.Width,
		Height:     dims.Height,
		Detections: len(items),
	}, nil
}

func (d *Driver) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

func classify(err error) string {
	if errors.Is(err, imaging.ErrImageNotFound) {
		return ReasonMissingImage
	}
	return ReasonDecodeFailure
}

func newSkip(name, reason string, err error) *Skip {
	return &Skip{Image: name, Reason: reason, Error: err.Error()}
}

// FileOutput writes each picture to dir as "<stem>_detections<ext>", shrunk
// to maxEdge when maxEdge > 0. The directory is created on first use.
func FileOutput(dir string, format imaging.Format, maxEdge int) Output {
	return func(name string, img image.Image) error {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create output directory %s", dir)
		}
		return imaging.SaveImage(imaging.FitMaxEdge(img, maxEdge), OutputPath(dir, name, format), format)
	}
}

// OutputPath returns where FileOutput writes the picture for image name.
// Subdirectories in name are flattened into the file name.
func OutputPath(dir, name string, format imaging.Format) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	stem = strings.NewReplacer("/", "_", "\\", "_").Replace(stem)
	return filepath.Join(dir, stem+"_detections"+format.Ext())
}
