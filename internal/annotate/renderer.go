package annotate

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/ironsheep/detection-log-viz/internal/geom"
	"github.com/ironsheep/detection-log-viz/internal/logparse"
)

// Defaults for Renderer.
const (
	DefaultLineWidth   = 2.0
	DefaultLabelOffset = 5.0
	DefaultLabelAlpha  = 0.5
)

// Sink is a drawing surface.
//
// Rectangle extents may be negative when a detection box has swapped
// corners; implementations must accept them.
type Sink interface {
	// DrawRectangle strokes an unfilled rectangle with top-left (x, y).
	DrawRectangle(x, y, w, h float64, c color.Color, lineWidth float64)

	// DrawText draws text with its baseline starting at (x, y) over a
	// background box.
	DrawText(x, y float64, text string, fg, bg color.Color)

	// Show finishes the picture and presents it.
	Show() error
}

// Item is a detection paired with its box in the target image frame.
type Item struct {
	Detection logparse.Detection `json:"detection"`
	Box       geom.Box           `json:"box"`
}

// Layout rescales every detection from the model frame into the target frame.
func Layout(dets []logparse.Detection, model, target geom.Size) []Item {
	items := make([]Item, 0, len(dets))
	for _, d := range dets {
		items = append(items, Item{
			Detection: d,
			Box:       geom.Rescale(d.Box, model, target),
		})
	}
	return items
}

// Renderer draws detections with a fixed style.
type Renderer struct {
	Palette     Palette
	LineWidth   float64
	LabelOffset float64
	LabelAlpha  float64
}

// NewRenderer returns a Renderer using palette and the default style.
func NewRenderer(palette Palette) *Renderer {
	return &Renderer{
		Palette:     palette,
		LineWidth:   DefaultLineWidth,
		LabelOffset: DefaultLabelOffset,
		LabelAlpha:  DefaultLabelAlpha,
	}
}

// Render draws every item to sink in order, then calls sink.Show.
func (r *Renderer) Render(sink Sink, items []Item) error {
	if len(r.Palette) == 0 {
		return fmt.Errorf("renderer has an empty palette")
	}

	for i, it := range items {
		sw := r.Palette.At(i)
		b := it.Box
		sink.DrawRectangle(b.X1, b.Y1, b.Width(), b.Height(), sw.NRGBA(), r.LineWidth)
		sink.DrawText(b.X1, b.Y1-r.LabelOffset, Label(it.Detection), sw.Foreground(), sw.WithAlpha(r.LabelAlpha))
	}

	return sink.Show()
}

// Label formats the caption for d, e.g. "person 88.08%".
func Label(d logparse.Detection) string {
	return d.ClassName + " " + formatScore(d.Score) + "%"
}

// formatScore prints the shortest representation of v that round-trips,
// always keeping a fractional part: 88.08 -> "88.08", 50 -> "50.0".
func formatScore(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
