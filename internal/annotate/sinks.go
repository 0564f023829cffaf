package annotate

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

const (
	labelPadding = 2.0
	titleMargin  = 4.0
)

var (
	titleForeground = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	titleBackground = color.NRGBA{A: 160}
)

// RasterSink paints onto a copy of an image.
//
// Text uses the 7x13 bitmap face from x/image, so no font files are needed.
// Show stamps the title across the top and passes the finished picture to
// the emit callback.
type RasterSink struct {
	dc    *gg.Context
	title string
	emit  func(image.Image) error
}

// NewRasterSink prepares a sink over a copy of img. The source image is not
// modified.
func NewRasterSink(img image.Image, title string, emit func(image.Image) error) *RasterSink {
	dc := gg.NewContextForImage(img)
	dc.SetFontFace(basicfont.Face7x13)
	return &RasterSink{dc: dc, title: title, emit: emit}
}

// DrawRectangle strokes the outline of a w x h rectangle at (x, y).
func (s *RasterSink) DrawRectangle(x, y, w, h float64, c color.Color, lineWidth float64) {
	s.dc.SetColor(c)
	s.dc.SetLineWidth(lineWidth)
	s.dc.DrawRectangle(x, y, w, h)
	s.dc.Stroke()
}

// DrawText draws text on a padded background box. (x, y) is the start of the
// baseline.
func (s *RasterSink) DrawText(x, y float64, text string, fg, bg color.Color) {
	w, h := s.dc.MeasureString(text)
	s.dc.SetColor(bg)
	s.dc.DrawRectangle(x-labelPadding, y-h, w+2*labelPadding, h+2*labelPadding)
	s.dc.Fill()
	s.dc.SetColor(fg)
	s.dc.DrawString(text, x, y)
}

// Show draws the title and emits the picture.
func (s *RasterSink) Show() error {
	if s.title != "" {
		w, h := s.dc.MeasureString(s.title)
		x := (float64(s.dc.Width()) - w) / 2
		s.DrawText(x, h+titleMargin, s.title, titleForeground, titleBackground)
	}
	if s.emit == nil {
		return nil
	}
	return s.emit(s.dc.Image())
}

// Image returns the picture drawn so far.
func (s *RasterSink) Image() image.Image {
	return s.dc.Image()
}

// Command is one recorded drawing call.
type Command struct {
	Op         string  `json:"op"` // "rectangle", "text" or "show"
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	W          float64 `json:"w"`
	H          float64 `json:"h"`
	LineWidth  float64 `json:"line_width,omitempty"`
	Text       string  `json:"text,omitempty"`
	Color      string  `json:"color,omitempty"`      // Stroke or text color, hex
	Background string  `json:"background,omitempty"` // Label background, hex with alpha
}

// CommandLog is a Sink that records calls instead of drawing.
type CommandLog struct {
	Commands []Command `json:"commands"`
}

// DrawRectangle records a rectangle command.
func (l *CommandLog) DrawRectangle(x, y, w, h float64, c color.Color, lineWidth float64) {
	l.Commands = append(l.Commands, Command{
		Op: "rectangle", X: x, Y: y, W: w, H: h,
		LineWidth: lineWidth,
		Color:     hexString(c),
	})
}

// DrawText records a text command.
func (l *CommandLog) DrawText(x, y float64, text string, fg, bg color.Color) {
	l.Commands = append(l.Commands, Command{
		Op: "text", X: x, Y: y,
		Text:       text,
		Color:      hexString(fg),
		Background: hexString(bg),
	})
}

// Show records a show command.
func (l *CommandLog) Show() error {
	l.Commands = append(l.Commands, Command{Op: "show"})
	return nil
}
