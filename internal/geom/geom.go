// Package geom maps detection boxes between the model reference frame and
// the pixel frame of a source image.
//
// # Coordinate System
//
// Boxes use the standard image convention: origin (0, 0) at the top-left
// corner, X increasing rightward and Y increasing downward. A Box is the
// pair of corners (X1, Y1) and (X2, Y2) exactly as reported by the model.
//
// # Geometry Is Not Repaired
//
// Nothing in this package validates, orders or clamps coordinates. A box with
// X2 < X1, or with corners outside the frame, stays degenerate or
// out-of-frame after rescaling. Deciding what to do with such boxes belongs
// to the caller.
//
// # Known Limitation
//
// Rescale assumes the original image was resized (possibly non-uniformly) to
// exactly the model frame before inference. Letterbox padding applied
// upstream is not corrected.
package geom

import "math"

// Box is an axis-aligned detection box given by two corners.
type Box struct {
	X1 float64 `json:"x1"` // Left edge as reported
	Y1 float64 `json:"y1"` // Top edge as reported
	X2 float64 `json:"x2"` // Right edge as reported
	Y2 float64 `json:"y2"` // Bottom edge as reported
}

// Width returns X2 - X1. It is negative for a box whose corners are swapped.
func (b Box) Width() float64 {
	return b.X2 - b.X1
}

// Height returns Y2 - Y1. It is negative for a box whose corners are swapped.
func (b Box) Height() float64 {
	return b.Y2 - b.Y1
}

// Array returns the box as [x1, y1, x2, y2].
func (b Box) Array() [4]float64 {
	return [4]float64{b.X1, b.Y1, b.X2, b.Y2}
}

// BoxFromArray builds a Box from [x1, y1, x2, y2].
func BoxFromArray(a [4]float64) Box {
	return Box{X1: a[0], Y1: a[1], X2: a[2], Y2: a[3]}
}

// Size is the width and height of a frame in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether both dimensions are finite and strictly positive.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0 &&
		!math.IsInf(s.Width, 0) && !math.IsInf(s.Height, 0)
}

// ScaleFactors returns the per-axis factors that take model coordinates to
// target coordinates.
func ScaleFactors(model, target Size) (sx, sy float64) {
	return target.Width / model.Width, target.Height / model.Height
}

// Rescale maps box from the model frame into the target frame.
//
// X coordinates are multiplied by target.Width/model.Width and Y coordinates
// by target.Height/model.Height. The result is not rounded or clamped, so
// Rescale(b, m, m) == b for any valid m.
//
// # Example
//
//	model := geom.Size{Width: 512, Height: 512}
//	target := geom.Size{Width: 640, Height: 480}
//	geom.Rescale(geom.Box{X1: 32, Y1: 176, X2: 144, Y2: 432}, model, target)
//	// -> {40 165 180 405}
func Rescale(box Box, model, target Size) Box {
	sx, sy := ScaleFactors(model, target)
	return Box{
		X1: box.X1 * sx,
		Y1: box.Y1 * sy,
		X2: box.X2 * sx,
		Y2: box.Y2 * sy,
	}
}
