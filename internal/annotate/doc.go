// Package annotate turns rescaled detections into drawing commands.
//
// A Renderer walks the detections of one image in order and issues, for each
// one, an unfilled rectangle and a text label to a Sink. The Sink is the
// drawing surface: RasterSink paints onto a copy of the source image with
// fogleman/gg, CommandLog just records what was asked for.
//
// # Color Assignment
//
// The i-th detection (0-based) of an image gets Palette.At(i), that is
// palette[i mod len(palette)]. Assignment depends only on the index, so the
// same input order and palette always produce the same picture, and the cycle
// restarts at zero for every image.
//
// # Label Layout
//
// Labels read "<class> <score>%" and are anchored at (x1, y1 - LabelOffset),
// the text baseline sitting just above the box's top-left corner. The label
// background is the detection color at LabelAlpha opacity; the text is black
// or white, whichever contrasts better with that color.
//
// Detections are drawn in the order received. Later boxes and labels may
// cover earlier ones.
package annotate
