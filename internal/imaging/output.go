package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// Format is an output image encoding.
type Format string

// Supported output formats.
const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatBMP  Format = "bmp"
)

// jpegQuality is used for every JPEG written.
const jpegQuality = 95

// ParseFormat accepts "png", "jpeg"/"jpg" and "bmp" in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png", "":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "bmp":
		return FormatBMP, nil
	default:
		return "", errors.Errorf("unsupported output format %q", s)
	}
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatBMP:
		return ".bmp"
	default:
		return ".png"
	}
}

// MimeType returns the media type for f.
func (f Format) MimeType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatBMP:
		return "image/bmp"
	default:
		return "image/png"
	}
}

// Encoder returns the bild encoder for f.
func (f Format) Encoder() imgio.Encoder {
	switch f {
	case FormatJPEG:
		return imgio.JPEGEncoder(jpegQuality)
	case FormatBMP:
		return imgio.BMPEncoder()
	default:
		return imgio.PNGEncoder()
	}
}

// SaveImage writes img to path in format f.
func SaveImage(img image.Image, path string, f Format) error {
	if err := imgio.Save(path, img, f.Encoder()); err != nil {
		return errors.Wrapf(err, "failed to save %s", path)
	}
	return nil
}

// EncodeBase64 encodes img in format f and returns it as standard base64.
func EncodeBase64(img image.Image, f Format) (string, error) {
	var buf bytes.Buffer
	if err := f.Encoder()(&buf, img); err != nil {
		return "", errors.Wrap(err, "failed to encode image")
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// FitMaxEdge shrinks img so neither side exceeds maxEdge, keeping the aspect
// ratio. Images already within bounds, and maxEdge <= 0, return img as is.
func FitMaxEdge(img image.Image, maxEdge int) image.Image {
	if maxEdge <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= maxEdge && b.Dy() <= maxEdge {
		return img
	}
	return imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos)
}
