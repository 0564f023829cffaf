package imaging

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/ironsheep/detection-log-viz/internal/geom"
)

// CropResult contains the cropped image data
type CropResult struct {
	// Region is the pixel rectangle that was cut out, after clamping.
	Region      image.Rectangle `json:"-"`
	X1          int             `json:"x1"`
	Y1          int             `json:"y1"`
	X2          int             `json:"x2"`
	Y2          int             `json:"y2"`
	Width       int             `json:"width"`
	Height      int             `json:"height"`
	ImageBase64 string          `json:"image_base64"`
	MimeType    string          `json:"mime_type"`
}

// BoxRegion converts box to the pixel rectangle it covers inside bounds.
// Swapped corners are normalized, fractional edges are widened to whole
// pixels, and the result is clipped to bounds. It may be empty.
func BoxRegion(box geom.Box, bounds image.Rectangle) image.Rectangle {
	x1, x2 := math.Min(box.X1, box.X2), math.Max(box.X1, box.X2)
	y1, y2 := math.Min(box.Y1, box.Y2), math.Max(box.Y1, box.Y2)

	r := image.Rect(
		int(math.Floor(x1)), int(math.Floor(y1)),
		int(math.Ceil(x2)), int(math.Ceil(y2)),
	)
	return r.Intersect(bounds)
}

// CropBox cuts the area under box out of img, resizes it by scale and
// encodes it in format f. A box that lies entirely outside the image is an
// error.
func CropBox(img image.Image, box geom.Box, scale float64, f Format) (*CropResult, error) {
	region := BoxRegion(box, img.Bounds())
	if region.Empty() {
		return nil, errors.Errorf("box (%g,%g)-(%g,%g) does not overlap image bounds %v",
			box.X1, box.Y1, box.X2, box.Y2, img.Bounds())
	}

	cropped := imaging.Crop(img, region)

	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * scale)
		if newWidth < 1 {
			newWidth = 1
		}
		if newHeight < 1 {
			newHeight = 1
		}
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	data, err := EncodeBase64(cropped, f)
	if err != nil {
		return nil, err
	}

	return &CropResult{
		Region:      region,
		X1:          region.Min.X,
		Y1:          region.Min.Y,
		X2:          region.Max.X,
		Y2:          region.Max.Y,
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: data,
		MimeType:    f.MimeType(),
	}, nil
}
