package logparse

import (
	"encoding/json"

	"github.com/ironsheep/detection-log-viz/internal/geom"
)

// Detection is one object instance reported for an image.
//
// Box is in the model reference frame and is kept exactly as printed, even
// when it is out of frame or has swapped corners.
type Detection struct {
	// ClassName is the trimmed label text. It is not checked against any
	// class vocabulary and may contain spaces.
	ClassName string `json:"class"`

	// Score is the confidence percentage as printed (normally 0-100).
	Score float64 `json:"score"`

	// Box is the detection box in model coordinates.
	Box geom.Box `json:"box"`
}

// ImageDetections pairs an image name with its detections.
type ImageDetections struct {
	Image      string      `json:"image"`
	Detections []Detection `json:"detections"`
}

// Result is an ordered mapping from image name to detections.
//
// Images are ordered by the first appearance of their header. Detections
// within an image are in log line order.
type Result struct {
	order  []string
	images map[string][]Detection
}

func newResult() *Result {
	return &Result{images: make(map[string][]Detection)}
}

// reset starts (or restarts) the detection list for name. A restarted image
// keeps its original position.
func (r *Result) reset(name string) {
	if _, ok := r.images[name]; !ok {
		r.order = append(r.order, name)
	}
	r.images[name] = []Detection{}
}

func (r *Result) add(name string, d Detection) {
	r.images[name] = append(r.images[name], d)
}

// Len returns the number of images in the result.
func (r *Result) Len() int {
	return len(r.order)
}

// Images returns the image names in order of first appearance.
func (r *Result) Images() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Detections returns the detections for name. The boolean is false when no
// header for name was seen.
func (r *Result) Detections(name string) ([]Detection, bool) {
	dets, ok := r.images[name]
	return dets, ok
}

// TotalDetections returns the number of detections across all images.
func (r *Result) TotalDetections() int {
	n := 0
	for _, dets := range r.images {
		n += len(dets)
	}
	return n
}

// Entries returns every image with its detections, in result order.
func (r *Result) Entries() []ImageDetections {
	out := make([]ImageDetections, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, ImageDetections{Image: name, Detections: r.images[name]})
	}
	return out
}

// MarshalJSON encodes the result as an ordered array of entries, since a JSON
// object would lose image order.
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Entries())
}
