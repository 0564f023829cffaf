package imaging

import (
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io/fs"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

var (
	// ErrImageNotFound means the image file could not be located.
	ErrImageNotFound = errors.New("image not found")

	// ErrImageDecode means the file exists but is not a decodable image.
	ErrImageDecode = errors.New("image could not be decoded")
)

// ImageCache provides thread-safe caching of decoded images keyed by path.
//
// Images are decoded as stored, ignoring any EXIF orientation tag. The
// detector saw the stored pixel grid, so that is the frame detection boxes
// must be rescaled to.
//
// # Memory Management
//
// Cached images stay in memory until Evict or Clear. Batch callers that touch
// each image once should Evict it as soon as they are done with it.
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	img, err := cache.Load("images/bus.jpg")
//	if errors.Is(err, imaging.ErrImageNotFound) {
//	    // skip this image
//	}
//	defer cache.Evict("images/bus.jpg")
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves an image from the cache or decodes it from disk.
//
// Supported formats are PNG, JPEG and GIF. The returned error wraps
// ErrImageNotFound when the path does not exist and ErrImageDecode when the
// file cannot be read or decoded; test with errors.Is.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(ErrImageNotFound, "%s: %v", path, err)
		}
		return nil, errors.Wrapf(ErrImageDecode, "%s: %v", path, err)
	}

	img, err := imaging.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrImageDecode, "%s: %v", path, err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path. Unknown paths
// are ignored.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`
}

// Dimensions returns the pixel size of a decoded image.
func Dimensions(img image.Image) DimensionsResult {
	b := img.Bounds()
	return DimensionsResult{Width: b.Dx(), Height: b.Dy()}
}

// GetDimensions loads path through cache and returns its dimensions.
func GetDimensions(cache *ImageCache, path string) (*DimensionsResult, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	dims := Dimensions(img)
	return &dims, nil
}
