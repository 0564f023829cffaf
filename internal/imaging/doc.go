// Package imaging loads source images and writes annotated output.
//
// Decoding goes through disintegration/imaging without EXIF auto-orientation,
// so reported dimensions are those of the stored pixel grid, the same grid the
// detector ran on. Encoding goes through
// bild's imgio encoders. CropBox cuts the area under a detection box out of
// a loaded image.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner,
// X increasing rightward and Y increasing downward.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. The encode and resize
// helpers are stateless.
//
// # Error Handling
//
// Load failures are classified so callers can report them differently:
//   - ErrImageNotFound: the path does not exist
//   - ErrImageDecode: the path cannot be read, or is not a decodable image
//
// Both are wrapped with the offending path; use errors.Is to test for them.
// Errors in this package are built with github.com/pkg/errors.
//
// # Memory Management
//
// Decoded images are held by the cache until evicted. Batch processing should
// evict each image once it has been rendered.
package imaging
