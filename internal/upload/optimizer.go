package upload

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"

	// Registers WebP decoding with image.Decode; JPEG/PNG/GIF/TIFF/BMP come
	// with the imaging package itself.
	_ "golang.org/x/image/webp"
)

const (
	// maxDimension bounds both width and height of stored images.
	maxDimension = 1200
	// jpegQuality is the canonical re-encode quality.
	jpegQuality = 80
)

// ErrUnsupportedOrCorrupt means the payload could not be decoded as an image
// even though its declared MIME type passed validation. Terminal for the file:
// the condition does not depend on network state, so it is never retried.
var ErrUnsupportedOrCorrupt = errors.New("unsupported or corrupt image data")

// Optimize normalizes accepted image bytes into the canonical stored form:
// decoded, shrunk to fit inside maxDimension x maxDimension (aspect ratio
// preserved, never enlarged), and re-encoded as JPEG at jpegQuality.
func Optimize(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedOrCorrupt, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxDimension || bounds.Dy() > maxDimension {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// OptimizedContentType is the MIME type of every stored asset after Optimize.
const OptimizedContentType = "image/jpeg"
