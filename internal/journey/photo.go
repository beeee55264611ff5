package journey

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Stored photos are re-encoded as JPEG and fit within this box.
const (
	PhotoMaxDimension = 1024
	PhotoJPEGQuality  = 70
	PhotoContentType  = "image/jpeg"
)

// NormalizePhoto decodes an uploaded image, applies its EXIF orientation,
// scales it to fit PhotoMaxDimension and re-encodes it as JPEG.
func NormalizePhoto(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPhoto, err)
	}

	if b := img.Bounds(); b.Dx() > PhotoMaxDimension || b.Dy() > PhotoMaxDimension {
		img = imaging.Fit(img, PhotoMaxDimension, PhotoMaxDimension, imaging.Lanczos)
	}

	return encodeJPEG(img)
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(PhotoJPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode photo: %w", err)
	}
	return buf.Bytes(), nil
}
