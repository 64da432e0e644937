package plate

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

type PreprocessOptions struct {
	// Camera is mounted upside down
	Rotate bool
	Mirror bool
	// Fraction of the frame height removed from the top, in [0, 1).
	CropTop float64
	Quality int
}

// Preprocess decodes the image, applies the configured transforms and
// re-encodes it as JPEG.
func Preprocess(data []byte, opts PreprocessOptions) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrInvalidImage
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, ErrInvalidImage
	}

	if opts.Rotate {
		img = imaging.Rotate180(img)
	}
	if opts.Mirror {
		img = imaging.FlipH(img)
	}
	if opts.CropTop > 0 && opts.CropTop < 1 {
		b := img.Bounds()
		top := int(float64(b.Dy())*opts.CropTop + 0.5)
		if top < b.Dy() {
			img = imaging.Crop(img, image.Rect(b.Min.X, b.Min.Y+top, b.Max.X, b.Max.Y))
		}
	}

	quality := opts.Quality
	if quality <= 0 {
		quality = 90
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode processed image: %w", err)
	}
	return buf.Bytes(), nil
}
