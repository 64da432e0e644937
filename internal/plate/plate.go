// Package plate turns camera frames into normalized license plate strings.
package plate

import (
	"context"
	"errors"
	"strings"
	"unicode"
)

var (
	// ErrInvalidImage is returned for empty or undecodable images.
	ErrInvalidImage = errors.New("invalid image")
	// ErrNoPlate is returned by a Provider that found no plate in the image.
	ErrNoPlate = errors.New("no plate detected")
)

// Result of a recognition. An empty Plate means nothing was recognized.
type Result struct {
	Plate      string  `json:"plate"`
	Confidence float32 `json:"confidence"`
	// Where the processed frame was saved, if it was.
	ImagePath string `json:"image_path,omitempty"`
}

func (r Result) Found() bool {
	return r.Plate != ""
}

// Recognizer extracts a plate from a raw camera image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (Result, error)
}

// Provider is an OCR backend reading a plate from a preprocessed JPEG.
type Provider interface {
	Name() string
	Read(ctx context.Context, image []byte) (plate string, confidence float32, err error)
}

// Normalize upper-cases the plate, strips whitespace and hyphens and truncates it to
// maxLength runes. A maxLength of zero or less disables truncation.
func Normalize(plate string, maxLength int) string {
	var b strings.Builder
	for _, r := range plate {
		if unicode.IsSpace(r) || r == '-' {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	normalized := []rune(b.String())
	if maxLength > 0 && len(normalized) > maxLength {
		normalized = normalized[:maxLength]
	}
	return string(normalized)
}
