package plate

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

type Options struct {
	Preprocess PreprocessOptions
	// Plates longer than this are truncated. Zero disables truncation.
	MaxLength     int
	MinConfidence float32
	// Upper bound for a single provider call. Zero leaves only the caller's deadline.
	Timeout time.Duration
	// Optional, processed frames are saved here when set.
	Debug DebugSink
}

// Reader is the Recognizer used in production: it preprocesses the frame,
// hands it to a Provider and normalizes whatever comes back.
type Reader struct {
	provider Provider
	opts     Options
	logger   *slog.Logger
}

func NewReader(provider Provider, opts Options) *Reader {
	return &Reader{
		provider: provider,
		opts:     opts,
		logger:   slog.With("component", "plate", "provider", provider.Name()),
	}
}

// Recognize returns ErrInvalidImage for unusable input. Provider failures are
// logged and reported as an empty Result.
func (r *Reader) Recognize(ctx context.Context, image []byte) (Result, error) {
	processed, err := Preprocess(image, r.opts.Preprocess)
	if err != nil {
		return Result{}, err
	}

	var result Result
	if r.opts.Debug != nil {
		if path, err := r.opts.Debug.Save(ctx, processed); err != nil {
			r.logger.Warn("Failed to save processed image", "error", err)
		} else {
			result.ImagePath = path
		}
	}

	readCtx := ctx
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		readCtx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	raw, confidence, err := r.provider.Read(readCtx, processed)
	switch {
	case errors.Is(err, ErrNoPlate):
		r.logger.Debug("No plate detected")
		return result, nil
	case err != nil:
		r.logger.Warn("Plate recognition failed", "error", err)
		return result, nil
	}

	plate := Normalize(raw, r.opts.MaxLength)
	if plate == "" {
		r.logger.Debug("Provider returned an empty plate", "raw", raw)
		return result, nil
	}
	if confidence < r.opts.MinConfidence {
		r.logger.Info("Plate below confidence threshold", "plate", plate, "confidence", confidence, "min", r.opts.MinConfidence)
		return result, nil
	}

	result.Plate = plate
	result.Confidence = confidence
	r.logger.Info("Plate recognized", "plate", plate, "confidence", confidence)
	return result, nil
}

// Disabled is a Provider that never finds a plate.
type Disabled struct{}

func (Disabled) Name() string { return "none" }

func (Disabled) Read(ctx context.Context, image []byte) (string, float32, error) {
	return "", 0, ErrNoPlate
}
