package plate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"parkwise/internal/config"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
)

// NewFromConfig builds the Reader for the configured OCR backend.
func NewFromConfig(ctx context.Context, cfg config.OCRConfig) (*Reader, error) {
	timeout := time.Duration(cfg.Timeout) * time.Second

	var provider Provider
	switch strings.ToLower(cfg.Provider) {
	case "platerecognizer", "":
		if cfg.APIToken == "" {
			return nil, fmt.Errorf("ocr.api_token is required for the platerecognizer provider")
		}
		provider = NewPlateRecognizer(cfg.APIURL, cfg.APIToken, config.SplitList(cfg.Regions), timeout)
	case "rekognition":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		provider = NewRekognition(rekognition.NewFromConfig(awsCfg))
	case "none":
		provider = Disabled{}
	default:
		return nil, fmt.Errorf("unknown ocr provider %q", cfg.Provider)
	}

	opts := Options{
		Preprocess: PreprocessOptions{
			Rotate:  cfg.Rotate,
			Mirror:  cfg.Mirror,
			CropTop: cfg.CropTop,
		},
		MaxLength:     cfg.MaxPlateLength,
		MinConfidence: cfg.MinConfidence,
		Timeout:       timeout,
	}
	if cfg.DebugDir != "" {
		opts.Debug = DirSink{Dir: cfg.DebugDir}
	}

	return NewReader(provider, opts), nil
}
