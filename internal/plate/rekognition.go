package plate

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// Loose plate shape: letters and digits, optionally separated by a dash.
// Signs like "EXIT" are told apart by the required digit.
var (
	rePlateCandidate = regexp.MustCompile(`^[A-Z0-9]{2,4}-?[A-Z0-9]{2,5}$`)
	reHasDigit       = regexp.MustCompile(`[0-9]`)
)

type DetectTextAPI interface {
	DetectText(ctx context.Context, params *rekognition.DetectTextInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error)
}

// Rekognition reads plates with AWS Rekognition text detection. The
// candidate with the highest confidence wins. Confidence is scaled to [0, 1].
type Rekognition struct {
	client DetectTextAPI
}

func NewRekognition(client DetectTextAPI) *Rekognition {
	return &Rekognition{client: client}
}

func (r *Rekognition) Name() string { return "rekognition" }

func (r *Rekognition) Read(ctx context.Context, image []byte) (string, float32, error) {
	out, err := r.client.DetectText(ctx, &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: image},
	})
	if err != nil {
		return "", 0, fmt.Errorf("rekognition: %w", err)
	}

	var best string
	var bestConfidence float32
	for _, detection := range out.TextDetections {
		if detection.Type != types.TextTypesLine && detection.Type != types.TextTypesWord {
			continue
		}
		text := strings.ToUpper(strings.Join(strings.Fields(aws.ToString(detection.DetectedText)), ""))
		text = strings.ReplaceAll(text, ".", "")
		if !rePlateCandidate.MatchString(text) || !reHasDigit.MatchString(text) {
			continue
		}
		confidence := aws.ToFloat32(detection.Confidence) / 100
		if confidence > bestConfidence {
			best, bestConfidence = text, confidence
		}
	}

	if best == "" {
		return "", 0, ErrNoPlate
	}
	return best, bestConfidence, nil
}
