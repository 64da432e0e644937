package plate

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// twoTone returns a PNG with a red top half and a blue bottom half.
func twoTone(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		c := color.NRGBA{R: 255, A: 255}
		if y >= h/2 {
			c = color.NRGBA{B: 255, A: 255}
		}
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Read(ctx context.Context, image []byte) (string, float32, error) {
	args := m.Called(ctx, image)
	return args.String(0), args.Get(1).(float32), args.Error(2)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"7c 25025", 7, "7C25025"},
		{" ba\t123 cd ", 0, "BA123CD"},
		{"ABCDEFGHIJ", 7, "ABCDEFG"},
		{"ab-12", 7, "AB12"},
		{"BA-123CD", 7, "BA123CD"},
		{"   ", 7, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in, tt.max), tt.in)
	}
}

func TestPreprocess_RotateMirrorCrop(t *testing.T) {
	out, err := Preprocess(twoTone(t, 20, 40), PreprocessOptions{Rotate: true, Mirror: true, CropTop: 0.5})
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())

	// After turning the frame over, the red half ends up at the bottom and survives the crop
	r, _, b, _ := img.At(10, 10).RGBA()
	assert.Greater(t, r>>8, uint32(200))
	assert.Less(t, b>>8, uint32(60))
}

func TestPreprocess_NoTransforms(t *testing.T) {
	out, err := Preprocess(twoTone(t, 16, 16), PreprocessOptions{})
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 16), img.Bounds())
}

func TestPreprocess_InvalidImage(t *testing.T) {
	_, err := Preprocess(nil, PreprocessOptions{})
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = Preprocess([]byte("definitely not a jpeg"), PreprocessOptions{})
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestReader_Recognize(t *testing.T) {
	provider := &mockProvider{}
	provider.On("Read", mock.Anything, mock.Anything).Return("7c 250 25x", float32(0.9), nil)

	dir := t.TempDir()
	reader := NewReader(provider, Options{MaxLength: 7, Debug: DirSink{Dir: dir}})

	result, err := reader.Recognize(context.Background(), twoTone(t, 8, 8))
	require.NoError(t, err)
	assert.True(t, result.Found())
	assert.Equal(t, "7C25025", result.Plate)
	assert.InDelta(t, 0.9, result.Confidence, 0.001)

	require.NotEmpty(t, result.ImagePath)
	_, err = os.Stat(result.ImagePath)
	assert.NoError(t, err)
	provider.AssertExpectations(t)
}

func TestReader_InvalidImageSkipsProvider(t *testing.T) {
	provider := &mockProvider{}
	reader := NewReader(provider, Options{})

	_, err := reader.Recognize(context.Background(), []byte{})
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = reader.Recognize(context.Background(), []byte{0x01, 0x02, 0x03})
	assert.ErrorIs(t, err, ErrInvalidImage)

	provider.AssertNotCalled(t, "Read", mock.Anything, mock.Anything)
}

func TestReader_ProviderFailureIsNoResult(t *testing.T) {
	for name, providerErr := range map[string]error{
		"unreachable": errors.New("dial tcp: connection refused"),
		"no plate":    ErrNoPlate,
	} {
		t.Run(name, func(t *testing.T) {
			provider := &mockProvider{}
			provider.On("Read", mock.Anything, mock.Anything).Return("", float32(0), providerErr)

			result, err := NewReader(provider, Options{}).Recognize(context.Background(), twoTone(t, 8, 8))
			require.NoError(t, err)
			assert.False(t, result.Found())
		})
	}
}

func TestReader_BelowConfidence(t *testing.T) {
	provider := &mockProvider{}
	provider.On("Read", mock.Anything, mock.Anything).Return("AB123CD", float32(0.2), nil)

	result, err := NewReader(provider, Options{MinConfidence: 0.5}).Recognize(context.Background(), twoTone(t, 8, 8))
	require.NoError(t, err)
	assert.False(t, result.Found())
}

func TestReader_TimeoutBoundsProvider(t *testing.T) {
	provider := &mockProvider{}
	provider.On("Read", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return("", float32(0), context.DeadlineExceeded)

	reader := NewReader(provider, Options{Timeout: 20 * time.Millisecond})

	start := time.Now()
	result, err := reader.Recognize(context.Background(), twoTone(t, 8, 8))
	require.NoError(t, err)
	assert.False(t, result.Found())
	assert.Less(t, time.Since(start), 5*time.Second)
	provider.AssertExpectations(t)
}

type failingSink struct{}

func (failingSink) Save(ctx context.Context, data []byte) (string, error) {
	return "", errors.New("disk full")
}

func TestReader_DebugFailureIgnored(t *testing.T) {
	provider := &mockProvider{}
	provider.On("Read", mock.Anything, mock.Anything).Return("AB123CD", float32(1), nil)

	result, err := NewReader(provider, Options{Debug: failingSink{}}).Recognize(context.Background(), twoTone(t, 8, 8))
	require.NoError(t, err)
	assert.Equal(t, "AB123CD", result.Plate)
	assert.Empty(t, result.ImagePath)
}

func TestDisabledProvider(t *testing.T) {
	result, err := NewReader(Disabled{}, Options{}).Recognize(context.Background(), twoTone(t, 8, 8))
	require.NoError(t, err)
	assert.False(t, result.Found())
}
