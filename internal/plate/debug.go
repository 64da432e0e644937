package plate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// DebugSink stores processed frames for later inspection.
type DebugSink interface {
	Save(ctx context.Context, data []byte) (string, error)
}

// DirSink writes frames into a directory with random file names.
type DirSink struct {
	Dir string
}

func (s DirSink) Save(ctx context.Context, data []byte) (string, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create debug directory: %w", err)
	}
	path := filepath.Join(s.Dir, fmt.Sprintf("%s.jpg", uuid.NewString()))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save processed image: %w", err)
	}
	return path, nil
}
