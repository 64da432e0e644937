package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// CleanupDir removes regular files in dir last modified before now minus maxAge.
// Subdirectories are left alone. A missing dir is not an error.
func CleanupDir(dir string, maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	cutoff := now.Add(-maxAge)
	removed := 0
	var errs []error
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// UploadCleanup is the job removing processed camera frames older than maxAge.
func UploadCleanup(dir string, maxAge time.Duration) Job {
	return func(ctx context.Context) error {
		removed, err := CleanupDir(dir, maxAge, time.Now())
		if removed > 0 {
			slog.Info("Removed old uploads", "component", "jobs", "dir", dir, "count", removed)
		}
		return err
	}
}
