package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/registros/internal/logging"
	"github.com/JonMunkholm/registros/internal/workbook"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// ImportResult summarizes a dataset replacement.
type ImportResult struct {
	Records  int           `json:"records"`
	Columns  []string      `json:"columns"`
	Duration time.Duration `json:"duration"`
}

// ImportUpload stores r as a temporary file in the upload directory, then
// replaces the dataset with its contents. The temporary file is removed
// whether or not the import succeeds. fileName is only used for its
// extension, which selects the parser.
func (s *Service) ImportUpload(ctx context.Context, fileName string, r io.Reader) (*ImportResult, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	tmpPath, size, err := s.saveUpload(fileName, r)
	if err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			logging.FromContext(ctx).Warn("failed to remove upload", "path", tmpPath, "error", err)
		}
	}()

	logging.WithFields(ctx, "file", fileName, "size", humanize.Bytes(uint64(size))).
		Info("upload received", "tmp", tmpPath)

	return s.replace(ctx, tmpPath)
}

// ReplaceFromFile replaces the dataset with the first sheet of the file at
// path. The file itself is left in place.
func (s *Service) ReplaceFromFile(ctx context.Context, path string) (*ImportResult, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	return s.replace(ctx, path)
}

// replace parses path outside the lock and only serializes the write.
func (s *Service) replace(ctx context.Context, path string) (*ImportResult, error) {
	start := time.Now()

	ds, err := workbook.ReadFile(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	err = s.store.Save(ds)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		Records:  len(ds.Records),
		Columns:  ds.Columns,
		Duration: time.Since(start),
	}
	callerLogger(ctx).Info("dataset replaced",
		"records", result.Records,
		"columns", len(result.Columns),
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

// saveUpload copies r into <uploadDir>/<uuid><ext> and returns the path and
// number of bytes written.
func (s *Service) saveUpload(fileName string, r io.Reader) (string, int64, error) {
	dir := s.uploadDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, err
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	path := filepath.Join(dir, uuid.NewString()+ext)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", 0, err
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", 0, err
	}
	return path, n, nil
}

// UploadLimiterStatus reports how many upload slots are in use.
func (s *Service) UploadLimiterStatus() UploadLimiterStatus {
	return s.limiter.Status()
}

// WaitForUploads blocks until in-flight uploads finish or ctx is done.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
