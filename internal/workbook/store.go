package workbook

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Store is the backing file of the dataset.
type Store struct {
	Path  string
	Sheet string
}

// NewStore returns a Store for the workbook at path.
func NewStore(path, sheet string) *Store {
	if sheet == "" {
		sheet = DefaultSheet
	}
	return &Store{Path: path, Sheet: sheet}
}

// Load reads the full dataset from the backing file.
func (s *Store) Load() (*Dataset, error) {
	return ReadFile(s.Path)
}

// Save replaces the backing file with ds.
func (s *Store) Save(ds *Dataset) error {
	return Write(s.Path, s.Sheet, ds)
}

// EnsureExists creates an empty workbook at the store's path when no file is
// there yet. It reports whether a file was created.
func (s *Store) EnsureExists() (bool, error) {
	_, err := os.Stat(s.Path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, &FileError{Path: s.Path, Op: "stat", Err: err}
	}

	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, &FileError{Path: s.Path, Op: "write", Err: err}
		}
	}
	if err := s.Save(&Dataset{}); err != nil {
		return false, err
	}
	return true, nil
}
