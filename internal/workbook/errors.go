package workbook

import (
	"errors"
	"fmt"
)

// ErrFileNotFound indicates the workbook file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrUnreadable indicates the file exists but could not be opened as a workbook.
var ErrUnreadable = errors.New("unreadable workbook")

// ErrInvalidSheet indicates the workbook has no sheet whose rows can be read.
var ErrInvalidSheet = errors.New("invalid sheet structure")

// FileError records a failed workbook operation and the file it touched.
type FileError struct {
	Path string
	Op   string // "read", "write"
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
