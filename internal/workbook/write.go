package workbook

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the name excelize gives the first sheet of a new workbook.
const DefaultSheet = "Sheet1"

// Sheet limits a record must fit within.
const (
	MaxColumns   = excelize.MaxColumns
	MaxCellChars = excelize.TotalCellChars
)

// Write replaces the file at path with a single-sheet workbook holding ds.
// The workbook is written to a temporary file in the same directory and
// renamed into place, so readers see either the old or the new content.
func Write(path, sheet string, ds *Dataset) error {
	if sheet == "" {
		sheet = DefaultSheet
	}

	f, err := buildWorkbook(sheet, ds)
	if err != nil {
		return &FileError{Path: path, Op: "write", Err: err}
	}
	defer f.Close()

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &FileError{Path: path, Op: "write", Err: err}
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpName)
		}
	}()

	if _, err := f.WriteTo(tmp); err != nil {
		tmp.Close()
		return &FileError{Path: path, Op: "write", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &FileError{Path: path, Op: "write", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &FileError{Path: path, Op: "write", Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &FileError{Path: path, Op: "write", Err: err}
	}
	committed = true
	return nil
}

// buildWorkbook lays out ds on a fresh workbook: header row first, then one
// row per record. Nil values leave the cell empty.
func buildWorkbook(sheet string, ds *Dataset) (*excelize.File, error) {
	f := excelize.NewFile()
	if sheet != DefaultSheet {
		if err := f.SetSheetName(DefaultSheet, sheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("rename sheet: %w", err)
		}
	}
	if ds == nil {
		return f, nil
	}

	header := ds.Header()
	for col, name := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetCellStr(sheet, cell, name); err != nil {
			f.Close()
			return nil, fmt.Errorf("header %q: %w", name, err)
		}
	}

	for i, rec := range ds.Records {
		for col, name := range header {
			v, ok := rec[name]
			if !ok || v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				f.Close()
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				f.Close()
				return nil, fmt.Errorf("cell %s: %w", cell, err)
			}
		}
	}

	return f, nil
}
