package workbook

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// emptyHeader names columns whose header cell is blank.
const emptyHeader = "__EMPTY"

// ReadFile parses the first sheet of the file at path into a Dataset.
// Files ending in .csv are parsed as comma-separated text; anything else is
// opened as an Excel workbook.
func ReadFile(path string) (*Dataset, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &FileError{Path: path, Op: "read", Err: ErrFileNotFound}
		}
		return nil, &FileError{Path: path, Op: "read", Err: err}
	}

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		fh, err := os.Open(path)
		if err != nil {
			return nil, &FileError{Path: path, Op: "read", Err: err}
		}
		defer fh.Close()

		ds, err := ReadCSV(fh)
		if err != nil {
			return nil, &FileError{Path: path, Op: "read", Err: err}
		}
		return ds, nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &FileError{Path: path, Op: "read", Err: fmt.Errorf("%w: %v", ErrUnreadable, err)}
	}
	defer f.Close()

	ds, err := readSheet(f)
	if err != nil {
		return nil, &FileError{Path: path, Op: "read", Err: err}
	}
	return ds, nil
}

// readSheet converts the workbook's first sheet into a Dataset.
func readSheet(f *excelize.File) (*Dataset, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidSheet)
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSheet, err)
	}
	start := firstNonBlank(rows)
	if start == len(rows) {
		return &Dataset{Records: []Record{}}, nil
	}

	header := uniqueHeaders(rows[start])
	records := make([]Record, 0, len(rows)-start-1)

	for rowIdx, row := range rows[start+1:] {
		rowNum := start + rowIdx + 2 // 1-based, after the header row
		rec := make(Record)
		for colIdx, raw := range row {
			if raw == "" || colIdx >= len(header) {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowNum)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidSheet, err)
			}
			typ, err := f.GetCellType(sheet, cell)
			if err != nil {
				return nil, fmt.Errorf("%w: cell %s: %v", ErrInvalidSheet, cell, err)
			}
			rec[header[colIdx]] = cellValue(typ, raw)
		}
		if len(rec) == 0 {
			continue
		}
		records = append(records, rec)
	}

	return &Dataset{Columns: pruneBlankColumns(rows[start], header, records), Records: records}, nil
}

// cellValue interprets raw cell text according to the cell's stored type.
func cellValue(typ excelize.CellType, raw string) any {
	switch typ {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	case excelize.CellTypeNumber, excelize.CellTypeUnset, excelize.CellTypeFormula, excelize.CellTypeDate:
		return parseValue(raw)
	default:
		return raw
	}
}

// uniqueHeaders turns the first row into field names. Blank headers become
// __EMPTY, __EMPTY_1, ... and repeated names get a numeric suffix.
func uniqueHeaders(row []string) []string {
	header := make([]string, len(row))
	used := make(map[string]bool, len(row))
	for i, raw := range row {
		base := strings.TrimSpace(raw)
		if base == "" {
			base = emptyHeader
		}
		name := base
		for n := 1; used[name]; n++ {
			name = base + "_" + strconv.Itoa(n)
		}
		used[name] = true
		header[i] = name
	}
	return header
}

// firstNonBlank returns the index of the first row holding any non-blank
// cell, or len(rows). The table starts there even when it does not start
// on row 1.
func firstNonBlank(rows [][]string) int {
	for i, row := range rows {
		if !isBlankRow(row) {
			return i
		}
	}
	return len(rows)
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// pruneBlankColumns drops columns named for a blank header cell when no
// record has a value under them.
func pruneBlankColumns(raw, header []string, records []Record) []string {
	out := make([]string, 0, len(header))
	for i, name := range header {
		if i < len(raw) && strings.TrimSpace(raw[i]) == "" && !anyHas(records, name) {
			continue
		}
		out = append(out, name)
	}
	return out
}

func anyHas(records []Record, field string) bool {
	for _, rec := range records {
		if _, ok := rec[field]; ok {
			return true
		}
	}
	return false
}
