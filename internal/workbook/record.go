// Package workbook reads and writes the spreadsheet file that backs the
// record dataset.
//
// A workbook is treated as a single table: the first sheet's first row holds
// the column headers and every following non-blank row is one [Record]. Reads
// always load the whole sheet and writes always replace the whole file.
package workbook

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
)

// IDField is the reserved field holding a record's identifier.
const IDField = "id"

// Record is one row of the sheet, keyed by column header.
// Values are string, int64, float64, bool, or nil.
type Record map[string]any

// ID returns the record's numeric identifier. Non-numeric or fractional ids
// report false, so they never match an integer lookup.
func (r Record) ID() (int64, bool) {
	return asInt(r[IDField])
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Dataset is the full ordered contents of a sheet.
type Dataset struct {
	// Columns is the header order as read from the file.
	Columns []string
	Records []Record
}

// IndexOf returns the position of the first record whose id equals id, or -1.
func (d *Dataset) IndexOf(id int64) int {
	for i, rec := range d.Records {
		if got, ok := rec.ID(); ok && got == id {
			return i
		}
	}
	return -1
}

// Header returns the columns to write: the known columns first, then any
// field that only appears in records, in order of first appearance. Fields
// new to the same record are sorted so output is deterministic.
func (d *Dataset) Header() []string {
	seen := make(map[string]bool, len(d.Columns))
	header := make([]string, 0, len(d.Columns))
	for _, c := range d.Columns {
		if seen[c] {
			continue
		}
		seen[c] = true
		header = append(header, c)
	}

	for _, rec := range d.Records {
		var extra []string
		for k := range rec {
			if !seen[k] {
				extra = append(extra, k)
			}
		}
		sort.Strings(extra)
		for _, k := range extra {
			seen[k] = true
			header = append(header, k)
		}
	}
	return header
}

// NormalizeValue converts a value decoded from JSON into something a cell
// can hold. Numbers decoded with UseNumber become int64 or float64, nested
// objects and arrays are stored as their JSON text.
func NormalizeValue(v any) any {
	switch t := v.(type) {
	case nil, string, bool, int64, float64:
		return t
	case int:
		return int64(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return normalizeFloat(f)
		}
		return t.String()
	case float32:
		return normalizeFloat(float64(t))
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return nil
		}
		return string(b)
	}
}

// NormalizeRecord applies NormalizeValue to every field of m.
func NormalizeRecord(m map[string]any) Record {
	rec := make(Record, len(m))
	for k, v := range m {
		rec[k] = NormalizeValue(v)
	}
	return rec
}

// normalizeFloat folds integral floats into int64 so ids survive a
// round-trip through JSON clients that send 1.7e12 style numbers.
func normalizeFloat(f float64) any {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return f
}

func asInt(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<63 {
			return int64(t), true
		}
	case json.Number:
		i, err := t.Int64()
		return i, err == nil
	}
	return 0, false
}

// parseValue decodes raw cell text into int64, float64, or the original string.
func parseValue(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return normalizeFloat(f)
	}
	return s
}
