package workbook

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// utf8BOM is commonly prepended by Windows spreadsheet exports.
const utf8BOM = "\xEF\xBB\xBF"

// ReadCSV parses comma-separated text into a Dataset using the same rules as
// a workbook sheet: first row is the header, blank cells are omitted, and
// numeric text becomes a number.
func ReadCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(skipBOM(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSheet, err)
	}
	start := firstNonBlank(rows)
	if start == len(rows) {
		return &Dataset{Records: []Record{}}, nil
	}

	rawHeader := trimTrailingEmpty(rows[start])
	header := uniqueHeaders(rawHeader)
	records := make([]Record, 0, len(rows)-start-1)
	for _, row := range rows[start+1:] {
		rec := make(Record)
		for i, raw := range row {
			if i >= len(header) || strings.TrimSpace(raw) == "" {
				continue
			}
			rec[header[i]] = parseValue(raw)
		}
		if len(rec) == 0 {
			continue
		}
		records = append(records, rec)
	}

	return &Dataset{Columns: pruneBlankColumns(rawHeader, header, records), Records: records}, nil
}

// skipBOM drops a leading UTF-8 byte order mark.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8BOM)); err == nil && string(b) == utf8BOM {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

func trimTrailingEmpty(row []string) []string {
	end := len(row)
	for end > 0 && strings.TrimSpace(row[end-1]) == "" {
		end--
	}
	return row[:end]
}
