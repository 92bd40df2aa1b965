package web

// handlers_common.go holds request parsing shared by the record handlers.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/registros/internal/core"
	"github.com/go-chi/chi/v5"
)

// maxRecordBodySize bounds JSON bodies for create and update.
const maxRecordBodySize = 1 << 20

// parseID reads the {id} URL parameter the way a lenient integer parse
// does: leading spaces and a sign are allowed, then the longest run of
// digits is used and anything after it is ignored ("5abc" is 5). A value
// with no leading digits can never match a record.
func parseID(r *http.Request) (int64, bool) {
	return leadingInt(chi.URLParam(r, "id"))
}

func leadingInt(s string) (int64, bool) {
	s = strings.TrimLeft(s, " \t\n\r")

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}

	id, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// decodeRecord reads a JSON object from the request body. Numbers are kept
// as json.Number so integers survive without float rounding. An empty body
// decodes to an empty object.
func decodeRecord(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRecordBodySize))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidRecord, err)
	}
	if fields == nil {
		return nil, core.ErrInvalidRecord
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after object", core.ErrInvalidRecord)
	}
	return fields, nil
}
