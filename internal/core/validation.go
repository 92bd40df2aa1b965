package core

// validation.go checks record bodies before they reach the workbook.
//
// A record must survive a write and read back unchanged, so every field name
// has to be a usable header and every value has to fit in a cell. Problems
// are collected per field so the client sees all of them at once.

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/registros/internal/workbook"
)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string // Field name, empty when the problem is the whole record
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%q: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationErrors is every problem found in one record.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, len(e))
	for i, ve := range e {
		parts[i] = ve.Error()
	}
	return "invalid record fields: " + strings.Join(parts, "; ")
}

// Unwrap makes errors.Is(err, ErrInvalidRecord) hold for validation failures.
func (e ValidationErrors) Unwrap() error {
	return ErrInvalidRecord
}

// ValidateRecord reports fields that cannot be stored as a header and cell.
// It returns nil or a ValidationErrors.
func ValidateRecord(fields map[string]any) error {
	var errs ValidationErrors

	if len(fields) > workbook.MaxColumns {
		errs = append(errs, ValidationError{
			Message: fmt.Sprintf("too many fields (%d, max %d)", len(fields), workbook.MaxColumns),
		})
	}

	for _, name := range sortedKeys(fields) {
		switch {
		case strings.TrimSpace(name) == "":
			errs = append(errs, ValidationError{Field: name, Message: "field name is empty"})
		case utf8.RuneCountInString(name) > workbook.MaxCellChars:
			errs = append(errs, ValidationError{Message: fmt.Sprintf("field name exceeds %d characters", workbook.MaxCellChars)})
		}

		if s, ok := workbook.NormalizeValue(fields[name]).(string); ok && utf8.RuneCountInString(s) > workbook.MaxCellChars {
			errs = append(errs, ValidationError{
				Field:   name,
				Message: fmt.Sprintf("value exceeds %d characters", workbook.MaxCellChars),
			})
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
