package web

// errors.go provides unified error response handling for the web layer.
//
// Technical errors are logged in full with the request id and returned to
// clients as a coded JSON message from core.MapError. Responses whose body
// is fixed by the API contract (the not-found message and the upload text
// replies) are written by their own helpers.

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/JonMunkholm/registros/internal/core"
	"github.com/JonMunkholm/registros/internal/logging"
)

// notFoundMessage is the body message for update/delete of an unknown id.
const notFoundMessage = "Registro no encontrado"

// ErrorResponse represents the JSON structure for API error responses.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Action  string   `json:"action,omitempty"`
	Code    string   `json:"code"`
	Details []string `json:"details,omitempty"`
}

// MessageResponse is the {"message": ...} body used for not-found replies.
type MessageResponse struct {
	Message string `json:"message"`
}

// respondError logs err and writes a JSON ErrorResponse with statusCode.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	writeJSON(w, r, statusCode, ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
		Details: validationDetails(err),
	})
}

// validationDetails lists per-field problems so the client can fix all of
// them in one go. Other errors have no details.
func validationDetails(err error) []string {
	var verrs core.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make([]string, len(verrs))
	for i, ve := range verrs {
		details[i] = ve.Error()
	}
	return details
}

// respondNotFound writes the 404 reply for an unknown record id.
func respondNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusNotFound, MessageResponse{Message: notFoundMessage})
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are only logged since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}

// writeText writes a plain-text reply.
func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, body)
}
