package web

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/registros/internal/core"
)

// handleListRecords returns every record in the dataset.
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.List(r.Context())
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, http.StatusOK, records)
}

// handleCreateRecord appends the posted object with a fresh id.
func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeRecord(w, r)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	rec, err := s.service.Create(ctx, fields)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	writeJSON(w, r, http.StatusCreated, rec)
}

// handleUpdateRecord merges the posted fields into the record with {id}.
func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeRecord(w, r)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	id, ok := parseID(r)
	if !ok {
		respondNotFound(w, r)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	rec, err := s.service.Update(ctx, id, fields)
	if err != nil {
		if errors.Is(err, core.ErrRecordNotFound) {
			respondNotFound(w, r)
			return
		}
		respondError(w, r, err, statusFor(err))
		return
	}

	writeJSON(w, r, http.StatusOK, rec)
}

// handleDeleteRecord removes the record with {id}.
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		respondNotFound(w, r)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	if err := s.service.Delete(ctx, id); err != nil {
		if errors.Is(err, core.ErrRecordNotFound) {
			respondNotFound(w, r)
			return
		}
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// statusFor picks the status for a service error other than not-found.
func statusFor(err error) int {
	if errors.Is(err, core.ErrInvalidRecord) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
