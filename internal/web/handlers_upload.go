package web

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/registros/internal/core"
	"github.com/JonMunkholm/registros/internal/logging"
)

const (
	msgNoFile        = "No se ha subido ningún archivo."
	msgUploadOK      = "Archivo cargado y procesado correctamente."
	msgUploadFailed  = "Error al procesar el archivo: "
	multipartMemSize = 10 << 20
)

// handleUpload replaces the whole dataset with the first sheet of the
// uploaded spreadsheet.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	if err := r.ParseMultipartForm(multipartMemSize); err != nil {
		logging.FromContext(r.Context()).Warn("upload rejected", "error", err)
		writeText(w, http.StatusBadRequest, msgNoFile)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeText(w, http.StatusBadRequest, msgNoFile)
		return
	}
	defer file.Close()

	logging.FromContext(r.Context()).Info("receiving file", "file", header.Filename, "size", header.Size)

	ctx := WithRequestMetadata(r.Context(), r)
	if _, err := s.service.ImportUpload(ctx, header.Filename, file); err != nil {
		if errors.Is(err, core.ErrTooManyUploads) {
			respondError(w, r, err, http.StatusServiceUnavailable)
			return
		}
		logging.FromContext(r.Context()).Error("upload failed", "file", header.Filename, "error", err)
		writeText(w, http.StatusInternalServerError, msgUploadFailed+err.Error())
		return
	}

	writeText(w, http.StatusOK, msgUploadOK)
}
