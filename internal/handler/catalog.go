package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tawjihai/tawjih/internal/model"
)

const maxCatalogUpload = 10 << 20

// handleExportCatalog returns the reference catalog in the import format.
func (h *Handler) handleExportCatalog(w http.ResponseWriter, r *http.Request) {
	export := h.store.Snapshot()
	now := time.Now().UTC()
	export.ExportedAt = &now
	writeJSON(w, http.StatusOK, export)
}

// handleUploadCatalog imports a catalog file sent as the catalog_file form field.
func (h *Handler) handleUploadCatalog(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCatalogUpload)
	if err := r.ParseMultipartForm(maxCatalogUpload); err != nil {
		h.writeError(w, r, fmt.Errorf("parse upload: %w", model.ErrValidation))
		return
	}

	file, header, err := r.FormFile("catalog_file")
	if err != nil {
		h.writeError(w, r, fmt.Errorf("catalog_file: %w", model.ErrValidation))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	res, err := h.store.ImportCatalogFile(header.Filename, data)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	slog.InfoContext(r.Context(), "catalog uploaded",
		"filename", header.Filename,
		"quizzes", res.Quizzes,
		"careers", res.Careers,
		"duplicate", res.Duplicate,
	)
	writeJSON(w, http.StatusOK, res)
}
