package web

import (
	"net/http"
	"net/url"
	"os"

	"github.com/junnakarai/bankpocket/internal/csvio"
	"github.com/junnakarai/bankpocket/internal/logging"
)

// handleImport accepts a multipart CSV upload and runs the
// reconciliation. Per-row failures come back in the result body; only
// structural or commit failures produce an error status.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize)

	if err := r.ParseMultipartForm(s.cfg.Import.MaxFileSize); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "ファイルにアクセスできません"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "ファイルにアクセスできません"})
		return
	}
	defer file.Close()

	logger := logging.WithFields(r.Context(), "file", header.Filename, "size", header.Size)
	logger.Info("import started")

	result, err := s.engine.Import(r.Context(), file)
	if err != nil {
		logger.Error("import failed", "error", err)
		respondError(w, r, err)
		return
	}

	logger.Info("import finished",
		"success", result.SuccessCount,
		"failed", result.ErrorCount,
	)

	respondJSON(w, http.StatusOK, struct {
		*csvio.ImportResult
		Summary   string `json:"summary"`
		HasErrors bool   `json:"hasErrors"`
	}{result, result.Summary(), result.HasErrors()})
}

// handleExport writes all accounts to the fixed-name CSV file and
// serves it. The temp file is removed after the response.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	path, err := s.engine.ExportToFile(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer os.Remove(path)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		"attachment; filename=accounts.csv; filename*=UTF-8''"+url.PathEscape(csvio.ExportFileName))
	http.ServeFile(w, r, path)
}
