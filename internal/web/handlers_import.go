package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/staffdir/internal/core"
	"github.com/JonMunkholm/staffdir/internal/logging"
)

// handleImport applies a JSON array or CSV payload. The branch is chosen by
// Content-Type; anything that is not JSON is parsed as CSV.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	kind := core.KindFromContentType(r.Header.Get("Content-Type"))
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxImportBytes)
	defer body.Close()

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.ImportTimeout)
	defer cancel()

	var result core.ImportResult
	err := s.imports.Run(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.importer.Import(ctx, body, kind)
		return err
	})
	if err != nil {
		s.metrics.ObserveImport(kind.String(), 0, core.MapError(err).Code, err)
		respondError(w, r, fmt.Errorf("import %s: %w", kind, err), statusFor(err))
		return
	}

	s.metrics.ObserveImport(kind.String(), result.Count, "", nil)
	writeJSON(w, http.StatusOK, result)
}

// handleExport serves the current directory as a download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := core.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename()))

	written, err := core.Export(w, s.store, format)
	if err != nil {
		// Headers are gone; the client sees a truncated body.
		logging.FromContext(r.Context()).Error("export failed", "format", format, "error", err)
		return
	}

	s.metrics.ObserveExport(string(format))
	logging.FromContext(r.Context()).Info("employees exported", "format", format, "count", len(written))
}
