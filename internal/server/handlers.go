package server

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"

	mdexport "github.com/alnah/go-mdexport"
)

// editorPage is the data for the editor template.
type editorPage struct {
	Title       string
	Text        string
	PreviewHTML template.HTML
	Loading     bool
	PDFFilename string
}

type textRequest struct {
	Text string `json:"text"`
}

type importRequest struct {
	HTML string `json:"html"`
}

type mountRequest struct {
	Width int `json:"width"`
}

type statusResponse struct {
	Loading bool `json:"loading"`
	Mounted bool `json:"mounted"`
}

type docResponse struct {
	Filename string `json:"filename"`
	Href     string `json:"href"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) handleEditor(w http.ResponseWriter, r *http.Request) {
	ev, err := s.session.Snapshot(r.Context())
	if err != nil {
		s.logger.Warn("preview render failed", "error", err)
	}
	page := editorPage{
		Title: editorTitle,
		Text:  ev.Text,
		// Fragment is sanitized by the renderer.
		PreviewHTML: template.HTML(ev.HTML), //nolint:gosec
		Loading:     ev.Loading,
		PDFFilename: s.opts.PDFFilename,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.editor.Execute(w, page); err != nil {
		s.logger.Error("editor page failed", "error", err)
	}
}

func (s *Server) handleStyle(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	_, _ = w.Write([]byte(s.opts.Style))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Loading: s.session.Loading(),
		Mounted: s.session.Mounted(),
	})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	ev, err := s.session.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handlePutDocument(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.session.SetText(r.Context(), req.Text)
	s.handleGetDocument(w, r)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.session.ImportHTML(r.Context(), req.HTML); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.handleGetDocument(w, r)
}

func (s *Server) handleMount(w http.ResponseWriter, r *http.Request) {
	var req mountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.session.Mount(r.Context(), req.Width); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.handleStatus(w, r)
}

func (s *Server) handleUnmount(w http.ResponseWriter, r *http.Request) {
	s.session.Unmount(r.Context())
	s.handleStatus(w, r)
}

func (s *Server) handleExportDoc(w http.ResponseWriter, r *http.Request) {
	dl, err := s.session.ExportDocument(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, docResponse{Filename: dl.Filename, Href: dl.DataURI()})
}

// handleExportPDF runs the export to completion even if the client goes
// away; the converter timeout bounds the browser work.
func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	dl, err := s.session.ExportPDF(context.WithoutCancel(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+dl.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(dl.Data)))
	w.Header().Set("X-Page-Count", strconv.Itoa(dl.Pages))
	_, _ = w.Write(dl.Data)
}

// writeError maps session errors to status codes. Export failures get a
// generic message; the cause is in the session log.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, mdexport.ErrPreviewUnavailable):
		status, msg = http.StatusConflict, "preview is not mounted"
	case errors.Is(err, mdexport.ErrExportInProgress):
		status, msg = http.StatusConflict, "an export is already running"
	case errors.Is(err, mdexport.ErrInvalidWidth):
		status, msg = http.StatusBadRequest, "width must be positive"
	case errors.Is(err, mdexport.ErrHTMLImport):
		status, msg = http.StatusBadRequest, "could not convert HTML"
	case errors.Is(err, mdexport.ErrPDFExport):
		msg = "PDF export failed"
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: msg, RequestID: middleware.GetReqID(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}
