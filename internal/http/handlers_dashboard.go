package http

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"anjo/internal/log"
	"anjo/internal/session"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	f, resp := parseFilter(r.URL.Query())
	if resp != nil {
		resp.Write(w)
		return
	}
	stats, err := s.ledger.Stats(r.Context(), owner(r), f)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewResponse().JSON(stats).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.ledger.Summary(r.Context(), owner(r))
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewResponse().JSON(map[string]string{"summary": summary}).Write(w)
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"achievements": s.ledger.Achievements(r.Context(), owner(r)),
	}).Write(w)
}

// handleTip addresses the user by the name query parameter, falling back
// to the session name.
func (s *Server) handleTip(w http.ResponseWriter, r *http.Request) {
	name := sanitizeInput(r.URL.Query().Get("name"))
	if name == "" {
		if id, ok := session.FromContext(r.Context()); ok {
			name = id.Name
		}
	}
	tip, err := s.ledger.Tip(r.Context(), owner(r), name)
	if err != nil {
		s.fail(w, r, log.OpTip, err)
		return
	}
	NewResponse().JSON(map[string]string{"tip": tip}).Write(w)
}

// handleScanReceipt reads the "image" part of a multipart upload and
// returns the extracted transaction draft.
func (s *Server) handleScanReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxReceiptBytes+1<<20)
	if err := r.ParseMultipartForm(maxReceiptBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ErrorResponse(http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "receipt image too large").Write(w)
			return
		}
		BadRequestError("expected a multipart form").Write(w)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		FieldsError(map[string]string{"image": "is required"}).Write(w)
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxReceiptBytes+1))
	if err != nil {
		BadRequestError("could not read the uploaded image").Write(w)
		return
	}
	if len(image) > maxReceiptBytes {
		ErrorResponse(http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "receipt image too large").Write(w)
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(image)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		FieldsError(map[string]string{"image": "must be an image"}).Write(w)
		return
	}

	res, err := s.ledger.ScanReceipt(r.Context(), owner(r), image, mimeType)
	if err != nil {
		s.fail(w, r, log.OpScan, err)
		return
	}
	if res == nil {
		ErrorResponse(http.StatusUnprocessableEntity, "RECEIPT_UNREADABLE", "could not read the receipt").Write(w)
		return
	}
	NewResponse().JSON(res).Write(w)
}

// handleExport streams the statement as CSV. The body is buffered so a
// failure can still be reported as JSON.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.ledger.Export(r.Context(), owner(r), &buf); err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="extrato-anjo.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
