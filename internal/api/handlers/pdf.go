package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dom/studyhub/internal/api/middleware"
	"github.com/dom/studyhub/internal/domain"
	"github.com/dom/studyhub/internal/service"
	"github.com/go-chi/chi/v5"
)

const (
	maxUploadSize   = 32 << 20
	uploadFormField = "pdfFile"
)

type PdfHandler struct {
	pdfService *service.PdfService
	logger     *slog.Logger
}

func NewPdfHandler(pdfService *service.PdfService, logger *slog.Logger) *PdfHandler {
	return &PdfHandler{pdfService: pdfService, logger: logger}
}

type PdfResponse struct {
	ID       uint   `json:"id"`
	S3ID     string `json:"s3Id"`
	SourceID string `json:"sourceId"`
	Name     string `json:"name"`
}

type ChatRequest struct {
	SourceID string               `json:"sourceId"`
	Messages []domain.ChatMessage `json:"messages"`
}

func toPdfResponse(pdf *domain.Pdf) PdfResponse {
	return PdfResponse{ID: pdf.ID, S3ID: pdf.S3ID, SourceID: pdf.SourceID, Name: pdf.Name}
}

func (h *PdfHandler) Upload(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid upload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	pdf, err := h.pdfService.Upload(r.Context(), identity.UserID, service.UploadInput{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		File:        file,
	})
	if err != nil {
		if errors.Is(err, service.ErrNotPDF) {
			writeError(w, http.StatusBadRequest, "Only PDF files are allowed")
			return
		}
		h.logger.Error("pdf upload failed", "user_id", identity.UserID, "error", err)
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]PdfResponse{"pdf": toPdfResponse(pdf)})
}

func (h *PdfHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	pdfs, err := h.pdfService.List(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("failed to list pdfs", "user_id", identity.UserID, "error", err)
		writeInternalError(w)
		return
	}

	resp := make([]PdfResponse, 0, len(pdfs))
	for _, pdf := range pdfs {
		resp = append(resp, toPdfResponse(pdf))
	}
	writeJSON(w, http.StatusOK, map[string][]PdfResponse{"pdfs": resp})
}

// View redirects to a short-lived signed URL. The object key is the rest of
// the path, since keys contain slashes.
func (h *PdfHandler) View(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	s3ID := chi.URLParam(r, "*")
	if s3ID == "" {
		writeError(w, http.StatusBadRequest, "Missing document id")
		return
	}

	url, err := h.pdfService.ViewURL(r.Context(), identity.UserID, s3ID)
	if err != nil {
		if errors.Is(err, domain.ErrPdfNotFound) {
			writeError(w, http.StatusNotFound, "PDF not found")
			return
		}
		h.logger.Error("failed to sign pdf url", "user_id", identity.UserID, "s3_id", s3ID, "error", err)
		writeInternalError(w)
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

func (h *PdfHandler) Chat(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	content, err := h.pdfService.Chat(r.Context(), identity.UserID, req.SourceID, req.Messages)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSourceMissing),
			errors.Is(err, service.ErrEmptyChat),
			errors.Is(err, service.ErrInvalidChat):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrPdfNotFound):
			writeError(w, http.StatusNotFound, "PDF not found")
		default:
			h.logger.Error("pdf chat failed", "user_id", identity.UserID, "source_id", req.SourceID, "error", err)
			writeInternalError(w)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"content": content})
}
