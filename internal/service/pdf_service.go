package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/dom/studyhub/internal/domain"
	"github.com/dom/studyhub/internal/repository"
	"github.com/dom/studyhub/internal/storage"
	"github.com/google/uuid"
)

const (
	pdfContentType = "application/pdf"
	viewURLTTL     = 15 * time.Minute
)

var (
	ErrNotPDF        = errors.New("only PDF files are accepted")
	ErrEmptyChat     = errors.New("messages are required")
	ErrInvalidChat   = errors.New("each message needs a role of user or assistant and content")
	ErrSourceMissing = errors.New("sourceId is required")
)

// DocumentQA registers documents with and chats against a document-QA provider.
type DocumentQA interface {
	AddFile(ctx context.Context, filename string, file io.Reader) (string, error)
	Chat(ctx context.Context, sourceID string, messages []domain.ChatMessage) (string, error)
}

type PdfService struct {
	pdfRepo repository.PdfRepository
	store   storage.ObjectStore
	qa      DocumentQA
	logger  *slog.Logger
}

func NewPdfService(pdfRepo repository.PdfRepository, store storage.ObjectStore, qa DocumentQA, logger *slog.Logger) *PdfService {
	return &PdfService{pdfRepo: pdfRepo, store: store, qa: qa, logger: logger}
}

type UploadInput struct {
	Filename    string
	ContentType string
	// File must be seekable: it is read once for storage and again for ChatPDF.
	File io.ReadSeeker
}

func (s *PdfService) Upload(ctx context.Context, userID uint, input UploadInput) (*domain.Pdf, error) {
	if !isPDF(input.Filename, input.ContentType) {
		return nil, ErrNotPDF
	}

	key := "uploads/" + uuid.NewString() + ".pdf"
	if err := s.store.Put(ctx, key, input.File, pdfContentType); err != nil {
		return nil, fmt.Errorf("store pdf: %w", err)
	}

	if _, err := input.File.Seek(0, io.SeekStart); err != nil {
		s.discard(ctx, key)
		return nil, fmt.Errorf("rewind pdf: %w", err)
	}
	sourceID, err := s.qa.AddFile(ctx, input.Filename, input.File)
	if err != nil {
		s.discard(ctx, key)
		return nil, fmt.Errorf("register pdf with chatpdf: %w", err)
	}

	pdf := &domain.Pdf{
		UserID:   userID,
		S3ID:     key,
		SourceID: sourceID,
		Name:     input.Filename,
	}
	if err := s.pdfRepo.Create(ctx, pdf); err != nil {
		s.discard(ctx, key)
		return nil, fmt.Errorf("save pdf: %w", err)
	}

	s.logger.Info("pdf uploaded", "user_id", userID, "pdf_id", pdf.ID, "source_id", sourceID)
	return pdf, nil
}

func (s *PdfService) List(ctx context.Context, userID uint) ([]*domain.Pdf, error) {
	return s.pdfRepo.ListByUser(ctx, userID)
}

// ViewURL returns a short-lived download link for a document the user owns.
func (s *PdfService) ViewURL(ctx context.Context, userID uint, s3ID string) (string, error) {
	pdf, err := s.pdfRepo.GetByS3ID(ctx, s3ID)
	if err != nil {
		return "", err
	}
	if pdf.UserID != userID {
		return "", domain.ErrPdfNotFound
	}
	return s.store.PresignGet(ctx, pdf.S3ID, viewURLTTL)
}

func (s *PdfService) Chat(ctx context.Context, userID uint, sourceID string, messages []domain.ChatMessage) (string, error) {
	if sourceID == "" {
		return "", ErrSourceMissing
	}
	if len(messages) == 0 {
		return "", ErrEmptyChat
	}
	for _, m := range messages {
		if !m.Role.IsValid() || strings.TrimSpace(m.Content) == "" {
			return "", ErrInvalidChat
		}
	}

	pdf, err := s.pdfRepo.GetBySourceID(ctx, sourceID)
	if err != nil {
		return "", err
	}
	if pdf.UserID != userID {
		return "", domain.ErrPdfNotFound
	}

	content, err := s.qa.Chat(ctx, sourceID, messages)
	if err != nil {
		return "", fmt.Errorf("chat with pdf: %w", err)
	}
	return content, nil
}

func isPDF(filename, contentType string) bool {
	if strings.EqualFold(path.Ext(filename), ".pdf") {
		return true
	}
	return strings.HasPrefix(strings.ToLower(contentType), pdfContentType)
}

// discard removes an object whose upload did not complete. Failures are logged only.
func (s *PdfService) discard(ctx context.Context, key string) {
	if err := s.store.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.logger.Warn("failed to remove orphaned pdf object", "key", key, "error", err)
	}
}
