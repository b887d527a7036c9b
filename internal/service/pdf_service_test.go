package service_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/dom/studyhub/internal/domain"
	"github.com/dom/studyhub/internal/logging"
	"github.com/dom/studyhub/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pdfFixture struct {
	svc   *service.PdfService
	repo  *memPdfRepo
	store *memObjectStore
	qa    *fakeQA
}

func newPdfFixture() *pdfFixture {
	f := &pdfFixture{
		repo:  &memPdfRepo{},
		store: newMemObjectStore(),
		qa:    &fakeQA{sourceID: "src_123", reply: "It is about gravity."},
	}
	f.svc = service.NewPdfService(f.repo, f.store, f.qa, logging.Discard())
	return f
}

func upload(t *testing.T, f *pdfFixture, userID uint, name string) *domain.Pdf {
	t.Helper()
	pdf, err := f.svc.Upload(context.Background(), userID, service.UploadInput{
		Filename:    name,
		ContentType: "application/pdf",
		File:        bytes.NewReader([]byte("%PDF-1.4 test document")),
	})
	require.NoError(t, err)
	return pdf
}

func TestPdfService_Upload(t *testing.T) {
	f := newPdfFixture()

	pdf := upload(t, f, 1, "notes.pdf")

	assert.Equal(t, uint(1), pdf.UserID)
	assert.Equal(t, "notes.pdf", pdf.Name)
	assert.Equal(t, "src_123", pdf.SourceID)
	assert.Regexp(t, `^uploads/[0-9a-f-]{36}\.pdf$`, pdf.S3ID)

	// Both the bucket and the QA provider saw the full file.
	assert.Equal(t, []byte("%PDF-1.4 test document"), f.store.objects[pdf.S3ID])
	assert.Equal(t, []byte("%PDF-1.4 test document"), f.qa.received)
}

func TestPdfService_UploadRejectsNonPDF(t *testing.T) {
	f := newPdfFixture()

	_, err := f.svc.Upload(context.Background(), 1, service.UploadInput{
		Filename:    "notes.txt",
		ContentType: "text/plain",
		File:        bytes.NewReader([]byte("hello")),
	})
	assert.ErrorIs(t, err, service.ErrNotPDF)
	assert.Empty(t, f.store.objects)
}

func TestPdfService_UploadStorageFailure(t *testing.T) {
	f := newPdfFixture()
	f.store.putErr = errors.New("bucket missing")

	_, err := f.svc.Upload(context.Background(), 1, service.UploadInput{
		Filename: "notes.pdf",
		File:     bytes.NewReader([]byte("%PDF")),
	})
	require.Error(t, err)

	pdfs, err := f.svc.List(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, pdfs)
}

func TestPdfService_UploadRemovesObjectOnFailure(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *pdfFixture)
	}{
		{
			name:  "chatpdf registration fails",
			setup: func(f *pdfFixture) { f.qa.addErr = errors.New("quota exceeded") },
		},
		{
			name:  "database insert fails",
			setup: func(f *pdfFixture) { f.repo.createErr = errors.New("connection reset") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPdfFixture()
			tt.setup(f)

			_, err := f.svc.Upload(context.Background(), 1, service.UploadInput{
				Filename:    "notes.pdf",
				ContentType: "application/pdf",
				File:        bytes.NewReader([]byte("%PDF-1.4 test document")),
			})
			require.Error(t, err)
			assert.Empty(t, f.store.objects, "object left in the bucket")
		})
	}
}

func TestPdfService_ListIsPerUser(t *testing.T) {
	f := newPdfFixture()
	upload(t, f, 1, "a.pdf")
	upload(t, f, 1, "b.pdf")
	upload(t, f, 2, "c.pdf")

	mine, err := f.svc.List(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	none, err := f.svc.List(context.Background(), 3)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestPdfService_ViewURL(t *testing.T) {
	f := newPdfFixture()
	pdf := upload(t, f, 1, "notes.pdf")
	ctx := context.Background()

	url, err := f.svc.ViewURL(ctx, 1, pdf.S3ID)
	require.NoError(t, err)
	assert.Equal(t, "https://bucket.example/"+pdf.S3ID+"?signed=1", url)

	_, err = f.svc.ViewURL(ctx, 2, pdf.S3ID)
	assert.ErrorIs(t, err, domain.ErrPdfNotFound)

	_, err = f.svc.ViewURL(ctx, 1, "uploads/missing.pdf")
	assert.ErrorIs(t, err, domain.ErrPdfNotFound)
}

func TestPdfService_Chat(t *testing.T) {
	ask := []domain.ChatMessage{{Role: domain.ChatRoleUser, Content: "What is this about?"}}

	tests := []struct {
		name     string
		userID   uint
		sourceID string
		messages []domain.ChatMessage
		wantErr  error
	}{
		{name: "owner can chat", userID: 1, sourceID: "src_123", messages: ask},
		{name: "missing source", userID: 1, sourceID: "", messages: ask, wantErr: service.ErrSourceMissing},
		{name: "no messages", userID: 1, sourceID: "src_123", wantErr: service.ErrEmptyChat},
		{
			name:     "bad role",
			userID:   1,
			sourceID: "src_123",
			messages: []domain.ChatMessage{{Role: "system", Content: "hi"}},
			wantErr:  service.ErrInvalidChat,
		},
		{
			name:     "blank content",
			userID:   1,
			sourceID: "src_123",
			messages: []domain.ChatMessage{{Role: domain.ChatRoleUser, Content: "  "}},
			wantErr:  service.ErrInvalidChat,
		},
		{name: "other user's document", userID: 2, sourceID: "src_123", messages: ask, wantErr: domain.ErrPdfNotFound},
		{name: "unknown source", userID: 1, sourceID: "src_nope", messages: ask, wantErr: domain.ErrPdfNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPdfFixture()
			upload(t, f, 1, "notes.pdf")

			content, err := f.svc.Chat(context.Background(), tt.userID, tt.sourceID, tt.messages)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, f.qa.lastChat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "It is about gravity.", content)
			assert.Equal(t, tt.messages, f.qa.lastChat)
		})
	}
}

func TestPdfService_ChatProviderFailure(t *testing.T) {
	f := newPdfFixture()
	upload(t, f, 1, "notes.pdf")
	f.qa.chatErr = errors.New("upstream 502")

	_, err := f.svc.Chat(context.Background(), 1, "src_123", []domain.ChatMessage{{Role: domain.ChatRoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrPdfNotFound)
}
