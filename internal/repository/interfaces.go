package repository

import (
	"context"

	"github.com/dom/studyhub/internal/domain"
)

// UserRepository is the credential store. Create relies on the storage layer's
// unique indexes and reports duplicates as domain.ErrUsernameTaken or domain.ErrEmailTaken.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uint) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsernameOrEmail(ctx context.Context, identifier string) (*domain.User, error)
}

type PdfRepository interface {
	Create(ctx context.Context, pdf *domain.Pdf) error
	ListByUser(ctx context.Context, userID uint) ([]*domain.Pdf, error)
	GetByS3ID(ctx context.Context, s3ID string) (*domain.Pdf, error)
	GetBySourceID(ctx context.Context, sourceID string) (*domain.Pdf, error)
}

type Repositories struct {
	User UserRepository
	Pdf  PdfRepository
}
