package postgres

import (
	"context"

	"github.com/dom/studyhub/internal/domain"
	"gorm.io/gorm"
)

type pdfRepository struct {
	db *gorm.DB
}

func NewPdfRepository(db *gorm.DB) *pdfRepository {
	return &pdfRepository{db: db}
}

func (r *pdfRepository) Create(ctx context.Context, pdf *domain.Pdf) error {
	return r.db.WithContext(ctx).Create(pdf).Error
}

func (r *pdfRepository) ListByUser(ctx context.Context, userID uint) ([]*domain.Pdf, error) {
	pdfs := make([]*domain.Pdf, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&pdfs).Error
	if err != nil {
		return nil, err
	}
	return pdfs, nil
}

func (r *pdfRepository) GetByS3ID(ctx context.Context, s3ID string) (*domain.Pdf, error) {
	var pdf domain.Pdf
	err := r.db.WithContext(ctx).First(&pdf, "s3_id = ?", s3ID).Error
	if err != nil {
		return nil, notFound(err, domain.ErrPdfNotFound)
	}
	return &pdf, nil
}

func (r *pdfRepository) GetBySourceID(ctx context.Context, sourceID string) (*domain.Pdf, error) {
	var pdf domain.Pdf
	err := r.db.WithContext(ctx).First(&pdf, "source_id = ?", sourceID).Error
	if err != nil {
		return nil, notFound(err, domain.ErrPdfNotFound)
	}
	return &pdf, nil
}
