package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dom/studyhub/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// revokedTokenRepository is a denylist kept in the primary database, for
// multi-instance deployments that run without Redis.
type revokedTokenRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRevokedTokenRepository(db *gorm.DB) *revokedTokenRepository {
	return &revokedTokenRepository{db: db, now: time.Now}
}

func (r *revokedTokenRepository) Revoke(ctx context.Context, jti string, until time.Time) error {
	if !until.After(r.now()) {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.RevokedToken{JTI: jti, ExpiresAt: until}).Error
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *revokedTokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.RevokedToken{}).
		Where("jti = ? AND expires_at > ?", jti, r.now()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return count > 0, nil
}

// PurgeExpired deletes entries whose tokens have expired and returns how many were removed.
func (r *revokedTokenRepository) PurgeExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", r.now()).Delete(&domain.RevokedToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge revoked tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}
