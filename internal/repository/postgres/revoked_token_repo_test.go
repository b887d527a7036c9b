package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/dom/studyhub/internal/domain"
	"github.com/dom/studyhub/internal/repository/postgres"
	"github.com/dom/studyhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevokedTokenRepository(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewRevokedTokenRepository(testDB.DB)
	ctx := context.Background()

	t.Run("revoked until expiry", func(t *testing.T) {
		require.NoError(t, repo.Revoke(ctx, "jti-live", time.Now().Add(time.Hour)))

		revoked, err := repo.IsRevoked(ctx, "jti-live")
		require.NoError(t, err)
		assert.True(t, revoked)

		revoked, err = repo.IsRevoked(ctx, "jti-unknown")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("revoking twice is a no-op", func(t *testing.T) {
		until := time.Now().Add(time.Hour)
		require.NoError(t, repo.Revoke(ctx, "jti-twice", until))
		require.NoError(t, repo.Revoke(ctx, "jti-twice", until))

		var count int64
		require.NoError(t, testDB.DB.Model(&domain.RevokedToken{}).Where("jti = ?", "jti-twice").Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("past instants are ignored", func(t *testing.T) {
		require.NoError(t, repo.Revoke(ctx, "jti-past", time.Now().Add(-time.Minute)))

		revoked, err := repo.IsRevoked(ctx, "jti-past")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("purge drops only expired rows", func(t *testing.T) {
		stale := &domain.RevokedToken{JTI: "jti-stale", ExpiresAt: time.Now().Add(-time.Hour)}
		require.NoError(t, testDB.DB.Create(stale).Error)

		revoked, err := repo.IsRevoked(ctx, "jti-stale")
		require.NoError(t, err)
		assert.False(t, revoked, "expired rows no longer deny")

		removed, err := repo.PurgeExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		revoked, err = repo.IsRevoked(ctx, "jti-live")
		require.NoError(t, err)
		assert.True(t, revoked)
	})
}
