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

func TestPdfRepository(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewPdfRepository(testDB.DB)
	ctx := context.Background()

	owner, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	other, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	older := &domain.Pdf{UserID: owner.ID, S3ID: "uploads/older.pdf", SourceID: "src_older", Name: "older.pdf", CreatedAt: time.Now().Add(-time.Hour)}
	newer := &domain.Pdf{UserID: owner.ID, S3ID: "uploads/newer.pdf", SourceID: "src_newer", Name: "newer.pdf"}
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))

	t.Run("list is per user, newest first", func(t *testing.T) {
		pdfs, err := repo.ListByUser(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, pdfs, 2)
		assert.Equal(t, "newer.pdf", pdfs[0].Name)
		assert.Equal(t, "older.pdf", pdfs[1].Name)

		none, err := repo.ListByUser(ctx, other.ID)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("lookup by object key", func(t *testing.T) {
		got, err := repo.GetByS3ID(ctx, "uploads/older.pdf")
		require.NoError(t, err)
		assert.Equal(t, older.ID, got.ID)
		assert.Equal(t, owner.ID, got.UserID)

		_, err = repo.GetByS3ID(ctx, "uploads/missing.pdf")
		assert.ErrorIs(t, err, domain.ErrPdfNotFound)
	})

	t.Run("lookup by source id", func(t *testing.T) {
		got, err := repo.GetBySourceID(ctx, "src_newer")
		require.NoError(t, err)
		assert.Equal(t, newer.ID, got.ID)

		_, err = repo.GetBySourceID(ctx, "src_missing")
		assert.ErrorIs(t, err, domain.ErrPdfNotFound)
	})

	t.Run("duplicate object key", func(t *testing.T) {
		err := repo.Create(ctx, &domain.Pdf{UserID: owner.ID, S3ID: "uploads/older.pdf", SourceID: "src_x", Name: "dup.pdf"})
		assert.Error(t, err)
	})

	t.Run("documents go with their owner", func(t *testing.T) {
		require.NoError(t, testDB.DB.Delete(&domain.User{}, owner.ID).Error)
		_, err := repo.GetByS3ID(ctx, "uploads/newer.pdf")
		assert.ErrorIs(t, err, domain.ErrPdfNotFound)
	})
}
