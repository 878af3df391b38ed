package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muntakson/salama/internal/media"
	"github.com/muntakson/salama/internal/models"
)

// newPostgresTestRepo connects to TEST_DATABASE_DSN and applies migrations
func newPostgresTestRepo(t *testing.T) *PostgresRepository {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set, skipping postgres tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, err := NewPostgresRepository(ctx, PostgresConfig{DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	require.NoError(t, RunMigrations(ctx, repo.Pool(), filepath.Join("..", "..", "migrations")))
	return repo
}

func TestPostgresCardLifecycle(t *testing.T) {
	repo := newPostgresTestRepo(t)
	ctx := context.Background()

	cat, err := repo.CreateCategory(ctx, models.CategoryInput{Name: "Test " + uuid.NewString(), NameSwahili: "Jaribio"})
	require.NoError(t, err)
	t.Cleanup(func() { repo.DeleteCategory(context.Background(), cat.ID) })

	card, err := repo.CreateCard(ctx, models.CardInput{
		Title:      "CPR Basics",
		CategoryID: &cat.ID,
		VideoURLs:  media.List{"v1.mp4", "v2.mp4"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { repo.DeleteCard(context.Background(), card.ID) })

	assert.Equal(t, "Jaribio", card.CategoryNameSwahili)
	assert.Equal(t, media.List{"v1.mp4", "v2.mp4"}, card.VideoURLs)
	assert.Equal(t, "Unknown", card.ContentProvider)

	viewed, err := repo.GetCard(ctx, card.ID, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), viewed.ViewCount)

	user := uuid.NewString()
	first, err := repo.LikeCard(ctx, card.ID, user)
	require.NoError(t, err)
	again, err := repo.LikeCard(ctx, card.ID, user)
	require.NoError(t, err)
	assert.True(t, first.Liked)
	assert.False(t, again.Liked)
	assert.Equal(t, first.LikeCount, again.LikeCount)

	_, err = repo.AddComment(ctx, card.ID, models.CommentInput{UserName: "Amina", CommentText: "Helpful"})
	require.NoError(t, err)
	comments, err := repo.ListComments(ctx, card.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 1)

	found, err := repo.ListCards(ctx, models.CardFilter{CategoryID: cat.ID, Search: "cpr"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, int64(1), found[0].CommentCount)
}

func TestPostgresLegacyMediaColumn(t *testing.T) {
	repo := newPostgresTestRepo(t)
	ctx := context.Background()

	var id int64
	err := repo.Pool().QueryRow(ctx, `
		INSERT INTO training_cards (title, video_urls, audio_urls)
		VALUES ('Legacy', 'https://cdn.example/one.mp4', 'not json')
		RETURNING id
	`).Scan(&id)
	require.NoError(t, err)
	t.Cleanup(func() { repo.DeleteCard(context.Background(), id) })

	card, err := repo.GetCard(ctx, id, false)
	require.NoError(t, err)
	assert.Equal(t, media.List{"https://cdn.example/one.mp4"}, card.VideoURLs)
	assert.Empty(t, card.AudioURLs)
}

func TestPostgresDefaultCategoryProtected(t *testing.T) {
	repo := newPostgresTestRepo(t)
	assert.ErrorIs(t, repo.DeleteCategory(context.Background(), models.DefaultCategoryID), ErrProtectedCategory)
}
