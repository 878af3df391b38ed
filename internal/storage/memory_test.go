package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muntakson/salama/internal/media"
	"github.com/muntakson/salama/internal/models"
)

func int64Ptr(v int64) *int64 { return &v }

func newTestRepo(t *testing.T) (*MemoryRepository, *models.Category) {
	t.Helper()
	repo := NewMemoryRepository()

	tick := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	cat, err := repo.CreateCategory(context.Background(), models.CategoryInput{
		Name:        "Suction Pumps",
		NameSwahili: "Pampu za Kunyonya",
		NameKorean:  "석션 펌프",
	})
	require.NoError(t, err)
	return repo, cat
}

func TestMemoryDefaultCategoryProtected(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	err := repo.DeleteCategory(ctx, models.DefaultCategoryID)
	assert.ErrorIs(t, err, ErrProtectedCategory)

	cats, err := repo.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "All", cats[0].Name)
}

func TestMemoryCategoryConflictAndEnsure(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.CreateCategory(ctx, models.CategoryInput{Name: "Suction Pumps"})
	assert.ErrorIs(t, err, ErrConflict)

	n, err := repo.EnsureCategories(ctx, []models.CategoryInput{
		{Name: "All"},
		{Name: "Suction Pumps"},
		{Name: "Lighting", NameSwahili: "Taa"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemoryDeleteCategoryUncategorizesCards(t *testing.T) {
	repo, cat := newTestRepo(t)
	ctx := context.Background()

	card, err := repo.CreateCard(ctx, models.CardInput{Title: "Pump care", CategoryID: int64Ptr(cat.ID)})
	require.NoError(t, err)
	assert.Equal(t, "Suction Pumps", card.CategoryName)

	require.NoError(t, repo.DeleteCategory(ctx, cat.ID))

	got, err := repo.GetCard(ctx, card.ID, false)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
	assert.Empty(t, got.CategoryName)
}

func TestMemoryCreateCardUnknownCategory(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.CreateCard(context.Background(), models.CardInput{Title: "x", CategoryID: int64Ptr(99)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryListCardsFilterAndOrder(t *testing.T) {
	repo, cat := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.CreateCard(ctx, models.CardInput{Title: "Lamp bulbs", MarkdownText: "replace the bulb"})
	require.NoError(t, err)
	pump, err := repo.CreateCard(ctx, models.CardInput{Title: "Pump care", CategoryID: int64Ptr(cat.ID), MarkdownText: "Check the FILTER"})
	require.NoError(t, err)

	all, err := repo.ListCards(ctx, models.CardFilter{CategoryID: models.DefaultCategoryID})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, pump.ID, all[0].ID, "newest first")

	byCat, err := repo.ListCards(ctx, models.CardFilter{CategoryID: cat.ID})
	require.NoError(t, err)
	require.Len(t, byCat, 1)
	assert.Equal(t, "Pump care", byCat[0].Title)

	bySearch, err := repo.ListCards(ctx, models.CardFilter{Search: "filter"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, pump.ID, bySearch[0].ID)
}

func TestMemoryCardDefaultsAndMedia(t *testing.T) {
	repo, _ := newTestRepo(t)

	card, err := repo.CreateCard(context.Background(), models.CardInput{
		Title:     "CPR Basics",
		VideoURL:  "legacy.mp4",
		VideoURLs: media.List{"v1.mp4", "v2.mp4"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Unknown", card.ContentProvider)
	assert.Equal(t, "All", card.TargetAudience)
	assert.Equal(t, models.Beginner, card.DifficultyLevel)
	assert.Equal(t, "legacy.mp4", card.VideoURL)
	assert.Equal(t, media.List{"v1.mp4", "v2.mp4"}, card.VideoURLs)
}

func TestMemoryGetCardCountsViews(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	card, err := repo.CreateCard(ctx, models.CardInput{Title: "Autoclave"})
	require.NoError(t, err)

	_, err = repo.GetCard(ctx, card.ID, true)
	require.NoError(t, err)
	got, err := repo.GetCard(ctx, card.ID, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ViewCount)

	peek, err := repo.GetCard(ctx, card.ID, false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), peek.ViewCount)

	_, err = repo.GetCard(ctx, 404, true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryLikeIsIdempotentPerVisitor(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	card, err := repo.CreateCard(ctx, models.CardInput{Title: "Autoclave"})
	require.NoError(t, err)

	first, err := repo.LikeCard(ctx, card.ID, "visitor-a")
	require.NoError(t, err)
	assert.True(t, first.Liked)
	assert.Equal(t, int64(1), first.LikeCount)

	again, err := repo.LikeCard(ctx, card.ID, "visitor-a")
	require.NoError(t, err)
	assert.False(t, again.Liked)
	assert.Equal(t, int64(1), again.LikeCount)

	other, err := repo.LikeCard(ctx, card.ID, "visitor-b")
	require.NoError(t, err)
	assert.Equal(t, int64(2), other.LikeCount)

	_, err = repo.LikeCard(ctx, 404, "visitor-a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCommentsNewestFirst(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	card, err := repo.CreateCard(ctx, models.CardInput{Title: "Autoclave"})
	require.NoError(t, err)

	_, err = repo.AddComment(ctx, card.ID, models.CommentInput{UserName: "Amina", CommentText: "first"})
	require.NoError(t, err)
	_, err = repo.AddComment(ctx, card.ID, models.CommentInput{UserName: "Jin", CommentText: "second"})
	require.NoError(t, err)

	comments, err := repo.ListComments(ctx, card.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "second", comments[0].CommentText)

	got, err := repo.GetCard(ctx, card.ID, false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.CommentCount)

	_, err = repo.AddComment(ctx, 404, models.CommentInput{UserName: "x", CommentText: "y"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryDeleteCardCascades(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	card, err := repo.CreateCard(ctx, models.CardInput{Title: "Autoclave"})
	require.NoError(t, err)
	_, err = repo.AddComment(ctx, card.ID, models.CommentInput{UserName: "a", CommentText: "b"})
	require.NoError(t, err)
	_, err = repo.LikeCard(ctx, card.ID, "v")
	require.NoError(t, err)

	require.NoError(t, repo.DeleteCard(ctx, card.ID))
	assert.ErrorIs(t, repo.DeleteCard(ctx, card.ID), ErrNotFound)

	stats, err := repo.Stats(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalComments)
	assert.Zero(t, stats.TotalLikes)
}

func TestMemoryStatsRanking(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	views := []int{3, 7, 1, 7, 0, 2}
	for i, v := range views {
		card, err := repo.CreateCard(ctx, models.CardInput{Title: string(rune('A' + i))})
		require.NoError(t, err)
		for j := 0; j < v; j++ {
			_, err := repo.GetCard(ctx, card.ID, true)
			require.NoError(t, err)
		}
	}
	_, err := repo.LikeCard(ctx, 4, "v")
	require.NoError(t, err)

	stats, err := repo.Stats(ctx, TopCardsLimit)
	require.NoError(t, err)

	assert.Equal(t, int64(6), stats.TotalCards)
	assert.Equal(t, int64(20), stats.TotalViews)
	assert.Equal(t, int64(1), stats.TotalLikes)
	require.Len(t, stats.TopCards, TopCardsLimit)
	assert.Equal(t, int64(4), stats.TopCards[0].ID, "likes break view ties")
	assert.Equal(t, int64(2), stats.TopCards[1].ID)
	assert.Equal(t, int64(1), stats.TopCards[2].ID)
}
