package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/muntakson/salama/internal/api"
	"github.com/muntakson/salama/internal/config"
	"github.com/muntakson/salama/internal/models"
	"github.com/muntakson/salama/internal/sessions"
	"github.com/muntakson/salama/internal/storage"
)

type stubAnswerer struct{}

func (stubAnswerer) Answer(ctx context.Context, req models.ChatRequest) (string, error) {
	return "About " + req.CardContext.Title, nil
}

type stubUploader struct{}

func (stubUploader) Upload(ctx context.Context, kind models.UploadKind, filename string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return "https://cdn.example/" + string(kind) + "s/" + filename + "?size=" + strconv.Itoa(len(b)), nil
}

func newAPI(t *testing.T) (*httptest.Server, *storage.MemoryRepository) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := storage.NewMemoryRepository()
	srv := api.NewServer(config.ServerConfig{}, api.Deps{
		Repo:              repo,
		Sessions:          sessions.NewMemoryStore(time.Hour),
		Assistant:         stubAnswerer{},
		Uploader:          stubUploader{},
		AdminPasswordHash: hash,
	})

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, repo
}

func TestAdminRoundTrip(t *testing.T) {
	ts, _ := newAPI(t)
	ctx := context.Background()
	c := NewClient(ts.URL+"/", WithTimeout(5*time.Second))

	_, err := c.Login(ctx, "nope")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))

	token, err := c.Login(ctx, "secret")
	require.NoError(t, err)
	admin := c.WithSession(token)

	valid, err := admin.Verify(ctx)
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = c.Verify(ctx)
	require.NoError(t, err)
	assert.False(t, valid, "the original client carries no session")

	_, err = c.CreateCategory(ctx, models.CategoryInput{Name: "Lighting"})
	assert.True(t, IsUnauthorized(err))

	category, err := admin.CreateCategory(ctx, models.CategoryInput{Name: "Lighting", NameKorean: "조명"})
	require.NoError(t, err)

	category, err = admin.UpdateCategory(ctx, category.ID, models.CategoryInput{Name: "Theatre Lighting", NameKorean: "조명"})
	require.NoError(t, err)
	assert.Equal(t, "Theatre Lighting", category.Name)

	card, err := admin.CreateCard(ctx, models.CardInput{Title: "Theatre lamp", CategoryID: &category.ID})
	require.NoError(t, err)

	card, err = admin.UpdateCard(ctx, card.ID, models.CardInput{Title: "Theatre lamp care", CategoryID: &category.ID})
	require.NoError(t, err)
	assert.Equal(t, "조명", card.CategoryNameKorean)

	err = admin.DeleteCategory(ctx, models.DefaultCategoryID)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
	assert.Equal(t, "protected_category", se.Code)

	url, err := admin.Upload(ctx, models.UploadImage, "lamp.png", strings.NewReader("12345"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/images/lamp.png?size=5", url)

	stats, err := admin.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalCards)

	require.NoError(t, admin.DeleteCard(ctx, card.ID))
	assert.True(t, IsNotFound(admin.DeleteCard(ctx, card.ID)))

	require.NoError(t, admin.Logout(ctx))
	valid, err = admin.Verify(ctx)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestEngagementRoundTrip(t *testing.T) {
	ts, repo := newAPI(t)
	ctx := context.Background()

	seeded, err := repo.CreateCard(ctx, models.CardInput{Title: "Pulse oximeter", MarkdownText: "Clip on a finger"})
	require.NoError(t, err)

	c := NewClient(ts.URL)

	categories, err := c.ListCategories(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, categories)
	assert.Equal(t, "All", categories[0].Name)

	cards, err := c.ListCards(ctx, ListOptions{CategoryID: models.DefaultCategoryID, Search: "finger"})
	require.NoError(t, err)
	require.Len(t, cards, 1)

	cards, err = c.ListCards(ctx, ListOptions{Search: "ventilator"})
	require.NoError(t, err)
	assert.Empty(t, cards)

	card, err := c.GetCard(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), card.ViewCount)

	like, err := c.LikeCard(ctx, seeded.ID, "visitor-a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), like.LikeCount)

	_, err = c.AddComment(ctx, seeded.ID, models.CommentInput{UserName: "Rivo", CommentText: "Helpful"})
	require.NoError(t, err)

	comments, err := c.ListComments(ctx, seeded.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Rivo", comments[0].UserName)

	answer, err := c.AskAI(ctx, models.ChatRequest{Question: "How?", CardContext: card.Context()})
	require.NoError(t, err)
	assert.True(t, answer.Success)
	assert.Equal(t, "About Pulse oximeter", answer.Answer)

	require.NoError(t, c.Health(ctx))
}

func TestTransportFailureIsNotStatusError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	base := ts.URL
	ts.Close()

	_, err := NewClient(base).AskAI(context.Background(), models.ChatRequest{Question: "q"})
	require.Error(t, err)

	var se *StatusError
	assert.False(t, errors.As(err, &se))
}

func TestServerErrorCarriesStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL).ListComments(context.Background(), 1)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.Empty(t, se.Code)
}

func TestClientTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL, WithTimeout(20*time.Millisecond)).ListCategories(context.Background())
	assert.Error(t, err)
}
