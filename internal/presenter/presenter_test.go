package presenter

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muntakson/salama/internal/i18n"
	"github.com/muntakson/salama/internal/models"
)

type fakeAPI struct {
	mu sync.Mutex

	likeCalls    int
	listCalls    int
	addCalls     int
	askCalls     int
	comments     []*models.Comment
	listErr      error
	askResp      *models.ChatResponse
	askErr       error
	askStarted   chan struct{}
	releaseAsk   chan struct{}
	lastQuestion models.ChatRequest
}

func (f *fakeAPI) LikeCard(ctx context.Context, id int64, visitorID string) (*models.LikeResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.likeCalls++
	return &models.LikeResponse{Success: true, Liked: true, LikeCount: 1}, nil
}

func (f *fakeAPI) ListComments(ctx context.Context, id int64) ([]*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]*models.Comment(nil), f.comments...), nil
}

func (f *fakeAPI) AddComment(ctx context.Context, id int64, in models.CommentInput) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addCalls++
	c := &models.Comment{ID: int64(len(f.comments) + 1), CardID: id, UserName: in.UserName, CommentText: in.CommentText}
	f.comments = append([]*models.Comment{c}, f.comments...)
	return c, nil
}

func (f *fakeAPI) AskAI(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	f.mu.Lock()
	f.askCalls++
	f.lastQuestion = req
	started, release := f.askStarted, f.releaseAsk
	resp, err := f.askResp, f.askErr
	f.mu.Unlock()

	if started != nil {
		close(started)
		<-release
	}
	return resp, err
}

func cprCard(t *testing.T) *models.TrainingCard {
	t.Helper()
	var card models.TrainingCard
	raw := `{"id":7,"title":"CPR Basics","title_swahili":"","category_id":2,"video_urls":"[\"v1.mp4\",\"v2.mp4\"]"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &card))
	return &card
}

func sectionOf(v CardView, s Section) (SectionView, bool) {
	for _, sv := range v.Sections {
		if sv.Section == s {
			return sv, true
		}
	}
	return SectionView{}, false
}

func TestCPRBasicsInSwahili(t *testing.T) {
	p := New(cprCard(t), &fakeAPI{})

	v := p.View(i18n.Swahili)
	assert.Equal(t, "CPR Basics", v.Title)
	assert.Equal(t, "Uncategorized", v.Category)

	videos, ok := sectionOf(v, SectionVideos)
	require.True(t, ok)
	assert.Equal(t, []string{"v1.mp4", "v2.mp4"}, videos.URLs)
	assert.Equal(t, "Videos (2)", videos.Label)
	assert.False(t, videos.Open)

	_, ok = sectionOf(v, SectionVideo)
	assert.False(t, ok, "absent single video renders nothing")
	assert.Len(t, v.Sections, 1)
}

func TestInitialStateAndIndependentToggles(t *testing.T) {
	card := &models.TrainingCard{
		ID:           1,
		Title:        "Suction pump",
		TitleKorean:  "석션 펌프",
		MarkdownText: "**Empty** the jar\nthen rinse",
		HTMLContent:  "<table><tr><td>Step</td></tr></table>",
		VideoURL:     "legacy.mp4",
		VideoURLs:    []string{"extra.mp4"},
		AudioURL:     "guide.mp3",
		PDFURL:       "manual.pdf",
	}
	p := New(card, &fakeAPI{})

	for _, s := range Sections {
		assert.Equal(t, s == SectionAIAnswer, p.Expanded(s), s)
	}

	assert.True(t, p.ToggleSection(SectionVideo))
	for _, s := range Sections {
		if s != SectionVideo {
			assert.Equal(t, s == SectionAIAnswer, p.Expanded(s), s)
		}
	}
	assert.False(t, p.ToggleSection(SectionVideo))

	p.ToggleSection(SectionVideos)
	v := p.View(i18n.Korean)
	assert.Equal(t, "석션 펌프", v.Title)

	legacy, ok := sectionOf(v, SectionVideo)
	require.True(t, ok)
	extra, ok := sectionOf(v, SectionVideos)
	require.True(t, ok)
	assert.Equal(t, "legacy.mp4", legacy.URL)
	assert.Equal(t, []string{"extra.mp4"}, extra.URLs)
	assert.False(t, legacy.Open)
	assert.True(t, extra.Open)

	text, _ := sectionOf(v, SectionText)
	assert.Contains(t, string(text.Body), "<strong>Empty</strong>")
	assert.Contains(t, string(text.Body), "<br")

	raw, _ := sectionOf(v, SectionHTML)
	assert.Equal(t, "<table><tr><td>Step</td></tr></table>", string(raw.Body))

	assert.Len(t, v.Sections, 6)
	assert.Equal(t, "Beginner", v.Difficulty)
	assert.Equal(t, "success", v.DifficultyBadge)
	assert.Equal(t, "Unknown", v.Provider)
	assert.Equal(t, "All", v.Audience)
}

func TestMarkdownOmitsRawHTML(t *testing.T) {
	out := string(RenderMarkdown("hello <script>alert(1)</script>"))
	assert.NotContains(t, out, "<script>")
}

func TestLikeDoesNotTouchCounters(t *testing.T) {
	api := &fakeAPI{}
	p := New(&models.TrainingCard{ID: 3, Title: "x", LikeCount: 4}, api)

	require.NoError(t, p.RequestLike(context.Background(), "visitor"))
	assert.Equal(t, 1, api.likeCalls)
	assert.Equal(t, int64(4), p.View(i18n.English).Likes)
}

func TestLoadCommentsFetchesOnlyWhenOpening(t *testing.T) {
	api := &fakeAPI{comments: []*models.Comment{{ID: 1, UserName: "Amina", CommentText: "Thanks"}}}
	p := New(&models.TrainingCard{ID: 3, Title: "x"}, api)
	ctx := context.Background()

	require.NoError(t, p.LoadComments(ctx))
	assert.True(t, p.Expanded(SectionComments))
	assert.Equal(t, 1, api.listCalls)
	assert.Len(t, p.View(i18n.English).CommentList, 1)

	require.NoError(t, p.LoadComments(ctx))
	assert.False(t, p.Expanded(SectionComments))
	assert.Equal(t, 1, api.listCalls)

	api.listErr = errors.New("boom")
	assert.Error(t, p.LoadComments(ctx))
	assert.False(t, p.Expanded(SectionComments))
}

func TestSubmitCommentValidation(t *testing.T) {
	api := &fakeAPI{}
	p := New(&models.TrainingCard{ID: 3, Title: "x"}, api)
	ctx := context.Background()

	for _, tc := range []struct{ author, body string }{
		{"", "body"},
		{"   ", "body"},
		{"Amina", ""},
		{"Amina", "\n\t"},
	} {
		err := p.SubmitComment(ctx, tc.author, tc.body)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, MsgCommentRequired, verr.Message)
	}
	assert.Zero(t, api.addCalls)
	assert.Zero(t, api.listCalls)

	require.NoError(t, p.SubmitComment(ctx, " Amina ", " Very clear "))
	assert.Equal(t, 1, api.addCalls)
	assert.Equal(t, 1, api.listCalls, "thread is refetched after posting")

	v := p.View(i18n.English)
	assert.True(t, v.CommentsOpen)
	require.Len(t, v.CommentList, 1)
	assert.Equal(t, "Amina", v.CommentList[0].UserName)
	assert.Equal(t, "Very clear", v.CommentList[0].CommentText)
}

func TestAskAIOutcomes(t *testing.T) {
	ctx := context.Background()
	card := &models.TrainingCard{ID: 5, Title: "Autoclave", CategoryName: "Sterilization"}

	api := &fakeAPI{askResp: &models.ChatResponse{Success: true, Answer: "Line one\nLine two"}}
	p := New(card, api)

	_, err := p.AskAI(ctx, "  ")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, MsgQuestionRequired, verr.Message)
	assert.Zero(t, api.askCalls)

	p.ToggleSection(SectionAIAnswer)
	answer, err := p.AskAI(ctx, "How long is a cycle?")
	require.NoError(t, err)
	assert.Equal(t, "Line one\nLine two", answer)
	assert.True(t, p.Expanded(SectionAIAnswer))
	assert.Equal(t, "Sterilization", api.lastQuestion.CardContext.CategoryName)

	api.askResp = &models.ChatResponse{Success: false, Error: "AI service error"}
	answer, err = p.AskAI(ctx, "Again?")
	require.NoError(t, err)
	assert.Equal(t, AnswerFailed, answer)

	api.askResp, api.askErr = nil, errors.New("connection refused")
	p.ToggleSection(SectionAIAnswer)
	answer, err = p.AskAI(ctx, "Again?")
	require.NoError(t, err)
	assert.Equal(t, AnswerUnreachable, answer)
	assert.True(t, p.Expanded(SectionAIAnswer))
	assert.NotEqual(t, AnswerFailed, AnswerUnreachable)
}

func TestAskAIRejectsSecondRequestWhileInFlight(t *testing.T) {
	api := &fakeAPI{
		askResp:    &models.ChatResponse{Success: true, Answer: "done"},
		askStarted: make(chan struct{}),
		releaseAsk: make(chan struct{}),
	}
	p := New(&models.TrainingCard{ID: 9, Title: "x"}, api)

	done := make(chan string)
	go func() {
		answer, _ := p.AskAI(context.Background(), "first")
		done <- answer
	}()

	<-api.askStarted
	assert.True(t, p.Busy())
	assert.True(t, p.View(i18n.English).Busy)

	_, err := p.AskAI(context.Background(), "second")
	assert.ErrorIs(t, err, ErrAskInFlight)

	close(api.releaseAsk)
	select {
	case answer := <-done:
		assert.Equal(t, "done", answer)
	case <-time.After(2 * time.Second):
		t.Fatal("first question never completed")
	}

	assert.False(t, p.Busy())
	api.mu.Lock()
	assert.Equal(t, 1, api.askCalls)
	api.mu.Unlock()
}

func TestParseSection(t *testing.T) {
	s, ok := ParseSection("videos")
	assert.True(t, ok)
	assert.Equal(t, SectionVideos, s)

	_, ok = ParseSection("comments; drop")
	assert.False(t, ok)
}
