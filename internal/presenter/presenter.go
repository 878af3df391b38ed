// Package presenter holds the per-visitor view state of a training card and
// mediates its engagement actions against the collaborator API.
package presenter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/muntakson/salama/internal/models"
)

// Fixed answers shown when the assistant cannot give a real one
const (
	AnswerFailed      = "Sorry, there was an error processing your question."
	AnswerUnreachable = "Sorry, I could not connect to the AI assistant. Please try again later."
)

// Validation messages
const (
	MsgCommentRequired  = "Please enter your name and comment"
	MsgQuestionRequired = "Please enter a question"
)

// ErrAskInFlight is returned when a question is asked while another is pending
var ErrAskInFlight = errors.New("a question is already being answered")

// ValidationError is a local rejection; no request was sent
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Engagement is the subset of the collaborator API a presenter calls
type Engagement interface {
	LikeCard(ctx context.Context, id int64, visitorID string) (*models.LikeResponse, error)
	ListComments(ctx context.Context, id int64) ([]*models.Comment, error)
	AddComment(ctx context.Context, id int64, in models.CommentInput) (*models.Comment, error)
	AskAI(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
}

// Presenter renders one card and owns its expand/collapse state
type Presenter struct {
	mu       sync.Mutex
	api      Engagement
	card     models.TrainingCard
	expanded map[Section]bool
	comments []*models.Comment
	answer   string
	busy     bool
}

// New creates a presenter with every section collapsed except the AI answer panel
func New(card *models.TrainingCard, api Engagement) *Presenter {
	return &Presenter{
		api:      api,
		card:     *card,
		expanded: map[Section]bool{SectionAIAnswer: true},
	}
}

// SetCard replaces the card snapshot and keeps the UI state
func (p *Presenter) SetCard(card *models.TrainingCard) {
	p.mu.Lock()
	p.card = *card
	p.mu.Unlock()
}

// Card returns a copy of the current snapshot
func (p *Presenter) Card() models.TrainingCard {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.card
}

// Expanded reports whether a section is open
func (p *Presenter) Expanded(s Section) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.expanded[s]
}

// ToggleSection flips one section and returns its new state
func (p *Presenter) ToggleSection(s Section) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expanded[s] = !p.expanded[s]
	return p.expanded[s]
}

// Busy reports whether a question is in flight
func (p *Presenter) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busy
}

// RequestLike records a like. Counters are not touched; the caller refetches the card.
func (p *Presenter) RequestLike(ctx context.Context, visitorID string) error {
	id := p.cardID()
	if _, err := p.api.LikeCard(ctx, id, visitorID); err != nil {
		slog.Error("failed to like card", "card_id", id, "error", err)
		return fmt.Errorf("failed to like card: %w", err)
	}
	return nil
}

// LoadComments opens the thread, fetching it first, or closes an open thread without a fetch
func (p *Presenter) LoadComments(ctx context.Context) error {
	p.mu.Lock()
	if p.expanded[SectionComments] {
		p.expanded[SectionComments] = false
		p.mu.Unlock()
		return nil
	}
	id := p.card.ID
	p.mu.Unlock()

	return p.refreshComments(ctx, id)
}

// SubmitComment posts a comment and then shows the refetched thread
func (p *Presenter) SubmitComment(ctx context.Context, author, body string) error {
	author, body = strings.TrimSpace(author), strings.TrimSpace(body)
	if author == "" || body == "" {
		return &ValidationError{Message: MsgCommentRequired}
	}

	id := p.cardID()
	if _, err := p.api.AddComment(ctx, id, models.CommentInput{UserName: author, CommentText: body}); err != nil {
		slog.Error("failed to add comment", "card_id", id, "error", err)
		return fmt.Errorf("failed to add comment: %w", err)
	}
	return p.refreshComments(ctx, id)
}

func (p *Presenter) refreshComments(ctx context.Context, id int64) error {
	comments, err := p.api.ListComments(ctx, id)
	if err != nil {
		slog.Error("failed to load comments", "card_id", id, "error", err)
		return fmt.Errorf("failed to load comments: %w", err)
	}

	p.mu.Lock()
	p.comments = comments
	p.expanded[SectionComments] = true
	p.mu.Unlock()
	return nil
}

// AskAI sends a question with the card context and stores the answer shown in
// the answer panel. Connection failures are logged and answered with AnswerUnreachable.
func (p *Presenter) AskAI(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", &ValidationError{Message: MsgQuestionRequired}
	}

	p.mu.Lock()
	if p.busy {
		p.mu.Unlock()
		return "", ErrAskInFlight
	}
	p.busy = true
	req := models.ChatRequest{Question: question, CardContext: p.card.Context()}
	p.mu.Unlock()

	answer := AnswerUnreachable
	resp, err := p.api.AskAI(ctx, req)
	switch {
	case err != nil:
		slog.Warn("AI assistant unreachable", "card_id", p.cardID(), "error", err)
	case !resp.Success:
		slog.Warn("AI assistant failed to answer", "card_id", p.cardID(), "error", resp.Error)
		answer = AnswerFailed
	default:
		answer = resp.Answer
	}

	p.mu.Lock()
	p.answer = answer
	p.expanded[SectionAIAnswer] = true
	p.busy = false
	p.mu.Unlock()

	return answer, nil
}

func (p *Presenter) cardID() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.card.ID
}
