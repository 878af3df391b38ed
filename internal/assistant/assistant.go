// Package assistant answers visitor questions about a training card through an
// OpenAI-compatible chat completion endpoint.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/muntakson/salama/internal/models"
)

var (
	// ErrNotConfigured is returned when no API key is set
	ErrNotConfigured = errors.New("assistant not configured")
	// ErrEmptyAnswer is returned when the model produced no choices
	ErrEmptyAnswer = errors.New("assistant returned no answer")
)

const systemPrompt = `You are a helpful medical device training assistant for healthcare workers in Madagascar district hospitals. Provide clear, practical answers about medical equipment usage, maintenance, and troubleshooting.

IMPORTANT LANGUAGE GUIDELINES:
- When responding in Korean, use ONLY Hangul (한글) characters
- Do NOT mix Chinese characters (漢字/한자) with Korean unless absolutely necessary for technical medical terms that have no Korean equivalent
- Use pure Korean vocabulary whenever possible
- Avoid Sino-Korean words written in Chinese characters
- Write in clear, simple Korean that healthcare workers can easily understand

When responding in other languages:
- English: Use simple, clear English
- Swahili: Use standard Swahili vocabulary
- Always prioritize clarity and practical information over complex terminology`

// Answerer answers a question in the context of a card
type Answerer interface {
	Answer(ctx context.Context, req models.ChatRequest) (string, error)
}

// Config holds chat completion settings
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// OpenAI is an Answerer backed by go-openai
type OpenAI struct {
	client *openai.Client
	cfg    Config
}

// New creates an OpenAI-compatible answerer. It returns ErrNotConfigured without an API key.
func New(cfg Config) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAI{client: openai.NewClientWithConfig(clientCfg), cfg: cfg}, nil
}

// Answer sends the question with the card context and returns the first choice
func (a *OpenAI) Answer(ctx context.Context, req models.ChatRequest) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(req.Question, req.CardContext)},
		},
		Temperature: float32(a.cfg.Temperature),
		MaxTokens:   a.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyAnswer
	}
	return resp.Choices[0].Message.Content, nil
}

// BuildPrompt renders the user message for a question about one card
func BuildPrompt(question string, card models.CardContext) string {
	var b strings.Builder

	b.WriteString("You are a helpful medical device training assistant.\n")
	fmt.Fprintf(&b, "You are answering questions about: %s.\n\n", orDefault(card.Title, "a medical device"))
	fmt.Fprintf(&b, "Device Category: %s\n", orDefault(card.CategoryName, "N/A"))
	fmt.Fprintf(&b, "Content Provider: %s\n", orDefault(card.ContentProvider, "N/A"))
	fmt.Fprintf(&b, "Target Audience: %s\n", orDefault(card.TargetAudience, "Healthcare workers"))
	fmt.Fprintf(&b, "Difficulty Level: %s\n\n", orDefault(card.DifficultyLevel, "N/A"))
	b.WriteString("Additional Information:\n")
	b.WriteString(card.MarkdownText)
	fmt.Fprintf(&b, "\n\nUser Question: %s\n\n", question)
	b.WriteString("Please provide a clear, concise, and helpful answer about this medical device. ")
	b.WriteString("Focus on practical, actionable information for healthcare workers in Madagascar district hospitals.")

	return b.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
