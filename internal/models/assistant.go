package models

// CardContext is the card snapshot an AI question is asked against
type CardContext struct {
	Title           string `json:"title,omitempty"`
	CategoryName    string `json:"category_name,omitempty"`
	ContentProvider string `json:"content_provider,omitempty"`
	TargetAudience  string `json:"target_audience,omitempty"`
	DifficultyLevel string `json:"difficulty_level,omitempty"`
	MarkdownText    string `json:"markdown_text,omitempty"`
}

// ChatRequest is a visitor question about one card
type ChatRequest struct {
	Question    string      `json:"question" validate:"required,max=4000"`
	CardContext CardContext `json:"card_context"`
}

// ChatResponse is the assistant outcome. Success=false is a well-formed
// processing failure, distinct from the assistant being unreachable.
type ChatResponse struct {
	Success bool   `json:"success"`
	Answer  string `json:"answer,omitempty"`
	Error   string `json:"error,omitempty"`
}
