package models

import (
	"github.com/muntakson/salama/internal/media"
)

// CategoryInput creates or replaces a category
type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	NameSwahili string `json:"name_swahili,omitempty" validate:"max=255"`
	NameKorean  string `json:"name_korean,omitempty" validate:"max=255"`
	Description string `json:"description,omitempty"`
}

// CardInput creates or replaces a training card
type CardInput struct {
	Title           string     `json:"title" validate:"required,max=500"`
	TitleSwahili    string     `json:"title_swahili,omitempty" validate:"max=500"`
	TitleKorean     string     `json:"title_korean,omitempty" validate:"max=500"`
	CategoryID      *int64     `json:"category_id,omitempty" validate:"omitempty,gt=0"`
	ContentProvider string     `json:"content_provider,omitempty" validate:"max=255"`
	TargetAudience  string     `json:"target_audience,omitempty" validate:"max=255"`
	DifficultyLevel Difficulty `json:"difficulty_level,omitempty" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	MarkdownText    string     `json:"markdown_text,omitempty"`
	HTMLContent     string     `json:"html_content,omitempty"`
	ImageURL        string     `json:"image_url,omitempty" validate:"max=2048"`
	VideoURL        string     `json:"video_url,omitempty" validate:"max=2048"`
	AudioURL        string     `json:"audio_url,omitempty" validate:"max=2048"`
	PDFURL          string     `json:"pdf_url,omitempty" validate:"max=2048"`
	VideoURLs       media.List `json:"video_urls"`
	AudioURLs       media.List `json:"audio_urls"`
}

// WithDefaults fills the descriptive fields the catalog always shows
func (in CardInput) WithDefaults() CardInput {
	if in.ContentProvider == "" {
		in.ContentProvider = "Unknown"
	}
	if in.TargetAudience == "" {
		in.TargetAudience = "All"
	}
	in.DifficultyLevel = in.DifficultyLevel.OrDefault()
	return in
}

// LikeRequest records a like from one visitor
type LikeRequest struct {
	UserIdentifier string `json:"user_identifier" validate:"required,max=255"`
}

// LikeResponse reports the like outcome and the authoritative counter
type LikeResponse struct {
	Success   bool  `json:"success"`
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}

// CommentInput appends a comment to a card
type CommentInput struct {
	UserName    string `json:"user_name" validate:"required,max=255"`
	CommentText string `json:"comment_text" validate:"required,max=5000"`
}

// UploadKind is the media family an uploaded file belongs to
type UploadKind string

const (
	UploadImage UploadKind = "image"
	UploadVideo UploadKind = "video"
	UploadAudio UploadKind = "audio"
	UploadPDF   UploadKind = "pdf"
)

// Valid reports whether k is a known upload kind
func (k UploadKind) Valid() bool {
	switch k {
	case UploadImage, UploadVideo, UploadAudio, UploadPDF:
		return true
	}
	return false
}

// UploadResponse carries the public URL of a stored file
type UploadResponse struct {
	URL string `json:"url"`
}

// MessageResponse is a generic acknowledgement
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
