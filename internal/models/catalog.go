package models

import (
	"time"

	"github.com/muntakson/salama/internal/i18n"
	"github.com/muntakson/salama/internal/media"
)

// DefaultCategoryID is the protected "All" category; it also means "no filter" in listings
const DefaultCategoryID int64 = 1

// Category groups training cards, named in up to three languages
type Category struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	NameSwahili string     `json:"name_swahili,omitempty"`
	NameKorean  string     `json:"name_korean,omitempty"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Names returns the localizable category name
func (c *Category) Names() i18n.Variants {
	return i18n.Variants{Default: c.Name, Swahili: c.NameSwahili, Korean: c.NameKorean}
}

// IsProtected reports whether the category must never be deleted
func (c *Category) IsProtected() bool {
	return c.ID == DefaultCategoryID
}

// TrainingCard is one unit of medical-training content
type TrainingCard struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	TitleSwahili string `json:"title_swahili,omitempty"`
	TitleKorean  string `json:"title_korean,omitempty"`

	CategoryID          *int64 `json:"category_id,omitempty"`
	CategoryName        string `json:"category_name,omitempty"`
	CategoryNameSwahili string `json:"category_name_swahili,omitempty"`
	CategoryNameKorean  string `json:"category_name_korean,omitempty"`

	ContentProvider string     `json:"content_provider,omitempty"`
	TargetAudience  string     `json:"target_audience,omitempty"`
	DifficultyLevel Difficulty `json:"difficulty_level,omitempty"`

	MarkdownText string     `json:"markdown_text,omitempty"`
	HTMLContent  string     `json:"html_content,omitempty"`
	ImageURL     string     `json:"image_url,omitempty"`
	VideoURL     string     `json:"video_url,omitempty"`
	AudioURL     string     `json:"audio_url,omitempty"`
	PDFURL       string     `json:"pdf_url,omitempty"`
	VideoURLs    media.List `json:"video_urls"`
	AudioURLs    media.List `json:"audio_urls"`

	ViewCount    int64 `json:"view_count"`
	LikeCount    int64 `json:"like_count"`
	CommentCount int64 `json:"comment_count"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Titles returns the localizable card title
func (c *TrainingCard) Titles() i18n.Variants {
	return i18n.Variants{Default: c.Title, Swahili: c.TitleSwahili, Korean: c.TitleKorean}
}

// CategoryNames returns the localizable name of the joined category
func (c *TrainingCard) CategoryNames() i18n.Variants {
	return i18n.Variants{Default: c.CategoryName, Swahili: c.CategoryNameSwahili, Korean: c.CategoryNameKorean}
}

// Context snapshots the card fields sent along with an AI question
func (c *TrainingCard) Context() CardContext {
	return CardContext{
		Title:           c.Title,
		CategoryName:    c.CategoryName,
		ContentProvider: c.ContentProvider,
		TargetAudience:  c.TargetAudience,
		DifficultyLevel: string(c.DifficultyLevel),
		MarkdownText:    c.MarkdownText,
	}
}

// Comment is an unauthenticated remark attached to a card
type Comment struct {
	ID          int64     `json:"id"`
	CardID      int64     `json:"card_id"`
	UserName    string    `json:"user_name"`
	CommentText string    `json:"comment_text"`
	CreatedAt   time.Time `json:"created_at"`
}

// CardFilter narrows a card listing
type CardFilter struct {
	CategoryID int64
	Search     string
}

// Stats is the admin dashboard aggregate
type Stats struct {
	TotalCards    int64     `json:"total_cards"`
	TotalViews    int64     `json:"total_views"`
	TotalLikes    int64     `json:"total_likes"`
	TotalComments int64     `json:"total_comments"`
	TopCards      []TopCard `json:"top_cards"`
}

// TopCard is one ranked entry of Stats
type TopCard struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	ViewCount    int64  `json:"view_count"`
	LikeCount    int64  `json:"like_count"`
	CommentCount int64  `json:"comment_count"`
}
