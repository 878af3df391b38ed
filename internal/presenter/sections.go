package presenter

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/muntakson/salama/internal/i18n"
	"github.com/muntakson/salama/internal/models"
)

// Section is one collapsible part of a card
type Section string

const (
	SectionText     Section = "text"
	SectionHTML     Section = "html"
	SectionVideo    Section = "video"
	SectionAudio    Section = "audio"
	SectionPDF      Section = "pdf"
	SectionVideos   Section = "videos"
	SectionAudios   Section = "audios"
	SectionComments Section = "comments"
	SectionAIAnswer Section = "ai_answer"
)

// Sections lists every section in display order
var Sections = []Section{
	SectionText, SectionHTML, SectionVideo, SectionAudio, SectionPDF,
	SectionVideos, SectionAudios, SectionComments, SectionAIAnswer,
}

// ParseSection validates a section name from a form
func ParseSection(s string) (Section, bool) {
	for _, sec := range Sections {
		if string(sec) == s {
			return sec, true
		}
	}
	return "", false
}

// SectionView is a renderable content section
type SectionView struct {
	Section Section
	Label   string
	Open    bool
	// Body is rendered markdown or admin-authored HTML
	Body template.HTML
	URL  string
	URLs []string
}

// CardView is everything a template needs to draw one card
type CardView struct {
	ID              int64
	Title           string
	Category        string
	Difficulty      string
	DifficultyBadge string
	Provider        string
	Audience        string
	ImageURL        string

	Views    int64
	Likes    int64
	Comments int64

	Sections []SectionView

	CommentsOpen bool
	CommentList  []*models.Comment

	AnswerOpen bool
	Answer     string
	Busy       bool
}

// slot renders one content section, or reports it absent
type slot func(card *models.TrainingCard) (SectionView, bool)

var slots = []slot{
	textSlot,
	htmlSlot,
	urlSlot(SectionVideo, "Video", func(c *models.TrainingCard) string { return c.VideoURL }),
	urlSlot(SectionAudio, "Audio", func(c *models.TrainingCard) string { return c.AudioURL }),
	urlSlot(SectionPDF, "PDF Manual", func(c *models.TrainingCard) string { return c.PDFURL }),
	listSlot(SectionVideos, "Videos", func(c *models.TrainingCard) []string { return c.VideoURLs }),
	listSlot(SectionAudios, "Audio Guides", func(c *models.TrainingCard) []string { return c.AudioURLs }),
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

func textSlot(card *models.TrainingCard) (SectionView, bool) {
	if strings.TrimSpace(card.MarkdownText) == "" {
		return SectionView{}, false
	}
	return SectionView{Section: SectionText, Label: "Text Content", Body: RenderMarkdown(card.MarkdownText)}, true
}

// htmlSlot injects admin-authored markup unescaped. Only admins can write it.
func htmlSlot(card *models.TrainingCard) (SectionView, bool) {
	if strings.TrimSpace(card.HTMLContent) == "" {
		return SectionView{}, false
	}
	return SectionView{Section: SectionHTML, Label: "HTML Content", Body: template.HTML(card.HTMLContent)}, true
}

func urlSlot(section Section, label string, field func(*models.TrainingCard) string) slot {
	return func(card *models.TrainingCard) (SectionView, bool) {
		u := strings.TrimSpace(field(card))
		if u == "" {
			return SectionView{}, false
		}
		return SectionView{Section: section, Label: label, URL: u}, true
	}
}

func listSlot(section Section, label string, field func(*models.TrainingCard) []string) slot {
	return func(card *models.TrainingCard) (SectionView, bool) {
		urls := field(card)
		if len(urls) == 0 {
			return SectionView{}, false
		}
		return SectionView{
			Section: section,
			Label:   fmt.Sprintf("%s (%d)", label, len(urls)),
			URLs:    append([]string(nil), urls...),
		}, true
	}
}

// RenderMarkdown converts markdown to HTML. Raw HTML in the source is omitted.
func RenderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		slog.Warn("failed to render markdown", "error", err)
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

// View builds the card view in lang
func (p *Presenter) View(lang i18n.Language) CardView {
	p.mu.Lock()
	defer p.mu.Unlock()

	card := &p.card
	category := card.CategoryNames().In(lang)
	if strings.TrimSpace(category) == "" {
		category = "Uncategorized"
	}

	v := CardView{
		ID:              card.ID,
		Title:           card.Titles().In(lang),
		Category:        category,
		Difficulty:      string(card.DifficultyLevel.OrDefault()),
		DifficultyBadge: card.DifficultyLevel.Badge(),
		Provider:        orDefault(card.ContentProvider, "Unknown"),
		Audience:        orDefault(card.TargetAudience, "All"),
		ImageURL:        strings.TrimSpace(card.ImageURL),
		Views:           card.ViewCount,
		Likes:           card.LikeCount,
		Comments:        card.CommentCount,
		CommentsOpen:    p.expanded[SectionComments],
		CommentList:     p.comments,
		AnswerOpen:      p.expanded[SectionAIAnswer],
		Answer:          p.answer,
		Busy:            p.busy,
	}

	for _, render := range slots {
		sv, ok := render(card)
		if !ok {
			continue
		}
		sv.Open = p.expanded[sv.Section]
		v.Sections = append(v.Sections, sv)
	}
	return v
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
