// Package seed loads the default catalog from YAML and applies it to a repository.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/muntakson/salama/internal/media"
	"github.com/muntakson/salama/internal/models"
	"github.com/muntakson/salama/internal/storage"
)

// catalogFile is the YAML structure of a seed file
type catalogFile struct {
	Categories []categoryEntry `yaml:"categories"`
	Cards      []cardEntry     `yaml:"cards"`
}

type categoryEntry struct {
	Name        string `yaml:"name"`
	NameSwahili string `yaml:"name_swahili"`
	NameKorean  string `yaml:"name_korean"`
	Description string `yaml:"description"`
}

type cardEntry struct {
	Title           string   `yaml:"title"`
	TitleSwahili    string   `yaml:"title_swahili"`
	TitleKorean     string   `yaml:"title_korean"`
	Category        string   `yaml:"category"`
	ContentProvider string   `yaml:"content_provider"`
	TargetAudience  string   `yaml:"target_audience"`
	DifficultyLevel string   `yaml:"difficulty_level"`
	MarkdownText    string   `yaml:"markdown_text"`
	HTMLContent     string   `yaml:"html_content"`
	ImageURL        string   `yaml:"image_url"`
	VideoURL        string   `yaml:"video_url"`
	AudioURL        string   `yaml:"audio_url"`
	PDFURL          string   `yaml:"pdf_url"`
	VideoURLs       []string `yaml:"video_urls"`
	AudioURLs       []string `yaml:"audio_urls"`
}

// Card is a seed card whose category is referenced by name
type Card struct {
	Category string
	Input    models.CardInput
}

// Loader holds a parsed seed catalog
type Loader struct {
	mu         sync.RWMutex
	categories []models.CategoryInput
	cards      []Card
}

// NewLoader creates an empty loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadFromFile parses a seed YAML file, replacing anything loaded before
func (l *Loader) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	return l.Load(data)
}

// Load parses seed YAML
func (l *Loader) Load(data []byte) error {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	known := make(map[string]bool, len(file.Categories))
	categories := make([]models.CategoryInput, 0, len(file.Categories))
	for i, c := range file.Categories {
		if c.Name == "" {
			return fmt.Errorf("category %d: name is required", i)
		}
		known[c.Name] = true
		categories = append(categories, models.CategoryInput{
			Name:        c.Name,
			NameSwahili: c.NameSwahili,
			NameKorean:  c.NameKorean,
			Description: c.Description,
		})
	}

	cards := make([]Card, 0, len(file.Cards))
	for i, c := range file.Cards {
		if c.Title == "" {
			return fmt.Errorf("card %d: title is required", i)
		}
		if c.Category != "" && !known[c.Category] {
			return fmt.Errorf("card %q: unknown category %q", c.Title, c.Category)
		}
		level := models.Difficulty(c.DifficultyLevel)
		if level != "" && !level.Valid() {
			return fmt.Errorf("card %q: invalid difficulty %q", c.Title, c.DifficultyLevel)
		}
		cards = append(cards, Card{
			Category: c.Category,
			Input: models.CardInput{
				Title:           c.Title,
				TitleSwahili:    c.TitleSwahili,
				TitleKorean:     c.TitleKorean,
				ContentProvider: c.ContentProvider,
				TargetAudience:  c.TargetAudience,
				DifficultyLevel: level,
				MarkdownText:    c.MarkdownText,
				HTMLContent:     c.HTMLContent,
				ImageURL:        c.ImageURL,
				VideoURL:        c.VideoURL,
				AudioURL:        c.AudioURL,
				PDFURL:          c.PDFURL,
				VideoURLs:       media.List(media.Normalize(c.VideoURLs)),
				AudioURLs:       media.List(media.Normalize(c.AudioURLs)),
			},
		})
	}

	l.mu.Lock()
	l.categories = categories
	l.cards = cards
	l.mu.Unlock()

	slog.Info("seed catalog loaded", "categories", len(categories), "cards", len(cards))
	return nil
}

// Categories returns the parsed categories in file order
func (l *Loader) Categories() []models.CategoryInput {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]models.CategoryInput(nil), l.categories...)
}

// Cards returns the parsed sample cards in file order
func (l *Loader) Cards() []Card {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Card(nil), l.cards...)
}

// Apply inserts missing categories and, when the catalog has no cards yet
// and withCards is set, the sample cards.
func (l *Loader) Apply(ctx context.Context, repo storage.Repository, withCards bool) error {
	inserted, err := repo.EnsureCategories(ctx, l.Categories())
	if err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}
	slog.Info("seed categories applied", "inserted", inserted)

	cards := l.Cards()
	if !withCards || len(cards) == 0 {
		return nil
	}

	count, err := repo.CountCards(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		slog.Debug("catalog already has cards, skipping sample cards", "count", count)
		return nil
	}

	existing, err := repo.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}
	ids := make(map[string]int64, len(existing))
	for _, c := range existing {
		ids[c.Name] = c.ID
	}

	for _, card := range cards {
		in := card.Input
		if id, ok := ids[card.Category]; ok {
			in.CategoryID = &id
		}
		if _, err := repo.CreateCard(ctx, in); err != nil {
			return fmt.Errorf("failed to seed card %q: %w", in.Title, err)
		}
	}
	slog.Info("sample cards seeded", "count", len(cards))
	return nil
}
