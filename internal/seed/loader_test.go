package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/muntakson/salama/internal/i18n"
	"github.com/muntakson/salama/internal/models"
	"github.com/muntakson/salama/internal/storage"
)

func TestLoadBundledCatalog(t *testing.T) {
	// Use the actual seed file
	seedFile := filepath.Join("..", "..", "seed", "catalog.yaml")

	if _, err := os.Stat(seedFile); os.IsNotExist(err) {
		t.Skip("seed catalog not found, skipping")
	}

	loader := NewLoader()
	if err := loader.LoadFromFile(seedFile); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	categories := loader.Categories()
	if len(categories) != 8 {
		t.Fatalf("expected 8 categories, got %d", len(categories))
	}
	if categories[0].Name != "All" {
		t.Errorf("expected first category 'All', got '%s'", categories[0].Name)
	}

	names := i18n.Variants{Default: categories[1].Name, Swahili: categories[1].NameSwahili, Korean: categories[1].NameKorean}
	if got := names.In(i18n.Korean); got != "석션 펌프" {
		t.Errorf("expected Korean name '석션 펌프', got '%s'", got)
	}

	cards := loader.Cards()
	if len(cards) == 0 {
		t.Fatal("expected sample cards")
	}
	for _, c := range cards {
		if c.Input.DifficultyLevel != "" && !c.Input.DifficultyLevel.Valid() {
			t.Errorf("card %q has invalid difficulty %q", c.Input.Title, c.Input.DifficultyLevel)
		}
	}
}

func TestLoadRejectsUnknownCategory(t *testing.T) {
	data := []byte(`
categories:
  - name: Lighting
cards:
  - title: Theatre lamp
    category: Imaging
`)
	if err := NewLoader().Load(data); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestLoadRejectsInvalidDifficulty(t *testing.T) {
	data := []byte(`
cards:
  - title: Theatre lamp
    difficulty_level: Expert
`)
	if err := NewLoader().Load(data); err == nil {
		t.Fatal("expected error for invalid difficulty")
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	data := []byte(`
categories:
  - name: All
  - name: Lighting
    name_swahili: Taa
cards:
  - title: Theatre lamp
    category: Lighting
    video_urls: ["a.mp4", "b.mp4"]
  - title: Loose notes
`)
	loader := NewLoader()
	if err := loader.Load(data); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	ctx := context.Background()
	repo := storage.NewMemoryRepository()

	for i := 0; i < 2; i++ {
		if err := loader.Apply(ctx, repo, true); err != nil {
			t.Fatalf("Apply #%d failed: %v", i+1, err)
		}
	}

	categories, _ := repo.ListCategories(ctx)
	if len(categories) != 2 {
		t.Errorf("expected 2 categories, got %d", len(categories))
	}

	cards, _ := repo.ListCards(ctx, models.CardFilter{})
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}

	var lamp *models.TrainingCard
	for _, c := range cards {
		if c.Title == "Theatre lamp" {
			lamp = c
		}
	}
	if lamp == nil {
		t.Fatal("Theatre lamp not seeded")
	}
	if lamp.CategoryNameSwahili != "Taa" {
		t.Errorf("expected category 'Taa', got '%s'", lamp.CategoryNameSwahili)
	}
	if len(lamp.VideoURLs) != 2 {
		t.Errorf("expected 2 videos, got %d", len(lamp.VideoURLs))
	}
}

func TestApplyWithoutCards(t *testing.T) {
	loader := NewLoader()
	if err := loader.Load([]byte("cards:\n  - title: x\n")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	repo := storage.NewMemoryRepository()
	if err := loader.Apply(context.Background(), repo, false); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if n, _ := repo.CountCards(context.Background()); n != 0 {
		t.Errorf("expected no cards, got %d", n)
	}
}
