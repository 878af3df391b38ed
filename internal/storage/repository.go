package storage

import (
	"context"
	"errors"

	"github.com/muntakson/salama/internal/models"
)

var (
	// ErrNotFound is returned when a category, card or comment target does not exist
	ErrNotFound = errors.New("not found")
	// ErrProtectedCategory is returned when deleting the default category
	ErrProtectedCategory = errors.New("default category cannot be deleted")
	// ErrConflict is returned when a unique constraint (category name) is violated
	ErrConflict = errors.New("conflict")
)

// TopCardsLimit is how many cards the stats ranking returns
const TopCardsLimit = 5

// Repository defines the interface for catalog persistence
type Repository interface {
	// Categories
	ListCategories(ctx context.Context) ([]*models.Category, error)
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	CreateCategory(ctx context.Context, in models.CategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, id int64, in models.CategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	EnsureCategories(ctx context.Context, defaults []models.CategoryInput) (int, error)

	// Cards
	ListCards(ctx context.Context, filter models.CardFilter) ([]*models.TrainingCard, error)
	GetCard(ctx context.Context, id int64, countView bool) (*models.TrainingCard, error)
	CreateCard(ctx context.Context, in models.CardInput) (*models.TrainingCard, error)
	UpdateCard(ctx context.Context, id int64, in models.CardInput) (*models.TrainingCard, error)
	DeleteCard(ctx context.Context, id int64) error
	CountCards(ctx context.Context) (int64, error)

	// Engagement
	LikeCard(ctx context.Context, cardID int64, userIdentifier string) (*models.LikeResponse, error)
	ListComments(ctx context.Context, cardID int64) ([]*models.Comment, error)
	AddComment(ctx context.Context, cardID int64, in models.CommentInput) (*models.Comment, error)
	Stats(ctx context.Context, topN int) (*models.Stats, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}
