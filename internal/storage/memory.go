package storage

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/muntakson/salama/internal/models"
)

type likeKey struct {
	cardID int64
	user   string
}

// MemoryRepository implements Repository in process memory.
// It is used when no database DSN is configured and in tests.
type MemoryRepository struct {
	mu         sync.RWMutex
	categories map[int64]*models.Category
	cards      map[int64]*models.TrainingCard
	comments   map[int64][]*models.Comment
	likes      map[likeKey]struct{}

	nextCategoryID int64
	nextCardID     int64
	nextCommentID  int64

	now func() time.Time
}

// NewMemoryRepository creates a repository holding only the default category
func NewMemoryRepository() *MemoryRepository {
	r := &MemoryRepository{
		categories:     make(map[int64]*models.Category),
		cards:          make(map[int64]*models.TrainingCard),
		comments:       make(map[int64][]*models.Comment),
		likes:          make(map[likeKey]struct{}),
		nextCategoryID: models.DefaultCategoryID + 1,
		nextCardID:     1,
		nextCommentID:  1,
		now:            time.Now,
	}
	r.categories[models.DefaultCategoryID] = &models.Category{
		ID:          models.DefaultCategoryID,
		Name:        "All",
		NameSwahili: "Yote",
		NameKorean:  "모두",
		Description: "All medical devices",
		CreatedAt:   r.now().UTC(),
	}
	return r
}

// Ping always succeeds
func (r *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op
func (r *MemoryRepository) Close() error {
	return nil
}

// --- Categories ---

// ListCategories returns all categories, the default one first
func (r *MemoryRepository) ListCategories(ctx context.Context) ([]*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Category, 0, len(r.categories))
	for _, c := range r.categories {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsProtected() != out[j].IsProtected() {
			return out[i].IsProtected()
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// GetCategory retrieves a category by ID
func (r *MemoryRepository) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// CreateCategory inserts a new category
func (r *MemoryRepository) CreateCategory(ctx context.Context, in models.CategoryInput) (*models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.nameTaken(in.Name, 0) {
		return nil, ErrConflict
	}

	c := &models.Category{
		ID:          r.nextCategoryID,
		Name:        in.Name,
		NameSwahili: in.NameSwahili,
		NameKorean:  in.NameKorean,
		Description: in.Description,
		CreatedAt:   r.now().UTC(),
	}
	r.nextCategoryID++
	r.categories[c.ID] = c

	cp := *c
	return &cp, nil
}

// UpdateCategory replaces a category's fields
func (r *MemoryRepository) UpdateCategory(ctx context.Context, id int64, in models.CategoryInput) (*models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	if r.nameTaken(in.Name, id) {
		return nil, ErrConflict
	}

	now := r.now().UTC()
	c.Name = in.Name
	c.NameSwahili = in.NameSwahili
	c.NameKorean = in.NameKorean
	c.Description = in.Description
	c.UpdatedAt = &now

	cp := *c
	return &cp, nil
}

// DeleteCategory removes a category; its cards become uncategorized
func (r *MemoryRepository) DeleteCategory(ctx context.Context, id int64) error {
	if id == models.DefaultCategoryID {
		return ErrProtectedCategory
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[id]; !ok {
		return ErrNotFound
	}
	delete(r.categories, id)

	for _, card := range r.cards {
		if card.CategoryID != nil && *card.CategoryID == id {
			card.CategoryID = nil
		}
	}
	return nil
}

// EnsureCategories inserts the given categories unless one with the same name exists
func (r *MemoryRepository) EnsureCategories(ctx context.Context, defaults []models.CategoryInput) (int, error) {
	inserted := 0
	for _, in := range defaults {
		if _, err := r.CreateCategory(ctx, in); err != nil {
			if errors.Is(err, ErrConflict) {
				continue
			}
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

func (r *MemoryRepository) nameTaken(name string, exceptID int64) bool {
	for id, c := range r.categories {
		if id != exceptID && c.Name == name {
			return true
		}
	}
	return false
}

// --- Cards ---

// ListCards returns cards matching the filter, newest first
func (r *MemoryRepository) ListCards(ctx context.Context, filter models.CardFilter) ([]*models.TrainingCard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))

	out := make([]*models.TrainingCard, 0, len(r.cards))
	for _, card := range r.cards {
		if filter.CategoryID > 0 && filter.CategoryID != models.DefaultCategoryID {
			if card.CategoryID == nil || *card.CategoryID != filter.CategoryID {
				continue
			}
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(card.Title), search) &&
			!strings.Contains(strings.ToLower(card.MarkdownText), search) {
			continue
		}
		out = append(out, r.view(card))
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// GetCard retrieves a card by ID, counting a view when asked
func (r *MemoryRepository) GetCard(ctx context.Context, id int64, countView bool) (*models.TrainingCard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	card, ok := r.cards[id]
	if !ok {
		return nil, ErrNotFound
	}
	if countView {
		card.ViewCount++
	}
	return r.view(card), nil
}

// CreateCard inserts a new card
func (r *MemoryRepository) CreateCard(ctx context.Context, in models.CardInput) (*models.TrainingCard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkCategory(in.CategoryID); err != nil {
		return nil, err
	}

	card := &models.TrainingCard{ID: r.nextCardID, CreatedAt: r.now().UTC()}
	r.nextCardID++
	applyCardInput(card, in.WithDefaults())
	r.cards[card.ID] = card

	return r.view(card), nil
}

// UpdateCard replaces a card's content; counters are left untouched
func (r *MemoryRepository) UpdateCard(ctx context.Context, id int64, in models.CardInput) (*models.TrainingCard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	card, ok := r.cards[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := r.checkCategory(in.CategoryID); err != nil {
		return nil, err
	}

	now := r.now().UTC()
	applyCardInput(card, in.WithDefaults())
	card.UpdatedAt = &now

	return r.view(card), nil
}

// DeleteCard removes a card along with its comments and likes
func (r *MemoryRepository) DeleteCard(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cards[id]; !ok {
		return ErrNotFound
	}
	delete(r.cards, id)
	delete(r.comments, id)
	for k := range r.likes {
		if k.cardID == id {
			delete(r.likes, k)
		}
	}
	return nil
}

// CountCards returns the number of cards
func (r *MemoryRepository) CountCards(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.cards)), nil
}

func (r *MemoryRepository) checkCategory(id *int64) error {
	if id == nil {
		return nil
	}
	if _, ok := r.categories[*id]; !ok {
		return ErrNotFound
	}
	return nil
}

// view returns a detached copy with joined category names and comment count
func (r *MemoryRepository) view(card *models.TrainingCard) *models.TrainingCard {
	cp := *card
	cp.VideoURLs = append(cp.VideoURLs[:0:0], card.VideoURLs...)
	cp.AudioURLs = append(cp.AudioURLs[:0:0], card.AudioURLs...)
	cp.CategoryName, cp.CategoryNameSwahili, cp.CategoryNameKorean = "", "", ""
	if card.CategoryID != nil {
		if c, ok := r.categories[*card.CategoryID]; ok {
			cp.CategoryName = c.Name
			cp.CategoryNameSwahili = c.NameSwahili
			cp.CategoryNameKorean = c.NameKorean
		}
	}
	cp.CommentCount = int64(len(r.comments[card.ID]))
	return &cp
}

func applyCardInput(card *models.TrainingCard, in models.CardInput) {
	card.Title = in.Title
	card.TitleSwahili = in.TitleSwahili
	card.TitleKorean = in.TitleKorean
	card.CategoryID = in.CategoryID
	card.ContentProvider = in.ContentProvider
	card.TargetAudience = in.TargetAudience
	card.DifficultyLevel = in.DifficultyLevel
	card.MarkdownText = in.MarkdownText
	card.HTMLContent = in.HTMLContent
	card.ImageURL = in.ImageURL
	card.VideoURL = in.VideoURL
	card.AudioURL = in.AudioURL
	card.PDFURL = in.PDFURL
	card.VideoURLs = append(card.VideoURLs[:0:0], in.VideoURLs...)
	card.AudioURLs = append(card.AudioURLs[:0:0], in.AudioURLs...)
}

// --- Engagement ---

// LikeCard records one like per visitor; repeated likes leave the counter unchanged
func (r *MemoryRepository) LikeCard(ctx context.Context, cardID int64, userIdentifier string) (*models.LikeResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	card, ok := r.cards[cardID]
	if !ok {
		return nil, ErrNotFound
	}

	key := likeKey{cardID: cardID, user: userIdentifier}
	if _, dup := r.likes[key]; dup {
		return &models.LikeResponse{Success: true, Liked: false, LikeCount: card.LikeCount}, nil
	}

	r.likes[key] = struct{}{}
	card.LikeCount++
	return &models.LikeResponse{Success: true, Liked: true, LikeCount: card.LikeCount}, nil
}

// ListComments returns a card's comments, newest first
func (r *MemoryRepository) ListComments(ctx context.Context, cardID int64) ([]*models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.cards[cardID]; !ok {
		return nil, ErrNotFound
	}

	stored := r.comments[cardID]
	out := make([]*models.Comment, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		cp := *stored[i]
		out = append(out, &cp)
	}
	return out, nil
}

// AddComment appends a comment to a card
func (r *MemoryRepository) AddComment(ctx context.Context, cardID int64, in models.CommentInput) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cards[cardID]; !ok {
		return nil, ErrNotFound
	}

	c := &models.Comment{
		ID:          r.nextCommentID,
		CardID:      cardID,
		UserName:    in.UserName,
		CommentText: in.CommentText,
		CreatedAt:   r.now().UTC(),
	}
	r.nextCommentID++
	r.comments[cardID] = append(r.comments[cardID], c)

	cp := *c
	return &cp, nil
}

// Stats aggregates engagement totals and the top cards by views then likes
func (r *MemoryRepository) Stats(ctx context.Context, topN int) (*models.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if topN <= 0 {
		topN = TopCardsLimit
	}

	stats := &models.Stats{TopCards: make([]models.TopCard, 0, topN)}
	ranked := make([]models.TopCard, 0, len(r.cards))
	for _, card := range r.cards {
		comments := int64(len(r.comments[card.ID]))
		stats.TotalCards++
		stats.TotalViews += card.ViewCount
		stats.TotalLikes += card.LikeCount
		stats.TotalComments += comments
		ranked = append(ranked, models.TopCard{
			ID:           card.ID,
			Title:        card.Title,
			ViewCount:    card.ViewCount,
			LikeCount:    card.LikeCount,
			CommentCount: comments,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.ViewCount != b.ViewCount {
			return a.ViewCount > b.ViewCount
		}
		if a.LikeCount != b.LikeCount {
			return a.LikeCount > b.LikeCount
		}
		return a.ID < b.ID
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	stats.TopCards = append(stats.TopCards, ranked...)
	return stats, nil
}
