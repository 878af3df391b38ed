package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/muntakson/salama/internal/media"
	"github.com/muntakson/salama/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 2
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Pool exposes the underlying pool for migrations
func (r *PostgresRepository) Pool() *pgxpool.Pool {
	return r.pool
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// --- Categories ---

const categoryColumns = `id, name, name_swahili, name_korean, description, created_at, updated_at`

// ListCategories returns all categories, the default one first
func (r *PostgresRepository) ListCategories(ctx context.Context) ([]*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY (id <> 1), name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]*models.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

// GetCategory retrieves a category by ID
func (r *PostgresRepository) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`

	c, err := scanCategory(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

// CreateCategory inserts a new category
func (r *PostgresRepository) CreateCategory(ctx context.Context, in models.CategoryInput) (*models.Category, error) {
	query := `
		INSERT INTO categories (name, name_swahili, name_korean, description)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + categoryColumns

	c, err := scanCategory(r.pool.QueryRow(ctx, query, in.Name, in.NameSwahili, in.NameKorean, in.Description))
	if err != nil {
		return nil, mapWriteError("create category", err)
	}
	return c, nil
}

// UpdateCategory replaces a category's fields
func (r *PostgresRepository) UpdateCategory(ctx context.Context, id int64, in models.CategoryInput) (*models.Category, error) {
	query := `
		UPDATE categories
		SET name = $2, name_swahili = $3, name_korean = $4, description = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + categoryColumns

	c, err := scanCategory(r.pool.QueryRow(ctx, query, id, in.Name, in.NameSwahili, in.NameKorean, in.Description))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapWriteError("update category", err)
	}
	return c, nil
}

// DeleteCategory removes a category; its cards become uncategorized
func (r *PostgresRepository) DeleteCategory(ctx context.Context, id int64) error {
	if id == models.DefaultCategoryID {
		return ErrProtectedCategory
	}

	result, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// EnsureCategories inserts the given categories unless one with the same name exists
func (r *PostgresRepository) EnsureCategories(ctx context.Context, defaults []models.CategoryInput) (int, error) {
	query := `
		INSERT INTO categories (name, name_swahili, name_korean, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO NOTHING
	`

	inserted := 0
	for _, in := range defaults {
		result, err := r.pool.Exec(ctx, query, in.Name, in.NameSwahili, in.NameKorean, in.Description)
		if err != nil {
			return inserted, fmt.Errorf("failed to ensure category %q: %w", in.Name, err)
		}
		inserted += int(result.RowsAffected())
	}

	return inserted, nil
}

// --- Cards ---

const cardSelect = `
	SELECT t.id, t.title, t.title_swahili, t.title_korean, t.category_id,
		COALESCE(c.name, ''), COALESCE(c.name_swahili, ''), COALESCE(c.name_korean, ''),
		t.content_provider, t.target_audience, t.difficulty_level,
		t.markdown_text, t.html_content, t.image_url, t.video_url, t.audio_url, t.pdf_url,
		t.video_urls, t.audio_urls, t.view_count, t.like_count,
		(SELECT COUNT(*) FROM comments cm WHERE cm.card_id = t.id),
		t.created_at, t.updated_at
	FROM training_cards t
	LEFT JOIN categories c ON c.id = t.category_id
`

// ListCards returns cards matching the filter, newest first
func (r *PostgresRepository) ListCards(ctx context.Context, filter models.CardFilter) ([]*models.TrainingCard, error) {
	query := cardSelect + ` WHERE 1=1`
	args := make([]interface{}, 0)
	argNum := 1

	if filter.CategoryID > 0 && filter.CategoryID != models.DefaultCategoryID {
		query += fmt.Sprintf(" AND t.category_id = $%d", argNum)
		args = append(args, filter.CategoryID)
		argNum++
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		query += fmt.Sprintf(" AND (t.title ILIKE $%d OR t.markdown_text ILIKE $%d)", argNum, argNum)
		args = append(args, "%"+escapeLike(search)+"%")
	}

	query += " ORDER BY t.created_at DESC, t.id DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	cards := make([]*models.TrainingCard, 0)
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, card)
	}

	return cards, rows.Err()
}

// GetCard retrieves a card by ID, counting a view when asked
func (r *PostgresRepository) GetCard(ctx context.Context, id int64, countView bool) (*models.TrainingCard, error) {
	if countView {
		result, err := r.pool.Exec(ctx, `UPDATE training_cards SET view_count = view_count + 1 WHERE id = $1`, id)
		if err != nil {
			return nil, fmt.Errorf("failed to count view: %w", err)
		}
		if result.RowsAffected() == 0 {
			return nil, ErrNotFound
		}
	}

	card, err := scanCard(r.pool.QueryRow(ctx, cardSelect+` WHERE t.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return card, nil
}

// CreateCard inserts a new card
func (r *PostgresRepository) CreateCard(ctx context.Context, in models.CardInput) (*models.TrainingCard, error) {
	in = in.WithDefaults()

	query := `
		INSERT INTO training_cards (
			title, title_swahili, title_korean, category_id, content_provider, target_audience,
			difficulty_level, markdown_text, html_content, image_url, video_url, audio_url, pdf_url,
			video_urls, audio_urls
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`

	var id int64
	err := r.pool.QueryRow(ctx, query, cardArgs(in)...).Scan(&id)
	if err != nil {
		return nil, mapWriteError("create card", err)
	}

	return r.GetCard(ctx, id, false)
}

// UpdateCard replaces a card's content; counters are left untouched
func (r *PostgresRepository) UpdateCard(ctx context.Context, id int64, in models.CardInput) (*models.TrainingCard, error) {
	in = in.WithDefaults()

	query := `
		UPDATE training_cards
		SET title = $2, title_swahili = $3, title_korean = $4, category_id = $5,
			content_provider = $6, target_audience = $7, difficulty_level = $8,
			markdown_text = $9, html_content = $10, image_url = $11, video_url = $12,
			audio_url = $13, pdf_url = $14, video_urls = $15, audio_urls = $16,
			updated_at = NOW()
		WHERE id = $1
	`

	args := append([]interface{}{id}, cardArgs(in)...)
	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, mapWriteError("update card", err)
	}

	if result.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	return r.GetCard(ctx, id, false)
}

// DeleteCard removes a card along with its comments and likes
func (r *PostgresRepository) DeleteCard(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM training_cards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// CountCards returns the number of cards
func (r *PostgresRepository) CountCards(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM training_cards`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cards: %w", err)
	}
	return n, nil
}

// --- Engagement ---

// LikeCard records one like per visitor; repeated likes leave the counter unchanged
func (r *PostgresRepository) LikeCard(ctx context.Context, cardID int64, userIdentifier string) (*models.LikeResponse, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin like transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var likeCount int64
	err = tx.QueryRow(ctx, `SELECT like_count FROM training_cards WHERE id = $1 FOR UPDATE`, cardID).Scan(&likeCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock card: %w", err)
	}

	result, err := tx.Exec(ctx, `
		INSERT INTO card_likes (card_id, user_identifier)
		VALUES ($1, $2)
		ON CONFLICT (card_id, user_identifier) DO NOTHING
	`, cardID, userIdentifier)
	if err != nil {
		return nil, fmt.Errorf("failed to record like: %w", err)
	}

	liked := result.RowsAffected() == 1
	if liked {
		err = tx.QueryRow(ctx,
			`UPDATE training_cards SET like_count = like_count + 1 WHERE id = $1 RETURNING like_count`,
			cardID,
		).Scan(&likeCount)
		if err != nil {
			return nil, fmt.Errorf("failed to increment likes: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit like: %w", err)
	}

	return &models.LikeResponse{Success: true, Liked: liked, LikeCount: likeCount}, nil
}

// ListComments returns a card's comments, newest first
func (r *PostgresRepository) ListComments(ctx context.Context, cardID int64) ([]*models.Comment, error) {
	if err := r.cardExists(ctx, cardID); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, card_id, user_name, comment_text, created_at
		FROM comments
		WHERE card_id = $1
		ORDER BY created_at DESC, id DESC
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]*models.Comment, 0)
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.CardID, &c.UserName, &c.CommentText, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, &c)
	}

	return comments, rows.Err()
}

// AddComment appends a comment to a card
func (r *PostgresRepository) AddComment(ctx context.Context, cardID int64, in models.CommentInput) (*models.Comment, error) {
	var c models.Comment
	err := r.pool.QueryRow(ctx, `
		INSERT INTO comments (card_id, user_name, comment_text)
		VALUES ($1, $2, $3)
		RETURNING id, card_id, user_name, comment_text, created_at
	`, cardID, in.UserName, in.CommentText).Scan(&c.ID, &c.CardID, &c.UserName, &c.CommentText, &c.CreatedAt)
	if err != nil {
		return nil, mapWriteError("add comment", err)
	}
	return &c, nil
}

// Stats aggregates engagement totals and the top cards by views then likes
func (r *PostgresRepository) Stats(ctx context.Context, topN int) (*models.Stats, error) {
	var stats models.Stats

	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM training_cards),
			(SELECT COALESCE(SUM(view_count), 0) FROM training_cards),
			(SELECT COALESCE(SUM(like_count), 0) FROM training_cards),
			(SELECT COUNT(*) FROM comments)
	`).Scan(&stats.TotalCards, &stats.TotalViews, &stats.TotalLikes, &stats.TotalComments)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stats: %w", err)
	}

	if topN <= 0 {
		topN = TopCardsLimit
	}

	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.title, t.view_count, t.like_count,
			(SELECT COUNT(*) FROM comments cm WHERE cm.card_id = t.id)
		FROM training_cards t
		ORDER BY t.view_count DESC, t.like_count DESC, t.id ASC
		LIMIT $1
	`, topN)
	if err != nil {
		return nil, fmt.Errorf("failed to rank cards: %w", err)
	}
	defer rows.Close()

	stats.TopCards = make([]models.TopCard, 0, topN)
	for rows.Next() {
		var tc models.TopCard
		if err := rows.Scan(&tc.ID, &tc.Title, &tc.ViewCount, &tc.LikeCount, &tc.CommentCount); err != nil {
			return nil, fmt.Errorf("failed to scan top card: %w", err)
		}
		stats.TopCards = append(stats.TopCards, tc)
	}

	return &stats, rows.Err()
}

func (r *PostgresRepository) cardExists(ctx context.Context, id int64) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM training_cards WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check card: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

// Helper functions

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (*models.Category, error) {
	var c models.Category
	var updatedAt sql.NullTime

	if err := row.Scan(&c.ID, &c.Name, &c.NameSwahili, &c.NameKorean, &c.Description, &c.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}

	if updatedAt.Valid {
		c.UpdatedAt = &updatedAt.Time
	}
	return &c, nil
}

func scanCard(row rowScanner) (*models.TrainingCard, error) {
	var card models.TrainingCard
	var difficulty string
	var videoURLs, audioURLs sql.NullString
	var updatedAt sql.NullTime

	err := row.Scan(
		&card.ID,
		&card.Title,
		&card.TitleSwahili,
		&card.TitleKorean,
		&card.CategoryID,
		&card.CategoryName,
		&card.CategoryNameSwahili,
		&card.CategoryNameKorean,
		&card.ContentProvider,
		&card.TargetAudience,
		&difficulty,
		&card.MarkdownText,
		&card.HTMLContent,
		&card.ImageURL,
		&card.VideoURL,
		&card.AudioURL,
		&card.PDFURL,
		&videoURLs,
		&audioURLs,
		&card.ViewCount,
		&card.LikeCount,
		&card.CommentCount,
		&card.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	card.DifficultyLevel = models.Difficulty(difficulty)
	card.VideoURLs = media.ParseStored(nullStringPtr(videoURLs))
	card.AudioURLs = media.ParseStored(nullStringPtr(audioURLs))

	if updatedAt.Valid {
		card.UpdatedAt = &updatedAt.Time
	}
	return &card, nil
}

func cardArgs(in models.CardInput) []interface{} {
	return []interface{}{
		in.Title,
		in.TitleSwahili,
		in.TitleKorean,
		in.CategoryID,
		in.ContentProvider,
		in.TargetAudience,
		string(in.DifficultyLevel),
		in.MarkdownText,
		in.HTMLContent,
		in.ImageURL,
		in.VideoURL,
		in.AudioURL,
		in.PDFURL,
		in.VideoURLs.Encode(),
		in.AudioURLs.Encode(),
	}
}

func nullStringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

// mapWriteError translates constraint violations into sentinel errors
func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w", op, ErrConflict)
		case "23503":
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
