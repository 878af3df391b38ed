package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/muntakson/salama/internal/media"
	"github.com/muntakson/salama/internal/models"
	"github.com/muntakson/salama/pkg/client"
)

// Admin form messages
const (
	msgProtectedCategory = "The default category cannot be deleted"
	msgTitleRequired     = "Title is required"
	msgUnknownDifficulty = "Unknown difficulty level"
	msgInvalidCategory   = "Invalid category"
	msgMalformedForm     = "The upload is too large or the form is malformed."
)

type adminPage struct {
	basePage
	Stats             *models.Stats
	Categories        []*models.Category
	Cards             []*models.TrainingCard
	DefaultCategoryID int64
}

type categoryFormPage struct {
	basePage
	Category *models.Category
}

type cardFormPage struct {
	basePage
	Action        string
	Card          *models.TrainingCard
	Categories    []*models.Category
	CategoryID    int64
	Difficulties  []models.Difficulty
	VideoURLsText string
	AudioURLsText string
}

// adminAPI returns a client acting with the visitor's admin session, or false
// when there is no session or the API no longer accepts it
func (s *Server) adminAPI(w http.ResponseWriter, r *http.Request) (*client.Client, bool) {
	token := adminToken(r)
	if token == "" {
		return nil, false
	}

	api := s.api.WithSession(token)
	valid, err := api.Verify(r.Context())
	if err != nil {
		slog.Error("failed to verify admin session", "error", err)
		return nil, false
	}
	if !valid {
		s.clearAdminToken(w)
		return nil, false
	}
	return api, true
}

// requireAdmin is adminAPI for form posts: it redirects to the login screen on failure
func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) (*client.Client, bool) {
	api, ok := s.adminAPI(w, r)
	if !ok {
		s.setFlash(w, flashError, "Please log in again.")
		redirect(w, r, "/admin")
	}
	return api, ok
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	api, ok := s.adminAPI(w, r)
	if !ok {
		s.render(w, http.StatusOK, "admin_login.html", s.base(w, r, "Admin Login"))
		return
	}

	ctx := r.Context()
	page := adminPage{basePage: s.base(w, r, "Admin Dashboard"), DefaultCategoryID: models.DefaultCategoryID}

	var err error
	if page.Stats, err = api.Stats(ctx); err != nil {
		slog.Error("failed to fetch stats", "error", err)
	}
	if page.Categories, err = api.ListCategories(ctx); err != nil {
		slog.Error("failed to fetch categories", "error", err)
	}
	if page.Cards, err = api.ListCards(ctx, client.ListOptions{}); err != nil {
		slog.Error("failed to fetch cards", "error", err)
	}

	s.render(w, http.StatusOK, "admin.html", page)
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	password := r.FormValue("password")
	if password == "" {
		s.setFlash(w, flashError, "Please enter the password")
		redirect(w, r, "/admin")
		return
	}

	token, err := s.api.Login(r.Context(), password)
	if err != nil {
		if client.IsUnauthorized(err) {
			s.setFlash(w, flashError, "Invalid password")
		} else {
			slog.Error("admin login failed", "error", err)
			s.setFlash(w, flashError, "Login failed. Please try again.")
		}
		redirect(w, r, "/admin")
		return
	}

	s.setAdminToken(w, token)
	redirect(w, r, "/admin")
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	if token := adminToken(r); token != "" {
		if err := s.api.WithSession(token).Logout(r.Context()); err != nil {
			slog.Warn("failed to revoke admin session", "error", err)
		}
	}
	s.clearAdminToken(w)
	redirect(w, r, "/admin")
}

// --- Categories ---

func categoryInputFromForm(r *http.Request) models.CategoryInput {
	return models.CategoryInput{
		Name:        strings.TrimSpace(r.FormValue("name")),
		NameSwahili: strings.TrimSpace(r.FormValue("name_swahili")),
		NameKorean:  strings.TrimSpace(r.FormValue("name_korean")),
		Description: strings.TrimSpace(r.FormValue("description")),
	}
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	api, ok := s.requireAdmin(w, r)
	if !ok {
		return
	}

	in := categoryInputFromForm(r)
	if in.Name == "" {
		s.setFlash(w, flashError, "Category name is required")
		redirect(w, r, "/admin")
		return
	}

	if _, err := api.CreateCategory(r.Context(), in); err != nil {
		s.apiFlash(w, "create category", err)
	} else {
		s.setFlash(w, flashSuccess, "Category created")
	}
	redirect(w, r, "/admin")
}

func (s *Server) handleEditCategory(w http.ResponseWriter, r *http.Request) {
	api, ok := s.requireAdmin(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	categories, err := api.ListCategories(r.Context())
	if err != nil {
		s.apiFlash(w, "load category", err)
		redirect(w, r, "/admin")
		return
	}
	for _, c := range categories {
		if c.ID == id {
			s.render(w, http.StatusOK, "admin_category_form.html", categoryFormPage{
				basePage: s.base(w, r, "Edit Category"),
				Category: c,
			})
			return
		}
	}
	http.Error(w, "category not found", http.StatusNotFound)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	api, ok := s.requireAdmin(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	in := categoryInputFromForm(r)
	if in.Name == "" {
		s.setFlash(w, flashError, "Category name is required")
		redirect(w, r, fmt.Sprintf("/admin/categories/%d/edit", id))
		return
	}

	if _, err := api.UpdateCategory(r.Context(), id, in); err != nil {
		s.apiFlash(w, "update category", err)
	} else {
		s.setFlash(w, flashSuccess, "Category updated")
	}
	redirect(w, r, "/admin")
}

// handleDeleteCategory refuses the default category before any session check or API call
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if id == models.DefaultCategoryID {
		s.setFlash(w, flashError, msgProtectedCategory)
		redirect(w, r, "/admin")
		return
	}

	api, ok := s.requireAdmin(w, r)
	if !ok {
		return
	}

	if err := api.DeleteCategory(r.Context(), id); err != nil {
		s.apiFlash(w, "delete category", err)
	} else {
		s.setFlash(w, flashSuccess, "Category deleted")
	}
	redirect(w, r, "/admin")
}

// --- Cards ---

func (s *Server) handleNewCard(w http.ResponseWriter, r *http.Request) {
	api, ok := s.requireAdmin(w, r)
	if !ok {
		return
	}
	s.renderCardForm(w, r, api, "/admin/cards", &models.TrainingCard{DifficultyLevel: models.Beginner})
}

func (s *Server) handleEditCard(w http.ResponseWriter, r *http.Request) {
	api, ok := s.requireAdmin(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	cards, err := api.ListCards(r.Context(), client.ListOptions{})
	if err != nil {
		s.apiFlash(w, "load card", err)
		redirect(w, r, "/admin")
		return
	}
	for _, c := range cards {
		if c.ID == id {
			s.renderCardForm(w, r, api, fmt.Sprintf("/admin/cards/%d", id), c)
			return
		}
	}
	http.Error(w, "card not found", http.StatusNotFound)
}

func (s *Server) renderCardForm(w http.ResponseWriter, r *http.Request, api *client.Client, action string, card *models.TrainingCard) {
	categories, err := api.ListCategories(r.Context())
	if err != nil {
		slog.Error("failed to fetch categories", "error", err)
	}

	title := "New Training Card"
	if card.ID != 0 {
		title = "Edit Training Card"
	}
	var categoryID int64
	if card.CategoryID != nil {
		categoryID = *card.CategoryID
	}
	s.render(w, http.StatusOK, "admin_card_form.html", cardFormPage{
		basePage:      s.base(w, r, title),
		Action:        action,
		Card:          card,
		Categories:    categories,
		CategoryID:    categoryID,
		Difficulties:  models.Difficulties,
		VideoURLsText: strings.Join(card.VideoURLs, "\n"),
		AudioURLsText: strings.Join(card.AudioURLs, "\n"),
	})
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	s.saveCard(w, r, 0)
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.saveCard(w, r, id)
}

// saveCard uploads the form's files first, one at a time, and submits the card
// only when every upload succeeded
func (s *Server) saveCard(w http.ResponseWriter, r *http.Request, id int64) {
	formPath := "/admin/cards/new"
	if id != 0 {
		formPath = fmt.Sprintf("/admin/cards/%d/edit", id)
	}

	// The session is checked from the cookie alone, before the body is read
	api, ok := s.requireAdmin(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		slog.Warn("failed to parse card form", "error", err)
		s.setFlash(w, flashError, msgMalformedForm)
		redirect(w, r, formPath)
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	in, msg := cardInputFromForm(r)
	if msg != "" {
		s.setFlash(w, flashError, msg)
		redirect(w, r, formPath)
		return
	}

	if r.MultipartForm != nil {
		if err := uploadFiles(r.Context(), api, r.MultipartForm, &in); err != nil {
			slog.Error("card upload failed", "error", err)
			s.setFlash(w, flashError, "File upload failed; the card was not saved. "+err.Error())
			redirect(w, r, formPath)
			return
		}
	}

	var err error
	if id == 0 {
		_, err = api.CreateCard(r.Context(), in)
	} else {
		_, err = api.UpdateCard(r.Context(), id, in)
	}
	if err != nil {
		s.apiFlash(w, "save card", err)
		redirect(w, r, formPath)
		return
	}

	s.setFlash(w, flashSuccess, "Training card saved")
	redirect(w, r, "/admin")
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	api, ok := s.requireAdmin(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := api.DeleteCard(r.Context(), id); err != nil {
		s.apiFlash(w, "delete card", err)
	} else {
		s.setFlash(w, flashSuccess, "Training card deleted")
	}
	redirect(w, r, "/admin")
}

// cardInputFromForm reads the card form and returns the flash message of the
// first invalid field, or "" when the input is acceptable
func cardInputFromForm(r *http.Request) (models.CardInput, string) {
	in := models.CardInput{
		Title:           strings.TrimSpace(r.FormValue("title")),
		TitleSwahili:    strings.TrimSpace(r.FormValue("title_swahili")),
		TitleKorean:     strings.TrimSpace(r.FormValue("title_korean")),
		ContentProvider: strings.TrimSpace(r.FormValue("content_provider")),
		TargetAudience:  strings.TrimSpace(r.FormValue("target_audience")),
		DifficultyLevel: models.Difficulty(r.FormValue("difficulty_level")),
		MarkdownText:    r.FormValue("markdown_text"),
		HTMLContent:     r.FormValue("html_content"),
		ImageURL:        strings.TrimSpace(r.FormValue("image_url")),
		VideoURL:        strings.TrimSpace(r.FormValue("video_url")),
		AudioURL:        strings.TrimSpace(r.FormValue("audio_url")),
		PDFURL:          strings.TrimSpace(r.FormValue("pdf_url")),
		VideoURLs:       media.ParseLines(r.FormValue("video_urls")),
		AudioURLs:       media.ParseLines(r.FormValue("audio_urls")),
	}

	if in.Title == "" {
		return in, msgTitleRequired
	}
	if in.DifficultyLevel != "" && !in.DifficultyLevel.Valid() {
		return in, msgUnknownDifficulty
	}
	if raw := r.FormValue("category_id"); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || categoryID <= 0 {
			return in, msgInvalidCategory
		}
		in.CategoryID = &categoryID
	}
	return in, ""
}

// uploadFiles stores each attached file and points the card at the returned URLs
func uploadFiles(ctx context.Context, api *client.Client, form *multipart.Form, in *models.CardInput) error {
	single := []struct {
		field  string
		kind   models.UploadKind
		target *string
	}{
		{"image_file", models.UploadImage, &in.ImageURL},
		{"video_file", models.UploadVideo, &in.VideoURL},
		{"audio_file", models.UploadAudio, &in.AudioURL},
		{"pdf_file", models.UploadPDF, &in.PDFURL},
	}
	for _, f := range single {
		headers := form.File[f.field]
		if len(headers) == 0 {
			continue
		}
		url, err := uploadOne(ctx, api, f.kind, headers[0])
		if err != nil {
			return err
		}
		*f.target = url
	}

	multi := []struct {
		field  string
		kind   models.UploadKind
		target *media.List
	}{
		{"extra_video_files", models.UploadVideo, &in.VideoURLs},
		{"extra_audio_files", models.UploadAudio, &in.AudioURLs},
	}
	for _, f := range multi {
		for _, header := range form.File[f.field] {
			url, err := uploadOne(ctx, api, f.kind, header)
			if err != nil {
				return err
			}
			*f.target = append(*f.target, url)
		}
	}
	return nil
}

func uploadOne(ctx context.Context, api *client.Client, kind models.UploadKind, header *multipart.FileHeader) (string, error) {
	if header.Filename == "" || header.Size == 0 {
		return "", fmt.Errorf("%s: empty file", kind)
	}

	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", header.Filename, err)
	}
	defer file.Close()

	url, err := api.Upload(ctx, kind, header.Filename, file)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", header.Filename, err)
	}
	slog.Info("uploaded card media", "kind", kind, "filename", header.Filename, "url", url)
	return url, nil
}

// apiFlash turns a collaborator error into a transient notification
func (s *Server) apiFlash(w http.ResponseWriter, action string, err error) {
	var se *client.StatusError
	if errors.As(err, &se) && se.Message != "" {
		s.setFlash(w, flashError, fmt.Sprintf("Failed to %s: %s", action, se.Message))
		return
	}
	slog.Error("admin action failed", "action", action, "error", err)
	s.setFlash(w, flashError, fmt.Sprintf("Failed to %s. Please try again.", action))
}
