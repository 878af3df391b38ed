package portal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/muntakson/salama/internal/i18n"
	"github.com/muntakson/salama/internal/models"
	"github.com/muntakson/salama/internal/presenter"
	"github.com/muntakson/salama/internal/settings"
	"github.com/muntakson/salama/pkg/client"
)

// basePage is shared by every page
type basePage struct {
	Title     string
	Prefs     settings.Preferences
	Languages []i18n.Language
	Flash     *flash
	Path      string
}

type categoryOption struct {
	ID       int64
	Name     string
	Selected bool
}

type cardItem struct {
	View     presenter.CardView
	ReturnTo string
	Full     bool
}

type indexPage struct {
	basePage
	Categories []categoryOption
	CategoryID int64
	Search     string
	Cards      []cardItem
}

type cardPage struct {
	basePage
	Card cardItem
}

func (s *Server) base(w http.ResponseWriter, r *http.Request, title string) basePage {
	return basePage{
		Title:     title,
		Prefs:     settings.FromContext(r.Context()),
		Languages: i18n.Supported,
		Flash:     s.popFlash(w, r),
		Path:      r.URL.RequestURI(),
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := indexPage{
		basePage: s.base(w, r, "Medical Device Training"),
		Search:   strings.TrimSpace(r.URL.Query().Get("search")),
	}
	lang := page.Prefs.Language

	if raw := r.URL.Query().Get("category_id"); raw != "" {
		page.CategoryID, _ = strconv.ParseInt(raw, 10, 64)
	}

	categories, err := s.api.ListCategories(ctx)
	if err != nil {
		slog.Error("failed to fetch categories", "error", err)
	}
	for _, c := range categories {
		page.Categories = append(page.Categories, categoryOption{
			ID:       c.ID,
			Name:     c.Names().In(lang),
			Selected: c.ID == page.CategoryID,
		})
	}

	cards, err := s.api.ListCards(ctx, client.ListOptions{CategoryID: page.CategoryID, Search: page.Search})
	if err != nil {
		slog.Error("failed to fetch cards", "error", err)
	}
	for _, card := range cards {
		p := s.workspace.Presenter(page.Prefs.VisitorID, card)
		page.Cards = append(page.Cards, cardItem{View: p.View(lang), ReturnTo: cardAnchor(page.Path, card.ID)})
	}

	s.render(w, http.StatusOK, "index.html", page)
}

func (s *Server) handleCardPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	// Only the first open counts as a view; redirects after card actions carry ?stay
	var card *models.TrainingCard
	var err error
	if r.URL.Query().Has("stay") {
		card, err = s.findCard(r.Context(), id)
	} else {
		card, err = s.api.GetCard(r.Context(), id)
	}
	if err != nil {
		s.cardError(w, r, err)
		return
	}

	page := cardPage{basePage: s.base(w, r, card.Title)}
	p := s.workspace.Presenter(page.Prefs.VisitorID, card)
	stay := "/cards/" + strconv.FormatInt(card.ID, 10) + "?stay=1"
	page.Card = cardItem{View: p.View(page.Prefs.Language), ReturnTo: stay, Full: true}
	page.Title = page.Card.View.Title

	s.render(w, http.StatusOK, "card.html", page)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	prefs := settings.FromContext(r.Context())
	if lang := r.FormValue("language"); lang != "" {
		prefs.Language = i18n.ParseLanguage(lang)
	}
	if r.FormValue("toggle_contrast") != "" {
		prefs.HighContrast = !prefs.HighContrast
	}
	s.prefs.Save(w, prefs)
	redirect(w, r, returnTo(r, "/"))
}

func (s *Server) handleToggleSection(w http.ResponseWriter, r *http.Request) {
	p, ok := s.presenterFor(w, r)
	if !ok {
		return
	}
	section, valid := presenter.ParseSection(r.FormValue("section"))
	if !valid {
		http.Error(w, "unknown section", http.StatusBadRequest)
		return
	}
	p.ToggleSection(section)
	redirect(w, r, returnTo(r, "/"))
}

func (s *Server) handleLike(w http.ResponseWriter, r *http.Request) {
	p, ok := s.presenterFor(w, r)
	if !ok {
		return
	}
	if err := p.RequestLike(actionContext(r), settings.FromContext(r.Context()).VisitorID); err != nil {
		s.setFlash(w, flashError, "Could not record your like. Please try again.")
	}
	redirect(w, r, returnTo(r, "/"))
}

func (s *Server) handleToggleComments(w http.ResponseWriter, r *http.Request) {
	p, ok := s.presenterFor(w, r)
	if !ok {
		return
	}
	if err := p.LoadComments(actionContext(r)); err != nil {
		s.setFlash(w, flashError, "Could not load comments.")
	}
	redirect(w, r, returnTo(r, "/"))
}

func (s *Server) handleSubmitComment(w http.ResponseWriter, r *http.Request) {
	p, ok := s.presenterFor(w, r)
	if !ok {
		return
	}

	err := p.SubmitComment(actionContext(r), r.FormValue("user_name"), r.FormValue("comment_text"))
	var verr *presenter.ValidationError
	switch {
	case errors.As(err, &verr):
		s.setFlash(w, flashError, verr.Message)
	case err != nil:
		s.setFlash(w, flashError, "Could not post your comment. Please try again.")
	}
	redirect(w, r, returnTo(r, "/"))
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	p, ok := s.presenterFor(w, r)
	if !ok {
		return
	}

	_, err := p.AskAI(actionContext(r), r.FormValue("question"))
	var verr *presenter.ValidationError
	switch {
	case errors.As(err, &verr):
		s.setFlash(w, flashError, verr.Message)
	case errors.Is(err, presenter.ErrAskInFlight):
		s.setFlash(w, flashError, "Your previous question is still being answered.")
	}
	redirect(w, r, returnTo(r, "/"))
}

// actionContext detaches a card action from the browser request so a dropped
// connection does not cancel the collaborator call. The API client's timeout
// still bounds it.
func actionContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

// presenterFor finds the visitor's presenter for the card in the URL. A visitor
// acting on a card they never loaded gets a presenter from a fresh listing.
func (s *Server) presenterFor(w http.ResponseWriter, r *http.Request) (*presenter.Presenter, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}

	visitorID := settings.FromContext(r.Context()).VisitorID
	if p, found := s.workspace.Lookup(visitorID, id); found {
		return p, true
	}

	card, err := s.findCard(r.Context(), id)
	if err != nil {
		s.cardError(w, r, err)
		return nil, false
	}
	return s.workspace.Presenter(visitorID, card), true
}

// findCard locates a card through the listing, which does not count a view
func (s *Server) findCard(ctx context.Context, id int64) (*models.TrainingCard, error) {
	cards, err := s.api.ListCards(ctx, client.ListOptions{})
	if err != nil {
		return nil, err
	}
	for _, c := range cards {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, &client.StatusError{StatusCode: http.StatusNotFound, Code: "not_found"}
}

func (s *Server) cardError(w http.ResponseWriter, r *http.Request, err error) {
	if client.IsNotFound(err) {
		http.Error(w, "training material not found", http.StatusNotFound)
		return
	}
	slog.Error("failed to fetch card", "error", err, "path", r.URL.Path)
	http.Error(w, "could not reach the training catalog", http.StatusBadGateway)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// cardAnchor is the fragment that scrolls a listing back to a card
func cardAnchor(path string, id int64) string {
	u, err := url.Parse(path)
	if err != nil {
		return path
	}
	u.Fragment = "card-" + strconv.FormatInt(id, 10)
	return u.String()
}
