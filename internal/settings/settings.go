// Package settings loads visitor display preferences once per request and
// persists them only when they change.
package settings

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/muntakson/salama/internal/i18n"
)

const (
	languageCookie = "salama_lang"
	contrastCookie = "salama_contrast"
	visitorCookie  = "salama_visitor"

	cookieMaxAge = 365 * 24 * time.Hour
)

// Preferences are the durable per-visitor settings
type Preferences struct {
	Language     i18n.Language
	HighContrast bool
	VisitorID    string
}

// Store reads and writes preferences as cookies
type Store struct {
	secure bool
}

// NewStore creates a cookie store; secure marks cookies HTTPS-only
func NewStore(secure bool) *Store {
	return &Store{secure: secure}
}

// Load reads preferences from the request. A visitor without a saved language
// gets the best match for their Accept-Language header.
func (s *Store) Load(r *http.Request) Preferences {
	p := Preferences{Language: i18n.Negotiate(r.Header.Get("Accept-Language"))}

	if c, err := r.Cookie(languageCookie); err == nil {
		p.Language = i18n.ParseLanguage(c.Value)
	}
	if c, err := r.Cookie(contrastCookie); err == nil {
		p.HighContrast = c.Value == "true"
	}
	if c, err := r.Cookie(visitorCookie); err == nil {
		if _, perr := uuid.Parse(c.Value); perr == nil {
			p.VisitorID = c.Value
		}
	}
	return p
}

// Save writes every preference back to the client
func (s *Store) Save(w http.ResponseWriter, p Preferences) {
	contrast := "false"
	if p.HighContrast {
		contrast = "true"
	}

	s.set(w, languageCookie, string(p.Language), false)
	s.set(w, contrastCookie, contrast, false)
	if p.VisitorID != "" {
		s.set(w, visitorCookie, p.VisitorID, true)
	}
}

func (s *Store) set(w http.ResponseWriter, name, value string, httpOnly bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		HttpOnly: httpOnly,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Middleware loads preferences into the request context. First-time visitors
// are assigned a visitor id, which is persisted immediately.
func (s *Store) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := s.Load(r)
		if p.VisitorID == "" {
			p.VisitorID = uuid.NewString()
			s.Save(w, p)
		}
		next.ServeHTTP(w, r.WithContext(WithPreferences(r.Context(), p)))
	})
}

type contextKey struct{}

// WithPreferences adds p to ctx
func WithPreferences(ctx context.Context, p Preferences) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the request's preferences, or defaults when none were loaded
func FromContext(ctx context.Context) Preferences {
	if p, ok := ctx.Value(contextKey{}).(Preferences); ok {
		return p
	}
	return Preferences{Language: i18n.Default}
}
