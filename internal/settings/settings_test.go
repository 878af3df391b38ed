package settings

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muntakson/salama/internal/i18n"
)

func TestLoadDefaultsFromAcceptLanguage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en;q=0.5")

	p := NewStore(false).Load(req)
	assert.Equal(t, i18n.Korean, p.Language)
	assert.False(t, p.HighContrast)
	assert.Empty(t, p.VisitorID)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	store := NewStore(true)
	rec := httptest.NewRecorder()
	store.Save(rec, Preferences{Language: i18n.Swahili, HighContrast: true, VisitorID: "3f1c1f9e-4a8e-4c55-9c1e-1f6b2a7d9e10"})

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 3)
	for _, c := range cookies {
		assert.True(t, c.Secure, c.Name)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	p := store.Load(req)
	assert.Equal(t, i18n.Swahili, p.Language)
	assert.True(t, p.HighContrast)
	assert.Equal(t, "3f1c1f9e-4a8e-4c55-9c1e-1f6b2a7d9e10", p.VisitorID)
}

func TestLoadIgnoresForgedVisitorID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: visitorCookie, Value: "<script>"})
	req.AddCookie(&http.Cookie{Name: languageCookie, Value: "fr"})

	p := NewStore(false).Load(req)
	assert.Empty(t, p.VisitorID)
	assert.Equal(t, i18n.English, p.Language)
}

func TestMiddlewareInjectsPreferences(t *testing.T) {
	var got Preferences
	h := NewStore(false).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, got.VisitorID)
	assert.Equal(t, i18n.English, got.Language)
	assert.NotEmpty(t, rec.Result().Cookies(), "new visitor id is persisted")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: visitorCookie, Value: got.VisitorID})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Result().Cookies(), "known visitors are not rewritten")
}

func TestFromContextDefault(t *testing.T) {
	p := FromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.Equal(t, i18n.Default, p.Language)
}
