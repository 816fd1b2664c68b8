package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/auth"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/interactions"
)

type fakeValidator map[string]*auth.Claims

func (f fakeValidator) ValidateAccessToken(token string) (*auth.Claims, error) {
	if claims, ok := f[token]; ok {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

func newSessionRouter(t *testing.T, registry *interactions.Registry, validator TokenValidator) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("guide_session", cookie.NewStore([]byte("test-secret"))))
	r.Use(SessionMiddleware(registry, zap.NewNop()))
	r.Use(OptionalAuthMiddleware(validator))
	r.GET("/whoami", func(c *gin.Context) {
		store := interactions.FromContext(c)
		c.JSON(http.StatusOK, gin.H{
			"session_id": store.SessionID(),
			"user_id":    store.Session().UserID(),
		})
	})
	r.POST("/fav/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"favorite": interactions.FromContext(c).ToggleFavorite(c.Param("id"))})
	})
	return r
}

func TestSessionMiddleware_ReusesStoreAcrossRequests(t *testing.T) {
	registry := interactions.NewRegistry(time.Hour, nil, zap.NewNop())
	t.Cleanup(registry.Close)
	r := newSessionRouter(t, registry, fakeValidator{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/fav/carthage", nil))
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, 1, registry.Len())

	req := httptest.NewRequest(http.MethodPost, "/fav/carthage", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.JSONEq(t, `{"favorite":false}`, w.Body.String())
	assert.Equal(t, 1, registry.Len())
}

func TestSessionMiddleware_NewVisitorsGetDistinctSessions(t *testing.T) {
	registry := interactions.NewRegistry(time.Hour, nil, zap.NewNop())
	t.Cleanup(registry.Close)
	r := newSessionRouter(t, registry, fakeValidator{})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 3, registry.Len())
}

func TestOptionalAuthMiddleware(t *testing.T) {
	validator := fakeValidator{
		"good": {UserID: "user-1", Email: "amel@example.com", DisplayName: "Amel"},
	}

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		wantID string
	}{
		{name: "no token", setup: func(*http.Request) {}, wantID: ""},
		{
			name: "cookie token",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: "good"})
			},
			wantID: "user-1",
		},
		{
			name:   "bearer token",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") },
			wantID: "user-1",
		},
		{
			name: "invalid token",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: "forged"})
			},
			wantID: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := interactions.NewRegistry(time.Hour, nil, zap.NewNop())
			t.Cleanup(registry.Close)
			r := newSessionRouter(t, registry, validator)

			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), `"user_id":"`+tt.wantID+`"`)
		})
	}
}

func TestOptionalAuthMiddleware_ExpiredTokenSignsOut(t *testing.T) {
	registry := interactions.NewRegistry(time.Hour, nil, zap.NewNop())
	t.Cleanup(registry.Close)
	validator := fakeValidator{"good": {UserID: "user-1"}}
	r := newSessionRouter(t, registry, validator)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: "good"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Contains(t, w.Body.String(), `"user_id":"user-1"`)

	delete(validator, "good")
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: "good"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Contains(t, w.Body.String(), `"user_id":""`)
}

func TestSecurityAndCORSHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://guide.example/"}), SecurityMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://guide.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://guide.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSRejectsUnlistedOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://guide.example"}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, method := range []string{http.MethodOptions, http.MethodGet} {
		req := httptest.NewRequest(method, "/ping", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"), method)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"), method)
		assert.Equal(t, "Origin", w.Header().Get("Vary"), method)
	}
}
