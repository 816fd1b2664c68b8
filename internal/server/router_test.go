package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/auth"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/catalog"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/interactions"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/location"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/models"
	"github.com/FACorreiaa/go-tunisia-guide/internal/pkg/config"
	"github.com/FACorreiaa/go-tunisia-guide/internal/routes"
)

type noLooker struct{}

func (noLooker) Lookup(context.Context, models.WikiRef) *models.Enrichment { return nil }

func newTestRouter(t *testing.T) (http.Handler, *interactions.Registry) {
	t.Helper()
	logger := zap.NewNop()

	cfg := config.Defaults()
	cfg.Session.CookieSecret = "router-test-secret"
	cfg.JWT.SecretKey = "router-test-jwt"

	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	catalogService, err := catalog.NewService(logger)
	require.NoError(t, err)
	t.Cleanup(catalogService.Close)

	registry := interactions.NewRegistry(time.Hour, nil, logger)
	t.Cleanup(registry.Close)

	r := SetupRouter(cfg, &routes.Dependencies{
		DB:       pool,
		Auth:     auth.NewAuthService(auth.NewPostgresAuthRepo(pool, logger), auth.NewLogMailer(logger), cfg.JWT, logger),
		Registry: registry,
		Catalog:  catalogService,
		Looker:   noLooker{},
		Location: location.NewService(cfg.External, logger),
	}, logger)
	return r, registry
}

func TestSetupRouter_SessionAndRequestID(t *testing.T) {
	r, registry := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/favorites/carthage", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "guide_session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	// The same cookie brings back the same favorites.
	req := httptest.NewRequest(http.MethodGet, "/api/favorites", nil)
	req.AddCookie(cookies[0])
	req.Header.Set("X-Request-Id", "req-42")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"favorites":["carthage"],"count":1}`, w.Body.String())
	assert.Equal(t, "req-42", w.Header().Get("X-Request-Id"))
	assert.Equal(t, 1, registry.Len())
}

func TestSetupRouter_GuardedActionWithoutLogin(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPut, "/api/ratings/carthage", nil)
	req.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "/guest-profile", w.Header().Get("HX-Redirect"))
}
