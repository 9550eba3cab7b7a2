package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/store"
)

type fakeFinder map[primitive.ObjectID]models.User

func (f fakeFinder) ByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	u, ok := f[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return u, nil
}

type env struct {
	router  *gin.Engine
	tokens  *auth.TokenManager
	latency *metrics.Latency
	users   fakeFinder
}

func newEnv(t *testing.T) *env {
	gin.SetMode(gin.TestMode)
	web := t.TempDir()
	if err := os.WriteFile(filepath.Join(web, "index.html"), []byte("<h1>shop</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.WebDir = web
	cfg.UploadDir = t.TempDir()

	e := &env{
		tokens:  auth.NewTokenManager("test-secret", time.Hour),
		latency: metrics.NewLatency(),
		users:   fakeFinder{},
	}
	// only routes rejected before reaching a handler are exercised here
	e.router = New(cfg, e.tokens, e.users, Handlers{Latency: e.latency})
	return e
}

func (e *env) userToken(t *testing.T, role string) string {
	t.Helper()
	u := models.User{ID: primitive.NewObjectID(), Role: role, IsActive: true}
	e.users[u.ID] = u
	tok, _, err := e.tokens.Sign(u.ID.Hex(), role)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func (e *env) get(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestProtectedRoutes(t *testing.T) {
	e := newEnv(t)
	for _, path := range []string{"/api/cart", "/api/orders", "/api/wishlist", "/api/auth/me", "/api/admin/stats"} {
		if w := e.get(path, ""); w.Code != http.StatusUnauthorized {
			t.Errorf("%s without token: expected 401, got %d", path, w.Code)
		}
	}
	user := e.userToken(t, models.RoleUser)
	for _, path := range []string{"/api/admin/stats", "/api/admin/users", "/api/admin/orders", "/api/discounts"} {
		if w := e.get(path, user); w.Code != http.StatusForbidden {
			t.Errorf("%s as user: expected 403, got %d", path, w.Code)
		}
	}
}

func TestAdminLatencyEndpoint(t *testing.T) {
	e := newEnv(t)
	e.get("/api/cart", "")
	w := e.get("/api/admin/stats/latency", e.userToken(t, models.RoleAdmin))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"count":1`) {
		t.Errorf("unexpected latency response %d %s", w.Code, w.Body)
	}
}

func TestStaticAndFallback(t *testing.T) {
	e := newEnv(t)
	if w := e.get("/", ""); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "shop") {
		t.Errorf("index: got %d %s", w.Code, w.Body)
	}
	w := e.get("/api/nothing", "")
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "route not found") {
		t.Errorf("unknown api route: got %d %s", w.Code, w.Body)
	}
	if w := e.get("/healthz", ""); w.Code != http.StatusOK {
		t.Errorf("healthz: expected 200, got %d", w.Code)
	}
}
