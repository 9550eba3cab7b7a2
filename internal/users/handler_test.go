package users

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/httpx"
	"storefront/internal/models"
	"storefront/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStore struct {
	users    []models.User
	lastList ListFilter
}

func (f *fakeStore) find(id primitive.ObjectID) int {
	for i, u := range f.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func (f *fakeStore) ByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	if i := f.find(id); i >= 0 {
		return f.users[i], nil
	}
	return models.User{}, store.ErrNotFound
}

func (f *fakeStore) List(_ context.Context, lf ListFilter, skip, limit int64) ([]models.User, int64, error) {
	f.lastList = lf
	var out []models.User
	for _, u := range f.users {
		if lf.Role != "" && u.Role != lf.Role {
			continue
		}
		if lf.Active != nil && u.IsActive != *lf.Active {
			continue
		}
		if lf.Search != "" && !strings.Contains(u.Username, lf.Search) && !strings.Contains(u.Email, lf.Search) {
			continue
		}
		out = append(out, u)
	}
	total := int64(len(out))
	if skip >= total {
		return nil, total, nil
	}
	end := min(skip+limit, total)
	return out[skip:end], total, nil
}

func (f *fakeStore) SetRole(_ context.Context, id primitive.ObjectID, role string) (models.User, error) {
	i := f.find(id)
	if i < 0 {
		return models.User{}, store.ErrNotFound
	}
	f.users[i].Role = role
	return f.users[i], nil
}

func (f *fakeStore) SetActive(_ context.Context, id primitive.ObjectID, active bool) (models.User, error) {
	i := f.find(id)
	if i < 0 {
		return models.User{}, store.ErrNotFound
	}
	f.users[i].IsActive = active
	return f.users[i], nil
}

func (f *fakeStore) Delete(_ context.Context, id primitive.ObjectID) error {
	i := f.find(id)
	if i < 0 {
		return store.ErrNotFound
	}
	f.users = append(f.users[:i], f.users[i+1:]...)
	return nil
}

type fakeCarts struct{ deleted []primitive.ObjectID }

func (f *fakeCarts) DeleteForUser(_ context.Context, id primitive.ObjectID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeImages struct{ removed []string }

func (f *fakeImages) Remove(p string) { f.removed = append(f.removed, p) }

type env struct {
	router *gin.Engine
	store  *fakeStore
	carts  *fakeCarts
	images *fakeImages
	admin  models.User
}

func newEnv() *env {
	admin := models.User{ID: primitive.NewObjectID(), Username: "root", Email: "root@example.com", Role: models.RoleAdmin, IsActive: true}
	e := &env{
		store:  &fakeStore{users: []models.User{admin}},
		carts:  &fakeCarts{},
		images: &fakeImages{},
		admin:  admin,
	}
	for _, name := range []string{"amy", "ben", "cat"} {
		e.store.users = append(e.store.users, models.User{
			ID: primitive.NewObjectID(), Username: name, Email: name + "@example.com",
			Role: models.RoleUser, IsActive: name != "cat", ProfileImage: "/uploads/avatars/" + name + ".png",
		})
	}
	h := NewHandler(e.store, e.images, e.carts)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(httpx.CtxUserIDKey, admin.ID.Hex())
		c.Set(httpx.CtxRoleKey, models.RoleAdmin)
	})
	r.GET("/users", h.List)
	r.GET("/users/:id", h.Get)
	r.PUT("/users/:id/role", h.SetRole)
	r.PUT("/users/:id/status", h.SetStatus)
	r.DELETE("/users/:id", h.Delete)
	e.router = r
	return e
}

func (e *env) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestListUsers(t *testing.T) {
	e := newEnv()
	w := e.do(http.MethodGet, "/users?role=user&active=true&limit=1&page=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	var page httpx.PageResult[models.User]
	json.Unmarshal(w.Body.Bytes(), &page)
	if page.Total != 2 || page.TotalPages != 2 || len(page.Items) != 1 || page.Items[0].Username != "ben" {
		t.Errorf("unexpected page %+v", page)
	}
	if e.store.lastList.Active == nil || !*e.store.lastList.Active {
		t.Errorf("expected active filter, got %+v", e.store.lastList)
	}

	if w := e.do(http.MethodGet, "/users?role=superuser", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad role: expected 400, got %d", w.Code)
	}
}

func TestGetUser(t *testing.T) {
	e := newEnv()
	if w := e.do(http.MethodGet, "/users/xyz", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad id: expected 400, got %d", w.Code)
	}
	if w := e.do(http.MethodGet, "/users/"+primitive.NewObjectID().Hex(), nil); w.Code != http.StatusNotFound {
		t.Errorf("missing: expected 404, got %d", w.Code)
	}
	if w := e.do(http.MethodGet, "/users/"+e.admin.ID.Hex(), nil); w.Code != http.StatusOK {
		t.Errorf("existing: expected 200, got %d", w.Code)
	}
}

func TestSetRole(t *testing.T) {
	e := newEnv()
	amy := e.store.users[1]
	if w := e.do(http.MethodPut, "/users/"+amy.ID.Hex()+"/role", gin.H{"role": "owner"}); w.Code != http.StatusBadRequest {
		t.Errorf("invalid role: expected 400, got %d", w.Code)
	}
	if w := e.do(http.MethodPut, "/users/"+amy.ID.Hex()+"/role", gin.H{"role": "admin"}); w.Code != http.StatusOK {
		t.Errorf("promote: expected 200, got %d", w.Code)
	}
	if e.store.users[1].Role != models.RoleAdmin {
		t.Error("expected amy promoted")
	}
	if w := e.do(http.MethodPut, "/users/"+e.admin.ID.Hex()+"/role", gin.H{"role": "user"}); w.Code != http.StatusBadRequest {
		t.Errorf("self demotion: expected 400, got %d", w.Code)
	}
}

func TestSetStatus(t *testing.T) {
	e := newEnv()
	cat := e.store.users[3]
	if w := e.do(http.MethodPut, "/users/"+cat.ID.Hex()+"/status", gin.H{}); w.Code != http.StatusBadRequest {
		t.Errorf("missing flag: expected 400, got %d", w.Code)
	}
	if w := e.do(http.MethodPut, "/users/"+cat.ID.Hex()+"/status", gin.H{"isActive": true}); w.Code != http.StatusOK {
		t.Errorf("activate: expected 200, got %d", w.Code)
	}
	if !e.store.users[3].IsActive {
		t.Error("expected cat active")
	}
	if w := e.do(http.MethodPut, "/users/"+e.admin.ID.Hex()+"/status", gin.H{"isActive": false}); w.Code != http.StatusBadRequest {
		t.Errorf("self deactivation: expected 400, got %d", w.Code)
	}
}

func TestDeleteUserCleansUp(t *testing.T) {
	e := newEnv()
	ben := e.store.users[2]
	if w := e.do(http.MethodDelete, "/users/"+ben.ID.Hex(), nil); w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}
	if e.store.find(ben.ID) >= 0 {
		t.Error("expected user removed")
	}
	if len(e.carts.deleted) != 1 || e.carts.deleted[0] != ben.ID {
		t.Errorf("expected cart removed, got %v", e.carts.deleted)
	}
	if len(e.images.removed) != 1 || e.images.removed[0] != "/uploads/avatars/ben.png" {
		t.Errorf("expected avatar removed, got %v", e.images.removed)
	}

	if w := e.do(http.MethodDelete, "/users/"+e.admin.ID.Hex(), nil); w.Code != http.StatusBadRequest {
		t.Errorf("self delete: expected 400, got %d", w.Code)
	}
	if w := e.do(http.MethodDelete, "/users/"+ben.ID.Hex(), nil); w.Code != http.StatusNotFound {
		t.Errorf("repeat delete: expected 404, got %d", w.Code)
	}
}

func TestListFilterBSON(t *testing.T) {
	active := false
	f := ListFilter{Search: "a.b", Role: models.RoleAdmin, Active: &active}.bson()
	if f["role"] != models.RoleAdmin || f["isActive"] != false {
		t.Errorf("unexpected filter %v", f)
	}
	or, ok := f["$or"].(bson.A)
	if !ok || len(or) != 2 {
		t.Fatalf("expected $or with two clauses, got %v", f["$or"])
	}
	rx := or[0].(bson.M)["username"].(primitive.Regex)
	if rx.Pattern != `a\.b` || rx.Options != "i" {
		t.Errorf("expected escaped case-insensitive regex, got %+v", rx)
	}
	if len(ListFilter{}.bson()) != 0 {
		t.Error("expected empty filter")
	}
}
