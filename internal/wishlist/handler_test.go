package wishlist

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/httpx"
	"storefront/internal/models"
	"storefront/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeLists map[primitive.ObjectID][]primitive.ObjectID

func (f fakeLists) ForUser(_ context.Context, userID primitive.ObjectID) (models.Wishlist, error) {
	return models.Wishlist{UserID: userID, ProductIDs: f[userID]}, nil
}

func (f fakeLists) Add(ctx context.Context, userID, productID primitive.ObjectID) (models.Wishlist, error) {
	for _, id := range f[userID] {
		if id == productID {
			return f.ForUser(ctx, userID)
		}
	}
	f[userID] = append(f[userID], productID)
	return f.ForUser(ctx, userID)
}

func (f fakeLists) Remove(ctx context.Context, userID, productID primitive.ObjectID) (models.Wishlist, error) {
	var kept []primitive.ObjectID
	for _, id := range f[userID] {
		if id != productID {
			kept = append(kept, id)
		}
	}
	f[userID] = kept
	return f.ForUser(ctx, userID)
}

type fakeProducts map[primitive.ObjectID]models.Product

func (f fakeProducts) ByID(_ context.Context, id primitive.ObjectID) (models.Product, error) {
	if p, ok := f[id]; ok {
		return p, nil
	}
	return models.Product{}, store.ErrNotFound
}

func (f fakeProducts) ByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	out := map[primitive.ObjectID]models.Product{}
	for _, id := range ids {
		if p, ok := f[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func setup() (*gin.Engine, fakeLists, fakeProducts, primitive.ObjectID) {
	lists, products := fakeLists{}, fakeProducts{}
	user := primitive.NewObjectID()
	h := NewHandler(lists, products)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(httpx.CtxUserIDKey, user.Hex()) })
	r.GET("/wishlist", h.Get)
	r.POST("/wishlist", h.Add)
	r.DELETE("/wishlist/:productId", h.Remove)
	return r, lists, products, user
}

func do(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func items(t *testing.T, w *httptest.ResponseRecorder) []models.Product {
	t.Helper()
	var out struct {
		Items []models.Product `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v (%s)", err, w.Body)
	}
	return out.Items
}

func TestWishlistAddIsIdempotent(t *testing.T) {
	r, lists, products, user := setup()
	id := primitive.NewObjectID()
	products[id] = models.Product{ID: id, Name: "Kettle"}

	do(r, http.MethodPost, "/wishlist", gin.H{"productId": id.Hex()})
	got := items(t, do(r, http.MethodPost, "/wishlist", gin.H{"productId": id.Hex()}))
	if len(got) != 1 || got[0].Name != "Kettle" || len(lists[user]) != 1 {
		t.Errorf("unexpected wishlist %+v", got)
	}
	if w := do(r, http.MethodPost, "/wishlist", gin.H{"productId": primitive.NewObjectID().Hex()}); w.Code != http.StatusNotFound {
		t.Errorf("unknown product: expected 404, got %d", w.Code)
	}
}

func TestWishlistSkipsDeletedAndRemoves(t *testing.T) {
	r, lists, products, user := setup()
	kept, gone := primitive.NewObjectID(), primitive.NewObjectID()
	products[kept] = models.Product{ID: kept, Name: "Teapot"}
	lists[user] = []primitive.ObjectID{kept, gone}

	if got := items(t, do(r, http.MethodGet, "/wishlist", nil)); len(got) != 1 || got[0].ID != kept {
		t.Errorf("expected only existing products, got %+v", got)
	}
	if got := items(t, do(r, http.MethodDelete, "/wishlist/"+kept.Hex(), nil)); len(got) != 0 {
		t.Errorf("expected empty list, got %+v", got)
	}
	if w := do(r, http.MethodDelete, "/wishlist/bad", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad id: expected 400, got %d", w.Code)
	}
}
