package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/httpx"
	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/uploads"
	"storefront/internal/users"
)

type UserStore interface {
	UserFinder
	Create(ctx context.Context, u *models.User) error
	ByIdentifier(ctx context.Context, ident string) (models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, p users.ProfileUpdate) (models.User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
	SetProfileImage(ctx context.Context, id primitive.ObjectID, image string) (models.User, error)
	TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

type ImageStore interface {
	Save(c *gin.Context, field, kind string) (string, error)
	Remove(publicPath string)
}

type Handler struct {
	users  UserStore
	tokens *TokenManager
	images ImageStore
}

func NewHandler(users UserStore, tokens *TokenManager, images ImageStore) *Handler {
	return &Handler{users: users, tokens: tokens, images: images}
}

type registerReq struct {
	Username string `json:"username" binding:"required,min=3,max=30,excludes=@"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginReq struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Password   string `json:"password" binding:"required"`
}

type passwordReq struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

type profileReq struct {
	Username *string `json:"username" binding:"omitnil,min=3,max=30,excludes=@"`
	Email    *string `json:"email" binding:"omitnil,email"`
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (r *registerReq) normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = normalizeEmail(r.Email)
}

func (r *profileReq) normalize() {
	if r.Username != nil {
		v := strings.TrimSpace(*r.Username)
		r.Username = &v
	}
	if r.Email != nil {
		v := normalizeEmail(*r.Email)
		r.Email = &v
	}
}

// bindNormalized decodes the body and trims it before the binding rules run,
// so length and format checks see the values that get stored.
func bindNormalized(c *gin.Context, req interface{ normalize() }) error {
	if err := json.NewDecoder(c.Request.Body).Decode(req); err != nil {
		return err
	}
	req.normalize()
	return binding.Validator.ValidateStruct(req)
}

func (h *Handler) Register(c *gin.Context) {
	var req registerReq
	if err := bindNormalized(c, &req); err != nil {
		httpx.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		httpx.Error(c, http.StatusInternalServerError, "password hash failed")
		return
	}
	u := models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: hash,
		Role:     models.RoleUser,
		IsActive: true,
	}
	if err := h.users.Create(c.Request.Context(), &u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			httpx.Error(c, http.StatusConflict, "username or email already in use")
			return
		}
		httpx.StoreError(c, err, "user")
		return
	}
	h.respondWithToken(c, http.StatusCreated, u)
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "invalid input")
		return
	}
	ident := strings.TrimSpace(req.Identifier)
	if ident == "" {
		ident = req.Email
	}
	if strings.Contains(ident, "@") {
		ident = normalizeEmail(ident)
	}
	if ident == "" {
		httpx.Error(c, http.StatusBadRequest, "email or username is required")
		return
	}

	u, err := h.users.ByIdentifier(c.Request.Context(), ident)
	if err != nil || !CheckPassword(u.Password, req.Password) {
		httpx.Error(c, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !u.IsActive {
		httpx.Error(c, http.StatusForbidden, "account is deactivated")
		return
	}

	now := time.Now().UTC()
	if err := h.users.TouchLogin(c.Request.Context(), u.ID, now); err != nil {
		log.Printf("record login for %s: %v", u.ID.Hex(), err)
	}
	u.LastLogin = &now
	h.respondWithToken(c, http.StatusOK, u)
}

func (h *Handler) respondWithToken(c *gin.Context, status int, u models.User) {
	token, exp, err := h.tokens.Sign(u.ID.Hex(), u.Role)
	if err != nil {
		httpx.Error(c, http.StatusInternalServerError, "token signing failed")
		return
	}
	c.JSON(status, gin.H{"token": token, "expiresAt": exp, "user": u})
}

func (h *Handler) Me(c *gin.Context) {
	u, err := h.users.ByID(c.Request.Context(), httpx.UserID(c))
	if err != nil {
		httpx.StoreError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req passwordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.CurrentPassword == req.NewPassword {
		httpx.Error(c, http.StatusBadRequest, "new password must differ from the current one")
		return
	}
	ctx := c.Request.Context()
	u, err := h.users.ByID(ctx, httpx.UserID(c))
	if err != nil {
		httpx.StoreError(c, err, "user")
		return
	}
	if !CheckPassword(u.Password, req.CurrentPassword) {
		httpx.Error(c, http.StatusUnauthorized, "current password is incorrect")
		return
	}
	hash, err := HashPassword(req.NewPassword)
	if err != nil {
		httpx.Error(c, http.StatusInternalServerError, "password hash failed")
		return
	}
	if err := h.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		httpx.StoreError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req profileReq
	if err := bindNormalized(c, &req); err != nil {
		httpx.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	upd := users.ProfileUpdate{Username: req.Username, Email: req.Email}
	if upd.Username == nil && upd.Email == nil {
		httpx.Error(c, http.StatusBadRequest, "nothing to update")
		return
	}
	u, err := h.users.UpdateProfile(c.Request.Context(), httpx.UserID(c), upd)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			httpx.Error(c, http.StatusConflict, "username or email already in use")
			return
		}
		httpx.StoreError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) UploadAvatar(c *gin.Context) {
	ctx := c.Request.Context()
	current, err := h.users.ByID(ctx, httpx.UserID(c))
	if err != nil {
		httpx.StoreError(c, err, "user")
		return
	}
	img, err := h.images.Save(c, "image", uploads.KindAvatars)
	if err != nil {
		httpx.UploadError(c, err)
		return
	}
	u, err := h.users.SetProfileImage(ctx, current.ID, img)
	if err != nil {
		h.images.Remove(img)
		httpx.StoreError(c, err, "user")
		return
	}
	h.images.Remove(current.ProfileImage)
	c.JSON(http.StatusOK, u)
}
