package uploads

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	KindProducts = "products"
	KindAvatars  = "avatars"
)

var (
	ErrNoFile   = errors.New("image file is required")
	ErrTooLarge = errors.New("image is too large")
	ErrBadType  = errors.New("image must be jpg, png, gif or webp")
)

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Store writes uploaded images under dir and exposes them under urlPrefix.
type Store struct {
	dir       string
	urlPrefix string
	maxBytes  int64
}

func New(dir, urlPrefix string, maxBytes int64) (*Store, error) {
	for _, kind := range []string{KindProducts, KindAvatars} {
		if err := os.MkdirAll(filepath.Join(dir, kind), 0o755); err != nil {
			return nil, err
		}
	}
	return &Store{dir: dir, urlPrefix: strings.TrimRight(urlPrefix, "/"), maxBytes: maxBytes}, nil
}

// Save stores the multipart file in form field and returns its public path.
func (s *Store) Save(c *gin.Context, field, kind string) (string, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBytes+1<<20)
	fh, err := c.FormFile(field)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return "", ErrTooLarge
		}
		return "", ErrNoFile
	}
	if fh.Size > s.maxBytes {
		return "", ErrTooLarge
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExt[ext] {
		return "", ErrBadType
	}

	name := uuid.NewString() + ext
	if err := c.SaveUploadedFile(fh, filepath.Join(s.dir, kind, name)); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	return path.Join(s.urlPrefix, kind, name), nil
}

// Remove deletes a previously saved image. Failures are logged, not returned.
func (s *Store) Remove(publicPath string) {
	if publicPath == "" || !strings.HasPrefix(publicPath, s.urlPrefix+"/") {
		return
	}
	rel := strings.TrimPrefix(publicPath, s.urlPrefix+"/")
	kind, name := path.Split(rel)
	kind = strings.Trim(kind, "/")
	if kind != KindProducts && kind != KindAvatars || name != filepath.Base(name) {
		return
	}
	if err := os.Remove(filepath.Join(s.dir, kind, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("remove image %s: %v", publicPath, err)
	}
}
