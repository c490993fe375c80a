// Package storage keeps uploaded product images on local disk.
package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"thekua-api/internal/apperr"

	"github.com/google/uuid"
)

const MaxImageSize = 5 << 20

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

var publicIDRe = regexp.MustCompile(`^[0-9a-f]{32}\.(jpg|png|webp)$`)

// Object is a stored file.
type Object struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// Local stores files in a directory served by the HTTP server under /uploads.
type Local struct {
	dir     string
	baseURL string
}

func NewLocal(dir, baseURL string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	return &Local{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (l *Local) Dir() string { return l.dir }

// SaveImage checks the content is a JPEG, PNG or WebP image of at most
// MaxImageSize bytes and writes it under a random name.
func (l *Local) SaveImage(ctx context.Context, r io.Reader) (*Object, error) {
	br := bufio.NewReaderSize(r, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, err
	}
	ext, ok := allowedTypes[http.DetectContentType(head)]
	if !ok {
		return nil, apperr.Invalid("file", "only jpg, png and webp images are allowed")
	}

	publicID := strings.ReplaceAll(uuid.NewString(), "-", "") + ext
	tmp, err := os.CreateTemp(l.dir, ".upload-*")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(br, MaxImageSize+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	if n > MaxImageSize {
		return nil, apperr.Invalid("file", "image must be 5MB or smaller")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.Rename(tmp.Name(), filepath.Join(l.dir, publicID)); err != nil {
		return nil, err
	}
	return &Object{URL: l.baseURL + "/uploads/" + publicID, PublicID: publicID}, nil
}

// Delete removes a stored file by its public id.
func (l *Local) Delete(_ context.Context, publicID string) error {
	if !publicIDRe.MatchString(publicID) {
		return apperr.Invalid("publicId", "is invalid")
	}
	err := os.Remove(filepath.Join(l.dir, publicID))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("image: %w", apperr.ErrNotFound)
	}
	return err
}
