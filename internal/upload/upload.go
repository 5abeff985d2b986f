// Package upload streams an optional image file from an incoming form to object
// storage and hands the stored object's URL to the next handler.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultField     = "image"
	DefaultFolder    = "article_images"
	DefaultMaxMemory = 32 << 20

	sniffLen = 512
)

var (
	ErrUnsupportedImage = errors.New("unsupported image format")
	ErrStorage          = errors.New("object storage failure")
	ErrBadForm          = errors.New("malformed form")
)

// AllowedFormats maps accepted content types to the extension used for the object key.
var AllowedFormats = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
}

// ObjectStore saves a blob under key and returns a stable public reference to it.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) (string, error)
}

type ctxKey struct{}

// ImageFromContext returns the reference stored by the Adapter, if a file was uploaded.
func ImageFromContext(ctx context.Context) (string, bool) {
	ref, ok := ctx.Value(ctxKey{}).(string)
	return ref, ok
}

// Adapter is HTTP middleware that uploads the file in Field, if any, before the
// wrapped handler runs.
type Adapter struct {
	store     ObjectStore
	logger    *zap.Logger
	onError   func(http.ResponseWriter, *http.Request, error)
	Field     string
	Folder    string
	MaxMemory int64
}

// NewAdapter wires an Adapter. onError renders failures; it receives errors wrapping
// ErrBadForm, ErrUnsupportedImage or ErrStorage.
func NewAdapter(store ObjectStore, logger *zap.Logger, onError func(http.ResponseWriter, *http.Request, error)) *Adapter {
	return &Adapter{
		store:     store,
		logger:    logger,
		onError:   onError,
		Field:     DefaultField,
		Folder:    DefaultFolder,
		MaxMemory: DefaultMaxMemory,
	}
}

func (a *Adapter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseMultipartForm(a.MaxMemory)
		if errors.Is(err, http.ErrNotMultipart) {
			next.ServeHTTP(w, r)
			return
		} else if err != nil {
			a.onError(w, r, fmt.Errorf("%w: %w", ErrBadForm, err))
			return
		}

		file, header, err := r.FormFile(a.Field)
		if errors.Is(err, http.ErrMissingFile) {
			next.ServeHTTP(w, r)
			return
		} else if err != nil {
			a.onError(w, r, fmt.Errorf("%w: %w", ErrBadForm, err))
			return
		}
		defer file.Close()

		ref, err := a.save(r.Context(), file, header)
		if err != nil {
			a.onError(w, r, err)
			return
		}

		a.logger.Debug("image stored", zap.String("filename", header.Filename), zap.String("ref", ref))
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, ref)))
	})
}

func (a *Adapter) save(ctx context.Context, file multipart.File, header *multipart.FileHeader) (string, error) {
	contentType, err := sniff(file)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBadForm, err)
	}

	ext, ok := AllowedFormats[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s (%s)", ErrUnsupportedImage, contentType, header.Filename)
	}

	key := path.Join(a.Folder, uuid.NewString()+"."+ext)
	ref, err := a.store.Put(ctx, key, file, header.Size, contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return ref, nil
}

// sniff detects the content type from the leading bytes and rewinds the file.
func sniff(file io.ReadSeeker) (string, error) {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(file, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}
