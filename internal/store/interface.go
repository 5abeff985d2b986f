package store

import (
	"context"
	"errors"

	"newsroom/internal/model"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidID   = errors.New("invalid id")
	ErrValidation  = errors.New("validation failed")
	ErrUnavailable = errors.New("backend unavailable")
	ErrCorrupt     = errors.New("corrupt document")
	ErrQueueEmpty  = errors.New("queue empty")
)

type ArticleStore interface {
	List(ctx context.Context) ([]model.Article, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Article, error)
	Create(ctx context.Context, article *model.Article) error
	Update(ctx context.Context, id uuid.UUID, patch model.ArticlePatch) (*model.Article, error)
	Delete(ctx context.Context, id uuid.UUID) (*model.Article, error)
}

type AdminStore interface {
	Create(ctx context.Context, admin *model.Admin) error
}

// ImportQueue holds URLs waiting to be turned into articles.
type ImportQueue interface {
	EnqueueImport(ctx context.Context, url string) error
	PopImport(ctx context.Context) (string, error)
}

// ParseID turns a path parameter into an article or admin ID.
func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrInvalidID
	}
	return id, nil
}
