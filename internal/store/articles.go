package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"newsroom/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	articleIndexKey = "articles:index"
	importQueueKey  = "queue:import"

	// popTimeout bounds a single BRPOP so a cancelled worker notices quickly.
	popTimeout = time.Second
)

func articleKey(id uuid.UUID) string {
	return fmt.Sprintf("article:%s", id)
}

// RedisArticleStore keeps each article as a JSON document plus an insertion-ordered index.
type RedisArticleStore struct {
	rdb *redis.Client
}

// NewRedisArticleStore builds a client from a redis:// URL. It does not dial; use Ping.
func NewRedisArticleStore(url string) (*RedisArticleStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse articles db url: %w", err)
	}
	return &RedisArticleStore{rdb: redis.NewClient(opts)}, nil
}

// Ping checks connectivity.
func (s *RedisArticleStore) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// Close cleans up connections
func (s *RedisArticleStore) Close() {
	if s.rdb != nil {
		s.rdb.Close()
	}
}

// List returns every article in insertion order.
func (s *RedisArticleStore) List(ctx context.Context) ([]model.Article, error) {
	ids, err := s.rdb.LRange(ctx, articleIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list articles: %w: %w", ErrUnavailable, err)
	}

	articles := make([]model.Article, 0, len(ids))
	if len(ids) == 0 {
		return articles, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = "article:" + id
	}

	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list articles: %w: %w", ErrUnavailable, err)
	}

	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// Index entry outlived its document.
			continue
		}
		var a model.Article
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			return nil, fmt.Errorf("decode %s: %w: %w", keys[i], ErrCorrupt, err)
		}
		articles = append(articles, a)
	}

	return articles, nil
}

func (s *RedisArticleStore) Get(ctx context.Context, id uuid.UUID) (*model.Article, error) {
	val, err := s.rdb.Get(ctx, articleKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("get article: %w: %w", ErrUnavailable, err)
	}

	return decodeArticle(val)
}

// Create assigns the ID and timestamp when missing and writes document and index atomically.
func (s *RedisArticleStore) Create(ctx context.Context, article *model.Article) error {
	if article.ID == uuid.Nil {
		article.ID = uuid.New()
	}
	if article.Timestamp.IsZero() {
		article.Timestamp = time.Now().UTC().Truncate(time.Millisecond)
	}

	data, err := json.Marshal(article)
	if err != nil {
		return err
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, articleKey(article.ID), data, 0)
		pipe.RPush(ctx, articleIndexKey, article.ID.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("create article: %w: %w", ErrUnavailable, err)
	}

	return nil
}

// Update applies patch to the stored document. The write only lands if the
// document still exists, so a concurrent delete is not undone.
func (s *RedisArticleStore) Update(ctx context.Context, id uuid.UUID, patch model.ArticlePatch) (*model.Article, error) {
	article, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	article.Apply(patch)

	data, err := json.Marshal(article)
	if err != nil {
		return nil, err
	}

	ok, err := s.rdb.SetXX(ctx, articleKey(id), data, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("update article: %w: %w", ErrUnavailable, err)
	}
	if !ok {
		return nil, ErrNotFound
	}

	return article, nil
}

// Delete removes the document and its index entry and returns what was removed.
func (s *RedisArticleStore) Delete(ctx context.Context, id uuid.UUID) (*model.Article, error) {
	var removed *redis.StringCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.GetDel(ctx, articleKey(id))
		pipe.LRem(ctx, articleIndexKey, 0, id.String())
		return nil
	})

	if removed != nil && errors.Is(removed.Err(), redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete article: %w: %w", ErrUnavailable, err)
	}

	val, err := removed.Bytes()
	if err != nil {
		return nil, fmt.Errorf("delete article: %w: %w", ErrUnavailable, err)
	}

	return decodeArticle(val)
}

// EnqueueImport pushes a URL for the import worker.
func (s *RedisArticleStore) EnqueueImport(ctx context.Context, url string) error {
	if err := s.rdb.LPush(ctx, importQueueKey, url).Err(); err != nil {
		return fmt.Errorf("enqueue import: %w: %w", ErrUnavailable, err)
	}
	return nil
}

// PopImport waits up to popTimeout for a queued URL. ErrQueueEmpty means nothing arrived.
func (s *RedisArticleStore) PopImport(ctx context.Context) (string, error) {
	result, err := s.rdb.BRPop(ctx, popTimeout, importQueueKey).Result()
	if err == redis.Nil {
		return "", ErrQueueEmpty
	} else if err != nil {
		return "", err
	}

	return result[1], nil
}

func decodeArticle(val []byte) (*model.Article, error) {
	var article model.Article
	if err := json.Unmarshal(val, &article); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return &article, nil
}

// UnavailableArticleStore stands in when the articles database could not be set up.
type UnavailableArticleStore struct {
	Err error
}

func (s UnavailableArticleStore) List(context.Context) ([]model.Article, error) {
	return nil, fmt.Errorf("list articles: %w: %w", ErrUnavailable, s.Err)
}

func (s UnavailableArticleStore) Get(context.Context, uuid.UUID) (*model.Article, error) {
	return nil, fmt.Errorf("get article: %w: %w", ErrUnavailable, s.Err)
}

func (s UnavailableArticleStore) Create(context.Context, *model.Article) error {
	return fmt.Errorf("create article: %w: %w", ErrUnavailable, s.Err)
}

func (s UnavailableArticleStore) Update(context.Context, uuid.UUID, model.ArticlePatch) (*model.Article, error) {
	return nil, fmt.Errorf("update article: %w: %w", ErrUnavailable, s.Err)
}

func (s UnavailableArticleStore) Delete(context.Context, uuid.UUID) (*model.Article, error) {
	return nil, fmt.Errorf("delete article: %w: %w", ErrUnavailable, s.Err)
}

type redisLogger struct {
	logger *zap.SugaredLogger
}

func (l redisLogger) Printf(_ context.Context, format string, v ...interface{}) {
	l.logger.Warnf(format, v...)
}

// SetRedisLogger sends go-redis' internal messages (pool dial failures and the
// like) to logger instead of the standard log package. It is process-wide.
func SetRedisLogger(logger *zap.Logger) {
	redis.SetLogger(redisLogger{logger: logger.Named("redis").Sugar()})
}
