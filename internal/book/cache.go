package book

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	cacheKeyPrefix = "book:"
	// versionTTL bounds how long a per-book write counter outlives its last write.
	versionTTL = 24 * time.Hour
)

// CachedRepository puts a Redis read-through cache in front of another
// Repository. Redis errors are logged and never fail a request.
//
// Every Update and Delete bumps a per-book version counter and drops the
// entry. A read only fills the cache if the counter it saw before querying
// the inner repository is still current, so a fill that raced a write is
// discarded instead of resurrecting the old row.
type CachedRepository struct {
	next  Repository
	redis *redis.Client
	ttl   time.Duration
	log   logrus.FieldLogger
}

func NewCachedRepository(next Repository, client *redis.Client, ttl time.Duration, log logrus.FieldLogger) *CachedRepository {
	return &CachedRepository{next: next, redis: client, ttl: ttl, log: log}
}

func cacheKey(id int64) string {
	return cacheKeyPrefix + strconv.FormatInt(id, 10)
}

func versionKey(id int64) string {
	return cacheKey(id) + ":v"
}

func (c *CachedRepository) Create(ctx context.Context, in Input) (Book, error) {
	b, err := c.next.Create(ctx, in)
	if err != nil {
		return Book{}, err
	}
	c.store(ctx, b)
	return b, nil
}

func (c *CachedRepository) Update(ctx context.Context, id int64, in Input) (Book, error) {
	b, err := c.next.Update(ctx, id, in)
	if err == nil || errors.Is(err, ErrNotFound) {
		c.invalidate(ctx, id)
	}
	if err != nil {
		return Book{}, err
	}
	return b, nil
}

func (c *CachedRepository) Delete(ctx context.Context, id int64) error {
	err := c.next.Delete(ctx, id)
	if err == nil || errors.Is(err, ErrNotFound) {
		c.invalidate(ctx, id)
	}
	return err
}

func (c *CachedRepository) GetByID(ctx context.Context, id int64) (Book, error) {
	raw, err := c.redis.Get(ctx, cacheKey(id)).Bytes()
	switch {
	case err == nil:
		var b Book
		if jsonErr := json.Unmarshal(raw, &b); jsonErr == nil {
			return b, nil
		}
		c.log.WithField("book_id", id).Warn("discarding undecodable cache entry")
	case errors.Is(err, redis.Nil):
	default:
		c.log.WithError(err).WithField("book_id", id).Warn("book cache read failed")
	}

	seen, verErr := c.version(ctx, id)

	b, err := c.next.GetByID(ctx, id)
	if err != nil {
		return Book{}, err
	}
	if verErr == nil {
		c.fill(ctx, b, seen)
	}
	return b, nil
}

// List always reads from the inner repository.
func (c *CachedRepository) List(ctx context.Context) ([]Book, error) {
	return c.next.List(ctx)
}

func (c *CachedRepository) store(ctx context.Context, b Book) {
	raw, err := json.Marshal(b)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, cacheKey(b.ID), raw, c.ttl).Err(); err != nil {
		c.log.WithError(err).WithField("book_id", b.ID).Warn("book cache write failed")
	}
}

// version returns the write counter of a book, "" if it was never written.
func (c *CachedRepository) version(ctx context.Context, id int64) (string, error) {
	v, err := c.redis.Get(ctx, versionKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		c.log.WithError(err).WithField("book_id", id).Warn("book cache version read failed")
		return "", err
	}
	return v, nil
}

// fill stores b unless the book was written since its version was seen.
func (c *CachedRepository) fill(ctx context.Context, b Book, seen string) {
	raw, err := json.Marshal(b)
	if err != nil {
		return
	}

	vkey := versionKey(b.ID)
	err = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vkey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != seen {
			return redis.TxFailedErr
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, cacheKey(b.ID), raw, c.ttl)
			return nil
		})
		return err
	}, vkey)

	switch {
	case err == nil:
	case errors.Is(err, redis.TxFailedErr):
		c.log.WithField("book_id", b.ID).Debug("skipping cache fill raced by a write")
	default:
		c.log.WithError(err).WithField("book_id", b.ID).Warn("book cache write failed")
	}
}

func (c *CachedRepository) invalidate(ctx context.Context, id int64) {
	vkey := versionKey(id)
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, vkey)
		pipe.Expire(ctx, vkey, versionTTL)
		pipe.Del(ctx, cacheKey(id))
		return nil
	})
	if err != nil {
		c.log.WithError(err).WithField("book_id", id).Warn("book cache evict failed")
	}
}

// NewRedisClient parses url and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
