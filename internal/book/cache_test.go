package book

import (
	"context"
	"os"
	"testing"
	"time"

	"bookcatalog/internal/platform/logger"

	"github.com/go-redis/redis/v8"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCachedRepository_FallsThroughWhenRedisIsDown(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := NewMockRepository(ctrl)
	repo := NewCachedRepository(inner, unreachableRedis(t), time.Minute, logger.Discard())
	ctx := context.Background()

	inner.EXPECT().GetByID(gomock.Any(), int64(1)).Return(testBook, nil)
	got, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, testBook, got)

	inner.EXPECT().Create(gomock.Any(), gomock.Any()).Return(testBook, nil)
	_, err = repo.Create(ctx, Input{Title: "Dune", Author: "Frank Herbert"})
	require.NoError(t, err)

	inner.EXPECT().Delete(gomock.Any(), int64(1)).Return(nil)
	require.NoError(t, repo.Delete(ctx, 1))

	inner.EXPECT().GetByID(gomock.Any(), int64(2)).Return(Book{}, ErrNotFound)
	_, err = repo.GetByID(ctx, 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/15"
	}
	client, err := NewRedisClient(context.Background(), url)
	if err != nil {
		t.Skipf("Skipping test: cannot connect to test redis: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCachedRepository_ReadThrough(t *testing.T) {
	client := setupTestRedis(t)
	ctrl := gomock.NewController(t)
	inner := NewMockRepository(ctrl)
	repo := NewCachedRepository(inner, client, time.Minute, logger.Discard())
	ctx := context.Background()

	b := Book{ID: 900001, Title: "Cached", Author: "Someone"}
	require.NoError(t, client.Del(ctx, cacheKey(b.ID), versionKey(b.ID)).Err())
	t.Cleanup(func() { client.Del(context.Background(), cacheKey(b.ID), versionKey(b.ID)) })

	inner.EXPECT().GetByID(gomock.Any(), b.ID).Return(b, nil).Times(1)

	first, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b, first)
	assert.Equal(t, b, second)

	ttl, err := client.TTL(ctx, cacheKey(b.ID)).Result()
	require.NoError(t, err)
	assert.Positive(t, ttl)
}

func TestCachedRepository_UpdateAndDeleteKeepCacheCoherent(t *testing.T) {
	client := setupTestRedis(t)
	ctrl := gomock.NewController(t)
	inner := NewMockRepository(ctrl)
	repo := NewCachedRepository(inner, client, time.Minute, logger.Discard())
	ctx := context.Background()

	b := Book{ID: 900002, Title: "Before", Author: "A"}
	after := Book{ID: b.ID, Title: "After", Author: "A"}
	t.Cleanup(func() { client.Del(context.Background(), cacheKey(b.ID), versionKey(b.ID)) })

	inner.EXPECT().GetByID(gomock.Any(), b.ID).Return(b, nil)
	_, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)

	inner.EXPECT().Update(gomock.Any(), b.ID, gomock.Any()).Return(after, nil)
	_, err = repo.Update(ctx, b.ID, Input{Title: "After", Author: "A"})
	require.NoError(t, err)

	inner.EXPECT().GetByID(gomock.Any(), b.ID).Return(after, nil).Times(1)
	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, after, got)
	got, err = repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, after, got)

	inner.EXPECT().Delete(gomock.Any(), b.ID).Return(nil)
	require.NoError(t, repo.Delete(ctx, b.ID))

	exists, err := client.Exists(ctx, cacheKey(b.ID)).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	inner.EXPECT().GetByID(gomock.Any(), b.ID).Return(Book{}, ErrNotFound)
	_, err = repo.GetByID(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachedRepository_ReadRacingDeleteDoesNotRefill(t *testing.T) {
	client := setupTestRedis(t)
	ctrl := gomock.NewController(t)
	inner := NewMockRepository(ctrl)
	repo := NewCachedRepository(inner, client, time.Minute, logger.Discard())
	ctx := context.Background()

	b := Book{ID: 900003, Title: "Doomed", Author: "A"}
	require.NoError(t, client.Del(ctx, cacheKey(b.ID), versionKey(b.ID)).Err())
	t.Cleanup(func() { client.Del(context.Background(), cacheKey(b.ID), versionKey(b.ID)) })

	// The row is read, then deleted before the reader gets to fill the cache.
	inner.EXPECT().Delete(gomock.Any(), b.ID).Return(nil)
	inner.EXPECT().GetByID(gomock.Any(), b.ID).DoAndReturn(func(ctx context.Context, id int64) (Book, error) {
		require.NoError(t, repo.Delete(ctx, id))
		return b, nil
	})

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b, got)

	exists, err := client.Exists(ctx, cacheKey(b.ID)).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	inner.EXPECT().GetByID(gomock.Any(), b.ID).Return(Book{}, ErrNotFound)
	_, err = repo.GetByID(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachedRepository_ReadRacingUpdateDoesNotCacheStaleRow(t *testing.T) {
	client := setupTestRedis(t)
	ctrl := gomock.NewController(t)
	inner := NewMockRepository(ctrl)
	repo := NewCachedRepository(inner, client, time.Minute, logger.Discard())
	ctx := context.Background()

	before := Book{ID: 900004, Title: "Before", Author: "A"}
	after := Book{ID: before.ID, Title: "After", Author: "A"}
	require.NoError(t, client.Del(ctx, cacheKey(before.ID), versionKey(before.ID)).Err())
	t.Cleanup(func() { client.Del(context.Background(), cacheKey(before.ID), versionKey(before.ID)) })

	inner.EXPECT().Update(gomock.Any(), before.ID, gomock.Any()).Return(after, nil)
	inner.EXPECT().GetByID(gomock.Any(), before.ID).DoAndReturn(func(ctx context.Context, id int64) (Book, error) {
		_, err := repo.Update(ctx, id, Input{Title: "After", Author: "A"})
		require.NoError(t, err)
		return before, nil
	})

	got, err := repo.GetByID(ctx, before.ID)
	require.NoError(t, err)
	assert.Equal(t, before, got)

	inner.EXPECT().GetByID(gomock.Any(), before.ID).Return(after, nil)
	got, err = repo.GetByID(ctx, before.ID)
	require.NoError(t, err)
	assert.Equal(t, after, got)
}
