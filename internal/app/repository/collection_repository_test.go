package repository

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupGormCollectionRepository(t *testing.T) CollectionRepository {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})
	return NewCollectionRepository(testDB)
}

func setupRedisCollectionRepository(t *testing.T) (CollectionRepository, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
	})
	return NewRedisCollectionRepository(client, "test:"), mr
}

func exerciseCollectionRepository(t *testing.T, repo CollectionRepository) {
	ctx := context.Background()

	data, found, err := repo.Load(ctx, "userCarts")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, data)

	require.NoError(t, repo.Save(ctx, "userCarts", []byte(`{"alice":[]}`)))
	data, found, err = repo.Load(ctx, "userCarts")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"alice":[]}`, string(data))

	// overwrite replaces the whole blob
	require.NoError(t, repo.Save(ctx, "userCarts", []byte(`{"bob":[{"id":1,"qty":2}]}`)))
	data, _, err = repo.Load(ctx, "userCarts")
	require.NoError(t, err)
	assert.JSONEq(t, `{"bob":[{"id":1,"qty":2}]}`, string(data))

	// collections are independent
	_, found, err = repo.Load(ctx, "userWishlists")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCollectionRepository_Gorm(t *testing.T) {
	exerciseCollectionRepository(t, setupGormCollectionRepository(t))
}

func TestCollectionRepository_Memory(t *testing.T) {
	exerciseCollectionRepository(t, NewMemoryCollectionRepository())
}

func TestCollectionRepository_Redis(t *testing.T) {
	repo, mr := setupRedisCollectionRepository(t)
	exerciseCollectionRepository(t, repo)

	stored, err := mr.Get("test:collection:userCarts")
	require.NoError(t, err)
	assert.JSONEq(t, `{"bob":[{"id":1,"qty":2}]}`, stored)
}

func TestCollectionRepository_RedisUnavailable(t *testing.T) {
	repo, mr := setupRedisCollectionRepository(t)
	mr.Close()

	_, found, err := repo.Load(context.Background(), "userCarts")
	assert.Error(t, err)
	assert.False(t, found)
	assert.Error(t, repo.Save(context.Background(), "userCarts", []byte(`{}`)))
}

func TestMemoryCollectionRepository_CopiesData(t *testing.T) {
	repo := NewMemoryCollectionRepository()
	ctx := context.Background()

	buf := []byte(`{"a":[]}`)
	require.NoError(t, repo.Save(ctx, "k", buf))
	buf[2] = 'z'

	data, _, err := repo.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":[]}`, string(data))
}
