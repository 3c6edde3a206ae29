package product

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/storefront/internal/cache"
)

// mapCache stores JSON like RedisCache does.
type mapCache struct {
	data map[string][]byte
	gets int
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (m *mapCache) Get(_ context.Context, key string, dest any) error {
	m.gets++
	b, ok := m.data[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(b, dest)
}

func (m *mapCache) Set(_ context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = b
	return nil
}

func (m *mapCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func TestCachedRepo_GetByID_CachesAndEvicts(t *testing.T) {
	base := newSQLiteRepo(t)
	fx := seedFixture(t, base)
	c := newMapCache()
	repo := NewCachedRepo(base, c)
	ctx := context.Background()
	id := fx["Mouse Pro"].ID

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)
	assert.Contains(t, c.data, productKey(id))

	// change the row behind the cache
	_, err = base.db.Exec(`UPDATE products SET stock = 1 WHERE id = ?`, id)
	require.NoError(t, err)

	got, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock, "served from cache")

	repo.Evict(ctx, id)
	got, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)
}

func TestCachedRepo_NotFoundIsNotCached(t *testing.T) {
	c := newMapCache()
	repo := NewCachedRepo(newSQLiteRepo(t), c)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, c.data)
}

func TestCachedRepo_CategoriesInvalidatedOnCreate(t *testing.T) {
	base := newSQLiteRepo(t)
	seedFixture(t, base)
	repo := NewCachedRepo(base, newMapCache())
	ctx := context.Background()

	cats, err := repo.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 3)

	require.NoError(t, repo.Create(ctx, &Product{Name: "Yoga Mat", Price: "34.99", Stock: 60, Category: "Sports"}))

	cats, err = repo.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Books", "Clothing", "Electronics", "Sports"}, cats)
}
