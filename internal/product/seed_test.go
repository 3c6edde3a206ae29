package product

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Embedded(t *testing.T) {
	items, err := Catalog()
	require.NoError(t, err)
	assert.Len(t, items, 22)

	cats := map[string]bool{}
	for _, p := range items {
		cats[p.Category] = true
		assert.NotEmpty(t, p.Name)
		assert.Regexp(t, `^\d+\.\d{2}$`, p.Price)
	}
	assert.Len(t, cats, 5)
}

func TestSeed_OnlyWhenEmpty(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	n, err := Seed(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, 22, n)

	n, err = Seed(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 22, count)

	items, _, err := repo.List(ctx, Query{Limit: 1})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Laptop Computer", items[0].Name)
}
