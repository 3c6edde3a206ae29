package product

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/MikeMC777/storefront/internal/cache"
)

// Cache is the subset of cache.RedisCache the catalog needs.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, keys ...string) error
}

const keyCategories = "products:categories"

func productKey(id string) string { return fmt.Sprintf("product:%s", id) }

// CachedRepo is a cache-aside decorator for single-product lookups and the
// category list. Listings go straight to the store because filter
// combinations make poor cache keys. Cache errors never fail a read.
type CachedRepo struct {
	Repository
	cache Cache
}

func NewCachedRepo(repo Repository, c Cache) *CachedRepo {
	return &CachedRepo{Repository: repo, cache: c}
}

func (r *CachedRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	key := productKey(id)

	var p Product
	err := r.cache.Get(ctx, key, &p)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		log.Printf("[cache] get %s: %v", key, err)
	}

	got, err := r.Repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, key, got); err != nil {
		log.Printf("[cache] set %s: %v", key, err)
	}
	return got, nil
}

func (r *CachedRepo) Categories(ctx context.Context) ([]string, error) {
	var cats []string
	err := r.cache.Get(ctx, keyCategories, &cats)
	if err == nil {
		return cats, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		log.Printf("[cache] get %s: %v", keyCategories, err)
	}

	cats, err = r.Repository.Categories(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, keyCategories, cats); err != nil {
		log.Printf("[cache] set %s: %v", keyCategories, err)
	}
	return cats, nil
}

func (r *CachedRepo) Create(ctx context.Context, p *Product) error {
	if err := r.Repository.Create(ctx, p); err != nil {
		return err
	}
	if err := r.cache.Delete(ctx, keyCategories); err != nil {
		log.Printf("[cache] invalidate %s: %v", keyCategories, err)
	}
	return nil
}

// Evict drops cached copies of the given products, e.g. after their stock
// changed.
func (r *CachedRepo) Evict(ctx context.Context, ids ...string) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, productKey(id))
	}
	if err := r.cache.Delete(ctx, keys...); err != nil {
		log.Printf("[cache] evict %v: %v", ids, err)
	}
}
