package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/syh52/lexicon-srs/internal/cache"
	"github.com/syh52/lexicon-srs/internal/domain"
	"github.com/syh52/lexicon-srs/internal/store"
)

// CachedCatalog decorates a CatalogProvider with a TTL cache per page.
// The catalog is read-only from the engine's side and changes rarely, so
// a short TTL keeps plan generation off the database on repeat requests
// without a separate invalidation path.
type CachedCatalog struct {
	inner store.CatalogProvider
	pages *cache.Cache[string, []domain.CatalogItem]
}

var _ store.CatalogProvider = (*CachedCatalog)(nil)

// NewCachedCatalog wraps the provider with a page cache living for ttl.
func NewCachedCatalog(inner store.CatalogProvider, ttl time.Duration) *CachedCatalog {
	if inner == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency.
		panic("inner catalog cannot be nil")
	}
	return &CachedCatalog{
		inner: inner,
		pages: cache.New[string, []domain.CatalogItem](ttl),
	}
}

// GetItems implements store.CatalogProvider.
func (c *CachedCatalog) GetItems(ctx context.Context, catalogID string, limit, offset int) ([]domain.CatalogItem, error) {
	key := fmt.Sprintf("%s:%d:%d", catalogID, limit, offset)
	if items, ok := c.pages.Get(key); ok {
		return items, nil
	}
	items, err := c.inner.GetItems(ctx, catalogID, limit, offset)
	if err != nil {
		return nil, err
	}
	c.pages.Set(key, items)
	return items, nil
}
