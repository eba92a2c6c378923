package cache

import (
	"context"
	"sync"
	"time"

	"fsanano/mini-shop/internal/model"
	"fsanano/mini-shop/internal/repository"
)

type cachedCategories struct {
	items  []model.Category
	expiry time.Time
}

// CategoryCache keeps the category list in process memory. Categories change
// rarely and every product page needs them.
type CategoryCache struct {
	realRepo repository.CategoryRepository
	ttl      time.Duration
	now      func() time.Time

	cacheMu   sync.RWMutex
	cacheData *cachedCategories
}

func NewCategoryCache(realRepo repository.CategoryRepository, ttl time.Duration) *CategoryCache {
	return &CategoryCache{
		realRepo: realRepo,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (c *CategoryCache) List(ctx context.Context) ([]model.Category, error) {
	if repository.InTransaction(ctx) {
		return c.realRepo.List(ctx)
	}

	c.cacheMu.RLock()
	data := c.cacheData
	if data != nil && c.now().Before(data.expiry) {
		c.cacheMu.RUnlock()
		return cloneCategories(data.items), nil
	}
	c.cacheMu.RUnlock()

	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	// Double check logic
	data = c.cacheData
	if data != nil && c.now().Before(data.expiry) {
		return cloneCategories(data.items), nil
	}

	items, err := c.realRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	c.cacheData = &cachedCategories{
		items:  items,
		expiry: c.now().Add(c.ttl),
	}
	return cloneCategories(items), nil
}

func (c *CategoryCache) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	return c.realRepo.GetByID(ctx, id)
}

func (c *CategoryCache) Create(ctx context.Context, category *model.Category) error {
	if err := c.realRepo.Create(ctx, category); err != nil {
		return err
	}
	repository.AfterCommit(ctx, c.Invalidate)
	return nil
}

func (c *CategoryCache) Invalidate() {
	c.cacheMu.Lock()
	c.cacheData = nil
	c.cacheMu.Unlock()
}

func cloneCategories(items []model.Category) []model.Category {
	return append([]model.Category{}, items...)
}
