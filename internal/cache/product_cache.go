package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"fsanano/mini-shop/internal/model"
	"fsanano/mini-shop/internal/repository"

	"github.com/redis/go-redis/v9"
)

const (
	notFoundMarker = "notfound"
	// listKeysSet tracks every cached list key so writes can drop them together.
	listKeysSet = "products:lists"
	// generationKey is bumped by every invalidation. A load started under an
	// older generation is not written back.
	generationKey = "products:generation"
)

var errStaleLoad = errors.New("product cache invalidated during load")

// CachedProductRepository is a read-through Redis cache in front of a
// ProductRepository. Writes drop the affected entries once their transaction
// commits.
type CachedProductRepository struct {
	realRepo repository.ProductRepository
	redis    *redis.Client
	ttl      time.Duration
}

func NewCachedProductRepository(realRepo repository.ProductRepository, rdb *redis.Client, ttl time.Duration) *CachedProductRepository {
	return &CachedProductRepository{
		realRepo: realRepo,
		redis:    rdb,
		ttl:      ttl,
	}
}

func productKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

func (c *CachedProductRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	key := productKey(id)

	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if string(data) == notFoundMarker {
			return nil, fmt.Errorf("%w: product %d", model.ErrNotFound, id)
		}
		var product model.Product
		if err := json.Unmarshal(data, &product); err != nil {
			log.Printf("Failed to unmarshal cached product (continuing with DB): %v", err)
			break
		}
		return &product, nil
	case errors.Is(err, redis.Nil):
	default:
		log.Printf("Redis error (continuing with DB): %v", err)
	}

	gen := c.generation(ctx)
	product, err := c.realRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			c.store(ctx, key, gen, []byte(notFoundMarker), false)
		}
		return nil, err
	}

	c.storeJSON(ctx, key, gen, product, false)
	return product, nil
}

// GetForUpdate always goes to the store, the lock matters more than the read.
func (c *CachedProductRepository) GetForUpdate(ctx context.Context, id int64) (*model.Product, error) {
	return c.realRepo.GetForUpdate(ctx, id)
}

func (c *CachedProductRepository) List(ctx context.Context, offset, limit int) ([]model.Product, error) {
	key := fmt.Sprintf("products:all:%d:%d", offset, limit)
	return c.cachedList(ctx, key, func() ([]model.Product, error) {
		return c.realRepo.List(ctx, offset, limit)
	})
}

func (c *CachedProductRepository) ListByCategory(ctx context.Context, categoryID int64) ([]model.Product, error) {
	key := fmt.Sprintf("products:category:%d", categoryID)
	return c.cachedList(ctx, key, func() ([]model.Product, error) {
		return c.realRepo.ListByCategory(ctx, categoryID)
	})
}

// ListBySeller is served uncached; sellers expect to see their own edits at once.
func (c *CachedProductRepository) ListBySeller(ctx context.Context, sellerID int64) ([]model.Product, error) {
	return c.realRepo.ListBySeller(ctx, sellerID)
}

func (c *CachedProductRepository) cachedList(ctx context.Context, key string, load func() ([]model.Product, error)) ([]model.Product, error) {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err == nil {
		var products []model.Product
		if err := json.Unmarshal(data, &products); err == nil {
			return products, nil
		}
		log.Printf("Failed to unmarshal cached products %s (continuing with DB): %v", key, err)
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("Redis error: %v (continuing with DB)", err)
	}

	gen := c.generation(ctx)
	products, err := load()
	if err != nil {
		return nil, err
	}

	c.storeJSON(ctx, key, gen, products, true)
	return products, nil
}

// generation returns the current invalidation counter, or -1 when Redis
// cannot tell, which disables the write-back.
func (c *CachedProductRepository) generation(ctx context.Context) int64 {
	gen, err := c.redis.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		log.Printf("Failed to read product cache generation: %v", err)
		return -1
	}
	return gen
}

func (c *CachedProductRepository) storeJSON(ctx context.Context, key string, gen int64, value any, isList bool) {
	jsonData, err := json.Marshal(value)
	if err != nil {
		log.Printf("Failed to marshal %s: %v", key, err)
		return
	}
	c.store(ctx, key, gen, jsonData, isList)
}

// store writes a loaded value back unless an invalidation ran since the load
// began. WATCH on the generation key closes the gap between check and write.
func (c *CachedProductRepository) store(ctx context.Context, key string, gen int64, data []byte, isList bool) {
	// Uncommitted rows must never reach the cache.
	if repository.InTransaction(ctx) || gen < 0 {
		return
	}

	err := c.redis.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleLoad
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			if isList {
				pipe.SAdd(ctx, listKeysSet, key)
			}
			return nil
		})
		return err
	}, generationKey)

	switch {
	case err == nil, errors.Is(err, errStaleLoad), errors.Is(err, redis.TxFailedErr):
	default:
		log.Printf("Failed to cache %s: %v", key, err)
	}
}

func (c *CachedProductRepository) Create(ctx context.Context, product *model.Product) error {
	if err := c.realRepo.Create(ctx, product); err != nil {
		return err
	}
	c.invalidateAfterCommit(ctx, product.ID)
	return nil
}

func (c *CachedProductRepository) Update(ctx context.Context, product *model.Product) error {
	if err := c.realRepo.Update(ctx, product); err != nil {
		return err
	}
	c.invalidateAfterCommit(ctx, product.ID)
	return nil
}

func (c *CachedProductRepository) Delete(ctx context.Context, id int64) error {
	if err := c.realRepo.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidateAfterCommit(ctx, id)
	return nil
}

func (c *CachedProductRepository) DecrementStock(ctx context.Context, id int64, quantity int) error {
	if err := c.realRepo.DecrementStock(ctx, id, quantity); err != nil {
		return err
	}
	c.invalidateAfterCommit(ctx, id)
	return nil
}

func (c *CachedProductRepository) invalidateAfterCommit(ctx context.Context, id int64) {
	ctx = context.WithoutCancel(ctx)
	repository.AfterCommit(ctx, func() {
		c.invalidate(ctx, id)
	})
}

// invalidate drops the product entry and every cached list. The generation
// is bumped first so loads still in flight cannot write back what was read
// before the change.
func (c *CachedProductRepository) invalidate(ctx context.Context, id int64) {
	if err := c.redis.Incr(ctx, generationKey).Err(); err != nil {
		log.Printf("Failed to bump product cache generation: %v", err)
	}

	keys := []string{productKey(id), listKeysSet}

	lists, err := c.redis.SMembers(ctx, listKeysSet).Result()
	if err != nil {
		log.Printf("Failed to read cached product lists: %v", err)
	}
	keys = append(keys, lists...)

	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		log.Printf("Failed to delete product cache for %d: %v", id, err)
	}
}
