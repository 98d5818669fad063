package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lbn97/ministore/internal/port"
)

// CacheInvalidator removes cache entries made stale by an order or a catalog
// mutation. Detail pages are deleted by exact key; search listings depend on
// arbitrary query shapes, so they are cleared by prefix. Every operation is
// best-effort: a down cache means staleness up to the TTL, never a failure
// of the triggering operation.
type CacheInvalidator struct {
	cache  port.CacheRepository
	logger zerolog.Logger
}

func NewCacheInvalidator(cache port.CacheRepository, logger zerolog.Logger) *CacheInvalidator {
	return &CacheInvalidator{cache: cache, logger: logger}
}

// InvalidateProducts drops the detail entry of each product and every search
// listing entry.
func (i *CacheInvalidator) InvalidateProducts(ctx context.Context, productIDs ...int64) {
	keys := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		keys = append(keys, detailKey(id))
	}

	if err := i.cache.Delete(ctx, keys...); err != nil {
		i.logger.Warn().Err(err).Ints64("product_ids", productIDs).Msg("detail cache invalidation skipped")
	}

	i.InvalidateSearch(ctx)
}

// InvalidateSearch drops every search listing entry.
func (i *CacheInvalidator) InvalidateSearch(ctx context.Context) {
	if err := i.cache.DeleteByPrefix(ctx, searchKeyPrefix); err != nil {
		i.logger.Warn().Err(err).Msg("search cache invalidation skipped")
	}
}

// InvalidateCategories drops the category listing entry.
func (i *CacheInvalidator) InvalidateCategories(ctx context.Context) {
	if err := i.cache.Delete(ctx, categoriesKey); err != nil {
		i.logger.Warn().Err(err).Msg("category cache invalidation skipped")
	}
}
