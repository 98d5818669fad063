package service

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"github.com/lbn97/ministore/internal/core/domain"
	"github.com/lbn97/ministore/internal/metrics"
	"github.com/lbn97/ministore/internal/port"
)

// CatalogService serves product search, detail and category reads through a
// cache-aside path, and applies merchant catalog mutations. The cache is a
// performance hint only: every read stays correct with the cache down.
type CatalogService struct {
	products    port.ProductRepository
	cache       port.CacheRepository
	invalidator *CacheInvalidator
	logger      zerolog.Logger
}

func NewCatalogService(products port.ProductRepository, cache port.CacheRepository, invalidator *CacheInvalidator, logger zerolog.Logger) *CatalogService {
	return &CatalogService{
		products:    products,
		cache:       cache,
		invalidator: invalidator,
		logger:      logger,
	}
}

// Search returns one page of active products. The bool reports whether the
// result came from the cache.
func (s *CatalogService) Search(ctx context.Context, q domain.SearchQuery) (*domain.SearchResult, bool, error) {
	q = q.Normalize()
	key := searchKey(q)

	var cached domain.SearchResult
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache read failed, falling back to database")
	}
	if hit {
		metrics.CacheHits.WithLabelValues("search").Inc()
		return &cached, true, nil
	}
	metrics.CacheMisses.WithLabelValues("search").Inc()

	products, total, err := s.products.SearchProducts(ctx, q)
	if err != nil {
		return nil, false, err
	}
	if products == nil {
		products = []domain.Product{}
	}

	result := &domain.SearchResult{
		Products: products,
		Pagination: domain.Pagination{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      total,
			TotalPages: int(math.Ceil(float64(total) / float64(q.Limit))),
		},
	}

	if err := s.cache.Set(ctx, key, result, searchTTL); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}

	return result, false, nil
}

// GetDetail returns an active product with its latest reviews.
func (s *CatalogService) GetDetail(ctx context.Context, productID int64) (*domain.ProductDetail, bool, error) {
	key := detailKey(productID)

	var cached domain.ProductDetail
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache read failed, falling back to database")
	}
	if hit {
		metrics.CacheHits.WithLabelValues("detail").Inc()
		return &cached, true, nil
	}
	metrics.CacheMisses.WithLabelValues("detail").Inc()

	detail, err := s.products.GetProductDetail(ctx, productID)
	if err != nil {
		return nil, false, err
	}
	if detail == nil {
		// Misses for absent or inactive ids are not cached; every request
		// for such an id reaches the database.
		return nil, false, &domain.ProductNotFoundError{ProductID: productID}
	}

	if err := s.cache.Set(ctx, key, detail, detailTTL); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}

	return detail, false, nil
}

// ListCategories returns every category, cached for a day.
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, bool, error) {
	var cached []domain.Category
	hit, err := s.cache.Get(ctx, categoriesKey, &cached)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", categoriesKey).Msg("cache read failed, falling back to database")
	}
	if hit {
		metrics.CacheHits.WithLabelValues("categories").Inc()
		return cached, true, nil
	}
	metrics.CacheMisses.WithLabelValues("categories").Inc()

	categories, err := s.products.ListCategories(ctx)
	if err != nil {
		return nil, false, err
	}
	if categories == nil {
		categories = []domain.Category{}
	}

	if err := s.cache.Set(ctx, categoriesKey, categories, categoriesTTL); err != nil {
		s.logger.Warn().Err(err).Str("key", categoriesKey).Msg("cache write failed")
	}

	return categories, false, nil
}

// ListMerchantProducts returns a merchant's own products, any status,
// bypassing the cache.
func (s *CatalogService) ListMerchantProducts(ctx context.Context, merchantID int64, page, limit int) ([]domain.Product, int, error) {
	if merchantID == 0 {
		return nil, 0, &domain.ValidationError{Reason: "merchant id is required"}
	}
	return s.products.ListMerchantProducts(ctx, merchantID, page, limit)
}

// CreateProduct inserts a product and drops stale search listings.
func (s *CatalogService) CreateProduct(ctx context.Context, p *domain.Product) error {
	if p.MerchantID == 0 || p.Name == "" || p.Price <= 0 {
		return &domain.ValidationError{Reason: "merchant id, name and price are required"}
	}

	if err := s.products.CreateProduct(ctx, p); err != nil {
		return err
	}

	s.invalidator.InvalidateSearch(ctx)
	return nil
}

// UpdateProduct applies a partial update after an ownership check, then
// drops the product's detail entry and all search listings.
func (s *CatalogService) UpdateProduct(ctx context.Context, id, merchantID int64, patch domain.ProductPatch) error {
	if merchantID == 0 {
		return &domain.ValidationError{Reason: "merchant id is required"}
	}
	if patch.Status != nil && *patch.Status != domain.ProductStatusActive && *patch.Status != domain.ProductStatusInactive {
		return &domain.ValidationError{Reason: "invalid product status"}
	}

	if err := s.products.UpdateProduct(ctx, id, merchantID, patch); err != nil {
		return err
	}

	s.invalidator.InvalidateProducts(ctx, id)
	return nil
}

// DeactivateProduct soft-deletes a product; the row persists for order
// history but leaves the listing surface.
func (s *CatalogService) DeactivateProduct(ctx context.Context, id, merchantID int64) error {
	if merchantID == 0 {
		return &domain.ValidationError{Reason: "merchant id is required"}
	}

	if err := s.products.DeactivateProduct(ctx, id, merchantID); err != nil {
		return err
	}

	s.invalidator.InvalidateProducts(ctx, id)
	return nil
}
