package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/lbn97/ministore/internal/core/domain"
)

const (
	searchKeyPrefix = "products:search:"
	detailKeyPrefix = "product:"
	categoriesKey   = "categories:all"

	searchTTL     = time.Hour
	detailTTL     = 30 * time.Minute
	categoriesTTL = 24 * time.Hour
)

// searchKey derives the cache key for a normalized search query. Identical
// inputs always map to the identical key; the category sentinel "all" keeps
// unfiltered and category-filtered queries apart.
func searchKey(q domain.SearchQuery) string {
	category := "all"
	if q.Category != 0 {
		category = strconv.FormatInt(q.Category, 10)
	}
	return fmt.Sprintf("%s%s:%s:%d:%d", searchKeyPrefix, q.Term, category, q.Page, q.Limit)
}

func detailKey(productID int64) string {
	return detailKeyPrefix + strconv.FormatInt(productID, 10)
}
