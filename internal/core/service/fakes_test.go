package service

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lbn97/ministore/internal/core/domain"
)

// memCache is an in-memory CacheRepository. Setting failErr simulates an
// unreachable cache.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	failErr error
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failErr != nil {
		return false, c.failErr
	}
	data, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failErr != nil {
		return c.failErr
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = data
	return nil
}

func (c *memCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failErr != nil {
		return c.failErr
	}
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *memCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failErr != nil {
		return c.failErr
	}
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// memStore is an in-memory ProductRepository and OrderRepository. Its mutex
// stands in for row-level locks: concurrent order transactions serialize.
type memStore struct {
	mu          sync.Mutex
	products    map[int64]*domain.Product
	categories  []domain.Category
	orders      []domain.Order
	nextID      int64
	searchCalls int
	detailCalls int
}

func newMemStore() *memStore {
	return &memStore{products: make(map[int64]*domain.Product), nextID: 1}
}

func (s *memStore) addProduct(p domain.Product) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.nextID
		s.nextID++
	}
	if p.Status == "" {
		p.Status = domain.ProductStatusActive
	}
	s.products[p.ID] = &p
	return p.ID
}

func (s *memStore) SearchProducts(ctx context.Context, q domain.SearchQuery) ([]domain.Product, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchCalls++

	var matched []domain.Product
	for _, p := range s.products {
		if p.Status != domain.ProductStatusActive {
			continue
		}
		if q.Term != "" && !strings.Contains(p.Name, q.Term) && !strings.Contains(p.Description, q.Term) {
			continue
		}
		if q.Category != 0 && p.CategoryID != q.Category {
			continue
		}
		matched = append(matched, *p)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].SalesCount != matched[j].SalesCount {
			return matched[i].SalesCount > matched[j].SalesCount
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := q.Offset()
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *memStore) GetProductDetail(ctx context.Context, id int64) (*domain.ProductDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detailCalls++

	p, ok := s.products[id]
	if !ok || p.Status != domain.ProductStatusActive {
		return nil, nil
	}
	return &domain.ProductDetail{Product: *p, Reviews: []domain.Review{}}, nil
}

func (s *memStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Category(nil), s.categories...), nil
}

func (s *memStore) ListMerchantProducts(ctx context.Context, merchantID int64, page, limit int) ([]domain.Product, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []domain.Product
	for _, p := range s.products {
		if p.MerchantID == merchantID {
			matched = append(matched, *p)
		}
	}
	return matched, len(matched), nil
}

func (s *memStore) CreateProduct(ctx context.Context, p *domain.Product) error {
	p.ID = s.addProduct(*p)
	return nil
}

func (s *memStore) UpdateProduct(ctx context.Context, id, merchantID int64, patch domain.ProductPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok || p.MerchantID != merchantID {
		return &domain.ProductNotFoundError{ProductID: id}
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	return nil
}

func (s *memStore) DeactivateProduct(ctx context.Context, id, merchantID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok || p.MerchantID != merchantID {
		return &domain.ProductNotFoundError{ProductID: id}
	}
	p.Status = domain.ProductStatusInactive
	return nil
}

// CreateOrder mirrors the transactional semantics of the SQL store: applied
// stock deductions are undone if a later item fails.
func (s *memStore) CreateOrder(ctx context.Context, order *domain.Order, items []domain.OrderItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	type applied struct {
		product *domain.Product
		qty     int
	}
	var undo []applied
	rollback := func() {
		for _, a := range undo {
			a.product.Stock += a.qty
			a.product.SalesCount -= a.qty
		}
	}

	var total float64
	lines := make([]domain.OrderLine, 0, len(items))

	for _, item := range items {
		p, ok := s.products[item.ProductID]
		if !ok {
			rollback()
			return &domain.ProductNotFoundError{ProductID: item.ProductID}
		}
		if p.Stock < item.Quantity {
			rollback()
			return &domain.InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   item.Quantity,
				Available:   p.Stock,
			}
		}

		subtotal := p.Price * float64(item.Quantity)
		total += subtotal
		lines = append(lines, domain.OrderLine{
			ProductID:    p.ID,
			ProductName:  p.Name,
			ProductPrice: p.Price,
			Quantity:     item.Quantity,
			Subtotal:     subtotal,
		})

		p.Stock -= item.Quantity
		p.SalesCount += item.Quantity
		undo = append(undo, applied{product: p, qty: item.Quantity})
	}

	order.ID = int64(len(s.orders) + 1)
	order.TotalAmount = total
	order.ItemCount = len(lines)
	order.Lines = lines
	s.orders = append(s.orders, *order)
	return nil
}

func (s *memStore) ListUserOrders(ctx context.Context, userID int64, status domain.OrderStatus, page, limit int) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []domain.Order
	for _, o := range s.orders {
		if o.UserID != userID {
			continue
		}
		if status != "" && o.Status != status {
			continue
		}
		matched = append(matched, o)
	}
	return matched, nil
}

func (s *memStore) UpdateOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.orders {
		if s.orders[i].ID == orderID {
			s.orders[i].Status = status
			return nil
		}
	}
	return domain.ErrOrderNotFound
}
