package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lbn97/ministore/internal/core/domain"
)

type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

// searchPredicate builds the shared filter clause so the row query and the
// count query always agree.
func searchPredicate(q domain.SearchQuery, alias string) (string, []interface{}) {
	var sb strings.Builder
	var args []interface{}

	fmt.Fprintf(&sb, "%s.status = ?", alias)
	args = append(args, domain.ProductStatusActive)

	if q.Term != "" {
		pattern := "%" + q.Term + "%"
		fmt.Fprintf(&sb, " AND (%s.name LIKE ? OR %s.description LIKE ?)", alias, alias)
		args = append(args, pattern, pattern)
	}
	if q.Category != 0 {
		fmt.Fprintf(&sb, " AND %s.category_id = ?", alias)
		args = append(args, q.Category)
	}

	return sb.String(), args
}

func (m *MySQLStore) SearchProducts(ctx context.Context, q domain.SearchQuery) ([]domain.Product, int, error) {
	where, args := searchPredicate(q, "p")

	query := fmt.Sprintf(`
		SELECT p.id, p.merchant_id, p.category_id, p.name, p.description, p.price,
		       p.original_price, p.stock, p.image_url, p.sales_count, p.status,
		       COALESCE(c.name, ''), p.created_at
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE %s
		ORDER BY p.sales_count DESC, p.created_at DESC
		LIMIT ? OFFSET ?`, where)

	rows, err := m.db.QueryContext(ctx, query, append(args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate products: %w", err)
	}

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM products p
		WHERE %s`, where)

	var total int
	if err := m.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	return products, total, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	var description, imageURL sql.NullString
	var originalPrice sql.NullFloat64

	err := row.Scan(&p.ID, &p.MerchantID, &p.CategoryID, &p.Name, &description,
		&p.Price, &originalPrice, &p.Stock, &imageURL, &p.SalesCount, &p.Status,
		&p.CategoryName, &p.CreatedAt)
	if err != nil {
		return domain.Product{}, err
	}

	p.Description = description.String
	p.ImageURL = imageURL.String
	if originalPrice.Valid {
		v := originalPrice.Float64
		p.OriginalPrice = &v
	}
	return p, nil
}

func (m *MySQLStore) GetProductDetail(ctx context.Context, id int64) (*domain.ProductDetail, error) {
	var detail domain.ProductDetail
	var description, imageURL, merchantName sql.NullString
	var originalPrice sql.NullFloat64

	err := m.db.QueryRowContext(ctx, `
		SELECT p.id, p.merchant_id, p.category_id, p.name, p.description, p.price,
		       p.original_price, p.stock, p.image_url, p.sales_count, p.status,
		       COALESCE(c.name, ''), p.created_at, u.name
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id
		LEFT JOIN users u ON p.merchant_id = u.id
		WHERE p.id = ? AND p.status = ?`, id, domain.ProductStatusActive,
	).Scan(&detail.Product.ID, &detail.Product.MerchantID, &detail.Product.CategoryID,
		&detail.Product.Name, &description, &detail.Product.Price, &originalPrice,
		&detail.Product.Stock, &imageURL, &detail.Product.SalesCount,
		&detail.Product.Status, &detail.Product.CategoryName,
		&detail.Product.CreatedAt, &merchantName)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product detail: %w", err)
	}

	detail.Product.Description = description.String
	detail.Product.ImageURL = imageURL.String
	if originalPrice.Valid {
		v := originalPrice.Float64
		detail.Product.OriginalPrice = &v
	}
	detail.MerchantName = merchantName.String

	rows, err := m.db.QueryContext(ctx, `
		SELECT r.id, r.product_id, r.user_id, COALESCE(u.name, ''), r.rating,
		       r.content, r.created_at
		FROM product_reviews r
		LEFT JOIN users u ON r.user_id = u.id
		WHERE r.product_id = ?
		ORDER BY r.created_at DESC
		LIMIT 10`, id)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	detail.Reviews = []domain.Review{}
	for rows.Next() {
		var r domain.Review
		var content sql.NullString
		if err := rows.Scan(&r.ID, &r.ProductID, &r.UserID, &r.UserName,
			&r.Rating, &content, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		r.Content = content.String
		detail.Reviews = append(detail.Reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}

	return &detail, nil
}

func (m *MySQLStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, parent_id, COALESCE(description, ''), sort_order
		FROM categories
		ORDER BY sort_order ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		var parentID sql.NullInt64
		if err := rows.Scan(&c.ID, &c.Name, &parentID, &c.Description, &c.SortOrder); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		if parentID.Valid {
			v := parentID.Int64
			c.ParentID = &v
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	return categories, nil
}

func (m *MySQLStore) ListMerchantProducts(ctx context.Context, merchantID int64, page, limit int) ([]domain.Product, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT p.id, p.merchant_id, p.category_id, p.name, p.description, p.price,
		       p.original_price, p.stock, p.image_url, p.sales_count, p.status,
		       COALESCE(c.name, ''), p.created_at
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE p.merchant_id = ?
		ORDER BY p.created_at DESC
		LIMIT ? OFFSET ?`, merchantID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("query merchant products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate products: %w", err)
	}

	var total int
	err = m.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE merchant_id = ?`, merchantID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count merchant products: %w", err)
	}

	return products, total, nil
}

func (m *MySQLStore) CreateProduct(ctx context.Context, p *domain.Product) error {
	if p.Status == "" {
		p.Status = domain.ProductStatusActive
	}

	result, err := m.db.ExecContext(ctx, `
		INSERT INTO products (merchant_id, category_id, name, description, price,
		                      original_price, stock, image_url, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.MerchantID, p.CategoryID, p.Name, p.Description, p.Price,
		p.OriginalPrice, p.Stock, p.ImageURL, p.Status,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	p.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert product id: %w", err)
	}
	return nil
}

// productExists reports whether the merchant owns the product. The mutations
// below cannot rely on RowsAffected for this: the driver reports changed
// rows, not matched rows, so a no-op update would look like a missing row.
func (m *MySQLStore) productExists(ctx context.Context, id, merchantID int64) error {
	var found int64
	err := m.db.QueryRowContext(ctx,
		`SELECT id FROM products WHERE id = ? AND merchant_id = ?`, id, merchantID,
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.ProductNotFoundError{ProductID: id}
	}
	if err != nil {
		return fmt.Errorf("find product: %w", err)
	}
	return nil
}

func (m *MySQLStore) UpdateProduct(ctx context.Context, id, merchantID int64, patch domain.ProductPatch) error {
	if err := m.productExists(ctx, id, merchantID); err != nil {
		return err
	}

	_, err := m.db.ExecContext(ctx, `
		UPDATE products SET
			category_id    = COALESCE(?, category_id),
			name           = COALESCE(?, name),
			description    = COALESCE(?, description),
			price          = COALESCE(?, price),
			original_price = COALESCE(?, original_price),
			stock          = COALESCE(?, stock),
			image_url      = COALESCE(?, image_url),
			status         = COALESCE(?, status)
		WHERE id = ? AND merchant_id = ?`,
		patch.CategoryID, patch.Name, patch.Description, patch.Price,
		patch.OriginalPrice, patch.Stock, patch.ImageURL, patch.Status,
		id, merchantID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (m *MySQLStore) DeactivateProduct(ctx context.Context, id, merchantID int64) error {
	if err := m.productExists(ctx, id, merchantID); err != nil {
		return err
	}

	// Deactivating an already-inactive product is a successful no-op.
	_, err := m.db.ExecContext(ctx, `
		UPDATE products SET status = ?
		WHERE id = ? AND merchant_id = ?`,
		domain.ProductStatusInactive, id, merchantID,
	)
	if err != nil {
		return fmt.Errorf("deactivate product: %w", err)
	}
	return nil
}

// CreateOrder runs the whole order transaction: it locks each product row in
// the order the items were submitted, validates stock, snapshots name and
// price into the lines, deducts stock, and inserts the order with its lines.
// Any failure rolls the whole transaction back.
func (m *MySQLStore) CreateOrder(ctx context.Context, order *domain.Order, items []domain.OrderItem) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var total float64
	lines := make([]domain.OrderLine, 0, len(items))

	for _, item := range items {
		var (
			id    int64
			name  string
			price float64
			stock int
		)
		err := tx.QueryRowContext(ctx,
			`SELECT id, name, price, stock FROM products WHERE id = ? FOR UPDATE`,
			item.ProductID,
		).Scan(&id, &name, &price, &stock)

		if errors.Is(err, sql.ErrNoRows) {
			return &domain.ProductNotFoundError{ProductID: item.ProductID}
		}
		if err != nil {
			return fmt.Errorf("lock product %d: %w", item.ProductID, err)
		}

		if stock < item.Quantity {
			return &domain.InsufficientStockError{
				ProductID:   id,
				ProductName: name,
				Requested:   item.Quantity,
				Available:   stock,
			}
		}

		subtotal := price * float64(item.Quantity)
		total += subtotal
		lines = append(lines, domain.OrderLine{
			ProductID:    id,
			ProductName:  name,
			ProductPrice: price,
			Quantity:     item.Quantity,
			Subtotal:     subtotal,
		})

		_, err = tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock - ?, sales_count = sales_count + ?
			WHERE id = ?`,
			item.Quantity, item.Quantity, item.ProductID,
		)
		if err != nil {
			return fmt.Errorf("deduct stock for product %d: %w", item.ProductID, err)
		}
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO orders (order_no, user_id, total_amount, status,
		                    shipping_address_id, payment_method, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		order.OrderNo, order.UserID, total, order.Status,
		order.AddressID, order.PaymentMethod, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	orderID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert order id: %w", err)
	}

	for i := range lines {
		lines[i].OrderID = orderID
		res, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name,
			                         product_price, quantity, subtotal)
			VALUES (?, ?, ?, ?, ?, ?)`,
			orderID, lines[i].ProductID, lines[i].ProductName,
			lines[i].ProductPrice, lines[i].Quantity, lines[i].Subtotal,
		)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
		lines[i].ID, _ = res.LastInsertId()
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}

	order.ID = orderID
	order.TotalAmount = total
	order.ItemCount = len(lines)
	order.Lines = lines
	return nil
}

func (m *MySQLStore) ListUserOrders(ctx context.Context, userID int64, status domain.OrderStatus, page, limit int) ([]domain.Order, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	query := `
		SELECT o.id, o.order_no, o.user_id, o.total_amount, o.status,
		       o.created_at, COUNT(oi.id)
		FROM orders o
		LEFT JOIN order_items oi ON o.id = oi.order_id
		WHERE o.user_id = ?`
	args := []interface{}{userID}

	if status != "" {
		query += ` AND o.status = ?`
		args = append(args, status)
	}

	query += ` GROUP BY o.id ORDER BY o.created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, (page-1)*limit)

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.OrderNo, &o.UserID, &o.TotalAmount,
			&o.Status, &o.CreatedAt, &o.ItemCount); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	return orders, nil
}

func (m *MySQLStore) UpdateOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus) error {
	var found int64
	err := m.db.QueryRowContext(ctx,
		`SELECT id FROM orders WHERE id = ?`, orderID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("find order: %w", err)
	}

	// Setting the status the order already has is a successful no-op;
	// RowsAffected would report 0 changed rows for it.
	if _, err := m.db.ExecContext(ctx,
		`UPDATE orders SET status = ? WHERE id = ?`, status, orderID); err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}
