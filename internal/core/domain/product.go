package domain

import "time"

type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

type Product struct {
	ID            int64         `json:"id"`
	MerchantID    int64         `json:"merchant_id"`
	CategoryID    int64         `json:"category_id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Price         float64       `json:"price"`
	OriginalPrice *float64      `json:"original_price,omitempty"`
	Stock         int           `json:"stock"`
	ImageURL      string        `json:"image_url"`
	SalesCount    int           `json:"sales_count"`
	Status        ProductStatus `json:"status"`
	CategoryName  string        `json:"category_name,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ParentID    *int64 `json:"parent_id"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

type Review struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	UserID    int64     `json:"user_id"`
	UserName  string    `json:"user_name"`
	Rating    int       `json:"rating"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductPatch carries a partial product update; nil fields are left
// unchanged.
type ProductPatch struct {
	CategoryID    *int64
	Name          *string
	Description   *string
	Price         *float64
	OriginalPrice *float64
	Stock         *int
	ImageURL      *string
	Status        *ProductStatus
}

// ProductDetail is the payload cached under the product detail key.
type ProductDetail struct {
	Product      Product  `json:"product"`
	MerchantName string   `json:"merchant_name,omitempty"`
	Reviews      []Review `json:"reviews"`
}
