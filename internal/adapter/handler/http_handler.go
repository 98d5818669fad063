package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/lbn97/ministore/internal/core/domain"
	"github.com/lbn97/ministore/internal/core/service"
	"github.com/lbn97/ministore/internal/metrics"
)

type HTTPHandler struct {
	catalog *service.CatalogService
	orders  *service.OrderService
	logger  zerolog.Logger
}

func NewHTTPHandler(catalog *service.CatalogService, orders *service.OrderService, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{catalog: catalog, orders: orders, logger: logger}
}

// Router mounts every endpoint on a chi mux.
func (h *HTTPHandler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/api/health", h.HealthCheck)
	r.Get("/api/products", h.SearchProducts)
	r.Get("/api/products/{id}", h.GetProduct)
	r.Get("/api/categories", h.ListCategories)
	r.Post("/api/orders", h.CreateOrder)
	r.Get("/api/orders", h.ListOrders)

	r.Route("/api/merchant", func(r chi.Router) {
		r.Get("/products", h.ListMerchantProducts)
		r.Post("/products", h.CreateProduct)
		r.Put("/products/{id}", h.UpdateProduct)
		r.Delete("/products/{id}", h.DeleteProduct)
		r.Put("/orders/{id}/status", h.UpdateOrderStatus)
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return r
}

type searchResponse struct {
	domain.SearchResult
	Cached       bool   `json:"cached"`
	ResponseTime string `json:"responseTime"`
}

func (h *HTTPHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	q := domain.SearchQuery{
		Term:     r.URL.Query().Get("q"),
		Category: queryInt64(r, "category"),
		Page:     queryInt(r, "page"),
		Limit:    queryInt(r, "limit"),
	}

	result, cached, err := h.catalog.Search(r.Context(), q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		SearchResult: *result,
		Cached:       cached,
		ResponseTime: fmt.Sprintf("%dms", time.Since(start).Milliseconds()),
	})
}

type detailResponse struct {
	domain.ProductDetail
	Cached       bool   `json:"cached"`
	ResponseTime string `json:"responseTime"`
}

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid product id")
		return
	}

	detail, cached, err := h.catalog.GetDetail(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, detailResponse{
		ProductDetail: *detail,
		Cached:        cached,
		ResponseTime:  fmt.Sprintf("%dms", time.Since(start).Milliseconds()),
	})
}

func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, _, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

type createOrderRequest struct {
	UserID        int64              `json:"userId"`
	Items         []domain.OrderItem `json:"items"`
	AddressID     *int64             `json:"addressId"`
	PaymentMethod string             `json:"paymentMethod"`
}

type createOrderResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Order   orderSummary `json:"order"`
}

type orderSummary struct {
	ID          int64              `json:"id"`
	OrderNo     string             `json:"orderNo"`
	TotalAmount float64            `json:"totalAmount"`
	Status      domain.OrderStatus `json:"status"`
}

func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orders.Create(r.Context(), req.UserID, req.Items, req.AddressID, req.PaymentMethod)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createOrderResponse{
		Success: true,
		Message: "order created",
		Order: orderSummary{
			ID:          order.ID,
			OrderNo:     order.OrderNo,
			TotalAmount: order.TotalAmount,
			Status:      order.Status,
		},
	})
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID := queryInt64(r, "userId")
	status := domain.OrderStatus(r.URL.Query().Get("status"))

	orders, err := h.orders.ListUserOrders(r.Context(), userID, status,
		queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

func (h *HTTPHandler) ListMerchantProducts(w http.ResponseWriter, r *http.Request) {
	products, total, err := h.catalog.ListMerchantProducts(r.Context(),
		queryInt64(r, "merchantId"), queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
		"total":    total,
	})
}

type createProductRequest struct {
	MerchantID    int64    `json:"merchantId"`
	CategoryID    int64    `json:"categoryId"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"originalPrice"`
	Stock         int      `json:"stock"`
	ImageURL      string   `json:"imageUrl"`
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p := domain.Product{
		MerchantID:    req.MerchantID,
		CategoryID:    req.CategoryID,
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Stock:         req.Stock,
		ImageURL:      req.ImageURL,
	}
	if err := h.catalog.CreateProduct(r.Context(), &p); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":   true,
		"productId": p.ID,
	})
}

type updateProductRequest struct {
	MerchantID    int64                 `json:"merchantId"`
	CategoryID    *int64                `json:"categoryId"`
	Name          *string               `json:"name"`
	Description   *string               `json:"description"`
	Price         *float64              `json:"price"`
	OriginalPrice *float64              `json:"originalPrice"`
	Stock         *int                  `json:"stock"`
	ImageURL      *string               `json:"imageUrl"`
	Status        *domain.ProductStatus `json:"status"`
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req updateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := domain.ProductPatch{
		CategoryID:    req.CategoryID,
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Stock:         req.Stock,
		ImageURL:      req.ImageURL,
		Status:        req.Status,
	}
	if err := h.catalog.UpdateProduct(r.Context(), id, req.MerchantID, patch); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.catalog.DeactivateProduct(r.Context(), id, queryInt64(r, "merchantId")); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

type updateOrderStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

func (h *HTTPHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req updateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.orders.UpdateStatus(r.Context(), id, req.Status); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeError maps domain errors to client responses. Store failures stay
// generic so internal detail never leaks.
func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *domain.ValidationError
	var notFound *domain.ProductNotFoundError
	var noStock *domain.InsufficientStockError

	switch {
	case errors.As(err, &validation):
		writeErrorMessage(w, http.StatusBadRequest, validation.Reason)
	case errors.As(err, &notFound):
		writeErrorMessage(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &noStock):
		writeErrorMessage(w, http.StatusConflict, noStock.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		writeErrorMessage(w, http.StatusNotFound, "order not found")
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func queryInt(r *http.Request, name string) int {
	v, _ := strconv.Atoi(r.URL.Query().Get(name))
	return v
}

func queryInt64(r *http.Request, name string) int64 {
	v, _ := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	return v
}
