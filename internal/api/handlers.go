package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/phone-store/internal/api/middleware"
	"github.com/example/phone-store/internal/apperr"
	"github.com/example/phone-store/internal/command"
	"github.com/example/phone-store/internal/domain/cart"
	"github.com/example/phone-store/internal/domain/order"
	"github.com/example/phone-store/internal/domain/product"
	"github.com/example/phone-store/internal/payment"
	"github.com/example/phone-store/internal/query"
	"github.com/example/phone-store/internal/statistics"
	"github.com/go-chi/chi/v5"
)

var (
	errInvalidBody         = apperr.Validation("body", "invalid request body")
	errPaymentsUnavailable = apperr.New(apperr.KindTransient, "PAYMENT_UNAVAILABLE", "online payment is not configured")
)

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
	payments     *payment.Service
	statistics   *statistics.Service
}

// NewHandlers wires the HTTP surface. payments may be nil when no provider
// is configured; the PayPal endpoints then answer 503.
func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler, payments *payment.Service, stats *statistics.Service) *Handlers {
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
		payments:     payments,
		statistics:   stats,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Product Handlers

// GetProducts lists active products, filtered by ?keyword=, ?brand= and
// ?category_id=. Admins may add ?include_inactive=true.
func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	filter := query.ProductFilter{
		Keyword:    r.URL.Query().Get("keyword"),
		Brand:      r.URL.Query().Get("brand"),
		CategoryID: r.URL.Query().Get("category_id"),
	}
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok && claims.IsAdmin() {
		filter.IncludeInactive = r.URL.Query().Get("include_inactive") == "true"
	}
	products, err := h.queryHandler.ListProducts(filter)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.queryHandler.GetProduct(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) AdminListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.queryHandler.ListProducts(query.ProductFilter{
		Keyword:         r.URL.Query().Get("keyword"),
		Brand:           r.URL.Query().Get("brand"),
		CategoryID:      r.URL.Query().Get("category_id"),
		IncludeInactive: true,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var cmd command.CreateProduct
	if !decodeJSON(w, r, &cmd) {
		return
	}

	p, err := h.cmdHandler.CreateProduct(r.Context(), cmd)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var in product.Input
	if !decodeJSON(w, r, &in) {
		return
	}

	p, err := h.cmdHandler.UpdateProduct(r.Context(), command.UpdateProduct{ProductID: chi.URLParam(r, "id"), Input: in})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) DeactivateProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.cmdHandler.DeactivateProduct(r.Context(), command.DeactivateProduct{ProductID: chi.URLParam(r, "id")})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) AddStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	inv, err := h.cmdHandler.AddStock(r.Context(), command.AddStock{ProductID: chi.URLParam(r, "id"), Quantity: req.Quantity})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, inv)
}

// Cart Handlers

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.cmdHandler.GetCart(r.Context(), getUserID(r))
	respondCart(w, c, err)
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.cmdHandler.AddToCart(r.Context(), command.AddToCart{
		UserID:    getUserID(r),
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	respondCart(w, c, err)
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil {
		respondError(w, cart.ErrInvalidQuantity)
		return
	}

	c, err := h.cmdHandler.UpdateCartItem(r.Context(), command.UpdateCartItem{
		UserID:   getUserID(r),
		ItemID:   chi.URLParam(r, "itemId"),
		Quantity: quantity,
	})
	respondCart(w, c, err)
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.cmdHandler.RemoveFromCart(r.Context(), command.RemoveFromCart{
		UserID: getUserID(r),
		ItemID: chi.URLParam(r, "itemId"),
	})
	respondCart(w, c, err)
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.cmdHandler.ClearCart(r.Context(), command.ClearCart{UserID: getUserID(r)})
	respondCart(w, c, err)
}

func respondCart(w http.ResponseWriter, c *cart.Cart, err error) {
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// Order Handlers

// PlaceOrderRequest is the checkout form
type PlaceOrderRequest struct {
	order.ShippingInfo
	PaymentMethod order.PaymentMethod `json:"payment_method"`
}

func (h *Handlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	o, err := h.cmdHandler.PlaceOrder(r.Context(), command.PlaceOrder{
		UserID:        getUserID(r),
		Shipping:      req.ShippingInfo,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, o)
}

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	status, ok := statusFilter(w, r)
	if !ok {
		return
	}
	orders, err := h.queryHandler.ListOrdersByUser(getUserID(r), status)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.cmdHandler.GetOrder(r.Context(), getUserID(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// GetOrderByCode resolves the code through the read model and answers with
// the authoritative order.
func (h *Handlers) GetOrderByCode(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)
	rm, err := h.queryHandler.GetOrderByCode(userID, chi.URLParam(r, "code"))
	if err != nil {
		respondError(w, err)
		return
	}
	o, err := h.cmdHandler.GetOrder(r.Context(), userID, rm.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.cmdHandler.CancelOrder(r.Context(), command.CancelOrder{
		UserID:  getUserID(r),
		OrderID: chi.URLParam(r, "id"),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// Admin Order Handlers

func (h *Handlers) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	status, ok := statusFilter(w, r)
	if !ok {
		return
	}
	orders, err := h.queryHandler.SearchOrders(status, r.URL.Query().Get("keyword"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *Handlers) AdminGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.cmdHandler.GetOrderAsAdmin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status      string `json:"status"`
		Description string `json:"description"`
		Location    string `json:"location"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	status, ok := order.ParseStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if !ok {
		respondError(w, order.ErrInvalidStatus)
		return
	}

	o, err := h.cmdHandler.UpdateOrderStatus(r.Context(), command.UpdateOrderStatus{
		OrderID:     chi.URLParam(r, "id"),
		Status:      status,
		Description: req.Description,
		Location:    req.Location,
		Actor:       getUserID(r),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// Payment Handlers

func (h *Handlers) CreatePayPalOrder(w http.ResponseWriter, r *http.Request) {
	if h.payments == nil {
		respondError(w, errPaymentsUnavailable)
		return
	}
	var req struct {
		OrderID string `json:"order_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	userID := getUserID(r)
	if _, err := h.cmdHandler.GetOrder(r.Context(), userID, req.OrderID); err != nil {
		respondError(w, err)
		return
	}
	result, err := h.payments.CreateProviderOrder(r.Context(), req.OrderID, userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// CapturePayPalOrder accepts paymentId, payerId and orderId as query
// parameters or as a JSON body.
func (h *Handlers) CapturePayPalOrder(w http.ResponseWriter, r *http.Request) {
	if h.payments == nil {
		respondError(w, errPaymentsUnavailable)
		return
	}
	q := r.URL.Query()
	req := struct {
		ProviderOrderID string `json:"provider_order_id"`
		PayerID         string `json:"payer_id"`
		OrderID         string `json:"order_id"`
	}{
		ProviderOrderID: q.Get("paymentId"),
		PayerID:         q.Get("payerId"),
		OrderID:         q.Get("orderId"),
	}
	if req.OrderID == "" && !decodeJSON(w, r, &req) {
		return
	}

	userID := getUserID(r)
	if _, err := h.cmdHandler.GetOrder(r.Context(), userID, req.OrderID); err != nil {
		respondError(w, err)
		return
	}
	result, err := h.payments.CaptureProviderOrder(r.Context(), req.ProviderOrderID, req.PayerID, req.OrderID, userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Statistics Handlers

func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.statistics.Dashboard(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (h *Handlers) Revenue(w http.ResponseWriter, r *http.Request) {
	report, err := h.statistics.Revenue(r.Context(), r.URL.Query().Get("startDate"), r.URL.Query().Get("endDate"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	middleware.WriteJSON(w, status, data)
}

func respondError(w http.ResponseWriter, err error) {
	middleware.WriteError(w, err)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, errInvalidBody)
		return false
	}
	return true
}

// statusFilter parses the optional ?status= query parameter
func statusFilter(w http.ResponseWriter, r *http.Request) (order.Status, bool) {
	raw := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status")))
	if raw == "" {
		return "", true
	}
	status, ok := order.ParseStatus(raw)
	if !ok {
		respondError(w, order.ErrInvalidStatus)
		return "", false
	}
	return status, true
}

func getUserID(r *http.Request) string {
	return middleware.GetUserID(r.Context())
}
