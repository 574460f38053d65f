// Package client is the typed REST client of the store API. Errors come
// back as the same *apperr.Error values the server rendered.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/example/phone-store/internal/api/middleware"
	"github.com/example/phone-store/internal/apperr"
	"github.com/example/phone-store/internal/domain/cart"
	"github.com/example/phone-store/internal/domain/order"
	"github.com/example/phone-store/internal/payment"
	"github.com/example/phone-store/internal/readmodel"
)

// ErrUnavailable is returned when the API cannot be reached at all
var ErrUnavailable = apperr.New(apperr.KindTransient, "BACKEND_UNAVAILABLE", "the store is not reachable")

type Client struct {
	baseURL *url.URL
	http    *http.Client
}

func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api base url %q: %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: u, http: httpClient}, nil
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type AuthResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}

type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
}

// Auth

func (c *Client) Register(ctx context.Context, reg Registration) (*AuthResult, error) {
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, "", reg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var out AuthResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Products

func (c *Client) ListProducts(ctx context.Context, keyword, brand string) ([]readmodel.ProductReadModel, error) {
	q := url.Values{}
	if keyword != "" {
		q.Set("keyword", keyword)
	}
	if brand != "" {
		q.Set("brand", brand)
	}
	var out []readmodel.ProductReadModel
	if err := c.do(ctx, http.MethodGet, "/products", q, "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Cart

// Cart is the cart exactly as the server sent it, totals included.
type Cart struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Items       []cart.CartItem `json:"items"`
	TotalItems  int             `json:"total_items"`
	TotalAmount int64           `json:"total_amount"`
}

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

func (c *Client) GetCart(ctx context.Context, token string) (*Cart, error) {
	return c.cart(ctx, http.MethodGet, "/cart", nil, token, nil)
}

func (c *Client) AddToCart(ctx context.Context, token, productID string, quantity int) (*Cart, error) {
	body := map[string]any{"product_id": productID, "quantity": quantity}
	return c.cart(ctx, http.MethodPost, "/cart/add", nil, token, body)
}

func (c *Client) UpdateCartItem(ctx context.Context, token, itemID string, quantity int) (*Cart, error) {
	q := url.Values{"quantity": {strconv.Itoa(quantity)}}
	return c.cart(ctx, http.MethodPut, "/cart/update/"+url.PathEscape(itemID), q, token, nil)
}

func (c *Client) RemoveCartItem(ctx context.Context, token, itemID string) (*Cart, error) {
	return c.cart(ctx, http.MethodDelete, "/cart/remove/"+url.PathEscape(itemID), nil, token, nil)
}

func (c *Client) ClearCart(ctx context.Context, token string) (*Cart, error) {
	return c.cart(ctx, http.MethodDelete, "/cart/clear", nil, token, nil)
}

func (c *Client) cart(ctx context.Context, method, path string, q url.Values, token string, body any) (*Cart, error) {
	var out Cart
	if err := c.do(ctx, method, path, q, token, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Orders

func (c *Client) PlaceOrder(ctx context.Context, token string, shipping order.ShippingInfo, method order.PaymentMethod) (*order.Order, error) {
	body := struct {
		order.ShippingInfo
		PaymentMethod order.PaymentMethod `json:"payment_method"`
	}{shipping, method}
	return c.order(ctx, http.MethodPost, "/orders", token, body)
}

func (c *Client) GetOrder(ctx context.Context, token, orderID string) (*order.Order, error) {
	return c.order(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), token, nil)
}

func (c *Client) GetOrderByCode(ctx context.Context, token, code string) (*order.Order, error) {
	return c.order(ctx, http.MethodGet, "/orders/code/"+url.PathEscape(code), token, nil)
}

func (c *Client) CancelOrder(ctx context.Context, token, orderID string) (*order.Order, error) {
	return c.order(ctx, http.MethodPut, "/orders/"+url.PathEscape(orderID)+"/cancel", token, nil)
}

func (c *Client) ListOrders(ctx context.Context, token string, status order.Status) ([]readmodel.OrderReadModel, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}
	var out []readmodel.OrderReadModel
	if err := c.do(ctx, http.MethodGet, "/orders", q, token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateOrderStatus is the admin transition
func (c *Client) UpdateOrderStatus(ctx context.Context, token, orderID string, status order.Status, description, location string) (*order.Order, error) {
	body := map[string]string{"status": string(status), "description": description, "location": location}
	return c.order(ctx, http.MethodPut, "/admin/orders/"+url.PathEscape(orderID)+"/status", token, body)
}

func (c *Client) order(ctx context.Context, method, path, token string, body any) (*order.Order, error) {
	var out order.Order
	if err := c.do(ctx, method, path, nil, token, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Payment

func (c *Client) CreatePayPalOrder(ctx context.Context, token, orderID string) (*payment.CreateResult, error) {
	var out payment.CreateResult
	body := map[string]string{"order_id": orderID}
	if err := c.do(ctx, http.MethodPost, "/payment/paypal/create-order", nil, token, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CapturePayPalOrder(ctx context.Context, token, providerOrderID, payerID, orderID string) (*payment.CaptureResult, error) {
	var out payment.CaptureResult
	body := map[string]string{
		"provider_order_id": providerOrderID,
		"payer_id":          payerID,
		"order_id":          orderID,
	}
	if err := c.do(ctx, http.MethodPost, "/payment/paypal/capture-order", nil, token, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, token string, in, out any) error {
	// JoinPath keeps a prefix such as https://host/api
	u := c.baseURL.JoinPath(path)
	u.RawQuery = q.Encode()

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if cid := middleware.GetCorrelationID(ctx); cid != "" {
		req.Header.Set(middleware.HeaderCorrelationID, cid)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Wrap(ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Wrap(ErrUnavailable, fmt.Errorf("read %s %s: %w", method, path, err))
	}
	if resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// decodeError rebuilds the server's typed error. Bodies without a code, such
// as a proxy's 502 page, are classified by status alone.
func decodeError(status int, raw []byte) error {
	var e apperr.Error
	if err := json.Unmarshal(raw, &e); err == nil && e.Code != "" {
		if e.Kind == "" {
			e.Kind = apperr.KindFromStatus(status)
		}
		return &e
	}
	return apperr.New(apperr.KindFromStatus(status), "HTTP_"+strconv.Itoa(status), http.StatusText(status))
}
