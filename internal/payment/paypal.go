package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/phone-store/internal/apperr"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

type PayPalConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// PayPalClient talks to the PayPal Orders v2 REST API. Access tokens are
// fetched and refreshed by the oauth2 client-credentials transport.
type PayPalClient struct {
	baseURL string
	http    *http.Client
}

// NewPayPalClient builds a client. ctx is used for token requests and should
// outlive the client.
func NewPayPalClient(ctx context.Context, cfg PayPalConfig) *PayPalClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     baseURL + "/v1/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	client := cc.Client(ctx)
	if cfg.Timeout > 0 {
		client.Timeout = cfg.Timeout
	}
	return &PayPalClient{baseURL: baseURL, http: client}
}

type paypalAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type paypalPurchaseUnit struct {
	ReferenceID string       `json:"reference_id"`
	Description string       `json:"description,omitempty"`
	Amount      paypalAmount `json:"amount"`
}

type paypalAppContext struct {
	ReturnURL  string `json:"return_url"`
	CancelURL  string `json:"cancel_url"`
	UserAction string `json:"user_action"`
}

type paypalCreateRequest struct {
	Intent             string               `json:"intent"`
	PurchaseUnits      []paypalPurchaseUnit `json:"purchase_units"`
	ApplicationContext paypalAppContext     `json:"application_context"`
}

type paypalLink struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type paypalOrderResponse struct {
	ID            string       `json:"id"`
	Status        string       `json:"status"`
	Links         []paypalLink `json:"links"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

type paypalError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Details []struct {
		Issue       string `json:"issue"`
		Description string `json:"description"`
	} `json:"details"`
}

// issues PayPal uses when the payer has not approved or has abandoned the order
var payerAbortIssues = map[string]bool{
	"ORDER_NOT_APPROVED":    true,
	"PAYER_ACTION_REQUIRED": true,
}

func (c *PayPalClient) CreateOrder(ctx context.Context, req ProviderOrderRequest) (*ProviderOrder, error) {
	body := paypalCreateRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []paypalPurchaseUnit{{
			ReferenceID: req.ReferenceID,
			Description: req.Description,
			Amount:      paypalAmount{CurrencyCode: req.Currency, Value: req.Amount.StringFixed(2)},
		}},
		ApplicationContext: paypalAppContext{
			ReturnURL:  req.ReturnURL,
			CancelURL:  req.CancelURL,
			UserAction: "PAY_NOW",
		},
	}

	var resp paypalOrderResponse
	if err := c.do(ctx, "/v2/checkout/orders", "", body, &resp); err != nil {
		return nil, err
	}

	order := &ProviderOrder{ID: resp.ID, Status: resp.Status}
	for _, l := range resp.Links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			order.ApprovalURL = l.Href
			break
		}
	}
	return order, nil
}

// CaptureOrder captures an approved order. idempotencyKey is sent as
// PayPal-Request-Id, so a retried capture returns the original result.
func (c *PayPalClient) CaptureOrder(ctx context.Context, providerOrderID, idempotencyKey string) (*Capture, error) {
	var resp paypalOrderResponse
	path := "/v2/checkout/orders/" + url.PathEscape(providerOrderID) + "/capture"
	if err := c.do(ctx, path, idempotencyKey, struct{}{}, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "COMPLETED" {
		return nil, apperr.Wrap(ErrPaymentFailed, fmt.Errorf("paypal order %s is %s", providerOrderID, resp.Status))
	}

	capture := &Capture{Status: resp.Status}
	for _, pu := range resp.PurchaseUnits {
		for _, cp := range pu.Payments.Captures {
			if cp.Status != "COMPLETED" {
				return nil, apperr.Wrap(ErrPaymentFailed, fmt.Errorf("capture %s is %s", cp.ID, cp.Status))
			}
			capture.TransactionID = cp.ID
		}
	}
	if capture.TransactionID == "" {
		return nil, apperr.Wrap(ErrPaymentFailed, fmt.Errorf("paypal returned no capture for %s", providerOrderID))
	}
	return capture, nil
}

func (c *PayPalClient) do(ctx context.Context, path, requestID string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if requestID != "" {
		req.Header.Set("PayPal-Request-Id", requestID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Wrap(ErrPaymentFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Wrap(ErrPaymentFailed, err)
	}
	if resp.StatusCode >= 300 {
		return classify(resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperr.Wrap(ErrPaymentFailed, fmt.Errorf("decode paypal response: %w", err))
	}
	return nil
}

func classify(status int, raw []byte) error {
	var pe paypalError
	_ = json.Unmarshal(raw, &pe)

	cause := fmt.Errorf("paypal %d %s: %s", status, pe.Name, pe.Message)
	if payerAbortIssues[pe.Name] {
		return apperr.Wrap(ErrPaymentCancelled, cause)
	}
	for _, d := range pe.Details {
		if payerAbortIssues[d.Issue] {
			return apperr.Wrap(ErrPaymentCancelled, fmt.Errorf("%w (%s)", cause, d.Issue))
		}
	}
	return apperr.Wrap(ErrPaymentFailed, cause)
}
