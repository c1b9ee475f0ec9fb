package payment

import (
	"context"
	"fmt"

	"github.com/eleganza/storefront/config"
	"github.com/go-resty/resty/v2"
)

// Gateway is the outbound side of the payment provider. It is the only
// component that leaves the process, so it hides behind an interface and the
// tests run against a fake.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (Session, error)
}

// SessionRequest carries everything the provider needs to open a checkout
// session. OrderID is our locally generated correlation token: it is minted
// before the provider call so both sides know it from the start.
type SessionRequest struct {
	OrderID       string
	Amount        float64
	Currency      string
	CustomerID    string
	CustomerEmail string
	CustomerPhone string
}

type Session struct {
	ProviderOrderID string
	SessionID       string
}

// GatewayError marks provider-side failures (non-2xx, timeout, network).
// Nothing has been persisted when it is returned; callers may retry.
type GatewayError struct {
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("payment provider returned status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("payment provider unreachable: %v", e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Cashfree talks to the Cashfree PG order API.
type Cashfree struct {
	client *resty.Client
	cfg    config.Cashfree
}

func NewCashfree(cfg config.Cashfree) *Cashfree {
	client := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(cfg.Timeout).
		SetHeader("x-client-id", cfg.AppID).
		SetHeader("x-client-secret", cfg.Secret).
		SetHeader("x-api-version", "2022-09-01")

	return &Cashfree{client: client, cfg: cfg}
}

func (c *Cashfree) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body := map[string]any{
		"order_id":       req.OrderID,
		"order_amount":   req.Amount,
		"order_currency": req.Currency,
		"customer_details": map[string]any{
			"customer_id":    req.CustomerID,
			"customer_email": req.CustomerEmail,
			"customer_phone": req.CustomerPhone,
		},
		"order_meta": map[string]any{
			"return_url": c.cfg.ReturnURL,
		},
	}

	var out struct {
		PaymentSessionID string `json:"payment_session_id"`
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/pg/orders")
	if err != nil {
		return Session{}, &GatewayError{Err: err}
	}

	if resp.IsError() {
		err := fmt.Errorf("creating provider order: %s", resp.String())
		return Session{}, &GatewayError{StatusCode: resp.StatusCode(), Err: err}
	}

	return Session{ProviderOrderID: req.OrderID, SessionID: out.PaymentSessionID}, nil
}
