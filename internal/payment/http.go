package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"docpay/internal/config"
)

// HTTPGateway calls a payment processor over HTTP. Requests carry an
// Idempotency-Key header so the processor deduplicates retries of the same
// pending purchase. A circuit breaker stops hammering the processor while it
// is unreachable; declines do not trip the breaker, only transport faults do.
type HTTPGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewHTTP creates a network-backed gateway from config.
func NewHTTP(cfg config.PaymentConfig) (*HTTPGateway, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("payment endpoint is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("payment api key is required")
	}

	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &HTTPGateway{
		baseURL: cfg.Endpoint,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "payment-gateway",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}, nil
}

var _ Gateway = (*HTTPGateway)(nil)

type chargeBody struct {
	AmountCents   int64  `json:"amount_cents"`
	Currency      string `json:"currency"`
	DocumentID    string `json:"document_id"`
	CustomerEmail string `json:"customer_email"`
}

type chargeResponse struct {
	Success   bool   `json:"success"`
	Reference string `json:"reference"`
	Reason    string `json:"reason"`
}

// Charge posts the charge to the processor. Declines return *DeclinedError
// and are not counted as breaker failures.
func (g *HTTPGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	out, err := g.breaker.Execute(func() (any, error) {
		body, err := json.Marshal(chargeBody{
			AmountCents:   req.AmountCents,
			Currency:      req.Currency,
			DocumentID:    req.DocumentID,
			CustomerEmail: req.CustomerEmail,
		})
		if err != nil {
			return nil, err
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/charges", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
		httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)

		resp, err := g.client.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("charge request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("processor unavailable: status %d", resp.StatusCode)
		}

		var cr chargeResponse
		if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
			return nil, fmt.Errorf("decode charge response: %w", err)
		}
		return &cr, nil
	})
	if err != nil {
		return nil, err
	}

	cr := out.(*chargeResponse)
	if !cr.Success {
		reason := cr.Reason
		if reason == "" {
			reason = "card declined"
		}
		return nil, &DeclinedError{Reason: reason}
	}
	return &ChargeResult{Reference: cr.Reference}, nil
}
