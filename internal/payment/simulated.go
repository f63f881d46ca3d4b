package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SimulatedGateway is a deterministic in-process Gateway for demo
// deployments and tests. It approves every charge after an optional
// artificial delay, unless a decline rule matches.
type SimulatedGateway struct {
	delay time.Duration

	// declineFn, when set, is consulted before approving. Tests use it to
	// force declines for specific requests.
	declineFn func(ChargeRequest) string
}

// SimulatedOption configures a SimulatedGateway.
type SimulatedOption func(*SimulatedGateway)

// WithDelay adds an artificial processing delay to every charge.
func WithDelay(d time.Duration) SimulatedOption {
	return func(g *SimulatedGateway) { g.delay = d }
}

// WithDeclineRule installs a rule returning a non-empty decline reason for
// requests that should be refused.
func WithDeclineRule(fn func(ChargeRequest) string) SimulatedOption {
	return func(g *SimulatedGateway) { g.declineFn = fn }
}

// NewSimulated creates a simulated gateway.
func NewSimulated(opts ...SimulatedOption) *SimulatedGateway {
	g := &SimulatedGateway{}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var _ Gateway = (*SimulatedGateway)(nil)

// Charge approves the request after the configured delay. The returned
// reference is stable for a given idempotency key, matching real processor
// idempotency semantics.
func (g *SimulatedGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if req.AmountCents <= 0 {
		return nil, fmt.Errorf("invalid amount: %d", req.AmountCents)
	}
	if g.declineFn != nil {
		if reason := g.declineFn(req); reason != "" {
			return nil, &DeclinedError{Reason: reason}
		}
	}
	ref := "pay_" + strings.ReplaceAll(uuid.NewSHA1(uuid.NameSpaceOID, []byte(req.IdempotencyKey)).String(), "-", "")[:16]
	return &ChargeResult{Reference: ref}, nil
}
