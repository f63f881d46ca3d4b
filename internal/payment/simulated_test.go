package payment

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSimulatedGateway_Charge(t *testing.T) {
	ctx := context.Background()
	req := ChargeRequest{
		AmountCents:    2999,
		Currency:       "USD",
		DocumentID:     "doc-1",
		CustomerEmail:  "buyer@example.com",
		IdempotencyKey: "purchase-1",
	}

	t.Run("approves and returns a reference", func(t *testing.T) {
		g := NewSimulated()
		res, err := g.Charge(ctx, req)

		assert.NoError(t, err)
		assert.True(t, strings.HasPrefix(res.Reference, "pay_"))
	})

	t.Run("reference is stable for the same idempotency key", func(t *testing.T) {
		g := NewSimulated()
		first, err := g.Charge(ctx, req)
		assert.NoError(t, err)
		second, err := g.Charge(ctx, req)
		assert.NoError(t, err)

		assert.Equal(t, first.Reference, second.Reference)

		other := req
		other.IdempotencyKey = "purchase-2"
		third, err := g.Charge(ctx, other)
		assert.NoError(t, err)
		assert.NotEqual(t, first.Reference, third.Reference)
	})

	t.Run("decline rule produces a DeclinedError", func(t *testing.T) {
		g := NewSimulated(WithDeclineRule(func(r ChargeRequest) string {
			if r.CustomerEmail == "broke@example.com" {
				return "insufficient_funds"
			}
			return ""
		}))

		declined := req
		declined.CustomerEmail = "broke@example.com"
		_, err := g.Charge(ctx, declined)

		var de *DeclinedError
		assert.True(t, errors.As(err, &de))
		assert.Equal(t, "insufficient_funds", de.Reason)

		// Other customers are unaffected.
		_, err = g.Charge(ctx, req)
		assert.NoError(t, err)
	})

	t.Run("non-positive amount is rejected", func(t *testing.T) {
		g := NewSimulated()
		bad := req
		bad.AmountCents = 0
		_, err := g.Charge(ctx, bad)

		assert.Error(t, err)
		var de *DeclinedError
		assert.False(t, errors.As(err, &de))
	})

	t.Run("cancelled context interrupts the delay", func(t *testing.T) {
		g := NewSimulated(WithDelay(5 * time.Second))
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := g.Charge(cctx, req)

		assert.ErrorIs(t, err, context.Canceled)
	})
}
