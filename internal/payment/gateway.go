package payment

import (
	"context"
	"fmt"
)

// Package payment abstracts the external payment processor. The orchestrator
// only depends on the Gateway interface; the concrete implementation (network
// client or simulator) is selected at wiring time.

// ChargeRequest describes a single charge attempt. IdempotencyKey is the
// pending purchase id; the processor must treat repeated charges with the
// same key as one charge, so a retried purchase call can never double-bill.
type ChargeRequest struct {
	AmountCents    int64
	Currency       string
	DocumentID     string
	CustomerEmail  string
	IdempotencyKey string
}

// ChargeResult is returned on a successful authorization. Reference is the
// processor's payment id, persisted on the completed purchase.
type ChargeResult struct {
	Reference string
}

// DeclinedError reports a processor-side decline. It is an expected business
// outcome, distinct from transport or processor availability faults.
type DeclinedError struct {
	Reason string
}

func (e *DeclinedError) Error() string {
	return fmt.Sprintf("payment declined: %s", e.Reason)
}

// Gateway authorizes charges against the payment processor.
type Gateway interface {
	// Charge attempts to authorize the request. It returns a *DeclinedError
	// when the processor declines; any other error is an infrastructure fault
	// and the caller may safely retry with the same idempotency key.
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}
