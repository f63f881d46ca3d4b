package model

import "time"

// PurchaseStatus is the lifecycle state of a purchase attempt.
// A purchase is created pending and transitions exactly once to completed or
// failed; both are terminal.
type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseCompleted PurchaseStatus = "completed"
	PurchaseFailed    PurchaseStatus = "failed"
)

// PlatformFeeBasisPoints is the platform's cut of every sale: 5%.
const PlatformFeeBasisPoints = 500

// Purchase is one purchase attempt recorded in the ledger. CreatorID is
// denormalized from the document at creation time so sales history survives
// document deactivation. AmountCents is the document price at purchase time
// and is immutable after creation.
type Purchase struct {
	ID                   string         `json:"id"`
	DocumentID           string         `json:"document_id"`
	CreatorID            string         `json:"creator_id"`
	CustomerEmail        string         `json:"customer_email"`
	CustomerName         string         `json:"customer_name,omitempty"`
	AmountCents          int64          `json:"amount_cents"`
	PlatformFeeCents     int64          `json:"platform_fee_cents"`
	CreatorEarningsCents int64          `json:"creator_earnings_cents"`
	Status               PurchaseStatus `json:"status"`
	PaymentRef           string         `json:"payment_ref,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
}

// SplitFee divides an amount of cents into platform fee and creator earnings.
// The fee is rounded half-up to the nearest cent, so fee+earnings == amount
// holds exactly for every amount.
func SplitFee(amountCents int64) (feeCents, earningsCents int64) {
	feeCents = (amountCents*PlatformFeeBasisPoints + 5000) / 10000
	return feeCents, amountCents - feeCents
}
