package repository

import (
	"context"
	"errors"

	"docpay/internal/model"
)

// ErrAlreadyCompleted is returned by PurchaseRepository implementations when
// a write collides with the storage-level uniqueness guard on completed
// purchases for a (document, customer email) pair. The orchestrator resolves
// it as an already-purchased outcome, never as a fault.
var ErrAlreadyCompleted = errors.New("completed purchase already exists for document and email")

// ErrNotPending is returned when a status transition targets a purchase that
// is no longer pending. Purchase status moves exactly once.
var ErrNotPending = errors.New("purchase is not pending")

// PurchaseRepository defines data access for the purchase ledger.
type PurchaseRepository interface {
	// Create inserts a new pending purchase row and returns the stored row.
	Create(ctx context.Context, p *model.Purchase) (*model.Purchase, error)

	// FindByID returns a purchase by ID.
	FindByID(ctx context.Context, id string) (*model.Purchase, error)

	// FindCompleted returns the completed purchase for a (document, email)
	// pair, or sql.ErrNoRows if none exists.
	FindCompleted(ctx context.Context, documentID, customerEmail string) (*model.Purchase, error)

	// MarkCompleted transitions a pending purchase to completed and stores the
	// gateway payment reference. Returns ErrNotPending when the row is already
	// terminal and ErrAlreadyCompleted when the (document, email) completed
	// uniqueness guard rejects the transition.
	MarkCompleted(ctx context.Context, id, paymentRef string) (*model.Purchase, error)

	// MarkFailed transitions a pending purchase to failed. Returns
	// ErrNotPending when the row is already terminal.
	MarkFailed(ctx context.Context, id string) (*model.Purchase, error)

	// ListByCreator returns a creator's purchases, newest first.
	ListByCreator(ctx context.Context, creatorID string, pq PageQuery) (*PageResult[model.Purchase], error)

	// ListRecentCompleted returns a creator's most recent completed purchases,
	// newest first, capped at limit.
	ListRecentCompleted(ctx context.Context, creatorID string, limit int) ([]model.Purchase, error)

	// CountByDocument returns how many purchase rows reference the document,
	// regardless of status.
	CountByDocument(ctx context.Context, documentID string) (int64, error)
}
