package repository

import (
	"context"

	"docpay/internal/model"
)

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here — strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its internal ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// FindByShareID returns a document by its public share ID. When activeOnly
	// is true, inactive documents are treated as missing.
	FindByShareID(ctx context.Context, shareID string, activeOnly bool) (*model.Document, error)

	// ListByCreator returns a paginated list of a creator's documents plus the
	// total row count.
	ListByCreator(ctx context.Context, creatorID string, pq PageQuery) (*PageResult[model.Document], error)

	// Update persists mutable listing fields (title, description, price,
	// preview, tags, cover, doc url, is_active) and returns the stored row.
	Update(ctx context.Context, doc *model.Document) (*model.Document, error)

	// Delete removes a document row by ID. It returns nil if the row was
	// deleted or did not exist.
	Delete(ctx context.Context, id string) error

	// IncrementViews atomically bumps the views aggregate by one.
	IncrementViews(ctx context.Context, id string) error

	// ApplySale atomically applies a completed sale to the cached aggregates:
	// sales+1 and revenue+earningsCents in a single statement.
	ApplySale(ctx context.Context, id string, earningsCents int64) error

	// RecomputeAggregates derives sales and revenue from the purchase ledger
	// (completed rows only) without touching the document row.
	RecomputeAggregates(ctx context.Context, id string) (sales int64, revenueCents int64, err error)

	// SetAggregates overwrites the cached sales/revenue counters, used by
	// reconciliation to correct drift.
	SetAggregates(ctx context.Context, id string, sales, revenueCents int64) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
