package repository

import (
	"context"

	"docpay/internal/model"
)

// AccessGrantRepository defines data access for the access grant registry.
// Grants are append-only; there is no update or delete.
type AccessGrantRepository interface {
	// Create inserts a grant. Inserting a second grant for the same
	// (document, customer email) pair is a no-op that returns the existing
	// row, so replaying a completed purchase is safe.
	Create(ctx context.Context, g *model.AccessGrant) (*model.AccessGrant, error)

	// FindByDocumentAndEmail returns the grant for a (document, email) pair,
	// or sql.ErrNoRows if none exists.
	FindByDocumentAndEmail(ctx context.Context, documentID, customerEmail string) (*model.AccessGrant, error)

	// ListByEmail returns every grant held by a customer email, newest first.
	ListByEmail(ctx context.Context, customerEmail string) ([]model.AccessGrant, error)
}
