package postgres

import (
	"context"
	"database/sql"

	"docpay/internal/model"
	"docpay/internal/repository"
)

const accessGrantColumns = `id, document_id, purchase_id, customer_email, access_level, created_at`

// AccessGrantPostgres is a PostgreSQL implementation of repository.AccessGrantRepository.
type AccessGrantPostgres struct {
	db *sql.DB
}

// NewAccessGrantPostgres creates a new AccessGrantPostgres repository.
func NewAccessGrantPostgres(db *sql.DB) *AccessGrantPostgres {
	return &AccessGrantPostgres{db: db}
}

var _ repository.AccessGrantRepository = (*AccessGrantPostgres)(nil)

func scanAccessGrant(row docRowScanner) (*model.AccessGrant, error) {
	var g model.AccessGrant
	if err := row.Scan(
		&g.ID,
		&g.DocumentID,
		&g.PurchaseID,
		&g.CustomerEmail,
		&g.AccessLevel,
		&g.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &g, nil
}

// Create inserts a grant. ON CONFLICT makes the insert idempotent for a
// (document, email) pair; when the conflict fires the existing grant is
// fetched and returned, so replays of a completed purchase converge on the
// same entitlement.
func (r *AccessGrantPostgres) Create(ctx context.Context, g *model.AccessGrant) (*model.AccessGrant, error) {
	const q = `
		INSERT INTO access_grants (id, document_id, purchase_id, customer_email, access_level, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (document_id, customer_email) DO NOTHING
		RETURNING ` + accessGrantColumns
	stored, err := scanAccessGrant(r.db.QueryRowContext(ctx, q,
		g.ID,
		g.DocumentID,
		g.PurchaseID,
		g.CustomerEmail,
		g.AccessLevel,
		g.CreatedAt,
	))
	if err == sql.ErrNoRows {
		// Conflict path: the grant already exists, return it.
		return r.FindByDocumentAndEmail(ctx, g.DocumentID, g.CustomerEmail)
	}
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// FindByDocumentAndEmail fetches the grant for a (document, email) pair.
func (r *AccessGrantPostgres) FindByDocumentAndEmail(ctx context.Context, documentID, customerEmail string) (*model.AccessGrant, error) {
	const q = `
		SELECT ` + accessGrantColumns + `
		FROM access_grants
		WHERE document_id = $1 AND customer_email = $2
	`
	return scanAccessGrant(r.db.QueryRowContext(ctx, q, documentID, customerEmail))
}

// ListByEmail fetches every grant held by a customer email, newest first.
func (r *AccessGrantPostgres) ListByEmail(ctx context.Context, customerEmail string) ([]model.AccessGrant, error) {
	const q = `
		SELECT ` + accessGrantColumns + `
		FROM access_grants
		WHERE customer_email = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q, customerEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.AccessGrant, 0)
	for rows.Next() {
		g, err := scanAccessGrant(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *g)
	}
	return items, rows.Err()
}
