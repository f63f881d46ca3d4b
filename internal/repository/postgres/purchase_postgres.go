package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"docpay/internal/model"
	"docpay/internal/repository"
)

const purchaseColumns = `id, document_id, creator_id, customer_email, customer_name,
		amount_cents, platform_fee_cents, creator_earnings_cents, status, payment_ref, created_at`

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// PurchasePostgres is a PostgreSQL implementation of repository.PurchaseRepository.
type PurchasePostgres struct {
	db *sql.DB
}

// NewPurchasePostgres creates a new PurchasePostgres repository.
func NewPurchasePostgres(db *sql.DB) *PurchasePostgres {
	return &PurchasePostgres{db: db}
}

var _ repository.PurchaseRepository = (*PurchasePostgres)(nil)

func scanPurchase(row docRowScanner) (*model.Purchase, error) {
	var (
		p          model.Purchase
		name       sql.NullString
		paymentRef sql.NullString
	)
	if err := row.Scan(
		&p.ID,
		&p.DocumentID,
		&p.CreatorID,
		&p.CustomerEmail,
		&name,
		&p.AmountCents,
		&p.PlatformFeeCents,
		&p.CreatorEarningsCents,
		&p.Status,
		&paymentRef,
		&p.CreatedAt,
	); err != nil {
		return nil, err
	}
	if name.Valid {
		p.CustomerName = name.String
	}
	if paymentRef.Valid {
		p.PaymentRef = paymentRef.String
	}
	return &p, nil
}

// Create inserts a new pending purchase row and returns the stored record.
func (r *PurchasePostgres) Create(ctx context.Context, p *model.Purchase) (*model.Purchase, error) {
	const q = `
		INSERT INTO purchases (id, document_id, creator_id, customer_email, customer_name,
			amount_cents, platform_fee_cents, creator_earnings_cents, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + purchaseColumns
	row := r.db.QueryRowContext(ctx, q,
		p.ID,
		p.DocumentID,
		p.CreatorID,
		p.CustomerEmail,
		nullString(p.CustomerName),
		p.AmountCents,
		p.PlatformFeeCents,
		p.CreatorEarningsCents,
		p.Status,
		p.CreatedAt,
	)
	return scanPurchase(row)
}

// FindByID fetches a purchase by its ID.
func (r *PurchasePostgres) FindByID(ctx context.Context, id string) (*model.Purchase, error) {
	const q = `SELECT ` + purchaseColumns + ` FROM purchases WHERE id = $1`
	return scanPurchase(r.db.QueryRowContext(ctx, q, id))
}

// FindCompleted returns the completed purchase for a (document, email) pair.
// The partial unique index guarantees at most one row matches.
func (r *PurchasePostgres) FindCompleted(ctx context.Context, documentID, customerEmail string) (*model.Purchase, error) {
	const q = `
		SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE document_id = $1 AND customer_email = $2 AND status = 'completed'
	`
	return scanPurchase(r.db.QueryRowContext(ctx, q, documentID, customerEmail))
}

// MarkCompleted transitions a pending purchase to completed. The WHERE
// status = 'pending' guard enforces the exactly-once transition; the partial
// unique index on (document_id, customer_email) rejects a second completion
// for the same pair, surfaced as repository.ErrAlreadyCompleted.
func (r *PurchasePostgres) MarkCompleted(ctx context.Context, id, paymentRef string) (*model.Purchase, error) {
	const q = `
		UPDATE purchases
		SET status = 'completed', payment_ref = $2
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + purchaseColumns
	p, err := scanPurchase(r.db.QueryRowContext(ctx, q, id, paymentRef))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrAlreadyCompleted
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotPending
		}
		return nil, err
	}
	return p, nil
}

// MarkFailed transitions a pending purchase to failed.
func (r *PurchasePostgres) MarkFailed(ctx context.Context, id string) (*model.Purchase, error) {
	const q = `
		UPDATE purchases
		SET status = 'failed'
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + purchaseColumns
	p, err := scanPurchase(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotPending
		}
		return nil, err
	}
	return p, nil
}

// ListByCreator returns a creator's purchases, newest first, with a total count.
func (r *PurchasePostgres) ListByCreator(ctx context.Context, creatorID string, pq repository.PageQuery) (*repository.PageResult[model.Purchase], error) {
	const qCount = `SELECT COUNT(*) FROM purchases WHERE creator_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, creatorID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE creator_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, qList, creatorID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Purchase, 0)
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Purchase]{Items: items, Total: total}, nil
}

// ListRecentCompleted returns a creator's most recent completed purchases.
func (r *PurchasePostgres) ListRecentCompleted(ctx context.Context, creatorID string, limit int) ([]model.Purchase, error) {
	const q = `
		SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE creator_id = $1 AND status = 'completed'
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, q, creatorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Purchase, 0)
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// CountByDocument counts purchase rows referencing a document, any status.
func (r *PurchasePostgres) CountByDocument(ctx context.Context, documentID string) (int64, error) {
	const q = `SELECT COUNT(*) FROM purchases WHERE document_id = $1`
	var n int64
	if err := r.db.QueryRowContext(ctx, q, documentID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
