package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"docpay/internal/model"
	"docpay/internal/repository"
)

const documentColumns = `id, share_id, creator_id, creator_name, title, description, price_cents, preview_content,
		tags, cover_image_path, doc_ref, doc_url, is_active, sales, views, revenue_cents,
		created_at, updated_at`

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

type docRowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row docRowScanner) (*model.Document, error) {
	var (
		d     model.Document
		tags  []byte
		cover sql.NullString
	)
	if err := row.Scan(
		&d.ID,
		&d.ShareID,
		&d.CreatorID,
		&d.CreatorName,
		&d.Title,
		&d.Description,
		&d.PriceCents,
		&d.PreviewContent,
		&tags,
		&cover,
		&d.DocRef,
		&d.DocURL,
		&d.IsActive,
		&d.Sales,
		&d.Views,
		&d.RevenueCents,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if cover.Valid {
		d.CoverImagePath = cover.String
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &d.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}
	return &d, nil
}

func encodeTags(tags []string) ([]byte, error) {
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal(tags)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (id, share_id, creator_id, creator_name, title, description, price_cents,
			preview_content, tags, cover_image_path, doc_ref, doc_url, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING ` + documentColumns
	tags, err := encodeTags(doc.Tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.ShareID,
		doc.CreatorID,
		doc.CreatorName,
		doc.Title,
		doc.Description,
		doc.PriceCents,
		doc.PreviewContent,
		tags,
		nullString(doc.CoverImagePath),
		doc.DocRef,
		doc.DocURL,
		doc.IsActive,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its internal ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// FindByShareID fetches a document by its public share ID, optionally
// restricted to active listings.
func (r *DocumentPostgres) FindByShareID(ctx context.Context, shareID string, activeOnly bool) (*model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE share_id = $1`
	if activeOnly {
		q += ` AND is_active = TRUE`
	}
	return scanDocument(r.db.QueryRowContext(ctx, q, shareID))
}

// ListByCreator returns a creator's documents using LIMIT/OFFSET pagination
// and a total count.
func (r *DocumentPostgres) ListByCreator(ctx context.Context, creatorID string, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	const qCount = `SELECT COUNT(*) FROM documents WHERE creator_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, creatorID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE creator_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, qList, creatorID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{Items: items, Total: total}, nil
}

// Update persists mutable listing fields and returns the stored row.
// Aggregates and identity fields are deliberately not touched here.
func (r *DocumentPostgres) Update(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		UPDATE documents
		SET title = $2, description = $3, price_cents = $4, preview_content = $5,
			tags = $6, cover_image_path = $7, doc_url = $8, is_active = $9, updated_at = $10
		WHERE id = $1
		RETURNING ` + documentColumns
	tags, err := encodeTags(doc.Tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.Title,
		doc.Description,
		doc.PriceCents,
		doc.PreviewContent,
		tags,
		nullString(doc.CoverImagePath),
		doc.DocURL,
		doc.IsActive,
		doc.UpdatedAt,
	)
	return scanDocument(row)
}

// Delete removes a document by ID. It does not return an error if the row does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

// IncrementViews bumps the views aggregate in a single statement so
// concurrent listing loads never lose an increment.
func (r *DocumentPostgres) IncrementViews(ctx context.Context, id string) error {
	const q = `UPDATE documents SET views = views + 1 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// ApplySale applies a completed sale to the cached aggregates atomically.
func (r *DocumentPostgres) ApplySale(ctx context.Context, id string, earningsCents int64) error {
	const q = `UPDATE documents SET sales = sales + 1, revenue_cents = revenue_cents + $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, earningsCents)
	return err
}

// RecomputeAggregates derives ground-truth sales/revenue from the ledger.
func (r *DocumentPostgres) RecomputeAggregates(ctx context.Context, id string) (int64, int64, error) {
	const q = `
		SELECT COUNT(*), COALESCE(SUM(creator_earnings_cents), 0)
		FROM purchases
		WHERE document_id = $1 AND status = 'completed'
	`
	var sales, revenue int64
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&sales, &revenue); err != nil {
		return 0, 0, err
	}
	return sales, revenue, nil
}

// SetAggregates overwrites the cached counters with reconciled values.
func (r *DocumentPostgres) SetAggregates(ctx context.Context, id string, sales, revenueCents int64) error {
	const q = `UPDATE documents SET sales = $2, revenue_cents = $3 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, sales, revenueCents)
	return err
}
