package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"docpay/internal/model"
	"docpay/internal/repository"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

var purchaseTestColumns = []string{
	"id", "document_id", "creator_id", "customer_email", "customer_name",
	"amount_cents", "platform_fee_cents", "creator_earnings_cents", "status", "payment_ref", "created_at",
}

func purchaseRow(p *model.Purchase) *sqlmock.Rows {
	return sqlmock.NewRows(purchaseTestColumns).AddRow(
		p.ID, p.DocumentID, p.CreatorID, p.CustomerEmail, nullString(p.CustomerName),
		p.AmountCents, p.PlatformFeeCents, p.CreatorEarningsCents, p.Status,
		nullString(p.PaymentRef), p.CreatedAt,
	)
}

func testPurchase(status model.PurchaseStatus) *model.Purchase {
	return &model.Purchase{
		ID:                   "purchase-uuid",
		DocumentID:           "doc-uuid",
		CreatorID:            "creator-1",
		CustomerEmail:        "buyer@example.com",
		CustomerName:         "Bob",
		AmountCents:          2999,
		PlatformFeeCents:     150,
		CreatorEarningsCents: 2849,
		Status:               status,
		CreatedAt:            time.Now().UTC(),
	}
}

func Test_isUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("plain error")))
	assert.False(t, isUniqueViolation(nil))
}

func TestPurchasePostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewPurchasePostgres(db)
	ctx := context.Background()
	p := testPurchase(model.PurchasePending)

	mock.ExpectQuery("INSERT INTO purchases").
		WithArgs(p.ID, p.DocumentID, p.CreatorID, p.CustomerEmail, nullString(p.CustomerName),
			p.AmountCents, p.PlatformFeeCents, p.CreatorEarningsCents, p.Status, p.CreatedAt).
		WillReturnRows(purchaseRow(p))

	result, err := repo.Create(ctx, p)

	assert.NoError(t, err)
	assert.Equal(t, model.PurchasePending, result.Status)
	assert.Equal(t, int64(150), result.PlatformFeeCents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchasePostgres_FindCompleted(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewPurchasePostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		p := testPurchase(model.PurchaseCompleted)
		p.PaymentRef = "pay_abc"
		mock.ExpectQuery("SELECT (.+) FROM purchases WHERE document_id = (.+) AND customer_email = (.+) AND status = 'completed'").
			WithArgs("doc-uuid", "buyer@example.com").
			WillReturnRows(purchaseRow(p))

		got, err := repo.FindCompleted(ctx, "doc-uuid", "buyer@example.com")

		assert.NoError(t, err)
		assert.Equal(t, "pay_abc", got.PaymentRef)
	})

	t.Run("none", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM purchases WHERE document_id = (.+)").
			WithArgs("doc-uuid", "other@example.com").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.FindCompleted(ctx, "doc-uuid", "other@example.com")

		assert.True(t, errors.Is(err, sql.ErrNoRows))
	})
}

func TestPurchasePostgres_MarkCompleted(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewPurchasePostgres(db)
	ctx := context.Background()

	t.Run("pending row completes", func(t *testing.T) {
		p := testPurchase(model.PurchaseCompleted)
		p.PaymentRef = "pay_abc"
		mock.ExpectQuery("UPDATE purchases SET status = 'completed', payment_ref = (.+) WHERE id = (.+) AND status = 'pending'").
			WithArgs("purchase-uuid", "pay_abc").
			WillReturnRows(purchaseRow(p))

		got, err := repo.MarkCompleted(ctx, "purchase-uuid", "pay_abc")

		assert.NoError(t, err)
		assert.Equal(t, model.PurchaseCompleted, got.Status)
	})

	t.Run("unique violation maps to ErrAlreadyCompleted", func(t *testing.T) {
		mock.ExpectQuery("UPDATE purchases SET status = 'completed'").
			WithArgs("purchase-uuid", "pay_abc").
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_purchases_completed"})

		_, err := repo.MarkCompleted(ctx, "purchase-uuid", "pay_abc")

		assert.ErrorIs(t, err, repository.ErrAlreadyCompleted)
	})

	t.Run("non-pending row maps to ErrNotPending", func(t *testing.T) {
		mock.ExpectQuery("UPDATE purchases SET status = 'completed'").
			WithArgs("purchase-uuid", "pay_abc").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.MarkCompleted(ctx, "purchase-uuid", "pay_abc")

		assert.ErrorIs(t, err, repository.ErrNotPending)
	})
}

func TestPurchasePostgres_MarkFailed(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewPurchasePostgres(db)
	ctx := context.Background()

	t.Run("pending row fails", func(t *testing.T) {
		mock.ExpectQuery("UPDATE purchases SET status = 'failed' WHERE id = (.+) AND status = 'pending'").
			WithArgs("purchase-uuid").
			WillReturnRows(purchaseRow(testPurchase(model.PurchaseFailed)))

		got, err := repo.MarkFailed(ctx, "purchase-uuid")

		assert.NoError(t, err)
		assert.Equal(t, model.PurchaseFailed, got.Status)
	})

	t.Run("terminal row maps to ErrNotPending", func(t *testing.T) {
		mock.ExpectQuery("UPDATE purchases SET status = 'failed'").
			WithArgs("purchase-uuid").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.MarkFailed(ctx, "purchase-uuid")

		assert.ErrorIs(t, err, repository.ErrNotPending)
	})
}

func TestPurchasePostgres_ListByCreator(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewPurchasePostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM purchases WHERE creator_id = ?").
		WithArgs("creator-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("SELECT (.+) FROM purchases WHERE creator_id = (.+) ORDER BY created_at DESC").
		WithArgs("creator-1", 10, 0).
		WillReturnRows(purchaseRow(testPurchase(model.PurchaseCompleted)))

	res, err := repo.ListByCreator(ctx, "creator-1", repository.PageQuery{Limit: 10, Offset: 0})

	assert.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Len(t, res.Items, 1)
}

func TestPurchasePostgres_CountByDocument(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewPurchasePostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM purchases WHERE document_id = ?").
		WithArgs("doc-uuid").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.CountByDocument(ctx, "doc-uuid")

	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
