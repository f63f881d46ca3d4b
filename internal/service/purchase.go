package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"docpay/internal/model"
	"docpay/internal/payment"
	"docpay/internal/repository"
)

var (
	ErrDocumentInactive = errors.New("document is not active")
	ErrInvalidRequest   = errors.New("invalid purchase request")
)

// PurchaseOutcome classifies the terminal state of a purchase attempt.
// Expected business outcomes are values here, never errors.
type PurchaseOutcome string

const (
	OutcomeCompleted        PurchaseOutcome = "completed"
	OutcomeAlreadyPurchased PurchaseOutcome = "already_purchased"
	OutcomeDeclined         PurchaseOutcome = "declined"
)

// PurchaseRequest is one customer purchase attempt against a document.
type PurchaseRequest struct {
	DocumentID    string
	CustomerEmail string
	CustomerName  string
}

// Validate checks the request shape before any store is touched.
func (r PurchaseRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DocumentID, validation.Required, is.UUID),
		validation.Field(&r.CustomerEmail, validation.Required, is.EmailFormat),
		validation.Field(&r.CustomerName, validation.Length(0, 200)),
	)
}

// PurchaseResult is the terminal result of a purchase attempt. Grant is set
// for completed and already_purchased outcomes; Purchase is set whenever a
// ledger row was touched by this attempt; DeclineReason only for declined.
type PurchaseResult struct {
	Status        PurchaseOutcome    `json:"status"`
	Purchase      *model.Purchase    `json:"purchase,omitempty"`
	Grant         *model.AccessGrant `json:"grant,omitempty"`
	DeclineReason string             `json:"decline_reason,omitempty"`
}

// SalesListResult is the service-level DTO for a creator's sales history.
type SalesListResult struct {
	Items []model.Purchase `json:"data"`
	Total int              `json:"total"`
}

// PurchaseService drives a customer purchase attempt to a terminal,
// consistent state across the ledger, the grant registry, and the document
// aggregates.
type PurchaseService interface {
	// Purchase runs the full workflow: idempotency check, pending ledger row,
	// gateway charge, completion, grant, aggregates. Business outcomes
	// (already purchased, declined) come back in the result; only
	// infrastructure faults and validation failures are errors.
	Purchase(ctx context.Context, req PurchaseRequest) (*PurchaseResult, error)

	// CheckEntitlement reports whether a completed purchase exists for the
	// pair. Cheap, read-only, safe to call repeatedly.
	CheckEntitlement(ctx context.Context, documentID, customerEmail string) (bool, error)

	// ListSales returns a creator's purchase history, newest first.
	ListSales(ctx context.Context, creatorID string, limit, offset int) (*SalesListResult, error)
}

type purchaseService struct {
	docs      repository.DocumentRepository
	purchases repository.PurchaseRepository
	grants    repository.AccessGrantRepository
	gateway   payment.Gateway
	currency  string
	logger    *slog.Logger
}

// NewPurchaseService constructs the purchase orchestrator. All collaborators
// are injected so the workflow is testable with fakes.
func NewPurchaseService(
	docs repository.DocumentRepository,
	purchases repository.PurchaseRepository,
	grants repository.AccessGrantRepository,
	gateway payment.Gateway,
	currency string,
	logger *slog.Logger,
) PurchaseService {
	if logger == nil {
		logger = slog.Default()
	}
	return &purchaseService{
		docs:      docs,
		purchases: purchases,
		grants:    grants,
		gateway:   gateway,
		currency:  currency,
		logger:    logger,
	}
}

func (s *purchaseService) Purchase(ctx context.Context, req PurchaseRequest) (*PurchaseResult, error) {
	req.CustomerEmail = normalizeEmail(req.CustomerEmail)
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	email := req.CustomerEmail

	doc, err := s.docs.FindByID(ctx, req.DocumentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load document: %w", err)
	}
	if !doc.IsActive {
		return nil, ErrDocumentInactive
	}

	// Idempotency check against the ledger before any charge. The completed
	// purchase is the source of truth; a grant missing for a completed
	// purchase is repaired here instead of re-charging.
	existing, err := s.purchases.FindCompleted(ctx, doc.ID, email)
	switch {
	case err == nil:
		grant, gerr := s.ensureGrant(ctx, existing)
		if gerr != nil {
			return nil, gerr
		}
		return &PurchaseResult{Status: OutcomeAlreadyPurchased, Purchase: existing, Grant: grant}, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("check existing purchase: %w", err)
	}

	fee, earnings := model.SplitFee(doc.PriceCents)
	name := req.CustomerName
	if name == "" {
		name = email[:strings.Index(email, "@")]
	}

	// The pending row must be durable before the gateway call so a crash
	// mid-flow leaves an auditable record.
	pending, err := s.purchases.Create(ctx, &model.Purchase{
		ID:                   uuid.New().String(),
		DocumentID:           doc.ID,
		CreatorID:            doc.CreatorID,
		CustomerEmail:        email,
		CustomerName:         name,
		AmountCents:          doc.PriceCents,
		PlatformFeeCents:     fee,
		CreatorEarningsCents: earnings,
		Status:               model.PurchasePending,
		CreatedAt:            time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("create pending purchase: %w", err)
	}

	chargeRes, err := s.gateway.Charge(ctx, payment.ChargeRequest{
		AmountCents:    pending.AmountCents,
		Currency:       s.currency,
		DocumentID:     doc.ID,
		CustomerEmail:  email,
		IdempotencyKey: pending.ID,
	})
	if err != nil {
		var declined *payment.DeclinedError
		if errors.As(err, &declined) {
			failed, ferr := s.purchases.MarkFailed(ctx, pending.ID)
			if ferr != nil {
				return nil, fmt.Errorf("mark purchase failed: %w", ferr)
			}
			return &PurchaseResult{Status: OutcomeDeclined, Purchase: failed, DeclineReason: declined.Reason}, nil
		}
		// Infrastructure fault: the purchase stays pending and the whole call
		// is safe to retry with the same idempotency key.
		return nil, fmt.Errorf("charge: %w", err)
	}

	completed, err := s.purchases.MarkCompleted(ctx, pending.ID, chargeRes.Reference)
	if errors.Is(err, repository.ErrAlreadyCompleted) {
		// A concurrent attempt for the same pair won the race. Retire our
		// pending row and surface the existing entitlement.
		if _, ferr := s.purchases.MarkFailed(ctx, pending.ID); ferr != nil && !errors.Is(ferr, repository.ErrNotPending) {
			s.logger.WarnContext(ctx, "failed to retire losing purchase attempt",
				"purchase_id", pending.ID, "error", ferr)
		}
		winner, werr := s.purchases.FindCompleted(ctx, doc.ID, email)
		if werr != nil {
			return nil, fmt.Errorf("load winning purchase: %w", werr)
		}
		grant, gerr := s.ensureGrant(ctx, winner)
		if gerr != nil {
			return nil, gerr
		}
		return &PurchaseResult{Status: OutcomeAlreadyPurchased, Purchase: winner, Grant: grant}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mark purchase completed: %w", err)
	}

	grant, err := s.ensureGrant(ctx, completed)
	if err != nil {
		return nil, err
	}

	// Aggregate bumps are an optimization of recomputing from the ledger;
	// a failure here is drift that reconciliation corrects, not a reason to
	// fail a purchase that already completed.
	if err := s.docs.ApplySale(ctx, doc.ID, completed.CreatorEarningsCents); err != nil {
		s.logger.WarnContext(ctx, "failed to apply sale to document aggregates",
			"document_id", doc.ID, "purchase_id", completed.ID, "error", err)
	}

	return &PurchaseResult{Status: OutcomeCompleted, Purchase: completed, Grant: grant}, nil
}

// ensureGrant materializes the access grant for a completed purchase. The
// registry insert is idempotent, so this doubles as repair when an earlier
// attempt completed the purchase but crashed before writing the grant.
func (s *purchaseService) ensureGrant(ctx context.Context, p *model.Purchase) (*model.AccessGrant, error) {
	grant, err := s.grants.Create(ctx, &model.AccessGrant{
		ID:            uuid.New().String(),
		DocumentID:    p.DocumentID,
		PurchaseID:    p.ID,
		CustomerEmail: p.CustomerEmail,
		AccessLevel:   model.AccessLevelEdit,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("create access grant: %w", err)
	}
	return grant, nil
}

func (s *purchaseService) CheckEntitlement(ctx context.Context, documentID, customerEmail string) (bool, error) {
	if documentID == "" {
		return false, ErrIDRequired
	}
	if err := validation.Validate(customerEmail, validation.Required, is.EmailFormat); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	_, err := s.grants.FindByDocumentAndEmail(ctx, documentID, normalizeEmail(customerEmail))
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *purchaseService) ListSales(ctx context.Context, creatorID string, limit, offset int) (*SalesListResult, error) {
	if creatorID == "" {
		return nil, ErrIDRequired
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	res, err := s.purchases.ListByCreator(ctx, creatorID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &SalesListResult{Items: res.Items, Total: res.Total}, nil
}

// normalizeEmail canonicalizes the customer identity key: entitlement is
// matched purely on the typed email, so casing must not split identities.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
