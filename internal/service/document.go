package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"docpay/internal/model"
	"docpay/internal/repository"
	"docpay/internal/storage"
)

var (
	ErrIDRequired = errors.New("id is required")
	ErrNotFound   = errors.New("document not found")
	ErrForbidden  = errors.New("document belongs to another creator")
	ErrReaderNil  = errors.New("reader is nil")
)

// MinPriceCents is the lowest price a creator may attach to a document: $0.99.
const MinPriceCents = 99

// CreateDocumentRequest carries the creator-supplied fields for a new
// paywalled listing. CreatorID and CreatorName come from the identity
// provider, never from the request body.
type CreateDocumentRequest struct {
	CreatorID      string   `json:"-"`
	CreatorName    string   `json:"-"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	PriceCents     int64    `json:"price_cents"`
	PreviewContent string   `json:"preview_content"`
	Tags           []string `json:"tags"`
	DocRef         string   `json:"doc_ref"`
	DocURL         string   `json:"doc_url"`
}

// Validate checks creator input before any write.
func (r CreateDocumentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CreatorID, validation.Required),
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.PriceCents, validation.Required, validation.Min(int64(MinPriceCents))),
		validation.Field(&r.DocRef, validation.Required),
		validation.Field(&r.DocURL, validation.Required),
	)
}

// UpdateDocumentRequest carries the mutable listing fields. Nil pointers mean
// "leave unchanged".
type UpdateDocumentRequest struct {
	Title          *string   `json:"title"`
	Description    *string   `json:"description"`
	PriceCents     *int64    `json:"price_cents"`
	PreviewContent *string   `json:"preview_content"`
	Tags           *[]string `json:"tags"`
	DocURL         *string   `json:"doc_url"`
	IsActive       *bool     `json:"is_active"`
}

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// AnalyticsResult bundles a creator's documents with their cached aggregates
// and the most recent completed sales.
type AnalyticsResult struct {
	Documents   []model.Document `json:"documents"`
	RecentSales []model.Purchase `json:"recent_sales"`
}

// DocumentService defines the creator- and visitor-facing use cases for
// paywalled documents.
type DocumentService interface {
	// Create registers a new paywalled listing and generates its share ID.
	Create(ctx context.Context, req CreateDocumentRequest) (*model.Document, error)

	// Get returns a document by ID, restricted to its owner.
	Get(ctx context.Context, creatorID, id string) (*model.Document, error)

	// List returns the creator's documents using limit/offset and a total count.
	List(ctx context.Context, creatorID string, limit, offset int) (*DocumentListResult, error)

	// Update applies mutable listing fields, restricted to the owner.
	Update(ctx context.Context, creatorID, id string, req UpdateDocumentRequest) (*model.Document, error)

	// Delete removes a document that has no purchases; documents referenced by
	// the ledger are deactivated instead so the sales history stays intact.
	Delete(ctx context.Context, creatorID, id string) error

	// UploadCover streams a cover image to object storage and records its key,
	// restricted to the owner.
	UploadCover(ctx context.Context, creatorID, id string, r io.Reader, originalFilename, contentType string, size int64) (*model.Document, error)

	// GetListing returns the public projection for a share link and bumps the
	// views aggregate (at-least-once; a failed bump never fails the read).
	GetListing(ctx context.Context, shareID string) (*model.Listing, error)

	// FindActiveByShareID resolves a share link to the underlying active
	// document, for internal use by the purchase and entitlement flows.
	FindActiveByShareID(ctx context.Context, shareID string) (*model.Document, error)

	// Analytics returns the creator's documents with aggregates plus recent
	// completed sales.
	Analytics(ctx context.Context, creatorID string) (*AnalyticsResult, error)

	// Reconcile recomputes a document's sales/revenue from the purchase ledger
	// and overwrites the cached aggregates, correcting any drift.
	Reconcile(ctx context.Context, creatorID, id string) (*model.Document, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store     storage.Storage
	docs      repository.DocumentRepository
	purchases repository.PurchaseRepository
	logger    *slog.Logger
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, docs repository.DocumentRepository, purchases repository.PurchaseRepository, logger *slog.Logger) DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentService{store: store, docs: docs, purchases: purchases, logger: logger}
}

func (s *documentService) Create(ctx context.Context, req CreateDocumentRequest) (*model.Document, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	preview := req.PreviewContent
	if preview == "" {
		preview = fmt.Sprintf("This is a preview of %q. Purchase to access the full document with detailed content and examples.", req.Title)
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	now := time.Now().UTC()
	doc := &model.Document{
		ID:             uuid.New().String(),
		ShareID:        uuid.New().String(),
		CreatorID:      req.CreatorID,
		CreatorName:    req.CreatorName,
		Title:          req.Title,
		Description:    req.Description,
		PriceCents:     req.PriceCents,
		PreviewContent: preview,
		Tags:           tags,
		DocRef:         req.DocRef,
		DocURL:         req.DocURL,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	stored, err := s.docs.Create(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return stored, nil
}

// ownedByID loads a document and enforces creator ownership.
func (s *documentService) ownedByID(ctx context.Context, creatorID, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if doc.CreatorID != creatorID {
		return nil, ErrForbidden
	}
	return doc, nil
}

func (s *documentService) Get(ctx context.Context, creatorID, id string) (*model.Document, error) {
	return s.ownedByID(ctx, creatorID, id)
}

func (s *documentService) List(ctx context.Context, creatorID string, limit, offset int) (*DocumentListResult, error) {
	if creatorID == "" {
		return nil, ErrIDRequired
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.docs.ListByCreator(ctx, creatorID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *documentService) Update(ctx context.Context, creatorID, id string, req UpdateDocumentRequest) (*model.Document, error) {
	doc, err := s.ownedByID(ctx, creatorID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		doc.Title = *req.Title
	}
	if req.Description != nil {
		doc.Description = *req.Description
	}
	if req.PriceCents != nil {
		if *req.PriceCents < MinPriceCents {
			return nil, fmt.Errorf("%w: price_cents must be at least %d", ErrInvalidRequest, MinPriceCents)
		}
		doc.PriceCents = *req.PriceCents
	}
	if req.PreviewContent != nil {
		doc.PreviewContent = *req.PreviewContent
	}
	if req.Tags != nil {
		doc.Tags = *req.Tags
	}
	if req.DocURL != nil {
		doc.DocURL = *req.DocURL
	}
	if req.IsActive != nil {
		doc.IsActive = *req.IsActive
	}
	if doc.Title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrInvalidRequest)
	}
	doc.UpdatedAt = time.Now().UTC()

	return s.docs.Update(ctx, doc)
}

// Delete hard-deletes only documents no purchase references; otherwise the
// document is deactivated so ledger rows keep a valid target.
func (s *documentService) Delete(ctx context.Context, creatorID, id string) error {
	doc, err := s.ownedByID(ctx, creatorID, id)
	if err != nil {
		return err
	}

	n, err := s.purchases.CountByDocument(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("count purchases: %w", err)
	}
	if n > 0 {
		doc.IsActive = false
		doc.UpdatedAt = time.Now().UTC()
		if _, err := s.docs.Update(ctx, doc); err != nil {
			return fmt.Errorf("deactivate document: %w", err)
		}
		return nil
	}

	if doc.CoverImagePath != "" {
		if err := s.store.Delete(ctx, doc.CoverImagePath); err != nil {
			return fmt.Errorf("delete cover image: %w", err)
		}
	}
	return s.docs.Delete(ctx, doc.ID)
}

func (s *documentService) UploadCover(ctx context.Context, creatorID, id string, r io.Reader, originalFilename, contentType string, size int64) (*model.Document, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	doc, err := s.ownedByID(ctx, creatorID, id)
	if err != nil {
		return nil, err
	}

	// Generate object key using UUID + original extension
	ext := filepath.Ext(originalFilename)
	key := filepath.ToSlash(filepath.Join("covers", uuid.New().String()+ext))

	objInfo, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	oldKey := doc.CoverImagePath
	doc.CoverImagePath = objInfo.Key
	doc.UpdatedAt = time.Now().UTC()
	stored, err := s.docs.Update(ctx, doc)
	if err != nil {
		// Rollback: delete the freshly uploaded object
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	// Replaced covers are best-effort cleanup; an orphaned object is not a fault.
	if oldKey != "" && oldKey != objInfo.Key {
		if err := s.store.Delete(ctx, oldKey); err != nil {
			s.logger.WarnContext(ctx, "failed to delete replaced cover image", "key", oldKey, "error", err)
		}
	}
	return stored, nil
}

func (s *documentService) GetListing(ctx context.Context, shareID string) (*model.Listing, error) {
	doc, err := s.FindActiveByShareID(ctx, shareID)
	if err != nil {
		return nil, err
	}

	// At-least-once view bump: a lost increment here is transient (the read
	// already succeeded and the next load will count), never a failed read.
	if err := s.docs.IncrementViews(ctx, doc.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to increment document views", "document_id", doc.ID, "error", err)
	} else {
		doc.Views++
	}

	return doc.PublicListing(), nil
}

func (s *documentService) FindActiveByShareID(ctx context.Context, shareID string) (*model.Document, error) {
	if shareID == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.docs.FindByShareID(ctx, shareID, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *documentService) Analytics(ctx context.Context, creatorID string) (*AnalyticsResult, error) {
	if creatorID == "" {
		return nil, ErrIDRequired
	}

	docs, err := s.docs.ListByCreator(ctx, creatorID, repository.PageQuery{Limit: 100, Offset: 0})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	recent, err := s.purchases.ListRecentCompleted(ctx, creatorID, 30)
	if err != nil {
		return nil, fmt.Errorf("list recent sales: %w", err)
	}
	return &AnalyticsResult{Documents: docs.Items, RecentSales: recent}, nil
}

func (s *documentService) Reconcile(ctx context.Context, creatorID, id string) (*model.Document, error) {
	doc, err := s.ownedByID(ctx, creatorID, id)
	if err != nil {
		return nil, err
	}

	sales, revenue, err := s.docs.RecomputeAggregates(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("recompute aggregates: %w", err)
	}
	if sales != doc.Sales || revenue != doc.RevenueCents {
		s.logger.InfoContext(ctx, "correcting aggregate drift",
			"document_id", doc.ID,
			"stored_sales", doc.Sales, "actual_sales", sales,
			"stored_revenue_cents", doc.RevenueCents, "actual_revenue_cents", revenue)
		if err := s.docs.SetAggregates(ctx, doc.ID, sales, revenue); err != nil {
			return nil, fmt.Errorf("set aggregates: %w", err)
		}
	}
	doc.Sales = sales
	doc.RevenueCents = revenue
	return doc, nil
}
