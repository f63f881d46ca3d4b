package model

import "time"

// Document is a paywalled listing for an externally hosted document.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
//
// ID is internal and never exposed in public URLs; ShareID is the unguessable
// identifier used for the public listing link.
type Document struct {
	ID             string   `json:"id"`
	ShareID        string   `json:"share_id"`
	CreatorID      string   `json:"creator_id"`
	CreatorName    string   `json:"creator_name"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	PriceCents     int64    `json:"price_cents"`
	PreviewContent string   `json:"preview_content"`
	Tags           []string `json:"tags"`
	CoverImagePath string   `json:"cover_image_path,omitempty"`
	DocRef         string   `json:"doc_ref"`
	DocURL         string   `json:"doc_url"`
	IsActive       bool     `json:"is_active"`

	// Cached aggregates, maintained by the purchase workflow and correctable
	// by recomputation from the purchase ledger (completed rows only).
	Sales        int64 `json:"sales"`
	Views        int64 `json:"views"`
	RevenueCents int64 `json:"revenue_cents"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Listing is the public projection of a Document served on the share link.
// It never carries DocRef/DocURL or the internal document ID.
type Listing struct {
	ShareID        string   `json:"share_id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	PriceCents     int64    `json:"price_cents"`
	PreviewContent string   `json:"preview_content"`
	Tags           []string `json:"tags"`
	CoverImagePath string   `json:"cover_image_path,omitempty"`
	CreatorName    string   `json:"creator_name"`
	Sales          int64    `json:"sales"`
	Views          int64    `json:"views"`
}

// PublicListing builds the projection served to anonymous visitors.
func (d *Document) PublicListing() *Listing {
	return &Listing{
		ShareID:        d.ShareID,
		Title:          d.Title,
		Description:    d.Description,
		PriceCents:     d.PriceCents,
		PreviewContent: d.PreviewContent,
		Tags:           d.Tags,
		CoverImagePath: d.CoverImagePath,
		CreatorName:    d.CreatorName,
		Sales:          d.Sales,
		Views:          d.Views,
	}
}
