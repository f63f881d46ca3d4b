package model

import "time"

// AccessLevelEdit is the entitlement materialized for every completed
// purchase: the customer receives edit access to the underlying document.
const AccessLevelEdit = "edit"

// AccessGrant records that a customer holds an entitlement to a document.
// Grants exist iff a completed purchase exists for the same (document,
// customer email) pair; they are never created for pending or failed
// purchases and are append-only once written.
type AccessGrant struct {
	ID            string    `json:"id"`
	DocumentID    string    `json:"document_id"`
	PurchaseID    string    `json:"purchase_id"`
	CustomerEmail string    `json:"customer_email"`
	AccessLevel   string    `json:"access_level"`
	CreatedAt     time.Time `json:"created_at"`
}
