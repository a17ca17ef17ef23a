package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SignatureStore defines persistence operations for signature records.
type SignatureStore interface {
	// CreatePending inserts record with status pending and returns it with the assigned ID.
	CreatePending(ctx context.Context, record SignatureRecord) (SignatureRecord, error)
	// Commit moves a pending record to committed. Committing twice is an error.
	Commit(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (SignatureRecord, error)
	List(ctx context.Context) ([]SignatureListing, error)
	ListPending(ctx context.Context, createdBefore time.Time) ([]SignatureRecord, error)
}

// SignatureStatus is the two-phase state of a signature record.
type SignatureStatus string

const (
	// SignatureStatusPending marks a record whose file write has not been confirmed.
	SignatureStatusPending SignatureStatus = "pending"
	// SignatureStatusCommitted marks a record whose file is in storage.
	SignatureStatusCommitted SignatureStatus = "committed"
)

// SignatureRecord binds a stored file to its signer and signature.
type SignatureRecord struct {
	ID          int64
	SignerID    int64
	FileName    string
	FileHash    string
	Signature   string
	Status      SignatureStatus
	OperationID uuid.UUID
	CreatedAt   time.Time
}

// SignatureListing is a signature record joined with its signer's username.
type SignatureListing struct {
	ID             int64
	FileName       string
	SignerUsername string
	Status         SignatureStatus
	CreatedAt      time.Time
}

// Verdict is the outcome of an integrity check.
type Verdict string

const (
	// VerdictIntact means the stored file matches its signature.
	VerdictIntact Verdict = "intact"
	// VerdictTampered means the stored file no longer matches its signature.
	VerdictTampered Verdict = "tampered"
	// VerdictFileMissing means the stored file could not be found.
	VerdictFileMissing Verdict = "file_missing"
	// VerdictPending means the signature record was never committed.
	VerdictPending Verdict = "pending"
)

// Valid reports whether the verdict is a passing integrity check.
func (v Verdict) Valid() bool {
	return v == VerdictIntact
}
