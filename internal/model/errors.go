package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by stores when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUsernameTaken is returned by IdentityStore.Create on a uniqueness violation.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrFileNotFound is returned by Storage when a stored file does not exist.
	ErrFileNotFound = errors.New("stored file not found")
	// ErrAlreadyCommitted is returned by SignatureStore.Commit for a non-pending record.
	ErrAlreadyCommitted = errors.New("signature record is not pending")
	// ErrInvalidAction is returned by AuditStore.Create for the zero Action.
	ErrInvalidAction = errors.New("invalid audit action")
)

// Error kinds. Flows join one of these with the underlying cause so callers
// can branch on the kind with errors.Is.
var (
	ErrCrypto             = errors.New("crypto error")
	ErrStorage            = errors.New("storage error")
	ErrPersistence        = errors.New("persistence error")
	ErrAuthInfrastructure = errors.New("authentication infrastructure error")
	ErrBootstrap          = errors.New("admin bootstrap failed")
)

// Validation reasons shared by the identity and file flows.
const (
	ReasonUsernameRequired   = "username required"
	ReasonPasswordsMismatch  = "passwords do not match"
	ReasonUsernameTaken      = "username already exists"
	ReasonDoubleVerification = "DOUBLE_VERIFICATION_REQUIRED"
	ReasonUserNotFound       = "user not found"
	ReasonChangeNotRequired  = "password change not required"
	ReasonInvalidFileName    = "invalid file name"
	ReasonSignerRequired     = "signer identity required"
	ReasonAdminRequired      = "administrator privileges required"
)

// ValidationError reports input the caller can correct.
type ValidationError struct {
	Reasons []string
}

// NewValidationError creates a ValidationError with the given reasons.
func NewValidationError(reasons ...string) *ValidationError {
	return &ValidationError{Reasons: reasons}
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Reasons, " ")
}

// Has reports whether reason is among the validation reasons.
func (e *ValidationError) Has(reason string) bool {
	for _, r := range e.Reasons {
		if r == reason {
			return true
		}
	}
	return false
}

// Upload stages at which a sign-and-store sequence can stop half way.
const (
	StageWrite  = "write"
	StageCommit = "commit"
)

// IncompleteUploadError reports a sign-and-store sequence that left a pending
// signature record behind. At StageWrite the file may be absent; at StageCommit
// the file was written but the record was not committed.
type IncompleteUploadError struct {
	SignatureID int64
	FileName    string
	Stage       string
	Err         error
}

func (e *IncompleteUploadError) Error() string {
	return fmt.Sprintf("upload of %q incomplete at %s stage (signature %d): %v", e.FileName, e.Stage, e.SignatureID, e.Err)
}

func (e *IncompleteUploadError) Unwrap() error {
	return e.Err
}
