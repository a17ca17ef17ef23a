package model

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditStore defines persistence operations for audit events.
type AuditStore interface {
	Create(ctx context.Context, event AuditEvent) (AuditEvent, error)
	ListByIdentity(ctx context.Context, identityID int64) ([]AuditEvent, error)
	// List returns every event, including those with no identity attached.
	List(ctx context.Context) ([]AuditEvent, error)
}

// Action is a closed set of audited action kinds.
// Values other than the package-level Action variables cannot be constructed
// outside this package; the zero Action is invalid and is never persisted.
type Action struct {
	slug string
}

var (
	ActionLoginSuccess      = Action{"LOGIN_SUCCESS"}
	ActionLoginFailure      = Action{"LOGIN_FAILURE"}
	ActionLogout            = Action{"LOGOUT"}
	ActionUserCreated       = Action{"USER_CREATED"}
	ActionAdminBootstrapped = Action{"ADMIN_BOOTSTRAPPED"}
	ActionPasswordChanged   = Action{"PASSWORD_CHANGED"}
	ActionFileUpload        = Action{"FILE_UPLOAD"}
	ActionFileDownload      = Action{"FILE_DOWNLOAD"}
	ActionFileVerified      = Action{"FILE_VERIFIED"}
)

var actions = []Action{
	ActionLoginSuccess,
	ActionLoginFailure,
	ActionLogout,
	ActionUserCreated,
	ActionAdminBootstrapped,
	ActionPasswordChanged,
	ActionFileUpload,
	ActionFileDownload,
	ActionFileVerified,
}

// String returns the stored form of the action.
func (a Action) String() string {
	return a.slug
}

// Valid reports whether a is one of the declared actions.
func (a Action) Valid() bool {
	return a.slug != ""
}

// ParseAction maps a stored action string back to its Action.
func ParseAction(s string) (Action, error) {
	for _, a := range actions {
		if a.slug == s {
			return a, nil
		}
	}
	return Action{}, fmt.Errorf("unknown audit action %q", s)
}

// AuditEvent is a single entry in the audit log.
// IdentityID is nil when no identity could be attributed (unknown user, self-registration).
type AuditEvent struct {
	ID          int64
	IdentityID  *int64
	Action      Action
	Details     string
	OperationID uuid.UUID
	CreatedAt   time.Time
}
