package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/signvault/internal/model"
)

// auditor appends audit events stamped with the shared clock.
type auditor struct {
	store model.AuditStore
	now   func() time.Time
}

func (a auditor) record(ctx context.Context, identityID *int64, action model.Action, details string, operationID uuid.UUID) error {
	_, err := a.store.Create(ctx, model.AuditEvent{
		IdentityID:  identityID,
		Action:      action,
		Details:     details,
		OperationID: operationID,
		CreatedAt:   a.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to record %s audit event: %w", action, err)
	}
	return nil
}

// history returns the audit events attributed to identityID.
func (a auditor) history(ctx context.Context, identityID int64) ([]model.AuditEvent, error) {
	events, err := a.store.ListByIdentity(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list audit events: %w", model.ErrPersistence, err)
	}
	return events, nil
}

// all returns every audit event.
func (a auditor) all(ctx context.Context) ([]model.AuditEvent, error) {
	events, err := a.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list audit events: %w", model.ErrPersistence, err)
	}
	return events, nil
}

func ref(id int64) *int64 {
	return &id
}
