package postgres

import (
	"context"
	"fmt"

	"github.com/dtroode/signvault/internal/model"
)

var _ model.AuditStore = (*AuditRepository)(nil)

type AuditRepository struct {
	db *Connection
}

func NewAuditRepository(db *Connection) *AuditRepository {
	return &AuditRepository{
		db: db,
	}
}

func (r *AuditRepository) Create(ctx context.Context, event model.AuditEvent) (model.AuditEvent, error) {
	if !event.Action.Valid() {
		return model.AuditEvent{}, model.ErrInvalidAction
	}

	query := `INSERT INTO audit_events (identity_id, action, details, operation_id, created_at)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id`

	err := r.db.QueryRow(ctx, query,
		event.IdentityID, event.Action.String(), event.Details, event.OperationID, event.CreatedAt,
	).Scan(&event.ID)
	if err != nil {
		return model.AuditEvent{}, fmt.Errorf("failed to create audit event: %w", err)
	}

	return event, nil
}

func (r *AuditRepository) ListByIdentity(ctx context.Context, identityID int64) ([]model.AuditEvent, error) {
	query := `
		SELECT id, identity_id, action, details, operation_id, created_at
		FROM audit_events
		WHERE identity_id = $1
		ORDER BY created_at, id`

	return r.list(ctx, query, identityID)
}

// List returns every event, including those with no identity attached.
func (r *AuditRepository) List(ctx context.Context) ([]model.AuditEvent, error) {
	query := `
		SELECT id, identity_id, action, details, operation_id, created_at
		FROM audit_events
		ORDER BY created_at, id`

	return r.list(ctx, query)
}

func (r *AuditRepository) list(ctx context.Context, query string, args ...any) ([]model.AuditEvent, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var events []model.AuditEvent
	for rows.Next() {
		var (
			event  model.AuditEvent
			action string
		)
		err := rows.Scan(&event.ID, &event.IdentityID, &action, &event.Details, &event.OperationID, &event.CreatedAt)
		if err != nil {
			return nil, err
		}
		if event.Action, err = model.ParseAction(action); err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
