package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dtroode/signvault/internal/model"
)

var _ model.AuditStore = (*AuditRepository)(nil)

// AuditRepository appends to the audit_events table.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create appends event. The zero Action is rejected.
func (r *AuditRepository) Create(ctx context.Context, event model.AuditEvent) (model.AuditEvent, error) {
	if !event.Action.Valid() {
		return model.AuditEvent{}, model.ErrInvalidAction
	}

	query := `INSERT INTO audit_events (identity_id, action, details, operation_id, created_at)
		VALUES (?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query,
		event.IdentityID, event.Action.String(), event.Details, event.OperationID, formatTime(event.CreatedAt),
	)
	if err != nil {
		return model.AuditEvent{}, fmt.Errorf("failed to create audit event: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.AuditEvent{}, fmt.Errorf("failed to get audit event id: %w", err)
	}
	event.ID = id
	event.CreatedAt = event.CreatedAt.UTC()
	return event, nil
}

// ListByIdentity returns the events attributed to identityID in insertion order.
func (r *AuditRepository) ListByIdentity(ctx context.Context, identityID int64) ([]model.AuditEvent, error) {
	query := `SELECT id, identity_id, action, details, operation_id, created_at
		FROM audit_events WHERE identity_id = ? ORDER BY created_at, id`
	return r.list(ctx, query, identityID)
}

// List returns every event, including unattributed ones, in insertion order.
func (r *AuditRepository) List(ctx context.Context) ([]model.AuditEvent, error) {
	query := `SELECT id, identity_id, action, details, operation_id, created_at
		FROM audit_events ORDER BY created_at, id`
	return r.list(ctx, query)
}

func (r *AuditRepository) list(ctx context.Context, query string, args ...any) ([]model.AuditEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var result []model.AuditEvent
	for rows.Next() {
		var (
			event     model.AuditEvent
			action    string
			createdAt string
		)
		if err := rows.Scan(&event.ID, &event.IdentityID, &action, &event.Details, &event.OperationID, &createdAt); err != nil {
			return nil, err
		}
		if event.Action, err = model.ParseAction(action); err != nil {
			return nil, err
		}
		if event.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
