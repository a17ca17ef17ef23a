package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dtroode/signvault/internal/model"
)

var _ model.SignatureStore = (*SignatureRepository)(nil)

// SignatureRepository stores signature records in the signature_records table.
type SignatureRepository struct {
	db *sql.DB
}

func NewSignatureRepository(db *sql.DB) *SignatureRepository {
	return &SignatureRepository{db: db}
}

const signatureColumns = `id, signer_id, file_name, file_hash, signature, status, operation_id, created_at`

func scanSignature(row scanner) (model.SignatureRecord, error) {
	var (
		record    model.SignatureRecord
		createdAt string
	)
	err := row.Scan(
		&record.ID, &record.SignerID, &record.FileName, &record.FileHash,
		&record.Signature, &record.Status, &record.OperationID, &createdAt,
	)
	if err != nil {
		return model.SignatureRecord{}, err
	}
	if record.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.SignatureRecord{}, err
	}
	return record, nil
}

// CreatePending inserts record with status pending.
func (r *SignatureRepository) CreatePending(ctx context.Context, record model.SignatureRecord) (model.SignatureRecord, error) {
	query := `INSERT INTO signature_records (signer_id, file_name, file_hash, signature, status, operation_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query,
		record.SignerID, record.FileName, record.FileHash, record.Signature,
		model.SignatureStatusPending, record.OperationID, formatTime(record.CreatedAt),
	)
	if err != nil {
		return model.SignatureRecord{}, fmt.Errorf("failed to create signature record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.SignatureRecord{}, fmt.Errorf("failed to get signature record id: %w", err)
	}
	record.ID = id
	record.Status = model.SignatureStatusPending
	record.CreatedAt = record.CreatedAt.UTC()
	return record, nil
}

// Commit marks a pending record as committed.
func (r *SignatureRepository) Commit(ctx context.Context, id int64) error {
	query := `UPDATE signature_records SET status = ? WHERE id = ? AND status = ?`

	res, err := r.db.ExecContext(ctx, query, model.SignatureStatusCommitted, id, model.SignatureStatusPending)
	if err != nil {
		return fmt.Errorf("failed to commit signature record: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 1 {
		return nil
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return model.ErrAlreadyCommitted
}

func (r *SignatureRepository) GetByID(ctx context.Context, id int64) (model.SignatureRecord, error) {
	query := `SELECT ` + signatureColumns + ` FROM signature_records WHERE id = ?`

	record, err := scanSignature(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SignatureRecord{}, model.ErrNotFound
		}
		return model.SignatureRecord{}, fmt.Errorf("failed to get signature record by id: %w", err)
	}
	return record, nil
}

// List returns every signature record with its signer's username, newest first.
func (r *SignatureRepository) List(ctx context.Context) ([]model.SignatureListing, error) {
	query := `SELECT s.id, s.file_name, i.username, s.status, s.created_at
		FROM signature_records s
		JOIN identities i ON i.id = s.signer_id
		ORDER BY s.created_at DESC, s.id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list signature records: %w", err)
	}
	defer rows.Close()

	var result []model.SignatureListing
	for rows.Next() {
		var (
			item      model.SignatureListing
			createdAt string
		)
		if err := rows.Scan(&item.ID, &item.FileName, &item.SignerUsername, &item.Status, &createdAt); err != nil {
			return nil, err
		}
		if item.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListPending returns pending records created before createdBefore, oldest first.
func (r *SignatureRepository) ListPending(ctx context.Context, createdBefore time.Time) ([]model.SignatureRecord, error) {
	query := `SELECT ` + signatureColumns + ` FROM signature_records
		WHERE status = ? AND created_at < ?
		ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, model.SignatureStatusPending, formatTime(createdBefore))
	if err != nil {
		return nil, fmt.Errorf("failed to list pending signature records: %w", err)
	}
	defer rows.Close()

	var result []model.SignatureRecord
	for rows.Next() {
		record, err := scanSignature(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
