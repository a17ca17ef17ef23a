package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dtroode/signvault/internal/model"
)

var _ model.SignatureStore = (*SignatureRepository)(nil)

type SignatureRepository struct {
	db *Connection
}

func NewSignatureRepository(db *Connection) *SignatureRepository {
	return &SignatureRepository{
		db: db,
	}
}

const signatureColumns = `id, signer_id, file_name, file_hash, signature, status, operation_id, created_at`

func scanSignature(row pgx.Row) (model.SignatureRecord, error) {
	var record model.SignatureRecord
	err := row.Scan(
		&record.ID, &record.SignerID, &record.FileName, &record.FileHash,
		&record.Signature, &record.Status, &record.OperationID, &record.CreatedAt,
	)
	return record, err
}

func (r *SignatureRepository) CreatePending(ctx context.Context, record model.SignatureRecord) (model.SignatureRecord, error) {
	query := `INSERT INTO signature_records (signer_id, file_name, file_hash, signature, status, operation_id, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING ` + signatureColumns

	saved, err := scanSignature(r.db.QueryRow(ctx, query,
		record.SignerID, record.FileName, record.FileHash, record.Signature,
		model.SignatureStatusPending, record.OperationID, record.CreatedAt,
	))
	if err != nil {
		return model.SignatureRecord{}, fmt.Errorf("failed to create signature record: %w", err)
	}

	return saved, nil
}

func (r *SignatureRepository) Commit(ctx context.Context, id int64) error {
	query := `UPDATE signature_records SET status = $1 WHERE id = $2 AND status = $3`

	tag, err := r.db.Exec(ctx, query, model.SignatureStatusCommitted, id, model.SignatureStatusPending)
	if err != nil {
		return fmt.Errorf("failed to commit signature record: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return model.ErrAlreadyCommitted
}

func (r *SignatureRepository) GetByID(ctx context.Context, id int64) (model.SignatureRecord, error) {
	query := `SELECT ` + signatureColumns + ` FROM signature_records WHERE id = $1`

	record, err := scanSignature(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.SignatureRecord{}, model.ErrNotFound
		}
		return model.SignatureRecord{}, fmt.Errorf("failed to get signature record by id: %w", err)
	}

	return record, nil
}

func (r *SignatureRepository) List(ctx context.Context) ([]model.SignatureListing, error) {
	query := `
		SELECT s.id, s.file_name, i.username, s.status, s.created_at
		FROM signature_records s
		JOIN identities i ON i.id = s.signer_id
		ORDER BY s.created_at DESC, s.id DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list signature records: %w", err)
	}
	defer rows.Close()

	var listings []model.SignatureListing
	for rows.Next() {
		var listing model.SignatureListing
		err := rows.Scan(
			&listing.ID, &listing.FileName, &listing.SignerUsername, &listing.Status, &listing.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return listings, nil
}

func (r *SignatureRepository) ListPending(ctx context.Context, createdBefore time.Time) ([]model.SignatureRecord, error) {
	query := `SELECT ` + signatureColumns + `
		FROM signature_records
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, model.SignatureStatusPending, createdBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending signature records: %w", err)
	}
	defer rows.Close()

	var records []model.SignatureRecord
	for rows.Next() {
		record, err := scanSignature(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}
