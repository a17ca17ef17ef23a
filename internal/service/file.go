package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/signvault/internal/digest"
	"github.com/dtroode/signvault/internal/keypair"
	"github.com/dtroode/signvault/internal/logger"
	"github.com/dtroode/signvault/internal/model"
	"github.com/dtroode/signvault/internal/signature"
)

// File signs uploaded files, stores them and checks their integrity later.
type File struct {
	signatures model.SignatureStore
	identities model.IdentityStore
	storage    model.Storage
	keys       model.KeyStore
	auditor    auditor
	logger     *logger.Logger
	now        func() time.Time
}

func NewFile(
	signatures model.SignatureStore,
	identities model.IdentityStore,
	audit model.AuditStore,
	storage model.Storage,
	keys model.KeyStore,
	logger *logger.Logger,
) *File {
	return &File{
		signatures: signatures,
		identities: identities,
		storage:    storage,
		keys:       keys,
		auditor:    auditor{store: audit, now: time.Now},
		logger:     logger,
		now:        time.Now,
	}
}

func validFileName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return false
	}
	return filepath.Base(name) == name
}

// SignAndStore signs fileBytes with the signer's private key and stores the
// file under fileName, replacing any previous file of that name.
//
// The signature record is created pending before the write and committed
// after it. A failure after the record exists returns *model.IncompleteUploadError
// naming the stage, and the pending record is left for reconciliation.
func (s *File) SignAndStore(ctx context.Context, fileBytes []byte, fileName string, signer model.Identity) (model.SignatureRecord, error) {
	s.logger.Debug("File service: signing file", "file_name", fileName, "signer_id", signer.ID)

	if !validFileName(fileName) {
		return model.SignatureRecord{}, model.NewValidationError(model.ReasonInvalidFileName)
	}
	if signer.ID == 0 {
		return model.SignatureRecord{}, model.NewValidationError(model.ReasonSignerRequired)
	}

	// Reload so the key material is current and never taken from the caller.
	signer, err := s.identities.GetByID(ctx, signer.ID)
	if errors.Is(err, model.ErrNotFound) {
		return model.SignatureRecord{}, model.NewValidationError(model.ReasonUserNotFound)
	}
	if err != nil {
		return model.SignatureRecord{}, fmt.Errorf("%w: failed to get signer: %w", model.ErrPersistence, err)
	}

	encodedKey, err := s.keys.PrivateKey(ctx, signer)
	if err != nil {
		return model.SignatureRecord{}, fmt.Errorf("%w: failed to resolve private key: %w", model.ErrCrypto, err)
	}
	privateKey, err := keypair.DecodePrivate(encodedKey)
	if err != nil {
		return model.SignatureRecord{}, fmt.Errorf("%w: failed to decode private key: %w", model.ErrCrypto, err)
	}

	fileHash := digest.Sum(fileBytes)
	sig, err := signature.Sign(fileBytes, privateKey)
	if err != nil {
		return model.SignatureRecord{}, fmt.Errorf("%w: failed to sign file: %w", model.ErrCrypto, err)
	}

	operationID := uuid.New()
	record, err := s.signatures.CreatePending(ctx, model.SignatureRecord{
		SignerID:    signer.ID,
		FileName:    fileName,
		FileHash:    base64.StdEncoding.EncodeToString(fileHash[:]),
		Signature:   base64.StdEncoding.EncodeToString(sig),
		OperationID: operationID,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		s.logger.Error("File service: failed to create signature record", "error", err)
		return model.SignatureRecord{}, fmt.Errorf("%w: failed to create signature record: %w", model.ErrPersistence, err)
	}

	if err := s.storage.Write(ctx, fileName, bytes.NewReader(fileBytes)); err != nil {
		s.logger.Error("File service: failed to write file",
			"signature_id", record.ID, "operation_id", operationID, "error", err)
		return model.SignatureRecord{}, &model.IncompleteUploadError{
			SignatureID: record.ID,
			FileName:    fileName,
			Stage:       model.StageWrite,
			Err:         fmt.Errorf("%w: failed to write file: %w", model.ErrStorage, err),
		}
	}

	if err := s.signatures.Commit(ctx, record.ID); err != nil {
		s.logger.Error("File service: failed to commit signature record",
			"signature_id", record.ID, "operation_id", operationID, "error", err)
		return model.SignatureRecord{}, &model.IncompleteUploadError{
			SignatureID: record.ID,
			FileName:    fileName,
			Stage:       model.StageCommit,
			Err:         fmt.Errorf("%w: failed to commit signature record: %w", model.ErrPersistence, err),
		}
	}
	record.Status = model.SignatureStatusCommitted

	if err := s.auditor.record(ctx, ref(signer.ID), model.ActionFileUpload, fileName, operationID); err != nil {
		return record, fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}

	s.logger.Info("File service: file signed and stored",
		"signature_id", record.ID, "file_name", fileName, "operation_id", operationID)
	return record, nil
}

// Verify checks the stored file of signature record id against its signature
// and the signer's public key. Tampered and missing files are verdicts, not errors.
// requester attributes the audit entry; a zero identity leaves it unattributed.
func (s *File) Verify(ctx context.Context, id int64, requester model.Identity) (model.Verdict, error) {
	s.logger.Debug("File service: verifying signature", "signature_id", id)

	record, err := s.getRecord(ctx, id)
	if err != nil {
		return "", err
	}

	verdict, err := s.verdict(ctx, record)
	if err != nil {
		return "", err
	}

	details := fmt.Sprintf("signature=%d verdict=%s", record.ID, verdict)
	if err := s.auditor.record(ctx, actorOf(requester), model.ActionFileVerified, details, uuid.New()); err != nil {
		return verdict, fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}

	s.logger.Info("File service: signature verified", "signature_id", record.ID, "verdict", verdict)
	return verdict, nil
}

func (s *File) verdict(ctx context.Context, record model.SignatureRecord) (model.Verdict, error) {
	if record.Status != model.SignatureStatusCommitted {
		return model.VerdictPending, nil
	}

	signer, err := s.identities.GetByID(ctx, record.SignerID)
	if err != nil {
		return "", fmt.Errorf("%w: failed to get signer: %w", model.ErrPersistence, err)
	}
	encodedKey, err := s.keys.PublicKey(ctx, signer)
	if err != nil {
		return "", fmt.Errorf("%w: failed to resolve public key: %w", model.ErrCrypto, err)
	}
	publicKey, err := keypair.DecodePublic(encodedKey)
	if err != nil {
		return "", fmt.Errorf("%w: failed to decode public key: %w", model.ErrCrypto, err)
	}
	sig, err := base64.StdEncoding.DecodeString(record.Signature)
	if err != nil {
		return "", fmt.Errorf("%w: failed to decode stored signature: %w", model.ErrCrypto, err)
	}

	rc, err := s.storage.Read(ctx, record.FileName)
	if errors.Is(err, model.ErrFileNotFound) {
		s.logger.Warn("File service: stored file missing", "signature_id", record.ID, "file_name", record.FileName)
		return model.VerdictFileMissing, nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: failed to read file: %w", model.ErrStorage, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read file: %w", model.ErrStorage, err)
	}

	ok, err := signature.Verify(content, sig, publicKey)
	if err != nil {
		return "", fmt.Errorf("%w: failed to verify signature: %w", model.ErrCrypto, err)
	}
	if !ok {
		s.logger.Warn("File service: stored file does not match its signature", "signature_id", record.ID)
		return model.VerdictTampered, nil
	}
	return model.VerdictIntact, nil
}

// Open returns the stored file of a committed signature record along with the record.
// The caller closes the reader.
func (s *File) Open(ctx context.Context, id int64, requester model.Identity) (io.ReadCloser, model.SignatureRecord, error) {
	s.logger.Debug("File service: opening file", "signature_id", id)

	record, err := s.getRecord(ctx, id)
	if err != nil {
		return nil, model.SignatureRecord{}, err
	}
	if record.Status != model.SignatureStatusCommitted {
		return nil, model.SignatureRecord{}, fmt.Errorf("%w: upload of signature %d never completed", model.ErrFileNotFound, id)
	}

	rc, err := s.storage.Read(ctx, record.FileName)
	if errors.Is(err, model.ErrFileNotFound) {
		return nil, model.SignatureRecord{}, err
	}
	if err != nil {
		return nil, model.SignatureRecord{}, fmt.Errorf("%w: failed to read file: %w", model.ErrStorage, err)
	}

	if err := s.auditor.record(ctx, actorOf(requester), model.ActionFileDownload, record.FileName, record.OperationID); err != nil {
		_ = rc.Close()
		return nil, model.SignatureRecord{}, fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}

	s.logger.Info("File service: file opened", "signature_id", record.ID, "file_name", record.FileName)
	return rc, record, nil
}

// List returns every signature record with its signer's username, newest first.
func (s *File) List(ctx context.Context) ([]model.SignatureListing, error) {
	listings, err := s.signatures.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list signature records: %w", model.ErrPersistence, err)
	}
	return listings, nil
}

// Pending returns signature records still pending after olderThan, for reconciliation.
func (s *File) Pending(ctx context.Context, olderThan time.Duration) ([]model.SignatureRecord, error) {
	records, err := s.signatures.ListPending(ctx, s.now().UTC().Add(-olderThan))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list pending signature records: %w", model.ErrPersistence, err)
	}
	return records, nil
}

func (s *File) getRecord(ctx context.Context, id int64) (model.SignatureRecord, error) {
	record, err := s.signatures.GetByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return model.SignatureRecord{}, fmt.Errorf("signature %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.SignatureRecord{}, fmt.Errorf("%w: failed to get signature record: %w", model.ErrPersistence, err)
	}
	return record, nil
}

func actorOf(identity model.Identity) *int64 {
	if identity.ID == 0 {
		return nil
	}
	return ref(identity.ID)
}
