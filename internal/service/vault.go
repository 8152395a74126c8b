package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/hushh-labs/hushhmcp-server/internal/consent"
	"github.com/hushh-labs/hushhmcp-server/internal/logger"
	"github.com/hushh-labs/hushhmcp-server/internal/metrics"
	"github.com/hushh-labs/hushhmcp-server/internal/model"
	storage "github.com/hushh-labs/hushhmcp-server/internal/storage/minio"
	"github.com/hushh-labs/hushhmcp-server/internal/vault"
)

// TokenValidator resolves a raw consent token against a required scope.
type TokenValidator interface {
	ValidateToken(ctx context.Context, raw string, required consent.Scope) (consent.Token, error)
	InspectToken(ctx context.Context, raw string) (consent.Token, error)
}

// Vault provides token-gated access to encrypted records. A record is
// vaulted under exactly one consent scope: the same scope gated its
// creation and gates every later read or delete. There is no
// broader-scope fallback.
type Vault struct {
	consents    TokenValidator
	store       model.VaultStore
	blobs       model.BlobStorage
	masterKey   []byte
	inlineLimit int
	logger      *logger.Logger
	metrics     *metrics.Metrics
}

func NewVault(
	consents TokenValidator,
	store model.VaultStore,
	blobs model.BlobStorage,
	masterKey []byte,
	inlineLimit int,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Vault {
	return &Vault{
		consents:    consents,
		store:       store,
		blobs:       blobs,
		masterKey:   masterKey,
		inlineLimit: inlineLimit,
		logger:      logger,
		metrics:     metrics,
	}
}

// CreateRecord encrypts the payload and persists the envelope. The token
// must grant params.Scope and belong to params.UserID; owner and agent
// identity come from the validated token, never from the caller.
func (s *Vault) CreateRecord(ctx context.Context, rawToken string, params model.CreateVaultRecordParams) (model.VaultRecord, error) {
	defer s.observe("create", time.Now())

	scope, err := consent.ParseScope(params.Scope)
	if err != nil {
		return model.VaultRecord{}, err
	}

	token, err := s.consents.ValidateToken(ctx, rawToken, scope)
	if err != nil {
		s.count("create", "denied")
		return model.VaultRecord{}, err
	}
	if token.UserID != params.UserID {
		s.count("create", "denied")
		return model.VaultRecord{}, fmt.Errorf("%w: token user does not own the vault", model.ErrPermissionDenied)
	}

	key, err := vault.DeriveKey(s.masterKey, token.UserID, scope.String())
	if err != nil {
		return model.VaultRecord{}, fmt.Errorf("failed to derive record key: %w", err)
	}
	env, err := vault.Encrypt(params.Payload, key)
	if err != nil {
		return model.VaultRecord{}, fmt.Errorf("failed to encrypt payload: %w", err)
	}

	record := model.VaultRecord{
		ID:          uuid.New(),
		UserID:      token.UserID,
		AgentID:     token.AgentID,
		Scope:       scope.String(),
		Name:        params.Name,
		Description: params.Description,
		RequestID:   params.RequestID,
	}

	if len(params.Payload) > s.inlineLimit {
		record.S3Key = storage.ObjectKey(token.UserID, record.ID)
		serialized, err := json.Marshal(env)
		if err != nil {
			return model.VaultRecord{}, fmt.Errorf("failed to serialize envelope: %w", err)
		}
		if err := s.blobs.Upload(ctx, record.S3Key, bytes.NewReader(serialized)); err != nil {
			return model.VaultRecord{}, fmt.Errorf("failed to upload envelope: %w", err)
		}
		record.Encoding = env.Encoding
		record.Algorithm = env.Algorithm
	} else {
		record.Ciphertext = env.Ciphertext
		record.IV = env.IV
		record.Tag = env.Tag
		record.Encoding = env.Encoding
		record.Algorithm = env.Algorithm
	}

	saved, err := s.store.Create(ctx, record)
	if err != nil {
		s.count("create", "error")
		return model.VaultRecord{}, fmt.Errorf("failed to save record: %w", err)
	}

	if s.metrics != nil {
		s.metrics.ObserveEnvelopeSize(float64(len(params.Payload)))
	}
	s.count("create", "ok")
	s.logger.Info("vault record created",
		"record_id", saved.ID,
		"user_id", saved.UserID,
		"agent_id", saved.AgentID,
		"scope", saved.Scope,
		"inline", saved.S3Key == "")

	return saved, nil
}

// GetRecord fetches a record, checks the token against the record's
// scope and owner, and returns the decrypted payload.
func (s *Vault) GetRecord(ctx context.Context, rawToken string, userID string, recordID uuid.UUID) (model.VaultRecord, []byte, error) {
	defer s.observe("get", time.Now())

	record, err := s.loadAuthorized(ctx, rawToken, userID, recordID, "get")
	if err != nil {
		return model.VaultRecord{}, nil, err
	}

	env, err := s.loadEnvelope(ctx, record)
	if err != nil {
		s.count("get", "error")
		return model.VaultRecord{}, nil, err
	}

	key, err := vault.DeriveKey(s.masterKey, record.UserID, record.Scope)
	if err != nil {
		return model.VaultRecord{}, nil, fmt.Errorf("failed to derive record key: %w", err)
	}
	payload, err := vault.Decrypt(env, key)
	if err != nil {
		s.count("get", "error")
		return model.VaultRecord{}, nil, fmt.Errorf("failed to open envelope for record %s: %w", record.ID, err)
	}

	s.count("get", "ok")
	return record, payload, nil
}

// ListRecords returns metadata for the user's records vaulted under the
// scopes the token grants. With a scope filter only that scope is
// listed, and the token must grant it.
func (s *Vault) ListRecords(ctx context.Context, rawToken string, userID string, scopeFilter string) ([]model.VaultRecord, error) {
	defer s.observe("list", time.Now())

	if scopeFilter != "" {
		scope, err := consent.ParseScope(scopeFilter)
		if err != nil {
			return nil, err
		}
		token, err := s.consents.ValidateToken(ctx, rawToken, scope)
		if err != nil {
			s.count("list", "denied")
			return nil, err
		}
		if token.UserID != userID {
			s.count("list", "denied")
			return nil, fmt.Errorf("%w: token user does not own the vault", model.ErrPermissionDenied)
		}
		records, err := s.store.ListByUserAndScope(ctx, userID, scope.String())
		if err != nil {
			s.count("list", "error")
			return nil, fmt.Errorf("failed to list records: %w", err)
		}
		s.count("list", "ok")
		return records, nil
	}

	// No filter: the union of what the token's scopes can see.
	token, err := s.consents.InspectToken(ctx, rawToken)
	if err != nil {
		s.count("list", "denied")
		return nil, err
	}
	if token.UserID != userID {
		s.count("list", "denied")
		return nil, fmt.Errorf("%w: token user does not own the vault", model.ErrPermissionDenied)
	}

	all, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		s.count("list", "error")
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	visible := make([]model.VaultRecord, 0, len(all))
	for _, record := range all {
		if token.Scopes.Contains(consent.Scope(record.Scope)) {
			visible = append(visible, record)
		}
	}
	s.count("list", "ok")
	return visible, nil
}

// DeleteRecord soft-deletes a record and removes its blob if one exists.
func (s *Vault) DeleteRecord(ctx context.Context, rawToken string, userID string, recordID uuid.UUID) error {
	defer s.observe("delete", time.Now())

	record, err := s.loadAuthorized(ctx, rawToken, userID, recordID, "delete")
	if err != nil {
		return err
	}

	if err := s.store.SoftDelete(ctx, record.ID); err != nil {
		s.count("delete", "error")
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if record.S3Key != "" {
		if err := s.blobs.Delete(ctx, record.S3Key); err != nil {
			// The row is already tombstoned; the orphaned blob is
			// unreadable ciphertext.
			s.logger.Error("failed to delete record blob",
				"record_id", record.ID,
				"s3_key", record.S3Key,
				"error", err)
		}
	}

	s.count("delete", "ok")
	s.logger.Info("vault record deleted", "record_id", record.ID, "user_id", record.UserID)
	return nil
}

// loadAuthorized fetches a record and enforces scope plus ownership.
// The record is looked up first so the required scope is known; the
// caller still learns nothing about foreign records, both denied access
// and absence surface as not-found or permission errors.
func (s *Vault) loadAuthorized(ctx context.Context, rawToken, userID string, recordID uuid.UUID, op string) (model.VaultRecord, error) {
	record, err := s.store.GetByID(ctx, recordID)
	if err != nil {
		s.count(op, "not_found")
		return model.VaultRecord{}, err
	}
	if record.UserID != userID {
		s.count(op, "denied")
		return model.VaultRecord{}, model.ErrNotFound
	}

	token, err := s.consents.ValidateToken(ctx, rawToken, consent.Scope(record.Scope))
	if err != nil {
		s.count(op, "denied")
		return model.VaultRecord{}, err
	}
	if token.UserID != record.UserID {
		s.count(op, "denied")
		return model.VaultRecord{}, fmt.Errorf("%w: token user does not own the record", model.ErrPermissionDenied)
	}

	return record, nil
}

func (s *Vault) loadEnvelope(ctx context.Context, record model.VaultRecord) (vault.Envelope, error) {
	if record.S3Key == "" {
		return vault.Envelope{
			Ciphertext: record.Ciphertext,
			IV:         record.IV,
			Tag:        record.Tag,
			Encoding:   record.Encoding,
			Algorithm:  record.Algorithm,
		}, nil
	}

	rc, err := s.blobs.Download(ctx, record.S3Key)
	if err != nil {
		return vault.Envelope{}, fmt.Errorf("failed to download envelope: %w", err)
	}
	defer rc.Close()

	serialized, err := io.ReadAll(rc)
	if err != nil {
		return vault.Envelope{}, fmt.Errorf("failed to read envelope: %w", err)
	}
	var env vault.Envelope
	if err := json.Unmarshal(serialized, &env); err != nil {
		return vault.Envelope{}, fmt.Errorf("failed to parse envelope: %w", err)
	}
	return env, nil
}

func (s *Vault) observe(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveVaultOpLatency(op, time.Since(start).Seconds())
	}
}

func (s *Vault) count(op, result string) {
	if s.metrics != nil {
		s.metrics.IncrementVaultOperations(op, result)
	}
}
