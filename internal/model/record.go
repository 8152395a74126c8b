package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// VaultStore defines persistence operations for vault records.
type VaultStore interface {
	Create(ctx context.Context, record VaultRecord) (VaultRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (VaultRecord, error)
	ListByUser(ctx context.Context, userID string) ([]VaultRecord, error)
	ListByUserAndScope(ctx context.Context, userID string, scope string) ([]VaultRecord, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// VaultRecord is one stored ciphertext envelope plus its ownership and
// consent metadata. The envelope fields are opaque to storage; only a
// caller holding the derived record key can open them.
type VaultRecord struct {
	ID          uuid.UUID
	UserID      string
	AgentID     string
	Scope       string
	Name        string
	Description string

	// Envelope fields. For large payloads the serialized envelope lives
	// in blob storage under S3Key and Ciphertext is empty.
	Ciphertext string
	IV         string
	Tag        string
	Encoding   string
	Algorithm  string
	S3Key      string

	RequestID uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// CreateVaultRecordParams contains parameters to create a vault record.
type CreateVaultRecordParams struct {
	UserID      string
	AgentID     string
	Scope       string
	Name        string
	Description string
	Payload     []byte
	RequestID   uuid.UUID
}
