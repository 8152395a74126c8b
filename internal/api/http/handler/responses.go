package handler

import (
	"time"

	"github.com/hushh-labs/hushhmcp-server/internal/consent"
	"github.com/hushh-labs/hushhmcp-server/internal/model"
)

// TokenClaims is the parsed-token shape returned by the consent endpoints.
type TokenClaims struct {
	UserID    string `json:"user_id"`
	AgentID   string `json:"agent_id"`
	Scope     string `json:"scope"`
	IssuedAt  int64  `json:"issued_at"`
	ExpiresAt int64  `json:"expires_at"`
}

func tokenClaims(t consent.Token) *TokenClaims {
	return &TokenClaims{
		UserID:    t.UserID,
		AgentID:   t.AgentID,
		Scope:     t.Scopes.Wire(),
		IssuedAt:  t.IssuedAt,
		ExpiresAt: t.ExpiresAt,
	}
}

// IssueTokenResponse is returned by the token issuance endpoint.
type IssueTokenResponse struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	AgentID   string `json:"agent_id"`
	Scope     string `json:"scope"`
	IssuedAt  int64  `json:"issued_at"`
	ExpiresAt int64  `json:"expires_at"`
}

// ValidateTokenResponse is returned by the validation endpoint. It is
// always HTTP 200; callers branch on Valid and Reason.
type ValidateTokenResponse struct {
	Valid  bool         `json:"valid"`
	Reason string       `json:"reason"`
	Token  *TokenClaims `json:"token,omitempty"`
}

// RecordResponse is vault record metadata. It never carries plaintext.
type RecordResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	AgentID     string     `json:"agent_id"`
	Scope       string     `json:"scope"`
	Name        string     `json:"name,omitempty"`
	Description string     `json:"description,omitempty"`
	Algorithm   string     `json:"algorithm"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// RecordDataResponse is a record plus its decrypted payload.
type RecordDataResponse struct {
	RecordResponse
	Payload []byte `json:"payload"`
}

func recordResponse(r model.VaultRecord) RecordResponse {
	return RecordResponse{
		ID:          r.ID.String(),
		UserID:      r.UserID,
		AgentID:     r.AgentID,
		Scope:       r.Scope,
		Name:        r.Name,
		Description: r.Description,
		Algorithm:   r.Algorithm,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
