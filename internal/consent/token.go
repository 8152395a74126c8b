// Package consent implements the HushhMCP consent token: a signed,
// time-bound, scope-bound capability credential issued to an agent on
// behalf of a user.
//
// Wire format: "HCT:" + base64url(JSON claims) + "|" + hex(HMAC-SHA256).
// The signature covers the exact claim bytes embedded in the token, so
// any mutation of the claims or the signature segment invalidates it.
package consent

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	// TokenPrefix identifies the token format and version.
	TokenPrefix = "HCT:"

	// MinSecretLen is the minimum signing secret length in bytes.
	MinSecretLen = 32

	signatureSeparator = "|"
)

// Token is an immutable consent grant. It is constructed by Issue or by
// parsing inside Validate and never mutated afterward; re-issuance is the
// only update path.
type Token struct {
	UserID    string
	AgentID   string
	Scopes    ScopeSet
	IssuedAt  int64 // milliseconds since epoch
	ExpiresAt int64 // milliseconds since epoch
	Raw       string
}

// claims is the canonical JSON claim object embedded in the token.
type claims struct {
	UserID    string `json:"user_id"`
	AgentID   string `json:"agent_id"`
	Scope     string `json:"scope"`
	IssuedAt  int64  `json:"issued_at"`
	ExpiresAt int64  `json:"expires_at"`
}

// Manager issues and validates consent tokens with a process-wide signing
// secret. It holds no other state and is safe for concurrent use.
type Manager struct {
	secret []byte
	now    func() time.Time
}

// NewManager creates a Manager. The secret must be at least MinSecretLen
// bytes; a shorter secret is a configuration error, not a runtime one.
func NewManager(secret string) (*Manager, error) {
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("%w: got %d bytes, need at least %d", ErrWeakSecret, len(secret), MinSecretLen)
	}
	return &Manager{secret: []byte(secret), now: time.Now}, nil
}

// Issue creates a signed token granting the given scopes to agentID on
// behalf of userID for the ttl duration.
//
// Bad arguments are programmer errors from the calling agent and are
// reported as ErrInvalidArgument / ErrUnknownScope.
func (m *Manager) Issue(userID, agentID string, scopes []Scope, ttl time.Duration) (Token, error) {
	if userID == "" {
		return Token{}, fmt.Errorf("%w: empty user id", ErrInvalidArgument)
	}
	if agentID == "" {
		return Token{}, fmt.Errorf("%w: empty agent id", ErrInvalidArgument)
	}
	if ttl <= 0 {
		return Token{}, fmt.Errorf("%w: non-positive ttl %v", ErrInvalidArgument, ttl)
	}
	set, err := NewScopeSet(scopes...)
	if err != nil {
		return Token{}, err
	}

	issuedAt := m.now().UnixMilli()
	c := claims{
		UserID:    userID,
		AgentID:   agentID,
		Scope:     set.Wire(),
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt + ttl.Milliseconds(),
	}

	payload, err := json.Marshal(c)
	if err != nil {
		return Token{}, fmt.Errorf("failed to marshal claims: %w", err)
	}
	sig := m.sign(payload)

	raw := TokenPrefix + base64.RawURLEncoding.EncodeToString(payload) + signatureSeparator + hex.EncodeToString(sig)

	return Token{
		UserID:    c.UserID,
		AgentID:   c.AgentID,
		Scopes:    set,
		IssuedAt:  c.IssuedAt,
		ExpiresAt: c.ExpiresAt,
		Raw:       raw,
	}, nil
}

// Validate checks a caller-supplied token string against the required
// scope. Checks run in a fixed order: format, signature, expiry, scope.
// Every failure mode is converted into a typed error so callers can
// branch uniformly; arbitrary input never causes a panic. Use Reason to
// obtain the stable human-readable reason string.
func (m *Manager) Validate(raw string, required Scope) (Token, error) {
	token, err := m.Parse(raw)
	if err != nil {
		return Token{}, err
	}
	if !token.Scopes.Contains(required) {
		return Token{}, fmt.Errorf("%w: token grants %q, operation requires %q", ErrScopeMismatch, token.Scopes.Wire(), required)
	}
	return token, nil
}

// Parse verifies format, signature and expiry without checking any
// particular scope. Gated operations go through Validate; Parse serves
// callers that trim results to whatever scopes the token carries.
func (m *Manager) Parse(raw string) (Token, error) {
	payload, sig, err := splitToken(raw)
	if err != nil {
		return Token{}, err
	}

	if !hmac.Equal(sig, m.sign(payload)) {
		return Token{}, ErrInvalidSignature
	}

	var c claims
	if err := json.Unmarshal(payload, &c); err != nil {
		return Token{}, fmt.Errorf("%w: bad claims: %v", ErrMalformedToken, err)
	}
	if c.UserID == "" || c.AgentID == "" {
		return Token{}, fmt.Errorf("%w: missing identity claims", ErrMalformedToken)
	}
	set, err := ParseScopeSet(c.Scope)
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	if m.now().UnixMilli() >= c.ExpiresAt {
		return Token{}, ErrTokenExpired
	}

	return Token{
		UserID:    c.UserID,
		AgentID:   c.AgentID,
		Scopes:    set,
		IssuedAt:  c.IssuedAt,
		ExpiresAt: c.ExpiresAt,
		Raw:       raw,
	}, nil
}

func (m *Manager) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write(payload)
	return mac.Sum(nil)
}

func splitToken(raw string) (payload, sig []byte, err error) {
	body, ok := strings.CutPrefix(raw, TokenPrefix)
	if !ok {
		return nil, nil, fmt.Errorf("%w: missing %q prefix", ErrMalformedToken, TokenPrefix)
	}
	encodedPayload, encodedSig, ok := strings.Cut(body, signatureSeparator)
	if !ok {
		return nil, nil, fmt.Errorf("%w: missing signature separator", ErrMalformedToken)
	}
	payload, err = base64.RawURLEncoding.DecodeString(encodedPayload)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: bad claims encoding: %v", ErrMalformedToken, err)
	}
	sig, err = hex.DecodeString(encodedSig)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: bad signature encoding: %v", ErrMalformedToken, err)
	}
	return payload, sig, nil
}
