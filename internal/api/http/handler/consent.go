package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hushh-labs/hushhmcp-server/internal/consent"
	"github.com/hushh-labs/hushhmcp-server/internal/logger"
)

// ConsentService defines the consent operations the handler needs.
type ConsentService interface {
	IssueToken(ctx context.Context, userID, agentID string, scopes []consent.Scope, ttl time.Duration) (consent.Token, error)
	ValidateToken(ctx context.Context, raw string, required consent.Scope) (consent.Token, error)
}

// Consent handles token issuance and validation endpoints.
type Consent struct {
	consents ConsentService
	logger   *logger.Logger
}

// NewConsent creates a new Consent handler.
func NewConsent(consents ConsentService, logger *logger.Logger) *Consent {
	return &Consent{consents: consents, logger: logger}
}

// Register registers the consent routes with the chi router.
func (h *Consent) Register(r chi.Router) {
	r.Post("/consent/token", h.handleIssueToken)
	r.Post("/consent/validate", h.handleValidateToken)
}

type issueTokenRequest struct {
	UserID      string `json:"user_id"`
	AgentID     string `json:"agent_id"`
	Scope       string `json:"scope"`
	ExpiresInMS int64  `json:"expires_in_ms"`
}

func (h *Consent) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req issueTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	scopes, err := consent.ParseScopeSet(req.Scope)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.consents.IssueToken(r.Context(), req.UserID, req.AgentID, scopes.Slice(), time.Duration(req.ExpiresInMS)*time.Millisecond)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, IssueTokenResponse{
		Token:     token.Raw,
		UserID:    token.UserID,
		AgentID:   token.AgentID,
		Scope:     token.Scopes.Wire(),
		IssuedAt:  token.IssuedAt,
		ExpiresAt: token.ExpiresAt,
	})
}

type validateTokenRequest struct {
	Token         string `json:"token"`
	ExpectedScope string `json:"expected_scope"`
}

// handleValidateToken is an inspection endpoint: it reports the outcome
// instead of failing the request, so agents can branch on the reason.
func (h *Consent) handleValidateToken(w http.ResponseWriter, r *http.Request) {
	var req validateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	scope, err := consent.ParseScope(req.ExpectedScope)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.consents.ValidateToken(r.Context(), req.Token, scope)
	if err != nil {
		if isValidationOutcome(err) {
			writeJSON(w, http.StatusOK, ValidateTokenResponse{Valid: false, Reason: consent.Reason(err)})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ValidateTokenResponse{
		Valid:  true,
		Reason: consent.Reason(nil),
		Token:  tokenClaims(token),
	})
}

// isValidationOutcome distinguishes expected validation failures from
// internal faults.
func isValidationOutcome(err error) bool {
	return errors.Is(err, consent.ErrMalformedToken) ||
		errors.Is(err, consent.ErrInvalidSignature) ||
		errors.Is(err, consent.ErrTokenExpired) ||
		errors.Is(err, consent.ErrScopeMismatch)
}
