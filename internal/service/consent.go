package service

import (
	"context"
	"time"

	"github.com/hushh-labs/hushhmcp-server/internal/consent"
	"github.com/hushh-labs/hushhmcp-server/internal/logger"
	"github.com/hushh-labs/hushhmcp-server/internal/metrics"
)

// Consent wraps the token manager with logging and metrics. Both entry
// points are pure functions of their inputs plus the clock; the service
// is safe for concurrent use.
type Consent struct {
	manager *consent.Manager
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewConsent(manager *consent.Manager, logger *logger.Logger, metrics *metrics.Metrics) *Consent {
	return &Consent{manager: manager, logger: logger, metrics: metrics}
}

// IssueToken issues a consent token for the given grant.
func (s *Consent) IssueToken(ctx context.Context, userID, agentID string, scopes []consent.Scope, ttl time.Duration) (consent.Token, error) {
	token, err := s.manager.Issue(userID, agentID, scopes, ttl)
	if err != nil {
		s.logger.Warn("token issuance rejected",
			"user_id", userID,
			"agent_id", agentID,
			"error", err)
		return consent.Token{}, err
	}

	if s.metrics != nil {
		for _, scope := range token.Scopes.Slice() {
			s.metrics.IncrementTokensIssued(scope.String())
		}
	}
	s.logger.Info("consent token issued",
		"user_id", userID,
		"agent_id", agentID,
		"scope", token.Scopes.Wire(),
		"expires_at", token.ExpiresAt)

	return token, nil
}

// ValidateToken checks a presented token against the required scope.
// Every failure is a typed consent error; the caller decides how to
// surface it.
func (s *Consent) ValidateToken(ctx context.Context, raw string, required consent.Scope) (consent.Token, error) {
	token, err := s.manager.Validate(raw, required)
	if s.metrics != nil {
		s.metrics.IncrementTokenValidations(consent.Reason(err))
	}
	if err != nil {
		s.logger.Debug("token validation failed",
			"required_scope", required,
			"reason", consent.Reason(err))
		return consent.Token{}, err
	}
	return token, nil
}

// InspectToken verifies signature and expiry without requiring a
// particular scope. Used where results are trimmed to the token's own
// scope set rather than gated on one scope.
func (s *Consent) InspectToken(ctx context.Context, raw string) (consent.Token, error) {
	token, err := s.manager.Parse(raw)
	if s.metrics != nil {
		s.metrics.IncrementTokenValidations(consent.Reason(err))
	}
	if err != nil {
		s.logger.Debug("token inspection failed", "reason", consent.Reason(err))
		return consent.Token{}, err
	}
	return token, nil
}
