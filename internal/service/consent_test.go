package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hushh-labs/hushhmcp-server/internal/consent"
	"github.com/hushh-labs/hushhmcp-server/internal/metrics"
	"github.com/hushh-labs/hushhmcp-server/internal/testutil"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newConsentService(t *testing.T) *Consent {
	t.Helper()
	manager, err := consent.NewManager(testSecret)
	require.NoError(t, err)
	return NewConsent(manager, testutil.MakeNoopLogger(), metrics.New(prometheus.NewRegistry()))
}

func TestConsent_IssueAndValidate(t *testing.T) {
	s := newConsentService(t)
	ctx := context.Background()

	token, err := s.IssueToken(ctx, "u1", "mailerpanda", []consent.Scope{consent.ScopeReadEmail}, time.Hour)
	require.NoError(t, err)

	got, err := s.ValidateToken(ctx, token.Raw, consent.ScopeReadEmail)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "mailerpanda", got.AgentID)
}

func TestConsent_IssueRejectsBadArguments(t *testing.T) {
	s := newConsentService(t)
	ctx := context.Background()

	_, err := s.IssueToken(ctx, "", "agent", []consent.Scope{consent.ScopeReadEmail}, time.Hour)
	require.ErrorIs(t, err, consent.ErrInvalidArgument)

	_, err = s.IssueToken(ctx, "u1", "agent", []consent.Scope{"bogus"}, time.Hour)
	require.ErrorIs(t, err, consent.ErrUnknownScope)
}

func TestConsent_ValidateFailuresAreTyped(t *testing.T) {
	s := newConsentService(t)
	ctx := context.Background()

	_, err := s.ValidateToken(ctx, "not a token", consent.ScopeReadEmail)
	require.ErrorIs(t, err, consent.ErrMalformedToken)

	token, err := s.IssueToken(ctx, "u1", "agent", []consent.Scope{consent.ScopeReadEmail}, time.Hour)
	require.NoError(t, err)

	_, err = s.ValidateToken(ctx, token.Raw, consent.ScopeWriteEmail)
	require.ErrorIs(t, err, consent.ErrScopeMismatch)
}

func TestConsent_InspectToken(t *testing.T) {
	s := newConsentService(t)
	ctx := context.Background()

	token, err := s.IssueToken(ctx, "u1", "agent", []consent.Scope{consent.ScopeReadEmail, consent.ScopeReadFile}, time.Hour)
	require.NoError(t, err)

	got, err := s.InspectToken(ctx, token.Raw)
	require.NoError(t, err)
	assert.True(t, got.Scopes.Contains(consent.ScopeReadEmail))
	assert.True(t, got.Scopes.Contains(consent.ScopeReadFile))

	_, err = s.InspectToken(ctx, "garbage")
	require.ErrorIs(t, err, consent.ErrMalformedToken)
}
