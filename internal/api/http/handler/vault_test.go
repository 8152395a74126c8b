package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hushh-labs/hushhmcp-server/internal/consent"
	"github.com/hushh-labs/hushhmcp-server/internal/model"
	"github.com/hushh-labs/hushhmcp-server/internal/testutil"
)

type stubVaultService struct {
	record  model.VaultRecord
	records []model.VaultRecord
	payload []byte
	err     error

	gotToken  string
	gotUserID string
	gotScope  string
	gotParams model.CreateVaultRecordParams
	gotID     uuid.UUID
}

func (s *stubVaultService) CreateRecord(ctx context.Context, rawToken string, params model.CreateVaultRecordParams) (model.VaultRecord, error) {
	s.gotToken, s.gotParams = rawToken, params
	return s.record, s.err
}

func (s *stubVaultService) GetRecord(ctx context.Context, rawToken string, userID string, recordID uuid.UUID) (model.VaultRecord, []byte, error) {
	s.gotToken, s.gotUserID, s.gotID = rawToken, userID, recordID
	return s.record, s.payload, s.err
}

func (s *stubVaultService) ListRecords(ctx context.Context, rawToken string, userID string, scopeFilter string) ([]model.VaultRecord, error) {
	s.gotToken, s.gotUserID, s.gotScope = rawToken, userID, scopeFilter
	return s.records, s.err
}

func (s *stubVaultService) DeleteRecord(ctx context.Context, rawToken string, userID string, recordID uuid.UUID) error {
	s.gotToken, s.gotUserID, s.gotID = rawToken, userID, recordID
	return s.err
}

func newVaultRouter(svc *stubVaultService) http.Handler {
	r := chi.NewRouter()
	NewVault(svc, testutil.MakeNoopLogger()).Register(r)
	return r
}

func testRecord() model.VaultRecord {
	now := time.Now().UTC().Truncate(time.Second)
	return model.VaultRecord{
		ID:        uuid.New(),
		UserID:    "user-1",
		AgentID:   "agent_mailbot",
		Scope:     "vault.read.email",
		Name:      "inbox snapshot",
		Algorithm: "aes-256-gcm",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func authedRequest(method, path string, body []byte) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Authorization", "HushhConsent HCT:stub-token")
	return req
}

func TestVaultHandler_CreateRecord(t *testing.T) {
	svc := &stubVaultService{record: testRecord()}
	router := newVaultRouter(svc)

	requestID := uuid.New()
	body, err := json.Marshal(map[string]any{
		"scope":      "vault.read.email",
		"name":       "inbox snapshot",
		"payload":    []byte("hello"),
		"request_id": requestID.String(),
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/vault/user-1/records", body))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "HCT:stub-token", svc.gotToken)
	assert.Equal(t, "user-1", svc.gotParams.UserID)
	assert.Equal(t, "vault.read.email", svc.gotParams.Scope)
	assert.Equal(t, []byte("hello"), svc.gotParams.Payload)
	assert.Equal(t, requestID, svc.gotParams.RequestID)

	var resp RecordResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, svc.record.ID.String(), resp.ID)
	assert.Equal(t, "vault.read.email", resp.Scope)
}

func TestVaultHandler_CreateRecord_BadRequests(t *testing.T) {
	router := newVaultRouter(&stubVaultService{record: testRecord()})

	t.Run("invalid body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodPost, "/vault/user-1/records", []byte("{broken")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid request id", func(t *testing.T) {
		body, err := json.Marshal(map[string]any{
			"scope":      "vault.read.email",
			"payload":    []byte("hello"),
			"request_id": "not-a-uuid",
		})
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodPost, "/vault/user-1/records", body))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestVaultHandler_MissingToken(t *testing.T) {
	router := newVaultRouter(&stubVaultService{})
	recordID := uuid.NewString()

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
	}{
		{name: "no header create", method: http.MethodPost, path: "/vault/user-1/records"},
		{name: "no header list", method: http.MethodGet, path: "/vault/user-1/records"},
		{name: "no header get", method: http.MethodGet, path: "/vault/user-1/records/" + recordID},
		{name: "no header delete", method: http.MethodDelete, path: "/vault/user-1/records/" + recordID},
		{name: "wrong scheme", method: http.MethodGet, path: "/vault/user-1/records", auth: "Bearer HCT:stub-token"},
		{name: "empty token", method: http.MethodGet, path: "/vault/user-1/records", auth: "HushhConsent "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestVaultHandler_GetRecord(t *testing.T) {
	record := testRecord()
	svc := &stubVaultService{record: record, payload: []byte("secret payload")}
	router := newVaultRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/vault/user-1/records/"+record.ID.String(), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", svc.gotUserID)
	assert.Equal(t, record.ID, svc.gotID)

	var resp RecordDataResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, record.ID.String(), resp.ID)
	assert.Equal(t, []byte("secret payload"), resp.Payload)
}

func TestVaultHandler_GetRecord_InvalidID(t *testing.T) {
	router := newVaultRouter(&stubVaultService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/vault/user-1/records/not-a-uuid", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVaultHandler_ListRecords(t *testing.T) {
	svc := &stubVaultService{records: []model.VaultRecord{testRecord(), testRecord()}}
	router := newVaultRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/vault/user-1/records?scope=vault.read.email", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "vault.read.email", svc.gotScope)

	var resp []RecordResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp, 2)
}

func TestVaultHandler_ListRecords_Empty(t *testing.T) {
	router := newVaultRouter(&stubVaultService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/vault/user-1/records", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestVaultHandler_DeleteRecord(t *testing.T) {
	svc := &stubVaultService{}
	router := newVaultRouter(svc)
	recordID := uuid.New()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodDelete, "/vault/user-1/records/"+recordID.String(), nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, recordID, svc.gotID)
}

func TestVaultHandler_ErrorMapping(t *testing.T) {
	recordID := uuid.NewString()

	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "expired token", err: consent.ErrTokenExpired, wantCode: http.StatusUnauthorized},
		{name: "bad signature", err: consent.ErrInvalidSignature, wantCode: http.StatusUnauthorized},
		{name: "scope mismatch", err: consent.ErrScopeMismatch, wantCode: http.StatusForbidden},
		{name: "foreign vault", err: model.ErrPermissionDenied, wantCode: http.StatusForbidden},
		{name: "missing record", err: model.ErrNotFound, wantCode: http.StatusNotFound},
		{name: "unknown scope", err: consent.ErrUnknownScope, wantCode: http.StatusBadRequest},
		{name: "storage failure", err: assert.AnError, wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newVaultRouter(&stubVaultService{err: tt.err})

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, authedRequest(http.MethodGet, "/vault/user-1/records/"+recordID, nil))

			assert.Equal(t, tt.wantCode, rec.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
			if tt.wantCode == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", resp.Error)
			}
		})
	}
}
