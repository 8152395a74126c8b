package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hushh-labs/hushhmcp-server/internal/logger"
	"github.com/hushh-labs/hushhmcp-server/internal/model"
)

// consentScheme is the Authorization scheme carrying the consent token.
const consentScheme = "HushhConsent"

// VaultService defines the vault operations the handler needs.
type VaultService interface {
	CreateRecord(ctx context.Context, rawToken string, params model.CreateVaultRecordParams) (model.VaultRecord, error)
	GetRecord(ctx context.Context, rawToken string, userID string, recordID uuid.UUID) (model.VaultRecord, []byte, error)
	ListRecords(ctx context.Context, rawToken string, userID string, scopeFilter string) ([]model.VaultRecord, error)
	DeleteRecord(ctx context.Context, rawToken string, userID string, recordID uuid.UUID) error
}

// Vault handles the encrypted record endpoints.
type Vault struct {
	vaults VaultService
	logger *logger.Logger
}

// NewVault creates a new Vault handler.
func NewVault(vaults VaultService, logger *logger.Logger) *Vault {
	return &Vault{vaults: vaults, logger: logger}
}

// Register registers the vault routes with the chi router.
func (h *Vault) Register(r chi.Router) {
	r.Route("/vault/{userID}/records", func(r chi.Router) {
		r.Post("/", h.handleCreateRecord)
		r.Get("/", h.handleListRecords)
		r.Get("/{recordID}", h.handleGetRecord)
		r.Delete("/{recordID}", h.handleDeleteRecord)
	})
}

// consentToken extracts the consent token from the Authorization header.
func consentToken(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(auth, " ")
	if !found || scheme != consentScheme || token == "" {
		return "", errMissingToken
	}
	return token, nil
}

type createRecordRequest struct {
	Scope       string `json:"scope"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Payload     []byte `json:"payload"`
	RequestID   string `json:"request_id"`
}

func (h *Vault) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	token, err := consentToken(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	params := model.CreateVaultRecordParams{
		UserID:      chi.URLParam(r, "userID"),
		Scope:       req.Scope,
		Name:        req.Name,
		Description: req.Description,
		Payload:     req.Payload,
	}
	if req.RequestID != "" {
		requestID, err := uuid.Parse(req.RequestID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request_id"})
			return
		}
		params.RequestID = requestID
	}

	record, err := h.vaults.CreateRecord(r.Context(), token, params)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, recordResponse(record))
}

func (h *Vault) handleListRecords(w http.ResponseWriter, r *http.Request) {
	token, err := consentToken(r)
	if err != nil {
		writeError(w, err)
		return
	}

	records, err := h.vaults.ListRecords(r.Context(), token, chi.URLParam(r, "userID"), r.URL.Query().Get("scope"))
	if err != nil {
		writeError(w, err)
		return
	}

	responses := make([]RecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, recordResponse(record))
	}
	writeJSON(w, http.StatusOK, responses)
}

func (h *Vault) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	token, err := consentToken(r)
	if err != nil {
		writeError(w, err)
		return
	}
	recordID, err := uuid.Parse(chi.URLParam(r, "recordID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid record id"})
		return
	}

	record, payload, err := h.vaults.GetRecord(r.Context(), token, chi.URLParam(r, "userID"), recordID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RecordDataResponse{
		RecordResponse: recordResponse(record),
		Payload:        payload,
	})
}

func (h *Vault) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	token, err := consentToken(r)
	if err != nil {
		writeError(w, err)
		return
	}
	recordID, err := uuid.Parse(chi.URLParam(r, "recordID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid record id"})
		return
	}

	if err := h.vaults.DeleteRecord(r.Context(), token, chi.URLParam(r, "userID"), recordID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
