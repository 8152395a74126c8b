package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hushh-labs/hushhmcp-server/internal/api/http/handler"
	"github.com/hushh-labs/hushhmcp-server/internal/consent"
	"github.com/hushh-labs/hushhmcp-server/internal/metrics"
	"github.com/hushh-labs/hushhmcp-server/internal/service"
	"github.com/hushh-labs/hushhmcp-server/internal/testutil"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

func newTestRouter(t *testing.T, db Pinger) http.Handler {
	t.Helper()

	manager, err := consent.NewManager("router-test-signing-secret-0123456789")
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	log := testutil.MakeNoopLogger()
	consentService := service.NewConsent(manager, log, m)

	return New(
		handler.NewConsent(consentService, log),
		handler.NewVault(nil, log),
		db,
		registry,
		log,
	)
}

func TestRouter_Healthz(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		router := newTestRouter(t, stubPinger{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("database unreachable", func(t *testing.T) {
		router := newTestRouter(t, stubPinger{err: errors.New("connection refused")})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestRouter_Metrics(t *testing.T) {
	router := newTestRouter(t, stubPinger{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_MountsVersionedAPI(t *testing.T) {
	router := newTestRouter(t, stubPinger{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/consent/validate", nil))

	// An empty body is a bad request, not a missing route.
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
