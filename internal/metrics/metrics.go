// Package metrics holds Prometheus collectors for consent and vault
// operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	TokensIssued      *prometheus.CounterVec
	TokenValidations  *prometheus.CounterVec
	VaultOperations   *prometheus.CounterVec
	VaultOpLatency    *prometheus.HistogramVec
	EnvelopeSizeBytes prometheus.Histogram
}

// New registers and returns the collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hushhmcp_tokens_issued_total",
			Help: "Total number of consent tokens issued, labeled by scope",
		}, []string{"scope"}),
		TokenValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hushhmcp_token_validations_total",
			Help: "Total number of token validations, labeled by result reason",
		}, []string{"result"}),
		VaultOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hushhmcp_vault_operations_total",
			Help: "Total number of vault operations, labeled by operation and result",
		}, []string{"operation", "result"}),
		VaultOpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hushhmcp_vault_operation_latency_seconds",
			Help:    "Latency of vault operations in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		EnvelopeSizeBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hushhmcp_envelope_size_bytes",
			Help:    "Distribution of plaintext payload sizes written to the vault",
			Buckets: prometheus.ExponentialBuckets(64, 4, 10),
		}),
	}

	reg.MustRegister(m.TokensIssued, m.TokenValidations, m.VaultOperations, m.VaultOpLatency, m.EnvelopeSizeBytes)
	return m
}

func (m *Metrics) IncrementTokensIssued(scope string) {
	m.TokensIssued.WithLabelValues(scope).Inc()
}

func (m *Metrics) IncrementTokenValidations(result string) {
	m.TokenValidations.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementVaultOperations(operation, result string) {
	m.VaultOperations.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) ObserveVaultOpLatency(operation string, seconds float64) {
	m.VaultOpLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *Metrics) ObserveEnvelopeSize(bytes float64) {
	m.EnvelopeSizeBytes.Observe(bytes)
}
