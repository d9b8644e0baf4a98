package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records
// nothing, so components can be built without a registry in tests.
type Metrics struct {
	rpcAttempts *prometheus.CounterVec
	apyCache    *prometheus.CounterVec
	liveAPY     prometheus.Gauge
	vaultSource *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rpcAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yield_rpc_attempts_total",
				Help: "RPC attempts made by the failover executor",
			},
			[]string{"endpoint", "outcome"},
		),
		apyCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yield_apy_cache_lookups_total",
				Help: "APY cache lookups by result",
			},
			[]string{"result"},
		),
		liveAPY: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "yield_aave_apy_percent",
				Help: "Last APY fetched from the lending pool",
			},
		),
		vaultSource: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yield_vault_responses_total",
				Help: "Vault listings served by data source",
			},
			[]string{"source"},
		),
	}

	reg.MustRegister(
		m.rpcAttempts,
		m.apyCache,
		m.liveAPY,
		m.vaultSource,
	)
	return m
}

func (m *Metrics) RPCAttempt(endpoint string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.rpcAttempts.WithLabelValues(endpoint, outcome).Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.apyCache.WithLabelValues(result).Inc()
}

func (m *Metrics) APY(v float64) {
	if m == nil {
		return
	}
	m.liveAPY.Set(v)
}

func (m *Metrics) VaultSource(source string) {
	if m == nil {
		return
	}
	m.vaultSource.WithLabelValues(source).Inc()
}
