package infra

import (
	"context"

	"lists-gateway/middleware/ratelimit/domain"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	statsLabelRoute  = "route"
	statsLabelResult = "result"
)

// remainingBuckets cobre do limite esgotado (0) até limites de API comuns.
var remainingBuckets = []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 1000}

// PrometheusStatsStore exporta ratelimit_decisions_total{route,result} e
// ratelimit_remaining{route}, a cota que sobrou após cada decisão.
//
// A chave do cliente não vira label (cardinalidade).
type PrometheusStatsStore struct {
	Decisions *prometheus.CounterVec
	Remaining *prometheus.HistogramVec
}

func NewPrometheusStatsStore(namespace string) *PrometheusStatsStore {
	return &PrometheusStatsStore{
		Decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ratelimit_decisions_total",
				Help:      "Number of rate limit decisions by route and result.",
			},
			[]string{statsLabelRoute, statsLabelResult},
		),
		Remaining: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ratelimit_remaining",
				Help:      "Remaining quota in the current window after each decision.",
				Buckets:   remainingBuckets,
			},
			[]string{statsLabelRoute},
		),
	}
}

// MustRegister registra os coletores e entra em pânico se algo falhar.
func (s *PrometheusStatsStore) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(s.Decisions, s.Remaining)
}

func (s *PrometheusStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	result := "denied"
	if ev.Allowed {
		result = "allowed"
	}
	route := routeOf(ev)
	s.Decisions.With(prometheus.Labels{
		statsLabelRoute:  route,
		statsLabelResult: result,
	}).Inc()
	s.Remaining.WithLabelValues(route).Observe(float64(ev.Remaining))
	return nil
}
