// Package telemetry exposes the challenge engine's operational
// counters through prometheus/client_golang, the metrics stack
// go-ethereum nodes use for health and performance observability.
// Every metric here is opt-in: a caller who never constructs a
// Metrics value pays nothing.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles every counter and histogram the challenge core and
// the refresh-cycle driver report against.
type Metrics struct {
	ChallengesOpened     prometheus.Counter
	ChallengesRestarted  prometheus.Counter
	ArbitrationsResolved prometheus.Counter
	SweeperHarvests      prometheus.Counter
	PartyHarvests        prometheus.Counter
	SettlementAmount     prometheus.Histogram
}

// NewMetrics constructs and registers a Metrics bundle against reg. A
// nil reg registers against prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		ChallengesOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "challenges",
			Name:      "opened_total",
			Help:      "Number of challenge games opened via Engine.New.",
		}),
		ChallengesRestarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "challenges",
			Name:      "restarted_total",
			Help:      "Number of challenge games restarted after an omission proof or arbitration loss.",
		}),
		ArbitrationsResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "challenges",
			Name:      "arbitrations_resolved_total",
			Help:      "Number of disputes resolved via Engine.Arbitral.",
		}),
		SweeperHarvests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "challenges",
			Name:      "sweeper_harvests_total",
			Help:      "Number of fee-bearing harvests performed by a third-party sweeper.",
		}),
		PartyHarvests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "challenges",
			Name:      "party_harvests_total",
			Help:      "Number of free harvests performed by a pathfinder or challenger.",
		}),
		SettlementAmount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "challenges",
			Name:      "settlement_amount",
			Help:      "Distribution of total pool amounts released at harvest, in base units.",
			Buckets:   prometheus.ExponentialBuckets(1, 10, 10),
		}),
	}
	reg.MustRegister(
		m.ChallengesOpened,
		m.ChallengesRestarted,
		m.ArbitrationsResolved,
		m.SweeperHarvests,
		m.PartyHarvests,
		m.SettlementAmount,
	)
	return m
}
