package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ande-labs/ande/ande-dispute/types"
	"github.com/ande-labs/ande/ande-service/eth"
	opmetrics "github.com/ande-labs/ande/ande-service/metrics"
)

const Namespace = "ande_dispute"

var _ opmetrics.RegistryMetricer = (*Metrics)(nil)

type Metricer interface {
	RecordInfo(version string)
	RecordUp()
	RecordImplementationSet(gameType types.GameType)
	RecordGameCreated(gameType types.GameType)
	RecordMove(gameType types.GameType, isAttack bool)
	RecordStep(gameType types.GameType, claimantWon bool)
	RecordResolution(gameType types.GameType, status types.GameStatus)
	RecordBondsEscrowed(gameType types.GameType, delta eth.ETH, released bool)
}

type Metrics struct {
	ns       string
	registry *prometheus.Registry
	factory  opmetrics.Factory

	info prometheus.GaugeVec
	up   prometheus.Gauge

	implementations prometheus.GaugeVec
	gamesCreated    prometheus.CounterVec
	gamesInProgress prometheus.GaugeVec
	moves           prometheus.CounterVec
	steps           prometheus.CounterVec
	resolutions     prometheus.CounterVec
	bondsEscrowed   prometheus.GaugeVec
}

var _ Metricer = (*Metrics)(nil)

func NewMetrics(procName string) *Metrics {
	if procName == "" {
		procName = "default"
	}
	ns := Namespace + "_" + procName

	registry := opmetrics.NewRegistry()
	factory := opmetrics.With(registry)

	return &Metrics{
		ns:       ns,
		registry: registry,
		factory:  factory,

		info: *factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "info",
			Help:      "Pseudo-metric tracking version and config info",
		}, []string{
			"version",
		}),
		up: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "up",
			Help:      "1 if the dispute node has finished starting up",
		}),
		implementations: *factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "implementations",
			Help:      "1 if an implementation is registered for the game type",
		}, []string{
			"game_type",
		}),
		gamesCreated: *factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "games_created_total",
			Help:      "Number of games created by the factory",
		}, []string{
			"game_type",
		}),
		gamesInProgress: *factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "games_in_progress",
			Help:      "Number of games not yet resolved",
		}, []string{
			"game_type",
		}),
		moves: *factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "moves_total",
			Help:      "Number of claims added by attack or defend moves",
		}, []string{
			"game_type",
			"kind",
		}),
		steps: *factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "steps_total",
			Help:      "Number of execution leaves settled by a step",
		}, []string{
			"game_type",
			"winner",
		}),
		resolutions: *factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "resolutions_total",
			Help:      "Number of resolved games by outcome",
		}, []string{
			"game_type",
			"status",
		}),
		bondsEscrowed: *factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "bonds_escrowed_wei",
			Help:      "Value currently held in game escrows",
		}, []string{
			"game_type",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Document() []opmetrics.DocumentedMetric {
	return m.factory.Document()
}

func (m *Metrics) RecordInfo(version string) {
	m.info.WithLabelValues(version).Set(1)
}

func (m *Metrics) RecordUp() {
	m.up.Set(1)
}

func (m *Metrics) RecordImplementationSet(gameType types.GameType) {
	m.implementations.WithLabelValues(gameType.String()).Set(1)
}

func (m *Metrics) RecordGameCreated(gameType types.GameType) {
	m.gamesCreated.WithLabelValues(gameType.String()).Inc()
	m.gamesInProgress.WithLabelValues(gameType.String()).Inc()
}

func (m *Metrics) RecordMove(gameType types.GameType, isAttack bool) {
	kind := "defend"
	if isAttack {
		kind = "attack"
	}
	m.moves.WithLabelValues(gameType.String(), kind).Inc()
}

func (m *Metrics) RecordStep(gameType types.GameType, claimantWon bool) {
	winner := "caller"
	if claimantWon {
		winner = "claimant"
	}
	m.steps.WithLabelValues(gameType.String(), winner).Inc()
}

func (m *Metrics) RecordResolution(gameType types.GameType, status types.GameStatus) {
	m.resolutions.WithLabelValues(gameType.String(), status.String()).Inc()
	m.gamesInProgress.WithLabelValues(gameType.String()).Dec()
}

// RecordBondsEscrowed adjusts the escrowed value by delta, downwards if it was released.
func (m *Metrics) RecordBondsEscrowed(gameType types.GameType, delta eth.ETH, released bool) {
	v := delta.WeiFloat()
	if released {
		v = -v
	}
	m.bondsEscrowed.WithLabelValues(gameType.String()).Add(v)
}
