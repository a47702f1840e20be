package search

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// oracleInconsistent counts gold actions the transition system refused
	oracleInconsistent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parser_oracle_inconsistent_total",
		Help: "Gold actions that were not allowed by the transition system",
	})

	// beamTransitions counts beam state changes by target state
	beamTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parser_beam_transitions_total",
		Help: "Beam state transitions by target state",
	}, []string{"to"})

	goldlessBeams = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parser_goldless_beams_total",
		Help: "Beams skipped by loss assembly because no resident path was gold",
	})

	epochs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parser_epochs_total",
		Help: "Number of times the sentence source was rewound",
	})

	batchLoss = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "parser_batch_loss",
		Help: "Mean path-level cross entropy of the last training batch",
	})
)
