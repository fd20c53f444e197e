// Package metrics holds the Prometheus collectors for the matching service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess  = "success"
	OutcomeConflict = "conflict"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

var (
	ShortlistRegenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlist_regenerations_total",
			Help: "Shortlist regenerations by outcome",
		},
		[]string{"outcome"},
	)

	ShortlistRegenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shortlist_regeneration_duration_seconds",
			Help:    "Duration of shortlist regeneration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CandidatesScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_candidates_scored_total",
			Help: "Candidates scored against a job",
		},
	)

	CandidatesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_candidates_skipped_total",
			Help: "Candidates skipped during regeneration",
		},
		[]string{"reason"},
	)

	ShortlistConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlist_write_conflicts_total",
			Help: "Optimistic write conflicts on shortlist saves",
		},
	)

	AdvancedEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlist_advanced_evictions_total",
			Help: "Entries with an advanced status dropped by capacity truncation",
		},
		[]string{"status"},
	)

	StatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlist_status_changes_total",
			Help: "Candidate status changes by target status",
		},
		[]string{"status"},
	)
)
