package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Submissions counts accepted activity submissions by type.
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "showerparty",
		Name:      "submissions_total",
		Help:      "Accepted activity submissions.",
	}, []string{"activity"})

	// MirrorFailures counts spreadsheet webhook writes that failed while
	// the primary store accepted the row.
	MirrorFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "showerparty",
		Name:      "mirror_failures_total",
		Help:      "Best-effort spreadsheet mirror failures.",
	})

	// RoastFallbacks counts rounds that used the template generator
	// because the AI provider failed or timed out.
	RoastFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "showerparty",
		Name:      "roast_fallbacks_total",
		Help:      "Roast template fallbacks.",
	})
)
