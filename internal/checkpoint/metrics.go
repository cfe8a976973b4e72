package checkpoint

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	kindAuto  = "auto"
	kindQuick = "quick"
	kindNamed = "named"
)

var (
	// savesTotal counts checkpoint creation attempts.
	// Labels: kind (auto, quick, named), status (success, error)
	savesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "savegame",
		Subsystem: "checkpoint",
		Name:      "saves_total",
		Help:      "Checkpoint creation attempts by kind and status",
	}, []string{"kind", "status"})

	// restoresTotal counts restore calls by outcome.
	restoresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "savegame",
		Subsystem: "checkpoint",
		Name:      "restores_total",
		Help:      "Restore requests by outcome",
	}, []string{"outcome"})

	// listFailuresTotal counts log queries that degraded to an empty slot list.
	listFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "savegame",
		Subsystem: "checkpoint",
		Name:      "list_failures_total",
		Help:      "Slot listings that failed to query the history",
	})
)

func recordSave(kind string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	savesTotal.WithLabelValues(kind, status).Inc()
}
