package urlapi

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricCastVotes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "secureballot",
		Subsystem: "urlapi",
		Name:      "cast_votes_total",
		Help:      "Vote cast attempts by outcome",
	}, []string{"outcome"})
	metricReceiptLookups = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "secureballot",
		Subsystem: "urlapi",
		Name:      "receipt_lookups_total",
		Help:      "Receipt verification lookups",
	})
	metricTallyRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "secureballot",
		Subsystem: "urlapi",
		Name:      "tally_runs_total",
		Help:      "Completed tally runs",
	})
)

// registerMetrics registers the API counters with the default prometheus
// registry; the metrics agent exposes them on /metrics
func (u *URLAPI) registerMetrics() {
	if u.metricsagent == nil {
		return
	}
	prometheus.MustRegister(metricCastVotes, metricReceiptLookups, metricTallyRuns)
}

func (u *URLAPI) countCast(ok bool) {
	if u.metricsagent == nil {
		return
	}
	outcome := "rejected"
	if ok {
		outcome = "accepted"
	}
	metricCastVotes.WithLabelValues(outcome).Inc()
}

func (u *URLAPI) countVerify() {
	if u.metricsagent == nil {
		return
	}
	metricReceiptLookups.Inc()
}

func (u *URLAPI) countTally() {
	if u.metricsagent == nil {
		return
	}
	metricTallyRuns.Inc()
}
