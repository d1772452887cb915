// Package metrics holds the Prometheus collectors exported by the bot.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bettracker"

// Command outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics groups the collectors. A nil *Metrics records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	commands     *prometheus.CounterVec
	picksCreated prometheus.Counter
	resultsSet   *prometheus.CounterVec
	aggregations *prometheus.CounterVec
	flagged      prometheus.Counter
}

// New registers the collectors on reg.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: reg,
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Bot commands handled, by command and outcome.",
		}, []string{"command", "outcome"}),
		picksCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "picks_created_total",
			Help:      "Picks recorded.",
		}),
		resultsSet: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_set_total",
			Help:      "Pick results changed, by result.",
		}, []string{"result"}),
		aggregations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregations_total",
			Help:      "Summaries computed, by period.",
		}, []string{"period"}),
		flagged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flagged_picks_total",
			Help:      "Stored picks with unusable stake or odds seen during aggregation.",
		}),
	}
}

// NewDefault registers the collectors on a fresh registry that also
// carries the Go runtime and process collectors.
func NewDefault() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return New(reg)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Command counts a handled bot command.
func (m *Metrics) Command(command, outcome string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, outcome).Inc()
}

// PickCreated counts a recorded pick.
func (m *Metrics) PickCreated() {
	if m == nil {
		return
	}
	m.picksCreated.Inc()
}

// ResultSet counts a changed pick result.
func (m *Metrics) ResultSet(result string) {
	if m == nil {
		return
	}
	m.resultsSet.WithLabelValues(result).Inc()
}

// Aggregated counts a computed summary and the unusable picks it saw.
func (m *Metrics) Aggregated(period string, flagged int) {
	if m == nil {
		return
	}
	m.aggregations.WithLabelValues(period).Inc()
	if flagged > 0 {
		m.flagged.Add(float64(flagged))
	}
}
