// Package prometheus implements [recode.Observer] with Prometheus metrics.
package prometheus

import (
	"time"

	"github.com/fwojciec/recode"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Interface compliance check.
var _ recode.Observer = (*Observer)(nil)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Observer records gateway attempts and rewrite outcomes.
type Observer struct {
	attempts *prometheus.CounterVec
	rewrites *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	tries    *prometheus.HistogramVec
}

// NewObserver registers the recode metrics on reg.
func NewObserver(reg prometheus.Registerer) *Observer {
	f := promauto.With(reg)
	return &Observer{
		attempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "recode_attempts_total",
			Help: "Dispatches to the provider by outcome.",
		}, []string{"provider", "outcome"}),
		rewrites: f.NewCounterVec(prometheus.CounterOpts{
			Name: "recode_rewrites_total",
			Help: "Completed rewrite calls by terminal outcome.",
		}, []string{"provider", "outcome"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recode_attempt_duration_seconds",
			Help:    "Time spent in a single provider dispatch.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"provider"}),
		tries: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recode_rewrite_attempts",
			Help:    "Dispatches needed per rewrite call.",
			Buckets: []float64{1, 2, 3, 4, 5, 8},
		}, []string{"provider"}),
	}
}

// ObserveAttempt implements [recode.Observer].
func (o *Observer) ObserveAttempt(provider string, d time.Duration, err error) {
	o.attempts.WithLabelValues(provider, outcome(err)).Inc()
	o.latency.WithLabelValues(provider).Observe(d.Seconds())
}

// ObserveRewrite implements [recode.Observer].
func (o *Observer) ObserveRewrite(provider string, attempts int, err error) {
	o.rewrites.WithLabelValues(provider, outcome(err)).Inc()
	o.tries.WithLabelValues(provider).Observe(float64(attempts))
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}
