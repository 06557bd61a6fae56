package metrics

import (
	"time"

	"plant-doctor-be/pkg/diagnosis"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "plant_doctor"

// Diagnosis holds Prometheus metrics for the streaming pipeline.
type Diagnosis struct {
	sessions        *prometheus.CounterVec   // by outcome
	sessionDuration *prometheus.HistogramVec // by outcome
	stageDuration   *prometheus.HistogramVec // by stage
	degradedLegs    *prometheus.CounterVec   // by category
	fallbacks       prometheus.Counter
}

var _ diagnosis.Metrics = (*Diagnosis)(nil)

// NewDiagnosis creates the pipeline metrics and registers them with reg.
func NewDiagnosis(reg prometheus.Registerer) (*Diagnosis, error) {
	m := &Diagnosis{
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "diagnosis",
			Name:      "sessions_total",
			Help:      "Diagnosis sessions by outcome",
		}, []string{"outcome"}), // complete, error, client_gone

		sessionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "diagnosis",
			Name:      "session_duration_seconds",
			Help:      "Diagnosis session duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"outcome"}),

		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "diagnosis",
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"stage"}),

		degradedLegs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "treatment",
			Name:      "degraded_legs_total",
			Help:      "Treatment lookups that failed and were left empty",
		}, []string{"category"}),

		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "advisory",
			Name:      "fallbacks_total",
			Help:      "Advisories rendered from the deterministic template",
		}),
	}

	for _, c := range []prometheus.Collector{m.sessions, m.sessionDuration, m.stageDuration, m.degradedLegs, m.fallbacks} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Diagnosis) ObserveStage(stage diagnosis.Stage, d time.Duration) {
	m.stageDuration.WithLabelValues(stage.String()).Observe(d.Seconds())
}

func (m *Diagnosis) SessionFinished(outcome diagnosis.Outcome, d time.Duration) {
	m.sessions.WithLabelValues(string(outcome)).Inc()
	m.sessionDuration.WithLabelValues(string(outcome)).Observe(d.Seconds())
}

func (m *Diagnosis) LegDegraded(category string) {
	m.degradedLegs.WithLabelValues(category).Inc()
}

func (m *Diagnosis) AdvisoryFallback() {
	m.fallbacks.Inc()
}
