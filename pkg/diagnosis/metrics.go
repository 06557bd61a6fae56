package diagnosis

import "time"

type Outcome string

const (
	OutcomeComplete   Outcome = "complete"
	OutcomeError      Outcome = "error"
	OutcomeClientGone Outcome = "client_gone"
)

// Metrics receives pipeline measurements.
type Metrics interface {
	ObserveStage(stage Stage, d time.Duration)
	SessionFinished(outcome Outcome, d time.Duration)
	LegDegraded(category string)
	AdvisoryFallback()
}

type NopMetrics struct{}

func (NopMetrics) ObserveStage(Stage, time.Duration)      {}
func (NopMetrics) SessionFinished(Outcome, time.Duration) {}
func (NopMetrics) LegDegraded(string)                     {}
func (NopMetrics) AdvisoryFallback()                      {}
