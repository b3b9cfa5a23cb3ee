package metrics

import "time"

// ResultLabel enumerates hop and validation result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
	ResultSkipped ResultLabel = "skipped"
)

// RunOutcomeLabel is the final status of a conversion run.
type RunOutcomeLabel string

const (
	RunSuccess RunOutcomeLabel = "success"
	RunFailed  RunOutcomeLabel = "failed"
)

// Recorder defines observability hooks for conversion runs. Implementations must be safe
// to call on a zero value.
type Recorder interface {
	ObserveHopDuration(hop string, d time.Duration)
	IncHopResult(hop string, result ResultLabel)
	IncValidation(version string, result ResultLabel)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome RunOutcomeLabel)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveHopDuration(string, time.Duration) {}
func (NoopRecorder) IncHopResult(string, ResultLabel)         {}
func (NoopRecorder) IncValidation(string, ResultLabel)        {}
func (NoopRecorder) ObserveRunDuration(time.Duration)         {}
func (NoopRecorder) IncRunOutcome(RunOutcomeLabel)            {}
