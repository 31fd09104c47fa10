package model

import (
	"time"
)

// Outcome is the result of a single scenario.
type Outcome string

const (
	OutcomePassed  Outcome = "passed"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
	// OutcomeUndetermined marks a scenario that was dispatched but whose
	// result is unknown, e.g. a fire-and-forget custom runner or a unit that
	// failed to launch. It is reported as skipped.
	OutcomeUndetermined Outcome = "undetermined"
)

// Reported returns the outcome shown to users. Undetermined scenarios are
// surfaced as skipped.
func (o Outcome) Reported() Outcome {
	if o == OutcomeUndetermined {
		return OutcomeSkipped
	}
	return o
}

// Terminal reports whether the outcome is a definite pass or fail.
func (o Outcome) Terminal() bool {
	return o == OutcomePassed || o == OutcomeFailed
}

// ScenarioResult is the reconciled result of one scenario in a run.
type ScenarioResult struct {
	ScenarioID string
	Outcome    Outcome
	Error      string
	Duration   time.Duration
	UnitID     string
}

// Summary aggregates outcomes of a set of scenario results.
type Summary struct {
	Passed       int
	Failed       int
	Skipped      int
	Undetermined int
	Duration     time.Duration
}

// Total returns the number of results in the summary.
func (s Summary) Total() int {
	return s.Passed + s.Failed + s.Skipped + s.Undetermined
}

// Add merges another summary into s.
func (s *Summary) Add(other Summary) {
	s.Passed += other.Passed
	s.Failed += other.Failed
	s.Skipped += other.Skipped
	s.Undetermined += other.Undetermined
	s.Duration += other.Duration
}

// Summarize tallies results by outcome.
func Summarize(results []ScenarioResult) Summary {
	var s Summary
	for _, r := range results {
		switch r.Outcome {
		case OutcomePassed:
			s.Passed++
		case OutcomeFailed:
			s.Failed++
		case OutcomeUndetermined:
			s.Undetermined++
		default:
			s.Skipped++
		}
		s.Duration += r.Duration
	}
	return s
}
