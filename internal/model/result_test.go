package model

import (
	"testing"
	"time"
)

func TestOutcome_Reported(t *testing.T) {
	tests := []struct {
		in, want Outcome
	}{
		{OutcomePassed, OutcomePassed},
		{OutcomeFailed, OutcomeFailed},
		{OutcomeSkipped, OutcomeSkipped},
		{OutcomeUndetermined, OutcomeSkipped},
	}
	for _, tt := range tests {
		if got := tt.in.Reported(); got != tt.want {
			t.Errorf("%s.Reported() = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestOutcome_Terminal(t *testing.T) {
	if !OutcomePassed.Terminal() || !OutcomeFailed.Terminal() {
		t.Error("passed/failed should be terminal")
	}
	if OutcomeSkipped.Terminal() || OutcomeUndetermined.Terminal() {
		t.Error("skipped/undetermined should not be terminal")
	}
}

func TestSummarize(t *testing.T) {
	results := []ScenarioResult{
		{ScenarioID: "a", Outcome: OutcomePassed, Duration: time.Second},
		{ScenarioID: "b", Outcome: OutcomeFailed, Duration: 2 * time.Second},
		{ScenarioID: "c", Outcome: OutcomeSkipped},
		{ScenarioID: "d", Outcome: OutcomeUndetermined},
		{ScenarioID: "e", Outcome: OutcomePassed},
	}

	s := Summarize(results)
	if s.Passed != 2 || s.Failed != 1 || s.Skipped != 1 || s.Undetermined != 1 {
		t.Errorf("Summarize() = %+v", s)
	}
	if s.Total() != 5 {
		t.Errorf("Total() = %d, want 5", s.Total())
	}
	if s.Duration != 3*time.Second {
		t.Errorf("Duration = %v, want 3s", s.Duration)
	}

	var total Summary
	total.Add(s)
	total.Add(s)
	if total.Total() != 10 {
		t.Errorf("Add() total = %d, want 10", total.Total())
	}
}
