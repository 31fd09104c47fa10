package behaverun_test

import (
	"testing"

	behaverrors "github.com/jimasp/behave-vsc-sub002/internal/errors"
	"github.com/jimasp/behave-vsc-sub002/internal/model"
	"github.com/jimasp/behave-vsc-sub002/pkg/behaverun"
)

// TestExitCodeConsistency verifies that public exit code constants match
// the internal errors package constants.
func TestExitCodeConsistency(t *testing.T) {
	tests := []struct {
		name     string
		public   int
		internal int
	}{
		{"ExitSuccess", behaverun.ExitSuccess, behaverrors.ExitSuccess},
		{"ExitFailure", behaverun.ExitFailure, behaverrors.ExitRuntimeError},
		{"ExitConfigError", behaverun.ExitConfigError, behaverrors.ExitConfigError},
		{"ExitEnvError", behaverun.ExitEnvError, behaverrors.ExitEnvironmentError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.public != tt.internal {
				t.Errorf("behaverun.%s = %d, internal = %d", tt.name, tt.public, tt.internal)
			}
		})
	}
}

// TestOutcomeConsistency verifies that public outcome names match the
// outcomes reported by the model.
func TestOutcomeConsistency(t *testing.T) {
	tests := []struct {
		outcome model.Outcome
		want    string
	}{
		{model.OutcomePassed, behaverun.OutcomePassed},
		{model.OutcomeFailed, behaverun.OutcomeFailed},
		{model.OutcomeSkipped, behaverun.OutcomeSkipped},
		{model.OutcomeUndetermined, behaverun.OutcomeSkipped},
	}

	for _, tt := range tests {
		if got := string(tt.outcome.Reported()); got != tt.want {
			t.Errorf("%s reported as %q, want %q", tt.outcome, got, tt.want)
		}
	}
}
