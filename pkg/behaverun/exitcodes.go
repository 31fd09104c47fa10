// Package behaverun provides public constants for tools that launch the
// behaverun CLI and interpret its results, such as editor integrations.
package behaverun

// Exit codes returned by the behaverun CLI.
const (
	// ExitSuccess indicates every selected scenario passed or was skipped.
	ExitSuccess = 0

	// ExitFailure indicates failed scenarios, units that could not be
	// launched, or results that did not match the test tree.
	ExitFailure = 1

	// ExitConfigError indicates invalid settings or an invalid run request.
	// Nothing was launched.
	ExitConfigError = 2

	// ExitEnvError indicates the runner tool could not be found.
	ExitEnvError = 3
)

// Reported scenario outcomes, as shown in results tables and metrics.
// Scenarios whose outcome could not be determined are reported as skipped.
const (
	OutcomePassed  = "passed"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)
