package config

import "time"

// Default configuration values.
const (
	DefaultPythonExecutable = "python"
	DefaultResultsTimeout   = 30 * time.Second
)

// DefaultRunnerCommand is the command prefix used to launch behave.
var DefaultRunnerCommand = CommandLine{"python", "-m", "behave"}

// DefaultExcludedPaths are skipped when searching for feature folders.
var DefaultExcludedPaths = []string{
	"**/.git",
	"**/.venv",
	"**/env",
	"**/.env",
	"**/venv",
	"**/node_modules",
	"**/__pycache__",
	"**/.*_cache",
	"**/.tox",
}

// applyDefaults fills in default values for unset configuration fields.
func applyDefaults(s *Settings) {
	applyFlagDefaults(s)
	applyRunnerDefaults(s)
	applyProfileDefaults(s)

	if s.ExcludedPaths == nil {
		s.ExcludedPaths = append([]string(nil), DefaultExcludedPaths...)
	}
	if s.Env == nil {
		s.Env = map[string]string{}
	}
}

func applyFlagDefaults(s *Settings) {
	if s.RunParallel == nil {
		s.RunParallel = boolPtr(false)
	}
	if s.RunMultiRootProjectsInParallel == nil {
		s.RunMultiRootProjectsInParallel = boolPtr(true)
	}
	if s.JustMyCode == nil {
		s.JustMyCode = boolPtr(true)
	}
}

func applyRunnerDefaults(s *Settings) {
	if len(s.RunnerCommand) == 0 {
		s.RunnerCommand = append(CommandLine(nil), DefaultRunnerCommand...)
	}
	if s.PythonExecutable == "" {
		s.PythonExecutable = DefaultPythonExecutable
	}
	if s.ResultsTimeout == 0 {
		s.ResultsTimeout = DefaultResultsTimeout
	}
}

func applyProfileDefaults(s *Settings) {
	for i := range s.RunProfiles {
		p := &s.RunProfiles[i]
		if p.Env == nil {
			p.Env = map[string]string{}
		}
		if p.CustomRunner == nil {
			continue
		}
		if p.CustomRunner.Args == nil {
			p.CustomRunner.Args = CommandLine{}
		}
		if p.CustomRunner.WaitForResults == nil {
			p.CustomRunner.WaitForResults = boolPtr(true)
		}
	}
}

func boolPtr(b bool) *bool {
	return &b
}

// Default returns settings with all defaults applied.
func Default() *Settings {
	s := &Settings{}
	applyDefaults(s)
	return s
}
