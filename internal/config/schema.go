// Package config provides loading and validation of behaverun project settings.
package config

import (
	"time"
)

// Settings represents a project's settings file.
type Settings struct {
	Env map[string]string `json:"env,omitempty" mapstructure:"env"`

	// EnvVarOverrides is the deprecated name of Env. It is only consulted
	// when Env is empty.
	EnvVarOverrides map[string]string `json:"envVarOverrides,omitempty" mapstructure:"envVarOverrides"`

	ImportedSteps ImportedSteps `json:"importedSteps,omitempty" mapstructure:"importedSteps"`
	RunProfiles   []RunProfile  `json:"runProfiles,omitempty" mapstructure:"runProfiles"`

	RunParallel                    *bool `json:"runParallel,omitempty" mapstructure:"runParallel"`
	RunMultiRootProjectsInParallel *bool `json:"runMultiRootProjectsInParallel,omitempty" mapstructure:"runMultiRootProjectsInParallel"`
	JustMyCode                     *bool `json:"justMyCode,omitempty" mapstructure:"justMyCode"`
	XRay                           bool  `json:"xRay,omitempty" mapstructure:"xRay"`

	BehaveWorkingDirectory string        `json:"behaveWorkingDirectory,omitempty" mapstructure:"behaveWorkingDirectory"`
	RunnerCommand          CommandLine   `json:"runnerCommand,omitempty" mapstructure:"runnerCommand"`
	PythonExecutable       string        `json:"pythonExecutable,omitempty" mapstructure:"pythonExecutable"`
	ResultsTimeout         time.Duration `json:"resultsTimeout,omitempty" mapstructure:"resultsTimeout"`
	ExcludedPaths          []string      `json:"excludedPaths,omitempty" mapstructure:"excludedPaths"`
}

// ImportedStep is a steps library folder outside the project's own steps
// folder.
type ImportedStep struct {
	RelativePath string `json:"relativePath" mapstructure:"relativePath"`
	StepFilesRx  string `json:"stepFilesRx" mapstructure:"stepFilesRx"`
}

// ImportedSteps is an ordered list of imported step folders. In settings
// files it may also be written as an object of folder to step file regex.
type ImportedSteps []ImportedStep

// RunProfile is a named set of environment overrides, tag selection and an
// optional custom runner.
type RunProfile struct {
	Name          string            `json:"name" mapstructure:"name"`
	Env           map[string]string `json:"env,omitempty" mapstructure:"env"`
	TagExpression *string           `json:"tagExpression,omitempty" mapstructure:"tagExpression"`
	CustomRunner  *CustomRunner     `json:"customRunner,omitempty" mapstructure:"customRunner"`
}

// CustomRunner is a script launched instead of the runner tool.
type CustomRunner struct {
	ScriptFile     string      `json:"scriptFile" mapstructure:"scriptFile"`
	Args           CommandLine `json:"args,omitempty" mapstructure:"args"`
	WaitForResults *bool       `json:"waitForResults,omitempty" mapstructure:"waitForResults"`
}

// Wait reports whether the runner's results should be awaited.
func (c *CustomRunner) Wait() bool {
	return c.WaitForResults == nil || *c.WaitForResults
}

// CommandLine is an argument list. In settings files it may be written as a
// single shell-style string.
type CommandLine []string

// Profile returns the run profile with the given name.
func (s *Settings) Profile(name string) (*RunProfile, bool) {
	for i := range s.RunProfiles {
		if s.RunProfiles[i].Name == name {
			return &s.RunProfiles[i], true
		}
	}
	return nil, false
}

// BaseEnv returns the authoritative environment map: Env when it has
// entries, otherwise the deprecated EnvVarOverrides.
func (s *Settings) BaseEnv() map[string]string {
	src := s.Env
	if len(src) == 0 {
		src = s.EnvVarOverrides
	}
	env := make(map[string]string, len(src))
	for k, v := range src {
		env[k] = v
	}
	return env
}
