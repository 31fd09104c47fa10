package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jimasp/behave-vsc-sub002/internal/tags"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks settings for errors and returns warnings for non-fatal
// issues such as use of deprecated keys.
func Validate(s *Settings) (warnings []string, err error) {
	warnings = append(warnings, envWarnings(s)...)

	if err := validateEnv("env", s.Env); err != nil {
		return warnings, err
	}
	if err := validateEnv("envVarOverrides", s.EnvVarOverrides); err != nil {
		return warnings, err
	}
	if err := validateWorkingDirectory(s.BehaveWorkingDirectory); err != nil {
		return warnings, err
	}
	if err := validateImportedSteps(s.ImportedSteps); err != nil {
		return warnings, err
	}
	if err := validateProfiles(s.RunProfiles); err != nil {
		return warnings, err
	}
	if s.ResultsTimeout < 0 {
		return warnings, &ValidationError{Field: "resultsTimeout", Message: "must not be negative"}
	}

	return warnings, nil
}

func envWarnings(s *Settings) []string {
	if len(s.EnvVarOverrides) == 0 {
		return nil
	}
	if len(s.Env) > 0 {
		return []string{`"envVarOverrides" is deprecated and ignored because "env" is set`}
	}
	return []string{`"envVarOverrides" is deprecated, use "env" instead`}
}

func validateEnv(field string, env map[string]string) error {
	for k := range env {
		if strings.TrimSpace(k) == "" {
			return &ValidationError{Field: field, Message: "variable names must not be empty"}
		}
	}
	return nil
}

func validateWorkingDirectory(dir string) error {
	if dir == "" {
		return nil
	}
	if filepath.IsAbs(dir) || strings.HasPrefix(dir, "/") {
		return &ValidationError{
			Field:   "behaveWorkingDirectory",
			Message: "must be a path relative to the project root",
		}
	}
	return nil
}

func validateImportedSteps(steps ImportedSteps) error {
	for i, step := range steps {
		field := fmt.Sprintf("importedSteps[%d]", i)
		if step.RelativePath == "" {
			return &ValidationError{Field: field + ".relativePath", Message: "must not be empty"}
		}
		if step.StepFilesRx == "" {
			return &ValidationError{Field: field + ".stepFilesRx", Message: "must not be empty"}
		}
		if _, err := regexp.Compile(step.StepFilesRx); err != nil {
			return &ValidationError{Field: field + ".stepFilesRx", Message: fmt.Sprintf("invalid regular expression: %v", err)}
		}
	}
	return nil
}

func validateProfiles(profiles []RunProfile) error {
	seen := make(map[string]bool)
	for i, p := range profiles {
		field := fmt.Sprintf("runProfiles[%d]", i)
		if strings.TrimSpace(p.Name) == "" {
			return &ValidationError{Field: field + ".name", Message: "is required"}
		}
		if seen[p.Name] {
			return &ValidationError{Field: field + ".name", Message: fmt.Sprintf("duplicate run profile name %q", p.Name)}
		}
		seen[p.Name] = true

		if err := validateEnv(field+".env", p.Env); err != nil {
			return err
		}
		if p.TagExpression != nil && tags.Parse(*p.TagExpression).Empty() {
			return &ValidationError{Field: field + ".tagExpression", Message: "must list at least one tag"}
		}
		if p.CustomRunner != nil {
			if err := ValidateCustomRunner(field+".customRunner", p.CustomRunner); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateCustomRunner checks a custom runner descriptor. The script must be
// a python file name without any directory part.
func ValidateCustomRunner(field string, r *CustomRunner) error {
	script := strings.TrimSpace(r.ScriptFile)
	if script == "" {
		return &ValidationError{Field: field + ".scriptFile", Message: "is required"}
	}
	if !strings.HasSuffix(script, ".py") {
		return &ValidationError{Field: field + ".scriptFile", Message: `must end with ".py"`}
	}
	if strings.ContainsAny(script, `/\`) {
		return &ValidationError{Field: field + ".scriptFile", Message: "must be a file name in the working directory, not a path"}
	}
	return nil
}
