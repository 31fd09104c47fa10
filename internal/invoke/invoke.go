// Package invoke builds runner tool command lines for execution units and
// launches them.
package invoke

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/jimasp/behave-vsc-sub002/internal/config"
	behaverrors "github.com/jimasp/behave-vsc-sub002/internal/errors"
	"github.com/jimasp/behave-vsc-sub002/internal/planner"
	"github.com/jimasp/behave-vsc-sub002/internal/project"
	"github.com/jimasp/behave-vsc-sub002/internal/tags"
)

// overrideArgs are always passed to behave. --show-skipped is required for
// skipped scenarios to appear in JUnit output.
var overrideArgs = []string{"--show-skipped", "--junit", "--junit-directory"}

// DebugLogFile is the file behave writes console output to in debug runs.
const DebugLogFile = "debug.log"

// Invocation is a fully built runner process description.
type Invocation struct {
	Program string
	Args    []string
	// Dir is the absolute working directory.
	Dir string
	// Env is the effective environment added on top of the process
	// environment.
	Env map[string]string

	JUnitDir string
	// LogFile is set for debug invocations.
	LogFile string

	// Custom is set when a custom runner script is launched.
	Custom bool
	// Wait is false for custom runners that do not wait for results.
	Wait bool
	// JustMyCode is passed through to debug sessions.
	JustMyCode bool
}

// Build creates the invocation for a unit. junitDir is the unit's own
// absolute JUnit output directory.
func Build(cfg *project.EffectiveConfig, u *planner.ExecutionUnit, junitDir string) (*Invocation, error) {
	if len(cfg.RunnerCommand) == 0 {
		return nil, fmt.Errorf("runner command is empty")
	}

	inv := &Invocation{
		Dir:        cfg.WorkingDirAbs,
		Env:        u.Env,
		JUnitDir:   junitDir,
		Wait:       true,
		JustMyCode: cfg.JustMyCode,
	}
	if inv.Dir == "" {
		inv.Dir = filepath.Join(cfg.ProjectRoot, filepath.FromSlash(cfg.WorkingDir))
	}

	var prefix []string
	if u.CustomRunner != nil {
		if err := config.ValidateCustomRunner("customRunner", u.CustomRunner); err != nil {
			return nil, behaverrors.WrapConfig(err, "invalid custom runner")
		}
		inv.Custom = true
		inv.Wait = u.CustomRunner.Wait()
		inv.Program = cfg.PythonExecutable
		prefix = append([]string{u.CustomRunner.ScriptFile}, u.CustomRunner.Args...)
	} else {
		inv.Program = cfg.RunnerCommand[0]
		prefix = append(prefix, cfg.RunnerCommand[1:]...)
	}

	if u.Debug {
		inv.LogFile = filepath.Join(junitDir, DebugLogFile)
	}

	inv.Args = append(prefix, BehaveArgs(cfg.WorkingDir, u, junitDir, inv.LogFile)...)
	return inv, nil
}

// BehaveArgs returns the behave arguments for a unit: tags, the override
// arguments, then feature and scenario selection.
func BehaveArgs(workingDir string, u *planner.ExecutionUnit, junitDir, logFile string) []string {
	var args []string
	if u.TagExpression != nil {
		if expr := tags.Parse(*u.TagExpression); !expr.Empty() {
			args = append(args, "--tags="+expr.String())
		}
	}

	args = append(args, overrideArgs...)
	args = append(args, junitDir)

	if rx := FeatureRegex(workingDir, u); rx != "" {
		args = append(args, "-i", rx)
	}
	if len(u.ScenarioNames) > 0 {
		args = append(args, "-n", ScenarioRegex(u.ScenarioNames))
	}

	if logFile != "" {
		args = append(args, "--no-summary", "--outfile", logFile)
	}
	return args
}

// FeatureRegex returns the -i pattern selecting the unit's features, or ""
// when the unit runs everything. The runner tool searches file paths with
// the pattern, so each alternative is anchored at a path boundary: folders
// end in "/", feature files in "$". Paths are relative to the working
// directory; leading "../" segments are dropped.
func FeatureRegex(workingDir string, u *planner.ExecutionUnit) string {
	if u.Everything {
		return ""
	}
	if u.Kind == planner.UnitFolder && u.WholeFolder {
		if rel := relToWorkingDir(workingDir, u.FolderPath); rel != "" {
			return pathPattern(rel) + "/"
		}
	}

	seen := make(map[string]bool)
	var patterns []string
	for _, p := range u.FeaturePaths {
		rel := relToWorkingDir(workingDir, p)
		if seen[rel] {
			continue
		}
		seen[rel] = true
		patterns = append(patterns, pathPattern(rel)+"$")
	}
	return strings.Join(patterns, "|")
}

func pathPattern(rel string) string {
	for strings.HasPrefix(rel, "../") {
		rel = rel[len("../"):]
	}
	return "(^|/)" + regexp.QuoteMeta(rel)
}

var nameSpecial = regexp.MustCompile(`[".*+?^${}()|[\]\\]`)

var namePlaceholder = regexp.MustCompile(`<.*>`)

// ScenarioRegex returns the -n pattern selecting scenarios by exact name.
// For outline example rows, <param> placeholders in the outline part of the
// name match any substituted value.
func ScenarioRegex(names []string) string {
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = scenarioPattern(name)
	}
	return strings.Join(parts, "|")
}

func scenarioPattern(name string) string {
	outline, row, isRow := strings.Cut(name, " -- @")
	if !isRow {
		return "^" + EscapeName(name) + "$"
	}
	escOutline := EscapeName(outline)
	if strings.Contains(escOutline, "<") {
		escOutline = namePlaceholder.ReplaceAllString(escOutline, ".*")
	}
	return "^" + escOutline + " -- @" + EscapeName(row) + "$"
}

// EscapeName escapes regex special characters and double quotes in a
// scenario name.
func EscapeName(name string) string {
	return nameSpecial.ReplaceAllString(name, `\$0`)
}

// relToWorkingDir converts a project-relative path to a working dir
// relative one.
func relToWorkingDir(workingDir, p string) string {
	if workingDir == "" {
		return p
	}
	if p == workingDir {
		return ""
	}
	if strings.HasPrefix(p, workingDir+"/") {
		return p[len(workingDir)+1:]
	}
	rel, err := filepath.Rel(filepath.FromSlash(workingDir), filepath.FromSlash(p))
	if err != nil {
		return path.Clean(p)
	}
	return filepath.ToSlash(rel)
}

// CommandLine returns the program followed by its arguments.
func (i *Invocation) CommandLine() []string {
	return append([]string{i.Program}, i.Args...)
}

// Friendly returns shell text that reproduces the invocation:
//
//	cd "<dir>"
//	env NAME="value" "<program>" <args...>
func (i *Invocation) Friendly() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cd %s\n", quote(i.Dir))

	if len(i.Env) > 0 {
		keys := make([]string, 0, len(i.Env))
		for k := range i.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("env ")
		for _, k := range keys {
			fmt.Fprintf(&b, "%s=%s ", k, quote(i.Env[k]))
		}
	}

	b.WriteString(quote(i.Program))
	for _, a := range i.Args {
		b.WriteString(" ")
		b.WriteString(shellArg(a))
	}
	return b.String()
}

var shellQuoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`")

func quote(s string) string {
	return `"` + shellQuoteEscaper.Replace(s) + `"`
}

var plainArg = regexp.MustCompile(`^[A-Za-z0-9_@%+=:,./-]+$`)

func shellArg(s string) string {
	if plainArg.MatchString(s) {
		return s
	}
	return quote(s)
}
