package cli

import (
	"github.com/urfave/cli/v2"
)

// EnvVarPrefix prefixes the environment variables flags can be set from.
const EnvVarPrefix = "BEHAVERUN"

func prefixEnvVar(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	TreeFlag = &cli.StringSliceFlag{
		Name:    "tree",
		EnvVars: prefixEnvVar("TREE"),
		Usage:   "Path to a test tree file (required, repeat for several projects)",
	}
	ProjectRootFlag = &cli.StringSliceFlag{
		Name:    "project-root",
		EnvVars: prefixEnvVar("PROJECT_ROOT"),
		Usage:   "Project root directory (repeat for several projects). Defaults to the nearest root above the current directory",
	}
	SettingsFlag = &cli.StringFlag{
		Name:    "settings",
		EnvVars: prefixEnvVar("SETTINGS"),
		Usage:   "Path to a settings file, overriding the project's .behaverun/settings file",
	}
	ProjectFlag = &cli.StringFlag{
		Name:    "project",
		EnvVars: prefixEnvVar("PROJECT"),
		Usage:   "Only use the named project",
	}
	ProfileFlag = &cli.StringFlag{
		Name:    "profile",
		EnvVars: prefixEnvVar("PROFILE"),
		Usage:   "Run profile to apply",
	}
	StrategyFlag = &cli.StringFlag{
		Name:    "strategy",
		EnvVars: prefixEnvVar("STRATEGY"),
		Usage:   "Planning strategy: whole, per-folder, per-folder-feature or per-feature-scenario",
	}
	IncludeFlag = &cli.StringSliceFlag{
		Name:    "include",
		EnvVars: prefixEnvVar("INCLUDE"),
		Usage:   "Only run scenarios at or below this test tree node (repeatable)",
	}
	DebugFlag = &cli.BoolFlag{
		Name:    "debug",
		EnvVars: prefixEnvVar("DEBUG"),
		Usage:   "Run as a debug session",
	}
	ParallelFlag = &cli.BoolFlag{
		Name:    "parallel",
		EnvVars: prefixEnvVar("RUN_PARALLEL"),
		Usage:   "Dispatch execution units concurrently",
	}
	MetricsFileFlag = &cli.StringFlag{
		Name:    "metrics-file",
		EnvVars: prefixEnvVar("METRICS_FILE"),
		Usage:   "Write run metrics in prometheus text format to this file",
	}
	QuietFlag = &cli.BoolFlag{
		Name:    "quiet",
		Aliases: []string{"q"},
		EnvVars: prefixEnvVar("QUIET"),
		Usage:   "Only print errors and the results table",
	}
	XRayFlag = &cli.BoolFlag{
		Name:    "x-ray",
		EnvVars: prefixEnvVar("XRAY"),
		Usage:   "Log diagnostics and stream runner output to stderr",
	}
)

// projectFlags select and load projects.
var projectFlags = []cli.Flag{
	ProjectRootFlag,
	SettingsFlag,
	ProjectFlag,
	XRayFlag,
}

// RunFlags are the flags of the run command.
var RunFlags = append([]cli.Flag{
	TreeFlag,
	ProfileFlag,
	StrategyFlag,
	IncludeFlag,
	DebugFlag,
	ParallelFlag,
	MetricsFileFlag,
	QuietFlag,
}, projectFlags...)
