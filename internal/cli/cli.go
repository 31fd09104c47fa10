// Package cli provides the behaverun command-line interface.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	behaverrors "github.com/jimasp/behave-vsc-sub002/internal/errors"
	"github.com/jimasp/behave-vsc-sub002/internal/output"
)

// Version is set at build time.
var Version = "dev"

var out = output.New()

// Run executes the CLI with the given arguments and returns an exit code.
// An interrupt stops dispatching further execution units.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return RunContext(ctx, args)
}

// RunContext is Run with a caller supplied context.
func RunContext(ctx context.Context, args []string) int {
	app := newApp()
	err := app.RunContext(ctx, append([]string{app.Name}, args...))
	if err == nil {
		return behaverrors.ExitSuccess
	}
	if !errors.Is(err, errReported) {
		out.ErrorPrefix("%v", err)
	}
	return exitCode(err)
}

func newApp() *cli.App {
	return &cli.App{
		Name:            "behaverun",
		Usage:           "Plan, dispatch and reconcile behave test runs",
		Version:         Version,
		HideHelpCommand: true,
		Commands: []*cli.Command{
			{
				Name:         "run",
				Usage:        "Run scenarios of one or more projects",
				Flags:        RunFlags,
				Action:       cmdRun,
				OnUsageError: usageError,
			},
			{
				Name:         "config",
				Usage:        "Print the effective configuration of each project",
				Flags:        projectFlags,
				Action:       cmdConfig,
				OnUsageError: usageError,
			},
			{
				Name:         "profiles",
				Usage:        "List the run profiles of each project",
				Flags:        projectFlags,
				Action:       cmdProfiles,
				OnUsageError: usageError,
			},
			{
				Name:   "version",
				Usage:  "Print the version",
				Action: cmdVersion,
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				return behaverrors.Configf("unknown command %q", c.Args().First())
			}
			return cli.ShowAppHelp(c)
		},
		OnUsageError: usageError,
		// Exit codes are derived from the returned error by RunContext.
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

// errReported marks an error whose details have already been printed.
var errReported = errors.New("errors reported")

// reported wraps err so RunContext does not print it again.
func reported(err error) error {
	return errors.Join(errReported, err)
}

func usageError(_ *cli.Context, err error, _ bool) error {
	return behaverrors.WrapConfig(err, "invalid usage")
}

// exitCode maps an error to a process exit code. Errors that carry no exit
// code are runtime errors.
func exitCode(err error) int {
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return behaverrors.ExitRuntimeError
}
