// Package runner dispatches execution units to the runner tool under a
// concurrency policy and collects their per-unit results.
package runner

import (
	"context"
	"errors"
	"os"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	behaverrors "github.com/jimasp/behave-vsc-sub002/internal/errors"
	"github.com/jimasp/behave-vsc-sub002/internal/invoke"
	"github.com/jimasp/behave-vsc-sub002/internal/logging"
	"github.com/jimasp/behave-vsc-sub002/internal/metrics"
	"github.com/jimasp/behave-vsc-sub002/internal/model"
	"github.com/jimasp/behave-vsc-sub002/internal/output"
	"github.com/jimasp/behave-vsc-sub002/internal/planner"
	"github.com/jimasp/behave-vsc-sub002/internal/project"
)

var out = output.New()

const (
	// minParallelWorkers ensures at least one worker, even if
	// runtime.NumCPU() reports 0.
	minParallelWorkers = 1

	// maxParallelWorkers caps BEHAVERUN_PARALLEL. Every worker owns a
	// runner tool process.
	maxParallelWorkers = 256

	// ParallelEnvVar overrides the parallel worker count.
	ParallelEnvVar = "BEHAVERUN_PARALLEL"

	defaultPollInterval = 100 * time.Millisecond
)

// Policy decides how units of one project are dispatched.
type Policy string

const (
	PolicySerial   Policy = "serial"
	PolicyParallel Policy = "parallel"
	// PolicyDebug runs units one at a time under the debug lock.
	PolicyDebug Policy = "debug"
)

// UnitOutput is what one dispatched unit produced.
type UnitOutput struct {
	Unit    *planner.ExecutionUnit
	Results []model.ScenarioResult
	// Err is a launch error. Scenarios of a failed unit are undetermined.
	Err error
	// ExecutionError is set when the runner tool reported a configuration
	// or parse error instead of running tests.
	ExecutionError bool

	Command  string
	Output   string
	ExitCode int
	Duration time.Duration
}

// Coordinator runs the units of one project.
type Coordinator struct {
	cfg      *project.EffectiveConfig
	tree     *model.Tree
	launcher invoke.Launcher

	log          *logrus.Entry
	metrics      *metrics.Recorder
	runID        string
	tempDir      string
	pollInterval time.Duration

	// reaping tracks background waits of fire-and-forget processes.
	reaping sync.WaitGroup
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRunID sets the run id used in result directories and logs.
func WithRunID(id string) Option {
	return func(c *Coordinator) { c.runID = id }
}

// WithTempDir sets the directory result directories are created under.
func WithTempDir(dir string) Option {
	return func(c *Coordinator) { c.tempDir = dir }
}

// WithMetrics records unit metrics.
func WithMetrics(m *metrics.Recorder) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithPollInterval sets how often result artifacts are polled for.
func WithPollInterval(d time.Duration) Option {
	return func(c *Coordinator) { c.pollInterval = d }
}

// WithLogger sets the diagnostic logger.
func WithLogger(log *logrus.Entry) Option {
	return func(c *Coordinator) { c.log = log }
}

// New creates a coordinator for one project run.
func New(cfg *project.EffectiveConfig, tree *model.Tree, launcher invoke.Launcher, opts ...Option) *Coordinator {
	c := &Coordinator{
		cfg:          cfg,
		tree:         tree,
		launcher:     launcher,
		log:          logging.Discard(),
		runID:        uuid.New().String(),
		tempDir:      os.TempDir(),
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithFields(logrus.Fields{
		logging.FieldProject: cfg.ProjectName,
		logging.FieldRun:     c.runID,
	})
	return c
}

// RunID returns the run id.
func (c *Coordinator) RunID() string {
	return c.runID
}

// Run dispatches units under the policy and returns the outputs of the
// dispatched units in unit order. Cancellation stops further dispatch;
// running processes are left to finish and their outputs are kept, and
// ctx.Err() is returned alongside them.
func (c *Coordinator) Run(ctx context.Context, units []*planner.ExecutionUnit, policy Policy) ([]*UnitOutput, error) {
	switch policy {
	case PolicySerial, PolicyDebug:
		return c.runSequential(ctx, units)
	case PolicyParallel:
		for _, u := range units {
			if u.Debug {
				return nil, behaverrors.Configf("debug unit %s cannot run in parallel", u.ID)
			}
		}
		return c.runParallel(ctx, units)
	default:
		return nil, behaverrors.Configf("unknown run policy %q", policy)
	}
}

// Wait blocks until background waits of fire-and-forget custom runner
// processes have finished.
func (c *Coordinator) Wait() {
	c.reaping.Wait()
}

// runSequential executes units one at a time in order.
func (c *Coordinator) runSequential(ctx context.Context, units []*planner.ExecutionUnit) ([]*UnitOutput, error) {
	outputs := make([]*UnitOutput, 0, len(units))
	for _, u := range units {
		if ctx.Err() != nil {
			return outputs, ctx.Err()
		}
		outputs = append(outputs, c.runUnit(ctx, u))
	}
	return outputs, nil
}

// runParallel executes units concurrently with at most
// getParallelWorkers() units in flight.
func (c *Coordinator) runParallel(ctx context.Context, units []*planner.ExecutionUnit) ([]*UnitOutput, error) {
	workers := getParallelWorkers()
	sem := semaphore.NewWeighted(int64(workers))
	results := xsync.NewMapOf[string, *UnitOutput]()

	c.log.Debugf("running %d units with %d workers", len(units), workers)

	var wg sync.WaitGroup
	for _, u := range units {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(u *planner.ExecutionUnit) {
			defer wg.Done()
			defer sem.Release(1)
			results.Store(u.ID, c.runUnit(ctx, u))
		}(u)
	}
	wg.Wait()

	outputs := make([]*UnitOutput, 0, results.Size())
	for _, u := range units {
		if o, ok := results.Load(u.ID); ok {
			outputs = append(outputs, o)
		}
	}
	return outputs, ctx.Err()
}

// Errors combines the launch errors of unit outputs.
func Errors(outputs []*UnitOutput) error {
	var errs []error
	for _, o := range outputs {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return combineErrors(errs)
}

// defaultWorkerCount returns the default number of parallel workers based
// on CPU count.
func defaultWorkerCount() int {
	return max(minParallelWorkers, runtime.NumCPU())
}

// getParallelWorkers returns the number of parallel workers to use.
// Invalid BEHAVERUN_PARALLEL values (non-numeric, <1, >256) log a warning
// and fall back to runtime.NumCPU().
func getParallelWorkers() int {
	env := os.Getenv(ParallelEnvVar)
	if env == "" {
		return defaultWorkerCount()
	}

	n, err := strconv.Atoi(env)
	if err != nil {
		out.Warn("invalid %s value %q (not a number), using default", ParallelEnvVar, env)
		return defaultWorkerCount()
	}

	if n < minParallelWorkers || n > maxParallelWorkers {
		out.Warn("%s=%d out of range [%d-%d], using default", ParallelEnvVar, n, minParallelWorkers, maxParallelWorkers)
		return defaultWorkerCount()
	}

	return n
}

func combineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}
