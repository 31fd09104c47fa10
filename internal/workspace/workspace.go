// Package workspace runs a request across the projects of a workspace.
//
// A run has two phases. Preparation evaluates profiles, validates the
// request and plans every selected project; any configuration error there
// aborts the run before a process is launched. Execution then dispatches
// each project's units and reconciles their results. Launch and
// consistency errors do not abort anything: they are collected on the
// project's run.
package workspace

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jimasp/behave-vsc-sub002/internal/config"
	behaverrors "github.com/jimasp/behave-vsc-sub002/internal/errors"
	"github.com/jimasp/behave-vsc-sub002/internal/invoke"
	"github.com/jimasp/behave-vsc-sub002/internal/logging"
	"github.com/jimasp/behave-vsc-sub002/internal/metrics"
	"github.com/jimasp/behave-vsc-sub002/internal/model"
	"github.com/jimasp/behave-vsc-sub002/internal/planner"
	"github.com/jimasp/behave-vsc-sub002/internal/profile"
	"github.com/jimasp/behave-vsc-sub002/internal/project"
	"github.com/jimasp/behave-vsc-sub002/internal/reconcile"
	"github.com/jimasp/behave-vsc-sub002/internal/runner"
)

// Member is a project together with its discovered test tree.
type Member struct {
	Project *project.Project
	Tree    *model.Tree
}

// Name returns the project name.
func (m *Member) Name() string {
	return m.Project.Name()
}

// RunRequest describes what to run.
type RunRequest struct {
	// Profile names the run profile to apply. Empty means none.
	Profile string
	// Strategy overrides the planning strategy. Empty picks per-folder-feature
	// for projects with runParallel set and whole otherwise.
	Strategy planner.Strategy
	Debug    bool
	// ProjectID restricts the run to one project. Empty means all.
	ProjectID string
	// Include restricts the run to scenarios at or below these node ids.
	Include []string
	// Policy forces a dispatch policy. Empty derives it from the request
	// and project settings.
	Policy runner.Policy
}

// ProjectRun is the outcome of running one project.
type ProjectRun struct {
	Project    string
	Strategy   planner.Strategy
	Policy     runner.Policy
	Evaluation *profile.Evaluation
	Plan       *planner.ExecutionPlan
	Outputs    []*runner.UnitOutput
	Result     *reconcile.Result
	// Errors are the launch and consistency errors of the run.
	Errors   []error
	Duration time.Duration
}

// Err combines the project's errors.
func (p *ProjectRun) Err() error {
	return errors.Join(p.Errors...)
}

// RunResult is the outcome of a workspace run.
type RunResult struct {
	RunID    string
	Projects []*ProjectRun

	coordinators []*runner.Coordinator
}

// Summary tallies results across projects.
func (r *RunResult) Summary() model.Summary {
	var s model.Summary
	for _, p := range r.Projects {
		if p.Result != nil {
			s.Add(p.Result.Summary())
		}
	}
	return s
}

// Err combines the errors of every project.
func (r *RunResult) Err() error {
	var errs []error
	for _, p := range r.Projects {
		errs = append(errs, p.Errors...)
	}
	return errors.Join(errs...)
}

// Wait blocks until fire-and-forget custom runner processes have exited.
func (r *RunResult) Wait() {
	for _, c := range r.coordinators {
		c.Wait()
	}
}

// Option configures a workspace run.
type Option func(*options)

type options struct {
	launcher invoke.Launcher
	logger   *logrus.Logger
	metrics  *metrics.Recorder
	tempDir  string
	runID    string
}

// WithLauncher sets the process launcher. The default launches local
// processes.
func WithLauncher(l invoke.Launcher) Option {
	return func(o *options) { o.launcher = l }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *logrus.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records run metrics.
func WithMetrics(m *metrics.Recorder) Option {
	return func(o *options) { o.metrics = m }
}

// WithTempDir sets the directory result directories are created under.
func WithTempDir(dir string) Option {
	return func(o *options) { o.tempDir = dir }
}

// WithRunID sets the run id.
func WithRunID(id string) Option {
	return func(o *options) { o.runID = id }
}

// prepared is a planned project that has not been dispatched yet.
type prepared struct {
	member *Member
	run    *ProjectRun
	log    *logrus.Entry
}

// Run runs the request against the selected projects. A configuration
// error is returned before anything is launched. Cancellation stops
// dispatch; the partial result is returned with ctx.Err().
func Run(ctx context.Context, members []*Member, req RunRequest, opts ...Option) (*RunResult, error) {
	o := &options{
		launcher: invoke.NewExecLauncher(),
		tempDir:  os.TempDir(),
		runID:    uuid.New().String(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.New(io.Discard, false)
	}

	selected, err := selectMembers(members, req.ProjectID)
	if err != nil {
		return nil, err
	}

	parallelProjects := len(selected) > 1 && selected[0].Project.Config.RunProjectsInParallel
	if req.Debug && parallelProjects {
		return nil, behaverrors.Configf("cannot debug %d projects in parallel; select one project or disable runMultiRootProjectsInParallel", len(selected))
	}
	if req.Debug && req.Policy == runner.PolicyParallel {
		return nil, behaverrors.Config("cannot debug with a parallel run policy")
	}

	if err := checkInclude(selected, req.Include); err != nil {
		return nil, err
	}

	var plans []*prepared
	for _, m := range selected {
		p, err := prepare(m, req, o.logger)
		if err != nil {
			return nil, withProject(err, m.Name())
		}
		plans = append(plans, p)
	}

	result := &RunResult{RunID: o.runID}
	for _, p := range plans {
		result.Projects = append(result.Projects, p.run)
		result.coordinators = append(result.coordinators, runner.New(
			p.member.Project.Config, p.member.Tree, o.launcher,
			runner.WithRunID(o.runID),
			runner.WithTempDir(o.tempDir),
			runner.WithMetrics(o.metrics),
			runner.WithLogger(p.log),
		))
	}

	if parallelProjects {
		var g errgroup.Group
		for i, p := range plans {
			p := p
			c := result.coordinators[i]
			g.Go(func() error {
				execute(ctx, c, p, o.metrics)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		// Coordinators check for cancellation before each dispatch, so
		// projects after a cancellation still reconcile, as skipped.
		for i, p := range plans {
			execute(ctx, result.coordinators[i], p, o.metrics)
		}
	}

	return result, ctx.Err()
}

func selectMembers(members []*Member, projectID string) ([]*Member, error) {
	if len(members) == 0 {
		return nil, behaverrors.Config("no projects to run")
	}
	if projectID == "" {
		return members, nil
	}
	for _, m := range members {
		if m.Name() == projectID {
			return []*Member{m}, nil
		}
	}
	return nil, behaverrors.NotFound("project", projectID)
}

// checkInclude verifies that every included id exists in some selected
// project's tree.
func checkInclude(members []*Member, include []string) error {
	for _, id := range include {
		found := false
		for _, m := range members {
			if _, ok := m.Tree.Node(id); ok {
				found = true
				break
			}
		}
		if !found {
			return behaverrors.NotFound("test item", id)
		}
	}
	return nil
}

// prepare evaluates the profile and plans one project.
func prepare(m *Member, req RunRequest, logger *logrus.Logger) (*prepared, error) {
	cfg := m.Project.Config
	log := logging.ForProject(logger, cfg.ProjectName)

	eval, err := profile.Evaluate(cfg, req.Profile, log)
	if err != nil {
		return nil, err
	}
	if eval.CustomRunner != nil {
		if err := config.ValidateCustomRunner("customRunner", eval.CustomRunner); err != nil {
			return nil, behaverrors.WrapConfig(err, "invalid custom runner")
		}
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = planner.StrategyWhole
		if cfg.RunParallel {
			strategy = planner.StrategyPerFolderFeature
		}
	}

	var include []string
	for _, id := range req.Include {
		if _, ok := m.Tree.Node(id); ok {
			include = append(include, id)
		}
	}
	if len(req.Include) > 0 && len(include) == 0 {
		// Nothing of this project was asked for.
		return &prepared{member: m, log: log, run: &ProjectRun{
			Project:    cfg.ProjectName,
			Strategy:   strategy,
			Policy:     runner.PolicySerial,
			Evaluation: eval,
			Plan:       &planner.ExecutionPlan{},
		}}, nil
	}

	plan, err := planner.Plan(m.Tree, planner.Request{
		Strategy:      strategy,
		TagExpression: eval.TagExpression,
		Include:       include,
		Folders:       cfg.FeatureFolders,
		Env:           eval.Env,
		Debug:         req.Debug,
		CustomRunner:  eval.CustomRunner,
	})
	if err != nil {
		return nil, err
	}

	policy := runner.PolicySerial
	switch {
	case req.Debug:
		policy = runner.PolicyDebug
	case req.Policy == runner.PolicyParallel, cfg.RunParallel:
		policy = runner.PolicyParallel
	}

	log.WithFields(logrus.Fields{
		"strategy": strategy,
		"policy":   policy,
		"units":    len(plan.Units),
		"profile":  eval.Profile,
	}).Debugf("planned %d of %d scenarios", plan.Dispatched(), len(plan.Scope))

	return &prepared{member: m, log: log, run: &ProjectRun{
		Project:    cfg.ProjectName,
		Strategy:   strategy,
		Policy:     policy,
		Evaluation: eval,
		Plan:       plan,
	}}, nil
}

// execute dispatches a prepared project and reconciles its results.
func execute(ctx context.Context, c *runner.Coordinator, p *prepared, rec *metrics.Recorder) {
	start := time.Now()
	run := p.run
	tree := p.member.Tree

	outputs, err := c.Run(ctx, run.Plan.Units, run.Policy)
	run.Outputs = outputs
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		run.Errors = append(run.Errors, err)
	}
	for _, o := range outputs {
		if o.Err != nil {
			p.log.Warn(o.Err.Error())
			run.Errors = append(run.Errors, o.Err)
		}
	}

	expected := len(run.Plan.Scope)
	if len(run.Plan.Scope) == len(tree.Scenarios()) {
		expected = tree.Counts.TestCount
	}
	run.Result = reconcile.Reconcile(tree, run.Plan.Scope, outputs, expected)
	if run.Result.Err != nil {
		p.log.Warn(run.Result.Err.Error())
		run.Errors = append(run.Errors, withProject(run.Result.Err, run.Project))
	}
	rec.RecordResults(run.Project, run.Result.List(), run.Result.Consistent())

	run.Duration = time.Since(start)
}

// withProject tags a behaverun error with the project it came from.
func withProject(err error, name string) error {
	var e *behaverrors.Error
	if errors.As(err, &e) && e.Project == "" {
		return e.WithProject(name)
	}
	return err
}
