package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/jimasp/behave-vsc-sub002/internal/config"
	behaverrors "github.com/jimasp/behave-vsc-sub002/internal/errors"
	"github.com/jimasp/behave-vsc-sub002/internal/invoke"
	"github.com/jimasp/behave-vsc-sub002/internal/logging"
	"github.com/jimasp/behave-vsc-sub002/internal/metrics"
	"github.com/jimasp/behave-vsc-sub002/internal/model"
	"github.com/jimasp/behave-vsc-sub002/internal/planner"
	"github.com/jimasp/behave-vsc-sub002/internal/project"
	"github.com/jimasp/behave-vsc-sub002/internal/runner"
	"github.com/jimasp/behave-vsc-sub002/internal/workspace"
)

// newLauncher creates the process launcher of a run. Tests replace it.
var newLauncher = func(xRay bool) invoke.Launcher {
	l := invoke.NewExecLauncher()
	if xRay {
		l.Stdout = os.Stderr
		l.Stderr = os.Stderr
	}
	return l
}

// cmdRun runs scenarios and prints their results.
func cmdRun(c *cli.Context) error {
	out.SetQuiet(c.Bool(QuietFlag.Name))

	treeFiles := c.StringSlice(TreeFlag.Name)
	if len(treeFiles) == 0 {
		return behaverrors.Configf("--%s is required", TreeFlag.Name)
	}

	req, err := runRequest(c)
	if err != nil {
		return err
	}

	logger := newLogger(c)
	projects, err := loadProjects(c, logger)
	if err != nil {
		return err
	}
	members, err := attachTrees(projects, treeFiles, req.ProjectID)
	if err != nil {
		return err
	}
	printWarnings(projects)

	opts := []workspace.Option{
		workspace.WithLogger(logger),
		workspace.WithLauncher(newLauncher(c.Bool(XRayFlag.Name))),
	}
	var rec *metrics.Recorder
	if c.String(MetricsFileFlag.Name) != "" {
		rec = metrics.New()
		opts = append(opts, workspace.WithMetrics(rec))
	}

	result, runErr := workspace.Run(c.Context, members, req, opts...)
	if result == nil {
		return runErr
	}

	printRun(result, members)
	result.Wait()

	if rec != nil {
		if err := rec.WriteFile(c.String(MetricsFileFlag.Name)); err != nil {
			out.Warn("%v", err)
		}
	}

	if runErr != nil {
		return runErr
	}
	if err := result.Err(); err != nil {
		// Unit errors were printed with the run.
		return reported(err)
	}
	if s := result.Summary(); s.Failed > 0 {
		return reported(behaverrors.Newf("%d scenarios failed", s.Failed))
	}
	return nil
}

func runRequest(c *cli.Context) (workspace.RunRequest, error) {
	req := workspace.RunRequest{
		Profile:   c.String(ProfileFlag.Name),
		Debug:     c.Bool(DebugFlag.Name),
		ProjectID: c.String(ProjectFlag.Name),
		Include:   c.StringSlice(IncludeFlag.Name),
	}
	if c.IsSet(StrategyFlag.Name) {
		s, err := planner.ParseStrategy(c.String(StrategyFlag.Name))
		if err != nil {
			return req, err
		}
		req.Strategy = s
	}
	if c.Bool(ParallelFlag.Name) {
		req.Policy = runner.PolicyParallel
	}
	return req, nil
}

// cmdConfig prints the effective configuration of each project as YAML.
func cmdConfig(c *cli.Context) error {
	projects, err := loadProjects(c, newLogger(c))
	if err != nil {
		return err
	}
	projects, err = selectProjects(projects, c.String(ProjectFlag.Name))
	if err != nil {
		return err
	}
	printWarnings(projects)

	for i, p := range projects {
		if i > 0 {
			out.Println("---")
		}
		data, err := yaml.Marshal(p.Config)
		if err != nil {
			return fmt.Errorf("failed to encode configuration: %w", err)
		}
		out.Print("%s", data)
	}
	return nil
}

// cmdProfiles lists the run profiles of each project.
func cmdProfiles(c *cli.Context) error {
	projects, err := loadProjects(c, newLogger(c))
	if err != nil {
		return err
	}
	projects, err = selectProjects(projects, c.String(ProjectFlag.Name))
	if err != nil {
		return err
	}

	var rows [][]string
	for _, p := range projects {
		for _, rp := range p.Config.Profiles {
			rows = append(rows, []string{p.Name(), rp.Name, profileTags(rp.TagExpression), envKeys(rp.Env), customRunner(rp.CustomRunner)})
		}
	}
	if len(rows) == 0 {
		out.Info("no run profiles defined")
		return nil
	}
	out.Table([]string{"Project", "Profile", "Tags", "Env", "Custom runner"}, rows)
	return nil
}

func cmdVersion(*cli.Context) error {
	out.Println("behaverun %s", Version)
	return nil
}

func newLogger(c *cli.Context) *logrus.Logger {
	return logging.Default(c.Bool(XRayFlag.Name))
}

// loadProjects loads the project roots of the command. Without roots the
// nearest project root above the current directory is used.
func loadProjects(c *cli.Context, logger *logrus.Logger) ([]*project.Project, error) {
	roots := c.StringSlice(ProjectRootFlag.Name)
	settings := c.String(SettingsFlag.Name)

	if len(roots) == 0 {
		root, err := project.FindRoot()
		if err != nil {
			return nil, behaverrors.WrapConfig(err, "cannot find a project root")
		}
		roots = []string{root}
	}

	var projects []*project.Project
	if settings != "" {
		if len(roots) > 1 {
			return nil, behaverrors.Configf("--%s applies to a single project root, got %d", SettingsFlag.Name, len(roots))
		}
		p, err := project.LoadProjectWithSettings(roots[0], settings, logger.WithField(logging.FieldProject, roots[0]))
		if err != nil {
			return nil, err
		}
		projects = []*project.Project{p}
	} else {
		var err error
		projects, err = project.LoadProjects(roots, logger)
		if err != nil {
			return nil, err
		}
	}

	for _, p := range projects {
		if p.Config.XRay {
			logging.SetXRay(logger, true)
		}
	}
	return projects, nil
}

func selectProjects(projects []*project.Project, name string) ([]*project.Project, error) {
	if name == "" {
		return projects, nil
	}
	for _, p := range projects {
		if p.Name() == name {
			return []*project.Project{p}, nil
		}
	}
	return nil, behaverrors.NotFound("project", name)
}

// attachTrees pairs projects with test trees by project id. A single
// project takes a single tree whatever its id. When projectID selects one
// project, the others do not need a tree.
func attachTrees(projects []*project.Project, treeFiles []string, projectID string) ([]*workspace.Member, error) {
	trees := make(map[string]*model.Tree)
	var first *model.Tree
	for _, f := range treeFiles {
		t, err := model.LoadTree(f)
		if err != nil {
			return nil, behaverrors.WrapConfig(err, f)
		}
		if _, dup := trees[t.ProjectID]; dup {
			return nil, behaverrors.Configf("more than one test tree for project %q", t.ProjectID)
		}
		trees[t.ProjectID] = t
		if first == nil {
			first = t
		}
	}

	if len(projects) == 1 && len(treeFiles) == 1 {
		return []*workspace.Member{{Project: projects[0], Tree: first}}, nil
	}

	var members []*workspace.Member
	for _, p := range projects {
		t, ok := trees[p.Name()]
		if !ok {
			if projectID != "" && projectID != p.Name() {
				continue
			}
			return nil, behaverrors.Configf("no test tree for project %q", p.Name())
		}
		delete(trees, p.Name())
		members = append(members, &workspace.Member{Project: p, Tree: t})
	}

	if len(trees) > 0 {
		ids := make([]string, 0, len(trees))
		for id := range trees {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		return nil, behaverrors.NotFound("project", ids[0])
	}
	return members, nil
}

func printWarnings(projects []*project.Project) {
	for _, p := range projects {
		for _, w := range p.Warnings {
			out.Warn("[%s] %s", p.Name(), w)
		}
	}
}

func profileTags(expr *string) string {
	if expr == nil {
		return "-"
	}
	return *expr
}

func envKeys(env map[string]string) string {
	if len(env) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

func customRunner(r *config.CustomRunner) string {
	if r == nil {
		return "-"
	}
	text := strings.Join(append([]string{r.ScriptFile}, r.Args...), " ")
	if !r.Wait() {
		text += " (no wait)"
	}
	return text
}
