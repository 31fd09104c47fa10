package runner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	behaverrors "github.com/jimasp/behave-vsc-sub002/internal/errors"
	"github.com/jimasp/behave-vsc-sub002/internal/invoke"
	"github.com/jimasp/behave-vsc-sub002/internal/junit"
	"github.com/jimasp/behave-vsc-sub002/internal/logging"
	"github.com/jimasp/behave-vsc-sub002/internal/model"
	"github.com/jimasp/behave-vsc-sub002/internal/planner"
)

// UnitDir returns the JUnit directory of a unit:
// <temp>/behaverun/<run id>/<project>/<unit id>.
func (c *Coordinator) UnitDir(u *planner.ExecutionUnit) string {
	return filepath.Join(c.tempDir, "behaverun", c.runID, c.cfg.ProjectName, u.ID)
}

// runUnit launches one unit and reads its results. It never returns nil.
func (c *Coordinator) runUnit(ctx context.Context, u *planner.ExecutionUnit) *UnitOutput {
	start := time.Now()
	o := &UnitOutput{Unit: u}
	log := c.log.WithField(logging.FieldUnit, u.ID)

	defer func() {
		o.Duration = time.Since(start)
		c.metrics.RecordUnit(c.cfg.ProjectName, string(u.Kind), o.Duration, o.Err != nil)
		log.WithFields(logrus.Fields{
			"exitCode": o.ExitCode,
			"results":  len(o.Results),
		}).Debugf("unit finished in %s", o.Duration.Round(time.Millisecond))
	}()

	junitDir := c.UnitDir(u)
	if err := os.MkdirAll(junitDir, 0755); err != nil {
		c.fail(o, err)
		return o
	}

	inv, err := invoke.Build(c.cfg, u, junitDir)
	if err != nil {
		c.fail(o, err)
		return o
	}
	o.Command = inv.Friendly()
	log.Info(o.Command)

	release := func() {}
	if u.Debug {
		unlock, err := acquireDebugLock(ctx, c.tempDir)
		if err != nil {
			c.fail(o, err)
			return o
		}
		release = unlock
	}

	proc, err := c.launcher.Start(ctx, inv)
	if err != nil {
		release()
		c.fail(o, err)
		return o
	}

	if !inv.Wait {
		c.reaping.Add(1)
		go func() {
			defer c.reaping.Done()
			defer release()
			if exit, err := proc.Wait(); err != nil {
				log.Warnf("custom runner: %v", err)
			} else {
				log.Debugf("custom runner exited with code %d", exit.Code)
			}
		}()
		o.Results = undetermined(u)
		return o
	}

	exit, err := proc.Wait()
	release()
	if err != nil {
		c.fail(o, err)
		return o
	}
	o.ExitCode = exit.Code
	o.Output = logging.Clean(exit.Output + readLog(inv.LogFile))
	if o.Output != "" {
		log.Debug(o.Output)
	}

	if !c.awaitArtifacts(c.artifactFiles(u, junitDir), inv.Custom) {
		if exit.Code != 0 || junit.IsExecutionError(o.Output) {
			o.ExecutionError = junit.IsExecutionError(o.Output)
			o.Err = behaverrors.Launchf(c.cfg.ProjectName, u.ID, "exited with code %d and wrote no results", exit.Code)
			o.Results = undetermined(u)
			return o
		}
		log.Warnf("no results written to %s", junitDir)
		return o
	}

	results, err := c.readResults(u, junitDir)
	if err != nil {
		c.fail(o, err)
		return o
	}
	o.Results = results
	return o
}

// fail records a launch failure. All scenarios of the unit stay
// undetermined. Configuration errors are kept as they are.
func (c *Coordinator) fail(o *UnitOutput, err error) {
	if behaverrors.IsConfig(err) {
		o.Err = err
	} else {
		o.Err = behaverrors.Launch(c.cfg.ProjectName, o.Unit.ID, err)
	}
	o.Results = undetermined(o.Unit)
}

func undetermined(u *planner.ExecutionUnit) []model.ScenarioResult {
	results := make([]model.ScenarioResult, len(u.ScenarioIDs))
	for i, id := range u.ScenarioIDs {
		results[i] = model.ScenarioResult{ScenarioID: id, Outcome: model.OutcomeUndetermined, UnitID: u.ID}
	}
	return results
}

func (c *Coordinator) naming() junit.Naming {
	return junit.Naming{
		WorkingDir:  c.cfg.WorkingDir,
		ConfigPaths: c.cfg.ConfigPaths,
		BaseDir:     c.cfg.BaseDir,
	}
}

// artifactFiles returns the JUnit files the unit's features are expected
// to produce, in feature order.
func (c *Coordinator) artifactFiles(u *planner.ExecutionUnit, junitDir string) []string {
	naming := c.naming()
	seen := make(map[string]bool)
	var files []string
	for _, id := range u.ScenarioIDs {
		feature := c.tree.FeatureOf(id)
		if feature == nil {
			continue
		}
		file := filepath.Join(junitDir, naming.FileName(feature.Path))
		if !seen[file] {
			seen[file] = true
			files = append(files, file)
		}
	}
	return files
}

// awaitArtifacts reports whether any of files exists. With poll set it
// waits, up to the results timeout, for all of them to appear.
func (c *Coordinator) awaitArtifacts(files []string, poll bool) bool {
	deadline := time.Now().Add(c.cfg.ResultsTimeout)
	for {
		found := 0
		for _, f := range files {
			if _, err := os.Stat(f); err == nil {
				found++
			}
		}
		if found == len(files) || !poll || !time.Now().Before(deadline) {
			return found > 0
		}
		time.Sleep(c.pollInterval)
	}
}

// readResults maps the unit's scenarios to JUnit test cases. Scenarios
// without a test case are left out. Results keep the order in which the
// runner wrote them.
func (c *Coordinator) readResults(u *planner.ExecutionUnit, junitDir string) ([]model.ScenarioResult, error) {
	type placed struct {
		result model.ScenarioResult
		file   int
		index  int
	}

	naming := c.naming()
	suites := make(map[string]*junit.TestSuite)
	fileOrder := make(map[string]int)
	var all []placed

	for _, id := range u.ScenarioIDs {
		feature := c.tree.FeatureOf(id)
		if feature == nil {
			continue
		}
		name := naming.FeatureName(feature.Path)
		file := filepath.Join(junitDir, junit.FileName(name))

		suite, ok := suites[file]
		if !ok {
			var err error
			suite, err = junit.ReadFile(file)
			if errors.Is(err, fs.ErrNotExist) {
				suite = nil
			} else if err != nil {
				return nil, err
			} else {
				fileOrder[file] = len(fileOrder)
			}
			suites[file] = suite
		}
		if suite == nil {
			continue
		}

		tc, ok := suite.Find(junit.ClassName(name, feature.Label), c.tree.ScenarioName(id))
		if !ok {
			continue
		}
		res := model.ScenarioResult{
			ScenarioID: id,
			Outcome:    tc.Outcome(),
			Duration:   tc.Duration(),
			UnitID:     u.ID,
		}
		if res.Outcome == model.OutcomeFailed {
			res.Error = tc.FailureText()
		}
		all = append(all, placed{result: res, file: fileOrder[file], index: caseIndex(suite, tc)})
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].file != all[j].file {
			return all[i].file < all[j].file
		}
		return all[i].index < all[j].index
	})

	results := make([]model.ScenarioResult, len(all))
	for i, p := range all {
		results[i] = p.result
	}
	return results, nil
}

func caseIndex(suite *junit.TestSuite, tc *junit.TestCase) int {
	for i := range suite.Cases {
		if &suite.Cases[i] == tc {
			return i
		}
	}
	return len(suite.Cases)
}

// readLog returns the contents of a debug log file, if any.
func readLog(filename string) string {
	if filename == "" {
		return ""
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return ""
	}
	return string(data)
}
