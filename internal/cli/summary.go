package cli

import (
	"fmt"
	"time"

	"github.com/jimasp/behave-vsc-sub002/internal/model"
	"github.com/jimasp/behave-vsc-sub002/internal/output"
	"github.com/jimasp/behave-vsc-sub002/internal/workspace"
)

// printRun prints per-unit progress, the results table and a final
// status line.
func printRun(result *workspace.RunResult, members []*workspace.Member) {
	trees := make(map[string]*model.Tree, len(members))
	for _, m := range members {
		trees[m.Name()] = m.Tree
	}

	var rows []output.ResultRow
	for _, p := range result.Projects {
		out.ProjectStart(p.Project, fmt.Sprintf("%s, %s, %d units", p.Strategy, p.Policy, len(p.Plan.Units)))
		for _, o := range p.Outputs {
			if o.Err != nil {
				out.UnitFailed(p.Project, o.Unit.ID, o.Err)
			} else {
				out.UnitSuccess(p.Project, o.Unit.ID)
			}
		}
		if p.Result == nil {
			continue
		}
		for _, problem := range p.Result.Problems {
			out.Warn("[%s] %s", p.Project, problem)
		}
		rows = append(rows, resultRows(p.Project, trees[p.Project], p.Result.List())...)
	}

	if len(rows) > 0 {
		out.Println("")
		out.Results("Results", rows)
		out.Failures(rows)
	}

	out.Heading("Summary")
	out.Field("Run", result.RunID)
	for _, p := range result.Projects {
		ok := p.Err() == nil && (p.Result == nil || p.Result.Summary().Failed == 0)
		out.ProjectLine(p.Project, ok, p.Duration.Round(time.Millisecond).String(), firstError(p.Errors))
	}

	s := result.Summary()
	out.Counts(s)

	ok := s.Failed == 0 && result.Err() == nil
	out.Done(ok, "%s", output.SummaryLine(s))
	if result.Err() != nil {
		out.Hint("Rerun with --%s to see runner output.", XRayFlag.Name)
	}
}

func firstError(errs []error) string {
	if len(errs) == 0 {
		return ""
	}
	msg := errs[0].Error()
	if len(errs) > 1 {
		msg = fmt.Sprintf("%s (and %d more)", msg, len(errs)-1)
	}
	return msg
}

func resultRows(projectName string, tree *model.Tree, results []model.ScenarioResult) []output.ResultRow {
	rows := make([]output.ResultRow, 0, len(results))
	for _, r := range results {
		row := output.ResultRow{
			Project:  projectName,
			Scenario: r.ScenarioID,
			Outcome:  r.Outcome,
			Duration: r.Duration,
			Error:    r.Error,
		}
		if tree != nil {
			row.Scenario = tree.ScenarioName(r.ScenarioID)
			if f := tree.FeatureOf(r.ScenarioID); f != nil {
				row.Feature = f.Label
			}
		}
		rows = append(rows, row)
	}
	return rows
}
