// Package reconcile merges the outputs of execution units into one result
// per scenario and checks the result count against the test tree's counts.
package reconcile

import (
	"fmt"
	"strings"

	behaverrors "github.com/jimasp/behave-vsc-sub002/internal/errors"
	"github.com/jimasp/behave-vsc-sub002/internal/model"
	"github.com/jimasp/behave-vsc-sub002/internal/runner"
)

// Result is the canonical result set of one project run.
type Result struct {
	// Results maps scenario ids to their result.
	Results map[string]model.ScenarioResult
	// Order lists the scenario ids of Results in scope order.
	Order []string
	// Problems describe disagreements between the runner and the tree.
	Problems []string
	// Err is a consistency error when Problems is not empty or the result
	// count differs from the expected count. Results are still usable.
	Err error
}

// Consistent reports whether the result passed every consistency check.
func (r *Result) Consistent() bool {
	return r.Err == nil
}

// List returns the results in scope order.
func (r *Result) List() []model.ScenarioResult {
	list := make([]model.ScenarioResult, 0, len(r.Order))
	for _, id := range r.Order {
		list = append(list, r.Results[id])
	}
	return list
}

// Summary tallies the results by outcome.
func (r *Result) Summary() model.Summary {
	return model.Summarize(r.List())
}

// Reconcile produces one result for every scenario in scope.
//
// A scenario reported by the unit that ran it keeps that result. A scenario
// no unit owned, such as one filtered out by tags, is skipped. A scenario a
// unit owned but did not report is undetermined and is a problem, as is a
// result for an id the tree does not know. expected is the externally
// supplied scenario count for the scope.
func Reconcile(tree *model.Tree, scope []string, outputs []*runner.UnitOutput, expected int) *Result {
	owner := make(map[string]string)
	reported := make(map[string]model.ScenarioResult)
	var problems []string

	for _, o := range outputs {
		if o == nil || o.Unit == nil {
			continue
		}
		for _, id := range o.Unit.ScenarioIDs {
			owner[id] = o.Unit.ID
		}
	}

	inScope := make(map[string]bool, len(scope))
	for _, id := range scope {
		inScope[id] = true
	}

	for _, o := range outputs {
		if o == nil {
			continue
		}
		for _, res := range o.Results {
			if _, ok := tree.Node(res.ScenarioID); !ok {
				problems = append(problems, fmt.Sprintf("result for unknown scenario %q", res.ScenarioID))
				continue
			}
			if !inScope[res.ScenarioID] {
				problems = append(problems, fmt.Sprintf("result for scenario %q outside the run scope", res.ScenarioID))
				continue
			}
			if _, dup := reported[res.ScenarioID]; dup {
				problems = append(problems, fmt.Sprintf("scenario %q reported more than once", res.ScenarioID))
				continue
			}
			reported[res.ScenarioID] = res
		}
	}

	r := &Result{
		Results: make(map[string]model.ScenarioResult, len(scope)),
		Order:   make([]string, 0, len(scope)),
	}
	for _, id := range scope {
		if _, seen := r.Results[id]; seen {
			continue
		}
		res, ok := reported[id]
		switch {
		case ok:
		case owner[id] != "":
			res = model.ScenarioResult{ScenarioID: id, Outcome: model.OutcomeUndetermined, UnitID: owner[id]}
			problems = append(problems, fmt.Sprintf("scenario %q (%s) was not reported by unit %s",
				id, tree.ScenarioName(id), owner[id]))
		default:
			res = model.ScenarioResult{ScenarioID: id, Outcome: model.OutcomeSkipped}
		}
		r.Results[id] = res
		r.Order = append(r.Order, id)
	}

	if len(r.Results) != expected {
		problems = append(problems, fmt.Sprintf("reconciled %d results, expected %d", len(r.Results), expected))
	}

	r.Problems = problems
	if len(problems) > 0 {
		r.Err = behaverrors.Consistencyf("results do not match the test tree: %s", strings.Join(problems, "; "))
	}
	return r
}
