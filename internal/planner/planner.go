// Package planner partitions a project's test tree into execution units.
//
// Tag filtering happens once, before partitioning: scenarios that the run's
// tag expression does not select are reported as skipped and never reach a
// unit. The remaining scenarios are split by a Strategy into disjoint units,
// each of which becomes one runner process.
package planner

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/jimasp/behave-vsc-sub002/internal/config"
	behaverrors "github.com/jimasp/behave-vsc-sub002/internal/errors"
	"github.com/jimasp/behave-vsc-sub002/internal/model"
	"github.com/jimasp/behave-vsc-sub002/internal/paths"
	"github.com/jimasp/behave-vsc-sub002/internal/tags"
)

// Strategy decides how scenarios are grouped into units.
type Strategy string

const (
	// StrategyWhole runs everything in one unit.
	StrategyWhole Strategy = "whole"
	// StrategyPerFolder runs one unit per top-level feature folder.
	StrategyPerFolder Strategy = "per-folder"
	// StrategyPerFeatureScenario runs one unit per scenario.
	StrategyPerFeatureScenario Strategy = "per-feature-scenario"
	// StrategyPerFolderFeature runs one unit per feature file, grouped by folder.
	StrategyPerFolderFeature Strategy = "per-folder-feature"
)

// Strategies lists the supported strategies.
var Strategies = []Strategy{
	StrategyWhole,
	StrategyPerFolder,
	StrategyPerFeatureScenario,
	StrategyPerFolderFeature,
}

// ParseStrategy parses a strategy name. An empty name is StrategyWhole.
func ParseStrategy(s string) (Strategy, error) {
	if s == "" {
		return StrategyWhole, nil
	}
	for _, st := range Strategies {
		if string(st) == s {
			return st, nil
		}
	}
	names := make([]string, len(Strategies))
	for i, st := range Strategies {
		names[i] = string(st)
	}
	return "", behaverrors.Configf("unknown strategy %q (valid: %s)", s, strings.Join(names, ", "))
}

// UnitKind describes what a unit's process is asked to run.
type UnitKind string

const (
	UnitWhole    UnitKind = "whole"
	UnitFolder   UnitKind = "folder"
	UnitFeature  UnitKind = "feature"
	UnitScenario UnitKind = "scenario"
)

// ExecutionUnit is one runner process worth of scenarios.
type ExecutionUnit struct {
	ID   string
	Kind UnitKind

	// ScenarioIDs are the tree ids of the scenarios this unit owns.
	ScenarioIDs []string
	// ScenarioNames are the runner tool names of ScenarioIDs. They are set
	// when the unit owns only some of its feature's runnable scenarios.
	ScenarioNames []string
	// FeaturePaths are project-relative feature files, in tree order.
	FeaturePaths []string
	// FolderPath is set for folder and feature units.
	FolderPath string
	// WholeFolder is set on folder units that own every runnable scenario
	// below FolderPath, so the folder itself can be selected.
	WholeFolder bool
	// Everything is set when the unit covers the whole project and needs no
	// feature selection.
	Everything bool

	Env           map[string]string
	TagExpression *string
	Debug         bool
	CustomRunner  *config.CustomRunner
}

// Request holds the inputs to Plan.
type Request struct {
	Strategy      Strategy
	TagExpression *string
	// Include restricts the run to scenarios at or below these node ids.
	// Empty means the whole tree.
	Include []string
	// Folders are the project's feature folders, used to group features
	// for StrategyPerFolder.
	Folders      []string
	Env          map[string]string
	Debug        bool
	CustomRunner *config.CustomRunner
}

// ExecutionPlan is the result of planning one project run.
type ExecutionPlan struct {
	Units []*ExecutionUnit
	// Scope is every scenario in the requested scope, in tree order.
	Scope []string
	// Skipped are scope scenarios not selected by the tag expression.
	Skipped []string
}

// Dispatched returns the number of scenarios owned by units.
func (p *ExecutionPlan) Dispatched() int {
	n := 0
	for _, u := range p.Units {
		n += len(u.ScenarioIDs)
	}
	return n
}

// Plan filters the tree by tags and partitions the selected scenarios into
// units according to the request's strategy.
func Plan(tree *model.Tree, req Request) (*ExecutionPlan, error) {
	strategy := req.Strategy
	if strategy == "" {
		strategy = StrategyWhole
	}

	if req.TagExpression != nil && tags.Parse(*req.TagExpression).Empty() {
		return nil, behaverrors.Configf("tag expression %q lists no tags", *req.TagExpression)
	}

	for _, id := range req.Include {
		if _, ok := tree.Node(id); !ok {
			return nil, behaverrors.NotFound("test item", id)
		}
	}

	scope := tree.Scenarios()
	if len(req.Include) > 0 {
		scope = tree.ScenariosUnder(req.Include)
	}

	plan := &ExecutionPlan{Scope: scope}
	var selected []string
	for _, id := range scope {
		if tags.Matches(tree.EffectiveTags(id), req.TagExpression) {
			selected = append(selected, id)
		} else {
			plan.Skipped = append(plan.Skipped, id)
		}
	}

	features := groupByFeature(tree, selected)
	if len(req.Include) > 0 {
		markPartial(tree, features, req.TagExpression)
	}

	var units []*ExecutionUnit
	switch strategy {
	case StrategyWhole:
		units = planWhole(features, len(req.Include) == 0)
	case StrategyPerFolder:
		units = planPerFolder(tree, features, req.Folders, req.TagExpression)
	case StrategyPerFeatureScenario:
		units = planPerScenario(tree, features)
	case StrategyPerFolderFeature:
		units = planPerFeature(features)
	default:
		return nil, behaverrors.Configf("unknown strategy %q", strategy)
	}

	for i, u := range units {
		u.ID = fmt.Sprintf("%s-%03d", u.Kind, i+1)
		u.Env = req.Env
		u.TagExpression = req.TagExpression
		u.Debug = req.Debug
		u.CustomRunner = req.CustomRunner
	}
	plan.Units = units
	return plan, nil
}

// featureGroup is a feature and its selected scenarios, in tree order.
type featureGroup struct {
	feature   *model.Node
	scenarios []string
	// names is set when scenarios is a strict subset of the feature's
	// runnable scenarios. The runner tool then has to select by name.
	names []string
}

// runnable returns the scenarios of the whole tree selected by expr.
func runnable(tree *model.Tree, expr *string) []string {
	var ids []string
	for _, id := range tree.Scenarios() {
		if tags.Matches(tree.EffectiveTags(id), expr) {
			ids = append(ids, id)
		}
	}
	return ids
}

// markPartial sets names on features that run only some of their runnable
// scenarios. Scenarios left out by tags are not counted; the tag expression
// is passed to the runner tool.
func markPartial(tree *model.Tree, features []*featureGroup, expr *string) {
	total := make(map[string]int)
	for _, id := range runnable(tree, expr) {
		total[tree.FeatureOf(id).ID]++
	}
	for _, g := range features {
		if len(g.scenarios) == total[g.feature.ID] {
			continue
		}
		g.names = make([]string, len(g.scenarios))
		for i, id := range g.scenarios {
			g.names[i] = tree.ScenarioName(id)
		}
	}
}

func (g *featureGroup) partial() bool {
	return g.names != nil
}

// featureUnit runs a single feature.
func featureUnit(g *featureGroup) *ExecutionUnit {
	return &ExecutionUnit{
		Kind:          UnitFeature,
		ScenarioIDs:   append([]string(nil), g.scenarios...),
		ScenarioNames: g.names,
		FeaturePaths:  []string{g.feature.Path},
		FolderPath:    dirOf(g.feature.Path),
	}
}

func groupByFeature(tree *model.Tree, selected []string) []*featureGroup {
	var groups []*featureGroup
	index := make(map[string]*featureGroup)
	for _, id := range selected {
		f := tree.FeatureOf(id)
		g, ok := index[f.ID]
		if !ok {
			g = &featureGroup{feature: f}
			index[f.ID] = g
			groups = append(groups, g)
		}
		g.scenarios = append(g.scenarios, id)
	}
	return groups
}

// planWhole puts every complete feature in one unit. Partially selected
// features get a unit each so scenario names apply to them alone.
func planWhole(features []*featureGroup, everything bool) []*ExecutionUnit {
	var whole *ExecutionUnit
	var units []*ExecutionUnit
	for _, g := range features {
		if g.partial() {
			units = append(units, featureUnit(g))
			continue
		}
		if whole == nil {
			whole = &ExecutionUnit{Kind: UnitWhole, Everything: everything}
			units = append(units, whole)
		}
		whole.FeaturePaths = append(whole.FeaturePaths, g.feature.Path)
		whole.ScenarioIDs = append(whole.ScenarioIDs, g.scenarios...)
	}
	return units
}

// planPerFolder groups complete features by top-level folder. A folder unit
// that owns everything runnable below its folder selects the folder, else
// it lists its features.
func planPerFolder(tree *model.Tree, features []*featureGroup, folders []string, expr *string) []*ExecutionUnit {
	total := make(map[string]int)
	for _, id := range runnable(tree, expr) {
		total[topFolder(tree.FeatureOf(id).Path, folders)]++
	}

	var units []*ExecutionUnit
	index := make(map[string]*ExecutionUnit)
	for _, g := range features {
		if g.partial() {
			units = append(units, featureUnit(g))
			continue
		}
		folder := topFolder(g.feature.Path, folders)
		u, ok := index[folder]
		if !ok {
			u = &ExecutionUnit{Kind: UnitFolder, FolderPath: folder}
			index[folder] = u
			units = append(units, u)
		}
		u.FeaturePaths = append(u.FeaturePaths, g.feature.Path)
		u.ScenarioIDs = append(u.ScenarioIDs, g.scenarios...)
	}
	for folder, u := range index {
		u.WholeFolder = len(u.ScenarioIDs) == total[folder]
	}
	return units
}

func planPerScenario(tree *model.Tree, features []*featureGroup) []*ExecutionUnit {
	var units []*ExecutionUnit
	for _, g := range features {
		for _, id := range g.scenarios {
			units = append(units, &ExecutionUnit{
				Kind:          UnitScenario,
				ScenarioIDs:   []string{id},
				ScenarioNames: []string{tree.ScenarioName(id)},
				FeaturePaths:  []string{g.feature.Path},
			})
		}
	}
	return units
}

func planPerFeature(features []*featureGroup) []*ExecutionUnit {
	ordered := append([]*featureGroup(nil), features...)
	// Stable so features keep tree order within a folder.
	sort.SliceStable(ordered, func(i, j int) bool {
		return path.Dir(ordered[i].feature.Path) < path.Dir(ordered[j].feature.Path)
	})

	units := make([]*ExecutionUnit, 0, len(ordered))
	for _, g := range ordered {
		units = append(units, featureUnit(g))
	}
	return units
}

// topFolder returns the outermost configured folder containing the feature,
// or the feature's first path segment when no configured folder does.
func topFolder(featurePath string, folders []string) string {
	best := ""
	found := false
	for _, f := range folders {
		// The project root only holds features directly inside it.
		if f == "" && dirOf(featurePath) != "" {
			continue
		}
		if paths.IsUnder(featurePath, f) && (!found || len(f) < len(best)) {
			best, found = f, true
		}
	}
	if found {
		return best
	}
	dir := dirOf(featurePath)
	if i := strings.Index(dir, "/"); i >= 0 {
		return dir[:i]
	}
	return dir
}

func dirOf(p string) string {
	dir := path.Dir(p)
	if dir == "." {
		return ""
	}
	return dir
}
