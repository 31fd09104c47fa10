// Package model provides the test tree and result types shared by the
// planner, runner and reconciler.
package model

import (
	"fmt"
)

// Kind is the kind of a test tree node.
type Kind string

const (
	KindProject  Kind = "project"
	KindFolder   Kind = "folder"
	KindFeature  Kind = "feature"
	KindScenario Kind = "scenario"
	KindOutline  Kind = "outline"
	KindExample  Kind = "example"
)

// IsLeaf reports whether nodes of this kind are schedulable scenarios.
// Outline templates are not; each of their example rows is.
func (k Kind) IsLeaf() bool {
	return k == KindScenario || k == KindExample
}

func (k Kind) valid() bool {
	switch k {
	case KindProject, KindFolder, KindFeature, KindScenario, KindOutline, KindExample:
		return true
	}
	return false
}

// Node is a node in the externally discovered test tree.
type Node struct {
	ID       string   `json:"id"`
	ParentID string   `json:"parentId,omitempty"`
	Children []string `json:"children,omitempty"`
	Kind     Kind     `json:"kind"`
	Tags     []string `json:"tags,omitempty"`
	Label    string   `json:"label"`

	// Path is the project-relative feature file path (feature nodes) or
	// folder path (folder nodes).
	Path string `json:"path,omitempty"`
}

// Counts are the node and test counts reported by the parser that built
// the tree. They are the reference for result reconciliation.
type Counts struct {
	NodeCount int `json:"nodeCount"`
	TestCount int `json:"testCount"`
}

// Tree is a read-only test tree for one project.
type Tree struct {
	ProjectID string
	Counts    Counts

	nodes map[string]*Node
	roots []string
}

// NewTree builds a tree from nodes and validates its structure. Children
// lists are derived from parent ids, in node order, for nodes that do not
// declare them.
func NewTree(projectID string, counts Counts, nodes []*Node) (*Tree, error) {
	t := &Tree{
		ProjectID: projectID,
		Counts:    counts,
		nodes:     make(map[string]*Node, len(nodes)),
	}

	for _, n := range nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("node with label %q has no id", n.Label)
		}
		if !n.Kind.valid() {
			return nil, fmt.Errorf("node %q: unknown kind %q", n.ID, n.Kind)
		}
		if _, dup := t.nodes[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %q", n.ID)
		}
		t.nodes[n.ID] = n
	}

	declared := make(map[string]bool)
	for _, n := range nodes {
		if len(n.Children) > 0 {
			declared[n.ID] = true
		}
	}

	for _, n := range nodes {
		if n.ParentID == "" {
			t.roots = append(t.roots, n.ID)
			continue
		}
		parent, ok := t.nodes[n.ParentID]
		if !ok {
			return nil, fmt.Errorf("node %q: parent %q not found", n.ID, n.ParentID)
		}
		if !declared[parent.ID] {
			parent.Children = append(parent.Children, n.ID)
		}
	}

	for _, n := range nodes {
		for _, c := range n.Children {
			child, ok := t.nodes[c]
			if !ok {
				return nil, fmt.Errorf("node %q: child %q not found", n.ID, c)
			}
			if child.ParentID != n.ID {
				return nil, fmt.Errorf("node %q: child %q has parent %q", n.ID, c, child.ParentID)
			}
		}
	}

	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// validate checks that every leaf's ancestor chain reaches exactly one
// feature node and after it exactly one project root.
func (t *Tree) validate() error {
	for _, id := range t.roots {
		if t.nodes[id].Kind != KindProject {
			return fmt.Errorf("root node %q is a %s, want project", id, t.nodes[id].Kind)
		}
	}

	for id, n := range t.nodes {
		if !n.Kind.IsLeaf() {
			continue
		}
		features, projects := 0, 0
		seen := make(map[string]bool)
		for cur := n; cur != nil; cur = t.nodes[cur.ParentID] {
			if seen[cur.ID] {
				return fmt.Errorf("node %q: cycle in ancestor chain", id)
			}
			seen[cur.ID] = true
			switch cur.Kind {
			case KindFeature:
				features++
			case KindProject:
				if features == 0 {
					return fmt.Errorf("scenario %q: project reached before a feature", id)
				}
				projects++
			}
			if cur.ParentID == "" {
				break
			}
		}
		if features != 1 {
			return fmt.Errorf("scenario %q: %d feature ancestors, want 1", id, features)
		}
		if projects != 1 {
			return fmt.Errorf("scenario %q: %d project ancestors, want 1", id, projects)
		}
		if n.Kind == KindExample {
			if p := t.nodes[n.ParentID]; p == nil || p.Kind != KindOutline {
				return fmt.Errorf("example %q: parent is not an outline", id)
			}
		}
	}
	return nil
}

// Node returns the node with the given id.
func (t *Tree) Node(id string) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Roots returns the ids of the root nodes in order.
func (t *Tree) Roots() []string {
	return append([]string(nil), t.roots...)
}

// Walk visits id and its descendants depth first in child order.
func (t *Tree) Walk(id string, fn func(*Node)) {
	n, ok := t.nodes[id]
	if !ok {
		return
	}
	fn(n)
	for _, c := range n.Children {
		t.Walk(c, fn)
	}
}

// Scenarios returns every schedulable scenario id in tree order.
func (t *Tree) Scenarios() []string {
	return t.ScenariosUnder(t.roots)
}

// ScenariosUnder returns the schedulable scenario ids at or below the given
// nodes, in tree order, without duplicates.
func (t *Tree) ScenariosUnder(ids []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, id := range ids {
		t.Walk(id, func(n *Node) {
			if n.Kind.IsLeaf() && !seen[n.ID] {
				seen[n.ID] = true
				out = append(out, n.ID)
			}
		})
	}
	return out
}

// Features returns feature nodes in tree order.
func (t *Tree) Features() []*Node {
	var out []*Node
	for _, id := range t.roots {
		t.Walk(id, func(n *Node) {
			if n.Kind == KindFeature {
				out = append(out, n)
			}
		})
	}
	return out
}

// FeatureOf returns the feature node above a scenario.
func (t *Tree) FeatureOf(id string) *Node {
	return t.ancestorOfKind(id, KindFeature)
}

// ProjectOf returns the project node above a node.
func (t *Tree) ProjectOf(id string) *Node {
	return t.ancestorOfKind(id, KindProject)
}

func (t *Tree) ancestorOfKind(id string, kind Kind) *Node {
	for cur := t.nodes[id]; cur != nil; cur = t.nodes[cur.ParentID] {
		if cur.Kind == kind {
			return cur
		}
		if cur.ParentID == "" {
			return nil
		}
	}
	return nil
}

// EffectiveTags returns a scenario's own tags followed by those inherited
// from its outline and feature.
func (t *Tree) EffectiveTags(id string) []string {
	var tags []string
	for cur := t.nodes[id]; cur != nil; cur = t.nodes[cur.ParentID] {
		tags = append(tags, cur.Tags...)
		if cur.Kind == KindFeature || cur.ParentID == "" {
			break
		}
	}
	return tags
}

// ScenarioName returns the name the runner tool reports for a scenario.
// Outline example rows are named "<outline> -- <row label>".
func (t *Tree) ScenarioName(id string) string {
	n, ok := t.nodes[id]
	if !ok {
		return ""
	}
	if n.Kind == KindExample {
		if outline, ok := t.nodes[n.ParentID]; ok {
			return outline.Label + " -- " + n.Label
		}
	}
	return n.Label
}

// OutlineOf returns the outline that owns an example row, or nil.
func (t *Tree) OutlineOf(id string) *Node {
	n, ok := t.nodes[id]
	if !ok || n.Kind != KindExample {
		return nil
	}
	return t.nodes[n.ParentID]
}
