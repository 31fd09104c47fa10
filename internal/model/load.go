package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// treeDocument is the JSON form of a test tree produced by the feature
// parser.
type treeDocument struct {
	ProjectID string  `json:"projectId"`
	Counts    *Counts `json:"counts"`
	Nodes     []*Node `json:"nodes"`
}

// ParseTree decodes a JSON test tree document. When the document carries no
// counts, they are derived from the nodes.
func ParseTree(data []byte) (*Tree, error) {
	var doc treeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse test tree: %w", err)
	}

	counts := Counts{}
	if doc.Counts != nil {
		counts = *doc.Counts
	} else {
		counts.NodeCount = len(doc.Nodes)
		for _, n := range doc.Nodes {
			if n.Kind.IsLeaf() {
				counts.TestCount++
			}
		}
	}

	tree, err := NewTree(doc.ProjectID, counts, doc.Nodes)
	if err != nil {
		return nil, fmt.Errorf("invalid test tree: %w", err)
	}
	return tree, nil
}

// LoadTree reads and parses a JSON test tree file.
func LoadTree(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read test tree: %w", err)
	}
	return ParseTree(data)
}
