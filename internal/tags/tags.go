// Package tags matches scenario tags against run profile tag expressions.
package tags

import (
	"strings"
)

// flagPrefix may be written in front of an expression, mirroring the runner
// tool's command line flag.
const flagPrefix = "--tags="

// Expression is a parsed tag expression: an OR of literal tags.
type Expression struct {
	raw      string
	literals []string
}

// Parse parses a comma-separated list of literal tags. Surrounding
// whitespace of each literal is trimmed; anything else, including quote
// characters and the leading "@", is part of the literal.
func Parse(expr string) Expression {
	raw := strings.TrimPrefix(strings.TrimSpace(expr), flagPrefix)

	var literals []string
	for _, part := range strings.Split(raw, ",") {
		if lit := strings.TrimSpace(part); lit != "" {
			literals = append(literals, lit)
		}
	}
	return Expression{raw: raw, literals: literals}
}

// String returns the expression without any flag prefix.
func (e Expression) String() string {
	return e.raw
}

// Literals returns the literal tags of the expression.
func (e Expression) Literals() []string {
	return append([]string(nil), e.literals...)
}

// Empty reports whether the expression lists no tags. An empty expression
// matches nothing.
func (e Expression) Empty() bool {
	return len(e.literals) == 0
}

// Matches reports whether any literal equals one of the scenario tags.
// Comparison is exact and case sensitive.
func (e Expression) Matches(scenarioTags []string) bool {
	for _, lit := range e.literals {
		for _, tag := range scenarioTags {
			if tag == lit {
				return true
			}
		}
	}
	return false
}

// Matches reports whether a scenario with the given tags is selected by
// expr. A nil expression selects every scenario.
func Matches(scenarioTags []string, expr *string) bool {
	if expr == nil {
		return true
	}
	return Parse(*expr).Matches(scenarioTags)
}
