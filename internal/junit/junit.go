// Package junit reads the JUnit XML files written by behave and maps their
// test cases to scenario outcomes.
package junit

import (
	"encoding/xml"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/jimasp/behave-vsc-sub002/internal/model"
	"github.com/jimasp/behave-vsc-sub002/internal/paths"
)

// Behave test case statuses.
const (
	StatusPassed   = "passed"
	StatusFailed   = "failed"
	StatusSkipped  = "skipped"
	StatusUntested = "untested"
)

// outlineSep separates an outline name from its example row label in test
// case names.
const outlineSep = " -- @"

// TestSuite is one behave JUnit file. Behave writes one suite per feature.
type TestSuite struct {
	XMLName  xml.Name   `xml:"testsuite"`
	Name     string     `xml:"name,attr"`
	Tests    int        `xml:"tests,attr"`
	Errors   int        `xml:"errors,attr"`
	Failures int        `xml:"failures,attr"`
	Skipped  int        `xml:"skipped,attr"`
	Time     float64    `xml:"time,attr"`
	Cases    []TestCase `xml:"testcase"`
}

// TestCase is one scenario, or one outline example row.
type TestCase struct {
	ClassName string   `xml:"classname,attr"`
	Name      string   `xml:"name,attr"`
	Status    string   `xml:"status,attr"`
	Time      float64  `xml:"time,attr"`
	Failures  []Reason `xml:"failure,omitempty"`
	Errors    []Reason `xml:"error,omitempty"`
	SystemOut string   `xml:"system-out,omitempty"`
}

// Reason is a failure or error element.
type Reason struct {
	Type    string `xml:"type,attr,omitempty"`
	Message string `xml:"message,attr,omitempty"`
	Text    string `xml:",chardata"`
}

// Parse decodes a JUnit file.
func Parse(data []byte) (*TestSuite, error) {
	var suite TestSuite
	if err := xml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("invalid junit xml: %w", err)
	}
	return &suite, nil
}

// ReadFile reads and decodes a JUnit file.
func ReadFile(filename string) (*TestSuite, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	suite, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return suite, nil
}

// Marshal encodes a suite the way behave writes it.
func Marshal(suite *TestSuite) ([]byte, error) {
	body, err := xml.MarshalIndent(suite, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

// Duration returns the test case time.
func (c *TestCase) Duration() time.Duration {
	return time.Duration(c.Time * float64(time.Second))
}

// Outcome maps the behave status to a scenario outcome. Untested and
// unknown statuses are undetermined.
func (c *TestCase) Outcome() model.Outcome {
	switch c.Status {
	case StatusPassed:
		return model.OutcomePassed
	case StatusFailed:
		return model.OutcomeFailed
	case StatusSkipped:
		return model.OutcomeSkipped
	default:
		return model.OutcomeUndetermined
	}
}

var (
	timingSuffix = regexp.MustCompile(` \.\.\. (failed|undefined) in .+\..+s$`)
	noneSuffix   = regexp.MustCompile(`None$`)
)

// FailureText returns the failure and error text with location lines and
// step timings removed.
func (c *TestCase) FailureText() string {
	var blocks []string
	for _, reasons := range [][]Reason{c.Failures, c.Errors} {
		for _, r := range reasons {
			var b strings.Builder
			if r.Type != "" && r.Type != "NoneType" {
				b.WriteString(strings.ReplaceAll(r.Type, "\n", "") + "\n")
			}
			if r.Message != "" {
				b.WriteString(strings.ReplaceAll(r.Message, "\n", "") + "\n")
			}
			b.WriteString(strings.TrimSpace(r.Text))
			blocks = append(blocks, b.String())
		}
	}

	var lines []string
	for _, block := range blocks {
		for _, line := range strings.Split(block, "\n") {
			if strings.HasPrefix(line, "Location: ") || noneSuffix.MatchString(line) {
				continue
			}
			lines = append(lines, timingSuffix.ReplaceAllString(line, " ... $1"))
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Naming holds the project paths behave uses to name JUnit files. All
// paths are project relative.
type Naming struct {
	WorkingDir  string
	ConfigPaths []string
	BaseDir     string
}

// FeatureName returns behave's JUnit name for a project-relative feature
// path: the path relative to the first declared config path containing it,
// otherwise relative to the base dir, without extension and with "/"
// replaced by ".".
func (n Naming) FeatureName(featurePath string) string {
	name := ""
	for _, cp := range n.ConfigPaths {
		if cp == n.WorkingDir || cp == "" {
			continue
		}
		if paths.IsUnder(featurePath, cp) && featurePath != cp {
			name = featurePath[len(cp)+1:]
			break
		}
	}
	if name == "" {
		name = relSlash(n.BaseDir, featurePath)
	}

	if ext := path.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	return strings.ReplaceAll(name, "/", ".")
}

// FileName returns the JUnit file name for a project-relative feature path.
func (n Naming) FileName(featurePath string) string {
	return FileName(n.FeatureName(featurePath))
}

// FileName returns the JUnit file name behave writes for a feature name.
func FileName(junitFeatureName string) string {
	return "TESTS-" + junitFeatureName + ".xml"
}

// ClassName returns the classname behave writes for a feature's test cases.
func ClassName(junitFeatureName, featureLabel string) string {
	return junitFeatureName + "." + featureLabel
}

// Find returns the test case for a scenario. scenarioName is the name the
// runner reports (see model.Tree.ScenarioName). For an outline name without
// a row, the first failed row is preferred, else the first row.
func (s *TestSuite) Find(className, scenarioName string) (*TestCase, bool) {
	var matches []*TestCase
	for i := range s.Cases {
		tc := &s.Cases[i]
		if tc.ClassName == className && tc.Name == scenarioName {
			return tc, true
		}
	}

	outlineName := scenarioName
	row := ""
	if i := strings.LastIndex(scenarioName, outlineSep); i >= 0 {
		outlineName, row = scenarioName[:i], scenarioName[i+len(outlineSep):]
	}

	var rx *regexp.Regexp
	if strings.Contains(outlineName, "<") {
		rx = outlinePattern(outlineName)
	}

	for i := range s.Cases {
		tc := &s.Cases[i]
		if tc.ClassName != className {
			continue
		}
		j := strings.LastIndex(tc.Name, outlineSep)
		if j < 0 {
			continue
		}
		caseOutline, caseRow := tc.Name[:j], tc.Name[j+len(outlineSep):]
		if row != "" && caseRow != row {
			continue
		}
		if caseOutline == outlineName || (rx != nil && rx.MatchString(caseOutline)) {
			matches = append(matches, tc)
		}
	}

	if len(matches) == 0 {
		return nil, false
	}
	for _, m := range matches {
		if m.Status == StatusFailed {
			return m, true
		}
	}
	return matches[0], true
}

// outlinePattern matches outline names whose <param> placeholders have been
// substituted.
func outlinePattern(name string) *regexp.Regexp {
	parts := placeholder.Split(name, -1)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile("^" + strings.Join(parts, ".*") + "$")
}

var placeholder = regexp.MustCompile(`<[^>]*>`)

var executionError = regexp.MustCompile(`ConfigError|ParserError|Traceback \(most recent call last\)`)

// IsExecutionError reports whether runner console text shows a behave
// error that prevents JUnit output from being written. Text should have
// escape sequences removed first.
func IsExecutionError(text string) bool {
	return executionError.MatchString(text)
}

func relSlash(base, target string) string {
	if base == "" {
		return target
	}
	if strings.HasPrefix(target, base+"/") {
		return target[len(base)+1:]
	}
	baseParts := strings.Split(base, "/")
	targetParts := strings.Split(target, "/")
	i := 0
	for i < len(baseParts) && i < len(targetParts) && baseParts[i] == targetParts[i] {
		i++
	}
	up := strings.Repeat("../", len(baseParts)-i)
	return up + strings.Join(targetParts[i:], "/")
}
