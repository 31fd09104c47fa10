// Package integration contains end-to-end tests for behaverun that launch
// real processes.
package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/jimasp/behave-vsc-sub002/internal/logging"
	"github.com/jimasp/behave-vsc-sub002/internal/model"
	"github.com/jimasp/behave-vsc-sub002/internal/project"
	"github.com/jimasp/behave-vsc-sub002/internal/workspace"
)

// fakeBehave stands in for behave: it writes one JUnit file for feature
// "a" into the --junit-directory it is given and exits like behave does
// when a scenario fails.
const fakeBehave = `#!/bin/sh
while [ $# -gt 0 ]; do
  if [ "$1" = "--junit-directory" ]; then dir="$2"; shift; fi
  shift
done
cat > "$dir/TESTS-a.xml" <<XML
<testsuite name="a.A" tests="2" errors="0" failures="1" skipped="0" time="0.003">
  <testcase classname="a.A" name="${FIRST_SCENARIO:-one}" status="passed" time="0.001"></testcase>
  <testcase classname="a.A" name="two" status="failed" time="0.002"><failure type="AssertionError" message="nope">Assertion Failed: nope</failure></testcase>
</testsuite>
XML
echo "greeting=$GREETING"
echo "1 scenario passed, 1 failed, 0 skipped"
exit 1
`

// silentFailure exits like behave does when it cannot even load the
// features.
const silentFailure = `#!/bin/sh
echo "ConfigError: No steps directory in '/tmp/features'"
exit 1
`

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake runner scripts need a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// createProject lays out a project "proj" with features/a.feature and the
// given settings and scripts, and loads it together with its test tree.
func createProject(t *testing.T, settings string, scripts map[string]string) *workspace.Member {
	t.Helper()
	root := filepath.Join(t.TempDir(), "proj")
	writeFile(t, filepath.Join(root, "features", "a.feature"), "Feature: A\n")
	writeFile(t, filepath.Join(root, "features", "steps", "steps.py"), "")
	writeFile(t, filepath.Join(root, ".behaverun", "settings.json"), settings)
	for name, content := range scripts {
		writeFile(t, filepath.Join(root, name), content)
	}

	p, err := project.LoadProjectFrom(root, logging.Discard())
	if err != nil {
		t.Fatalf("LoadProjectFrom() error = %v", err)
	}

	tree, err := model.ParseTree([]byte(`{
  "projectId": "proj",
  "counts": {"nodeCount": 4, "testCount": 2},
  "nodes": [
    {"id": "proj", "kind": "project", "label": "proj"},
    {"id": "proj/a", "parentId": "proj", "kind": "feature", "label": "A", "path": "features/a.feature"},
    {"id": "proj/one", "parentId": "proj/a", "kind": "scenario", "label": "one"},
    {"id": "proj/two", "parentId": "proj/a", "kind": "scenario", "label": "two"}
  ]
}`))
	if err != nil {
		t.Fatalf("ParseTree() error = %v", err)
	}
	return &workspace.Member{Project: p, Tree: tree}
}
