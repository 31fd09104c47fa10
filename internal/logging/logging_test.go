package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew_XRayLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false)

	logger.Debug("hidden")
	logger.Info("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug message logged without xRay")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("info message not logged")
	}

	buf.Reset()
	SetXRay(logger, true)
	logger.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("debug message not logged with xRay")
	}
}

func TestForProject(t *testing.T) {
	var buf bytes.Buffer
	ForProject(New(&buf, false), "project A").Info("hello")

	if !strings.Contains(buf.String(), `project="project A"`) {
		t.Errorf("log output = %q, want project field", buf.String())
	}
}

func TestClean(t *testing.T) {
	in := "\x1b[31mFailing scenarios:\x1b[0m"
	if got := Clean(in); got != "Failing scenarios:" {
		t.Errorf("Clean() = %q, want %q", got, "Failing scenarios:")
	}
}

func TestDiscard(t *testing.T) {
	// must not panic
	Discard().WithField(FieldUnit, "u").Info("x")
}
