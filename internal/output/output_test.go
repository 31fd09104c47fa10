package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jimasp/behave-vsc-sub002/internal/model"
)

// newTestWriter creates a Writer with captured output for testing.
func newTestWriter() (*Writer, *bytes.Buffer, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	w := &Writer{
		out:   stdout,
		err:   stderr,
		color: false, // Disable color for predictable test output
		quiet: false,
	}
	return w, stdout, stderr
}

func TestNew(t *testing.T) {
	w := New()
	if w == nil {
		t.Fatal("New() returned nil")
	}
	if w.out == nil {
		t.Error("out writer is nil")
	}
	if w.err == nil {
		t.Error("err writer is nil")
	}
}

func TestWriter_SetQuiet(t *testing.T) {
	w, _, _ := newTestWriter()

	w.SetQuiet(true)
	if !w.quiet {
		t.Error("SetQuiet(true) did not set quiet")
	}

	w.SetQuiet(false)
	if w.quiet {
		t.Error("SetQuiet(false) did not unset quiet")
	}
}

func TestWriter_Print(t *testing.T) {
	w, stdout, _ := newTestWriter()

	w.Print("hello %s", "world")

	if got := stdout.String(); got != "hello world" {
		t.Errorf("Print() = %q, want %q", got, "hello world")
	}
}

func TestWriter_Println(t *testing.T) {
	w, stdout, _ := newTestWriter()

	w.Println("hello %s", "world")

	if got := stdout.String(); got != "hello world\n" {
		t.Errorf("Println() = %q, want %q", got, "hello world\n")
	}
}

func TestWriter_Error(t *testing.T) {
	w, _, stderr := newTestWriter()

	w.Error("error %d", 42)

	if got := stderr.String(); got != "error 42" {
		t.Errorf("Error() = %q, want %q", got, "error 42")
	}
}

func TestWriter_Errorln(t *testing.T) {
	w, _, stderr := newTestWriter()

	w.Errorln("error %d", 42)

	if got := stderr.String(); got != "error 42\n" {
		t.Errorf("Errorln() = %q, want %q", got, "error 42\n")
	}
}

func TestWriter_Info(t *testing.T) {
	tests := []struct {
		name   string
		quiet  bool
		expect string
	}{
		{"normal mode", false, "info message\n"},
		{"quiet mode", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, stdout, _ := newTestWriter()
			w.quiet = tt.quiet

			w.Info("info %s", "message")

			if got := stdout.String(); got != tt.expect {
				t.Errorf("Info() = %q, want %q", got, tt.expect)
			}
		})
	}
}

func TestWriter_ProjectStart(t *testing.T) {
	tests := []struct {
		name   string
		quiet  bool
		color  bool
		expect string
	}{
		{"normal without color", false, false, "\n─── [proj] whole, serial ───\n"},
		{"normal with color", false, true, "\n\033[1m\033[36m─── [proj] whole, serial ───\033[0m\n"},
		{"quiet mode", true, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, stdout, _ := newTestWriter()
			w.quiet = tt.quiet
			w.color = tt.color

			w.ProjectStart("proj", "whole, serial")

			if got := stdout.String(); got != tt.expect {
				t.Errorf("ProjectStart() = %q, want %q", got, tt.expect)
			}
		})
	}
}

func TestWriter_UnitSuccess(t *testing.T) {
	tests := []struct {
		name   string
		quiet  bool
		color  bool
		expect string
	}{
		{"normal without color", false, false, "[proj] whole-001 done\n"},
		{"normal with color", false, true, "\033[32m[proj]\033[0m whole-001 \033[32m✓\033[0m\n"},
		{"quiet mode", true, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, stdout, _ := newTestWriter()
			w.quiet = tt.quiet
			w.color = tt.color

			w.UnitSuccess("proj", "whole-001")

			if got := stdout.String(); got != tt.expect {
				t.Errorf("UnitSuccess() = %q, want %q", got, tt.expect)
			}
		})
	}
}

func TestWriter_UnitFailed(t *testing.T) {
	testErr := errors.New("python not found")

	tests := []struct {
		name   string
		color  bool
		expect string
	}{
		{"without color", false, "[proj] feature-002 failed: python not found\n"},
		{"with color", true, "\033[31m[proj] feature-002 failed:\033[0m python not found\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _, stderr := newTestWriter()
			w.color = tt.color

			w.UnitFailed("proj", "feature-002", testErr)

			if got := stderr.String(); got != tt.expect {
				t.Errorf("UnitFailed() = %q, want %q", got, tt.expect)
			}
		})
	}
}

func TestWriter_ErrorPrefix(t *testing.T) {
	w, _, stderr := newTestWriter()
	w.ErrorPrefix("bad %s", "thing")
	if got := stderr.String(); got != "behaverun: bad thing\n" {
		t.Errorf("ErrorPrefix() = %q", got)
	}
}

func TestWriter_Table(t *testing.T) {
	w, stdout, _ := newTestWriter()

	headers := []string{"Name", "Strategy", "Units"}
	rows := [][]string{
		{"alpha", "whole", "1"},
		{"beta", "per-folder", "3"},
	}

	w.Table(headers, rows)

	output := stdout.String()
	for _, want := range []string{"NAME", "STRATEGY", "UNITS", "alpha", "per-folder", "3"} {
		if !strings.Contains(output, want) {
			t.Errorf("Table() missing %q:\n%s", want, output)
		}
	}
}

func TestWriter_Table_Empty(t *testing.T) {
	w, stdout, _ := newTestWriter()

	w.Table([]string{"Name", "Value"}, nil)

	if !strings.Contains(stdout.String(), "NAME") {
		t.Error("Table() with empty rows should still print headers")
	}
}

func TestWriter_Table_RowShorterThanHeaders(t *testing.T) {
	w, stdout, _ := newTestWriter()

	w.Table([]string{"A", "B", "C"}, [][]string{{"1", "2"}})

	if !strings.Contains(stdout.String(), "1") {
		t.Error("Table() should handle short rows gracefully")
	}
}

func TestWriter_Results(t *testing.T) {
	w, stdout, _ := newTestWriter()

	w.Results("Results", []ResultRow{
		{Project: "proj", Feature: "A", Scenario: "one", Outcome: model.OutcomePassed, Duration: 1500 * time.Millisecond},
		{Project: "proj", Feature: "A", Scenario: "two", Outcome: model.OutcomeFailed, Duration: 20 * time.Millisecond},
		{Project: "proj", Feature: "B", Scenario: "three", Outcome: model.OutcomeUndetermined},
	})

	output := stdout.String()
	for _, want := range []string{"Results", "Passed", "Failed", "Skipped", "1.5s", "20ms"} {
		if !strings.Contains(output, want) {
			t.Errorf("Results() missing %q:\n%s", want, output)
		}
	}
	// Footers are rendered upper-case.
	if !strings.Contains(strings.ToLower(output), "1 passed, 1 failed, 1 skipped") {
		t.Errorf("Results() missing totals:\n%s", output)
	}
	if strings.Contains(output, "Undetermined") {
		t.Errorf("Results() shows undetermined outcome:\n%s", output)
	}
}

func TestWriter_Failures(t *testing.T) {
	w, stdout, _ := newTestWriter()

	w.Failures([]ResultRow{
		{Feature: "A", Scenario: "one", Outcome: model.OutcomePassed},
		{Feature: "A", Scenario: "two", Outcome: model.OutcomeFailed, Error: "Assertion Failed: x"},
	})

	want := "\nA: two\nAssertion Failed: x\n"
	if got := stdout.String(); got != want {
		t.Errorf("Failures() = %q, want %q", got, want)
	}
}

func TestOutcomeLabel(t *testing.T) {
	tests := []struct {
		outcome model.Outcome
		want    string
	}{
		{model.OutcomePassed, "Passed"},
		{model.OutcomeFailed, "Failed"},
		{model.OutcomeSkipped, "Skipped"},
		{model.OutcomeUndetermined, "Skipped"},
	}
	for _, tt := range tests {
		if got := OutcomeLabel(tt.outcome); got != tt.want {
			t.Errorf("OutcomeLabel(%q) = %q, want %q", tt.outcome, got, tt.want)
		}
	}
}

func TestSummaryLine(t *testing.T) {
	s := model.Summary{Passed: 2, Failed: 1, Skipped: 1, Undetermined: 2}
	if got := SummaryLine(s); got != "2 passed, 1 failed, 3 skipped" {
		t.Errorf("SummaryLine() = %q", got)
	}
}

func TestWriter_Summary(t *testing.T) {
	w, stdout, _ := newTestWriter()

	w.Heading("Summary")
	w.Field("Run", "abc")
	w.ProjectLine("alpha", true, "1.2s", "")
	w.ProjectLine("beta", false, "30ms", "launch failed")
	w.Counts(model.Summary{Passed: 3, Failed: 1, Skipped: 1, Undetermined: 1})
	w.Done(false, "%d failed", 1)
	w.Hint("try %s", "again")

	want := "\n=== Summary ===\n\n" +
		"  Run: abc\n" +
		"    + alpha        1.2s\n" +
		"    x beta         30ms  (launch failed)\n" +
		"  Passed: 3\n" +
		"  Failed: 1\n" +
		"  Skipped: 2\n" +
		"\n1 failed\n" +
		"try again\n"
	if got := stdout.String(); got != want {
		t.Errorf("summary output = %q, want %q", got, want)
	}
}

func TestWriter_CountsOmitsFailed(t *testing.T) {
	w, stdout, _ := newTestWriter()
	w.Counts(model.Summary{Passed: 2})
	if got := stdout.String(); strings.Contains(got, "Failed") {
		t.Errorf("Counts() = %q, want no failed line", got)
	}
}

func TestWriter_Warn(t *testing.T) {
	w, _, stderr := newTestWriter()
	w.Warn("[%s] %s", "proj", "unknown key")
	if got := stderr.String(); got != "warning: [proj] unknown key\n" {
		t.Errorf("Warn() = %q", got)
	}
}
