package output

import (
	"fmt"

	"github.com/jimasp/behave-vsc-sub002/internal/model"
)

// paint wraps s in an ANSI sequence when color is enabled.
func (w *Writer) paint(code, s string) string {
	if !w.color || code == "" {
		return s
	}
	return code + s + reset
}

// ErrorPrefix prints an error message prefixed with the program name.
func (w *Writer) ErrorPrefix(format string, args ...interface{}) {
	w.Errorln("%s %s", w.paint(red, "behaverun:"), fmt.Sprintf(format, args...))
}

// Warn prints a warning to stderr.
func (w *Writer) Warn(format string, args ...interface{}) {
	w.Errorln("%s %s", w.paint(yellow, "warning:"), fmt.Sprintf(format, args...))
}

// Heading prints a section heading surrounded by blank lines.
func (w *Writer) Heading(title string) {
	w.Println("")
	w.Println("%s", w.paint(bold+cyan, "=== "+title+" ==="))
	w.Println("")
}

// Field prints an indented label and value.
func (w *Writer) Field(label, value string) {
	w.field(label, value, "")
}

func (w *Writer) field(label, value, code string) {
	w.Println("  %s %s", w.paint(dim, label+":"), w.paint(code, value))
}

// Counts prints passed, failed and skipped scenario counts. The failed
// line is omitted when nothing failed.
func (w *Writer) Counts(s model.Summary) {
	w.field("Passed", fmt.Sprint(s.Passed), green)
	if s.Failed > 0 {
		w.field("Failed", fmt.Sprint(s.Failed), red)
	}
	w.field("Skipped", fmt.Sprint(s.Skipped+s.Undetermined), "")
}

// ProjectLine prints the status of one project run with its duration and,
// on failure, the first error.
func (w *Writer) ProjectLine(name string, ok bool, duration, errMsg string) {
	mark, code := "x", red
	if ok {
		mark, code = "+", green
	}
	if w.color {
		mark = "✗"
		if ok {
			mark = "✓"
		}
	}
	line := fmt.Sprintf("    %s %-12s %s", w.paint(code, mark), name, w.paint(dim, duration))
	if !ok && errMsg != "" {
		line += "  " + w.paint(dim, "("+errMsg+")")
	}
	w.Println("%s", line)
}

// Done prints the closing status line of a run.
func (w *Writer) Done(ok bool, format string, args ...interface{}) {
	code := red
	if ok {
		code = green
	}
	w.Println("")
	w.Println("%s", w.paint(code, fmt.Sprintf(format, args...)))
}

// Hint prints a dimmed suggestion.
func (w *Writer) Hint(format string, args ...interface{}) {
	w.Println("%s", w.paint(dim, fmt.Sprintf(format, args...)))
}
