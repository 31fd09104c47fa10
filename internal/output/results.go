package output

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jimasp/behave-vsc-sub002/internal/model"
)

var titleCase = cases.Title(language.English)

// ResultRow is one scenario line of a results table.
type ResultRow struct {
	Project  string
	Feature  string
	Scenario string
	Outcome  model.Outcome
	Duration time.Duration
	Error    string
}

// OutcomeLabel returns the user-facing label of an outcome. Undetermined
// outcomes are labelled as skipped.
func OutcomeLabel(o model.Outcome) string {
	return titleCase.String(string(o.Reported()))
}

// Table prints rows under headers.
func (w *Writer) Table(headers []string, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(w.out)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	t.AppendHeader(header)
	for _, r := range rows {
		row := make(table.Row, len(r))
		for i, cell := range r {
			row[i] = cell
		}
		t.AppendRow(row)
	}
	t.Render()
}

// Results prints a results table followed by a totals footer.
func (w *Writer) Results(title string, rows []ResultRow) {
	t := table.NewWriter()
	t.SetOutputMirror(w.out)
	t.SetTitle(title)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Project", "Feature", "Scenario", "Outcome", "Duration"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Project", AutoMerge: true},
		{Name: "Feature", AutoMerge: true},
		{Name: "Scenario", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
	})

	results := make([]model.ScenarioResult, len(rows))
	for i, r := range rows {
		results[i] = model.ScenarioResult{Outcome: r.Outcome, Duration: r.Duration}
		t.AppendRow(table.Row{r.Project, r.Feature, r.Scenario, w.outcome(r.Outcome), formatDuration(r.Duration)})
	}

	s := model.Summarize(results)
	t.AppendFooter(table.Row{"Total", "", SummaryLine(s), "", formatDuration(s.Duration)})
	t.Render()
}

// Failures prints the error text of failed rows.
func (w *Writer) Failures(rows []ResultRow) {
	for _, r := range rows {
		if r.Outcome != model.OutcomeFailed || r.Error == "" {
			continue
		}
		w.Println("")
		if w.color {
			w.Println("%s%s: %s%s", red+bold, r.Feature, r.Scenario, reset)
		} else {
			w.Println("%s: %s", r.Feature, r.Scenario)
		}
		w.Println("%s", r.Error)
	}
}

// SummaryLine formats outcome counts, e.g. "2 passed, 1 failed, 3 skipped".
// Undetermined scenarios count as skipped.
func SummaryLine(s model.Summary) string {
	return fmt.Sprintf("%d passed, %d failed, %d skipped", s.Passed, s.Failed, s.Skipped+s.Undetermined)
}

func (w *Writer) outcome(o model.Outcome) string {
	label := OutcomeLabel(o)
	if !w.color {
		return label
	}
	switch o.Reported() {
	case model.OutcomePassed:
		return text.Colors{text.FgGreen}.Sprint(label)
	case model.OutcomeFailed:
		return text.Colors{text.FgRed, text.Bold}.Sprint(label)
	default:
		return text.Colors{text.FgYellow}.Sprint(label)
	}
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Truncate(time.Millisecond).String()
}
