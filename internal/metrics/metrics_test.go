package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/jimasp/behave-vsc-sub002/internal/model"
)

func TestRecorder(t *testing.T) {
	t.Parallel()
	r := New()

	r.RecordUnit("proj", "whole", 2*time.Second, false)
	r.RecordUnit("proj", "feature", time.Second, true)
	r.RecordResults("proj", []model.ScenarioResult{
		{ScenarioID: "a", Outcome: model.OutcomePassed},
		{ScenarioID: "b", Outcome: model.OutcomeFailed},
		{ScenarioID: "c", Outcome: model.OutcomePassed},
	}, false)

	if got := testutil.ToFloat64(r.unitsTotal.WithLabelValues("proj", "whole")); got != 1 {
		t.Errorf("units_total{whole} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.launchErrors.WithLabelValues("proj")); got != 1 {
		t.Errorf("launch_errors_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.scenariosTotal.WithLabelValues("proj", "passed")); got != 2 {
		t.Errorf("scenarios_total{passed} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.consistencyErrs.WithLabelValues("proj")); got != 1 {
		t.Errorf("consistency_errors_total = %v, want 1", got)
	}
}

func TestRecorder_Nil(t *testing.T) {
	t.Parallel()
	var r *Recorder
	r.RecordUnit("p", "whole", time.Second, true)
	r.RecordResults("p", nil, true)
	if err := r.WriteFile(filepath.Join(t.TempDir(), "x.prom")); err != nil {
		t.Errorf("WriteFile() error = %v", err)
	}
	if r.Registry() != nil {
		t.Error("Registry() != nil for nil recorder")
	}
}

func TestRecorder_WriteFile(t *testing.T) {
	t.Parallel()
	r := New()
	r.RecordUnit("proj", "whole", time.Second, false)

	path := filepath.Join(t.TempDir(), "behaverun.prom")
	if err := r.WriteFile(path); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `behaverun_units_total{kind="whole",project="proj"} 1`) {
		t.Errorf("metrics file = %s", data)
	}
}
