package report

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/vlsens/internal/config"
	"github.com/san-kum/vlsens/internal/geom"
	"github.com/san-kum/vlsens/internal/solver"
	"github.com/san-kum/vlsens/internal/state"
	"github.com/san-kum/vlsens/internal/storage"
	"github.com/san-kum/vlsens/internal/sweep"
)

func strips() []solver.Strip {
	return []solver.Strip{
		{Surface: "wing", Y: 2, Chord: 1.0, Load: 0.5, Gamma: 0.2},
		{Surface: "wing", Y: 0.5, Chord: 1.5, Load: 0.9, Gamma: 0.3},
		{Surface: "tail", Y: 0.3, Chord: 0.4, Load: 0.1, Gamma: 0.05},
		{Surface: "wing", Y: 1, Chord: 1.2, Load: 0.6, Gamma: 0.25},
	}
}

func TestSpanwise(t *testing.T) {
	y, v, err := Spanwise(strips(), "wing", "chord")
	if err != nil {
		t.Fatal(err)
	}
	wantY := []float64{0.5, 1, 2}
	wantV := []float64{1.5, 1.2, 1.0}
	for i := range wantY {
		if y[i] != wantY[i] || v[i] != wantV[i] {
			t.Errorf("index %d: expected (%g, %g), got (%g, %g)", i, wantY[i], wantV[i], y[i], v[i])
		}
	}

	_, all, err := Spanwise(strips(), "", "cl")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 || all[0] != 0.25 {
		t.Errorf("unexpected sectional lift: %v", all)
	}

	if _, _, err := Spanwise(strips(), "", "pressure"); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestPlotSpanwise(t *testing.T) {
	out, err := PlotSpanwise(strips(), "wing", "load", 30, 5)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "wing load") {
		t.Errorf("caption missing:\n%s", out)
	}

	if _, err := PlotSpanwise(strips(), "tail", "load", 30, 5); !errors.Is(err, ErrNothingToPlot) {
		t.Errorf("expected ErrNothingToPlot, got %v", err)
	}
}

func TestForces(t *testing.T) {
	out := Forces(map[string]float64{"CL": 0.5, "CD": 0.02})
	if !strings.Contains(out, "CL") || !strings.Contains(out, "0.02") {
		t.Errorf("unexpected table:\n%s", out)
	}
	if strings.Index(out, "CL") > strings.Index(out, "CD") {
		t.Error("coefficients out of order")
	}
}

func TestSensitivities(t *testing.T) {
	res := solver.Result{"CL": {
		Constraints: map[string]float64{"alpha": 0.1},
		Geometry:    map[string]map[string]state.Value{"wing": {"chords": state.Reals(0.3, -0.2)}},
	}}
	out := Sensitivities(res)
	for _, s := range []string{"alpha", "chords", "wing", "-0.2"} {
		if !strings.Contains(out, s) {
			t.Errorf("missing %q in:\n%s", s, out)
		}
	}
}

func TestWarnings(t *testing.T) {
	if out := Warnings(nil); !strings.Contains(out, "no warnings") {
		t.Errorf("unexpected output %q", out)
	}
	out := Warnings([]geom.Warning{{Path: "surfaces.wing", Key: "colour"}})
	if !strings.Contains(out, "colour") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRunsAndPresets(t *testing.T) {
	out := Runs([]storage.RunMetadata{{ID: "abc", Title: "demo", Outputs: []string{"CL"}, Timestamp: time.Now()}})
	if !strings.Contains(out, "abc") || !strings.Contains(out, "demo") {
		t.Errorf("unexpected runs table:\n%s", out)
	}
	out = Presets(config.ListPresets())
	for _, name := range config.ListPresets() {
		if !strings.Contains(out, name) {
			t.Errorf("preset %s missing", name)
		}
	}
}

func TestSweepTable(t *testing.T) {
	points := []sweep.Point{
		{Condition: config.Condition{Alpha: 2}, Forces: map[string]float64{"CL": 0.3}},
		{Condition: config.Condition{Alpha: 4, Controls: map[string]float64{"flap": 5}}, Err: errors.New("x")},
	}
	out := Sweep(points, []string{"alpha", "flap"}, []string{"CL"})
	if !strings.Contains(out, "0.3") || !strings.Contains(out, "error") {
		t.Errorf("unexpected sweep table:\n%s", out)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 1}, 2); got != "▁█" {
		t.Errorf("expected ▁█, got %q", got)
	}
	if got := Sparkline(nil, 3); got != "───" {
		t.Errorf("expected rule, got %q", got)
	}
}

func TestBannerAndMetric(t *testing.T) {
	out := Banner("test aircraft", "refvlm", 20)
	if !strings.Contains(out, "test aircraft") || !strings.Contains(out, "refvlm") || !strings.Contains(out, "◆") {
		t.Errorf("unexpected banner:\n%s", out)
	}
	if out := Metric("strips", 6); !strings.Contains(out, "strips") || !strings.Contains(out, "6") {
		t.Errorf("unexpected metric %q", out)
	}
	if got := Separator(4); !strings.Contains(got, "◆") {
		t.Errorf("expected a rule for narrow widths, got %q", got)
	}
}
