package sweep

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/san-kum/vlsens/internal/config"
	"github.com/san-kum/vlsens/internal/geom"
	"github.com/san-kum/vlsens/internal/solver"
)

func setup(t *testing.T) (*geom.Aircraft, solver.Options) {
	t.Helper()
	desc, err := geom.LoadFile(filepath.Join("..", "solver", "testdata", "aircraft.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	return desc, solver.Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestGrid(t *testing.T) {
	base := config.Condition{Beta: 1, Controls: map[string]float64{"flap": 2}}
	conds, err := Grid(base, []string{"alpha", "flap"}, [][]float64{{0, 5}, {10, 20, 30}})
	if err != nil {
		t.Fatal(err)
	}
	if len(conds) != 6 {
		t.Fatalf("expected 6 conditions, got %d", len(conds))
	}
	if conds[0].Alpha != 0 || conds[0].Controls["flap"] != 10 {
		t.Errorf("unexpected first condition: %+v", conds[0])
	}
	if conds[5].Alpha != 5 || conds[5].Controls["flap"] != 30 {
		t.Errorf("unexpected last condition: %+v", conds[5])
	}
	for _, c := range conds {
		if c.Beta != 1 {
			t.Errorf("base beta lost: %+v", c)
		}
	}
	if base.Controls["flap"] != 2 {
		t.Error("grid modified the base controls")
	}

	if _, err := Grid(base, []string{"alpha"}, nil); err == nil {
		t.Error("expected error for mismatched ranges")
	}
}

func TestLinspace(t *testing.T) {
	xs := Linspace(-2, 2, 5)
	want := []float64{-2, -1, 0, 1, 2}
	for i := range want {
		if xs[i] != want[i] {
			t.Errorf("index %d: expected %g, got %g", i, want[i], xs[i])
		}
	}
	if got := Linspace(3, 9, 1); len(got) != 1 || got[0] != 3 {
		t.Errorf("single point: got %v", got)
	}
}

func TestRunMatchesSingleInstance(t *testing.T) {
	desc, opts := setup(t)
	conds, err := Grid(config.Condition{}, []string{"alpha"}, [][]float64{Linspace(0, 8, 5)})
	if err != nil {
		t.Fatal(err)
	}

	points, err := New(desc, opts, 3).Run(context.Background(), conds)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != len(conds) {
		t.Fatalf("expected %d points, got %d", len(conds), len(points))
	}
	for i, p := range points {
		if p.Err != nil {
			t.Fatalf("point %d: %v", i, p.Err)
		}
		if p.Index != i {
			t.Errorf("point %d has index %d", i, p.Index)
		}
		if i > 0 && p.Forces["CL"] <= points[i-1].Forces["CL"] {
			t.Errorf("CL should increase with alpha: %g then %g", points[i-1].Forces["CL"], p.Forces["CL"])
		}
	}

	inst, err := solver.Load(desc, opts)
	if err != nil {
		t.Fatal(err)
	}
	if err := conds[3].Apply(inst); err != nil {
		t.Fatal(err)
	}
	if err := inst.Execute(); err != nil {
		t.Fatal(err)
	}
	forces, err := inst.TotalForces()
	if err != nil {
		t.Fatal(err)
	}
	for name, v := range forces {
		if points[3].Forces[name] != v {
			t.Errorf("%s: sweep %g, direct %g", name, points[3].Forces[name], v)
		}
	}
}

func TestRunRecordsPointErrors(t *testing.T) {
	desc, opts := setup(t)
	conds := []config.Condition{
		{Alpha: 2},
		{Alpha: 2, Controls: map[string]float64{"aileron": 5}},
	}
	points, err := New(desc, opts, 0).Run(context.Background(), conds)
	if err != nil {
		t.Fatal(err)
	}
	if points[0].Err != nil {
		t.Errorf("first point failed: %v", points[0].Err)
	}
	if !errors.Is(points[1].Err, solver.ErrUnknownName) {
		t.Errorf("expected ErrUnknownName, got %v", points[1].Err)
	}
}

func TestRunCancelled(t *testing.T) {
	desc, opts := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(desc, opts, 1).Run(ctx, []config.Condition{{}, {}}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunWithSensitivities(t *testing.T) {
	desc, opts := setup(t)
	r := New(desc, opts, 2).WithSensitivities(solver.Request{Funcs: []string{"CL"}})
	points, err := r.Run(context.Background(), []config.Condition{{Alpha: 1}, {Alpha: 3}})
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range points {
		if p.Err != nil {
			t.Fatalf("point %d: %v", i, p.Err)
		}
		if p.Sensitivities["CL"].Constraints["alpha"] <= 0 {
			t.Errorf("point %d: expected positive dCL/dalpha, got %g", i, p.Sensitivities["CL"].Constraints["alpha"])
		}
	}
}

func TestBest(t *testing.T) {
	points := []Point{
		{Index: 0, Forces: map[string]float64{"CD": 0.03}},
		{Index: 1, Forces: map[string]float64{"CD": 0.01}},
		{Index: 2, Err: errors.New("failed")},
		{Index: 3, Forces: map[string]float64{"CD": 0.05}},
	}
	if p, ok := Best(points, "CD", false); !ok || p.Index != 1 {
		t.Errorf("expected point 1, got %d", p.Index)
	}
	if p, ok := Best(points, "CD", true); !ok || p.Index != 3 {
		t.Errorf("expected point 3, got %d", p.Index)
	}
	if _, ok := Best(points, "CM", false); ok {
		t.Error("expected no point for missing output")
	}
}
