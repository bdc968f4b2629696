// Package sweep evaluates one aircraft over many flight conditions, each on
// its own solver instance.
package sweep

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/san-kum/vlsens/internal/config"
	"github.com/san-kum/vlsens/internal/geom"
	"github.com/san-kum/vlsens/internal/solver"
	"golang.org/x/sync/errgroup"
)

// Point is the outcome of one condition.
type Point struct {
	Index         int
	Condition     config.Condition
	Forces        map[string]float64
	Sensitivities solver.Result
	Err           error
}

type Runner struct {
	desc    *geom.Aircraft
	opts    solver.Options
	workers int
	req     *solver.Request
}

// New builds a runner with at most workers concurrent instances; zero
// means one per CPU.
func New(desc *geom.Aircraft, opts solver.Options, workers int) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Runner{desc: desc, opts: opts, workers: workers}
}

// WithSensitivities also computes req at every point.
func (r *Runner) WithSensitivities(req solver.Request) *Runner {
	r.req = &req
	return r
}

// Run evaluates every condition. A failing point records its error and does
// not stop the others; only cancellation of ctx aborts the sweep.
func (r *Runner) Run(ctx context.Context, conds []config.Condition) ([]Point, error) {
	points := make([]Point, len(conds))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, c := range conds {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			points[i] = r.point(i, c)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

func (r *Runner) point(idx int, c config.Condition) Point {
	p := Point{Index: idx, Condition: c}
	inst, err := solver.Load(r.desc, r.opts)
	if err != nil {
		p.Err = err
		return p
	}
	if err := c.Apply(inst); err != nil {
		p.Err = err
		return p
	}
	if err := inst.Execute(); err != nil {
		p.Err = err
		return p
	}
	if p.Forces, err = inst.TotalForces(); err != nil {
		p.Err = err
		return p
	}
	if r.req != nil {
		p.Sensitivities, p.Err = inst.Sensitivities(*r.req)
	}
	return p
}

// settable are the condition fields a grid can vary besides controls.
var settable = map[string]func(*config.Condition, float64){
	"alpha":      func(c *config.Condition, x float64) { c.Alpha = x },
	"beta":       func(c *config.Condition, x float64) { c.Beta = x },
	"roll rate":  func(c *config.Condition, x float64) { c.RollRate = x },
	"pitch rate": func(c *config.Condition, x float64) { c.PitchRate = x },
	"yaw rate":   func(c *config.Condition, x float64) { c.YawRate = x },
	"mach":       func(c *config.Condition, x float64) { c.Mach = x },
}

// Grid expands the cartesian product of ranges over base. Names outside the
// freestream set are taken as control names. The last name varies fastest.
func Grid(base config.Condition, names []string, ranges [][]float64) ([]config.Condition, error) {
	if len(names) != len(ranges) {
		return nil, fmt.Errorf("sweep: %d names for %d ranges", len(names), len(ranges))
	}
	var out []config.Condition
	var expand func(depth int, cur config.Condition)
	expand = func(depth int, cur config.Condition) {
		if depth == len(names) {
			out = append(out, cur)
			return
		}
		for _, x := range ranges[depth] {
			next := cur
			if set, ok := settable[names[depth]]; ok {
				set(&next, x)
			} else {
				ctrl := make(map[string]float64, len(cur.Controls)+1)
				for k, v := range cur.Controls {
					ctrl[k] = v
				}
				ctrl[names[depth]] = x
				next.Controls = ctrl
			}
			expand(depth+1, next)
		}
	}
	expand(0, base)
	return out, nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}

// Best returns the successful point with the smallest (or, with maximize,
// largest) value of a force coefficient.
func Best(points []Point, output string, maximize bool) (Point, bool) {
	best := math.Inf(1)
	var bp Point
	found := false
	for _, p := range points {
		if p.Err != nil {
			continue
		}
		v, ok := p.Forces[output]
		if !ok {
			continue
		}
		if maximize {
			v = -v
		}
		if v < best {
			best, bp, found = v, p, true
		}
	}
	return bp, found
}
