package solver

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/san-kum/vlsens/internal/state"
)

// Request names the outputs whose total derivatives Sensitivities computes.
type Request struct {
	Funcs         []string
	StabDerivs    []string
	ControlDerivs []string
}

// query is one output of a request with its unit seed.
type query struct {
	name   string
	family string
	seed   OutputSeeds
}

func (i *Instance) queries(req Request) ([]query, error) {
	var out []query
	for _, fn := range req.Funcs {
		if _, ok := funcVars[fn]; !ok {
			return nil, fmt.Errorf("%w: function %q", ErrUnknownName, fn)
		}
		out = append(out, query{name: fn, family: "func", seed: OutputSeeds{Funcs: map[string]float64{fn: 1}}})
	}
	for _, name := range req.StabDerivs {
		if _, _, stab, err := i.derivRef(name); err != nil || !stab {
			return nil, fmt.Errorf("%w: stability derivative %q", ErrUnknownName, name)
		}
		out = append(out, query{name: name, family: "stab", seed: OutputSeeds{StabDerivs: map[string]float64{name: 1}}})
	}
	for _, name := range req.ControlDerivs {
		if _, _, stab, err := i.derivRef(name); err != nil || stab {
			return nil, fmt.Errorf("%w: control derivative %q", ErrUnknownName, name)
		}
		out = append(out, query{name: name, family: "control", seed: OutputSeeds{ControlDerivs: map[string]float64{name: 1}}})
	}
	return out, nil
}

// Sensitivities computes the total derivative of every requested output
// with respect to constraints, surface geometry, parameters and reference
// quantities. It needs a primal solve of the current state.
func (i *Instance) Sensitivities(req Request) (Result, error) {
	if !i.Solved() {
		return nil, ErrAdjointPrecondition
	}
	qs, err := i.queries(req)
	if err != nil {
		return nil, err
	}
	res := make(Result, len(qs))
	for _, q := range qs {
		g, err := i.adjoint(q)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", q.name, err)
		}
		res[q.name] = g
		i.log.Debug("sensitivity computed", slog.String("output", q.name), slog.String("family", q.family))
	}
	return res, nil
}

func nonZero(rows [][]float64) bool {
	return slices.ContainsFunc(rows, func(r []float64) bool {
		return slices.ContainsFunc(r, func(x float64) bool { return x != 0 })
	})
}

func negRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for k, r := range rows {
		out[k] = make([]float64, len(r))
		for n, x := range r {
			out[k][n] = -x
		}
	}
	return out
}

// adjoint computes one total derivative: the partials of the output, the
// adjoint of the circulation equations, then the partials again with the
// adjoint as residual seed.
func (i *Instance) adjoint(q query) (Gradient, error) {
	partial, err := i.ReverseJacVec(q.seed)
	if err != nil {
		return Gradient{}, err
	}

	stab, consurf := nonZero(partial.GammaU), nonZero(partial.GammaD)
	psi, err := i.solveAdjoint(partial, stab, consurf)
	if err != nil {
		return Gradient{}, err
	}
	i.metrics.AdjointSolves.WithLabelValues(q.family).Inc()

	seed := q.seed
	seed.Res, seed.ResU, seed.ResD = psi.Res, psi.ResU, psi.ResD
	total, err := i.ReverseJacVec(seed)
	if err != nil {
		return Gradient{}, err
	}
	return total.Gradient, nil
}

// solveAdjoint solves the transposed circulation systems with the negated
// circulation partials as right-hand sides.
func (i *Instance) solveAdjoint(partial InputSeeds, stab, consurf bool) (OutputSeeds, error) {
	i.ClearSeeds(state.Reverse)
	defer i.ClearSeeds(state.Reverse)

	gam := negRows([][]float64{partial.Gamma})[0]
	if err := i.SetInputSeeds(state.Reverse, InputSeeds{
		Gamma:  gam,
		GammaU: negRows(partial.GammaU),
		GammaD: negRows(partial.GammaD),
	}); err != nil {
		return OutputSeeds{}, err
	}
	if err := i.call("solve_adjoint", func() error { return i.kern.SolveAdjoint(stab, consurf) }); err != nil {
		return OutputSeeds{}, err
	}
	r := &reader{st: i.arena.Seeds(state.Reverse)}
	psi := OutputSeeds{Res: i.getVector(r, state.Res)}
	if stab {
		psi.ResU = i.getRows(r, state.ResU, state.NUMAX)
	}
	if consurf {
		psi.ResD = i.getRows(r, state.ResD, i.NumControls())
	}
	return psi, r.err
}
