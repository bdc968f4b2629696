package solver

import (
	"fmt"

	"github.com/san-kum/vlsens/internal/state"
)

// step is one kernel entry point of an evaluation chain.
type step struct {
	entry string
	fn    func() error
}

func (i *Instance) run(chain []step) error {
	for _, s := range chain {
		if err := i.call(s.entry, s.fn); err != nil {
			return err
		}
	}
	return nil
}

func (i *Instance) primalChain() []step {
	return []step{
		{"update_surfaces", i.kern.UpdateSurfaces},
		{"residual", i.kern.Residual},
		{"velocity_sum", i.kern.VelocitySum},
		{"aero", i.kern.Aero},
	}
}

func (i *Instance) tangentChain() []step {
	return []step{
		{"update_surfaces_d", i.kern.UpdateSurfacesD},
		{"residual_d", i.kern.ResidualD},
		{"velocity_sum_d", i.kern.VelocitySumD},
		{"aero_d", i.kern.AeroD},
	}
}

// evaluate brings the derived primal state up to date with the inputs
// without solving for the circulations.
func (i *Instance) evaluate() error {
	if i.Solved() {
		return nil
	}
	if err := i.ensureGeometry(); err != nil {
		return err
	}
	return i.run(i.primalChain()[1:])
}

// ForwardJacVec propagates input seeds to output seeds through the tangent
// chain at the current state. The forward seed store is zero before the
// call returns, on failure too.
func (i *Instance) ForwardJacVec(in InputSeeds) (OutputSeeds, error) {
	if err := i.evaluate(); err != nil {
		return OutputSeeds{}, err
	}
	i.ClearSeeds(state.Forward)
	defer i.ClearSeeds(state.Forward)

	if err := i.SetInputSeeds(state.Forward, in); err != nil {
		return OutputSeeds{}, err
	}
	if err := i.run(i.tangentChain()); err != nil {
		return OutputSeeds{}, err
	}
	return i.OutputSeeds(state.Forward)
}

// fdInputs are the primal variables perturbed by ForwardFD.
var fdInputs = []state.Var{
	state.ConVal, state.ParVal, state.Sref, state.Cref, state.Bref,
	state.XYZScal, state.XYZTran, state.AddInc, state.XYZLES, state.Chords, state.AIncs,
	state.CLAF, state.CLCDSec, state.CLCDSrf,
	state.Gam, state.GamU, state.GamD,
}

// ForwardFD approximates ForwardJacVec by a one-sided finite difference of
// the evaluation chain along in. A zero step uses the configured default.
// The primal state is restored and the forward seed store is zero before
// returning.
func (i *Instance) ForwardFD(in InputSeeds, h float64) (OutputSeeds, error) {
	if h == 0 {
		h = i.opts.FDStep
	}
	if err := i.evaluate(); err != nil {
		return OutputSeeds{}, err
	}
	snap := i.arena.Clone()
	defer func() {
		i.arena.Restore(snap)
		i.ClearSeeds(state.Forward)
	}()

	p := i.arena.Primal()
	if err := i.run(i.primalChain()); err != nil {
		return OutputSeeds{}, err
	}
	base, err := i.getOutputs(p)
	if err != nil {
		return OutputSeeds{}, err
	}

	i.ClearSeeds(state.Forward)
	if err := i.SetInputSeeds(state.Forward, in); err != nil {
		return OutputSeeds{}, err
	}
	f := i.arena.Seeds(state.Forward)
	for _, v := range fdInputs {
		if err := p.Accumulate(v, mustRead(f, v), nil, h); err != nil {
			return OutputSeeds{}, fmt.Errorf("perturb %s: %w", v, err)
		}
	}
	if err := i.run(i.primalChain()); err != nil {
		return OutputSeeds{}, err
	}
	pert, err := i.getOutputs(p)
	if err != nil {
		return OutputSeeds{}, err
	}
	return pert.diff(base, 1/h), nil
}

func mustRead(st *state.Store, v state.Var) state.Value {
	val, err := st.Read(v, nil)
	if err != nil {
		panic(err)
	}
	return val
}

// diff returns scale * (s - o).
func (s OutputSeeds) diff(o OutputSeeds, scale float64) OutputSeeds {
	sub := func(a, b map[string]float64) map[string]float64 {
		out := make(map[string]float64, len(a))
		for k, x := range a {
			out[k] = scale * (x - b[k])
		}
		return out
	}
	vec := func(a, b []float64) []float64 {
		out := make([]float64, len(a))
		for k := range a {
			out[k] = scale * (a[k] - b[k])
		}
		return out
	}
	rows := func(a, b [][]float64) [][]float64 {
		out := make([][]float64, len(a))
		for k := range a {
			out[k] = vec(a[k], b[k])
		}
		return out
	}
	return OutputSeeds{
		Funcs:         sub(s.Funcs, o.Funcs),
		StabDerivs:    sub(s.StabDerivs, o.StabDerivs),
		ControlDerivs: sub(s.ControlDerivs, o.ControlDerivs),
		Res:           vec(s.Res, o.Res),
		ResU:          rows(s.ResU, o.ResU),
		ResD:          rows(s.ResD, o.ResD),
	}
}
