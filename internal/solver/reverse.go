package solver

import (
	"fmt"

	"github.com/san-kum/vlsens/internal/state"
)

func (i *Instance) adjointChain() []step {
	return []step{
		{"aero_b", i.kern.AeroB},
		{"velocity_sum_b", i.kern.VelocitySumB},
		{"residual_b", i.kern.ResidualB},
		{"update_surfaces_b", i.kern.UpdateSurfacesB},
	}
}

// ReverseJacVec propagates output seeds back to input seeds through the
// adjoint chain at the current state. The reverse seed store is zero
// before the call returns, on failure too.
func (i *Instance) ReverseJacVec(out OutputSeeds) (InputSeeds, error) {
	if err := i.evaluate(); err != nil {
		return InputSeeds{}, err
	}
	i.ClearSeeds(state.Reverse)
	defer i.ClearSeeds(state.Reverse)

	if err := i.SetOutputSeeds(state.Reverse, out); err != nil {
		return InputSeeds{}, err
	}
	if err := i.run(i.adjointChain()); err != nil {
		return InputSeeds{}, err
	}
	return i.InputSeeds(state.Reverse)
}

// ReverseFD approximates the constraint, surface geometry, parameter and
// reference entries of ReverseJacVec(out) with one ForwardFD per input
// element, each projected onto out. A zero step uses the configured
// default. The circulation inputs are not covered.
func (i *Instance) ReverseFD(out OutputSeeds, h float64) (Gradient, error) {
	if err := i.evaluate(); err != nil {
		return Gradient{}, err
	}
	r := &reader{st: i.arena.Primal()}
	layout := i.getGradient(r)
	if r.err != nil {
		return Gradient{}, r.err
	}

	project := func(unit Gradient) (float64, error) {
		d, err := i.ForwardFD(InputSeeds{Gradient: unit}, h)
		if err != nil {
			return 0, err
		}
		return d.Dot(out), nil
	}
	scalars := func(names map[string]float64, wrap func(string) Gradient) (map[string]float64, error) {
		g := make(map[string]float64, len(names))
		for name := range names {
			x, err := project(wrap(name))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			g[name] = x
		}
		return g, nil
	}

	var (
		g   Gradient
		err error
	)
	if g.Constraints, err = scalars(layout.Constraints, func(n string) Gradient {
		return Gradient{Constraints: map[string]float64{n: 1}}
	}); err != nil {
		return Gradient{}, err
	}
	if g.Parameters, err = scalars(layout.Parameters, func(n string) Gradient {
		return Gradient{Parameters: map[string]float64{n: 1}}
	}); err != nil {
		return Gradient{}, err
	}
	if g.Reference, err = scalars(layout.Reference, func(n string) Gradient {
		return Gradient{Reference: map[string]float64{n: 1}}
	}); err != nil {
		return Gradient{}, err
	}

	g.Geometry = make(map[string]map[string]state.Value, len(layout.Geometry))
	for surf, keys := range layout.Geometry {
		g.Geometry[surf] = make(map[string]state.Value, len(keys))
		for key, v := range keys {
			shape := v.Shape()
			xs := make([]float64, v.Len())
			for k := range xs {
				e := make([]float64, len(xs))
				e[k] = 1
				unit, err := state.RealArray(shape, e)
				if err != nil {
					return Gradient{}, err
				}
				xs[k], err = project(Gradient{Geometry: map[string]map[string]state.Value{surf: {key: unit}}})
				if err != nil {
					return Gradient{}, fmt.Errorf("surface %q %s: %w", surf, key, err)
				}
			}
			val, err := state.RealArray(shape, xs)
			if err != nil {
				return Gradient{}, err
			}
			g.Geometry[surf][key] = val
		}
	}
	return g, nil
}
