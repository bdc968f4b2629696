package solver

import (
	"github.com/san-kum/vlsens/internal/state"
)

// TotalForces returns the force and moment coefficients of the last solve.
func (i *Instance) TotalForces() (map[string]float64, error) {
	if !i.Solved() {
		return nil, ErrNotSolved
	}
	p := i.arena.Primal()
	out := make(map[string]float64, len(FuncNames))
	for _, fn := range FuncNames {
		out[fn] = p.Get(funcVars[fn])
	}
	return out, nil
}

// StabilityDerivs returns the derivatives of CL, CD, CM and CR with respect
// to the freestream variables, keyed by StabDerivName.
func (i *Instance) StabilityDerivs() (map[string]float64, error) {
	if !i.Solved() {
		return nil, ErrNotSolved
	}
	p := i.arena.Primal()
	out := make(map[string]float64)
	for _, fn := range derivFuncs {
		for k, v := range FreestreamNames {
			out[StabDerivName(fn, v)] = p.Get(derivVars[fn][0], k)
		}
	}
	return out, nil
}

// ControlDerivs returns the derivatives of CL, CD, CM and CR with respect
// to every control deflection.
func (i *Instance) ControlDerivs() (map[string]float64, error) {
	if !i.Solved() {
		return nil, ErrNotSolved
	}
	p := i.arena.Primal()
	out := make(map[string]float64)
	for _, fn := range derivFuncs {
		for k, c := range i.ControlNames() {
			out[StabDerivName(fn, c)] = p.Get(derivVars[fn][1], k)
		}
	}
	return out, nil
}

// SurfaceForce holds the coefficients carried by one surface.
type SurfaceForce struct {
	CL float64
	CM float64
}

// SurfaceForces returns per-surface coefficients, images included.
func (i *Instance) SurfaceForces() (map[string]SurfaceForce, error) {
	if !i.Solved() {
		return nil, ErrNotSolved
	}
	p := i.arena.Primal()
	out := make(map[string]SurfaceForce)
	for k, name := range i.SurfaceNames(false) {
		out[name] = SurfaceForce{CL: p.Get(state.CLSurf, k), CM: p.Get(state.CMSurf, k)}
	}
	return out, nil
}

// Strip is the spanwise data of one strip.
type Strip struct {
	Surface string
	Y       float64
	Z       float64
	Chord   float64
	Width   float64
	Gamma   float64
	Load    float64
}

// StripData returns every strip in kernel order.
func (i *Instance) StripData() ([]Strip, error) {
	if !i.Solved() {
		return nil, ErrNotSolved
	}
	p := i.arena.Primal()
	names := i.SurfaceNames(false)
	n := p.GetInt(state.NStrip)
	out := make([]Strip, n)
	for k := range out {
		out[k] = Strip{
			Surface: names[p.GetInt(state.ISurfS, k)],
			Y:       p.Get(state.YMid, k),
			Z:       p.Get(state.ZMid, k),
			Chord:   p.Get(state.ChordS, k),
			Width:   p.Get(state.WStrip, k),
			Gamma:   p.Get(state.Gam, k),
			Load:    p.Get(state.Load, k),
		}
	}
	return out, nil
}
