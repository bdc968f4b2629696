package refvlm

import (
	"fmt"
	"math"

	"github.com/san-kum/vlsens/internal/kernel"
	"github.com/san-kum/vlsens/internal/state"
	"gonum.org/v1/gonum/mat"
)

const (
	maxTrimIter = 20
	maxCond     = 1e14
)

// factor LU-decomposes the stored influence matrix.
func (k *Kernel) factor() (*mat.LU, int, error) {
	n := k.nvor()
	if n == 0 || !k.p.GetBool(state.LGeo) {
		return nil, 0, kernel.ErrNoGeometry
	}
	a := k.p.Raw(state.AICN)
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			m.Set(i, j, a[aicn(i, j)])
		}
	}
	var lu mat.LU
	lu.Factorize(m)
	if c := lu.Cond(); math.IsInf(c, 1) || c > maxCond {
		return nil, 0, fmt.Errorf("%w: condition number %g", kernel.ErrSingular, c)
	}
	return &lu, n, nil
}

// solveVec solves A x = b, or A^T x = b when trans is set.
func solveVec(lu *mat.LU, b []float64, trans bool) ([]float64, error) {
	var x mat.VecDense
	if err := lu.SolveVecTo(&x, trans, mat.NewVecDense(len(b), b)); err != nil {
		return nil, fmt.Errorf("%w: %v", kernel.ErrSingular, err)
	}
	out := make([]float64, len(b))
	for i := range out {
		out[i] = x.AtVec(i)
	}
	return out, nil
}

// solveCirculations fills GAM, GAM_U and GAM_D for the current constraints.
func (k *Kernel) solveCirculations(lu *mat.LU) error {
	p := k.p
	b, bu, bd := k.rhs()
	x, err := solveVec(lu, b, false)
	if err != nil {
		return err
	}
	copy(p.Raw(state.Gam), x)

	gu := p.Raw(state.GamU)
	for iu := range bu {
		x, err := solveVec(lu, bu[iu], false)
		if err != nil {
			return err
		}
		for i, xi := range x {
			gu[uo(iu, i)] = xi
		}
	}
	gd := p.Raw(state.GamD)
	for d := range bd {
		x, err := solveVec(lu, bd[d], false)
		if err != nil {
			return err
		}
		for i, xi := range x {
			gd[do(d, i)] = xi
		}
	}
	return nil
}

type target struct {
	slot  int
	code  int
	value float64
}

func (k *Kernel) targets() []target {
	var out []target
	for c := 0; c < ConControl0+k.ncontrol(); c++ {
		code := k.p.GetInt(state.ConTarget, c)
		if code == TargetNone {
			continue
		}
		out = append(out, target{slot: c, code: code, value: k.p.Get(state.ConTargetVal, c)})
	}
	return out
}

var outputVars = map[int][3]state.Var{
	TargetCL: {state.CLTot, state.CLTotU, state.CLTotD},
	TargetCM: {state.CMTot, state.CMTotU, state.CMTotD},
	TargetCR: {state.CRTot, state.CRTotU, state.CRTotD},
}

// sensitivity is the derivative of output code with respect to the
// constraint value in slot.
func (k *Kernel) sensitivity(code, slot int) float64 {
	vars := outputVars[code]
	switch {
	case slot <= ConBeta:
		return deg2rad * k.p.Get(vars[1], slot)
	case slot < ConControl0:
		return k.p.Get(vars[1], slot)
	default:
		return k.p.Get(vars[2], slot-ConControl0)
	}
}

// Execute solves for the circulations, driving any targeted constraint
// values with Newton iterations until every target is met within tol.
func (k *Kernel) Execute(tol float64) error {
	p := k.p
	p.SetBool(state.LSol, false)
	if err := k.UpdateSurfaces(); err != nil {
		return err
	}
	if err := k.UpdateBodies(); err != nil {
		return err
	}
	lu, _, err := k.factor()
	if err != nil {
		return err
	}
	ts := k.targets()
	for _, t := range ts {
		if _, ok := outputVars[t.code]; !ok {
			return fmt.Errorf("refvlm: unknown target code %d for slot %d", t.code, t.slot)
		}
	}
	con := p.Raw(state.ConVal)
	for iter := 1; iter <= maxTrimIter; iter++ {
		if err := k.solveCirculations(lu); err != nil {
			return err
		}
		if err := k.VelocitySum(); err != nil {
			return err
		}
		if err := k.Aero(); err != nil {
			return err
		}
		p.Set(state.NIter, float64(iter))

		m := len(ts)
		r := make([]float64, m)
		worst := 0.0
		for i, t := range ts {
			r[i] = p.Get(outputVars[t.code][0]) - t.value
			worst = math.Max(worst, math.Abs(r[i]))
		}
		if worst <= tol {
			if err := k.Residual(); err != nil {
				return err
			}
			p.SetBool(state.LSol, true)
			return nil
		}

		jac := mat.NewDense(m, m, nil)
		for i, ti := range ts {
			for j, tj := range ts {
				jac.Set(i, j, k.sensitivity(ti.code, tj.slot))
			}
		}
		var dx mat.VecDense
		if err := dx.SolveVec(jac, mat.NewVecDense(m, r)); err != nil {
			return fmt.Errorf("%w: trim jacobian: %v", kernel.ErrNotConverged, err)
		}
		for j, t := range ts {
			con[t.slot] -= dx.AtVec(j)
		}
	}
	return fmt.Errorf("%w after %d iterations", kernel.ErrNotConverged, maxTrimIter)
}

// SolveAdjoint solves A^T psi = GAMb into RESb and likewise for the
// stability and control families when requested.
func (k *Kernel) SolveAdjoint(stab, consurf bool) error {
	lu, n, err := k.factor()
	if err != nil {
		return err
	}
	r := k.rev()
	psi, err := solveVec(lu, append([]float64(nil), r.Raw(state.Gam)[:n]...), true)
	if err != nil {
		return err
	}
	copy(r.Raw(state.Res), psi)

	family := func(gam, res state.Var, width, count int) error {
		gb, rb := r.Raw(gam), r.Raw(res)
		for f := 0; f < count; f++ {
			b := make([]float64, n)
			for i := range b {
				b[i] = gb[f+width*i]
			}
			x, err := solveVec(lu, b, true)
			if err != nil {
				return err
			}
			for i, xi := range x {
				rb[f+width*i] = xi
			}
		}
		return nil
	}
	if stab {
		if err := family(state.GamU, state.ResU, state.NUMAX, state.NUMAX); err != nil {
			return err
		}
	}
	if consurf {
		if err := family(state.GamD, state.ResD, state.NDMAX, k.ncontrol()); err != nil {
			return err
		}
	}
	return nil
}
