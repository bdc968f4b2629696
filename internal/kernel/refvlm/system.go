package refvlm

import (
	"fmt"
	"math"

	"github.com/san-kum/vlsens/internal/kernel"
	"github.com/san-kum/vlsens/internal/state"
)

// influence is the coupling of strip k to the vortex on strip l; dw and dd
// are its partials with respect to the width of l and the lateral offset
// d = y_k - y_l.
func influence(d, w float64) (t, dw, dd float64) {
	q := d*d + w*w
	t = w / (4 * math.Pi * q)
	dw = (d*d - w*w) / (4 * math.Pi * q * q)
	dd = -2 * d * w / (4 * math.Pi * q * q)
	return t, dw, dd
}

func aicn(k, l int) int { return k + state.NVMAX*l }

// buildInfluence fills AICN from the primal strips.
func (k *Kernel) buildInfluence() error {
	p := k.p
	n := k.nvor()
	s := stripsOf(p)
	a := p.Raw(state.AICN)
	for i := 0; i < n; i++ {
		fc := s.claf[i] * s.chord[i]
		if fc <= 0 {
			return fmt.Errorf("refvlm: strip %d has non-positive lift slope or chord", i)
		}
		for j := 0; j < n; j++ {
			t, _, _ := influence(s.y[i]-s.y[j], s.w[j])
			if i == j {
				t += 1 / (math.Pi * fc)
			}
			a[aicn(i, j)] = t
		}
	}
	return nil
}

// rhs evaluates the right-hand sides for GAM, GAM_U and GAM_D.
func (k *Kernel) rhs() (b []float64, bu, bd [][]float64) {
	p := k.p
	n, nd := k.nvor(), k.ncontrol()
	s := stripsOf(p)
	r := refsOf(p)
	xref := p.Get(state.XYZRef, 0)
	con := p.Raw(state.ConVal)
	b = make([]float64, n)
	bu = make([][]float64, state.NUMAX)
	for iu := range bu {
		bu[iu] = make([]float64, n)
	}
	bd = make([][]float64, nd)
	for d := range bd {
		bd[d] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		m := p.Get(state.IAlbe, i)
		u := [state.NUMAX]float64{
			m,
			m * s.phi[i],
			m * 2 * s.y[i] / r.b,
			m * 2 * (s.x[i] - xref) / r.c,
			m * 2 * s.z[i] / r.b,
		}
		b[i] = deg2rad*(con[ConAlpha]*u[0]+con[ConBeta]*u[1]) +
			con[ConRoll]*u[2] + con[ConPitch]*u[3] + con[ConYaw]*u[4] + s.ainc[i]
		for iu := range u {
			bu[iu][i] = u[iu]
		}
		for d := 0; d < nd; d++ {
			g := p.Get(state.Gains, i, d)
			b[i] += g * con[ConControl0+d]
			bd[d][i] = g
		}
	}
	return b, bu, bd
}

// matvec computes A x using the stored influence matrix.
func matvec(a []float64, n int, x func(int) float64) []float64 {
	out := make([]float64, n)
	for l := 0; l < n; l++ {
		xl := x(l)
		if xl == 0 {
			continue
		}
		col := a[state.NVMAX*l:]
		for i := 0; i < n; i++ {
			out[i] += col[i] * xl
		}
	}
	return out
}

// Residual evaluates RES, RES_U and RES_D at the current circulations.
func (k *Kernel) Residual() error {
	if !k.p.GetBool(state.LGeo) {
		return kernel.ErrNoGeometry
	}
	p := k.p
	n, nd := k.nvor(), k.ncontrol()
	a := p.Raw(state.AICN)
	b, bu, bd := k.rhs()

	gam, res := p.Raw(state.Gam), p.Raw(state.Res)
	ag := matvec(a, n, func(l int) float64 { return gam[l] })
	for i := 0; i < n; i++ {
		res[i] = ag[i] - b[i]
	}
	gu, ru := p.Raw(state.GamU), p.Raw(state.ResU)
	for iu := 0; iu < state.NUMAX; iu++ {
		ag := matvec(a, n, func(l int) float64 { return gu[uo(iu, l)] })
		for i := 0; i < n; i++ {
			ru[uo(iu, i)] = ag[i] - bu[iu][i]
		}
	}
	gd, rd := p.Raw(state.GamD), p.Raw(state.ResD)
	for d := 0; d < nd; d++ {
		ag := matvec(a, n, func(l int) float64 { return gd[do(d, l)] })
		for i := 0; i < n; i++ {
			rd[do(d, i)] = ag[i] - bd[d][i]
		}
	}
	return nil
}

// ResidualD propagates strip, reference, constraint and circulation seeds
// to residual seeds.
func (k *Kernel) ResidualD() error {
	if !k.p.GetBool(state.LGeo) {
		return kernel.ErrNoGeometry
	}
	p, f := k.p, k.fwd()
	n, nd := k.nvor(), k.ncontrol()
	a := p.Raw(state.AICN)
	s, sd := stripsOf(p), stripsOf(f)
	r, rd := refsOf(p), refsOf(f)
	xref := p.Get(state.XYZRef, 0)
	con, cond := p.Raw(state.ConVal), f.Raw(state.ConVal)

	// dA as a dense row-major n x n matrix
	da := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			_, tw, td := influence(s.y[i]-s.y[j], s.w[j])
			da[i*n+j] = tw*sd.w[j] + td*(sd.y[i]-sd.y[j])
		}
		fc := s.claf[i] * s.chord[i]
		da[i*n+i] -= (sd.claf[i]/s.claf[i] + sd.chord[i]/s.chord[i]) / (math.Pi * fc)
	}
	dmul := func(x func(int) float64) []float64 {
		out := make([]float64, n)
		for i := 0; i < n; i++ {
			var sum float64
			for j := 0; j < n; j++ {
				sum += da[i*n+j] * x(j)
			}
			out[i] = sum
		}
		return out
	}

	bdot := make([]float64, n)
	budot := make([][]float64, state.NUMAX)
	for iu := range budot {
		budot[iu] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		m := p.Get(state.IAlbe, i)
		u := [state.NUMAX]float64{
			m,
			m * s.phi[i],
			m * 2 * s.y[i] / r.b,
			m * 2 * (s.x[i] - xref) / r.c,
			m * 2 * s.z[i] / r.b,
		}
		ud := [state.NUMAX]float64{
			0,
			m * sd.phi[i],
			m * 2 * (sd.y[i]/r.b - s.y[i]*rd.b/(r.b*r.b)),
			m * 2 * (sd.x[i]/r.c - (s.x[i]-xref)*rd.c/(r.c*r.c)),
			m * 2 * (sd.z[i]/r.b - s.z[i]*rd.b/(r.b*r.b)),
		}
		bdot[i] = deg2rad*(cond[ConAlpha]*u[0]+cond[ConBeta]*u[1]+con[ConBeta]*ud[1]) +
			cond[ConRoll]*u[2] + con[ConRoll]*ud[2] +
			cond[ConPitch]*u[3] + con[ConPitch]*ud[3] +
			cond[ConYaw]*u[4] + con[ConYaw]*ud[4] +
			sd.ainc[i]
		for iu := range ud {
			budot[iu][i] = ud[iu]
		}
		for d := 0; d < nd; d++ {
			bdot[i] += p.Get(state.Gains, i, d) * cond[ConControl0+d]
		}
	}

	gam, gamd := p.Raw(state.Gam), f.Raw(state.Gam)
	res := f.Raw(state.Res)
	t1 := dmul(func(j int) float64 { return gam[j] })
	t2 := matvec(a, n, func(j int) float64 { return gamd[j] })
	for i := 0; i < n; i++ {
		res[i] = t1[i] + t2[i] - bdot[i]
	}

	gu, gud, ru := p.Raw(state.GamU), f.Raw(state.GamU), f.Raw(state.ResU)
	for iu := 0; iu < state.NUMAX; iu++ {
		t1 := dmul(func(j int) float64 { return gu[uo(iu, j)] })
		t2 := matvec(a, n, func(j int) float64 { return gud[uo(iu, j)] })
		for i := 0; i < n; i++ {
			ru[uo(iu, i)] = t1[i] + t2[i] - budot[iu][i]
		}
	}

	gdd, gddd, rdd := p.Raw(state.GamD), f.Raw(state.GamD), f.Raw(state.ResD)
	for d := 0; d < nd; d++ {
		t1 := dmul(func(j int) float64 { return gdd[do(d, j)] })
		t2 := matvec(a, n, func(j int) float64 { return gddd[do(d, j)] })
		for i := 0; i < n; i++ {
			rdd[do(d, i)] = t1[i] + t2[i]
		}
	}
	return nil
}

// ResidualB accumulates residual adjoints into circulation, strip,
// reference and constraint adjoints.
func (k *Kernel) ResidualB() error {
	if !k.p.GetBool(state.LGeo) {
		return kernel.ErrNoGeometry
	}
	p, rv := k.p, k.rev()
	n, nd := k.nvor(), k.ncontrol()
	a := p.Raw(state.AICN)
	s, sb := stripsOf(p), stripsOf(rv)
	r := refsOf(p)
	xref := p.Get(state.XYZRef, 0)
	con, conb := p.Raw(state.ConVal), rv.Raw(state.ConVal)

	gam, gamb := p.Raw(state.Gam), rv.Raw(state.Gam)
	gu, gub := p.Raw(state.GamU), rv.Raw(state.GamU)
	gd, gdb := p.Raw(state.GamD), rv.Raw(state.GamD)
	resb, resub, resdb := rv.Raw(state.Res), rv.Raw(state.ResU), rv.Raw(state.ResD)

	// circulation adjoints: A^T resb
	for l := 0; l < n; l++ {
		col := a[state.NVMAX*l:]
		for i := 0; i < n; i++ {
			gamb[l] += col[i] * resb[i]
			for iu := 0; iu < state.NUMAX; iu++ {
				gub[uo(iu, l)] += col[i] * resub[uo(iu, i)]
			}
			for d := 0; d < nd; d++ {
				gdb[do(d, l)] += col[i] * resdb[do(d, i)]
			}
		}
	}

	// influence matrix adjoint
	var sbRef refs
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			ab := resb[i] * gam[j]
			for iu := 0; iu < state.NUMAX; iu++ {
				ab += resub[uo(iu, i)] * gu[uo(iu, j)]
			}
			for d := 0; d < nd; d++ {
				ab += resdb[do(d, i)] * gd[do(d, j)]
			}
			if ab == 0 {
				continue
			}
			_, tw, td := influence(s.y[i]-s.y[j], s.w[j])
			sb.w[j] += tw * ab
			sb.y[i] += td * ab
			sb.y[j] -= td * ab
			if i == j {
				fc := s.claf[i] * s.chord[i]
				sb.claf[i] -= ab / (math.Pi * fc * s.claf[i])
				sb.chord[i] -= ab / (math.Pi * fc * s.chord[i])
			}
		}
	}

	// right-hand side adjoint
	for i := 0; i < n; i++ {
		m := p.Get(state.IAlbe, i)
		bb := -resb[i]
		ub := [state.NUMAX]float64{}
		for iu := range ub {
			ub[iu] = -resub[uo(iu, i)]
		}
		u1 := m * s.phi[i]
		u2 := m * 2 * s.y[i] / r.b
		u3 := m * 2 * (s.x[i] - xref) / r.c
		u4 := m * 2 * s.z[i] / r.b

		conb[ConAlpha] += deg2rad * m * bb
		conb[ConBeta] += deg2rad * u1 * bb
		conb[ConRoll] += u2 * bb
		conb[ConPitch] += u3 * bb
		conb[ConYaw] += u4 * bb
		sb.ainc[i] += bb
		for d := 0; d < nd; d++ {
			conb[ConControl0+d] += p.Get(state.Gains, i, d) * bb
		}

		// adjoints of u1..u4 from both b and b_U
		u1b := deg2rad*con[ConBeta]*bb + ub[1]
		u2b := con[ConRoll]*bb + ub[2]
		u3b := con[ConPitch]*bb + ub[3]
		u4b := con[ConYaw]*bb + ub[4]

		sb.phi[i] += m * u1b
		sb.y[i] += m * 2 / r.b * u2b
		sbRef.b -= u2 / r.b * u2b
		sb.x[i] += m * 2 / r.c * u3b
		sbRef.c -= u3 / r.c * u3b
		sb.z[i] += m * 2 / r.b * u4b
		sbRef.b -= u4 / r.b * u4b
	}
	addRef(rv, sbRef)
	return nil
}

func addRef(st *state.Store, d refs) {
	st.Set(state.Sref, st.Get(state.Sref)+d.s)
	st.Set(state.Cref, st.Get(state.Cref)+d.c)
	st.Set(state.Bref, st.Get(state.Bref)+d.b)
}
