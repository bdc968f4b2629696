package refvlm

import (
	"errors"
	"math"

	"github.com/san-kum/vlsens/internal/kernel"
	"github.com/san-kum/vlsens/internal/state"
)

var errZeroReference = errors.New("refvlm: zero reference area, chord or span")

// VelocitySum converts circulations into strip loads.
func (k *Kernel) VelocitySum() error {
	if !k.p.GetBool(state.LGeo) {
		return kernel.ErrNoGeometry
	}
	p := k.p
	n, nd := k.nvor(), k.ncontrol()
	w := p.Raw(state.WStrip)
	gam, gu, gd := p.Raw(state.Gam), p.Raw(state.GamU), p.Raw(state.GamD)
	l, lu, ld := p.Raw(state.Load), p.Raw(state.LoadU), p.Raw(state.LoadD)
	for i := 0; i < n; i++ {
		f := 2 * w[i] * p.Get(state.ILoad, i)
		l[i] = f * gam[i]
		for iu := 0; iu < state.NUMAX; iu++ {
			lu[uo(iu, i)] = f * gu[uo(iu, i)]
		}
		for d := 0; d < nd; d++ {
			ld[do(d, i)] = f * gd[do(d, i)]
		}
	}
	return nil
}

// VelocitySumD is the tangent of VelocitySum.
func (k *Kernel) VelocitySumD() error {
	if !k.p.GetBool(state.LGeo) {
		return kernel.ErrNoGeometry
	}
	p, f := k.p, k.fwd()
	n, nd := k.nvor(), k.ncontrol()
	w, wd := p.Raw(state.WStrip), f.Raw(state.WStrip)
	gam, gamd := p.Raw(state.Gam), f.Raw(state.Gam)
	gu, gud := p.Raw(state.GamU), f.Raw(state.GamU)
	gd, gdd := p.Raw(state.GamD), f.Raw(state.GamD)
	l, lu, ld := f.Raw(state.Load), f.Raw(state.LoadU), f.Raw(state.LoadD)
	for i := 0; i < n; i++ {
		m := 2 * p.Get(state.ILoad, i)
		l[i] = m * (gamd[i]*w[i] + gam[i]*wd[i])
		for iu := 0; iu < state.NUMAX; iu++ {
			o := uo(iu, i)
			lu[o] = m * (gud[o]*w[i] + gu[o]*wd[i])
		}
		for d := 0; d < nd; d++ {
			o := do(d, i)
			ld[o] = m * (gdd[o]*w[i] + gd[o]*wd[i])
		}
	}
	return nil
}

// VelocitySumB is the adjoint of VelocitySum.
func (k *Kernel) VelocitySumB() error {
	if !k.p.GetBool(state.LGeo) {
		return kernel.ErrNoGeometry
	}
	p, r := k.p, k.rev()
	n, nd := k.nvor(), k.ncontrol()
	w, wb := p.Raw(state.WStrip), r.Raw(state.WStrip)
	gam, gamb := p.Raw(state.Gam), r.Raw(state.Gam)
	gu, gub := p.Raw(state.GamU), r.Raw(state.GamU)
	gd, gdb := p.Raw(state.GamD), r.Raw(state.GamD)
	lb, lub, ldb := r.Raw(state.Load), r.Raw(state.LoadU), r.Raw(state.LoadD)
	for i := 0; i < n; i++ {
		m := 2 * p.Get(state.ILoad, i)
		gamb[i] += m * w[i] * lb[i]
		wb[i] += m * gam[i] * lb[i]
		for iu := 0; iu < state.NUMAX; iu++ {
			o := uo(iu, i)
			gub[o] += m * w[i] * lub[o]
			wb[i] += m * gu[o] * lub[o]
		}
		for d := 0; d < nd; d++ {
			o := do(d, i)
			gdb[o] += m * w[i] * ldb[o]
			wb[i] += m * gd[o] * ldb[o]
		}
	}
	return nil
}

// moments are the load integrals behind the force coefficients: the total
// load, the pitching moment about XYZREF and the rolling moment.
type moments struct {
	sl, m, r float64
}

func integrate(n int, l func(int) float64, s stripVars, xref float64) moments {
	var t moments
	for i := 0; i < n; i++ {
		li := l(i)
		t.sl += li
		t.m += li * (xref - s.x[i])
		t.r -= li * s.y[i]
	}
	return t
}

func integrateDot(n int, l, ld func(int) float64, s, sd stripVars, xref float64) moments {
	var t moments
	for i := 0; i < n; i++ {
		li, lid := l(i), ld(i)
		t.sl += lid
		t.m += lid*(xref-s.x[i]) - li*sd.x[i]
		t.r -= lid*s.y[i] + li*sd.y[i]
	}
	return t
}

// coeffs maps moments to CL, CM and CR.
func coeffs(t moments, r refs) (cl, cm, cr float64) {
	return t.sl / r.s, t.m / (r.s * r.c), t.r / (r.s * r.b)
}

func coeffsDot(t, td moments, r, rd refs) (cl, cm, cr float64) {
	c0, m0, r0 := coeffs(t, r)
	cl = td.sl/r.s - c0*rd.s/r.s
	cm = td.m/(r.s*r.c) - m0*(rd.s/r.s+rd.c/r.c)
	cr = td.r/(r.s*r.b) - r0*(rd.s/r.s+rd.b/r.b)
	return cl, cm, cr
}

// inducedDrag is the elliptic induced drag of a total load sl and its
// cross term with a derivative load slx.
func inducedDrag(sl, slx float64, r refs) float64 {
	return sl * slx / (math.Pi * r.s * r.b * r.b)
}

func (k *Kernel) checkRefs(r refs) error {
	if r.s == 0 || r.c == 0 || r.b == 0 {
		return errZeroReference
	}
	return nil
}

// Aero integrates strip loads into total and per-surface coefficients.
func (k *Kernel) Aero() error {
	if !k.p.GetBool(state.LGeo) {
		return kernel.ErrNoGeometry
	}
	p := k.p
	n, nd := k.nvor(), k.ncontrol()
	s, r := stripsOf(p), refsOf(p)
	if err := k.checkRefs(r); err != nil {
		return err
	}
	xref := p.Get(state.XYZRef, 0)
	l, lu, ld := p.Raw(state.Load), p.Raw(state.LoadU), p.Raw(state.LoadD)

	t := integrate(n, func(i int) float64 { return l[i] }, s, xref)
	cl, cm, cr := coeffs(t, r)
	cdi := inducedDrag(t.sl, t.sl, r)
	p.Set(state.CLTot, cl)
	p.Set(state.CMTot, cm)
	p.Set(state.CRTot, cr)
	p.Set(state.CDiTot, cdi)
	p.Set(state.CDTot, cdi+p.Get(state.CDRef)+p.Get(state.ParVal, ParCD0))

	for iu := 0; iu < state.NUMAX; iu++ {
		tu := integrate(n, func(i int) float64 { return lu[uo(iu, i)] }, s, xref)
		cl, cm, cr := coeffs(tu, r)
		p.Set(state.CLTotU, cl, iu)
		p.Set(state.CMTotU, cm, iu)
		p.Set(state.CRTotU, cr, iu)
		p.Set(state.CDTotU, 2*inducedDrag(t.sl, tu.sl, r), iu)
	}
	for d := 0; d < nd; d++ {
		td := integrate(n, func(i int) float64 { return ld[do(d, i)] }, s, xref)
		cl, cm, cr := coeffs(td, r)
		p.Set(state.CLTotD, cl, d)
		p.Set(state.CMTotD, cm, d)
		p.Set(state.CRTotD, cr, d)
		p.Set(state.CDTotD, 2*inducedDrag(t.sl, td.sl, r), d)
	}

	for isurf := 0; isurf < p.GetInt(state.NSurf); isurf++ {
		first, nj := p.GetInt(state.JFrst, isurf), p.GetInt(state.NJ, isurf)
		var sl, m float64
		for i := first; i < first+nj; i++ {
			sl += l[i]
			m += l[i] * (xref - s.x[i])
		}
		p.Set(state.CLSurf, sl/r.s, isurf)
		p.Set(state.CMSurf, m/(r.s*r.c), isurf)
	}
	return nil
}

// AeroD is the tangent of Aero.
func (k *Kernel) AeroD() error {
	if !k.p.GetBool(state.LGeo) {
		return kernel.ErrNoGeometry
	}
	p, f := k.p, k.fwd()
	n, nd := k.nvor(), k.ncontrol()
	s, sd := stripsOf(p), stripsOf(f)
	r, rd := refsOf(p), refsOf(f)
	if err := k.checkRefs(r); err != nil {
		return err
	}
	xref := p.Get(state.XYZRef, 0)
	l, lu, ld := p.Raw(state.Load), p.Raw(state.LoadU), p.Raw(state.LoadD)
	ldot, ludot, lddot := f.Raw(state.Load), f.Raw(state.LoadU), f.Raw(state.LoadD)
	// relative rate of the induced drag normalization pi*S*B^2
	norm := rd.s/r.s + 2*rd.b/r.b

	t := integrate(n, func(i int) float64 { return l[i] }, s, xref)
	td := integrateDot(n, func(i int) float64 { return l[i] }, func(i int) float64 { return ldot[i] }, s, sd, xref)
	cl, cm, cr := coeffsDot(t, td, r, rd)
	cdi := inducedDrag(t.sl, t.sl, r)
	cdid := 2*inducedDrag(t.sl, td.sl, r) - cdi*norm
	f.Set(state.CLTot, cl)
	f.Set(state.CMTot, cm)
	f.Set(state.CRTot, cr)
	f.Set(state.CDiTot, cdid)
	f.Set(state.CDTot, cdid+f.Get(state.ParVal, ParCD0))

	for iu := 0; iu < state.NUMAX; iu++ {
		at := func(i int) float64 { return lu[uo(iu, i)] }
		atd := func(i int) float64 { return ludot[uo(iu, i)] }
		tu := integrate(n, at, s, xref)
		tud := integrateDot(n, at, atd, s, sd, xref)
		cl, cm, cr := coeffsDot(tu, tud, r, rd)
		f.Set(state.CLTotU, cl, iu)
		f.Set(state.CMTotU, cm, iu)
		f.Set(state.CRTotU, cr, iu)
		cdu := 2 * inducedDrag(t.sl, tu.sl, r)
		f.Set(state.CDTotU, 2*(inducedDrag(td.sl, tu.sl, r)+inducedDrag(t.sl, tud.sl, r))-cdu*norm, iu)
	}
	for d := 0; d < nd; d++ {
		at := func(i int) float64 { return ld[do(d, i)] }
		atd := func(i int) float64 { return lddot[do(d, i)] }
		tc := integrate(n, at, s, xref)
		tcd := integrateDot(n, at, atd, s, sd, xref)
		cl, cm, cr := coeffsDot(tc, tcd, r, rd)
		f.Set(state.CLTotD, cl, d)
		f.Set(state.CMTotD, cm, d)
		f.Set(state.CRTotD, cr, d)
		cdc := 2 * inducedDrag(t.sl, tc.sl, r)
		f.Set(state.CDTotD, 2*(inducedDrag(td.sl, tc.sl, r)+inducedDrag(t.sl, tcd.sl, r))-cdc*norm, d)
	}
	return nil
}

// coeffBars are the adjoints of CL, CM, CR and the drag cross term of one
// load family.
type coeffBars struct {
	cl, cm, cr, cd float64
}

// AeroB is the adjoint of Aero.
func (k *Kernel) AeroB() error {
	if !k.p.GetBool(state.LGeo) {
		return kernel.ErrNoGeometry
	}
	p, rv := k.p, k.rev()
	n, nd := k.nvor(), k.ncontrol()
	s, sb := stripsOf(p), stripsOf(rv)
	r := refsOf(p)
	if err := k.checkRefs(r); err != nil {
		return err
	}
	xref := p.Get(state.XYZRef, 0)
	l, lu, ld := p.Raw(state.Load), p.Raw(state.LoadU), p.Raw(state.LoadD)
	lb, lub, ldb := rv.Raw(state.Load), rv.Raw(state.LoadU), rv.Raw(state.LoadD)
	var refb refs

	t := integrate(n, func(i int) float64 { return l[i] }, s, xref)
	cdb := rv.Get(state.CDTot)
	cdib := rv.Get(state.CDiTot) + cdb
	rv.Set(state.ParVal, rv.Get(state.ParVal, ParCD0)+cdb, ParCD0)

	// adjoint of the total load, collected from every family before it is
	// spread over the strips
	cdi := inducedDrag(t.sl, t.sl, r)
	slb := 2 * t.sl / (math.Pi * r.s * r.b * r.b) * cdib
	refb.s -= cdi / r.s * cdib
	refb.b -= 2 * cdi / r.b * cdib

	// family propagates the coefficient adjoints of one load family into
	// its strip loads and the strip geometry; it returns the adjoint of its
	// total load.
	family := func(load func(int) float64, loadb func(int, float64), b coeffBars, tf moments) float64 {
		cl, cm, cr := coeffs(tf, r)
		fsl := b.cl / r.s
		mb := b.cm / (r.s * r.c)
		rb := b.cr / (r.s * r.b)
		refb.s -= cl*b.cl/r.s + cm*b.cm/r.s + cr*b.cr/r.s
		refb.c -= cm * b.cm / r.c
		refb.b -= cr * b.cr / r.b
		for i := 0; i < n; i++ {
			li := load(i)
			loadb(i, mb*(xref-s.x[i])-rb*s.y[i])
			sb.x[i] -= mb * li
			sb.y[i] -= rb * li
		}
		return fsl
	}
	crossDrag := func(tf moments, xb float64) float64 {
		// CDx = 2 sl slx / (pi S B^2)
		cdx := 2 * inducedDrag(t.sl, tf.sl, r)
		slb += 2 * tf.sl / (math.Pi * r.s * r.b * r.b) * xb
		refb.s -= cdx / r.s * xb
		refb.b -= 2 * cdx / r.b * xb
		return 2 * t.sl / (math.Pi * r.s * r.b * r.b) * xb
	}

	for iu := 0; iu < state.NUMAX; iu++ {
		at := func(i int) float64 { return lu[uo(iu, i)] }
		tu := integrate(n, at, s, xref)
		b := coeffBars{
			cl: rv.Get(state.CLTotU, iu),
			cm: rv.Get(state.CMTotU, iu),
			cr: rv.Get(state.CRTotU, iu),
			cd: rv.Get(state.CDTotU, iu),
		}
		addb := func(i int, x float64) { lub[uo(iu, i)] += x }
		fsl := family(at, addb, b, tu) + crossDrag(tu, b.cd)
		for i := 0; i < n; i++ {
			lub[uo(iu, i)] += fsl
		}
	}
	for d := 0; d < nd; d++ {
		at := func(i int) float64 { return ld[do(d, i)] }
		tc := integrate(n, at, s, xref)
		b := coeffBars{
			cl: rv.Get(state.CLTotD, d),
			cm: rv.Get(state.CMTotD, d),
			cr: rv.Get(state.CRTotD, d),
			cd: rv.Get(state.CDTotD, d),
		}
		addb := func(i int, x float64) { ldb[do(d, i)] += x }
		fsl := family(at, addb, b, tc) + crossDrag(tc, b.cd)
		for i := 0; i < n; i++ {
			ldb[do(d, i)] += fsl
		}
	}

	b := coeffBars{cl: rv.Get(state.CLTot), cm: rv.Get(state.CMTot), cr: rv.Get(state.CRTot)}
	slb += family(func(i int) float64 { return l[i] }, func(i int, x float64) { lb[i] += x }, b, t)
	for i := 0; i < n; i++ {
		lb[i] += slb
	}
	addRef(rv, refb)
	return nil
}
