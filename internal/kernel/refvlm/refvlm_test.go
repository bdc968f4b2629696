package refvlm

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/san-kum/vlsens/internal/kernel"
	"github.com/san-kum/vlsens/internal/state"
)

// testWing builds a tapered three-section wing with a mirrored image and
// one trailing-edge control on the outer panel.
func testWing(t *testing.T) (*state.Arena, *Kernel) {
	t.Helper()
	a := state.NewArena()
	p := a.Primal()
	p.Set(state.Sref, 10)
	p.Set(state.Cref, 1)
	p.Set(state.Bref, 10)
	p.Set(state.XYZRef, 0.25, 0)
	p.Set(state.NControl, 1)
	p.Set(state.NSurf, 1)
	p.Set(state.NSec, 3, 0)
	for c := 0; c < 3; c++ {
		p.Set(state.XYZScal, 1, 0, c)
	}
	for j, y := range []float64{0, 2.5, 5} {
		p.Set(state.XYZLES, 0.1*y, 0, j, 0)
		p.Set(state.XYZLES, y, 0, j, 1)
		p.Set(state.XYZLES, 0.05*y, 0, j, 2)
		p.Set(state.Chords, 1.2-0.1*y, 0, j)
		p.Set(state.AIncs, 2-0.2*y, 0, j)
		p.Set(state.CLAF, 1, 0, j)
	}
	for _, j := range []int{1, 2} {
		p.Set(state.NSCon, 1, 0, j)
		p.Set(state.IContD, 0, 0, j, 0)
		p.Set(state.GainD, 1, 0, j, 0)
		p.Set(state.XHinged, 0.7, 0, j, 0)
		p.Set(state.RefLD, 1, 0, j, 0)
	}
	p.SetBool(state.LFAlbe, true, 0)
	p.SetBool(state.LFLoad, true, 0)

	k := New(a)
	if err := k.MakeSurface(0); err != nil {
		t.Fatalf("MakeSurface: %v", err)
	}
	if err := k.DuplicateSurface(0, 0); err != nil {
		t.Fatalf("DuplicateSurface: %v", err)
	}
	p.Set(state.NSurf, 2)
	if err := k.UpdateSurfaces(); err != nil {
		t.Fatalf("UpdateSurfaces: %v", err)
	}
	p.Set(state.ConVal, 3, ConAlpha)
	return a, k
}

func TestExecuteSymmetricWing(t *testing.T) {
	a, k := testWing(t)
	if err := k.Execute(1e-10); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	p := a.Primal()
	if got := p.GetInt(state.NStrip); got != 4 {
		t.Fatalf("NSTRIP = %d, want 4", got)
	}
	if !p.GetBool(state.LSol) {
		t.Error("LSOL not set after Execute")
	}
	cl := p.Get(state.CLTot)
	if cl <= 0 {
		t.Errorf("CL = %g, want positive", cl)
	}
	if cr := p.Get(state.CRTot); math.Abs(cr) > 1e-12 {
		t.Errorf("CR = %g, want 0 for a symmetric wing", cr)
	}
	want := cl * cl * 10 / (math.Pi * 100)
	if cdi := p.Get(state.CDiTot); math.Abs(cdi-want) > 1e-12 {
		t.Errorf("CDi = %g, want %g", cdi, want)
	}
	for i := 0; i < 4; i++ {
		if r := p.Get(state.Res, i); math.Abs(r) > 1e-10 {
			t.Errorf("RES[%d] = %g after solve", i, r)
		}
	}
	if got := p.Get(state.YMid, 2); math.Abs(got+p.Get(state.YMid, 0)) > 1e-12 {
		t.Errorf("image strip y = %g, want mirror of %g", got, p.Get(state.YMid, 0))
	}
	if g := p.Get(state.CLTotU, 0); g <= 0 {
		t.Errorf("dCL/dalpha = %g, want positive", g)
	}
	if g := p.Get(state.CLTotD, 0); g <= 0 {
		t.Errorf("dCL/dflap = %g, want positive", g)
	}
}

func TestExecuteTrimsToTarget(t *testing.T) {
	a, k := testWing(t)
	p := a.Primal()
	p.Set(state.ConTarget, TargetCL, ConAlpha)
	p.Set(state.ConTargetVal, 0.5, ConAlpha)
	if err := k.Execute(1e-10); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if cl := p.Get(state.CLTot); math.Abs(cl-0.5) > 1e-9 {
		t.Errorf("CL = %g, want 0.5", cl)
	}
	if n := p.GetInt(state.NIter); n < 2 {
		t.Errorf("NITER = %d, want at least one Newton step", n)
	}
}

func TestExecuteWithoutGeometry(t *testing.T) {
	k := New(state.NewArena())
	if err := k.Execute(1e-6); !errors.Is(err, kernel.ErrNoGeometry) {
		t.Errorf("Execute on empty arena: got %v, want ErrNoGeometry", err)
	}
}

var (
	tapeInputs = []state.Var{
		state.ConVal, state.ParVal, state.Sref, state.Cref, state.Bref,
		state.XYZScal, state.XYZTran, state.AddInc, state.XYZLES,
		state.Chords, state.AIncs, state.CLAF,
		state.Gam, state.GamU, state.GamD,
	}
	tapeOutputs = []state.Var{
		state.CLTot, state.CDTot, state.CDiTot, state.CMTot, state.CRTot,
		state.CLTotU, state.CDTotU, state.CMTotU, state.CRTotU,
		state.CLTotD, state.CDTotD, state.CMTotD, state.CRTotD,
		state.Res, state.ResU, state.ResD,
	}
)

// seedInputs fills every input seed with uniform noise.
func seedInputs(st *state.Store, rng *rand.Rand) {
	for _, v := range tapeInputs {
		raw := st.Raw(v)
		for i := range raw {
			raw[i] = rng.Float64() - 0.5
		}
	}
}

func forward(t *testing.T, k *Kernel) {
	t.Helper()
	for _, step := range []func() error{k.UpdateSurfacesD, k.ResidualD, k.VelocitySumD, k.AeroD} {
		if err := step(); err != nil {
			t.Fatal(err)
		}
	}
}

func primal(t *testing.T, k *Kernel) {
	t.Helper()
	for _, step := range []func() error{k.UpdateSurfaces, k.Residual, k.VelocitySum, k.Aero} {
		if err := step(); err != nil {
			t.Fatal(err)
		}
	}
}

func dot(a, b *state.Store, vars []state.Var) float64 {
	var sum float64
	for _, v := range vars {
		x, y := a.Raw(v), b.Raw(v)
		for i := range x {
			sum += x[i] * y[i]
		}
	}
	return sum
}

func TestTangentMatchesFiniteDifference(t *testing.T) {
	a, k := testWing(t)
	if err := k.Execute(1e-10); err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewPCG(7, 11))
	f := a.Seeds(state.Forward)
	seedInputs(f, rng)
	forward(t, k)

	const h = 1e-6
	base := a.Clone()
	eval := func(step float64) map[state.Var][]float64 {
		a.Restore(base)
		p := a.Primal()
		for _, v := range tapeInputs {
			raw, seed := p.Raw(v), base.Seeds(state.Forward).Raw(v)
			for i := range raw {
				raw[i] += step * seed[i]
			}
		}
		primal(t, k)
		out := make(map[state.Var][]float64)
		for _, v := range tapeOutputs {
			out[v] = append([]float64(nil), p.Raw(v)...)
		}
		return out
	}
	plus, minus := eval(h), eval(-h)
	a.Restore(base)

	for _, v := range tapeOutputs {
		tan := a.Seeds(state.Forward).Raw(v)
		for i := range tan {
			fd := (plus[v][i] - minus[v][i]) / (2 * h)
			if math.Abs(fd-tan[i]) > 1e-5*math.Max(1, math.Abs(fd)) {
				t.Errorf("%s[%d]: tangent %g, finite difference %g", v, i, tan[i], fd)
			}
		}
	}
}

func TestAdjointDotProduct(t *testing.T) {
	a, k := testWing(t)
	if err := k.Execute(1e-10); err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewPCG(3, 5))
	f, r := a.Seeds(state.Forward), a.Seeds(state.Reverse)
	seedInputs(f, rng)
	forward(t, k)

	for _, v := range tapeOutputs {
		raw := r.Raw(v)
		for i := range raw {
			raw[i] = rng.Float64() - 0.5
		}
	}
	ybar := r.Clone()
	for _, step := range []func() error{k.AeroB, k.VelocitySumB, k.ResidualB, k.UpdateSurfacesB} {
		if err := step(); err != nil {
			t.Fatal(err)
		}
	}

	lhs := dot(f, ybar, tapeOutputs)
	rhs := dot(f, r, tapeInputs)
	if math.Abs(lhs-rhs) > 1e-9*math.Max(1, math.Abs(lhs)) {
		t.Errorf("<ydot, ybar> = %.15g, <xdot, xbar> = %.15g", lhs, rhs)
	}
}

func TestSolveAdjointTransposed(t *testing.T) {
	a, k := testWing(t)
	if err := k.Execute(1e-10); err != nil {
		t.Fatal(err)
	}
	r := a.Seeds(state.Reverse)
	n := k.nvor()
	rhs := []float64{1, -2, 0.5, 3}
	copy(r.Raw(state.Gam), rhs)
	if err := k.SolveAdjoint(false, false); err != nil {
		t.Fatal(err)
	}
	aic := a.Primal().Raw(state.AICN)
	psi := r.Raw(state.Res)
	for l := 0; l < n; l++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += aic[aicn(i, l)] * psi[i]
		}
		if math.Abs(sum-rhs[l]) > 1e-10 {
			t.Errorf("(A^T psi)[%d] = %g, want %g", l, sum, rhs[l])
		}
	}
}
