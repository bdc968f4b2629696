package solver_test

import (
	"bytes"
	"errors"
	"maps"
	"math"
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/san-kum/vlsens/internal/geom"
	"github.com/san-kum/vlsens/internal/solver"
	"github.com/san-kum/vlsens/internal/state"
)

const (
	aircraftFile = "testdata/aircraft.yaml"
	pairFile     = "testdata/pair.yaml"
)

var _ = Describe("Load", func() {
	It("commits mirrored images right after their source", func() {
		inst := loadFile(aircraftFile)
		Expect(inst.SurfaceNames(false)).To(Equal([]string{"wing", "wing (YDUP)", "tail", "tail (YDUP)"}))
		Expect(inst.SurfaceNames(true)).To(Equal([]string{"wing", "tail"}))
		Expect(inst.BodyNames(false)).To(Equal([]string{"fuselage"}))
		Expect(inst.ControlNames()).To(Equal([]string{"flap"}))
		Expect(inst.NumSurfaces()).To(Equal(4))

		n, err := inst.NumSections("wing (YDUP)")
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(3))

		strips, vortices := inst.MeshSize()
		Expect(strips).To(Equal(2 + 2 + 1 + 1))
		Expect(vortices).To(Equal(strips))
	})

	It("reports unrecognised keys without failing", func() {
		desc := decodeFile(pairFile)
		desc.Extra = map[string]any{"colour": "red"}
		inst, err := solver.Load(desc, options())
		Expect(err).NotTo(HaveOccurred())
		Expect(inst.Report().Warnings).To(ConsistOf(geom.Warning{Path: "aircraft", Key: "colour"}))
	})

	It("rejects conflicting airfoil specifications before any commit", func() {
		desc := decodeFile(aircraftFile)
		wing := &desc.Surfaces[0].Value
		wing.Airfoils = [][][]float64{
			{{1, 0, 1}, {0, 0.1, 0}},
			{{1, 0, 1}, {0, 0.1, 0}},
			{{1, 0, 1}, {0, 0.1, 0}},
		}
		_, err := solver.Load(desc, options())
		Expect(err).To(MatchError(geom.ErrConflictingSpecification))
	})

	It("rejects entities that would share a slice map", func() {
		desc := decodeFile(pairFile)
		desc.Surfaces[1].Name = "A"
		_, err := solver.Load(desc, options())
		Expect(err).To(MatchError(geom.ErrDuplicateName))

		desc = decodeFile(aircraftFile)
		desc.Bodies[0].Name = "tail (YDUP)"
		_, err = solver.Load(desc, options())
		Expect(err).To(MatchError(geom.ErrDuplicateName))
	})

	It("rejects redundant symmetry", func() {
		desc := decodeFile(aircraftFile)
		desc.IYSym = 1
		_, err := solver.Load(desc, options())
		Expect(err).To(MatchError(geom.ErrRedundantSymmetry))
	})

	It("keeps the previous configuration when a reload fails", func() {
		inst := loadFile(pairFile)
		Expect(inst.Execute()).To(Succeed())
		before, err := inst.TotalForces()
		Expect(err).NotTo(HaveOccurred())

		bad := decodeFile(pairFile)
		bad.Surfaces[0].Value.YLEs = []float64{1, 1}
		err = inst.Reload(bad)
		var kerr *solver.KernelError
		Expect(errors.As(err, &kerr)).To(BeTrue())
		Expect(kerr.Entry).To(Equal("make_surface"))

		Expect(inst.SurfaceNames(false)).To(Equal([]string{"A", "B"}))
		after, err := inst.TotalForces()
		Expect(err).NotTo(HaveOccurred())
		Expect(after).To(Equal(before))
	})
})

var _ = Describe("Accessors", func() {
	It("keeps section writes of different surfaces apart", func() {
		inst := loadFile(pairFile)
		for surf, chord := range map[string]float64{"A": 2.0, "B": 3.0} {
			v, err := inst.SurfaceParam(surf, "chords")
			Expect(err).NotTo(HaveOccurred())
			cs := v.Floats()
			cs[1] = chord
			Expect(inst.SetSurfaceParam(surf, "chords", state.Reals(cs...))).To(Succeed())
		}
		a, err := inst.SurfaceParam("A", "chords")
		Expect(err).NotTo(HaveOccurred())
		b, err := inst.SurfaceParam("B", "chords")
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Floats()).To(Equal([]float64{1.0, 2.0}))
		Expect(b.Floats()).To(Equal([]float64{0.5, 3.0}))
	})

	It("writes a single element through the raw accessor", func() {
		inst := loadFile(pairFile)
		Expect(inst.Set(state.BlockSurfGeomR, "CHORDS", state.Real(2.5), state.Index(1, 0))).To(Succeed())
		v, err := inst.Get(state.BlockSurfGeomR, "CHORDS", state.Slice{state.At(1), state.Span(0, 2)})
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Floats()).To(Equal([]float64{2.5, 0.5}))

		_, err = inst.Get("SURF_GEOM_R", "NOPE", nil)
		Expect(err).To(MatchError(state.ErrUnknownVariable))
		err = inst.Set(state.BlockSurfGeomR, "CHORDS", state.Reals(1, 2, 3), state.Slice{state.At(0), state.Span(0, 2)})
		Expect(err).To(MatchError(state.ErrShapeMismatch))
	})

	It("rejects writes to mirrored surfaces", func() {
		inst := loadFile(aircraftFile)
		err := inst.SetSurfaceParam("wing (YDUP)", "chords", state.Reals(1, 1, 1))
		Expect(err).To(MatchError(solver.ErrNotIndependentlySettable))
		_, err = inst.SurfaceParam("tail (YDUP)", "angle")
		Expect(err).To(MatchError(solver.ErrNotIndependentlySettable))
		_, err = inst.SurfaceParam("canard", "angle")
		Expect(err).To(MatchError(solver.ErrUnknownEntity))
	})

	It("reads control attachments by section", func() {
		inst := loadFile(aircraftFile)
		v, err := inst.ControlParam("wing", 1, "xhinged")
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Floats()).To(Equal([]float64{0.75}))

		Expect(inst.SetControlParam("wing", 1, "gaind", state.Reals(2))).To(Succeed())
		v, err = inst.ControlParam("wing", 1, "gaind")
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Float()).To(Equal(2.0))
	})

	It("zeroes attachments exposed by a larger count", func() {
		inst := loadFile(aircraftFile)
		Expect(inst.SetAttachmentCount("wing", 1, 0, true)).To(Succeed())
		Expect(inst.SetAttachmentCount("wing", 1, 1, true)).To(Succeed())
		for _, key := range []string{"xhinged", "gaind", "refld"} {
			v, err := inst.ControlParam("wing", 1, key)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.Floats()).To(Equal([]float64{0}), key)
		}
		v, err := inst.ControlParam("wing", 1, "vhinged")
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Floats()).To(Equal([]float64{0, 0, 0}))
	})

	It("remaps a surface after its section count changes", func() {
		inst := loadFile(aircraftFile)
		Expect(inst.ResizeSections("wing", 4)).To(Succeed())
		n, err := inst.NumSections("wing (YDUP)")
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(4))

		v, err := inst.SurfaceParam("wing", "chords")
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Floats()).To(Equal([]float64{1.5, 1.3, 0.8, 0}))

		Expect(inst.SetSurfaceParam("wing", "chords", state.Reals(1.5, 1.3, 0.8, 0.4))).To(Succeed())
		Expect(inst.SetSurfaceParam("wing", "yles", state.Reals(0, 2, 5, 6))).To(Succeed())
		Expect(inst.Execute()).To(Succeed())
		strips, _ := inst.MeshSize()
		Expect(strips).To(Equal(3 + 3 + 1 + 1))
	})
})

var _ = Describe("Execute", func() {
	It("produces bit-identical results when repeated", func() {
		inst := loadFile(aircraftFile)
		Expect(inst.SetConstraint("alpha", 4)).To(Succeed())
		Expect(inst.Execute()).To(Succeed())
		first := inst.Arena().Primal().Clone()
		Expect(inst.Execute()).To(Succeed())
		Expect(inst.Arena().Primal().Equal(first)).To(BeTrue())
	})

	It("trims alpha to a lift target", func() {
		inst := loadFile(aircraftFile)
		Expect(inst.SetTrimTarget("alpha", "CL", 0.8)).To(Succeed())
		Expect(inst.Execute()).To(Succeed())
		f, err := inst.TotalForces()
		Expect(err).NotTo(HaveOccurred())
		Expect(f["CL"]).To(BeNumerically("~", 0.8, 1e-4))

		alpha, err := inst.Constraint("alpha")
		Expect(err).NotTo(HaveOccurred())
		Expect(alpha).To(BeNumerically(">", 0))
	})

	It("marks results stale after a mutation", func() {
		inst := loadFile(aircraftFile)
		Expect(inst.Execute()).To(Succeed())
		Expect(inst.SetParameter("CD0", 0.02)).To(Succeed())
		_, err := inst.TotalForces()
		Expect(err).To(MatchError(solver.ErrNotSolved))
	})

	It("keeps instances independent", func() {
		a := loadFile(aircraftFile)
		b := loadFile(aircraftFile)
		Expect(a.ID()).NotTo(Equal(b.ID()))
		Expect(&a.Arena().Primal().Raw(state.Chords)[0]).NotTo(BeIdenticalTo(&b.Arena().Primal().Raw(state.Chords)[0]))

		Expect(a.SetConstraint("alpha", 5)).To(Succeed())
		Expect(b.SetConstraint("alpha", -2)).To(Succeed())
		Expect(a.Execute()).To(Succeed())
		Expect(b.Execute()).To(Succeed())
		fa, _ := a.TotalForces()
		fb, _ := b.TotalForces()
		Expect(fa["CL"]).To(BeNumerically(">", 0))
		Expect(fb["CL"]).To(BeNumerically("<", fa["CL"]))
	})
})

var _ = Describe("Export", func() {
	It("round-trips a description", func() {
		desc := decodeFile(aircraftFile)
		inst, err := solver.Load(desc, options())
		Expect(err).NotTo(HaveOccurred())
		exported, err := inst.Export()
		Expect(err).NotTo(HaveOccurred())

		want := *desc
		want.Normalize()
		var got, expect bytes.Buffer
		Expect(geom.Encode(&got, exported)).To(Succeed())
		Expect(geom.Encode(&expect, &want)).To(Succeed())
		Expect(got.String()).To(Equal(expect.String()))

		again, err := solver.Load(exported, options())
		Expect(err).NotTo(HaveOccurred())
		Expect(again.Arena().Primal().Equal(inst.Arena().Primal())).To(BeTrue())
	})

	It("exports edits made through the accessors", func() {
		inst := loadFile(pairFile)
		Expect(inst.SetSurfaceParam("B", "angle", state.Real(1.5))).To(Succeed())
		exported, err := inst.Export()
		Expect(err).NotTo(HaveOccurred())
		b, ok := exported.Surfaces.Get("B")
		Expect(ok).To(BeTrue())
		Expect(*b.Angle).To(Equal(1.5))
	})
})

var _ = Describe("Propagation", func() {
	var (
		inst *solver.Instance
		rng  *rand.Rand
	)

	BeforeEach(func() {
		inst = loadFile(aircraftFile)
		Expect(inst.SetConstraint("alpha", 3)).To(Succeed())
		Expect(inst.SetConstraint("flap", 2)).To(Succeed())
		Expect(inst.Execute()).To(Succeed())
		rng = rand.New(rand.NewPCG(17, 29))
	})

	It("satisfies the dot-product identity", func() {
		u := randomInputs(inst, rng)
		v := randomOutputs(inst, rng)
		ydot, err := inst.ForwardJacVec(u)
		Expect(err).NotTo(HaveOccurred())
		xbar, err := inst.ReverseJacVec(v)
		Expect(err).NotTo(HaveOccurred())

		lhs, rhs := ydot.Dot(v), u.Dot(xbar)
		Expect(rhs).To(BeNumerically("~", lhs, 1e-9*math.Max(1, math.Abs(lhs))))
		Expect(seedsAreZero(inst)).To(BeTrue())
	})

	It("agrees with finite differences", func() {
		u := randomInputs(inst, rng)
		tan, err := inst.ForwardJacVec(u)
		Expect(err).NotTo(HaveOccurred())
		fd, err := inst.ForwardFD(u, 1e-7)
		Expect(err).NotTo(HaveOccurred())

		for name, x := range tan.Funcs {
			Expect(fd.Funcs[name]).To(BeNumerically("~", x, 1e-4*math.Max(1, math.Abs(x))), name)
		}
		for name, x := range tan.StabDerivs {
			Expect(fd.StabDerivs[name]).To(BeNumerically("~", x, 1e-4*math.Max(1, math.Abs(x))), name)
		}
		for k, x := range tan.Res {
			Expect(fd.Res[k]).To(BeNumerically("~", x, 1e-4*math.Max(1, math.Abs(x))))
		}
		Expect(inst.Solved()).To(BeTrue())
		Expect(seedsAreZero(inst)).To(BeTrue())
	})

	It("ignores forward seeds left from an earlier call", func() {
		u := solver.InputSeeds{Gradient: solver.Gradient{Constraints: map[string]float64{"alpha": 1}}}
		clean, err := inst.ForwardFD(u, 1e-7)
		Expect(err).NotTo(HaveOccurred())

		stray := solver.InputSeeds{Gradient: solver.Gradient{Reference: map[string]float64{"Sref": 1}}}
		Expect(inst.SetInputSeeds(state.Forward, stray)).To(Succeed())
		again, err := inst.ForwardFD(u, 1e-7)
		Expect(err).NotTo(HaveOccurred())
		Expect(again.Funcs).To(Equal(clean.Funcs))
		Expect(seedsAreZero(inst)).To(BeTrue())
	})

	It("approximates the reverse product by finite differences", func() {
		v := randomOutputs(inst, rng)
		v.ResU, v.ResD = nil, nil
		xbar, err := inst.ReverseJacVec(v)
		Expect(err).NotTo(HaveOccurred())
		fd, err := inst.ReverseFD(v, 1e-7)
		Expect(err).NotTo(HaveOccurred())

		near := func(x float64) OmegaMatcher {
			return BeNumerically("~", x, 1e-4*math.Max(1, math.Abs(x)))
		}
		for _, group := range [][2]map[string]float64{
			{xbar.Constraints, fd.Constraints},
			{xbar.Parameters, fd.Parameters},
			{xbar.Reference, fd.Reference},
		} {
			Expect(group[1]).To(HaveLen(len(group[0])))
			for name, x := range group[0] {
				Expect(group[1][name]).To(near(x), name)
			}
		}
		for surf, keys := range xbar.Geometry {
			for key, val := range keys {
				got := fd.Geometry[surf][key].Floats()
				Expect(got).To(HaveLen(val.Len()), surf+" "+key)
				for k, x := range val.Floats() {
					Expect(got[k]).To(near(x), surf+" "+key)
				}
			}
		}
		Expect(inst.Solved()).To(BeTrue())
		Expect(seedsAreZero(inst)).To(BeTrue())
	})

	It("fails on a degenerate reference without touching the seeds", func() {
		Expect(inst.SetReference("Sref", 0)).To(Succeed())
		_, err := inst.ForwardJacVec(randomInputs(inst, rng))
		Expect(err).To(HaveOccurred())
		Expect(seedsAreZero(inst)).To(BeTrue())
	})

	It("rejects seeds on non-differentiable attributes and clears partial writes", func() {
		in := solver.InputSeeds{Gradient: solver.Gradient{
			Constraints: map[string]float64{"alpha": 1},
			Geometry: map[string]map[string]state.Value{
				"wing": {"nchordwise": state.Int(1)},
			},
		}}
		_, err := inst.ForwardJacVec(in)
		Expect(err).To(MatchError(state.ErrNotDifferentiable))
		Expect(seedsAreZero(inst)).To(BeTrue())
	})
})

var _ = Describe("Sensitivities", func() {
	var inst *solver.Instance

	BeforeEach(func() {
		inst = loadFile(aircraftFile)
		Expect(inst.SetConstraint("alpha", 3)).To(Succeed())
		Expect(inst.SetConstraint("flap", 2)).To(Succeed())
	})

	It("requires a primal solve", func() {
		_, err := inst.Sensitivities(solver.Request{Funcs: []string{"CL"}})
		Expect(err).To(MatchError(solver.ErrAdjointPrecondition))
	})

	It("matches the stored stability and control derivatives", func() {
		Expect(inst.Execute()).To(Succeed())
		res, err := inst.Sensitivities(solver.Request{Funcs: []string{"CL", "CM"}})
		Expect(err).NotTo(HaveOccurred())
		stab, err := inst.StabilityDerivs()
		Expect(err).NotTo(HaveOccurred())
		ctrl, err := inst.ControlDerivs()
		Expect(err).NotTo(HaveOccurred())

		const deg = math.Pi / 180
		for _, fn := range []string{"CL", "CM"} {
			Expect(res[fn].Constraints["alpha"]).To(BeNumerically("~", deg*stab[solver.StabDerivName(fn, "alpha")], 1e-8))
			Expect(res[fn].Constraints["flap"]).To(BeNumerically("~", ctrl[solver.StabDerivName(fn, "flap")], 1e-8))
		}
	})

	It("matches a finite difference of the solved lift", func() {
		Expect(inst.Execute()).To(Succeed())
		res, err := inst.Sensitivities(solver.Request{Funcs: []string{"CL", "CD"}})
		Expect(err).NotTo(HaveOccurred())

		lift := func(chord float64) map[string]float64 {
			Expect(inst.SetSurfaceParam("wing", "chords", state.Reals(1.5, chord, 0.8))).To(Succeed())
			Expect(inst.Execute()).To(Succeed())
			f, err := inst.TotalForces()
			Expect(err).NotTo(HaveOccurred())
			return f
		}
		const h = 1e-6
		plus, minus := lift(1.3+h), lift(1.3-h)
		for _, fn := range []string{"CL", "CD"} {
			fd := (plus[fn] - minus[fn]) / (2 * h)
			adj := res[fn].Geometry["wing"]["chords"].Floats()[1]
			Expect(adj).To(BeNumerically("~", fd, 1e-5*math.Max(1, math.Abs(fd))), fn)
		}
	})

	It("computes derivatives of stability and control derivatives", func() {
		Expect(inst.Execute()).To(Succeed())
		res, err := inst.Sensitivities(solver.Request{
			StabDerivs:    []string{"dCL/dalpha", "dCD/dalpha"},
			ControlDerivs: []string{"dCL/dflap"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(HaveLen(3))
		Expect(res["dCL/dalpha"].Reference["Sref"]).To(BeNumerically("<", 0))
		Expect(res["dCD/dalpha"].Parameters["CD0"]).To(BeZero())

		_, err = inst.Sensitivities(solver.Request{StabDerivs: []string{"dCL/dflap"}})
		Expect(err).To(MatchError(solver.ErrUnknownName))
	})

	It("matches finite differences of the stored derivatives", func() {
		Expect(inst.Execute()).To(Succeed())
		names := []string{"dCL/dalpha", "dCM/dalpha", "dCL/dflap"}
		res, err := inst.Sensitivities(solver.Request{
			StabDerivs:    names[:2],
			ControlDerivs: names[2:],
		})
		Expect(err).NotTo(HaveOccurred())

		derivs := func() map[string]float64 {
			Expect(inst.Execute()).To(Succeed())
			stab, err := inst.StabilityDerivs()
			Expect(err).NotTo(HaveOccurred())
			ctrl, err := inst.ControlDerivs()
			Expect(err).NotTo(HaveOccurred())
			out := maps.Clone(stab)
			maps.Copy(out, ctrl)
			return out
		}
		central := func(set func(float64), x, h float64) map[string]float64 {
			set(x + h)
			plus := derivs()
			set(x - h)
			minus := derivs()
			set(x)
			out := make(map[string]float64, len(names))
			for _, name := range names {
				out[name] = (plus[name] - minus[name]) / (2 * h)
			}
			return out
		}

		chord := central(func(c float64) {
			Expect(inst.SetSurfaceParam("wing", "chords", state.Reals(1.5, c, 0.8))).To(Succeed())
		}, 1.3, 1e-6)
		sref := central(func(s float64) {
			Expect(inst.SetReference("Sref", s)).To(Succeed())
		}, 12, 1e-5)
		for _, name := range names {
			adj := res[name].Geometry["wing"]["chords"].Floats()[1]
			Expect(adj).To(BeNumerically("~", chord[name], 1e-5*math.Max(1, math.Abs(chord[name]))), name)
			adj = res[name].Reference["Sref"]
			Expect(adj).To(BeNumerically("~", sref[name], 1e-5*math.Max(1, math.Abs(sref[name]))), name)
		}
	})

	It("matches finite differences at a trimmed state", func() {
		Expect(inst.SetTrimTarget("alpha", "CL", 0.8)).To(Succeed())
		Expect(inst.Execute()).To(Succeed())
		trimmed, err := inst.Constraint("alpha")
		Expect(err).NotTo(HaveOccurred())
		res, err := inst.Sensitivities(solver.Request{Funcs: []string{"CD"}})
		Expect(err).NotTo(HaveOccurred())

		// Hold the trimmed incidence while perturbing.
		Expect(inst.SetConstraint("alpha", trimmed)).To(Succeed())
		drag := func() float64 {
			Expect(inst.Execute()).To(Succeed())
			f, err := inst.TotalForces()
			Expect(err).NotTo(HaveOccurred())
			return f["CD"]
		}

		const h = 1e-6
		Expect(inst.SetSurfaceParam("wing", "chords", state.Reals(1.5, 1.3+h, 0.8))).To(Succeed())
		plus := drag()
		Expect(inst.SetSurfaceParam("wing", "chords", state.Reals(1.5, 1.3-h, 0.8))).To(Succeed())
		minus := drag()
		fd := (plus - minus) / (2 * h)
		adj := res["CD"].Geometry["wing"]["chords"].Floats()[1]
		Expect(adj).To(BeNumerically("~", fd, 1e-5*math.Max(1, math.Abs(fd))))

		Expect(inst.SetSurfaceParam("wing", "chords", state.Reals(1.5, 1.3, 0.8))).To(Succeed())
		Expect(inst.SetConstraint("alpha", trimmed+h)).To(Succeed())
		plus = drag()
		Expect(inst.SetConstraint("alpha", trimmed-h)).To(Succeed())
		minus = drag()
		fd = (plus - minus) / (2 * h)
		Expect(res["CD"].Constraints["alpha"]).To(BeNumerically("~", fd, 1e-5*math.Max(1, math.Abs(fd))))
	})

	It("never leaks seeds between queries", func() {
		Expect(inst.Execute()).To(Succeed())
		Expect(seedsAreZero(inst)).To(BeTrue())
		first, err := inst.Sensitivities(solver.Request{Funcs: []string{"CL"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(seedsAreZero(inst)).To(BeTrue())
		_, err = inst.Sensitivities(solver.Request{Funcs: []string{"CD", "CR"}, StabDerivs: []string{"dCM/dbeta"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(seedsAreZero(inst)).To(BeTrue())
		again, err := inst.Sensitivities(solver.Request{Funcs: []string{"CL"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(again).To(Equal(first))
		Expect(inst.SeedNorms(state.Reverse)).To(BeEmpty())
	})

	It("counts loads and adjoint solves", func() {
		Expect(inst.Execute()).To(Succeed())
		_, err := inst.Sensitivities(solver.Request{Funcs: []string{"CL", "CD"}, ControlDerivs: []string{"dCM/dflap"}})
		Expect(err).NotTo(HaveOccurred())
		m := inst.Metrics()
		Expect(testutil.ToFloat64(m.Loads)).To(Equal(1.0))
		Expect(testutil.ToFloat64(m.AdjointSolves.WithLabelValues("func"))).To(Equal(2.0))
		Expect(testutil.ToFloat64(m.AdjointSolves.WithLabelValues("control"))).To(Equal(1.0))
		Expect(testutil.ToFloat64(m.KernelCalls.WithLabelValues("solve_adjoint", "ok"))).To(Equal(3.0))
	})
})
