package solver_test

import (
	"io"
	"log/slog"
	"math/rand/v2"

	. "github.com/onsi/gomega"
	"github.com/san-kum/vlsens/internal/geom"
	"github.com/san-kum/vlsens/internal/solver"
	"github.com/san-kum/vlsens/internal/state"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func options() solver.Options {
	return solver.Options{Logger: quiet}
}

func loadFile(path string) *solver.Instance {
	inst, err := solver.LoadFile(path, options())
	Expect(err).NotTo(HaveOccurred())
	return inst
}

func decodeFile(path string) *geom.Aircraft {
	a, err := geom.LoadFile(path)
	Expect(err).NotTo(HaveOccurred())
	return a
}

func noise(rng *rand.Rand) float64 { return rng.Float64() - 0.5 }

func noiseSlice(rng *rand.Rand, xs []float64) []float64 {
	out := make([]float64, len(xs))
	for k := range out {
		out[k] = noise(rng)
	}
	return out
}

func noiseRows(rng *rand.Rand, rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for k, r := range rows {
		out[k] = noiseSlice(rng, r)
	}
	return out
}

func noiseMap(rng *rand.Rand, m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k := range m {
		out[k] = noise(rng)
	}
	return out
}

// randomInputs returns input seeds with the layout of inst filled with noise.
func randomInputs(inst *solver.Instance, rng *rand.Rand) solver.InputSeeds {
	tmpl, err := inst.InputSeeds(state.Forward)
	Expect(err).NotTo(HaveOccurred())
	in := solver.InputSeeds{
		Gradient: solver.Gradient{
			Constraints: noiseMap(rng, tmpl.Constraints),
			Parameters:  noiseMap(rng, tmpl.Parameters),
			Reference:   noiseMap(rng, tmpl.Reference),
			Geometry:    make(map[string]map[string]state.Value),
		},
		Gamma:  noiseSlice(rng, tmpl.Gamma),
		GammaU: noiseRows(rng, tmpl.GammaU),
		GammaD: noiseRows(rng, tmpl.GammaD),
	}
	for surf, keys := range tmpl.Geometry {
		in.Geometry[surf] = make(map[string]state.Value, len(keys))
		for key, v := range keys {
			val, err := state.RealArray(v.Shape(), noiseSlice(rng, v.Floats()))
			Expect(err).NotTo(HaveOccurred())
			in.Geometry[surf][key] = val
		}
	}
	return in
}

// randomOutputs returns output seeds with the layout of inst filled with noise.
func randomOutputs(inst *solver.Instance, rng *rand.Rand) solver.OutputSeeds {
	tmpl, err := inst.OutputSeeds(state.Reverse)
	Expect(err).NotTo(HaveOccurred())
	return solver.OutputSeeds{
		Funcs:         noiseMap(rng, tmpl.Funcs),
		StabDerivs:    noiseMap(rng, tmpl.StabDerivs),
		ControlDerivs: noiseMap(rng, tmpl.ControlDerivs),
		Res:           noiseSlice(rng, tmpl.Res),
		ResU:          noiseRows(rng, tmpl.ResU),
		ResD:          noiseRows(rng, tmpl.ResD),
	}
}

func seedsAreZero(inst *solver.Instance) bool {
	a := inst.Arena()
	return a.Seeds(state.Forward).IsZero() && a.Seeds(state.Reverse).IsZero()
}
