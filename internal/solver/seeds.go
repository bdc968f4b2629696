package solver

import (
	"fmt"
	"maps"
	"slices"

	"github.com/san-kum/vlsens/internal/slicemap"
	"github.com/san-kum/vlsens/internal/state"
	"gonum.org/v1/gonum/floats"
)

// Gradient holds one value per differentiable input, grouped by category:
// constraint names, surface geometry keys, parameter names and reference
// quantities.
type Gradient struct {
	Constraints map[string]float64
	Geometry    map[string]map[string]state.Value
	Parameters  map[string]float64
	Reference   map[string]float64
}

// InputSeeds are the seeds of every kernel input: the user-facing
// categories plus the circulations and their freestream and control partials.
type InputSeeds struct {
	Gradient
	Gamma  []float64
	GammaU [][]float64
	GammaD [][]float64
}

// OutputSeeds are the seeds of every kernel output: coefficients, their
// derivatives and the residuals.
type OutputSeeds struct {
	Funcs         map[string]float64
	StabDerivs    map[string]float64
	ControlDerivs map[string]float64
	Res           []float64
	ResU          [][]float64
	ResD          [][]float64
}

// Result maps each requested output to its total derivative.
type Result map[string]Gradient

func vortexRows(rows [][]float64, max int, v state.Var) error {
	if len(rows) > max {
		return fmt.Errorf("%s: %w: %d rows, limit %d", v, state.ErrShapeMismatch, len(rows), max)
	}
	return nil
}

// seedOp writes or accumulates into a seed store.
type seedOp struct {
	st    *state.Store
	acc   bool
	scale float64
}

func (o seedOp) put(v state.Var, val state.Value, sl state.Slice) error {
	if o.acc {
		return o.st.Accumulate(v, val, sl, o.scale)
	}
	if o.scale != 1 {
		val = val.Scaled(o.scale)
	}
	return o.st.Write(v, val, sl)
}

func (o seedOp) vector(v state.Var, xs []float64) error {
	if len(xs) == 0 {
		return nil
	}
	return o.put(v, state.Reals(xs...), state.Slice{state.Span(0, len(xs))})
}

func (o seedOp) rows(v state.Var, rows [][]float64, max int) error {
	if err := vortexRows(rows, max, v); err != nil {
		return err
	}
	for k, row := range rows {
		if len(row) == 0 {
			continue
		}
		if err := o.put(v, state.Reals(row...), state.Slice{state.At(k), state.Span(0, len(row))}); err != nil {
			return err
		}
	}
	return nil
}

func (i *Instance) putGradient(o seedOp, g Gradient) error {
	for name, x := range g.Constraints {
		k, err := i.constraintSlot(name)
		if err != nil {
			return err
		}
		if err := o.put(state.ConVal, state.Real(x), state.Index(k)); err != nil {
			return err
		}
	}
	for surf, keys := range g.Geometry {
		m, err := i.surfaceMap(surf)
		if err != nil {
			return err
		}
		for key, val := range keys {
			r, err := m.Attr(key)
			if err != nil {
				return err
			}
			if err := o.put(r.Var, val, r.Slice); err != nil {
				return fmt.Errorf("surface %q %s: %w", surf, key, err)
			}
		}
	}
	for name, x := range g.Parameters {
		k, err := parameterIndex(name)
		if err != nil {
			return err
		}
		if err := o.put(state.ParVal, state.Real(x), state.Index(k)); err != nil {
			return err
		}
	}
	for name, x := range g.Reference {
		v, ok := referenceVars[name]
		if !ok {
			return fmt.Errorf("%w: reference %q", ErrUnknownName, name)
		}
		if err := o.put(v, state.Real(x), nil); err != nil {
			return err
		}
	}
	return nil
}

func (i *Instance) putInputs(o seedOp, in InputSeeds) error {
	if err := i.putGradient(o, in.Gradient); err != nil {
		return err
	}
	if err := o.vector(state.Gam, in.Gamma); err != nil {
		return err
	}
	if err := o.rows(state.GamU, in.GammaU, state.NUMAX); err != nil {
		return err
	}
	return o.rows(state.GamD, in.GammaD, state.NDMAX)
}

func (i *Instance) putOutputs(o seedOp, out OutputSeeds) error {
	for name, x := range out.Funcs {
		v, ok := funcVars[name]
		if !ok {
			return fmt.Errorf("%w: function %q", ErrUnknownName, name)
		}
		if err := o.put(v, state.Real(x), nil); err != nil {
			return err
		}
	}
	for _, derivs := range []map[string]float64{out.StabDerivs, out.ControlDerivs} {
		for name, x := range derivs {
			v, sl, _, err := i.derivRef(name)
			if err != nil {
				return err
			}
			if err := o.put(v, state.Real(x), sl); err != nil {
				return err
			}
		}
	}
	if err := o.vector(state.Res, out.Res); err != nil {
		return err
	}
	if err := o.rows(state.ResU, out.ResU, state.NUMAX); err != nil {
		return err
	}
	return o.rows(state.ResD, out.ResD, state.NDMAX)
}

// SetInputSeeds overwrites the given input seeds of one direction. Seeds not
// named in in are left as they are.
func (i *Instance) SetInputSeeds(dir state.Direction, in InputSeeds) error {
	return i.putInputs(seedOp{st: i.arena.Seeds(dir), scale: 1}, in)
}

// AccumulateInputSeeds adds scale times in to the input seeds of one direction.
func (i *Instance) AccumulateInputSeeds(dir state.Direction, in InputSeeds, scale float64) error {
	return i.putInputs(seedOp{st: i.arena.Seeds(dir), acc: true, scale: scale}, in)
}

// SetOutputSeeds overwrites the given output seeds of one direction.
func (i *Instance) SetOutputSeeds(dir state.Direction, out OutputSeeds) error {
	return i.putOutputs(seedOp{st: i.arena.Seeds(dir), scale: 1}, out)
}

// AccumulateOutputSeeds adds scale times out to the output seeds of one direction.
func (i *Instance) AccumulateOutputSeeds(dir state.Direction, out OutputSeeds, scale float64) error {
	return i.putOutputs(seedOp{st: i.arena.Seeds(dir), acc: true, scale: scale}, out)
}

func (i *Instance) vortexSpan() state.Range { return state.Span(0, i.arena.Primal().GetInt(state.NVor)) }

func (i *Instance) getVector(r *reader, v state.Var) []float64 {
	return r.get(v, state.Slice{i.vortexSpan()}).Floats()
}

func (i *Instance) getRows(r *reader, v state.Var, n int) [][]float64 {
	out := make([][]float64, n)
	for k := range out {
		out[k] = r.get(v, state.Slice{state.At(k), i.vortexSpan()}).Floats()
	}
	return out
}

func (i *Instance) getGradient(r *reader) Gradient {
	g := Gradient{
		Constraints: make(map[string]float64),
		Geometry:    make(map[string]map[string]state.Value),
		Parameters:  make(map[string]float64),
		Reference:   make(map[string]float64),
	}
	for k, name := range i.ConstraintNames() {
		g.Constraints[name] = r.get(state.ConVal, state.Index(k)).Float()
	}
	for _, surf := range i.SurfaceNames(true) {
		m, err := i.surfaceMap(surf)
		if err != nil {
			r.err = err
			return g
		}
		keys := make(map[string]state.Value, len(slicemap.SurfaceGeomKeys))
		for _, key := range slicemap.SurfaceGeomKeys {
			keys[key] = r.attr(m, key)
		}
		g.Geometry[surf] = keys
	}
	for k, name := range ParameterNames {
		g.Parameters[name] = r.get(state.ParVal, state.Index(k)).Float()
	}
	for name, v := range referenceVars {
		g.Reference[name] = r.get(v, nil).Float()
	}
	return g
}

func (i *Instance) getInputs(st *state.Store) (InputSeeds, error) {
	r := &reader{st: st}
	in := InputSeeds{
		Gradient: i.getGradient(r),
		Gamma:    i.getVector(r, state.Gam),
		GammaU:   i.getRows(r, state.GamU, state.NUMAX),
		GammaD:   i.getRows(r, state.GamD, i.NumControls()),
	}
	return in, r.err
}

func (i *Instance) getOutputs(st *state.Store) (OutputSeeds, error) {
	r := &reader{st: st}
	out := OutputSeeds{
		Funcs:         make(map[string]float64, len(FuncNames)),
		StabDerivs:    make(map[string]float64),
		ControlDerivs: make(map[string]float64),
	}
	for _, fn := range FuncNames {
		out.Funcs[fn] = r.get(funcVars[fn], nil).Float()
	}
	for _, name := range StabDerivNames() {
		v, sl, _, _ := i.derivRef(name)
		out.StabDerivs[name] = r.get(v, sl).Float()
	}
	for _, name := range i.ControlDerivNames() {
		v, sl, _, _ := i.derivRef(name)
		out.ControlDerivs[name] = r.get(v, sl).Float()
	}
	out.Res = i.getVector(r, state.Res)
	out.ResU = i.getRows(r, state.ResU, state.NUMAX)
	out.ResD = i.getRows(r, state.ResD, i.NumControls())
	return out, r.err
}

// InputSeeds reads every input seed of one direction.
func (i *Instance) InputSeeds(dir state.Direction) (InputSeeds, error) {
	return i.getInputs(i.arena.Seeds(dir))
}

// OutputSeeds reads every output seed of one direction.
func (i *Instance) OutputSeeds(dir state.Direction) (OutputSeeds, error) {
	return i.getOutputs(i.arena.Seeds(dir))
}

// ClearSeeds zeroes every seed of one direction.
func (i *Instance) ClearSeeds(dir state.Direction) {
	i.arena.Seeds(dir).Clear()
	i.metrics.SeedClears.WithLabelValues(dir.String()).Inc()
}

// SeedNorms returns the 2-norm of every non-zero seed variable of one
// direction, keyed by block and name.
func (i *Instance) SeedNorms(dir state.Direction) map[string]float64 {
	st := i.arena.Seeds(dir)
	out := make(map[string]float64)
	for _, v := range st.NonZero() {
		out[v.String()] = floats.Norm(st.Raw(v), 2)
	}
	return out
}

func dotValues(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	return floats.Dot(a, b)
}

func dotRows(a, b [][]float64) float64 {
	var sum float64
	for k := 0; k < min(len(a), len(b)); k++ {
		sum += dotValues(a[k], b[k])
	}
	return sum
}

func dotMaps(a, b map[string]float64) float64 {
	var sum float64
	for k, x := range a {
		sum += x * b[k]
	}
	return sum
}

// Dot is the inner product of two gradients over the entries both hold.
func (g Gradient) Dot(o Gradient) float64 {
	sum := dotMaps(g.Constraints, o.Constraints) + dotMaps(g.Parameters, o.Parameters) +
		dotMaps(g.Reference, o.Reference)
	for surf, keys := range g.Geometry {
		for key, v := range keys {
			if w, ok := o.Geometry[surf][key]; ok {
				sum += dotValues(v.Floats(), w.Floats())
			}
		}
	}
	return sum
}

// Dot is the inner product of two sets of input seeds.
func (s InputSeeds) Dot(o InputSeeds) float64 {
	return s.Gradient.Dot(o.Gradient) + dotValues(s.Gamma, o.Gamma) +
		dotRows(s.GammaU, o.GammaU) + dotRows(s.GammaD, o.GammaD)
}

// Dot is the inner product of two sets of output seeds.
func (s OutputSeeds) Dot(o OutputSeeds) float64 {
	return dotMaps(s.Funcs, o.Funcs) + dotMaps(s.StabDerivs, o.StabDerivs) +
		dotMaps(s.ControlDerivs, o.ControlDerivs) + dotValues(s.Res, o.Res) +
		dotRows(s.ResU, o.ResU) + dotRows(s.ResD, o.ResD)
}

// Names lists the surfaces of a geometry gradient in sorted order.
func (g Gradient) Names() []string {
	return slices.Sorted(maps.Keys(g.Geometry))
}
