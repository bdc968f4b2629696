package solver

import (
	"fmt"
	"slices"

	"github.com/san-kum/vlsens/internal/geom"
	"github.com/san-kum/vlsens/internal/kernel/refvlm"
	"github.com/san-kum/vlsens/internal/slicemap"
	"github.com/san-kum/vlsens/internal/state"
)

// countVars size entity maps; writing one rebuilds them.
var countVars = []state.Var{
	state.NSurf, state.NBody, state.NSec, state.NSCon, state.NSDes, state.NASec, state.NBPts,
}

// Get reads a named variable of the primal state.
func (i *Instance) Get(block, name string, sl state.Slice) (state.Value, error) {
	v, err := state.Resolve(block, name)
	if err != nil {
		return state.Value{}, err
	}
	return i.arena.Primal().Read(v, sl)
}

// Set writes a named variable of the primal state. Writing an entity count
// rebuilds every slice map.
func (i *Instance) Set(block, name string, val state.Value, sl state.Slice) error {
	v, err := state.Resolve(block, name)
	if err != nil {
		return err
	}
	p := i.arena.Primal()
	if err := p.Write(v, val, sl); err != nil {
		return err
	}
	i.invalidate()
	if slices.Contains(countVars, v) {
		i.maps = slicemap.Build(p)
	}
	return nil
}

func (i *Instance) read(r slicemap.Ref) (state.Value, error) {
	return i.arena.Primal().Read(r.Var, r.Slice)
}

func (i *Instance) write(r slicemap.Ref, val state.Value) error {
	if err := i.arena.Primal().Write(r.Var, val, r.Slice); err != nil {
		return err
	}
	i.invalidate()
	return nil
}

// SurfaceParam reads one geometry or paneling attribute of a surface.
func (i *Instance) SurfaceParam(surf, key string) (state.Value, error) {
	m, err := i.surfaceMap(surf)
	if err != nil {
		return state.Value{}, err
	}
	r, err := m.Attr(key)
	if err != nil {
		return state.Value{}, err
	}
	return i.read(r)
}

// SetSurfaceParam writes one geometry or paneling attribute of a surface.
// Mirrored surfaces follow their source and are rejected.
func (i *Instance) SetSurfaceParam(surf, key string, val state.Value) error {
	m, err := i.surfaceMap(surf)
	if err != nil {
		return err
	}
	r, err := m.Attr(key)
	if err != nil {
		return err
	}
	if err := i.write(r, val); err != nil {
		return fmt.Errorf("surface %q %s: %w", surf, key, err)
	}
	return nil
}

// SurfaceParams reads every geometry and paneling attribute of a surface.
func (i *Instance) SurfaceParams(surf string) (map[string]state.Value, error) {
	m, err := i.surfaceMap(surf)
	if err != nil {
		return nil, err
	}
	out := make(map[string]state.Value, len(m.Attrs))
	for key, r := range m.Attrs {
		v, err := i.read(r)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

// SectionParam reads an airfoil sample array of section j.
func (i *Instance) SectionParam(surf string, j int, key string) (state.Value, error) {
	m, err := i.surfaceMap(surf)
	if err != nil {
		return state.Value{}, err
	}
	r, err := m.Section(j, key)
	if err != nil {
		return state.Value{}, err
	}
	return i.read(r)
}

func (i *Instance) attachment(surf string, j int, key string, controls bool) (slicemap.Ref, error) {
	m, err := i.surfaceMap(surf)
	if err != nil {
		return slicemap.Ref{}, err
	}
	t := m.Designs
	if controls {
		t = m.Controls
	}
	return t.Section(key, j)
}

// ControlParam reads a control attachment attribute of section j.
func (i *Instance) ControlParam(surf string, j int, key string) (state.Value, error) {
	r, err := i.attachment(surf, j, key, true)
	if err != nil {
		return state.Value{}, err
	}
	return i.read(r)
}

// SetControlParam writes a control attachment attribute of section j.
func (i *Instance) SetControlParam(surf string, j int, key string, val state.Value) error {
	r, err := i.attachment(surf, j, key, true)
	if err != nil {
		return err
	}
	return i.write(r, val)
}

// DesignVarParam reads a design-variable attachment attribute of section j.
func (i *Instance) DesignVarParam(surf string, j int, key string) (state.Value, error) {
	r, err := i.attachment(surf, j, key, false)
	if err != nil {
		return state.Value{}, err
	}
	return i.read(r)
}

// SetDesignVarParam writes a design-variable attachment attribute of section j.
func (i *Instance) SetDesignVarParam(surf string, j int, key string, val state.Value) error {
	r, err := i.attachment(surf, j, key, false)
	if err != nil {
		return err
	}
	return i.write(r, val)
}

// BodyParam reads one attribute of a body.
func (i *Instance) BodyParam(body, key string) (state.Value, error) {
	m, err := i.bodyMap(body)
	if err != nil {
		return state.Value{}, err
	}
	r, err := m.Attr(key)
	if err != nil {
		return state.Value{}, err
	}
	return i.read(r)
}

// SetBodyParam writes one attribute of a body.
func (i *Instance) SetBodyParam(body, key string, val state.Value) error {
	m, err := i.bodyMap(body)
	if err != nil {
		return err
	}
	r, err := m.Attr(key)
	if err != nil {
		return err
	}
	return i.write(r, val)
}

// Reference reads Sref, Cref or Bref.
func (i *Instance) Reference(name string) (float64, error) {
	v, ok := referenceVars[name]
	if !ok {
		return 0, fmt.Errorf("%w: reference %q", ErrUnknownName, name)
	}
	return i.arena.Primal().Get(v), nil
}

// SetReference writes Sref, Cref or Bref.
func (i *Instance) SetReference(name string, x float64) error {
	v, ok := referenceVars[name]
	if !ok {
		return fmt.Errorf("%w: reference %q", ErrUnknownName, name)
	}
	i.arena.Primal().Set(v, x)
	i.invalidate()
	return nil
}

// Parameter reads a run-case parameter by name.
func (i *Instance) Parameter(name string) (float64, error) {
	k, err := parameterIndex(name)
	if err != nil {
		return 0, err
	}
	return i.arena.Primal().Get(state.ParVal, k), nil
}

// SetParameter writes a run-case parameter by name.
func (i *Instance) SetParameter(name string, x float64) error {
	k, err := parameterIndex(name)
	if err != nil {
		return err
	}
	i.arena.Primal().Set(state.ParVal, x, k)
	i.invalidate()
	return nil
}

// Constraint reads the value of a freestream variable or control deflection.
func (i *Instance) Constraint(name string) (float64, error) {
	k, err := i.constraintSlot(name)
	if err != nil {
		return 0, err
	}
	return i.arena.Primal().Get(state.ConVal, k), nil
}

// SetConstraint fixes a freestream variable or control deflection, dropping
// any trim target on it.
func (i *Instance) SetConstraint(name string, x float64) error {
	k, err := i.constraintSlot(name)
	if err != nil {
		return err
	}
	p := i.arena.Primal()
	p.Set(state.ConVal, x, k)
	p.Set(state.ConTarget, refvlm.TargetNone, k)
	i.invalidate()
	return nil
}

var trimOutputs = map[string]int{
	"CL": refvlm.TargetCL,
	"CM": refvlm.TargetCM,
	"CR": refvlm.TargetCR,
}

// SetTrimTarget lets the solve drive constraint name until output (CL, CM
// or CR) equals value.
func (i *Instance) SetTrimTarget(name, output string, value float64) error {
	k, err := i.constraintSlot(name)
	if err != nil {
		return err
	}
	code, ok := trimOutputs[output]
	if !ok {
		return fmt.Errorf("%w: trim output %q", ErrUnknownName, output)
	}
	p := i.arena.Primal()
	p.Set(state.ConTarget, float64(code), k)
	p.Set(state.ConTargetVal, value, k)
	i.invalidate()
	return nil
}

// sectionVars are the per-section variables of a surface reset when
// sections are added.
var sectionVars = []state.Var{
	state.XYZLES, state.Chords, state.AIncs, state.CLAF, state.CLCDSec, state.NSpans, state.SSpaces,
	state.XFMinMax, state.NSCon, state.NSDes, state.NASec, state.NRawAf,
}

// ResizeSections changes the section count of a surface and its image.
// Added sections are zero except for claf = 1 and xfminmax = [0, 1]; their
// geometry must be written before the next evaluation.
func (i *Instance) ResizeSections(surf string, n int) error {
	m, err := i.surfaceMap(surf)
	if err != nil {
		return err
	}
	if n < 2 || n > state.NSECMAX {
		return fmt.Errorf("%w: %d sections, need 2 to %d", geom.ErrSizeMismatch, n, state.NSECMAX)
	}
	p := i.arena.Primal()
	isurf := m.Index
	for j := m.NumSections; j < n; j++ {
		for _, v := range sectionVars {
			d := state.Lookup(v)
			zero := state.Real(0)
			if d.Kind == state.KindInt {
				zero = state.Int(0)
			}
			if err := p.Fill(v, zero, state.Index(isurf, j)); err != nil {
				return err
			}
		}
		p.Set(state.CLAF, 1, isurf, j)
		p.Set(state.XFMinMax, 1, isurf, j, 1)
	}
	p.Set(state.NSec, float64(n), isurf)
	if p.GetBool(state.LDupl, isurf) {
		p.Set(state.NSec, float64(n), isurf+1)
	}
	if _, err := i.maps.RebuildSurface(p, surf); err != nil {
		return err
	}
	i.invalidate()
	return nil
}

var (
	controlAttachVars = []state.Var{state.IContD, state.XHinged, state.VHinged, state.GainD, state.RefLD}
	designAttachVars  = []state.Var{state.IDesTD, state.GainG}
)

// SetAttachmentCount changes the number of control (or design-variable)
// attachments of section j. Attachments exposed by a larger count start zeroed.
func (i *Instance) SetAttachmentCount(surf string, j, n int, controls bool) error {
	m, err := i.surfaceMap(surf)
	if err != nil {
		return err
	}
	if j < 0 || j >= m.NumSections {
		return fmt.Errorf("%w: section %d of %d", state.ErrSliceBounds, j, m.NumSections)
	}
	if n < 0 || n > state.ICONX {
		return fmt.Errorf("%w: %d attachments, limit %d", geom.ErrCapacityExceeded, n, state.ICONX)
	}
	count, attached := state.NSDes, designAttachVars
	if controls {
		count, attached = state.NSCon, controlAttachVars
	}
	p := i.arena.Primal()
	if old := p.GetInt(count, m.Index, j); n > old {
		for _, v := range attached {
			zero := state.Real(0)
			if state.Lookup(v).Kind == state.KindInt {
				zero = state.Int(0)
			}
			sl := state.Slice{state.At(m.Index), state.At(j), state.Span(old, n)}
			if err := p.Fill(v, zero, sl); err != nil {
				return err
			}
		}
	}
	p.Set(count, float64(n), m.Index, j)
	if _, err := i.maps.RebuildSurface(p, surf); err != nil {
		return err
	}
	i.invalidate()
	return nil
}

// SurfaceNames lists surfaces in kernel order. With unique set, mirrored
// images are left out.
func (i *Instance) SurfaceNames(unique bool) []string { return i.maps.SurfaceNames(unique) }

// BodyNames lists bodies in kernel order.
func (i *Instance) BodyNames(unique bool) []string { return i.maps.BodyNames(unique) }

// ControlNames lists the control variables in CONVAL order.
func (i *Instance) ControlNames() []string {
	return i.names(state.ControlName, state.NControl)
}

// DesignVarNames lists the design variables.
func (i *Instance) DesignVarNames() []string {
	return i.names(state.DesignName, state.NDesign)
}

func (i *Instance) names(v, count state.Var) []string {
	p := i.arena.Primal()
	n := p.GetInt(count)
	out := make([]string, n)
	for k := range out {
		out[k] = p.GetString(v, k)
	}
	return out
}

// Title is the configuration title.
func (i *Instance) Title() string { return i.arena.Primal().GetString(state.Title) }

// NumSurfaces is the number of surfaces including images.
func (i *Instance) NumSurfaces() int { return i.arena.Primal().GetInt(state.NSurf) }

// NumControls is the number of control variables.
func (i *Instance) NumControls() int { return i.arena.Primal().GetInt(state.NControl) }

// NumSections returns the section count of any surface, images included.
func (i *Instance) NumSections(surf string) (int, error) {
	k, ok := i.maps.SurfaceIndex(surf)
	if !ok {
		return 0, fmt.Errorf("%w: surface %q", ErrUnknownEntity, surf)
	}
	return i.arena.Primal().GetInt(state.NSec, k), nil
}

// MeshSize reports the strip and vortex counts of the current layout.
func (i *Instance) MeshSize() (strips, vortices int) {
	p := i.arena.Primal()
	return p.GetInt(state.NStrip), p.GetInt(state.NVor)
}
