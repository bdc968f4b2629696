package solver

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/san-kum/vlsens/internal/geom"
	"github.com/san-kum/vlsens/internal/slicemap"
	"github.com/san-kum/vlsens/internal/state"
)

// plan holds everything resolved from outside the description before the
// arena is touched.
type plan struct {
	airfoils [][]geom.SectionAirfoil
	outlines [][2][]float64
}

// normalized returns a defaulted copy of desc; desc itself is not modified.
func normalized(desc *geom.Aircraft) *geom.Aircraft {
	c := *desc
	c.Surfaces = slices.Clone(desc.Surfaces)
	c.Bodies = slices.Clone(desc.Bodies)
	c.Normalize()
	return &c
}

func (i *Instance) load(desc *geom.Aircraft) error {
	rep, err := geom.Validate(desc)
	if rep != nil {
		rep.Log(i.log)
	}
	if err != nil {
		return err
	}
	d := normalized(desc)
	pl, err := i.resolve(d)
	if err != nil {
		return err
	}
	if err := i.populate(d, pl); err != nil {
		return err
	}
	if err := i.postCheck(d); err != nil {
		return err
	}
	i.maps = slicemap.Build(i.arena.Primal())
	i.desc = d
	nsurf, nbody := d.Counts()
	i.report = &LoadReport{Warnings: rep.Warnings, Surfaces: nsurf, Bodies: nbody}
	i.metrics.Loads.Inc()
	i.log.Info("geometry loaded",
		slog.String("title", d.Title),
		slog.Int("surfaces", nsurf),
		slog.Int("bodies", nbody),
		slog.Int("warnings", len(rep.Warnings)))
	return nil
}

// resolve computes airfoil samples and reads body outlines.
func (i *Instance) resolve(d *geom.Aircraft) (*plan, error) {
	pl := &plan{}
	for _, e := range d.Surfaces {
		s := e.Value
		afs, err := geom.ResolveAirfoils(&s, i.opts.Reader)
		if err != nil {
			return nil, fmt.Errorf("surface %q: %w", e.Name, err)
		}
		pl.airfoils = append(pl.airfoils, afs)
	}
	for _, e := range d.Bodies {
		b := e.Value
		if b.BodyOML != nil {
			pl.outlines = append(pl.outlines, [2][]float64{b.BodyOML[0], b.BodyOML[1]})
			continue
		}
		x, y, err := i.opts.Reader.ReadCoordinates(b.BFile)
		if err != nil {
			return nil, fmt.Errorf("body %q: %w", e.Name, err)
		}
		if len(x) > state.IBX {
			return nil, fmt.Errorf("body %q: %w: %d outline points", e.Name, geom.ErrCapacityExceeded, len(x))
		}
		pl.outlines = append(pl.outlines, [2][]float64{x, y})
	}
	return pl, nil
}

// writer writes through the typed accessor and keeps the first error.
type writer struct {
	st  *state.Store
	err error
}

func (w *writer) put(v state.Var, val state.Value, sl state.Slice) {
	if w.err == nil {
		w.err = w.st.Write(v, val, sl)
	}
}

func (w *writer) ref(r slicemap.Ref, val state.Value) { w.put(r.Var, val, r.Slice) }

func (w *writer) refErr(r slicemap.Ref, val state.Value, err error) {
	if w.err == nil && err != nil {
		w.err = err
		return
	}
	w.ref(r, val)
}

func (w *writer) attr(m *slicemap.SurfaceMap, key string, val state.Value) {
	r, err := m.Attr(key)
	if err != nil {
		if w.err == nil {
			w.err = err
		}
		return
	}
	w.ref(r, val)
}

func (w *writer) matrix(m *slicemap.SurfaceMap, key string, rows [][]float64) {
	val, err := state.Matrix(rows)
	r, rerr := m.Attr(key)
	if err == nil {
		err = rerr
	}
	w.refErr(r, val, err)
}

// populate resets the kernel and commits every entity in order.
func (i *Instance) populate(d *geom.Aircraft, pl *plan) error {
	if err := i.call("reset", i.kern.Reset); err != nil {
		return err
	}
	p := i.arena.Primal()
	w := &writer{st: p}
	all := state.Slice{}

	w.put(state.Title, state.String(d.Title), all)
	w.put(state.Mach, state.Real(d.Mach), all)
	w.put(state.IYSym, state.Int(d.IYSym), all)
	w.put(state.IZSym, state.Int(d.IZSym), all)
	w.put(state.ZSym, state.Real(d.ZSym), all)
	w.put(state.Sref, state.Real(d.Sref), all)
	w.put(state.Cref, state.Real(d.Cref), all)
	w.put(state.Bref, state.Real(d.Bref), all)
	w.put(state.XYZRef, state.Reals(d.XYZref...), all)
	w.put(state.CDRef, state.Real(*d.CDp), all)
	w.put(state.NControl, state.Int(len(d.DName)), all)
	w.put(state.NDesign, state.Int(len(d.GName)), all)
	if n := len(d.DName); n > 0 {
		w.put(state.ControlName, state.Strings(d.DName...), state.Slice{state.Span(0, n)})
	}
	if n := len(d.GName); n > 0 {
		w.put(state.DesignName, state.Strings(d.GName...), state.Slice{state.Span(0, n)})
	}
	w.put(state.NSurf, state.Int(0), all)
	w.put(state.NBody, state.Int(0), all)
	if w.err != nil {
		return w.err
	}

	isurf := 0
	for n, e := range d.Surfaces {
		s := e.Value
		if err := i.writeSurface(w, isurf, e.Name, &s, pl.airfoils[n]); err != nil {
			return fmt.Errorf("surface %q: %w", e.Name, err)
		}
		p.Set(state.NSurf, float64(isurf+1))
		if err := i.call("make_surface", func() error { return i.kern.MakeSurface(isurf) }); err != nil {
			return fmt.Errorf("surface %q: %w", e.Name, err)
		}
		i.log.Debug("surface committed", slog.String("surface", e.Name), slog.Int("index", isurf))
		isurf++
		if !s.Mirrored() {
			continue
		}
		src := isurf - 1
		if err := i.call("duplicate_surface", func() error { return i.kern.DuplicateSurface(src, *s.YDuplicate) }); err != nil {
			return fmt.Errorf("surface %q: %w", e.Name, err)
		}
		w.put(state.SurfTitle, state.String(geom.MirrorName(e.Name)), state.Index(isurf))
		isurf++
		p.Set(state.NSurf, float64(isurf))
	}

	ibody := 0
	for n, e := range d.Bodies {
		b := e.Value
		if err := i.writeBody(w, ibody, e.Name, &b, pl.outlines[n]); err != nil {
			return fmt.Errorf("body %q: %w", e.Name, err)
		}
		p.Set(state.NBody, float64(ibody+1))
		if err := i.call("make_body", func() error { return i.kern.MakeBody(ibody) }); err != nil {
			return fmt.Errorf("body %q: %w", e.Name, err)
		}
		ibody++
		if !b.Mirrored() {
			continue
		}
		src := ibody - 1
		if err := i.call("duplicate_body", func() error { return i.kern.DuplicateBody(src, *b.YDuplicate) }); err != nil {
			return fmt.Errorf("body %q: %w", e.Name, err)
		}
		w.put(state.BodyTitle, state.String(geom.MirrorName(e.Name)), state.Index(ibody))
		ibody++
		p.Set(state.NBody, float64(ibody))
	}
	if w.err != nil {
		return w.err
	}
	if err := i.call("update_surfaces", i.kern.UpdateSurfaces); err != nil {
		return err
	}
	if err := i.call("update_bodies", i.kern.UpdateBodies); err != nil {
		return err
	}
	p.SetBool(state.LSol, false)
	return nil
}

// writeSurface writes counts, builds the surface's map and writes every
// attribute through it.
func (i *Instance) writeSurface(w *writer, isurf int, name string, s *geom.Surface, afs []geom.SectionAirfoil) error {
	p := w.st
	at := state.Index(isurf)
	nsec := s.NumSections
	w.put(state.SurfTitle, state.String(name), at)
	w.put(state.NSec, state.Int(nsec), at)
	w.put(state.AirfoilSpec, state.Int(int(s.AirfoilSpec())), at)
	for j := 0; j < nsec; j++ {
		sec := state.Index(isurf, j)
		w.put(state.NSCon, state.Int(s.NumControls[j]), sec)
		w.put(state.NSDes, state.Int(s.NumDesignVars[j]), sec)
		w.put(state.NASec, state.Int(afs[j].Samples.Len()), sec)
		w.put(state.NRawAf, state.Int(len(afs[j].RawX)), sec)
	}
	if w.err != nil {
		return w.err
	}

	m := slicemap.BuildSurface(p, name, isurf)
	w.attr(m, "scale", state.Reals(s.Scale...))
	w.attr(m, "translate", state.Reals(s.Translate...))
	w.attr(m, "angle", state.Real(*s.Angle))
	w.attr(m, "xles", state.Reals(s.XLEs...))
	w.attr(m, "yles", state.Reals(s.YLEs...))
	w.attr(m, "zles", state.Reals(s.ZLEs...))
	w.attr(m, "chords", state.Reals(s.Chords...))
	w.attr(m, "aincs", state.Reals(s.AIncs...))
	w.attr(m, "claf", state.Reals(s.CLAF...))
	w.matrix(m, "clcdsec", s.CLCDSec)
	w.attr(m, "clcd", state.Reals(s.CLCD...))

	w.attr(m, "nchordwise", state.Int(s.NChordwise))
	w.attr(m, "cspace", state.Real(s.CSpace))
	w.attr(m, "nspan", state.Int(*s.NSpan))
	w.attr(m, "sspace", state.Real(*s.SSpace))
	w.attr(m, "nspans", state.Ints(s.NSpans...))
	w.attr(m, "sspaces", state.Reals(s.SSpaces...))
	w.attr(m, "use surface spacing", state.Bool(*s.UseSurfaceSpacing))
	w.attr(m, "component", state.Int(*s.Component))
	ydup := 0.0
	if s.Mirrored() {
		ydup = *s.YDuplicate
	}
	w.attr(m, "yduplicate", state.Real(ydup))
	w.attr(m, "wake", state.Bool(*s.Wake))
	w.attr(m, "albe", state.Bool(*s.Albe))
	w.attr(m, "load", state.Bool(*s.Load))
	w.matrix(m, "xfminmax", s.XFMinMax)

	for j, af := range afs {
		sm := af.Samples
		for key, xs := range map[string][]float64{
			"xasec": sm.X, "sasec": sm.Slope, "tasec": sm.Thick, "casec": sm.Camber,
			"xuasec": sm.XU, "xlasec": sm.XL, "zuasec": sm.ZU, "zlasec": sm.ZL,
		} {
			r, err := m.Section(j, key)
			w.refErr(r, state.Reals(xs...), err)
		}
		sec := state.Index(isurf, j)
		switch af.Spec {
		case geom.AirfoilNACA:
			w.put(state.NACACode, state.String(af.NACA), sec)
		case geom.AirfoilFiles:
			w.put(state.AirfoilFile, state.String(af.File), sec)
		}
		if n := len(af.RawX); n > 0 {
			raw := state.Slice{state.At(isurf), state.At(j), state.Span(0, n)}
			w.put(state.RawAfX, state.Reals(af.RawX...), raw)
			w.put(state.RawAfY, state.Reals(af.RawY...), raw)
		}
	}

	writeAttachments(w, m.Controls, s.NumControls, map[string]any{
		"icontd": s.IContD, "xhinged": s.XHinged, "vhinged": s.VHinged,
		"gaind": s.GainD, "refld": s.RefLD,
	})
	writeAttachments(w, m.Designs, s.NumDesignVars, map[string]any{
		"idestd": s.IDesTD, "gaing": s.GainG,
	})
	return w.err
}

// writeAttachments writes ragged per-section attachment rows through the
// offset table.
func writeAttachments(w *writer, t slicemap.AttachmentTable, counts []int, rows map[string]any) {
	for key, data := range rows {
		for j, n := range counts {
			if n == 0 {
				continue
			}
			r, err := t.Section(key, j)
			var val state.Value
			if err == nil {
				switch rs := data.(type) {
				case [][]int:
					val = state.Ints(rs[j]...)
				case [][]float64:
					val = state.Reals(rs[j]...)
				case [][][]float64:
					val, err = state.Matrix(rs[j])
				}
			}
			w.refErr(r, val, err)
		}
	}
}

func (i *Instance) writeBody(w *writer, ibody int, name string, b *geom.Body, outline [2][]float64) error {
	at := state.Index(ibody)
	w.put(state.BodyTitle, state.String(name), at)
	w.put(state.NBPts, state.Int(len(outline[0])), at)
	if b.BFile != "" {
		w.put(state.BodyFile, state.String(b.BFile), at)
	}
	if w.err != nil {
		return w.err
	}
	m := slicemap.BuildBody(w.st, name, ibody)
	ydup := 0.0
	if b.Mirrored() {
		ydup = *b.YDuplicate
	}
	for key, val := range map[string]state.Value{
		"nvb":        state.Int(b.NVB),
		"bspace":     state.Real(b.BSpace),
		"scale":      state.Reals(b.Scale...),
		"translate":  state.Reals(b.Translate...),
		"yduplicate": state.Real(ydup),
	} {
		r, err := m.Attr(key)
		w.refErr(r, val, err)
	}
	w.ref(m.Outline[0], state.Reals(outline[0]...))
	w.ref(m.Outline[1], state.Reals(outline[1]...))
	return w.err
}

// postCheck re-reads the committed counts and names and compares them with
// the description.
func (i *Instance) postCheck(d *geom.Aircraft) error {
	p := i.arena.Primal()
	mismatch := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{ErrCommitMismatch}, args...)...)
	}
	nsurf, nbody := d.Counts()
	if got := p.GetInt(state.NSurf); got != nsurf {
		return mismatch("NSURF is %d, want %d", got, nsurf)
	}
	if got := p.GetInt(state.NBody); got != nbody {
		return mismatch("NBODY is %d, want %d", got, nbody)
	}
	if got := p.GetInt(state.NControl); got != len(d.DName) {
		return mismatch("NCONTROL is %d, want %d", got, len(d.DName))
	}
	if got := p.GetInt(state.NDesign); got != len(d.GName) {
		return mismatch("NDESIGN is %d, want %d", got, len(d.GName))
	}

	isurf := 0
	for _, e := range d.Surfaces {
		s := e.Value
		if got := p.GetString(state.SurfTitle, isurf); got != e.Name {
			return mismatch("surface %d is %q, want %q", isurf, got, e.Name)
		}
		if got := p.GetInt(state.NSec, isurf); got != s.NumSections {
			return mismatch("surface %q has %d sections, want %d", e.Name, got, s.NumSections)
		}
		for j := 0; j < s.NumSections; j++ {
			if got := p.GetInt(state.NSCon, isurf, j); got != s.NumControls[j] {
				return mismatch("surface %q section %d has %d controls, want %d", e.Name, j, got, s.NumControls[j])
			}
			if got := p.GetInt(state.NSDes, isurf, j); got != s.NumDesignVars[j] {
				return mismatch("surface %q section %d has %d design variables, want %d", e.Name, j, got, s.NumDesignVars[j])
			}
		}
		isurf++
		if s.Mirrored() {
			if p.GetInt(state.IMags, isurf) >= 0 || p.GetInt(state.ISurfD, isurf) != isurf-1 {
				return mismatch("surface %d is not the image of %q", isurf, e.Name)
			}
			isurf++
		}
	}
	ibody := 0
	for _, e := range d.Bodies {
		if got := p.GetString(state.BodyTitle, ibody); got != e.Name {
			return mismatch("body %d is %q, want %q", ibody, got, e.Name)
		}
		ibody++
		if e.Value.Mirrored() {
			if p.GetInt(state.IMagB, ibody) >= 0 || p.GetInt(state.IBodyD, ibody) != ibody-1 {
				return mismatch("body %d is not the image of %q", ibody, e.Name)
			}
			ibody++
		}
	}
	return nil
}
