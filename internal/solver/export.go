package solver

import (
	"github.com/san-kum/vlsens/internal/geom"
	"github.com/san-kum/vlsens/internal/slicemap"
	"github.com/san-kum/vlsens/internal/state"
)

// reader reads through the typed accessor and keeps the first error.
type reader struct {
	st  *state.Store
	err error
}

func (r *reader) get(v state.Var, sl state.Slice) state.Value {
	if r.err != nil {
		return state.Value{}
	}
	val, err := r.st.Read(v, sl)
	if err != nil {
		r.err = err
	}
	return val
}

func (r *reader) ref(ref slicemap.Ref) state.Value { return r.get(ref.Var, ref.Slice) }

func (r *reader) attr(m *slicemap.SurfaceMap, key string) state.Value {
	ref, err := m.Attr(key)
	if err != nil {
		if r.err == nil {
			r.err = err
		}
		return state.Value{}
	}
	return r.ref(ref)
}

func ptr[T any](v T) *T { return &v }

// Export rebuilds a normalized description from the current primal state.
// Loading the result reproduces the same slice maps and primal inputs.
func (i *Instance) Export() (*geom.Aircraft, error) {
	r := &reader{st: i.arena.Primal()}
	all := state.Slice{}
	a := &geom.Aircraft{
		Title:  r.get(state.Title, all).Str(),
		Mach:   r.get(state.Mach, all).Float(),
		IYSym:  r.get(state.IYSym, all).Int(),
		IZSym:  r.get(state.IZSym, all).Int(),
		ZSym:   r.get(state.ZSym, all).Float(),
		Sref:   r.get(state.Sref, all).Float(),
		Cref:   r.get(state.Cref, all).Float(),
		Bref:   r.get(state.Bref, all).Float(),
		XYZref: r.get(state.XYZRef, all).Floats(),
		CDp:    ptr(r.get(state.CDRef, all).Float()),
	}
	if names := i.ControlNames(); len(names) > 0 {
		a.DName = names
	}
	if names := i.DesignVarNames(); len(names) > 0 {
		a.GName = names
	}
	for _, name := range i.SurfaceNames(true) {
		m, err := i.surfaceMap(name)
		if err != nil {
			return nil, err
		}
		s := exportSurface(r, m)
		a.Surfaces = append(a.Surfaces, geom.Named[geom.Surface]{Name: name, Value: s})
	}
	for _, name := range i.BodyNames(true) {
		m, err := i.bodyMap(name)
		if err != nil {
			return nil, err
		}
		b := exportBody(r, m)
		a.Bodies = append(a.Bodies, geom.Named[geom.Body]{Name: name, Value: b})
	}
	if r.err != nil {
		return nil, r.err
	}
	return a, nil
}

func exportSurface(r *reader, m *slicemap.SurfaceMap) geom.Surface {
	isurf, nsec := m.Index, m.NumSections
	s := geom.Surface{
		NumSections:   nsec,
		NumControls:   make([]int, nsec),
		NumDesignVars: make([]int, nsec),

		Component: ptr(r.attr(m, "component").Int()),
		Wake:      ptr(r.attr(m, "wake").Bool()),
		Albe:      ptr(r.attr(m, "albe").Bool()),
		Load:      ptr(r.attr(m, "load").Bool()),

		CLCDSec: r.attr(m, "clcdsec").Rows(),
		CLCD:    r.attr(m, "clcd").Floats(),
		CLAF:    r.attr(m, "claf").Floats(),

		Scale:     r.attr(m, "scale").Floats(),
		Translate: r.attr(m, "translate").Floats(),
		Angle:     ptr(r.attr(m, "angle").Float()),
		XLEs:      r.attr(m, "xles").Floats(),
		YLEs:      r.attr(m, "yles").Floats(),
		ZLEs:      r.attr(m, "zles").Floats(),
		Chords:    r.attr(m, "chords").Floats(),
		AIncs:     r.attr(m, "aincs").Floats(),
		XFMinMax:  r.attr(m, "xfminmax").Rows(),

		NChordwise:        r.attr(m, "nchordwise").Int(),
		CSpace:            r.attr(m, "cspace").Float(),
		NSpan:             ptr(r.attr(m, "nspan").Int()),
		SSpace:            ptr(r.attr(m, "sspace").Float()),
		NSpans:            r.attr(m, "nspans").IntSlice(),
		SSpaces:           r.attr(m, "sspaces").Floats(),
		UseSurfaceSpacing: ptr(r.attr(m, "use surface spacing").Bool()),
	}
	if r.get(state.LDupl, state.Index(isurf)).Bool() {
		s.YDuplicate = ptr(r.attr(m, "yduplicate").Float())
	}

	spec := geom.AirfoilSpec(r.get(state.AirfoilSpec, state.Index(isurf)).Int())
	for j := 0; j < nsec; j++ {
		sec := state.Index(isurf, j)
		switch spec {
		case geom.AirfoilNACA:
			s.NACA = append(s.NACA, r.get(state.NACACode, sec).Str())
		case geom.AirfoilFiles:
			s.AFiles = append(s.AFiles, r.get(state.AirfoilFile, sec).Str())
		case geom.AirfoilCoordinates:
			n := r.get(state.NRawAf, sec).Int()
			raw := state.Slice{state.At(isurf), state.At(j), state.Span(0, n)}
			s.Airfoils = append(s.Airfoils, [][]float64{
				r.get(state.RawAfX, raw).Floats(),
				r.get(state.RawAfY, raw).Floats(),
			})
		case geom.AirfoilManual:
			sample := func(key string) []float64 {
				ref, err := m.Section(j, key)
				if err != nil {
					if r.err == nil {
						r.err = err
					}
					return nil
				}
				return r.ref(ref).Floats()
			}
			s.XASec = append(s.XASec, sample("xasec"))
			s.SASec = append(s.SASec, sample("sasec"))
			s.CASec = append(s.CASec, sample("casec"))
			s.TASec = append(s.TASec, sample("tasec"))
			s.XUASec = append(s.XUASec, sample("xuasec"))
			s.XLASec = append(s.XLASec, sample("xlasec"))
			s.ZUASec = append(s.ZUASec, sample("zuasec"))
			s.ZLASec = append(s.ZLASec, sample("zlasec"))
		}
	}

	for j, sp := range m.Controls.Spans {
		s.NumControls[j] = sp.Count
	}
	for j, sp := range m.Designs.Spans {
		s.NumDesignVars[j] = sp.Count
	}
	if m.Controls.Total() > 0 {
		for j, sp := range m.Controls.Spans {
			ints, reals := attachmentRows(r, m.Controls, j, sp.Count)
			s.IContD = append(s.IContD, ints["icontd"])
			s.XHinged = append(s.XHinged, reals["xhinged"])
			s.GainD = append(s.GainD, reals["gaind"])
			s.RefLD = append(s.RefLD, reals["refld"])
			vh := [][]float64{}
			if sp.Count > 0 {
				ref, _ := m.Controls.Section("vhinged", j)
				vh = r.ref(ref).Rows()
			}
			s.VHinged = append(s.VHinged, vh)
		}
	}
	if m.Designs.Total() > 0 {
		for j, sp := range m.Designs.Spans {
			ints, reals := attachmentRows(r, m.Designs, j, sp.Count)
			s.IDesTD = append(s.IDesTD, ints["idestd"])
			s.GainG = append(s.GainG, reals["gaing"])
		}
	}
	return s
}

// attachmentRows reads the one-dimensional attachment attributes of section
// j. Sections without attachments yield empty rows.
func attachmentRows(r *reader, t slicemap.AttachmentTable, j, count int) (map[string][]int, map[string][]float64) {
	ints := make(map[string][]int)
	reals := make(map[string][]float64)
	for key, refs := range t.Refs {
		if key == "vhinged" {
			continue
		}
		ref := refs[j]
		if state.Lookup(ref.Var).Kind == state.KindInt {
			ints[key] = []int{}
			if count > 0 {
				ints[key] = r.ref(ref).IntSlice()
			}
			continue
		}
		reals[key] = []float64{}
		if count > 0 {
			reals[key] = r.ref(ref).Floats()
		}
	}
	return ints, reals
}

func exportBody(r *reader, m *slicemap.BodyMap) geom.Body {
	attr := func(key string) state.Value {
		ref, err := m.Attr(key)
		if err != nil {
			if r.err == nil {
				r.err = err
			}
			return state.Value{}
		}
		return r.ref(ref)
	}
	b := geom.Body{
		NVB:       attr("nvb").Int(),
		BSpace:    attr("bspace").Float(),
		Scale:     attr("scale").Floats(),
		Translate: attr("translate").Floats(),
	}
	if r.get(state.LDuplB, state.Index(m.Index)).Bool() {
		b.YDuplicate = ptr(attr("yduplicate").Float())
	}
	if f := r.get(state.BodyFile, state.Index(m.Index)).Str(); f != "" {
		b.BFile = f
	} else {
		b.BodyOML = [][]float64{r.ref(m.Outline[0]).Floats(), r.ref(m.Outline[1]).Floats()}
	}
	return b
}
