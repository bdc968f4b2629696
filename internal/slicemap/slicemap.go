// Package slicemap binds the caller's view of the configuration (named
// surfaces and bodies with named attributes) to regions of kernel state.
//
// Maps are derived from the entity counts held in the store and must be
// rebuilt whenever a count changes. Only unmirrored entities are mapped; a
// mirrored entity follows its source and cannot be addressed directly.
package slicemap

import (
	"errors"
	"fmt"

	"github.com/san-kum/vlsens/internal/state"
)

var (
	// ErrNotIndependentlySettable indicates an attempt to address a mirrored entity.
	ErrNotIndependentlySettable = errors.New("slicemap: mirrored entity is not independently settable")

	// ErrUnknownEntity indicates a surface or body name that is not loaded.
	ErrUnknownEntity = errors.New("slicemap: unknown entity")

	// ErrUnknownKey indicates an attribute name with no binding.
	ErrUnknownKey = errors.New("slicemap: unknown attribute")
)

// Ref binds one attribute to a region of a variable.
type Ref struct {
	Var   state.Var
	Slice state.Slice
}

func (r Ref) String() string { return r.Var.String() + r.Slice.String() }

// Attribute keys of a surface. The geometry keys are the differentiable ones.
var (
	SurfaceGeomKeys = []string{
		"scale", "translate", "angle", "xles", "yles", "zles", "chords", "aincs", "clcdsec", "clcd", "claf",
	}
	SurfacePanelKeys = []string{
		"nchordwise", "cspace", "nspan", "sspace", "nspans", "sspaces", "use surface spacing",
		"component", "yduplicate", "wake", "albe", "load", "xfminmax",
	}
	SectionKeys = []string{"xasec", "sasec", "casec", "tasec", "xuasec", "xlasec", "zuasec", "zlasec"}
	ControlKeys = []string{"icontd", "xhinged", "vhinged", "gaind", "refld"}
	DesignKeys  = []string{"idestd", "gaing"}
	BodyKeys    = []string{"nvb", "bspace", "scale", "translate", "yduplicate"}
)

var sectionVars = map[string]state.Var{
	"xasec": state.XASec, "sasec": state.SASec, "casec": state.CASec, "tasec": state.TASec,
	"xuasec": state.XUASec, "xlasec": state.XLASec, "zuasec": state.ZUASec, "zlasec": state.ZLASec,
}

var attachmentVars = map[string]state.Var{
	"icontd": state.IContD, "xhinged": state.XHinged, "vhinged": state.VHinged,
	"gaind": state.GainD, "refld": state.RefLD,
	"idestd": state.IDesTD, "gaing": state.GainG,
}

// Span locates one section's attachments in a surface's flattened list.
type Span struct {
	Start, Count int
}

// AttachmentTable is a ragged per-section table: Spans[j] gives the offset
// and count of section j within the surface-wide list, and Refs[key][j]
// binds section j's entries of an attribute.
type AttachmentTable struct {
	Spans []Span
	Refs  map[string][]Ref
}

// Total is the number of attachments over all sections.
func (t AttachmentTable) Total() int {
	if len(t.Spans) == 0 {
		return 0
	}
	last := t.Spans[len(t.Spans)-1]
	return last.Start + last.Count
}

// Section returns the binding of key for section j.
func (t AttachmentTable) Section(key string, j int) (Ref, error) {
	refs, ok := t.Refs[key]
	if !ok {
		return Ref{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if j < 0 || j >= len(refs) {
		return Ref{}, fmt.Errorf("%w: section %d of %d", state.ErrSliceBounds, j, len(refs))
	}
	return refs[j], nil
}

// Locate maps a flat attachment number to its section and slot.
func (t AttachmentTable) Locate(n int) (section, slot int, ok bool) {
	for j, sp := range t.Spans {
		if n >= sp.Start && n < sp.Start+sp.Count {
			return j, n - sp.Start, true
		}
	}
	return 0, 0, false
}

// SurfaceMap binds the attributes of one unmirrored surface.
type SurfaceMap struct {
	Name        string
	Index       int
	NumSections int
	Attrs       map[string]Ref
	Sections    []map[string]Ref
	Controls    AttachmentTable
	Designs     AttachmentTable
}

// Attr returns the binding of a surface-level attribute.
func (m *SurfaceMap) Attr(key string) (Ref, error) {
	r, ok := m.Attrs[key]
	if !ok {
		return Ref{}, fmt.Errorf("%w: surface %s has no %q", ErrUnknownKey, m.Name, key)
	}
	return r, nil
}

// Section returns the binding of an airfoil sample key for section j.
func (m *SurfaceMap) Section(j int, key string) (Ref, error) {
	if j < 0 || j >= len(m.Sections) {
		return Ref{}, fmt.Errorf("%w: section %d of %d", state.ErrSliceBounds, j, len(m.Sections))
	}
	r, ok := m.Sections[j][key]
	if !ok {
		return Ref{}, fmt.Errorf("%w: section key %q", ErrUnknownKey, key)
	}
	return r, nil
}

// BodyMap binds the attributes of one unmirrored body.
type BodyMap struct {
	Name    string
	Index   int
	Attrs   map[string]Ref
	Outline [2]Ref
}

// Attr returns the binding of a body attribute.
func (m *BodyMap) Attr(key string) (Ref, error) {
	r, ok := m.Attrs[key]
	if !ok {
		return Ref{}, fmt.Errorf("%w: body %s has no %q", ErrUnknownKey, m.Name, key)
	}
	return r, nil
}

func at(i int) state.Slice { return state.Index(i) }

// BuildSurface maps surface isurf using the counts held in st.
func BuildSurface(st *state.Store, name string, isurf int) *SurfaceMap {
	n := st.GetInt(state.NSec, isurf)
	secs := state.Span(0, n)
	row := func(v state.Var) Ref { return Ref{v, state.Slice{state.At(isurf), secs}} }
	m := &SurfaceMap{
		Name:        name,
		Index:       isurf,
		NumSections: n,
		Attrs: map[string]Ref{
			"scale":     {state.XYZScal, state.Slice{state.At(isurf), state.All()}},
			"translate": {state.XYZTran, state.Slice{state.At(isurf), state.All()}},
			"angle":     {state.AddInc, at(isurf)},
			"xles":      {state.XYZLES, state.Slice{state.At(isurf), secs, state.At(0)}},
			"yles":      {state.XYZLES, state.Slice{state.At(isurf), secs, state.At(1)}},
			"zles":      {state.XYZLES, state.Slice{state.At(isurf), secs, state.At(2)}},
			"chords":    row(state.Chords),
			"aincs":     row(state.AIncs),
			"claf":      row(state.CLAF),
			"clcdsec":   {state.CLCDSec, state.Slice{state.At(isurf), secs, state.All()}},
			"clcd":      {state.CLCDSrf, state.Slice{state.At(isurf), state.All()}},

			"nchordwise":          {state.NVC, at(isurf)},
			"cspace":              {state.CSpace, at(isurf)},
			"nspan":               {state.NVS, at(isurf)},
			"sspace":              {state.SSpace, at(isurf)},
			"nspans":              row(state.NSpans),
			"sspaces":             row(state.SSpaces),
			"use surface spacing": {state.LSurfSpacing, at(isurf)},
			"component":           {state.Component, at(isurf)},
			"yduplicate":          {state.YDupl, at(isurf)},
			"wake":                {state.LFWake, at(isurf)},
			"albe":                {state.LFAlbe, at(isurf)},
			"load":                {state.LFLoad, at(isurf)},
			"xfminmax":            {state.XFMinMax, state.Slice{state.At(isurf), secs, state.All()}},
		},
		Sections: make([]map[string]Ref, n),
	}
	for j := 0; j < n; j++ {
		na := st.GetInt(state.NASec, isurf, j)
		sec := make(map[string]Ref, len(sectionVars))
		for key, v := range sectionVars {
			sec[key] = Ref{v, state.Slice{state.At(isurf), state.At(j), state.Span(0, na)}}
		}
		m.Sections[j] = sec
	}
	m.Controls = buildAttachments(st, state.NSCon, ControlKeys, isurf, n)
	m.Designs = buildAttachments(st, state.NSDes, DesignKeys, isurf, n)
	return m
}

func buildAttachments(st *state.Store, count state.Var, keys []string, isurf, nsec int) AttachmentTable {
	t := AttachmentTable{Spans: make([]Span, nsec), Refs: make(map[string][]Ref, len(keys))}
	start := 0
	for j := 0; j < nsec; j++ {
		c := st.GetInt(count, isurf, j)
		t.Spans[j] = Span{Start: start, Count: c}
		start += c
	}
	for _, key := range keys {
		v := attachmentVars[key]
		refs := make([]Ref, nsec)
		for j, sp := range t.Spans {
			sl := state.Slice{state.At(isurf), state.At(j), state.Span(0, sp.Count)}
			if v == state.VHinged {
				sl = append(sl, state.All())
			}
			refs[j] = Ref{v, sl}
		}
		t.Refs[key] = refs
	}
	return t
}

// BuildBody maps body ibody using the counts held in st.
func BuildBody(st *state.Store, name string, ibody int) *BodyMap {
	np := st.GetInt(state.NBPts, ibody)
	return &BodyMap{
		Name:  name,
		Index: ibody,
		Attrs: map[string]Ref{
			"nvb":        {state.NVB, at(ibody)},
			"bspace":     {state.BSpace, at(ibody)},
			"scale":      {state.XYZScalB, state.Slice{state.At(ibody), state.All()}},
			"translate":  {state.XYZTranB, state.Slice{state.At(ibody), state.All()}},
			"yduplicate": {state.YDuplB, at(ibody)},
		},
		Outline: [2]Ref{
			{state.XBod, state.Slice{state.At(ibody), state.Span(0, np)}},
			{state.YBod, state.Slice{state.At(ibody), state.Span(0, np)}},
		},
	}
}
