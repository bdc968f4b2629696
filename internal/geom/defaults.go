package geom

import "slices"

// Samples is the number of airfoil samples generated per section.
const Samples = 50

func ptr[T any](v T) *T { return &v }

func filled(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Normalize fills every optional attribute with its default. Loading a
// normalized description is equivalent to loading the original; exporting a
// loaded instance yields a normalized description.
func (a *Aircraft) Normalize() {
	if a.CDp == nil {
		a.CDp = ptr(0.0)
	}
	if a.XYZref == nil {
		a.XYZref = []float64{0, 0, 0}
	}
	for i := range a.Surfaces {
		a.Surfaces[i].Value.normalize(i)
	}
	for i := range a.Bodies {
		a.Bodies[i].Value.normalize()
	}
}

func (s *Surface) normalize(index int) {
	n := s.NumSections
	if s.Component == nil {
		s.Component = ptr(index + 1)
	}
	if s.Scale == nil {
		s.Scale = []float64{1, 1, 1}
	}
	if s.Translate == nil {
		s.Translate = []float64{0, 0, 0}
	}
	if s.Angle == nil {
		s.Angle = ptr(0.0)
	}
	for _, b := range []**bool{&s.Wake, &s.Albe, &s.Load} {
		if *b == nil {
			*b = ptr(true)
		}
	}
	if s.CLCD == nil {
		s.CLCD = make([]float64, 6)
	}
	if s.CLCDSec == nil {
		s.CLCDSec = make([][]float64, n)
		for j := range s.CLCDSec {
			s.CLCDSec[j] = make([]float64, 6)
		}
	}
	if s.CLAF == nil {
		s.CLAF = filled(n, 1)
	}
	if s.UseSurfaceSpacing == nil {
		s.UseSurfaceSpacing = ptr(s.SSpace != nil)
	}
	if s.NSpan == nil {
		s.NSpan = ptr(0)
	}
	if s.SSpace == nil {
		s.SSpace = ptr(0.0)
	}
	if s.NSpans == nil {
		s.NSpans = make([]int, n)
	}
	if s.SSpaces == nil {
		s.SSpaces = make([]float64, n)
	}
	if s.XFMinMax == nil {
		s.XFMinMax = make([][]float64, n)
		for j := range s.XFMinMax {
			s.XFMinMax[j] = []float64{0, 1}
		}
	}
	if s.NumControls == nil {
		s.NumControls = make([]int, n)
	}
	if s.NumDesignVars == nil {
		s.NumDesignVars = make([]int, n)
	}
	if slices.Max(append([]int{0}, s.NumControls...)) == 0 {
		s.IContD, s.XHinged, s.VHinged, s.GainD, s.RefLD = nil, nil, nil, nil, nil
	}
	if slices.Max(append([]int{0}, s.NumDesignVars...)) == 0 {
		s.IDesTD, s.GainG = nil, nil
	}
}

func (b *Body) normalize() {
	if b.Scale == nil {
		b.Scale = []float64{1, 1, 1}
	}
	if b.Translate == nil {
		b.Translate = []float64{0, 0, 0}
	}
}
