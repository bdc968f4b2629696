package geom

import (
	"fmt"
	"math"
	"strconv"

	"github.com/san-kum/vlsens/internal/state"
	"gonum.org/v1/gonum/interp"
)

// SectionSamples is the camber-line description the kernel consumes for one
// section: sample stations, camber slope, thickness, camber, and the upper
// and lower surface points.
type SectionSamples struct {
	X      []float64
	Slope  []float64
	Thick  []float64
	Camber []float64
	XU, XL []float64
	ZU, ZL []float64
}

// Len is the number of samples.
func (s SectionSamples) Len() int { return len(s.X) }

// FlatSamples is the two-point flat camber line used when a section has no airfoil.
func FlatSamples() SectionSamples {
	return SectionSamples{
		X:      []float64{0, 1},
		Slope:  make([]float64, 2),
		Thick:  make([]float64, 2),
		Camber: make([]float64, 2),
		XU:     make([]float64, 2),
		XL:     make([]float64, 2),
		ZU:     make([]float64, 2),
		ZL:     make([]float64, 2),
	}
}

func stations(xmin, xmax float64, n int) []float64 {
	xf := make([]float64, n)
	for i := range xf {
		xf[i] = xmin + (xmax-xmin)*float64(i)/float64(n-1)
	}
	return xf
}

// NACASamples generates n samples of a 4-digit NACA section between the
// chord fractions xmin and xmax.
func NACASamples(code string, xmin, xmax float64, n int) (SectionSamples, error) {
	if !isNACA4(code) {
		return SectionSamples{}, fmt.Errorf("%w: %q is not a 4-digit NACA code", ErrUnsupported, code)
	}
	cam := float64(code[0]-'0') / 100
	pos := float64(code[1]-'0') / 10
	t, _ := strconv.Atoi(code[2:])
	thick := float64(t) / 100

	xf := stations(xmin, xmax, n)
	out := SectionSamples{
		X:      make([]float64, n),
		Slope:  make([]float64, n),
		Thick:  make([]float64, n),
		Camber: make([]float64, n),
		XU:     make([]float64, n),
		XL:     make([]float64, n),
		ZU:     make([]float64, n),
		ZL:     make([]float64, n),
	}
	span := xf[n-1] - xf[0]
	for i, x := range xf {
		var slope, z float64
		if pos > 0 && cam > 0 {
			if x <= pos {
				slope = 2 * cam * (pos - x) / (pos * pos)
				z = cam * (2*pos - x) * x / (pos * pos)
			} else {
				slope = 2 * cam * (pos - x) / ((1 - pos) * (1 - pos))
				z = cam * ((1 - 2*pos) + (2*pos-x)*x) / ((1 - pos) * (1 - pos))
			}
		}
		th := 10 * thick * (0.29690*math.Sqrt(x) - 0.12600*x - 0.35160*x*x + 0.28430*x*x*x - 0.10150*x*x*x*x)
		theta := math.Atan(slope)

		out.X[i] = (x - xf[0]) / span
		out.Slope[i] = slope
		out.Thick[i] = th
		out.Camber[i] = z
		out.XL[i] = x + 0.5*th*math.Sin(theta)
		out.XU[i] = x - 0.5*th*math.Sin(theta)
		out.ZL[i] = z - 0.5*th*math.Cos(theta)
		out.ZU[i] = z + 0.5*th*math.Cos(theta)
	}
	return out, nil
}

// CoordinateSamples resamples an airfoil given as a closed x, y outline
// (trailing edge, upper surface, leading edge, lower surface, trailing
// edge). Both surfaces are fitted with Akima splines after normalising to
// unit chord.
func CoordinateSamples(x, y []float64, xmin, xmax float64, n int) (SectionSamples, error) {
	if len(x) != len(y) || len(x) < 3 {
		return SectionSamples{}, fmt.Errorf("%w: need at least 3 matching x, y points", ErrSizeMismatch)
	}
	ile := 0
	for i := range x {
		if x[i] < x[ile] {
			ile = i
		}
	}
	xle, zle := x[ile], y[ile]
	xte := math.Max(x[0], x[len(x)-1])
	chord := xte - xle
	if chord <= 0 {
		return SectionSamples{}, fmt.Errorf("%w: degenerate airfoil chord", ErrSizeMismatch)
	}

	// Upper runs from the trailing edge to the leading edge; reverse it so
	// both halves are ordered by increasing x.
	var ux, uz, lx, lz []float64
	for i := ile; i >= 0; i-- {
		ux, uz = appendIncreasing(ux, uz, (x[i]-xle)/chord, (y[i]-zle)/chord)
	}
	for i := ile; i < len(x); i++ {
		lx, lz = appendIncreasing(lx, lz, (x[i]-xle)/chord, (y[i]-zle)/chord)
	}
	if len(ux) < 2 || len(lx) < 2 {
		return SectionSamples{}, fmt.Errorf("%w: airfoil needs points on both surfaces", ErrSizeMismatch)
	}

	var upper, lower interp.AkimaSpline
	if err := upper.Fit(ux, uz); err != nil {
		return SectionSamples{}, fmt.Errorf("fit upper surface: %w", err)
	}
	if err := lower.Fit(lx, lz); err != nil {
		return SectionSamples{}, fmt.Errorf("fit lower surface: %w", err)
	}
	if mean(uz) < mean(lz) {
		upper, lower = lower, upper
	}

	xf := stations(xmin, xmax, n)
	out := SectionSamples{
		X:      make([]float64, n),
		Slope:  make([]float64, n),
		Thick:  make([]float64, n),
		Camber: make([]float64, n),
		XU:     make([]float64, n),
		XL:     make([]float64, n),
		ZU:     make([]float64, n),
		ZL:     make([]float64, n),
	}
	span := xf[n-1] - xf[0]
	for i, xs := range xf {
		zu, zl := upper.Predict(xs), lower.Predict(xs)
		out.X[i] = (xs - xf[0]) / span
		out.Camber[i] = 0.5 * (zu + zl)
		out.Thick[i] = zu - zl
		out.Slope[i] = 0.5 * (upper.PredictDerivative(xs) + lower.PredictDerivative(xs))
		out.XU[i], out.XL[i] = xs, xs
		out.ZU[i], out.ZL[i] = zu, zl
	}
	return out, nil
}

func appendIncreasing(xs, zs []float64, x, z float64) ([]float64, []float64) {
	if len(xs) > 0 && x <= xs[len(xs)-1] {
		return xs, zs
	}
	return append(xs, x), append(zs, z)
}

func mean(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x
	}
	return s / float64(len(v))
}

// ZeroLiftAngle is the thin-airfoil zero-lift angle in radians of a camber
// line given by its slope samples.
func ZeroLiftAngle(x, slope []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	const n = 64
	var lin interp.PiecewiseLinear
	if err := lin.Fit(x, slope); err != nil {
		return 0
	}
	sum := 0.0
	dth := math.Pi / n
	for k := 0; k < n; k++ {
		th := (float64(k) + 0.5) * dth
		xc := 0.5 * (1 - math.Cos(th))
		xc = math.Min(math.Max(xc, x[0]), x[len(x)-1])
		sum += lin.Predict(xc) * (math.Cos(th) - 1) * dth
	}
	return -sum / math.Pi
}

// SectionAirfoil is a section's airfoil resolved to kernel samples, plus
// what is needed to export it in the form it was given.
type SectionAirfoil struct {
	Spec         AirfoilSpec
	Samples      SectionSamples
	RawX, RawY   []float64
	NACA         string
	File         string
	XFMin, XFMax float64
}

// ResolveAirfoils computes the samples of every section of s. Files are read
// through reader.
func ResolveAirfoils(s *Surface, reader CoordinateReader) ([]SectionAirfoil, error) {
	spec := s.AirfoilSpec()
	out := make([]SectionAirfoil, s.NumSections)
	for j := range out {
		sa := SectionAirfoil{Spec: spec, XFMin: 0, XFMax: 1}
		if s.XFMinMax != nil {
			sa.XFMin, sa.XFMax = s.XFMinMax[j][0], s.XFMinMax[j][1]
		}
		var err error
		switch spec {
		case AirfoilNACA:
			sa.NACA = s.NACA[j]
			sa.Samples, err = NACASamples(sa.NACA, sa.XFMin, sa.XFMax, Samples)
		case AirfoilCoordinates:
			sa.RawX, sa.RawY = s.Airfoils[j][0], s.Airfoils[j][1]
			sa.Samples, err = CoordinateSamples(sa.RawX, sa.RawY, sa.XFMin, sa.XFMax, Samples)
		case AirfoilFiles:
			sa.File = s.AFiles[j]
			sa.RawX, sa.RawY, err = reader.ReadCoordinates(sa.File)
			if err == nil && len(sa.RawX) > state.IBX {
				err = fmt.Errorf("%w: %d points in %s", ErrCapacityExceeded, len(sa.RawX), sa.File)
			}
			if err == nil {
				sa.Samples, err = CoordinateSamples(sa.RawX, sa.RawY, sa.XFMin, sa.XFMax, Samples)
			}
		case AirfoilManual:
			sa.Samples = SectionSamples{
				X: s.XASec[j], Slope: s.SASec[j], Thick: s.TASec[j], Camber: s.CASec[j],
				XU: s.XUASec[j], XL: s.XLASec[j], ZU: s.ZUASec[j], ZL: s.ZLASec[j],
			}
		default:
			sa.Samples = FlatSamples()
		}
		if err != nil {
			return nil, fmt.Errorf("section %d airfoil: %w", j, err)
		}
		out[j] = sa
	}
	return out, nil
}
