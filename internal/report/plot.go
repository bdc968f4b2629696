package report

import (
	"errors"
	"fmt"
	"slices"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/vlsens/internal/solver"
)

var ErrNothingToPlot = errors.New("report: fewer than two points to plot")

// SpanwiseFields are the strip quantities PlotSpanwise can draw.
var SpanwiseFields = []string{"chord", "gamma", "load", "width", "cl"}

func stripField(s solver.Strip, field string) (float64, error) {
	switch field {
	case "chord":
		return s.Chord, nil
	case "gamma":
		return s.Gamma, nil
	case "load":
		return s.Load, nil
	case "width":
		return s.Width, nil
	case "cl":
		if s.Chord == 0 {
			return 0, nil
		}
		return s.Load / s.Chord, nil
	}
	return 0, fmt.Errorf("report: unknown spanwise field %q", field)
}

// Spanwise returns field along the span, ordered by y, for the strips of
// surface (all strips when surface is empty).
func Spanwise(strips []solver.Strip, surface, field string) (y, v []float64, err error) {
	sel := make([]solver.Strip, 0, len(strips))
	for _, s := range strips {
		if surface == "" || s.Surface == surface {
			sel = append(sel, s)
		}
	}
	slices.SortStableFunc(sel, func(a, b solver.Strip) int {
		switch {
		case a.Y < b.Y:
			return -1
		case a.Y > b.Y:
			return 1
		}
		return 0
	})
	for _, s := range sel {
		x, err := stripField(s, field)
		if err != nil {
			return nil, nil, err
		}
		y = append(y, s.Y)
		v = append(v, x)
	}
	return y, v, nil
}

// PlotSpanwise draws field against the strip order along the span.
func PlotSpanwise(strips []solver.Strip, surface, field string, width, height int) (string, error) {
	y, v, err := Spanwise(strips, surface, field)
	if err != nil {
		return "", err
	}
	if len(v) < 2 {
		return "", ErrNothingToPlot
	}
	caption := fmt.Sprintf("%s, y from %s to %s", field, num(y[0]), num(y[len(y)-1]))
	if surface != "" {
		caption = surface + " " + caption
	}
	return Plot(v, caption, width, height)
}

// Plot draws one series.
func Plot(v []float64, caption string, width, height int) (string, error) {
	if len(v) < 2 {
		return "", ErrNothingToPlot
	}
	chart := asciigraph.Plot(v,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption))
	return GraphStyle.Render(chart), nil
}
