// Package report renders solver results for the terminal.
package report

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/san-kum/vlsens/internal/config"
	"github.com/san-kum/vlsens/internal/geom"
	"github.com/san-kum/vlsens/internal/solver"
	"github.com/san-kum/vlsens/internal/storage"
	"github.com/san-kum/vlsens/internal/sweep"
)

func num(x float64) string { return strconv.FormatFloat(x, 'g', 6, 64) }

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderColor)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return MetricLabel.Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

// Heading renders a section title.
func Heading(s string) string { return HeaderStyle.Render(s) }

// Banner renders the configuration title over a rule of the given width.
func Banner(title, kernel string, width int) string {
	return TitleStyle.Render(title) + " " + Subtle.Render("("+kernel+")") + "\n" + Separator(width)
}

// Metric renders one labelled value.
func Metric(label string, value any) string {
	return MetricLabel.Render(fmt.Sprintf("%-10s", label)) + MetricValue.Render(fmt.Sprint(value))
}

// Forces tabulates the total coefficients in output order.
func Forces(forces map[string]float64) string {
	t := newTable("coefficient", "value")
	for _, name := range solver.FuncNames {
		if v, ok := forces[name]; ok {
			t.Row(name, num(v))
		}
	}
	return t.String()
}

// Derivatives tabulates named derivatives in name order.
func Derivatives(d map[string]float64) string {
	t := newTable("derivative", "value")
	for _, name := range slices.Sorted(maps.Keys(d)) {
		t.Row(name, num(d[name]))
	}
	return t.String()
}

// Surfaces tabulates per-surface coefficients in the given order.
func Surfaces(forces map[string]solver.SurfaceForce, order []string) string {
	t := newTable("surface", "CL", "CM")
	for _, name := range order {
		if f, ok := forces[name]; ok {
			t.Row(name, num(f.CL), num(f.CM))
		}
	}
	return t.String()
}

// Sensitivities tabulates every entry of a derivative result.
func Sensitivities(res solver.Result) string {
	t := newTable("output", "category", "entity", "input", "index", "value")
	for _, r := range storage.Flatten(res) {
		v := num(r.Value)
		switch {
		case r.Value > 0:
			v = Positive.Render(v)
		case r.Value < 0:
			v = Negative.Render(v)
		}
		t.Row(r.Output, r.Category, r.Entity, r.Input, strconv.Itoa(r.Index), v)
	}
	return t.String()
}

// Warnings lists load warnings, one per line.
func Warnings(ws []geom.Warning) string {
	if len(ws) == 0 {
		return Subtle.Render("no warnings")
	}
	var b strings.Builder
	for _, w := range ws {
		b.WriteString(WarnStyle.Render("warning") + " " + w.String() + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Runs tabulates saved runs.
func Runs(runs []storage.RunMetadata) string {
	if len(runs) == 0 {
		return Subtle.Render("no saved runs")
	}
	t := newTable("id", "title", "kernel", "outputs", "time")
	for _, r := range runs {
		t.Row(r.ID, r.Title, r.Kernel, strings.Join(r.Outputs, " "), r.Timestamp.Format(time.DateTime))
	}
	return t.String()
}

// Presets tabulates the named flight conditions.
func Presets(names []string) string {
	t := newTable("preset", "alpha", "beta", "controls", "trim")
	for _, name := range names {
		c := config.GetPreset(name)
		if c == nil {
			continue
		}
		var ctrl []string
		for _, k := range slices.Sorted(maps.Keys(c.Controls)) {
			ctrl = append(ctrl, fmt.Sprintf("%s=%s", k, num(c.Controls[k])))
		}
		var trim []string
		for _, tr := range c.Trim {
			trim = append(trim, fmt.Sprintf("%s->%s=%s", tr.Variable, tr.Output, num(tr.Value)))
		}
		t.Row(name, num(c.Alpha), num(c.Beta), strings.Join(ctrl, " "), strings.Join(trim, " "))
	}
	return t.String()
}

// Sweep tabulates sweep points: the varied inputs followed by outputs.
func Sweep(points []sweep.Point, inputs, outputs []string) string {
	t := newTable(append(slices.Clone(inputs), outputs...)...)
	for _, p := range points {
		row := make([]string, 0, len(inputs)+len(outputs))
		for _, in := range inputs {
			row = append(row, num(conditionValue(p.Condition, in)))
		}
		for _, out := range outputs {
			if p.Err != nil {
				row = append(row, ErrorStyle.Render("error"))
				continue
			}
			row = append(row, num(p.Forces[out]))
		}
		t.Row(row...)
	}
	return t.String()
}

func conditionValue(c config.Condition, name string) float64 {
	switch name {
	case "alpha":
		return c.Alpha
	case "beta":
		return c.Beta
	case "roll rate":
		return c.RollRate
	case "pitch rate":
		return c.PitchRate
	case "yaw rate":
		return c.YawRate
	case "mach":
		return c.Mach
	}
	return c.Controls[name]
}
