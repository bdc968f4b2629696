package config

import (
	"fmt"
	"maps"
	"slices"
)

// Target receives a flight condition.
type Target interface {
	SetConstraint(name string, x float64) error
	SetTrimTarget(name, output string, value float64) error
	SetParameter(name string, x float64) error
}

// Apply fixes the freestream variables and control deflections of c on t,
// then installs the trim targets, which take precedence over fixed values.
func (c Condition) Apply(t Target) error {
	fixed := []struct {
		name string
		x    float64
	}{
		{"alpha", c.Alpha},
		{"beta", c.Beta},
		{"roll rate", c.RollRate},
		{"pitch rate", c.PitchRate},
		{"yaw rate", c.YawRate},
	}
	for _, f := range fixed {
		if err := t.SetConstraint(f.name, f.x); err != nil {
			return err
		}
	}
	for _, name := range slices.Sorted(maps.Keys(c.Controls)) {
		if err := t.SetConstraint(name, c.Controls[name]); err != nil {
			return fmt.Errorf("control: %w", err)
		}
	}
	if c.Mach != 0 {
		if err := t.SetParameter("Mach", c.Mach); err != nil {
			return err
		}
	}
	for _, tr := range c.Trim {
		if err := t.SetTrimTarget(tr.Variable, tr.Output, tr.Value); err != nil {
			return fmt.Errorf("trim %s: %w", tr.Variable, err)
		}
	}
	return nil
}
