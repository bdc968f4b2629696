package config

import (
	"maps"
	"slices"
)

var Presets = map[string]Condition{
	"cruise": {
		Alpha: 2.0,
	},
	"climb": {
		Alpha: 6.0,
		Trim:  []Trim{{Variable: "alpha", Output: "CL", Value: 0.8}},
	},
	"approach": {
		Alpha:    8.0,
		Controls: map[string]float64{"flap": 15.0},
	},
	"sideslip": {
		Alpha: 4.0,
		Beta:  5.0,
	},
	"pullup": {
		Alpha:     5.0,
		PitchRate: 0.05,
	},
}

// GetPreset returns a copy of the named condition, or nil.
func GetPreset(name string) *Condition {
	c, ok := Presets[name]
	if !ok {
		return nil
	}
	c.Controls = maps.Clone(c.Controls)
	c.Trim = slices.Clone(c.Trim)
	return &c
}

func ListPresets() []string {
	return slices.Sorted(maps.Keys(Presets))
}
