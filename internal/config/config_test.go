package config

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Kernel != "refvlm" {
		t.Errorf("expected kernel refvlm, got %s", cfg.Kernel)
	}
	if cfg.Tolerance <= 0 {
		t.Error("tolerance should be positive")
	}
	if cfg.FDStep <= 0 {
		t.Error("fd step should be positive")
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vlsens.yaml")
	cfg := DefaultConfig()
	cfg.Tolerance = 1e-6
	cfg.Condition = Condition{
		Alpha:    3,
		Controls: map[string]float64{"flap": 10},
		Trim:     []Trim{{Variable: "alpha", Output: "CL", Value: 0.5}},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Tolerance != 1e-6 {
		t.Errorf("expected tolerance 1e-6, got %g", got.Tolerance)
	}
	if got.Condition.Controls["flap"] != 10 {
		t.Errorf("expected flap 10, got %v", got.Condition.Controls)
	}
	if len(got.Condition.Trim) != 1 || got.Condition.Trim[0].Output != "CL" {
		t.Errorf("trim not preserved: %+v", got.Condition.Trim)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("VLSENS_TOLERANCE", "0.001")
	t.Setenv("VLSENS_LOG_LEVEL", "debug")
	t.Setenv("VLSENS_ALPHA", "4.5")

	cfg := DefaultConfig()
	if err := ApplyEnv(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Tolerance != 0.001 {
		t.Errorf("expected tolerance 0.001, got %g", cfg.Tolerance)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.LogLevel)
	}
	if cfg.Condition.Alpha != 4.5 {
		t.Errorf("expected alpha 4.5, got %g", cfg.Condition.Alpha)
	}
	if cfg.Kernel != DefaultKernel {
		t.Errorf("unset variables should keep defaults, got kernel %q", cfg.Kernel)
	}
}

func TestApplyEnv_BadValue(t *testing.T) {
	t.Setenv("VLSENS_FD_STEP", "tiny")
	if err := ApplyEnv(DefaultConfig()); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"zero tolerance", func(c *Config) { c.Tolerance = 0 }, false},
		{"negative step", func(c *Config) { c.FDStep = -1 }, false},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, false},
		{"no kernel", func(c *Config) { c.Kernel = "" }, false},
		{"supersonic", func(c *Config) { c.Condition.Mach = 1.2 }, false},
		{"bad trim output", func(c *Config) {
			c.Condition.Trim = []Trim{{Variable: "alpha", Output: "CD"}}
		}, false},
		{"good trim", func(c *Config) {
			c.Condition.Trim = []Trim{{Variable: "alpha", Output: "CM"}}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestResolve(t *testing.T) {
	t.Setenv("VLSENS_WORKERS", "3")
	cfg, err := Resolve("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.Workers)
	}

	t.Setenv("VLSENS_LOG_LEVEL", "verbose")
	if _, err := Resolve(""); err == nil {
		t.Error("expected validation error from environment")
	}
}

func TestGetPreset(t *testing.T) {
	c := GetPreset("approach")
	if c == nil {
		t.Fatal("expected preset, got nil")
	}
	if c.Alpha != 8 {
		t.Errorf("expected alpha 8, got %g", c.Alpha)
	}
	c.Controls["flap"] = 0
	if Presets["approach"].Controls["flap"] != 15 {
		t.Error("preset should be copied")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("presets not sorted: %v", names)
		}
	}
}

type recorder struct {
	fixed map[string]float64
	trims []string
	pars  map[string]float64
	fail  string
}

func (r *recorder) SetConstraint(name string, x float64) error {
	if name == r.fail {
		return errors.New("unknown")
	}
	r.fixed[name] = x
	return nil
}

func (r *recorder) SetTrimTarget(name, output string, value float64) error {
	r.trims = append(r.trims, name+"->"+output)
	return nil
}

func (r *recorder) SetParameter(name string, x float64) error {
	r.pars[name] = x
	return nil
}

func TestConditionApply(t *testing.T) {
	r := &recorder{fixed: map[string]float64{}, pars: map[string]float64{}}
	c := Condition{
		Alpha:    2,
		Beta:     1,
		Mach:     0.3,
		Controls: map[string]float64{"flap": 5},
		Trim:     []Trim{{Variable: "alpha", Output: "CL", Value: 0.6}},
	}
	if err := c.Apply(r); err != nil {
		t.Fatal(err)
	}
	if r.fixed["alpha"] != 2 || r.fixed["beta"] != 1 || r.fixed["flap"] != 5 {
		t.Errorf("unexpected constraints: %v", r.fixed)
	}
	if r.pars["Mach"] != 0.3 {
		t.Errorf("expected Mach 0.3, got %v", r.pars)
	}
	if len(r.trims) != 1 || r.trims[0] != "alpha->CL" {
		t.Errorf("unexpected trims: %v", r.trims)
	}

	r.fail = "flap"
	if err := c.Apply(r); err == nil {
		t.Error("expected error for unknown control")
	}
}
