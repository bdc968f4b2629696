package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultKernel    = "refvlm"
	DefaultTolerance = 2e-5
	DefaultFDStep    = 1e-7
	DefaultDataDir   = "runs"
	DefaultLogLevel  = "info"
)

type Config struct {
	Kernel    string    `yaml:"kernel"    validate:"required"`
	Tolerance float64   `yaml:"tolerance" validate:"gt=0"`
	FDStep    float64   `yaml:"fd_step"   validate:"gt=0"`
	DataDir   string    `yaml:"data_dir"  validate:"required"`
	LogLevel  string    `yaml:"log_level" validate:"oneof=debug info warn error"`
	Workers   int       `yaml:"workers"   validate:"gte=0"`
	Condition Condition `yaml:"condition"`
}

// Condition is the flight condition applied to an instance before a solve.
type Condition struct {
	Alpha     float64            `yaml:"alpha"`
	Beta      float64            `yaml:"beta"`
	RollRate  float64            `yaml:"roll_rate"`
	PitchRate float64            `yaml:"pitch_rate"`
	YawRate   float64            `yaml:"yaw_rate"`
	Mach      float64            `yaml:"mach" validate:"gte=0,lt=1"`
	Controls  map[string]float64 `yaml:"controls,omitempty"`
	Trim      []Trim             `yaml:"trim,omitempty" validate:"dive"`
}

// Trim asks the solve to drive Variable until Output reaches Value.
type Trim struct {
	Variable string  `yaml:"variable" validate:"required"`
	Output   string  `yaml:"output"   validate:"oneof=CL CM CR"`
	Value    float64 `yaml:"value"`
}

var validate = validator.New()

func DefaultConfig() *Config {
	return &Config{
		Kernel:    DefaultKernel,
		Tolerance: DefaultTolerance,
		FDStep:    DefaultFDStep,
		DataDir:   DefaultDataDir,
		LogLevel:  DefaultLogLevel,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// envOverlay holds the settings that can come from the environment.
type envOverlay struct {
	Kernel    string  `env:"VLSENS_KERNEL"`
	Tolerance float64 `env:"VLSENS_TOLERANCE"`
	FDStep    float64 `env:"VLSENS_FD_STEP"`
	DataDir   string  `env:"VLSENS_DATA_DIR"`
	LogLevel  string  `env:"VLSENS_LOG_LEVEL"`
	Workers   int     `env:"VLSENS_WORKERS"`
	Alpha     float64 `env:"VLSENS_ALPHA"`
	Beta      float64 `env:"VLSENS_BETA"`
	Mach      float64 `env:"VLSENS_MACH"`
}

// ApplyEnv overlays the VLSENS_* environment variables that are set.
func ApplyEnv(cfg *Config) error {
	o := envOverlay{
		Kernel:    cfg.Kernel,
		Tolerance: cfg.Tolerance,
		FDStep:    cfg.FDStep,
		DataDir:   cfg.DataDir,
		LogLevel:  cfg.LogLevel,
		Workers:   cfg.Workers,
		Alpha:     cfg.Condition.Alpha,
		Beta:      cfg.Condition.Beta,
		Mach:      cfg.Condition.Mach,
	}
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	cfg.Kernel, cfg.Tolerance, cfg.FDStep = o.Kernel, o.Tolerance, o.FDStep
	cfg.DataDir, cfg.LogLevel, cfg.Workers = o.DataDir, o.LogLevel, o.Workers
	cfg.Condition.Alpha, cfg.Condition.Beta, cfg.Condition.Mach = o.Alpha, o.Beta, o.Mach
	return nil
}

func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Resolve loads path over the defaults (or the defaults alone when path is
// empty), applies the environment and validates the result.
func Resolve(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return nil, err
		}
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
