// Package solver owns one configuration loaded into a private kernel arena
// and exposes typed access, export, derivative seeds, tangent and adjoint
// propagation, and adjoint sensitivities on top of it.
//
// An Instance is not safe for concurrent use. Distinct instances share no
// state and may be used from different goroutines.
package solver

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/san-kum/vlsens/internal/geom"
	"github.com/san-kum/vlsens/internal/kernel"
	"github.com/san-kum/vlsens/internal/kernel/refvlm"
	"github.com/san-kum/vlsens/internal/slicemap"
	"github.com/san-kum/vlsens/internal/state"
)

// Options configures an instance. Zero fields take their defaults.
type Options struct {
	// Kernel is the registered kernel name.
	Kernel string

	// Tolerance is passed to the kernel's primal solve.
	Tolerance float64

	// FDStep is the default finite-difference step.
	FDStep float64

	// Reader loads airfoil and body coordinate files.
	Reader geom.CoordinateReader

	Logger *slog.Logger
}

// DefaultOptions returns the options used for zero fields.
func DefaultOptions() Options {
	return Options{
		Kernel:    refvlm.Name,
		Tolerance: 2e-5,
		FDStep:    1e-7,
		Reader:    geom.DatReader{},
		Logger:    slog.Default(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Kernel == "" {
		o.Kernel = d.Kernel
	}
	if o.Tolerance <= 0 {
		o.Tolerance = d.Tolerance
	}
	if o.FDStep == 0 {
		o.FDStep = d.FDStep
	}
	if o.Reader == nil {
		o.Reader = d.Reader
	}
	if o.Logger == nil {
		o.Logger = d.Logger
	}
	return o
}

// LoadReport summarizes a load.
type LoadReport struct {
	Warnings []geom.Warning
	Surfaces int
	Bodies   int
}

// Instance is one loaded configuration bound to its own arena and kernel.
type Instance struct {
	arena   *state.Arena
	kern    kernel.Kernel
	maps    *slicemap.Set
	desc    *geom.Aircraft
	report  *LoadReport
	opts    Options
	log     *slog.Logger
	metrics *Metrics
}

// Load validates desc and populates a new instance from it. No kernel state
// is touched when validation fails.
func Load(desc *geom.Aircraft, opts Options) (*Instance, error) {
	opts = opts.withDefaults()
	a := state.NewArena()
	k, err := kernel.New(opts.Kernel, a)
	if err != nil {
		return nil, err
	}
	inst := &Instance{
		arena:   a,
		kern:    k,
		opts:    opts,
		log:     opts.Logger.With(slog.String("instance", a.ID().String())),
		metrics: newMetrics(),
	}
	if err := inst.load(desc); err != nil {
		return nil, err
	}
	return inst, nil
}

// LoadFile reads a YAML description and loads it.
func LoadFile(path string, opts Options) (*Instance, error) {
	desc, err := geom.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(desc, opts)
}

// Reload replaces the configuration with desc. On failure the previous
// state is restored.
func (i *Instance) Reload(desc *geom.Aircraft) error {
	snap := i.arena.Clone()
	maps, old, report := i.maps, i.desc, i.report
	if err := i.load(desc); err != nil {
		i.arena.Restore(snap)
		i.maps, i.desc, i.report = maps, old, report
		i.log.Warn("reload failed, previous configuration restored", slog.Any("error", err))
		return err
	}
	return nil
}

// ID identifies the instance's arena.
func (i *Instance) ID() uuid.UUID { return i.arena.ID() }

// Arena exposes the backing storage.
func (i *Instance) Arena() *state.Arena { return i.arena }

// Report returns the report of the last successful load.
func (i *Instance) Report() *LoadReport { return i.report }

// Metrics returns the instance's counters.
func (i *Instance) Metrics() *Metrics { return i.metrics }

// Options returns the effective options.
func (i *Instance) Options() Options { return i.opts }

// KernelName is the name of the bound kernel.
func (i *Instance) KernelName() string { return i.kern.Name() }

// call runs one kernel entry point and records it.
func (i *Instance) call(entry string, fn func() error) error {
	err := fn()
	status := "ok"
	if err != nil {
		status = "error"
		err = &KernelError{Entry: entry, Err: err}
	}
	i.metrics.KernelCalls.WithLabelValues(entry, status).Inc()
	return err
}

// invalidate marks geometry and solution stale after a primal mutation.
func (i *Instance) invalidate() {
	p := i.arena.Primal()
	p.SetBool(state.LGeo, false)
	p.SetBool(state.LSol, false)
}

// ensureGeometry rebuilds the kernel's derived geometry if a mutation made
// it stale.
func (i *Instance) ensureGeometry() error {
	p := i.arena.Primal()
	if p.GetBool(state.LGeo) {
		return nil
	}
	if err := i.call("update_surfaces", i.kern.UpdateSurfaces); err != nil {
		return err
	}
	return i.call("update_bodies", i.kern.UpdateBodies)
}

// Solved reports whether the circulations solve the current state.
func (i *Instance) Solved() bool { return i.arena.Primal().GetBool(state.LSol) }

// Execute runs the primal solve with the configured tolerance.
func (i *Instance) Execute() error {
	if err := i.call("execute", func() error { return i.kern.Execute(i.opts.Tolerance) }); err != nil {
		return err
	}
	p := i.arena.Primal()
	i.log.Debug("solved",
		slog.Int("iterations", p.GetInt(state.NIter)),
		slog.Float64("CL", p.Get(state.CLTot)),
		slog.Float64("CD", p.Get(state.CDTot)))
	return nil
}

func (i *Instance) surfaceMap(name string) (*slicemap.SurfaceMap, error) {
	m, err := i.maps.Surface(name)
	if err != nil {
		return nil, fmt.Errorf("surface %q: %w", name, err)
	}
	return m, nil
}

func (i *Instance) bodyMap(name string) (*slicemap.BodyMap, error) {
	m, err := i.maps.Body(name)
	if err != nil {
		return nil, fmt.Errorf("body %q: %w", name, err)
	}
	return m, nil
}
