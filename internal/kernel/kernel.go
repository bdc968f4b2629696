// Package kernel defines the entry points a vortex-lattice kernel exposes
// to the solver layer.
//
// A kernel is bound to one state.Arena when it is constructed and keeps all
// of its state there: geometry, solution, and the forward and reverse
// derivative seeds. Entry points are synchronous and are never called
// concurrently on the same kernel.
package kernel

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/san-kum/vlsens/internal/state"
)

var (
	// ErrNoGeometry indicates an evaluation before any surface was committed.
	ErrNoGeometry = errors.New("kernel: no geometry loaded")

	// ErrNotConverged indicates the primal solve missed its tolerance.
	ErrNotConverged = errors.New("kernel: solve did not converge")

	// ErrSingular indicates a singular influence matrix.
	ErrSingular = errors.New("kernel: singular system")

	// ErrUnknownKernel indicates a factory name that was never registered.
	ErrUnknownKernel = errors.New("kernel: unknown kernel")
)

// Kernel is the contract of an external vortex-lattice kernel.
//
// The primal chain UpdateSurfaces, Residual, VelocitySum, Aero re-evaluates
// the outputs from the current state without solving. The D variants
// propagate the forward seed store through the same chain; the B variants
// propagate the reverse seed store backwards and accumulate into input
// seeds.
type Kernel interface {
	Name() string
	Reset() error

	MakeSurface(isurf int) error
	DuplicateSurface(isurf int, ydup float64) error
	MakeBody(ibody int) error
	DuplicateBody(ibody int, ydup float64) error
	UpdateSurfaces() error
	UpdateBodies() error

	Execute(tol float64) error

	Residual() error
	VelocitySum() error
	Aero() error

	UpdateSurfacesD() error
	ResidualD() error
	VelocitySumD() error
	AeroD() error

	AeroB() error
	VelocitySumB() error
	ResidualB() error
	UpdateSurfacesB() error

	// SolveAdjoint solves the transposed system for the GAM reverse seed and
	// writes the result to the RES reverse seed. With stab or consurf set it
	// does the same for GAM_U into RES_U and GAM_D into RES_D.
	SolveAdjoint(stab, consurf bool) error
}

// Factory builds a kernel bound to an arena.
type Factory func(a *state.Arena) Kernel

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register makes a kernel available by name.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = f
}

// New builds the named kernel over a.
func New(name string, a *state.Arena) (Kernel, error) {
	mu.RLock()
	f, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKernel, name)
	}
	return f(a), nil
}

// List returns the registered kernel names.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
