package solver

import (
	"errors"
	"fmt"

	"github.com/san-kum/vlsens/internal/slicemap"
)

var (
	// ErrCommitMismatch indicates kernel state that disagrees with the
	// description after a load.
	ErrCommitMismatch = errors.New("solver: committed state disagrees with description")

	// ErrAdjointPrecondition indicates a sensitivity request without a
	// primal solve of the current state.
	ErrAdjointPrecondition = errors.New("solver: no primal solution for the current state")

	// ErrNotSolved indicates a result read before a primal solve of the
	// current state.
	ErrNotSolved = errors.New("solver: results are stale, run Execute")

	// ErrUnknownName indicates an output, constraint or parameter name that
	// does not exist.
	ErrUnknownName = errors.New("solver: unknown name")

	// ErrNotIndependentlySettable indicates an attribute access on a mirrored entity.
	ErrNotIndependentlySettable = slicemap.ErrNotIndependentlySettable

	// ErrUnknownEntity indicates a surface or body that is not loaded.
	ErrUnknownEntity = slicemap.ErrUnknownEntity

	// ErrUnknownKey indicates an attribute key with no binding.
	ErrUnknownKey = slicemap.ErrUnknownKey
)

// KernelError records the kernel entry point that failed.
type KernelError struct {
	Entry string
	Err   error
}

func (e *KernelError) Error() string {
	return fmt.Sprintf("kernel %s: %v", e.Entry, e.Err)
}

func (e *KernelError) Unwrap() error {
	return e.Err
}
