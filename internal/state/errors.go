package state

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownVariable indicates a (block, name) pair the registry does not declare.
	ErrUnknownVariable = errors.New("state: unknown variable")

	// ErrShapeMismatch indicates a value whose shape disagrees with the slice extent.
	ErrShapeMismatch = errors.New("state: shape mismatch")

	// ErrTypeMismatch indicates a value whose element kind disagrees with the variable.
	ErrTypeMismatch = errors.New("state: type mismatch")

	// ErrSliceBounds indicates a slice reaching outside the declared maximum shape.
	ErrSliceBounds = errors.New("state: slice outside declared shape")

	// ErrNotDifferentiable indicates a seed access on a variable without a shadow.
	ErrNotDifferentiable = errors.New("state: variable is not differentiable")
)

// AccessError carries the variable and slice of a failed read or write.
type AccessError struct {
	Op    string
	Var   Var
	Slice Slice
	Err   error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("%s %s%s: %v", e.Op, e.Var, e.Slice, e.Err)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}
