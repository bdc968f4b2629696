package geom

import (
	"errors"
	"fmt"
)

// Description errors.
var (
	// ErrConflictingSpecification indicates two mutually exclusive ways of
	// describing the same thing, such as two airfoil methods on one surface.
	ErrConflictingSpecification = errors.New("geom: conflicting specification")

	// ErrSizeMismatch indicates an array whose length disagrees with the
	// section or attachment count it must follow.
	ErrSizeMismatch = errors.New("geom: size mismatch")

	// ErrRedundantSymmetry indicates a mirror offset on the aircraft's own
	// symmetry plane.
	ErrRedundantSymmetry = errors.New("geom: symmetry declared twice")

	// ErrMissingRequired indicates an absent or empty required attribute.
	ErrMissingRequired = errors.New("geom: missing required attribute")

	// ErrUnsupported indicates a recognised but unsupported attribute or value.
	ErrUnsupported = errors.New("geom: unsupported attribute")

	// ErrCapacityExceeded indicates more entities than the kernel can hold.
	ErrCapacityExceeded = errors.New("geom: capacity exceeded")

	// ErrDuplicateName indicates two entities, images or variables sharing
	// a name.
	ErrDuplicateName = errors.New("geom: duplicate name")
)

// ValidationError locates a description error.
type ValidationError struct {
	Path string
	Key  string
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s.%s: %v", e.Path, e.Key, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(path, key string, err error, format string, args ...any) error {
	return &ValidationError{Path: path, Key: key, Err: fmt.Errorf("%w: "+format, append([]any{err}, args...)...)}
}
