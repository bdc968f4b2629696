package kernel_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/san-kum/vlsens/internal/kernel"
	"github.com/san-kum/vlsens/internal/kernel/refvlm"
	"github.com/san-kum/vlsens/internal/state"
)

func TestRegistry(t *testing.T) {
	if !slices.Contains(kernel.List(), refvlm.Name) {
		t.Fatalf("List() = %v, missing %q", kernel.List(), refvlm.Name)
	}
	k, err := kernel.New(refvlm.Name, state.NewArena())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if k.Name() != refvlm.Name {
		t.Errorf("Name() = %q", k.Name())
	}
	if _, err := kernel.New("nope", state.NewArena()); !errors.Is(err, kernel.ErrUnknownKernel) {
		t.Errorf("New(nope): got %v, want ErrUnknownKernel", err)
	}
}
