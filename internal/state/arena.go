package state

import (
	"fmt"

	"github.com/google/uuid"
)

// Direction selects one of the two seed stores.
type Direction int

const (
	Forward Direction = iota
	Reverse
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// ArenaRegion names one store of an Arena and its allocated size.
type ArenaRegion struct {
	Name string
	Size int
}

// Arena owns the complete kernel state of one solver instance: the primal
// store and the forward and reverse seed stores. Two arenas never share
// backing arrays, so independent instances cannot observe each other.
type Arena struct {
	id     uuid.UUID
	primal *Store
	seeds  [2]*Store
}

// NewArena allocates a fresh, zeroed arena.
func NewArena() *Arena {
	return &Arena{
		id:     uuid.New(),
		primal: NewStore(),
		seeds:  [2]*Store{newSeedStore(), newSeedStore()},
	}
}

// ID identifies the allocation.
func (a *Arena) ID() uuid.UUID { return a.id }

// Primal is the store holding kernel values.
func (a *Arena) Primal() *Store { return a.primal }

// Seeds is the derivative store for one direction.
func (a *Arena) Seeds(d Direction) *Store {
	if d != Forward && d != Reverse {
		panic(fmt.Sprintf("state: invalid direction %d", int(d)))
	}
	return a.seeds[d]
}

// Clone returns a deep copy under a new identity.
func (a *Arena) Clone() *Arena {
	return &Arena{
		id:     uuid.New(),
		primal: a.primal.Clone(),
		seeds:  [2]*Store{a.seeds[Forward].Clone(), a.seeds[Reverse].Clone()},
	}
}

// Restore replaces the contents of a with a copy of snap, keeping a's identity.
func (a *Arena) Restore(snap *Arena) {
	a.primal.CopyFrom(snap.primal)
	a.seeds[Forward].CopyFrom(snap.seeds[Forward])
	a.seeds[Reverse].CopyFrom(snap.seeds[Reverse])
}

// Reset zeroes every store.
func (a *Arena) Reset() {
	a.primal.Clear()
	a.seeds[Forward].Clear()
	a.seeds[Reverse].Clear()
}

// Regions reports the allocated size of each store.
func (a *Arena) Regions() []ArenaRegion {
	return []ArenaRegion{
		{Name: "primal", Size: a.primal.Allocated()},
		{Name: "forward", Size: a.seeds[Forward].Allocated()},
		{Name: "reverse", Size: a.seeds[Reverse].Allocated()},
	}
}
