// Package refvlm is a small lifting-strip kernel that implements the
// kernel contract entirely inside a state.Arena.
//
// Each surface contributes one strip per pair of adjacent sections and one
// bound vortex per strip. The strip circulations solve
//
//	A(x) GAM = b(x, CONVAL)
//
// where A couples a section lift-curve term with a smeared induced-angle
// kernel. The tangent (D) and adjoint (B) entry points are exact
// derivatives of the primal chain.
package refvlm

import (
	"math"

	"github.com/san-kum/vlsens/internal/kernel"
	"github.com/san-kum/vlsens/internal/state"
)

// Name is the registry name of this kernel.
const Name = "refvlm"

const deg2rad = math.Pi / 180

// Constraint slots of CONVAL.
const (
	ConAlpha = iota
	ConBeta
	ConRoll
	ConPitch
	ConYaw
	ConControl0 // first control deflection
)

// Parameter slots of PARVAL used by the kernel.
const (
	ParCD0 = 6
)

// Trim target codes stored in ICON.
const (
	TargetNone = iota
	TargetCL
	TargetCM
	TargetCR
)

func init() {
	kernel.Register(Name, func(a *state.Arena) kernel.Kernel { return New(a) })
}

// Kernel is the reference kernel bound to one arena.
type Kernel struct {
	a *state.Arena
	p *state.Store
}

var _ kernel.Kernel = (*Kernel)(nil)

// New binds a kernel to a.
func New(a *state.Arena) *Kernel {
	return &Kernel{a: a, p: a.Primal()}
}

func (k *Kernel) Name() string { return Name }

func (k *Kernel) fwd() *state.Store { return k.a.Seeds(state.Forward) }
func (k *Kernel) rev() *state.Store { return k.a.Seeds(state.Reverse) }

// Reset clears every store.
func (k *Kernel) Reset() error {
	k.a.Reset()
	return nil
}

func (k *Kernel) nvor() int     { return k.p.GetInt(state.NVor) }
func (k *Kernel) ncontrol() int { return k.p.GetInt(state.NControl) }

// uo and do index the column-major [NUMAX,NVMAX] and [NDMAX,NVMAX] arrays.
func uo(iu, j int) int { return iu + state.NUMAX*j }
func do(d, j int) int  { return d + state.NDMAX*j }

// stripVars are the raw strip arrays of one store.
type stripVars struct {
	chord, w, x, y, z, phi, ainc, claf []float64
}

func stripsOf(s *state.Store) stripVars {
	return stripVars{
		chord: s.Raw(state.ChordS),
		w:     s.Raw(state.WStrip),
		x:     s.Raw(state.XQC),
		y:     s.Raw(state.YMid),
		z:     s.Raw(state.ZMid),
		phi:   s.Raw(state.Phi),
		ainc:  s.Raw(state.AInc),
		claf:  s.Raw(state.ClafS),
	}
}

// refs holds the reference quantities of one store.
type refs struct {
	s, c, b float64
}

func refsOf(s *state.Store) refs {
	return refs{s.Get(state.Sref), s.Get(state.Cref), s.Get(state.Bref)}
}
