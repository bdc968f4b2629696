package state

import (
	"fmt"
	"slices"
)

// Store is one copy of the kernel state: the primal values or one direction
// of derivative seeds. Variables are allocated on first write; an
// unallocated variable reads as zero.
type Store struct {
	seed bool
	nums [numVars][]float64
	strs [numVars][]string
}

// NewStore returns an empty primal store.
func NewStore() *Store {
	return &Store{}
}

func newSeedStore() *Store {
	return &Store{seed: true}
}

// IsSeed reports whether the store holds derivative seeds.
func (s *Store) IsSeed() bool { return s.seed }

func (s *Store) check(op string, v Var, sl Slice) (Descriptor, region, error) {
	if !v.Valid() {
		return Descriptor{}, region{}, &AccessError{Op: op, Var: v, Slice: sl, Err: ErrUnknownVariable}
	}
	d := table[v]
	if s.seed && !d.Diff {
		return d, region{}, &AccessError{Op: op, Var: v, Slice: sl, Err: ErrNotDifferentiable}
	}
	r, err := sl.resolve(d)
	if err != nil {
		return d, region{}, &AccessError{Op: op, Var: v, Slice: sl, Err: err}
	}
	return d, r, nil
}

// Read returns the selected region as a row-major Value. A region holding a
// single element is returned as a scalar.
func (s *Store) Read(v Var, sl Slice) (Value, error) {
	d, r, err := s.check("read", v, sl)
	if err != nil {
		return Value{}, err
	}
	n := r.size()
	out := Value{kind: d.Kind, shape: slices.Clone(r.shape)}
	if n == 1 {
		out.shape = nil
	}
	if d.Kind == KindString {
		out.strs = make([]string, n)
		if src := s.strs[v]; src != nil {
			r.walk(d, func(i, off int) { out.strs[i] = src[off] })
		}
		return out, nil
	}
	out.nums = make([]float64, n)
	if src := s.nums[v]; src != nil {
		r.walk(d, func(i, off int) { out.nums[i] = src[off] })
	}
	return out, nil
}

func (s *Store) conform(op string, v Var, sl Slice, d Descriptor, r region, val Value) error {
	if val.kind != d.Kind {
		return &AccessError{Op: op, Var: v, Slice: sl,
			Err: fmt.Errorf("%w: %s value for %s variable", ErrTypeMismatch, val.kind, d.Kind)}
	}
	if d.Kind == KindString {
		for _, str := range val.strs {
			if len(str) > d.Width {
				return &AccessError{Op: op, Var: v, Slice: sl,
					Err: fmt.Errorf("%w: %q longer than %d", ErrShapeMismatch, str, d.Width)}
			}
		}
	}
	if r.size() == 1 && val.Len() == 1 {
		return nil
	}
	if !slices.Equal(val.shape, r.shape) {
		return &AccessError{Op: op, Var: v, Slice: sl,
			Err: fmt.Errorf("%w: value shape %v, slice extent %v", ErrShapeMismatch, val.shape, r.shape)}
	}
	return nil
}

// Write overwrites the selected region with val.
func (s *Store) Write(v Var, val Value, sl Slice) error {
	d, r, err := s.check("write", v, sl)
	if err != nil {
		return err
	}
	if err := s.conform("write", v, sl, d, r, val); err != nil {
		return err
	}
	if d.Kind == KindString {
		dst := s.strings(v)
		r.walk(d, func(i, off int) { dst[off] = val.strs[i] })
		return nil
	}
	dst := s.Raw(v)
	r.walk(d, func(i, off int) { dst[off] = val.nums[i] })
	return nil
}

// Fill broadcasts a scalar over the selected region.
func (s *Store) Fill(v Var, val Value, sl Slice) error {
	d, r, err := s.check("fill", v, sl)
	if err != nil {
		return err
	}
	if val.kind != d.Kind {
		return &AccessError{Op: "fill", Var: v, Slice: sl,
			Err: fmt.Errorf("%w: %s value for %s variable", ErrTypeMismatch, val.kind, d.Kind)}
	}
	if val.Len() != 1 {
		return &AccessError{Op: "fill", Var: v, Slice: sl,
			Err: fmt.Errorf("%w: fill needs a scalar, got shape %v", ErrShapeMismatch, val.shape)}
	}
	if d.Kind == KindString {
		dst := s.strings(v)
		r.walk(d, func(_, off int) { dst[off] = val.strs[0] })
		return nil
	}
	dst := s.Raw(v)
	r.walk(d, func(_, off int) { dst[off] = val.nums[0] })
	return nil
}

// Accumulate adds scale*val into the selected region of a real variable.
func (s *Store) Accumulate(v Var, val Value, sl Slice, scale float64) error {
	d, r, err := s.check("accumulate", v, sl)
	if err != nil {
		return err
	}
	if d.Kind != KindReal {
		return &AccessError{Op: "accumulate", Var: v, Slice: sl,
			Err: fmt.Errorf("%w: accumulate on %s variable", ErrTypeMismatch, d.Kind)}
	}
	if err := s.conform("accumulate", v, sl, d, r, val); err != nil {
		return err
	}
	dst := s.Raw(v)
	r.walk(d, func(i, off int) { dst[off] += scale * val.nums[i] })
	return nil
}

// Raw returns the column-major backing array of a numeric variable,
// allocating it on first use. It panics on a variable the store cannot hold.
func (s *Store) Raw(v Var) []float64 {
	d := table[v]
	if d.Kind == KindString || (s.seed && !d.Diff) {
		panic(fmt.Sprintf("state: no numeric storage for %s", v))
	}
	if s.nums[v] == nil {
		s.nums[v] = make([]float64, d.Size())
	}
	return s.nums[v]
}

func (s *Store) strings(v Var) []string {
	if s.strs[v] == nil {
		s.strs[v] = make([]string, table[v].Size())
	}
	return s.strs[v]
}

// Get reads one numeric element at a row-major index.
func (s *Store) Get(v Var, idx ...int) float64 {
	src := s.nums[v]
	if src == nil {
		return 0
	}
	return src[table[v].Offset(idx...)]
}

// Set writes one numeric element at a row-major index.
func (s *Store) Set(v Var, x float64, idx ...int) {
	s.Raw(v)[table[v].Offset(idx...)] = x
}

// GetInt reads one integer element.
func (s *Store) GetInt(v Var, idx ...int) int { return int(s.Get(v, idx...)) }

// GetBool reads one logical element.
func (s *Store) GetBool(v Var, idx ...int) bool { return s.Get(v, idx...) != 0 }

// SetBool writes one logical element.
func (s *Store) SetBool(v Var, b bool, idx ...int) { s.Set(v, b2f(b), idx...) }

// GetString reads one string element.
func (s *Store) GetString(v Var, idx ...int) string {
	src := s.strs[v]
	if src == nil {
		return ""
	}
	return src[table[v].Offset(idx...)]
}

// ClearVar zeroes one variable.
func (s *Store) ClearVar(v Var) {
	if src := s.nums[v]; src != nil {
		clear(src)
	}
	if src := s.strs[v]; src != nil {
		clear(src)
	}
}

// Clear zeroes every variable.
func (s *Store) Clear() {
	for v := Var(0); v < numVars; v++ {
		s.ClearVar(v)
	}
}

// NonZero lists the variables holding at least one non-zero element.
func (s *Store) NonZero() []Var {
	var out []Var
	for v := Var(0); v < numVars; v++ {
		if slices.ContainsFunc(s.nums[v], func(x float64) bool { return x != 0 }) ||
			slices.ContainsFunc(s.strs[v], func(x string) bool { return x != "" }) {
			out = append(out, v)
		}
	}
	return out
}

// IsZero reports whether every variable is zero.
func (s *Store) IsZero() bool {
	return len(s.NonZero()) == 0
}

// Equal compares two stores element by element; unallocated variables
// compare equal to zeroed ones.
func (s *Store) Equal(o *Store) bool {
	for v := Var(0); v < numVars; v++ {
		if !numsEqual(s.nums[v], o.nums[v]) || !strsEqual(s.strs[v], o.strs[v]) {
			return false
		}
	}
	return true
}

// Diff lists the variables whose contents differ between two stores.
func (s *Store) Diff(o *Store) []Var {
	var out []Var
	for v := Var(0); v < numVars; v++ {
		if !numsEqual(s.nums[v], o.nums[v]) || !strsEqual(s.strs[v], o.strs[v]) {
			out = append(out, v)
		}
	}
	return out
}

func numsEqual(a, b []float64) bool {
	switch {
	case a == nil && b == nil:
		return true
	case a == nil:
		return !slices.ContainsFunc(b, func(x float64) bool { return x != 0 })
	case b == nil:
		return !slices.ContainsFunc(a, func(x float64) bool { return x != 0 })
	}
	return slices.Equal(a, b)
}

func strsEqual(a, b []string) bool {
	switch {
	case a == nil && b == nil:
		return true
	case a == nil:
		return !slices.ContainsFunc(b, func(x string) bool { return x != "" })
	case b == nil:
		return !slices.ContainsFunc(a, func(x string) bool { return x != "" })
	}
	return slices.Equal(a, b)
}

// Clone returns a deep copy.
func (s *Store) Clone() *Store {
	c := &Store{seed: s.seed}
	c.CopyFrom(s)
	return c
}

// CopyFrom replaces the contents of s with a deep copy of o.
func (s *Store) CopyFrom(o *Store) {
	for v := Var(0); v < numVars; v++ {
		s.nums[v] = slices.Clone(o.nums[v])
		s.strs[v] = slices.Clone(o.strs[v])
	}
}

// Allocated is the number of allocated element slots.
func (s *Store) Allocated() int {
	n := 0
	for v := Var(0); v < numVars; v++ {
		n += len(s.nums[v]) + len(s.strs[v])
	}
	return n
}
