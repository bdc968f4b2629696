package state

import (
	"fmt"
	"strings"
)

// Range selects part of one dimension. An indexed range drops the dimension
// from the result; a full range covers the whole declared extent.
type Range struct {
	Lo, Hi int
	index  bool
	full   bool
}

// At selects the single index i and drops the dimension.
func At(i int) Range { return Range{Lo: i, Hi: i + 1, index: true} }

// Span selects the half-open interval [lo, hi).
func Span(lo, hi int) Range { return Range{Lo: lo, Hi: hi} }

// All selects the full declared extent.
func All() Range { return Range{full: true} }

// Slice is an ordered list of ranges, one per leading dimension. Dimensions
// without a range are selected in full.
type Slice []Range

// Index is shorthand for a slice of single indices.
func Index(idx ...int) Slice {
	s := make(Slice, len(idx))
	for i, n := range idx {
		s[i] = At(n)
	}
	return s
}

func (s Slice) String() string {
	if len(s) == 0 {
		return ""
	}
	parts := make([]string, len(s))
	for i, r := range s {
		switch {
		case r.full:
			parts[i] = ":"
		case r.index:
			parts[i] = fmt.Sprint(r.Lo)
		default:
			parts[i] = fmt.Sprintf("%d:%d", r.Lo, r.Hi)
		}
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// region is a resolved slice: per-dimension bounds plus the result shape.
type region struct {
	lo, hi []int
	shape  []int
}

func (r region) size() int {
	n := 1
	for i := range r.lo {
		n *= r.hi[i] - r.lo[i]
	}
	return n
}

func (s Slice) resolve(d Descriptor) (region, error) {
	if len(s) > len(d.Shape) {
		return region{}, fmt.Errorf("%w: %d ranges for rank %d", ErrSliceBounds, len(s), len(d.Shape))
	}
	r := region{lo: make([]int, len(d.Shape)), hi: make([]int, len(d.Shape))}
	for i, ext := range d.Shape {
		if i >= len(s) || s[i].full {
			r.lo[i], r.hi[i] = 0, ext
			r.shape = append(r.shape, ext)
			continue
		}
		rg := s[i]
		if rg.Lo < 0 || rg.Hi > ext || rg.Lo > rg.Hi {
			return region{}, fmt.Errorf("%w: dimension %d range %d:%d exceeds %d", ErrSliceBounds, i, rg.Lo, rg.Hi, ext)
		}
		r.lo[i], r.hi[i] = rg.Lo, rg.Hi
		if !rg.index {
			r.shape = append(r.shape, rg.Hi-rg.Lo)
		}
	}
	return r, nil
}

// walk visits the region in row-major order, passing the running element
// number and the column-major storage offset.
func (r region) walk(d Descriptor, fn func(n, off int)) {
	rank := len(r.lo)
	if rank == 0 {
		fn(0, 0)
		return
	}
	if r.size() == 0 {
		return
	}
	idx := make([]int, rank)
	copy(idx, r.lo)
	for n := 0; ; n++ {
		fn(n, d.Offset(idx...))
		k := rank - 1
		for k >= 0 {
			idx[k]++
			if idx[k] < r.hi[k] {
				break
			}
			idx[k] = r.lo[k]
			k--
		}
		if k < 0 {
			return
		}
	}
}
