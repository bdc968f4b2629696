package state

import (
	"fmt"
	"slices"
)

// Value is a typed, row-major array or scalar exchanged with a Store.
// Numeric kinds keep their elements in nums; strings in strs.
type Value struct {
	kind  Kind
	shape []int
	nums  []float64
	strs  []string
}

// Real returns a real scalar.
func Real(x float64) Value { return Value{kind: KindReal, nums: []float64{x}} }

// Int returns an integer scalar.
func Int(n int) Value { return Value{kind: KindInt, nums: []float64{float64(n)}} }

// Bool returns a logical scalar.
func Bool(b bool) Value { return Value{kind: KindBool, nums: []float64{b2f(b)}} }

// String returns a string scalar.
func String(s string) Value { return Value{kind: KindString, strs: []string{s}} }

// Reals returns a one-dimensional real array.
func Reals(xs ...float64) Value {
	return Value{kind: KindReal, shape: []int{len(xs)}, nums: slices.Clone(xs)}
}

// Ints returns a one-dimensional integer array.
func Ints(ns ...int) Value {
	v := Value{kind: KindInt, shape: []int{len(ns)}, nums: make([]float64, len(ns))}
	for i, n := range ns {
		v.nums[i] = float64(n)
	}
	return v
}

// Bools returns a one-dimensional logical array.
func Bools(bs ...bool) Value {
	v := Value{kind: KindBool, shape: []int{len(bs)}, nums: make([]float64, len(bs))}
	for i, b := range bs {
		v.nums[i] = b2f(b)
	}
	return v
}

// Strings returns a one-dimensional string array.
func Strings(ss ...string) Value {
	return Value{kind: KindString, shape: []int{len(ss)}, strs: slices.Clone(ss)}
}

// RealArray returns a real array of the given shape from row-major data.
func RealArray(shape []int, data []float64) (Value, error) {
	if n := count(shape); n != len(data) {
		return Value{}, fmt.Errorf("%w: shape %v holds %d elements, got %d", ErrShapeMismatch, shape, n, len(data))
	}
	return Value{kind: KindReal, shape: slices.Clone(shape), nums: slices.Clone(data)}, nil
}

// IntArray returns an integer array of the given shape from row-major data.
func IntArray(shape []int, data []int) (Value, error) {
	if n := count(shape); n != len(data) {
		return Value{}, fmt.Errorf("%w: shape %v holds %d elements, got %d", ErrShapeMismatch, shape, n, len(data))
	}
	v := Value{kind: KindInt, shape: slices.Clone(shape), nums: make([]float64, len(data))}
	for i, n := range data {
		v.nums[i] = float64(n)
	}
	return v, nil
}

// Matrix returns a two-dimensional real array from rows of equal length.
func Matrix(rows [][]float64) (Value, error) {
	if len(rows) == 0 {
		return Value{kind: KindReal, shape: []int{0, 0}}, nil
	}
	w := len(rows[0])
	data := make([]float64, 0, len(rows)*w)
	for i, r := range rows {
		if len(r) != w {
			return Value{}, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShapeMismatch, i, len(r), w)
		}
		data = append(data, r...)
	}
	return Value{kind: KindReal, shape: []int{len(rows), w}, nums: data}, nil
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func count(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

func (v Value) Kind() Kind     { return v.kind }
func (v Value) Shape() []int   { return slices.Clone(v.shape) }
func (v Value) IsScalar() bool { return len(v.shape) == 0 }

// Len is the number of elements.
func (v Value) Len() int {
	if v.kind == KindString {
		return len(v.strs)
	}
	return len(v.nums)
}

// Float returns the first element as a float.
func (v Value) Float() float64 {
	if len(v.nums) == 0 {
		return 0
	}
	return v.nums[0]
}

// Int returns the first element as an int.
func (v Value) Int() int { return int(v.Float()) }

// Bool returns the first element as a bool.
func (v Value) Bool() bool { return v.Float() != 0 }

// Str returns the first string element.
func (v Value) Str() string {
	if len(v.strs) == 0 {
		return ""
	}
	return v.strs[0]
}

// Floats returns the elements in row-major order.
func (v Value) Floats() []float64 { return slices.Clone(v.nums) }

// IntSlice returns the elements as ints in row-major order.
func (v Value) IntSlice() []int {
	out := make([]int, len(v.nums))
	for i, x := range v.nums {
		out[i] = int(x)
	}
	return out
}

// BoolSlice returns the elements as bools in row-major order.
func (v Value) BoolSlice() []bool {
	out := make([]bool, len(v.nums))
	for i, x := range v.nums {
		out[i] = x != 0
	}
	return out
}

// StringSlice returns the string elements in row-major order.
func (v Value) StringSlice() []string { return slices.Clone(v.strs) }

// Rows splits a two-dimensional value into its rows. A one-dimensional value
// is returned as a single row.
func (v Value) Rows() [][]float64 {
	switch len(v.shape) {
	case 0:
		return [][]float64{{v.Float()}}
	case 1:
		return [][]float64{v.Floats()}
	}
	w := count(v.shape[1:])
	out := make([][]float64, v.shape[0])
	for i := range out {
		out[i] = slices.Clone(v.nums[i*w : (i+1)*w])
	}
	return out
}

// Scaled returns a copy of a numeric value multiplied by s.
func (v Value) Scaled(s float64) Value {
	out := Value{kind: v.kind, shape: slices.Clone(v.shape), nums: make([]float64, len(v.nums))}
	for i, x := range v.nums {
		out.nums[i] = s * x
	}
	return out
}

// Equal reports whether two values agree in kind, shape and elements.
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && slices.Equal(v.shape, o.shape) &&
		slices.Equal(v.nums, o.nums) && slices.Equal(v.strs, o.strs)
}

func (v Value) String() string {
	if v.kind == KindString {
		if v.IsScalar() {
			return fmt.Sprintf("%q", v.Str())
		}
		return fmt.Sprintf("%q", v.strs)
	}
	if v.IsScalar() {
		return fmt.Sprintf("%g", v.Float())
	}
	return fmt.Sprintf("%v%v", v.shape, v.nums)
}
