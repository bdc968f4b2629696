// Package state holds the kernel-facing state of a solver instance.
//
// Every piece of kernel state is a named variable inside a block. The set of
// variables is closed and declared at compile time in the registry table; a
// variable has a maximum shape, an element kind and, when it is
// differentiable, a shadow in each of the two seed stores.
//
// Storage is column-major (the kernel's native layout) while every Value seen
// by callers is row-major. The Store converts on each read and write.
package state
