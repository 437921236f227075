package session

import "unsafe"

// UnsafeCell wraps a value that is only ever touched by the goroutines
// handling its owning session's packets, modeled directly on
// LockfreeMutCell: a thin pointer wrapper with no locking at all. Go's race
// detector and the compiler can't verify single-owner access the way Rust's
// SyncUnsafeCell forces the caller to assert it explicitly with `unsafe`,
// so the methods below are named to carry the same warning.
//
// We trust you have received the usual lecture from the local System
// Administrator. It usually boils down to these three things:
//
//  1. Respect the privacy of others.
//  2. Think before you type.
//  3. With great power comes great responsibility.
//
// Only ever store per-session hot-path state here (e.g. the session's
// current level) that is written and read while handling that session's
// own packets, never state shared across sessions.
type UnsafeCell[T any] struct {
	ptr unsafe.Pointer
}

func NewUnsafeCell[T any](v T) *UnsafeCell[T] {
	val := v
	return &UnsafeCell[T]{ptr: unsafe.Pointer(&val)}
}

// GetUnchecked returns the current value. The caller is responsible for
// ensuring no concurrent SetUnchecked/SwapUnchecked races with this read.
func (c *UnsafeCell[T]) GetUnchecked() T {
	return *(*T)(c.ptr)
}

// SetUnchecked stores v in a fresh allocation and repoints the cell at it,
// leaving the previous value untouched. The caller is responsible for
// ensuring this doesn't race with a concurrent Get/Set/Swap.
func (c *UnsafeCell[T]) SetUnchecked(v T) {
	val := v
	c.ptr = unsafe.Pointer(&val)
}

// SwapUnchecked stores v and returns the previous value.
func (c *UnsafeCell[T]) SwapUnchecked(v T) T {
	old := c.GetUnchecked()
	c.SetUnchecked(v)
	return old
}
