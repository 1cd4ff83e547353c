// Package core holds the window manager state: the focus stack zipper, the
// workspace that owns it and the screen a workspace is shown on.
//
// Every value in this package is treated as immutable. Operations return a
// new value and never write to the slices of their receiver, so a value can
// be handed to another goroutine once it has been published.
package core

import (
	"fmt"
	"slices"
)

// Stack tracks focus for a set of elements. Focus is the focused element,
// Up holds the elements above it (nearest first) and Down the elements below
// it (nearest first). The visual order is reverse(Up), Focus, Down.
//
// A Stack always holds at least one element; an empty set of elements is
// represented by the absence of a Stack.
type Stack[T comparable] struct {
	Focus T
	Up    []T
	Down  []T
}

// NewStack creates a stack with the given focus and tails.
func NewStack[T comparable](focus T, up, down []T) Stack[T] {
	return Stack[T]{Focus: focus, Up: up, Down: down}
}

// StackOf creates a stack holding only t.
func StackOf[T comparable](t T) Stack[T] {
	return Stack[T]{Focus: t}
}

// Add inserts t at the position of the current focus and focuses it. The
// previously focused element moves to the end of Down.
func (s Stack[T]) Add(t T) Stack[T] {
	down := make([]T, 0, len(s.Down)+1)
	down = append(down, s.Down...)
	down = append(down, s.Focus)
	return Stack[T]{Focus: t, Up: slices.Clone(s.Up), Down: down}
}

// Integrate flattens the stack into its visual order.
func (s Stack[T]) Integrate() []T {
	out := make([]T, 0, s.Len())
	for i := len(s.Up) - 1; i >= 0; i-- {
		out = append(out, s.Up[i])
	}
	out = append(out, s.Focus)
	return append(out, s.Down...)
}

// Filter keeps the elements for which keep returns true. The new focus is
// the first kept element out of Focus followed by Down; only when none of
// those survive does focus move to the first kept element of Up. The second
// result is false when nothing survives.
func (s Stack[T]) Filter(keep func(T) bool) (Stack[T], bool) {
	below := make([]T, 0, len(s.Down)+1)
	if keep(s.Focus) {
		below = append(below, s.Focus)
	}
	for _, t := range s.Down {
		if keep(t) {
			below = append(below, t)
		}
	}
	above := make([]T, 0, len(s.Up))
	for _, t := range s.Up {
		if keep(t) {
			above = append(above, t)
		}
	}

	if len(below) > 0 {
		return Stack[T]{Focus: below[0], Up: above, Down: below[1:]}, true
	}
	if len(above) > 0 {
		return Stack[T]{Focus: above[0], Up: above[1:], Down: []T{}}, true
	}
	var zero Stack[T]
	return zero, false
}

// FocusUp moves focus to the element above the current one, wrapping to the
// bottom when the focus is already at the top. The visual order does not
// change.
func (s Stack[T]) FocusUp() Stack[T] {
	if len(s.Up) == 0 {
		// Everything sits in Down; the last element becomes the focus and
		// the rest, nearest first, goes above it.
		all := make([]T, 0, s.Len())
		all = append(all, s.Focus)
		all = append(all, s.Down...)
		slices.Reverse(all)
		return Stack[T]{Focus: all[0], Up: all[1:], Down: []T{}}
	}

	down := make([]T, 0, len(s.Down)+1)
	down = append(down, s.Focus)
	down = append(down, s.Down...)
	return Stack[T]{Focus: s.Up[0], Up: slices.Clone(s.Up[1:]), Down: down}
}

// FocusDown mirrors FocusUp.
func (s Stack[T]) FocusDown() Stack[T] {
	return s.Reverse().FocusUp().Reverse()
}

// SwapUp moves the focused element one slot towards the top, keeping it
// focused. At the top it wraps around: the focused element becomes the last
// one and everything else moves above it.
func (s Stack[T]) SwapUp() Stack[T] {
	if len(s.Up) == 0 {
		up := slices.Clone(s.Down)
		slices.Reverse(up)
		return Stack[T]{Focus: s.Focus, Up: up, Down: []T{}}
	}

	down := make([]T, 0, len(s.Down)+1)
	down = append(down, s.Up[0])
	down = append(down, s.Down...)
	return Stack[T]{Focus: s.Focus, Up: slices.Clone(s.Up[1:]), Down: down}
}

// SwapDown mirrors SwapUp.
func (s Stack[T]) SwapDown() Stack[T] {
	return s.Reverse().SwapUp().Reverse()
}

// SwapMaster moves the focused element into the master slot at the top.
// The element that held the master slot moves directly below the focus,
// followed by the remaining elements that were above the focus and then the
// elements that were below it.
func (s Stack[T]) SwapMaster() Stack[T] {
	if len(s.Up) == 0 {
		return s
	}

	top := len(s.Up) - 1
	down := make([]T, 0, len(s.Up)+len(s.Down))
	for i := top - 1; i >= 0; i-- {
		down = append(down, s.Up[i])
	}
	down = append(down, s.Up[top])
	down = append(down, s.Down...)
	return Stack[T]{Focus: s.Focus, Up: []T{}, Down: down}
}

// Reverse exchanges Up and Down.
func (s Stack[T]) Reverse() Stack[T] {
	return Stack[T]{Focus: s.Focus, Up: s.Down, Down: s.Up}
}

// Len returns the number of tracked elements.
func (s Stack[T]) Len() int {
	return 1 + len(s.Up) + len(s.Down)
}

// IsEmpty reports whether the stack tracks nothing. A stack built through
// this package never is.
func (s Stack[T]) IsEmpty() bool {
	return s.Len() == 0
}

// Contains reports whether t is tracked by the stack.
func (s Stack[T]) Contains(t T) bool {
	return s.Focus == t || slices.Contains(s.Up, t) || slices.Contains(s.Down, t)
}

// Equal reports whether both stacks hold the same focus and tails. A nil
// tail equals an empty one.
func (s Stack[T]) Equal(other Stack[T]) bool {
	return s.Focus == other.Focus &&
		slices.Equal(s.Up, other.Up) &&
		slices.Equal(s.Down, other.Down)
}

func (s Stack[T]) String() string {
	return fmt.Sprintf("%v/%v/%v", s.Up, s.Focus, s.Down)
}
