package core

// Screen is a workspace that is currently visible on a physical output.
type Screen[T comparable] struct {
	Workspace Workspace[T]
	ID        uint32
	Bounds    Rectangle
}

// NewScreen binds workspace to the output id occupying bounds.
func NewScreen[T comparable](workspace Workspace[T], id uint32, bounds Rectangle) Screen[T] {
	return Screen[T]{Workspace: workspace, ID: id, Bounds: bounds}
}

// Contains reports whether the screen's workspace manages window.
func (s Screen[T]) Contains(window T) bool {
	return s.Workspace.Contains(window)
}

// Len returns the number of windows visible on the screen.
func (s Screen[T]) Len() int {
	return s.Workspace.Len()
}

// Windows returns the visible windows in visual order.
func (s Screen[T]) Windows() []T {
	return s.Workspace.Windows()
}

// WithBounds rebinds the screen to a resized output.
func (s Screen[T]) WithBounds(bounds Rectangle) Screen[T] {
	return Screen[T]{Workspace: s.Workspace, ID: s.ID, Bounds: bounds}
}

// MapWorkspace replaces the workspace with f applied to it.
func (s Screen[T]) MapWorkspace(f func(Workspace[T]) Workspace[T]) Screen[T] {
	return s.withWorkspace(f(s.Workspace))
}

// Map applies f to the stack of the screen's workspace.
func (s Screen[T]) Map(f func(Stack[T]) Stack[T]) Screen[T] {
	return s.withWorkspace(s.Workspace.Map(f))
}

// MapOption applies f to the stack of the screen's workspace; f reports
// false to discard it.
func (s Screen[T]) MapOption(f func(Stack[T]) (Stack[T], bool)) Screen[T] {
	return s.withWorkspace(s.Workspace.MapOption(f))
}

// MapOr applies f to the stack of the screen's workspace, or installs def
// when the workspace is empty.
func (s Screen[T]) MapOr(def Stack[T], f func(Stack[T]) Stack[T]) Screen[T] {
	return s.withWorkspace(s.Workspace.MapOr(def, f))
}

func (s Screen[T]) withWorkspace(w Workspace[T]) Screen[T] {
	return Screen[T]{Workspace: w, ID: s.ID, Bounds: s.Bounds}
}
