package core

// Workspace is a named desktop. It manages no windows when Stack is nil.
type Workspace[T comparable] struct {
	ID    uint32
	Tag   string
	Stack *Stack[T]
}

// NewWorkspace creates a workspace. stack may be nil.
func NewWorkspace[T comparable](id uint32, tag string, stack *Stack[T]) Workspace[T] {
	return Workspace[T]{ID: id, Tag: tag, Stack: stack}
}

// Add focuses a new window, creating the stack if there is none yet.
func (w Workspace[T]) Add(window T) Workspace[T] {
	var next Stack[T]
	if w.Stack == nil {
		next = StackOf(window)
	} else {
		next = w.Stack.Add(window)
	}
	return w.with(&next)
}

// Remove drops window from the workspace. Removing the last window leaves
// the workspace without a stack.
func (w Workspace[T]) Remove(window T) Workspace[T] {
	return w.MapOption(func(s Stack[T]) (Stack[T], bool) {
		return s.Filter(func(t T) bool { return t != window })
	})
}

// Len returns the number of windows on the workspace.
func (w Workspace[T]) Len() int {
	if w.Stack == nil {
		return 0
	}
	return w.Stack.Len()
}

func (w Workspace[T]) IsEmpty() bool {
	return w.Len() == 0
}

// Contains reports whether the workspace manages window.
func (w Workspace[T]) Contains(window T) bool {
	return w.Stack != nil && w.Stack.Contains(window)
}

// Windows returns the managed windows in visual order.
func (w Workspace[T]) Windows() []T {
	if w.Stack == nil {
		return []T{}
	}
	return w.Stack.Integrate()
}

// Peek returns the focused window.
func (w Workspace[T]) Peek() (T, bool) {
	if w.Stack == nil {
		var zero T
		return zero, false
	}
	return w.Stack.Focus, true
}

// Map applies f to the stack. An empty workspace stays empty.
func (w Workspace[T]) Map(f func(Stack[T]) Stack[T]) Workspace[T] {
	if w.Stack == nil {
		return w.with(nil)
	}
	next := f(*w.Stack)
	return w.with(&next)
}

// MapOption applies f to the stack; f reports false to discard it.
func (w Workspace[T]) MapOption(f func(Stack[T]) (Stack[T], bool)) Workspace[T] {
	if w.Stack == nil {
		return w.with(nil)
	}
	next, ok := f(*w.Stack)
	if !ok {
		return w.with(nil)
	}
	return w.with(&next)
}

// MapOr applies f to the stack, or installs def when there is none.
func (w Workspace[T]) MapOr(def Stack[T], f func(Stack[T]) Stack[T]) Workspace[T] {
	if w.Stack == nil {
		return w.with(&def)
	}
	next := f(*w.Stack)
	return w.with(&next)
}

func (w Workspace[T]) with(stack *Stack[T]) Workspace[T] {
	return Workspace[T]{ID: w.ID, Tag: w.Tag, Stack: stack}
}
