package core

import (
	"reflect"
	"testing"
)

func TestScreen_Forwarding(t *testing.T) {
	ws := NewWorkspace[uint32](0, "foo", nil).Add(1).Add(2)
	s := NewScreen(ws, 2, NewRectangle(0, 0, 1920, 1080))

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if !s.Contains(1) || s.Contains(3) {
		t.Fatal("Contains does not follow the workspace")
	}
	if want := []uint32{2, 1}; !reflect.DeepEqual(s.Windows(), want) {
		t.Fatalf("Windows() = %v, want %v", s.Windows(), want)
	}
}

func TestScreen_MapPreservesBinding(t *testing.T) {
	bounds := NewRectangle(1920, 0, 1280, 1024)
	s := NewScreen(NewWorkspace[uint32](0, "foo", nil).Add(1).Add(2), 5, bounds)

	check := func(name string, got Screen[uint32]) {
		t.Helper()
		if got.ID != 5 || got.Bounds != bounds {
			t.Errorf("%s: binding changed to id=%d bounds=%v", name, got.ID, got.Bounds)
		}
	}

	up := s.Map(Stack[uint32].FocusUp)
	check("Map", up)
	if w, _ := up.Workspace.Peek(); w != 1 {
		t.Errorf("Map(FocusUp) focus = %d, want 1", w)
	}

	gone := s.MapOption(func(Stack[uint32]) (Stack[uint32], bool) { return Stack[uint32]{}, false })
	check("MapOption", gone)
	if gone.Len() != 0 {
		t.Errorf("MapOption discard Len() = %d, want 0", gone.Len())
	}

	seeded := gone.MapOr(StackOf[uint32](9), Stack[uint32].SwapMaster)
	check("MapOr", seeded)
	if want := []uint32{9}; !reflect.DeepEqual(seeded.Windows(), want) {
		t.Errorf("MapOr Windows() = %v, want %v", seeded.Windows(), want)
	}

	added := s.MapWorkspace(func(w Workspace[uint32]) Workspace[uint32] { return w.Add(3) })
	check("MapWorkspace", added)
	if added.Len() != 3 {
		t.Errorf("MapWorkspace Len() = %d, want 3", added.Len())
	}
	if s.Len() != 2 {
		t.Errorf("original screen changed: Len() = %d", s.Len())
	}
}

func TestScreen_WithBounds(t *testing.T) {
	s := NewScreen(NewWorkspace[uint32](1, "a", nil).Add(4), 0, NewRectangle(0, 0, 800, 600))
	r := NewRectangle(0, 0, 1024, 768)
	got := s.WithBounds(r)
	if got.Bounds != r || got.ID != 0 || got.Len() != 1 {
		t.Fatalf("WithBounds = %+v", got)
	}
}
