package core

import (
	"reflect"
	"slices"
	"testing"
)

func sample() Stack[int] {
	return NewStack(1, []int{2, 3, 4}, []int{5, 6, 7})
}

func clone(s Stack[int]) Stack[int] {
	return NewStack(s.Focus, slices.Clone(s.Up), slices.Clone(s.Down))
}

func TestStack_Integrate(t *testing.T) {
	got := sample().Integrate()
	want := []int{4, 3, 2, 1, 5, 6, 7}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Integrate() = %v, want %v", got, want)
	}

	if got := StackOf(9).Integrate(); !reflect.DeepEqual(got, []int{9}) {
		t.Fatalf("StackOf(9).Integrate() = %v, want [9]", got)
	}
}

func TestStack_Add(t *testing.T) {
	s := NewStack(1, []int{2}, []int{3})
	got := s.Add(9)

	if got.Focus != 9 {
		t.Fatalf("focus = %d, want 9", got.Focus)
	}
	if want := []int{2, 9, 3, 1}; !reflect.DeepEqual(got.Integrate(), want) {
		t.Fatalf("Integrate() = %v, want %v", got.Integrate(), want)
	}
	if got.Len() != s.Len()+1 {
		t.Fatalf("Len() = %d, want %d", got.Len(), s.Len()+1)
	}
	for _, x := range s.Integrate() {
		if !got.Contains(x) {
			t.Fatalf("Add dropped %d", x)
		}
	}
	if !got.Contains(9) {
		t.Fatal("Add did not track the new element")
	}
}

func TestStack_Filter(t *testing.T) {
	even := func(x int) bool { return x%2 == 0 }

	tests := []struct {
		name      string
		stack     Stack[int]
		keep      func(int) bool
		wantOK    bool
		wantFocus int
		want      []int
	}{
		{
			name:      "focus or below wins",
			stack:     sample(),
			keep:      even,
			wantOK:    true,
			wantFocus: 6,
			want:      []int{4, 2, 6},
		},
		{
			name:      "falls back to first kept above",
			stack:     NewStack(1, []int{2, 4}, []int{3}),
			keep:      even,
			wantOK:    true,
			wantFocus: 2,
			want:      []int{4, 2},
		},
		{
			name:      "keeps focus when it matches",
			stack:     NewStack(2, []int{1}, []int{3, 4}),
			keep:      even,
			wantOK:    true,
			wantFocus: 2,
			want:      []int{2, 4},
		},
		{
			name:   "nothing survives",
			stack:  NewStack(1, []int{3}, []int{5}),
			keep:   even,
			wantOK: false,
		},
		{
			name:      "keep everything",
			stack:     sample(),
			keep:      func(int) bool { return true },
			wantOK:    true,
			wantFocus: 1,
			want:      []int{4, 3, 2, 1, 5, 6, 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.stack.Filter(tt.keep)
			if ok != tt.wantOK {
				t.Fatalf("Filter ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Focus != tt.wantFocus {
				t.Errorf("focus = %d, want %d", got.Focus, tt.wantFocus)
			}
			if !reflect.DeepEqual(got.Integrate(), tt.want) {
				t.Errorf("Integrate() = %v, want %v", got.Integrate(), tt.want)
			}
		})
	}
}

func TestStack_FocusNavigation(t *testing.T) {
	tests := []struct {
		name      string
		stack     Stack[int]
		move      func(Stack[int]) Stack[int]
		wantFocus int
	}{
		{"up from middle", NewStack(1, []int{2, 3}, []int{4, 5}), Stack[int].FocusUp, 2},
		{"up wraps to bottom", NewStack(1, nil, []int{2, 3}), Stack[int].FocusUp, 3},
		{"up on single", StackOf(1), Stack[int].FocusUp, 1},
		{"down from middle", NewStack(1, []int{2, 3}, []int{4, 5}), Stack[int].FocusDown, 4},
		{"down wraps to top", NewStack(1, []int{2, 3}, nil), Stack[int].FocusDown, 3},
		{"down on single", StackOf(1), Stack[int].FocusDown, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.move(tt.stack)
			if got.Focus != tt.wantFocus {
				t.Errorf("focus = %d, want %d", got.Focus, tt.wantFocus)
			}
			if !reflect.DeepEqual(got.Integrate(), tt.stack.Integrate()) {
				t.Errorf("order changed: %v -> %v", tt.stack.Integrate(), got.Integrate())
			}
		})
	}
}

func TestStack_FocusUpDownRoundTrip(t *testing.T) {
	stacks := []Stack[int]{
		StackOf(1),
		sample(),
		NewStack(1, nil, []int{2, 3}),
		NewStack(1, []int{2, 3}, nil),
		NewStack(1, []int{2}, []int{3}),
	}

	for _, s := range stacks {
		if got := s.FocusUp().FocusDown(); !got.Equal(s) {
			t.Errorf("%v: FocusUp().FocusDown() = %v", s, got)
		}
		if got := s.FocusDown().FocusUp(); !got.Equal(s) {
			t.Errorf("%v: FocusDown().FocusUp() = %v", s, got)
		}
	}
}

func TestStack_FocusUpCyclesThroughEveryElement(t *testing.T) {
	s := sample()
	seen := map[int]bool{}
	cur := s
	for i := 0; i < s.Len(); i++ {
		seen[cur.Focus] = true
		cur = cur.FocusUp()
	}
	if len(seen) != s.Len() {
		t.Fatalf("visited %d elements, want %d", len(seen), s.Len())
	}
	if cur.Focus != s.Focus {
		t.Fatalf("after a full cycle focus = %d, want %d", cur.Focus, s.Focus)
	}
}

func TestStack_Swap(t *testing.T) {
	tests := []struct {
		name string
		got  Stack[int]
		want []int
	}{
		{"up", NewStack(1, []int{2, 3}, []int{4}).SwapUp(), []int{3, 1, 2, 4}},
		{"up wraps", NewStack(1, nil, []int{2, 3}).SwapUp(), []int{2, 3, 1}},
		{"down", NewStack(1, []int{2}, []int{3, 4}).SwapDown(), []int{2, 3, 1, 4}},
		{"down wraps", NewStack(1, []int{2, 3}, nil).SwapDown(), []int{1, 3, 2}},
		{"master", NewStack(1, []int{2, 3, 4}, []int{5}).SwapMaster(), []int{1, 3, 2, 4, 5}},
		{"master from second", NewStack(1, []int{2}, []int{3}).SwapMaster(), []int{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got.Focus != 1 {
				t.Errorf("focus = %d, want 1", tt.got.Focus)
			}
			if !reflect.DeepEqual(tt.got.Integrate(), tt.want) {
				t.Errorf("Integrate() = %v, want %v", tt.got.Integrate(), tt.want)
			}
		})
	}
}

func TestStack_SwapMasterKeepsUpEmpty(t *testing.T) {
	got := sample().SwapMaster()
	if len(got.Up) != 0 {
		t.Fatalf("Up = %v, want empty", got.Up)
	}
	if want := []int{3, 2, 4, 5, 6, 7}; !reflect.DeepEqual(got.Down, want) {
		t.Fatalf("Down = %v, want %v", got.Down, want)
	}
}

func TestStack_SwapMasterNoopAtTop(t *testing.T) {
	for _, s := range []Stack[int]{StackOf(1), NewStack(1, nil, []int{2, 3})} {
		if got := s.SwapMaster(); !got.Equal(s) {
			t.Errorf("SwapMaster(%v) = %v, want unchanged", s, got)
		}
	}
}

func TestStack_SwapUpDownRoundTrip(t *testing.T) {
	s := NewStack(1, []int{2, 3}, []int{4, 5})
	if got := s.SwapUp().SwapDown(); !got.Equal(s) {
		t.Fatalf("SwapUp().SwapDown() = %v, want %v", got, s)
	}
}

func TestStack_ReverseIsInvolution(t *testing.T) {
	for _, s := range []Stack[int]{StackOf(1), sample(), NewStack(1, nil, []int{2})} {
		if got := s.Reverse().Reverse(); !got.Equal(s) {
			t.Errorf("Reverse().Reverse() = %v, want %v", got, s)
		}
	}

	r := sample().Reverse()
	if !reflect.DeepEqual(r.Up, []int{5, 6, 7}) || !reflect.DeepEqual(r.Down, []int{2, 3, 4}) {
		t.Fatalf("Reverse() = %v", r)
	}
}

func TestStack_LenContains(t *testing.T) {
	s := sample()
	if s.Len() != 7 {
		t.Fatalf("Len() = %d, want 7", s.Len())
	}
	if s.IsEmpty() {
		t.Fatal("IsEmpty() = true for a populated stack")
	}
	for _, x := range []int{1, 2, 4, 5, 7} {
		if !s.Contains(x) {
			t.Errorf("Contains(%d) = false", x)
		}
	}
	if s.Contains(8) {
		t.Error("Contains(8) = true")
	}
}

func TestStack_OperationsLeaveReceiverUntouched(t *testing.T) {
	ops := map[string]func(Stack[int]) Stack[int]{
		"Add":        func(s Stack[int]) Stack[int] { return s.Add(42) },
		"FocusUp":    Stack[int].FocusUp,
		"FocusDown":  Stack[int].FocusDown,
		"SwapUp":     Stack[int].SwapUp,
		"SwapDown":   Stack[int].SwapDown,
		"SwapMaster": Stack[int].SwapMaster,
		"Filter": func(s Stack[int]) Stack[int] {
			out, _ := s.Filter(func(x int) bool { return x != 5 })
			return out
		},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			s := sample()
			before := clone(s)
			next := op(s)
			// Writing through the result must not reach the receiver.
			if len(next.Up) > 0 {
				next.Up[0] = -1
			}
			if len(next.Down) > 0 {
				next.Down[0] = -1
			}
			if !s.Equal(before) {
				t.Fatalf("%s changed its receiver: %v -> %v", name, before, s)
			}
		})
	}
}
