package daemon

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/sabiwm/internal/config"
	"github.com/1broseidon/sabiwm/internal/core"
	"github.com/1broseidon/sabiwm/internal/platform"
)

var errBackendGone = errors.New("backend gone")

type fakeBackend struct {
	mu       sync.Mutex
	windows  map[platform.WindowID]bool
	docks    map[platform.WindowID]bool
	names    map[platform.WindowID]string
	listed   []platform.WindowID
	screens  []core.Rectangle
	geometry map[platform.WindowID]core.Rectangle
	focused  platform.WindowID
	clients  []platform.WindowID
	events   chan platform.Event
}

func newFakeBackend(windows ...platform.WindowID) *fakeBackend {
	f := &fakeBackend{
		windows:  make(map[platform.WindowID]bool),
		docks:    make(map[platform.WindowID]bool),
		names:    make(map[platform.WindowID]string),
		screens:  []core.Rectangle{core.NewRectangle(0, 0, 1000, 500)},
		geometry: make(map[platform.WindowID]core.Rectangle),
		events:   make(chan platform.Event, 16),
	}
	for _, w := range windows {
		f.windows[w] = true
	}
	return f
}

func (f *fakeBackend) IsWindow(w platform.WindowID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.windows[w] || f.docks[w]
}

func (f *fakeBackend) IsDock(w platform.WindowID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docks[w]
}

func (f *fakeBackend) Screens() []core.Rectangle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Rectangle(nil), f.screens...)
}

func (f *fakeBackend) NumberOfScreens() int {
	return len(f.Screens())
}

func (f *fakeBackend) WindowName(w platform.WindowID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name, ok := f.names[w]
	if !ok {
		return "", fmt.Errorf("no name for %d", w)
	}
	return name, nil
}

func (f *fakeBackend) ClassName(w platform.WindowID) (string, error) {
	return "Fake", nil
}

func (f *fakeBackend) Windows() ([]platform.WindowID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]platform.WindowID(nil), f.listed...), nil
}

func (f *fakeBackend) ResizeWindow(w platform.WindowID, width, height uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.geometry[w]
	g.Width, g.Height = width, height
	f.geometry[w] = g
}

func (f *fakeBackend) MoveWindow(w platform.WindowID, x, y int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.geometry[w]
	g.X, g.Y = x, y
	f.geometry[w] = g
}

func (f *fakeBackend) ShowWindow(platform.WindowID) {}
func (f *fakeBackend) HideWindow(platform.WindowID) {}

func (f *fakeBackend) FocusWindow(w platform.WindowID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.focused = w
}

func (f *fakeBackend) Event(ctx context.Context) (platform.Event, error) {
	select {
	case ev, ok := <-f.events:
		if !ok {
			return platform.Event{}, errBackendGone
		}
		return ev, nil
	case <-ctx.Done():
		return platform.Event{}, ctx.Err()
	}
}

func (f *fakeBackend) PublishClients(windows []platform.WindowID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients = windows
}

func (f *fakeBackend) geometryOf(w platform.WindowID) core.Rectangle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.geometry[w]
}

func (f *fakeBackend) focus() platform.WindowID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.focused
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestReconciler(backend *fakeBackend, mutate func(*config.Config)) *Reconciler {
	cfg := config.DefaultConfig()
	cfg.GapSize = 0
	cfg.ReconcileInterval = 0
	if mutate != nil {
		mutate(cfg)
	}
	return NewReconciler(ReconcilerConfig{Config: cfg, Logger: testLogger()}, backend)
}

// startReconciler runs r until the test ends.
func startReconciler(t *testing.T, r *Reconciler) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v", err)
		}
	})
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func assertWindows(t *testing.T, r *Reconciler, want ...platform.WindowID) {
	t.Helper()
	got := r.Workspace().Windows()
	if want == nil {
		want = []platform.WindowID{}
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("windows = %v, want %v", got, want)
	}
}

func TestReconciler_CreateAndClose(t *testing.T) {
	backend := newFakeBackend(7, 9)
	r := newTestReconciler(backend, nil)

	r.Handle(platform.WindowCreated(7))
	assertWindows(t, r, 7)

	r.Handle(platform.WindowCreated(9))
	assertWindows(t, r, 9, 7)
	if focused, _ := r.Snapshot().Focused(); focused != 9 {
		t.Fatalf("expected 9 focused, got %d", focused)
	}
	if backend.focus() != 9 {
		t.Fatalf("backend focus = %d, want 9", backend.focus())
	}

	r.Handle(platform.WindowClosed(9))
	assertWindows(t, r, 7)
	if backend.focus() != 7 {
		t.Fatalf("backend focus = %d, want 7", backend.focus())
	}

	r.Handle(platform.WindowClosed(7))
	assertWindows(t, r)
	if r.Workspace().Stack != nil {
		t.Fatalf("expected empty workspace to drop its stack")
	}
}

func TestReconciler_NewWindowGetsPlacementSize(t *testing.T) {
	backend := newFakeBackend(7)
	r := newTestReconciler(backend, func(c *config.Config) {
		c.Placement = config.Placement{Width: 320, Height: 200}
	})

	r.Handle(platform.WindowCreated(7))

	g := backend.geometryOf(7)
	if g.Width != 320 || g.Height != 200 {
		t.Fatalf("expected 320x200, got %s", g)
	}
}

func TestReconciler_SkipsUnmanageableAndDuplicates(t *testing.T) {
	backend := newFakeBackend(7)
	backend.docks[50] = true
	r := newTestReconciler(backend, nil)

	r.Handle(platform.WindowCreated(99))
	r.Handle(platform.WindowCreated(50))
	r.Handle(platform.WindowCreated(7))
	r.Handle(platform.WindowCreated(7))

	assertWindows(t, r, 7)
	if r.Workspace().Len() != 1 {
		t.Fatalf("expected a single managed window, got %d", r.Workspace().Len())
	}
}

func TestReconciler_DockRefreshesScreens(t *testing.T) {
	backend := newFakeBackend()
	backend.docks[50] = true
	r := newTestReconciler(backend, nil)

	backend.screens = []core.Rectangle{core.NewRectangle(0, 30, 1000, 470)}
	r.Handle(platform.WindowCreated(50))

	if got := r.Snapshot().Screen.Bounds; got != core.NewRectangle(0, 30, 1000, 470) {
		t.Fatalf("bounds = %s after dock appeared", got)
	}

	backend.screens = []core.Rectangle{core.NewRectangle(0, 0, 1000, 500)}
	r.Handle(platform.WindowClosed(50))
	if got := r.Snapshot().Screen.Bounds; got != core.NewRectangle(0, 0, 1000, 500) {
		t.Fatalf("bounds = %s after dock closed", got)
	}
}

func TestReconciler_BackendChangedRebindsScreen(t *testing.T) {
	backend := newFakeBackend()
	r := newTestReconciler(backend, nil)

	backend.screens = []core.Rectangle{
		core.NewRectangle(0, 0, 1920, 1080),
		core.NewRectangle(1920, 0, 1280, 1024),
	}
	r.Handle(platform.BackendChanged())

	st := r.Snapshot()
	if st.Screen.Bounds != core.NewRectangle(0, 0, 1920, 1080) {
		t.Fatalf("bounds = %s", st.Screen.Bounds)
	}
	if len(st.Screens) != 2 {
		t.Fatalf("expected 2 screens in snapshot, got %d", len(st.Screens))
	}

	// Losing every screen keeps the last known bounds.
	backend.screens = nil
	r.Handle(platform.BackendChanged())
	if got := r.Snapshot().Screen.Bounds; got != core.NewRectangle(0, 0, 1920, 1080) {
		t.Fatalf("bounds = %s after screens vanished", got)
	}
}

func TestReconciler_IgnoresOtherEvents(t *testing.T) {
	backend := newFakeBackend(7)
	r := newTestReconciler(backend, nil)
	r.Handle(platform.WindowCreated(7))

	for _, ev := range []platform.Event{
		platform.Unknown(),
		platform.MouseEnter(7),
		platform.MouseLeave(7),
		platform.WindowHid(7),
		platform.WindowRevealed(7),
		platform.ButtonPressed(7, 0),
		platform.ButtonReleased(),
		platform.KeyPressed(7),
	} {
		r.Handle(ev)
	}
	assertWindows(t, r, 7)
}

func TestReconciler_ChangeRequests(t *testing.T) {
	backend := newFakeBackend(7, 9)
	r := newTestReconciler(backend, func(c *config.Config) {
		c.Layouts["halves"] = config.Layout{
			Mode:       config.LayoutModeHorizontal,
			TileRegion: config.TileRegion{Type: config.RegionFull},
		}
	})
	r.Resync()
	r.Handle(platform.WindowCreated(7))

	// Floating windows get what they ask for.
	want := core.NewRectangle(10, 20, 300, 400)
	r.Handle(platform.WindowChangeRequest(7, want))
	if got := backend.geometryOf(7); got != want {
		t.Fatalf("floating request: geometry = %s, want %s", got, want)
	}

	// Unmanaged windows too, whatever the layout.
	if res := r.apply(SetLayout("halves")); res.err != nil {
		t.Fatalf("set layout: %v", res.err)
	}
	r.Handle(platform.WindowChangeRequest(9, want))
	if got := backend.geometryOf(9); got != want {
		t.Fatalf("unmanaged request: geometry = %s, want %s", got, want)
	}

	// Tiled windows are put back where the layout wants them.
	r.Handle(platform.WindowChangeRequest(7, want))
	if got := backend.geometryOf(7); got != core.NewRectangle(0, 0, 1000, 500) {
		t.Fatalf("tiled request: geometry = %s", got)
	}
}

func TestReconciler_ResyncAdoptsExistingWindows(t *testing.T) {
	backend := newFakeBackend(1, 2)
	backend.docks[50] = true
	backend.listed = []platform.WindowID{1, 50, 2, 99}
	r := newTestReconciler(backend, nil)

	r.Resync()

	assertWindows(t, r, 2, 1)
	if !reflect.DeepEqual(backend.clients, []platform.WindowID{2, 1}) {
		t.Fatalf("published clients = %v", backend.clients)
	}
	if r.Snapshot().Screen.Bounds != core.NewRectangle(0, 0, 1000, 500) {
		t.Fatalf("screen not bound: %s", r.Snapshot().Screen.Bounds)
	}
}

func TestReconciler_ReconcileRemovesOrphans(t *testing.T) {
	backend := newFakeBackend(1, 2, 3)
	r := newTestReconciler(backend, nil)
	for _, w := range []platform.WindowID{1, 2, 3} {
		r.Handle(platform.WindowCreated(w))
	}

	backend.listed = []platform.WindowID{1, 3}
	r.reconcile()

	assertWindows(t, r, 3, 1)
	if focused, _ := r.Snapshot().Focused(); focused != 3 {
		t.Fatalf("expected 3 to keep focus, got %d", focused)
	}
}

func TestReconciler_DispatchNavigation(t *testing.T) {
	backend := newFakeBackend(1, 2, 3)
	backend.listed = []platform.WindowID{1, 2, 3}
	r := newTestReconciler(backend, nil)
	startReconciler(t, r)

	// Existing windows are adopted in listing order.
	waitFor(t, "adoption", func() bool { return r.Workspace().Len() == 3 })
	assertWindows(t, r, 3, 1, 2)

	ctx := context.Background()
	steps := []struct {
		cmd     Command
		windows []platform.WindowID
		focused platform.WindowID
	}{
		{FocusDown(), []platform.WindowID{3, 1, 2}, 1},
		{SwapMaster(), []platform.WindowID{1, 3, 2}, 1},
		{SwapDown(), []platform.WindowID{3, 1, 2}, 1},
		{FocusUp(), []platform.WindowID{3, 1, 2}, 3},
		{SwapUp(), []platform.WindowID{1, 2, 3}, 3},
	}
	for _, step := range steps {
		if err := r.Dispatch(ctx, step.cmd); err != nil {
			t.Fatalf("%s: %v", step.cmd.Kind, err)
		}
		assertWindows(t, r, step.windows...)
		if focused, _ := r.Snapshot().Focused(); focused != step.focused {
			t.Fatalf("%s: focused = %d, want %d", step.cmd.Kind, focused, step.focused)
		}
		if backend.focus() != step.focused {
			t.Fatalf("%s: backend focus = %d, want %d", step.cmd.Kind, backend.focus(), step.focused)
		}
	}
}

func TestReconciler_PostAppliesInOrder(t *testing.T) {
	for i := 0; i < 50; i++ {
		backend := newFakeBackend(1, 2, 3)
		backend.listed = []platform.WindowID{1, 2, 3}
		r := newTestReconciler(backend, nil)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- r.Run(ctx) }()

		waitFor(t, "adoption", func() bool { return r.Workspace().Len() == 3 })
		assertWindows(t, r, 3, 1, 2)

		// Applied in reverse, SwapMaster is a no-op and the order stays 3,1,2.
		r.Post(FocusDown())
		r.Post(SwapMaster())
		waitFor(t, "posted commands", func() bool {
			return reflect.DeepEqual(r.Workspace().Windows(), []platform.WindowID{1, 3, 2})
		})
		if focused, _ := r.Snapshot().Focused(); focused != 1 {
			t.Fatalf("focused = %d, want 1", focused)
		}

		cancel()
		<-done
	}
}

func TestReconciler_PostAfterStopIsDropped(t *testing.T) {
	backend := newFakeBackend()
	r := newTestReconciler(backend, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	cancel()
	<-done

	for i := 0; i < postQueueSize*2; i++ {
		r.Post(FocusDown())
	}
	if n := len(r.posted); n != 0 {
		t.Fatalf("queued %d commands after stop, want 0", n)
	}
}

func TestReconciler_IgnoredEventLogsWindow(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.DefaultConfig()
	cfg.ReconcileInterval = 0
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := NewReconciler(ReconcilerConfig{Config: cfg, Logger: logger}, newFakeBackend())

	r.Handle(platform.MouseLeave(5))
	r.Handle(platform.ButtonReleased())

	out := buf.String()
	if !strings.Contains(out, "event=mouse-leave window=5") {
		t.Errorf("log missing subject window:\n%s", out)
	}
	if !strings.Contains(out, "event=button-released\n") {
		t.Errorf("log missing windowless event:\n%s", out)
	}
}

func TestReconciler_DispatchOnEmptyWorkspace(t *testing.T) {
	r := newTestReconciler(newFakeBackend(), nil)
	startReconciler(t, r)

	for _, cmd := range []Command{FocusUp(), FocusDown(), SwapUp(), SwapDown(), SwapMaster()} {
		if err := r.Dispatch(context.Background(), cmd); err != nil {
			t.Fatalf("%s: %v", cmd.Kind, err)
		}
	}
	assertWindows(t, r)
}

func TestReconciler_EventsFromBackend(t *testing.T) {
	backend := newFakeBackend(7, 9)
	r := newTestReconciler(backend, nil)
	startReconciler(t, r)

	backend.events <- platform.WindowCreated(7)
	backend.events <- platform.WindowCreated(9)
	waitFor(t, "two windows", func() bool { return r.Workspace().Len() == 2 })
	assertWindows(t, r, 9, 7)

	backend.events <- platform.WindowClosed(9)
	waitFor(t, "close", func() bool { return r.Workspace().Len() == 1 })
	assertWindows(t, r, 7)
}

func TestReconciler_Layouts(t *testing.T) {
	backend := newFakeBackend(7, 9)
	r := newTestReconciler(backend, func(c *config.Config) {
		c.Layouts["halves"] = config.Layout{
			Mode:       config.LayoutModeHorizontal,
			TileRegion: config.TileRegion{Type: config.RegionFull},
		}
	})
	startReconciler(t, r)
	ctx := context.Background()

	backend.events <- platform.WindowCreated(7)
	backend.events <- platform.WindowCreated(9)
	waitFor(t, "two windows", func() bool { return r.Workspace().Len() == 2 })

	// Floating leaves the placement size alone.
	if g := backend.geometryOf(9); g.Width != config.DefaultPlacementWidth {
		t.Fatalf("float moved window: %s", g)
	}

	if err := r.Dispatch(ctx, SetLayout("halves")); err != nil {
		t.Fatalf("set layout: %v", err)
	}
	if r.Snapshot().Layout != "halves" {
		t.Fatalf("layout = %q", r.Snapshot().Layout)
	}
	if g := backend.geometryOf(9); g != core.NewRectangle(0, 0, 500, 500) {
		t.Fatalf("window 9 at %s", g)
	}
	if g := backend.geometryOf(7); g != core.NewRectangle(500, 0, 500, 500) {
		t.Fatalf("window 7 at %s", g)
	}

	// Moving a window to master rearranges immediately.
	if err := r.Dispatch(ctx, FocusDown()); err != nil {
		t.Fatal(err)
	}
	if err := r.Dispatch(ctx, SwapMaster()); err != nil {
		t.Fatal(err)
	}
	if g := backend.geometryOf(7); g != core.NewRectangle(0, 0, 500, 500) {
		t.Fatalf("window 7 at %s after swap", g)
	}

	err := r.Dispatch(ctx, SetLayout("spiral"))
	var unknown *UnknownLayoutError
	if !errors.As(err, &unknown) || unknown.Name != "spiral" {
		t.Fatalf("expected UnknownLayoutError, got %v", err)
	}
	if r.Snapshot().Layout != "halves" {
		t.Fatalf("failed set changed layout to %q", r.Snapshot().Layout)
	}
}

func TestReconciler_CycleLayout(t *testing.T) {
	r := newTestReconciler(newFakeBackend(), nil)
	startReconciler(t, r)

	want := []string{"columns", "grid", "master-stack", "rows", "float", "columns"}
	for _, name := range want {
		if err := r.Dispatch(context.Background(), CycleLayout()); err != nil {
			t.Fatal(err)
		}
		if got := r.Snapshot().Layout; got != name {
			t.Fatalf("layout = %q, want %q", got, name)
		}
	}
}

func TestReconciler_Reload(t *testing.T) {
	backend := newFakeBackend(7)
	r := newTestReconciler(backend, nil)
	startReconciler(t, r)
	ctx := context.Background()

	backend.events <- platform.WindowCreated(7)
	waitFor(t, "window", func() bool { return r.Workspace().Len() == 1 })
	if err := r.Dispatch(ctx, SetLayout("grid")); err != nil {
		t.Fatal(err)
	}

	next := config.DefaultConfig()
	next.Workspace = config.Workspace{ID: 4, Tag: "code"}
	if err := r.Dispatch(ctx, Reload(next)); err != nil {
		t.Fatalf("reload: %v", err)
	}
	st := r.Snapshot()
	ws := st.Workspace()
	if ws.ID != 4 || ws.Tag != "code" {
		t.Fatalf("workspace = %d/%q", ws.ID, ws.Tag)
	}
	if !ws.Contains(7) {
		t.Fatal("reload dropped managed windows")
	}
	if st.Layout != "grid" {
		t.Fatalf("layout = %q, want grid to survive reload", st.Layout)
	}

	// A layout missing from the new config falls back to its default.
	next = config.DefaultConfig()
	delete(next.Layouts, "grid")
	if err := r.Dispatch(ctx, Reload(next)); err != nil {
		t.Fatal(err)
	}
	if got := r.Snapshot().Layout; got != config.DefaultBuiltinLayout {
		t.Fatalf("layout = %q after grid vanished", got)
	}

	if err := r.Dispatch(ctx, Reload(nil)); err == nil {
		t.Fatal("expected error reloading nil config")
	}
}

func TestReconciler_WindowsDescribesState(t *testing.T) {
	backend := newFakeBackend(7, 9)
	backend.names[7] = "editor"
	r := newTestReconciler(backend, nil)
	startReconciler(t, r)

	backend.events <- platform.WindowCreated(7)
	backend.events <- platform.WindowCreated(9)
	waitFor(t, "two windows", func() bool { return r.Workspace().Len() == 2 })

	infos, err := r.Windows(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []WindowInfo{
		{ID: 9, Class: "Fake", Focused: true},
		{ID: 7, Name: "editor", Class: "Fake"},
	}
	if !reflect.DeepEqual(infos, want) {
		t.Fatalf("Windows() = %+v, want %+v", infos, want)
	}
}

func TestReconciler_RunStopsOnBackendError(t *testing.T) {
	backend := newFakeBackend()
	r := newTestReconciler(backend, nil)

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()
	close(backend.events)

	select {
	case err := <-done:
		if !errors.Is(err, errBackendGone) {
			t.Fatalf("Run returned %v, want backend error", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}

	if err := r.Dispatch(context.Background(), FocusUp()); !errors.Is(err, ErrStopped) {
		t.Fatalf("Dispatch after stop = %v, want ErrStopped", err)
	}
}

func TestReconciler_DriftTicker(t *testing.T) {
	backend := newFakeBackend(1, 2)
	backend.listed = []platform.WindowID{1, 2}
	r := newTestReconciler(backend, nil)
	r.interval = 20 * time.Millisecond
	startReconciler(t, r)

	waitFor(t, "adoption", func() bool { return r.Workspace().Len() == 2 })

	backend.mu.Lock()
	backend.listed = []platform.WindowID{2}
	backend.mu.Unlock()

	waitFor(t, "orphan removal", func() bool { return r.Workspace().Len() == 1 })
	assertWindows(t, r, 2)
}
