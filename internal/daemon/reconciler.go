package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/1broseidon/sabiwm/internal/config"
	"github.com/1broseidon/sabiwm/internal/core"
	"github.com/1broseidon/sabiwm/internal/platform"
	"github.com/1broseidon/sabiwm/internal/tiling"
)

// ErrStopped is returned by Dispatch once the reconciler loop has exited.
var ErrStopped = errors.New("reconciler stopped")

// postQueueSize bounds the commands queued by Post ahead of the loop.
const postQueueSize = 64

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Config *config.Config
	Logger *slog.Logger
}

// State is an immutable snapshot of the managed state. Snapshots share
// focus stacks with the reconciler; stacks are never modified in place.
type State struct {
	Screen    core.Screen[platform.WindowID]
	Layout    string
	Screens   []core.Rectangle
	UpdatedAt time.Time
}

// Workspace returns the managed workspace.
func (s *State) Workspace() core.Workspace[platform.WindowID] {
	return s.Screen.Workspace
}

// Focused returns the window holding focus, if any.
func (s *State) Focused() (platform.WindowID, bool) {
	return s.Screen.Workspace.Peek()
}

// WindowInfo describes a managed window for display.
type WindowInfo struct {
	ID      platform.WindowID
	Name    string
	Class   string
	Focused bool
}

type request struct {
	cmd   Command
	reply chan result
}

type result struct {
	err     error
	windows []WindowInfo
}

type backendEvent struct {
	ev  platform.Event
	err error
}

// Reconciler keeps the managed workspace consistent with backend
// notifications. All mutations happen on the goroutine running Run; other
// goroutines submit Commands through Dispatch and read Snapshot.
type Reconciler struct {
	backend platform.Backend
	logger  *slog.Logger

	cfg      *config.Config
	layout   string
	screen   core.Screen[platform.WindowID]
	screens  []core.Rectangle
	docks    map[platform.WindowID]struct{}
	interval time.Duration

	requests chan request
	posted   chan Command
	stopped  chan struct{}
	stopOnce sync.Once
	state    atomic.Pointer[State]
}

// NewReconciler creates a reconciler managing one workspace on backend.
func NewReconciler(cfg ReconcilerConfig, backend platform.Backend) *Reconciler {
	c := cfg.Config
	if c == nil {
		c = config.DefaultConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ws := core.NewWorkspace[platform.WindowID](c.Workspace.ID, c.Workspace.Tag, nil)
	r := &Reconciler{
		backend:  backend,
		logger:   logger,
		cfg:      c,
		layout:   c.DefaultLayout,
		screen:   core.NewScreen(ws, 0, core.Rectangle{}),
		docks:    make(map[platform.WindowID]struct{}),
		interval: time.Duration(c.ReconcileInterval) * time.Second,
		requests: make(chan request),
		posted:   make(chan Command, postQueueSize),
		stopped:  make(chan struct{}),
	}
	r.publish()
	return r
}

// Snapshot returns the most recently published state.
func (r *Reconciler) Snapshot() *State {
	return r.state.Load()
}

// Workspace returns the managed workspace from the latest snapshot.
func (r *Reconciler) Workspace() core.Workspace[platform.WindowID] {
	return r.Snapshot().Workspace()
}

// Run adopts existing windows and then processes backend events, commands
// and periodic drift checks until ctx is done or the backend fails. It
// returns ctx.Err() on shutdown and the backend error otherwise.
func (r *Reconciler) Run(ctx context.Context) error {
	defer r.stopOnce.Do(func() { close(r.stopped) })

	r.logger.Info("reconciler started",
		"workspace", r.screen.Workspace.Tag,
		"layout", r.layout,
		"interval", r.interval)
	r.safely(r.Resync)

	pumpCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := make(chan backendEvent)
	go r.pump(pumpCtx, events)

	var (
		ticker   *time.Ticker
		tick     <-chan time.Time
		interval time.Duration
	)
	resetTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
		interval = r.interval
		if interval > 0 {
			ticker = time.NewTicker(interval)
			tick = ticker.C
		}
	}
	resetTicker()
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return ctx.Err()

		case in := <-events:
			if in.err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.logger.Error("backend event failed", "error", in.err)
				return fmt.Errorf("backend event: %w", in.err)
			}
			r.safely(func() { r.Handle(in.ev) })

		case req := <-r.requests:
			res := result{err: fmt.Errorf("command %s failed", req.cmd.Kind)}
			r.safely(func() { res = r.apply(req.cmd) })
			req.reply <- res
			if r.interval != interval {
				resetTicker()
			}

		case cmd := <-r.posted:
			var err error
			r.safely(func() { err = r.apply(cmd).err })
			if err != nil {
				r.logger.Warn("command failed", "command", cmd.Kind.String(), "error", err)
			}
			if r.interval != interval {
				resetTicker()
			}

		case <-tick:
			r.safely(r.reconcile)
		}
	}
}

func (r *Reconciler) pump(ctx context.Context, out chan<- backendEvent) {
	for {
		ev, err := r.backend.Event(ctx)
		select {
		case out <- backendEvent{ev: ev, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

// safely runs fn, recovering from panics to prevent crashing the daemon.
func (r *Reconciler) safely(fn func()) {
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()
	fn()
}

// Dispatch submits cmd to the loop and waits until it has been applied.
func (r *Reconciler) Dispatch(ctx context.Context, cmd Command) error {
	res, err := r.roundTrip(ctx, cmd)
	if err != nil {
		return err
	}
	return res.err
}

// Post queues cmd without waiting. Posted commands are applied in the
// order they were posted; failures are logged. When the queue is full or
// the loop has stopped the command is dropped.
func (r *Reconciler) Post(cmd Command) {
	select {
	case <-r.stopped:
		return
	default:
	}
	select {
	case r.posted <- cmd:
	default:
		r.logger.Warn("command queue full, dropping command", "command", cmd.Kind.String())
	}
}

// Windows describes the managed windows in workspace order. Names and
// classes are queried on the loop goroutine.
func (r *Reconciler) Windows(ctx context.Context) ([]WindowInfo, error) {
	res, err := r.roundTrip(ctx, Command{Kind: commandDescribe})
	if err != nil {
		return nil, err
	}
	return res.windows, res.err
}

func (r *Reconciler) roundTrip(ctx context.Context, cmd Command) (result, error) {
	req := request{cmd: cmd, reply: make(chan result, 1)}
	select {
	case r.requests <- req:
	case <-r.stopped:
		return result{}, ErrStopped
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
	select {
	case res := <-req.reply:
		return res, nil
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
}

// Handle applies one backend event to the managed state. It must only be
// called from the goroutine that owns the reconciler.
func (r *Reconciler) Handle(ev platform.Event) {
	switch ev.Kind {
	case platform.EventWindowCreated:
		r.windowCreated(ev.Window)
	case platform.EventWindowClosed:
		r.windowClosed(ev.Window)
	case platform.EventBackendChanged:
		r.logger.Info("screen layout changed")
		r.refreshScreens()
		r.arrange()
		r.publish()
	case platform.EventWindowChangeRequest:
		r.changeRequest(ev.Window, ev.Rect)
	default:
		if w, ok := ev.Subject(); ok {
			r.logger.Debug("event ignored", "event", ev.Kind.String(), "window", w)
			return
		}
		r.logger.Debug("event ignored", "event", ev.Kind.String())
	}
}

func (r *Reconciler) windowCreated(w platform.WindowID) {
	if !r.backend.IsWindow(w) {
		r.logger.Debug("skipping unmanageable window", "window", w)
		return
	}
	if r.backend.IsDock(w) {
		r.logger.Debug("dock shown", "window", w)
		r.docks[w] = struct{}{}
		r.refreshScreens()
		r.arrange()
		r.publish()
		return
	}
	if r.screen.Contains(w) {
		r.logger.Debug("window already managed", "window", w)
		return
	}

	r.backend.ResizeWindow(w, r.cfg.Placement.Width, r.cfg.Placement.Height)
	r.screen = r.screen.MapWorkspace(func(ws core.Workspace[platform.WindowID]) core.Workspace[platform.WindowID] {
		return ws.Add(w)
	})
	r.logger.Info("window managed", "window", w, "windows", r.screen.Len())
	r.commit()
}

func (r *Reconciler) windowClosed(w platform.WindowID) {
	if _, ok := r.docks[w]; ok {
		delete(r.docks, w)
		r.refreshScreens()
		r.arrange()
		r.publish()
		return
	}
	if !r.screen.Contains(w) {
		return
	}

	r.screen = r.screen.MapWorkspace(func(ws core.Workspace[platform.WindowID]) core.Workspace[platform.WindowID] {
		return ws.Remove(w)
	})
	r.logger.Info("window unmanaged", "window", w, "windows", r.screen.Len())
	r.commit()
}

// changeRequest grants geometry requests from windows the current layout
// does not place and reasserts the layout otherwise.
func (r *Reconciler) changeRequest(w platform.WindowID, rect core.Rectangle) {
	if r.screen.Contains(w) && !r.floating() {
		r.arrange()
		return
	}
	r.backend.MoveWindow(w, rect.X, rect.Y)
	r.backend.ResizeWindow(w, rect.Width, rect.Height)
}

// Resync binds the screen rectangle and adopts windows that already exist
// on the backend.
func (r *Reconciler) Resync() {
	r.refreshScreens()

	windows, err := r.backend.Windows()
	if err != nil {
		r.logger.Warn("failed to list existing windows", "error", err)
	}
	for _, w := range windows {
		if r.screen.Contains(w) || !r.backend.IsWindow(w) {
			continue
		}
		if r.backend.IsDock(w) {
			r.docks[w] = struct{}{}
			continue
		}
		r.screen = r.screen.MapWorkspace(func(ws core.Workspace[platform.WindowID]) core.Workspace[platform.WindowID] {
			return ws.Add(w)
		})
		r.logger.Info("adopted existing window", "window", w)
	}
	r.commit()
}

// reconcile removes windows the backend no longer reports, covering destroy
// notifications that were never delivered.
func (r *Reconciler) reconcile() {
	actual, err := r.backend.Windows()
	if err != nil {
		r.logger.Error("reconciler: failed to list windows", "error", err)
		return
	}

	present := make(map[platform.WindowID]bool, len(actual))
	for _, w := range actual {
		present[w] = true
	}

	var orphaned []platform.WindowID
	for _, w := range r.screen.Windows() {
		if !present[w] {
			orphaned = append(orphaned, w)
		}
	}
	if len(orphaned) == 0 {
		return
	}

	for _, w := range orphaned {
		r.logger.Info("reconciler: orphaned window detected", "window", w)
		r.screen = r.screen.MapWorkspace(func(ws core.Workspace[platform.WindowID]) core.Workspace[platform.WindowID] {
			return ws.Remove(w)
		})
	}
	r.commit()
}

func (r *Reconciler) apply(cmd Command) result {
	switch cmd.Kind {
	case commandDescribe:
		return result{windows: r.describe()}

	case CommandCycleLayout:
		names := r.cfg.LayoutNames()
		if len(names) == 0 {
			return result{err: errors.New("no layouts configured")}
		}
		next := (slices.Index(names, r.layout) + 1) % len(names)
		r.layout = names[next]
		r.logger.Info("layout changed", "layout", r.layout)

	case CommandSetLayout:
		if _, ok := r.cfg.Layouts[cmd.Layout]; !ok {
			return result{err: &UnknownLayoutError{Name: cmd.Layout}}
		}
		r.layout = cmd.Layout
		r.logger.Info("layout changed", "layout", r.layout)

	case CommandReload:
		if cmd.Config == nil {
			return result{err: errors.New("reload without configuration")}
		}
		r.reload(cmd.Config)

	default:
		op, ok := stackOp(cmd.Kind)
		if !ok {
			return result{err: fmt.Errorf("unknown command %s", cmd.Kind)}
		}
		r.screen = r.screen.Map(op)
		r.logger.Debug("command applied", "command", cmd.Kind.String())
	}

	r.commit()
	return result{}
}

func (r *Reconciler) reload(cfg *config.Config) {
	r.cfg = cfg
	r.interval = time.Duration(cfg.ReconcileInterval) * time.Second
	r.screen = r.screen.MapWorkspace(func(ws core.Workspace[platform.WindowID]) core.Workspace[platform.WindowID] {
		return core.NewWorkspace(cfg.Workspace.ID, cfg.Workspace.Tag, ws.Stack)
	})
	if _, ok := cfg.Layouts[r.layout]; !ok {
		r.layout = cfg.DefaultLayout
	}
	r.logger.Info("configuration reloaded", "layout", r.layout, "workspace", cfg.Workspace.Tag)
}

func (r *Reconciler) describe() []WindowInfo {
	focused, hasFocus := r.screen.Workspace.Peek()
	windows := r.screen.Windows()
	infos := make([]WindowInfo, 0, len(windows))
	for _, w := range windows {
		info := WindowInfo{ID: w, Focused: hasFocus && w == focused}
		if name, err := r.backend.WindowName(w); err == nil {
			info.Name = name
		}
		if class, err := r.backend.ClassName(w); err == nil {
			info.Class = class
		}
		infos = append(infos, info)
	}
	return infos
}

func (r *Reconciler) refreshScreens() {
	screens := r.backend.Screens()
	r.screens = screens
	if len(screens) == 0 {
		r.logger.Warn("backend reported no screens")
		return
	}
	r.screen = r.screen.WithBounds(screens[0])
}

func (r *Reconciler) floating() bool {
	layout, ok := r.cfg.Layouts[r.layout]
	return !ok || layout.Mode == config.LayoutModeFloat
}

// commit pushes the state to the backend and publishes a snapshot.
func (r *Reconciler) commit() {
	if w, ok := r.screen.Workspace.Peek(); ok {
		r.backend.FocusWindow(w)
	}
	r.arrange()
	if cp, ok := r.backend.(platform.ClientPublisher); ok {
		cp.PublishClients(r.screen.Windows())
	}
	r.publish()
}

func (r *Reconciler) arrange() {
	if r.floating() {
		return
	}
	layout := r.cfg.Layouts[r.layout]
	tiles, err := tiling.Tile(r.screen.Workspace, r.screen.Bounds, &layout, r.cfg.GapSize)
	if err != nil {
		r.logger.Warn("layout failed", "layout", r.layout, "error", err)
		return
	}
	for _, t := range tiles {
		r.backend.MoveWindow(t.Window, t.Rect.X, t.Rect.Y)
		r.backend.ResizeWindow(t.Window, t.Rect.Width, t.Rect.Height)
	}
}

func (r *Reconciler) publish() {
	r.state.Store(&State{
		Screen:    r.screen,
		Layout:    r.layout,
		Screens:   slices.Clone(r.screens),
		UpdatedAt: time.Now(),
	})
}
