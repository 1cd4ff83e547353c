//go:build linux

package platform

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/1broseidon/sabiwm/internal/core"
	"github.com/1broseidon/sabiwm/internal/x11"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
)

const eventQueueSize = 256

// X11Backend wraps an X11 connection behind the platform Backend interface.
// X events are translated on the xevent goroutine and queued for Event.
type X11Backend struct {
	conn   *x11.Connection
	logger *slog.Logger

	events chan Event
	done   chan struct{}
	once   sync.Once

	mu      sync.Mutex
	watched map[xproto.Window]struct{}
}

var (
	_ Backend         = (*X11Backend)(nil)
	_ ClientPublisher = (*X11Backend)(nil)
)

// NewX11Backend connects to the display, becomes the window manager and
// starts pumping events. It fails with x11.ErrAnotherWM when the root
// window is already managed.
func NewX11Backend(name string, logger *slog.Logger) (*X11Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	if err := conn.BecomeWM(); err != nil {
		conn.Close()
		return nil, err
	}
	if err := conn.WatchScreenChanges(); err != nil {
		logger.Warn("screen change notifications unavailable", "error", err)
	}
	if err := conn.AnnounceWM(name); err != nil {
		logger.Warn("failed to announce EWMH support", "error", err)
	}

	b := &X11Backend{
		conn:    conn,
		logger:  logger,
		events:  make(chan Event, eventQueueSize),
		done:    make(chan struct{}),
		watched: make(map[xproto.Window]struct{}),
	}
	b.connectCallbacks()

	go func() {
		conn.EventLoop()
		b.shutdown()
	}()
	return b, nil
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *X11Backend) XUtil() *xgbutil.XUtil {
	return b.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (b *X11Backend) RootWindow() xproto.Window {
	return b.conn.Root
}

// Disconnect stops the event loop and closes the X11 connection.
func (b *X11Backend) Disconnect() {
	b.conn.Quit()
	b.shutdown()
	b.conn.Close()
}

func (b *X11Backend) shutdown() {
	b.once.Do(func() { close(b.done) })
}

func (b *X11Backend) Event(ctx context.Context) (Event, error) {
	select {
	case ev := <-b.events:
		return ev, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	case <-b.done:
		return Event{}, ErrClosed
	}
}

// emit runs on the xevent goroutine. A full queue applies backpressure to
// the X connection rather than dropping events.
func (b *X11Backend) emit(ev Event) {
	select {
	case b.events <- ev:
	case <-b.done:
	}
}

func (b *X11Backend) connectCallbacks() {
	xu, root := b.conn.XUtil, b.conn.Root

	xevent.MapRequestFun(func(xu *xgbutil.XUtil, ev xevent.MapRequestEvent) {
		// Map first so the window is viewable before it is managed.
		b.conn.MapWindow(ev.Window)
		b.watch(ev.Window)
		b.emit(WindowCreated(WindowID(ev.Window)))
	}).Connect(xu, root)

	xevent.DestroyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
		b.unwatch(ev.Window)
		b.emit(WindowClosed(WindowID(ev.Window)))
	}).Connect(xu, root)

	xevent.UnmapNotifyFun(func(xu *xgbutil.XUtil, ev xevent.UnmapNotifyEvent) {
		b.emit(WindowHid(WindowID(ev.Window)))
	}).Connect(xu, root)

	xevent.MapNotifyFun(func(xu *xgbutil.XUtil, ev xevent.MapNotifyEvent) {
		b.emit(WindowRevealed(WindowID(ev.Window)))
	}).Connect(xu, root)

	xevent.ConfigureRequestFun(func(xu *xgbutil.XUtil, ev xevent.ConfigureRequestEvent) {
		// Fields outside the value mask carry the current geometry, so the
		// rectangle is always complete.
		rect := core.NewRectangle(int32(ev.X), int32(ev.Y), uint32(ev.Width), uint32(ev.Height))
		b.emit(WindowChangeRequest(WindowID(ev.Window), rect))
	}).Connect(xu, root)

	xevent.ButtonPressFun(func(xu *xgbutil.XUtil, ev xevent.ButtonPressEvent) {
		b.emit(ButtonPressed(WindowID(ev.Event), WindowID(ev.Child)))
	}).Connect(xu, root)

	xevent.ButtonReleaseFun(func(xu *xgbutil.XUtil, ev xevent.ButtonReleaseEvent) {
		b.emit(ButtonReleased())
	}).Connect(xu, root)

	xevent.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		b.emit(KeyPressed(WindowID(ev.Child)))
	}).Connect(xu, root)

	// RandR events have no typed callback in xevent; catch them in a hook.
	xevent.HookFun(func(xu *xgbutil.XUtil, event interface{}) bool {
		if _, ok := event.(randr.ScreenChangeNotifyEvent); ok {
			b.emit(BackendChanged())
			return false
		}
		return true
	}).Connect(xu)
}

// watch subscribes to pointer crossings of win once.
func (b *X11Backend) watch(win xproto.Window) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.watched[win]; ok {
		return
	}
	if err := b.conn.WatchPointer(win); err != nil {
		b.logger.Debug("failed to watch pointer", "window", win, "error", err)
		return
	}
	b.watched[win] = struct{}{}

	xu := b.conn.XUtil
	xevent.EnterNotifyFun(func(xu *xgbutil.XUtil, ev xevent.EnterNotifyEvent) {
		b.emit(MouseEnter(WindowID(ev.Event)))
	}).Connect(xu, win)
	xevent.LeaveNotifyFun(func(xu *xgbutil.XUtil, ev xevent.LeaveNotifyEvent) {
		b.emit(MouseLeave(WindowID(ev.Event)))
	}).Connect(xu, win)
}

func (b *X11Backend) unwatch(win xproto.Window) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.watched, win)
	xevent.Detach(b.conn.XUtil, win)
}

func (b *X11Backend) IsWindow(w WindowID) bool {
	return b.conn.IsManageable(xproto.Window(w))
}

func (b *X11Backend) IsDock(w WindowID) bool {
	return b.conn.IsDock(xproto.Window(w))
}

// Screens returns the usable rectangle of every monitor, with dock struts
// removed.
func (b *X11Backend) Screens() []core.Rectangle {
	monitors, err := b.conn.UsableMonitors()
	if err != nil {
		b.logger.Warn("failed to query monitors", "error", err)
		return nil
	}
	rects := make([]core.Rectangle, 0, len(monitors))
	for _, m := range monitors {
		rects = append(rects, core.NewRectangle(int32(m.X), int32(m.Y), uint32(m.Width), uint32(m.Height)))
	}
	return rects
}

func (b *X11Backend) NumberOfScreens() int {
	monitors, err := b.conn.GetMonitors()
	if err != nil {
		return 0
	}
	return len(monitors)
}

func (b *X11Backend) WindowName(w WindowID) (string, error) {
	return b.conn.WindowName(xproto.Window(w))
}

func (b *X11Backend) ClassName(w WindowID) (string, error) {
	return b.conn.WindowClass(xproto.Window(w))
}

// Windows lists the viewable top-level windows. Their pointer crossings are
// watched from here on.
func (b *X11Backend) Windows() ([]WindowID, error) {
	children, err := b.conn.Children()
	if err != nil {
		return nil, err
	}
	windows := make([]WindowID, 0, len(children))
	for _, w := range children {
		if !b.conn.IsViewable(w) {
			continue
		}
		b.watch(w)
		windows = append(windows, WindowID(w))
	}
	return windows, nil
}

func (b *X11Backend) ResizeWindow(w WindowID, width, height uint32) {
	b.conn.ResizeWindow(xproto.Window(w), int(width), int(height))
}

func (b *X11Backend) MoveWindow(w WindowID, x, y int32) {
	b.conn.MoveWindow(xproto.Window(w), int(x), int(y))
}

func (b *X11Backend) ShowWindow(w WindowID) {
	b.conn.MapWindow(xproto.Window(w))
}

func (b *X11Backend) HideWindow(w WindowID) {
	b.conn.UnmapWindow(xproto.Window(w))
}

func (b *X11Backend) FocusWindow(w WindowID) {
	b.conn.FocusWindow(xproto.Window(w))
}

// PublishClients updates _NET_CLIENT_LIST.
func (b *X11Backend) PublishClients(windows []WindowID) {
	ids := make([]xproto.Window, len(windows))
	for i, w := range windows {
		ids[i] = xproto.Window(w)
	}
	if err := b.conn.SetClientList(ids); err != nil {
		b.logger.Debug("failed to publish client list", "error", err)
	}
}
