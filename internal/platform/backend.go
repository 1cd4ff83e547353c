package platform

import (
	"context"
	"errors"

	"github.com/1broseidon/sabiwm/internal/core"
)

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// NoWindow stands for an absent window in events that carry an optional one.
const NoWindow WindowID = 0

// ErrClosed is returned by Event once the backend connection is gone.
var ErrClosed = errors.New("backend connection closed")

// Backend abstracts the window system the manager runs against.
//
// Classification and metadata queries never fail towards the caller in a
// way that stops management: a window that cannot be queried is reported as
// not manageable. Commands are fire-and-forget.
type Backend interface {
	// IsWindow reports whether w is a real top-level window that should be
	// managed, as opposed to an override-redirect popup or transient helper.
	IsWindow(w WindowID) bool
	// IsDock reports whether w is a panel or desktop window.
	IsDock(w WindowID) bool

	Screens() []core.Rectangle
	NumberOfScreens() int

	WindowName(w WindowID) (string, error)
	ClassName(w WindowID) (string, error)
	Windows() ([]WindowID, error)

	ResizeWindow(w WindowID, width, height uint32)
	MoveWindow(w WindowID, x, y int32)
	ShowWindow(w WindowID)
	HideWindow(w WindowID)
	FocusWindow(w WindowID)

	// Event blocks until the next window-system event arrives, ctx is done
	// or the connection is lost.
	Event(ctx context.Context) (Event, error)
}

// ClientPublisher is implemented by backends that advertise the managed
// window list to other clients, e.g. X11's _NET_CLIENT_LIST.
type ClientPublisher interface {
	PublishClients(windows []WindowID)
}
