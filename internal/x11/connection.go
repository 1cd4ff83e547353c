package x11

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// ErrAnotherWM is returned by BecomeWM when some other client already
// selected SubstructureRedirect on the root window.
var ErrAnotherWM = errors.New("another window manager is already running")

// rootEventMask is what the manager listens for on the root window.
var rootEventMask = []int{
	xproto.EventMaskSubstructureRedirect,
	xproto.EventMaskSubstructureNotify,
	xproto.EventMaskStructureNotify,
	xproto.EventMaskButtonPress,
	xproto.EventMaskButtonRelease,
	xproto.EventMaskPropertyChange,
}

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	hasRandR    bool
	hasXinerama bool
}

// NewConnection establishes a connection to the X11 server and initializes required extensions
func NewConnection() (*Connection, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}

	// Required for global hotkeys.
	keybind.Initialize(xu)

	c := &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
	}
	c.initExtensions()
	return c, nil
}

// BecomeWM claims the window manager role on the root window.
func (c *Connection) BecomeWM() error {
	err := xwindow.New(c.XUtil, c.Root).Listen(rootEventMask...)
	if err == nil {
		return nil
	}
	var access xproto.AccessError
	if errors.As(err, &access) {
		return ErrAnotherWM
	}
	return fmt.Errorf("select root events: %w", err)
}

// EventLoop starts the main X11 event loop (blocking)
func (c *Connection) EventLoop() {
	xevent.Main(c.XUtil)
}

// Quit makes a running EventLoop return after the current event.
func (c *Connection) Quit() {
	xevent.Quit(c.XUtil)
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}
