package x11

import (
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// IsManageable reports whether a window should be tracked by the manager.
// Override-redirect popups and transient dialogs are not. A window whose
// attributes cannot be read is treated as unmanageable.
func (c *Connection) IsManageable(windowID xproto.Window) bool {
	attrs, err := xproto.GetWindowAttributes(c.XUtil.Conn(), windowID).Reply()
	if err != nil {
		return false
	}
	if attrs.OverrideRedirect {
		return false
	}
	if parent, err := icccm.WmTransientForGet(c.XUtil, windowID); err == nil && parent != 0 {
		return false
	}
	return true
}

// IsDock checks whether the window declares itself a panel or desktop.
func (c *Connection) IsDock(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		return false
	}
	for _, t := range types {
		if t == "_NET_WM_WINDOW_TYPE_DOCK" || t == "_NET_WM_WINDOW_TYPE_DESKTOP" {
			return true
		}
	}
	return false
}

// WindowName prefers _NET_WM_NAME and falls back to WM_NAME.
func (c *Connection) WindowName(windowID xproto.Window) (string, error) {
	title, err := ewmh.WmNameGet(c.XUtil, windowID)
	if err == nil {
		if title = strings.TrimSpace(title); title != "" {
			return title, nil
		}
	}
	return icccm.WmNameGet(c.XUtil, windowID)
}

// WindowClass returns the class half of WM_CLASS.
func (c *Connection) WindowClass(windowID xproto.Window) (string, error) {
	wmClass, err := icccm.WmClassGet(c.XUtil, windowID)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(wmClass.Class), nil
}

// Children lists the direct children of the root window in stacking order.
func (c *Connection) Children() ([]xproto.Window, error) {
	tree, err := xproto.QueryTree(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, err
	}
	return tree.Children, nil
}

// IsViewable reports whether the window is currently mapped.
func (c *Connection) IsViewable(windowID xproto.Window) bool {
	attrs, err := xproto.GetWindowAttributes(c.XUtil.Conn(), windowID).Reply()
	if err != nil {
		return false
	}
	return attrs.MapState == xproto.MapStateViewable
}

func (c *Connection) MoveWindow(windowID xproto.Window, x, y int) {
	xwindow.New(c.XUtil, windowID).Move(x, y)
}

func (c *Connection) ResizeWindow(windowID xproto.Window, width, height int) {
	xwindow.New(c.XUtil, windowID).Resize(width, height)
}

func (c *Connection) MapWindow(windowID xproto.Window) {
	xwindow.New(c.XUtil, windowID).Map()
}

func (c *Connection) UnmapWindow(windowID xproto.Window) {
	xwindow.New(c.XUtil, windowID).Unmap()
}

// WatchPointer selects crossing events on a client window so MouseEnter and
// MouseLeave reach the manager.
func (c *Connection) WatchPointer(windowID xproto.Window) error {
	return xwindow.New(c.XUtil, windowID).Listen(
		xproto.EventMaskEnterWindow,
		xproto.EventMaskLeaveWindow,
	)
}

// FocusWindow gives input focus to a window, raises it and publishes it as
// _NET_ACTIVE_WINDOW.
func (c *Connection) FocusWindow(windowID xproto.Window) {
	conn := c.XUtil.Conn()
	xproto.SetInputFocus(conn, xproto.InputFocusPointerRoot, windowID, xproto.TimeCurrentTime)
	xproto.ConfigureWindow(conn, windowID, xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove})
	_ = ewmh.ActiveWindowSet(c.XUtil, windowID)
}
