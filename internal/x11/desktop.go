package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xwindow"
)

var supportedAtoms = []string{
	"_NET_SUPPORTED",
	"_NET_SUPPORTING_WM_CHECK",
	"_NET_WM_NAME",
	"_NET_NUMBER_OF_DESKTOPS",
	"_NET_CURRENT_DESKTOP",
	"_NET_ACTIVE_WINDOW",
	"_NET_CLIENT_LIST",
	"_NET_WM_WINDOW_TYPE",
	"_NET_WM_WINDOW_TYPE_DOCK",
	"_NET_WM_WINDOW_TYPE_DESKTOP",
	"_NET_WM_STRUT",
	"_NET_WM_STRUT_PARTIAL",
}

// AnnounceWM publishes the EWMH properties pagers and panels look for: a
// supporting check window carrying the manager name, a single desktop, and
// the list of supported hints.
func (c *Connection) AnnounceWM(name string) error {
	check, err := xwindow.Create(c.XUtil, c.Root)
	if err != nil {
		return fmt.Errorf("create supporting window: %w", err)
	}
	if err := ewmh.SupportingWmCheckSet(c.XUtil, c.Root, check.Id); err != nil {
		return fmt.Errorf("set supporting wm check: %w", err)
	}
	if err := ewmh.SupportingWmCheckSet(c.XUtil, check.Id, check.Id); err != nil {
		return fmt.Errorf("set supporting wm check: %w", err)
	}
	if err := ewmh.WmNameSet(c.XUtil, check.Id, name); err != nil {
		return fmt.Errorf("set wm name: %w", err)
	}
	if err := ewmh.SupportedSet(c.XUtil, supportedAtoms); err != nil {
		return fmt.Errorf("set supported hints: %w", err)
	}

	// Desktop hints are informational only.
	_ = ewmh.NumberOfDesktopsSet(c.XUtil, 1)
	_ = ewmh.CurrentDesktopSet(c.XUtil, 0)
	return nil
}

// SetClientList publishes the managed windows as _NET_CLIENT_LIST.
func (c *Connection) SetClientList(windows []xproto.Window) error {
	return ewmh.ClientListSet(c.XUtil, windows)
}
