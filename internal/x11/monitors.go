package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	xgbxinerama "github.com/BurntSushi/xgb/xinerama"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xinerama"
)

// Monitor represents a physical display
type Monitor struct {
	ID     int
	Name   string
	X      int
	Y      int
	Width  int
	Height int
}

// initExtensions loads RandR and Xinerama. Either may be missing; requests
// to an uninitialized extension panic in xgb, so the result is remembered.
func (c *Connection) initExtensions() {
	c.hasRandR = randr.Init(c.XUtil.Conn()) == nil
	c.hasXinerama = xgbxinerama.Init(c.XUtil.Conn()) == nil
}

// WatchScreenChanges asks for RandR screen change notifications on the root
// window. It is a no-op without RandR.
func (c *Connection) WatchScreenChanges() error {
	if !c.hasRandR {
		return nil
	}
	err := randr.SelectInputChecked(c.XUtil.Conn(), c.Root, randr.NotifyMaskScreenChange).Check()
	if err != nil {
		return fmt.Errorf("randr select input: %w", err)
	}
	return nil
}

// GetMonitors retrieves all active monitors. RandR CRTCs are tried first,
// then Xinerama heads, then the root window geometry.
func (c *Connection) GetMonitors() ([]Monitor, error) {
	var (
		monitors []Monitor
		err      error
	)
	if c.hasRandR {
		monitors, err = c.randrMonitors()
		if err == nil && len(monitors) > 0 {
			return monitors, nil
		}
	}

	if !c.hasXinerama {
		return c.rootMonitor(err)
	}
	if heads, herr := xinerama.PhysicalHeads(c.XUtil); herr == nil && len(heads) > 0 {
		monitors = monitors[:0]
		for i, h := range heads {
			monitors = append(monitors, Monitor{
				ID:     i,
				Name:   fmt.Sprintf("Head%d", i),
				X:      h.X(),
				Y:      h.Y(),
				Width:  h.Width(),
				Height: h.Height(),
			})
		}
		return monitors, nil
	}
	return c.rootMonitor(err)
}

func (c *Connection) rootMonitor(cause error) ([]Monitor, error) {
	geom, gerr := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if gerr != nil {
		if cause != nil {
			return nil, fmt.Errorf("no monitor source available: %w", cause)
		}
		return nil, fmt.Errorf("failed to get root geometry: %w", gerr)
	}
	return []Monitor{{
		ID:     0,
		Name:   "root",
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}}, nil
}

func (c *Connection) randrMonitors() ([]Monitor, error) {
	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor

	// Query each CRTC for active monitors
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		outputName := fmt.Sprintf("Monitor%d", i)
		outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			outputName = string(outputInfo.Name)
		}

		monitors = append(monitors, Monitor{
			ID:     i,
			Name:   outputName,
			X:      int(crtcInfo.X),
			Y:      int(crtcInfo.Y),
			Width:  int(crtcInfo.Width),
			Height: int(crtcInfo.Height),
		})
	}

	return monitors, nil
}

// UsableMonitors returns the monitors with space reserved by dock struts
// removed.
func (c *Connection) UsableMonitors() ([]Monitor, error) {
	monitors, err := c.GetMonitors()
	if err != nil {
		return nil, err
	}

	rootGeom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return monitors, nil
	}
	children, err := c.Children()
	if err != nil {
		return monitors, nil
	}

	var partials []*ewmh.WmStrutPartial
	for _, w := range children {
		if !c.IsDock(w) || !c.IsViewable(w) {
			continue
		}
		if sp := c.dockStrut(w, int(rootGeom.Width), int(rootGeom.Height)); sp != nil {
			partials = append(partials, sp)
		}
	}

	for i := range monitors {
		applyStruts(&monitors[i], int(rootGeom.Width), int(rootGeom.Height), partials)
	}
	return monitors, nil
}

func (c *Connection) dockStrut(windowID xproto.Window, rootWidth, rootHeight int) *ewmh.WmStrutPartial {
	if sp, err := ewmh.WmStrutPartialGet(c.XUtil, windowID); err == nil {
		return sp
	}
	// Some docks only set _NET_WM_STRUT (no partial ranges).
	s, err := ewmh.WmStrutGet(c.XUtil, windowID)
	if err != nil {
		return nil
	}
	return &ewmh.WmStrutPartial{
		Left:       s.Left,
		Right:      s.Right,
		Top:        s.Top,
		Bottom:     s.Bottom,
		LeftEndY:   uint(rootHeight - 1),
		RightEndY:  uint(rootHeight - 1),
		TopEndX:    uint(rootWidth - 1),
		BottomEndX: uint(rootWidth - 1),
	}
}

type dockStruts struct {
	left   int
	right  int
	top    int
	bottom int
}

func applyStruts(monitor *Monitor, rootWidth, rootHeight int, partials []*ewmh.WmStrutPartial) {
	var struts dockStruts
	for _, sp := range partials {
		updateStrutsForMonitor(monitor, rootWidth, rootHeight, sp, &struts)
	}

	monitor.X += struts.left
	monitor.Y += struts.top
	monitor.Width -= struts.left + struts.right
	monitor.Height -= struts.top + struts.bottom

	if monitor.Width < 1 {
		monitor.Width = 1
	}
	if monitor.Height < 1 {
		monitor.Height = 1
	}
}

func updateStrutsForMonitor(monitor *Monitor, rootWidth, rootHeight int, sp *ewmh.WmStrutPartial, acc *dockStruts) {
	monX1 := monitor.X
	monY1 := monitor.Y
	monX2 := monitor.X + monitor.Width
	monY2 := monitor.Y + monitor.Height

	// Top strut: y=[0,Top), x=[TopStartX,TopEndX]
	if sp.Top > 0 {
		isect := intersectionSize(monX1, monY1, monX2, monY2, int(sp.TopStartX), 0, int(sp.TopEndX)+1, int(sp.Top))
		acc.top = max(acc.top, isect.h)
	}

	// Bottom strut: y=[rootHeight-Bottom,rootHeight)
	if sp.Bottom > 0 {
		isect := intersectionSize(monX1, monY1, monX2, monY2, int(sp.BottomStartX), rootHeight-int(sp.Bottom), int(sp.BottomEndX)+1, rootHeight)
		acc.bottom = max(acc.bottom, isect.h)
	}

	// Left strut: x=[0,Left), y=[LeftStartY,LeftEndY]
	if sp.Left > 0 {
		isect := intersectionSize(monX1, monY1, monX2, monY2, 0, int(sp.LeftStartY), int(sp.Left), int(sp.LeftEndY)+1)
		acc.left = max(acc.left, isect.w)
	}

	// Right strut: x=[rootWidth-Right,rootWidth)
	if sp.Right > 0 {
		isect := intersectionSize(monX1, monY1, monX2, monY2, rootWidth-int(sp.Right), int(sp.RightStartY), rootWidth, int(sp.RightEndY)+1)
		acc.right = max(acc.right, isect.w)
	}
}

type intersection struct {
	w int
	h int
}

func intersectionSize(ax1, ay1, ax2, ay2, bx1, by1, bx2, by2 int) intersection {
	x1 := max(ax1, bx1)
	y1 := max(ay1, by1)
	x2 := min(ax2, bx2)
	y2 := min(ay2, by2)

	if x2 <= x1 || y2 <= y1 {
		return intersection{}
	}
	return intersection{w: x2 - x1, h: y2 - y1}
}
