// Package tiling computes window rectangles for the configured layouts.
//
// Layouts work on the workspace's stack order: the first window of
// Workspace.Windows() is the master slot (the one SwapMaster fills), the
// rest follow in order. Float layouts place nothing.
package tiling

import (
	"fmt"
	"math"

	"github.com/1broseidon/sabiwm/internal/config"
	"github.com/1broseidon/sabiwm/internal/core"
)

// Rect is a rectangle in signed int so gap arithmetic may go negative
// before it is validated.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// RectFromCore converts a screen rectangle for layout math.
func RectFromCore(r core.Rectangle) Rect {
	return Rect{X: int(r.X), Y: int(r.Y), Width: int(r.Width), Height: int(r.Height)}
}

// Core converts back to a window rectangle, at least 1x1.
func (r Rect) Core() core.Rectangle {
	return core.NewRectangle(int32(r.X), int32(r.Y), uint32(max(r.Width, 1)), uint32(max(r.Height, 1)))
}

// Placement pairs a managed window with its tile.
type Placement[T comparable] struct {
	Window T
	Rect   core.Rectangle
}

// Tile lays out the windows of ws on screen. Windows beyond the layout's
// capacity (fixed grids, a full master-stack) get no placement and keep
// their geometry.
func Tile[T comparable](ws core.Workspace[T], screen core.Rectangle, layout *config.Layout, gapSize int) ([]Placement[T], error) {
	windows := ws.Windows()
	rects, err := Arrange(len(windows), screen, layout, gapSize)
	if err != nil {
		return nil, err
	}
	out := make([]Placement[T], len(rects))
	for i, r := range rects {
		out[i] = Placement[T]{Window: windows[i], Rect: r}
	}
	return out, nil
}

// Arrange returns the tiles for count windows in stack order, master first.
func Arrange(count int, screen core.Rectangle, layout *config.Layout, gapSize int) ([]core.Rectangle, error) {
	if layout == nil || layout.Mode == config.LayoutModeFloat || count <= 0 {
		return nil, nil
	}
	area := ApplyRegion(RectFromCore(screen), layout.TileRegion)

	var (
		tiles []Rect
		err   error
	)
	if layout.Mode == config.LayoutModeMasterStack {
		tiles, err = masterStack(area, count, layout.MasterStack, gapSize)
	} else {
		tiles, err = grid(area, count, layout, gapSize)
	}
	if err != nil {
		return nil, err
	}

	out := make([]core.Rectangle, len(tiles))
	for i, t := range tiles {
		out[i] = t.Core()
	}
	return out, nil
}

// GridSize returns the rows and columns of the auto grid: the smallest
// near-square grid holding n windows, wider than tall.
func GridSize(n int) (rows, cols int) {
	if n <= 0 {
		return 0, 0
	}
	cols = int(math.Ceil(math.Sqrt(float64(n))))
	rows = (n + cols - 1) / cols
	return rows, cols
}

// gridShape picks rows and columns for the non-master modes and how many
// windows fit.
func gridShape(layout *config.Layout, count int) (rows, cols, fit int, err error) {
	switch layout.Mode {
	case config.LayoutModeAuto:
		rows, cols = GridSize(count)
	case config.LayoutModeFixed:
		rows, cols = layout.FixedGrid.Rows, layout.FixedGrid.Cols
	case config.LayoutModeVertical:
		rows, cols = count, 1
	case config.LayoutModeHorizontal:
		rows, cols = 1, count
	default:
		return 0, 0, 0, fmt.Errorf("unsupported layout mode: %q", layout.Mode)
	}
	if rows <= 0 || cols <= 0 {
		return 0, 0, 0, fmt.Errorf("invalid grid dimensions: rows=%d cols=%d", rows, cols)
	}
	return rows, cols, min(count, rows*cols), nil
}

func grid(area Rect, count int, layout *config.Layout, gap int) ([]Rect, error) {
	rows, cols, count, err := gridShape(layout, count)
	if err != nil {
		return nil, err
	}

	slotW := (area.Width - (cols+1)*gap) / cols
	slotH := (area.Height - (rows+1)*gap) / rows
	if slotW <= 0 || slotH <= 0 {
		return nil, fmt.Errorf(
			"insufficient space for layout: area=%dx%d rows=%d cols=%d gap=%d (slot=%dx%d)",
			area.Width, area.Height, rows, cols, gap, slotW, slotH,
		)
	}

	// Only the auto grid stretches a short last row across the area.
	lastRow := (count - 1) / cols
	inLastRow := count - lastRow*cols
	stretch := layout.Mode == config.LayoutModeAuto && layout.FlexibleLastRow && inLastRow < cols
	lastSlotW := slotW
	if stretch {
		lastSlotW = (area.Width - (inLastRow+1)*gap) / inLastRow
	}

	tiles := make([]Rect, count)
	for i := range tiles {
		row, col, w := i/cols, i%cols, slotW
		if stretch && row == lastRow {
			w = lastSlotW
		}
		slot := Rect{
			X:      area.X + gap + col*(w+gap),
			Y:      area.Y + gap + row*(slotH+gap),
			Width:  w,
			Height: slotH,
		}
		tiles[i] = capSize(slot, layout.MaxWindowWidth, layout.MaxWindowHeight)
	}
	return tiles, nil
}

// capSize shrinks r to the maximum size, centred in its slot. Zero means
// unlimited.
func capSize(r Rect, maxW, maxH int) Rect {
	if maxW > 0 && r.Width > maxW {
		r.X += (r.Width - maxW) / 2
		r.Width = maxW
	}
	if maxH > 0 && r.Height > maxH {
		r.Y += (r.Height - maxH) / 2
		r.Height = maxH
	}
	return r
}

// masterStack gives the first window a full-height pane on the left and
// fills a grid on the right with the rest, column count grown as needed up
// to MaxStackCols.
func masterStack(area Rect, count int, ms config.MasterStack, gap int) ([]Rect, error) {
	if ms.MaxStackRows < 1 || ms.MaxStackCols < 1 {
		return nil, fmt.Errorf("invalid stack grid: max_stack_rows=%d max_stack_cols=%d", ms.MaxStackRows, ms.MaxStackCols)
	}
	masterW := area.Width*ms.MasterWidthPercent/100 - gap
	height := area.Height - 2*gap
	master := Rect{X: area.X + gap, Y: area.Y + gap, Width: masterW, Height: height}
	if masterW <= 0 || height <= 0 {
		return nil, fmt.Errorf("insufficient space for master pane: area=%dx%d gap=%d", area.Width, area.Height, gap)
	}
	if count == 1 {
		return []Rect{master}, nil
	}

	stacked := count - 1
	cols := min(max((stacked+ms.MaxStackRows-1)/ms.MaxStackRows, 1), ms.MaxStackCols)
	rows := min((stacked+cols-1)/cols, ms.MaxStackRows)
	stacked = min(stacked, rows*cols)

	stackX := area.X + masterW + 2*gap
	stackW := area.Width - masterW - 3*gap
	cellW := (stackW - (cols-1)*gap) / cols
	cellH := (height - (rows-1)*gap) / rows
	if cellW <= 0 || cellH <= 0 {
		return nil, fmt.Errorf(
			"insufficient space for master-stack layout: area=%dx%d master=%d cell=%dx%d gap=%d",
			area.Width, area.Height, masterW, cellW, cellH, gap,
		)
	}

	tiles := make([]Rect, 0, stacked+1)
	tiles = append(tiles, master)
	for i := 0; i < stacked; i++ {
		row, col := i/cols, i%cols
		tiles = append(tiles, Rect{
			X:      stackX + col*(cellW+gap),
			Y:      area.Y + gap + row*(cellH+gap),
			Width:  cellW,
			Height: cellH,
		})
	}
	return tiles, nil
}

// ApplyRegion narrows a screen to the layout's tile region.
func ApplyRegion(screen Rect, region config.TileRegion) Rect {
	r := screen
	switch region.Type {
	case config.RegionLeftHalf:
		r.Width = screen.Width / 2
	case config.RegionRightHalf:
		r.X += screen.Width / 2
		r.Width = screen.Width / 2
	case config.RegionTopHalf:
		r.Height = screen.Height / 2
	case config.RegionBottomHalf:
		r.Y += screen.Height / 2
		r.Height = screen.Height / 2
	case config.RegionCustom:
		r.X += screen.Width * region.XPercent / 100
		r.Y += screen.Height * region.YPercent / 100
		r.Width = screen.Width * region.WidthPercent / 100
		r.Height = screen.Height * region.HeightPercent / 100
	}
	r.Width = max(r.Width, 1)
	r.Height = max(r.Height, 1)
	return r
}
