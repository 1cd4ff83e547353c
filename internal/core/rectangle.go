package core

import "fmt"

// Rectangle is an axis-aligned region in root-window coordinates.
type Rectangle struct {
	X      int32
	Y      int32
	Width  uint32
	Height uint32
}

// NewRectangle creates a rectangle from its upper left corner and size.
func NewRectangle(x, y int32, width, height uint32) Rectangle {
	return Rectangle{X: x, Y: y, Width: width, Height: height}
}

// Right returns the x coordinate of the right border. It is computed in
// int64 so a width above math.MaxInt32 does not wrap.
func (r Rectangle) Right() int64 {
	return int64(r.X) + int64(r.Width)
}

// Bottom returns the y coordinate of the bottom border, in int64 like Right.
func (r Rectangle) Bottom() int64 {
	return int64(r.Y) + int64(r.Height)
}

// IsInside reports whether the point lies within the rectangle.
// Both the right and the bottom border count as inside.
func (r Rectangle) IsInside(x, y int32) bool {
	horizontal := x >= r.X && int64(x) <= r.Right()
	vertical := y >= r.Y && int64(y) <= r.Bottom()
	return horizontal && vertical
}

// Overlaps reports whether two rectangles share any area. Rectangles that
// only touch along an edge do not overlap.
func (r Rectangle) Overlaps(other Rectangle) bool {
	return !(int64(other.X) >= r.Right() ||
		other.Right() <= int64(r.X) ||
		int64(other.Y) >= r.Bottom() ||
		other.Bottom() <= int64(r.Y))
}

func (r Rectangle) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}
