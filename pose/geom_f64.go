package pose

import "math"

const (
	// PixelStd normalises box sizes into scale units
	PixelStd = 200.0
	// ScalePadding enlarges every crop so body extremities are not cut off
	ScalePadding = 1.25
	// minBoxSide is the width/height below which a box is considered degenerate
	minBoxSide = 1e-6
	// minScale is the floor applied to both scale components
	minScale = 1e-3
)

// Point is a 2D coordinate. Which space it lives in is up to the caller.
type Point struct {
	X float64
	Y float64
}

func NewPoint(x, y float64) Point {
	return Point{
		X: x,
		Y: y,
	}
}

func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

// Mul multiplies components pairwise
func (p Point) Mul(o Point) Point {
	return Point{X: p.X * o.X, Y: p.Y * o.Y}
}

// IsFinite reports whether both components are neither NaN nor Inf
func (p Point) IsFinite() bool {
	return isFinite(p.X) && isFinite(p.Y)
}

// Size is a width/height pair in pixels
type Size struct {
	Width  int
	Height int
}

// AspectRatio returns width divided by height
func (s Size) AspectRatio() float64 {
	return float64(s.Width) / float64(s.Height)
}

// DefaultInputSize is the ViTPose network input (width, height)
var DefaultInputSize = Size{Width: 192, Height: 256}

// BoundingBox is a detection box in source image pixels
type BoundingBox struct {
	X float64
	Y float64
	W float64
	H float64
}

// NewBoundingBoxXYXY converts corner coordinates into a box
func NewBoundingBoxXYXY(x1, y1, x2, y2 float64) BoundingBox {
	return BoundingBox{
		X: x1,
		Y: y1,
		W: x2 - x1,
		H: y2 - y1,
	}
}

// CenterScale is a crop region: a center point plus a size expressed in PixelStd units.
// Inert is set for the sentinel returned on degenerate boxes.
type CenterScale struct {
	Center Point
	Scale  Point
	Inert  bool
}

// InertCenterScale is returned for boxes with no usable area
var InertCenterScale = CenterScale{
	Center: Point{X: 0, Y: 0},
	Scale:  Point{X: 1, Y: 1},
	Inert:  true,
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
