// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"image"
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// ToFloat converts an integer point to Point2D.
func ToFloat(p image.Point) Point2D {
	return Point2D{X: float64(p.X), Y: float64(p.Y)}
}

// Contour is an ordered closed sequence of integer points describing the
// boundary of one connected component. The last point connects back to
// the first. Contours are treated as immutable; derived contours are
// always new slices.
type Contour []image.Point

// Clone returns a copy of the contour.
func (c Contour) Clone() Contour {
	out := make(Contour, len(c))
	copy(out, c)
	return out
}

// Bounds returns the smallest rectangle containing every point of the
// contour. The rectangle is inclusive of Max, matching pixel coordinates.
func (c Contour) Bounds() image.Rectangle {
	if len(c) == 0 {
		return image.Rectangle{}
	}

	r := image.Rectangle{Min: c[0], Max: c[0]}
	for _, p := range c[1:] {
		if p.X < r.Min.X {
			r.Min.X = p.X
		}
		if p.X > r.Max.X {
			r.Max.X = p.X
		}
		if p.Y < r.Min.Y {
			r.Min.Y = p.Y
		}
		if p.Y > r.Max.Y {
			r.Max.Y = p.Y
		}
	}
	return r
}

// Shape holds raster dimensions in the (rows, cols) order used by masks.
type Shape struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Empty reports whether the shape has no pixels.
func (s Shape) Empty() bool {
	return s.Rows <= 0 || s.Cols <= 0
}

// BoxContour converts two opposite corners of an axis-aligned rectangle
// into a four point contour ordered top-left, top-right, bottom-right,
// bottom-left. Corners may be given in any order.
func BoxContour(x1, y1, x2, y2 int) Contour {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	return Contour{
		{X: x1, Y: y1},
		{X: x2, Y: y1},
		{X: x2, Y: y2},
		{X: x1, Y: y2},
	}
}

// Containment is the result of testing a point against a contour.
type Containment int

const (
	Outside  Containment = -1
	Boundary Containment = 0
	Inside   Containment = 1
)

func (c Containment) String() string {
	switch c {
	case Inside:
		return "inside"
	case Boundary:
		return "boundary"
	default:
		return "outside"
	}
}
