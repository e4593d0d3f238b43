package geometry

import (
	"image"
	"sort"
)

// ConvexHull computes the convex hull of a contour using the monotone chain
// variant of the Graham scan. Returns the hull vertices in counter-clockwise
// order (in image coordinates, y down) without collinear points. Contours
// with fewer than three distinct points are returned as a copy.
func ConvexHull(c Contour) Contour {
	pts := uniquePoints(c)
	if len(pts) < 3 {
		return pts
	}

	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	hull := make(Contour, 0, 2*len(pts))

	// Lower hull
	for _, p := range pts {
		for len(hull) >= 2 && crossProduct(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// Upper hull
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && crossProduct(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// The last point repeats the first.
	return hull[:len(hull)-1]
}

// PointInPolygon tests a point against a closed contour. Points lying on an
// edge or vertex report Boundary. Uses exact integer ray casting, so the
// result does not depend on floating point rounding.
func PointInPolygon(p image.Point, c Contour) Containment {
	n := len(c)
	switch n {
	case 0:
		return Outside
	case 1:
		if p == c[0] {
			return Boundary
		}
		return Outside
	}

	inside := false
	for i := 0; i < n; i++ {
		a, b := c[i], c[(i+1)%n]

		if onSegment(p, a, b) {
			return Boundary
		}

		// Check if ray from p going right crosses edge a-b
		if (a.Y > p.Y) != (b.Y > p.Y) {
			dy := int64(b.Y - a.Y)
			lhs := int64(p.X-a.X) * dy
			rhs := int64(p.Y-a.Y) * int64(b.X-a.X)
			if (dy > 0 && lhs < rhs) || (dy < 0 && lhs > rhs) {
				inside = !inside
			}
		}
	}

	if inside {
		return Inside
	}
	return Outside
}

// DoubleArea returns twice the signed area of the contour (shoelace
// formula). Zero means every point is collinear.
func DoubleArea(c Contour) int64 {
	var sum int64
	n := len(c)
	for i := 0; i < n; i++ {
		a, b := c[i], c[(i+1)%n]
		sum += int64(a.X)*int64(b.Y) - int64(b.X)*int64(a.Y)
	}
	return sum
}

// onSegment reports whether p lies on the closed segment a-b.
func onSegment(p, a, b image.Point) bool {
	if crossProduct(a, b, p) != 0 {
		return false
	}
	return min(a.X, b.X) <= p.X && p.X <= max(a.X, b.X) &&
		min(a.Y, b.Y) <= p.Y && p.Y <= max(a.Y, b.Y)
}

// crossProduct computes the cross product of vectors OA and OB.
func crossProduct(o, a, b image.Point) int64 {
	return int64(a.X-o.X)*int64(b.Y-o.Y) - int64(a.Y-o.Y)*int64(b.X-o.X)
}

// uniquePoints returns the distinct points of c in first-seen order.
func uniquePoints(c Contour) Contour {
	seen := make(map[image.Point]struct{}, len(c))
	out := make(Contour, 0, len(c))
	for _, p := range c {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
