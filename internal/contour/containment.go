package contour

import "agnor-examiner/pkg/geometry"

// WithChildren partitions parents into those touched by at least one point
// of at least one child and those touched by none.
func WithChildren(parents, children []geometry.Contour) Partition {
	var out Partition
	for _, p := range parents {
		if anyTouches(p, children) {
			out.keep(p)
		} else {
			out.discard(p)
		}
	}
	return out
}

// RestrictToParents partitions children into those with at least one point
// inside or on some parent and those lying fully outside every parent.
func RestrictToParents(parents, children []geometry.Contour) Partition {
	var out Partition
	for _, c := range children {
		kept := false
		for _, p := range parents {
			if Touches(p, c) {
				kept = true
				break
			}
		}
		if kept {
			out.keep(c)
		} else {
			out.discard(c)
		}
	}
	return out
}

// Touches reports whether any point of child lies inside or on the
// boundary of parent. It stops at the first such point.
func Touches(parent, child geometry.Contour) bool {
	for _, pt := range child {
		if geometry.PointInPolygon(pt, parent) >= geometry.Boundary {
			return true
		}
	}
	return false
}

func anyTouches(parent geometry.Contour, children []geometry.Contour) bool {
	for _, c := range children {
		if Touches(parent, c) {
			return true
		}
	}
	return false
}
