package contour

import "agnor-examiner/pkg/geometry"

// DefaultMaxDefectRatio is the defect ratio, in percent, above which a
// contour is treated as overlapping or deformed.
const DefaultMaxDefectRatio = 5.0

// FilterDeformed keeps contours whose convex hull defect ratio is at most
// maxDiff. Merged or fragmented objects exceed it and are discarded.
func FilterDeformed(contours []geometry.Contour, shape geometry.Shape, maxDiff float64) Partition {
	var out Partition
	for _, c := range contours {
		if DefectRatio(c, shape) > maxDiff {
			out.discard(c)
		} else {
			out.keep(c)
		}
	}
	return out
}
