package contour

import "agnor-examiner/pkg/geometry"

// SizeProfile bounds the pixel count of one class of objects.
type SizeProfile struct {
	MaxPixelCount      int     `yaml:"maxPixelCount"`
	MinRelativePercent float64 `yaml:"minRelativePercent"`
}

// MinAbsolute returns the lower pixel bound: MinRelativePercent of
// MaxPixelCount, scaled down by 100 once more. The result is a deliberately
// small floor that only rejects specks.
func (p SizeProfile) MinAbsolute() int {
	return int(p.MinRelativePercent * float64(p.MaxPixelCount) / 100)
}

// FilterBySize keeps contours whose pixel count lies in
// [MinAbsolute, MaxPixelCount], both ends inclusive.
func FilterBySize(contours []geometry.Contour, shape geometry.Shape, profile SizeProfile) Partition {
	var out Partition
	lo, hi := profile.MinAbsolute(), profile.MaxPixelCount

	for _, c := range contours {
		n := PixelCount(c, shape)
		if n >= lo && n <= hi {
			out.keep(c)
		} else {
			out.discard(c)
		}
	}
	return out
}
