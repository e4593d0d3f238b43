package analysis

import "agnor-examiner/internal/contour"

// Params holds the thresholds used by Analyze.
type Params struct {
	Nucleus contour.SizeProfile
	AgNOR   contour.SizeProfile

	// MaxDefectRatio is the largest convex hull defect ratio, in percent,
	// a nucleus may have before it is treated as overlapping or deformed.
	MaxDefectRatio float64

	// SmoothingPoints is the number of points each nucleus contour is
	// resampled to when smoothing is requested.
	SmoothingPoints int
}

// DefaultParams returns the default nucleus and AgNOR thresholds.
func DefaultParams() Params {
	return Params{
		Nucleus: contour.SizeProfile{
			MaxPixelCount:      67000,
			MinRelativePercent: 0.02,
		},
		AgNOR: contour.SizeProfile{
			MaxPixelCount:      3521,
			MinRelativePercent: 0.0017,
		},
		MaxDefectRatio:  contour.DefaultMaxDefectRatio,
		SmoothingPoints: contour.DefaultSmoothingPoints,
	}
}
