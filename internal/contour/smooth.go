package contour

import (
	"fmt"
	"image"

	"agnor-examiner/pkg/geometry"

	"gonum.org/v1/gonum/interp"
)

// DefaultSmoothingPoints is the number of points a smoothed contour has.
const DefaultSmoothingPoints = 40

// SmoothFailure records a contour the smoother could not fit.
type SmoothFailure struct {
	Index int // position in the input slice
	Err   error
}

// Smooth resamples every contour with SmoothContour. Contours that cannot be
// fitted are left out of the result and reported as failures, so the output
// may be shorter than the input.
func Smooth(contours []geometry.Contour, points int) ([]geometry.Contour, []SmoothFailure) {
	smoothed := make([]geometry.Contour, 0, len(contours))
	var failures []SmoothFailure

	for i, c := range contours {
		s, err := SmoothContour(c, points)
		if err != nil {
			failures = append(failures, SmoothFailure{Index: i, Err: err})
			continue
		}
		smoothed = append(smoothed, s)
	}
	return smoothed, failures
}

// SmoothContour fits a closed piecewise linear curve through the contour,
// parameterised by normalised cumulative chord length, and samples it at
// points evenly spaced parameter values in [0, 1]. Coordinates are
// truncated to integers. The first and last samples coincide because the
// curve is periodic.
func SmoothContour(c geometry.Contour, points int) (geometry.Contour, error) {
	if points < 2 {
		return nil, fmt.Errorf("smooth contour: %d output points: %w", points, ErrDegenerateGeometry)
	}

	pts := dropRepeats(c)
	if len(pts) < 3 {
		return nil, fmt.Errorf("smooth contour: %d distinct points: %w", len(pts), ErrDegenerateGeometry)
	}
	if geometry.DoubleArea(pts) == 0 {
		return nil, fmt.Errorf("smooth contour: collinear points: %w", ErrDegenerateGeometry)
	}

	// Close the curve so the parameter wraps back onto the first point.
	closed := append(pts.Clone(), pts[0])

	u := make([]float64, len(closed))
	xs := make([]float64, len(closed))
	ys := make([]float64, len(closed))
	for i, p := range closed {
		xs[i], ys[i] = float64(p.X), float64(p.Y)
		if i > 0 {
			u[i] = u[i-1] + geometry.ToFloat(closed[i-1]).Distance(geometry.ToFloat(p))
		}
	}
	total := u[len(u)-1]
	for i := range u {
		u[i] /= total
	}

	var fx, fy interp.PiecewiseLinear
	if err := fx.Fit(u, xs); err != nil {
		return nil, fmt.Errorf("smooth contour: fit x: %v: %w", err, ErrDegenerateGeometry)
	}
	if err := fy.Fit(u, ys); err != nil {
		return nil, fmt.Errorf("smooth contour: fit y: %v: %w", err, ErrDegenerateGeometry)
	}

	out := make(geometry.Contour, points)
	for i := range out {
		t := float64(i) / float64(points-1)
		out[i] = image.Pt(int(fx.Predict(t)), int(fy.Predict(t)))
	}
	return out, nil
}

// dropRepeats removes consecutive duplicate points, including a trailing
// point equal to the first.
func dropRepeats(c geometry.Contour) geometry.Contour {
	out := make(geometry.Contour, 0, len(c))
	for _, p := range c {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[len(out)-1] == out[0] {
		out = out[:len(out)-1]
	}
	return out
}
