// Package contour provides contour extraction, rasterised measurement and
// the filtering stages applied to nucleus and AgNOR contours.
//
// Pixel counts are always obtained by filling the contour on a blank canvas
// of the source image's shape and counting non-zero pixels. This keeps every
// area figure consistent with how masks are drawn, at a cost of O(image
// pixels) per call.
package contour

import (
	"errors"
	"image"
	"image/color"

	"agnor-examiner/pkg/colorutil"
	"agnor-examiner/pkg/geometry"

	"gocv.io/x/gocv"
)

// ErrDegenerateGeometry is returned when a contour cannot be processed
// because it has too few distinct points or all its points are collinear.
var ErrDegenerateGeometry = errors.New("degenerate contour geometry")

// Partition splits an input set of contours into kept and discarded
// subsets. Together they always cover the input exactly once, and each
// subset preserves the input order.
type Partition struct {
	Kept      []geometry.Contour
	Discarded []geometry.Contour
}

func (p *Partition) keep(c geometry.Contour)    { p.Kept = append(p.Kept, c) }
func (p *Partition) discard(c geometry.Contour) { p.Discarded = append(p.Discarded, c) }

// ShapeOf returns the raster shape of a Mat.
func ShapeOf(m gocv.Mat) geometry.Shape {
	return geometry.Shape{Rows: m.Rows(), Cols: m.Cols()}
}

// Extract finds the external contours of every connected non-zero region in
// a single-channel mask. Any non-zero intensity counts as foreground.
func Extract(channel gocv.Mat) []geometry.Contour {
	if channel.Empty() {
		return nil
	}

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(channel, &binary, 0, 255, gocv.ThresholdBinary)

	found := gocv.FindContours(binary, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer found.Close()

	contours := make([]geometry.Contour, 0, found.Size())
	for i := 0; i < found.Size(); i++ {
		contours = append(contours, geometry.Contour(found.At(i).ToPoints()))
	}
	return contours
}

// PixelCount rasterises the filled contour onto a blank canvas of the given
// shape and returns the number of pixels covered.
func PixelCount(c geometry.Contour, shape geometry.Shape) int {
	if len(c) == 0 || shape.Empty() {
		return 0
	}

	canvas := gocv.NewMatWithSize(shape.Rows, shape.Cols, gocv.MatTypeCV8U)
	defer canvas.Close()

	Fill(&canvas, []geometry.Contour{c}, colorutil.Gray(1))
	return gocv.CountNonZero(canvas)
}

// DefectRatio returns the relative pixel difference between a contour and
// its convex hull, in percent:
//
//	(hull - contour) / ((hull + contour) / 2) * 100
//
// Convex shapes score 0; concave, fragmented or merged shapes score higher.
// A contour that covers no pixels scores 0.
func DefectRatio(c geometry.Contour, shape geometry.Shape) float64 {
	contourPixels := PixelCount(c, shape)
	hullPixels := PixelCount(geometry.ConvexHull(c), shape)

	mean := float64(hullPixels+contourPixels) / 2
	if mean == 0 {
		return 0
	}
	return float64(hullPixels-contourPixels) / mean * 100
}

// Fill draws the contours filled with the given color.
func Fill(img *gocv.Mat, contours []geometry.Contour, c color.RGBA) {
	draw(img, contours, c, -1)
}

// Outline draws the contours as one pixel wide lines.
func Outline(img *gocv.Mat, contours []geometry.Contour, c color.RGBA) {
	draw(img, contours, c, 1)
}

func draw(img *gocv.Mat, contours []geometry.Contour, c color.RGBA, thickness int) {
	if len(contours) == 0 {
		return
	}
	pv := toPointsVector(contours)
	defer pv.Close()
	gocv.DrawContours(img, pv, -1, c, thickness)
}

// Dilate renders the contours filled on a blank canvas and grows the
// foreground with a structuring element of the given shape and size,
// repeated iterations times. If shape is empty the canvas is sized to twice
// the largest coordinate found in the contours. The caller owns the
// returned Mat.
func Dilate(contours []geometry.Contour, shape geometry.Shape, element gocv.MorphShape, kernel image.Point, iterations int) gocv.Mat {
	if shape.Empty() {
		maxValue := 0
		for _, c := range contours {
			for _, p := range c {
				maxValue = max(maxValue, p.X, p.Y)
			}
		}
		shape = geometry.Shape{Rows: maxValue * 2, Cols: maxValue * 2}
	}
	if shape.Empty() {
		return gocv.NewMat()
	}

	mask := gocv.NewMatWithSize(shape.Rows, shape.Cols, gocv.MatTypeCV8U)
	Fill(&mask, contours, colorutil.White)

	structuring := gocv.GetStructuringElement(element, kernel)
	defer structuring.Close()

	for i := 0; i < iterations; i++ {
		gocv.Dilate(mask, &mask, structuring)
	}
	return mask
}

func toPointsVector(contours []geometry.Contour) gocv.PointsVector {
	pts := make([][]image.Point, len(contours))
	for i, c := range contours {
		pts[i] = c
	}
	return gocv.NewPointsVectorFromPoints(pts)
}
