package analysis

import (
	"errors"
	"fmt"
	"image/color"

	"agnor-examiner/internal/contour"
	"agnor-examiner/pkg/colorutil"
	"agnor-examiner/pkg/geometry"

	"gocv.io/x/gocv"
)

// ErrInvalidDrawMode is returned by DrawContourLines for an unknown mode.
var ErrInvalidDrawMode = errors.New("invalid draw mode")

// DrawMode selects how DrawContourLines renders contours.
type DrawMode string

const (
	// DrawSingle draws each contour as a white outline.
	DrawSingle DrawMode = "single"
	// DrawMultiple draws each contour in yellow and its convex hull in
	// cyan. Pixels where both lines coincide are drawn white.
	DrawMultiple DrawMode = "multiple"
)

// DrawContourLines draws contour outlines onto img in place. img is
// expected in BGR order.
func DrawContourLines(img *gocv.Mat, contours []geometry.Contour, mode DrawMode) error {
	switch mode {
	case DrawSingle:
		contour.Outline(img, contours, colorutil.White)
	case DrawMultiple:
		drawWithHulls(img, contours)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDrawMode, mode)
	}
	return nil
}

func drawWithHulls(img *gocv.Mat, contours []geometry.Contour) {
	if len(contours) == 0 {
		return
	}

	hulls := make([]geometry.Contour, len(contours))
	for i, c := range contours {
		hulls[i] = geometry.ConvexHull(c)
	}

	shape := contour.ShapeOf(*img)
	lines := lineMask(contours, shape)
	defer lines.Close()
	hullLines := lineMask(hulls, shape)
	defer hullLines.Close()

	shared := gocv.NewMat()
	defer shared.Close()
	gocv.BitwiseAnd(lines, hullLines, &shared)

	contour.Outline(img, contours, colorutil.Yellow)
	contour.Outline(img, hulls, colorutil.Cyan)
	paint(img, shared, colorutil.White)
}

// lineMask draws one pixel wide outlines on a blank single-channel canvas.
func lineMask(contours []geometry.Contour, shape geometry.Shape) gocv.Mat {
	m := gocv.NewMatWithSize(shape.Rows, shape.Cols, gocv.MatTypeCV8U)
	contour.Outline(&m, contours, colorutil.Gray(255))
	return m
}

// paint sets every pixel of img selected by the non-zero entries of
// selection to c.
func paint(img *gocv.Mat, selection gocv.Mat, c color.RGBA) {
	layer := gocv.NewMatWithSizeFromScalar(scalar(c), img.Rows(), img.Cols(), img.Type())
	defer layer.Close()
	layer.CopyToWithMask(img, selection)
}

// scalar converts a color to the BGR scalar gocv uses for drawing.
func scalar(c color.RGBA) gocv.Scalar {
	return gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), float64(c.A))
}
