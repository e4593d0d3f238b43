package analysis

import (
	"agnor-examiner/internal/contour"
	"agnor-examiner/internal/mask"
	"agnor-examiner/pkg/colorutil"
	"agnor-examiner/pkg/geometry"

	"gocv.io/x/gocv"
)

// Reconstruct renders nucleus and AgNOR contours filled into a fresh
// 3-channel mask at the given intensity. AgNOR pixels take priority over
// nucleus pixels, and background covers every pixel that is neither. The
// caller owns the returned Mat.
func Reconstruct(nuclei, agnors []geometry.Contour, shape geometry.Shape, intensity uint8) gocv.Mat {
	level := colorutil.Gray(intensity)

	nucleus := gocv.NewMatWithSize(shape.Rows, shape.Cols, gocv.MatTypeCV8U)
	defer nucleus.Close()
	contour.Fill(&nucleus, nuclei, level)

	agnor := gocv.NewMatWithSize(shape.Rows, shape.Cols, gocv.MatTypeCV8U)
	defer agnor.Close()
	contour.Fill(&agnor, agnors, level)

	// Clear nucleus pixels covered by an AgNOR.
	blank := gocv.NewMatWithSize(shape.Rows, shape.Cols, gocv.MatTypeCV8U)
	defer blank.Close()
	blank.CopyToWithMask(&nucleus, agnor)

	occupied := gocv.NewMat()
	defer occupied.Close()
	gocv.BitwiseOr(nucleus, agnor, &occupied)

	background := gocv.NewMat()
	defer background.Close()
	gocv.Threshold(occupied, &background, 0, float32(intensity), gocv.ThresholdBinaryInv)

	out := gocv.NewMat()
	gocv.Merge([]gocv.Mat{background, nucleus, agnor}, &out)
	return out
}

// ExtractContours returns the raw nucleus and AgNOR contours of a mask.
// Nuclei are the connected regions of the nucleus and AgNOR channels
// combined; AgNORs are the regions of the AgNOR channel alone.
func ExtractContours(m gocv.Mat) (nuclei, agnors []geometry.Contour) {
	ch := mask.Split(m)
	defer ch.Close()

	fg := ch.Foreground()
	defer fg.Close()

	return contour.Extract(fg), contour.Extract(ch.AgNOR)
}
