package analysis

import (
	"agnor-examiner/internal/contour"
	"agnor-examiner/internal/mask"
	"agnor-examiner/pkg/geometry"

	"gocv.io/x/gocv"
)

// RestrictToBoxes keeps the nuclei touching at least one annotation box and
// the AgNORs touching at least one kept nucleus, then rebuilds the mask
// from them. The caller must Close the result.
func RestrictToBoxes(m gocv.Mat, nuclei, agnors, boxes []geometry.Contour) *Result {
	keptNuclei := contour.RestrictToParents(boxes, nuclei).Kept
	keptAgNORs := contour.RestrictToParents(keptNuclei, agnors).Kept

	return &Result{
		Mask:   Reconstruct(keptNuclei, keptAgNORs, contour.ShapeOf(m), mask.Intensity(m)),
		Nuclei: keptNuclei,
		AgNORs: keptAgNORs,
	}
}
