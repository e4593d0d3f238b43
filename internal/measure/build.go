package measure

import (
	"agnor-examiner/internal/contour"
	"agnor-examiner/pkg/geometry"
)

// Context describes where a set of contours came from.
type Context struct {
	Specimen
	SourceImage string

	// AgNORType is written to every AgNOR row before classification.
	// Empty means cluster.
	AgNORType string
}

// Build measures parents (nuclei) and children (AgNORs). Nuclei are
// numbered from startIndex. Each AgNOR is attributed to the first nucleus
// that contains one of its points and is never attributed twice; AgNORs
// inside no nucleus produce no row. AgNOR ids restart at 0 for every
// nucleus.
//
// The greatest and smallest AgNOR ratios are computed against the largest
// and smallest AgNOR of the whole call, not of the AgNOR's own nucleus.
func Build(parents, children []geometry.Contour, shape geometry.Shape, ctx Context, startIndex int, flag string) ([]NucleusRecord, []AgNORRecord) {
	agnorType := ctx.AgNORType
	if agnorType == "" {
		agnorType = TypeCluster
	}

	nuclei := make([]NucleusRecord, 0, len(parents))
	var agnors []AgNORRecord

	childPixels := make([]int, len(children))
	attributed := make([]bool, len(children))
	for i, c := range children {
		childPixels[i] = contour.PixelCount(c, shape)
	}

	for i, p := range parents {
		id := startIndex + i
		parentPixels := contour.PixelCount(p, shape)

		nuclei = append(nuclei, NucleusRecord{
			Specimen:    ctx.Specimen,
			SourceImage: ctx.SourceImage,
			Flag:        flag,
			Nucleus:     id,
			PixelCount:  parentPixels,
			Type:        TypeNucleus,
		})

		childID := 0
		for j, c := range children {
			if attributed[j] || !contour.Touches(p, c) {
				continue
			}
			attributed[j] = true

			rec := AgNORRecord{
				Specimen:    ctx.Specimen,
				SourceImage: ctx.SourceImage,
				Flag:        flag,
				Nucleus:     id,
				AgNOR:       childID,
				PixelCount:  childPixels[j],
				Type:        agnorType,
			}
			if parentPixels > 0 {
				rec.NucleusRatio = float64(childPixels[j]) / float64(parentPixels)
			}
			agnors = append(agnors, rec)
			childID++
		}
	}

	if len(agnors) == 0 {
		return nuclei, agnors
	}

	lo, hi := agnors[0].PixelCount, agnors[0].PixelCount
	for _, r := range agnors[1:] {
		lo = min(lo, r.PixelCount)
		hi = max(hi, r.PixelCount)
	}
	for i := range agnors {
		if hi > 0 {
			agnors[i].GreatestRatio = float64(agnors[i].PixelCount) / float64(hi)
		}
		if lo > 0 {
			agnors[i].SmallestRatio = float64(agnors[i].PixelCount) / float64(lo)
		}
	}
	return nuclei, agnors
}
