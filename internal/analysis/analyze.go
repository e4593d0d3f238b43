// Package analysis runs the per-image contour pipeline: it extracts nuclei
// and AgNORs from a segmentation mask, filters implausible contours,
// rebuilds a clean mask and renders an overlay of what was discarded.
package analysis

import (
	"fmt"

	"agnor-examiner/internal/contour"
	"agnor-examiner/internal/logger"
	"agnor-examiner/internal/mask"
	"agnor-examiner/pkg/colorutil"
	"agnor-examiner/pkg/geometry"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

// Result is the filtered output of one analysis.
type Result struct {
	Mask   gocv.Mat           // reconstructed mask
	Nuclei []geometry.Contour // adequate nuclei
	AgNORs []geometry.Contour // AgNORs inside adequate nuclei
}

// Close releases the reconstructed mask.
func (r *Result) Close() {
	r.Mask.Close()
}

// Diagnostics describes everything Analyze discarded.
type Diagnostics struct {
	// Overlay is the class-colored mask with discarded contours outlined,
	// in BGR order. It is empty when nothing was discarded.
	Overlay gocv.Mat

	// Deformed holds nuclei rejected by the defect ratio check and the
	// AgNORs they contain.
	Deformed       []geometry.Contour
	DeformedAgNORs []geometry.Contour

	NucleiSizeDiscarded []geometry.Contour
	AgNORsSizeDiscarded []geometry.Contour
	NucleiWithoutAgNOR  []geometry.Contour

	SmoothFailures []contour.SmoothFailure
}

// HasOverlay reports whether an overlay image was rendered.
func (d *Diagnostics) HasOverlay() bool {
	return !d.Overlay.Empty()
}

// Close releases the overlay.
func (d *Diagnostics) Close() {
	d.Overlay.Close()
}

// Analyzer runs the contour pipeline with a fixed set of thresholds.
type Analyzer struct {
	params Params
	log    zerolog.Logger
}

// NewAnalyzer returns an Analyzer using params and logging to log.
func NewAnalyzer(params Params, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		params: params,
		log:    logger.Component(log, "analysis"),
	}
}

// Analyze extracts, filters and reconstructs the contours of a 3-channel
// mask. When smooth is set the size-filtered nuclei are resampled before
// the containment and deformation checks; nuclei that cannot be smoothed
// are dropped and reported in Diagnostics.SmoothFailures.
//
// The caller must Close both returned values.
func (a *Analyzer) Analyze(m gocv.Mat, smooth bool) (*Result, *Diagnostics, error) {
	if m.Empty() {
		return nil, nil, fmt.Errorf("analyze: empty mask")
	}
	if m.Channels() != 3 {
		return nil, nil, fmt.Errorf("analyze: mask has %d channels, want 3", m.Channels())
	}

	shape := contour.ShapeOf(m)
	rawNuclei, rawAgNORs := ExtractContours(m)

	nuclei := contour.FilterBySize(rawNuclei, shape, a.params.Nucleus)
	agnors := contour.FilterBySize(rawAgNORs, shape, a.params.AgNOR)

	diag := &Diagnostics{
		NucleiSizeDiscarded: nuclei.Discarded,
		AgNORsSizeDiscarded: agnors.Discarded,
	}

	candidates := nuclei.Kept
	if smooth {
		candidates, diag.SmoothFailures = contour.Smooth(candidates, a.params.SmoothingPoints)
		for _, f := range diag.SmoothFailures {
			a.log.Warn().Err(f.Err).Int("index", f.Index).Msg("nucleus dropped, smoothing failed")
		}
	}

	withAgNOR := contour.WithChildren(candidates, agnors.Kept)
	diag.NucleiWithoutAgNOR = withAgNOR.Discarded

	shapes := contour.FilterDeformed(withAgNOR.Kept, shape, a.params.MaxDefectRatio)
	diag.Deformed = shapes.Discarded

	adequateAgNORs := contour.RestrictToParents(shapes.Kept, agnors.Kept).Kept
	diag.DeformedAgNORs = contour.RestrictToParents(shapes.Discarded, agnors.Kept).Kept

	result := &Result{
		Mask:   Reconstruct(shapes.Kept, adequateAgNORs, shape, mask.Intensity(m)),
		Nuclei: shapes.Kept,
		AgNORs: adequateAgNORs,
	}

	overlay, err := RenderDiagnostics(m, diag)
	if err != nil {
		result.Close()
		return nil, nil, err
	}
	diag.Overlay = overlay

	a.log.Debug().
		Int("nuclei", len(rawNuclei)).
		Int("agnors", len(rawAgNORs)).
		Int("nuclei_size_discarded", len(diag.NucleiSizeDiscarded)).
		Int("agnors_size_discarded", len(diag.AgNORsSizeDiscarded)).
		Int("nuclei_without_agnor", len(diag.NucleiWithoutAgNOR)).
		Int("deformed", len(diag.Deformed)).
		Int("adequate", len(result.Nuclei)).
		Msg("contours analyzed")

	return result, diag, nil
}

// RenderDiagnostics draws the discarded contours of diag over a
// class-colored copy of the source mask. Size-discarded contours and nuclei
// without AgNORs are drawn as white outlines; deformed nuclei are drawn
// with their convex hulls. When no category is populated it returns an
// empty Mat and no overlay should be written.
func RenderDiagnostics(m gocv.Mat, diag *Diagnostics) (gocv.Mat, error) {
	if len(diag.Deformed) == 0 && len(diag.NucleiSizeDiscarded) == 0 &&
		len(diag.AgNORsSizeDiscarded) == 0 && len(diag.NucleiWithoutAgNOR) == 0 {
		return gocv.NewMat(), nil
	}

	overlay := ColorClasses(m)
	steps := []struct {
		contours []geometry.Contour
		mode     DrawMode
	}{
		{diag.NucleiSizeDiscarded, DrawSingle},
		{diag.NucleiWithoutAgNOR, DrawSingle},
		{diag.AgNORsSizeDiscarded, DrawSingle},
		{diag.Deformed, DrawMultiple},
	}
	for _, s := range steps {
		if err := DrawContourLines(&overlay, s.contours, s.mode); err != nil {
			overlay.Close()
			return gocv.NewMat(), err
		}
	}
	return overlay, nil
}

// ColorClasses paints every class of a mask with its display color and
// returns a BGR image. The caller owns the result.
func ColorClasses(m gocv.Mat) gocv.Mat {
	out := gocv.NewMatWithSizeFromScalar(scalar(colorutil.BackgroundColor), m.Rows(), m.Cols(), gocv.MatTypeCV8UC3)

	ch := mask.Split(m)
	defer ch.Close()

	paint(&out, ch.Nucleus, colorutil.NucleusColor)
	paint(&out, ch.AgNOR, colorutil.AgNORColor)
	return out
}
