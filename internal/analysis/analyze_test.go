package analysis

import (
	"errors"
	"io"
	"testing"

	"agnor-examiner/internal/contour"
	"agnor-examiner/internal/mask"
	"agnor-examiner/pkg/geometry"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

var testShape = geometry.Shape{Rows: 100, Cols: 100}

func box(x, y, size int) geometry.Contour {
	return geometry.BoxContour(x, y, x+size-1, y+size-1)
}

func lShape(x, y, size int) geometry.Contour {
	s, h := size-1, size/2-1
	return geometry.Contour{
		{x, y}, {x + s, y}, {x + s, y + h}, {x + h, y + h}, {x + h, y + s}, {x, y + s},
	}
}

func testParams() Params {
	p := DefaultParams()
	p.Nucleus = contour.SizeProfile{MaxPixelCount: 5000, MinRelativePercent: 1} // 50 px floor
	p.AgNOR = contour.SizeProfile{MaxPixelCount: 100, MinRelativePercent: 0}
	return p
}

func newAnalyzer() *Analyzer {
	return NewAnalyzer(testParams(), zerolog.New(io.Discard))
}

// fixture holds one adequate nucleus with an AgNOR, one nucleus without
// AgNORs, one deformed nucleus with an AgNOR and one speck below the
// nucleus size floor.
func fixture() gocv.Mat {
	nuclei := []geometry.Contour{
		box(5, 5, 20),
		box(40, 5, 20),
		lShape(5, 50, 30),
		box(90, 90, 2),
	}
	agnors := []geometry.Contour{
		box(10, 10, 4),
		box(8, 53, 3),
	}
	return Reconstruct(nuclei, agnors, testShape, 255)
}

func TestAnalyze(t *testing.T) {
	m := fixture()
	defer m.Close()

	res, diag, err := newAnalyzer().Analyze(m, false)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	defer res.Close()
	defer diag.Close()

	counts := []struct {
		name string
		got  int
		want int
	}{
		{"adequate nuclei", len(res.Nuclei), 1},
		{"adequate agnors", len(res.AgNORs), 1},
		{"deformed nuclei", len(diag.Deformed), 1},
		{"deformed agnors", len(diag.DeformedAgNORs), 1},
		{"without agnor", len(diag.NucleiWithoutAgNOR), 1},
		{"nuclei size discarded", len(diag.NucleiSizeDiscarded), 1},
		{"agnors size discarded", len(diag.AgNORsSizeDiscarded), 0},
	}
	for _, c := range counts {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}

	if !diag.HasOverlay() {
		t.Error("expected an overlay")
	}

	ch := mask.Split(res.Mask)
	defer ch.Close()
	if got := gocv.CountNonZero(ch.Nucleus); got != 384 {
		t.Errorf("nucleus pixels = %d, want 384", got)
	}
	if got := gocv.CountNonZero(ch.AgNOR); got != 16 {
		t.Errorf("agnor pixels = %d, want 16", got)
	}
	if got := gocv.CountNonZero(ch.Background); got != 10000-400 {
		t.Errorf("background pixels = %d, want %d", got, 10000-400)
	}
}

func TestAnalyze_RoundTrip(t *testing.T) {
	m := fixture()
	defer m.Close()

	a := newAnalyzer()
	first, d1, err := a.Analyze(m, false)
	if err != nil {
		t.Fatal(err)
	}
	defer first.Close()
	defer d1.Close()

	second, d2, err := a.Analyze(first.Mask, false)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()
	defer d2.Close()

	if len(second.Nuclei) != len(first.Nuclei) || len(second.AgNORs) != len(first.AgNORs) {
		t.Errorf("second pass found %d/%d, first %d/%d",
			len(second.Nuclei), len(second.AgNORs), len(first.Nuclei), len(first.AgNORs))
	}
	if d2.HasOverlay() {
		t.Error("second pass should discard nothing")
	}
}

func TestAnalyze_Smooth(t *testing.T) {
	m := Reconstruct([]geometry.Contour{box(10, 10, 30)}, []geometry.Contour{box(20, 20, 5)}, testShape, 255)
	defer m.Close()

	res, diag, err := newAnalyzer().Analyze(m, true)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()
	defer diag.Close()

	if len(res.Nuclei) != 1 {
		t.Fatalf("nuclei = %d, want 1", len(res.Nuclei))
	}
	if got := len(res.Nuclei[0]); got != testParams().SmoothingPoints {
		t.Errorf("smoothed nucleus has %d points, want %d", got, testParams().SmoothingPoints)
	}
	if len(diag.SmoothFailures) != 0 {
		t.Errorf("unexpected smoothing failures: %v", diag.SmoothFailures)
	}
}

func TestAnalyze_RejectsBadInput(t *testing.T) {
	a := newAnalyzer()

	empty := gocv.NewMat()
	defer empty.Close()
	if _, _, err := a.Analyze(empty, false); err == nil {
		t.Error("expected error for empty mask")
	}

	gray := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8U)
	defer gray.Close()
	if _, _, err := a.Analyze(gray, false); err == nil {
		t.Error("expected error for single-channel mask")
	}
}

func TestRenderDiagnostics_NothingDiscarded(t *testing.T) {
	m := fixture()
	defer m.Close()

	overlay, err := RenderDiagnostics(m, &Diagnostics{})
	if err != nil {
		t.Fatal(err)
	}
	defer overlay.Close()
	if !overlay.Empty() {
		t.Error("overlay rendered with no discarded contours")
	}
}

func TestRestrictToBoxes(t *testing.T) {
	m := fixture()
	defer m.Close()

	nuclei, agnors := ExtractContours(m)
	res := RestrictToBoxes(m, nuclei, agnors, []geometry.Contour{geometry.BoxContour(0, 0, 30, 30)})
	defer res.Close()

	if len(res.Nuclei) != 1 || len(res.AgNORs) != 1 {
		t.Fatalf("kept %d nuclei and %d agnors, want 1 and 1", len(res.Nuclei), len(res.AgNORs))
	}

	again, againAgNORs := ExtractContours(res.Mask)
	if len(again) != 1 || len(againAgNORs) != 1 {
		t.Errorf("rebuilt mask has %d nuclei and %d agnors", len(again), len(againAgNORs))
	}
}

func TestColorClasses(t *testing.T) {
	m := fixture()
	defer m.Close()

	img := ColorClasses(m)
	defer img.Close()

	// BGR of #825ab4 inside the first nucleus, #e63c3c inside its AgNOR
	if b, g, r := img.GetUCharAt(20, 20*3), img.GetUCharAt(20, 20*3+1), img.GetUCharAt(20, 20*3+2); b != 0xb4 || g != 0x5a || r != 0x82 {
		t.Errorf("nucleus pixel = (%d,%d,%d)", b, g, r)
	}
	if b, r := img.GetUCharAt(11, 11*3), img.GetUCharAt(11, 11*3+2); b != 0x3c || r != 0xe6 {
		t.Errorf("agnor pixel b=%d r=%d", b, r)
	}
	if img.GetUCharAt(0, 0) != 0 {
		t.Error("background pixel not black")
	}
}

func TestDrawContourLines(t *testing.T) {
	img := gocv.NewMatWithSize(20, 20, gocv.MatTypeCV8UC3)
	defer img.Close()

	if err := DrawContourLines(&img, []geometry.Contour{box(2, 2, 6)}, DrawMultiple); err != nil {
		t.Fatal(err)
	}
	// A square is its own hull, so its outline is white.
	for i := 0; i < 3; i++ {
		if v := img.GetUCharAt(2, 2*3+i); v != 255 {
			t.Fatalf("corner channel %d = %d, want 255", i, v)
		}
	}

	l := gocv.NewMatWithSize(20, 20, gocv.MatTypeCV8UC3)
	defer l.Close()
	if err := DrawContourLines(&l, []geometry.Contour{lShape(0, 0, 10)}, DrawMultiple); err != nil {
		t.Fatal(err)
	}
	// The concave corner lies on the contour only: yellow in BGR.
	if b, g, r := l.GetUCharAt(4, 4*3), l.GetUCharAt(4, 4*3+1), l.GetUCharAt(4, 4*3+2); b != 0 || g != 255 || r != 255 {
		t.Errorf("concave corner = (%d,%d,%d), want yellow", b, g, r)
	}
}

func TestDrawContourLines_InvalidMode(t *testing.T) {
	img := gocv.NewMatWithSize(4, 4, gocv.MatTypeCV8UC3)
	defer img.Close()

	err := DrawContourLines(&img, nil, DrawMode("dotted"))
	if !errors.Is(err, ErrInvalidDrawMode) {
		t.Errorf("err = %v, want ErrInvalidDrawMode", err)
	}
}
