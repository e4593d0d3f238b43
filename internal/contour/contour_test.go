package contour

import (
	"errors"
	"image"
	"testing"

	"agnor-examiner/pkg/colorutil"
	"agnor-examiner/pkg/geometry"

	"gocv.io/x/gocv"
)

var testShape = geometry.Shape{Rows: 64, Cols: 64}

func box(x, y, size int) geometry.Contour {
	return geometry.BoxContour(x, y, x+size-1, y+size-1)
}

// lShape is a 10x10 square with its lower-right 5x5 quadrant removed.
func lShape(x, y int) geometry.Contour {
	return geometry.Contour{
		{x, y}, {x + 9, y}, {x + 9, y + 4}, {x + 4, y + 4}, {x + 4, y + 9}, {x, y + 9},
	}
}

func TestPixelCount(t *testing.T) {
	tests := []struct {
		name string
		c    geometry.Contour
		want int
	}{
		{"10x10 square", box(10, 10, 10), 100},
		{"1x1", box(3, 3, 1), 1},
		{"l shape", lShape(10, 10), 75},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PixelCount(tt.c, testShape); got != tt.want {
				t.Errorf("PixelCount = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPixelCount_Monotonic(t *testing.T) {
	outer := box(5, 5, 20)
	inner := box(10, 10, 5)
	if PixelCount(outer, testShape) < PixelCount(inner, testShape) {
		t.Error("enclosing contour has fewer pixels than the enclosed one")
	}
}

func TestExtract(t *testing.T) {
	channel := gocv.NewMatWithSize(testShape.Rows, testShape.Cols, gocv.MatTypeCV8U)
	defer channel.Close()

	Fill(&channel, []geometry.Contour{box(2, 2, 10), box(30, 30, 8)}, colorutil.Gray(255))

	found := Extract(channel)
	if len(found) != 2 {
		t.Fatalf("Extract found %d contours, want 2", len(found))
	}
	total := 0
	for _, c := range found {
		total += PixelCount(c, testShape)
	}
	if total != 164 {
		t.Errorf("extracted contours cover %d pixels, want 164", total)
	}
}

func TestExtract_Empty(t *testing.T) {
	channel := gocv.NewMatWithSize(8, 8, gocv.MatTypeCV8U)
	defer channel.Close()
	if found := Extract(channel); len(found) != 0 {
		t.Errorf("Extract on blank channel = %d contours", len(found))
	}
}

func TestDefectRatio(t *testing.T) {
	if r := DefectRatio(box(10, 10, 10), testShape); r != 0 {
		t.Errorf("square defect ratio = %v, want 0", r)
	}
	if r := DefectRatio(lShape(10, 10), testShape); r <= DefaultMaxDefectRatio {
		t.Errorf("l shape defect ratio = %v, want > %v", r, DefaultMaxDefectRatio)
	}
	if r := DefectRatio(nil, testShape); r != 0 {
		t.Errorf("empty defect ratio = %v, want 0", r)
	}
}

func TestFilterBySize_Boundaries(t *testing.T) {
	c := []geometry.Contour{box(10, 10, 10)} // 100 pixels

	tests := []struct {
		name    string
		profile SizeProfile
		kept    bool
	}{
		{"equal to max", SizeProfile{MaxPixelCount: 100, MinRelativePercent: 0}, true},
		{"one above max", SizeProfile{MaxPixelCount: 99, MinRelativePercent: 0}, false},
		{"equal to min", SizeProfile{MaxPixelCount: 200, MinRelativePercent: 50}, true},
		{"one below min", SizeProfile{MaxPixelCount: 200, MinRelativePercent: 50.5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FilterBySize(c, testShape, tt.profile)
			if got := len(p.Kept) == 1; got != tt.kept {
				t.Errorf("kept = %v, want %v (min %d)", got, tt.kept, tt.profile.MinAbsolute())
			}
			if len(p.Kept)+len(p.Discarded) != 1 {
				t.Error("partition does not cover input")
			}
		})
	}
}

func TestSizeProfile_MinAbsolute(t *testing.T) {
	p := SizeProfile{MaxPixelCount: 67000, MinRelativePercent: 0.02}
	if got := p.MinAbsolute(); got != 13 {
		t.Errorf("MinAbsolute = %d, want 13", got)
	}
}

func TestWithChildren(t *testing.T) {
	parents := []geometry.Contour{box(0, 0, 20), box(30, 30, 20), box(60, 0, 10)}
	children := []geometry.Contour{
		box(5, 5, 3),   // inside first parent
		box(48, 48, 5), // straddles the second parent's corner
		box(90, 90, 2), // outside everything
	}

	p := WithChildren(parents, children)
	assertPartition(t, parents, p)
	if len(p.Kept) != 2 || len(p.Discarded) != 1 {
		t.Fatalf("kept %d discarded %d, want 2 and 1", len(p.Kept), len(p.Discarded))
	}
	if p.Discarded[0][0] != parents[2][0] {
		t.Error("wrong parent discarded")
	}
}

func TestRestrictToParents(t *testing.T) {
	parents := []geometry.Contour{box(0, 0, 20)}
	children := []geometry.Contour{
		box(5, 5, 3),
		box(19, 19, 4), // shares only the corner point
		box(40, 40, 3),
	}

	p := RestrictToParents(parents, children)
	assertPartition(t, children, p)
	if len(p.Kept) != 2 {
		t.Fatalf("kept %d children, want 2", len(p.Kept))
	}
	if len(p.Discarded) != 1 || p.Discarded[0][0] != children[2][0] {
		t.Errorf("discarded = %v, want the far child", p.Discarded)
	}
}

func TestContainment_EmptyInputs(t *testing.T) {
	if p := WithChildren(nil, []geometry.Contour{box(0, 0, 3)}); len(p.Kept)+len(p.Discarded) != 0 {
		t.Error("no parents should give an empty partition")
	}
	p := RestrictToParents(nil, []geometry.Contour{box(0, 0, 3)})
	if len(p.Discarded) != 1 {
		t.Error("child without parents should be discarded")
	}
}

func TestFilterDeformed(t *testing.T) {
	in := []geometry.Contour{box(2, 2, 10), lShape(20, 20), box(40, 40, 12)}
	p := FilterDeformed(in, testShape, DefaultMaxDefectRatio)
	assertPartition(t, in, p)

	if len(p.Discarded) != 1 || p.Discarded[0][0] != in[1][0] {
		t.Errorf("discarded = %v, want only the l shape", p.Discarded)
	}
	// order preserved
	if p.Kept[0][0] != in[0][0] || p.Kept[1][0] != in[2][0] {
		t.Error("kept contours out of order")
	}
}

func TestSmoothContour(t *testing.T) {
	sq := box(10, 10, 10)
	s, err := SmoothContour(sq, DefaultSmoothingPoints)
	if err != nil {
		t.Fatalf("SmoothContour: %v", err)
	}
	if len(s) != DefaultSmoothingPoints {
		t.Fatalf("got %d points, want %d", len(s), DefaultSmoothingPoints)
	}
	if s[0] != s[len(s)-1] {
		t.Errorf("first %v and last %v samples differ", s[0], s[len(s)-1])
	}
	bounds := image.Rect(10, 10, 20, 20)
	for _, p := range s {
		if !p.In(bounds) {
			t.Errorf("sample %v outside the source contour", p)
		}
	}
}

func TestSmoothContour_Degenerate(t *testing.T) {
	tests := []struct {
		name string
		c    geometry.Contour
	}{
		{"two points", geometry.Contour{{0, 0}, {5, 5}}},
		{"repeated points", geometry.Contour{{1, 1}, {1, 1}, {2, 2}, {2, 2}}},
		{"collinear", geometry.Contour{{0, 0}, {1, 1}, {2, 2}, {3, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SmoothContour(tt.c, 20)
			if !errors.Is(err, ErrDegenerateGeometry) {
				t.Errorf("err = %v, want ErrDegenerateGeometry", err)
			}
		})
	}
}

func TestSmooth_DropsFailures(t *testing.T) {
	in := []geometry.Contour{box(0, 0, 10), {{0, 0}, {3, 3}}, box(20, 20, 5)}
	out, failures := Smooth(in, 30)
	if len(out) != 2 {
		t.Errorf("smoothed %d contours, want 2", len(out))
	}
	if len(failures) != 1 || failures[0].Index != 1 {
		t.Errorf("failures = %+v, want index 1", failures)
	}
}

func TestDilate(t *testing.T) {
	c := []geometry.Contour{box(10, 10, 10)}

	grown := Dilate(c, testShape, gocv.MorphEllipse, image.Pt(3, 3), 2)
	defer grown.Close()
	if n := gocv.CountNonZero(grown); n <= 100 {
		t.Errorf("dilated area = %d, want more than 100", n)
	}

	auto := Dilate(c, geometry.Shape{}, gocv.MorphRect, image.Pt(3, 3), 1)
	defer auto.Close()
	if auto.Rows() != 38 || auto.Cols() != 38 {
		t.Errorf("auto canvas = %dx%d, want 38x38", auto.Rows(), auto.Cols())
	}
	if n := gocv.CountNonZero(auto); n != 144 {
		t.Errorf("rect dilation area = %d, want 144", n)
	}
}

func assertPartition(t *testing.T, in []geometry.Contour, p Partition) {
	t.Helper()
	if len(p.Kept)+len(p.Discarded) != len(in) {
		t.Fatalf("partition covers %d of %d contours", len(p.Kept)+len(p.Discarded), len(in))
	}
	seen := make(map[image.Point]int)
	for _, c := range append(append([]geometry.Contour{}, p.Kept...), p.Discarded...) {
		seen[c[0]]++
	}
	for _, c := range in {
		if seen[c[0]] != 1 {
			t.Errorf("contour starting at %v appears %d times", c[0], seen[c[0]])
		}
	}
}
