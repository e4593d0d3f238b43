// Package mask loads and saves 3-channel segmentation masks and exposes
// their class channels.
//
// A mask Mat is CV_8UC3 with channels ordered background, nucleus, AgNOR.
// On disk the same three channels are stored as red, green and blue.
package mask

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
	"golang.org/x/image/tiff"
)

// Channel indices within a mask.
const (
	Background = iota
	Nucleus
	AgNOR
)

// Load reads a mask image from disk. TIFF files are decoded directly,
// anything else through imaging (PNG, BMP, JPEG); alpha is ignored.
func Load(path string) (gocv.Mat, error) {
	var src image.Image
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		src, err = loadTIFF(path)
	default:
		src, err = imaging.Open(path)
	}
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("open mask %s: %w", path, err)
	}
	return FromImage(src)
}

func loadTIFF(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return tiff.Decode(f)
}

// FromImage converts an image to a mask Mat, mapping red, green and blue to
// the background, nucleus and AgNOR channels.
func FromImage(src image.Image) (gocv.Mat, error) {
	nrgba := imaging.Clone(src)
	w, h := nrgba.Rect.Dx(), nrgba.Rect.Dy()
	if w == 0 || h == 0 {
		return gocv.NewMat(), fmt.Errorf("empty mask image")
	}

	data := make([]byte, 0, w*h*3)
	for y := 0; y < h; y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
		for x := 0; x < w; x++ {
			data = append(data, row[x*4], row[x*4+1], row[x*4+2])
		}
	}

	m, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC3, data)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("create mask mat: %w", err)
	}
	return m, nil
}

// Save writes a mask Mat as an image, channels stored as red, green, blue.
// The R/B swap is symmetric, so ColorBGRToRGB yields the BGR layout that
// SaveBGR expects.
func Save(path string, m gocv.Mat) error {
	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(m, &bgr, gocv.ColorBGRToRGB)
	return SaveBGR(path, bgr)
}

// SaveBGR writes a Mat in OpenCV's native BGR order, such as a rendered
// overlay, to an image file. The format follows the file extension.
func SaveBGR(path string, m gocv.Mat) error {
	img, err := m.ToImage()
	if err != nil {
		return fmt.Errorf("convert mat: %w", err)
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// Channels holds the three class channels of a mask as separate
// single-channel Mats.
type Channels struct {
	Background gocv.Mat
	Nucleus    gocv.Mat
	AgNOR      gocv.Mat
}

// Split separates a mask into its class channels. The caller must Close
// the result.
func Split(m gocv.Mat) Channels {
	parts := gocv.Split(m)
	return Channels{Background: parts[Background], Nucleus: parts[Nucleus], AgNOR: parts[AgNOR]}
}

// Close releases the channel Mats.
func (c Channels) Close() {
	c.Background.Close()
	c.Nucleus.Close()
	c.AgNOR.Close()
}

// Foreground returns the union of the nucleus and AgNOR channels, the
// region nucleus contours are extracted from. The caller owns the result.
func (c Channels) Foreground() gocv.Mat {
	union := gocv.NewMat()
	gocv.BitwiseOr(c.Nucleus, c.AgNOR, &union)
	return union
}

// Intensity returns the largest value found in any channel. Masks use a
// single non-zero level to mark class membership; reconstructed masks are
// drawn at the same level.
func Intensity(m gocv.Mat) uint8 {
	if m.Empty() {
		return 0
	}
	parts := gocv.Split(m)
	var hi float32
	for _, p := range parts {
		_, maxVal, _, _ := gocv.MinMaxLoc(p)
		hi = max(hi, maxVal)
		p.Close()
	}
	return uint8(hi)
}
