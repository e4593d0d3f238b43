package annotation

import (
	"os"
	"path/filepath"
	"testing"

	"agnor-examiner/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{
  "version": "5.0.1",
  "flags": {},
  "shapes": [
    {"label": "nucleus", "points": [[120.7, 40.2], [20.1, 90.9]], "group_id": null, "shape_type": "rectangle", "flags": {}},
    {"label": "nucleus", "points": [[1, 1], [5, 1], [3, 4]], "group_id": null, "shape_type": "polygon", "flags": {}},
    {"label": "nucleus", "points": [[200, 200], [240, 260]], "group_id": null, "shape_type": "rectangle", "flags": {}}
  ],
  "imagePath": "slide_01.jpg",
  "imageData": null,
  "imageHeight": 1920,
  "imageWidth": 2560
}`

func write(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "slide_01.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadRectangles(t *testing.T) {
	boxes, err := LoadRectangles(write(t, sample))
	require.NoError(t, err)
	require.Len(t, boxes, 2)

	assert.Equal(t, geometry.Contour{{20, 40}, {120, 40}, {120, 90}, {20, 90}}, boxes[0])
	assert.Equal(t, geometry.Contour{{200, 200}, {240, 200}, {240, 260}, {200, 260}}, boxes[1])
}

func TestLoad_Metadata(t *testing.T) {
	f, err := Load(write(t, sample))
	require.NoError(t, err)
	assert.Equal(t, "slide_01.jpg", f.ImagePath)
	assert.Equal(t, 2560, f.ImageWidth)
	assert.Len(t, f.Shapes, 3)
}

func TestLoadRectangles_Errors(t *testing.T) {
	_, err := LoadRectangles(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadRectangles(write(t, "{not json"))
	assert.ErrorContains(t, err, "parse annotation")

	_, err = LoadRectangles(write(t, `{"shapes": [{"label": "x", "shape_type": "rectangle", "points": [[1, 2]]}]}`))
	assert.ErrorContains(t, err, "has 1 points")
}

func TestRectangles_NoShapes(t *testing.T) {
	boxes, err := LoadRectangles(write(t, `{"shapes": []}`))
	require.NoError(t, err)
	assert.Empty(t, boxes)
}
