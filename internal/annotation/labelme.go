// Package annotation reads bounding boxes drawn in labelme.
package annotation

import (
	"encoding/json"
	"fmt"
	"os"

	"agnor-examiner/pkg/geometry"
)

// ShapeRectangle is the labelme shape_type of a bounding box.
const ShapeRectangle = "rectangle"

// File is the subset of a labelme annotation file used here.
type File struct {
	ImagePath   string  `json:"imagePath"`
	ImageHeight int     `json:"imageHeight"`
	ImageWidth  int     `json:"imageWidth"`
	Shapes      []Shape `json:"shapes"`
}

// Shape is one labelme shape. Rectangles carry two opposite corners.
type Shape struct {
	Label     string       `json:"label"`
	ShapeType string       `json:"shape_type"`
	Points    [][2]float64 `json:"points"`
}

// Load parses a labelme annotation file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read annotation: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse annotation %s: %w", path, err)
	}
	return &f, nil
}

// Rectangles returns every rectangle shape as a four point contour ordered
// top-left, top-right, bottom-right, bottom-left. Coordinates are truncated
// to whole pixels.
func (f *File) Rectangles() ([]geometry.Contour, error) {
	var boxes []geometry.Contour
	for i, s := range f.Shapes {
		if s.ShapeType != ShapeRectangle {
			continue
		}
		if len(s.Points) != 2 {
			return nil, fmt.Errorf("rectangle %d (%q) has %d points, want 2", i, s.Label, len(s.Points))
		}
		a, b := s.Points[0], s.Points[1]
		boxes = append(boxes, geometry.BoxContour(int(a[0]), int(a[1]), int(b[0]), int(b[1])))
	}
	return boxes, nil
}

// LoadRectangles reads the rectangles of a labelme annotation file.
func LoadRectangles(path string) ([]geometry.Contour, error) {
	f, err := Load(path)
	if err != nil {
		return nil, err
	}
	return f.Rectangles()
}
