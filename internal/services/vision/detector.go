package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"trafficsignal/internal/models"
)

// ObjectDetector turns one processed frame into candidate vehicles.
// Implementations are interchangeable and selected by configuration.
type ObjectDetector interface {
	// Name returns the strategy identifier ("contour", "dnn").
	Name() string

	// Detect returns the candidates found in frame. mask is the foreground
	// mask produced for the same frame; strategies may ignore either input.
	Detect(frame gocv.Mat, mask gocv.Mat) ([]models.DetectedObject, error)

	// Close releases detector resources.
	Close() error
}

// ContourParams controls the geometric vehicle filter.
type ContourParams struct {
	MinArea   float64 // Minimum contour area in pixels at the working resolution
	AspectMin float64 // Exclusive lower bound on box width/height
	AspectMax float64 // Exclusive upper bound on box width/height
	MinHeight int     // Exclusive lower bound on box height in pixels
}

// ContourDetector finds vehicles as external contours of the foreground mask.
// It is a best-effort geometric filter, not a classifier.
type ContourDetector struct {
	params ContourParams
}

func NewContourDetector(params ContourParams) *ContourDetector {
	return &ContourDetector{params: params}
}

func (d *ContourDetector) Name() string { return "contour" }

func (d *ContourDetector) Detect(_ gocv.Mat, mask gocv.Mat) ([]models.DetectedObject, error) {
	if mask.Empty() {
		return nil, fmt.Errorf("empty mask")
	}

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var objects []models.DetectedObject
	for i := 0; i < contours.Size(); i++ {
		obj, ok := d.classify(contours.At(i).ToPoints())
		if ok {
			objects = append(objects, obj)
		}
	}
	return objects, nil
}

func (d *ContourDetector) classify(pts []image.Point) (models.DetectedObject, bool) {
	c, area, ok := centroid(pts)
	if !ok || area <= d.params.MinArea {
		return models.DetectedObject{}, false
	}

	box := boundingBox(pts)
	w, h := box.Dx(), box.Dy()
	if h <= 0 || h <= d.params.MinHeight {
		return models.DetectedObject{}, false
	}
	ratio := float64(w) / float64(h)
	if ratio <= d.params.AspectMin || ratio >= d.params.AspectMax {
		return models.DetectedObject{}, false
	}

	return models.DetectedObject{
		Box:         box,
		Centroid:    c,
		Area:        area,
		AspectRatio: ratio,
	}, true
}

func (d *ContourDetector) Close() error { return nil }
