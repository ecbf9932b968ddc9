package models

import "image"

// DetectedObject is a candidate vehicle found in a single processed frame.
// It carries no identity across frames.
type DetectedObject struct {
	Box         image.Rectangle `json:"box"`
	Centroid    image.Point     `json:"centroid"`
	Area        float64         `json:"area"`
	AspectRatio float64         `json:"aspect_ratio"`
	Label       string          `json:"label,omitempty"`
	Confidence  float64         `json:"confidence,omitempty"`
}
