package analyzer

import "image"

// Block represents a detected busy region of a frame
type Block struct {
	Rect       image.Rectangle
	Type       string  // "busy"
	Confidence float64 // 0.0-1.0
}

// Detector is the interface for image analysis strategies
type Detector interface {
	Detect(img image.Image) ([]Block, error)
	Busyness(img image.Image, regions []image.Rectangle) []float64
}
