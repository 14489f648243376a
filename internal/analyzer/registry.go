package analyzer

import "fmt"

// Variants lists the names NewDetector accepts.
var Variants = []string{"contrast", "fine", "coarse"}

// NewDetector creates a detector based on the specified variant:
//
//	contrast  default; badge artwork and headline text
//	fine      low threshold, small blocks; catches thin description text
//	coarse    only large high-contrast areas such as the badge itself
func NewDetector(variant string) (Detector, error) {
	d := NewContrastDetector()
	switch variant {
	case "contrast", "":
	case "fine":
		d.EdgeThreshold = 15
		d.MinBlockArea = 100
		d.DilateRadius = 2
	case "coarse":
		d.EdgeThreshold = 60
		d.MinBlockArea = 2500
		d.DilateRadius = 8
	default:
		return nil, fmt.Errorf("unknown detector variant: %s", variant)
	}
	return d, nil
}
