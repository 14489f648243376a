package director

import "math"

// Easing maps phase progress in [0,1] to an animated value.
type Easing func(p float64) float64

// Bounce overshoots toward 1.2 along a quarter sine and is capped at 1,
// so the element pops in and holds.
func Bounce(p float64) float64 {
	return math.Min(1.2*math.Sin(p*math.Pi/2), 1)
}

// Zoom grows from 30% to full size.
func Zoom(p float64) float64 {
	return lerp(0.3, 1, p)
}

// Settle swells by up to 10% mid-phase and returns to 1.
func Settle(p float64) float64 {
	return 1 + 0.1*math.Sin(p*math.Pi)
}

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
