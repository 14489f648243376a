package canvas

import (
	"image"
	"image/color"
	"math"
)

// GradientStop is a color at an offset along the gradient vector.
type GradientStop struct {
	Offset float64
	Color  color.NRGBA
}

// LinearGradient is an unbounded image.Image painting a linear gradient from
// (X0,Y0) to (X1,Y1). Colors are interpolated premultiplied, so fading to
// "transparent" does not darken the midpoint.
type LinearGradient struct {
	X0, Y0, X1, Y1 float64
	Stops          []GradientStop
}

// NewLinearGradient builds a gradient; stops must be ordered by offset.
func NewLinearGradient(x0, y0, x1, y1 float64, stops ...GradientStop) *LinearGradient {
	return &LinearGradient{X0: x0, Y0: y0, X1: x1, Y1: y1, Stops: stops}
}

func (g *LinearGradient) ColorModel() color.Model { return color.RGBAModel }

func (g *LinearGradient) Bounds() image.Rectangle {
	return image.Rect(-1e9, -1e9, 1e9, 1e9)
}

func (g *LinearGradient) At(x, y int) color.Color {
	return g.colorAt(g.offset(float64(x)+0.5, float64(y)+0.5))
}

func (g *LinearGradient) offset(px, py float64) float64 {
	dx, dy := g.X1-g.X0, g.Y1-g.Y0
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return 0
	}
	return ((px-g.X0)*dx + (py-g.Y0)*dy) / l2
}

func (g *LinearGradient) colorAt(t float64) color.RGBA {
	n := len(g.Stops)
	switch {
	case n == 0:
		return color.RGBA{}
	case t <= g.Stops[0].Offset:
		return premultiply(g.Stops[0].Color)
	case t >= g.Stops[n-1].Offset:
		return premultiply(g.Stops[n-1].Color)
	}

	for i := 1; i < n; i++ {
		a, b := g.Stops[i-1], g.Stops[i]
		if t > b.Offset {
			continue
		}
		span := b.Offset - a.Offset
		if span <= 0 {
			return premultiply(b.Color)
		}
		return mix(premultiply(a.Color), premultiply(b.Color), (t-a.Offset)/span)
	}
	return premultiply(g.Stops[n-1].Color)
}

func premultiply(c color.NRGBA) color.RGBA {
	r, g, b, a := c.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}

func mix(a, b color.RGBA, t float64) color.RGBA {
	l := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.RGBA{R: l(a.R, b.R), G: l(a.G, b.G), B: l(a.B, b.B), A: l(a.A, b.A)}
}
