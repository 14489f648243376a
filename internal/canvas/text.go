package canvas

import (
	"image"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// TextShadow is a drop shadow drawn under FillText.
type TextShadow struct {
	Paint   image.Image
	Blur    float64
	OffsetX float64
	OffsetY float64
}

// MeasureText returns the advance width of text in pixels.
func MeasureText(face font.Face, text string) float64 {
	return float64(font.MeasureString(face, text)) / 64
}

// FillText draws text with its baseline origin at x,y. Only the origin is
// transformed; glyphs are not rotated or scaled by the current transform.
func (s *Surface) FillText(face font.Face, text string, x, y float64, paint image.Image, shadow *TextShadow) {
	if text == "" {
		return
	}
	ox, oy := s.apply(x, y)

	if shadow != nil && shadow.Paint != nil {
		m := textMask(face, text, ox+shadow.OffsetX, oy+shadow.OffsetY)
		if m != nil {
			if shadow.Blur > 0 {
				m = blurAlpha(m, int(math.Ceil(shadow.Blur/2)))
			}
			s.composite(m.Rect, shadow.Paint, m)
		}
	}

	if m := textMask(face, text, ox, oy); m != nil {
		s.composite(m.Rect, paint, m)
	}
}

// textMask rasterizes glyph coverage into an alpha image in surface coordinates.
func textMask(face font.Face, text string, x, y float64) *image.Alpha {
	dot := fixed.Point26_6{X: fixed.Int26_6(math.Round(x * 64)), Y: fixed.Int26_6(math.Round(y * 64))}
	b, _ := font.BoundString(face, text)
	r := image.Rect(
		(dot.X + b.Min.X).Floor(), (dot.Y + b.Min.Y).Floor(),
		(dot.X + b.Max.X).Ceil(), (dot.Y + b.Max.Y).Ceil(),
	)
	if r.Empty() {
		return nil
	}

	mask := image.NewAlpha(r)
	d := font.Drawer{Dst: mask, Src: image.Opaque, Face: face, Dot: dot}
	d.DrawString(text)
	return mask
}

// blurAlpha approximates a gaussian with three box-blur passes per axis.
// The result is grown by the blur extent so soft edges are not clipped.
func blurAlpha(src *image.Alpha, radius int) *image.Alpha {
	if radius <= 0 {
		return src
	}
	grow := 3 * radius
	r := src.Rect.Inset(-grow)
	w, h := r.Dx(), r.Dy()

	buf := make([]float64, w*h)
	for y := src.Rect.Min.Y; y < src.Rect.Max.Y; y++ {
		for x := src.Rect.Min.X; x < src.Rect.Max.X; x++ {
			buf[(y-r.Min.Y)*w+(x-r.Min.X)] = float64(src.AlphaAt(x, y).A)
		}
	}

	tmp := make([]float64, len(buf))
	for pass := 0; pass < 3; pass++ {
		boxBlur(buf, tmp, w, h, radius, 1, w)
		boxBlur(tmp, buf, h, w, radius, w, 1)
	}

	out := image.NewAlpha(r)
	for i, v := range buf {
		out.Pix[i] = clampByte(v)
	}
	return out
}

// boxBlur runs a sliding-window mean along lines of length n. step moves
// along a line, lineStep moves between lines.
func boxBlur(src, dst []float64, n, lines, radius, step, lineStep int) {
	size := float64(2*radius + 1)
	for l := 0; l < lines; l++ {
		base := l * lineStep
		sum := 0.0
		for i := -radius; i <= radius; i++ {
			if i >= 0 && i < n {
				sum += src[base+i*step]
			}
		}
		for i := 0; i < n; i++ {
			dst[base+i*step] = sum / size
			if out := i - radius; out >= 0 {
				sum -= src[base+out*step]
			}
			if in := i + radius + 1; in < n {
				sum += src[base+in*step]
			}
		}
	}
}
