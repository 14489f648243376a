// Package canvas is a small immediate-mode 2D drawing surface over
// *image.RGBA. It keeps a save/restore stack of drawing state (global alpha,
// affine transform, composite operation) so callers can scope changes.
package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// CompositeOp selects how source pixels combine with the surface.
type CompositeOp int

const (
	// SourceOver is ordinary alpha compositing.
	SourceOver CompositeOp = iota
	// Lighter adds source to destination, brightening without occluding.
	Lighter
)

// Identity is the identity transform.
var Identity = f64.Aff3{1, 0, 0, 0, 1, 0}

// State is the drawing state saved and restored by Save/Restore.
type State struct {
	Alpha     float64
	Transform f64.Aff3
	Composite CompositeOp
}

// DefaultState is the state of a fresh surface.
func DefaultState() State {
	return State{Alpha: 1, Transform: Identity, Composite: SourceOver}
}

// Surface is not safe for concurrent use.
type Surface struct {
	img   *image.RGBA
	state State
	stack []State
}

// New allocates a surface of the given size.
func New(width, height int) *Surface {
	return Wrap(image.NewRGBA(image.Rect(0, 0, width, height)))
}

// Wrap draws onto an existing buffer.
func Wrap(img *image.RGBA) *Surface {
	return &Surface{img: img, state: DefaultState()}
}

func (s *Surface) Image() *image.RGBA { return s.img }
func (s *Surface) Width() int         { return s.img.Rect.Dx() }
func (s *Surface) Height() int        { return s.img.Rect.Dy() }
func (s *Surface) State() State       { return s.state }

// Clear fills the whole surface with c, ignoring alpha, transform and
// composite state.
func (s *Surface) Clear(c color.Color) {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// Reset drops the state stack and restores the default state.
func (s *Surface) Reset() {
	s.state = DefaultState()
	s.stack = s.stack[:0]
}

func (s *Surface) Save() {
	s.stack = append(s.stack, s.state)
}

// Restore pops the last saved state. Unbalanced calls are ignored.
func (s *Surface) Restore() {
	if len(s.stack) == 0 {
		return
	}
	s.state = s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
}

// SetAlpha sets the global alpha, clamped to [0,1].
func (s *Surface) SetAlpha(a float64) {
	s.state.Alpha = clamp01(a)
}

func (s *Surface) SetComposite(op CompositeOp) {
	s.state.Composite = op
}

func (s *Surface) Translate(x, y float64) {
	s.state.Transform = mul(s.state.Transform, f64.Aff3{1, 0, x, 0, 1, y})
}

// Rotate rotates by rad radians; positive is clockwise on screen.
func (s *Surface) Rotate(rad float64) {
	sin, cos := math.Sincos(rad)
	s.state.Transform = mul(s.state.Transform, f64.Aff3{cos, -sin, 0, sin, cos, 0})
}

func (s *Surface) Scale(sx, sy float64) {
	s.state.Transform = mul(s.state.Transform, f64.Aff3{sx, 0, 0, 0, sy, 0})
}

func (s *Surface) apply(x, y float64) (float64, float64) {
	m := s.state.Transform
	return m[0]*x + m[1]*y + m[2], m[3]*x + m[4]*y + m[5]
}

// mul returns m∘n: n is applied first.
func mul(m, n f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		m[0]*n[0] + m[1]*n[3], m[0]*n[1] + m[1]*n[4], m[0]*n[2] + m[1]*n[5] + m[2],
		m[3]*n[0] + m[4]*n[3], m[3]*n[1] + m[4]*n[4], m[3]*n[2] + m[4]*n[5] + m[5],
	}
}

// FillRect fills an axis-aligned (before transform) rectangle.
func (s *Surface) FillRect(x, y, w, h float64, paint image.Image) {
	var p Path
	p.Rect(x, y, w, h)
	s.FillPath(&p, paint)
}

// StrokeRect strokes a rectangle outline of the given width centered on its edges.
func (s *Surface) StrokeRect(x, y, w, h, width float64, paint image.Image) {
	half := width / 2
	var p Path
	p.Rect(x-half, y-half, w+width, h+width)
	if w > width && h > width {
		p.RectReverse(x+half, y+half, w-width, h-width)
	}
	s.FillPath(&p, paint)
}

func (s *Surface) FillCircle(cx, cy, r float64, paint image.Image) {
	var p Path
	p.Circle(cx, cy, r, false)
	s.FillPath(&p, paint)
}

// StrokeCircle strokes a ring of the given width centered on radius r.
func (s *Surface) StrokeCircle(cx, cy, r, width float64, paint image.Image) {
	var p Path
	p.Circle(cx, cy, r+width/2, false)
	if inner := r - width/2; inner > 0 {
		p.Circle(cx, cy, inner, true)
	}
	s.FillPath(&p, paint)
}

// DrawImage draws img scaled into the w×h box at x,y under the current
// transform, alpha and composite operation.
func (s *Surface) DrawImage(img image.Image, x, y, w, h float64) {
	sb := img.Bounds()
	if sb.Empty() || w <= 0 || h <= 0 {
		return
	}
	sx, sy := w/float64(sb.Dx()), h/float64(sb.Dy())
	m := mul(s.state.Transform, f64.Aff3{
		sx, 0, x - float64(sb.Min.X)*sx,
		0, sy, y - float64(sb.Min.Y)*sy,
	})

	r := s.bbox([]point{
		s.applyPt(x, y), s.applyPt(x+w, y), s.applyPt(x, y+h), s.applyPt(x+w, y+h),
	}).Intersect(s.img.Bounds())
	if r.Empty() {
		return
	}

	layer := image.NewRGBA(r)
	xdraw.CatmullRom.Transform(layer, m, img, sb, xdraw.Over, nil)
	s.composite(r, layer, nil)
}

func (s *Surface) applyPt(x, y float64) point {
	px, py := s.apply(x, y)
	return point{px, py}
}

func (s *Surface) bbox(pts []point) image.Rectangle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	if len(pts) == 0 {
		return image.Rectangle{}
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
}

// composite blends src through mask (nil means full coverage) into r,
// applying the global alpha and composite operation.
func (s *Surface) composite(r image.Rectangle, src image.Image, mask *image.Alpha) {
	r = r.Intersect(s.img.Bounds())
	if r.Empty() || s.state.Alpha <= 0 {
		return
	}

	var m image.Image
	if mask != nil {
		if s.state.Alpha < 1 {
			scaleAlpha(mask, s.state.Alpha)
		}
		m = mask
	} else if s.state.Alpha < 1 {
		m = image.NewUniform(color.Alpha{A: uint8(s.state.Alpha*255 + 0.5)})
	}

	switch s.state.Composite {
	case Lighter:
		s.lighter(r, src, m)
	default:
		draw.DrawMask(s.img, r, src, r.Min, m, r.Min, draw.Over)
	}
}

func (s *Surface) lighter(r image.Rectangle, src, mask image.Image) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			ma := uint32(0xffff)
			if mask != nil {
				_, _, _, ma = mask.At(x, y).RGBA()
				if ma == 0 {
					continue
				}
			}
			sr, sg, sb, sa := src.At(x, y).RGBA()
			if sa == 0 {
				continue
			}
			i := s.img.PixOffset(x, y)
			pix := s.img.Pix[i : i+4 : i+4]
			pix[0] = addClamp(pix[0], sr*ma/0xffff)
			pix[1] = addClamp(pix[1], sg*ma/0xffff)
			pix[2] = addClamp(pix[2], sb*ma/0xffff)
			pix[3] = addClamp(pix[3], sa*ma/0xffff)
		}
	}
}

func addClamp(dst uint8, src16 uint32) uint8 {
	v := uint32(dst) + src16>>8
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func scaleAlpha(m *image.Alpha, a float64) {
	for i, v := range m.Pix {
		m.Pix[i] = uint8(float64(v)*a + 0.5)
	}
}
