package canvas

import (
	"image"

	"golang.org/x/image/vector"
)

// kappa places cubic control points so four curves approximate a circle.
const kappa = 0.5522847498

type point struct{ X, Y float64 }

type segOp uint8

const (
	opMove segOp = iota
	opLine
	opCube
	opClose
)

type segment struct {
	op segOp
	p  [3]point
}

// Path is a sequence of subpaths in user space. Overlapping subpaths with
// opposite winding cancel, which is how rings and outlines are built.
type Path struct {
	segs []segment
}

func (p *Path) MoveTo(x, y float64) {
	p.segs = append(p.segs, segment{op: opMove, p: [3]point{{x, y}}})
}

func (p *Path) LineTo(x, y float64) {
	p.segs = append(p.segs, segment{op: opLine, p: [3]point{{x, y}}})
}

func (p *Path) CubeTo(x1, y1, x2, y2, x, y float64) {
	p.segs = append(p.segs, segment{op: opCube, p: [3]point{{x1, y1}, {x2, y2}, {x, y}}})
}

func (p *Path) Close() {
	p.segs = append(p.segs, segment{op: opClose})
}

// Rect adds a clockwise rectangle.
func (p *Path) Rect(x, y, w, h float64) {
	p.MoveTo(x, y)
	p.LineTo(x+w, y)
	p.LineTo(x+w, y+h)
	p.LineTo(x, y+h)
	p.Close()
}

// RectReverse adds a counter-clockwise rectangle.
func (p *Path) RectReverse(x, y, w, h float64) {
	p.MoveTo(x, y)
	p.LineTo(x, y+h)
	p.LineTo(x+w, y+h)
	p.LineTo(x+w, y)
	p.Close()
}

// Circle adds a full circle, clockwise unless ccw is set.
func (p *Path) Circle(cx, cy, r float64, ccw bool) {
	k := r * kappa
	p.MoveTo(cx+r, cy)
	if !ccw {
		p.CubeTo(cx+r, cy+k, cx+k, cy+r, cx, cy+r)
		p.CubeTo(cx-k, cy+r, cx-r, cy+k, cx-r, cy)
		p.CubeTo(cx-r, cy-k, cx-k, cy-r, cx, cy-r)
		p.CubeTo(cx+k, cy-r, cx+r, cy-k, cx+r, cy)
	} else {
		p.CubeTo(cx+r, cy-k, cx+k, cy-r, cx, cy-r)
		p.CubeTo(cx-k, cy-r, cx-r, cy-k, cx-r, cy)
		p.CubeTo(cx-r, cy+k, cx-k, cy+r, cx, cy+r)
		p.CubeTo(cx+k, cy+r, cx+r, cy+k, cx+r, cy)
	}
	p.Close()
}

// FillPath rasterizes p under the current transform and composites paint
// through the coverage mask.
func (s *Surface) FillPath(p *Path, paint image.Image) {
	if len(p.segs) == 0 {
		return
	}

	segs := make([]segment, len(p.segs))
	var pts []point
	for i, sg := range p.segs {
		segs[i].op = sg.op
		n := 1
		switch sg.op {
		case opCube:
			n = 3
		case opClose:
			n = 0
		}
		for j := 0; j < n; j++ {
			segs[i].p[j] = s.applyPt(sg.p[j].X, sg.p[j].Y)
			pts = append(pts, segs[i].p[j])
		}
	}

	r := s.bbox(pts)
	if r.Empty() || !r.Overlaps(s.img.Bounds()) {
		return
	}
	// Keep far off-canvas geometry from allocating huge masks.
	limit := s.img.Bounds().Inset(-s.Width() - s.Height())
	r = r.Intersect(limit)

	ox, oy := float64(r.Min.X), float64(r.Min.Y)
	z := vector.NewRasterizer(r.Dx(), r.Dy())
	for _, sg := range segs {
		switch sg.op {
		case opMove:
			z.MoveTo(float32(sg.p[0].X-ox), float32(sg.p[0].Y-oy))
		case opLine:
			z.LineTo(float32(sg.p[0].X-ox), float32(sg.p[0].Y-oy))
		case opCube:
			z.CubeTo(
				float32(sg.p[0].X-ox), float32(sg.p[0].Y-oy),
				float32(sg.p[1].X-ox), float32(sg.p[1].Y-oy),
				float32(sg.p[2].X-ox), float32(sg.p[2].Y-oy),
			)
		case opClose:
			z.ClosePath()
		}
	}

	mask := image.NewAlpha(image.Rect(0, 0, r.Dx(), r.Dy()))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	mask.Rect = r
	s.composite(r, paint, mask)
}
