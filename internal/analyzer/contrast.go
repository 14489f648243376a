package analyzer

import (
	"image"
	"image/draw"
)

// ContrastDetector finds visually busy regions (artwork, text) with a Sobel
// edge map, so overlays can be placed where they cover the least detail.
type ContrastDetector struct {
	MinBlockArea  int     // Minimum area in pixels²
	EdgeThreshold float64 // Gradient magnitude threshold
	// DilateRadius joins edges closer than 2*DilateRadius pixels into one block.
	DilateRadius int
}

// NewContrastDetector creates a new contrast-based detector with default settings
func NewContrastDetector() *ContrastDetector {
	return &ContrastDetector{
		MinBlockArea:  500,  // ~22x22 pixels minimum
		EdgeThreshold: 30.0, // Moderate sensitivity
		DilateRadius:  4,
	}
}

// mask is a binary image over bounds, one byte per pixel.
type mask struct {
	bounds image.Rectangle
	w, h   int
	on     []bool
}

func newMask(b image.Rectangle) *mask {
	return &mask{bounds: b, w: b.Dx(), h: b.Dy(), on: make([]bool, b.Dx()*b.Dy())}
}

// Detect returns bounding boxes of connected busy areas.
func (d *ContrastDetector) Detect(img image.Image) ([]Block, error) {
	return d.blocks(d.edges(img)), nil
}

func (d *ContrastDetector) edges(img image.Image) *mask {
	return sobel(luma(img), d.EdgeThreshold)
}

func (d *ContrastDetector) blocks(edges *mask) []Block {
	var blocks []Block
	for _, r := range components(dilate(edges, d.DilateRadius)) {
		if r.Dx()*r.Dy() < d.MinBlockArea {
			continue
		}
		blocks = append(blocks, Block{Rect: r, Type: "busy", Confidence: 0.7})
	}
	return blocks
}

// luma converts img to 8-bit Rec. 601 luminance.
func luma(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(b)
	draw.Draw(g, b, img, b.Min, draw.Src)
	return g
}

// sobel marks pixels whose gradient magnitude exceeds threshold. The one
// pixel border is never marked.
func sobel(g *image.Gray, threshold float64) *mask {
	b := g.Bounds()
	m := newMask(b)
	if m.w < 3 || m.h < 3 {
		return m
	}
	limit := int(threshold * threshold)
	px := func(x, y int) int { return int(g.Pix[y*g.Stride+x]) }

	for y := 1; y < m.h-1; y++ {
		for x := 1; x < m.w-1; x++ {
			tl, tc, tr := px(x-1, y-1), px(x, y-1), px(x+1, y-1)
			ml, mr := px(x-1, y), px(x+1, y)
			bl, bc, br := px(x-1, y+1), px(x, y+1), px(x+1, y+1)

			gx := (tr + 2*mr + br) - (tl + 2*ml + bl)
			gy := (bl + 2*bc + br) - (tl + 2*tc + tr)
			m.on[y*m.w+x] = gx*gx+gy*gy > limit
		}
	}
	return m
}

// dilate grows every marked pixel into a (2r+1)² square using two 1-D
// passes.
func dilate(m *mask, r int) *mask {
	if r <= 0 {
		return m
	}
	tmp := newMask(m.bounds)
	for y := 0; y < m.h; y++ {
		row := m.on[y*m.w : (y+1)*m.w]
		last := -r - 1
		// Nearest marked pixel to the left, then to the right.
		for x := 0; x < m.w; x++ {
			if row[x] {
				last = x
			}
			tmp.on[y*m.w+x] = x-last <= r
		}
		last = m.w + r + 1
		for x := m.w - 1; x >= 0; x-- {
			if row[x] {
				last = x
			}
			if last-x <= r {
				tmp.on[y*m.w+x] = true
			}
		}
	}

	out := newMask(m.bounds)
	for x := 0; x < m.w; x++ {
		last := -r - 1
		for y := 0; y < m.h; y++ {
			if tmp.on[y*m.w+x] {
				last = y
			}
			out.on[y*m.w+x] = y-last <= r
		}
		last = m.h + r + 1
		for y := m.h - 1; y >= 0; y-- {
			if tmp.on[y*m.w+x] {
				last = y
			}
			if last-y <= r {
				out.on[y*m.w+x] = true
			}
		}
	}
	return out
}

// components returns the bounding boxes of 8-connected marked regions in
// scan order.
func components(m *mask) []image.Rectangle {
	seen := make([]bool, len(m.on))
	var rects []image.Rectangle
	var queue []int

	for start, on := range m.on {
		if !on || seen[start] {
			continue
		}
		seen[start] = true
		queue = append(queue[:0], start)
		minX, minY := m.w, m.h
		maxX, maxY := -1, -1

		for len(queue) > 0 {
			i := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := i%m.w, i/m.w
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)

			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= m.w || ny >= m.h {
						continue
					}
					if j := ny*m.w + nx; m.on[j] && !seen[j] {
						seen[j] = true
						queue = append(queue, j)
					}
				}
			}
		}
		o := m.bounds.Min
		rects = append(rects, image.Rect(minX+o.X, minY+o.Y, maxX+1+o.X, maxY+1+o.Y))
	}
	return rects
}
