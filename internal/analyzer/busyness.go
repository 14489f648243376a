package analyzer

import "image"

// Busyness scores each region by how much detail it would hide: the share
// of the region covered by detected blocks plus its raw edge density.
// Both terms are in [0,1]; lower is quieter. Regions outside the image
// score 2.
func (d *ContrastDetector) Busyness(img image.Image, regions []image.Rectangle) []float64 {
	edges := d.edges(img)
	blocks := d.blocks(edges)
	density := newIntegral(edges)

	scores := make([]float64, len(regions))
	for i, r := range regions {
		r = r.Intersect(edges.bounds)
		area := r.Dx() * r.Dy()
		if area == 0 {
			scores[i] = 2
			continue
		}

		covered := 0
		for _, b := range blocks {
			in := b.Rect.Intersect(r)
			covered += in.Dx() * in.Dy()
		}
		coverage := min(float64(covered)/float64(area), 1)
		scores[i] = coverage + float64(density.sum(r))/float64(area)
	}
	return scores
}

// integral is a summed-area table of a mask, so any rectangle's count of
// marked pixels costs four lookups.
type integral struct {
	origin image.Point
	w      int
	s      []int
}

func newIntegral(m *mask) integral {
	w := m.w + 1
	s := make([]int, w*(m.h+1))
	for y := 0; y < m.h; y++ {
		row := 0
		for x := 0; x < m.w; x++ {
			if m.on[y*m.w+x] {
				row++
			}
			s[(y+1)*w+x+1] = s[y*w+x+1] + row
		}
	}
	return integral{origin: m.bounds.Min, w: w, s: s}
}

// sum counts marked pixels in r, which must lie inside the mask bounds.
func (t integral) sum(r image.Rectangle) int {
	r = r.Sub(t.origin)
	return t.s[r.Max.Y*t.w+r.Max.X] - t.s[r.Min.Y*t.w+r.Max.X] - t.s[r.Max.Y*t.w+r.Min.X] + t.s[r.Min.Y*t.w+r.Min.X]
}

// QuietestRegion returns the index of the region with the lowest busyness,
// preferring earlier regions on ties, or -1 when regions is empty.
func QuietestRegion(d Detector, img image.Image, regions []image.Rectangle) int {
	scores := d.Busyness(img, regions)
	best := -1
	for i, s := range scores {
		if best < 0 || s < scores[best] {
			best = i
		}
	}
	return best
}
