package gifenc

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/soniakeys/quant/median"
)

// Colors are bucketed to 5 bits per channel for the index lookup.
const buckets = 1 << 15

func bucketOf(r, g, b uint8) int {
	return int(r>>3)<<10 | int(g>>3)<<5 | int(b>>3)
}

// adaptivePalette builds a median-cut palette of at most n colors from a
// sample of roughly every sample-th pixel of img. The sample is a
// nearest-neighbour downscale, so it only contains colors present in img.
func adaptivePalette(img image.Image, sample, n int) color.Palette {
	if sample > 1 {
		b := img.Bounds()
		scale := math.Sqrt(float64(sample))
		w := max(int(float64(b.Dx())/scale), 1)
		h := max(int(float64(b.Dy())/scale), 1)
		img = imaging.Resize(img, w, h, imaging.NearestNeighbor)
	}
	pal := median.Quantizer(n).Palette(img).ColorPalette()
	if len(pal) == 0 {
		return color.Palette{color.Black}
	}
	return pal
}

// lookup caches nearest-palette-index queries per color bucket.
type lookup struct {
	pal   color.Palette
	table [buckets]int16
}

func newLookup(pal color.Palette) *lookup {
	l := &lookup{pal: pal}
	for i := range l.table {
		l.table[i] = -1
	}
	return l
}

func (l *lookup) index(r, g, b uint8) uint8 {
	k := bucketOf(r, g, b)
	if v := l.table[k]; v >= 0 {
		return uint8(v)
	}
	v := l.pal.Index(color.RGBA{r, g, b, 255})
	l.table[k] = int16(v)
	return uint8(v)
}

// quantize maps img onto pal, optionally diffusing the error with the
// Floyd-Steinberg kernel.
func quantize(img image.Image, bounds image.Rectangle, pal color.Palette, dither bool) *image.Paletted {
	dst := image.NewPaletted(bounds, pal)
	lk := newLookup(pal)
	src := img.Bounds()
	w := bounds.Dx()

	// Error rows for the current and next scanline, padded by one pixel.
	var cur, next [][3]int32
	if dither {
		cur = make([][3]int32, w+2)
		next = make([][3]int32, w+2)
	}

	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < w; x++ {
			c := rgbaAt(img, src.Min.X+x, src.Min.Y+y)
			if !dither {
				dst.Pix[y*dst.Stride+x] = lk.index(c.R, c.G, c.B)
				continue
			}

			want := [3]int32{
				clamp8(int32(c.R) + cur[x+1][0]/16),
				clamp8(int32(c.G) + cur[x+1][1]/16),
				clamp8(int32(c.B) + cur[x+1][2]/16),
			}
			i := lk.index(uint8(want[0]), uint8(want[1]), uint8(want[2]))
			dst.Pix[y*dst.Stride+x] = i

			pr, pg, pb, _ := pal[i].RGBA()
			got := [3]int32{int32(pr >> 8), int32(pg >> 8), int32(pb >> 8)}
			for ch := 0; ch < 3; ch++ {
				e := want[ch] - got[ch]
				cur[x+2][ch] += e * 7
				next[x][ch] += e * 3
				next[x+1][ch] += e * 5
				next[x+2][ch] += e
			}
		}
		if dither {
			cur, next = next, cur
			for i := range next {
				next[i] = [3]int32{}
			}
		}
	}
	return dst
}

// rgbaAt reads a non-premultiplied pixel, with a fast path for *image.RGBA.
// Animation frames are opaque, so premultiplication does not matter there.
func rgbaAt(img image.Image, x, y int) color.RGBA {
	if m, ok := img.(*image.RGBA); ok {
		if !(image.Point{x, y}.In(m.Rect)) {
			return color.RGBA{}
		}
		i := m.PixOffset(x, y)
		return color.RGBA{m.Pix[i], m.Pix[i+1], m.Pix[i+2], m.Pix[i+3]}
	}
	r, g, b, a := img.At(x, y).RGBA()
	return color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}

func clamp8(v int32) int32 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
