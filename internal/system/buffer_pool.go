package system

import (
	"image"
	"sync"
)

// ImagePool переиспользует кадровые буферы *image.RGBA, чтобы рендер не
// нагружал GC. Каждый воркер берет один буфер размером с кадр и
// возвращает его после завершения работы.
type ImagePool struct {
	pools sync.Map // image.Rectangle -> *sync.Pool
}

var globalPool = NewImagePool()

func NewImagePool() *ImagePool {
	return &ImagePool{}
}

// GetImage берет буфер нужного размера из общего пула.
func GetImage(rect image.Rectangle) *image.RGBA {
	return globalPool.Get(rect)
}

// PutImage возвращает буфер в общий пул.
func PutImage(img *image.RGBA) {
	globalPool.Put(img)
}

// Get всегда отдает чистый буфер: повторно используемые обнуляются.
func (p *ImagePool) Get(rect image.Rectangle) *image.RGBA {
	v, ok := p.pools.Load(rect)
	if !ok {
		v, _ = p.pools.LoadOrStore(rect, &sync.Pool{
			New: func() any { return image.NewRGBA(rect) },
		})
	}
	img := v.(*sync.Pool).Get().(*image.RGBA)
	clear(img.Pix)
	return img
}

// Put отбрасывает буферы размера, который этот пул никогда не выдавал.
func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	if v, ok := p.pools.Load(img.Rect); ok {
		v.(*sync.Pool).Put(img)
	}
}
