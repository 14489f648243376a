// Package renderer composites declarative frames onto a canvas surface.
package renderer

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log"
	"math"

	"github.com/ivlev/badgecast/internal/canvas"
	"github.com/ivlev/badgecast/internal/effects"
	"github.com/ivlev/badgecast/internal/fonts"
	"github.com/ivlev/badgecast/internal/frame"
)

// ImageLoader resolves frame image paths. *asset.Loader satisfies it.
type ImageLoader interface {
	Load(ctx context.Context, path string) (image.Image, error)
}

// Renderer draws frames. It holds a font face cache and therefore must not be
// shared between goroutines; create one per worker.
type Renderer struct {
	assets ImageLoader
	faces  *fonts.Cache

	// Backdrop is painted before the frame background. Opaque black unless set.
	Backdrop color.Color
}

// New returns a renderer loading images through assets and fonts from lib.
func New(assets ImageLoader, lib *fonts.Library) *Renderer {
	return &Renderer{
		assets:   assets,
		faces:    lib.NewCache(),
		Backdrop: color.Black,
	}
}

// Close releases cached font faces.
func (r *Renderer) Close() error {
	return r.faces.Close()
}

// RenderFrame validates f and draws it onto s, replacing its contents.
// Images that fail to load are logged and skipped. Whatever happens, s is
// left with the default drawing state.
func (r *Renderer) RenderFrame(ctx context.Context, s *canvas.Surface, f frame.Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}

	s.Reset()
	defer s.Reset()
	s.Clear(r.Backdrop)

	r.drawBackground(s, f.Background)
	if p := effects.Pattern(f.Pattern); p != nil {
		p.Draw(s)
	}

	for _, img := range f.Images {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.drawImage(ctx, s, img)
	}
	for _, t := range f.Texts {
		if err := r.drawText(s, t); err != nil {
			return err
		}
	}
	for _, sh := range f.Shapes {
		drawShape(s, sh)
	}
	for _, fx := range effects.FromFrame(f.Effects) {
		fx.Draw(s)
	}
	return nil
}

func (r *Renderer) drawBackground(s *canvas.Surface, bg frame.Background) {
	w, h := float64(s.Width()), float64(s.Height())
	switch b := bg.(type) {
	case frame.Solid:
		s.FillRect(0, 0, w, h, image.NewUniform(canvas.ParseColorOr(b.Color, color.NRGBA{A: 255})))
	case frame.Gradient:
		stops := make([]canvas.GradientStop, len(b.Stops))
		for i, st := range b.Stops {
			stops[i] = canvas.GradientStop{Offset: st.Position, Color: canvas.ParseColorOr(st.Color, color.NRGBA{})}
		}
		s.FillRect(0, 0, w, h, canvas.NewLinearGradient(0, 0, 0, h, stops...))
	}
}

func (r *Renderer) drawImage(ctx context.Context, s *canvas.Surface, el frame.Image) {
	if el.Opacity <= 0 {
		return
	}
	src, err := r.assets.Load(ctx, el.Path)
	if err != nil {
		log.Printf("[!] Skipping image %q: %v", el.ID, err)
		return
	}

	w, h := el.Width, el.Height
	b := src.Bounds()
	if w == 0 {
		w = float64(b.Dx())
	}
	if h == 0 {
		h = float64(b.Dy())
	}
	x := el.X
	if el.Centered {
		x = float64(s.Width())/2 - w/2
	}

	s.Save()
	defer s.Restore()

	s.SetAlpha(el.Opacity)
	if el.Rotation != 0 {
		cx, cy := x+w/2, el.Y+h/2
		s.Translate(cx, cy)
		s.Rotate(el.Rotation * math.Pi / 180)
		s.DrawImage(src, -w/2, -h/2, w, h)
		return
	}
	s.DrawImage(src, x, el.Y, w, h)
}

func (r *Renderer) drawText(s *canvas.Surface, t frame.Text) error {
	if t.Text == "" || t.Opacity <= 0 {
		return nil
	}
	spec := t.Font.WithDefaults()
	face, err := r.faces.Face(spec.Family, spec.Weight, spec.Size)
	if err != nil {
		return fmt.Errorf("text %q: %w", t.ID, err)
	}

	var shadow *canvas.TextShadow
	if sh := t.Shadow; sh != nil && sh.Color != "" {
		shadow = &canvas.TextShadow{
			Paint:   image.NewUniform(canvas.ParseColorOr(sh.Color, color.NRGBA{A: 255})),
			Blur:    sh.Blur,
			OffsetX: sh.OffsetX,
			OffsetY: sh.OffsetY,
		}
	}
	paint := image.NewUniform(canvas.ParseColorOr(t.Color, color.NRGBA{255, 255, 255, 255}))

	lines := []string{t.Text}
	if t.MaxWidth > 0 {
		lines = WrapText(t.Text, t.MaxWidth, func(s string) float64 { return canvas.MeasureText(face, s) })
	}

	s.Save()
	defer s.Restore()
	s.SetAlpha(t.Opacity)

	lh := t.EffectiveLineHeight()
	for i, line := range lines {
		x := t.X
		switch t.Align {
		case frame.AlignCenter:
			x -= canvas.MeasureText(face, line) / 2
		case frame.AlignRight:
			x -= canvas.MeasureText(face, line)
		}
		s.FillText(face, line, x, t.Y+float64(i)*lh, paint, shadow)
	}
	return nil
}

func drawShape(s *canvas.Surface, sh frame.Shape) {
	p := sh.ShapePaint()
	fill := paintFor(p.Fill)
	stroke := paintFor(p.Stroke)
	width := p.EffectiveStrokeWidth()

	switch v := sh.(type) {
	case frame.Circle:
		if fill != nil {
			s.FillCircle(v.X, v.Y, v.Radius, fill)
		}
		if stroke != nil {
			s.StrokeCircle(v.X, v.Y, v.Radius, width, stroke)
		}
	case frame.Rect:
		if fill != nil {
			s.FillRect(v.X, v.Y, v.Width, v.Height, fill)
		}
		if stroke != nil {
			s.StrokeRect(v.X, v.Y, v.Width, v.Height, width, stroke)
		}
	}
}

func paintFor(c string) image.Image {
	if c == "" {
		return nil
	}
	col, err := canvas.ParseColor(c)
	if err != nil {
		log.Printf("[!] %v", err)
		return nil
	}
	return image.NewUniform(col)
}
