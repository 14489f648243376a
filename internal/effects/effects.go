// Package effects draws the decorative layers of an animation frame: the
// pattern overlay, the shine sweep and particle bursts.
package effects

import (
	"image"
	"image/color"

	"github.com/ivlev/badgecast/internal/canvas"
	"github.com/ivlev/badgecast/internal/frame"
)

// Effect is a decoration drawn directly onto a surface. Implementations
// restore any drawing state they change.
type Effect interface {
	Draw(s *canvas.Surface)
}

// PatternEffect tiles frame.PatternBlock squares on a frame.PatternCell grid.
type PatternEffect struct {
	Color   color.NRGBA
	Opacity float64
}

func (e PatternEffect) Draw(s *canvas.Surface) {
	if e.Opacity <= 0 {
		return
	}
	s.Save()
	defer s.Restore()

	s.SetAlpha(e.Opacity)
	paint := image.NewUniform(e.Color)
	for x := 0; x < s.Width(); x += frame.PatternCell {
		for y := 0; y < s.Height(); y += frame.PatternCell {
			s.FillRect(float64(x), float64(y), frame.PatternBlock, frame.PatternBlock, paint)
		}
	}
}

// ShineEffect is a horizontal transparent→white→transparent band added on
// top of what is already drawn.
type ShineEffect struct {
	X, Y, Width, Height float64
	Opacity             float64
}

func (e ShineEffect) Draw(s *canvas.Surface) {
	if e.Opacity <= 0 || e.Width <= 0 || e.Height <= 0 {
		return
	}
	s.Save()
	defer s.Restore()

	s.SetComposite(canvas.Lighter)
	grad := canvas.NewLinearGradient(e.X, e.Y, e.X+e.Width, e.Y,
		canvas.GradientStop{Offset: 0, Color: color.NRGBA{255, 255, 255, 0}},
		canvas.GradientStop{Offset: 0.5, Color: color.NRGBA{255, 255, 255, uint8(clamp01(e.Opacity)*255 + 0.5)}},
		canvas.GradientStop{Offset: 1, Color: color.NRGBA{255, 255, 255, 0}},
	)
	s.FillRect(e.X, e.Y, e.Width, e.Height, grad)
}

// ParticlesEffect draws filled dots of one color.
type ParticlesEffect struct {
	Color  color.NRGBA
	Points []frame.Particle
}

func (e ParticlesEffect) Draw(s *canvas.Surface) {
	paint := image.NewUniform(e.Color)
	for _, p := range e.Points {
		if p.Size <= 0 {
			continue
		}
		s.FillCircle(p.X, p.Y, p.Size, paint)
	}
}

// FromFrame converts a frame's effects into drawable effects, shine first.
func FromFrame(fx frame.Effects) []Effect {
	var list []Effect
	if sh := fx.Shine; sh != nil {
		list = append(list, ShineEffect{X: sh.X, Y: sh.Y, Width: sh.Width, Height: sh.Height, Opacity: sh.Opacity})
	}
	if p := fx.Particles; p != nil && len(p.Points) > 0 {
		list = append(list, ParticlesEffect{
			Color:  canvas.ParseColorOr(p.Color, color.NRGBA{255, 215, 0, 255}),
			Points: p.Points,
		})
	}
	return list
}

// Pattern returns the overlay effect for p, or nil.
func Pattern(p *frame.Pattern) Effect {
	if p == nil {
		return nil
	}
	return PatternEffect{
		Color:   canvas.ParseColorOr(p.Color, color.NRGBA{255, 255, 255, 255}),
		Opacity: p.Opacity,
	}
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
