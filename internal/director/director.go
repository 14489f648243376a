// Package director turns achievement metadata into an ordered sequence of
// declarative animation frames.
package director

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/ivlev/badgecast/internal/canvas"
	"github.com/ivlev/badgecast/internal/frame"
)

// Achievement is what the caller awards.
type Achievement struct {
	Name        string
	Description string
	ImagePath   string
	LogoPath    string
	// Footer overrides the default call-to-action line.
	Footer string
}

// DefaultFooter is shown when Achievement.Footer is empty.
const DefaultFooter = "Join the team. Apply today."

// Options size the generated sequence. Zero values take the preset defaults.
type Options struct {
	Frames int
	Width  int
	Height int
}

// Generator produces frame sequences for one preset.
type Generator struct {
	Preset Preset
	// Rand drives particle placement. Seed it for reproducible output.
	Rand *rand.Rand
}

// NewGenerator returns a generator for p. A nil rng is replaced by a
// time-seeded one.
func NewGenerator(p Preset, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{Preset: p, Rand: rng}
}

// GenerateBadgeFrames renders the badge preset with unseeded particles.
func GenerateBadgeFrames(name, description, imagePath, logoPath string, totalFrames int) ([]frame.Frame, error) {
	return NewGenerator(Badge, nil).Generate(Achievement{
		Name: name, Description: description, ImagePath: imagePath, LogoPath: logoPath,
	}, Options{Frames: totalFrames})
}

// GenerateNFTFrames renders the NFT preset with unseeded particles.
func GenerateNFTFrames(name, description, imagePath, logoPath string, totalFrames int) ([]frame.Frame, error) {
	return NewGenerator(NFT, nil).Generate(Achievement{
		Name: name, Description: description, ImagePath: imagePath, LogoPath: logoPath,
	}, Options{Frames: totalFrames})
}

// Generate returns opts.Frames frames in chronological order. Each frame
// depends only on its index and the inputs; only particle coordinates vary
// between calls with an unseeded generator.
func (g *Generator) Generate(a Achievement, opts Options) ([]frame.Frame, error) {
	p := g.Preset
	if p.BaseFrames < 1 {
		return nil, fmt.Errorf("preset %q has no base timeline", p.Name)
	}
	n := opts.Frames
	if n == 0 {
		n = p.BaseFrames
	}
	if n < 0 {
		return nil, fmt.Errorf("frame count must be positive, got %d", n)
	}
	w, h := opts.Width, opts.Height
	if w <= 0 {
		w = p.Width
	}
	if h <= 0 {
		h = p.Height
	}
	if a.Footer == "" {
		a.Footer = DefaultFooter
	}

	l := newLayout(p, w, h)
	frames := make([]frame.Frame, n)
	for i := range frames {
		frames[i] = g.frameAt(a, l, basePosition(i, n, p.BaseFrames), overall(i, n))
	}
	return frames, nil
}

// basePosition maps frame i of n onto the preset's base timeline so the
// first and last frames always land on the first and last base frames.
func basePosition(i, n, base int) float64 {
	if n <= 1 {
		return float64(base - 1)
	}
	return float64(i*(base-1)) / float64(n-1)
}

func overall(i, n int) float64 {
	if n <= 1 {
		return 1
	}
	return float64(i) / float64(n-1)
}

// layout holds pixel geometry derived from the canvas size.
type layout struct {
	w, h     float64
	unit     float64
	logoSize float64
	logoY    float64
	headingY float64
	hero     float64
	heroCY   float64
	titleY   float64
	descY    float64
	footerY  float64
}

func newLayout(p Preset, w, h int) layout {
	fw, fh := float64(w), float64(h)
	u := math.Min(fw, fh) / 600
	l := layout{w: fw, h: fh, unit: u}
	l.logoSize = 60 * u
	l.logoY = fh * 0.04
	l.headingY = l.logoY + l.logoSize + 40*u
	l.hero = p.HeroSize * math.Min(fw, fh)
	l.heroCY = fh * 0.45
	l.titleY = l.heroCY + l.hero/2 + 60*u
	l.descY = l.titleY + 42*u
	l.footerY = fh - 28*u
	return l
}

func (g *Generator) frameAt(a Achievement, l layout, pos, progress float64) frame.Frame {
	p := g.Preset
	f := frame.Frame{
		Background: frame.Gradient{Stops: []frame.Stop{
			{Position: 0, Color: p.Palette.Background},
			{Position: 1, Color: canvas.RGBA(0, 0, 0, 0.2+0.6*progress)},
		}},
		Pattern: &frame.Pattern{Color: "#ffffff", Opacity: 0.03},
	}

	if a.LogoPath != "" {
		f.Images = append(f.Images, frame.Image{
			ID: "logo", Path: a.LogoPath, Centered: true, Y: l.logoY,
			Width: l.logoSize, Height: l.logoSize,
			Opacity: p.Logo.Progress(pos),
		})
	}

	f.Texts = append(f.Texts, frame.Text{
		ID: "headline", Text: p.Headline, X: l.w / 2, Y: l.headingY,
		Font:    frame.FontSpec{Weight: "bold", Size: 22 * l.unit},
		Color:   rgb(p.Palette.Accent, 1),
		Align:   frame.AlignCenter,
		Opacity: p.Heading.Progress(pos),
	})

	if p.Ring != nil {
		rp := p.Ring.Progress(pos)
		if rp > 0 {
			r := l.hero/2 + 20*l.unit
			f.Shapes = append(f.Shapes,
				frame.Circle{X: l.w / 2, Y: l.heroCY, Radius: r + 8*l.unit,
					Paint: frame.Paint{Stroke: rgb(p.Palette.Accent, 0.25*rp), StrokeWidth: 12 * l.unit}},
				frame.Circle{X: l.w / 2, Y: l.heroCY, Radius: r,
					Paint: frame.Paint{Stroke: rgb(p.Palette.Accent, 0.8*rp), StrokeWidth: 4 * l.unit}},
			)
		}
	}

	f.Images = append(f.Images, g.hero(a, l, pos))

	fade := func(start int) float64 {
		return Phase{start, start + p.TextFade}.Progress(pos)
	}
	shadow := &frame.Shadow{Color: "rgba(0,0,0,0.5)", Blur: 4 * l.unit, OffsetY: 2 * l.unit}
	f.Texts = append(f.Texts,
		frame.Text{
			ID: "title", Text: a.Name, X: l.w / 2, Y: l.titleY,
			Font:  frame.FontSpec{Weight: "bold", Size: 36 * l.unit},
			Color: p.Palette.Title, Align: frame.AlignCenter,
			Opacity: fade(p.TitleAt), MaxWidth: l.w * 0.9, Shadow: shadow,
		},
		frame.Text{
			ID: "description", Text: a.Description, X: l.w / 2, Y: l.descY,
			Font:  frame.FontSpec{Size: 22 * l.unit},
			Color: p.Palette.Body, Align: frame.AlignCenter,
			Opacity: fade(p.DescriptionAt), MaxWidth: l.w * 0.8, LineHeight: 28 * l.unit,
		},
		frame.Text{
			ID: "footer", Text: a.Footer, X: l.w / 2, Y: l.footerY,
			Font:  frame.FontSpec{Size: 16 * l.unit},
			Color: rgb(p.Palette.Accent, 1), Align: frame.AlignCenter,
			Opacity: fade(p.FooterAt),
		},
	)

	if p.Shine.Active(pos) {
		sp := p.Shine.Progress(pos)
		band := l.hero / 2
		left := l.w/2 - l.hero/2 - band
		f.Effects.Shine = &frame.Shine{
			X: lerp(left, l.w/2+l.hero/2, sp), Y: l.heroCY - l.hero/2,
			Width: band, Height: l.hero,
			Opacity: 0.6 * math.Sin(sp*math.Pi),
		}
	}

	if pos > float64(p.ParticlesAfter) {
		f.Effects.Particles = g.particles(l, Phase{p.ParticlesAfter, p.BaseFrames - 1}.Progress(pos))
	}
	return f
}

// hero places the badge/NFT image for the current position.
func (g *Generator) hero(a Achievement, l layout, pos float64) frame.Image {
	p := g.Preset
	ep := p.Entrance.Progress(pos)

	scale := p.EntranceScale(ep)
	if p.Pulse != (Phase{}) && pos > float64(p.Pulse.Start) {
		scale *= Settle(p.Pulse.Progress(pos))
	}
	if ep == 0 {
		scale = 0
	}

	size := l.hero * scale
	return frame.Image{
		ID: "badge", Path: a.ImagePath, Centered: true,
		Y:     l.heroCY - size/2,
		Width: size, Height: size,
		Opacity:  ep,
		Rotation: p.EntranceRotation * (1 - ep),
	}
}

// particles scatters sparkles around the hero image; the ring widens as
// burst goes from 0 to 1.
func (g *Generator) particles(l layout, burst float64) *frame.Particles {
	p := g.Preset
	pts := make([]frame.Particle, p.ParticleCount)
	for i := range pts {
		angle := g.Rand.Float64() * 2 * math.Pi
		dist := l.hero/2 + g.Rand.Float64()*l.hero*(0.2+0.4*burst)
		pts[i] = frame.Particle{
			X:    l.w/2 + math.Cos(angle)*dist,
			Y:    l.heroCY + math.Sin(angle)*dist,
			Size: (1 + g.Rand.Float64()*3) * l.unit,
		}
	}
	return &frame.Particles{Color: p.Palette.Particle, Points: pts}
}

func rgb(c RGB, alpha float64) string {
	return canvas.RGBA(c.R, c.G, c.B, alpha)
}
