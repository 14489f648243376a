// Package frame describes a single still of an achievement animation as a
// plain value: everything the compositor needs to draw it, nothing more.
package frame

import "fmt"

// Frame is one declarative description of everything drawn in a still image.
// Frames carry no identity beyond their position in a generated sequence.
type Frame struct {
	Background Background
	Pattern    *Pattern
	Images     []Image
	Texts      []Text
	Shapes     []Shape
	Effects    Effects
}

// Background is either Solid or Gradient.
type Background interface {
	isBackground()
}

// Solid fills the whole canvas with one color.
type Solid struct {
	Color string
}

// Gradient is a top-to-bottom linear gradient across the canvas.
type Gradient struct {
	Stops []Stop
}

// Stop is a gradient color stop; Position is in [0,1].
type Stop struct {
	Position float64
	Color    string
}

func (Solid) isBackground()    {}
func (Gradient) isBackground() {}

// Pattern is a coarse decorative texture of square blocks tiled over the canvas.
type Pattern struct {
	Color   string
	Opacity float64
}

// Pattern grid geometry in pixels.
const (
	PatternCell  = 40
	PatternBlock = 20
)

// Image places a bitmap asset. When Centered is set X is ignored and the
// image is centered horizontally; Y is always explicit.
type Image struct {
	ID       string
	Path     string
	X, Y     float64
	Centered bool
	Width    float64
	Height   float64
	Opacity  float64
	Rotation float64 // degrees, clockwise
}

// Text is a (possibly wrapped) run of text. Y is the baseline of the first line.
type Text struct {
	ID         string
	Text       string
	X, Y       float64
	Font       FontSpec
	Color      string
	Align      Align
	Opacity    float64
	MaxWidth   float64 // 0 disables wrapping
	LineHeight float64 // 0 means 1.2 × font size
	Shadow     *Shadow
}

// Align is the horizontal anchor of a text run relative to its X.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Shadow is a drop shadow applied under text.
type Shadow struct {
	Color   string
	Blur    float64
	OffsetX float64
	OffsetY float64
}

// FontSpec mirrors a CSS font shorthand.
type FontSpec struct {
	Weight string
	Size   float64
	Family string
}

// Font defaults.
const (
	DefaultFontWeight = "normal"
	DefaultFontSize   = 30
	DefaultFontFamily = "Go"
)

// WithDefaults fills unset fields.
func (f FontSpec) WithDefaults() FontSpec {
	if f.Weight == "" {
		f.Weight = DefaultFontWeight
	}
	if f.Size <= 0 {
		f.Size = DefaultFontSize
	}
	if f.Family == "" {
		f.Family = DefaultFontFamily
	}
	return f
}

// String renders the spec as "<weight> <size>px <family>".
func (f FontSpec) String() string {
	f = f.WithDefaults()
	return fmt.Sprintf("%s %gpx %s", f.Weight, f.Size, f.Family)
}

// EffectiveLineHeight returns the line advance for wrapped text.
func (t Text) EffectiveLineHeight() float64 {
	if t.LineHeight > 0 {
		return t.LineHeight
	}
	return 1.2 * t.Font.WithDefaults().Size
}

// Shape is either a Circle or a Rect.
type Shape interface {
	isShape()
	ShapePaint() Paint
}

// Paint says how a shape is filled and/or stroked. Empty colors are skipped.
type Paint struct {
	Fill        string
	Stroke      string
	StrokeWidth float64 // defaults to 1
}

// EffectiveStrokeWidth applies the default width.
func (p Paint) EffectiveStrokeWidth() float64 {
	if p.StrokeWidth <= 0 {
		return 1
	}
	return p.StrokeWidth
}

// Circle is centered at X,Y.
type Circle struct {
	X, Y   float64
	Radius float64
	Paint  Paint
}

// Rect has its top-left corner at X,Y.
type Rect struct {
	X, Y          float64
	Width, Height float64
	Paint         Paint
}

func (Circle) isShape()            {}
func (Rect) isShape()              {}
func (c Circle) ShapePaint() Paint { return c.Paint }
func (r Rect) ShapePaint() Paint   { return r.Paint }

// Effects are optional decorations drawn last.
type Effects struct {
	Shine     *Shine
	Particles *Particles
}

// Shine is a translucent white band swept across a rectangle.
type Shine struct {
	X, Y          float64
	Width, Height float64
	Opacity       float64
}

// Particles are sparkle dots sharing one color.
type Particles struct {
	Color  string
	Points []Particle
}

// Particle is a single dot; Size is its radius.
type Particle struct {
	X, Y float64
	Size float64
}

// ImageByID returns the first image layer with the given id.
func (f Frame) ImageByID(id string) (Image, bool) {
	for _, img := range f.Images {
		if img.ID == id {
			return img, true
		}
	}
	return Image{}, false
}

// TextByID returns the first text layer with the given id.
func (f Frame) TextByID(id string) (Text, bool) {
	for _, t := range f.Texts {
		if t.ID == id {
			return t, true
		}
	}
	return Text{}, false
}
