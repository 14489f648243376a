package frame

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAML documents use a "kind" discriminator for the variant types.

type frameDoc struct {
	Background *backgroundDoc `yaml:"background,omitempty"`
	Pattern    *patternDoc    `yaml:"pattern,omitempty"`
	Images     []imageDoc     `yaml:"images,omitempty"`
	Texts      []textDoc      `yaml:"texts,omitempty"`
	Shapes     []shapeDoc     `yaml:"shapes,omitempty"`
	Shine      *shineDoc      `yaml:"shine,omitempty"`
	Particles  *particlesDoc  `yaml:"particles,omitempty"`
}

type backgroundDoc struct {
	Kind  string    `yaml:"kind"`
	Color string    `yaml:"color,omitempty"`
	Stops []stopDoc `yaml:"stops,omitempty"`
}

type stopDoc struct {
	Position float64 `yaml:"position"`
	Color    string  `yaml:"color"`
}

type patternDoc struct {
	Color   string  `yaml:"color"`
	Opacity float64 `yaml:"opacity"`
}

type imageDoc struct {
	ID       string  `yaml:"id,omitempty"`
	Path     string  `yaml:"path"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Centered bool    `yaml:"centered,omitempty"`
	Width    float64 `yaml:"width"`
	Height   float64 `yaml:"height"`
	Opacity  float64 `yaml:"opacity"`
	Rotation float64 `yaml:"rotation,omitempty"`
}

type textDoc struct {
	ID         string     `yaml:"id,omitempty"`
	Text       string     `yaml:"text"`
	X          float64    `yaml:"x"`
	Y          float64    `yaml:"y"`
	Weight     string     `yaml:"weight,omitempty"`
	Size       float64    `yaml:"size,omitempty"`
	Family     string     `yaml:"family,omitempty"`
	Color      string     `yaml:"color,omitempty"`
	Align      Align      `yaml:"align,omitempty"`
	Opacity    float64    `yaml:"opacity"`
	MaxWidth   float64    `yaml:"maxWidth,omitempty"`
	LineHeight float64    `yaml:"lineHeight,omitempty"`
	Shadow     *shadowDoc `yaml:"shadow,omitempty"`
}

type shadowDoc struct {
	Color   string  `yaml:"color"`
	Blur    float64 `yaml:"blur,omitempty"`
	OffsetX float64 `yaml:"offsetX,omitempty"`
	OffsetY float64 `yaml:"offsetY,omitempty"`
}

type shapeDoc struct {
	Kind        string  `yaml:"kind"`
	X           float64 `yaml:"x"`
	Y           float64 `yaml:"y"`
	Radius      float64 `yaml:"radius,omitempty"`
	Width       float64 `yaml:"width,omitempty"`
	Height      float64 `yaml:"height,omitempty"`
	Fill        string  `yaml:"fill,omitempty"`
	Stroke      string  `yaml:"stroke,omitempty"`
	StrokeWidth float64 `yaml:"strokeWidth,omitempty"`
}

type shineDoc struct {
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	Width   float64 `yaml:"width"`
	Height  float64 `yaml:"height"`
	Opacity float64 `yaml:"opacity"`
}

type particlesDoc struct {
	Color  string       `yaml:"color"`
	Points [][3]float64 `yaml:"points,flow"`
}

// MarshalYAML implements yaml.Marshaler.
func (f Frame) MarshalYAML() (interface{}, error) {
	doc := frameDoc{}

	switch bg := f.Background.(type) {
	case Solid:
		doc.Background = &backgroundDoc{Kind: "solid", Color: bg.Color}
	case Gradient:
		d := &backgroundDoc{Kind: "gradient"}
		for _, s := range bg.Stops {
			d.Stops = append(d.Stops, stopDoc(s))
		}
		doc.Background = d
	case nil:
	default:
		return nil, fmt.Errorf("unknown background %T", bg)
	}

	if f.Pattern != nil {
		doc.Pattern = &patternDoc{Color: f.Pattern.Color, Opacity: f.Pattern.Opacity}
	}
	for _, img := range f.Images {
		doc.Images = append(doc.Images, imageDoc(img))
	}
	for _, t := range f.Texts {
		td := textDoc{
			ID: t.ID, Text: t.Text, X: t.X, Y: t.Y,
			Weight: t.Font.Weight, Size: t.Font.Size, Family: t.Font.Family,
			Color: t.Color, Align: t.Align, Opacity: t.Opacity,
			MaxWidth: t.MaxWidth, LineHeight: t.LineHeight,
		}
		if t.Shadow != nil {
			sd := shadowDoc(*t.Shadow)
			td.Shadow = &sd
		}
		doc.Texts = append(doc.Texts, td)
	}
	for _, s := range f.Shapes {
		switch v := s.(type) {
		case Circle:
			doc.Shapes = append(doc.Shapes, shapeDoc{
				Kind: "circle", X: v.X, Y: v.Y, Radius: v.Radius,
				Fill: v.Paint.Fill, Stroke: v.Paint.Stroke, StrokeWidth: v.Paint.StrokeWidth,
			})
		case Rect:
			doc.Shapes = append(doc.Shapes, shapeDoc{
				Kind: "rect", X: v.X, Y: v.Y, Width: v.Width, Height: v.Height,
				Fill: v.Paint.Fill, Stroke: v.Paint.Stroke, StrokeWidth: v.Paint.StrokeWidth,
			})
		default:
			return nil, fmt.Errorf("unknown shape %T", s)
		}
	}
	if sh := f.Effects.Shine; sh != nil {
		doc.Shine = &shineDoc{X: sh.X, Y: sh.Y, Width: sh.Width, Height: sh.Height, Opacity: sh.Opacity}
	}
	if p := f.Effects.Particles; p != nil {
		pd := &particlesDoc{Color: p.Color}
		for _, pt := range p.Points {
			pd.Points = append(pd.Points, [3]float64{pt.X, pt.Y, pt.Size})
		}
		doc.Particles = pd
	}
	return doc, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *Frame) UnmarshalYAML(node *yaml.Node) error {
	var doc frameDoc
	if err := node.Decode(&doc); err != nil {
		return err
	}

	out := Frame{}
	if doc.Background != nil {
		switch doc.Background.Kind {
		case "solid":
			out.Background = Solid{Color: doc.Background.Color}
		case "gradient":
			g := Gradient{}
			for _, s := range doc.Background.Stops {
				g.Stops = append(g.Stops, Stop(s))
			}
			out.Background = g
		default:
			return fmt.Errorf("line %d: unknown background kind %q", node.Line, doc.Background.Kind)
		}
	}
	if doc.Pattern != nil {
		out.Pattern = &Pattern{Color: doc.Pattern.Color, Opacity: doc.Pattern.Opacity}
	}
	for _, img := range doc.Images {
		out.Images = append(out.Images, Image(img))
	}
	for _, td := range doc.Texts {
		t := Text{
			ID: td.ID, Text: td.Text, X: td.X, Y: td.Y,
			Font:  FontSpec{Weight: td.Weight, Size: td.Size, Family: td.Family},
			Color: td.Color, Align: td.Align, Opacity: td.Opacity,
			MaxWidth: td.MaxWidth, LineHeight: td.LineHeight,
		}
		if td.Shadow != nil {
			s := Shadow(*td.Shadow)
			t.Shadow = &s
		}
		out.Texts = append(out.Texts, t)
	}
	for _, sd := range doc.Shapes {
		paint := Paint{Fill: sd.Fill, Stroke: sd.Stroke, StrokeWidth: sd.StrokeWidth}
		switch sd.Kind {
		case "circle":
			out.Shapes = append(out.Shapes, Circle{X: sd.X, Y: sd.Y, Radius: sd.Radius, Paint: paint})
		case "rect":
			out.Shapes = append(out.Shapes, Rect{X: sd.X, Y: sd.Y, Width: sd.Width, Height: sd.Height, Paint: paint})
		default:
			return fmt.Errorf("line %d: unknown shape kind %q", node.Line, sd.Kind)
		}
	}
	if doc.Shine != nil {
		out.Effects.Shine = &Shine{X: doc.Shine.X, Y: doc.Shine.Y, Width: doc.Shine.Width, Height: doc.Shine.Height, Opacity: doc.Shine.Opacity}
	}
	if doc.Particles != nil {
		p := &Particles{Color: doc.Particles.Color}
		for _, pt := range doc.Particles.Points {
			p.Points = append(p.Points, Particle{X: pt[0], Y: pt[1], Size: pt[2]})
		}
		out.Effects.Particles = p
	}

	*f = out
	return nil
}
