package canvas

import (
	"image"
	"image/color"
	"math"
	"testing"

	"golang.org/x/image/font/basicfont"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#fff", color.NRGBA{255, 255, 255, 255}, false},
		{"#1a365d", color.NRGBA{0x1a, 0x36, 0x5d, 255}, false},
		{"#ff000080", color.NRGBA{255, 0, 0, 0x80}, false},
		{"rgb(10, 20, 30)", color.NRGBA{10, 20, 30, 255}, false},
		{"rgba(0,0,0,0.5)", color.NRGBA{0, 0, 0, 128}, false},
		{"Gold", color.NRGBA{255, 215, 0, 255}, false},
		{"transparent", color.NRGBA{}, false},
		{"#12", color.NRGBA{}, true},
		{"hsl(1,2,3)", color.NRGBA{}, true},
		{"rgba(1,2,3)", color.NRGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSaveRestoreState(t *testing.T) {
	s := New(10, 10)
	s.Save()
	s.SetAlpha(0.3)
	s.Translate(5, 5)
	s.Rotate(math.Pi / 4)
	s.SetComposite(Lighter)
	s.Restore()

	if s.State() != DefaultState() {
		t.Errorf("state leaked after restore: %+v", s.State())
	}

	// Unbalanced restore is a no-op.
	s.Restore()
	if s.State() != DefaultState() {
		t.Errorf("unbalanced restore changed state: %+v", s.State())
	}
}

func TestFillRectWithAlpha(t *testing.T) {
	s := New(20, 20)
	s.Clear(color.Black)
	s.SetAlpha(0.5)
	s.FillRect(0, 0, 10, 10, image.NewUniform(color.White))

	inside := s.Image().RGBAAt(5, 5)
	if inside.R < 120 || inside.R > 135 {
		t.Errorf("expected half-blended gray inside, got %v", inside)
	}
	outside := s.Image().RGBAAt(15, 15)
	if outside.R != 0 {
		t.Errorf("expected untouched pixel outside, got %v", outside)
	}
}

func TestLighterAdds(t *testing.T) {
	s := New(4, 4)
	s.Clear(color.RGBA{100, 100, 100, 255})
	s.SetComposite(Lighter)
	s.FillRect(0, 0, 4, 4, image.NewUniform(color.RGBA{100, 50, 200, 255}))

	got := s.Image().RGBAAt(1, 1)
	want := color.RGBA{200, 150, 255, 255}
	if got != want {
		t.Errorf("lighter composite = %v, want %v", got, want)
	}
}

func TestStrokeCircleLeavesHole(t *testing.T) {
	s := New(100, 100)
	s.Clear(color.Black)
	s.StrokeCircle(50, 50, 30, 4, image.NewUniform(color.White))

	if c := s.Image().RGBAAt(50, 50); c.R != 0 {
		t.Errorf("center of ring should stay black, got %v", c)
	}
	if c := s.Image().RGBAAt(80, 50); c.R < 200 {
		t.Errorf("ring edge should be painted, got %v", c)
	}
}

func TestLinearGradientEnds(t *testing.T) {
	g := NewLinearGradient(0, 0, 0, 100,
		GradientStop{0, color.NRGBA{255, 0, 0, 255}},
		GradientStop{1, color.NRGBA{0, 0, 255, 255}},
	)
	top := g.At(0, 0).(color.RGBA)
	bottom := g.At(0, 99).(color.RGBA)
	if top.R < 250 || top.B > 5 {
		t.Errorf("top should be red, got %v", top)
	}
	if bottom.B < 250 || bottom.R > 5 {
		t.Errorf("bottom should be blue, got %v", bottom)
	}
	mid := g.At(0, 50).(color.RGBA)
	if mid.R < 120 || mid.R > 135 {
		t.Errorf("midpoint should be mixed, got %v", mid)
	}
}

func TestDrawImageRotatedRestores(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for i := range src.Pix {
		src.Pix[i] = 255
	}

	s := New(40, 40)
	s.Clear(color.Black)
	s.Save()
	s.Translate(20, 20)
	s.Rotate(math.Pi / 2)
	s.DrawImage(src, -5, -5, 10, 10)
	s.Restore()

	if c := s.Image().RGBAAt(20, 20); c.R < 200 {
		t.Errorf("rotated image should cover the center, got %v", c)
	}
	if s.State() != DefaultState() {
		t.Errorf("state leaked: %+v", s.State())
	}
}

func TestFillTextAndMeasure(t *testing.T) {
	face := basicfont.Face7x13
	if w := MeasureText(face, "abc"); w != 21 {
		t.Errorf("MeasureText = %v, want 21", w)
	}

	s := New(60, 30)
	s.Clear(color.Black)
	s.FillText(face, "HI", 5, 20, image.NewUniform(color.White), &TextShadow{
		Paint: image.NewUniform(color.RGBA{255, 0, 0, 255}),
		Blur:  2, OffsetX: 2, OffsetY: 2,
	})

	painted := false
	b := s.Image().Bounds()
	for y := b.Min.Y; y < b.Max.Y && !painted; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if s.Image().RGBAAt(x, y).G > 200 {
				painted = true
				break
			}
		}
	}
	if !painted {
		t.Error("expected white glyph pixels")
	}
}
