package renderer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"

	"github.com/ivlev/badgecast/internal/canvas"
	"github.com/ivlev/badgecast/internal/fonts"
	"github.com/ivlev/badgecast/internal/frame"
)

type mapLoader map[string]image.Image

func (m mapLoader) Load(_ context.Context, path string) (image.Image, error) {
	if img, ok := m[path]; ok {
		return img, nil
	}
	return nil, errors.New("not found")
}

func solidImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r := New(mapLoader{"red.png": solidImage(20, 20, color.RGBA{255, 0, 0, 255})}, fonts.NewLibrary())
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRenderDoesNotLeakState(t *testing.T) {
	first := frame.Frame{
		Background: frame.Solid{Color: "#000000"},
		Images: []frame.Image{
			{ID: "badge", Path: "red.png", X: 10, Y: 10, Width: 40, Height: 40, Opacity: 0.3, Rotation: 45},
		},
		Texts: []frame.Text{
			{ID: "title", Text: "Hard Charger", X: 50, Y: 80, Opacity: 0.5, Align: frame.AlignCenter, Color: "#fff"},
		},
		Effects: frame.Effects{Shine: &frame.Shine{Width: 100, Height: 100, Opacity: 0.6}},
	}
	second := frame.Frame{
		Background: frame.Solid{Color: "#102030"},
		Shapes:     []frame.Shape{frame.Rect{X: 10, Y: 10, Width: 30, Height: 30, Paint: frame.Paint{Fill: "#00ff00"}}},
	}

	ctx := context.Background()
	r := newTestRenderer(t)
	s := canvas.New(100, 100)
	if err := r.RenderFrame(ctx, s, first); err != nil {
		t.Fatalf("first render: %v", err)
	}
	if st := s.State(); st != canvas.DefaultState() {
		t.Fatalf("state leaked after render: %+v", st)
	}
	if err := r.RenderFrame(ctx, s, second); err != nil {
		t.Fatalf("second render: %v", err)
	}

	fresh := canvas.New(100, 100)
	if err := newTestRenderer(t).RenderFrame(ctx, fresh, second); err != nil {
		t.Fatalf("fresh render: %v", err)
	}
	if !bytes.Equal(s.Image().Pix, fresh.Image().Pix) {
		t.Error("second frame differs from the same frame rendered on a fresh surface")
	}
	if c := s.Image().RGBAAt(25, 25); c.G != 255 || c.R != 0 {
		t.Errorf("expected fully opaque green rect, got %v", c)
	}
}

func TestRenderCenteredImage(t *testing.T) {
	r := newTestRenderer(t)
	s := canvas.New(100, 50)
	f := frame.Frame{
		Background: frame.Solid{Color: "black"},
		Images:     []frame.Image{{ID: "badge", Path: "red.png", X: 0, Y: 5, Centered: true, Width: 20, Height: 20, Opacity: 1}},
	}
	if err := r.RenderFrame(context.Background(), s, f); err != nil {
		t.Fatal(err)
	}
	if c := s.Image().RGBAAt(50, 15); c.R < 250 {
		t.Errorf("expected image centered horizontally, got %v at center", c)
	}
	if c := s.Image().RGBAAt(5, 15); c.R != 0 {
		t.Errorf("x must be ignored when centered, got %v at x=5", c)
	}
	if c := s.Image().RGBAAt(50, 30); c.R != 0 {
		t.Errorf("y must stay explicit, got %v below the image", c)
	}
}

func TestRenderSkipsBrokenImage(t *testing.T) {
	r := newTestRenderer(t)
	s := canvas.New(60, 60)
	f := frame.Frame{
		Background: frame.Solid{Color: "#000"},
		Images:     []frame.Image{{ID: "logo", Path: "missing.png", Width: 60, Height: 60, Opacity: 1}},
		Shapes:     []frame.Shape{frame.Circle{X: 30, Y: 30, Radius: 10, Paint: frame.Paint{Fill: "#ffffff"}}},
	}
	if err := r.RenderFrame(context.Background(), s, f); err != nil {
		t.Fatalf("broken image must not fail the frame: %v", err)
	}
	if c := s.Image().RGBAAt(30, 30); c.R != 255 {
		t.Errorf("remaining elements should still be drawn, got %v", c)
	}
}

func TestRenderRejectsInvalidGradient(t *testing.T) {
	r := newTestRenderer(t)
	s := canvas.New(10, 10)
	tests := []struct {
		name  string
		stops []frame.Stop
	}{
		{"descending", []frame.Stop{{Position: 0, Color: "#000"}, {Position: 0.8, Color: "#111"}, {Position: 0.4, Color: "#222"}, {Position: 1, Color: "#333"}}},
		{"not spanning", []frame.Stop{{Position: 0.1, Color: "#000"}, {Position: 1, Color: "#fff"}}},
		{"single", []frame.Stop{{Position: 0, Color: "#000"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.RenderFrame(context.Background(), s, frame.Frame{Background: frame.Gradient{Stops: tt.stops}})
			if !errors.Is(err, frame.ErrInvalidGradient) {
				t.Errorf("expected ErrInvalidGradient, got %v", err)
			}
		})
	}
}

func TestRenderGradientBackground(t *testing.T) {
	r := newTestRenderer(t)
	s := canvas.New(10, 100)
	f := frame.Frame{Background: frame.Gradient{Stops: []frame.Stop{{Position: 0, Color: "#ffffff"}, {Position: 1, Color: "#000000"}}}}
	if err := r.RenderFrame(context.Background(), s, f); err != nil {
		t.Fatal(err)
	}
	top, bottom := s.Image().RGBAAt(5, 0), s.Image().RGBAAt(5, 99)
	if top.R < 240 || bottom.R > 15 {
		t.Errorf("expected white-to-black top-down gradient, got top=%v bottom=%v", top, bottom)
	}
}

func TestRenderCanceled(t *testing.T) {
	r := newTestRenderer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := frame.Frame{Background: frame.Solid{Color: "#000"}, Images: []frame.Image{{Path: "red.png", Opacity: 1}}}
	if err := r.RenderFrame(ctx, canvas.New(10, 10), f); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestWrapText(t *testing.T) {
	// Every character is 10px wide.
	measure := func(s string) float64 { return float64(len(s)) * 10 }

	tests := []struct {
		name     string
		text     string
		maxWidth float64
		want     []string
	}{
		{"fits", "Scored 80%+", 200, []string{"Scored 80%+"}},
		{"wraps", "you earned the hard charger badge", 120, []string{"you earned", "the hard", "charger", "badge"}},
		{"long word alone", "a extraordinarily b", 50, []string{"a", "extraordinarily", "b"}},
		{"only long word", "supercalifragilistic", 10, []string{"supercalifragilistic"}},
		{"empty", "   ", 100, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapText(tt.text, tt.maxWidth, measure)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Errorf("WrapText(%q, %g) = %q, want %q", tt.text, tt.maxWidth, got, tt.want)
			}
		})
	}
}
