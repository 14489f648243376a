package gifenc

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"testing"
)

func filled(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func TestLifecycle(t *testing.T) {
	e := NewPalettedEncoder()

	if err := e.AddFrame(filled(4, 4, color.White)); !errors.Is(err, ErrNotStarted) {
		t.Errorf("AddFrame before Start: %v", err)
	}
	if _, err := e.Finish(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Finish before Start: %v", err)
	}
	if err := e.Start(4, 4); err != nil {
		t.Fatal(err)
	}
	if err := e.Start(4, 4); !errors.Is(err, ErrStarted) {
		t.Errorf("second Start: %v", err)
	}
	if err := e.AddFrame(filled(4, 4, color.White)); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Finish(); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Finish(); !errors.Is(err, ErrFinished) {
		t.Errorf("second Finish: %v", err)
	}
	if err := e.AddFrame(filled(4, 4, color.White)); !errors.Is(err, ErrFinished) {
		t.Errorf("AddFrame after Finish: %v", err)
	}
}

func TestEmptyProducesBlankGif(t *testing.T) {
	e := NewPalettedEncoder()
	if err := e.Start(16, 8); err != nil {
		t.Fatal(err)
	}
	data, err := e.Finish()
	if err != nil {
		t.Fatal(err)
	}
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("blank gif does not decode: %v", err)
	}
	if len(g.Image) != 1 || g.Config.Width != 16 || g.Config.Height != 8 {
		t.Errorf("unexpected blank gif: %d frames, %dx%d", len(g.Image), g.Config.Width, g.Config.Height)
	}
}

func TestEncodeFrames(t *testing.T) {
	tests := []struct {
		quantizer Quantizer
		dither    bool
	}{
		{Adaptive, true},
		{Adaptive, false},
		{Plan9, true},
		{WebSafe, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.quantizer), func(t *testing.T) {
			e := NewPalettedEncoder()
			e.Quantizer = tt.quantizer
			e.Dither = tt.dither
			e.DelayMs = 50
			if err := e.Start(20, 20); err != nil {
				t.Fatal(err)
			}

			red := filled(20, 20, color.RGBA{255, 0, 0, 255})
			draw.Draw(red, image.Rect(10, 0, 20, 20), image.NewUniform(color.RGBA{0, 0, 255, 255}), image.Point{}, draw.Src)
			for i := 0; i < 3; i++ {
				if err := e.AddFrame(red); err != nil {
					t.Fatal(err)
				}
			}
			data, err := e.Finish()
			if err != nil {
				t.Fatal(err)
			}

			g, err := gif.DecodeAll(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(g.Image) != 3 {
				t.Fatalf("expected 3 frames, got %d", len(g.Image))
			}
			if g.Delay[0] != 5 {
				t.Errorf("delay = %d centiseconds, want 5", g.Delay[0])
			}
			if g.LoopCount != 0 {
				t.Errorf("loop count = %d, want forever", g.LoopCount)
			}

			r, _, b, _ := g.Image[0].At(2, 10).RGBA()
			if r>>8 < 200 || b>>8 > 60 {
				t.Errorf("left half should stay red, got r=%d b=%d", r>>8, b>>8)
			}
			r, _, b, _ = g.Image[0].At(17, 10).RGBA()
			if b>>8 < 200 || r>>8 > 60 {
				t.Errorf("right half should stay blue, got r=%d b=%d", r>>8, b>>8)
			}
		})
	}
}

func TestAdaptivePaletteLimitsColors(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 4), uint8(y * 4), uint8((x + y) * 2), 255})
		}
	}
	for _, sample := range []int{1, 10} {
		pal := adaptivePalette(img, sample, 16)
		if len(pal) == 0 || len(pal) > 16 {
			t.Errorf("sample %d: expected 1..16 colors, got %d", sample, len(pal))
		}
	}
	if got := adaptivePalette(filled(8, 8, color.White), 1, 256); len(got) != 1 {
		t.Errorf("single color image should yield one entry, got %d", len(got))
	}
}

func TestParseQuantizer(t *testing.T) {
	for in, want := range map[string]Quantizer{"": Adaptive, "Plan9": Plan9, "websafe": WebSafe} {
		got, err := ParseQuantizer(in)
		if err != nil || got != want {
			t.Errorf("ParseQuantizer(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseQuantizer("neuquant"); err == nil {
		t.Error("expected error for unknown quantizer")
	}
}
