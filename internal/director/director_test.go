package director

import (
	"math"
	"math/rand"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ivlev/badgecast/internal/frame"
)

func TestHardChargerBadge(t *testing.T) {
	frames, err := GenerateBadgeFrames("Hard Charger", "Scored 80%+", "badge.png", "logo.png", 30)
	if err != nil {
		t.Fatalf("GenerateBadgeFrames failed: %v", err)
	}
	if len(frames) != 30 {
		t.Fatalf("expected 30 frames, got %d", len(frames))
	}

	first, last := frames[0], frames[29]

	badge, ok := first.ImageByID("badge")
	if !ok {
		t.Fatal("frame 0 has no badge layer")
	}
	if badge.Opacity != 0 {
		t.Errorf("frame 0 badge opacity = %g, want 0", badge.Opacity)
	}

	badge, _ = last.ImageByID("badge")
	if badge.Opacity != 1 {
		t.Errorf("frame 29 badge opacity = %g, want 1", badge.Opacity)
	}
	title, ok := last.TextByID("title")
	if !ok || title.Opacity != 1 || title.Text != "Hard Charger" {
		t.Errorf("frame 29 title = %+v", title)
	}
	if p := last.Effects.Particles; p == nil || len(p.Points) == 0 {
		t.Error("frame 29 should have particles")
	}
	if first.Effects.Particles != nil {
		t.Error("frame 0 should not have particles")
	}

	for i, f := range frames {
		if err := f.Validate(); err != nil {
			t.Errorf("frame %d invalid: %v", i, err)
		}
	}
}

func TestBadgePhases(t *testing.T) {
	gen := NewGenerator(Badge, rand.New(rand.NewSource(1)))
	frames, err := gen.Generate(Achievement{Name: "Hard Charger", ImagePath: "b.png", LogoPath: "l.png"}, Options{})
	if err != nil {
		t.Fatal(err)
	}

	logo, _ := frames[2].ImageByID("logo")
	if math.Abs(logo.Opacity-0.5) > 1e-9 {
		t.Errorf("logo at frame 2 = %g, want 0.5", logo.Opacity)
	}
	logo, _ = frames[4].ImageByID("logo")
	if logo.Opacity != 1 {
		t.Errorf("logo should be fully visible by frame 4, got %g", logo.Opacity)
	}

	// Bounce scale is capped at full size.
	maxW := 0.0
	for _, f := range frames {
		b, _ := f.ImageByID("badge")
		maxW = math.Max(maxW, b.Width)
	}
	full := Badge.HeroSize * float64(Badge.Width)
	if maxW > full+1e-9 {
		t.Errorf("badge grew past full size: %g > %g", maxW, full)
	}

	desc, _ := frames[19].TextByID("description")
	if desc.Opacity != 0 {
		t.Errorf("description visible before frame 20: %g", desc.Opacity)
	}
	if frames[15].Effects.Shine == nil || frames[26].Effects.Shine != nil {
		t.Error("shine should sweep frames 15-25 only")
	}
	if frames[20].Effects.Particles != nil || frames[21].Effects.Particles == nil {
		t.Error("particles should start after frame 20")
	}

	// Background darkens as the sequence advances.
	firstStop := frames[0].Background.(frame.Gradient).Stops[1].Color
	lastStop := frames[29].Background.(frame.Gradient).Stops[1].Color
	if firstStop != "rgba(0,0,0,0.200)" || lastStop != "rgba(0,0,0,0.800)" {
		t.Errorf("unexpected background far stops %q → %q", firstStop, lastStop)
	}
}

func TestNFTPreset(t *testing.T) {
	frames, err := NewGenerator(NFT, rand.New(rand.NewSource(7))).Generate(
		Achievement{Name: "Night Watch", Description: "Completed 10 patrol quizzes", ImagePath: "nft.png"}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 90 {
		t.Fatalf("expected 90 frames, got %d", len(frames))
	}

	hero, _ := frames[15].ImageByID("badge")
	if hero.Opacity != 0 || hero.Rotation != -15 {
		t.Errorf("frame 15 hero = %+v", hero)
	}
	hero, _ = frames[44].ImageByID("badge")
	if hero.Opacity != 1 || hero.Rotation != 0 {
		t.Errorf("frame 44 hero = %+v", hero)
	}
	full := NFT.HeroSize * float64(NFT.Width)
	if math.Abs(hero.Width-full) > 1e-9 {
		t.Errorf("frame 44 hero width = %g, want %g", hero.Width, full)
	}

	// Pulse peaks mid-phase.
	mid, _ := frames[67].ImageByID("badge")
	if mid.Width <= full {
		t.Errorf("pulse should enlarge the hero mid-phase, got %g", mid.Width)
	}

	if len(frames[9].Shapes) != 0 || len(frames[30].Shapes) != 2 {
		t.Error("glow ring should appear from frame 10")
	}
	if _, ok := frames[0].ImageByID("logo"); ok {
		t.Error("logo layer should be omitted without a logo path")
	}
}

func TestGenerateSeededIsDeterministic(t *testing.T) {
	a := Achievement{Name: "Hard Charger", Description: "Scored 80%+", ImagePath: "b.png"}
	one, _ := NewGenerator(Badge, rand.New(rand.NewSource(42))).Generate(a, Options{})
	two, _ := NewGenerator(Badge, rand.New(rand.NewSource(42))).Generate(a, Options{})
	if !reflect.DeepEqual(one, two) {
		t.Error("same seed should produce identical frames")
	}

	three, _ := NewGenerator(Badge, rand.New(rand.NewSource(43))).Generate(a, Options{})
	if reflect.DeepEqual(one[29].Effects.Particles, three[29].Effects.Particles) {
		t.Error("different seeds should scatter particles differently")
	}
	one[29].Effects.Particles, three[29].Effects.Particles = nil, nil
	if !reflect.DeepEqual(one[29], three[29]) {
		t.Error("everything but particles should be independent of the seed")
	}
}

func TestGenerateRescales(t *testing.T) {
	gen := NewGenerator(Badge, rand.New(rand.NewSource(1)))
	tests := []struct {
		frames int
	}{{1}, {2}, {12}, {60}, {90}}
	for _, tt := range tests {
		frames, err := gen.Generate(Achievement{Name: "x"}, Options{Frames: tt.frames, Width: 1080, Height: 1920})
		if err != nil {
			t.Fatal(err)
		}
		if len(frames) != tt.frames {
			t.Fatalf("expected %d frames, got %d", tt.frames, len(frames))
		}
		b, _ := frames[len(frames)-1].ImageByID("badge")
		if b.Opacity != 1 {
			t.Errorf("%d frames: final badge opacity = %g", tt.frames, b.Opacity)
		}
	}

	if _, err := gen.Generate(Achievement{}, Options{Frames: -1}); err == nil {
		t.Error("expected error for negative frame count")
	}
}

func TestPresetByName(t *testing.T) {
	if p, err := PresetByName("NFT"); err != nil || p.Name != "nft" {
		t.Errorf("PresetByName(NFT) = %v, %v", p.Name, err)
	}
	if p, err := PresetByName(""); err != nil || p.Name != "badge" {
		t.Errorf("default preset = %v, %v", p.Name, err)
	}
	if _, err := PresetByName("poster"); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestWriteReadFrames(t *testing.T) {
	frames, _ := NewGenerator(Badge, rand.New(rand.NewSource(3))).Generate(Achievement{Name: "Hard Charger", ImagePath: "b.png"}, Options{})
	path := filepath.Join(t.TempDir(), "seq.yaml")

	seq := &Sequence{Version: "1.0", Preset: Badge.Name, Width: 600, Height: 600, Frames: frames}
	if err := WriteFrames(seq, path); err != nil {
		t.Fatalf("WriteFrames failed: %v", err)
	}
	got, err := ReadFrames(path)
	if err != nil {
		t.Fatalf("ReadFrames failed: %v", err)
	}
	if len(got.Frames) != 30 || got.Preset != "badge" {
		t.Fatalf("unexpected sequence: %d frames, preset %q", len(got.Frames), got.Preset)
	}
	b, _ := got.Frames[29].ImageByID("badge")
	if b.Opacity != 1 {
		t.Errorf("badge opacity lost in round trip: %g", b.Opacity)
	}
}
