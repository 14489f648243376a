package fonts

import (
	"testing"

	"golang.org/x/image/font/gofont/gomono"
)

func TestCacheFallsBackToDefault(t *testing.T) {
	lib := NewLibrary()
	cache := lib.NewCache()
	defer cache.Close()

	face, err := cache.Face("Inter", "bold", 24)
	if err != nil {
		t.Fatalf("Face failed: %v", err)
	}
	if face == nil {
		t.Fatal("expected a face")
	}

	again, _ := cache.Face("inter", "700", 24)
	if again != face {
		t.Error("expected cached face for equivalent family/weight")
	}
}

func TestRegisterCustomFamily(t *testing.T) {
	lib := NewLibrary()
	if err := lib.Register("Mono", "normal", gomono.TTF); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := lib.Register("Broken", "normal", []byte("not a font")); err == nil {
		t.Error("expected parse error for garbage bytes")
	}

	if lib.lookup("Mono", "normal") == lib.lookup(DefaultFamily, "normal") {
		t.Error("registered family should not resolve to the default font")
	}
	// Bold falls back to the family's regular face.
	if lib.lookup("Mono", "bold") != lib.lookup("Mono", "normal") {
		t.Error("missing weight should fall back within the family")
	}
}

func TestNormalizeWeight(t *testing.T) {
	tests := map[string]string{
		"":       "normal",
		"normal": "normal",
		"400":    "normal",
		"bold":   "bold",
		"700":    "bold",
		"Bolder": "bold",
	}
	for in, want := range tests {
		if got := normalizeWeight(in); got != want {
			t.Errorf("normalizeWeight(%q) = %q, want %q", in, got, want)
		}
	}
}
