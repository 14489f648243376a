// Package fonts loads OpenType fonts with an embedded Go font fallback.
// A Library holds parsed fonts and is safe for concurrent use; faces are not,
// so every goroutine that draws text takes its own Cache.
package fonts

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// DefaultFamily is always registered, backed by the embedded Go fonts.
const DefaultFamily = "Go"

// Library maps family/weight pairs to parsed fonts.
type Library struct {
	mu     sync.RWMutex
	fonts  map[string]*opentype.Font
	warned map[string]bool
	dpi    float64
}

// NewLibrary returns a library with the embedded Go regular and bold faces.
func NewLibrary() *Library {
	l := &Library{
		fonts:  make(map[string]*opentype.Font),
		warned: make(map[string]bool),
		dpi:    72,
	}
	// The embedded fonts are known-good; parse errors are impossible here.
	regular, _ := opentype.Parse(goregular.TTF)
	bold, _ := opentype.Parse(gobold.TTF)
	l.fonts[key(DefaultFamily, "normal")] = regular
	l.fonts[key(DefaultFamily, "bold")] = bold
	return l
}

// RegisterFile parses a TTF/OTF file under family and weight.
func (l *Library) RegisterFile(family, weight, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read font %s: %w", path, err)
	}
	return l.Register(family, weight, data)
}

// Register parses raw font bytes under family and weight.
func (l *Library) Register(family, weight string, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("failed to parse font %s/%s: %w", family, weight, err)
	}
	l.mu.Lock()
	l.fonts[key(family, weight)] = f
	l.mu.Unlock()
	return nil
}

// lookup resolves family and weight, falling back to the same weight of the
// default family and finally to default regular.
func (l *Library) lookup(family, weight string) *opentype.Font {
	w := normalizeWeight(weight)
	l.mu.RLock()
	f, ok := l.fonts[key(family, w)]
	if !ok {
		f, ok = l.fonts[key(family, "normal")]
	}
	l.mu.RUnlock()
	if ok {
		return f
	}

	l.mu.Lock()
	if !l.warned[family] {
		l.warned[family] = true
		log.Printf("[!] Font family %q is not registered, using %s", family, DefaultFamily)
	}
	f, ok = l.fonts[key(DefaultFamily, w)]
	if !ok {
		f = l.fonts[key(DefaultFamily, "normal")]
	}
	l.mu.Unlock()
	return f
}

// NewCache returns a face cache bound to this library.
func (l *Library) NewCache() *Cache {
	return &Cache{lib: l, faces: make(map[faceKey]font.Face)}
}

type faceKey struct {
	family string
	weight string
	size   float64
}

// Cache holds sized faces for one goroutine.
type Cache struct {
	lib   *Library
	faces map[faceKey]font.Face
}

// Face returns a face for the given family, weight and pixel size.
func (c *Cache) Face(family, weight string, size float64) (font.Face, error) {
	k := faceKey{strings.ToLower(family), normalizeWeight(weight), size}
	if f, ok := c.faces[k]; ok {
		return f, nil
	}

	face, err := opentype.NewFace(c.lib.lookup(family, weight), &opentype.FaceOptions{
		Size:    size,
		DPI:     c.lib.dpi,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	c.faces[k] = face
	return face, nil
}

// Close releases every cached face.
func (c *Cache) Close() error {
	for k, f := range c.faces {
		f.Close()
		delete(c.faces, k)
	}
	return nil
}

func key(family, weight string) string {
	return strings.ToLower(family) + "/" + normalizeWeight(weight)
}

// normalizeWeight folds CSS weights onto the two weights the library keeps.
func normalizeWeight(w string) string {
	switch strings.ToLower(strings.TrimSpace(w)) {
	case "bold", "bolder", "600", "700", "800", "900":
		return "bold"
	default:
		return "normal"
	}
}
