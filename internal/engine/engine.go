// Package engine drives frame sequences through the compositor into GIF and
// MP4 share media.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/ivlev/badgecast/internal/analyzer"
	"github.com/ivlev/badgecast/internal/asset"
	"github.com/ivlev/badgecast/internal/canvas"
	"github.com/ivlev/badgecast/internal/config"
	"github.com/ivlev/badgecast/internal/fonts"
	"github.com/ivlev/badgecast/internal/frame"
	"github.com/ivlev/badgecast/internal/gifenc"
	"github.com/ivlev/badgecast/internal/overlay"
	"github.com/ivlev/badgecast/internal/renderer"
	"github.com/ivlev/badgecast/internal/video"
)

var ErrNoFrames = errors.New("нет кадров анимации")

// Canvas size used when the configuration leaves width or height at zero.
const (
	DefaultWidth  = 600
	DefaultHeight = 600
)

// EncoderRunner runs one external encoder command. video.Runner satisfies it.
type EncoderRunner interface {
	Run(ctx context.Context, c video.Command) (string, error)
}

// Deps are the collaborators of a render. Zero fields get working defaults,
// so Deps{} is valid.
type Deps struct {
	Assets     renderer.ImageLoader
	Fonts      *fonts.Library
	NewEncoder func(config.AnimationConfig) gifenc.Encoder
	Runner     EncoderRunner
	Detector   analyzer.Detector
}

// WithDefaults fills nil collaborators. Call it once when Deps is shared
// between renders so they share one asset cache.
func (d Deps) WithDefaults() Deps {
	if d.Assets == nil {
		d.Assets = asset.NewDefaultLoader()
	}
	if d.Fonts == nil {
		d.Fonts = fonts.NewLibrary()
	}
	if d.NewEncoder == nil {
		d.NewEncoder = NewGifEncoder
	}
	if d.Detector == nil {
		d.Detector = analyzer.NewContrastDetector()
	}
	return d
}

// NewGifEncoder builds the default encoder from the animation settings.
func NewGifEncoder(cfg config.AnimationConfig) gifenc.Encoder {
	enc := gifenc.NewPalettedEncoder()
	if cfg.DelayMs > 0 {
		enc.DelayMs = cfg.DelayMs
	}
	if cfg.Quality > 0 {
		enc.Quality = cfg.Quality
	}
	if q, err := gifenc.ParseQuantizer(cfg.Quantizer); err == nil {
		enc.Quantizer = q
	}
	enc.Dither = cfg.Dither
	enc.LoopCount = cfg.Loop
	return enc
}

// TotalVideoFrames is ceil(duration*fps). The epsilon keeps values such as
// 0.1*30 from rounding up to an extra frame.
func TotalVideoFrames(duration float64, fps int) int {
	if duration <= 0 || fps <= 0 {
		return 0
	}
	return int(math.Ceil(duration*float64(fps) - 1e-9))
}

// AnimationIndex maps video frame i of total onto an animation of count
// frames. The result never exceeds count-1.
func AnimationIndex(i, total, count int) int {
	if total <= 0 || count <= 0 {
		return 0
	}
	idx := int(math.Floor(float64(i) / float64(total) * float64(count)))
	return min(max(idx, 0), count-1)
}

// withTempDir runs fn in a fresh directory under parent (the system temp
// dir when empty) and removes it on every return path.
func withTempDir(parent string, fn func(dir string) error) error {
	dir, err := os.MkdirTemp(parent, "badgecast_")
	if err != nil {
		return fmt.Errorf("не удалось создать временную папку: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Printf("[!] Не удалось удалить временную папку %s: %v", dir, err)
		}
	}()
	return fn(dir)
}

func canvasSize(w, h int) (int, int) {
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}

func hasAuto(c overlay.Config) bool {
	return (c.Watermark != nil && c.Watermark.Position == overlay.Auto) ||
		(c.QR != nil && c.QR.Position == overlay.Auto)
}

// resolveOverlay fixes auto positions once, on the last animation frame, so
// every worker stamps the same corners.
func resolveOverlay(ctx context.Context, r *renderer.Renderer, s *canvas.Surface, faces *fonts.Cache,
	cfg overlay.Config, frames []frame.Frame, det analyzer.Detector) (overlay.Config, error) {
	st, err := overlay.NewStamper(faces, cfg, s.Width(), s.Height())
	if err != nil {
		return cfg, err
	}
	if !hasAuto(st.Config()) {
		return st.Config(), nil
	}
	if err := r.RenderFrame(ctx, s, frames[len(frames)-1]); err != nil {
		return cfg, err
	}
	st.ResolveAuto(s.Image(), det)
	return st.Config(), nil
}
