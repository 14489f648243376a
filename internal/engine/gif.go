package engine

import (
	"context"
	"fmt"
	"image"

	"github.com/ivlev/badgecast/internal/canvas"
	"github.com/ivlev/badgecast/internal/config"
	"github.com/ivlev/badgecast/internal/frame"
	"github.com/ivlev/badgecast/internal/overlay"
	"github.com/ivlev/badgecast/internal/renderer"
	"github.com/ivlev/badgecast/internal/system"
)

// CreateAnimatedGif composites frames in order and returns the encoded GIF.
// The encoder is started once and finished once; an empty sequence yields a
// minimal valid GIF.
func CreateAnimatedGif(ctx context.Context, frames []frame.Frame, cfg config.AnimationConfig, deps Deps) ([]byte, error) {
	deps = deps.WithDefaults()
	w, h := canvasSize(cfg.Width, cfg.Height)

	enc := deps.NewEncoder(cfg)
	if err := enc.Start(w, h); err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return enc.Finish()
	}

	assets, err := pinAssets(ctx, deps.Assets, frames)
	if err != nil {
		return nil, err
	}
	deps.Assets = assets

	buf := system.GetImage(image.Rect(0, 0, w, h))
	defer system.PutImage(buf)
	s := canvas.Wrap(buf)

	r := renderer.New(deps.Assets, deps.Fonts)
	defer r.Close()
	faces := deps.Fonts.NewCache()
	defer faces.Close()

	ocfg, err := cfg.Overlay.Build()
	if err != nil {
		return nil, err
	}
	ocfg, err = resolveOverlay(ctx, r, s, faces, ocfg, frames, deps.Detector)
	if err != nil {
		return nil, err
	}
	st, err := overlay.NewStamper(faces, ocfg, w, h)
	if err != nil {
		return nil, err
	}

	for i, f := range frames {
		if err := r.RenderFrame(ctx, s, f); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		st.Stamp(s)
		if err := enc.AddFrame(s.Image()); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return enc.Finish()
}
