package engine

import (
	"context"
	"fmt"
	"image"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/badgecast/internal/frame"
	"github.com/ivlev/badgecast/internal/renderer"
)

// preloadWorkers bounds concurrent asset fetches before a render starts.
const preloadWorkers = 4

type pinned struct {
	img image.Image
	err error
}

// pinnedAssets is one render's view of its assets: every path is resolved
// once before any frame is drawn, and all frames see that same outcome. An
// image that failed to load is missing from the whole render, never from
// only some frames, and the next render asks the loader again.
type pinnedAssets struct {
	loaded map[string]pinned
}

func (p *pinnedAssets) Load(_ context.Context, path string) (image.Image, error) {
	if r, ok := p.loaded[path]; ok {
		return r.img, r.err
	}
	return nil, fmt.Errorf("asset %q was not preloaded", path)
}

// pinAssets loads every image path referenced by frames through base.
// Load failures are kept for the renderer to log and skip; only ctx
// cancellation aborts.
func pinAssets(ctx context.Context, base renderer.ImageLoader, frames []frame.Frame) (*pinnedAssets, error) {
	var paths []string
	seen := make(map[string]bool)
	for _, f := range frames {
		for _, im := range f.Images {
			if im.Path != "" && !seen[im.Path] {
				seen[im.Path] = true
				paths = append(paths, im.Path)
			}
		}
	}

	results := make([]pinned, len(paths))
	var g errgroup.Group
	g.SetLimit(preloadWorkers)
	for i, p := range paths {
		g.Go(func() error {
			img, err := base.Load(ctx, p)
			results[i] = pinned{img: img, err: err}
			return nil
		})
	}
	g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := &pinnedAssets{loaded: make(map[string]pinned, len(paths))}
	for i, path := range paths {
		p.loaded[path] = results[i]
	}
	return p, nil
}
