package asset

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// ErrUnsupported is returned for paths no source can decode.
var ErrUnsupported = errors.New("unsupported asset type")

const (
	DefaultCacheSize  = 64
	DefaultImageTTL   = time.Hour
	DefaultFailureTTL = 30 * time.Second
)

// CacheOptions bounds what a Loader keeps. Zero fields take the defaults.
type CacheOptions struct {
	Size       int           // decoded images kept, least recently used evicted first
	ImageTTL   time.Duration // how long a decoded image is reused
	FailureTTL time.Duration // how long a permanent failure is remembered
}

// Loader resolves paths through its sources and caches the results. It is
// safe for concurrent use; simultaneous loads of one path share a single
// decode. Transient failures (network errors, 429 and 5xx responses) are
// never cached.
type Loader struct {
	sources []Source
	group   singleflight.Group

	images   *expirable.LRU[string, image.Image]
	failures *expirable.LRU[string, error]
}

// NewLoader builds a loader over the given sources, tried in order, with the
// default cache bounds.
func NewLoader(sources ...Source) *Loader {
	return NewCachedLoader(CacheOptions{}, sources...)
}

// NewCachedLoader is NewLoader with explicit cache bounds.
func NewCachedLoader(opts CacheOptions, sources ...Source) *Loader {
	if opts.Size <= 0 {
		opts.Size = DefaultCacheSize
	}
	if opts.ImageTTL <= 0 {
		opts.ImageTTL = DefaultImageTTL
	}
	if opts.FailureTTL <= 0 {
		opts.FailureTTL = DefaultFailureTTL
	}
	return &Loader{
		sources:  sources,
		images:   expirable.NewLRU[string, image.Image](opts.Size, nil, opts.ImageTTL),
		failures: expirable.NewLRU[string, error](opts.Size, nil, opts.FailureTTL),
	}
}

// NewDefaultLoader handles remote URLs, vector documents and raster files.
func NewDefaultLoader() *Loader {
	return NewLoader(NewRemoteSource(15*time.Second), FitzSource{DPI: 150}, RasterSource{})
}

// Load returns the decoded image at path. The decode itself is detached from
// ctx so that one caller giving up does not fail the others waiting on the
// same path; ctx only bounds how long this caller waits.
func (l *Loader) Load(ctx context.Context, path string) (image.Image, error) {
	if path == "" {
		return nil, fmt.Errorf("empty asset path")
	}
	if img, ok := l.images.Get(path); ok {
		return img, nil
	}
	if err, ok := l.failures.Get(path); ok {
		return nil, err
	}

	ch := l.group.DoChan(path, func() (interface{}, error) {
		img, err := l.open(context.WithoutCancel(ctx), path)
		switch {
		case err == nil:
			l.images.Add(path, img)
		case !IsTransient(err):
			l.failures.Add(path, err)
		}
		return img, err
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(image.Image), nil
	}
}

func (l *Loader) open(ctx context.Context, path string) (image.Image, error) {
	for _, s := range l.sources {
		if !s.Supports(path) {
			continue
		}
		img, err := s.Open(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("load asset %s: %w", path, err)
		}
		return img, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
}

// IsTransient reports whether a later attempt at the same path may succeed.
func IsTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var fe *FetchError
	return errors.As(err, &fe) && fe.Temporary()
}
