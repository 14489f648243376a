// Package asset resolves image paths used by animation frames (badge art,
// NFT art, department logos) into decoded images.
package asset

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
)

// Source decodes one family of asset paths.
type Source interface {
	Supports(path string) bool
	Open(ctx context.Context, path string) (image.Image, error)
}

// RasterSource decodes PNG/JPEG/GIF/BMP/TIFF files honoring EXIF orientation.
type RasterSource struct{}

func (RasterSource) Supports(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff":
		return true
	}
	return false
}

func (RasterSource) Open(_ context.Context, path string) (image.Image, error) {
	return imaging.Open(path, imaging.AutoOrientation(true))
}

// FitzSource rasterizes the first page of vector assets (PDF, SVG, XPS).
// Department logos are usually delivered in one of these formats.
type FitzSource struct {
	DPI float64
}

func (FitzSource) Supports(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".svg", ".xps", ".epub":
		return true
	}
	return false
}

func (s FitzSource) Open(_ context.Context, path string) (image.Image, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("%s has no pages", path)
	}
	dpi := s.DPI
	if dpi <= 0 {
		dpi = 150
	}
	return doc.ImageDPI(0, dpi)
}

// RemoteSource fetches http(s) assets.
type RemoteSource struct {
	Client  *http.Client
	MaxSize int64
}

// NewRemoteSource returns a RemoteSource with a bounded timeout and size.
func NewRemoteSource(timeout time.Duration) *RemoteSource {
	return &RemoteSource{
		Client:  &http.Client{Timeout: timeout},
		MaxSize: 20 << 20,
	}
}

func (s *RemoteSource) Supports(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

func (s *RemoteSource) Open(ctx context.Context, path string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: path, Status: resp.StatusCode}
	}
	return imaging.Decode(io.LimitReader(resp.Body, s.MaxSize), imaging.AutoOrientation(true))
}

// FetchError is a failed remote fetch. Status is 0 when no response arrived.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Temporary is true for network errors, 429 and 5xx responses.
func (e *FetchError) Temporary() bool {
	return e.Status == 0 || e.Status == http.StatusTooManyRequests || e.Status >= 500
}
