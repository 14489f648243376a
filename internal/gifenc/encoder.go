// Package gifenc accumulates rendered frames into an animated GIF.
package gifenc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"strings"
)

// Encoder is the frame-by-frame GIF lifecycle: Start once, AddFrame any
// number of times, Finish once.
type Encoder interface {
	Start(width, height int) error
	AddFrame(img image.Image) error
	Finish() ([]byte, error)
}

var (
	ErrNotStarted = errors.New("gif encoder not started")
	ErrStarted    = errors.New("gif encoder already started")
	ErrFinished   = errors.New("gif encoder already finished")
)

// Quantizer selects how each frame's palette is chosen.
type Quantizer string

const (
	// Adaptive builds a per-frame median-cut palette.
	Adaptive Quantizer = "adaptive"
	// Plan9 uses the fixed Plan 9 palette.
	Plan9 Quantizer = "plan9"
	// WebSafe uses the fixed 216-color web palette.
	WebSafe Quantizer = "websafe"
)

// ParseQuantizer accepts the names above; empty means Adaptive.
func ParseQuantizer(s string) (Quantizer, error) {
	switch q := Quantizer(strings.ToLower(strings.TrimSpace(s))); q {
	case "":
		return Adaptive, nil
	case Adaptive, Plan9, WebSafe:
		return q, nil
	}
	return "", fmt.Errorf("unknown quantizer %q", s)
}

// Defaults.
const (
	DefaultDelayMs = 100
	DefaultQuality = 10
)

// PalettedEncoder encodes with the standard library GIF writer.
type PalettedEncoder struct {
	// DelayMs is the delay between frames in milliseconds.
	DelayMs int
	// Quality is the pixel sampling interval used to build adaptive
	// palettes: 1 samples every pixel, 30 every thirtieth.
	Quality   int
	Quantizer Quantizer
	// Dither enables Floyd-Steinberg error diffusion.
	Dither bool
	// LoopCount follows image/gif: 0 loops forever, -1 plays once.
	LoopCount int

	started  bool
	finished bool
	bounds   image.Rectangle
	anim     gif.GIF
}

// NewPalettedEncoder returns an encoder with default delay and quality.
func NewPalettedEncoder() *PalettedEncoder {
	return &PalettedEncoder{
		DelayMs:   DefaultDelayMs,
		Quality:   DefaultQuality,
		Quantizer: Adaptive,
		Dither:    true,
	}
}

func (e *PalettedEncoder) Start(width, height int) error {
	switch {
	case e.finished:
		return ErrFinished
	case e.started:
		return ErrStarted
	case width <= 0 || height <= 0:
		return fmt.Errorf("invalid gif size %dx%d", width, height)
	}
	e.started = true
	e.bounds = image.Rect(0, 0, width, height)
	e.anim = gif.GIF{
		LoopCount: e.LoopCount,
		Config:    image.Config{Width: width, Height: height},
	}
	return nil
}

// AddFrame quantizes img immediately, so the caller may reuse its buffer.
func (e *PalettedEncoder) AddFrame(img image.Image) error {
	if err := e.ready(); err != nil {
		return err
	}

	var pal color.Palette
	switch e.Quantizer {
	case Plan9:
		pal = palette.Plan9
	case WebSafe:
		pal = palette.WebSafe
	default:
		pal = adaptivePalette(img, clampQuality(e.Quality), 256)
	}

	e.anim.Image = append(e.anim.Image, quantize(img, e.bounds, pal, e.Dither))
	e.anim.Delay = append(e.anim.Delay, delayCentis(e.DelayMs))
	return nil
}

// Finish encodes every added frame. Without frames the result is a valid
// single-frame blank GIF of the started size.
func (e *PalettedEncoder) Finish() ([]byte, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	e.finished = true

	if len(e.anim.Image) == 0 {
		e.anim.Image = []*image.Paletted{image.NewPaletted(e.bounds, color.Palette{color.Black})}
		e.anim.Delay = []int{delayCentis(e.DelayMs)}
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, &e.anim); err != nil {
		return nil, fmt.Errorf("gif encode failed: %w", err)
	}
	e.anim = gif.GIF{}
	return buf.Bytes(), nil
}

func (e *PalettedEncoder) ready() error {
	if e.finished {
		return ErrFinished
	}
	if !e.started {
		return ErrNotStarted
	}
	return nil
}

func delayCentis(ms int) int {
	if ms <= 0 {
		ms = DefaultDelayMs
	}
	d := (ms + 5) / 10
	if d < 1 {
		d = 1
	}
	return d
}

func clampQuality(q int) int {
	if q <= 0 {
		return DefaultQuality
	}
	if q > 30 {
		return 30
	}
	return q
}
