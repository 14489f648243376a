// Package overlay stamps fixed-position marks (a text watermark and a QR
// call-to-action) onto rendered frames.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"

	"github.com/ivlev/badgecast/internal/analyzer"
	"github.com/ivlev/badgecast/internal/canvas"
	"github.com/ivlev/badgecast/internal/fonts"
)

// Position is a canvas corner, or Auto to pick the least busy one.
type Position string

const (
	TopLeft     Position = "top-left"
	TopRight    Position = "top-right"
	BottomLeft  Position = "bottom-left"
	BottomRight Position = "bottom-right"
	Auto        Position = "auto"
)

// Corners lists the fixed positions in preference order for Auto.
var Corners = []Position{BottomRight, BottomLeft, TopRight, TopLeft}

// ParsePosition accepts the names above; empty means BottomRight.
func ParsePosition(s string) (Position, error) {
	p := Position(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case "":
		return BottomRight, nil
	case TopLeft, TopRight, BottomLeft, BottomRight, Auto:
		return p, nil
	}
	return "", fmt.Errorf("unknown overlay position %q", s)
}

// Watermark is a line of text burned into a corner of every frame.
type Watermark struct {
	Text     string
	Position Position
	FontSize float64
	Color    string
	Opacity  float64
	Padding  float64
}

func (w Watermark) withDefaults() Watermark {
	if w.Position == "" {
		w.Position = BottomRight
	}
	if w.FontSize <= 0 {
		w.FontSize = 24
	}
	if w.Color == "" {
		w.Color = "#ffffff"
	}
	if w.Opacity <= 0 {
		w.Opacity = 0.7
	}
	if w.Padding <= 0 {
		w.Padding = 20
	}
	return w
}

// QRCode links a share video or GIF back to the recruiting site.
type QRCode struct {
	URL      string
	Size     int
	Position Position
	Margin   float64
	Opacity  float64
}

func (q QRCode) withDefaults() QRCode {
	if q.Size <= 0 {
		q.Size = 120
	}
	if q.Position == "" {
		q.Position = BottomLeft
	}
	if q.Margin <= 0 {
		q.Margin = 20
	}
	if q.Opacity <= 0 {
		q.Opacity = 1
	}
	return q
}

// Config selects the overlays to draw; nil entries are skipped.
type Config struct {
	Watermark *Watermark
	QR        *QRCode
}

// Stamper draws one Config. It holds a font face and must stay on one
// goroutine.
type Stamper struct {
	cfg    Config
	width  float64
	height float64

	face      font.Face
	textWidth float64
	paint     image.Image

	qr image.Image
}

// NewStamper prepares the overlays for a width×height canvas.
func NewStamper(faces *fonts.Cache, cfg Config, width, height int) (*Stamper, error) {
	st := &Stamper{width: float64(width), height: float64(height)}

	if wm := cfg.Watermark; wm != nil && wm.Text != "" {
		w := wm.withDefaults()
		face, err := faces.Face(fonts.DefaultFamily, "bold", w.FontSize)
		if err != nil {
			return nil, err
		}
		col, err := canvas.ParseColor(w.Color)
		if err != nil {
			return nil, fmt.Errorf("watermark: %w", err)
		}
		st.face = face
		st.textWidth = canvas.MeasureText(face, w.Text)
		st.paint = image.NewUniform(col)
		st.cfg.Watermark = &w
	}

	if qr := cfg.QR; qr != nil && qr.URL != "" {
		q := qr.withDefaults()
		img, err := renderQR(q)
		if err != nil {
			return nil, err
		}
		st.qr = img
		st.cfg.QR = &q
	}
	return st, nil
}

// Config returns the effective configuration, with Auto resolved if
// ResolveAuto ran.
func (st *Stamper) Config() Config {
	return st.cfg
}

// ResolveAuto fixes every Auto position to the quietest corner of sample.
// The two stamps never share a corner: an Auto watermark avoids a fixed QR
// code, and an Auto QR code avoids the watermark.
func (st *Stamper) ResolveAuto(sample image.Image, d analyzer.Detector) {
	w, q := st.cfg.Watermark, st.cfg.QR
	if w != nil && w.Position == Auto {
		skip := Position("")
		if q != nil && q.Position != Auto {
			skip = q.Position
		}
		w.Position = st.quietest(sample, d, skip, st.watermarkRect)
	}
	if q != nil && q.Position == Auto {
		skip := Position("")
		if w != nil {
			skip = w.Position
		}
		q.Position = st.quietest(sample, d, skip, st.qrRect)
	}
}

func (st *Stamper) quietest(sample image.Image, d analyzer.Detector, skip Position, rect func(Position) image.Rectangle) Position {
	var candidates []Position
	var regions []image.Rectangle
	for _, c := range Corners {
		if c == skip {
			continue
		}
		candidates = append(candidates, c)
		regions = append(regions, rect(c))
	}
	if i := analyzer.QuietestRegion(d, sample, regions); i >= 0 {
		return candidates[i]
	}
	return BottomRight
}

// Stamp draws the overlays onto s, leaving its drawing state unchanged.
func (st *Stamper) Stamp(s *canvas.Surface) {
	if w := st.cfg.Watermark; w != nil {
		x, y := st.watermarkOrigin(w.Position)
		s.Save()
		s.SetAlpha(w.Opacity)
		s.FillText(st.face, w.Text, x, y, st.paint, nil)
		s.Restore()
	}
	if q := st.cfg.QR; q != nil {
		r := st.qrRect(q.Position)
		s.Save()
		s.SetAlpha(q.Opacity)
		s.DrawImage(st.qr, float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
		s.Restore()
	}
}

// watermarkOrigin returns the text baseline origin for a corner, from the
// measured text width and the padding.
func (st *Stamper) watermarkOrigin(p Position) (float64, float64) {
	w := st.cfg.Watermark
	left := w.Padding
	right := st.width - st.textWidth - w.Padding
	top := w.Padding + w.FontSize
	bottom := st.height - w.Padding

	switch p {
	case TopLeft:
		return left, top
	case TopRight:
		return right, top
	case BottomLeft:
		return left, bottom
	default:
		return right, bottom
	}
}

func (st *Stamper) watermarkRect(p Position) image.Rectangle {
	x, y := st.watermarkOrigin(p)
	m := st.face.Metrics()
	return image.Rect(int(x), int(y)-m.Ascent.Ceil(), int(x+st.textWidth)+1, int(y)+m.Descent.Ceil())
}

func (st *Stamper) qrRect(p Position) image.Rectangle {
	q := st.cfg.QR
	side := st.qr.Bounds().Dx()
	m := int(q.Margin)
	left, top := m, m
	right, bottom := int(st.width)-side-m, int(st.height)-side-m

	switch p {
	case TopLeft:
		return image.Rect(left, top, left+side, top+side)
	case TopRight:
		return image.Rect(right, top, right+side, top+side)
	case BottomRight:
		return image.Rect(right, bottom, right+side, bottom+side)
	default:
		return image.Rect(left, bottom, left+side, bottom+side)
	}
}

// renderQR encodes the URL and frames it with a white quiet zone so it scans
// on dark backgrounds.
func renderQR(q QRCode) (image.Image, error) {
	code, err := qrcode.New(q.URL, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr code: %w", err)
	}
	code.DisableBorder = true
	border := q.Size / 10
	inner := code.Image(q.Size - 2*border)
	bg := imaging.New(q.Size, q.Size, color.White)
	return imaging.PasteCenter(bg, inner), nil
}
