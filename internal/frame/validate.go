package frame

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidGradient = errors.New("invalid gradient")
	ErrInvalidFrame    = errors.New("invalid frame")
)

// Validate checks the caller-supplied contract of a frame. The compositor
// refuses frames that fail it rather than guessing what was meant.
func (f Frame) Validate() error {
	if g, ok := f.Background.(Gradient); ok {
		if err := g.Validate(); err != nil {
			return err
		}
	}
	for i, img := range f.Images {
		if img.Width < 0 || img.Height < 0 {
			return fmt.Errorf("%w: image %d (%s) has negative size", ErrInvalidFrame, i, img.ID)
		}
	}
	for i, t := range f.Texts {
		if t.MaxWidth < 0 || t.LineHeight < 0 || t.Font.Size < 0 {
			return fmt.Errorf("%w: text %d (%s) has negative metrics", ErrInvalidFrame, i, t.ID)
		}
	}
	for i, s := range f.Shapes {
		switch v := s.(type) {
		case Circle:
			if v.Radius < 0 {
				return fmt.Errorf("%w: shape %d has negative radius", ErrInvalidFrame, i)
			}
		case Rect:
			if v.Width < 0 || v.Height < 0 {
				return fmt.Errorf("%w: shape %d has negative size", ErrInvalidFrame, i)
			}
		case nil:
			return fmt.Errorf("%w: shape %d is nil", ErrInvalidFrame, i)
		}
	}
	return nil
}

// Validate requires at least two stops spanning exactly [0,1] in
// non-decreasing order.
func (g Gradient) Validate() error {
	if len(g.Stops) < 2 {
		return fmt.Errorf("%w: need at least 2 stops, got %d", ErrInvalidGradient, len(g.Stops))
	}
	for i, s := range g.Stops {
		if s.Position < 0 || s.Position > 1 {
			return fmt.Errorf("%w: stop %d position %g outside [0,1]", ErrInvalidGradient, i, s.Position)
		}
		if i > 0 && s.Position < g.Stops[i-1].Position {
			return fmt.Errorf("%w: stop %d position %g before previous %g", ErrInvalidGradient, i, s.Position, g.Stops[i-1].Position)
		}
	}
	if g.Stops[0].Position != 0 || g.Stops[len(g.Stops)-1].Position != 1 {
		return fmt.Errorf("%w: stops must span [0,1]", ErrInvalidGradient)
	}
	return nil
}
