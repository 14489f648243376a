// Package audio inspects soundtrack files mixed under share videos.
package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
)

// Info describes a decoded audio file.
type Info struct {
	Path       string
	Format     string
	Duration   time.Duration
	SampleRate int
	Channels   int
}

// Probe reads the duration and stream format of a .wav, .mp3, .flac or
// .ogg file without decoding the whole stream.
func Probe(path string) (Info, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	info := Info{Path: path, Format: strings.TrimPrefix(ext, ".")}
	if ext == ".wav" {
		d := wav.NewDecoder(f)
		if !d.IsValidFile() {
			return Info{}, fmt.Errorf("invalid WAV file %s", path)
		}
		dur, err := d.Duration()
		if err != nil {
			return Info{}, fmt.Errorf("failed to read WAV duration: %w", err)
		}
		info.Duration = dur
		info.SampleRate = int(d.SampleRate)
		info.Channels = int(d.NumChans)
		return info, nil
	}

	var (
		s      beep.StreamSeekCloser
		format beep.Format
	)
	switch ext {
	case ".mp3":
		s, format, err = mp3.Decode(f)
	case ".flac":
		s, format, err = flac.Decode(f)
	case ".ogg", ".oga":
		s, format, err = vorbis.Decode(f)
	default:
		return Info{}, fmt.Errorf("unsupported audio format %q", ext)
	}
	if err != nil {
		return Info{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	defer s.Close()

	info.Duration = format.SampleRate.D(s.Len())
	info.SampleRate = int(format.SampleRate)
	info.Channels = format.NumChannels
	return info, nil
}

// ClampFades keeps fades non-negative and, when together they exceed
// duration seconds, shrinks both proportionally to fit.
func ClampFades(fadeIn, fadeOut, duration float64) (float64, float64) {
	fadeIn, fadeOut = max(fadeIn, 0), max(fadeOut, 0)
	if duration <= 0 {
		return 0, 0
	}
	if total := fadeIn + fadeOut; total > duration {
		scale := duration / total
		fadeIn *= scale
		fadeOut *= scale
	}
	return fadeIn, fadeOut
}
