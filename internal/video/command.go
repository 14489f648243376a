// Package video builds and runs the external encoder invocation that muxes
// a PNG frame sequence (and optional audio) into an MP4.
package video

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrInvalidCommand is returned by Validate and Args for malformed commands.
var ErrInvalidCommand = errors.New("invalid encoder command")

// FrameFilePattern names frame images inside the working directory.
const FrameFilePattern = "frame-%06d.png"

// FrameName returns the file name of frame i.
func FrameName(i int) string {
	return fmt.Sprintf(FrameFilePattern, i)
}

// FramePattern returns the encoder input pattern for frames under dir.
func FramePattern(dir string) string {
	return filepath.Join(dir, FrameFilePattern)
}

// Encoder defaults.
const (
	DefaultBinary      = "ffmpeg"
	DefaultCodec       = "libx264"
	DefaultPreset      = "medium"
	DefaultPixelFormat = "yuv420p"
	DefaultCRF         = 23
)

// AudioInput is an optional soundtrack mixed under the frames.
type AudioInput struct {
	Path string
	// Volume multiplies the source level; 0 is treated as 1.
	Volume  float64
	FadeIn  float64 // seconds
	FadeOut float64 // seconds, ending at the video duration
}

// Command is one encoder invocation.
type Command struct {
	Binary       string
	FPS          int
	FramePattern string
	Audio        *AudioInput
	// Duration of the video in seconds; required to place an audio fade-out.
	Duration    float64
	Codec       string
	CRF         int
	Preset      string
	PixelFormat string
	Output      string
}

// WithDefaults fills empty fields with the libx264 defaults. A zero CRF
// means unset; lossless output is not offered.
func (c Command) WithDefaults() Command {
	if c.CRF == 0 {
		c.CRF = DefaultCRF
	}
	if c.Binary == "" {
		c.Binary = DefaultBinary
	}
	if c.Codec == "" {
		c.Codec = DefaultCodec
	}
	if c.Preset == "" {
		c.Preset = DefaultPreset
	}
	if c.PixelFormat == "" {
		c.PixelFormat = DefaultPixelFormat
	}
	return c
}

// Validate checks every field the invocation depends on.
func (c Command) Validate() error {
	var problems []string
	if c.Binary == "" {
		problems = append(problems, "encoder binary is empty")
	}
	if c.FPS <= 0 {
		problems = append(problems, fmt.Sprintf("fps must be positive, got %d", c.FPS))
	}
	if c.FramePattern == "" {
		problems = append(problems, "frame pattern is empty")
	} else if !strings.Contains(c.FramePattern, "%0") {
		problems = append(problems, fmt.Sprintf("frame pattern %q has no zero-padded index", c.FramePattern))
	}
	if c.Output == "" {
		problems = append(problems, "output path is empty")
	}
	if c.CRF < 0 || c.CRF > 51 {
		problems = append(problems, fmt.Sprintf("crf %d outside 0..51", c.CRF))
	}
	if c.Codec == "" || c.PixelFormat == "" {
		problems = append(problems, "codec and pixel format are required")
	}
	if a := c.Audio; a != nil {
		if a.Path == "" {
			problems = append(problems, "audio path is empty")
		}
		if a.Volume < 0 || a.FadeIn < 0 || a.FadeOut < 0 {
			problems = append(problems, "audio volume and fades must not be negative")
		}
		if a.FadeOut > 0 && c.Duration <= 0 {
			problems = append(problems, "audio fade-out needs a video duration")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidCommand, strings.Join(problems, "; "))
	}
	return nil
}

// Args returns the encoder argv (without the binary).
func (c Command) Args() ([]string, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	args := []string{
		"-y",
		"-framerate", strconv.Itoa(c.FPS),
		"-i", c.FramePattern,
	}
	if c.Audio != nil {
		args = append(args,
			"-i", c.Audio.Path,
			"-filter_complex", AudioFilter(*c.Audio, c.Duration),
			"-map", "0:v", "-map", "[aout]",
			"-c:a", "aac",
		)
		// The padded audio is endless; the frames decide the length.
		if c.Duration > 0 {
			args = append(args, "-t", num(c.Duration))
		} else {
			args = append(args, "-shortest")
		}
	}

	args = append(args, "-c:v", c.Codec, "-pix_fmt", c.PixelFormat)
	args = append(args, qualityArgs(c.Codec, c.CRF, c.Preset)...)
	args = append(args, c.Output)
	return args, nil
}

// qualityArgs maps the CRF-style quality knob onto each encoder's flag.
func qualityArgs(codec string, quality int, preset string) []string {
	switch codec {
	case "h264_videotoolbox":
		// VideoToolbox has no CRF; use a bitrate in kbit/s instead.
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", strconv.Itoa(quality)}
	default: // libx264
		return []string{"-crf", strconv.Itoa(quality), "-preset", preset}
	}
}

// String renders the invocation for logs.
func (c Command) String() string {
	args, err := c.Args()
	if err != nil {
		return c.Binary + " <invalid>"
	}
	return c.Binary + " " + strings.Join(args, " ")
}
