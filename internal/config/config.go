package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/badgecast/internal/analyzer"
	"github.com/ivlev/badgecast/internal/gifenc"
	"github.com/ivlev/badgecast/internal/overlay"
	"github.com/ivlev/badgecast/internal/video"
)

var ErrInvalidConfig = errors.New("invalid config")

// File is the on-disk configuration. Every section is optional; missing
// values keep the defaults from Default.
type File struct {
	Animation AnimationConfig `yaml:"animation"`
	Video     VideoConfig     `yaml:"video"`
	Fonts     []FontFile      `yaml:"fonts"`
	Server    ServerConfig    `yaml:"server"`
	// Detector picks the analyzer variant used for auto overlay placement.
	Detector  string          `yaml:"detector"`
}

type FontFile struct {
	Family string `yaml:"family"`
	Weight string `yaml:"weight"`
	Path   string `yaml:"path"`
}

// Overlay configures the optional watermark and QR stamps.
type Overlay struct {
	Watermark         string  `yaml:"watermark"`
	WatermarkPosition string  `yaml:"watermarkPosition"`
	WatermarkColor    string  `yaml:"watermarkColor"`
	WatermarkSize     float64 `yaml:"watermarkSize"`
	WatermarkOpacity  float64 `yaml:"watermarkOpacity"`
	QRURL             string  `yaml:"qrUrl"`
	QRPosition        string  `yaml:"qrPosition"`
	QRSize            int     `yaml:"qrSize"`
}

// AnimationConfig drives GIF output.
type AnimationConfig struct {
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`
	DelayMs   int     `yaml:"delay"`
	Quality   int     `yaml:"quality"`
	Quantizer string  `yaml:"quantizer"`
	Dither    bool    `yaml:"dither"`
	Loop      int     `yaml:"loop"`
	Overlay   Overlay `yaml:"overlay"`
}

type AudioConfig struct {
	Path    string  `yaml:"path"`
	Volume  float64 `yaml:"volume"`
	FadeIn  float64 `yaml:"fadeIn"`
	FadeOut float64 `yaml:"fadeOut"`
}

// VideoConfig drives MP4 output. Zero CRF and Timeout fall back to the
// encoder defaults.
type VideoConfig struct {
	Width         int           `yaml:"width"`
	Height        int           `yaml:"height"`
	FPS           int           `yaml:"fps"`
	Duration      float64       `yaml:"duration"`
	Codec         string        `yaml:"codec"`
	CRF           int           `yaml:"crf"`
	EncoderPreset string        `yaml:"encoderPreset"`
	EncoderBinary string        `yaml:"encoderBinary"`
	Output        string        `yaml:"output"`
	TempDir       string        `yaml:"tempDir"`
	Timeout       time.Duration `yaml:"timeout"`
	Workers       int           `yaml:"workers"`
	Overlay       Overlay       `yaml:"overlay"`
	Audio         *AudioConfig  `yaml:"audio"`
	ShowStats     bool          `yaml:"showStats"`
	BuildVersion  string        `yaml:"-"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	OutputDir      string        `yaml:"outputDir"`
	AssetDir       string        `yaml:"assetDir"`
	MaxFrames      int           `yaml:"maxFrames"`
	MaxDuration    float64       `yaml:"maxDuration"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	AllowedOrigin  string        `yaml:"allowedOrigin"`
}

// SizePreset is a named social-media frame size.
type SizePreset struct {
	Width, Height int
}

var SizePresets = map[string]SizePreset{
	"square":    {1080, 1080},
	"story":     {1080, 1920},
	"landscape": {1280, 720},
	"portrait":  {1080, 1350},
}

// ApplySizePreset returns the dimensions for name.
func ApplySizePreset(name string) (int, int, error) {
	p, ok := SizePresets[strings.ToLower(name)]
	if !ok {
		return 0, 0, fmt.Errorf("%w: unknown size preset %q", ErrInvalidConfig, name)
	}
	return p.Width, p.Height, nil
}

func Default() File {
	return File{
		Animation: AnimationConfig{
			DelayMs:   gifenc.DefaultDelayMs,
			Quality:   gifenc.DefaultQuality,
			Quantizer: string(gifenc.Adaptive),
			Dither:    true,
		},
		Video: VideoConfig{
			FPS:           30,
			Duration:      3,
			Codec:         video.DefaultCodec,
			CRF:           video.DefaultCRF,
			EncoderPreset: video.DefaultPreset,
			EncoderBinary: video.DefaultBinary,
			Timeout:       video.DefaultTimeout,
			Workers:       1,
		},
		Server: ServerConfig{
			Addr:           ":8085",
			OutputDir:      "output",
			MaxFrames:      240,
			MaxDuration:    30,
			RequestTimeout: 10 * time.Minute,
			AllowedOrigin:  "*",
		},
	}
}

// Load overlays path on the defaults. An empty path returns the defaults.
func Load(path string) (File, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (f File) Validate() error {
	if err := f.Animation.Validate(); err != nil {
		return fmt.Errorf("animation: %w", err)
	}
	if err := f.Video.Validate(); err != nil {
		return fmt.Errorf("video: %w", err)
	}
	for i, ff := range f.Fonts {
		if ff.Family == "" || ff.Path == "" {
			return fmt.Errorf("%w: fonts[%d] needs family and path", ErrInvalidConfig, i)
		}
	}
	if _, err := analyzer.NewDetector(f.Detector); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if f.Server.MaxFrames < 0 || f.Server.MaxDuration < 0 {
		return fmt.Errorf("%w: server limits must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Validate accepts zero width/height: the preset size is used then.
func (c AnimationConfig) Validate() error {
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("%w: negative size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.DelayMs < 0 {
		return fmt.Errorf("%w: negative delay", ErrInvalidConfig)
	}
	if _, err := gifenc.ParseQuantizer(c.Quantizer); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return c.Overlay.Validate()
}

func (c VideoConfig) Validate() error {
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("%w: negative size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps must be positive", ErrInvalidConfig)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidConfig)
	}
	if c.CRF < 0 || c.CRF > 51 {
		return fmt.Errorf("%w: crf %d out of range 0..51", ErrInvalidConfig, c.CRF)
	}
	if c.Workers < 0 || c.Timeout < 0 {
		return fmt.Errorf("%w: workers and timeout must not be negative", ErrInvalidConfig)
	}
	if a := c.Audio; a != nil {
		if a.Volume < 0 || a.FadeIn < 0 || a.FadeOut < 0 {
			return fmt.Errorf("%w: audio volume and fades must not be negative", ErrInvalidConfig)
		}
	}
	return c.Overlay.Validate()
}

func (o Overlay) Validate() error {
	if _, err := overlay.ParsePosition(o.WatermarkPosition); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := overlay.ParsePosition(o.QRPosition); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if o.WatermarkOpacity < 0 || o.WatermarkOpacity > 1 {
		return fmt.Errorf("%w: watermark opacity must be within [0,1]", ErrInvalidConfig)
	}
	return nil
}

// Build converts the section into stamper settings. Blank text and URL
// disable the respective stamp.
func (o Overlay) Build() (overlay.Config, error) {
	var out overlay.Config
	if o.Watermark != "" {
		pos, err := overlay.ParsePosition(o.WatermarkPosition)
		if err != nil {
			return out, err
		}
		out.Watermark = &overlay.Watermark{
			Text:     o.Watermark,
			Position: pos,
			FontSize: o.WatermarkSize,
			Color:    o.WatermarkColor,
			Opacity:  o.WatermarkOpacity,
		}
	}
	if o.QRURL != "" {
		pos := overlay.BottomLeft
		if o.QRPosition != "" {
			p, err := overlay.ParsePosition(o.QRPosition)
			if err != nil {
				return out, err
			}
			pos = p
		}
		out.QR = &overlay.QRCode{URL: o.QRURL, Size: o.QRSize, Position: pos}
	}
	return out, nil
}
