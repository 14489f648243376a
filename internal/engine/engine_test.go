package engine

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/gif"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ivlev/badgecast/internal/asset"
	"github.com/ivlev/badgecast/internal/config"
	"github.com/ivlev/badgecast/internal/director"
	"github.com/ivlev/badgecast/internal/frame"
	"github.com/ivlev/badgecast/internal/gifenc"
	"github.com/ivlev/badgecast/internal/video"
)

func TestTotalVideoFrames(t *testing.T) {
	tests := []struct {
		duration float64
		fps      int
		want     int
	}{
		{3, 30, 90},
		{0.1, 30, 3},
		{1.01, 30, 31},
		{2.5, 24, 60},
		{0, 30, 0},
		{3, 0, 0},
	}
	for _, tt := range tests {
		if got := TotalVideoFrames(tt.duration, tt.fps); got != tt.want {
			t.Errorf("TotalVideoFrames(%v, %d) = %d, want %d", tt.duration, tt.fps, got, tt.want)
		}
	}
}

func TestAnimationIndex(t *testing.T) {
	if got := AnimationIndex(89, 90, 30); got != 29 {
		t.Errorf("AnimationIndex(89, 90, 30) = %d, want 29", got)
	}
	if got := AnimationIndex(0, 90, 30); got != 0 {
		t.Errorf("AnimationIndex(0, 90, 30) = %d, want 0", got)
	}

	for _, c := range []struct{ total, count int }{{90, 30}, {7, 30}, {100, 3}, {1, 1}, {31, 30}} {
		prev := 0
		for i := 0; i < c.total; i++ {
			a := AnimationIndex(i, c.total, c.count)
			if a < prev || a > c.count-1 {
				t.Fatalf("total=%d count=%d: index %d mapped to %d after %d", c.total, c.count, i, a, prev)
			}
			prev = a
		}
	}
}

func TestPlanJobs(t *testing.T) {
	jobs := planJobs(90, 30)
	if len(jobs) != 30 {
		t.Fatalf("expected 30 unique frames, got %d", len(jobs))
	}
	seen := 0
	for k, j := range jobs {
		if j.anim != k || len(j.targets) != 3 {
			t.Errorf("job %d: anim %d targets %v", k, j.anim, j.targets)
		}
		for _, i := range j.targets {
			if i != seen {
				t.Fatalf("targets out of order: got %d, want %d", i, seen)
			}
			seen++
		}
	}
}

// fakeEncoderBinary writes a POSIX shell script standing in for ffmpeg.
// $pattern is the first -i argument and $last the output path.
func fakeEncoderBinary(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake encoder needs a POSIX shell")
	}
	script := `#!/bin/sh
pattern=""
prev=""
for a; do
  if [ "$prev" = "-i" ] && [ -z "$pattern" ]; then pattern="$a"; fi
  prev="$a"
  last="$a"
done
dir=$(dirname "$pattern")
` + body
	path := filepath.Join(t.TempDir(), "fake-ffmpeg")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func badgeFrames(t *testing.T, imagePath string, n int) []frame.Frame {
	t.Helper()
	g := director.NewGenerator(director.Badge, rand.New(rand.NewSource(7)))
	frames, err := g.Generate(director.Achievement{
		Name:        "Hard Charger",
		Description: "Scored 80%+",
		ImagePath:   imagePath,
	}, director.Options{Frames: n, Width: 64, Height: 64})
	if err != nil {
		t.Fatal(err)
	}
	return frames
}

func videoConfig(t *testing.T, binary string) config.VideoConfig {
	cfg := config.Default().Video
	cfg.Width, cfg.Height = 64, 64
	cfg.Duration = 0.3
	cfg.EncoderBinary = binary
	cfg.Output = filepath.Join(t.TempDir(), "share", "badge.mp4")
	cfg.TempDir = t.TempDir()
	cfg.Timeout = 20 * time.Second
	return cfg
}

func TestGenerateVideoBrokenImageStillProducesOutput(t *testing.T) {
	bin := fakeEncoderBinary(t, `ls "$dir" | grep -c '^frame-' > "$last"`+"\n")
	cfg := videoConfig(t, bin)
	cfg.Workers = 2
	frames := badgeFrames(t, filepath.Join(t.TempDir(), "missing-badge.png"), 3)

	out, err := GenerateVideo(context.Background(), frames, cfg, Deps{Assets: asset.NewLoader(asset.RasterSource{})})
	if err != nil {
		t.Fatalf("GenerateVideo failed: %v", err)
	}
	if out != cfg.Output {
		t.Errorf("returned %s, want %s", out, cfg.Output)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "9" {
		t.Errorf("encoder saw %s frames, want 9", got)
	}
	assertEmpty(t, cfg.TempDir)
}

func TestGenerateVideoCleansUpOnEncoderFailure(t *testing.T) {
	bin := fakeEncoderBinary(t, "echo 'boom' >&2\nexit 3\n")
	cfg := videoConfig(t, bin)

	_, err := GenerateVideo(context.Background(), badgeFrames(t, "", 3), cfg, Deps{})
	var ee *video.EncoderError
	if !errors.As(err, &ee) {
		t.Fatalf("expected EncoderError, got %v", err)
	}
	if ee.ExitCode != 3 || !strings.Contains(ee.Output, "boom") {
		t.Errorf("unexpected encoder error: code %d output %q", ee.ExitCode, ee.Output)
	}
	if !IsEncoderFailure(err) {
		t.Error("IsEncoderFailure should report encoder errors")
	}
	assertEmpty(t, cfg.TempDir)
}

func TestGenerateVideoCleansUpOnInvalidFrame(t *testing.T) {
	bin := fakeEncoderBinary(t, "exit 0\n")
	cfg := videoConfig(t, bin)
	frames := badgeFrames(t, "", 3)
	frames[1].Background = frame.Gradient{Stops: []frame.Stop{{Position: 0.5, Color: "#000"}}}

	if _, err := GenerateVideo(context.Background(), frames, cfg, Deps{}); !errors.Is(err, frame.ErrInvalidGradient) {
		t.Fatalf("expected ErrInvalidGradient, got %v", err)
	}
	assertEmpty(t, cfg.TempDir)
}

func TestGenerateVideoInputErrors(t *testing.T) {
	cfg := videoConfig(t, "ffmpeg")
	if _, err := GenerateVideo(context.Background(), nil, cfg, Deps{}); !errors.Is(err, ErrNoFrames) {
		t.Errorf("expected ErrNoFrames, got %v", err)
	}

	cfg.FPS = 0
	if _, err := GenerateVideo(context.Background(), badgeFrames(t, "", 2), cfg, Deps{}); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func assertEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		t.Errorf("temp entry left behind: %s", e.Name())
	}
}

type recordingEncoder struct {
	starts, adds, finishes int
	inner                  gifenc.Encoder
}

func (e *recordingEncoder) Start(w, h int) error {
	e.starts++
	return e.inner.Start(w, h)
}

func (e *recordingEncoder) AddFrame(img image.Image) error {
	e.adds++
	return e.inner.AddFrame(img)
}

func (e *recordingEncoder) Finish() ([]byte, error) {
	e.finishes++
	return e.inner.Finish()
}

func TestCreateAnimatedGifLifecycle(t *testing.T) {
	tests := []struct {
		name   string
		frames int
		want   int
	}{
		{"sequence", 4, 4},
		{"empty", 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingEncoder{}
			deps := Deps{NewEncoder: func(cfg config.AnimationConfig) gifenc.Encoder {
				rec.inner = NewGifEncoder(cfg)
				return rec
			}}
			cfg := config.Default().Animation
			cfg.Width, cfg.Height = 64, 64
			cfg.Overlay.Watermark = "Apply now"
			cfg.Overlay.WatermarkPosition = "auto"
			cfg.Overlay.WatermarkSize = 10

			var frames []frame.Frame
			if tt.frames > 0 {
				frames = badgeFrames(t, "", tt.frames)
			}
			data, err := CreateAnimatedGif(context.Background(), frames, cfg, deps)
			if err != nil {
				t.Fatalf("CreateAnimatedGif failed: %v", err)
			}
			if rec.starts != 1 || rec.finishes != 1 || rec.adds != tt.frames {
				t.Errorf("lifecycle: start=%d add=%d finish=%d", rec.starts, rec.adds, rec.finishes)
			}

			g, err := gif.DecodeAll(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("output is not a GIF: %v", err)
			}
			if len(g.Image) != tt.want {
				t.Errorf("got %d GIF frames, want %d", len(g.Image), tt.want)
			}
			if g.Config.Width != 64 || g.Config.Height != 64 {
				t.Errorf("unexpected size %dx%d", g.Config.Width, g.Config.Height)
			}
		})
	}
}

func TestCreateAnimatedGifDefaultSize(t *testing.T) {
	data, err := CreateAnimatedGif(context.Background(), nil, config.AnimationConfig{}, Deps{})
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := gif.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != DefaultWidth || cfg.Height != DefaultHeight {
		t.Errorf("default size %dx%d", cfg.Width, cfg.Height)
	}
}

func TestWithTempDirRemovesOnError(t *testing.T) {
	parent := t.TempDir()
	var used string
	err := withTempDir(parent, func(dir string) error {
		used = dir
		return os.WriteFile(filepath.Join(dir, video.FrameName(0)), []byte("x"), 0644)
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(used); !os.IsNotExist(err) {
		t.Errorf("temp dir %s still exists", used)
	}

	boom := errors.New("boom")
	if err := withTempDir(parent, func(string) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("expected callback error, got %v", err)
	}
	assertEmpty(t, parent)
}

// flakyLoader fails the first load of every path and counts calls.
type flakyLoader struct {
	mu    sync.Mutex
	calls map[string]int
}

func (l *flakyLoader) Load(_ context.Context, path string) (image.Image, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls[path]++
	if l.calls[path] == 1 {
		return nil, errors.New("temporarily unavailable")
	}
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}

func TestRenderPinsAssetsOnce(t *testing.T) {
	loader := &flakyLoader{calls: make(map[string]int)}
	frames := make([]frame.Frame, 5)
	for i := range frames {
		frames[i].Background = frame.Solid{Color: "#102040"}
		frames[i].Images = []frame.Image{
			{ID: "badge", Path: "badge.png", Width: 16, Height: 16, Opacity: 1},
			{ID: "logo", Path: "logo.png", Width: 8, Height: 8, Opacity: 1},
		}
	}
	cfg := config.AnimationConfig{Width: 32, Height: 32}

	if _, err := CreateAnimatedGif(context.Background(), frames, cfg, Deps{Assets: loader}); err != nil {
		t.Fatal(err)
	}
	// One failed attempt per path for the whole render, not one per frame.
	for _, p := range []string{"badge.png", "logo.png"} {
		if n := loader.calls[p]; n != 1 {
			t.Errorf("%s loaded %d times in the first render, want 1", p, n)
		}
	}

	// The next render asks again and now succeeds.
	if _, err := CreateAnimatedGif(context.Background(), frames, cfg, Deps{Assets: loader}); err != nil {
		t.Fatal(err)
	}
	if n := loader.calls["badge.png"]; n != 2 {
		t.Errorf("badge.png loaded %d times after two renders, want 2", n)
	}
}

func TestPinAssetsStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	frames := []frame.Frame{{Images: []frame.Image{{Path: "badge.png"}}}}
	if _, err := pinAssets(ctx, &flakyLoader{calls: make(map[string]int)}, frames); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

type captureRunner struct {
	cmd video.Command
}

func (r *captureRunner) Run(_ context.Context, c video.Command) (string, error) {
	r.cmd = c
	return "", nil
}

func TestGenerateVideoAppliesEncoderDefaults(t *testing.T) {
	runner := &captureRunner{}
	cfg := config.VideoConfig{
		Width: 32, Height: 32, FPS: 30, Duration: 0.2,
		TempDir: t.TempDir(),
		Output:  filepath.Join(t.TempDir(), "out.mp4"),
	}
	if _, err := GenerateVideo(context.Background(), badgeFrames(t, "", 3), cfg, Deps{Runner: runner}); err != nil {
		t.Fatal(err)
	}

	args, err := runner.cmd.Args()
	if err != nil {
		t.Fatal(err)
	}
	got := strings.Join(args, " ")
	if !strings.Contains(got, "-crf 23 ") {
		t.Errorf("unset CRF must fall back to %d: %s", video.DefaultCRF, got)
	}

	if r := encoderRunner(cfg); r.Timeout != video.DefaultTimeout {
		t.Errorf("unset timeout gave %v, want %v", r.Timeout, video.DefaultTimeout)
	}
	cfg.Timeout = 90 * time.Second
	if r := encoderRunner(cfg); r.Timeout != 90*time.Second {
		t.Errorf("explicit timeout gave %v", r.Timeout)
	}
}
