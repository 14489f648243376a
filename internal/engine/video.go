package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/badgecast/internal/audio"
	"github.com/ivlev/badgecast/internal/canvas"
	"github.com/ivlev/badgecast/internal/config"
	"github.com/ivlev/badgecast/internal/frame"
	"github.com/ivlev/badgecast/internal/overlay"
	"github.com/ivlev/badgecast/internal/renderer"
	"github.com/ivlev/badgecast/internal/system"
	"github.com/ivlev/badgecast/internal/video"
)

// renderJob is one animation frame and every video frame index it fills.
type renderJob struct {
	anim    int
	targets []int
}

// Report holds timings of one GenerateVideo call.
type Report struct {
	VideoFrames  int
	UniqueFrames int
	Render       time.Duration
	Encode       time.Duration
	Total        time.Duration
}

// GenerateVideo writes ceil(duration*fps) PNG frames into a scoped temp
// directory, runs the external encoder over them and returns cfg.Output.
// The temp directory is removed whether or not the encoder succeeds.
func GenerateVideo(ctx context.Context, frames []frame.Frame, cfg config.VideoConfig, deps Deps) (string, error) {
	if len(frames) == 0 {
		return "", ErrNoFrames
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	if cfg.Output == "" {
		return "", fmt.Errorf("%w: output path is empty", config.ErrInvalidConfig)
	}
	deps = deps.WithDefaults()
	if deps.Runner == nil {
		deps.Runner = encoderRunner(cfg)
	}

	startTime := time.Now()
	w, h := canvasSize(cfg.Width, cfg.Height)
	total := TotalVideoFrames(cfg.Duration, cfg.FPS)
	jobs := planJobs(total, len(frames))
	workers := max(min(cfg.Workers, len(jobs)), 1)

	fmt.Printf("[*] Кадров анимации: %d | Кадров видео: %d (уникальных %d)\n", len(frames), total, len(jobs))
	fmt.Printf("[*] Разрешение: %dx%d @ %d FPS | Потоков: %d\n", w, h, cfg.FPS, workers)

	if dir := filepath.Dir(cfg.Output); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("не удалось создать папку для результата: %w", err)
		}
	}

	report := Report{VideoFrames: total, UniqueFrames: len(jobs)}
	err := withTempDir(cfg.TempDir, func(dir string) error {
		ocfg, err := cfg.Overlay.Build()
		if err != nil {
			return err
		}
		renderStart := time.Now()
		if err := writeFrames(ctx, dir, frames, jobs, ocfg, w, h, workers, deps); err != nil {
			return err
		}
		report.Render = time.Since(renderStart)

		cmd, err := buildCommand(dir, total, cfg)
		if err != nil {
			return err
		}
		fmt.Println("[*] Сборка видео...")
		encodeStart := time.Now()
		out, err := deps.Runner.Run(ctx, cmd)
		report.Encode = time.Since(encodeStart)
		if err != nil {
			log.Printf("[!] Энкодер завершился с ошибкой: %v\n%s", err, tail(out, 2000))
			return fmt.Errorf("ошибка сборки видео: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	report.Total = time.Since(startTime)
	if cfg.ShowStats {
		printReport(cfg, report)
	}
	fmt.Printf("[+++] Видео готово: %s\n", cfg.Output)
	return cfg.Output, nil
}

// encoderRunner bounds every encoder run; a zero Timeout means the default,
// never an unbounded run.
func encoderRunner(cfg config.VideoConfig) video.Runner {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = video.DefaultTimeout
	}
	return video.Runner{Timeout: timeout}
}

// planJobs groups video indices by the animation frame they show, in
// increasing order.
func planJobs(total, count int) []renderJob {
	var jobs []renderJob
	for i := 0; i < total; i++ {
		a := AnimationIndex(i, total, count)
		if n := len(jobs); n > 0 && jobs[n-1].anim == a {
			jobs[n-1].targets = append(jobs[n-1].targets, i)
			continue
		}
		jobs = append(jobs, renderJob{anim: a, targets: []int{i}})
	}
	return jobs
}

// writeFrames renders each unique animation frame once, encodes it to PNG
// once and writes it under every mapped frame name. Each worker owns its
// renderer, surface and stamper.
func writeFrames(ctx context.Context, dir string, frames []frame.Frame, jobs []renderJob,
	ocfg overlay.Config, w, h, workers int, deps Deps) error {
	if len(jobs) == 0 {
		return nil
	}

	assets, err := pinAssets(ctx, deps.Assets, frames)
	if err != nil {
		return err
	}
	deps.Assets = assets

	// Auto corners are resolved up front so every worker agrees on them.
	{
		buf := system.GetImage(image.Rect(0, 0, w, h))
		r := renderer.New(deps.Assets, deps.Fonts)
		faces := deps.Fonts.NewCache()
		var err error
		ocfg, err = resolveOverlay(ctx, r, canvas.Wrap(buf), faces, ocfg, frames, deps.Detector)
		faces.Close()
		r.Close()
		system.PutImage(buf)
		if err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	queue := make(chan renderJob)
	var done atomic.Int32

	g.Go(func() error {
		defer close(queue)
		for _, j := range jobs {
			select {
			case queue <- j:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for range workers {
		g.Go(func() error {
			buf := system.GetImage(image.Rect(0, 0, w, h))
			defer system.PutImage(buf)
			s := canvas.Wrap(buf)

			r := renderer.New(deps.Assets, deps.Fonts)
			defer r.Close()
			faces := deps.Fonts.NewCache()
			defer faces.Close()
			st, err := overlay.NewStamper(faces, ocfg, w, h)
			if err != nil {
				return err
			}

			enc := png.Encoder{CompressionLevel: png.BestSpeed}
			var data bytes.Buffer
			for j := range queue {
				if err := r.RenderFrame(gctx, s, frames[j.anim]); err != nil {
					return fmt.Errorf("кадр анимации %d: %w", j.anim, err)
				}
				st.Stamp(s)

				data.Reset()
				if err := enc.Encode(&data, s.Image()); err != nil {
					return fmt.Errorf("кадр анимации %d: %w", j.anim, err)
				}
				for _, i := range j.targets {
					if err := os.WriteFile(filepath.Join(dir, video.FrameName(i)), data.Bytes(), 0644); err != nil {
						return fmt.Errorf("не удалось записать кадр %d: %w", i, err)
					}
				}
				if n := done.Add(1); n%10 == 0 || int(n) == len(jobs) {
					fmt.Printf("[>] Ready: %d/%d\n", n, len(jobs))
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func buildCommand(dir string, total int, cfg config.VideoConfig) (video.Command, error) {
	codec := cfg.Codec
	if codec == "auto" {
		codec = system.GetBestH264Encoder(cfg.EncoderBinary)
		fmt.Printf("[*] Выбран энкодер: %s\n", codec)
	}
	duration := float64(total) / float64(cfg.FPS)

	c := video.Command{
		Binary:       cfg.EncoderBinary,
		FPS:          cfg.FPS,
		FramePattern: video.FramePattern(dir),
		Duration:     duration,
		Codec:        codec,
		CRF:          cfg.CRF,
		Preset:       cfg.EncoderPreset,
		Output:       cfg.Output,
	}.WithDefaults()

	if a := cfg.Audio; a != nil && a.Path != "" {
		if info, err := audio.Probe(a.Path); err != nil {
			log.Printf("[!] Не удалось прочитать аудио %s: %v", a.Path, err)
		} else if info.Duration.Seconds() < duration {
			log.Printf("[!] Аудио (%.2fs) короче видео (%.2fs), остаток будет заполнен тишиной", info.Duration.Seconds(), duration)
		}
		in, out := audio.ClampFades(a.FadeIn, a.FadeOut, duration)
		c.Audio = &video.AudioInput{Path: a.Path, Volume: a.Volume, FadeIn: in, FadeOut: out}
	}

	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		return "..." + s[len(s)-n:]
	}
	return s
}

func printReport(cfg config.VideoConfig, r Report) {
	fps := float64(r.VideoFrames) / r.Total.Seconds()
	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Rendering (CPU): %.2fs\n"+
			"Encoding (GPU/CPU): %.2fs\n"+
			"Frames: %d (unique %d)\n"+
			"Effective FPS: %.2f\n"+
			"Host: %s\n"+
			"----------------------------\n",
		cfg.BuildVersion, r.Total.Seconds(), r.Render.Seconds(), r.Encode.Seconds(),
		r.VideoFrames, r.UniqueFrames, fps, system.CollectHostStats(),
	)
	fmt.Print(report)

	logEntry := fmt.Sprintf("[%s] Build: %s | Output: %s | Frames: %d | Total: %.2fs | Render: %.2fs | Encode: %.2fs | FPS: %.2f\n",
		time.Now().Format("2006-01-02 15:04:05"),
		cfg.BuildVersion,
		filepath.Base(cfg.Output),
		r.VideoFrames,
		r.Total.Seconds(),
		r.Render.Seconds(),
		r.Encode.Seconds(),
		fps,
	)
	f, err := os.OpenFile("benchmark.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		f.WriteString(logEntry)
		f.Close()
	} else {
		fmt.Printf("[!] Не удалось записать benchmark.log: %v\n", err)
	}
}

// IsEncoderFailure reports whether err came from the external encoder.
func IsEncoderFailure(err error) bool {
	var ee *video.EncoderError
	return errors.As(err, &ee)
}
