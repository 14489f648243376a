package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ivlev/badgecast/internal/analyzer"
	"github.com/ivlev/badgecast/internal/asset"
	"github.com/ivlev/badgecast/internal/audio"
	"github.com/ivlev/badgecast/internal/config"
	"github.com/ivlev/badgecast/internal/director"
	"github.com/ivlev/badgecast/internal/engine"
	"github.com/ivlev/badgecast/internal/fonts"
	"github.com/ivlev/badgecast/internal/frame"
	"github.com/ivlev/badgecast/internal/system"
)

var version = "dev"

func main() {
	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()

	// Создаем нужные директории, если их нет
	dirs := []string{"input/images", "input/audio", "output", "frames"}
	for _, d := range dirs {
		os.MkdirAll(d, 0755)
	}

	configPtr := flag.String("config", "", "Путь к YAML-конфигурации (если пусто, используются значения по умолчанию)")
	kindPtr := flag.String("kind", "badge", "Тип анимации: badge, nft")
	namePtr := flag.String("name", "", "Название достижения")
	descPtr := flag.String("description", "", "Описание достижения")
	imagePtr := flag.String("image", "", "Изображение значка/NFT (по умолчанию: самый свежий файл в input/images/)")
	logoPtr := flag.String("logo", "", "Логотип департамента (PNG/JPEG/PDF/SVG или URL)")
	footerPtr := flag.String("footer", "", "Строка призыва внизу кадра")
	formatPtr := flag.String("format", "gif", "Формат результата: gif, mp4, frames")
	outputPtr := flag.String("output", "", "Путь к результату (если пусто, генерируется автоматически в output/)")
	framesPtr := flag.Int("frames", 0, "Количество кадров анимации (0 - по пресету)")
	framesInPtr := flag.String("frames-in", "", "Рендерить готовую последовательность YAML вместо генерации (latest - самая свежая в frames/)")
	widthPtr := flag.Int("width", 0, "Ширина (0 - по пресету)")
	heightPtr := flag.Int("height", 0, "Высота (0 - по пресету)")
	sizePtr := flag.String("preset-size", "", "Размер для соцсетей: square, story, landscape, portrait")
	fpsPtr := flag.Int("fps", 0, "FPS видео (0 - из конфигурации)")
	durationPtr := flag.Float64("duration", 0, "Длительность видео в секундах (0 - из конфигурации)")
	audioPtr := flag.String("audio", "", "Путь к аудио (auto - самый свежий файл в input/audio/)")
	volumePtr := flag.Float64("volume", 1, "Громкость аудио")
	fadeInPtr := flag.Float64("fade-in", 0, "Нарастание звука (сек)")
	fadeOutPtr := flag.Float64("fade-out", 0, "Затухание звука (сек)")
	audioSyncPtr := flag.Bool("audio-sync", false, "Синхронизировать длительность видео с аудио")
	watermarkPtr := flag.String("watermark", "", "Текст водяного знака")
	watermarkPosPtr := flag.String("watermark-pos", "", "Позиция водяного знака: top-left, top-right, bottom-left, bottom-right, auto")
	qrPtr := flag.String("qr", "", "Ссылка для QR-кода")
	detectorPtr := flag.String("detector", "", "Анализатор для watermark-pos=auto: "+strings.Join(analyzer.Variants, ", "))
	codecPtr := flag.String("codec", "", "Энкодер: libx264, h264_nvenc, h264_videotoolbox, auto")
	qualityPtr := flag.Int("quality", -1, "Качество видео (x264: CRF 1-51, 0 - по умолчанию; VideoToolbox: битрейт = Q*100кбит/с)")
	workersPtr := flag.Int("workers", 0, "Потоки рендеринга (0 - по числу ядер)")
	seedPtr := flag.Int64("seed", 0, "Seed для частиц (0 - случайный)")
	statsPtr := flag.Bool("stats", false, "Показать отчет о производительности")

	flag.Parse()

	cfg, err := config.Load(*configPtr)
	if err != nil {
		log.Fatalf("[-] Ошибка конфигурации: %v", err)
	}

	lib := fonts.NewLibrary()
	for _, f := range cfg.Fonts {
		if err := lib.RegisterFile(f.Family, f.Weight, f.Path); err != nil {
			log.Printf("[!] %v", err)
		}
	}

	preset, err := director.PresetByName(*kindPtr)
	if err != nil {
		log.Fatalf("[-] Ошибка: %v", err)
	}

	width, height := *widthPtr, *heightPtr
	if *sizePtr != "" {
		width, height, err = config.ApplySizePreset(*sizePtr)
		if err != nil {
			log.Fatalf("[-] Ошибка: %v", err)
		}
	}

	frames, width, height := loadFrames(*framesInPtr, preset, width, height, *namePtr, *descPtr, *imagePtr, *logoPtr, *footerPtr, *framesPtr, *seedPtr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *detectorPtr != "" {
		cfg.Detector = *detectorPtr
	}
	detector, err := analyzer.NewDetector(cfg.Detector)
	if err != nil {
		log.Fatalf("[-] Ошибка: %v", err)
	}

	deps := engine.Deps{Assets: asset.NewDefaultLoader(), Fonts: lib, Detector: detector}.WithDefaults()
	format := strings.ToLower(*formatPtr)

	switch format {
	case "frames":
		out := *outputPtr
		if out == "" {
			out = director.GenerateFramesPath("frames", preset.Name)
		}
		seq := &director.Sequence{Version: version, Preset: preset.Name, Width: width, Height: height, Frames: frames}
		if err := director.WriteFrames(seq, out); err != nil {
			log.Fatalf("[-] Ошибка записи кадров: %v", err)
		}
		fmt.Printf("[+++] Успех! Последовательность сохранена: %s\n", out)

	case "gif":
		anim := cfg.Animation
		anim.Width, anim.Height = width, height
		applyOverlay(&anim.Overlay, *watermarkPtr, *watermarkPosPtr, *qrPtr)

		out := outputName(*outputPtr, *namePtr, preset.Name, "gif")
		fmt.Printf("[*] Рендеринг GIF: %d кадров, %dx%d\n", len(frames), width, height)
		data, err := engine.CreateAnimatedGif(ctx, frames, anim, deps)
		if err != nil {
			log.Fatalf("[-] Ошибка создания GIF: %v", err)
		}
		if err := os.WriteFile(out, data, 0644); err != nil {
			log.Fatalf("[-] Ошибка записи GIF: %v", err)
		}
		fmt.Printf("[+++] Успех! Результат: %s (%s)\n", out, system.FormatBytes(uint64(len(data))))

	case "mp4", "video":
		vc := cfg.Video
		vc.Width, vc.Height = width, height
		vc.BuildVersion = version
		vc.ShowStats = vc.ShowStats || *statsPtr
		applyOverlay(&vc.Overlay, *watermarkPtr, *watermarkPosPtr, *qrPtr)
		if *fpsPtr > 0 {
			vc.FPS = *fpsPtr
		}
		if *durationPtr > 0 {
			vc.Duration = *durationPtr
		}
		if *codecPtr != "" {
			vc.Codec = *codecPtr
		}
		if *qualityPtr >= 0 {
			vc.CRF = *qualityPtr
		}
		if *workersPtr > 0 {
			vc.Workers = *workersPtr
		} else if vc.Workers <= 1 {
			vc.Workers = system.DefaultWorkers()
		}

		audioPath := *audioPtr
		if audioPath == "auto" {
			latest, err := system.FindLatestAudio("input/audio")
			if err != nil {
				log.Printf("[!] %v", err)
				audioPath = ""
			} else {
				audioPath = latest
				fmt.Printf("[*] Выбрано аудио: %s\n", audioPath)
			}
		}
		if audioPath != "" {
			vc.Audio = &config.AudioConfig{Path: audioPath, Volume: *volumePtr, FadeIn: *fadeInPtr, FadeOut: *fadeOutPtr}
			if *audioSyncPtr {
				info, err := audio.Probe(audioPath)
				if err == nil {
					vc.Duration = info.Duration.Seconds()
					fmt.Printf("[*] Длительность видео установлена по аудио: %.2fs\n", vc.Duration)
				} else {
					log.Printf("[!] Не удалось получить длительность аудио: %v", err)
				}
			}
		}

		vc.Output = outputName(*outputPtr, *namePtr, preset.Name, "mp4")
		if _, err := engine.GenerateVideo(ctx, frames, vc, deps); err != nil {
			log.Fatalf("[-] Ошибка проекта: %v", err)
		}

	default:
		log.Fatalf("[-] Неизвестный формат: %s", *formatPtr)
	}
}

// loadFrames replays a YAML dump or generates a fresh sequence.
func loadFrames(in string, preset director.Preset, width, height int,
	name, desc, image, logo, footer string, n int, seed int64) ([]frame.Frame, int, int) {
	if in != "" {
		if in == "latest" {
			latest, err := director.FindLatestFrames("frames")
			if err != nil {
				log.Fatalf("[-] Ошибка: %v", err)
			}
			in = latest
		}
		seq, err := director.ReadFrames(in)
		if err != nil {
			log.Fatalf("[-] Ошибка чтения кадров %s: %v", in, err)
		}
		fmt.Printf("[*] Используется последовательность: %s (%d кадров)\n", in, len(seq.Frames))
		return seq.Frames, seq.Width, seq.Height
	}

	if name == "" {
		log.Fatalf("[-] Ошибка: укажите -name")
	}
	if image == "" {
		latest, err := system.FindLatestImage("input/images")
		if err != nil {
			log.Printf("[!] Изображение не задано: %v", err)
		} else {
			image = latest
			fmt.Printf("[*] Выбран файл: %s\n", image)
		}
	}
	if width <= 0 {
		width = preset.Width
	}
	if height <= 0 {
		height = preset.Height
	}

	var rng *rand.Rand
	if seed != 0 {
		rng = rand.New(rand.NewSource(seed))
	}
	frames, err := director.NewGenerator(preset, rng).Generate(director.Achievement{
		Name:        name,
		Description: desc,
		ImagePath:   image,
		LogoPath:    logo,
		Footer:      footer,
	}, director.Options{Frames: n, Width: width, Height: height})
	if err != nil {
		log.Fatalf("[-] Ошибка генерации кадров: %v", err)
	}
	return frames, width, height
}

func applyOverlay(o *config.Overlay, text, pos, qr string) {
	if text != "" {
		o.Watermark = text
	}
	if pos != "" {
		o.WatermarkPosition = pos
	}
	if qr != "" {
		o.QRURL = qr
	}
}

func outputName(out, name, kind, ext string) string {
	if out != "" {
		return out
	}
	base := strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	if base == "" {
		base = kind
	}
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join("output", fmt.Sprintf("%s_%s.%s", base, timestamp, ext))
}
