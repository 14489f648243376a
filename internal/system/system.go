package system

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

var (
	AudioExtensions = []string{".mp3", ".wav", ".m4a", ".ogg", ".aac", ".flac"}
	ImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
)

func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось получить лимит файлов: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось установить лимит файлов: %v", err)
	} else {
		fmt.Printf("[*] Системный лимит открытых файлов увеличен до %d\n", rLimit.Cur)
	}
}

// FindLatest returns the most recently modified file in dir whose name ends
// with one of exts (case-insensitive). It fails with os.ErrNotExist when
// nothing matches.
func FindLatest(dir string, exts ...string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !hasExt(f.Name(), exts) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if latestFile == "" || info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", os.ErrNotExist
	}
	return latestFile, nil
}

func hasExt(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// FindLatestAudio picks the newest soundtrack in dir.
func FindLatestAudio(dir string) (string, error) {
	p, err := FindLatest(dir, AudioExtensions...)
	if err != nil {
		return "", fmt.Errorf("в папке %s не найдено аудио-файлов: %w", dir, err)
	}
	return p, nil
}

// FindLatestImage accepts a directory or a file; for a file the search runs
// in its directory.
func FindLatestImage(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	searchDir := path
	if !fi.IsDir() {
		searchDir = filepath.Dir(path)
	}

	p, err := FindLatest(searchDir, ImageExtensions...)
	if err != nil {
		return "", fmt.Errorf("в папке %s не найдено изображений: %w", searchDir, err)
	}
	return p, nil
}

// GetBestH264Encoder asks the encoder binary which H.264 encoders it was
// built with and prefers hardware ones.
func GetBestH264Encoder(binary string) string {
	if binary == "" {
		binary = "ffmpeg"
	}
	out, err := exec.Command(binary, "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		log.Printf("[!] Не удалось получить список энкодеров %s: %v", binary, err)
		return "libx264"
	}
	return pickEncoder(string(out))
}

// pickEncoder order: VideoToolbox (macOS), NVENC (NVIDIA), software libx264.
func pickEncoder(list string) string {
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(list, name) {
			return name
		}
	}
	return "libx264"
}
