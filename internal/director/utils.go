package director

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ivlev/badgecast/internal/system"
)

// GenerateFramesPath names a sequence dump <preset>_<timestamp>.yaml under dir.
func GenerateFramesPath(dir, preset string) string {
	return filepath.Join(dir, preset+"_"+time.Now().Format("2006-01-02_15-04-05")+".yaml")
}

// FindLatestFrames returns the newest sequence dump in dir.
func FindLatestFrames(dir string) (string, error) {
	p, err := system.FindLatest(dir, ".yaml", ".yml")
	if err != nil {
		return "", fmt.Errorf("no frame sequences found in %s: %w", dir, err)
	}
	return p, nil
}
