package recap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CollectPhotos returns the JPEG files directly inside dir in name order.
// The scene only accepts JPEG input, so other files are skipped.
func CollectPhotos(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read photo directory: %w", err)
	}

	var photos []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg":
			photos = append(photos, filepath.Join(dir, e.Name()))
		}
	}
	if len(photos) == 0 {
		return nil, fmt.Errorf("no JPEG photos found in %s", dir)
	}
	return photos, nil
}
