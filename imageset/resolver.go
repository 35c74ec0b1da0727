package imageset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kucinghitam13/TF-FeatureExtraction/models"
)

// DefaultExtensions covers the formats the decode path accepts.
var DefaultExtensions = []string{"jpg", "jpeg", "png"}

// Resolve lists the image files directly under dir (flat, not recursive)
// whose suffix matches one of exts, case-insensitively. The result is sorted
// lexicographically so repeated calls on an unchanged directory return the
// same ordering; downstream batches rely on that positional stability.
// Returns an empty slice, not an error, when nothing matches.
func Resolve(dir string, exts []string) ([]string, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("image directory %s: %w", dir, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("stat image directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("image directory %s is not a directory: %w", dir, models.ErrNotFound)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read image directory: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if matchesExtension(entry.Name(), exts) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}

	sort.Strings(files)
	return files, nil
}

func matchesExtension(name string, exts []string) bool {
	suffix := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if suffix == "" {
		return false
	}
	for _, ext := range exts {
		if suffix == strings.ToLower(strings.TrimPrefix(ext, ".")) {
			return true
		}
	}
	return false
}
