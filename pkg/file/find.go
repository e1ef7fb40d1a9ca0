package file

import (
	"io/fs"
	"path/filepath"
	"time"
)

// FindRecentAfter walks dir and returns the regular files modified after
// startTime that match keep. A nil keep accepts every file.
func FindRecentAfter(dir string, startTime time.Time, keep func(path string) bool) ([]string, error) {
	var recentFiles []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if keep != nil && !keep(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() && info.ModTime().After(startTime) {
			recentFiles = append(recentFiles, path)
		}
		return nil
	})

	return recentFiles, err
}
