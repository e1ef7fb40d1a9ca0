package file

import (
	"path/filepath"
	"strings"
)

// ReplaceExt swaps the extension of path for ext ("" removes it). Dotfiles
// like ".po" are treated as having no extension.
func ReplaceExt(path, ext string) string {
	if path == "" {
		return path
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	dir, name := filepath.Split(path)
	if dot := strings.LastIndex(name, "."); dot > 0 {
		name = name[:dot]
	}
	return filepath.Join(dir, name+ext)
}
