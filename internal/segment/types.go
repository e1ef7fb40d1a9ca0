// Package segment reads translatable units out of localisation and subtitle files.
package segment

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned by ReaderFor for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported segment file format")

// Segment is one unit of source text to translate.
// Empty optional fields mean "not known".
type Segment struct {
	ID            string
	Text          string
	ContextBefore string
	ContextAfter  string
	Speaker       string
	OriginFile    string
}

// Reader parses a file into segments, in file order.
type Reader interface {
	Read(path string) ([]Segment, error)
}

// ReaderFor picks a reader from the file extension.
func ReaderFor(path string) (Reader, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".po", ".pot":
		return NewPOReader(), nil
	case ".srt":
		return NewSRTReader(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Supported reports whether ReaderFor accepts the path.
func Supported(path string) bool {
	_, err := ReaderFor(path)
	return err == nil
}

func segmentID(path string, n int) string {
	return fmt.Sprintf("%s_%d", filepath.Base(path), n)
}
