package segment

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// POReader reads gettext PO files. Each msgid with a msgstr becomes one
// segment; the msgctxt, when present, is carried as ContextBefore. The header
// entry (empty msgid) is skipped.
type POReader struct{}

func NewPOReader() *POReader {
	return &POReader{}
}

type poField int

const (
	poNone poField = iota
	poContext
	poID
	poStr
)

func (r *POReader) Read(path string) ([]Segment, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("PO file not found: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PO file: %w", err)
	}
	defer file.Close()

	origin := filepath.Base(path)
	segments := make([]Segment, 0)

	var (
		msgctxt string
		hasCtxt bool
		msgid   string
		last    = poNone
	)

	emit := func() {
		if msgid != "" {
			seg := Segment{
				ID:         segmentID(path, len(segments)),
				Text:       msgid,
				OriginFile: origin,
			}
			if hasCtxt {
				seg.ContextBefore = msgctxt
			}
			segments = append(segments, seg)
		}
		msgctxt, hasCtxt, msgid = "", false, ""
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "" || strings.HasPrefix(line, "#"):
			continue
		case strings.HasPrefix(line, "msgctxt "):
			msgctxt, hasCtxt = quoted(line), true
			last = poContext
		case strings.HasPrefix(line, "msgid_plural"):
			last = poNone
		case strings.HasPrefix(line, "msgid "):
			msgid = quoted(line)
			last = poID
		case strings.HasPrefix(line, "msgstr"):
			// msgstr and msgstr[n] both close the entry; msgid is already
			// cleared for the later plural forms.
			emit()
			last = poStr
		case strings.HasPrefix(line, `"`):
			switch last {
			case poContext:
				msgctxt += quoted(line)
			case poID:
				msgid += quoted(line)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read PO file: %w", err)
	}

	return segments, nil
}

// quoted returns the unescaped text between the first and last double quote.
func quoted(line string) string {
	first := strings.Index(line, `"`)
	last := strings.LastIndex(line, `"`)
	if first == -1 || last <= first {
		return ""
	}
	return unescapePO(line[first+1 : last])
}

func unescapePO(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i == len(s)-1 {
			sb.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case '"':
			sb.WriteByte('"')
		case '\\':
			sb.WriteByte('\\')
		default:
			sb.WriteByte('\\')
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}
