package segment

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"

	"github.com/MimeLyc/localcat/pkg/log"
)

var srtTimeRe = regexp.MustCompile(`(\d{2}):(\d{2}):(\d{2}),(\d{3}) --> (\d{2}):(\d{2}):(\d{2}),(\d{3})`)

// Cue is one SRT block.
type Cue struct {
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
	Text      string
}

// SRTReader turns subtitle cues into segments. Neighbouring cues are used as
// ContextBefore and ContextAfter.
type SRTReader struct{}

func NewSRTReader() *SRTReader {
	return &SRTReader{}
}

func (r *SRTReader) Read(path string) ([]Segment, error) {
	cues, err := ReadCues(path)
	if err != nil {
		return nil, err
	}

	origin := filepath.Base(path)
	segments := make([]Segment, 0, len(cues))
	for i, cue := range cues {
		seg := Segment{
			ID:         segmentID(path, i),
			Text:       cue.Text,
			OriginFile: origin,
		}
		if i > 0 {
			seg.ContextBefore = cues[i-1].Text
		}
		if i+1 < len(cues) {
			seg.ContextAfter = cues[i+1].Text
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// ReadCues parses an SRT file. Blocks with an unreadable timing line are
// skipped with a warning.
func ReadCues(path string) ([]Cue, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("subtitle file not found: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open subtitle file: %w", err)
	}
	defer file.Close()

	var cues []Cue
	scanner := bufio.NewScanner(file)

	current := Cue{}
	state := "index" // index, time, text, skip
	var textLines []string
	lineNo := 0

	flush := func() {
		if len(textLines) > 0 {
			current.Text = strings.Join(textLines, "\n")
			cues = append(cues, current)
		}
		current = Cue{}
		textLines = nil
		state = "index"
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		switch state {
		case "index":
			if line == "" {
				continue
			}
			index, err := strconv.Atoi(line)
			if err != nil {
				continue
			}
			current.Index = index
			state = "time"

		case "time":
			if line == "" {
				continue
			}
			start, end, err := parseSRTTime(line)
			if err != nil {
				log.Warn("Skipping cue %d in %s: %v", current.Index, path, err)
				state = "skip"
				continue
			}
			current.StartTime = start
			current.EndTime = end
			state = "text"

		case "text":
			if line == "" {
				flush()
				continue
			}
			textLines = append(textLines, line)

		case "skip":
			if line == "" {
				current = Cue{}
				state = "index"
			}
		}
	}
	if state == "text" {
		flush()
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read subtitle file: %w", err)
	}
	return cues, nil
}

func parseSRTTime(s string) (time.Duration, time.Duration, error) {
	m := srtTimeRe.FindStringSubmatch(s)
	if len(m) != 9 {
		return 0, 0, fmt.Errorf("invalid time format: %s", s)
	}

	part := func(h, mn, sec, ms string) time.Duration {
		hi, _ := strconv.Atoi(h)
		mi, _ := strconv.Atoi(mn)
		si, _ := strconv.Atoi(sec)
		msi, _ := strconv.Atoi(ms)
		return time.Duration(hi)*time.Hour +
			time.Duration(mi)*time.Minute +
			time.Duration(si)*time.Second +
			time.Duration(msi)*time.Millisecond
	}

	return part(m[1], m[2], m[3], m[4]), part(m[5], m[6], m[7], m[8]), nil
}

// DetectLanguage returns the majority language of the segment texts.
func DetectLanguage(segments []Segment) language.Tag {
	if len(segments) == 0 {
		return language.Und
	}

	counts := make(map[string]int)
	for _, seg := range segments {
		counts[whatlanggo.DetectLang(seg.Text).Iso6391()]++
	}

	var top string
	var topCount int
	for lang, count := range counts {
		if count > topCount || (count == topCount && lang < top) {
			top = lang
			topCount = count
		}
	}

	tag, err := language.Parse(top)
	if err != nil {
		return language.Und
	}
	return tag
}
