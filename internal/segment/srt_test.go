package segment

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:02,500
Hello there.

2
00:00:03,000 --> 00:00:04,000
The cat
sat down.

3
bad timing line
Dropped.

4
00:01:00,250 --> 00:01:02,000
Goodbye.
`

func TestSRTReader_Read(t *testing.T) {
	path := writeTemp(t, "ep01.srt", sampleSRT)

	segments, err := NewSRTReader().Read(path)
	require.NoError(t, err)
	require.Len(t, segments, 3)

	assert.Equal(t, "ep01.srt_0", segments[0].ID)
	assert.Equal(t, "Hello there.", segments[0].Text)
	assert.Empty(t, segments[0].ContextBefore)
	assert.Equal(t, "The cat\nsat down.", segments[0].ContextAfter)

	assert.Equal(t, "Hello there.", segments[1].ContextBefore)
	assert.Equal(t, "Goodbye.", segments[1].ContextAfter)

	assert.Equal(t, "Goodbye.", segments[2].Text)
	assert.Empty(t, segments[2].ContextAfter)
	assert.Equal(t, "ep01.srt", segments[2].OriginFile)
}

func TestReadCues_Timing(t *testing.T) {
	path := writeTemp(t, "ep01.srt", sampleSRT)

	cues, err := ReadCues(path)
	require.NoError(t, err)
	require.Len(t, cues, 3)
	assert.Equal(t, 4, cues[2].Index)
	assert.Equal(t, time.Minute+250*time.Millisecond, cues[2].StartTime)
	assert.Equal(t, time.Minute+2*time.Second, cues[2].EndTime)
}

func TestReadCues_MissingFile(t *testing.T) {
	_, err := ReadCues(filepath.Join(t.TempDir(), "none.srt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDetectLanguage(t *testing.T) {
	segments := []Segment{
		{Text: "Hello, world!"},
		{Text: "こんにちは、世界!"},
		{Text: "こんにちは、世界!"},
		{Text: "Привет, мир!"},
	}
	assert.Equal(t, language.Japanese, DetectLanguage(segments))
	assert.Equal(t, language.Und, DetectLanguage(nil))
}
