package segment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPOReader_Read(t *testing.T) {
	path := writeTemp(t, "test_temp.po", `
msgctxt "Menu Context"
msgid "Open File"
msgstr "打开文件"

msgid "Save"
msgstr "保存"
`)

	segments, err := NewPOReader().Read(path)
	require.NoError(t, err)
	require.Len(t, segments, 2)

	assert.Equal(t, Segment{
		ID:            "test_temp.po_0",
		Text:          "Open File",
		ContextBefore: "Menu Context",
		OriginFile:    "test_temp.po",
	}, segments[0])
	assert.Equal(t, "Save", segments[1].Text)
	assert.Empty(t, segments[1].ContextBefore)
	assert.Equal(t, "test_temp.po_1", segments[1].ID)
}

func TestPOReader_HeaderCommentsAndContinuations(t *testing.T) {
	path := writeTemp(t, "app.po", `# Translator comment
msgid ""
msgstr ""
"Content-Type: text/plain; charset=UTF-8\n"

#: src/main.c:10
msgid ""
"Press \"Start\" "
"to begin"
msgstr ""

msgid "One file"
msgid_plural "%d files"
msgstr[0] "一个文件"
msgstr[1] "%d 个文件"

#~ msgid "Obsolete"
#~ msgstr "废弃"
`)

	segments, err := NewPOReader().Read(path)
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, `Press "Start" to begin`, segments[0].Text)
	assert.Equal(t, "app.po_0", segments[0].ID)
	assert.Equal(t, "One file", segments[1].Text)
}

func TestPOReader_MissingFile(t *testing.T) {
	_, err := NewPOReader().Read(filepath.Join(t.TempDir(), "missing.po"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestUnescapePO(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain`, "plain"},
		{`a\nb`, "a\nb"},
		{`tab\there`, "tab\there"},
		{`back\\slash`, `back\slash`},
		{`\"q\"`, `"q"`},
		{`keep\x`, `keep\x`},
		{`trailing\`, `trailing\`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, unescapePO(tt.in))
		})
	}
}

func TestReaderFor(t *testing.T) {
	r, err := ReaderFor("locale/zh.PO")
	require.NoError(t, err)
	assert.IsType(t, &POReader{}, r)

	r, err = ReaderFor("ep01.srt")
	require.NoError(t, err)
	assert.IsType(t, &SRTReader{}, r)

	_, err = ReaderFor("notes.docx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.False(t, Supported("notes.docx"))
	assert.True(t, Supported("messages.pot"))
}
