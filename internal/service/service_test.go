package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/localcat/internal/config"
	"github.com/MimeLyc/localcat/internal/segment"
	"github.com/MimeLyc/localcat/internal/session"
)

const testPO = `
msgctxt "menu"
msgid "Save"
msgstr ""

msgid "Apple Pie is ready"
msgstr ""

msgid "Nothing here"
msgstr ""
`

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestService(t *testing.T, opts ...config.Option) (*Service, string) {
	t.Helper()
	root := t.TempDir()
	glossary := writeFile(t, filepath.Join(root, "terms.csv"), "Apple Pie,苹果派\nApple,苹果\n")

	t.Setenv("LOCALCAT_DATA_DIR", filepath.Join(root, "data"))
	t.Setenv("LOCALCAT_GLOSSARIES", "")
	t.Setenv("LOCALCAT_MARKER", "")
	t.Setenv("LOCALCAT_SOURCE_DIRS", filepath.Join(root, "l10n"))
	cfg, err := config.NewFromEnv(append([]config.Option{config.WithGlossaries(glossary)}, opts...)...)
	require.NoError(t, err)

	svc, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, root
}

func TestNew_LoadsGlossaries(t *testing.T) {
	svc, _ := newTestService(t)
	assert.Equal(t, 2, svc.Terms())
}

func TestNew_MissingGlossary(t *testing.T) {
	root := t.TempDir()
	t.Setenv("LOCALCAT_DATA_DIR", filepath.Join(root, "data"))
	cfg, err := config.NewFromEnv(config.WithGlossaries(filepath.Join(root, "missing.csv")))
	require.NoError(t, err)

	_, err = New(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrFileNotFound))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestService_QueryAndSave(t *testing.T) {
	svc, _ := newTestService(t)

	res := svc.Query("Apple Pie is ready")
	assert.Equal(t, session.OutcomeTerms, res.Outcome)
	assert.Equal(t, "[Apple Pie|苹果派] is ready", res.Rendered)

	_, err := svc.Save(segment.Segment{Text: "Apple Pie is ready"}, "苹果派好了")
	require.NoError(t, err)

	res = svc.Query("Apple Pie is ready")
	assert.Equal(t, session.OutcomeMemory, res.Outcome)
	require.NotNil(t, res.Match)
	assert.Equal(t, "苹果派好了", res.Match.Target)
	assert.Empty(t, res.Hits)
}

func TestService_SaveRejectsEmptyTarget(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Save(segment.Segment{Text: "Save"}, "")
	assert.True(t, IsErrorType(err, ErrValidation))
}

func TestService_RunFiles(t *testing.T) {
	svc, root := newTestService(t)
	ctx := context.Background()
	po := writeFile(t, filepath.Join(root, "l10n", "app.po"), testPO)

	_, err := svc.Save(segment.Segment{Text: "Save"}, "保存")
	require.NoError(t, err)

	summary, err := svc.RunFiles(ctx, []string{po})
	require.NoError(t, err)
	require.Len(t, summary.Files, 1)
	assert.Equal(t, 3, summary.Segments())
	assert.Equal(t, 1, summary.Counts[session.OutcomeMemory])
	assert.Equal(t, 1, summary.Counts[session.OutcomeTerms])
	assert.Equal(t, 1, summary.Counts[session.OutcomeNoMatch])

	reportPath := filepath.Join(root, "l10n", "app.report.txt")
	assert.Equal(t, reportPath, summary.Files[0].ReportPath)
	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "# 3 segments: TM_HIT=1 TERMS=1 NO_MATCH=1", lines[1])
	assert.Equal(t, "[app.po_0] TM_HIT Save => 保存", lines[2])
	assert.Equal(t, "[app.po_1] TERMS [Apple Pie|苹果派] is ready", lines[3])
	assert.Equal(t, "[app.po_2] NO_MATCH Nothing here", lines[4])

	runs, err := svc.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, summary.RunID, runs[0].ID)
	assert.Equal(t, []string{po}, runs[0].Sources)
	assert.Equal(t, 1, runs[0].Counts[session.OutcomeTerms])
}

func TestService_RunFilesLoadsTermMapOnce(t *testing.T) {
	svc, root := newTestService(t)
	writeFile(t, filepath.Join(root, "l10n", "term_map.en-zh.json"), `{"Nothing": "无"}`)
	first := writeFile(t, filepath.Join(root, "l10n", "zh", "a.po"), testPO)
	second := writeFile(t, filepath.Join(root, "l10n", "zh", "b.po"), testPO)

	summary, err := svc.RunFiles(context.Background(), []string{first, second})
	require.NoError(t, err)
	assert.Equal(t, 3, svc.Terms())
	assert.Equal(t, 2, summary.Counts[session.OutcomeNoMatch])
	assert.Equal(t, 4, summary.Counts[session.OutcomeTerms])

	last := summary.Files[1].Results[2]
	assert.Equal(t, session.OutcomeTerms, last.Outcome)
	require.Len(t, last.Hits, 1)
	assert.Equal(t, "term_map.en-zh.json", last.Hits[0].Origin)
	assert.Len(t, svc.index.Lookup("Nothing"), 1)
}

func TestService_RunFilesFailsBeforeRecording(t *testing.T) {
	svc, root := newTestService(t)
	ctx := context.Background()
	po := writeFile(t, filepath.Join(root, "l10n", "app.po"), testPO)

	_, err := svc.RunFiles(ctx, []string{po, filepath.Join(root, "missing.po")})
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrFileNotFound))

	_, err = svc.RunFiles(ctx, []string{writeFile(t, filepath.Join(root, "notes.txt"), "x")})
	assert.True(t, IsErrorType(err, ErrParse))

	_, err = svc.RunFiles(ctx, nil)
	assert.True(t, IsErrorType(err, ErrValidation))

	runs, err := svc.History(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
	_, err = os.Stat(filepath.Join(root, "l10n", "app.report.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestService_RunFilesDiscardsIncompleteRun(t *testing.T) {
	svc, root := newTestService(t)
	ctx := context.Background()
	first := writeFile(t, filepath.Join(root, "l10n", "a.po"), testPO)
	second := writeFile(t, filepath.Join(root, "l10n", "b.po"), testPO)
	// a directory in the report's place makes writing it fail
	require.NoError(t, os.MkdirAll(filepath.Join(root, "l10n", "b.report.txt"), 0o755))

	_, err := svc.RunFiles(ctx, []string{first, second})
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrFileWrite))

	runs, err := svc.History(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
	_, err = os.Stat(filepath.Join(root, "l10n", "a.report.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestService_PruneHistory(t *testing.T) {
	svc, root := newTestService(t)
	ctx := context.Background()
	po := writeFile(t, filepath.Join(root, "l10n", "app.po"), testPO)

	_, err := svc.RunFiles(ctx, []string{po})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }
	svc.pruneHistory(ctx)

	runs, err := svc.History(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestService_Scan(t *testing.T) {
	svc, root := newTestService(t)
	ctx := context.Background()
	writeFile(t, filepath.Join(root, "l10n", "app.po"), testPO)
	writeFile(t, filepath.Join(root, "l10n", "readme.txt"), "ignored")

	summary, err := svc.Scan(ctx)
	require.NoError(t, err)
	require.NotNil(t, summary)
	require.Len(t, summary.Files, 1)
	assert.Equal(t, filepath.Join(root, "l10n", "app.po"), summary.Files[0].Path)

	summary, err = svc.Scan(ctx)
	require.NoError(t, err)
	assert.Nil(t, summary)
}

func TestService_Schedule(t *testing.T) {
	svc, _ := newTestService(t)
	c := cron.New()

	id, err := svc.Schedule(context.Background(), c)
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.Len(t, c.Entries(), 1)
}

func TestService_LookupUsesBracketMarker(t *testing.T) {
	svc, _ := newTestService(t, config.WithMarker(config.MarkerColor))

	res := svc.Lookup("Apple Pie is ready")
	assert.Equal(t, "[Apple Pie|苹果派] is ready", res.Rendered)
}
