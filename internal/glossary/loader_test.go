package glossary

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_LoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "terms.csv", "\ufeffApple,苹果\n"+
		"Apple Pie , 苹果派 ,note\n"+
		"orphan\n"+
		",empty source\n"+
		"empty target,\n"+
		"\"quoted, term\",带逗号\n")

	idx := NewIndex()
	n, err := NewLoader(idx).LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	apple := idx.Lookup("Apple")
	require.Len(t, apple, 1)
	assert.Equal(t, Variant{Target: "苹果", Origin: "terms.csv", Priority: DefaultPriority}, apple[0])
	require.Len(t, idx.Lookup("Apple Pie"), 1)
	assert.Equal(t, "苹果派", idx.Lookup("Apple Pie")[0].Target)
	require.Len(t, idx.Lookup("quoted, term"), 1)
	assert.Nil(t, idx.Lookup("orphan"))
}

func TestLoader_LoadTSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "terms.tsv", "cat\t猫\ndog\t狗\n")

	idx := NewIndex()
	n, err := NewLoader(idx).LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "I have a [cat|猫] and a [dog|狗].",
		NewHighlighter(nil).Render("I have a cat and a dog.", idx.Extract("I have a cat and a dog.")))
}

func TestLoader_LoadXLSX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "terms.xlsx")

	wb := excelize.NewFile()
	require.NoError(t, wb.SetCellValue("Sheet1", "A1", "Save"))
	require.NoError(t, wb.SetCellValue("Sheet1", "B1", "保存"))
	require.NoError(t, wb.SetCellValue("Sheet1", "A2", "Open File"))
	require.NoError(t, wb.SetCellValue("Sheet1", "B2", "打开文件"))
	require.NoError(t, wb.SetCellValue("Sheet1", "A3", "no target"))
	require.NoError(t, wb.SaveAs(path))
	require.NoError(t, wb.Close())

	idx := NewIndex()
	n, err := NewLoader(idx).LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, idx.Lookup("Open File"), 1)
	assert.Equal(t, "terms.xlsx", idx.Lookup("Open File")[0].Origin)
}

func TestLoader_LoadTermMapJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "term_map.en-zh.json", `{"Okarun":"奥卡轮","Momo Ayase":"绫濑桃","":"x"}`)

	idx := NewIndex()
	n, err := NewLoader(idx).LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "奥卡轮", idx.Lookup("Okarun")[0].Target)
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := NewLoader(NewIndex()).LoadFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoader_UnsupportedFormat(t *testing.T) {
	path := writeFile(t, t.TempDir(), "terms.txt", "a,b\n")
	_, err := NewLoader(NewIndex()).LoadFile(path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoader_LoadFilesKeepsArgumentOrder(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "a.csv", "cloud,云\n")
	second := writeFile(t, dir, "b.tsv", "cloud\t云端\n")
	third := writeFile(t, dir, "c.csv", "cloud,云计算\n")

	idx := NewIndex()
	n, err := NewLoader(idx).LoadFiles(context.Background(), []string{first, second, third})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	variants := idx.Lookup("cloud")
	require.Len(t, variants, 3)
	assert.Equal(t, "a.csv", variants[0].Origin)
	assert.Equal(t, "b.tsv", variants[1].Origin)
	assert.Equal(t, "c.csv", variants[2].Origin)
}

func TestLoader_LoadFilesFailsOnMissing(t *testing.T) {
	dir := t.TempDir()
	ok := writeFile(t, dir, "a.csv", "cloud,云\n")

	idx := NewIndex()
	_, err := NewLoader(idx).LoadFiles(context.Background(), []string{ok, filepath.Join(dir, "nope.csv")})
	require.Error(t, err)
	assert.Equal(t, 0, idx.Len())
}
