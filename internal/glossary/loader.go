package glossary

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"github.com/MimeLyc/localcat/pkg/log"
)

// ErrUnsupportedFormat is returned for glossary files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported glossary format")

type termPair struct {
	source string
	target string
}

// Loader feeds two-column glossary files into an Index.
type Loader struct {
	index *Index
}

func NewLoader(index *Index) *Loader {
	return &Loader{index: index}
}

// LoadFile reads one glossary file and adds every usable row to the index,
// labelled with the file's base name. It returns the number of terms added.
func (l *Loader) LoadFile(path string) (int, error) {
	pairs, err := readGlossary(path)
	if err != nil {
		return 0, err
	}
	return l.add(path, pairs), nil
}

// LoadFiles parses the files concurrently and then adds their terms in
// argument order, so variant order does not depend on scheduling.
func (l *Loader) LoadFiles(ctx context.Context, paths []string) (int, error) {
	parsed := make([][]termPair, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pairs, err := readGlossary(path)
			if err != nil {
				return err
			}
			parsed[i] = pairs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	total := 0
	for i, path := range paths {
		total += l.add(path, parsed[i])
	}
	return total, nil
}

func (l *Loader) add(path string, pairs []termPair) int {
	origin := filepath.Base(path)
	for _, p := range pairs {
		l.index.AddTerm(p.source, p.target, origin, DefaultPriority)
	}
	log.Debug("Loaded %d terms from %s", len(pairs), path)
	return len(pairs)
}

func readGlossary(path string) ([]termPair, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("glossary file not found: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return readDelimited(path, ',')
	case ".tsv":
		return readDelimited(path, '\t')
	case ".xlsx", ".xlsm":
		return readSpreadsheet(path)
	case ".json":
		return readTermMap(path)
	default:
		return nil, fmt.Errorf("%w: %q (%s)", ErrUnsupportedFormat, ext, path)
	}
}

// pairFromRow applies the column convention: column A is the source,
// column B the target, both trimmed and both required.
func pairFromRow(row []string) (termPair, bool) {
	if len(row) < 2 {
		return termPair{}, false
	}
	source := strings.TrimSpace(row[0])
	target := strings.TrimSpace(row[1])
	if source == "" || target == "" {
		return termPair{}, false
	}
	return termPair{source: source, target: target}, true
}

func readDelimited(path string, comma rune) ([]termPair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open glossary %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	pairs := make([]termPair, 0)
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				log.Warn("Skipping malformed row in %s: %v", path, err)
				continue
			}
			return nil, fmt.Errorf("read glossary %s: %w", path, err)
		}
		if first && len(row) > 0 {
			row[0] = strings.TrimPrefix(row[0], "\ufeff")
		}
		first = false
		if p, ok := pairFromRow(row); ok {
			pairs = append(pairs, p)
		}
	}
	return pairs, nil
}

func readSpreadsheet(path string) ([]termPair, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q of %s: %w", sheet, path, err)
	}

	pairs := make([]termPair, 0, len(rows))
	for _, row := range rows {
		if p, ok := pairFromRow(row); ok {
			pairs = append(pairs, p)
		}
	}
	return pairs, nil
}

func readTermMap(path string) ([]termPair, error) {
	tm, err := LoadTermMap(path)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(tm))
	for k := range tm {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]termPair, 0, len(keys))
	for _, k := range keys {
		if p, ok := pairFromRow([]string{k, tm[k]}); ok {
			pairs = append(pairs, p)
		}
	}
	return pairs, nil
}
