package glossary

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/text/language"
)

// TermMap is the flat JSON glossary form: source term -> target term.
type TermMap map[string]string

// TermMapFilename returns the per-language-pair glossary filename, built from
// 2-letter base codes, e.g. "term_map.en-zh.json".
func TermMapFilename(sourceLang, targetLang string) string {
	return "term_map." + baseLanguage(sourceLang) + "-" + baseLanguage(targetLang) + ".json"
}

// FindTermMapInAncestors walks up from startDir and returns the closest
// term map for the language pair, or "" when there is none.
func FindTermMapInAncestors(startDir, sourceLang, targetLang string) string {
	name := TermMapFilename(sourceLang, targetLang)
	dir := startDir
	for {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// LoadTermMap reads a term map JSON file.
func LoadTermMap(path string) (TermMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tm TermMap
	if err := json.Unmarshal(data, &tm); err != nil {
		return nil, fmt.Errorf("parse term map %s: %w", path, err)
	}
	return tm, nil
}

func baseLanguage(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return lang
	}
	base, _ := tag.Base()
	return base.String()
}
