package tm

import (
	"bytes"
	"encoding/json"
	"errors"
)

// TimestampLayout is the last_used format: UTC, second precision, no zone suffix.
const TimestampLayout = "2006-01-02T15:04:05"

// MatchKind classifies a memory match.
type MatchKind string

const MatchExact MatchKind = "EXACT"

// Record is one line of the memory log.
type Record struct {
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	ContextPrev *string `json:"context_prev"`
	ContextNext *string `json:"context_next"`
	Speaker     *string `json:"speaker"`
	FileSource  string  `json:"file_source"`
	LastUsed    string  `json:"last_used"`
	UsageCount  int     `json:"usage_count"`
}

// Match is the result of a memory lookup.
type Match struct {
	Source     string
	Target     string
	Similarity float64
	Kind       MatchKind
	Origin     string
	UsageCount int
	LastUsed   string
}

var errNotObject = errors.New("record is not a JSON object")

func decodeRecord(line []byte) (Record, error) {
	if len(line) == 0 || line[0] != '{' {
		return Record{}, errNotObject
	}
	var r Record
	if err := json.Unmarshal(line, &r); err != nil {
		return Record{}, err
	}
	return r, nil
}

// encodeRecord writes the record as one line, newline included. Field order
// and the ", " / ": " separators are fixed so lines stay identical to the
// ones produced by other writers of the same log.
func encodeRecord(r Record) ([]byte, error) {
	var buf bytes.Buffer
	fields := []struct {
		key   string
		value any
	}{
		{"source", r.Source},
		{"target", r.Target},
		{"context_prev", r.ContextPrev},
		{"context_next", r.ContextNext},
		{"speaker", r.Speaker},
		{"file_source", r.FileSource},
		{"last_used", r.LastUsed},
		{"usage_count", r.UsageCount},
	}

	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteByte('"')
		buf.WriteString(f.key)
		buf.WriteString(`": `)
		if err := writeJSONValue(&buf, f.value); err != nil {
			return nil, err
		}
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func writeJSONValue(buf *bytes.Buffer, v any) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
