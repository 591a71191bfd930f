// Package source loads labeled base examples from JSONL, JSON or CSV files.
package source

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/crimson-sun/steady/internal/model"
)

//go:embed sample.jsonl
var sampleJSONL []byte

var (
	ErrUnknownFormat = errors.New("source: unknown corpus format")
	ErrMissingLabel  = errors.New("source: example has no label")
	ErrLabelRange    = errors.New("source: label index out of range")
)

// Format identifies a corpus encoding.
type Format string

const (
	FormatJSONL Format = "jsonl"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

// FormatOf infers the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// Options control label resolution and truncation.
type Options struct {
	// Labels resolves numeric labels and classifier tokens to class names.
	Labels model.LabelSet
	// Limit keeps only the first Limit examples when positive.
	Limit int
}

// entry is one raw corpus row. Label may be a class name, a classifier
// token, or a numeric class index.
type entry struct {
	Text  string          `json:"text"`
	Label json.RawMessage `json:"label"`
}

// Load reads a corpus file. Example indexes follow file order.
func Load(path string, opts Options) ([]model.BaseExample, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	defer f.Close()
	return Decode(f, format, opts)
}

// Sample returns the embedded demonstration corpus.
func Sample(opts Options) ([]model.BaseExample, error) {
	return Decode(bytes.NewReader(sampleJSONL), FormatJSONL, opts)
}

// Decode parses a corpus from r.
func Decode(r io.Reader, format Format, opts Options) ([]model.BaseExample, error) {
	var (
		rows []entry
		err  error
	)
	switch format {
	case FormatJSONL:
		rows, err = decodeJSONL(r, opts.Limit)
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&rows)
	case FormatCSV:
		rows, err = decodeCSV(r, opts.Limit)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("source: %s: %w", format, err)
	}
	if opts.Limit > 0 && len(rows) > opts.Limit {
		rows = rows[:opts.Limit]
	}

	labels := opts.Labels
	if labels == nil {
		labels = model.DefaultLabels()
	}
	out := make([]model.BaseExample, 0, len(rows))
	for i, row := range rows {
		label, err := resolveLabel(row.Label, labels)
		if err != nil {
			return nil, fmt.Errorf("source: example %d: %w", i, err)
		}
		out = append(out, model.BaseExample{Index: i, Text: row.Text, Label: label})
	}
	return out, nil
}

func decodeJSONL(r io.Reader, limit int) ([]entry, error) {
	dec := json.NewDecoder(r)
	var rows []entry
	for limit <= 0 || len(rows) < limit {
		var e entry
		if err := dec.Decode(&e); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("record %d: %w", len(rows), err)
		}
		rows = append(rows, e)
	}
	return rows, nil
}

// decodeCSV requires a header naming "text" and "label" columns.
func decodeCSV(r io.Reader, limit int) ([]entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	textCol, labelCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "text":
			textCol = i
		case "label":
			labelCol = i
		}
	}
	if textCol < 0 || labelCol < 0 {
		return nil, fmt.Errorf("header must name text and label columns, got %v", header)
	}

	var rows []entry
	for limit <= 0 || len(rows) < limit {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) <= max(textCol, labelCol) {
			return nil, fmt.Errorf("row %d: %d fields", len(rows)+1, len(rec))
		}
		label, _ := json.Marshal(rec[labelCol])
		rows = append(rows, entry{Text: rec[textCol], Label: label})
	}
	return rows, nil
}

// resolveLabel maps a raw label onto a class name. Numbers index into the
// label set, classifier tokens map to their class, other strings pass
// through unchanged.
func resolveLabel(raw json.RawMessage, labels model.LabelSet) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", ErrMissingLabel
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var n int
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", fmt.Errorf("label %s: %w", raw, err)
		}
		return labelAt(n, labels)
	}

	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return "", ErrMissingLabel
	case labels.IndexOfName(s) >= 0:
		return s, nil
	case labels.IndexOfToken(s) >= 0:
		return labels[labels.IndexOfToken(s)].Name, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return labelAt(n, labels)
	}
	return s, nil
}

func labelAt(n int, labels model.LabelSet) (string, error) {
	if n < 0 || n >= len(labels) {
		return "", fmt.Errorf("%w: %d not in [0,%d)", ErrLabelRange, n, len(labels))
	}
	return labels[n].Name, nil
}
