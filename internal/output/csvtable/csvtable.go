// Package csvtable reads and writes the flat evaluation table: one row per
// record with columns id, variant_id, text, true_label, strategy,
// pred_label, confidence, prob_0..prob_{C-1}. Empty prediction cells mean
// the record has not been classified.
package csvtable

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/crimson-sun/steady/internal/model"
	"github.com/crimson-sun/steady/internal/output"
)

var (
	ErrMissingColumn     = errors.New("csvtable: missing column")
	ErrProbabilityLen    = errors.New("csvtable: probability vector length mismatch")
	ErrPartialPrediction = errors.New("csvtable: partial prediction")
)

var fixed = []string{"id", "variant_id", "text", "true_label", "strategy", "pred_label", "confidence"}

// Header returns the column names for a table with the given class count.
func Header(classes int) []string {
	h := append([]string(nil), fixed...)
	for i := range classes {
		h = append(h, fmt.Sprintf("prob_%d", i))
	}
	return h
}

// Write encodes records. Every populated probability vector must have
// exactly classes entries.
func Write(w io.Writer, records []model.Record, classes int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(classes)); err != nil {
		return fmt.Errorf("csvtable: %w", err)
	}
	row := make([]string, len(fixed)+classes)
	for _, r := range records {
		clear(row)
		row[0], row[1], row[2], row[3], row[4] = r.BaseID, r.VariantID, r.Text, r.TrueLabel, r.Strategy
		if p := r.Prediction; p != nil {
			row[5] = p.Label
			row[6] = formatFloat(p.Confidence)
			if p.Probabilities != nil {
				if len(p.Probabilities) != classes {
					return fmt.Errorf("%w: %s has %d, want %d", ErrProbabilityLen, r.Key(), len(p.Probabilities), classes)
				}
				for i, v := range p.Probabilities {
					row[len(fixed)+i] = formatFloat(v)
				}
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csvtable: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csvtable: %w", err)
	}
	return nil
}

// Read decodes a table. Columns are located by name, so tables without a
// strategy column (or with extra columns) are accepted.
func Read(r io.Reader) ([]model.Record, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("csvtable: header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range []string{"id", "variant_id", "text", "true_label", "pred_label", "confidence"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	var probCols []int
	for i := 0; ; i++ {
		c, ok := col[fmt.Sprintf("prob_%d", i)]
		if !ok {
			break
		}
		probCols = append(probCols, c)
	}
	cell := func(row []string, name string) string {
		if c, ok := col[name]; ok {
			return row[c]
		}
		return ""
	}

	var out []model.Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csvtable: line %d: %w", line, err)
		}
		rec := model.Record{
			BaseID:    cell(row, "id"),
			VariantID: cell(row, "variant_id"),
			Text:      cell(row, "text"),
			TrueLabel: cell(row, "true_label"),
			Strategy:  cell(row, "strategy"),
		}
		pred, err := readPrediction(row, cell(row, "pred_label"), cell(row, "confidence"), probCols)
		if err != nil {
			return nil, fmt.Errorf("csvtable: line %d: %w", line, err)
		}
		rec.Prediction = pred
		out = append(out, rec)
	}
	return out, nil
}

func readPrediction(row []string, label, conf string, probCols []int) (*model.Prediction, error) {
	if label == "" {
		if conf != "" {
			return nil, fmt.Errorf("%w: confidence without label", ErrPartialPrediction)
		}
		return nil, nil
	}
	if conf == "" {
		return nil, fmt.Errorf("%w: label without confidence", ErrPartialPrediction)
	}
	c, err := strconv.ParseFloat(conf, 64)
	if err != nil {
		return nil, fmt.Errorf("confidence: %w", err)
	}
	p := &model.Prediction{Label: label, Confidence: c}

	filled := 0
	for _, idx := range probCols {
		if row[idx] != "" {
			filled++
		}
	}
	switch {
	case filled == 0:
	case filled != len(probCols):
		return nil, fmt.Errorf("%w: %d of %d cells set", ErrProbabilityLen, filled, len(probCols))
	default:
		p.Probabilities = make([]float64, len(probCols))
		for i, idx := range probCols {
			if p.Probabilities[i], err = strconv.ParseFloat(row[idx], 64); err != nil {
				return nil, fmt.Errorf("prob_%d: %w", i, err)
			}
		}
	}
	return p, nil
}

// formatFloat uses the shortest representation that parses back to v.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteFile writes records to path, replacing any existing file.
func WriteFile(path string, records []model.Record, classes int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csvtable: %w", err)
	}
	if err := Write(f, records, classes); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile reads a table from path.
func ReadFile(path string) ([]model.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csvtable: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Output writes each report's records to a CSV file, one class column
// per report label.
type Output struct {
	path string
}

// New creates a CSV table output. Each Write replaces the file.
func New(path string) *Output {
	return &Output{path: path}
}

func (o *Output) Write(_ context.Context, report output.Report) error {
	return WriteFile(o.path, report.Records, len(report.Labels))
}

func (o *Output) Close() error {
	return nil
}
