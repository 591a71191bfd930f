package canon

import (
	"errors"
	"math"
	"testing"

	"github.com/crimson-sun/steady/internal/model"
)

func record() model.Record {
	return model.Record{BaseID: "agnews_0000", VariantID: "base", Text: "Stocks rose today", TrueLabel: "Business"}
}

func TestCanonicalize(t *testing.T) {
	c := New(model.DefaultLabels())
	raw := map[string]float64{"LABEL_3": 0.05, "LABEL_0": 0.02, "LABEL_2": 0.9, "LABEL_1": 0.03}

	in := record()
	got, err := c.Canonicalize(in, raw)
	if err != nil {
		t.Fatalf("Canonicalize() error: %v", err)
	}
	if in.Prediction != nil {
		t.Error("input record was modified")
	}
	p := got.Prediction
	if p == nil {
		t.Fatal("Prediction is nil")
	}
	if p.Label != "Business" {
		t.Errorf("Label = %q, want Business", p.Label)
	}
	if p.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", p.Confidence)
	}
	want := []float64{0.02, 0.03, 0.9, 0.05}
	for i := range want {
		if p.Probabilities[i] != want[i] {
			t.Errorf("Probabilities[%d] = %v, want %v", i, p.Probabilities[i], want[i])
		}
	}
}

func TestCanonicalizeOrderIndependent(t *testing.T) {
	c := New(model.DefaultLabels())
	// Build the same mapping with different insertion orders.
	orders := [][]string{
		{"LABEL_0", "LABEL_1", "LABEL_2", "LABEL_3"},
		{"LABEL_3", "LABEL_2", "LABEL_1", "LABEL_0"},
		{"LABEL_2", "LABEL_0", "LABEL_3", "LABEL_1"},
	}
	scores := map[string]float64{"LABEL_0": 0.1, "LABEL_1": 0.6, "LABEL_2": 0.2, "LABEL_3": 0.1}

	var first *model.Prediction
	for _, order := range orders {
		raw := make(map[string]float64, len(order))
		for _, tok := range order {
			raw[tok] = scores[tok]
		}
		got, err := c.Canonicalize(record(), raw)
		if err != nil {
			t.Fatalf("Canonicalize() error: %v", err)
		}
		if got.Prediction.Label != "Sports" {
			t.Errorf("Label = %q, want Sports", got.Prediction.Label)
		}
		if first == nil {
			first = got.Prediction
			continue
		}
		for i := range first.Probabilities {
			if first.Probabilities[i] != got.Prediction.Probabilities[i] {
				t.Errorf("Probabilities differ at %d", i)
			}
		}
	}
}

func TestCanonicalizeTieBreak(t *testing.T) {
	c := New(model.DefaultLabels())
	raw := map[string]float64{"LABEL_0": 0.1, "LABEL_1": 0.4, "LABEL_2": 0.1, "LABEL_3": 0.4}
	got, err := c.Canonicalize(record(), raw)
	if err != nil {
		t.Fatalf("Canonicalize() error: %v", err)
	}
	if got.Prediction.Label != "Sports" {
		t.Errorf("Label = %q, want Sports (lowest index among ties)", got.Prediction.Label)
	}
}

func TestCanonicalizeInvalidShape(t *testing.T) {
	c := New(model.DefaultLabels())
	tests := []struct {
		name string
		raw  map[string]float64
	}{
		{"too few", map[string]float64{"LABEL_0": 1}},
		{"too many", map[string]float64{"LABEL_0": 1, "LABEL_1": 0, "LABEL_2": 0, "LABEL_3": 0, "LABEL_4": 0}},
		{"unknown token", map[string]float64{"LABEL_0": 1, "LABEL_1": 0, "LABEL_2": 0, "world": 0}},
		{"NaN", map[string]float64{"LABEL_0": math.NaN(), "LABEL_1": 0, "LABEL_2": 0, "LABEL_3": 0}},
		{"empty", nil},
	}
	for _, tt := range tests {
		rec, err := c.Canonicalize(record(), tt.raw)
		if !errors.Is(err, ErrInvalidPredictionShape) {
			t.Errorf("%s: error = %v, want ErrInvalidPredictionShape", tt.name, err)
		}
		if rec.Prediction != nil {
			t.Errorf("%s: prediction populated on error", tt.name)
		}
	}
}
