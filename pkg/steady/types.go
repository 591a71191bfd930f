package steady

import (
	"github.com/crimson-sun/steady/internal/classifier"
	"github.com/crimson-sun/steady/internal/engine/metrics"
	"github.com/crimson-sun/steady/internal/model"
)

// Example is one labeled base text.
type Example struct {
	Text  string `json:"text"`
	Label string `json:"label"` // class name, one of the configured labels
}

// Record is one classified text: a base example or one of its variants.
// This is the stable public type; internal representations may evolve
// independently without breaking consumers.
type Record struct {
	BaseID     string      `json:"base_id"`
	VariantID  string      `json:"variant_id"` // "base" or "v1".."vN"
	Text       string      `json:"text"`
	TrueLabel  string      `json:"true_label"`
	Strategy   string      `json:"strategy"`
	Prediction *Prediction `json:"prediction,omitempty"` // nil for unscored records
}

// Prediction is the canonical prediction for a record.
type Prediction struct {
	Label         string    `json:"pred_label"`
	Confidence    float64   `json:"confidence"`
	Probabilities []float64 `json:"probabilities"` // in label order
}

// Class pairs a classifier output token with its human label.
type Class struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

// Summary is the robustness report. Undefined ratios are nil.
type Summary = metrics.Summary

// Result is the outcome of Evaluate.
type Result struct {
	Records []Record
	Summary Summary
}

// Classifier contracts. A Classifier may answer a batch in any order;
// responses are matched back by Key.
type (
	Request        = classifier.Request
	Response       = classifier.Response
	Classifier     = classifier.Classifier
	ClassifierFunc = classifier.Func
)

func toExamples(in []Example) []model.BaseExample {
	out := make([]model.BaseExample, len(in))
	for i, ex := range in {
		out[i] = model.BaseExample{Index: i, Text: ex.Text, Label: ex.Label}
	}
	return out
}

func fromRecords(in []model.Record) []Record {
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = Record{
			BaseID:    r.BaseID,
			VariantID: r.VariantID,
			Text:      r.Text,
			TrueLabel: r.TrueLabel,
			Strategy:  r.Strategy,
		}
		if p := r.Prediction; p != nil {
			out[i].Prediction = &Prediction{Label: p.Label, Confidence: p.Confidence, Probabilities: p.Probabilities}
		}
	}
	return out
}

func toRecords(in []Record) []model.Record {
	out := make([]model.Record, len(in))
	for i, r := range in {
		out[i] = model.Record{
			BaseID:    r.BaseID,
			VariantID: r.VariantID,
			Text:      r.Text,
			TrueLabel: r.TrueLabel,
			Strategy:  r.Strategy,
		}
		if p := r.Prediction; p != nil {
			out[i].Prediction = &model.Prediction{Label: p.Label, Confidence: p.Confidence, Probabilities: p.Probabilities}
		}
	}
	return out
}

func fromLabelSet(ls model.LabelSet) []Class {
	out := make([]Class, len(ls))
	for i, c := range ls {
		out[i] = Class{Token: c.Token, Name: c.Name}
	}
	return out
}
