package steady

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// sentiment scores "good" texts as pos.
func sentiment() ClassifierFunc {
	return func(_ context.Context, reqs []Request) ([]Response, error) {
		out := make([]Response, len(reqs))
		for i, r := range reqs {
			pos := 0.2
			if strings.Contains(r.Text, "good") {
				pos = 0.9
			}
			out[i] = Response{Key: r.Key, Scores: map[string]float64{"LABEL_0": 1 - pos, "LABEL_1": pos}}
		}
		return out, nil
	}
}

var reviews = []Example{
	{Text: "a good movie", Label: "pos"},
	{Text: "a dull movie", Label: "neg"},
	{Text: "the plot was good", Label: "neg"},
}

func TestNewRequiresClassifier(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil classifier")
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"empty labels", []Option{WithLabels()}},
		{"duplicate labels", []Option{WithLabels("a", "a")}},
		{"negative variants", []Option{WithVariants(-1)}},
		{"unknown strategy", []Option{WithStrategies("leet")}},
		{"no strategies", []Option{WithStrategies()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(sentiment(), tt.opts...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	ev, err := New(sentiment(), WithLabels("neg", "pos"), WithVariants(2), WithStrategies("identity"), WithIDPrefix("rev"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	res, err := ev.Evaluate(context.Background(), reviews)
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if len(res.Records) != 9 {
		t.Fatalf("records = %d, want 9", len(res.Records))
	}
	first := res.Records[0]
	if first.BaseID != "rev_0000" || first.VariantID != "base" || first.Text != "a good movie" {
		t.Errorf("first record = %+v", first)
	}
	if v := res.Records[1]; v.Strategy != "identity" || v.VariantID != "v1" || v.Text != "a good movie" {
		t.Errorf("variant = %+v, want identity copy of the base", v)
	}
	for _, r := range res.Records {
		if r.Prediction == nil || len(r.Prediction.Probabilities) != 2 {
			t.Fatalf("record %s/%s has no canonical prediction", r.BaseID, r.VariantID)
		}
	}

	s := res.Summary
	if s.Groups != 3 || s.FlipCount != 0 {
		t.Errorf("groups=%d flips=%d, want 3 and 0", s.Groups, s.FlipCount)
	}
	if s.BaseAccuracy == nil || *s.BaseAccuracy < 0.66 || *s.BaseAccuracy > 0.67 {
		t.Errorf("BaseAccuracy = %v, want 2/3", s.BaseAccuracy)
	}
	if s.Degradation == nil || *s.Degradation != 0 {
		t.Errorf("Degradation = %v, want 0", s.Degradation)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	ev, err := New(sentiment(), WithLabels("neg", "pos"), WithHashIDs())
	if err != nil {
		t.Fatal(err)
	}
	a, err := ev.Evaluate(context.Background(), reviews)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ev.Evaluate(context.Background(), reviews)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Records {
		if a.Records[i].Text != b.Records[i].Text || a.Records[i].BaseID != b.Records[i].BaseID {
			t.Fatalf("record %d differs between runs: %+v vs %+v", i, a.Records[i], b.Records[i])
		}
	}
	if len(a.Records[0].BaseID) != 12 {
		t.Errorf("hash id = %q, want 12 hex chars", a.Records[0].BaseID)
	}
}

func TestEvaluateConcurrent(t *testing.T) {
	ev, err := New(sentiment(), WithLabels("neg", "pos"), WithBatchSize(2), WithWorkers(2))
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ev.Evaluate(context.Background(), reviews); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent Evaluate() error: %v", err)
	}
}

func TestEvaluateClassifierError(t *testing.T) {
	boom := errors.New("model offline")
	failing := ClassifierFunc(func(context.Context, []Request) ([]Response, error) { return nil, boom })
	ev, err := New(failing, WithLabels("neg", "pos"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ev.Evaluate(context.Background(), reviews); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped classifier error, got %v", err)
	}
}

func TestBuildAndSummarize(t *testing.T) {
	ev, err := New(sentiment(), WithLabels("neg", "pos"), WithVariants(1), WithSynonyms(map[string][]string{"Movie": {"film"}}), WithStrategies("synonym"))
	if err != nil {
		t.Fatal(err)
	}
	records, err := ev.Build(reviews[:1])
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if len(records) != 2 || records[1].Text != "a good film" {
		t.Fatalf("records = %+v", records)
	}
	if records[0].Prediction != nil {
		t.Error("Build must not predict")
	}
	if _, err := ev.Summarize(records); err == nil {
		t.Fatal("expected error summarizing unscored records")
	}

	records[0].Prediction = &Prediction{Label: "pos", Confidence: 0.9, Probabilities: []float64{0.1, 0.9}}
	records[1].Prediction = &Prediction{Label: "neg", Confidence: 0.6, Probabilities: []float64{0.6, 0.4}}
	s, err := ev.Summarize(records)
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}
	if s.FlipCount != 1 {
		t.Errorf("FlipCount = %d, want 1", s.FlipCount)
	}
}

func TestLabels(t *testing.T) {
	ev, err := New(sentiment(), WithClasses(Class{Token: "NEG", Name: "neg"}, Class{Token: "POS", Name: "pos"}))
	if err != nil {
		t.Fatal(err)
	}
	got := ev.Labels()
	if len(got) != 2 || got[1] != (Class{Token: "POS", Name: "pos"}) {
		t.Errorf("Labels() = %+v", got)
	}
}

func TestOpenClassifierReplay(t *testing.T) {
	ev, err := New(sentiment(), WithLabels("neg", "pos"), WithVariants(1), WithStrategies("identity"))
	if err != nil {
		t.Fatal(err)
	}
	records, err := ev.Build(reviews)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "preds.jsonl")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := json.NewEncoder(f)
	for _, r := range records {
		line := map[string]any{"text": r.Text, "scores": map[string]float64{"LABEL_0": 0.3, "LABEL_1": 0.7}}
		if err := enc.Encode(line); err != nil {
			t.Fatal(err)
		}
	}
	f.Close()

	cls, err := OpenClassifier(ClassifierConfig{Provider: "replay", PredictionPath: path})
	if err != nil {
		t.Fatalf("OpenClassifier() error: %v", err)
	}
	defer CloseClassifier(cls)

	replayed, err := New(cls, WithLabels("neg", "pos"), WithVariants(1), WithStrategies("identity"))
	if err != nil {
		t.Fatal(err)
	}
	res, err := replayed.Evaluate(context.Background(), reviews)
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if res.Summary.Correct != 2 {
		t.Errorf("Correct = %d, want 2 (the pos base and its variant)", res.Summary.Correct)
	}
}

func TestOpenClassifierUnknown(t *testing.T) {
	if _, err := OpenClassifier(ClassifierConfig{Provider: "carrier-pigeon"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
