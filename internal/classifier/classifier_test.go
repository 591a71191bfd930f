package classifier

import (
	"context"
	"testing"
)

func TestRegistry(t *testing.T) {
	Register("test-static", func(Config) (Classifier, error) {
		return Func(func(_ context.Context, batch []Request) ([]Response, error) {
			out := make([]Response, len(batch))
			for i, r := range batch {
				out[i] = Response{Key: r.Key, Scores: map[string]float64{"LABEL_0": 1}}
			}
			return out, nil
		}), nil
	})
	t.Cleanup(func() { delete(registry, "test-static") })

	ctor, err := Get("test-static")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	cls, err := ctor(Config{})
	if err != nil {
		t.Fatalf("constructor error: %v", err)
	}
	resp, err := cls.Classify(context.Background(), []Request{{Key: "a/base", Text: "x"}})
	if err != nil {
		t.Fatalf("Classify() error: %v", err)
	}
	if len(resp) != 1 || resp[0].Key != "a/base" {
		t.Errorf("unexpected response %+v", resp)
	}

	found := false
	for _, p := range Providers() {
		if p == "test-static" {
			found = true
		}
	}
	if !found {
		t.Errorf("Providers() = %v, missing test-static", Providers())
	}
	if err := Close(cls); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestGetUnknown(t *testing.T) {
	if _, err := Get("nope"); err == nil {
		t.Error("expected error for unknown provider")
	}
}
