// Package classifier defines the contract between the evaluation engine and
// a trained text classifier, plus a registry of adapter implementations.
package classifier

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Request is one text to classify. Key identifies the originating record;
// responses are matched back by Key, never by position.
type Request struct {
	Key  string
	Text string
}

// Response carries the raw per-class scores for one request: classifier
// token (e.g. "LABEL_2") -> score. Scores need not sum to 1.
type Response struct {
	Key    string
	Scores map[string]float64
}

// Classifier scores batches of texts. Implementations may return responses
// in any order and own their own timeout and retry policy.
type Classifier interface {
	Classify(ctx context.Context, batch []Request) ([]Response, error)
}

// Func adapts a function to the Classifier interface.
type Func func(ctx context.Context, batch []Request) ([]Response, error)

func (f Func) Classify(ctx context.Context, batch []Request) ([]Response, error) {
	return f(ctx, batch)
}

// Config holds adapter settings. Each provider reads the fields it needs.
type Config struct {
	Provider string

	// onnx
	ModelPath   string
	VocabPath   string
	HeadPath    string
	LibraryPath string
	MaxSeqLen   int
	Threads     int

	// NumClasses, when set, is checked against what the model produces.
	NumClasses int

	// http
	Endpoint   string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int

	// replay
	PredictionPath string
}

// Constructor creates a Classifier from configuration.
type Constructor func(cfg Config) (Classifier, error)

var registry = map[string]Constructor{}

// Register adds a classifier constructor under the given provider name.
func Register(name string, ctor Constructor) {
	registry[name] = ctor
}

// Get returns the constructor for the given provider name.
func Get(name string) (Constructor, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown classifier provider: %s", name)
	}
	return ctor, nil
}

// Providers returns the registered provider names, sorted.
func Providers() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Closer is implemented by classifiers holding resources.
type Closer interface {
	Close() error
}

// Close releases c's resources if it holds any.
func Close(c Classifier) error {
	if cl, ok := c.(Closer); ok {
		return cl.Close()
	}
	return nil
}
