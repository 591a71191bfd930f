// Package canon turns raw per-class classifier scores into a canonical
// prediction: a probability vector in label-set order, the arg-max label
// and its confidence.
package canon

import (
	"errors"
	"fmt"
	"math"

	"github.com/crimson-sun/steady/internal/model"
)

// ErrInvalidPredictionShape is returned when raw scores do not cover the
// label set exactly.
var ErrInvalidPredictionShape = errors.New("invalid prediction shape")

// Canonicalizer maps raw classifier scores onto a fixed LabelSet.
type Canonicalizer struct {
	labels model.LabelSet
}

// New creates a Canonicalizer for the given canonical class order.
func New(labels model.LabelSet) *Canonicalizer {
	return &Canonicalizer{labels: labels}
}

// Labels returns the canonical class order.
func (c *Canonicalizer) Labels() model.LabelSet {
	return c.labels
}

// Canonicalize returns a copy of rec carrying the prediction derived from
// raw, a mapping from classifier token to score. Ties on the maximum score
// resolve to the lowest canonical index.
func (c *Canonicalizer) Canonicalize(rec model.Record, raw map[string]float64) (model.Record, error) {
	probs, err := c.Vector(raw)
	if err != nil {
		return rec, fmt.Errorf("canonicalize %s: %w", rec.Key(), err)
	}

	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}

	rec.Prediction = &model.Prediction{
		Label:         c.labels[best].Name,
		Confidence:    probs[best],
		Probabilities: probs,
	}
	return rec, nil
}

// Vector lays raw out in canonical order.
func (c *Canonicalizer) Vector(raw map[string]float64) ([]float64, error) {
	if len(raw) != len(c.labels) {
		return nil, fmt.Errorf("%w: got %d scores, want %d", ErrInvalidPredictionShape, len(raw), len(c.labels))
	}
	probs := make([]float64, len(c.labels))
	for i, cls := range c.labels {
		score, ok := raw[cls.Token]
		if !ok {
			return nil, fmt.Errorf("%w: missing score for %q", ErrInvalidPredictionShape, cls.Token)
		}
		if math.IsNaN(score) {
			return nil, fmt.Errorf("%w: NaN score for %q", ErrInvalidPredictionShape, cls.Token)
		}
		probs[i] = score
	}
	return probs, nil
}
