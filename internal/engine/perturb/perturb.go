// Package perturb implements deterministic text perturbation strategies.
//
// Every strategy is a pure function of its configuration and the input text:
// pseudo-randomness is drawn from a generator seeded with a hash of the
// strategy name and the text, so a given text always produces the same
// variant across runs and processes.
package perturb

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"slices"
	"unicode"
)

var (
	// ErrEmptyText is returned when the input has nothing to perturb.
	ErrEmptyText = errors.New("empty text")
	// ErrNoEligibleWords is returned when no word qualifies for the strategy.
	ErrNoEligibleWords = errors.New("no eligible words")
	// ErrUnchanged is returned when the transformation left the text as-is.
	ErrUnchanged = errors.New("text unchanged")
)

// Strategy transforms one text into one perturbed variant.
type Strategy interface {
	Name() string
	Perturb(text string) (string, error)
}

// PerturbationError reports a strategy that could not transform its input.
// It is an expected, recoverable condition.
type PerturbationError struct {
	Strategy string
	Err      error
}

func (e *PerturbationError) Error() string {
	return fmt.Sprintf("perturb %s: %v", e.Strategy, e.Err)
}

func (e *PerturbationError) Unwrap() error { return e.Err }

func fail(strategy string, err error) error {
	return &PerturbationError{Strategy: strategy, Err: err}
}

// Func adapts a plain function to the Strategy interface.
type Func struct {
	Label string
	Fn    func(text string) (string, error)
}

func (f Func) Name() string { return f.Label }

func (f Func) Perturb(text string) (string, error) { return f.Fn(text) }

// Identity returns the text unchanged. Useful as a control strategy.
func Identity() Strategy {
	return Func{Label: "identity", Fn: func(text string) (string, error) { return text, nil }}
}

// newRand returns a generator seeded from the strategy name and text.
func newRand(name, text string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write([]byte(text))
	s1 := h.Sum64()
	h.Write([]byte{0xff})
	s2 := h.Sum64()
	return rand.New(rand.NewPCG(s1, s2))
}

// span is a half-open byte range [start, end) within a text.
type span struct {
	start, end int
}

// spans returns maximal runs of runes satisfying in.
func spans(text string, in func(rune) bool) []span {
	var out []span
	start := -1
	for i, r := range text {
		if in(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			out = append(out, span{start, i})
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, span{start, len(text)})
	}
	return out
}

func notSpace(r rune) bool { return !unicode.IsSpace(r) }

// quota returns ceil(fraction*n) clamped to [1, n]. n must be > 0.
func quota(fraction float64, n int) int {
	k := int(math.Ceil(fraction * float64(n)))
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	return k
}

// pick returns k distinct indices from [0, n) in ascending order.
func pick(rng *rand.Rand, n, k int) []int {
	perm := rng.Perm(n)[:k]
	slices.Sort(perm)
	return perm
}
