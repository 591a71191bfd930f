package perturb

import "strings"

// Swap exchanges a bounded fraction of adjacent word pairs. Whitespace
// between words is kept in place.
type Swap struct {
	Fraction float64
}

// NewSwap returns a Swap strategy with the default fraction.
func NewSwap() *Swap {
	return &Swap{Fraction: 0.2}
}

func (s *Swap) Name() string { return "swap" }

func (s *Swap) Perturb(text string) (string, error) {
	words := spans(text, notSpace)
	switch {
	case len(words) == 0:
		return "", fail(s.Name(), ErrEmptyText)
	case len(words) < 2:
		return "", fail(s.Name(), ErrNoEligibleWords)
	}

	tokens := make([]string, len(words))
	for i, w := range words {
		tokens[i] = text[w.start:w.end]
	}

	rng := newRand(s.Name(), text)
	for _, i := range pick(rng, len(words)-1, quota(s.Fraction, len(words)-1)) {
		tokens[i], tokens[i+1] = tokens[i+1], tokens[i]
	}

	var b strings.Builder
	b.Grow(len(text))
	prev := 0
	for i, w := range words {
		b.WriteString(text[prev:w.start])
		b.WriteString(tokens[i])
		prev = w.end
	}
	b.WriteString(text[prev:])

	out := b.String()
	if out == text {
		return "", fail(s.Name(), ErrUnchanged)
	}
	return out, nil
}
