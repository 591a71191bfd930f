package perturb

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

// Dictionary maps a case-folded word to its synonyms.
type Dictionary map[string][]string

// fold returns the lookup key for a word. Casers are stateful, so each call
// gets its own.
func fold(w string) string {
	return cases.Fold().String(w)
}

// LoadDictionary reads a YAML mapping of word -> list of synonyms.
func LoadDictionary(path string) (Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("synonyms: %w", err)
	}
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("synonyms: parse %s: %w", path, err)
	}
	return NewDictionary(raw), nil
}

// NewDictionary builds a Dictionary from word -> synonyms. Keys are
// case-folded; entries without synonyms are dropped.
func NewDictionary(raw map[string][]string) Dictionary {
	d := make(Dictionary, len(raw))
	for w, syns := range raw {
		syns = slices.DeleteFunc(slices.Clone(syns), func(s string) bool {
			return strings.TrimSpace(s) == ""
		})
		if len(syns) == 0 {
			continue
		}
		d[fold(w)] = append(d[fold(w)], syns...)
	}
	return d
}

// Synonym replaces a bounded fraction of dictionary words with a synonym.
type Synonym struct {
	Fraction float64
	Dict     Dictionary
}

// NewSynonym returns a Synonym strategy. A nil dict uses DefaultDictionary.
func NewSynonym(dict Dictionary) *Synonym {
	if dict == nil {
		dict = DefaultDictionary()
	}
	return &Synonym{Fraction: 0.3, Dict: dict}
}

func (s *Synonym) Name() string { return "synonym" }

func (s *Synonym) Perturb(text string) (string, error) {
	if text == "" {
		return "", fail(s.Name(), ErrEmptyText)
	}

	var words []span
	for _, w := range spans(text, unicode.IsLetter) {
		if len(s.Dict[fold(text[w.start:w.end])]) > 0 {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return "", fail(s.Name(), ErrNoEligibleWords)
	}

	rng := newRand(s.Name(), text)
	chosen := pick(rng, len(words), quota(s.Fraction, len(words)))

	var b strings.Builder
	b.Grow(len(text) + 16)
	prev := 0
	for _, wi := range chosen {
		w := words[wi]
		orig := text[w.start:w.end]
		syns := s.Dict[fold(orig)]
		b.WriteString(text[prev:w.start])
		b.WriteString(matchCase(orig, syns[rng.IntN(len(syns))]))
		prev = w.end
	}
	b.WriteString(text[prev:])

	out := b.String()
	if out == text {
		return "", fail(s.Name(), ErrUnchanged)
	}
	return out, nil
}

// matchCase capitalizes repl when orig starts with an upper-case letter.
func matchCase(orig, repl string) string {
	r, _ := utf8.DecodeRuneInString(orig)
	if !unicode.IsUpper(r) || repl == "" {
		return repl
	}
	first, size := utf8.DecodeRuneInString(repl)
	return string(unicode.ToUpper(first)) + repl[size:]
}
